package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngineError_Unwrap_PreservesOriginalError(t *testing.T) {
	originalErr := errors.New("original error")

	engErr := New(CodeStorage, "write failed", originalErr)

	require.NotNil(t, engErr)
	assert.Equal(t, originalErr, errors.Unwrap(engErr))
	assert.True(t, errors.Is(engErr, originalErr))
}

func TestEngineError_Error_ReturnsFormattedMessage(t *testing.T) {
	tests := []struct {
		name     string
		code     Code
		message  string
		expected string
	}{
		{
			name:     "not found",
			code:     CodeNotFound,
			message:  "document not found",
			expected: "[NotFound] document not found",
		},
		{
			name:     "model mismatch",
			code:     CodeModelMismatch,
			message:  "embedding dimension changed",
			expected: "[ModelMismatch] embedding dimension changed",
		},
		{
			name:     "storage error",
			code:     CodeStorage,
			message:  "disk write failed",
			expected: "[StorageError] disk write failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code, tt.message, nil)
			assert.Equal(t, tt.expected, err.Error())
		})
	}
}

func TestEngineError_Is_MatchesByCode(t *testing.T) {
	err1 := New(CodeNotFound, "doc A not found", nil)
	err2 := New(CodeNotFound, "doc B not found", nil)

	assert.True(t, errors.Is(err1, err2))
}

func TestEngineError_Is_DoesNotMatchDifferentCodes(t *testing.T) {
	err1 := New(CodeNotFound, "doc not found", nil)
	err2 := New(CodeAlreadyExists, "doc already exists", nil)

	assert.False(t, errors.Is(err1, err2))
}

func TestEngineError_WithDetail_AddsContext(t *testing.T) {
	err := New(CodeNotFound, "document not found", nil)

	err = err.WithDetail("source_id", "docs-01")
	err = err.WithDetail("doc_id", "abc123")

	assert.Equal(t, "docs-01", err.Details["source_id"])
	assert.Equal(t, "abc123", err.Details["doc_id"])
}

func TestEngineError_WithSuggestion_AddsSuggestion(t *testing.T) {
	err := New(CodeModelMismatch, "embedding model changed", nil)

	err = err.WithSuggestion("reindex the source to rebuild the vector store")

	assert.Equal(t, "reindex the source to rebuild the vector store", err.Suggestion)
}

func TestEngineError_CategoryFromCode(t *testing.T) {
	tests := []struct {
		code         Code
		wantCategory Category
	}{
		{CodeNotFound, CategoryNotFound},
		{CodeAlreadyExists, CategoryConflict},
		{CodeInvalidInput, CategoryValidation},
		{CodeModelMismatch, CategoryModel},
		{CodeInference, CategoryStorage},
		{CodeStorage, CategoryStorage},
		{CodeCancelled, CategoryLifecycle},
		{CodeBusy, CategoryLifecycle},
		{CodeInconsistent, CategoryInternal},
		{CodeInternal, CategoryInternal},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			err := New(tt.code, "test message", nil)
			assert.Equal(t, tt.wantCategory, err.Category)
		})
	}
}

func TestEngineError_SeverityFromCode(t *testing.T) {
	tests := []struct {
		code         Code
		wantSeverity Severity
	}{
		{CodeModelMismatch, SeverityFatal},
		{CodeInconsistent, SeverityFatal},
		{CodeBusy, SeverityWarning},
		{CodeCancelled, SeverityWarning},
		{CodeNotFound, SeverityError},
		{CodeStorage, SeverityError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			err := New(tt.code, "test message", nil)
			assert.Equal(t, tt.wantSeverity, err.Severity)
		})
	}
}

func TestEngineError_RetryableFromCode(t *testing.T) {
	tests := []struct {
		code          Code
		wantRetryable bool
	}{
		{CodeBusy, true},
		{CodeCancelled, true},
		{CodeStorage, true},
		{CodeNotFound, false},
		{CodeInvalidInput, false},
		{CodeModelMismatch, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			err := New(tt.code, "test message", nil)
			assert.Equal(t, tt.wantRetryable, err.Retryable)
		})
	}
}

func TestWrap_CreatesEngineErrorFromError(t *testing.T) {
	originalErr := errors.New("something went wrong")

	engErr := Wrap(CodeInternal, originalErr)

	require.NotNil(t, engErr)
	assert.Equal(t, CodeInternal, engErr.Code)
	assert.Equal(t, "something went wrong", engErr.Message)
	assert.Equal(t, originalErr, engErr.Cause)
}

func TestWrap_NilErrorReturnsNil(t *testing.T) {
	assert.Nil(t, Wrap(CodeInternal, nil))
}

func TestTaxonomyConstructors_SetExpectedCode(t *testing.T) {
	tests := []struct {
		name string
		err  *EngineError
		code Code
	}{
		{"not found", NotFound("missing", nil), CodeNotFound},
		{"already exists", AlreadyExists("dup", nil), CodeAlreadyExists},
		{"invalid input", InvalidInput("bad query", nil), CodeInvalidInput},
		{"model mismatch", ModelMismatch("dim changed", nil), CodeModelMismatch},
		{"inference", Inference("embed failed", nil), CodeInference},
		{"storage", Storage("write failed", nil), CodeStorage},
		{"cancelled", Cancelled("job cancelled", nil), CodeCancelled},
		{"busy", Busy("source locked", nil), CodeBusy},
		{"inconsistent", Inconsistent("partial commit", nil), CodeInconsistent},
		{"internal", Internal("panic recovered", nil), CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
		})
	}
}

func TestIsRetryable_ChecksRetryableFlag(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "retryable EngineError",
			err:      New(CodeStorage, "transient write failure", nil),
			expected: true,
		},
		{
			name:     "non-retryable EngineError",
			err:      New(CodeNotFound, "not found", nil),
			expected: false,
		},
		{
			name:     "wrapped retryable error",
			err:      Wrap(CodeBusy, errors.New("source locked")),
			expected: true,
		},
		{
			name:     "standard error",
			err:      errors.New("standard error"),
			expected: false,
		},
		{
			name:     "nil error",
			err:      nil,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsRetryable(tt.err))
		})
	}
}

func TestIsFatal_ChecksFatalSeverity(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "model mismatch is fatal",
			err:      New(CodeModelMismatch, "dimension changed", nil),
			expected: true,
		},
		{
			name:     "inconsistent commit is fatal",
			err:      New(CodeInconsistent, "partial commit across stores", nil),
			expected: true,
		},
		{
			name:     "not found is not fatal",
			err:      New(CodeNotFound, "not found", nil),
			expected: false,
		},
		{
			name:     "standard error is not fatal",
			err:      errors.New("standard error"),
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsFatal(tt.err))
		})
	}
}

func TestGetCode_ExtractsCode(t *testing.T) {
	assert.Equal(t, CodeNotFound, GetCode(New(CodeNotFound, "missing", nil)))
	assert.Equal(t, Code(""), GetCode(errors.New("plain")))
}

func TestGetCategory_ExtractsCategory(t *testing.T) {
	assert.Equal(t, CategoryModel, GetCategory(New(CodeModelMismatch, "mismatch", nil)))
	assert.Equal(t, Category(""), GetCategory(errors.New("plain")))
}
