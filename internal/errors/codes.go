// Package errors provides the structured error taxonomy for the
// retrieval engine: NotFound, AlreadyExists, InvalidInput, ModelMismatch,
// InferenceError, StorageError, Cancelled, Busy, Inconsistent, Internal.
package errors

// Category groups taxonomy codes for coarse-grained handling.
type Category string

const (
	CategoryNotFound  Category = "NOT_FOUND"
	CategoryConflict  Category = "CONFLICT"
	CategoryValidation Category = "VALIDATION"
	CategoryModel     Category = "MODEL"
	CategoryStorage   Category = "STORAGE"
	CategoryLifecycle Category = "LIFECYCLE"
	CategoryInternal  Category = "INTERNAL"
)

// Severity mirrors the teacher's error severity levels.
type Severity string

const (
	SeverityFatal   Severity = "FATAL"
	SeverityError   Severity = "ERROR"
	SeverityWarning Severity = "WARNING"
)

// Code is a machine-readable tag from the engine's error taxonomy
// (spec.md §7). Every EngineError carries exactly one Code.
type Code string

const (
	CodeNotFound      Code = "NotFound"
	CodeAlreadyExists Code = "AlreadyExists"
	CodeInvalidInput  Code = "InvalidInput"
	CodeModelMismatch Code = "ModelMismatch"
	CodeInference     Code = "InferenceError"
	CodeStorage       Code = "StorageError"
	CodeCancelled     Code = "Cancelled"
	CodeBusy          Code = "Busy"
	CodeInconsistent  Code = "Inconsistent"
	CodeInternal      Code = "Internal"
)

// HTTPStatus maps a taxonomy code to the status the HTTP surface
// returns for it (spec.md §7).
func (c Code) HTTPStatus() int {
	switch c {
	case CodeInvalidInput:
		return 400
	case CodeNotFound:
		return 404
	case CodeAlreadyExists:
		return 409
	case CodeModelMismatch:
		return 422
	case CodeBusy:
		return 429
	default:
		return 500
	}
}

// ExitCode maps a taxonomy code to the CLI exit code it produces
// (0 success, 1 user error, 2 engine failure — spec.md §6).
func (c Code) ExitCode() int {
	switch c {
	case CodeInvalidInput, CodeNotFound, CodeAlreadyExists, CodeBusy:
		return 1
	default:
		return 2
	}
}

// categoryFromCode classifies a code for logging and dashboards.
func categoryFromCode(code Code) Category {
	switch code {
	case CodeNotFound:
		return CategoryNotFound
	case CodeAlreadyExists:
		return CategoryConflict
	case CodeInvalidInput:
		return CategoryValidation
	case CodeModelMismatch:
		return CategoryModel
	case CodeInference, CodeStorage:
		return CategoryStorage
	case CodeCancelled, CodeBusy:
		return CategoryLifecycle
	default:
		return CategoryInternal
	}
}

// severityFromCode determines severity based on the code.
func severityFromCode(code Code) Severity {
	switch code {
	case CodeModelMismatch, CodeInconsistent:
		return SeverityFatal
	case CodeBusy, CodeCancelled:
		return SeverityWarning
	default:
		return SeverityError
	}
}

// isRetryableCode reports whether the operation may be retried as-is.
func isRetryableCode(code Code) bool {
	switch code {
	case CodeBusy, CodeCancelled, CodeStorage:
		return true
	default:
		return false
	}
}
