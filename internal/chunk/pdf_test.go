package chunk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	engineerrors "github.com/nans28/eywa/internal/errors"
)

// TS01: Malformed input is reported as InvalidInput, not a generic error,
// so callers can distinguish a bad upload from an engine fault.
func TestExtractPDFText_MalformedInput_ReturnsInvalidInput(t *testing.T) {
	_, err := ExtractPDFText([]byte("this is not a pdf"))

	require.Error(t, err)
	assert.Equal(t, engineerrors.CodeInvalidInput, engineerrors.GetCode(err))
}

// TS02: Empty input is reported as InvalidInput.
func TestExtractPDFText_EmptyInput_ReturnsInvalidInput(t *testing.T) {
	_, err := ExtractPDFText(nil)

	require.Error(t, err)
	assert.Equal(t, engineerrors.CodeInvalidInput, engineerrors.GetCode(err))
}
