// Package mcp implements the Model Context Protocol server for eywa,
// exposing the Engine's search and content operations as MCP tools and
// resources for AI clients (Claude Code, Cursor) over stdio JSON-RPC.
package mcp

import (
	"context"
	"errors"
	"fmt"

	engineerrors "github.com/nans28/eywa/internal/errors"
)

// Standard and eywa-specific MCP error codes.
const (
	ErrCodeNotFound       = -32001
	ErrCodeInferenceError = -32002
	ErrCodeTimeout        = -32003
	ErrCodeBusy           = -32004

	ErrCodeInvalidRequest = -32600
	ErrCodeMethodNotFound = -32601
	ErrCodeInvalidParams  = -32602
	ErrCodeInternalError  = -32603
)

// MCPError represents an MCP protocol error with code and message.
type MCPError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// MapError converts an error returned by the Engine into an MCPError.
// EngineError taxonomy codes (internal/errors) map to eywa-specific MCP
// codes; anything else maps to internal error.
func MapError(err error) *MCPError {
	if err == nil {
		return nil
	}

	var ee *engineerrors.EngineError
	if errors.As(err, &ee) {
		return mapEngineError(ee)
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return &MCPError{Code: ErrCodeTimeout, Message: "request timed out or was cancelled"}
	default:
		return &MCPError{Code: ErrCodeInternalError, Message: err.Error()}
	}
}

func mapEngineError(ee *engineerrors.EngineError) *MCPError {
	message := ee.Message
	if ee.Suggestion != "" {
		message = fmt.Sprintf("%s %s", ee.Message, ee.Suggestion)
	}

	switch ee.Code {
	case engineerrors.CodeNotFound:
		return &MCPError{Code: ErrCodeNotFound, Message: message}
	case engineerrors.CodeInvalidInput:
		return &MCPError{Code: ErrCodeInvalidParams, Message: message}
	case engineerrors.CodeBusy:
		return &MCPError{Code: ErrCodeBusy, Message: message}
	case engineerrors.CodeInference:
		return &MCPError{Code: ErrCodeInferenceError, Message: message}
	case engineerrors.CodeCancelled:
		return &MCPError{Code: ErrCodeTimeout, Message: message}
	default:
		return &MCPError{Code: ErrCodeInternalError, Message: message}
	}
}

// NewInvalidParamsError creates an error for invalid tool parameters.
func NewInvalidParamsError(msg string) *MCPError {
	return &MCPError{Code: ErrCodeInvalidParams, Message: msg}
}

// NewMethodNotFoundError creates an error for an unknown tool name.
func NewMethodNotFoundError(name string) *MCPError {
	return &MCPError{Code: ErrCodeMethodNotFound, Message: fmt.Sprintf("tool %q not found", name)}
}

// NewResourceNotFoundError creates an error for an unknown resource URI.
func NewResourceNotFoundError(uri string) *MCPError {
	return &MCPError{Code: ErrCodeMethodNotFound, Message: fmt.Sprintf("resource %q not found", uri)}
}
