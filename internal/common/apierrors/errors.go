// Package apierrors provides the application's error taxonomy, from which
// internal/httpenv builds the registry's {status, message} response envelope.
package apierrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes as constants.
const (
	CodeNotFound      = "NOT_FOUND"
	CodeAlreadyExists = "ALREADY_EXISTS"
	CodeInvalidRole   = "INVALID_ROLE"
	CodeInvalidInput  = "INVALID_INPUT"
	CodeGatewayError  = "GATEWAY_ERROR"
	CodeToolError     = "TOOL_ERROR"
	CodeUnsupported   = "UNSUPPORTED"
	CodeInternalError = "INTERNAL_ERROR"
)

// AppError represents an application-specific error with additional context.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"http_status"`
	Err        error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error for use with errors.Is and errors.As.
func (e *AppError) Unwrap() error {
	return e.Err
}

// NotFound creates an error for an unknown agent_id / user_id / task_id /
// file_id / conversation_id.
func NotFound(resource, id string) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s with id %q not found", resource, id),
		HTTPStatus: http.StatusNotFound,
	}
}

// AlreadyExists creates an error for a duplicate URL registration or a
// duplicate user_id.
func AlreadyExists(resource, id string) *AppError {
	return &AppError{
		Code:       CodeAlreadyExists,
		Message:    fmt.Sprintf("%s %q already exists", resource, id),
		HTTPStatus: http.StatusConflict,
	}
}

// InvalidRole creates an error for an operation addressed to a node of the
// wrong kind (public vs. user).
func InvalidRole(message string) *AppError {
	return &AppError{
		Code:       CodeInvalidRole,
		Message:    message,
		HTTPStatus: http.StatusConflict,
	}
}

// InvalidInput creates an error for a malformed request: bad Part shape,
// an unsupported media type, or a missing required field.
func InvalidInput(message string) *AppError {
	return &AppError{
		Code:       CodeInvalidInput,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// GatewayError creates an error for a model provider that returned no
// choices, or a tool call whose arguments could not be parsed.
func GatewayError(message string, err error) *AppError {
	return &AppError{
		Code:       CodeGatewayError,
		Message:    message,
		HTTPStatus: http.StatusBadGateway,
		Err:        err,
	}
}

// ToolError creates an error for a peer-invocation tool failure: discovery
// failure, unreachable destination, interaction add/delete failure, or a
// broken stream.
func ToolError(message string, err error) *AppError {
	return &AppError{
		Code:       CodeToolError,
		Message:    message,
		HTTPStatus: http.StatusBadGateway,
		Err:        err,
	}
}

// Unsupported creates an error for an operation the implementation does
// not support, such as task cancellation.
func Unsupported(message string) *AppError {
	return &AppError{
		Code:       CodeUnsupported,
		Message:    message,
		HTTPStatus: http.StatusNotImplemented,
	}
}

// InternalError creates an error wrapping an unexpected underlying error.
func InternalError(message string, err error) *AppError {
	return &AppError{
		Code:       CodeInternalError,
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// Wrap wraps an existing error with additional context, preserving its code
// and status when it is already an AppError.
func Wrap(err error, message string) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return &AppError{
			Code:       appErr.Code,
			Message:    fmt.Sprintf("%s: %s", message, appErr.Message),
			HTTPStatus: appErr.HTTPStatus,
			Err:        err,
		}
	}
	return &AppError{
		Code:       CodeInternalError,
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// Is reports whether err is an AppError with the given code.
func Is(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// HTTPStatus returns the HTTP status code for an error, defaulting to 500
// when err is not an AppError.
func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}
