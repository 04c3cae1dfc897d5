package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"

	"sigsim/domain/core"
)

// AppError represents a structured application error
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates a new AppError
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an error with additional context, keeping the code of the
// wrapped error when it has one
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return &AppError{
		Code:    GetCode(err),
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an error with formatted additional context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// WithCode adds an error code to an existing error
func WithCode(code string, err error) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return &AppError{
			Code:    code,
			Message: appErr.Message,
			Cause:   appErr.Cause,
		}
	}
	return &AppError{
		Code:    code,
		Message: err.Error(),
		Cause:   err,
	}
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// GetCode returns the code of the outermost AppError in the chain; domain
// errors without one are classified by FromDomain
func GetCode(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return domainCode(err)
}

// Predefined error codes
const (
	CodeConfigInvalid    = "CONFIG_INVALID"
	CodeInvalidInput     = "INVALID_INPUT"
	CodeInvalidParameter = "INVALID_PARAMETER"
	CodeDegenerateSample = "DEGENERATE_SAMPLE"
	CodeEmptyResult      = "EMPTY_RESULT"
	CodeCanceled         = "CANCELED"
	CodeBodyTooLarge     = "BODY_TOO_LARGE"
	CodeInternalError    = "INTERNAL_ERROR"
)

// FromDomain classifies a simulation error into an AppError. Nil stays nil
// and an error that already carries a code is returned as is.
func FromDomain(err error) error {
	if err == nil {
		return nil
	}
	if IsAppError(err) {
		return err
	}
	return &AppError{Code: domainCode(err), Message: "simulation failed", Cause: err}
}

// domainCode maps the core sentinels. ErrInvalidParameter wins over
// ErrEmptyResult for a zero trial count, which matches both.
func domainCode(err error) string {
	switch {
	case core.IsInvalidParameter(err):
		return CodeInvalidParameter
	case core.IsDegenerateSample(err):
		return CodeDegenerateSample
	case core.IsEmptyResult(err):
		return CodeEmptyResult
	case stderrors.Is(err, context.Canceled), stderrors.Is(err, context.DeadlineExceeded):
		return CodeCanceled
	default:
		return CodeInternalError
	}
}

// HTTPStatus maps an error code to the status the API responds with
func HTTPStatus(err error) int {
	switch GetCode(err) {
	case CodeInvalidParameter, CodeInvalidInput:
		return http.StatusBadRequest
	case CodeDegenerateSample, CodeEmptyResult:
		return http.StatusUnprocessableEntity
	case CodeCanceled:
		return http.StatusServiceUnavailable
	case CodeBodyTooLarge:
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

// RequestBody classifies a failure to read or decode a request body. Bodies
// cut off by http.MaxBytesReader get CodeBodyTooLarge.
func RequestBody(err error, message string) *AppError {
	var tooLarge *http.MaxBytesError
	if stderrors.As(err, &tooLarge) {
		return &AppError{
			Code:    CodeBodyTooLarge,
			Message: fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit),
			Cause:   err,
		}
	}
	return &AppError{Code: CodeInvalidInput, Message: message, Cause: err}
}

// Common error constructors
func ConfigInvalid(message string) *AppError {
	return New(CodeConfigInvalid, message)
}

func InvalidInput(message string) *AppError {
	return New(CodeInvalidInput, message)
}

func InternalError(message string) *AppError {
	return New(CodeInternalError, message)
}
