// Package apperrors provides the structured error type shared by the
// onboarding services and its mapping onto HTTP status codes.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies an error category.
type Code string

const (
	CodeValidation     Code = "VALIDATION_ERROR"
	CodeNotFound       Code = "NOT_FOUND"
	CodeConflict       Code = "CONFLICT"
	CodeWaiverRequired Code = "WAIVER_REQUIRED"
	CodeStepIncomplete Code = "STEP_INCOMPLETE"
	CodeUnknownKey     Code = "UNKNOWN_SELECTION_KEY"
	CodeLLMFailure     Code = "LLM_FAILURE"
	CodeLLMParse       Code = "LLM_PARSE_ERROR"
	CodeStorage        Code = "STORAGE_ERROR"
	CodeCache          Code = "CACHE_ERROR"
	CodeInternal       Code = "INTERNAL_ERROR"
)

// FieldError is a single failed field check.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is the application error carried across service boundaries.
type Error struct {
	Code      Code
	Message   string
	Fields    []FieldError
	Retryable bool
	Cause     error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches on code so that sentinel values work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

var (
	ErrValidation     = &Error{Code: CodeValidation, Message: "validation failed"}
	ErrNotFound       = &Error{Code: CodeNotFound, Message: "not found"}
	ErrWaiverRequired = &Error{Code: CodeWaiverRequired, Message: "a signed waiver is required"}
	ErrUnknownKey     = &Error{Code: CodeUnknownKey, Message: "unknown selection key"}
	ErrLLMFailure     = &Error{Code: CodeLLMFailure, Message: "workout generation failed", Retryable: true}
)

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Wrap(cause error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

func WrapRetryable(cause error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, Cause: cause, Retryable: true}
}

// Validation builds a validation error from field errors.
func Validation(message string, fields ...FieldError) *Error {
	return &Error{Code: CodeValidation, Message: message, Fields: fields}
}

func IsRetryable(err error) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Retryable
	}
	return false
}

func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}

func FieldsOf(err error) []FieldError {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Fields
	}
	return nil
}

// HTTPStatus maps an error onto the status code handlers respond with.
func HTTPStatus(err error) int {
	switch CodeOf(err) {
	case CodeValidation, CodeStepIncomplete, CodeUnknownKey:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	case CodeWaiverRequired:
		return http.StatusPreconditionRequired
	case CodeLLMFailure, CodeLLMParse:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
