package internal

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "VALIDATION_ERROR"
	ErrorTypeNotFound     ErrorType = "NOT_FOUND"
	ErrorTypeUnauthorized ErrorType = "UNAUTHORIZED"
	ErrorTypeForbidden    ErrorType = "FORBIDDEN"
	ErrorTypeConflict     ErrorType = "CONFLICT"
	ErrorTypeInternal     ErrorType = "INTERNAL_ERROR"
	ErrorTypeExternal     ErrorType = "EXTERNAL_ERROR"
)

type ErrorCode string

// Request shape.
const (
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeInvalidID        ErrorCode = "INVALID_ID"
	ErrCodeInvalidDate      ErrorCode = "INVALID_DATE"
)

// Domain rules.
const (
	ErrCodeInvalidPercentage       ErrorCode = "INVALID_PERCENTAGE"
	ErrCodeCommentTooShort         ErrorCode = "COMMENT_TOO_SHORT"
	ErrCodeInvalidRole             ErrorCode = "INVALID_ROLE"
	ErrCodeTaskNotFound            ErrorCode = "TASK_NOT_FOUND"
	ErrCodeUserNotFound            ErrorCode = "USER_NOT_FOUND"
	ErrCodeInvalidRating           ErrorCode = "INVALID_RATING"
	ErrCodeInvalidFeedbackCategory ErrorCode = "INVALID_FEEDBACK_CATEGORY"
	ErrCodeInvalidWeights          ErrorCode = "INVALID_WEIGHTS"
	ErrCodeSelfFeedback            ErrorCode = "SELF_FEEDBACK"
	ErrCodeHierarchyCycle          ErrorCode = "HIERARCHY_CYCLE"
	ErrCodeJobRunning              ErrorCode = "JOB_ALREADY_RUNNING"
	ErrCodeUnknownJob              ErrorCode = "UNKNOWN_JOB"
)

// Authentication and access.
const (
	ErrCodeUnauthorizedAccess ErrorCode = "UNAUTHORIZED_ACCESS"
	ErrCodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	ErrCodeUserInactive       ErrorCode = "USER_INACTIVE"
	ErrCodeInvalidToken       ErrorCode = "INVALID_TOKEN"
	ErrCodeTokenExpired       ErrorCode = "TOKEN_EXPIRED"
)

const (
	ErrCodeInternal            ErrorCode = "INTERNAL_ERROR"
	ErrCodeUpstreamUnavailable ErrorCode = "UPSTREAM_UNAVAILABLE"
)

// AppError is the error every service returns for a condition the caller
// can act on. Values are treated as immutable: WithCause and WithDetails
// return copies, so the package-level sentinels stay shared safely.
type AppError struct {
	Type       ErrorType   `json:"type"`
	Code       ErrorCode   `json:"code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
	StatusCode int         `json:"-"`
	Cause      error       `json:"-"`
}

func newAppError(typ ErrorType, status int, code ErrorCode, message string) *AppError {
	return &AppError{Type: typ, Code: code, Message: message, StatusCode: status}
}

func (e *AppError) Error() string {
	if v, ok := e.Details.(ValidationErrors); ok && len(v.Errors) > 0 {
		return v.Errors[0].Message
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches any AppError with the same type and code, so a wrapped or
// copied error still satisfies errors.Is against its sentinel.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Type == t.Type && e.Code == t.Code
}

func (e *AppError) WithCause(cause error) *AppError {
	c := *e
	c.Cause = cause
	return &c
}

func (e *AppError) WithDetails(details interface{}) *AppError {
	c := *e
	c.Details = details
	return &c
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func NewValidationError(message string, code ErrorCode) *AppError {
	return newAppError(ErrorTypeValidation, http.StatusBadRequest, code, message)
}

// NewValidationFieldError reports one failing field; the field's own code
// travels in the details.
func NewValidationFieldError(field, message string, code ErrorCode) *AppError {
	return NewValidationError("Validation failed", ErrCodeValidationFailed).WithDetails(ValidationErrors{
		Errors: []ValidationError{{Field: field, Message: message, Code: string(code)}},
	})
}

func NewNotFoundError(message string, code ErrorCode) *AppError {
	return newAppError(ErrorTypeNotFound, http.StatusNotFound, code, message)
}

func NewUnauthorizedError(message string, code ErrorCode) *AppError {
	return newAppError(ErrorTypeUnauthorized, http.StatusUnauthorized, code, message)
}

func NewForbiddenError(message string, code ErrorCode) *AppError {
	return newAppError(ErrorTypeForbidden, http.StatusForbidden, code, message)
}

func NewConflictError(message string, code ErrorCode) *AppError {
	return newAppError(ErrorTypeConflict, http.StatusConflict, code, message)
}

func NewInternalError(message string, cause error) *AppError {
	e := newAppError(ErrorTypeInternal, http.StatusInternalServerError, ErrCodeInternal, message)
	e.Cause = cause
	return e
}

// NewExternalError wraps a failure of an upstream dependency such as the
// project-management API.
func NewExternalError(message string, cause error) *AppError {
	e := newAppError(ErrorTypeExternal, http.StatusBadGateway, ErrCodeUpstreamUnavailable, message)
	e.Cause = cause
	return e
}

var (
	ErrTaskNotFound       = NewNotFoundError("Task not found", ErrCodeTaskNotFound)
	ErrUserNotFound       = NewNotFoundError("User not found", ErrCodeUserNotFound)
	ErrUnauthorizedAccess = NewForbiddenError("insufficient role for this action", ErrCodeUnauthorizedAccess)

	ErrInvalidCredentials = NewUnauthorizedError("Invalid email or password", ErrCodeInvalidCredentials)
	ErrUserInactive       = NewForbiddenError("User account is inactive", ErrCodeUserInactive)
	ErrInvalidToken       = NewUnauthorizedError("Invalid token", ErrCodeInvalidToken)
	ErrTokenExpired       = NewUnauthorizedError("Token has expired", ErrCodeTokenExpired)
)

// IsAppError unwraps err looking for an *AppError.
func IsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

type Response struct {
	Error *AppError `json:"error"`
}

func (e *AppError) ToHTTPResponse() (int, interface{}) {
	return e.StatusCode, Response{Error: e}
}

func (e *AppError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    ErrorType   `json:"type"`
		Code    ErrorCode   `json:"code"`
		Message string      `json:"message"`
		Details interface{} `json:"details,omitempty"`
	}{
		Type:    e.Type,
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	})
}
