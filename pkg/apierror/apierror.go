package apierror

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	CodeUnauthorized  = "UNAUTHORIZED"
	CodeForbidden     = "FORBIDDEN"
	CodeNotFound      = "NOT_FOUND"
	CodeAlreadyExists = "ALREADY_EXISTS"
	CodeBadRequest    = "BAD_REQUEST"
	CodeInternal      = "INTERNAL_ERROR"
)

// APIError is the only error shape that reaches a client. Cause is kept for
// server-side logs and is never serialised.
type APIError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    string `json:"details,omitempty"`
	HTTPStatus int    `json:"-"`
	Cause      error  `json:"-"`
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}

	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Details != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Details)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}

	return msg
}

func (e *APIError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// WithCause returns a copy of e carrying cause.
func (e *APIError) WithCause(cause error) *APIError {
	clone := *e
	clone.Cause = cause
	return &clone
}

func New(code string, message string, details string, status int) *APIError {
	return &APIError{Code: code, Message: message, Details: details, HTTPStatus: status}
}

func Unauthorized(message string, cause error) *APIError {
	return &APIError{
		Code:       CodeUnauthorized,
		Message:    "Unauthorized: " + message,
		HTTPStatus: http.StatusUnauthorized,
		Cause:      cause,
	}
}

func Forbidden(message string) *APIError {
	return New(CodeForbidden, message, "", http.StatusForbidden)
}

func UserNotFound(loginID string) *APIError {
	return New(CodeNotFound, fmt.Sprintf("user[%s] is not existed", loginID), "", http.StatusNotFound)
}

func AlreadyExistedUser(loginID string) *APIError {
	return New(CodeAlreadyExists, fmt.Sprintf("%s is already existed", loginID), "", http.StatusConflict)
}

func BadRequest(message string, field string) *APIError {
	return New(CodeBadRequest, message, field, http.StatusBadRequest)
}

// ServerError hides cause from the client; op names the failing operation.
func ServerError(op string, cause error) *APIError {
	return &APIError{
		Code:       CodeInternal,
		Message:    "Server error. Internal err code : " + op,
		HTTPStatus: http.StatusInternalServerError,
		Cause:      cause,
	}
}

func IsStatus(err error, status int) bool {
	apiErr, ok := As(err)
	return ok && apiErr.HTTPStatus == status
}

func As(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
