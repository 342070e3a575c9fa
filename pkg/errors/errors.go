package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for common scenarios.
var (
	ErrInvalidCredentials = New("INVALID_CREDENTIALS", http.StatusUnauthorized, "invalid email or password")
	ErrEmailInUse         = New("EMAIL_IN_USE", http.StatusConflict, "email already in use")
	ErrMissingFields      = New("MISSING_FIELDS", http.StatusBadRequest, "required fields missing")
	ErrValidation         = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrUnauthorized       = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrNotFound           = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrUploadFailed       = New("UPLOAD_FAILED", http.StatusBadGateway, "file upload failed")
	ErrStudentCreate      = New("STUDENT_CREATE_FAILED", http.StatusInternalServerError, "student record could not be created")
	ErrDiagnosisInsert    = New("DIAGNOSIS_INSERT_FAILED", http.StatusInternalServerError, "diagnosis record could not be created")
	ErrPredictionService  = New("PREDICTION_SERVICE_ERROR", http.StatusBadGateway, "prediction service call failed")
	ErrMessageSend        = New("MESSAGE_SEND_FAILED", http.StatusBadGateway, "message could not be sent")
	ErrCacheMiss          = New("CACHE_MISS", http.StatusNotFound, "cache miss")
	ErrInternal           = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// WithUpstreamStatus copies the error carrying the upstream HTTP status in the message.
func WithUpstreamStatus(err *Error, status int) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	clone.Message = fmt.Sprintf("%s (upstream status %d)", err.Message, status)
	return &clone
}
