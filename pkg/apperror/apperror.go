package apperror

import (
	"errors"
	"net/http"
)

// AppError classifies a failure for callers and the HTTP layer
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

const (
	CodeMatchFailure           = "MATCH_FAILURE"
	CodeValidationFailure      = "VALIDATION_FAILURE"
	CodeExternalServiceFailure = "EXTERNAL_SERVICE_FAILURE"
	CodePersistenceFailure     = "PERSISTENCE_FAILURE"
	CodeNotFound               = "NOT_FOUND"
	CodeUnauthorized           = "UNAUTHORIZED"
	CodeInternal               = "INTERNAL_ERROR"
)

func NewMatchFailure(message string, err error) *AppError {
	return &AppError{Code: CodeMatchFailure, Message: message, Status: http.StatusUnprocessableEntity, Err: err}
}

func NewValidationFailure(message string, err error) *AppError {
	return &AppError{Code: CodeValidationFailure, Message: message, Status: http.StatusBadRequest, Err: err}
}

func NewExternalServiceFailure(message string, err error) *AppError {
	return &AppError{Code: CodeExternalServiceFailure, Message: message, Status: http.StatusBadGateway, Err: err}
}

func NewPersistenceFailure(message string, err error) *AppError {
	return &AppError{Code: CodePersistenceFailure, Message: message, Status: http.StatusInternalServerError, Err: err}
}

func NewNotFound(message string) *AppError {
	return &AppError{Code: CodeNotFound, Message: message, Status: http.StatusNotFound}
}

func NewUnauthorized(message string) *AppError {
	return &AppError{Code: CodeUnauthorized, Message: message, Status: http.StatusUnauthorized}
}

func NewInternal(message string, err error) *AppError {
	return &AppError{Code: CodeInternal, Message: message, Status: http.StatusInternalServerError, Err: err}
}

// Map converts an arbitrary error into an AppError, defaulting to internal
func Map(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return NewInternal("an unexpected error occurred", err)
}

// Is reports whether err carries the given code
func Is(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}
