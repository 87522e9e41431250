package apperrors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// AppError is the application error carried up to the HTTP layer.
type AppError struct {
	Code     ErrorCode   `json:"code"`
	Message  string      `json:"message"`
	Details  interface{} `json:"details,omitempty"`
	Err      error       `json:"-"`
	HTTPCode int         `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(code ErrorCode, message string, httpCode int) *AppError {
	return &AppError{Code: code, Message: message, HTTPCode: httpCode}
}

func Wrap(err error, code ErrorCode, message string, httpCode int) *AppError {
	return &AppError{Code: code, Message: message, HTTPCode: httpCode, Err: err}
}

// As is a convenience re-export so callers do not need both packages.
func As(err error, target **AppError) bool {
	return stderrors.As(err, target)
}

// ---- Factories ----

func NewBadRequestError(message string) *AppError {
	return New(CodeValidationFailed, message, http.StatusBadRequest)
}

func ValidationError(details map[string]string) *AppError {
	return &AppError{
		Code:     CodeValidationFailed,
		Message:  "Validation failed",
		Details:  details,
		HTTPCode: http.StatusBadRequest,
	}
}

func NewUnauthorizedError(message string) *AppError {
	return New(CodeUnauthorized, message, http.StatusUnauthorized)
}

func NewForbiddenError(message string) *AppError {
	return New(CodeForbidden, message, http.StatusForbidden)
}

func ErrNotFound(err error) *AppError {
	return Wrap(err, CodeNotFound, "Resource not found", http.StatusNotFound)
}

func ErrAlreadyExists(err error) *AppError {
	return Wrap(err, CodeAlreadyExists, "Resource already exists", http.StatusConflict)
}

// InvalidTransition maps an illegal state-machine edge to 409 so callers can
// distinguish it from validation failures.
func InvalidTransition(err error, message string) *AppError {
	return Wrap(err, CodeInvalidTransition, message, http.StatusConflict)
}

func WriteConflict(err error) *AppError {
	return Wrap(err, CodeWriteConflict, "Concurrent update, please retry", http.StatusConflict)
}

func StoreUnavailable(err error) *AppError {
	return Wrap(err, CodeDatabaseError, "Storage temporarily unavailable", http.StatusServiceUnavailable)
}

func InternalError(err error) *AppError {
	return Wrap(err, CodeInternalError, "Internal server error", http.StatusInternalServerError)
}
