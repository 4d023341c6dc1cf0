package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes for the reservation pipeline. Conflicts and validation errors go
// back to the caller untouched; everything else maps onto the usual HTTP codes.
const (
	CodeConflict           = "CONFLICT"
	CodeHoldExpired        = "HOLD_EXPIRED"
	CodeForbidden          = "FORBIDDEN"
	CodeValidation         = "VALIDATION_ERROR"
	CodeNotFound           = "NOT_FOUND"
	CodeTransactionAborted = "TRANSACTION_ABORTED"
	CodeInternal           = "INTERNAL_ERROR"
)

// AppError carries an error code, a caller-facing message and the HTTP status
// the transport layer should answer with.
type AppError struct {
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	HTTPStatus int            `json:"-"`
	Details    map[string]any `json:"details,omitempty"`
	Err        error          `json:"-"`
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

func (e *AppError) WithDetails(details map[string]any) *AppError {
	e.Details = details
	return e
}

// Conflict signals that a conditional write matched no record: the seat is
// validly held by someone else, already booked, or the record moved on.
func Conflict(message string) *AppError {
	return &AppError{Code: CodeConflict, Message: message, HTTPStatus: http.StatusConflict}
}

// Expired signals that a hold lapsed before the operation could use it.
func Expired(message string) *AppError {
	return &AppError{Code: CodeHoldExpired, Message: message, HTTPStatus: http.StatusConflict}
}

// Forbidden signals that the caller is not the holder or owner of the record.
func Forbidden(message string) *AppError {
	return &AppError{Code: CodeForbidden, Message: message, HTTPStatus: http.StatusForbidden}
}

// Validation signals malformed input (empty seat sets, bad ids, mixed trips).
func Validation(message string) *AppError {
	return &AppError{Code: CodeValidation, Message: message, HTTPStatus: http.StatusBadRequest}
}

func NotFound(resource string) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
	}
}

// TransactionAborted signals a multi-record commit that could not complete.
// The precondition state is guaranteed unchanged, so the caller may retry.
func TransactionAborted(message string, err error) *AppError {
	return &AppError{
		Code:       CodeTransactionAborted,
		Message:    message,
		HTTPStatus: http.StatusConflict,
		Err:        err,
	}
}

func Internal(message string, err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// From extracts an *AppError from err, wrapping unknown errors as internal.
func From(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal("unexpected error", err)
}

// IsCode reports whether err is an AppError with the given code.
func IsCode(err error, code string) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

func IsConflict(err error) bool { return IsCode(err, CodeConflict) }

func IsExpired(err error) bool { return IsCode(err, CodeHoldExpired) }

func IsNotFound(err error) bool { return IsCode(err, CodeNotFound) }
