package apperrors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgconn"
	"gorm.io/gorm"
)

// Code is the error code sent to the client
type Code string

const (
	BadRequestCode   Code = "BAD_REQUEST"
	UnauthorizedCode Code = "UNAUTHORIZED"
	ForbiddenCode    Code = "FORBIDDEN"
	NotFoundCode     Code = "NOT_FOUND"
	ConflictCode     Code = "CONFLICT"
	InternalCode     Code = "INTERNAL_SERVER_ERROR"
)

const uniqueViolation = "23505"

var statusCodes = map[Code]int{
	BadRequestCode:   http.StatusBadRequest,
	UnauthorizedCode: http.StatusUnauthorized,
	ForbiddenCode:    http.StatusForbidden,
	NotFoundCode:     http.StatusNotFound,
	ConflictCode:     http.StatusConflict,
	InternalCode:     http.StatusInternalServerError,
}

// Error is raised where a request fails and is passed to the client unchanged
type Error struct {
	Code    Code
	Message string
	Details []string
	err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.err
}

// StatusCode returns the HTTP status for the code
func (e *Error) StatusCode() int {
	if status, ok := statusCodes[e.Code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// Wrap keeps the underlying cause for errors.Is and errors.As
func (e *Error) Wrap(err error) *Error {
	e.err = err
	return e
}

// New creates an error with the given code
func New(code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func BadRequest(format string, args ...interface{}) *Error {
	return New(BadRequestCode, format, args...)
}

func Unauthorized(format string, args ...interface{}) *Error {
	return New(UnauthorizedCode, format, args...)
}

func Forbidden(format string, args ...interface{}) *Error {
	return New(ForbiddenCode, format, args...)
}

func NotFound(format string, args ...interface{}) *Error {
	return New(NotFoundCode, format, args...)
}

func Conflict(format string, args ...interface{}) *Error {
	return New(ConflictCode, format, args...)
}

func Internal(format string, args ...interface{}) *Error {
	return New(InternalCode, format, args...)
}

// Invalid is a BAD_REQUEST carrying one entry per failed field
func Invalid(details []string) *Error {
	e := BadRequest("validation failed")
	e.Details = details
	return e
}

// As returns the *Error in the chain of err, anything else becomes
// an INTERNAL_SERVER_ERROR
func As(err error) *Error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal("%v", err).Wrap(err)
}

// CodeOf returns the code of err, an empty code for nil
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	return As(err).Code
}

// FromDB converts a database error about what into an application error
func FromDB(err error, what string) error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return NotFound("%s not found", what).Wrap(err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return Conflict("%s already exists", what).Wrap(err)
	}
	return Internal("%s: %v", what, err).Wrap(err)
}
