// Package apperr maps domain errors onto HTTP responses. Repositories and
// services return sentinel errors; handlers pass them through WriteError so
// status-code selection lives in one place.
package apperr

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("operation not allowed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrConflict     = errors.New("resource conflict")
	ErrBadRequest   = errors.New("malformed request")
	ErrTooMany      = errors.New("too many requests")
)

// Error carries an HTTP status alongside a wrapped cause so errors.Is keeps
// working across layers.
type Error struct {
	Status int
	Msg    string
	cause  error
}

func (e *Error) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return e.cause.Error()
}

func (e *Error) Unwrap() error { return e.cause }

func wrap(status int, sentinel error, msg string) *Error {
	return &Error{Status: status, Msg: msg, cause: sentinel}
}

func NotFound(msg string) *Error     { return wrap(http.StatusNotFound, ErrNotFound, msg) }
func Forbidden(msg string) *Error    { return wrap(http.StatusForbidden, ErrForbidden, msg) }
func Unauthorized(msg string) *Error { return wrap(http.StatusUnauthorized, ErrUnauthorized, msg) }
func Conflict(msg string) *Error     { return wrap(http.StatusConflict, ErrConflict, msg) }
func BadRequest(msg string) *Error   { return wrap(http.StatusBadRequest, ErrBadRequest, msg) }
func TooMany(msg string) *Error      { return wrap(http.StatusTooManyRequests, ErrTooMany, msg) }

// Status resolves the HTTP status for err: an *Error carries its own, known
// sentinels get their conventional code, anything else is a 500.
func Status(err error) int {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Status
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, ErrTooMany):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// WriteError renders err in the API's standard envelope. Internal errors are
// masked so repository details never leak to clients.
func WriteError(c *gin.Context, err error) {
	status := Status(err)

	msg := err.Error()
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		msg = "internal error"
	}

	c.JSON(status, gin.H{"ok": false, "error": msg})
}
