package errors

import (
	"errors"
	"net/http"
	"strings"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-gonic/gin"
)

// Error is the structured error returned to API clients. Status doubles as
// the HTTP status code the handler should respond with.
type Error struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
}

func (e *Error) Error() string {
	return e.Message
}

// New creates a new api error
func New(message string, status int) *Error {
	return &Error{
		Message: message,
		Status:  status,
	}
}

var (
	ErrNotFound            = New("not found", http.StatusNotFound)
	ErrUnauthorized        = New("unauthorized", http.StatusUnauthorized)
	ErrForbidden           = New("forbidden", http.StatusForbidden)
	ErrBadRequest          = New("bad request", http.StatusBadRequest)
	ErrInternalServerError = New("internal server error", http.StatusInternalServerError)
	ErrInvalidPassword     = New("invalid email or password", http.StatusUnauthorized)

	// InActiveUserError marks users that exist but may no longer authenticate.
	InActiveUserError = errors.New("user inactive")
)

// GetUniqueContraintError maps a database unique-constraint violation to a
// client-facing conflict error. Anything else becomes a 500.
func GetUniqueContraintError(err error) *Error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "email"):
		return New("email already exists", http.StatusConflict)
	case strings.Contains(msg, "username"):
		return New("username already exists", http.StatusConflict)
	case strings.Contains(msg, "duplicate") || strings.Contains(msg, "UNIQUE"):
		return New("record already exists", http.StatusConflict)
	default:
		return ErrInternalServerError
	}
}

// ErrorHandler is used by the rate limit middleware when a client is throttled.
func ErrorHandler(c *gin.Context, info ratelimit.Info) {
	c.JSON(http.StatusTooManyRequests, gin.H{
		"errors": []string{"too many requests, slow down"},
	})
	c.Abort()
}
