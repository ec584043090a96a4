package server

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors.
var (
	// ErrInvalidConfig is wrapped by ValidateConfig failures.
	ErrInvalidConfig = errors.New("server: invalid config")

	// ErrUnsupportedResult is returned when a handler returns a value the
	// server cannot write.
	ErrUnsupportedResult error = &unsupportedResultError{}

	// ErrNotFound is returned for paths no route matches.
	ErrNotFound = &HTTPError{Status: http.StatusNotFound}
)

type unsupportedResultError struct{}

func (*unsupportedResultError) Error() string {
	return "server: unsupported route result"
}

// Code returns the error registry code.
func (*unsupportedResultError) Code() string { return "E151" }

// HTTPError is an error with an HTTP status. Handlers return it to pick
// the status of the error page.
type HTTPError struct {
	Status  int
	Message string
	Err     error
}

// NewHTTPError returns an HTTPError with the given status and message.
func NewHTTPError(status int, message string) *HTTPError {
	return &HTTPError{Status: status, Message: message}
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if e.Err != nil {
		return fmt.Sprintf("server: %d %s: %v", e.Status, msg, e.Err)
	}
	return fmt.Sprintf("server: %d %s", e.Status, msg)
}

// Unwrap returns the underlying error.
func (e *HTTPError) Unwrap() error {
	return e.Err
}

// Is matches HTTPErrors by status, so errors.Is(err, ErrNotFound) works
// for any 404.
func (e *HTTPError) Is(target error) bool {
	t, ok := target.(*HTTPError)
	return ok && t.Status == e.Status
}

// PanicError is returned for a recovered handler panic.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("server: handler panicked: %v", e.Value)
}

// Code returns the error registry code.
func (e *PanicError) Code() string { return "E150" }

// StatusOf returns the HTTP status for err: the status of an HTTPError in
// its chain, 500 otherwise.
func StatusOf(err error) int {
	var he *HTTPError
	if errors.As(err, &he) && he.Status >= 400 && he.Status < 600 {
		return he.Status
	}
	return http.StatusInternalServerError
}

// messageOf returns the text shown to the client for err.
func messageOf(err error, status int) string {
	var he *HTTPError
	if errors.As(err, &he) && he.Message != "" {
		return he.Message
	}
	return http.StatusText(status)
}
