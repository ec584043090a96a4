package html

import (
	"errors"
	"fmt"
	"runtime"
)

// CompositionError reports a template built from values the escaping
// engine cannot render, or a misuse of raw trust.
type CompositionError struct {
	// Reason describes what was wrong.
	Reason string

	// Value is the offending value's type, when there is one.
	Value string

	code string
	file string
	line int
}

// Error implements the error interface.
func (e *CompositionError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("html: %s (%s)", e.Reason, e.Value)
	}
	return "html: " + e.Reason
}

// Code returns the registered error code.
func (e *CompositionError) Code() string {
	return e.code
}

// Location returns the caller that built the template, if known.
func (e *CompositionError) Location() (string, int) {
	return e.file, e.line
}

func compositionError(code, reason string, v any) *CompositionError {
	e := &CompositionError{Reason: reason, code: code}
	if v != nil {
		e.Value = fmt.Sprintf("%T", v)
	}
	return e
}

// locate records the caller skip frames above locate's caller on a
// CompositionError that has no location yet.
func locate(err error, skip int) error {
	var ce *CompositionError
	if errors.As(err, &ce) && ce.file == "" {
		if _, file, line, ok := runtime.Caller(skip + 2); ok {
			ce.file, ce.line = file, line
		}
	}
	return err
}
