package render

import (
	"errors"
)

// ErrUnresolved is returned by Render when the template still contains an
// async value that has not settled.
var ErrUnresolved error = &unresolvedError{}

// ErrClosed is returned by Stream.Next after Close.
var ErrClosed = errors.New("render: stream closed")

type unresolvedError struct{}

func (*unresolvedError) Error() string {
	return "render: template contains unresolved async values"
}

func (*unresolvedError) Code() string { return "E110" }

// BufferedRenderError reports an async value that was rejected during a
// buffered render. No output is produced.
type BufferedRenderError struct {
	Err error
}

func (e *BufferedRenderError) Error() string {
	return "render: async value rejected: " + e.Err.Error()
}

func (e *BufferedRenderError) Unwrap() error { return e.Err }

// Code returns the error registry code.
func (e *BufferedRenderError) Code() string { return "E120" }

// StreamChunkError reports an async value that failed while streaming.
// It only affects its own slot.
type StreamChunkError struct {
	SlotID string
	Err    error
}

func (e *StreamChunkError) Error() string {
	return "render: slot " + e.SlotID + " failed: " + e.Err.Error()
}

func (e *StreamChunkError) Unwrap() error { return e.Err }

// Code returns the error registry code.
func (e *StreamChunkError) Code() string { return "E130" }

// WriteError reports a failure to write streamed output downstream,
// usually because the client went away.
type WriteError struct {
	Err     error
	Written int64
}

func (e *WriteError) Error() string {
	return "render: write failed: " + e.Err.Error()
}

func (e *WriteError) Unwrap() error { return e.Err }

// Code returns the error registry code.
func (e *WriteError) Code() string { return "E160" }
