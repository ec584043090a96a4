package protocol

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
)

// DefaultMaxChunkSize bounds the markup a ChunkReader reassembles for a
// single chunk (4MB).
const DefaultMaxChunkSize = 4 * 1024 * 1024

// Codec errors.
var (
	ErrChunkTooLarge  = errors.New("protocol: chunk exceeds size limit")
	ErrInvalidSlot    = errors.New("protocol: invalid slot id")
	ErrTruncatedChunk = errors.New("protocol: chunk truncated")
	ErrTrailingData   = errors.New("protocol: trailing data after chunk")
)

// StreamError is returned by ChunkReader when the sender aborted the
// stream with a FrameError.
type StreamError struct {
	Message string
}

func (e *StreamError) Error() string {
	return "protocol: stream aborted: " + e.Message
}

// EncodeChunk encodes c as one or more frames.
func EncodeChunk(c Chunk) ([]byte, error) {
	return AppendChunk(nil, c)
}

// AppendChunk appends the frames encoding c to buf.
func AppendChunk(buf []byte, c Chunk) ([]byte, error) {
	ft, ok := frameTypeOf(c.Kind)
	if !ok {
		return buf, ErrInvalidFrameType
	}
	if err := checkSlot(c.Kind, c.SlotID); err != nil {
		return buf, err
	}

	payload := binary.AppendUvarint(make([]byte, 0, len(c.SlotID)+len(c.HTML)+2), uint64(len(c.SlotID)))
	payload = append(payload, c.SlotID...)
	payload = append(payload, c.HTML...)

	for {
		n := min(len(payload), MaxPayloadSize)
		f := Frame{Type: ft, Payload: payload[:n]}
		payload = payload[n:]
		if len(payload) == 0 {
			f.Flags = FlagFinal
			return f.AppendTo(buf), nil
		}
		buf = f.AppendTo(buf)
	}
}

// WriteChunk writes the frames encoding c to w.
func WriteChunk(w io.Writer, c Chunk) error {
	data, err := EncodeChunk(c)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// EncodeEnd returns the frame that closes a stream.
func EncodeEnd() []byte {
	return (&Frame{Type: FrameEnd, Flags: FlagFinal}).Encode()
}

// EncodeError returns the frame that aborts a stream with msg. Messages
// longer than MaxPayloadSize are truncated.
func EncodeError(msg string) []byte {
	if len(msg) > MaxPayloadSize {
		msg = msg[:MaxPayloadSize]
	}
	return (&Frame{Type: FrameError, Flags: FlagFinal, Payload: []byte(msg)}).Encode()
}

// DecodeChunk decodes exactly one chunk from data.
func DecodeChunk(data []byte) (Chunk, error) {
	r := bytes.NewReader(data)
	c, err := NewChunkReader(r).Next()
	if err != nil {
		return Chunk{}, err
	}
	if r.Len() > 0 {
		return Chunk{}, ErrTrailingData
	}
	return c, nil
}

// ChunkReader reassembles chunks from a frame stream.
type ChunkReader struct {
	r    io.Reader
	done bool

	// MaxChunkSize bounds the reassembled size of one chunk.
	MaxChunkSize int
}

// NewChunkReader returns a reader decoding frames from r.
func NewChunkReader(r io.Reader) *ChunkReader {
	return &ChunkReader{r: r, MaxChunkSize: DefaultMaxChunkSize}
}

// Next returns the next chunk. It returns io.EOF after a FrameEnd or when
// the underlying reader ends cleanly between chunks, and a *StreamError
// after a FrameError.
func (cr *ChunkReader) Next() (Chunk, error) {
	if cr.done {
		return Chunk{}, io.EOF
	}

	var (
		ft      FrameType
		kind    ChunkKind
		body    []byte
		started bool
	)
	for {
		f, err := ReadFrame(cr.r)
		if err != nil {
			if started && errors.Is(err, io.EOF) {
				err = io.ErrUnexpectedEOF
			}
			return Chunk{}, err
		}

		switch f.Type {
		case FrameEnd:
			if started {
				return Chunk{}, ErrTruncatedChunk
			}
			cr.done = true
			return Chunk{}, io.EOF
		case FrameError:
			cr.done = true
			return Chunk{}, &StreamError{Message: string(f.Payload)}
		}

		k, ok := chunkKindOf(f.Type)
		if !ok {
			return Chunk{}, ErrInvalidFrameType
		}
		if started && f.Type != ft {
			return Chunk{}, ErrTruncatedChunk
		}
		ft, kind, started = f.Type, k, true

		if len(body)+len(f.Payload) > cr.MaxChunkSize {
			return Chunk{}, ErrChunkTooLarge
		}
		body = append(body, f.Payload...)
		if f.Flags.Has(FlagFinal) {
			break
		}
	}

	n, w := binary.Uvarint(body)
	if w <= 0 || n > uint64(len(body)-w) {
		return Chunk{}, ErrTruncatedChunk
	}
	slot := string(body[w : w+int(n)])
	if err := checkSlot(kind, slot); err != nil {
		return Chunk{}, err
	}
	return Chunk{Kind: kind, SlotID: slot, HTML: string(body[w+int(n):])}, nil
}

func checkSlot(kind ChunkKind, slot string) error {
	if kind == ChunkSync {
		if slot != "" {
			return ErrInvalidSlot
		}
		return nil
	}
	if !ValidSlotID(slot) {
		return ErrInvalidSlot
	}
	return nil
}
