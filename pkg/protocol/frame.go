package protocol

import (
	"encoding/binary"
	"errors"
	"io"
)

// Frame constants.
const (
	// FrameHeaderSize is the size of the frame header in bytes.
	FrameHeaderSize = 4

	// MaxPayloadSize is the maximum payload size (2^16 - 1 bytes).
	MaxPayloadSize = 65535
)

// FrameType identifies the type of frame.
type FrameType uint8

const (
	FrameSync        FrameType = 0x01 // Sync chunk
	FramePlaceholder FrameType = 0x02 // Placeholder chunk
	FrameContent     FrameType = 0x03 // Content chunk
	FrameError       FrameType = 0x0E // Stream aborted, payload is a message
	FrameEnd         FrameType = 0x0F // Stream complete
)

// String returns the string representation of the frame type.
func (ft FrameType) String() string {
	switch ft {
	case FrameSync:
		return "Sync"
	case FramePlaceholder:
		return "Placeholder"
	case FrameContent:
		return "Content"
	case FrameError:
		return "Error"
	case FrameEnd:
		return "End"
	default:
		return "Unknown"
	}
}

func frameTypeOf(k ChunkKind) (FrameType, bool) {
	switch k {
	case ChunkSync:
		return FrameSync, true
	case ChunkPlaceholder:
		return FramePlaceholder, true
	case ChunkContent:
		return FrameContent, true
	}
	return 0, false
}

func chunkKindOf(ft FrameType) (ChunkKind, bool) {
	switch ft {
	case FrameSync:
		return ChunkSync, true
	case FramePlaceholder:
		return ChunkPlaceholder, true
	case FrameContent:
		return ChunkContent, true
	}
	return 0, false
}

// FrameFlags are optional flags for frame processing.
type FrameFlags uint8

const (
	FlagFinal FrameFlags = 0x04 // Last frame of a chunk
)

// Has returns true if the flags contain the specified flag.
func (ff FrameFlags) Has(flag FrameFlags) bool {
	return ff&flag != 0
}

// Frame errors.
var (
	ErrFrameTooLarge    = errors.New("protocol: frame payload too large")
	ErrInvalidFrameType = errors.New("protocol: invalid frame type")
)

// Frame is a protocol frame with header and payload.
type Frame struct {
	Type    FrameType
	Flags   FrameFlags
	Payload []byte
}

// Encode encodes the frame to bytes including the header.
func (f *Frame) Encode() []byte {
	return f.AppendTo(make([]byte, 0, FrameHeaderSize+len(f.Payload)))
}

// AppendTo appends the encoded frame to buf.
func (f *Frame) AppendTo(buf []byte) []byte {
	buf = append(buf, byte(f.Type), byte(f.Flags))
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(f.Payload)))
	return append(buf, f.Payload...)
}

// DecodeFrame decodes one frame from the start of data and returns it with
// the number of bytes consumed.
func DecodeFrame(data []byte) (*Frame, int, error) {
	if len(data) < FrameHeaderSize {
		return nil, 0, io.ErrUnexpectedEOF
	}

	length := int(binary.BigEndian.Uint16(data[2:4]))
	if len(data) < FrameHeaderSize+length {
		return nil, 0, io.ErrUnexpectedEOF
	}

	payload := make([]byte, length)
	copy(payload, data[FrameHeaderSize:FrameHeaderSize+length])

	return &Frame{
		Type:    FrameType(data[0]),
		Flags:   FrameFlags(data[1]),
		Payload: payload,
	}, FrameHeaderSize + length, nil
}

// ReadFrame reads a complete frame from an io.Reader.
func ReadFrame(r io.Reader) (*Frame, error) {
	var header [FrameHeaderSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, err
	}

	length := int(binary.BigEndian.Uint16(header[2:4]))
	payload := make([]byte, length)
	if length > 0 {
		if _, err := io.ReadFull(r, payload); err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return nil, err
		}
	}

	return &Frame{
		Type:    FrameType(header[0]),
		Flags:   FrameFlags(header[1]),
		Payload: payload,
	}, nil
}

// WriteFrame writes a complete frame to an io.Writer.
func WriteFrame(w io.Writer, f *Frame) error {
	if len(f.Payload) > MaxPayloadSize {
		return ErrFrameTooLarge
	}
	_, err := w.Write(f.Encode())
	return err
}
