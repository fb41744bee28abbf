// Package protocol implements the control-channel wire format: every command
// and response travels as one fixed-size frame holding a JSON object whose
// "fill" field pads the serialization to exactly the frame size.
package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
	"ftp-lab/errors"
	"io"
	"strings"
)

// DefaultFrameSize is the frame length both peers use unless configured otherwise.
const DefaultFrameSize = 1024

// fillChar pads frames; it never needs JSON escaping so one byte stays one byte.
const fillChar = "0"

// Codec turns messages into frames of a fixed size and back.
// Both peers of a connection must agree on the size.
type Codec struct {
	size int
}

func NewCodec(size int) Codec {
	if size <= 0 {
		size = DefaultFrameSize
	}
	return Codec{size: size}
}

func (c Codec) Size() int {
	return c.size
}

// pad serializes m and grows its fill field until the result is exactly c.size bytes.
func (c Codec) pad(m wireMessage) ([]byte, error) {
	m.Fill = ""
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal frame: %w", err)
	}
	if len(raw) > c.size {
		return nil, fmt.Errorf("%w: %d bytes, capacity %d", errors.ErrFrameTooLarge, len(raw), c.size)
	}
	m.Fill = strings.Repeat(fillChar, c.size-len(raw))
	return json.Marshal(m)
}

func (c Codec) unpad(frame []byte) (wireMessage, error) {
	var m wireMessage
	trimmed := bytes.TrimRight(frame, "\x00 \r\n\t")
	if err := json.Unmarshal(trimmed, &m); err != nil {
		return wireMessage{}, fmt.Errorf("%w: %v", errors.ErrMalformedFrame, err)
	}
	m.Fill = ""
	return m, nil
}

// ReadFrame reads exactly one frame. A peer closing before the first byte
// yields io.EOF; closing mid-frame or a broken socket yields ErrConnectionLost.
func (c Codec) ReadFrame(r io.Reader) ([]byte, error) {
	frame := make([]byte, c.size)
	n, err := io.ReadFull(r, frame)
	switch {
	case err == nil:
		return frame, nil
	case errors.Is(err, io.EOF):
		return nil, io.EOF
	case errors.Is(err, io.ErrUnexpectedEOF):
		return nil, fmt.Errorf("%w: short frame (%d of %d bytes)", errors.ErrConnectionLost, n, c.size)
	default:
		return nil, fmt.Errorf("%w: %v", errors.ErrConnectionLost, err)
	}
}

func writeFull(w io.Writer, frame []byte) error {
	if _, err := w.Write(frame); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrConnectionLost, err)
	}
	return nil
}
