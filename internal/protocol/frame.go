package protocol

import (
	"bufio"
	"io"
)

// frameEnd terminates every frame on the wire.
const frameEnd byte = 0x00

// FrameReader reads NUL-terminated frames off a stream.
type FrameReader struct {
	r *bufio.Reader
}

func NewFrameReader(r io.Reader) *FrameReader {
	return &FrameReader{r: bufio.NewReader(r)}
}

// Next returns the tag byte and payload of the next frame. A stream that
// ends before the terminator surfaces the underlying read error.
func (fr *FrameReader) Next() (byte, string, error) {
	raw, err := fr.r.ReadBytes(frameEnd)
	if err != nil {
		return 0, "", err
	}
	raw = raw[:len(raw)-1]
	if len(raw) == 0 {
		return 0, "", ErrInvalidFrame
	}
	return raw[0], string(raw[1:]), nil
}

// ReadClient reads and decodes the next client→server message.
func (fr *FrameReader) ReadClient() (ClientMessage, error) {
	tag, payload, err := fr.Next()
	if err != nil {
		return nil, err
	}
	return ParseClient(tag, payload)
}

// ReadServer reads and decodes the next server→client message.
func (fr *FrameReader) ReadServer() (ServerMessage, error) {
	tag, payload, err := fr.Next()
	if err != nil {
		return nil, err
	}
	return ParseServer(tag, payload)
}

func encodeFrame(tag byte, payload string) []byte {
	buf := make([]byte, 0, len(payload)+2)
	buf = append(buf, tag)
	buf = append(buf, payload...)
	return append(buf, frameEnd)
}

// EncodeClient renders a client message as a complete frame.
func EncodeClient(m ClientMessage) []byte {
	return encodeFrame(byte(m.Tag()), m.Payload())
}

// EncodeServer renders a server message as a complete frame.
func EncodeServer(m ServerMessage) []byte {
	return encodeFrame(byte(m.Tag()), m.Payload())
}

// WriteClient writes a framed client message to w.
func WriteClient(w io.Writer, m ClientMessage) error {
	_, err := w.Write(EncodeClient(m))
	return err
}

// WriteServer writes a framed server message to w.
func WriteServer(w io.Writer, m ServerMessage) error {
	_, err := w.Write(EncodeServer(m))
	return err
}
