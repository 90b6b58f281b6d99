// Package protocol implements the wire format spoken between the trivia
// server and its clients: one tag byte, a flat text payload, and a NUL
// terminator. Payload fields are pipe-delimited; free-text fields are
// base64-encoded so they can never contain the delimiter or the framing
// byte. Client and server tag spaces are independent because each listener
// only ever reads one direction.
package protocol

import (
	"encoding/base64"
	"errors"
	"strconv"
	"strings"
)

// ClientTag identifies a client→server message kind.
type ClientTag byte

const (
	TagRequest             ClientTag = 'R'
	TagConnect             ClientTag = 'C'
	TagDisconnect          ClientTag = 'D'
	TagRoundDetailsRequest ClientTag = 'S'
	TagTriviaAnswer        ClientTag = 'A'
)

// ServerTag identifies a server→client message kind.
type ServerTag byte

const (
	TagSetupConnection ServerTag = 'C'
	TagAccepted        ServerTag = 'A'
	TagRoundDetails    ServerTag = 'D'
	TagRoundStart      ServerTag = 'S'
	TagQuestion        ServerTag = 'Q'
	TagResult          ServerTag = 'R'
	TagRoundEnd        ServerTag = 'E'
	TagError           ServerTag = 'X'
)

var (
	// ErrInvalidPayload is returned when a payload cannot be decoded into a
	// complete message: wrong field count, bad integer, malformed base64, or
	// a missing required field. Decoding never yields a partial message.
	ErrInvalidPayload = errors.New("invalid message payload")
	// ErrUnknownTag is returned for a tag byte outside the direction's enum.
	ErrUnknownTag = errors.New("unknown message tag")
	// ErrInvalidFrame is returned for a frame without a tag byte.
	ErrInvalidFrame = errors.New("invalid frame")
)

// ClientMessage is the tagged union of client→server messages.
type ClientMessage interface {
	Tag() ClientTag
	Payload() string
}

// ServerMessage is the tagged union of server→client messages.
type ServerMessage interface {
	Tag() ServerTag
	Payload() string
}

const (
	fieldSep  = "|"
	optionSep = "?"
	optionKV  = ":"
)

func encodeText(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}

func decodeText(s string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return "", ErrInvalidPayload
	}
	return string(raw), nil
}

func splitFields(payload string, arity int) ([]string, error) {
	parts := strings.Split(payload, fieldSep)
	if len(parts) != arity {
		return nil, ErrInvalidPayload
	}
	return parts, nil
}

func parseInt(s string) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, ErrInvalidPayload
	}
	return v, nil
}

// Booleans travel as True/False and are parsed case-sensitively.
func formatBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

func parseBool(s string) (bool, error) {
	switch s {
	case "True":
		return true, nil
	case "False":
		return false, nil
	}
	return false, ErrInvalidPayload
}

func emptyPayload(payload string) bool {
	return strings.TrimSpace(payload) == ""
}
