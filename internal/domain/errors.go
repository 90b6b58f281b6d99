package domain

import "errors"

var (
	// ErrUnknownDifficulty is returned for a difficulty string outside the fixed set.
	ErrUnknownDifficulty = errors.New("unknown difficulty")
	// ErrUnknownCategory is returned when a configured category matches no known category.
	ErrUnknownCategory = errors.New("unknown category")
	// ErrParticipantNotFound is returned when a client id has no registered participant.
	ErrParticipantNotFound = errors.New("participant not found")
	// ErrHandshakeMismatch is returned when a Connect does not match the pending handshake entry.
	ErrHandshakeMismatch = errors.New("handshake does not match a pending connection")
	// ErrAlreadyConnected is returned when a participant with the client id already exists.
	ErrAlreadyConnected = errors.New("participant already connected")
	// ErrNoQuestions indicates the content provider returned an empty question set.
	ErrNoQuestions = errors.New("no questions available")
)
