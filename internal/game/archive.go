package game

import (
	"context"
	"time"
)

// RoundRecord is the archived summary of one completed round.
type RoundRecord struct {
	RoundID       int
	Category      string
	Difficulty    string
	QuestionCount int
	Standings     []Standing
	FinishedAt    time.Time
}

// Archiver persists completed rounds. Archiving is best-effort: failures
// are logged and never affect the game.
type Archiver interface {
	SaveRound(ctx context.Context, record RoundRecord) error
}
