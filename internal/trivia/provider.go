// Package trivia fetches question content from an Open Trivia DB-compatible
// HTTP API and shapes it into round-ready questions.
package trivia

import (
	"context"

	"trivia-arena/internal/domain"
)

// Provider supplies question batches and the category catalog. The game
// engine consumes this interface; caching layers wrap it.
type Provider interface {
	Questions(ctx context.Context, difficulty domain.Difficulty, category *domain.Category, count int) ([]domain.Question, error)
	Categories(ctx context.Context) ([]domain.Category, error)
}
