package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"trivia-arena/internal/game"
)

// RoundArchive persists finished rounds to Postgres. It is a write-only
// history: the engine never reads archived rounds back into game state.
type RoundArchive struct {
	pool *pgxpool.Pool
}

func NewRoundArchive(pool *pgxpool.Pool) *RoundArchive {
	return &RoundArchive{pool: pool}
}

func (a *RoundArchive) SaveRound(ctx context.Context, record game.RoundRecord) error {
	standings, err := json.Marshal(record.Standings)
	if err != nil {
		return fmt.Errorf("marshal standings: %w", err)
	}
	_, err = a.pool.Exec(ctx,
		`INSERT INTO round_archive (round_id, category, difficulty, question_count, standings, finished_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		record.RoundID, record.Category, record.Difficulty, record.QuestionCount, standings, record.FinishedAt)
	if err != nil {
		return fmt.Errorf("insert round: %w", err)
	}
	return nil
}

// RecentRounds returns up to limit archived rounds, newest first.
func (a *RoundArchive) RecentRounds(ctx context.Context, limit int) ([]game.RoundRecord, error) {
	rows, err := a.pool.Query(ctx,
		`SELECT round_id, category, difficulty, question_count, standings, finished_at
		 FROM round_archive ORDER BY finished_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query rounds: %w", err)
	}
	defer rows.Close()

	var records []game.RoundRecord
	for rows.Next() {
		var record game.RoundRecord
		var standings []byte
		if err := rows.Scan(&record.RoundID, &record.Category, &record.Difficulty,
			&record.QuestionCount, &standings, &record.FinishedAt); err != nil {
			return nil, fmt.Errorf("scan round: %w", err)
		}
		if err := json.Unmarshal(standings, &record.Standings); err != nil {
			return nil, fmt.Errorf("unmarshal standings: %w", err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}
