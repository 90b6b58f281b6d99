package game

import (
	"context"
	"errors"
	"strings"
	"time"

	"trivia-arena/internal/domain"
)

const (
	// MinQuestionCount and MaxQuestionCount bound the questions-per-round setting.
	MinQuestionCount = 5
	MaxQuestionCount = 15
)

var (
	// ErrNegativeDelay rejects negative delay settings.
	ErrNegativeDelay = errors.New("delay must not be negative")
	// ErrQuestionCountOutOfRange rejects question counts outside [5,15].
	ErrQuestionCountOutOfRange = errors.New("question count must be between 5 and 15")
)

// Settings are the tunables for upcoming rounds.
type Settings struct {
	RoundStartDelay   time.Duration
	AnswerDelay       time.Duration
	NextQuestionDelay time.Duration
	QuestionCount     int
	Category          *domain.Category
	Difficulty        domain.Difficulty
}

func defaultSettings() Settings {
	return Settings{
		RoundStartDelay:   15 * time.Second,
		AnswerDelay:       15 * time.Second,
		NextQuestionDelay: 5 * time.Second,
		QuestionCount:     10,
		Difficulty:        domain.DifficultyAny,
	}
}

// SetRoundStartDelay sets the wait before a round starts.
func (e *Engine) SetRoundStartDelay(d time.Duration) error {
	if d < 0 {
		return ErrNegativeDelay
	}
	e.settingsMu.Lock()
	defer e.settingsMu.Unlock()
	e.settings.RoundStartDelay = d
	return nil
}

// SetAnswerDelay sets how long participants have to answer a question.
func (e *Engine) SetAnswerDelay(d time.Duration) error {
	if d < 0 {
		return ErrNegativeDelay
	}
	e.settingsMu.Lock()
	defer e.settingsMu.Unlock()
	e.settings.AnswerDelay = d
	return nil
}

// SetNextQuestionDelay sets the pause between a result and the next question.
func (e *Engine) SetNextQuestionDelay(d time.Duration) error {
	if d < 0 {
		return ErrNegativeDelay
	}
	e.settingsMu.Lock()
	defer e.settingsMu.Unlock()
	e.settings.NextQuestionDelay = d
	return nil
}

// SetQuestionCount sets how many questions each round fetches.
func (e *Engine) SetQuestionCount(count int) error {
	if count < MinQuestionCount || count > MaxQuestionCount {
		return ErrQuestionCountOutOfRange
	}
	e.settingsMu.Lock()
	defer e.settingsMu.Unlock()
	e.settings.QuestionCount = count
	return nil
}

// SetDifficulty narrows upcoming rounds to one difficulty.
func (e *Engine) SetDifficulty(d domain.Difficulty) {
	e.settingsMu.Lock()
	defer e.settingsMu.Unlock()
	e.settings.Difficulty = d
}

// SetCategory narrows upcoming rounds to a named category. An empty name or
// "any" clears the restriction; anything else must match a category known
// to the content provider.
func (e *Engine) SetCategory(ctx context.Context, name string) error {
	if name == "" || strings.EqualFold(name, "any") {
		e.settingsMu.Lock()
		defer e.settingsMu.Unlock()
		e.settings.Category = nil
		return nil
	}

	categories, err := e.provider.Categories(ctx)
	if err != nil {
		return err
	}
	for _, cat := range categories {
		if strings.EqualFold(cat.Name, name) {
			matched := cat
			e.settingsMu.Lock()
			defer e.settingsMu.Unlock()
			e.settings.Category = &matched
			return nil
		}
	}
	return domain.ErrUnknownCategory
}

// currentSettings returns a copy for use during one round.
func (e *Engine) currentSettings() Settings {
	e.settingsMu.Lock()
	defer e.settingsMu.Unlock()
	return e.settings
}
