package game

import (
	"trivia-arena/internal/domain"
)

// Round holds the state of one question cycle. It is created empty at
// startup, reset before every round, and mutated only by the engine's
// dispatch goroutine. The roster is fixed at round start: removing a
// participant mid-round does not shrink it.
type Round struct {
	ID         int
	Category   *domain.Category
	Difficulty domain.Difficulty
	Questions  []domain.Question
	Scoreboard map[int]int
	Answers    map[int]domain.Answer
	Results    map[int]bool
	Roster     map[int]string
	Started    bool
	Over       bool

	current int
}

func NewRound() *Round {
	r := &Round{}
	r.Reset()
	return r
}

// Reset clears all round state for reuse.
func (r *Round) Reset() {
	*r = Round{
		Scoreboard: make(map[int]int),
		Answers:    make(map[int]domain.Answer),
		Results:    make(map[int]bool),
		Roster:     make(map[int]string),
	}
}

// Start populates the round from fetched content and a participant
// snapshot, and marks it live on its first question.
func (r *Round) Start(id int, category *domain.Category, difficulty domain.Difficulty, questions []domain.Question, roster map[int]string) {
	r.Reset()
	r.ID = id
	r.Category = category
	r.Difficulty = difficulty
	r.Questions = questions
	for clientID, name := range roster {
		r.Roster[clientID] = name
		r.Scoreboard[clientID] = 0
	}
	r.Started = true
}

// Stop marks the round finished.
func (r *Round) Stop() {
	r.Over = true
}

// CurrentQuestion returns the live question, if any.
func (r *Round) CurrentQuestion() (domain.Question, bool) {
	if !r.Started || r.Over || r.current >= len(r.Questions) {
		return domain.Question{}, false
	}
	return r.Questions[r.current], true
}

// RecordAnswer stores an answer for the current question. The first answer
// per participant wins; later submissions for the same question are
// dropped, as are answers for the wrong round or question, or from a
// client outside the round's roster.
func (r *Round) RecordAnswer(answer domain.Answer) bool {
	question, ok := r.CurrentQuestion()
	if !ok {
		return false
	}
	if answer.RoundID != r.ID || answer.QuestionID != question.Number {
		return false
	}
	if _, inRoster := r.Roster[answer.ClientID]; !inRoster {
		return false
	}
	if _, exists := r.Answers[answer.ClientID]; exists {
		return false
	}
	r.Answers[answer.ClientID] = answer
	return true
}

// Evaluate marks every roster member correct or incorrect for the current
// question and returns the result map. A missing answer counts as
// incorrect.
func (r *Round) Evaluate() map[int]bool {
	question, ok := r.CurrentQuestion()
	if !ok {
		return nil
	}
	results := make(map[int]bool, len(r.Roster))
	for clientID := range r.Roster {
		answer, answered := r.Answers[clientID]
		results[clientID] = answered && answer.OptionIndex == question.CorrectOption
	}
	r.Results = results
	return results
}

// Advance credits the per-round scoreboard for the question just evaluated,
// clears the per-question maps, and moves to the next question. It returns
// false when no questions remain.
func (r *Round) Advance() bool {
	for clientID, correct := range r.Results {
		if correct {
			r.Scoreboard[clientID]++
		}
	}
	r.Answers = make(map[int]domain.Answer)
	r.Results = make(map[int]bool)
	r.current++
	return r.current < len(r.Questions)
}

// Remaining reports how many questions are left, the current one included.
func (r *Round) Remaining() int {
	if !r.Started || r.Over {
		return 0
	}
	return len(r.Questions) - r.current
}
