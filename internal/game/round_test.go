package game

import (
	"testing"

	"trivia-arena/internal/domain"
)

func twoQuestionRound() *Round {
	r := NewRound()
	questions := []domain.Question{
		{Number: 1, Text: "first", Options: map[int]string{1: "a", 2: "b"}, CorrectOption: 2},
		{Number: 2, Text: "second", Options: map[int]string{1: "x", 2: "y"}, CorrectOption: 1},
	}
	r.Start(1, nil, domain.DifficultyAny, questions, map[int]string{10: "A", 20: "B", 30: "C"})
	return r
}

func TestRecordAnswerValidation(t *testing.T) {
	r := twoQuestionRound()

	if !r.RecordAnswer(domain.Answer{RoundID: 1, QuestionID: 1, ClientID: 10, OptionIndex: 2}) {
		t.Fatalf("valid answer rejected")
	}
	// Duplicate submission from the same client is dropped, not overwritten.
	if r.RecordAnswer(domain.Answer{RoundID: 1, QuestionID: 1, ClientID: 10, OptionIndex: 1}) {
		t.Fatalf("duplicate answer accepted")
	}
	if r.Answers[10].OptionIndex != 2 {
		t.Fatalf("duplicate answer overwrote the original")
	}

	if r.RecordAnswer(domain.Answer{RoundID: 2, QuestionID: 1, ClientID: 20, OptionIndex: 1}) {
		t.Fatalf("answer for wrong round accepted")
	}
	if r.RecordAnswer(domain.Answer{RoundID: 1, QuestionID: 2, ClientID: 20, OptionIndex: 1}) {
		t.Fatalf("answer for wrong question accepted")
	}
	if r.RecordAnswer(domain.Answer{RoundID: 1, QuestionID: 1, ClientID: 99, OptionIndex: 1}) {
		t.Fatalf("answer from non-roster client accepted")
	}

	r.Stop()
	if r.RecordAnswer(domain.Answer{RoundID: 1, QuestionID: 1, ClientID: 20, OptionIndex: 1}) {
		t.Fatalf("answer accepted after round over")
	}
}

func TestEvaluateAndAdvance(t *testing.T) {
	r := twoQuestionRound()

	// A answers correctly, B wrong, C not at all.
	r.RecordAnswer(domain.Answer{RoundID: 1, QuestionID: 1, ClientID: 10, OptionIndex: 2})
	r.RecordAnswer(domain.Answer{RoundID: 1, QuestionID: 1, ClientID: 20, OptionIndex: 1})

	results := r.Evaluate()
	want := map[int]bool{10: true, 20: false, 30: false}
	for clientID, correct := range want {
		if results[clientID] != correct {
			t.Fatalf("client %d: got %v want %v", clientID, results[clientID], correct)
		}
	}

	// The round scoreboard is credited at advance time, not at evaluation.
	if r.Scoreboard[10] != 0 {
		t.Fatalf("scoreboard credited too early")
	}
	if !r.Advance() {
		t.Fatalf("expected a second question")
	}
	if r.Scoreboard[10] != 1 || r.Scoreboard[20] != 0 || r.Scoreboard[30] != 0 {
		t.Fatalf("unexpected scoreboard after advance: %+v", r.Scoreboard)
	}
	if len(r.Answers) != 0 || len(r.Results) != 0 {
		t.Fatalf("per-question maps not cleared on advance")
	}

	question, ok := r.CurrentQuestion()
	if !ok || question.Number != 2 {
		t.Fatalf("expected question 2, got %+v ok=%v", question, ok)
	}
	r.Evaluate()
	if r.Advance() {
		t.Fatalf("expected round exhausted after last question")
	}
}

func TestResetClearsEverything(t *testing.T) {
	r := twoQuestionRound()
	r.RecordAnswer(domain.Answer{RoundID: 1, QuestionID: 1, ClientID: 10, OptionIndex: 2})
	r.Reset()

	if r.Started || r.Over || r.ID != 0 || len(r.Questions) != 0 {
		t.Fatalf("reset left stale state: %+v", r)
	}
	if _, ok := r.CurrentQuestion(); ok {
		t.Fatalf("reset round must have no current question")
	}
	if r.Remaining() != 0 {
		t.Fatalf("reset round must have no remaining questions")
	}
}
