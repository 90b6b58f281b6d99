package game

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"trivia-arena/internal/domain"
	"trivia-arena/internal/protocol"
	"trivia-arena/internal/registry"
)

type fakeProvider struct{}

func (fakeProvider) Questions(_ context.Context, _ domain.Difficulty, _ *domain.Category, count int) ([]domain.Question, error) {
	questions := make([]domain.Question, count)
	for i := range questions {
		questions[i] = domain.Question{
			Category:      "General Knowledge",
			Difficulty:    "Easy",
			Text:          "pick b",
			Options:       map[int]string{1: "a", 2: "b"},
			CorrectOption: 2,
		}
	}
	return questions, nil
}

func (fakeProvider) Categories(_ context.Context) ([]domain.Category, error) {
	return []domain.Category{{ID: 9, Name: "General Knowledge"}}, nil
}

type chanConn struct {
	ch chan protocol.ServerMessage
}

func newChanConn() *chanConn {
	return &chanConn{ch: make(chan protocol.ServerMessage, 128)}
}

func (c *chanConn) Send(msg protocol.ServerMessage) error {
	c.ch <- msg
	return nil
}

func (c *chanConn) Close() error { return nil }

// expect reads messages until one matches the predicate or the timeout hits.
func expect(t *testing.T, conn *chanConn, what string, match func(protocol.ServerMessage) bool) protocol.ServerMessage {
	t.Helper()
	deadline := time.After(10 * time.Second)
	for {
		select {
		case msg := <-conn.ch:
			if match(msg) {
				return msg
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s", what)
			return nil
		}
	}
}

func startEngine(t *testing.T, startDelay, answerDelay, nextDelay time.Duration) (*Engine, *registry.Registry, *Queue) {
	t.Helper()
	queue := NewQueue()
	reg := registry.New()
	engine := NewEngine(queue, reg, fakeProvider{}, reg, zerolog.Nop())
	if err := engine.SetRoundStartDelay(startDelay); err != nil {
		t.Fatalf("set start delay: %v", err)
	}
	if err := engine.SetAnswerDelay(answerDelay); err != nil {
		t.Fatalf("set answer delay: %v", err)
	}
	if err := engine.SetNextQuestionDelay(nextDelay); err != nil {
		t.Fatalf("set next-question delay: %v", err)
	}
	if err := engine.SetQuestionCount(5); err != nil {
		t.Fatalf("set question count: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go engine.Run(ctx)
	return engine, reg, queue
}

func join(t *testing.T, reg *registry.Registry, queue *Queue, name string) (int, *chanConn) {
	t.Helper()
	conn := newChanConn()
	id := reg.AllocatePending(name)
	if err := reg.CompleteHandshake(id, name, conn); err != nil {
		t.Fatalf("handshake %s: %v", name, err)
	}
	queue.Enqueue(AddParticipant{ClientID: id})
	return id, conn
}

func TestFullRoundFlow(t *testing.T) {
	_, reg, queue := startEngine(t, 10*time.Millisecond, 400*time.Millisecond, 10*time.Millisecond)

	aliceID, alice := join(t, reg, queue, "Alice")
	bobID, bob := join(t, reg, queue, "Bob")

	start := expect(t, alice, "RoundStart", func(m protocol.ServerMessage) bool {
		_, ok := m.(protocol.RoundStart)
		return ok
	}).(protocol.RoundStart)
	if start.RoundID != 1 || start.QuestionCount != 5 || start.ParticipantCount != 2 {
		t.Fatalf("unexpected round start: %+v", start)
	}
	expect(t, bob, "RoundStart", func(m protocol.ServerMessage) bool {
		_, ok := m.(protocol.RoundStart)
		return ok
	})

	question := expect(t, alice, "Question 1", func(m protocol.ServerMessage) bool {
		q, ok := m.(protocol.Question)
		return ok && q.QuestionID == 1
	}).(protocol.Question)
	if question.Options[2] != "b" {
		t.Fatalf("unexpected question options: %+v", question.Options)
	}

	// Alice answers question 1 correctly; Bob never answers anything.
	queue.Enqueue(SetAnswer{Answer: domain.Answer{
		RoundID:     start.RoundID,
		QuestionID:  question.QuestionID,
		ClientID:    aliceID,
		OptionIndex: 2,
	}})

	aliceResult := expect(t, alice, "Result 1", func(m protocol.ServerMessage) bool {
		r, ok := m.(protocol.Result)
		return ok && r.QuestionID == 1
	}).(protocol.Result)
	if !aliceResult.Correct || aliceResult.AnswerText != "b" || aliceResult.CorrectAnswerText != "b" {
		t.Fatalf("unexpected result for alice: %+v", aliceResult)
	}

	bobResult := expect(t, bob, "Result 1", func(m protocol.ServerMessage) bool {
		r, ok := m.(protocol.Result)
		return ok && r.QuestionID == 1
	}).(protocol.Result)
	if bobResult.Correct || bobResult.AnswerText != "No answer" {
		t.Fatalf("unexpected result for bob: %+v", bobResult)
	}

	aliceEnd := expect(t, alice, "RoundEnd", func(m protocol.ServerMessage) bool {
		_, ok := m.(protocol.RoundEnd)
		return ok
	}).(protocol.RoundEnd)
	if aliceEnd.OverallLeader != "You" {
		t.Fatalf("leader must see You, got %q", aliceEnd.OverallLeader)
	}
	if aliceEnd.OverallScore != 1 || aliceEnd.Score != 1 || aliceEnd.OverallRank != 1 || aliceEnd.Rank != 1 {
		t.Fatalf("unexpected standings for alice: %+v", aliceEnd)
	}

	bobEnd := expect(t, bob, "RoundEnd", func(m protocol.ServerMessage) bool {
		_, ok := m.(protocol.RoundEnd)
		return ok
	}).(protocol.RoundEnd)
	if bobEnd.OverallLeader != "Alice" {
		t.Fatalf("bob must see the leader's name, got %q", bobEnd.OverallLeader)
	}
	if bobEnd.OverallRank != 2 || bobEnd.OverallScore != 0 {
		t.Fatalf("unexpected standings for bob: %+v", bobEnd)
	}

	if bobID == aliceID {
		t.Fatalf("client ids must be distinct")
	}
}

func TestDuplicateAnswerIgnored(t *testing.T) {
	_, reg, queue := startEngine(t, 10*time.Millisecond, 400*time.Millisecond, 10*time.Millisecond)

	aliceID, alice := join(t, reg, queue, "Alice")

	question := expect(t, alice, "Question 1", func(m protocol.ServerMessage) bool {
		q, ok := m.(protocol.Question)
		return ok && q.QuestionID == 1
	}).(protocol.Question)

	// Correct first, wrong second: the first submission must win.
	queue.Enqueue(SetAnswer{Answer: domain.Answer{RoundID: question.RoundID, QuestionID: 1, ClientID: aliceID, OptionIndex: 2}})
	queue.Enqueue(SetAnswer{Answer: domain.Answer{RoundID: question.RoundID, QuestionID: 1, ClientID: aliceID, OptionIndex: 1}})

	result := expect(t, alice, "Result 1", func(m protocol.ServerMessage) bool {
		r, ok := m.(protocol.Result)
		return ok && r.QuestionID == 1
	}).(protocol.Result)
	if !result.Correct || result.AnswerText != "b" {
		t.Fatalf("expected the first answer to stand, got %+v", result)
	}
}

func TestRoundDetailsBeforeRoundStarts(t *testing.T) {
	engine, reg, queue := startEngine(t, time.Hour, time.Hour, time.Hour)

	aliceID, alice := join(t, reg, queue, "Alice")
	queue.Enqueue(ProvideRoundDetails{ClientID: aliceID})

	details := expect(t, alice, "RoundDetails", func(m protocol.ServerMessage) bool {
		_, ok := m.(protocol.RoundDetails)
		return ok
	}).(protocol.RoundDetails)
	if details.RoundID != 1 || details.QuestionCount != 5 {
		t.Fatalf("unexpected upcoming round details: %+v", details)
	}
	if details.Status != StateWaitingForRoundToStart.String() {
		t.Fatalf("unexpected status %q", details.Status)
	}
	if !details.IsParticipant || details.ParticipantCount != 1 {
		t.Fatalf("expected alice counted as participant: %+v", details)
	}
	if details.Category != "Any" || details.Difficulty != "Any" {
		t.Fatalf("expected Any/Any defaults, got %+v", details)
	}
	_ = engine
}

func TestRemovingEveryoneAbortsRound(t *testing.T) {
	engine, reg, queue := startEngine(t, 10*time.Millisecond, time.Hour, 10*time.Millisecond)

	aliceID, alice := join(t, reg, queue, "Alice")
	bobID, _ := join(t, reg, queue, "Bob")

	expect(t, alice, "Question 1", func(m protocol.ServerMessage) bool {
		q, ok := m.(protocol.Question)
		return ok && q.QuestionID == 1
	})

	snapshots, cancel := engine.Watch()
	defer cancel()

	queue.Enqueue(RemoveParticipant{ClientID: aliceID})
	queue.Enqueue(RemoveParticipant{ClientID: bobID})

	deadline := time.After(10 * time.Second)
	for {
		select {
		case snap := <-snapshots:
			if snap.State == StateWaitingForRoundToStart.String() && len(snap.Standings) == 0 {
				if reg.Len() != 0 {
					t.Fatalf("registry should be empty after removals")
				}
				return
			}
		case <-deadline:
			t.Fatalf("round never aborted after all participants left")
		}
	}
}

func TestSettingsValidation(t *testing.T) {
	queue := NewQueue()
	reg := registry.New()
	engine := NewEngine(queue, reg, fakeProvider{}, reg, zerolog.Nop())

	if err := engine.SetRoundStartDelay(-time.Second); err != ErrNegativeDelay {
		t.Fatalf("expected negative delay rejection, got %v", err)
	}
	if err := engine.SetQuestionCount(4); err != ErrQuestionCountOutOfRange {
		t.Fatalf("expected count below range rejected, got %v", err)
	}
	if err := engine.SetQuestionCount(16); err != ErrQuestionCountOutOfRange {
		t.Fatalf("expected count above range rejected, got %v", err)
	}
	if err := engine.SetQuestionCount(15); err != nil {
		t.Fatalf("count 15 must be accepted, got %v", err)
	}

	ctx := context.Background()
	if err := engine.SetCategory(ctx, "General Knowledge"); err != nil {
		t.Fatalf("known category rejected: %v", err)
	}
	if err := engine.SetCategory(ctx, "Underwater Basket Weaving"); err != domain.ErrUnknownCategory {
		t.Fatalf("expected unknown category error, got %v", err)
	}
	if err := engine.SetCategory(ctx, "any"); err != nil {
		t.Fatalf("clearing category must succeed: %v", err)
	}
}
