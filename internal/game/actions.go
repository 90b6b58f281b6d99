package game

import (
	"context"
	"sync"

	"trivia-arena/internal/domain"
	"trivia-arena/internal/protocol"
)

// Action is the tagged union of events the engine consumes. Actions are
// immutable, produced by the listeners or by the engine itself, and each is
// consumed exactly once by the dispatch loop.
type Action interface{ isAction() }

// AddParticipant announces a completed handshake.
type AddParticipant struct {
	ClientID int
}

// RemoveParticipant removes a participant after a disconnect request or a
// dead push connection.
type RemoveParticipant struct {
	ClientID int
}

// SetAnswer submits an answer for the current question.
type SetAnswer struct {
	Answer domain.Answer
}

// SendMessage forwards one message to one participant's push connection.
type SendMessage struct {
	ClientID int
	Message  protocol.ServerMessage
}

// AdvanceState drives the round state machine. Token guards against timers
// scheduled for a phase that has since been aborted.
type AdvanceState struct {
	Token int
}

// ProvideRoundDetails answers a round-details query over the push channel.
type ProvideRoundDetails struct {
	ClientID int
}

func (AddParticipant) isAction()      {}
func (RemoveParticipant) isAction()   {}
func (SetAnswer) isAction()           {}
func (SendMessage) isAction()         {}
func (AdvanceState) isAction()        {}
func (ProvideRoundDetails) isAction() {}

// Queue is the unbounded FIFO that totally orders all state-mutating
// events. Enqueue never blocks; Dequeue blocks until an action arrives or
// the context is done. The single consumer is the engine's dispatch loop.
type Queue struct {
	mu     sync.Mutex
	items  []Action
	signal chan struct{}
}

func NewQueue() *Queue {
	return &Queue{signal: make(chan struct{}, 1)}
}

func (q *Queue) Enqueue(action Action) {
	q.mu.Lock()
	q.items = append(q.items, action)
	q.mu.Unlock()
	select {
	case q.signal <- struct{}{}:
	default:
	}
}

func (q *Queue) Dequeue(ctx context.Context) (Action, bool) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			action := q.items[0]
			q.items = q.items[1:]
			q.mu.Unlock()
			return action, true
		}
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, false
		case <-q.signal:
		}
	}
}

// Len reports the number of queued actions.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
