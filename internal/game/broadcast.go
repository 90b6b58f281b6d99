package game

import (
	"sync"
	"time"
)

// Snapshot is the read-only view of the game streamed to spectators.
type Snapshot struct {
	State          string     `json:"state"`
	RoundID        int        `json:"roundId"`
	QuestionNumber int        `json:"questionNumber"`
	QuestionCount  int        `json:"questionCount"`
	Standings      []Standing `json:"standings"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// Broadcaster fans snapshots out to subscriber channels. Slow subscribers
// have their stale update dropped rather than blocking the publisher.
type Broadcaster struct {
	mu          sync.Mutex
	subscribers map[chan Snapshot]struct{}
	last        Snapshot
	now         func() time.Time
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subscribers: make(map[chan Snapshot]struct{}),
		now:         time.Now,
	}
}

// Watch returns a channel carrying the current snapshot followed by every
// later publish. The caller must invoke the cancel function to avoid leaks.
func (b *Broadcaster) Watch() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 8)

	b.mu.Lock()
	b.subscribers[ch] = struct{}{}
	initial := b.last
	b.mu.Unlock()

	ch <- initial

	cancel := func() {
		b.mu.Lock()
		if _, ok := b.subscribers[ch]; ok {
			delete(b.subscribers, ch)
			close(ch)
		}
		b.mu.Unlock()
	}
	return ch, cancel
}

// Publish records snap as the latest snapshot and delivers it to every
// subscriber.
func (b *Broadcaster) Publish(snap Snapshot) {
	snap.UpdatedAt = b.now()

	b.mu.Lock()
	defer b.mu.Unlock()
	b.last = snap
	for ch := range b.subscribers {
		select {
		case ch <- snap:
		default:
			// Drop the stale update so a slow spectator cannot block the engine.
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
}
