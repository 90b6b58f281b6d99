// Package registry owns the participant map and the table of pending
// handshakes. It is the only shared structure touched by both the listener
// goroutines and the game engine, so every accessor takes the lock.
package registry

import (
	"sync"

	"trivia-arena/internal/domain"
	"trivia-arena/internal/protocol"
)

// PushConn is the long-lived server→client connection bound to a
// participant during the handshake.
type PushConn interface {
	Send(msg protocol.ServerMessage) error
	Close() error
}

// Participant is a connected client registered to play.
type Participant struct {
	ID    int
	Name  string
	Score int
	conn  PushConn
}

// Info is a copyable snapshot of a participant.
type Info struct {
	ID    int
	Name  string
	Score int
}

// Registry tracks registered participants and handshakes in flight.
type Registry struct {
	mu           sync.RWMutex
	nextClientID int
	pending      map[int]string
	participants map[int]*Participant
}

func New() *Registry {
	return &Registry{
		pending:      make(map[int]string),
		participants: make(map[int]*Participant),
	}
}

// AllocatePending reserves the next client id for a named client that has
// not yet opened its push connection. Ids are strictly increasing and never
// reused, even after disconnects.
func (r *Registry) AllocatePending(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextClientID++
	id := r.nextClientID
	r.pending[id] = name
	return id
}

// CompleteHandshake turns a pending entry into a registered participant
// bound to conn. The id must be pending with a matching name, and no
// participant with that id may already exist.
func (r *Registry) CompleteHandshake(id int, name string, conn PushConn) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	expected, ok := r.pending[id]
	if !ok || expected != name {
		return domain.ErrHandshakeMismatch
	}
	if _, exists := r.participants[id]; exists {
		return domain.ErrAlreadyConnected
	}
	delete(r.pending, id)
	r.participants[id] = &Participant{ID: id, Name: name, conn: conn}
	return nil
}

// Validate reports whether a registered participant matches id and name.
// Every request after the handshake is checked against this.
func (r *Registry) Validate(id int, name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.participants[id]
	return ok && p.Name == name
}

// Get returns a snapshot of one participant.
func (r *Registry) Get(id int) (Info, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.participants[id]
	if !ok {
		return Info{}, false
	}
	return Info{ID: p.ID, Name: p.Name, Score: p.Score}, true
}

// Remove deletes a participant and closes its push connection. Removing an
// unknown id is a no-op so disconnects and connection losses can race.
func (r *Registry) Remove(id int) {
	r.mu.Lock()
	p, ok := r.participants[id]
	if ok {
		delete(r.participants, id)
	}
	r.mu.Unlock()
	if ok && p.conn != nil {
		_ = p.conn.Close()
	}
}

// Len returns the number of registered participants.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.participants)
}

// Snapshot returns all participants ordered by nothing in particular.
func (r *Registry) Snapshot() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Info, 0, len(r.participants))
	for _, p := range r.participants {
		out = append(out, Info{ID: p.ID, Name: p.Name, Score: p.Score})
	}
	return out
}

// AddScore awards points to a participant's overall score. Only the game
// engine calls this, during answer evaluation.
func (r *Registry) AddScore(id, points int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.participants[id]; ok {
		p.Score += points
	}
}

// Send writes a message to one participant's push connection. Implements
// the engine's Sender.
func (r *Registry) Send(id int, msg protocol.ServerMessage) error {
	r.mu.RLock()
	p, ok := r.participants[id]
	r.mu.RUnlock()
	if !ok {
		return domain.ErrParticipantNotFound
	}
	return p.conn.Send(msg)
}
