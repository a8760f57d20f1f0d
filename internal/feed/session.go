// Package feed drives cursor-based incremental loading of the video feed.
package feed

import (
	"sync"

	"github.com/google/uuid"
)

// State is the pager's position in its fetch cycle.
type State int

const (
	// Idle means no fetch is in flight and more pages may exist.
	Idle State = iota
	// Fetching means a page request is in flight.
	Fetching
	// Exhausted is terminal: the server returned an empty page.
	Exhausted
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Fetching:
		return "fetching"
	case Exhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// Session owns the cursor and fetch state of one feed session. The cursor only
// moves forward, and only after a successful page.
type Session struct {
	id string

	mu     sync.Mutex
	state  State
	cursor string
	pages  int
}

// NewSession starts a session at the beginning of the feed.
func NewSession() *Session {
	return &Session{id: uuid.NewString()}
}

// ID identifies the session in logs.
func (s *Session) ID() string { return s.id }

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Cursor returns the cursor the next fetch will use; empty is the start of the feed.
func (s *Session) Cursor() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor
}

// Pages returns the number of non-empty pages received.
func (s *Session) Pages() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pages
}

// begin moves Idle to Fetching and returns the cursor to fetch with. It
// reports false when a fetch is already running or the feed is exhausted.
func (s *Session) begin() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Idle {
		return "", false
	}
	s.state = Fetching
	return s.cursor, true
}

// fail returns to Idle so the next trigger can retry with the same cursor.
func (s *Session) fail() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Idle
}

// exhaust marks the terminal state.
func (s *Session) exhaust() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Exhausted
}

// advance records a non-empty page and returns to Idle.
func (s *Session) advance(next string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursor = next
	s.pages++
	s.state = Idle
}
