package agent

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sant0-9/chartwise/internal/compiler"
	"github.com/sant0-9/chartwise/internal/intent"
)

// Entry is one processed command
type Entry struct {
	Command string          `json:"command"`
	Intent  intent.Intent   `json:"intent"`
	Action  compiler.Action `json:"action"`
	Latency time.Duration   `json:"latency_ns"`
	At      time.Time       `json:"timestamp"`
}

// Session is an append-only conversation log. It is safe for concurrent use.
type Session struct {
	ID string

	mu      sync.Mutex
	entries []Entry
}

func NewSession(id string) *Session {
	if id == "" {
		id = uuid.NewString()
	}
	return &Session{ID: id}
}

func (s *Session) Record(e Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, e)
}

// History returns a copy of the log, oldest first
func (s *Session) History() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Entry(nil), s.entries...)
}

func (s *Session) LastIntent() (intent.Intent, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.entries) == 0 {
		return intent.Intent{}, false
	}
	return s.entries[len(s.entries)-1].Intent, true
}

// Amend replaces the action of the most recent entry, for outcomes that
// change after the entry was recorded.
func (s *Session) Amend(a compiler.Action) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n := len(s.entries); n > 0 {
		s.entries[n-1].Action = a
	}
}

func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
}

func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Sessions is a registry of sessions keyed by id
type Sessions struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

func NewSessions() *Sessions {
	return &Sessions{sessions: map[string]*Session{}}
}

// Get returns the session for id, creating it when needed. An empty id
// always creates a new session.
func (s *Sessions) Get(id string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[id]; ok && id != "" {
		return sess
	}
	sess := NewSession(id)
	s.sessions[sess.ID] = sess
	return sess
}

// Lookup returns an existing session without creating one
func (s *Sessions) Lookup(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

func (s *Sessions) Drop(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}
