package memory

import (
	"sync"
	"time"

	"pdf-rag/internal/models"
)

// DefaultSession is used when a caller does not identify a session.
const DefaultSession = "default"

// Session owns the memory of one conversation. Lock it around a whole
// read-contextualize-append sequence so concurrent requests of the same
// session cannot interleave.
type Session struct {
	ID     string
	Memory *Memory

	mu       sync.Mutex
	lastUsed time.Time

	sourcesMu   sync.RWMutex
	lastSources []models.Source
}

func (s *Session) Lock()   { s.mu.Lock() }
func (s *Session) Unlock() { s.mu.Unlock() }

// SetLastSources records the citations of the most recent answer.
func (s *Session) SetLastSources(sources []models.Source) {
	s.sourcesMu.Lock()
	defer s.sourcesMu.Unlock()
	s.lastSources = append([]models.Source(nil), sources...)
}

// LastSources returns the citations of the most recent answer. It does not
// wait for a request that holds the session lock.
func (s *Session) LastSources() []models.Source {
	s.sourcesMu.RLock()
	defer s.sourcesMu.RUnlock()
	return append([]models.Source(nil), s.lastSources...)
}

// Store maps session ids to sessions.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	now      func() time.Time
}

func NewStore() *Store {
	return &Store{
		sessions: make(map[string]*Session),
		now:      time.Now,
	}
}

// Get returns the session for id, creating an empty one on first use.
// An empty id selects DefaultSession.
func (s *Store) Get(id string) *Session {
	if id == "" {
		id = DefaultSession
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		sess = &Session{ID: id, Memory: New()}
		s.sessions[id] = sess
	}
	sess.lastUsed = s.now()
	return sess
}

// Lookup returns the session for id without creating it.
func (s *Store) Lookup(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep removes sessions idle for longer than ttl and returns how many were removed.
func (s *Store) Sweep(ttl time.Duration) int {
	if ttl <= 0 {
		return 0
	}
	cutoff := s.now().Add(-ttl)
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, sess := range s.sessions {
		if sess.lastUsed.Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}
