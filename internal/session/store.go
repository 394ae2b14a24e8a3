package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fyrsmithlabs/fixd/internal/diagnose"
)

// Store is the in-memory session registry. All access goes through the
// store's lock; callers never hold a session across operations, they look it
// up again by ID.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{sessions: make(map[string]*Session)}
}

// Create allocates a new session for the captured context and returns it.
// It never fails.
func (s *Store) Create(dc diagnose.Context) *Session {
	sess := &Session{
		ID:        uuid.New().String(),
		CreatedAt: time.Now(),
		Context:   dc,
		State:     StateCreated,
	}
	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
	return sess
}

// Get returns the session for id, or false when unknown. The returned value
// is a snapshot copy; mutations go through Update.
func (s *Store) Get(id string) (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return Session{}, false
	}
	return *sess, true
}

// Update runs fn on the stored session under the write lock. It returns
// ErrSessionNotFound for unknown IDs and otherwise whatever fn returns.
func (s *Store) Update(id string, fn func(*Session) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	return fn(sess)
}

// Len reports the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
