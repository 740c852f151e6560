package flow

import (
	"sync"

	"github.com/craftkart/identity/internal/models"
)

// SessionStore holds the process-wide authenticated user record. It is
// passed explicitly to the flow rather than living in ambient global
// state: populated on bootstrap check or terminal login/signup success,
// cleared on logout.
type SessionStore struct {
	mu   sync.RWMutex
	user *models.User
}

// NewSessionStore creates an empty store.
func NewSessionStore() *SessionStore {
	return &SessionStore{}
}

// Set installs the authenticated user.
func (s *SessionStore) Set(user *models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = user
}

// Current returns the authenticated user, or nil.
func (s *SessionStore) Current() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// Authenticated reports whether a user is installed.
func (s *SessionStore) Authenticated() bool {
	return s.Current() != nil
}

// Clear removes the authenticated user.
func (s *SessionStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = nil
}
