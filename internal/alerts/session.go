package alerts

import (
	"sync"

	"github.com/ukydev/fleetdash/internal/models"
)

// Session holds one user's last derived alert list together with the
// acknowledge/dismiss state applied to it. Replace discards that state.
type Session struct {
	mu     sync.Mutex
	alerts []models.Alert
}

// Replace installs a freshly derived list. Previously dismissed alerts come
// back and acknowledgements are cleared.
func (s *Session) Replace(list []models.Alert) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts = append([]models.Alert(nil), list...)
}

// List returns a copy of the current list.
func (s *Session) List() []models.Alert {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append(make([]models.Alert, 0, len(s.alerts)), s.alerts...)
}

// Acknowledge marks the alert as acknowledged. It reports whether the id
// was present.
func (s *Session) Acknowledge(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.alerts {
		if s.alerts[i].ID == id {
			s.alerts[i].Acknowledged = true
			return true
		}
	}
	return false
}

// Dismiss removes the alert from the list until the next Replace.
func (s *Session) Dismiss(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.alerts {
		if s.alerts[i].ID == id {
			s.alerts = append(s.alerts[:i], s.alerts[i+1:]...)
			return true
		}
	}
	return false
}

// Sessions keys alert sessions by user id.
type Sessions struct {
	mu     sync.Mutex
	byUser map[string]*Session
}

// NewSessions creates an empty session registry.
func NewSessions() *Sessions {
	return &Sessions{byUser: make(map[string]*Session)}
}

// For returns the session of userID, creating it on first use.
func (s *Sessions) For(userID string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.byUser[userID]
	if !ok {
		sess = &Session{}
		s.byUser[userID] = sess
	}
	return sess
}

// Drop forgets the session of userID, e.g. on sign-out.
func (s *Sessions) Drop(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byUser, userID)
}
