package client

import (
	"sync"

	"vietlingo/models"
)

// SessionState is the learner data screens render: who is signed in and their headline stats.
type SessionState struct {
	Token     string
	User      *models.User
	Points    int
	Level     int
	LevelName string
	Streak    int
}

// SignedIn reports whether a token is held.
func (s SessionState) SignedIn() bool {
	return s.Token != ""
}

// Session owns the token and display data. Readers take snapshots with State and learn about
// changes through OnChange subscriptions.
type Session struct {
	mu     sync.RWMutex
	state  SessionState
	nextID int
	subs   map[int]func(SessionState)
}

func NewSession() *Session {
	return &Session{subs: make(map[int]func(SessionState))}
}

func (s *Session) State() SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Token
}

// OnChange registers fn to be called with the new state after every change. The returned
// func removes the subscription.
func (s *Session) OnChange(fn func(SessionState)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *Session) SetAuth(token string, user *models.User) {
	s.update(func(st *SessionState) {
		st.Token = token
		st.User = user
	})
}

// SetExperience copies the headline numbers of rec.
func (s *Session) SetExperience(rec *models.ExperienceRecord) {
	if rec == nil {
		return
	}
	s.update(func(st *SessionState) {
		st.Points = rec.Points
		st.Level = rec.Level
		st.LevelName = rec.LevelName
		st.Streak = rec.StreakCount
	})
}

// Clear signs the learner out.
func (s *Session) Clear() {
	s.update(func(st *SessionState) { *st = SessionState{} })
}

// update applies fn under the lock and notifies subscribers outside it, so a subscriber may
// read the session again.
func (s *Session) update(fn func(*SessionState)) {
	s.mu.Lock()
	fn(&s.state)
	state := s.state
	subs := make([]func(SessionState), 0, len(s.subs))
	for _, sub := range s.subs {
		subs = append(subs, sub)
	}
	s.mu.Unlock()

	for _, sub := range subs {
		sub(state)
	}
}
