package chat

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/quantquest/chatbot/internal/model/chat"
)

// store keeps sessions by handle plus the handle of the current one.
type store struct {
	mu       sync.RWMutex
	now      func() time.Time
	sessions map[string]*chat.Session
	current  string
}

func newStore(now func() time.Time) *store {
	return &store{
		now:      now,
		sessions: make(map[string]*chat.Session),
	}
}

// currentLocked resolves the current handle. A handle that is set but missing
// from the map means the rotation rules were broken.
func (s *store) currentLocked() (*chat.Session, bool) {
	if s.current == "" {
		return nil, false
	}
	session, ok := s.sessions[s.current]
	if !ok {
		panic(fmt.Errorf("%w: current handle %s", ErrSessionNotFound, s.current))
	}
	return session, true
}

// Current returns a snapshot of the current session.
func (s *store) Current() (chat.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.currentLocked()
	if !ok {
		return chat.Session{}, false
	}
	return session.Clone(), true
}

// History returns a copy of the current session's log.
func (s *store) History() []chat.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.currentLocked()
	if !ok {
		return []chat.Message{}
	}
	return session.Clone().Messages
}

// AppendToCurrent lazily creates the current session and appends message to
// it. The returned session pointer is used for follow-up appends so a reply
// lands in the conversation it answers.
func (s *store) AppendToCurrent(message chat.Message) *chat.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.currentLocked()
	if !ok {
		session = s.createLocked()
	}
	s.appendLocked(session, message)
	return session
}

// Append adds message to session.
func (s *store) Append(session *chat.Session, message chat.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendLocked(session, message)
}

// Snapshot returns a copy of session's log taken under the lock.
func (s *store) Snapshot(session *chat.Session) []chat.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return session.Clone().Messages
}

// Rotate drops the current session and installs a fresh one.
func (s *store) Rotate() chat.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != "" {
		delete(s.sessions, s.current)
	}
	return s.createLocked().Clone()
}

// Len reports the number of live sessions.
func (s *store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *store) createLocked() *chat.Session {
	now := s.now().UTC()
	session := &chat.Session{
		ID:           uuid.NewString(),
		Messages:     make([]chat.Message, 0, 16),
		CreatedAt:    now,
		LastActivity: now,
	}
	s.sessions[session.ID] = session
	s.current = session.ID
	return session
}

func (s *store) appendLocked(session *chat.Session, message chat.Message) {
	session.Messages = append(session.Messages, message)
	session.LastActivity = message.Timestamp
}
