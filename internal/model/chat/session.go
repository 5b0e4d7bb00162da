package chat

import "time"

// Session is one continuous conversation held in process memory.
type Session struct {
	ID           string    `json:"id"`
	Messages     []Message `json:"messages"`
	CreatedAt    time.Time `json:"createdAt"`
	LastActivity time.Time `json:"lastActivity"`
}

// Clone returns a copy whose message slice does not alias the original.
func (s Session) Clone() Session {
	messages := make([]Message, len(s.Messages))
	copy(messages, s.Messages)
	s.Messages = messages
	return s
}
