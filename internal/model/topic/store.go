package topic

import "strings"

// Store exposes the topic catalog.
type Store interface {
	List() []Topic
	FindByID(id string) (Topic, bool)
	Match(content string) (Topic, bool)
}

// MemoryStore implements Store with an in-memory slice. Slice order is the
// match priority.
type MemoryStore struct {
	items []Topic
}

// NewMemoryStore returns a MemoryStore preloaded with the supplied topics.
func NewMemoryStore(items []Topic) *MemoryStore {
	return &MemoryStore{items: append([]Topic(nil), items...)}
}

// List returns the topics in priority order.
func (s *MemoryStore) List() []Topic {
	return append([]Topic(nil), s.items...)
}

// FindByID looks up a topic by identifier.
func (s *MemoryStore) FindByID(id string) (Topic, bool) {
	for _, item := range s.items {
		if item.ID == id {
			return item, true
		}
	}
	return Topic{}, false
}

// Match returns the first topic with a trigger contained in content,
// compared case-insensitively.
func (s *MemoryStore) Match(content string) (Topic, bool) {
	normalized := strings.ToLower(content)
	for _, item := range s.items {
		for _, trigger := range item.Triggers {
			if trigger != "" && strings.Contains(normalized, strings.ToLower(trigger)) {
				return item, true
			}
		}
	}
	return Topic{}, false
}
