package ai

import (
	"context"

	"github.com/quantquest/chatbot/internal/model/chat"
	"github.com/quantquest/chatbot/internal/model/topic"
)

var defaultTopics = topic.NewMemoryStore(topic.Seed())

// FallbackReply returns the canned explanation for the first built-in topic
// whose trigger appears in content, or the generic help text.
func FallbackReply(content string) string {
	return fallbackReply(defaultTopics, content)
}

func fallbackReply(topics topic.Store, content string) string {
	if item, ok := topics.Match(content); ok {
		return item.Reply
	}
	return topic.GenericHelp
}

// DemoResponder answers from the topic catalog. It never fails.
type DemoResponder struct {
	topics topic.Store
}

// NewDemoResponder returns a DemoResponder over topics, or over the built-in
// catalog when topics is nil.
func NewDemoResponder(topics topic.Store) *DemoResponder {
	if topics == nil {
		topics = defaultTopics
	}
	return &DemoResponder{topics: topics}
}

// Name implements Responder.
func (r *DemoResponder) Name() string {
	return "demo"
}

// Remote implements Responder.
func (r *DemoResponder) Remote() bool {
	return false
}

// Respond implements Responder using the latest user message.
func (r *DemoResponder) Respond(_ context.Context, history []chat.Message) (string, error) {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == chat.RoleUser {
			return fallbackReply(r.topics, history[i].Content), nil
		}
	}
	return topic.GenericHelp, nil
}
