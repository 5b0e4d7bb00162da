package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/quantquest/chatbot/internal/config"
	"github.com/quantquest/chatbot/internal/model/chat"
)

// ChatModelResponder sends the conversation through an eino chain ending in
// a chat model.
type ChatModelResponder struct {
	chain     compose.Runnable[map[string]any, *schema.Message]
	system    string
	modelName string
	maxTokens int
}

// NewChatModelResponder compiles the prompt chain around chatModel.
func NewChatModelResponder(ctx context.Context, chatModel model.BaseChatModel, cfg config.ChatbotConfig) (*ChatModelResponder, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("chat model is required")
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", false),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}

	return &ChatModelResponder{
		chain:     runnable,
		system:    systemPrompt(cfg),
		modelName: cfg.ModelName(),
		maxTokens: cfg.MaxTokens,
	}, nil
}

// Name implements Responder.
func (r *ChatModelResponder) Name() string {
	return "chat-model:" + r.modelName
}

// Remote implements Responder.
func (r *ChatModelResponder) Remote() bool {
	return true
}

// Respond implements Responder.
func (r *ChatModelResponder) Respond(ctx context.Context, history []chat.Message) (string, error) {
	if err := requireUserTurn(history); err != nil {
		return "", err
	}

	input := map[string]any{
		"system":  r.system,
		"history": toSchemaMessages(history),
	}

	response, err := r.chain.Invoke(ctx, input, compose.WithChatModelOption(
		model.WithModel(r.modelName),
		model.WithMaxTokens(r.maxTokens),
	))
	if err != nil {
		return "", fmt.Errorf("failed to run chat chain: %w", err)
	}

	return firstText(response)
}

func toSchemaMessages(history []chat.Message) []*schema.Message {
	out := make([]*schema.Message, 0, len(history))
	for _, msg := range history {
		switch msg.Role {
		case chat.RoleUser:
			out = append(out, schema.UserMessage(msg.Content))
		case chat.RoleAssistant:
			out = append(out, schema.AssistantMessage(msg.Content, nil))
		}
	}
	return out
}

// firstText extracts the reply text. A reply whose first content part is not
// text is rejected rather than coerced.
func firstText(msg *schema.Message) (string, error) {
	if msg == nil {
		return "", fmt.Errorf("%w: empty message", ErrUnexpectedResponse)
	}

	if len(msg.MultiContent) > 0 {
		part := msg.MultiContent[0]
		if part.Type != schema.ChatMessagePartTypeText {
			return "", fmt.Errorf("%w: first content block is %s", ErrUnexpectedResponse, part.Type)
		}
		if strings.TrimSpace(part.Text) == "" {
			return "", fmt.Errorf("%w: first content block has no text", ErrUnexpectedResponse)
		}
		return part.Text, nil
	}

	if strings.TrimSpace(msg.Content) == "" {
		return "", fmt.Errorf("%w: no text content", ErrUnexpectedResponse)
	}
	return msg.Content, nil
}
