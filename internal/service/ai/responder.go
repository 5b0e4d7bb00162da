package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"

	"github.com/quantquest/chatbot/internal/config"
	"github.com/quantquest/chatbot/internal/logger"
	"github.com/quantquest/chatbot/internal/model/chat"
	"github.com/quantquest/chatbot/internal/model/topic"
)

// ErrUnexpectedResponse is returned when the model reply does not start with
// a text block.
var ErrUnexpectedResponse = errors.New("unexpected response from completion endpoint")

// Responder produces the assistant reply for a conversation whose last
// message is the user's latest turn. Remote reports whether Respond goes over
// the network and may block or fail.
type Responder interface {
	Respond(ctx context.Context, history []chat.Message) (string, error)
	Name() string
	Remote() bool
}

// DefaultSystemPrompt keeps the assistant on quantitative-finance topics.
const DefaultSystemPrompt = `You are the QuantQuest tutor, an assistant embedded in a gamified learning platform for quantitative finance.
Only answer questions about quantitative finance, financial mathematics, statistics, risk management, trading strategies and programming for quantitative analysis.
If a question is unrelated, politely steer the learner back to quantitative finance.
Keep explanations concise, use formulas where helpful and prefer concrete examples.`

// Provider constructors, replaceable in tests.
var (
	buildArkChatModel = func(ctx context.Context, cfg config.ChatbotConfig) (model.BaseChatModel, error) {
		return cfg.NewChatModel(ctx)
	}
	buildGeminiResponder = func(ctx context.Context, cfg config.ChatbotConfig) (Responder, error) {
		return NewGeminiResponder(ctx, cfg)
	}
)

// NewResponder selects the responder once: the canned demo responder when no
// credential is configured, otherwise the configured remote provider. A
// provider that cannot be constructed degrades to the demo responder.
func NewResponder(ctx context.Context, cfg config.ChatbotConfig, topics topic.Store) Responder {
	demo := NewDemoResponder(topics)
	if !cfg.Remote() {
		logger.Log.Info("chatbot credential not configured, using demo responder")
		return demo
	}

	var (
		responder Responder
		err       error
	)
	switch cfg.Provider {
	case config.ProviderGemini:
		responder, err = buildGeminiResponder(ctx, cfg)
	default:
		chatModel, modelErr := buildArkChatModel(ctx, cfg)
		if modelErr != nil {
			err = modelErr
			break
		}
		responder, err = NewChatModelResponder(ctx, chatModel, cfg)
	}
	if err != nil {
		logger.Log.Warnf("failed to initialise %s responder, using demo responder: %v", cfg.Provider, err)
		return demo
	}

	logger.Log.Infof("chatbot responder ready provider=%s model=%s", cfg.Provider, cfg.ModelName())
	return responder
}

func systemPrompt(cfg config.ChatbotConfig) string {
	if prompt := strings.TrimSpace(cfg.SystemPrompt); prompt != "" {
		return prompt
	}
	return DefaultSystemPrompt
}

func requireUserTurn(history []chat.Message) error {
	if len(history) == 0 {
		return fmt.Errorf("empty conversation history")
	}
	return nil
}
