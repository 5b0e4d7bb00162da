package ai

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/quantquest/chatbot/internal/config"
	"github.com/quantquest/chatbot/internal/model/chat"
)

// contentGenerator is the slice of *genai.Models used by GeminiResponder.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiResponder calls the Gemini API through google.golang.org/genai.
type GeminiResponder struct {
	models    contentGenerator
	system    string
	modelName string
	maxTokens int32
}

// NewGeminiResponder creates a Gemini API client from cfg.
func NewGeminiResponder(ctx context.Context, cfg config.ChatbotConfig) (*GeminiResponder, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return newGeminiResponder(client.Models, cfg), nil
}

func newGeminiResponder(models contentGenerator, cfg config.ChatbotConfig) *GeminiResponder {
	return &GeminiResponder{
		models:    models,
		system:    systemPrompt(cfg),
		modelName: cfg.ModelName(),
		maxTokens: int32(cfg.MaxTokens),
	}
}

// Name implements Responder.
func (r *GeminiResponder) Name() string {
	return "gemini:" + r.modelName
}

// Remote implements Responder.
func (r *GeminiResponder) Remote() bool {
	return true
}

// Respond implements Responder.
func (r *GeminiResponder) Respond(ctx context.Context, history []chat.Message) (string, error) {
	if err := requireUserTurn(history); err != nil {
		return "", err
	}

	contents := make([]*genai.Content, 0, len(history))
	for _, msg := range history {
		role := "user"
		if msg.Role == chat.RoleAssistant {
			role = "model"
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{{Text: msg.Content}},
		})
	}

	result, err := r.models.GenerateContent(ctx, r.modelName, contents, &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: r.system}}},
		MaxOutputTokens:   r.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}

	if result == nil || len(result.Candidates) == 0 {
		return "", fmt.Errorf("%w: no candidates", ErrUnexpectedResponse)
	}
	candidate := result.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 || candidate.Content.Parts[0] == nil {
		return "", fmt.Errorf("%w: no content parts", ErrUnexpectedResponse)
	}

	text := candidate.Content.Parts[0].Text
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: first content part is not text", ErrUnexpectedResponse)
	}
	return text, nil
}
