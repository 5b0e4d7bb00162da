package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
	"gopkg.in/yaml.v3"
)

const (
	ProviderArk    = "ark"
	ProviderGemini = "gemini"

	defaultArkModel    = "doubao-1-5-pro-32k-250115"
	defaultGeminiModel = "gemini-2.5-flash"
)

// Config aggregates all service settings.
type Config struct {
	Server  ServerConfig
	Log     LogConfig
	Chatbot ChatbotConfig
}

// Load reads configuration from the environment, then applies the YAML file
// named by CHATBOT_CONFIG_FILE on top when it is set.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	chatbot, err := loadChatbotConfig()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server:  server,
		Log:     LogConfig{Level: getEnvOrDefault("LOG_LEVEL", "info")},
		Chatbot: chatbot,
	}

	if path := strings.TrimSpace(os.Getenv("CHATBOT_CONFIG_FILE")); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr           string
	AllowedOrigins []string
}

// LogConfig controls the process logger.
type LogConfig struct {
	Level string
}

// ChatbotConfig describes the chat dispatcher and its remote model.
type ChatbotConfig struct {
	Provider     string
	APIKey       string
	Model        string
	BaseURL      string
	Region       string
	MaxTokens    int
	RateLimit    time.Duration
	Timeout      time.Duration
	SystemPrompt string
}

// Remote reports whether a non-blank credential is configured.
func (c ChatbotConfig) Remote() bool {
	return strings.TrimSpace(c.APIKey) != ""
}

// ModelName returns the configured model or the provider default.
func (c ChatbotConfig) ModelName() string {
	if c.Model != "" {
		return c.Model
	}
	if c.Provider == ProviderGemini {
		return defaultGeminiModel
	}
	return defaultArkModel
}

// NewChatModel creates an Ark chat model from the configuration.
func (c ChatbotConfig) NewChatModel(ctx context.Context) (model.BaseChatModel, error) {
	if !c.Remote() {
		return nil, fmt.Errorf("chatbot credential is not configured")
	}

	maxTokens := c.MaxTokens
	cfg := &ark.ChatModelConfig{
		BaseURL:   c.BaseURL,
		Region:    c.Region,
		APIKey:    c.APIKey,
		Model:     c.ModelName(),
		MaxTokens: &maxTokens,
	}

	return ark.NewChatModel(ctx, cfg)
}

func loadServerConfig() (ServerConfig, error) {
	origins := splitList(getEnvOrDefault("CORS_ALLOWED_ORIGINS", "*"))

	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// Accept ":8080" or "127.0.0.1:8080" verbatim.
		return ServerConfig{Addr: port, AllowedOrigins: origins}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port, AllowedOrigins: origins}, nil
}

func loadChatbotConfig() (ChatbotConfig, error) {
	provider := strings.ToLower(getEnvOrDefault("CHATBOT_PROVIDER", ProviderArk))
	if err := validateProvider(provider); err != nil {
		return ChatbotConfig{}, err
	}

	maxTokens, err := parseIntEnv("CHATBOT_MAX_TOKENS", 1000)
	if err != nil {
		return ChatbotConfig{}, err
	}

	rateLimitMS, err := parseIntEnv("CHATBOT_RATE_LIMIT_MS", 1000)
	if err != nil {
		return ChatbotConfig{}, err
	}

	timeoutSeconds, err := parseIntEnv("CHATBOT_TIMEOUT_SECONDS", 30)
	if err != nil {
		return ChatbotConfig{}, err
	}

	return ChatbotConfig{
		Provider:  provider,
		APIKey:    strings.TrimSpace(os.Getenv("CHATBOT_API_KEY")),
		Model:     strings.TrimSpace(os.Getenv("CHATBOT_MODEL")),
		BaseURL:   getEnvOrDefault("CHATBOT_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:    getEnvOrDefault("CHATBOT_REGION", "cn-beijing"),
		MaxTokens: maxTokens,
		RateLimit: time.Duration(rateLimitMS) * time.Millisecond,
		Timeout:   time.Duration(timeoutSeconds) * time.Second,
	}, nil
}

// fileConfig mirrors the subset of settings that may be set from YAML.
type fileConfig struct {
	Server struct {
		Addr           string   `yaml:"addr"`
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"server"`
	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
	Chatbot struct {
		Provider       string `yaml:"provider"`
		Model          string `yaml:"model"`
		BaseURL        string `yaml:"base_url"`
		Region         string `yaml:"region"`
		MaxTokens      int    `yaml:"max_tokens"`
		RateLimitMS    int    `yaml:"rate_limit_ms"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
		SystemPrompt   string `yaml:"system_prompt"`
	} `yaml:"chatbot"`
}

// applyFile overlays non-zero values from a YAML file. Credentials are only
// read from the environment.
func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	if fc.Server.Addr != "" {
		c.Server.Addr = fc.Server.Addr
	}
	if len(fc.Server.AllowedOrigins) > 0 {
		c.Server.AllowedOrigins = fc.Server.AllowedOrigins
	}
	if fc.Logging.Level != "" {
		c.Log.Level = fc.Logging.Level
	}

	cb := fc.Chatbot
	if cb.Provider != "" {
		provider := strings.ToLower(cb.Provider)
		if err := validateProvider(provider); err != nil {
			return err
		}
		c.Chatbot.Provider = provider
	}
	if cb.Model != "" {
		c.Chatbot.Model = cb.Model
	}
	if cb.BaseURL != "" {
		c.Chatbot.BaseURL = cb.BaseURL
	}
	if cb.Region != "" {
		c.Chatbot.Region = cb.Region
	}
	if cb.MaxTokens < 0 || cb.RateLimitMS < 0 || cb.TimeoutSeconds < 0 {
		return fmt.Errorf("config file %s: numeric chatbot settings must not be negative", path)
	}
	if cb.MaxTokens > 0 {
		c.Chatbot.MaxTokens = cb.MaxTokens
	}
	if cb.RateLimitMS > 0 {
		c.Chatbot.RateLimit = time.Duration(cb.RateLimitMS) * time.Millisecond
	}
	if cb.TimeoutSeconds > 0 {
		c.Chatbot.Timeout = time.Duration(cb.TimeoutSeconds) * time.Second
	}
	if cb.SystemPrompt != "" {
		c.Chatbot.SystemPrompt = strings.TrimSpace(cb.SystemPrompt)
	}
	return nil
}

func validateProvider(provider string) error {
	switch provider {
	case ProviderArk, ProviderGemini:
		return nil
	default:
		return fmt.Errorf("invalid CHATBOT_PROVIDER value %q", provider)
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func parseIntEnv(key string, defaultValue int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	if val < 0 {
		return 0, fmt.Errorf("invalid %s value %q: must not be negative", key, raw)
	}
	return val, nil
}
