// Package llm provides the upstream LLM client used to generate AI replies
// and conversation titles. It speaks the OpenAI chat-completion protocol and
// defaults to Gemini's OpenAI-compatible endpoint.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

var (
	// ErrMissingAPIKey is returned when no upstream credential is configured.
	ErrMissingAPIKey = errors.New("llm: API key is missing")
	// ErrEmptyResponse is returned when the upstream reply carries no text.
	ErrEmptyResponse = errors.New("llm: empty response from upstream")
)

// Turn is one prior message of the conversation context.
type Turn struct {
	Role string // "user" or "ai"
	Text string
}

// Config holds the LLM provider configuration.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		BaseURL: "https://generativelanguage.googleapis.com/v1beta/openai/",
		APIKey:  "",
		Model:   "gemini-2.5-flash",
		Timeout: 30 * time.Second,
	}
}

// Provider generates replies and titles via the upstream chat-completion API.
type Provider struct {
	client *openai.Client
	config *Config
}

// NewProvider creates a new LLM provider.
func NewProvider(cfg *Config) *Provider {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	// Apply defaults for unset values
	if cfg.Model == "" {
		cfg.Model = "gemini-2.5-flash"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return &Provider{
		client: openai.NewClientWithConfig(clientConfig),
		config: cfg,
	}
}

// GenerateReply produces the assistant reply for prompt given the prior
// conversation turns, oldest first. The call is bounded by the configured
// timeout and is attempted exactly once; any failure is the caller's to
// surface as an upstream error.
func (p *Provider) GenerateReply(ctx context.Context, history []Turn, prompt string) (string, error) {
	if p.config.APIKey == "" {
		return "", ErrMissingAPIKey
	}

	ctx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	messages := make([]openai.ChatCompletionMessage, 0, len(history)+1)
	for _, turn := range history {
		role := openai.ChatMessageRoleUser
		if turn.Role == "ai" {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    role,
			Content: turn.Text,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	})

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    p.config.Model,
		Messages: messages,
	})
	if err != nil {
		return "", fmt.Errorf("llm: chat completion request failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", ErrEmptyResponse
	}

	return text, nil
}
