package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
)

const titlePromptTemplate = `Analyze this user message and create a descriptive title (max 25 characters) that captures the main intent/topic:

User message: %q

Examples of good intent-based titles:
- "Can you give me all of the primary colours?" → "Primary Colors"
- "How do I cook pasta?" → "Cooking Pasta"
- "What's the weather like?" → "Weather Info"
- "Hey there, I want to know how tall are giraffes?" → "Giraffe Height"
- "Help me with Python coding" → "Python Help"
- "Tell me about history" → "History Facts"
- "How to fix my car?" → "Car Repair"
- "What's the best way to learn Spanish?" → "Learn Spanish"
- "Can you explain quantum physics?" → "Quantum Physics"

Generate a descriptive title that captures the main intent (max 25 characters):`

// GenerateTitle asks the upstream model for a short conversation title based
// on the user's first message. It is independent of GenerateReply; callers
// fall back to FallbackTitle when it fails for any reason.
func (p *Provider) GenerateTitle(ctx context.Context, message string) (string, error) {
	if message == "" {
		return "", ErrEmptyResponse
	}
	if p.config.APIKey == "" {
		return "", ErrMissingAPIKey
	}

	ctx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.config.Model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: fmt.Sprintf(titlePromptTemplate, message),
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("llm: title request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}

	title := cleanTitle(resp.Choices[0].Message.Content)
	if title == "" {
		return "", ErrEmptyResponse
	}
	return title, nil
}

// cleanTitle strips model boilerplate and enforces the 25-character bound.
func cleanTitle(raw string) string {
	title := strings.TrimSpace(raw)
	title = strings.TrimSpace(strings.ReplaceAll(title, "Title:", ""))
	title = strings.TrimSpace(strings.ReplaceAll(title, `"`, ""))

	if runes := []rune(title); len(runes) > 25 {
		title = string(runes[:22]) + "..."
	}
	return title
}

// FallbackTitle derives a deterministic title from the first two words of the
// message, truncated when long.
func FallbackTitle(message string) string {
	words := strings.Fields(message)
	if len(words) > 2 {
		words = words[:2]
	}
	title := strings.Join(words, " ")
	if runes := []rune(title); len(runes) > 14 {
		title = string(runes[:11]) + "..."
	}
	return title
}
