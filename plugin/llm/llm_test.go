package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// fakeUpstream serves scripted chat-completion responses.
func fakeUpstream(t *testing.T, status int, content string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if status != http.StatusOK {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error": {"message": "boom", "type": "server_error"}}`))
			return
		}
		resp := map[string]any{
			"id":     "chatcmpl-test",
			"object": "chat.completion",
			"model":  "gemini-2.5-flash",
			"choices": []map[string]any{
				{
					"index": 0,
					"message": map[string]any{
						"role":    "assistant",
						"content": content,
					},
					"finish_reason": "stop",
				},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(server.Close)
	return server
}

func newTestProvider(baseURL string) *Provider {
	return NewProvider(&Config{
		BaseURL: baseURL,
		APIKey:  "test-key",
		Model:   "gemini-2.5-flash",
		Timeout: 5 * time.Second,
	})
}

func TestGenerateReplyMissingAPIKey(t *testing.T) {
	provider := NewProvider(&Config{})
	_, err := provider.GenerateReply(context.Background(), nil, "hello")
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("expected ErrMissingAPIKey, got %v", err)
	}
}

func TestGenerateReply(t *testing.T) {
	upstream := fakeUpstream(t, http.StatusOK, "Hi there!")
	provider := newTestProvider(upstream.URL + "/v1")

	history := []Turn{
		{Role: "user", Text: "earlier question"},
		{Role: "ai", Text: "earlier answer"},
	}
	reply, err := provider.GenerateReply(context.Background(), history, "Hello")
	if err != nil {
		t.Fatalf("GenerateReply failed: %v", err)
	}
	if reply != "Hi there!" {
		t.Errorf("reply = %q, want %q", reply, "Hi there!")
	}
}

func TestGenerateReplyEmptyResponse(t *testing.T) {
	upstream := fakeUpstream(t, http.StatusOK, "   ")
	provider := newTestProvider(upstream.URL + "/v1")

	_, err := provider.GenerateReply(context.Background(), nil, "Hello")
	if !errors.Is(err, ErrEmptyResponse) {
		t.Errorf("expected ErrEmptyResponse, got %v", err)
	}
}

func TestGenerateReplyUpstreamError(t *testing.T) {
	upstream := fakeUpstream(t, http.StatusInternalServerError, "")
	provider := newTestProvider(upstream.URL + "/v1")

	_, err := provider.GenerateReply(context.Background(), nil, "Hello")
	if err == nil {
		t.Fatal("expected error from failing upstream")
	}
}

func TestGenerateTitle(t *testing.T) {
	upstream := fakeUpstream(t, http.StatusOK, `Title: "Primary Colors"`)
	provider := newTestProvider(upstream.URL + "/v1")

	title, err := provider.GenerateTitle(context.Background(), "Can you give me all of the primary colours?")
	if err != nil {
		t.Fatalf("GenerateTitle failed: %v", err)
	}
	if title != "Primary Colors" {
		t.Errorf("title = %q, want %q", title, "Primary Colors")
	}
}

func TestCleanTitle(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{`Title: "Cooking Pasta"`, "Cooking Pasta"},
		{`  Weather Info  `, "Weather Info"},
		{"A very long generated title that keeps going", "A very long generated ..."},
		{`""`, ""},
	}
	for _, tt := range tests {
		if got := cleanTitle(tt.raw); got != tt.want {
			t.Errorf("cleanTitle(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestFallbackTitle(t *testing.T) {
	tests := []struct {
		message string
		want    string
	}{
		{"Hello", "Hello"},
		{"help me plan a trip", "help me"},
		{"  spaced   out   words  ", "spaced out"},
		{"supercalifragilistic expialidocious", "supercalifr..."},
	}
	for _, tt := range tests {
		if got := FallbackTitle(tt.message); got != tt.want {
			t.Errorf("FallbackTitle(%q) = %q, want %q", tt.message, got, tt.want)
		}
	}
}
