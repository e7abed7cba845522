package profile

import (
	"os"
	"testing"
)

func clearLLMEnvVars() {
	for _, key := range []string{
		"CONVERSE_LLM_BASE_URL", "GEMINI_BASE_URL",
		"CONVERSE_LLM_API_KEY", "GEMINI_API_KEY",
		"CONVERSE_LLM_MODEL", "GEMINI_MODEL",
	} {
		os.Unsetenv(key)
	}
}

func TestLLMProfileDefaults(t *testing.T) {
	clearLLMEnvVars()

	profile := &Profile{}
	profile.FromEnv()

	if profile.LLMAPIKey != "" {
		t.Errorf("LLMAPIKey should be empty by default, got %q", profile.LLMAPIKey)
	}
	if profile.LLMBaseURL != "https://generativelanguage.googleapis.com/v1beta/openai/" {
		t.Errorf("unexpected LLMBaseURL default: %q", profile.LLMBaseURL)
	}
	if profile.LLMModel != "gemini-2.5-flash" {
		t.Errorf("unexpected LLMModel default: %q", profile.LLMModel)
	}
	if profile.LLMTimeoutSec != 30 {
		t.Errorf("unexpected LLMTimeoutSec default: %d", profile.LLMTimeoutSec)
	}
	if profile.IsLLMEnabled() {
		t.Error("IsLLMEnabled should be false without an API key")
	}
}

func TestLLMProfileFromEnv(t *testing.T) {
	tests := []struct {
		name     string
		envVar   string
		envValue string
		field    func(*Profile) string
		expected string
	}{
		{
			name:     "CONVERSE_LLM_MODEL overrides default",
			envVar:   "CONVERSE_LLM_MODEL",
			envValue: "gemini-2.5-pro",
			field:    func(p *Profile) string { return p.LLMModel },
			expected: "gemini-2.5-pro",
		},
		{
			name:     "legacy GEMINI_MODEL is honored",
			envVar:   "GEMINI_MODEL",
			envValue: "custom-model",
			field:    func(p *Profile) string { return p.LLMModel },
			expected: "custom-model",
		},
		{
			name:     "legacy GEMINI_API_KEY is honored",
			envVar:   "GEMINI_API_KEY",
			envValue: "test-key",
			field:    func(p *Profile) string { return p.LLMAPIKey },
			expected: "test-key",
		},
		{
			name:     "CONVERSE_LLM_BASE_URL overrides default",
			envVar:   "CONVERSE_LLM_BASE_URL",
			envValue: "http://localhost:11434/v1/",
			field:    func(p *Profile) string { return p.LLMBaseURL },
			expected: "http://localhost:11434/v1/",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearLLMEnvVars()
			os.Setenv(tt.envVar, tt.envValue)
			defer os.Unsetenv(tt.envVar)

			profile := &Profile{}
			profile.FromEnv()

			if got := tt.field(profile); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestNewKeyTakesPrecedenceOverLegacy(t *testing.T) {
	clearLLMEnvVars()
	os.Setenv("CONVERSE_LLM_API_KEY", "new-key")
	os.Setenv("GEMINI_API_KEY", "legacy-key")
	defer clearLLMEnvVars()

	profile := &Profile{}
	profile.FromEnv()

	if profile.LLMAPIKey != "new-key" {
		t.Errorf("expected new key to win, got %q", profile.LLMAPIKey)
	}
	if !profile.IsLLMEnabled() {
		t.Error("IsLLMEnabled should be true with an API key")
	}
}

func TestValidateDefaultsModeAndDSN(t *testing.T) {
	dir := t.TempDir()
	profile := &Profile{Mode: "bogus", Data: dir, Driver: "sqlite"}
	if err := profile.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if profile.Mode != "demo" {
		t.Errorf("unknown mode should fall back to demo, got %q", profile.Mode)
	}
	if profile.DSN == "" {
		t.Error("sqlite DSN should be derived from data dir")
	}
}
