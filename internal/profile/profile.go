package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/pkg/errors"
)

// Profile is the configuration to start main server.
type Profile struct {
	// Mode can be "prod" or "dev" or "demo"
	Mode string
	// Addr is the binding address for server
	Addr string
	// Port is the binding port for server
	Port int
	// Data is the data directory
	Data string
	// DSN points to where converse stores its own data
	DSN string
	// Driver is the database driver (sqlite or postgres)
	Driver string
	// Version is the current version of server
	Version string

	// LLM Configuration
	LLMBaseURL    string // CONVERSE_LLM_BASE_URL (default: Gemini OpenAI-compatible endpoint)
	LLMAPIKey     string // CONVERSE_LLM_API_KEY (legacy: GEMINI_API_KEY)
	LLMModel      string // CONVERSE_LLM_MODEL (legacy: GEMINI_MODEL, default: gemini-2.5-flash)
	LLMTimeoutSec int    // CONVERSE_LLM_TIMEOUT (default: 30 seconds)
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsLLMEnabled returns true if an API key is configured for the upstream LLM.
func (p *Profile) IsLLMEnabled() bool {
	return p.LLMAPIKey != ""
}

// FromEnv loads LLM configuration from environment variables.
// Supports both CONVERSE_* (new) and GEMINI_* (legacy) variables.
func (p *Profile) FromEnv() {
	// Helper to get env value with legacy fallback
	// Skips empty values to allow defaults to take effect
	getEnvWithFallback := func(newKey, legacyKey string) string {
		if val := os.Getenv(newKey); val != "" {
			return val
		}
		return os.Getenv(legacyKey)
	}

	// Helper to get env value with legacy fallback and default value
	getEnvWithDefault := func(newKey, legacyKey, defaultValue string) string {
		if val := getEnvWithFallback(newKey, legacyKey); val != "" {
			return val
		}
		return defaultValue
	}

	p.LLMBaseURL = getEnvWithDefault("CONVERSE_LLM_BASE_URL", "GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta/openai/")
	p.LLMAPIKey = getEnvWithFallback("CONVERSE_LLM_API_KEY", "GEMINI_API_KEY")
	p.LLMModel = getEnvWithDefault("CONVERSE_LLM_MODEL", "GEMINI_MODEL", "gemini-2.5-flash")
	if p.LLMTimeoutSec == 0 {
		p.LLMTimeoutSec = 30
	}
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}

	if p.Mode == "prod" && p.Data == "" {
		if runtime.GOOS == "windows" {
			p.Data = filepath.Join(os.Getenv("ProgramData"), "converse")
			if _, err := os.Stat(p.Data); os.IsNotExist(err) {
				if err := os.MkdirAll(p.Data, 0770); err != nil {
					slog.Error("failed to create data directory", slog.String("data", p.Data), slog.String("error", err.Error()))
					return err
				}
			}
		} else {
			p.Data = "/var/opt/converse"
		}
	}

	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		slog.Error("failed to check data dir", slog.String("data", dataDir), slog.String("error", err.Error()))
		return err
	}

	p.Data = dataDir
	if p.Driver == "sqlite" && p.DSN == "" {
		dbFile := fmt.Sprintf("converse_%s.db", p.Mode)
		p.DSN = filepath.Join(dataDir, dbFile)
	}

	return nil
}
