package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	envLLMEndpoint = "MANUALCHUNKS_LLM_ENDPOINT"
	envLLMAPIKey   = "MANUALCHUNKS_LLM_API_KEY"
	envLLMModel    = "MANUALCHUNKS_LLM_MODEL"
)

// LLM holds the settings of the bundle-suggestion endpoint.
type LLM struct {
	Endpoint string
	APIKey   string
	Model    string
	Timeout  time.Duration
}

// LogValue masks the API key when the settings are logged via slog.
func (l LLM) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("endpoint", l.Endpoint),
		slog.String("model", l.Model),
		slog.String("api_key", "[REDACTED]"),
	)
}

// LoadDotEnv reads .env files into the process environment. Variables that
// are already set win; a missing file is not an error.
func LoadDotEnv(files ...string) {
	if len(files) == 0 {
		_ = godotenv.Load()
		return
	}
	for _, f := range files {
		_ = godotenv.Load(f)
	}
}

// LLMFromEnv reads the suggestion endpoint settings.
func LLMFromEnv() (LLM, error) {
	apiKey := strings.TrimSpace(os.Getenv(envLLMAPIKey))
	if apiKey == "" {
		return LLM{}, fmt.Errorf("%s environment variable is required when -suggest is enabled", envLLMAPIKey)
	}
	return LLM{
		Endpoint: firstNonEmpty(strings.TrimSpace(os.Getenv(envLLMEndpoint)), "https://api.openai.com/v1"),
		APIKey:   apiKey,
		Model:    firstNonEmpty(strings.TrimSpace(os.Getenv(envLLMModel)), "gpt-4o-mini"),
		Timeout:  30 * time.Second,
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
