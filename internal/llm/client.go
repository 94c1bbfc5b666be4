// Package llm talks to an OpenAI-compatible chat completions endpoint.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/olehluchkiv/manualchunks/internal/config"
)

const (
	maxAttempts  = 2
	maxBodyBytes = 10 * 1024 * 1024
)

// Client sends JSON-mode chat completions.
type Client struct {
	cfg    config.LLM
	http   *http.Client
	logger *slog.Logger
}

// NewClient creates a client. A zero timeout means 30s.
func NewClient(cfg config.LLM, logger *slog.Logger) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger.With("component", "llm-client", "llm", cfg),
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
	Temperature    float64         `json:"temperature"`
}

type chatChoice struct {
	Message chatMessage `json:"message"`
}

type apiError struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Choices []chatChoice `json:"choices"`
	Error   *apiError    `json:"error,omitempty"`
}

// statusError is a non-200 answer. 429 and 5xx are retried once.
type statusError struct {
	code       int
	body       string
	retryAfter time.Duration
}

func (e *statusError) Error() string {
	if e.body == "" {
		return fmt.Sprintf("LLM API status %d", e.code)
	}
	return fmt.Sprintf("LLM API status %d: %s", e.code, e.body)
}

func (e *statusError) retryable() bool {
	return e.code == http.StatusTooManyRequests || e.code >= 500
}

// Complete sends one system + user exchange and returns the assistant's raw
// JSON content.
func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	data, err := json.Marshal(chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		ResponseFormat: &responseFormat{Type: "json_object"},
		Temperature:    0.2,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}
	endpoint := c.cfg.Endpoint + "/chat/completions"

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		content, err := c.post(ctx, endpoint, data)
		if err == nil {
			return content, nil
		}
		lastErr = err

		var se *statusError
		if !errors.As(err, &se) || !se.retryable() || attempt == maxAttempts {
			break
		}
		delay := se.retryAfter
		if delay == 0 {
			delay = time.Second
		}
		c.logger.Debug("retrying LLM request", "attempt", attempt+1, "delay", delay)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return "", fmt.Errorf("LLM request failed: %w", lastErr)
}

func (c *Client) post(ctx context.Context, endpoint string, data []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		se := &statusError{code: resp.StatusCode, retryAfter: parseRetryAfter(resp.Header.Get("Retry-After"))}
		if resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			se.body = string(body)
		}
		return "", se
	}

	var chat chatResponse
	if err := json.Unmarshal(body, &chat); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	if chat.Error != nil {
		return "", fmt.Errorf("LLM API error: %s", chat.Error.Message)
	}
	if len(chat.Choices) == 0 {
		return "", errors.New("LLM returned no choices")
	}
	content := chat.Choices[0].Message.Content
	c.logger.Debug("received LLM response", "length", len(content))
	return content, nil
}

func parseRetryAfter(val string) time.Duration {
	seconds, err := strconv.Atoi(val)
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
