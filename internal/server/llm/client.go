// Package llm is the completion gateway: one OpenAI-compatible
// chat-completions request per call, no retries.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophcoach/internal/logging"
	"github.com/dmitrijs2005/gophcoach/internal/server/models"
)

const (
	maxErrorBodyRunes = 512
	maxResponseBytes  = 4 << 20
)

type Config struct {
	APIKey      string
	URL         string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     logging.Logger
}

func NewClient(cfg Config, logger logging.Logger) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger.With("module", "llm"),
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []models.Turn `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// Complete sends turns and returns the first choice's content. Failures are
// *UpstreamError or *TransportError.
func (c *Client) Complete(ctx context.Context, turns []models.Turn) (string, error) {
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	payload, err := json.Marshal(chatRequest{
		Model:       c.cfg.Model,
		Messages:    turns,
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &TransportError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", &TransportError{Err: fmt.Errorf("reading response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &UpstreamError{StatusCode: resp.StatusCode, Body: truncate(string(body), maxErrorBodyRunes)}
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", &UpstreamError{StatusCode: resp.StatusCode, Body: truncate(string(body), maxErrorBodyRunes)}
	}
	if len(parsed.Choices) == 0 || strings.TrimSpace(parsed.Choices[0].Message.Content) == "" {
		return "", &UpstreamError{StatusCode: resp.StatusCode, Body: "empty completion"}
	}

	if parsed.Usage != nil {
		c.logger.Debug(ctx, "completion usage",
			"prompt_tokens", parsed.Usage.PromptTokens,
			"completion_tokens", parsed.Usage.CompletionTokens)
	}

	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}

func truncate(s string, maxChars int) string {
	runes := []rune(s)
	if len(runes) <= maxChars {
		return s
	}
	return string(runes[:maxChars])
}
