// Package tutor proxies conversations to an OpenAI-compatible chat API.
package tutor

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"coursemart/internal/core/domain"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "gpt-4o-mini"
	maxRetries     = 2
)

// ErrNotConfigured is returned when no API key is set
var ErrNotConfigured = errors.New("AI tutor is not configured")

// Config for the chat client
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// OpenAIClient calls /chat/completions
type OpenAIClient struct {
	apiKey string
	model  string
	client *resty.Client
}

type chatRequest struct {
	Model       string               `json:"model"`
	Messages    []domain.ChatMessage `json:"messages"`
	Temperature float64              `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message      domain.ChatMessage `json:"message"`
		FinishReason string             `json:"finish_reason"`
	} `json:"choices"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// NewOpenAIClient creates a client; retries 429 and 5xx with backoff
func NewOpenAIClient(cfg Config) *OpenAIClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetAuthToken(cfg.APIKey).
		SetHeader("Content-Type", "application/json").
		SetRetryCount(maxRetries).
		SetRetryWaitTime(time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil || r == nil {
				return false
			}
			return r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= 500
		})

	return &OpenAIClient{apiKey: cfg.APIKey, model: model, client: client}
}

// Configured reports whether requests can be made
func (c *OpenAIClient) Configured() bool {
	return c.apiKey != ""
}

// Complete returns the assistant's reply to the conversation
func (c *OpenAIClient) Complete(ctx context.Context, messages []domain.ChatMessage) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}

	var (
		out    chatResponse
		apiErr apiError
	)
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(chatRequest{Model: c.model, Messages: messages, Temperature: 0.4}).
		SetResult(&out).
		SetError(&apiErr).
		ForceContentType("application/json").
		Post("/chat/completions")
	if err != nil {
		return "", fmt.Errorf("chat request failed: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		if apiErr.Error.Message != "" {
			return "", fmt.Errorf("chat API error (%d): %s", resp.StatusCode(), apiErr.Error.Message)
		}
		return "", fmt.Errorf("chat API error (%d): %s", resp.StatusCode(), resp.String())
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("no choices returned")
	}

	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}
