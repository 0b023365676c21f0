package external

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/cardio-risk-mcp-server/internal/domain"
)

// ChatClient talks to an OpenAI-compatible chat completions endpoint
type ChatClient struct {
	name       string
	model      string
	httpClient *resty.Client
	rateLimit  *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
}

// ChatMessage is one message of a chat completion request
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message ChatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// NewChatClient creates a chat client. name labels its circuit breaker and log lines.
func NewChatClient(name string, config domain.LLMClientConfig, logger *logrus.Logger) *ChatClient {
	if config.BaseURL == "" {
		config.BaseURL = "https://api.openai.com/v1"
	}
	if config.Model == "" {
		config.Model = "gpt-4"
	}
	if config.Timeout == 0 {
		config.Timeout = 60 * time.Second
	}
	if config.RateLimit == 0 {
		config.RateLimit = 2
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(config.BaseURL, "/")).
		SetTimeout(config.Timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if config.APIKey != "" {
		client.SetAuthToken(config.APIKey)
	}

	return &ChatClient{
		name:       name,
		model:      config.Model,
		httpClient: client,
		rateLimit:  rate.NewLimiter(rate.Limit(config.RateLimit), 1),
		breaker:    NewCircuitBreaker(name, DefaultCircuitBreakerConfig(), logger),
	}
}

// Complete sends the messages and returns the first choice's content
func (c *ChatClient) Complete(ctx context.Context, messages []ChatMessage, temperature float64) (string, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.complete(ctx, messages, temperature)
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", c.name, err)
	}
	return result.(string), nil
}

func (c *ChatClient) complete(ctx context.Context, messages []ChatMessage, temperature float64) (string, error) {
	if err := c.rateLimit.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait failed: %w", err)
	}

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(chatRequest{Model: c.model, Messages: messages, Temperature: temperature}).
		Post("/chat/completions")
	if err != nil {
		return "", fmt.Errorf("failed to execute chat request: %w", err)
	}

	var parsed chatResponse
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return "", fmt.Errorf("chat API returned status %d with undecodable body: %w", resp.StatusCode(), err)
	}
	if resp.StatusCode() != http.StatusOK {
		if parsed.Error != nil {
			return "", fmt.Errorf("chat API returned status %d: %s", resp.StatusCode(), parsed.Error.Message)
		}
		return "", fmt.Errorf("chat API returned status %d", resp.StatusCode())
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("chat API returned no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}
