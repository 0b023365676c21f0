package external

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"github.com/cardio-risk-mcp-server/internal/domain"
)

// HFClassifierClient calls a text-classification endpoint speaking the Hugging Face
// inference wire format.
type HFClassifierClient struct {
	id         string
	endpoint   string
	httpClient *resty.Client
	rateLimit  *rate.Limiter
}

// hfRequest is the inference request body
type hfRequest struct {
	Inputs  string    `json:"inputs"`
	Options hfOptions `json:"options"`
}

type hfOptions struct {
	WaitForModel bool `json:"wait_for_model"`
}

// hfError is returned by the inference API on failure
type hfError struct {
	Error         string  `json:"error"`
	EstimatedTime float64 `json:"estimated_time,omitempty"`
}

// NewHFClassifierClient creates a classifier client for one ensemble member
func NewHFClassifierClient(config domain.ModelConfig) *HFClassifierClient {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.RateLimit == 0 {
		config.RateLimit = 5
	}

	httpClient := resty.New().
		SetTimeout(config.Timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if config.APIKey != "" {
		httpClient.SetAuthToken(config.APIKey)
	}

	return &HFClassifierClient{
		id:         config.ID,
		endpoint:   config.Endpoint,
		httpClient: httpClient,
		rateLimit:  rate.NewLimiter(rate.Limit(config.RateLimit), 1),
	}
}

// ID implements domain.TextClassifier
func (c *HFClassifierClient) ID() string {
	return c.id
}

// Classify implements domain.TextClassifier
func (c *HFClassifierClient) Classify(ctx context.Context, text string) ([]domain.LabelScore, error) {
	if err := c.rateLimit.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait failed: %w", err)
	}

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(hfRequest{Inputs: text, Options: hfOptions{WaitForModel: true}}).
		Post(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to execute classification request: %w", err)
	}
	respBody := resp.Body()

	if resp.StatusCode() != http.StatusOK {
		var apiErr hfError
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error != "" {
			return nil, fmt.Errorf("classifier %s returned status %d: %s", c.id, resp.StatusCode(), apiErr.Error)
		}
		return nil, fmt.Errorf("classifier %s returned status %d", c.id, resp.StatusCode())
	}

	return ParseClassificationResponse(respBody)
}

// ParseClassificationResponse decodes either the batched [[{label, score}]] shape or the
// flat [{label, score}] shape.
func ParseClassificationResponse(body []byte) ([]domain.LabelScore, error) {
	var batched [][]domain.LabelScore
	if err := json.Unmarshal(body, &batched); err == nil {
		if len(batched) == 0 {
			return nil, fmt.Errorf("empty classification response")
		}
		return batched[0], nil
	}

	var flat []domain.LabelScore
	if err := json.Unmarshal(body, &flat); err != nil {
		return nil, fmt.Errorf("failed to parse classification response: %w", err)
	}
	return flat, nil
}
