package external

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/cardio-risk-mcp-server/internal/domain"
)

// CircuitBreakerConfig represents circuit breaker configuration
type CircuitBreakerConfig struct {
	MaxRequests  uint32        `json:"max_requests"`
	Interval     time.Duration `json:"interval"`
	Timeout      time.Duration `json:"timeout"`
	MinRequests  uint32        `json:"min_requests"`
	FailureRatio float64       `json:"failure_ratio"`
}

// DefaultCircuitBreakerConfig trips after three requests with at least 60% failures
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		MaxRequests:  5,
		Interval:     30 * time.Second,
		Timeout:      60 * time.Second,
		MinRequests:  3,
		FailureRatio: 0.6,
	}
}

// NewCircuitBreaker creates a breaker that logs its state changes
func NewCircuitBreaker(name string, config CircuitBreakerConfig, logger *logrus.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: config.MaxRequests,
		Interval:    config.Interval,
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= config.MinRequests && failureRatio >= config.FailureRatio
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"circuit_breaker": name,
				"from_state":      from.String(),
				"to_state":        to.String(),
			}).Warn("Circuit breaker state changed")
		},
	})
}

// ResilientClassifier wraps a text classifier with a circuit breaker. While the breaker is
// open calls fail fast, which the ensemble reports as a failed model.
type ResilientClassifier struct {
	inner   domain.TextClassifier
	breaker *gobreaker.CircuitBreaker
}

// NewResilientClassifier wraps inner with its own breaker
func NewResilientClassifier(inner domain.TextClassifier, config CircuitBreakerConfig, logger *logrus.Logger) *ResilientClassifier {
	return &ResilientClassifier{
		inner:   inner,
		breaker: NewCircuitBreaker("classifier:"+inner.ID(), config, logger),
	}
}

// ID implements domain.TextClassifier
func (r *ResilientClassifier) ID() string {
	return r.inner.ID()
}

// Classify implements domain.TextClassifier
func (r *ResilientClassifier) Classify(ctx context.Context, text string) ([]domain.LabelScore, error) {
	result, err := r.breaker.Execute(func() (interface{}, error) {
		return r.inner.Classify(ctx, text)
	})
	if err != nil {
		return nil, fmt.Errorf("circuit breaker execution failed: %w", err)
	}
	return result.([]domain.LabelScore), nil
}

// State reports the breaker state for health checks
func (r *ResilientClassifier) State() gobreaker.State {
	return r.breaker.State()
}
