// Package bootstrap wires the assessment engine and its collaborators from configuration.
// Both the HTTP and the MCP binaries start from Build.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/cardio-risk-mcp-server/internal/domain"
	"github.com/cardio-risk-mcp-server/internal/service"
	"github.com/cardio-risk-mcp-server/pkg/external"
)

// FreeTextModelID identifies the remote free-text classifier in logs and caches
const FreeTextModelID = "free_text"

// Application is the wired engine
type Application struct {
	Assessor       *service.AssessmentService
	HealthCheckers map[string]external.HealthChecker

	store  *external.RedisStore
	logger *logrus.Logger
}

// Build creates every collaborator named by cfg. An unreachable Redis is logged and the
// cache falls back to its in-memory tier.
func Build(ctx context.Context, cfg *domain.Config, logger *logrus.Logger) (*Application, error) {
	app := &Application{
		HealthCheckers: make(map[string]external.HealthChecker),
		logger:         logger,
	}

	if cfg.Cache.Enabled && cfg.Cache.RedisURL != "" {
		store, err := external.NewRedisStore(ctx, cfg.Cache)
		if err != nil {
			logger.WithError(err).Warn("Redis unavailable, classifier cache is memory only")
		} else {
			app.store = store
			app.HealthCheckers["redis"] = store
		}
	}

	classifiers := make([]domain.TextClassifier, 0, len(cfg.Ensemble.Models))
	var timeout time.Duration
	for _, model := range cfg.Ensemble.Models {
		classifier, err := app.remoteClassifier(model, cfg.Cache)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("failed to create classifier %s: %w", model.ID, err)
		}
		classifiers = append(classifiers, classifier)
		if model.Timeout > timeout {
			timeout = model.Timeout
		}
	}

	ensemble := service.NewEnsembleAggregator(logger, classifiers, service.EnsembleOptions{
		Weights:        cfg.Ensemble.Weights(),
		Policy:         cfg.Ensemble.AggregationPolicy,
		Timeout:        timeout,
		MaxConcurrency: cfg.Ensemble.MaxConcurrency,
	})

	collaborators, err := app.collaborators(cfg)
	if err != nil {
		app.Close()
		return nil, err
	}

	app.Assessor = service.NewAssessmentService(logger, ensemble, collaborators, service.AssessmentOptions{
		OverrideThreshold: cfg.Ensemble.OverrideThreshold,
		ConflictMode:      service.ConflictMode(cfg.Conflict.Mode),
		MaxFreeTextWords:  cfg.FreeText.MaxWords,
		FreeTextTimeout:   cfg.FreeText.Timeout,
	})

	logger.WithFields(logrus.Fields{
		"models":         ensemble.ModelIDs(),
		"policy":         cfg.Ensemble.AggregationPolicy,
		"free_text_mode": cfg.FreeText.Mode,
		"extractor":      cfg.Extractor.Enabled,
		"summarizer":     cfg.Summarizer.Enabled,
		"shared_cache":   app.store != nil,
	}).Info("Assessment engine initialized")

	return app, nil
}

// remoteClassifier stacks breaker and cache around one inference endpoint
func (a *Application) remoteClassifier(model domain.ModelConfig, cacheConfig domain.CacheConfig) (domain.TextClassifier, error) {
	resilient := external.NewResilientClassifier(external.NewHFClassifierClient(model), external.DefaultCircuitBreakerConfig(), a.logger)
	a.HealthCheckers["classifier:"+model.ID] = breakerHealth{breaker: resilient}

	if !cacheConfig.Enabled {
		return resilient, nil
	}
	var store external.ResultStore
	if a.store != nil {
		store = a.store
	}
	return external.NewCachedClassifier(resilient, cacheConfig, store, a.logger)
}

func (a *Application) collaborators(cfg *domain.Config) (service.Collaborators, error) {
	var c service.Collaborators

	switch cfg.FreeText.Mode {
	case "remote":
		classifier, err := a.remoteClassifier(domain.ModelConfig{
			ID:        FreeTextModelID,
			Endpoint:  cfg.FreeText.Endpoint,
			APIKey:    cfg.FreeText.APIKey,
			Timeout:   cfg.FreeText.Timeout,
			RateLimit: cfg.FreeText.RateLimit,
		}, cfg.Cache)
		if err != nil {
			return c, fmt.Errorf("failed to create free-text classifier: %w", err)
		}
		c.FreeText = classifier
	default:
		c.FreeText = service.NewKeywordClassifier()
	}

	var text domain.DocumentExtractor
	if cfg.Extractor.Enabled {
		text = external.NewLLMDocumentExtractor(cfg.Extractor, a.logger)
	}
	c.Extractor = external.NewDocumentRouter(external.NewSpreadsheetExtractor(a.logger), text)
	if cfg.Summarizer.Enabled {
		c.Summarizer = external.NewLLMSummarizer(cfg.Summarizer, service.RenderMarkdown, a.logger)
	}
	return c, nil
}

// Close releases the shared cache connection
func (a *Application) Close() error {
	if a.store != nil {
		return a.store.Close()
	}
	return nil
}

// breakerHealth reports an open breaker as unhealthy
type breakerHealth struct {
	breaker *external.ResilientClassifier
}

func (b breakerHealth) Ping(context.Context) error {
	if state := b.breaker.State(); state == gobreaker.StateOpen {
		return fmt.Errorf("circuit breaker %s", state)
	}
	return nil
}
