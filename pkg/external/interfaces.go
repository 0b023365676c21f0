package external

import (
	"context"
	"sort"
	"time"

	"github.com/cardio-risk-mcp-server/internal/domain"
)

// ResultStore is a shared cache tier for classifier output
type ResultStore interface {
	Get(ctx context.Context, key string) ([]domain.LabelScore, bool, error)
	Set(ctx context.Context, key string, scores []domain.LabelScore, ttl time.Duration) error
}

// HealthChecker is implemented by dependencies that can report liveness
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// ServiceHealth represents the health status of an external dependency
type ServiceHealth struct {
	Service   string    `json:"service"`
	Healthy   bool      `json:"healthy"`
	LastCheck time.Time `json:"last_check"`
	Error     string    `json:"error,omitempty"`
}

// CheckHealth pings every named dependency, in name order
func CheckHealth(ctx context.Context, checkers map[string]HealthChecker) []ServiceHealth {
	names := make([]string, 0, len(checkers))
	for name := range checkers {
		names = append(names, name)
	}
	sort.Strings(names)

	health := make([]ServiceHealth, 0, len(checkers))
	for _, name := range names {
		h := ServiceHealth{Service: name, LastCheck: time.Now(), Healthy: true}
		if err := checkers[name].Ping(ctx); err != nil {
			h.Healthy = false
			h.Error = err.Error()
		}
		health = append(health, h)
	}
	return health
}
