package domain

import (
	"time"
)

// Config represents the main application configuration
type Config struct {
	Environment string          `mapstructure:"environment"`
	Server      ServerConfig    `mapstructure:"server"`
	Ensemble    EnsembleConfig  `mapstructure:"ensemble"`
	FreeText    FreeTextConfig  `mapstructure:"free_text"`
	Extractor   LLMClientConfig `mapstructure:"extractor"`
	Summarizer  LLMClientConfig `mapstructure:"summarizer"`
	Conflict    ConflictConfig  `mapstructure:"conflict"`
	Cache       CacheConfig     `mapstructure:"cache"`
	Logging     LoggingConfig   `mapstructure:"logging"`
	MCP         MCPConfig       `mapstructure:"mcp"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	TLSEnabled     bool          `mapstructure:"tls_enabled"`
	CertFile       string        `mapstructure:"cert_file"`
	KeyFile        string        `mapstructure:"key_file"`
}

// ModelConfig configures one remote text classifier of the ensemble.
type ModelConfig struct {
	ID        string        `mapstructure:"id"`
	Endpoint  string        `mapstructure:"endpoint"`
	APIKey    string        `mapstructure:"api_key"`
	Weight    *float64      `mapstructure:"weight"`
	Timeout   time.Duration `mapstructure:"timeout"`
	RateLimit int           `mapstructure:"rate_limit"`
}

// EnsembleConfig represents the classifier ensemble and reconciliation policy
type EnsembleConfig struct {
	Models            []ModelConfig     `mapstructure:"models"`
	AggregationPolicy AggregationPolicy `mapstructure:"aggregation_policy"`
	OverrideThreshold int               `mapstructure:"override_threshold"`
	MaxConcurrency    int               `mapstructure:"max_concurrency"`
}

// Weights returns the configured per-model weights. Models without a weight are left out
// so that the aggregator applies its default.
func (c EnsembleConfig) Weights() map[string]float64 {
	w := make(map[string]float64, len(c.Models))
	for _, m := range c.Models {
		if m.Weight != nil {
			w[m.ID] = *m.Weight
		}
	}
	return w
}

// FreeTextConfig represents the free-text classifier used by the conflict check
type FreeTextConfig struct {
	Mode      string        `mapstructure:"mode"` // "keyword", "remote"
	Endpoint  string        `mapstructure:"endpoint"`
	APIKey    string        `mapstructure:"api_key"`
	Timeout   time.Duration `mapstructure:"timeout"`
	RateLimit int           `mapstructure:"rate_limit"`
	MaxWords  int           `mapstructure:"max_words"`
}

// LLMClientConfig represents an OpenAI-compatible chat completion collaborator
type LLMClientConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	BaseURL   string        `mapstructure:"base_url"`
	APIKey    string        `mapstructure:"api_key"`
	Model     string        `mapstructure:"model"`
	Timeout   time.Duration `mapstructure:"timeout"`
	RateLimit int           `mapstructure:"rate_limit"`
}

// ConflictConfig selects how structured and free-text verdicts are compared
type ConflictConfig struct {
	Mode string `mapstructure:"mode"` // "enum", "text"
}

// CacheConfig represents classifier result cache configuration
type CacheConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	MaxItems    int           `mapstructure:"max_items"`
	DefaultTTL  time.Duration `mapstructure:"default_ttl"`
	RedisURL    string        `mapstructure:"redis_url"`
	PoolSize    int           `mapstructure:"pool_size"`
	PoolTimeout time.Duration `mapstructure:"pool_timeout"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// MCPConfig represents MCP server configuration
type MCPConfig struct {
	ServerName     string        `mapstructure:"server_name"`
	ServerVersion  string        `mapstructure:"server_version"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}
