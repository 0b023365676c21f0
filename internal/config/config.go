package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/cardio-risk-mcp-server/internal/domain"
)

const envPrefix = "CARDIO_RISK"

// Manager implements the ConfigManager interface using Viper
type Manager struct {
	v          *viper.Viper
	configFile string
	config     *domain.Config
}

// NewManager creates a new configuration manager. An empty configFile searches the
// default locations for config.yaml.
func NewManager(configFile string) (*Manager, error) {
	m := &Manager{configFile: configFile}
	if err := m.loadConfig(); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return m, nil
}

// loadConfig loads configuration from various sources
func (m *Manager) loadConfig() error {
	// A missing .env is normal outside local development
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("error loading .env file: %w", err)
	}

	v := viper.New()
	if m.configFile != "" {
		v.SetConfigFile(m.configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/cardio-risk/")
	}

	// Set environment variable prefix and enable automatic env binding
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// API keys also fall back to the variables the providers document
	_ = v.BindEnv("ensemble.api_key", envPrefix+"_ENSEMBLE_API_KEY", "HF_API_TOKEN")
	_ = v.BindEnv("free_text.api_key", envPrefix+"_FREE_TEXT_API_KEY", "HF_API_TOKEN")
	_ = v.BindEnv("extractor.api_key", envPrefix+"_EXTRACTOR_API_KEY", "OPENAI_API_KEY")
	_ = v.BindEnv("summarizer.api_key", envPrefix+"_SUMMARIZER_API_KEY", "OPENAI_API_KEY")

	setDefaults(v)

	// Read configuration file (optional - will use defaults and env vars if not found)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if m.configFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	config := &domain.Config{}
	if err := v.Unmarshal(config); err != nil {
		return fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Models without their own key share the ensemble key
	sharedKey := v.GetString("ensemble.api_key")
	for i := range config.Ensemble.Models {
		if config.Ensemble.Models[i].APIKey == "" {
			config.Ensemble.Models[i].APIKey = sharedKey
		}
	}

	m.v = v
	m.config = config
	return nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "90s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.request_timeout", "60s")
	v.SetDefault("server.tls_enabled", false)

	// Ensemble defaults
	v.SetDefault("ensemble.api_key", "")
	v.SetDefault("ensemble.models", []map[string]interface{}{
		{
			"id":         "biobert",
			"endpoint":   "https://api-inference.huggingface.co/models/dmis-lab/biobert-base-cased-v1.1",
			"timeout":    "30s",
			"rate_limit": 5,
		},
		{
			"id":         "pubmedbert",
			"endpoint":   "https://api-inference.huggingface.co/models/microsoft/BiomedNLP-PubMedBERT-base-uncased-abstract",
			"timeout":    "30s",
			"rate_limit": 5,
		},
		{
			"id":         "clinicalbert",
			"endpoint":   "https://api-inference.huggingface.co/models/emilyalsentzer/Bio_ClinicalBERT",
			"timeout":    "30s",
			"rate_limit": 5,
		},
	})
	v.SetDefault("ensemble.aggregation_policy", string(domain.DIVIDE_BY_MODEL_COUNT))
	v.SetDefault("ensemble.override_threshold", 4)
	v.SetDefault("ensemble.max_concurrency", 4)

	// Free-text defaults
	v.SetDefault("free_text.mode", "keyword")
	v.SetDefault("free_text.endpoint", "")
	v.SetDefault("free_text.api_key", "")
	v.SetDefault("free_text.timeout", "30s")
	v.SetDefault("free_text.rate_limit", 5)
	v.SetDefault("free_text.max_words", 500)

	// Chat completion collaborators
	for _, section := range []string{"extractor", "summarizer"} {
		v.SetDefault(section+".enabled", false)
		v.SetDefault(section+".base_url", "https://api.openai.com/v1")
		v.SetDefault(section+".api_key", "")
		v.SetDefault(section+".model", "gpt-4")
		v.SetDefault(section+".timeout", "60s")
		v.SetDefault(section+".rate_limit", 2)
	}

	v.SetDefault("conflict.mode", "enum")

	// Cache defaults
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.max_items", 1000)
	v.SetDefault("cache.default_ttl", "1h")
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.pool_size", 10)
	v.SetDefault("cache.pool_timeout", "4s")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")

	// MCP defaults
	v.SetDefault("mcp.server_name", "cardio-risk-mcp-server")
	v.SetDefault("mcp.server_version", "1.0.0")
	v.SetDefault("mcp.request_timeout", "90s")
}

// GetConfig returns the complete configuration
func (m *Manager) GetConfig() *domain.Config {
	return m.config
}

// GetServerConfig returns server configuration
func (m *Manager) GetServerConfig() *domain.ServerConfig {
	return &m.config.Server
}

// GetEnsembleConfig returns the classifier ensemble configuration
func (m *Manager) GetEnsembleConfig() *domain.EnsembleConfig {
	return &m.config.Ensemble
}

// Reload reloads the configuration
func (m *Manager) Reload() error {
	return m.loadConfig()
}

// Validate validates the configuration
func (m *Manager) Validate() error {
	config := m.config

	// Validate server configuration
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}
	if config.Server.TLSEnabled && (config.Server.CertFile == "" || config.Server.KeyFile == "") {
		return fmt.Errorf("TLS requires cert_file and key_file")
	}

	if err := validateEnsemble(config.Ensemble); err != nil {
		return err
	}

	// Validate free-text configuration
	switch config.FreeText.Mode {
	case "keyword":
	case "remote":
		if config.FreeText.Endpoint == "" {
			return fmt.Errorf("free_text endpoint is required in remote mode")
		}
	default:
		return fmt.Errorf("invalid free_text mode: %s", config.FreeText.Mode)
	}
	if config.FreeText.MaxWords < 1 {
		return fmt.Errorf("free_text max_words must be at least 1, got %d", config.FreeText.MaxWords)
	}

	if config.Extractor.Enabled && config.Extractor.BaseURL == "" {
		return fmt.Errorf("extractor base URL is required when the extractor is enabled")
	}
	if config.Summarizer.Enabled && config.Summarizer.BaseURL == "" {
		return fmt.Errorf("summarizer base URL is required when the summarizer is enabled")
	}

	if config.Conflict.Mode != "enum" && config.Conflict.Mode != "text" {
		return fmt.Errorf("invalid conflict mode: %s", config.Conflict.Mode)
	}

	if config.Cache.Enabled && config.Cache.MaxItems < 1 {
		return fmt.Errorf("cache max_items must be at least 1, got %d", config.Cache.MaxItems)
	}

	// Validate logging configuration
	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(config.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", config.Logging.Level)
	}
	if config.Logging.Format != "json" && config.Logging.Format != "text" {
		return fmt.Errorf("invalid log format: %s", config.Logging.Format)
	}

	return nil
}

func validateEnsemble(ensemble domain.EnsembleConfig) error {
	if len(ensemble.Models) == 0 {
		return fmt.Errorf("at least one ensemble model is required")
	}
	seen := make(map[string]bool, len(ensemble.Models))
	for i, model := range ensemble.Models {
		if model.ID == "" {
			return fmt.Errorf("ensemble model %d has no id", i)
		}
		if seen[model.ID] {
			return fmt.Errorf("duplicate ensemble model id: %s", model.ID)
		}
		seen[model.ID] = true
		if model.Endpoint == "" {
			return fmt.Errorf("ensemble model %s has no endpoint", model.ID)
		}
		if model.Weight != nil && *model.Weight < 0 {
			return fmt.Errorf("ensemble model %s has a negative weight", model.ID)
		}
	}
	if !ensemble.AggregationPolicy.IsValid() {
		return fmt.Errorf("%w: %s", domain.ErrInvalidPolicy, ensemble.AggregationPolicy)
	}
	if ensemble.OverrideThreshold < 1 {
		return fmt.Errorf("override threshold must be at least 1, got %d", ensemble.OverrideThreshold)
	}
	return nil
}

// IsProduction returns true if running in production mode
func (m *Manager) IsProduction() bool {
	return strings.ToLower(m.v.GetString("environment")) == "production"
}

// IsDevelopment returns true if running in development mode
func (m *Manager) IsDevelopment() bool {
	env := strings.ToLower(m.v.GetString("environment"))
	return env == "development" || env == "dev" || env == ""
}
