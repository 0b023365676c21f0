package domain

import (
	"context"
)

// TextClassifier is one black-box classification model. Classify returns the raw label
// scores; mapping labels to risk levels is the aggregator's job.
type TextClassifier interface {
	ID() string
	Classify(ctx context.Context, text string) ([]LabelScore, error)
}

// DocumentExtractor turns an uploaded lab report into lab-name to
// "value unit (reference range)" strings. Failures are carried in the result, never
// returned as an error.
type DocumentExtractor interface {
	Extract(ctx context.Context, doc *DocumentInput) *ExtractionResult
}

// Summarizer produces narrative prose from a finished report.
type Summarizer interface {
	Summarize(ctx context.Context, report *StructuredReport, lang Language) (string, error)
}

// ConfigManager defines the interface for configuration management
type ConfigManager interface {
	GetConfig() *Config
	GetServerConfig() *ServerConfig
	GetEnsembleConfig() *EnsembleConfig
	Reload() error
	Validate() error
	IsProduction() bool
	IsDevelopment() bool
}
