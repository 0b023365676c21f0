package logging

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type contextKey string

const correlationKey contextKey = "correlation_id"

// Operation types
const (
	OperationToolCall    = "tool_call"
	OperationHTTPRequest = "http_request"
)

// WithCorrelation creates a new context with correlation ID
func WithCorrelation(ctx context.Context, correlationID string) context.Context {
	return context.WithValue(ctx, correlationKey, correlationID)
}

// CorrelationID extracts the correlation ID from ctx, or returns "" when there is none
func CorrelationID(ctx context.Context) string {
	if id, ok := ctx.Value(correlationKey).(string); ok {
		return id
	}
	return ""
}

// Operation is one tracked tool call or request
type Operation struct {
	ID            string
	CorrelationID string
	Type          string
	Name          string
	StartTime     time.Time

	logger *logrus.Logger
}

// StartOperation begins tracking an operation. A correlation ID is created when ctx
// carries none; the returned context carries it.
func StartOperation(ctx context.Context, logger *logrus.Logger, operationType, name string, params map[string]interface{}) (context.Context, *Operation) {
	correlationID := CorrelationID(ctx)
	if correlationID == "" {
		correlationID = uuid.New().String()
		ctx = WithCorrelation(ctx, correlationID)
	}

	op := &Operation{
		ID:            uuid.New().String(),
		CorrelationID: correlationID,
		Type:          operationType,
		Name:          name,
		StartTime:     time.Now(),
		logger:        logger,
	}

	logger.WithFields(logrus.Fields{
		"correlation_id":  correlationID,
		"operation_id":    op.ID,
		"operation_type":  operationType,
		"operation_name":  name,
		"parameter_count": len(params),
	}).Info("Operation started")

	if len(params) > 0 {
		logger.WithFields(logrus.Fields(SanitizeParameters(params))).
			WithField("operation_id", op.ID).
			Debug("Operation parameters")
	}

	return ctx, op
}

// End logs the outcome and duration of the operation
func (op *Operation) End(err error) time.Duration {
	duration := time.Since(op.StartTime)
	entry := op.logger.WithFields(logrus.Fields{
		"correlation_id": op.CorrelationID,
		"operation_id":   op.ID,
		"operation_name": op.Name,
		"success":        err == nil,
		"duration":       duration.String(),
	})
	if err != nil {
		entry.WithError(err).Error("Operation failed")
	} else {
		entry.Info("Operation completed")
	}
	return duration
}

// Sensitive key fragments. Patient answers and credentials never reach the log verbatim.
var sensitivePatterns = []string{
	"password", "token", "secret", "key", "auth",
	"patient", "symptom", "history", "lab", "free_text", "document", "content",
}

// SanitizeParameters redacts sensitive fields and truncates long values
func SanitizeParameters(params map[string]interface{}) map[string]interface{} {
	sanitized := make(map[string]interface{}, len(params))
	for k, v := range params {
		sanitized[k] = sanitizeField(k, v)
	}
	return sanitized
}

func sanitizeField(key string, value interface{}) interface{} {
	lowerKey := strings.ToLower(key)
	for _, pattern := range sensitivePatterns {
		if strings.Contains(lowerKey, pattern) {
			return "[REDACTED]"
		}
	}

	if str, ok := value.(string); ok && len(str) > 1000 {
		return str[:1000] + "... [TRUNCATED]"
	}
	return value
}
