package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardio-risk-mcp-server/internal/domain"
)

func TestNewLogger(t *testing.T) {
	t.Run("json to stderr", func(t *testing.T) {
		logger, err := NewLogger(domain.LoggingConfig{Level: "warn", Format: "json", Output: "stderr"})
		require.NoError(t, err)
		assert.Equal(t, logrus.WarnLevel, logger.GetLevel())
		assert.IsType(t, &logrus.JSONFormatter{}, logger.Formatter)
		assert.Equal(t, os.Stderr, logger.Out)
	})

	t.Run("text to file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "server.log")
		logger, err := NewLogger(domain.LoggingConfig{Level: "info", Format: "text", Output: path})
		require.NoError(t, err)
		assert.IsType(t, &logrus.TextFormatter{}, logger.Formatter)

		logger.Info("hello")
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), "hello")
	})

	t.Run("invalid level", func(t *testing.T) {
		_, err := NewLogger(domain.LoggingConfig{Level: "loud"})
		assert.Error(t, err)
	})
}

func TestOperation_Lifecycle(t *testing.T) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)
	logger.SetFormatter(&logrus.JSONFormatter{})

	ctx, op := StartOperation(context.Background(), logger, OperationToolCall, "assess_cardiovascular_risk", map[string]interface{}{
		"language": "en",
	})
	assert.Equal(t, op.CorrelationID, CorrelationID(ctx))
	op.End(errors.New("boom"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var started, ended map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &started))
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &ended))
	assert.Equal(t, "Operation started", started["msg"])
	assert.Equal(t, "assess_cardiovascular_risk", started["operation_name"])
	assert.Equal(t, "Operation failed", ended["msg"])
	assert.Equal(t, false, ended["success"])
	assert.Equal(t, op.CorrelationID, ended["correlation_id"])
}

func TestStartOperation_KeepsExistingCorrelation(t *testing.T) {
	logger := logrus.New()
	logger.SetLevel(logrus.FatalLevel)

	ctx := WithCorrelation(context.Background(), "req-1")
	_, op := StartOperation(ctx, logger, OperationHTTPRequest, "/health", nil)
	assert.Equal(t, "req-1", op.CorrelationID)
}

func TestSanitizeParameters(t *testing.T) {
	long := strings.Repeat("x", 1200)
	got := SanitizeParameters(map[string]interface{}{
		"language":  "zh",
		"free_text": "胸口压榨样疼痛",
		"labs":      map[string]interface{}{"ldl": 160},
		"api_key":   "sk-123",
		"note":      long,
	})

	assert.Equal(t, "zh", got["language"])
	assert.Equal(t, "[REDACTED]", got["free_text"])
	assert.Equal(t, "[REDACTED]", got["labs"])
	assert.Equal(t, "[REDACTED]", got["api_key"])
	assert.True(t, strings.HasSuffix(got["note"].(string), "[TRUNCATED]"))
}
