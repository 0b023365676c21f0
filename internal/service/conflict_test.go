package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cardio-risk-mcp-server/internal/domain"
)

func TestDetectConflict(t *testing.T) {
	tests := []struct {
		structured, freeText string
		want                 bool
	}{
		{"Low Risk", "High Risk", true},
		{"High Risk", "Low Risk", true},
		{"低风险", "高风险", true},
		{"High Risk", "低风险", true},
		{"Low Risk", "Moderate Risk", false},
		{"High Risk", "High Risk", false},
		{"low risk", "high risk", false},
		{"", "", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DetectConflict(tt.structured, tt.freeText), "%q vs %q", tt.structured, tt.freeText)
	}
}

func TestCheckConflict(t *testing.T) {
	for _, mode := range []ConflictMode{ConflictModeEnum, ConflictModeText} {
		for _, lang := range []domain.Language{domain.LANG_ZH, domain.LANG_EN} {
			assert.True(t, CheckConflict(mode, domain.RISK_LOW, domain.RISK_HIGH, lang).Detected, "%s/%s", mode, lang)
			assert.True(t, CheckConflict(mode, domain.RISK_HIGH, domain.RISK_LOW, lang).Detected, "%s/%s", mode, lang)
			assert.False(t, CheckConflict(mode, domain.RISK_MODERATE, domain.RISK_HIGH, lang).Detected, "%s/%s", mode, lang)
			assert.False(t, CheckConflict(mode, domain.RISK_LOW, domain.RISK_LOW, lang).Detected, "%s/%s", mode, lang)
		}
	}

	result := CheckConflict(ConflictModeEnum, domain.RISK_LOW, domain.RISK_HIGH, domain.LANG_EN)
	assert.Equal(t, domain.RISK_LOW, result.StructuredLevel)
	assert.Equal(t, domain.RISK_HIGH, result.FreeTextLevel)
}
