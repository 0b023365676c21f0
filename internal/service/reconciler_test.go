package service

import (
	"testing"

	"github.com/cardio-risk-mcp-server/internal/domain"
)

func TestReconcile(t *testing.T) {
	low := domain.RiskPtr(domain.RISK_LOW)
	high := domain.RiskPtr(domain.RISK_HIGH)

	tests := []struct {
		name      string
		score     int
		ruleRisk  domain.RiskLevel
		ensemble  *domain.RiskLevel
		threshold int
		want      domain.RiskLevel
		source    domain.VerdictSource
	}{
		{"rule override beats a confident ensemble", 5, domain.RISK_HIGH, low, 4, domain.RISK_HIGH, domain.SOURCE_RULE_OVERRIDE},
		{"override at exactly the threshold", 4, domain.RISK_HIGH, low, 4, domain.RISK_HIGH, domain.SOURCE_RULE_OVERRIDE},
		{"ensemble decides below the threshold", 2, domain.RISK_MODERATE, high, 4, domain.RISK_HIGH, domain.SOURCE_ENSEMBLE},
		{"rule fallback without ensemble", 2, domain.RISK_MODERATE, nil, 4, domain.RISK_MODERATE, domain.SOURCE_RULE_FALLBACK},
		{"zero threshold uses the default", 4, domain.RISK_HIGH, low, 0, domain.RISK_HIGH, domain.SOURCE_RULE_OVERRIDE},
		{"custom threshold", 4, domain.RISK_HIGH, low, 6, domain.RISK_LOW, domain.SOURCE_ENSEMBLE},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Reconcile(tt.score, tt.ruleRisk, tt.ensemble, tt.threshold)
			if got.RiskLevel != tt.want {
				t.Errorf("RiskLevel = %s, want %s", got.RiskLevel, tt.want)
			}
			if got.Source != tt.source {
				t.Errorf("Source = %s, want %s", got.Source, tt.source)
			}
			if got.SeverityScore != tt.score {
				t.Errorf("SeverityScore = %d, want %d", got.SeverityScore, tt.score)
			}
		})
	}
}
