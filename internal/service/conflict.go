package service

import (
	"strings"

	"github.com/cardio-risk-mcp-server/internal/domain"
	"github.com/cardio-risk-mcp-server/internal/locale"
)

// ConflictMode selects how structured and free-text verdicts are compared.
type ConflictMode string

const (
	// ConflictModeEnum compares risk levels directly.
	ConflictModeEnum ConflictMode = "enum"
	// ConflictModeText searches rendered labels for the low and high risk markers.
	ConflictModeText ConflictMode = "text"
)

// Rendered markers, English and Chinese.
var (
	lowRiskMarkers  = []string{"Low Risk", "低风险"}
	highRiskMarkers = []string{"High Risk", "高风险"}
)

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

// DetectConflict reports whether one text carries the low risk marker and the other the
// high risk marker. Wording changes produce false negatives.
func DetectConflict(structuredVerdictText, freeTextVerdictText string) bool {
	return (containsAny(structuredVerdictText, lowRiskMarkers) && containsAny(freeTextVerdictText, highRiskMarkers)) ||
		(containsAny(structuredVerdictText, highRiskMarkers) && containsAny(freeTextVerdictText, lowRiskMarkers))
}

// DetectLevelConflict reports whether the two levels are the opposite extremes. Moderate
// never conflicts.
func DetectLevelConflict(structured, freeText domain.RiskLevel) bool {
	return (structured == domain.RISK_LOW && freeText == domain.RISK_HIGH) ||
		(structured == domain.RISK_HIGH && freeText == domain.RISK_LOW)
}

// CheckConflict compares the final verdict with the free-text verdict using mode. The
// text mode renders both levels in lang first.
func CheckConflict(mode ConflictMode, structured, freeText domain.RiskLevel, lang domain.Language) *domain.ConflictResult {
	var detected bool
	if mode == ConflictModeText {
		detected = DetectConflict(locale.RiskLabel(structured, lang), locale.RiskLabel(freeText, lang))
	} else {
		detected = DetectLevelConflict(structured, freeText)
	}
	return &domain.ConflictResult{
		Detected:        detected,
		StructuredLevel: structured,
		FreeTextLevel:   freeText,
	}
}
