package service

import (
	"github.com/cardio-risk-mcp-server/internal/domain"
)

// DefaultOverrideThreshold is the rule score from which the rule verdict wins outright.
const DefaultOverrideThreshold = 4

// Reconcile merges the rule verdict and the ensemble verdict. A rule score at or above
// threshold forces the rule risk level. Otherwise the ensemble decides, and when the
// ensemble is unavailable the rule risk level is used as a fallback.
func Reconcile(ruleScore int, ruleRisk domain.RiskLevel, ensemble *domain.RiskLevel, threshold int) domain.FinalVerdict {
	if threshold <= 0 {
		threshold = DefaultOverrideThreshold
	}
	switch {
	case ruleScore >= threshold:
		return domain.FinalVerdict{RiskLevel: ruleRisk, Source: domain.SOURCE_RULE_OVERRIDE, SeverityScore: ruleScore}
	case ensemble != nil:
		return domain.FinalVerdict{RiskLevel: *ensemble, Source: domain.SOURCE_ENSEMBLE, SeverityScore: ruleScore}
	default:
		return domain.FinalVerdict{RiskLevel: ruleRisk, Source: domain.SOURCE_RULE_FALLBACK, SeverityScore: ruleScore}
	}
}
