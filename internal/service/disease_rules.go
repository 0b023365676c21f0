package service

import (
	"github.com/sirupsen/logrus"

	"github.com/cardio-risk-mcp-server/internal/domain"
)

// Thresholds of the rule set. Units follow domain.LabKey.Unit.
const (
	troponinInjuryThreshold  = 0.04 // ng/mL
	troponinFailureThreshold = 0.1  // ng/mL
	fastingGlucoseDiabetes   = 7.0  // mmol/L
	hba1cDiabetes            = 6.5  // %
	obesityBMI               = 30.0

	// HEART-like score bands
	heartScoreHigh     = 4
	heartScoreModerate = 2

	// Framingham bands
	framinghamHigh         = 7
	framinghamIntermediate = 4
)

// DiseaseRule is one condition predicate. Evaluate returns ok=false when the rule does
// not fire; missing evidence always takes that branch.
type DiseaseRule struct {
	Condition   domain.ConditionID
	Description string
	Evaluate    func(r *domain.EvidenceRecord) (severity domain.SeverityTag, rec domain.RecommendationID, ok bool)
}

// DiseaseRuleEngine evaluates the ordered cardiovascular rule set.
type DiseaseRuleEngine struct {
	logger *logrus.Logger
	rules  []DiseaseRule
}

// NewDiseaseRuleEngine creates a rule engine with the standard rule order.
func NewDiseaseRuleEngine(logger *logrus.Logger) *DiseaseRuleEngine {
	engine := &DiseaseRuleEngine{logger: logger}
	engine.initializeRules()
	return engine
}

// Rules returns the rules in evaluation order.
func (e *DiseaseRuleEngine) Rules() []DiseaseRule {
	return e.rules
}

// Classify runs every rule in order and computes the HEART-like score. The findings list
// is never empty: when no rule fires it holds the single no-significant-risk finding.
func (e *DiseaseRuleEngine) Classify(record *domain.EvidenceRecord) domain.RuleOutcome {
	findings := make([]domain.DiseaseFinding, 0, len(e.rules))
	for _, rule := range e.rules {
		severity, rec, ok := rule.Evaluate(record)
		if !ok {
			continue
		}
		findings = append(findings, domain.DiseaseFinding{
			ConditionID:      rule.Condition,
			Severity:         severity,
			RecommendationID: rec,
		})
	}

	if len(findings) == 0 {
		findings = append(findings, domain.DiseaseFinding{
			ConditionID:      domain.COND_NO_SIGNIFICANT_RISK,
			Severity:         domain.SEVERITY_NONE,
			RecommendationID: domain.REC_ROUTINE_CHECKUP,
		})
	}

	score := HeartScore(record)
	outcome := domain.RuleOutcome{
		Findings:        findings,
		Score:           score,
		RuleRisk:        ScoreToRisk(score),
		FraminghamScore: FraminghamScore(record),
	}

	e.logger.WithFields(logrus.Fields{
		"findings":         len(findings),
		"rule_score":       outcome.Score,
		"rule_risk":        outcome.RuleRisk,
		"framingham_score": outcome.FraminghamScore,
	}).Debug("Completed disease rule evaluation")

	return outcome
}

// HeartScore accumulates the additive severity score.
func HeartScore(r *domain.EvidenceRecord) int {
	score := 0
	if r.HasHistory(domain.FAMILY_HISTORY_CAD) {
		score++
	}
	if r.HasHistory(domain.HYPERTENSION_HISTORY) {
		score++
	}
	if r.HasHistory(domain.DIABETES) {
		score++
	}
	if r.HasSymptom(domain.CHEST_PAIN_ON_EXERTION) {
		score += 2
	}
	if r.HasSymptom(domain.DYSPNEA) {
		score++
	}
	if r.LabOrZero(domain.TROPONIN) > troponinInjuryThreshold {
		score += 2
	}
	return score
}

// ScoreToRisk maps the HEART-like score: >=4 High, 2-3 Moderate, otherwise Low.
func ScoreToRisk(score int) domain.RiskLevel {
	switch {
	case score >= heartScoreHigh:
		return domain.RISK_HIGH
	case score >= heartScoreModerate:
		return domain.RISK_MODERATE
	default:
		return domain.RISK_LOW
	}
}

// FraminghamScore is a simplified sex-specific points table. Unknown sex scores as male.
func FraminghamScore(r *domain.EvidenceRecord) int {
	points := [5]int{3, 2, 2, 2, 1}
	if r.Sex == domain.SEX_FEMALE {
		points = [5]int{2, 2, 1, 1, 1}
	}
	score := 0
	if r.LabOrZero(domain.AGE) >= 50 {
		score += points[0]
	}
	if r.HasHistory(domain.SMOKER) {
		score += points[1]
	}
	if r.LabOrZero(domain.SYSTOLIC_BP) > 140 {
		score += points[2]
	}
	if r.LabOrZero(domain.TOTAL_CHOLESTEROL) > 200 {
		score += points[3]
	}
	if r.HasHistory(domain.ON_HYPERTENSION_TREATMENT) {
		score += points[4]
	}
	return score
}

func (e *DiseaseRuleEngine) initializeRules() {
	e.rules = []DiseaseRule{
		{
			Condition:   domain.COND_HYPERTENSION,
			Description: "Blood pressure tiers; only the first matching tier is reported",
			Evaluate:    evaluateHypertension,
		},
		{
			Condition:   domain.COND_CORONARY_ARTERY,
			Description: "Family history of heart disease or LDL > 130 mg/dL",
			Evaluate: func(r *domain.EvidenceRecord) (domain.SeverityTag, domain.RecommendationID, bool) {
				ok := r.HasHistory(domain.FAMILY_HISTORY_CAD) || r.LabOrZero(domain.LDL) > 130
				return domain.SEVERITY_MODERATE, domain.REC_CARDIAC_CHECKUP, ok
			},
		},
		{
			Condition:   domain.COND_MYOCARDIAL_INFARCTION,
			Description: "Exertional chest pain with troponin > 0.04 ng/mL",
			Evaluate: func(r *domain.EvidenceRecord) (domain.SeverityTag, domain.RecommendationID, bool) {
				ok := r.HasSymptom(domain.CHEST_PAIN_ON_EXERTION) && r.LabOrZero(domain.TROPONIN) > troponinInjuryThreshold
				return domain.SEVERITY_EMERGENCY, domain.REC_EMERGENCY_CARE, ok
			},
		},
		{
			Condition:   domain.COND_HYPERLIPIDEMIA,
			Description: "Total cholesterol > 200, LDL > 130 or triglycerides > 150 mg/dL",
			Evaluate: func(r *domain.EvidenceRecord) (domain.SeverityTag, domain.RecommendationID, bool) {
				ok := r.LabOrZero(domain.TOTAL_CHOLESTEROL) > 200 ||
					r.LabOrZero(domain.LDL) > 130 ||
					r.LabOrZero(domain.TRIGLYCERIDES) > 150
				return domain.SEVERITY_MILD, domain.REC_LOW_FAT_DIET, ok
			},
		},
		{
			Condition:   domain.COND_HEART_FAILURE,
			Description: "Dyspnea with troponin > 0.1 ng/mL",
			Evaluate: func(r *domain.EvidenceRecord) (domain.SeverityTag, domain.RecommendationID, bool) {
				ok := r.HasSymptom(domain.DYSPNEA) && r.LabOrZero(domain.TROPONIN) > troponinFailureThreshold
				return domain.SEVERITY_SEVERE, domain.REC_EMERGENCY_CARE, ok
			},
		},
		{
			Condition:   domain.COND_DIABETES,
			Description: "Diabetes history, fasting glucose >= 7.0 mmol/L or HbA1c >= 6.5%",
			Evaluate: func(r *domain.EvidenceRecord) (domain.SeverityTag, domain.RecommendationID, bool) {
				ok := r.HasHistory(domain.DIABETES) ||
					r.LabOrZero(domain.FASTING_GLUCOSE) >= fastingGlucoseDiabetes ||
					r.LabOrZero(domain.HBA1C) >= hba1cDiabetes
				return domain.SEVERITY_MODERATE, domain.REC_GLYCEMIC_CONTROL, ok
			},
		},
		{
			Condition:   domain.COND_OBESITY,
			Description: "BMI >= 30",
			Evaluate: func(r *domain.EvidenceRecord) (domain.SeverityTag, domain.RecommendationID, bool) {
				return domain.SEVERITY_MILD, domain.REC_WEIGHT_MANAGEMENT, r.LabOrZero(domain.BMI) >= obesityBMI
			},
		},
		{
			Condition:   domain.COND_ARRHYTHMIA,
			Description: "Palpitations",
			Evaluate: func(r *domain.EvidenceRecord) (domain.SeverityTag, domain.RecommendationID, bool) {
				return domain.SEVERITY_MODERATE, domain.REC_ECG_CHECK, r.HasSymptom(domain.PALPITATIONS)
			},
		},
		{
			Condition:   domain.COND_SUSPECTED_MYOCARDITIS,
			Description: "Troponin between 0.04 and 0.1 ng/mL with dyspnea",
			Evaluate: func(r *domain.EvidenceRecord) (domain.SeverityTag, domain.RecommendationID, bool) {
				t := r.LabOrZero(domain.TROPONIN)
				ok := t > troponinInjuryThreshold && t < troponinFailureThreshold && r.HasSymptom(domain.DYSPNEA)
				return domain.SEVERITY_SEVERE, domain.REC_CARDIAC_IMAGING, ok
			},
		},
		{
			Condition:   domain.COND_FRAMINGHAM_RISK,
			Description: "Simplified Framingham score; reported for intermediate and high bands",
			Evaluate: func(r *domain.EvidenceRecord) (domain.SeverityTag, domain.RecommendationID, bool) {
				switch score := FraminghamScore(r); {
				case score >= framinghamHigh:
					return domain.SEVERITY_SEVERE, domain.REC_RISK_FACTOR_CONTROL, true
				case score >= framinghamIntermediate:
					return domain.SEVERITY_MODERATE, domain.REC_LIFESTYLE_MONITORING, true
				default:
					return "", "", false
				}
			},
		},
	}
}

func evaluateHypertension(r *domain.EvidenceRecord) (domain.SeverityTag, domain.RecommendationID, bool) {
	sbp := r.LabOrZero(domain.SYSTOLIC_BP)
	dbp := r.LabOrZero(domain.DIASTOLIC_BP)
	switch {
	case sbp > 180 || dbp > 120:
		return domain.SEVERITY_EMERGENCY, domain.REC_EMERGENCY_CARE, true
	case sbp > 160 || dbp > 100:
		return domain.SEVERITY_MODERATE, domain.REC_BP_LIFESTYLE_AND_DOCTOR, true
	case sbp > 140 || dbp > 90:
		return domain.SEVERITY_MILD, domain.REC_BP_MONITORING, true
	default:
		return "", "", false
	}
}
