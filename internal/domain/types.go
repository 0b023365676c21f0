// Package domain contains the core entities of the cardiovascular risk assessment engine:
// the canonical evidence record, rule findings, model opinions and verdicts.
//
// Everything in this package is language independent. Localized strings live in the
// locale package and are looked up by the identifiers declared here.
package domain

import (
	"errors"
)

// RiskLevel is the three-tier cardiovascular risk classification.
type RiskLevel string

const (
	RISK_LOW      RiskLevel = "LOW"
	RISK_MODERATE RiskLevel = "MODERATE"
	RISK_HIGH     RiskLevel = "HIGH"
)

// RiskLevels lists every risk level in ascending severity. Distributions are always
// iterated in this order.
var RiskLevels = []RiskLevel{RISK_LOW, RISK_MODERATE, RISK_HIGH}

// Language selects presentation only. It never changes evidence or verdicts.
type Language string

const (
	LANG_ZH Language = "zh"
	LANG_EN Language = "en"
)

// Sex is used by the Framingham points table.
type Sex string

const (
	SEX_MALE   Sex = "MALE"
	SEX_FEMALE Sex = "FEMALE"
)

// SymptomKey enumerates the questionnaire symptom answers.
type SymptomKey string

const (
	CHEST_PAIN_ON_EXERTION        SymptomKey = "CHEST_PAIN_ON_EXERTION"
	PRESSING_OR_TIGHTENING        SymptomKey = "PRESSING_OR_TIGHTENING"
	LASTS_OVER_5_MIN              SymptomKey = "LASTS_OVER_5_MIN"
	RADIATES_TO_SHOULDER_BACK_JAW SymptomKey = "RADIATES_TO_SHOULDER_BACK_JAW"
	RELIEVED_BY_REST              SymptomKey = "RELIEVED_BY_REST"
	COLD_SWEAT                    SymptomKey = "COLD_SWEAT"
	DYSPNEA                       SymptomKey = "DYSPNEA"
	NAUSEA_OR_VOMITING            SymptomKey = "NAUSEA_OR_VOMITING"
	DIZZINESS_OR_FAINTING         SymptomKey = "DIZZINESS_OR_FAINTING"
	PALPITATIONS                  SymptomKey = "PALPITATIONS"
)

// SymptomKeys is the questionnaire order of symptom questions.
var SymptomKeys = []SymptomKey{
	CHEST_PAIN_ON_EXERTION,
	PRESSING_OR_TIGHTENING,
	LASTS_OVER_5_MIN,
	RADIATES_TO_SHOULDER_BACK_JAW,
	RELIEVED_BY_REST,
	COLD_SWEAT,
	DYSPNEA,
	NAUSEA_OR_VOMITING,
	DIZZINESS_OR_FAINTING,
	PALPITATIONS,
}

// HistoryKey enumerates the medical history answers.
type HistoryKey string

const (
	HYPERTENSION_HISTORY      HistoryKey = "HYPERTENSION_HISTORY"
	DIABETES                  HistoryKey = "DIABETES"
	HYPERLIPIDEMIA_HISTORY    HistoryKey = "HYPERLIPIDEMIA_HISTORY"
	SMOKER                    HistoryKey = "SMOKER"
	FAMILY_HISTORY_CAD        HistoryKey = "FAMILY_HISTORY_CAD"
	RECENT_STRESS             HistoryKey = "RECENT_STRESS"
	ON_HYPERTENSION_TREATMENT HistoryKey = "ON_HYPERTENSION_TREATMENT"
)

// HistoryKeys is the questionnaire order of history questions.
var HistoryKeys = []HistoryKey{
	HYPERTENSION_HISTORY,
	DIABETES,
	HYPERLIPIDEMIA_HISTORY,
	SMOKER,
	FAMILY_HISTORY_CAD,
	RECENT_STRESS,
	ON_HYPERTENSION_TREATMENT,
}

// LabKey enumerates laboratory and vital parameters. The unit of each key is fixed
// and returned by Unit.
type LabKey string

const (
	SYSTOLIC_BP       LabKey = "SYSTOLIC_BP"
	DIASTOLIC_BP      LabKey = "DIASTOLIC_BP"
	LDL               LabKey = "LDL"
	HDL               LabKey = "HDL"
	TOTAL_CHOLESTEROL LabKey = "TOTAL_CHOLESTEROL"
	TRIGLYCERIDES     LabKey = "TRIGLYCERIDES"
	TROPONIN          LabKey = "TROPONIN"
	CK_MB             LabKey = "CK_MB"
	FASTING_GLUCOSE   LabKey = "FASTING_GLUCOSE"
	HBA1C             LabKey = "HBA1C"
	BMI               LabKey = "BMI"
	AGE               LabKey = "AGE"
)

// LabKeys is the questionnaire order of lab parameters.
var LabKeys = []LabKey{
	SYSTOLIC_BP,
	DIASTOLIC_BP,
	LDL,
	HDL,
	TOTAL_CHOLESTEROL,
	TRIGLYCERIDES,
	TROPONIN,
	CK_MB,
	FASTING_GLUCOSE,
	HBA1C,
	BMI,
	AGE,
}

var labUnits = map[LabKey]string{
	SYSTOLIC_BP:       "mmHg",
	DIASTOLIC_BP:      "mmHg",
	LDL:               "mg/dL",
	HDL:               "mg/dL",
	TOTAL_CHOLESTEROL: "mg/dL",
	TRIGLYCERIDES:     "mg/dL",
	TROPONIN:          "ng/mL",
	CK_MB:             "ng/mL",
	FASTING_GLUCOSE:   "mmol/L",
	HBA1C:             "%",
	BMI:               "kg/m2",
	AGE:               "years",
}

// SeverityTag grades a finding.
type SeverityTag string

const (
	SEVERITY_NONE      SeverityTag = "none"
	SEVERITY_MILD      SeverityTag = "mild"
	SEVERITY_MODERATE  SeverityTag = "moderate"
	SEVERITY_SEVERE    SeverityTag = "severe"
	SEVERITY_EMERGENCY SeverityTag = "emergency"
)

// ConditionID identifies a rule-triggered condition hypothesis.
type ConditionID string

const (
	COND_HYPERTENSION          ConditionID = "HYPERTENSION"
	COND_CORONARY_ARTERY       ConditionID = "CORONARY_ARTERY_DISEASE"
	COND_MYOCARDIAL_INFARCTION ConditionID = "MYOCARDIAL_INFARCTION"
	COND_HYPERLIPIDEMIA        ConditionID = "HYPERLIPIDEMIA"
	COND_HEART_FAILURE         ConditionID = "HEART_FAILURE"
	COND_DIABETES              ConditionID = "DIABETES"
	COND_OBESITY               ConditionID = "OBESITY"
	COND_ARRHYTHMIA            ConditionID = "ARRHYTHMIA"
	COND_SUSPECTED_MYOCARDITIS ConditionID = "SUSPECTED_MYOCARDITIS"
	COND_FRAMINGHAM_RISK       ConditionID = "FRAMINGHAM_RISK"
	COND_NO_SIGNIFICANT_RISK   ConditionID = "NO_SIGNIFICANT_RISK"
)

// RecommendationID identifies a localized recommendation text.
type RecommendationID string

const (
	REC_EMERGENCY_CARE          RecommendationID = "EMERGENCY_CARE"
	REC_BP_LIFESTYLE_AND_DOCTOR RecommendationID = "BP_LIFESTYLE_AND_DOCTOR"
	REC_BP_MONITORING           RecommendationID = "BP_MONITORING"
	REC_CARDIAC_CHECKUP         RecommendationID = "CARDIAC_CHECKUP"
	REC_LOW_FAT_DIET            RecommendationID = "LOW_FAT_DIET"
	REC_GLYCEMIC_CONTROL        RecommendationID = "GLYCEMIC_CONTROL"
	REC_WEIGHT_MANAGEMENT       RecommendationID = "WEIGHT_MANAGEMENT"
	REC_ECG_CHECK               RecommendationID = "ECG_CHECK"
	REC_CARDIAC_IMAGING         RecommendationID = "CARDIAC_IMAGING"
	REC_RISK_FACTOR_CONTROL     RecommendationID = "RISK_FACTOR_CONTROL"
	REC_LIFESTYLE_MONITORING    RecommendationID = "LIFESTYLE_MONITORING"
	REC_ROUTINE_CHECKUP         RecommendationID = "ROUTINE_CHECKUP"
)

// VerdictSource records which branch of reconciliation produced the final verdict.
type VerdictSource string

const (
	SOURCE_RULE_OVERRIDE VerdictSource = "RULE_OVERRIDE"
	SOURCE_ENSEMBLE      VerdictSource = "ENSEMBLE"
	SOURCE_RULE_FALLBACK VerdictSource = "RULE_FALLBACK"
)

// AggregationPolicy selects the divisor of the weighted ensemble mean.
type AggregationPolicy string

const (
	DIVIDE_BY_MODEL_COUNT AggregationPolicy = "DIVIDE_BY_MODEL_COUNT"
	DIVIDE_BY_WEIGHT_SUM  AggregationPolicy = "DIVIDE_BY_WEIGHT_SUM"
)

// Enumeration errors
var (
	ErrInvalidRiskLevel = errors.New("invalid risk level")
	ErrUnknownLanguage  = errors.New("unknown language")
	ErrInvalidPolicy    = errors.New("invalid aggregation policy")
)

// IsValid reports whether r is one of the three risk levels.
func (r RiskLevel) IsValid() bool {
	switch r {
	case RISK_LOW, RISK_MODERATE, RISK_HIGH:
		return true
	default:
		return false
	}
}

// String returns the string representation of the risk level.
func (r RiskLevel) String() string {
	return string(r)
}

// Severity orders risk levels: Low=0, Moderate=1, High=2, invalid=-1.
func (r RiskLevel) Severity() int {
	switch r {
	case RISK_LOW:
		return 0
	case RISK_MODERATE:
		return 1
	case RISK_HIGH:
		return 2
	default:
		return -1
	}
}

// LogFields returns structured logging fields for audit trails.
func (r RiskLevel) LogFields() map[string]any {
	return map[string]any{
		"risk_level": string(r),
		"severity":   r.Severity(),
		"is_valid":   r.IsValid(),
	}
}

// ParseRiskLevel converts a risk level name, case sensitive.
func ParseRiskLevel(s string) (RiskLevel, error) {
	r := RiskLevel(s)
	if !r.IsValid() {
		return "", ErrInvalidRiskLevel
	}
	return r, nil
}

// IsValid reports whether l is a supported presentation language.
func (l Language) IsValid() bool {
	return l == LANG_ZH || l == LANG_EN
}

func (l Language) String() string {
	return string(l)
}

// IsValid reports whether s is a known sex value.
func (s Sex) IsValid() bool {
	return s == SEX_MALE || s == SEX_FEMALE
}

// IsValid reports whether k is a known symptom key.
func (k SymptomKey) IsValid() bool {
	for _, s := range SymptomKeys {
		if s == k {
			return true
		}
	}
	return false
}

// IsValid reports whether k is a known history key.
func (k HistoryKey) IsValid() bool {
	for _, h := range HistoryKeys {
		if h == k {
			return true
		}
	}
	return false
}

// IsValid reports whether k is a known lab key.
func (k LabKey) IsValid() bool {
	_, ok := labUnits[k]
	return ok
}

// Unit returns the fixed unit of the lab key.
func (k LabKey) Unit() string {
	return labUnits[k]
}

// Rank orders severity tags from none (0) to emergency (4).
func (s SeverityTag) Rank() int {
	switch s {
	case SEVERITY_MILD:
		return 1
	case SEVERITY_MODERATE:
		return 2
	case SEVERITY_SEVERE:
		return 3
	case SEVERITY_EMERGENCY:
		return 4
	default:
		return 0
	}
}

// IsValid reports whether p is a supported aggregation policy.
func (p AggregationPolicy) IsValid() bool {
	return p == DIVIDE_BY_MODEL_COUNT || p == DIVIDE_BY_WEIGHT_SUM
}
