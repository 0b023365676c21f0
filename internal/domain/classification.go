package domain

import "time"

// DiseaseFinding is a rule-triggered condition hypothesis.
type DiseaseFinding struct {
	ConditionID      ConditionID      `json:"condition_id"`
	Severity         SeverityTag      `json:"severity"`
	RecommendationID RecommendationID `json:"recommendation_id"`
}

// RuleOutcome is the output of the rule-based classifier.
type RuleOutcome struct {
	Findings        []DiseaseFinding `json:"findings"`
	Score           int              `json:"score"`
	RuleRisk        RiskLevel        `json:"rule_risk"`
	FraminghamScore int              `json:"framingham_score"`
}

// MostSevere returns the highest severity among the findings, or SEVERITY_NONE.
func (o RuleOutcome) MostSevere() SeverityTag {
	most := SEVERITY_NONE
	for _, f := range o.Findings {
		if f.Severity.Rank() > most.Rank() {
			most = f.Severity
		}
	}
	return most
}

// ConditionIDs returns the finding identifiers in evaluation order.
func (o RuleOutcome) ConditionIDs() []ConditionID {
	ids := make([]ConditionID, 0, len(o.Findings))
	for _, f := range o.Findings {
		ids = append(ids, f.ConditionID)
	}
	return ids
}

// HasCondition reports whether a finding with the given id is present.
func (o RuleOutcome) HasCondition(id ConditionID) bool {
	for _, f := range o.Findings {
		if f.ConditionID == id {
			return true
		}
	}
	return false
}

// LabelScore is one entry of a text classifier response.
type LabelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// ModelOpinion is one classifier's view of the risk. A failed model carries Error and an
// empty distribution.
type ModelOpinion struct {
	ModelID      string                `json:"model_id"`
	Distribution map[RiskLevel]float64 `json:"distribution"`
	MostLikely   *RiskLevel            `json:"most_likely,omitempty"`
	Error        string                `json:"error,omitempty"`
	Latency      time.Duration         `json:"latency_ns"`
}

// Failed reports whether the model produced no usable opinion.
func (m ModelOpinion) Failed() bool {
	return m.Error != ""
}

// WeightedVerdict is the aggregated ensemble result. MostLikely is nil when no model
// succeeded, which means "ensemble unavailable", never "low risk".
type WeightedVerdict struct {
	MostLikely   *RiskLevel            `json:"most_likely"`
	Distribution map[RiskLevel]float64 `json:"distribution"`
	ModelsUsed   int                   `json:"models_used"`
	Policy       AggregationPolicy     `json:"policy"`
}

// Available reports whether the ensemble produced a verdict.
func (w WeightedVerdict) Available() bool {
	return w.MostLikely != nil
}

// Err returns ErrEnsembleUnavailable when the ensemble produced no verdict.
func (w WeightedVerdict) Err() error {
	if !w.Available() {
		return ErrEnsembleUnavailable
	}
	return nil
}

// FinalVerdict is the reconciled risk level of one evaluation.
type FinalVerdict struct {
	RiskLevel     RiskLevel     `json:"risk_level"`
	Source        VerdictSource `json:"source"`
	SeverityScore int           `json:"severity_score"`
}

// LogFields returns structured logging fields for audit trails.
func (f FinalVerdict) LogFields() map[string]any {
	return map[string]any{
		"final_risk":     string(f.RiskLevel),
		"verdict_source": string(f.Source),
		"rule_score":     f.SeverityScore,
	}
}

// ConflictResult is the advisory cross-check between structured and free-text verdicts.
type ConflictResult struct {
	Detected        bool      `json:"detected"`
	StructuredLevel RiskLevel `json:"structured_level"`
	FreeTextLevel   RiskLevel `json:"free_text_level"`
}

// RiskPtr returns a pointer to a copy of r.
func RiskPtr(r RiskLevel) *RiskLevel {
	return &r
}

// ZeroDistribution returns a distribution with every level set to 0.
func ZeroDistribution() map[RiskLevel]float64 {
	d := make(map[RiskLevel]float64, len(RiskLevels))
	for _, l := range RiskLevels {
		d[l] = 0
	}
	return d
}
