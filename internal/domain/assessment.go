package domain

import "time"

// DocumentInput is an uploaded lab report, already converted to text by the caller.
type DocumentInput struct {
	Filename string `json:"filename,omitempty" validate:"max=255"`
	Content  string `json:"content" validate:"required,max=200000"`
}

// AssessmentRequest is the external request shape of one evaluation.
type AssessmentRequest struct {
	Language string         `json:"language,omitempty" validate:"omitempty,max=16"`
	Symptoms map[string]any `json:"symptoms,omitempty"`
	History  map[string]any `json:"history,omitempty"`
	Sex      string         `json:"sex,omitempty" validate:"max=16"`
	Labs     map[string]any `json:"labs,omitempty"`
	FreeText string         `json:"free_text,omitempty" validate:"max=20000"`

	// Document is sent to the extraction collaborator. ExtractedValues bypasses it with
	// values a caller already extracted.
	Document        *DocumentInput    `json:"document,omitempty"`
	ExtractedValues map[string]string `json:"extracted_values,omitempty"`
}

// AssessmentResult is the full output of one evaluation.
type AssessmentResult struct {
	ID             string            `json:"id"`
	Record         *EvidenceRecord   `json:"evidence"`
	Outcome        RuleOutcome       `json:"rule_outcome"`
	Opinions       []ModelOpinion    `json:"model_opinions"`
	Weighted       WeightedVerdict   `json:"weighted_verdict"`
	Final          FinalVerdict      `json:"final_verdict"`
	FreeText       *ModelOpinion     `json:"free_text_opinion,omitempty"`
	Conflict       *ConflictResult   `json:"conflict,omitempty"`
	Report         *StructuredReport `json:"report"`
	Markdown       string            `json:"markdown"`
	ProcessingTime time.Duration     `json:"processing_time_ns"`
}

// LogFields returns structured logging fields for audit trails. Patient values are not
// included.
func (r *AssessmentResult) LogFields() map[string]any {
	ok, failed := 0, 0
	for _, o := range r.Opinions {
		if o.Failed() {
			failed++
		} else {
			ok++
		}
	}
	fields := r.Final.LogFields()
	fields["assessment_id"] = r.ID
	fields["models_ok"] = ok
	fields["models_failed"] = failed
	fields["findings"] = len(r.Outcome.Findings)
	fields["conflict"] = r.Conflict != nil && r.Conflict.Detected
	fields["processing_time"] = r.ProcessingTime
	if r.Record != nil {
		fields["language"] = string(r.Record.Language)
		fields["document_overrides"] = len(r.Record.Overrides)
	}
	return fields
}
