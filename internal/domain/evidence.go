package domain

// RawAnswers is the caller-shaped input handed to the normalizer. Keys of Symptoms,
// History and Labs may be canonical identifiers or the localized questionnaire labels of
// Language. Values are whatever the caller decoded: bool, string, number or nil.
type RawAnswers struct {
	Language Language       `json:"language"`
	Symptoms map[string]any `json:"symptoms,omitempty"`
	History  map[string]any `json:"history,omitempty"`
	Sex      string         `json:"sex,omitempty"`
	Labs     map[string]any `json:"labs,omitempty"`
	FreeText string         `json:"free_text,omitempty"`
}

// ExtractionResult is the typed outcome of the document extraction collaborator. Exactly
// one of Values or Error is meaningful.
type ExtractionResult struct {
	Values map[string]string `json:"values,omitempty"`
	Error  string            `json:"error,omitempty"`
}

// OK reports whether extraction succeeded.
func (r *ExtractionResult) OK() bool {
	return r != nil && r.Error == ""
}

// NewExtractionFailure builds a failed extraction result.
func NewExtractionFailure(err error) *ExtractionResult {
	return &ExtractionResult{Error: err.Error()}
}

// OverrideTrace records one lab value replaced or contributed by an uploaded document.
// OriginalValue is nil when the structured input did not carry the lab.
type OverrideTrace struct {
	Key           LabKey   `json:"key"`
	DocumentValue float64  `json:"document_value"`
	OriginalValue *float64 `json:"original_value"`
}

// IsReplacement reports whether the document value replaced a structured value.
func (o OverrideTrace) IsReplacement() bool {
	return o.OriginalValue != nil
}

// EvidenceRecord is the canonical, language independent snapshot of one patient's input.
// Every symptom and history key is present; labs only carry values that were provided.
type EvidenceRecord struct {
	Symptoms        map[SymptomKey]bool `json:"symptoms"`
	History         map[HistoryKey]bool `json:"history"`
	Sex             Sex                 `json:"sex"`
	Labs            map[LabKey]float64  `json:"labs"`
	FreeText        string              `json:"free_text,omitempty"`
	Language        Language            `json:"language"`
	Overrides       []OverrideTrace     `json:"overrides,omitempty"`
	DocumentValues  map[string]string   `json:"document_values,omitempty"`
	ExtractionError string              `json:"extraction_error,omitempty"`
}

// HasSymptom returns the answer for a symptom; unknown keys are false.
func (e *EvidenceRecord) HasSymptom(k SymptomKey) bool {
	return e.Symptoms[k]
}

// HasHistory returns the answer for a history item; unknown keys are false.
func (e *EvidenceRecord) HasHistory(k HistoryKey) bool {
	return e.History[k]
}

// Lab returns a lab value and whether it was provided.
func (e *EvidenceRecord) Lab(k LabKey) (float64, bool) {
	v, ok := e.Labs[k]
	return v, ok
}

// LabOrZero returns the lab value or 0 when absent. Rules compare with strict thresholds,
// so an absent lab never triggers them.
func (e *EvidenceRecord) LabOrZero(k LabKey) float64 {
	return e.Labs[k]
}

// PositiveAnswers counts symptom and history answers that are true.
func (e *EvidenceRecord) PositiveAnswers() int {
	n := 0
	for _, v := range e.Symptoms {
		if v {
			n++
		}
	}
	for _, v := range e.History {
		if v {
			n++
		}
	}
	return n
}
