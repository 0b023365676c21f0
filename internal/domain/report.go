package domain

import "time"

// SectionKind identifies a report section. Sections always appear in the order of
// SectionOrder; optional sections are omitted rather than left empty.
type SectionKind string

const (
	SECTION_INPUTS          SectionKind = "INPUTS"
	SECTION_FINDINGS        SectionKind = "FINDINGS"
	SECTION_RECOMMENDATIONS SectionKind = "RECOMMENDATIONS"
	SECTION_MODELS          SectionKind = "MODEL_BREAKDOWN"
	SECTION_AGGREGATED      SectionKind = "AGGREGATED_ANALYSIS"
	SECTION_CONFLICT        SectionKind = "CONFLICT_WARNING"
	SECTION_DOCUMENT        SectionKind = "DOCUMENT_AUDIT"
	SECTION_NARRATIVE       SectionKind = "NARRATIVE"
	SECTION_DISCLAIMER      SectionKind = "DISCLAIMER"
)

// SectionOrder is the canonical section sequence.
var SectionOrder = []SectionKind{
	SECTION_INPUTS,
	SECTION_FINDINGS,
	SECTION_RECOMMENDATIONS,
	SECTION_MODELS,
	SECTION_AGGREGATED,
	SECTION_CONFLICT,
	SECTION_DOCUMENT,
	SECTION_NARRATIVE,
	SECTION_DISCLAIMER,
}

// ReportItem is one labeled line of a section. Key carries the canonical identifier the
// line was rendered from, so consumers can ignore localized text.
type ReportItem struct {
	Key      string       `json:"key,omitempty"`
	Label    string       `json:"label"`
	Value    string       `json:"value,omitempty"`
	Children []ReportItem `json:"children,omitempty"`
}

// ReportSection is a labeled group of items.
type ReportSection struct {
	Kind  SectionKind  `json:"kind"`
	Title string       `json:"title"`
	Items []ReportItem `json:"items"`
}

// StructuredReport is the bilingual explanation record of one assessment.
type StructuredReport struct {
	ID          string          `json:"id"`
	Language    Language        `json:"language"`
	Sections    []ReportSection `json:"sections"`
	Final       FinalVerdict    `json:"final_verdict"`
	Conflict    bool            `json:"conflict"`
	GeneratedAt time.Time       `json:"generated_at"`
}

// Section returns the section of the given kind, or nil.
func (r *StructuredReport) Section(kind SectionKind) *ReportSection {
	for i := range r.Sections {
		if r.Sections[i].Kind == kind {
			return &r.Sections[i]
		}
	}
	return nil
}

// Kinds returns the section kinds in report order.
func (r *StructuredReport) Kinds() []SectionKind {
	kinds := make([]SectionKind, 0, len(r.Sections))
	for _, s := range r.Sections {
		kinds = append(kinds, s.Kind)
	}
	return kinds
}

// InsertSection places s at its canonical position, replacing an existing section of the
// same kind.
func (r *StructuredReport) InsertSection(s ReportSection) {
	rank := func(k SectionKind) int {
		for i, o := range SectionOrder {
			if o == k {
				return i
			}
		}
		return len(SectionOrder)
	}
	for i := range r.Sections {
		if r.Sections[i].Kind == s.Kind {
			r.Sections[i] = s
			return
		}
	}
	pos := len(r.Sections)
	for i := range r.Sections {
		if rank(r.Sections[i].Kind) > rank(s.Kind) {
			pos = i
			break
		}
	}
	r.Sections = append(r.Sections, ReportSection{})
	copy(r.Sections[pos+1:], r.Sections[pos:])
	r.Sections[pos] = s
}

// ReportInput gathers the outputs of every stage for the formatter.
type ReportInput struct {
	ID              string
	Record          *EvidenceRecord
	Outcome         RuleOutcome
	Opinions        []ModelOpinion
	Weighted        WeightedVerdict
	Final           FinalVerdict
	Conflict        *ConflictResult
	FreeTextOpinion *ModelOpinion
	Language        Language
}
