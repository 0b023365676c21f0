package service

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/cardio-risk-mcp-server/internal/domain"
	"github.com/cardio-risk-mcp-server/internal/locale"
)

// ReportFormatter assembles the structured, localized explanation record. It does not
// write prose; narrative generation belongs to the summarizer.
type ReportFormatter struct {
	logger *logrus.Logger
}

// NewReportFormatter creates a report formatter.
func NewReportFormatter(logger *logrus.Logger) *ReportFormatter {
	return &ReportFormatter{logger: logger}
}

// Format builds the report sections in canonical order. The conflict section is present
// only when a conflict was detected and the document section only when a document was
// supplied.
func (f *ReportFormatter) Format(in domain.ReportInput) *domain.StructuredReport {
	lang := in.Language
	if !lang.IsValid() {
		lang = locale.DefaultLanguage
	}

	report := &domain.StructuredReport{
		ID:          in.ID,
		Language:    lang,
		Final:       in.Final,
		Conflict:    in.Conflict != nil && in.Conflict.Detected,
		GeneratedAt: time.Now().UTC(),
	}

	report.Sections = append(report.Sections,
		f.inputsSection(in.Record, lang),
		f.findingsSection(in.Outcome, lang),
		f.recommendationsSection(in.Outcome, lang),
		f.modelsSection(in.Opinions, lang),
		f.aggregatedSection(in, lang),
	)
	if report.Conflict {
		report.Sections = append(report.Sections, f.conflictSection(in.Conflict, lang))
	}
	if doc, ok := f.documentSection(in.Record, lang); ok {
		report.Sections = append(report.Sections, doc)
	}
	report.Sections = append(report.Sections, domain.ReportSection{
		Kind:  domain.SECTION_DISCLAIMER,
		Title: locale.SectionTitle(domain.SECTION_DISCLAIMER, lang),
		Items: []domain.ReportItem{{Label: locale.Message(locale.MsgDisclaimer, lang)}},
	})

	f.logger.WithFields(logrus.Fields{
		"report_id": report.ID,
		"sections":  len(report.Sections),
		"language":  lang,
	}).Debug("Formatted structured report")

	return report
}

// AttachNarrative adds the summarizer's prose in its canonical position.
func AttachNarrative(report *domain.StructuredReport, narrative string) {
	narrative = strings.TrimSpace(narrative)
	if narrative == "" {
		return
	}
	report.InsertSection(domain.ReportSection{
		Kind:  domain.SECTION_NARRATIVE,
		Title: locale.SectionTitle(domain.SECTION_NARRATIVE, report.Language),
		Items: []domain.ReportItem{{Label: narrative}},
	})
}

func (f *ReportFormatter) inputsSection(r *domain.EvidenceRecord, lang domain.Language) domain.ReportSection {
	section := domain.ReportSection{Kind: domain.SECTION_INPUTS, Title: locale.SectionTitle(domain.SECTION_INPUTS, lang)}
	if r == nil {
		return section
	}

	symptoms := domain.ReportItem{Key: "symptoms", Label: locale.Message(locale.MsgSymptoms, lang)}
	for _, k := range domain.SymptomKeys {
		symptoms.Children = append(symptoms.Children, domain.ReportItem{
			Key:   string(k),
			Label: locale.SymptomLabel(k, lang),
			Value: locale.YesNo(r.HasSymptom(k), lang),
		})
	}

	history := domain.ReportItem{Key: "history", Label: locale.Message(locale.MsgHistory, lang)}
	for _, k := range domain.HistoryKeys {
		history.Children = append(history.Children, domain.ReportItem{
			Key:   string(k),
			Label: locale.HistoryLabel(k, lang),
			Value: locale.YesNo(r.HasHistory(k), lang),
		})
	}
	history.Children = append(history.Children, domain.ReportItem{
		Key:   "SEX",
		Label: locale.Message(locale.MsgSex, lang),
		Value: locale.SexLabel(r.Sex, lang),
	})

	labs := domain.ReportItem{Key: "labs", Label: locale.Message(locale.MsgLabs, lang)}
	for _, k := range domain.LabKeys {
		if v, ok := r.Lab(k); ok {
			labs.Children = append(labs.Children, domain.ReportItem{
				Key:   string(k),
				Label: locale.LabLabel(k, lang),
				Value: formatNumber(v),
			})
		}
	}

	section.Items = []domain.ReportItem{symptoms, history, labs}
	if r.FreeText != "" {
		section.Items = append(section.Items, domain.ReportItem{
			Key:   "free_text",
			Label: locale.Message(locale.MsgFreeText, lang),
			Value: r.FreeText,
		})
	}
	return section
}

func (f *ReportFormatter) findingsSection(o domain.RuleOutcome, lang domain.Language) domain.ReportSection {
	section := domain.ReportSection{Kind: domain.SECTION_FINDINGS, Title: locale.SectionTitle(domain.SECTION_FINDINGS, lang)}
	for _, finding := range o.Findings {
		item := domain.ReportItem{
			Key:   string(finding.ConditionID),
			Label: locale.ConditionName(finding, lang),
		}
		if finding.Severity != domain.SEVERITY_NONE {
			item.Value = locale.SeverityName(finding.Severity, lang)
		}
		section.Items = append(section.Items, item)
	}
	return section
}

// recommendationsSection lists each recommendation once, in finding order.
func (f *ReportFormatter) recommendationsSection(o domain.RuleOutcome, lang domain.Language) domain.ReportSection {
	section := domain.ReportSection{Kind: domain.SECTION_RECOMMENDATIONS, Title: locale.SectionTitle(domain.SECTION_RECOMMENDATIONS, lang)}
	seen := make(map[domain.RecommendationID]bool)
	for _, finding := range o.Findings {
		if seen[finding.RecommendationID] {
			continue
		}
		seen[finding.RecommendationID] = true
		section.Items = append(section.Items, domain.ReportItem{
			Key:   string(finding.RecommendationID),
			Label: locale.Recommendation(finding.RecommendationID, lang),
		})
	}
	return section
}

func (f *ReportFormatter) modelsSection(opinions []domain.ModelOpinion, lang domain.Language) domain.ReportSection {
	section := domain.ReportSection{Kind: domain.SECTION_MODELS, Title: locale.SectionTitle(domain.SECTION_MODELS, lang)}
	for _, o := range opinions {
		section.Items = append(section.Items, opinionItem(o, lang))
	}
	return section
}

func opinionItem(o domain.ModelOpinion, lang domain.Language) domain.ReportItem {
	item := domain.ReportItem{Key: o.ModelID, Label: o.ModelID}
	if o.Failed() {
		item.Value = locale.Message(locale.MsgError, lang) + ": " + o.Error
		return item
	}
	if o.MostLikely != nil {
		item.Value = locale.RiskLabel(*o.MostLikely, lang)
	}
	for _, level := range domain.RiskLevels {
		if score, ok := o.Distribution[level]; ok {
			item.Children = append(item.Children, domain.ReportItem{
				Key:   string(level),
				Label: locale.RiskLabel(level, lang),
				Value: strconv.FormatFloat(score, 'f', 2, 64),
			})
		}
	}
	if exp := locale.ModelExplanation(o.ModelID, lang); exp != "" {
		item.Children = append(item.Children, domain.ReportItem{
			Key:   "explanation",
			Label: locale.Message(locale.MsgModelExplanation, lang),
			Value: exp,
		})
	}
	return item
}

func (f *ReportFormatter) aggregatedSection(in domain.ReportInput, lang domain.Language) domain.ReportSection {
	section := domain.ReportSection{Kind: domain.SECTION_AGGREGATED, Title: locale.SectionTitle(domain.SECTION_AGGREGATED, lang)}

	section.Items = append(section.Items,
		domain.ReportItem{
			Key:   string(in.Final.RiskLevel),
			Label: locale.Message(locale.MsgFinalVerdict, lang),
			Value: locale.RiskLabel(in.Final.RiskLevel, lang),
		},
		domain.ReportItem{
			Key:   string(in.Final.Source),
			Label: locale.Message(locale.MsgVerdictSource, lang),
			Value: locale.VerdictSourceLabel(in.Final.Source, lang),
		},
		domain.ReportItem{
			Key:   "heart_score",
			Label: locale.Message(locale.MsgHeartScore, lang),
			Value: fmt.Sprintf("%d %s (%s)", in.Outcome.Score, locale.Message(locale.MsgPoints, lang), locale.RiskLabel(in.Outcome.RuleRisk, lang)),
		},
		domain.ReportItem{
			Key:   "framingham_score",
			Label: locale.Message(locale.MsgFraminghamScore, lang),
			Value: strconv.Itoa(in.Outcome.FraminghamScore),
		},
	)

	ensemble := domain.ReportItem{Key: "ensemble", Label: locale.Message(locale.MsgRiskLevel, lang)}
	if in.Weighted.MostLikely != nil {
		ensemble.Value = locale.RiskLabel(*in.Weighted.MostLikely, lang)
	} else {
		ensemble.Value = locale.Message(locale.MsgEnsembleUnavailable, lang)
	}
	section.Items = append(section.Items, ensemble)

	weighted := domain.ReportItem{Key: "weighted_scores", Label: locale.Message(locale.MsgWeightedScores, lang)}
	for _, level := range domain.RiskLevels {
		weighted.Children = append(weighted.Children, domain.ReportItem{
			Key:   string(level),
			Label: locale.RiskLabel(level, lang),
			Value: strconv.FormatFloat(in.Weighted.Distribution[level], 'f', 3, 64),
		})
	}
	section.Items = append(section.Items, weighted)

	if op := in.FreeTextOpinion; op != nil {
		item := domain.ReportItem{Key: "free_text", Label: locale.Message(locale.MsgFreeTextVerdict, lang)}
		switch {
		case op.Failed():
			item.Value = locale.Message(locale.MsgError, lang) + ": " + op.Error
		case op.MostLikely != nil:
			item.Value = locale.RiskLabel(*op.MostLikely, lang)
		}
		section.Items = append(section.Items, item)
	}
	return section
}

func (f *ReportFormatter) conflictSection(c *domain.ConflictResult, lang domain.Language) domain.ReportSection {
	return domain.ReportSection{
		Kind:  domain.SECTION_CONFLICT,
		Title: locale.SectionTitle(domain.SECTION_CONFLICT, lang),
		Items: []domain.ReportItem{
			{Key: "conflict", Label: locale.Message(locale.MsgConflict, lang)},
			{Key: string(c.StructuredLevel), Label: locale.Message(locale.MsgStructuredVerdict, lang), Value: locale.RiskLabel(c.StructuredLevel, lang)},
			{Key: string(c.FreeTextLevel), Label: locale.Message(locale.MsgFreeTextVerdict, lang), Value: locale.RiskLabel(c.FreeTextLevel, lang)},
		},
	}
}

func (f *ReportFormatter) documentSection(r *domain.EvidenceRecord, lang domain.Language) (domain.ReportSection, bool) {
	if r == nil || (r.ExtractionError == "" && len(r.DocumentValues) == 0) {
		return domain.ReportSection{}, false
	}
	section := domain.ReportSection{Kind: domain.SECTION_DOCUMENT, Title: locale.SectionTitle(domain.SECTION_DOCUMENT, lang)}

	if r.ExtractionError != "" {
		section.Items = append(section.Items, domain.ReportItem{
			Key:   "extraction_error",
			Label: locale.Message(locale.MsgExtractionFailed, lang),
			Value: r.ExtractionError,
		})
		return section, true
	}

	extracted := domain.ReportItem{Key: "extracted_values", Label: locale.Message(locale.MsgExtractedValues, lang)}
	names := make([]string, 0, len(r.DocumentValues))
	for name := range r.DocumentValues {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		extracted.Children = append(extracted.Children, domain.ReportItem{Label: name, Value: r.DocumentValues[name]})
	}
	section.Items = append(section.Items, extracted)

	for _, o := range r.Overrides {
		item := domain.ReportItem{Key: string(o.Key)}
		if o.OriginalValue != nil {
			item.Label = locale.Message(locale.MsgDocumentOverride, lang)
			item.Value = fmt.Sprintf("%s: %s %s %s", locale.LabLabel(o.Key, lang), formatNumber(o.DocumentValue),
				locale.Message(locale.MsgReplaces, lang), formatNumber(*o.OriginalValue))
		} else {
			item.Label = locale.Message(locale.MsgDocumentAddition, lang)
			item.Value = fmt.Sprintf("%s: %s", locale.LabLabel(o.Key, lang), formatNumber(o.DocumentValue))
		}
		section.Items = append(section.Items, item)
	}
	return section, true
}

// RenderMarkdown renders a report as markdown, one heading per section.
func RenderMarkdown(report *domain.StructuredReport) string {
	var b strings.Builder
	for i, s := range report.Sections {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "## %s\n", s.Title)
		for _, item := range s.Items {
			writeItem(&b, item, 0)
		}
	}
	return b.String()
}

func writeItem(b *strings.Builder, item domain.ReportItem, depth int) {
	indent := strings.Repeat("  ", depth)
	switch {
	case item.Value == "":
		fmt.Fprintf(b, "%s- %s\n", indent, item.Label)
	case item.Label == "":
		fmt.Fprintf(b, "%s- %s\n", indent, item.Value)
	default:
		fmt.Fprintf(b, "%s- %s: %s\n", indent, item.Label, item.Value)
	}
	for _, c := range item.Children {
		writeItem(b, c, depth+1)
	}
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
