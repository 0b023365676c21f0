package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/cardio-risk-mcp-server/internal/domain"
	"github.com/cardio-risk-mcp-server/internal/locale"
)

// KeywordClassifierID identifies the local free-text classifier.
const KeywordClassifierID = "keyword"

// symptomKeywords score one point per distinct keyword found; alarmKeywords score two.
var (
	symptomKeywords = []string{
		"pain", "sweat", "dizzy", "palpitation", "vomit",
		"疼痛", "出汗", "头晕", "心悸", "呕吐",
	}
	alarmKeywords = []string{
		"crushing", "faint", "unconscious", "radiating", "shortness of breath",
		"压榨", "晕厥", "濒死", "放射", "呼吸困难",
	}
)

// KeywordClassifier is a local TextClassifier for patient narratives. It answers in the
// same LABEL_0..LABEL_2 format as the remote models.
type KeywordClassifier struct{}

// NewKeywordClassifier creates the local keyword classifier.
func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{}
}

// ID implements domain.TextClassifier.
func (k *KeywordClassifier) ID() string {
	return KeywordClassifierID
}

// Classify implements domain.TextClassifier.
func (k *KeywordClassifier) Classify(ctx context.Context, text string) ([]domain.LabelScore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	folded := locale.Fold(text)
	score := 0
	for _, kw := range symptomKeywords {
		if strings.Contains(folded, kw) {
			score++
		}
	}
	for _, kw := range alarmKeywords {
		if strings.Contains(folded, kw) {
			score += 2
		}
	}

	switch {
	case score >= 3:
		return labelScores(0.05, 0.25, 0.70), nil
	case score >= 1:
		return labelScores(0.20, 0.60, 0.20), nil
	default:
		return labelScores(0.75, 0.20, 0.05), nil
	}
}

func labelScores(low, moderate, high float64) []domain.LabelScore {
	return []domain.LabelScore{
		{Label: "LABEL_0", Score: low},
		{Label: "LABEL_1", Score: moderate},
		{Label: "LABEL_2", Score: high},
	}
}

// ModelInputText renders the structured evidence as classifier input. The rendering uses
// a fixed English vocabulary so that the same evidence yields the same text whatever the
// request language.
func ModelInputText(r *domain.EvidenceRecord) string {
	var b strings.Builder
	b.WriteString("Symptoms:\n")
	for _, k := range domain.SymptomKeys {
		fmt.Fprintf(&b, "- %s: %s\n", locale.SymptomLabel(k, domain.LANG_EN), locale.YesNo(r.HasSymptom(k), domain.LANG_EN))
	}
	b.WriteString("\nHistory:\n")
	for _, k := range domain.HistoryKeys {
		fmt.Fprintf(&b, "- %s: %s\n", locale.HistoryLabel(k, domain.LANG_EN), locale.YesNo(r.HasHistory(k), domain.LANG_EN))
	}
	fmt.Fprintf(&b, "- Sex: %s\n", locale.SexLabel(r.Sex, domain.LANG_EN))
	b.WriteString("\nLab Parameters:\n")
	for _, k := range domain.LabKeys {
		if v, ok := r.Lab(k); ok {
			fmt.Fprintf(&b, "- %s: %s\n", locale.LabLabel(k, domain.LANG_EN), formatNumber(v))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
