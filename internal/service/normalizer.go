package service

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/unicode/norm"

	"github.com/cardio-risk-mcp-server/internal/domain"
	"github.com/cardio-risk-mcp-server/internal/locale"
)

// DefaultMaxFreeTextWords caps the narrative handed to the free-text classifier.
const DefaultMaxFreeTextWords = 500

// EvidenceNormalizer builds the canonical EvidenceRecord from caller-shaped answers.
// It is the only constructor of EvidenceRecord.
type EvidenceNormalizer struct {
	logger   *logrus.Logger
	maxWords int
}

// NewEvidenceNormalizer creates a normalizer. maxWords <= 0 selects the default cap.
func NewEvidenceNormalizer(logger *logrus.Logger, maxWords int) *EvidenceNormalizer {
	if maxWords <= 0 {
		maxWords = DefaultMaxFreeTextWords
	}
	return &EvidenceNormalizer{logger: logger, maxWords: maxWords}
}

// Normalize converts raw answers and an optional extraction result into an EvidenceRecord.
//
// Unanswered questions become false, labs given as 0, null or "" are absent, and
// document values override structured labs with an audit trace. A failed extraction is
// recorded on the record and otherwise ignored. Returns *domain.ValidationError for
// uncoercible input and domain.ErrNoEvidence when nothing was provided at all.
func (n *EvidenceNormalizer) Normalize(raw domain.RawAnswers, doc *domain.ExtractionResult) (*domain.EvidenceRecord, error) {
	lang := raw.Language
	if lang == "" {
		lang = locale.DefaultLanguage
	}
	if !lang.IsValid() {
		return nil, domain.NewValidationError("language", "unsupported language", string(raw.Language))
	}

	record := &domain.EvidenceRecord{
		Symptoms: make(map[domain.SymptomKey]bool, len(domain.SymptomKeys)),
		History:  make(map[domain.HistoryKey]bool, len(domain.HistoryKeys)),
		Labs:     make(map[domain.LabKey]float64),
		Sex:      domain.SEX_MALE,
		Language: lang,
	}
	for _, k := range domain.SymptomKeys {
		record.Symptoms[k] = false
	}
	for _, k := range domain.HistoryKeys {
		record.History[k] = false
	}

	sexAnswer := strings.TrimSpace(raw.Sex)

	for _, label := range sortedKeys(raw.Symptoms) {
		value := raw.Symptoms[label]
		key, ok := locale.LookupSymptom(label)
		if !ok {
			return nil, domain.NewValidationError("symptoms."+label, "unknown symptom question", value)
		}
		answer, err := parseAnswer("symptoms."+label, value)
		if err != nil {
			return nil, err
		}
		record.Symptoms[key] = answer
	}

	for _, label := range sortedKeys(raw.History) {
		value := raw.History[label]
		if locale.IsSexLabel(label) {
			if s, ok := value.(string); ok && sexAnswer == "" {
				sexAnswer = s
			}
			continue
		}
		key, ok := locale.LookupHistory(label)
		if !ok {
			return nil, domain.NewValidationError("history."+label, "unknown history question", value)
		}
		answer, err := parseAnswer("history."+label, value)
		if err != nil {
			return nil, err
		}
		record.History[key] = answer
	}

	if sexAnswer != "" {
		sex, ok := locale.ParseSex(sexAnswer)
		if !ok {
			return nil, domain.NewValidationError("sex", "expected male or female", sexAnswer)
		}
		record.Sex = sex
	}

	for _, label := range sortedKeys(raw.Labs) {
		value := raw.Labs[label]
		key, ok := locale.LookupLab(label)
		if !ok {
			return nil, domain.NewValidationError("labs."+label, "unknown lab parameter", value)
		}
		v, present, err := parseLabValue("labs."+label, value)
		if err != nil {
			return nil, err
		}
		if present {
			record.Labs[key] = v
		}
	}

	n.mergeDocument(record, doc)

	record.FreeText = TruncateWords(raw.FreeText, n.maxWords)

	// A document counts only through the labs it merged.
	if len(record.Labs) == 0 && record.PositiveAnswers() == 0 && record.FreeText == "" && len(record.Overrides) == 0 {
		return nil, domain.ErrNoEvidence
	}

	return record, nil
}

// mergeDocument applies extracted document values. Keys are walked in questionnaire order
// so the audit trail is deterministic.
func (n *EvidenceNormalizer) mergeDocument(record *domain.EvidenceRecord, doc *domain.ExtractionResult) {
	if doc == nil {
		return
	}
	if !doc.OK() {
		record.ExtractionError = doc.Error
		return
	}
	if len(doc.Values) == 0 {
		return
	}

	record.DocumentValues = make(map[string]string, len(doc.Values))
	for k, v := range doc.Values {
		record.DocumentValues[k] = v
	}

	parsed := ParseDocumentValues(doc.Values)
	for _, key := range domain.LabKeys {
		dv, ok := parsed[key]
		if !ok {
			continue
		}
		trace := domain.OverrideTrace{Key: key, DocumentValue: dv}
		if orig, had := record.Labs[key]; had {
			o := orig
			trace.OriginalValue = &o
		}
		record.Labs[key] = dv
		record.Overrides = append(record.Overrides, trace)

		n.logger.WithFields(logrus.Fields{
			"lab":         key,
			"replacement": trace.IsReplacement(),
		}).Debug("Document value merged into lab parameters")
	}
}

// parseAnswer coerces a yes/no answer. nil is "no".
func parseAnswer(field string, value any) (bool, error) {
	switch v := value.(type) {
	case nil:
		return false, nil
	case bool:
		return v, nil
	case string:
		b, ok := locale.ParseYesNo(v)
		if !ok {
			return false, domain.NewValidationError(field, "expected a yes/no answer", v)
		}
		return b, nil
	case float64:
		if v == 0 || v == 1 {
			return v == 1, nil
		}
	case int:
		if v == 0 || v == 1 {
			return v == 1, nil
		}
	}
	return false, domain.NewValidationError(field, "expected a yes/no answer", value)
}

// parseLabValue coerces a lab number. 0, nil and "" mean "not provided".
func parseLabValue(field string, value any) (float64, bool, error) {
	var f float64
	switch v := value.(type) {
	case nil:
		return 0, false, nil
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return 0, false, domain.NewValidationError(field, "not a number", v.String())
		}
		f = parsed
	case string:
		s := strings.TrimSpace(norm.NFKC.String(v))
		if s == "" {
			return 0, false, nil
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false, domain.NewValidationError(field, "not a number", v)
		}
		f = parsed
	default:
		return 0, false, domain.NewValidationError(field, fmt.Sprintf("unsupported value type %T", value), value)
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false, domain.NewValidationError(field, "must be a finite number", value)
	}
	if f < 0 {
		return 0, false, domain.NewValidationError(field, "must not be negative", value)
	}
	if f == 0 {
		return 0, false, nil
	}
	return f, true, nil
}

// TruncateWords keeps the first maxWords whitespace-separated words. Text within the limit is
// returned trimmed but otherwise unchanged.
func TruncateWords(text string, maxWords int) string {
	text = strings.TrimSpace(text)
	if maxWords <= 0 || text == "" {
		return text
	}
	words := strings.Fields(text)
	if len(words) <= maxWords {
		return text
	}
	return strings.Join(words[:maxWords], " ")
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
