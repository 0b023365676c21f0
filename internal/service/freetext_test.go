package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardio-risk-mcp-server/internal/domain"
)

func TestKeywordClassifier_Classify(t *testing.T) {
	classifier := NewKeywordClassifier()
	ctx := context.Background()

	tests := []struct {
		text string
		want domain.RiskLevel
	}{
		{"I feel fine today", domain.RISK_LOW},
		{"Some chest pain after lunch", domain.RISK_MODERATE},
		{"Crushing chest pain radiating to my jaw", domain.RISK_HIGH},
		{"胸口压榨样疼痛，伴出汗", domain.RISK_HIGH},
		{"偶尔心悸", domain.RISK_MODERATE},
	}
	for _, tt := range tests {
		scores, err := classifier.Classify(ctx, tt.text)
		require.NoError(t, err)
		got := MostLikely(ToDistribution(scores))
		require.NotNil(t, got)
		assert.Equal(t, tt.want, *got, tt.text)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err := classifier.Classify(cancelled, "pain")
	assert.Error(t, err)
}

func TestFreeTextTruncation_IgnoresTrailingWords(t *testing.T) {
	words := make([]string, 600)
	for i := range words {
		words[i] = "okay"
	}
	for i := 500; i < 600; i++ {
		words[i] = "crushing"
	}
	full := strings.Join(words, " ")

	normalizer := NewEvidenceNormalizer(newTestLogger(), 0)
	record, err := normalizer.Normalize(domain.RawAnswers{FreeText: full}, nil)
	require.NoError(t, err)
	assert.Len(t, strings.Fields(record.FreeText), 500)

	classifier := NewKeywordClassifier()
	truncated, err := classifier.Classify(context.Background(), strings.Join(words[:500], " "))
	require.NoError(t, err)
	stored, err := classifier.Classify(context.Background(), record.FreeText)
	require.NoError(t, err)
	assert.Equal(t, truncated, stored)

	got := MostLikely(ToDistribution(stored))
	require.NotNil(t, got)
	assert.Equal(t, domain.RISK_LOW, *got)
}

func TestModelInputText_LanguageInvariant(t *testing.T) {
	zh := newRecord(map[domain.LabKey]float64{domain.LDL: 140}, []domain.SymptomKey{domain.DYSPNEA}, nil)
	zh.Language = domain.LANG_ZH
	en := newRecord(map[domain.LabKey]float64{domain.LDL: 140}, []domain.SymptomKey{domain.DYSPNEA}, nil)

	assert.Equal(t, ModelInputText(zh), ModelInputText(en))
	assert.Contains(t, ModelInputText(en), "Is there shortness of breath?: Yes")
	assert.Contains(t, ModelInputText(en), "LDL-C (mg/dL): 140")
	assert.NotContains(t, ModelInputText(en), "HDL")
}
