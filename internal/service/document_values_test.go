package service

import (
	"testing"

	"github.com/cardio-risk-mcp-server/internal/domain"
)

func TestParseLabString(t *testing.T) {
	tests := []struct {
		key  domain.LabKey
		raw  string
		want float64
		ok   bool
	}{
		{domain.LDL, "171.4 mg/dL (<130)", 171.4, true},
		{domain.LDL, "2.0 mmol/L", 77.34, true},
		{domain.TRIGLYCERIDES, "1 mmol/L", 88.57, true},
		{domain.FASTING_GLUCOSE, "126 mg/dL", 7.0, true},
		{domain.FASTING_GLUCOSE, "6.1 mmol/L ↑", 6.1, true},
		{domain.TROPONIN, "50 ng/L", 0.05, true},
		{domain.TROPONIN, "0.02 μg/L", 0.02, true},
		{domain.SYSTOLIC_BP, "145", 145, true},
		{domain.SYSTOLIC_BP, "20 kPa", 150.0124, true},
		{domain.AGE, "56岁", 56, true},
		{domain.HBA1C, "6.8 %", 6.8, true},
		{domain.LDL, "high", 0, false},
		{domain.LDL, "0 mg/dL", 0, false},
		{domain.LDL, "120 furlongs", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseLabString(tt.key, tt.raw)
		if ok != tt.ok {
			t.Errorf("ParseLabString(%s, %q) ok = %v, want %v", tt.key, tt.raw, ok, tt.ok)
			continue
		}
		if diff := got - tt.want; diff > 1e-6 || diff < -1e-6 {
			t.Errorf("ParseLabString(%s, %q) = %v, want %v", tt.key, tt.raw, got, tt.want)
		}
	}
}

func TestParseDocumentValues(t *testing.T) {
	got := ParseDocumentValues(map[string]string{
		"低密度脂蛋白":      "140 mg/dL",
		"LDL-C":       "150 mg/dL",
		"Troponin I":  "0.03 ng/mL",
		"Ferritin":    "80 ng/mL",
		"Total Chol.": "??",
	})

	if len(got) != 2 {
		t.Fatalf("ParseDocumentValues() returned %d values, want 2: %v", len(got), got)
	}
	if got[domain.LDL] != 150 {
		t.Errorf("LDL = %v, want the lexically first name to win (150)", got[domain.LDL])
	}
	if got[domain.TROPONIN] != 0.03 {
		t.Errorf("TROPONIN = %v, want 0.03", got[domain.TROPONIN])
	}
}
