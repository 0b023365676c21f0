package service

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/cardio-risk-mcp-server/internal/domain"
	"github.com/cardio-risk-mcp-server/internal/locale"
)

// leadingNumber captures the leading numeric literal of "<value> <unit> (<range>)" and
// whatever follows it.
var leadingNumber = regexp.MustCompile(`^\s*(\d+(?:\.\d+)?)\s*(.*)$`)

// unitFactors lists, per lab, the accepted unit tokens and the factor converting them to
// the lab's canonical unit. An empty token means the unit was omitted.
var unitFactors = map[domain.LabKey]map[string]float64{
	domain.SYSTOLIC_BP:       {"": 1, "mmhg": 1, "kpa": 7.50062},
	domain.DIASTOLIC_BP:      {"": 1, "mmhg": 1, "kpa": 7.50062},
	domain.LDL:               cholesterolUnits,
	domain.HDL:               cholesterolUnits,
	domain.TOTAL_CHOLESTEROL: cholesterolUnits,
	domain.TRIGLYCERIDES:     {"": 1, "mg/dl": 1, "mmol/l": 88.57},
	domain.TROPONIN:          cardiacMarkerUnits,
	domain.CK_MB:             cardiacMarkerUnits,
	domain.FASTING_GLUCOSE:   {"": 1, "mmol/l": 1, "mg/dl": 1 / 18.0},
	domain.HBA1C:             {"": 1, "%": 1},
	domain.BMI:               {"": 1, "kg/m2": 1},
	domain.AGE:               {"": 1, "years": 1, "year": 1, "y": 1, "岁": 1},
}

var cholesterolUnits = map[string]float64{"": 1, "mg/dl": 1, "mmol/l": 38.67}

var cardiacMarkerUnits = map[string]float64{"": 1, "ng/ml": 1, "ug/l": 1, "ng/l": 0.001, "pg/ml": 0.001}

// ParseDocumentValues converts extracted lab-report strings into canonical lab values.
// Names are matched through the bilingual alias tables; entries with an unknown name, a
// non-numeric value, an unrecognized unit or a zero value are dropped. When two names map
// to the same lab, the lexically first name wins.
func ParseDocumentValues(values map[string]string) map[domain.LabKey]float64 {
	out := make(map[domain.LabKey]float64)

	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		key, ok := locale.LookupLab(name)
		if !ok {
			continue
		}
		if _, seen := out[key]; seen {
			continue
		}
		v, ok := ParseLabString(key, values[name])
		if !ok {
			continue
		}
		out[key] = v
	}
	return out
}

// ParseLabString extracts the leading number of a "<value> <unit> (<range>)" string and
// converts it to the canonical unit of key.
func ParseLabString(key domain.LabKey, raw string) (float64, bool) {
	m := leadingNumber.FindStringSubmatch(locale.Fold(raw))
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil || v == 0 {
		return 0, false
	}
	factor, ok := unitFactors[key][unitToken(m[2])]
	if !ok {
		return 0, false
	}
	return v * factor, true
}

// unitToken isolates the unit from the text after the number: everything before the
// reference range, without trend arrows, with micro signs spelled as "u".
func unitToken(rest string) string {
	if i := strings.IndexAny(rest, "(["); i >= 0 {
		rest = rest[:i]
	}
	rest = strings.NewReplacer("↑", "", "↓", "", "μ", "u", "µ", "u").Replace(rest)
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
