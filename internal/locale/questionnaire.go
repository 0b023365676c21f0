package locale

import (
	"github.com/cardio-risk-mcp-server/internal/domain"
)

var symptomLabels = map[domain.SymptomKey]text{
	domain.CHEST_PAIN_ON_EXERTION:        {"胸痛是否在劳累时加重？", "Is chest pain aggravated by exertion?"},
	domain.PRESSING_OR_TIGHTENING:        {"是否为压迫感或紧缩感？", "Is it a pressing or tightening sensation?"},
	domain.LASTS_OVER_5_MIN:              {"是否持续超过5分钟？", "Does it last more than 5 minutes?"},
	domain.RADIATES_TO_SHOULDER_BACK_JAW: {"是否放射至肩/背/下巴？", "Does it radiate to shoulder/back/jaw?"},
	domain.RELIEVED_BY_REST:              {"是否在休息后缓解？", "Is it relieved by rest?"},
	domain.COLD_SWEAT:                    {"是否伴冷汗？", "Is it accompanied by cold sweat?"},
	domain.DYSPNEA:                       {"是否呼吸困难？", "Is there shortness of breath?"},
	domain.NAUSEA_OR_VOMITING:            {"是否恶心或呕吐？", "Is there nausea or vomiting?"},
	domain.DIZZINESS_OR_FAINTING:         {"是否头晕或晕厥？", "Is there dizziness or fainting?"},
	domain.PALPITATIONS:                  {"是否心悸？", "Is there palpitations?"},
}

var historyLabels = map[domain.HistoryKey]text{
	domain.HYPERTENSION_HISTORY:      {"是否患有高血压？", "Do you have hypertension?"},
	domain.DIABETES:                  {"是否患糖尿病？", "Do you have diabetes?"},
	domain.HYPERLIPIDEMIA_HISTORY:    {"是否有高血脂？", "Do you have hyperlipidemia?"},
	domain.SMOKER:                    {"是否吸烟？", "Do you smoke?"},
	domain.FAMILY_HISTORY_CAD:        {"是否有心脏病家族史？", "Family history of heart disease?"},
	domain.RECENT_STRESS:             {"近期是否有情绪压力？", "Recent emotional stress?"},
	domain.ON_HYPERTENSION_TREATMENT: {"是否服用降压药？", "Are you on hypertension treatment?"},
}

var sexLabel = text{"性别", "Sex (Male/Female)"}

// labSpec describes a lab question: its label and the UI slider range.
type labSpec struct {
	label   text
	min     float64
	max     float64
	def     float64
	aliases []string
}

var labSpecs = map[domain.LabKey]labSpec{
	domain.SYSTOLIC_BP: {
		label: text{"收缩压 (mmHg)", "Systolic BP (mmHg)"}, min: 60, max: 220, def: 120,
		aliases: []string{"收缩压", "高压", "Systolic BP", "Systolic Blood Pressure", "SBP"},
	},
	domain.DIASTOLIC_BP: {
		label: text{"舒张压 (mmHg)", "Diastolic BP (mmHg)"}, min: 40, max: 120, def: 80,
		aliases: []string{"舒张压", "低压", "Diastolic BP", "Diastolic Blood Pressure", "DBP"},
	},
	domain.LDL: {
		label: text{"低密度脂蛋白 (LDL-C, mg/dL)", "LDL-C (mg/dL)"}, min: 50, max: 200, def: 100,
		aliases: []string{"低密度脂蛋白", "低密度脂蛋白胆固醇", "LDL", "LDL-C", "LDL Cholesterol"},
	},
	domain.HDL: {
		label: text{"高密度脂蛋白 (HDL-C, mg/dL)", "HDL-C (mg/dL)"}, min: 20, max: 100, def: 50,
		aliases: []string{"高密度脂蛋白", "高密度脂蛋白胆固醇", "HDL", "HDL-C", "HDL Cholesterol"},
	},
	domain.TOTAL_CHOLESTEROL: {
		label: text{"总胆固醇 (Total Cholesterol, mg/dL)", "Total Cholesterol (mg/dL)"}, min: 100, max: 300, def: 200,
		aliases: []string{"总胆固醇", "胆固醇", "Total Cholesterol", "Cholesterol", "TC"},
	},
	domain.TRIGLYCERIDES: {
		label: text{"甘油三酯 (Triglycerides, mg/dL)", "Triglycerides (mg/dL)"}, min: 50, max: 500, def: 150,
		aliases: []string{"甘油三酯", "三酰甘油", "Triglycerides", "Triglyceride", "TG"},
	},
	domain.TROPONIN: {
		label: text{"肌钙蛋白 (Troponin I/T, ng/mL)", "Troponin I/T (ng/mL)"}, min: 0, max: 0.5, def: 0.01,
		aliases: []string{"肌钙蛋白", "肌钙蛋白I", "肌钙蛋白T", "高敏肌钙蛋白", "Troponin", "Troponin I", "Troponin T", "cTnI", "cTnT", "hs-cTn"},
	},
	domain.CK_MB: {
		label: text{"肌酸激酶同工酶 (CK-MB, ng/mL)", "CK-MB (ng/mL)"}, min: 0, max: 50, def: 2,
		aliases: []string{"肌酸激酶同工酶", "肌酸激酶MB", "CK-MB", "CKMB"},
	},
	domain.FASTING_GLUCOSE: {
		label: text{"空腹血糖 (Fasting Glucose, mmol/L)", "Fasting Glucose (mmol/L)"}, min: 3, max: 15, def: 5.5,
		aliases: []string{"空腹血糖", "血糖", "葡萄糖", "空腹葡萄糖", "Fasting Glucose", "Glucose", "GLU", "FPG"},
	},
	domain.HBA1C: {
		label: text{"糖化血红蛋白 (HbA1c, %)", "HbA1c (%)"}, min: 3, max: 15, def: 5,
		aliases: []string{"糖化血红蛋白", "HbA1c", "A1c", "Hemoglobin A1c"},
	},
	domain.BMI: {
		label: text{"体质指数 (BMI)", "BMI"}, min: 10, max: 50, def: 25,
		aliases: []string{"体质指数", "体重指数", "BMI", "Body Mass Index"},
	},
	domain.AGE: {
		label: text{"年龄 (Age)", "Age"}, min: 20, max: 100, def: 50,
		aliases: []string{"年龄", "Age"},
	},
}

var (
	symptomIndex = map[string]domain.SymptomKey{}
	historyIndex = map[string]domain.HistoryKey{}
	labIndex     = map[string]domain.LabKey{}
)

func init() {
	for k, t := range symptomLabels {
		symptomIndex[Fold(string(k))] = k
		symptomIndex[Fold(t.zh)] = k
		symptomIndex[Fold(t.en)] = k
	}
	for k, t := range historyLabels {
		historyIndex[Fold(string(k))] = k
		historyIndex[Fold(t.zh)] = k
		historyIndex[Fold(t.en)] = k
	}
	for k, s := range labSpecs {
		labIndex[Fold(string(k))] = k
		labIndex[Fold(s.label.zh)] = k
		labIndex[Fold(s.label.en)] = k
		for _, a := range s.aliases {
			labIndex[Fold(a)] = k
		}
	}
}

// SymptomLabel returns the localized question for a symptom.
func SymptomLabel(k domain.SymptomKey, lang domain.Language) string {
	return symptomLabels[k].in(lang)
}

// HistoryLabel returns the localized question for a history item.
func HistoryLabel(k domain.HistoryKey, lang domain.Language) string {
	return historyLabels[k].in(lang)
}

// LabLabel returns the localized label of a lab parameter, unit included.
func LabLabel(k domain.LabKey, lang domain.Language) string {
	return labSpecs[k].label.in(lang)
}

// LookupSymptom resolves a canonical key or a question label in either language.
func LookupSymptom(s string) (domain.SymptomKey, bool) {
	k, ok := symptomIndex[Fold(s)]
	return k, ok
}

// LookupHistory resolves a canonical key or a question label in either language.
func LookupHistory(s string) (domain.HistoryKey, bool) {
	k, ok := historyIndex[Fold(s)]
	return k, ok
}

// IsSexLabel reports whether s names the sex question.
func IsSexLabel(s string) bool {
	f := Fold(s)
	return f == Fold(sexLabel.zh) || f == Fold(sexLabel.en) || f == "sex" || f == "性别"
}

// LookupLab resolves a canonical key, a questionnaire label or a lab report name such as
// "低密度脂蛋白胆固醇" or "LDL Cholesterol (calc)".
func LookupLab(s string) (domain.LabKey, bool) {
	if k, ok := labIndex[Fold(s)]; ok {
		return k, true
	}
	k, ok := labIndex[Fold(stripParenthetical(s))]
	return k, ok
}

// Question is a yes/no questionnaire entry.
type Question struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// LabQuestion is a numeric questionnaire entry with its slider range.
type LabQuestion struct {
	Key     domain.LabKey `json:"key"`
	Label   string        `json:"label"`
	Unit    string        `json:"unit"`
	Min     float64       `json:"min"`
	Max     float64       `json:"max"`
	Default float64       `json:"default"`
}

// Questionnaire is the localized form definition.
type Questionnaire struct {
	Language   domain.Language `json:"language"`
	Symptoms   []Question      `json:"symptoms"`
	History    []Question      `json:"history"`
	Sex        Question        `json:"sex"`
	SexOptions []string        `json:"sex_options"`
	Labs       []LabQuestion   `json:"labs"`
	Answers    []string        `json:"answers"`
}

// BuildQuestionnaire returns the form definition in questionnaire order.
func BuildQuestionnaire(lang domain.Language) *Questionnaire {
	q := &Questionnaire{
		Language:   lang,
		Sex:        Question{Key: "SEX", Label: sexLabel.in(lang)},
		SexOptions: []string{SexLabel(domain.SEX_MALE, lang), SexLabel(domain.SEX_FEMALE, lang)},
		Answers:    []string{YesNo(true, lang), YesNo(false, lang)},
	}
	for _, k := range domain.SymptomKeys {
		q.Symptoms = append(q.Symptoms, Question{Key: string(k), Label: SymptomLabel(k, lang)})
	}
	for _, k := range domain.HistoryKeys {
		q.History = append(q.History, Question{Key: string(k), Label: HistoryLabel(k, lang)})
	}
	for _, k := range domain.LabKeys {
		s := labSpecs[k]
		q.Labs = append(q.Labs, LabQuestion{
			Key:     k,
			Label:   s.label.in(lang),
			Unit:    k.Unit(),
			Min:     s.min,
			Max:     s.max,
			Default: s.def,
		})
	}
	return q
}
