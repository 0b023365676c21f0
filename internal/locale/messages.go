package locale

import (
	"github.com/cardio-risk-mcp-server/internal/domain"
)

var riskLabels = map[domain.RiskLevel]text{
	domain.RISK_LOW:      {"低风险", "Low Risk"},
	domain.RISK_MODERATE: {"中风险", "Moderate Risk"},
	domain.RISK_HIGH:     {"高风险", "High Risk"},
}

// RiskLabel returns the rendered risk label, e.g. "High Risk" or "高风险".
func RiskLabel(r domain.RiskLevel, lang domain.Language) string {
	if t, ok := riskLabels[r]; ok {
		return t.in(lang)
	}
	return string(r)
}

var conditionNames = map[domain.ConditionID]text{
	domain.COND_HYPERTENSION:          {"高血压", "Hypertension"},
	domain.COND_CORONARY_ARTERY:       {"冠心病", "Coronary Artery Disease"},
	domain.COND_MYOCARDIAL_INFARCTION: {"心肌梗塞", "Myocardial Infarction"},
	domain.COND_HYPERLIPIDEMIA:        {"高脂血症", "Hyperlipidemia"},
	domain.COND_HEART_FAILURE:         {"心力衰竭", "Heart Failure"},
	domain.COND_DIABETES:              {"糖尿病", "Diabetes"},
	domain.COND_OBESITY:               {"肥胖", "Obesity"},
	domain.COND_ARRHYTHMIA:            {"心律不齐", "Arrhythmia"},
	domain.COND_SUSPECTED_MYOCARDITIS: {"疑似心肌炎", "Suspected Myocarditis"},
	domain.COND_FRAMINGHAM_RISK:       {"Framingham评分", "Framingham Score"},
	domain.COND_NO_SIGNIFICANT_RISK:   {"无明显心血管疾病风险", "No significant cardiovascular risk"},
}

var severityNames = map[domain.SeverityTag]text{
	domain.SEVERITY_MILD:      {"轻度", "mild"},
	domain.SEVERITY_MODERATE:  {"中度", "moderate"},
	domain.SEVERITY_SEVERE:    {"重度", "severe"},
	domain.SEVERITY_EMERGENCY: {"严重", "emergency"},
}

// ConditionName renders a finding. Hypertension carries its tier and the Framingham
// finding its risk band; other conditions render the plain name.
func ConditionName(f domain.DiseaseFinding, lang domain.Language) string {
	name := conditionNames[f.ConditionID].in(lang)
	if name == "" {
		name = string(f.ConditionID)
	}
	switch f.ConditionID {
	case domain.COND_HYPERTENSION:
		if sev, ok := severityNames[f.Severity]; ok {
			return name + " (" + sev.in(lang) + ")"
		}
	case domain.COND_FRAMINGHAM_RISK:
		band := domain.RISK_MODERATE
		if f.Severity == domain.SEVERITY_SEVERE {
			band = domain.RISK_HIGH
		}
		if lang == domain.LANG_EN {
			return name + ": " + RiskLabel(band, lang)
		}
		return name + RiskLabel(band, lang)
	}
	return name
}

// SeverityName returns the localized severity tag.
func SeverityName(s domain.SeverityTag, lang domain.Language) string {
	if t, ok := severityNames[s]; ok {
		return t.in(lang)
	}
	return string(s)
}

var recommendations = map[domain.RecommendationID]text{
	domain.REC_EMERGENCY_CARE:          {"这是紧急情况，请立即就医。", "This is an emergency. Please seek medical attention immediately."},
	domain.REC_BP_LIFESTYLE_AND_DOCTOR: {"监测血压，减少盐分摄入，健康饮食，咨询医生。", "Monitor blood pressure, reduce salt intake, eat healthily and consult a doctor."},
	domain.REC_BP_MONITORING:           {"定期监测血压，保持健康生活方式。", "Monitor blood pressure regularly and keep a healthy lifestyle."},
	domain.REC_CARDIAC_CHECKUP:         {"建议心脏检查，避免高脂饮食，保持运动。", "A cardiac check-up is advised. Avoid high-fat food and stay active."},
	domain.REC_LOW_FAT_DIET:            {"低脂饮食，增加纤维素，咨询医生。", "Follow a low-fat, high-fibre diet and consult a doctor."},
	domain.REC_GLYCEMIC_CONTROL:        {"控制血糖，合理饮食，定期监测。", "Control blood glucose, eat sensibly and monitor regularly."},
	domain.REC_WEIGHT_MANAGEMENT:       {"减重，运动，控制饮食。", "Lose weight through exercise and diet control."},
	domain.REC_ECG_CHECK:               {"建议心电图检查，排除心律失常。", "An ECG is advised to rule out arrhythmia."},
	domain.REC_CARDIAC_IMAGING:         {"建议进一步心脏影像学及血清学检查。", "Further cardiac imaging and serological tests are advised."},
	domain.REC_RISK_FACTOR_CONTROL:     {"积极控制危险因素，定期复查心血管风险。", "Actively control risk factors and reassess cardiovascular risk regularly."},
	domain.REC_LIFESTYLE_MONITORING:    {"改善生活方式，监测指标。", "Improve lifestyle habits and monitor your indicators."},
	domain.REC_ROUTINE_CHECKUP:         {"保持健康生活方式，定期检查。", "Keep a healthy lifestyle and have regular check-ups."},
}

// Recommendation returns the localized recommendation text.
func Recommendation(id domain.RecommendationID, lang domain.Language) string {
	if t, ok := recommendations[id]; ok {
		return t.in(lang)
	}
	return string(id)
}

var sectionTitles = map[domain.SectionKind]text{
	domain.SECTION_INPUTS:          {"用户输入", "User Inputs"},
	domain.SECTION_FINDINGS:        {"疾病分类", "Disease Classification"},
	domain.SECTION_RECOMMENDATIONS: {"建议", "Recommendations"},
	domain.SECTION_MODELS:          {"模型预测", "Model Predictions"},
	domain.SECTION_AGGREGATED:      {"综合风险等级", "Aggregated Risk Level"},
	domain.SECTION_CONFLICT:        {"证据冲突提示", "Evidence Conflict Warning"},
	domain.SECTION_DOCUMENT:        {"上传文件内容解析", "File Content Analysis"},
	domain.SECTION_NARRATIVE:       {"综合解读", "Narrative Summary"},
	domain.SECTION_DISCLAIMER:      {"免责声明", "Disclaimer"},
}

// SectionTitle returns the localized title of a report section.
func SectionTitle(k domain.SectionKind, lang domain.Language) string {
	return sectionTitles[k].in(lang)
}

var modelExplanations = map[string]text{
	"biobert":      {"BioBERT 是一个专门针对生物医学文本训练的模型，适用于分析医学相关的文本。", "BioBERT is a model pre-trained on biomedical text, suitable for analyzing medical-related content."},
	"pubmedbert":   {"PubMedBERT 是基于 PubMed 数据训练的模型，专注于生物医学文献的理解。", "PubMedBERT is trained on PubMed data and focuses on understanding biomedical literature."},
	"clinicalbert": {"ClinicalBERT 是针对临床文本优化的模型，适合分析患者相关的临床数据。", "ClinicalBERT is optimized for clinical text and is suitable for analyzing patient-related clinical data."},
	"keyword":      {"关键词分类器根据自由文本中的症状关键词估计风险。", "The keyword classifier estimates risk from symptom keywords in the free text."},
}

// ModelExplanation returns the explanation of a known model, or "" for unknown ids.
func ModelExplanation(modelID string, lang domain.Language) string {
	return modelExplanations[Fold(modelID)].in(lang)
}

// MessageID names a fixed report phrase.
type MessageID string

const (
	MsgSymptoms            MessageID = "symptoms"
	MsgHistory             MessageID = "history"
	MsgLabs                MessageID = "labs"
	MsgSex                 MessageID = "sex"
	MsgFreeText            MessageID = "free_text"
	MsgRiskLevel           MessageID = "risk_level"
	MsgModelExplanation    MessageID = "model_explanation"
	MsgError               MessageID = "error"
	MsgHeartScore          MessageID = "heart_score"
	MsgPoints              MessageID = "points"
	MsgFraminghamScore     MessageID = "framingham_score"
	MsgWeightedScores      MessageID = "weighted_scores"
	MsgFinalVerdict        MessageID = "final_verdict"
	MsgVerdictSource       MessageID = "verdict_source"
	MsgEnsembleUnavailable MessageID = "ensemble_unavailable"
	MsgConflict            MessageID = "conflict"
	MsgFreeTextVerdict     MessageID = "free_text_verdict"
	MsgStructuredVerdict   MessageID = "structured_verdict"
	MsgDocumentOverride    MessageID = "document_override"
	MsgDocumentAddition    MessageID = "document_addition"
	MsgReplaces            MessageID = "replaces"
	MsgExtractionFailed    MessageID = "extraction_failed"
	MsgExtractedValues     MessageID = "extracted_values"
	MsgNotProvided         MessageID = "not_provided"
	MsgDisclaimer          MessageID = "disclaimer"
	MsgSourceOverride      MessageID = "source_override"
	MsgSourceEnsemble      MessageID = "source_ensemble"
	MsgSourceFallback      MessageID = "source_fallback"
)

var messages = map[MessageID]text{
	MsgSymptoms:            {"症状", "Symptoms"},
	MsgHistory:             {"病史", "Medical History"},
	MsgLabs:                {"实验室参数", "Lab Parameters"},
	MsgSex:                 {"性别", "Sex"},
	MsgFreeText:            {"自由文本描述", "Free-text description"},
	MsgRiskLevel:           {"风险等级", "Risk level"},
	MsgModelExplanation:    {"模型解释", "Model explanation"},
	MsgError:               {"错误", "Error"},
	MsgHeartScore:          {"HEART评分", "HEART Score"},
	MsgPoints:              {"分", "points"},
	MsgFraminghamScore:     {"Framingham评分", "Framingham score"},
	MsgWeightedScores:      {"加权风险分数", "Weighted Risk Scores"},
	MsgFinalVerdict:        {"最终风险等级", "Final risk level"},
	MsgVerdictSource:       {"判定依据", "Verdict source"},
	MsgEnsembleUnavailable: {"模型集成不可用（所有模型均失败）", "Ensemble unavailable (every model failed)"},
	MsgConflict:            {"结构化评估与自由文本评估结果相互矛盾，请谨慎解读。", "The structured assessment and the free-text assessment disagree. Interpret with care."},
	MsgFreeTextVerdict:     {"自由文本评估", "Free-text assessment"},
	MsgStructuredVerdict:   {"结构化评估", "Structured assessment"},
	MsgDocumentOverride:    {"文件覆盖实验室参数", "Document overrides lab parameter"},
	MsgDocumentAddition:    {"文件补充实验室参数", "Document adds lab parameter"},
	MsgReplaces:            {"替换", "replaces"},
	MsgExtractionFailed:    {"文件解析失败", "Document extraction failed"},
	MsgExtractedValues:     {"文件解析结果", "Extracted values"},
	MsgNotProvided:         {"未提供", "not provided"},
	MsgDisclaimer:          {"本评估仅供参考，不构成医学诊断。如有不适，请及时就医。", "This assessment is for reference only and is not a medical diagnosis. Seek medical care if you feel unwell."},
	MsgSourceOverride:      {"规则评分覆盖（严重程度明确）", "Rule override (unambiguous severity)"},
	MsgSourceEnsemble:      {"模型集成", "Model ensemble"},
	MsgSourceFallback:      {"规则评分（模型集成不可用）", "Rule score (ensemble unavailable)"},
}

// Message returns a fixed localized phrase.
func Message(id MessageID, lang domain.Language) string {
	return messages[id].in(lang)
}

// VerdictSourceLabel returns the localized verdict source.
func VerdictSourceLabel(s domain.VerdictSource, lang domain.Language) string {
	switch s {
	case domain.SOURCE_RULE_OVERRIDE:
		return Message(MsgSourceOverride, lang)
	case domain.SOURCE_ENSEMBLE:
		return Message(MsgSourceEnsemble, lang)
	case domain.SOURCE_RULE_FALLBACK:
		return Message(MsgSourceFallback, lang)
	}
	return string(s)
}
