package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/cardio-risk-mcp-server/internal/domain"
	"github.com/cardio-risk-mcp-server/internal/locale"
	"github.com/cardio-risk-mcp-server/internal/logging"
	"github.com/cardio-risk-mcp-server/internal/service"
)

// Tool names
const (
	ToolAssess             = "assess_cardiovascular_risk"
	ToolClassifyConditions = "classify_conditions"
	ToolDetectConflict     = "detect_conflict"
	ToolQuestionnaire      = "get_questionnaire"
)

// ConditionSummary is one localized rule finding
type ConditionSummary struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Severity       string `json:"severity"`
	Recommendation string `json:"recommendation"`
}

// AssessmentSummary defines the structured result of assess_cardiovascular_risk. The
// full Markdown report is returned as text content.
type AssessmentSummary struct {
	AssessmentID      string             `json:"assessment_id"`
	FinalRisk         string             `json:"final_risk"`
	FinalRiskLabel    string             `json:"final_risk_label"`
	VerdictSource     string             `json:"verdict_source"`
	RuleScore         int                `json:"rule_score"`
	RuleRisk          string             `json:"rule_risk"`
	FraminghamScore   int                `json:"framingham_score"`
	EnsembleRisk      string             `json:"ensemble_risk,omitempty"`
	ModelsFailed      []string           `json:"models_failed,omitempty"`
	Conditions        []ConditionSummary `json:"conditions"`
	ConflictDetected  bool               `json:"conflict_detected"`
	DocumentOverrides int                `json:"document_overrides"`
	ExtractionError   string             `json:"extraction_error,omitempty"`
}

// ConditionsResult defines the result structure for classify_conditions
type ConditionsResult struct {
	Language        string             `json:"language"`
	RuleScore       int                `json:"rule_score"`
	RuleRisk        string             `json:"rule_risk"`
	FraminghamScore int                `json:"framingham_score"`
	MostSevere      string             `json:"most_severe,omitempty"`
	Conditions      []ConditionSummary `json:"conditions"`
}

// DetectConflictParams defines parameters for detect_conflict
type DetectConflictParams struct {
	StructuredVerdict string `json:"structured_verdict" jsonschema:"structured verdict: a rendered label such as 'High Risk' or a level such as HIGH"`
	FreeTextVerdict   string `json:"free_text_verdict" jsonschema:"free-text verdict in the same form"`
	Language          string `json:"language,omitempty" jsonschema:"language of the explanation, zh or en"`
}

// DetectConflictResult defines the result structure for detect_conflict
type DetectConflictResult struct {
	Conflict bool   `json:"conflict"`
	Method   string `json:"method"`
	Message  string `json:"message,omitempty"`
}

// QuestionnaireParams defines parameters for get_questionnaire
type QuestionnaireParams struct {
	Language string `json:"language,omitempty" jsonschema:"zh (default) or en"`
}

// operationParams summarises a request for the operation log. Keys avoid the
// redacted fragments so the counts stay visible; answers themselves are never logged.
func operationParams(req *domain.AssessmentRequest) map[string]interface{} {
	return map[string]interface{}{
		"language":        req.Language,
		"answered":        len(req.Symptoms) + len(req.History),
		"measurements":    len(req.Labs),
		"with_attachment": req.Document != nil || req.ExtractedValues != nil,
	}
}

// handleAssess handles the assess_cardiovascular_risk tool invocation
func (s *Server) handleAssess(ctx context.Context, req *mcp.CallToolRequest, params domain.AssessmentRequest) (*mcp.CallToolResult, AssessmentSummary, error) {
	ctx, op := logging.StartOperation(ctx, s.logger, logging.OperationToolCall, ToolAssess, operationParams(&params))

	if timeout := s.config.GetConfig().MCP.RequestTimeout; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	result, err := s.assessor.Assess(ctx, &params)
	op.End(err)
	if err != nil {
		return toolError(err), AssessmentSummary{}, nil
	}

	lang := result.Record.Language
	summary := AssessmentSummary{
		AssessmentID:      result.ID,
		FinalRisk:         string(result.Final.RiskLevel),
		FinalRiskLabel:    locale.RiskLabel(result.Final.RiskLevel, lang),
		VerdictSource:     string(result.Final.Source),
		RuleScore:         result.Outcome.Score,
		RuleRisk:          string(result.Outcome.RuleRisk),
		FraminghamScore:   result.Outcome.FraminghamScore,
		Conditions:        summarizeFindings(result.Outcome, lang),
		ConflictDetected:  result.Conflict != nil && result.Conflict.Detected,
		DocumentOverrides: len(result.Record.Overrides),
		ExtractionError:   result.Record.ExtractionError,
	}
	if result.Weighted.MostLikely != nil {
		summary.EnsembleRisk = string(*result.Weighted.MostLikely)
	}
	for _, o := range result.Opinions {
		if o.Failed() {
			summary.ModelsFailed = append(summary.ModelsFailed, o.ModelID)
		}
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: result.Markdown}},
	}, summary, nil
}

// handleClassifyConditions handles the classify_conditions tool invocation
func (s *Server) handleClassifyConditions(ctx context.Context, req *mcp.CallToolRequest, params domain.AssessmentRequest) (*mcp.CallToolResult, ConditionsResult, error) {
	_, op := logging.StartOperation(ctx, s.logger, logging.OperationToolCall, ToolClassifyConditions, operationParams(&params))

	record, outcome, err := s.assessor.ClassifyConditions(&params)
	op.End(err)
	if err != nil {
		return toolError(err), ConditionsResult{}, nil
	}

	result := ConditionsResult{
		Language:        string(record.Language),
		RuleScore:       outcome.Score,
		RuleRisk:        string(outcome.RuleRisk),
		FraminghamScore: outcome.FraminghamScore,
		Conditions:      summarizeFindings(outcome, record.Language),
	}
	if most := outcome.MostSevere(); most != domain.SEVERITY_NONE {
		result.MostSevere = locale.SeverityName(most, record.Language)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d %s (%s)", locale.Message(locale.MsgHeartScore, record.Language),
		outcome.Score, locale.Message(locale.MsgPoints, record.Language), locale.RiskLabel(outcome.RuleRisk, record.Language))
	for _, c := range result.Conditions {
		fmt.Fprintf(&b, "\n- %s (%s): %s", c.Name, c.Severity, c.Recommendation)
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: b.String()}},
	}, result, nil
}

// handleDetectConflict handles the detect_conflict tool invocation. Two risk level
// names are compared as levels; anything else is searched for the rendered markers.
func (s *Server) handleDetectConflict(ctx context.Context, req *mcp.CallToolRequest, params DetectConflictParams) (*mcp.CallToolResult, DetectConflictResult, error) {
	lang, err := locale.ParseLanguage(params.Language)
	if err != nil {
		return createErrorResult("Invalid language", err), DetectConflictResult{}, nil
	}

	var result DetectConflictResult
	structured, errS := domain.ParseRiskLevel(params.StructuredVerdict)
	freeText, errF := domain.ParseRiskLevel(params.FreeTextVerdict)
	if errS == nil && errF == nil {
		result.Method = string(service.ConflictModeEnum)
		result.Conflict = service.DetectLevelConflict(structured, freeText)
	} else {
		result.Method = string(service.ConflictModeText)
		result.Conflict = service.DetectConflict(params.StructuredVerdict, params.FreeTextVerdict)
	}

	text := "no conflict"
	if result.Conflict {
		result.Message = locale.Message(locale.MsgConflict, lang)
		text = result.Message
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}, result, nil
}

// handleQuestionnaire handles the get_questionnaire tool invocation
func (s *Server) handleQuestionnaire(ctx context.Context, req *mcp.CallToolRequest, params QuestionnaireParams) (*mcp.CallToolResult, locale.Questionnaire, error) {
	lang, err := locale.ParseLanguage(params.Language)
	if err != nil {
		return createErrorResult("Invalid language", err), locale.Questionnaire{}, nil
	}
	q := locale.BuildQuestionnaire(lang)
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: questionnaireText(q)}},
	}, *q, nil
}

func questionnaireText(q *locale.Questionnaire) string {
	var b strings.Builder
	b.WriteString(locale.Message(locale.MsgSymptoms, q.Language) + ":")
	for _, item := range q.Symptoms {
		b.WriteString("\n- " + item.Label)
	}
	b.WriteString("\n" + locale.Message(locale.MsgHistory, q.Language) + ":")
	for _, item := range q.History {
		b.WriteString("\n- " + item.Label)
	}
	b.WriteString("\n- " + q.Sex.Label)
	b.WriteString("\n" + locale.Message(locale.MsgLabs, q.Language) + ":")
	for _, lab := range q.Labs {
		fmt.Fprintf(&b, "\n- %s [%g-%g]", lab.Label, lab.Min, lab.Max)
	}
	return b.String()
}

func summarizeFindings(outcome domain.RuleOutcome, lang domain.Language) []ConditionSummary {
	conditions := make([]ConditionSummary, 0, len(outcome.Findings))
	for _, f := range outcome.Findings {
		conditions = append(conditions, ConditionSummary{
			ID:             string(f.ConditionID),
			Name:           locale.ConditionName(f, lang),
			Severity:       locale.SeverityName(f.Severity, lang),
			Recommendation: locale.Recommendation(f.RecommendationID, lang),
		})
	}
	return conditions
}

// toolError maps an engine error to a tool error result. Internal failures are not
// described to the client.
func toolError(err error) *mcp.CallToolResult {
	code := domain.ErrorCode(err)
	if code == domain.ErrInternalServer && !errors.Is(err, context.DeadlineExceeded) {
		return createErrorResult(code, nil)
	}
	return createErrorResult(code, err)
}
