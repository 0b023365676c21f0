package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/cardio-risk-mcp-server/internal/domain"
	"github.com/cardio-risk-mcp-server/internal/locale"
)

const (
	questionnaireURIPrefix = "cardio-risk://questionnaire/"

	// PromptInterview walks a patient through the questionnaire before assessing
	PromptInterview = "cardio_risk_interview"
)

// QuestionnaireURI is the resource URI of the questionnaire in lang
func QuestionnaireURI(lang domain.Language) string {
	return questionnaireURIPrefix + string(lang)
}

// registerResources exposes the questionnaire in every language as a JSON resource
func (s *Server) registerResources() {
	for _, lang := range []domain.Language{domain.LANG_ZH, domain.LANG_EN} {
		s.mcpServer.AddResource(&mcp.Resource{
			URI:         QuestionnaireURI(lang),
			Name:        "questionnaire-" + string(lang),
			Description: fmt.Sprintf("Cardiovascular risk questionnaire (%s): labels, canonical keys, lab units and ranges", lang),
			MIMEType:    "application/json",
		}, s.readQuestionnaire)
	}
}

func (s *Server) readQuestionnaire(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := req.Params.URI
	lang, err := locale.ParseLanguage(strings.TrimPrefix(uri, questionnaireURIPrefix))
	if err != nil || !strings.HasPrefix(uri, questionnaireURIPrefix) {
		return nil, mcp.ResourceNotFoundError(uri)
	}

	data, err := json.MarshalIndent(locale.BuildQuestionnaire(lang), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal questionnaire: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

var interviewInstructions = map[domain.Language]string{
	domain.LANG_ZH: "请逐项询问用户以下问题，收集答案后调用 %s 工具进行心血管风险评估，并用中文解释结果。\n\n%s\n\n%s",
	domain.LANG_EN: "Ask the user each of the following questions, then call the %s tool with the answers and explain the result in English.\n\n%s\n\n%s",
}

// registerPrompts adds the guided interview prompt
func (s *Server) registerPrompts() {
	s.mcpServer.AddPrompt(&mcp.Prompt{
		Name:        PromptInterview,
		Description: "Guided cardiovascular risk interview: asks the questionnaire, then calls " + ToolAssess,
		Arguments: []*mcp.PromptArgument{{
			Name:        "language",
			Description: "zh or en (default zh)",
		}},
	}, s.handleInterviewPrompt)
}

func (s *Server) handleInterviewPrompt(ctx context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	var requested string
	if req.Params != nil {
		requested = req.Params.Arguments["language"]
	}
	lang, err := locale.ParseLanguage(requested)
	if err != nil {
		return nil, err
	}

	q := locale.BuildQuestionnaire(lang)
	text := fmt.Sprintf(interviewInstructions[lang], ToolAssess, questionnaireText(q), locale.Message(locale.MsgDisclaimer, lang))

	return &mcp.GetPromptResult{
		Description: "Cardiovascular risk interview (" + string(lang) + ")",
		Messages: []*mcp.PromptMessage{{
			Role:    "user",
			Content: &mcp.TextContent{Text: text},
		}},
	}, nil
}
