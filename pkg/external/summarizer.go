package external

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/cardio-risk-mcp-server/internal/domain"
)

// ReportRenderer turns a structured report into the text shown to the summarizer model
type ReportRenderer func(report *domain.StructuredReport) string

const summaryPromptZH = `你是一个医学风险分析助手。

评估结果如下：
%s

请根据上方的评估结果，生成一份详细的用户报告，但不要重复或引用原文，仅根据其信息进行总结和建议，内容包括：
1. 总体风险等级判断
2. 各模型之间的一致性或差异分析
3. 风险等级建议
4. 针对用户的具体行动建议（如是否需要就医、紧急程度、可否观察等待、应准备哪些信息等）
请只用中文输出。`

const summaryPromptEN = `You are a medical risk analysis assistant.

The assessment result is as follows:
%s

Based on the above assessment, generate a detailed user report, but do not repeat or quote it verbatim. Use its information to summarize and provide recommendations, including:
1. Overall risk level assessment
2. Consistency or differences among models
3. Risk level recommendation
4. Specific user action suggestions (e.g., whether to see a doctor, urgency, whether to wait and observe, what information to prepare, etc.)
Please output only in English.`

// LLMSummarizer writes the narrative section with a chat model
type LLMSummarizer struct {
	client *ChatClient
	render ReportRenderer
	logger *logrus.Logger
}

// NewLLMSummarizer creates a narrative summarizer
func NewLLMSummarizer(config domain.LLMClientConfig, render ReportRenderer, logger *logrus.Logger) *LLMSummarizer {
	return &LLMSummarizer{
		client: NewChatClient("summarizer", config, logger),
		render: render,
		logger: logger,
	}
}

// Summarize implements domain.Summarizer
func (s *LLMSummarizer) Summarize(ctx context.Context, report *domain.StructuredReport, lang domain.Language) (string, error) {
	prompt := summaryPromptEN
	if lang == domain.LANG_ZH {
		prompt = summaryPromptZH
	}

	reply, err := s.client.Complete(ctx, []ChatMessage{
		{Role: "system", Content: "You are a helpful assistant."},
		{Role: "user", Content: fmt.Sprintf(prompt, s.render(report))},
	}, 0.3)
	if err != nil {
		return "", fmt.Errorf("failed to generate narrative: %w", err)
	}

	narrative := strings.TrimSpace(reply)
	if narrative == "" {
		return "", fmt.Errorf("summarizer returned an empty narrative")
	}

	s.logger.WithFields(logrus.Fields{
		"report_id": report.ID,
		"language":  lang,
		"length":    len(narrative),
	}).Debug("Generated report narrative")

	return narrative, nil
}
