package external

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/cardio-risk-mcp-server/internal/domain"
)

const extractionPrompt = `You are a medical document analysis assistant.

Given the following health checkup document text:

"""%s"""

Extract all meaningful medical key-value pairs, such as lab test names and their corresponding values, and return them in flat JSON format like:

{
  "Test Name 1": "Value 1",
  "Test Name 2": "Value 2"
}

Include units and reference ranges where applicable. Do not group by section. Reply with the JSON object only.`

// LLMDocumentExtractor extracts lab values from document text with a chat model
type LLMDocumentExtractor struct {
	client *ChatClient
	logger *logrus.Logger
}

// NewLLMDocumentExtractor creates a document extractor
func NewLLMDocumentExtractor(config domain.LLMClientConfig, logger *logrus.Logger) *LLMDocumentExtractor {
	return &LLMDocumentExtractor{
		client: NewChatClient("extractor", config, logger),
		logger: logger,
	}
}

// Extract implements domain.DocumentExtractor
func (e *LLMDocumentExtractor) Extract(ctx context.Context, doc *domain.DocumentInput) *domain.ExtractionResult {
	reply, err := e.client.Complete(ctx, []ChatMessage{
		{Role: "user", Content: fmt.Sprintf(extractionPrompt, doc.Content)},
	}, 0.2)
	if err != nil {
		return domain.NewExtractionFailure(&domain.ExtractionError{Message: "extraction request failed", Cause: err})
	}

	values, err := ParseExtractionReply(reply)
	if err != nil {
		e.logger.WithFields(logrus.Fields{
			"filename":     doc.Filename,
			"reply_length": len(reply),
		}).Warn("Extraction reply was not a JSON object")
		return domain.NewExtractionFailure(err)
	}

	e.logger.WithFields(logrus.Fields{
		"filename": doc.Filename,
		"values":   len(values),
	}).Debug("Extracted document values")

	return &domain.ExtractionResult{Values: values}
}

// ParseExtractionReply decodes the model's JSON object. Markdown code fences are
// stripped. Nested {value, unit, reference_range} objects are flattened to
// "value unit (range)", nulls are dropped and other values are kept as raw JSON.
func ParseExtractionReply(reply string) (map[string]string, error) {
	body := strings.TrimSpace(reply)
	if strings.HasPrefix(body, "```") {
		body = strings.TrimPrefix(body, "```json")
		body = strings.TrimPrefix(body, "```")
		body = strings.TrimSuffix(strings.TrimSpace(body), "```")
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &raw); err != nil {
		return nil, &domain.ExtractionError{Message: "reply is not a JSON object", Cause: err}
	}

	values := make(map[string]string, len(raw))
	for name, msg := range raw {
		if v := flattenValue(msg); v != "" {
			values[name] = v
		}
	}
	return values, nil
}

func flattenValue(msg json.RawMessage) string {
	var s string
	if err := json.Unmarshal(msg, &s); err == nil {
		return strings.TrimSpace(s)
	}

	var n json.Number
	if err := json.Unmarshal(msg, &n); err == nil {
		return n.String()
	}

	var nested struct {
		Value          json.RawMessage `json:"value"`
		Unit           string          `json:"unit"`
		ReferenceRange string          `json:"reference_range"`
	}
	if err := json.Unmarshal(msg, &nested); err == nil && len(nested.Value) > 0 {
		out := flattenValue(nested.Value)
		if out == "" {
			return ""
		}
		if nested.Unit != "" {
			out += " " + nested.Unit
		}
		if nested.ReferenceRange != "" {
			out += " (" + nested.ReferenceRange + ")"
		}
		return out
	}

	var b bool
	if err := json.Unmarshal(msg, &b); err == nil {
		return strconv.FormatBool(b)
	}
	return string(msg)
}
