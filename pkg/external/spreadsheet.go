package external

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"github.com/cardio-risk-mcp-server/internal/domain"
)

// headerNames mark a leading header row in a lab report sheet
var headerNames = map[string]bool{
	"test": true, "item": true, "name": true, "parameter": true,
	"项目": true, "检验项目": true, "检查项目": true, "名称": true,
}

// SpreadsheetExtractor reads lab values from an .xlsx report without a language model.
// The first sheet is read as rows of name, value, unit, reference range.
type SpreadsheetExtractor struct {
	logger *logrus.Logger
}

// NewSpreadsheetExtractor creates a spreadsheet extractor
func NewSpreadsheetExtractor(logger *logrus.Logger) *SpreadsheetExtractor {
	return &SpreadsheetExtractor{logger: logger}
}

// IsSpreadsheet reports whether the document is handled by SpreadsheetExtractor
func IsSpreadsheet(doc *domain.DocumentInput) bool {
	return strings.EqualFold(filepath.Ext(doc.Filename), ".xlsx")
}

// Extract implements domain.DocumentExtractor. Content is the base64 encoded workbook.
func (e *SpreadsheetExtractor) Extract(_ context.Context, doc *domain.DocumentInput) *domain.ExtractionResult {
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(doc.Content))
	if err != nil {
		return domain.NewExtractionFailure(&domain.ExtractionError{Message: "spreadsheet content is not base64", Cause: err})
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return domain.NewExtractionFailure(&domain.ExtractionError{Message: "failed to parse spreadsheet", Cause: err})
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return domain.NewExtractionFailure(&domain.ExtractionError{Message: "spreadsheet has no sheets"})
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return domain.NewExtractionFailure(&domain.ExtractionError{Message: fmt.Sprintf("failed to read sheet %s", sheetName), Cause: err})
	}

	values := make(map[string]string, len(rows))
	for i, row := range rows {
		if len(row) < 2 {
			continue
		}
		name := strings.TrimSpace(row[0])
		if name == "" || (i == 0 && headerNames[strings.ToLower(name)]) {
			continue
		}
		value := strings.TrimSpace(row[1])
		if value == "" {
			continue
		}
		if len(row) > 2 && strings.TrimSpace(row[2]) != "" {
			value += " " + strings.TrimSpace(row[2])
		}
		if len(row) > 3 && strings.TrimSpace(row[3]) != "" {
			value += " (" + strings.TrimSpace(row[3]) + ")"
		}
		values[name] = value
	}

	e.logger.WithFields(logrus.Fields{
		"filename": doc.Filename,
		"sheet":    sheetName,
		"values":   len(values),
	}).Debug("Read spreadsheet values")

	return &domain.ExtractionResult{Values: values}
}

// DocumentRouter sends spreadsheets to the spreadsheet reader and everything else to
// the text extractor, which may be nil.
type DocumentRouter struct {
	spreadsheet domain.DocumentExtractor
	text        domain.DocumentExtractor
}

// NewDocumentRouter creates a router. text may be nil.
func NewDocumentRouter(spreadsheet, text domain.DocumentExtractor) *DocumentRouter {
	return &DocumentRouter{spreadsheet: spreadsheet, text: text}
}

// Extract implements domain.DocumentExtractor
func (r *DocumentRouter) Extract(ctx context.Context, doc *domain.DocumentInput) *domain.ExtractionResult {
	if IsSpreadsheet(doc) {
		return r.spreadsheet.Extract(ctx, doc)
	}
	if r.text == nil {
		return domain.NewExtractionFailure(&domain.ExtractionError{Message: "document extraction is not configured"})
	}
	return r.text.Extract(ctx, doc)
}
