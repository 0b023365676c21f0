package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/cardio-risk-mcp-server/internal/domain"
	"github.com/cardio-risk-mcp-server/internal/service"
)

// Assessor is the engine behind the MCP tools
type Assessor interface {
	Assess(ctx context.Context, req *domain.AssessmentRequest) (*domain.AssessmentResult, error)
	ClassifyConditions(req *domain.AssessmentRequest) (*domain.EvidenceRecord, domain.RuleOutcome, error)
}

// Server represents the cardiovascular risk MCP server
type Server struct {
	config       domain.ConfigManager
	assessor     Assessor
	conflictMode service.ConflictMode
	mcpServer    *mcp.Server
	logger       *logrus.Logger
}

// NewServer creates a new MCP server instance with every tool, resource and prompt registered
func NewServer(configManager domain.ConfigManager, assessor Assessor, logger *logrus.Logger) (*Server, error) {
	cfg := configManager.GetConfig()

	// Create server info
	serverInfo := &mcp.Implementation{
		Name:    cfg.MCP.ServerName,
		Version: cfg.MCP.ServerVersion,
	}

	server := &Server{
		config:       configManager,
		assessor:     assessor,
		conflictMode: service.ConflictMode(cfg.Conflict.Mode),
		mcpServer:    mcp.NewServer(serverInfo, nil),
		logger:       logger,
	}

	if err := server.registerTools(); err != nil {
		return nil, fmt.Errorf("failed to register tools: %w", err)
	}
	server.registerResources()
	server.registerPrompts()

	return server, nil
}

// Start serves MCP over stdio until ctx is cancelled or the client disconnects
func (s *Server) Start(ctx context.Context) error {
	s.logger.WithFields(logrus.Fields{
		"server_name":    s.config.GetConfig().MCP.ServerName,
		"server_version": s.config.GetConfig().MCP.ServerVersion,
		"transport_type": "stdio",
	}).Info("Starting cardiovascular risk MCP server")

	if err := s.mcpServer.Run(ctx, &mcp.StdioTransport{}); err != nil {
		return fmt.Errorf("MCP server failed: %w", err)
	}
	return nil
}

// registerTools registers the assessment tools with the MCP SDK
func (s *Server) registerTools() error {
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name: ToolAssess,
		Description: "Assess cardiovascular risk from bilingual (zh/en) questionnaire answers, lab values, " +
			"an optional lab report document and optional free-text symptoms. Returns the final risk level, " +
			"how it was decided, rule findings, per-model opinions and a localized Markdown report.",
	}, s.handleAssess)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name: ToolClassifyConditions,
		Description: "Run only the rule-based disease classifier: returns triggered conditions with severity " +
			"and recommendations, the HEART-style rule score and the Framingham score. No model is called.",
	}, s.handleClassifyConditions)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name: ToolDetectConflict,
		Description: "Check whether a structured verdict and a free-text verdict disagree (one low risk, " +
			"the other high risk). Accepts rendered labels or LOW/MODERATE/HIGH levels.",
	}, s.handleDetectConflict)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        ToolQuestionnaire,
		Description: "Return the localized questionnaire: symptom and history questions, sex options and lab parameters with units, ranges and defaults.",
	}, s.handleQuestionnaire)

	s.logger.WithField("tool_count", 4).Info("Successfully registered all tools")
	return nil
}

// createErrorResult creates a standardized error result for tool calls
func createErrorResult(message string, err error) *mcp.CallToolResult {
	errorText := fmt.Sprintf("Error: %s", message)
	if err != nil {
		errorText += fmt.Sprintf(" - %v", err)
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: errorText},
		},
		IsError: true,
	}
}
