package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/cardio-risk-mcp-server/internal/domain"
	"github.com/cardio-risk-mcp-server/internal/locale"
	"github.com/cardio-risk-mcp-server/pkg/external"
)

const serviceVersion = "1.0.0"

// conditionsResponse is the rules-only evaluation
type conditionsResponse struct {
	Evidence *domain.EvidenceRecord `json:"evidence"`
	Outcome  domain.RuleOutcome     `json:"rule_outcome"`
}

// handleHealth reports the status of each optional dependency. A failing dependency
// degrades the service but never takes it down.
func (s *Server) handleHealth(c *gin.Context) {
	health := external.CheckHealth(c.Request.Context(), s.checkers)
	status := "healthy"
	for _, h := range health {
		if !h.Healthy {
			status = "degraded"
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"status":       status,
		"timestamp":    time.Now(),
		"version":      serviceVersion,
		"dependencies": health,
	})
}

// handleAssessment runs one full evaluation. ?format=markdown returns the rendered report.
func (s *Server) handleAssessment(c *gin.Context) {
	var req domain.AssessmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, domain.NewAssessmentError(domain.ErrInvalidInput, "Malformed request body", err.Error(), ""))
		return
	}

	result, err := s.assessor.Assess(c.Request.Context(), &req)
	if err != nil {
		s.respondError(c, err)
		return
	}

	if c.Query("format") == "markdown" {
		c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(result.Markdown))
		return
	}
	c.JSON(http.StatusOK, result)
}

// handleConditions runs normalization and the rule set only
func (s *Server) handleConditions(c *gin.Context) {
	var req domain.AssessmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, domain.NewAssessmentError(domain.ErrInvalidInput, "Malformed request body", err.Error(), ""))
		return
	}

	record, outcome, err := s.assessor.ClassifyConditions(&req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, conditionsResponse{Evidence: record, Outcome: outcome})
}

// handleQuestionnaire returns the localized form definition
func (s *Server) handleQuestionnaire(c *gin.Context) {
	lang, err := locale.ParseLanguage(c.Query("lang"))
	if err != nil {
		s.respondError(c, domain.NewValidationError("lang", "expected zh or en", c.Query("lang")))
		return
	}
	c.JSON(http.StatusOK, locale.BuildQuestionnaire(lang))
}

// respondError writes the error envelope with the status matching its code
func (s *Server) respondError(c *gin.Context, err error) {
	correlationID := c.GetString("correlation_id")

	var envelope *domain.AssessmentError
	if !errors.As(err, &envelope) {
		code := domain.ErrorCode(err)
		message := err.Error()
		if code == domain.ErrInternalServer {
			message = "Internal server error"
		}
		envelope = domain.NewAssessmentError(code, message, "", correlationID)
	}
	if envelope.RequestID == "" {
		envelope.RequestID = correlationID
	}

	status := statusForCode(envelope.Code)
	entry := s.logger.WithFields(logrus.Fields{
		"correlation_id": correlationID,
		"code":           envelope.Code,
		"status":         status,
	})
	if status >= http.StatusInternalServerError {
		entry.WithError(err).Error("Request failed")
	} else {
		entry.Debug("Request rejected")
	}

	c.AbortWithStatusJSON(status, envelope)
}

func statusForCode(code string) int {
	switch code {
	case domain.ErrInvalidInput, domain.ErrValidation:
		return http.StatusBadRequest
	case domain.ErrInsufficientInput:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
