package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/cardio-risk-mcp-server/internal/domain"
	"github.com/cardio-risk-mcp-server/pkg/external"
)

// MockAssessor is a mock implementation of Assessor
type MockAssessor struct {
	mock.Mock
}

func (m *MockAssessor) Assess(ctx context.Context, req *domain.AssessmentRequest) (*domain.AssessmentResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AssessmentResult), args.Error(1)
}

func (m *MockAssessor) ClassifyConditions(req *domain.AssessmentRequest) (*domain.EvidenceRecord, domain.RuleOutcome, error) {
	args := m.Called(req)
	if args.Get(0) == nil {
		return nil, domain.RuleOutcome{}, args.Error(2)
	}
	return args.Get(0).(*domain.EvidenceRecord), args.Get(1).(domain.RuleOutcome), args.Error(2)
}

type stubConfigManager struct {
	config domain.Config
}

func (s *stubConfigManager) GetConfig() *domain.Config                 { return &s.config }
func (s *stubConfigManager) GetServerConfig() *domain.ServerConfig     { return &s.config.Server }
func (s *stubConfigManager) GetEnsembleConfig() *domain.EnsembleConfig { return &s.config.Ensemble }
func (s *stubConfigManager) Reload() error                             { return nil }
func (s *stubConfigManager) Validate() error                           { return nil }
func (s *stubConfigManager) IsProduction() bool                        { return false }
func (s *stubConfigManager) IsDevelopment() bool                       { return true }

type pingFunc func(context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func newTestServer(assessor Assessor, checkers map[string]external.HealthChecker) *Server {
	logger := logrus.New()
	logger.SetLevel(logrus.FatalLevel)
	server := NewServer(&stubConfigManager{config: domain.Config{Logging: domain.LoggingConfig{Level: "info"}}}, assessor, checkers, logger)
	gin.SetMode(gin.TestMode)
	return server
}

func doRequest(s *Server, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestHandleAssessment(t *testing.T) {
	result := &domain.AssessmentResult{
		ID:       "a-1",
		Final:    domain.FinalVerdict{RiskLevel: domain.RISK_HIGH, Source: domain.SOURCE_RULE_OVERRIDE},
		Markdown: "## Final Risk Level\n- High Risk\n",
	}
	assessor := new(MockAssessor)
	assessor.On("Assess", mock.Anything, mock.MatchedBy(func(req *domain.AssessmentRequest) bool {
		return req.Language == "en" && req.Labs["LDL-C (mg/dL)"] != nil
	})).Return(result, nil)
	server := newTestServer(assessor, nil)

	body := `{"language":"en","labs":{"LDL-C (mg/dL)":160}}`

	t.Run("json", func(t *testing.T) {
		w := doRequest(server, http.MethodPost, "/api/v1/assessments", body)
		require.Equal(t, http.StatusOK, w.Code)

		var got domain.AssessmentResult
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, "a-1", got.ID)
		assert.Equal(t, domain.RISK_HIGH, got.Final.RiskLevel)
		assert.NotEmpty(t, w.Header().Get("X-Correlation-ID"))
	})

	t.Run("markdown", func(t *testing.T) {
		w := doRequest(server, http.MethodPost, "/api/v1/assessments?format=markdown", body)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Header().Get("Content-Type"), "text/markdown")
		assert.Equal(t, result.Markdown, w.Body.String())
	})
}

func TestHandleAssessment_Errors(t *testing.T) {
	tests := []struct {
		name         string
		body         string
		err          error
		expectStatus int
		expectCode   string
	}{
		{
			name:         "malformed json",
			body:         `{"language":`,
			expectStatus: http.StatusBadRequest,
			expectCode:   domain.ErrInvalidInput,
		},
		{
			name:         "validation error",
			body:         `{"language":"fr"}`,
			err:          domain.NewValidationError("language", "expected zh or en", "fr"),
			expectStatus: http.StatusBadRequest,
			expectCode:   domain.ErrValidation,
		},
		{
			name:         "insufficient input",
			body:         `{}`,
			err:          fmt.Errorf("failed to normalize evidence: %w", domain.ErrNoEvidence),
			expectStatus: http.StatusUnprocessableEntity,
			expectCode:   domain.ErrInsufficientInput,
		},
		{
			name:         "internal error",
			body:         `{"free_text":"x"}`,
			err:          errors.New("disk on fire"),
			expectStatus: http.StatusInternalServerError,
			expectCode:   domain.ErrInternalServer,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assessor := new(MockAssessor)
			if tt.err != nil {
				assessor.On("Assess", mock.Anything, mock.Anything).Return(nil, tt.err)
			}
			server := newTestServer(assessor, nil)

			w := doRequest(server, http.MethodPost, "/api/v1/assessments", tt.body)
			require.Equal(t, tt.expectStatus, w.Code)

			var envelope domain.AssessmentError
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
			assert.Equal(t, tt.expectCode, envelope.Code)
			assert.Equal(t, w.Header().Get("X-Correlation-ID"), envelope.RequestID)
			assert.NotContains(t, envelope.Message, "disk on fire")
			assessor.AssertExpectations(t)
		})
	}
}

func TestHandleConditions(t *testing.T) {
	record := &domain.EvidenceRecord{Language: domain.LANG_ZH, Labs: map[domain.LabKey]float64{domain.LDL: 160}}
	outcome := domain.RuleOutcome{
		Findings: []domain.DiseaseFinding{{ConditionID: domain.COND_HYPERLIPIDEMIA}},
		RuleRisk: domain.RISK_LOW,
	}
	assessor := new(MockAssessor)
	assessor.On("ClassifyConditions", mock.Anything).Return(record, outcome, nil)
	server := newTestServer(assessor, nil)

	w := doRequest(server, http.MethodPost, "/api/v1/conditions", `{"labs":{"低密度脂蛋白 (LDL-C, mg/dL)":160}}`)
	require.Equal(t, http.StatusOK, w.Code)

	var got conditionsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got.Outcome.Findings, 1)
	assert.Equal(t, domain.COND_HYPERLIPIDEMIA, got.Outcome.Findings[0].ConditionID)
	assert.Equal(t, 160.0, got.Evidence.Labs[domain.LDL])
}

func TestHandleQuestionnaire(t *testing.T) {
	server := newTestServer(new(MockAssessor), nil)

	w := doRequest(server, http.MethodGet, "/api/v1/questionnaire?lang=en", "")
	require.Equal(t, http.StatusOK, w.Code)
	var q struct {
		Language string `json:"language"`
		Symptoms []struct {
			Key   string `json:"key"`
			Label string `json:"label"`
		} `json:"symptoms"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &q))
	assert.Equal(t, "en", q.Language)
	assert.NotEmpty(t, q.Symptoms)

	w = doRequest(server, http.MethodGet, "/api/v1/questionnaire?lang=tlh", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleHealth(t *testing.T) {
	server := newTestServer(new(MockAssessor), map[string]external.HealthChecker{
		"redis": pingFunc(func(context.Context) error { return errors.New("connection refused") }),
	})

	w := doRequest(server, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Status       string                   `json:"status"`
		Dependencies []external.ServiceHealth `json:"dependencies"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "degraded", body.Status)
	require.Len(t, body.Dependencies, 1)
	assert.False(t, body.Dependencies[0].Healthy)
}
