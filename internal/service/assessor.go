package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/cardio-risk-mcp-server/internal/domain"
	"github.com/cardio-risk-mcp-server/internal/locale"
)

// errExtractorNotConfigured is reported in the document section when a document arrives
// but no extraction collaborator is wired.
var errExtractorNotConfigured = errors.New("document extraction is not configured")

// Collaborators are the optional external services of an assessment. Any of them may be
// nil: without a free-text classifier no conflict check runs, without an extractor
// documents are reported as unreadable, and without a summarizer the report has no
// narrative.
type Collaborators struct {
	FreeText   domain.TextClassifier
	Extractor  domain.DocumentExtractor
	Summarizer domain.Summarizer
}

// AssessmentOptions tunes the orchestration.
type AssessmentOptions struct {
	OverrideThreshold int
	ConflictMode      ConflictMode
	MaxFreeTextWords  int
	FreeTextTimeout   time.Duration
}

// AssessmentService runs the complete evaluation: extraction, normalization, rules and
// ensemble, reconciliation, conflict check, report and narrative.
type AssessmentService struct {
	logger          *logrus.Logger
	validate        *validator.Validate
	normalizer      *EvidenceNormalizer
	ruleEngine      *DiseaseRuleEngine
	ensemble        *EnsembleAggregator
	formatter       *ReportFormatter
	collaborators   Collaborators
	threshold       int
	conflictMode    ConflictMode
	freeTextTimeout time.Duration
}

// NewAssessmentService creates the orchestrator.
func NewAssessmentService(logger *logrus.Logger, ensemble *EnsembleAggregator, collaborators Collaborators, opts AssessmentOptions) *AssessmentService {
	if opts.OverrideThreshold <= 0 {
		opts.OverrideThreshold = DefaultOverrideThreshold
	}
	if opts.ConflictMode == "" {
		opts.ConflictMode = ConflictModeEnum
	}
	if opts.FreeTextTimeout <= 0 {
		opts.FreeTextTimeout = 30 * time.Second
	}
	return &AssessmentService{
		logger:          logger,
		validate:        validator.New(),
		normalizer:      NewEvidenceNormalizer(logger, opts.MaxFreeTextWords),
		ruleEngine:      NewDiseaseRuleEngine(logger),
		ensemble:        ensemble,
		formatter:       NewReportFormatter(logger),
		collaborators:   collaborators,
		threshold:       opts.OverrideThreshold,
		conflictMode:    opts.ConflictMode,
		freeTextTimeout: opts.FreeTextTimeout,
	}
}

// Assess performs one evaluation. Only validation failures and insufficient input are
// returned as errors; classifier, extraction and summarizer failures are reported inside
// the result.
func (s *AssessmentService) Assess(ctx context.Context, req *domain.AssessmentRequest) (*domain.AssessmentResult, error) {
	startTime := time.Now()

	raw, err := s.rawAnswers(req)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	s.logger.WithFields(logrus.Fields{
		"assessment_id": id,
		"language":      raw.Language,
		"has_document":  req.Document != nil || req.ExtractedValues != nil,
		"has_free_text": raw.FreeText != "",
	}).Info("Starting cardiovascular risk assessment")

	// Lab overrides depend on the document, so extraction completes before normalization.
	doc := s.extractDocument(ctx, req)

	record, err := s.normalizer.Normalize(raw, doc)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize evidence: %w", err)
	}

	var (
		opinions    []domain.ModelOpinion
		weighted    domain.WeightedVerdict
		freeOpinion *domain.ModelOpinion
		g           errgroup.Group
	)
	g.Go(func() error {
		opinions, weighted = s.ensemble.Evaluate(ctx, ModelInputText(record))
		return nil
	})
	if record.FreeText != "" && s.collaborators.FreeText != nil {
		g.Go(func() error {
			op := classifyOpinion(ctx, s.collaborators.FreeText, record.FreeText, s.freeTextTimeout)
			freeOpinion = &op
			return nil
		})
	}
	outcome := s.ruleEngine.Classify(record)
	_ = g.Wait()

	final := Reconcile(outcome.Score, outcome.RuleRisk, weighted.MostLikely, s.threshold)

	var conflict *domain.ConflictResult
	if freeOpinion != nil && !freeOpinion.Failed() && freeOpinion.MostLikely != nil {
		conflict = CheckConflict(s.conflictMode, final.RiskLevel, *freeOpinion.MostLikely, record.Language)
	} else if freeOpinion != nil && freeOpinion.Failed() {
		s.logger.WithField("error", freeOpinion.Error).Warn("Free-text classifier failed, skipping conflict check")
	}

	report := s.formatter.Format(domain.ReportInput{
		ID:              id,
		Record:          record,
		Outcome:         outcome,
		Opinions:        opinions,
		Weighted:        weighted,
		Final:           final,
		Conflict:        conflict,
		FreeTextOpinion: freeOpinion,
		Language:        record.Language,
	})

	if s.collaborators.Summarizer != nil {
		narrative, err := s.collaborators.Summarizer.Summarize(ctx, report, record.Language)
		if err != nil {
			s.logger.WithError(err).Warn("Narrative summarizer failed, returning report without narrative")
		} else {
			AttachNarrative(report, narrative)
		}
	}

	result := &domain.AssessmentResult{
		ID:             id,
		Record:         record,
		Outcome:        outcome,
		Opinions:       opinions,
		Weighted:       weighted,
		Final:          final,
		FreeText:       freeOpinion,
		Conflict:       conflict,
		Report:         report,
		Markdown:       RenderMarkdown(report),
		ProcessingTime: time.Since(startTime),
	}

	s.logger.WithFields(logrus.Fields(result.LogFields())).Info("Cardiovascular risk assessment completed")

	return result, nil
}

// ClassifyConditions runs only normalization and the rule set, without any collaborator.
func (s *AssessmentService) ClassifyConditions(req *domain.AssessmentRequest) (*domain.EvidenceRecord, domain.RuleOutcome, error) {
	raw, err := s.rawAnswers(req)
	if err != nil {
		return nil, domain.RuleOutcome{}, err
	}
	var doc *domain.ExtractionResult
	if req.ExtractedValues != nil {
		doc = &domain.ExtractionResult{Values: req.ExtractedValues}
	}
	record, err := s.normalizer.Normalize(raw, doc)
	if err != nil {
		return nil, domain.RuleOutcome{}, fmt.Errorf("failed to normalize evidence: %w", err)
	}
	return record, s.ruleEngine.Classify(record), nil
}

// ModelIDs returns the configured ensemble members.
func (s *AssessmentService) ModelIDs() []string {
	return s.ensemble.ModelIDs()
}

// rawAnswers validates the request and converts it to normalizer input.
func (s *AssessmentService) rawAnswers(req *domain.AssessmentRequest) (domain.RawAnswers, error) {
	if req == nil {
		return domain.RawAnswers{}, domain.NewValidationError("request", "request body is required", nil)
	}
	if err := s.validate.Struct(req); err != nil {
		return domain.RawAnswers{}, validationError(err)
	}
	lang, err := locale.ParseLanguage(req.Language)
	if err != nil {
		return domain.RawAnswers{}, domain.NewValidationError("language", "expected zh or en", req.Language)
	}
	return domain.RawAnswers{
		Language: lang,
		Symptoms: req.Symptoms,
		History:  req.History,
		Sex:      req.Sex,
		Labs:     req.Labs,
		FreeText: req.FreeText,
	}, nil
}

func (s *AssessmentService) extractDocument(ctx context.Context, req *domain.AssessmentRequest) *domain.ExtractionResult {
	switch {
	case req.ExtractedValues != nil:
		return &domain.ExtractionResult{Values: req.ExtractedValues}
	case req.Document == nil:
		return nil
	case s.collaborators.Extractor == nil:
		return domain.NewExtractionFailure(errExtractorNotConfigured)
	}
	result := s.collaborators.Extractor.Extract(ctx, req.Document)
	if result == nil {
		return domain.NewExtractionFailure(&domain.ExtractionError{Message: "extractor returned no result"})
	}
	if !result.OK() {
		s.logger.WithField("error", result.Error).Warn("Document extraction failed, continuing without document evidence")
	}
	return result
}

// validationError converts validator output to the domain error type.
func validationError(err error) error {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		fe := ve[0]
		return domain.NewValidationError(fe.Namespace(), "failed '"+fe.Tag()+"' validation", fe.Value())
	}
	return domain.NewValidationError("request", err.Error(), nil)
}
