package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/cardio-risk-mcp-server/internal/domain"
)

// DefaultModelWeight applies to models absent from the weight table.
const DefaultModelWeight = 1.0

// labelRisk is the fixed classifier label table. Other labels are dropped.
var labelRisk = map[string]domain.RiskLevel{
	"LABEL_0": domain.RISK_LOW,
	"LABEL_1": domain.RISK_MODERATE,
	"LABEL_2": domain.RISK_HIGH,
}

var errNoRecognizedLabels = errors.New("response contained no recognized labels")

// ToDistribution maps raw label scores onto risk levels. Unrecognized labels are dropped;
// a repeated label keeps its last score.
func ToDistribution(scores []domain.LabelScore) map[domain.RiskLevel]float64 {
	dist := make(map[domain.RiskLevel]float64, len(domain.RiskLevels))
	for _, s := range scores {
		if level, ok := labelRisk[s.Label]; ok {
			dist[level] = s.Score
		}
	}
	return dist
}

// MostLikely returns the arg-max level. Exact ties go to the more severe level. A
// distribution with no positive score has no most likely level.
func MostLikely(dist map[domain.RiskLevel]float64) *domain.RiskLevel {
	var best *domain.RiskLevel
	bestScore := 0.0
	for _, level := range domain.RiskLevels {
		score, ok := dist[level]
		if !ok || score <= 0 {
			continue
		}
		if best == nil || score >= bestScore {
			best = domain.RiskPtr(level)
			bestScore = score
		}
	}
	return best
}

// Aggregate combines model opinions into a weighted verdict. Failed models contribute
// nothing and are excluded from the divisor. With DIVIDE_BY_MODEL_COUNT the weighted sums
// are divided by the number of successful models; with DIVIDE_BY_WEIGHT_SUM by the sum of
// their weights. When no model succeeded MostLikely is nil and the distribution is zero.
func Aggregate(opinions []domain.ModelOpinion, weights map[string]float64, policy domain.AggregationPolicy) domain.WeightedVerdict {
	if !policy.IsValid() {
		policy = domain.DIVIDE_BY_MODEL_COUNT
	}
	sums := domain.ZeroDistribution()
	count := 0
	weightSum := 0.0

	for _, o := range opinions {
		if o.Failed() || len(o.Distribution) == 0 {
			continue
		}
		w, ok := weights[o.ModelID]
		if !ok {
			w = DefaultModelWeight
		}
		for _, level := range domain.RiskLevels {
			sums[level] += o.Distribution[level] * w
		}
		count++
		weightSum += w
	}

	verdict := domain.WeightedVerdict{Distribution: sums, ModelsUsed: count, Policy: policy}
	if count == 0 {
		return verdict
	}

	divisor := float64(count)
	if policy == domain.DIVIDE_BY_WEIGHT_SUM {
		divisor = weightSum
	}
	if divisor > 0 {
		for _, level := range domain.RiskLevels {
			sums[level] /= divisor
		}
	}
	verdict.MostLikely = MostLikely(sums)
	return verdict
}

// EnsembleAggregator invokes the classifier ensemble concurrently and aggregates the
// answers. Each model runs behind its own timeout and panic boundary, so one model's
// failure never affects another's result.
type EnsembleAggregator struct {
	logger         *logrus.Logger
	classifiers    []domain.TextClassifier
	weights        map[string]float64
	policy         domain.AggregationPolicy
	timeout        time.Duration
	maxConcurrency int
}

// EnsembleOptions tunes the aggregator.
type EnsembleOptions struct {
	Weights        map[string]float64
	Policy         domain.AggregationPolicy
	Timeout        time.Duration
	MaxConcurrency int
}

// NewEnsembleAggregator creates an aggregator over the given classifiers.
func NewEnsembleAggregator(logger *logrus.Logger, classifiers []domain.TextClassifier, opts EnsembleOptions) *EnsembleAggregator {
	if opts.Policy == "" {
		opts.Policy = domain.DIVIDE_BY_MODEL_COUNT
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Weights == nil {
		opts.Weights = map[string]float64{}
	}
	return &EnsembleAggregator{
		logger:         logger,
		classifiers:    classifiers,
		weights:        opts.Weights,
		policy:         opts.Policy,
		timeout:        opts.Timeout,
		maxConcurrency: opts.MaxConcurrency,
	}
}

// ModelIDs returns the ensemble members in invocation order.
func (a *EnsembleAggregator) ModelIDs() []string {
	ids := make([]string, 0, len(a.classifiers))
	for _, c := range a.classifiers {
		ids = append(ids, c.ID())
	}
	return ids
}

// Collect classifies text with every model. The result has one opinion per model, in
// ensemble order, successful or not.
func (a *EnsembleAggregator) Collect(ctx context.Context, text string) []domain.ModelOpinion {
	opinions := make([]domain.ModelOpinion, len(a.classifiers))

	var g errgroup.Group
	if a.maxConcurrency > 0 {
		g.SetLimit(a.maxConcurrency)
	}
	for i, c := range a.classifiers {
		g.Go(func() error {
			opinions[i] = classifyOpinion(ctx, c, text, a.timeout)
			if opinions[i].Failed() {
				a.logger.WithFields(logrus.Fields{
					"model_id": c.ID(),
					"error":    opinions[i].Error,
				}).Warn("Classifier failed, excluding it from aggregation")
			}
			return nil
		})
	}
	_ = g.Wait()

	return opinions
}

// Evaluate collects opinions and aggregates them with the configured weights and policy.
func (a *EnsembleAggregator) Evaluate(ctx context.Context, text string) ([]domain.ModelOpinion, domain.WeightedVerdict) {
	opinions := a.Collect(ctx, text)
	verdict := Aggregate(opinions, a.weights, a.policy)

	fields := logrus.Fields{
		"models_used":  verdict.ModelsUsed,
		"models_total": len(opinions),
		"policy":       verdict.Policy,
	}
	if verdict.MostLikely != nil {
		fields["ensemble_risk"] = *verdict.MostLikely
	}
	if err := verdict.Err(); err != nil && len(opinions) > 0 {
		a.logger.WithFields(fields).WithError(err).Warn("Falling back to the rule engine alone")
	} else {
		a.logger.WithFields(fields).Debug("Aggregated ensemble opinions")
	}

	return opinions, verdict
}

// classifyOpinion runs one classifier inside its own error boundary.
func classifyOpinion(ctx context.Context, c domain.TextClassifier, text string, timeout time.Duration) (opinion domain.ModelOpinion) {
	start := time.Now()
	opinion = domain.ModelOpinion{ModelID: c.ID(), Distribution: map[domain.RiskLevel]float64{}}

	defer func() {
		if r := recover(); r != nil {
			err := &domain.ClassifierError{ModelID: c.ID(), Cause: fmt.Errorf("panic: %v", r)}
			opinion = domain.ModelOpinion{
				ModelID:      c.ID(),
				Distribution: map[domain.RiskLevel]float64{},
				Error:        err.Error(),
				Latency:      time.Since(start),
			}
		}
	}()

	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	scores, err := c.Classify(cctx, text)
	opinion.Latency = time.Since(start)
	if err != nil {
		opinion.Error = (&domain.ClassifierError{ModelID: c.ID(), Cause: err}).Error()
		return opinion
	}

	dist := ToDistribution(scores)
	if len(dist) == 0 {
		opinion.Error = (&domain.ClassifierError{ModelID: c.ID(), Cause: errNoRecognizedLabels}).Error()
		return opinion
	}
	opinion.Distribution = dist
	opinion.MostLikely = MostLikely(dist)
	return opinion
}
