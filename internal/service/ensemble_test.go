package service

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/cardio-risk-mcp-server/internal/domain"
)

// MockTextClassifier is a mock implementation of domain.TextClassifier
type MockTextClassifier struct {
	mock.Mock
	id string
}

func newMockClassifier(id string) *MockTextClassifier {
	return &MockTextClassifier{id: id}
}

func (m *MockTextClassifier) ID() string {
	return m.id
}

func (m *MockTextClassifier) Classify(ctx context.Context, text string) ([]domain.LabelScore, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.LabelScore), args.Error(1)
}

// panicClassifier panics on every call.
type panicClassifier struct{}

func (panicClassifier) ID() string { return "panicky" }

func (panicClassifier) Classify(context.Context, string) ([]domain.LabelScore, error) {
	panic("model crashed")
}

// slowClassifier blocks until its context ends.
type slowClassifier struct{}

func (slowClassifier) ID() string { return "slow" }

func (slowClassifier) Classify(ctx context.Context, _ string) ([]domain.LabelScore, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func opinion(id string, low, moderate, high float64) domain.ModelOpinion {
	dist := map[domain.RiskLevel]float64{
		domain.RISK_LOW:      low,
		domain.RISK_MODERATE: moderate,
		domain.RISK_HIGH:     high,
	}
	return domain.ModelOpinion{ModelID: id, Distribution: dist, MostLikely: MostLikely(dist)}
}

func TestMostLikely(t *testing.T) {
	assert.Nil(t, MostLikely(nil))
	assert.Nil(t, MostLikely(domain.ZeroDistribution()))

	got := MostLikely(map[domain.RiskLevel]float64{domain.RISK_LOW: 0.2, domain.RISK_MODERATE: 0.7, domain.RISK_HIGH: 0.1})
	require.NotNil(t, got)
	assert.Equal(t, domain.RISK_MODERATE, *got)

	tie := MostLikely(map[domain.RiskLevel]float64{domain.RISK_LOW: 0.5, domain.RISK_HIGH: 0.5})
	require.NotNil(t, tie)
	assert.Equal(t, domain.RISK_HIGH, *tie)
}

func TestToDistribution_DropsUnknownLabels(t *testing.T) {
	dist := ToDistribution([]domain.LabelScore{
		{Label: "LABEL_0", Score: 0.1},
		{Label: "LABEL_7", Score: 0.8},
		{Label: "LABEL_2", Score: 0.1},
	})
	assert.Len(t, dist, 2)
	assert.Equal(t, 0.1, dist[domain.RISK_LOW])
	_, ok := dist[domain.RISK_MODERATE]
	assert.False(t, ok)
}

func TestAggregate(t *testing.T) {
	opinions := []domain.ModelOpinion{
		opinion("biobert", 0.1, 0.2, 0.7),
		opinion("pubmedbert", 0.6, 0.3, 0.1),
	}
	weights := map[string]float64{"biobert": 0.5, "pubmedbert": 0.3}

	t.Run("divide by model count", func(t *testing.T) {
		v := Aggregate(opinions, weights, domain.DIVIDE_BY_MODEL_COUNT)
		assert.Equal(t, 2, v.ModelsUsed)
		assert.InDelta(t, (0.1*0.5+0.6*0.3)/2, v.Distribution[domain.RISK_LOW], 1e-9)
		assert.InDelta(t, (0.7*0.5+0.1*0.3)/2, v.Distribution[domain.RISK_HIGH], 1e-9)
		require.NotNil(t, v.MostLikely)
		assert.Equal(t, domain.RISK_HIGH, *v.MostLikely)
	})

	t.Run("divide by weight sum", func(t *testing.T) {
		v := Aggregate(opinions, weights, domain.DIVIDE_BY_WEIGHT_SUM)
		total := 0.0
		for _, s := range v.Distribution {
			total += s
		}
		assert.InDelta(t, 1.0, total, 1e-9)
		assert.InDelta(t, (0.7*0.5+0.1*0.3)/0.8, v.Distribution[domain.RISK_HIGH], 1e-9)
	})

	t.Run("failed models are excluded from the divisor", func(t *testing.T) {
		failed := domain.ModelOpinion{ModelID: "clinicalbert", Distribution: map[domain.RiskLevel]float64{}, Error: "timeout"}
		v := Aggregate(append([]domain.ModelOpinion{failed}, opinions[0]), weights, domain.DIVIDE_BY_MODEL_COUNT)
		assert.Equal(t, 1, v.ModelsUsed)
		assert.InDelta(t, 0.7*0.5, v.Distribution[domain.RISK_HIGH], 1e-9)
	})

	t.Run("every model failed", func(t *testing.T) {
		v := Aggregate([]domain.ModelOpinion{
			{ModelID: "a", Error: "boom"},
			{ModelID: "b", Error: "boom"},
		}, weights, domain.DIVIDE_BY_MODEL_COUNT)
		assert.Nil(t, v.MostLikely)
		assert.False(t, v.Available())
		assert.Equal(t, 0, v.ModelsUsed)
		for _, level := range domain.RiskLevels {
			assert.Equal(t, 0.0, v.Distribution[level])
		}
	})

	t.Run("unweighted models default to one", func(t *testing.T) {
		v := Aggregate([]domain.ModelOpinion{opinion("other", 0.2, 0.2, 0.6)}, weights, domain.DIVIDE_BY_WEIGHT_SUM)
		assert.InDelta(t, 0.6, v.Distribution[domain.RISK_HIGH], 1e-9)
		assert.False(t, math.IsNaN(v.Distribution[domain.RISK_LOW]))
	})
}

func TestEnsembleAggregator_Evaluate(t *testing.T) {
	ctx := context.Background()
	text := "Symptoms:\n- Is there shortness of breath?: Yes"

	t.Run("failures are isolated", func(t *testing.T) {
		good := newMockClassifier("biobert")
		good.On("Classify", mock.Anything, text).Return([]domain.LabelScore{
			{Label: "LABEL_0", Score: 0.1},
			{Label: "LABEL_1", Score: 0.3},
			{Label: "LABEL_2", Score: 0.6},
		}, nil)
		broken := newMockClassifier("pubmedbert")
		broken.On("Classify", mock.Anything, text).Return(nil, errors.New("503 service unavailable"))
		garbled := newMockClassifier("clinicalbert")
		garbled.On("Classify", mock.Anything, text).Return([]domain.LabelScore{{Label: "POSITIVE", Score: 0.9}}, nil)

		aggregator := NewEnsembleAggregator(newTestLogger(),
			[]domain.TextClassifier{good, broken, garbled, panicClassifier{}, slowClassifier{}},
			EnsembleOptions{Timeout: 50 * time.Millisecond, MaxConcurrency: 2})

		opinions, verdict := aggregator.Evaluate(ctx, text)

		require.Len(t, opinions, 5)
		assert.Equal(t, []string{"biobert", "pubmedbert", "clinicalbert", "panicky", "slow"}, aggregator.ModelIDs())
		assert.False(t, opinions[0].Failed())
		for _, o := range opinions[1:] {
			assert.True(t, o.Failed(), "%s should have failed", o.ModelID)
		}
		assert.Contains(t, opinions[3].Error, "panic")

		assert.Equal(t, 1, verdict.ModelsUsed)
		assert.NoError(t, verdict.Err())
		require.NotNil(t, verdict.MostLikely)
		assert.Equal(t, domain.RISK_HIGH, *verdict.MostLikely)

		good.AssertExpectations(t)
		broken.AssertExpectations(t)
		garbled.AssertExpectations(t)
	})

	t.Run("all models unavailable", func(t *testing.T) {
		broken := newMockClassifier("biobert")
		broken.On("Classify", mock.Anything, text).Return(nil, errors.New("connection refused"))

		aggregator := NewEnsembleAggregator(newTestLogger(), []domain.TextClassifier{broken}, EnsembleOptions{})
		_, verdict := aggregator.Evaluate(ctx, text)

		assert.Nil(t, verdict.MostLikely)
		assert.ErrorIs(t, verdict.Err(), domain.ErrEnsembleUnavailable)
		assert.Equal(t, domain.DIVIDE_BY_MODEL_COUNT, verdict.Policy)
	})
}
