package external

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardio-risk-mcp-server/internal/domain"
)

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.FatalLevel)
	return logger
}

func TestHFClassifierClient_Classify(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		expected    []domain.LabelScore
		expectError string
	}{
		{
			name:   "batched response",
			status: http.StatusOK,
			body:   `[[{"label":"LABEL_0","score":0.1},{"label":"LABEL_1","score":0.2},{"label":"LABEL_2","score":0.7}]]`,
			expected: []domain.LabelScore{
				{Label: "LABEL_0", Score: 0.1},
				{Label: "LABEL_1", Score: 0.2},
				{Label: "LABEL_2", Score: 0.7},
			},
		},
		{
			name:     "flat response",
			status:   http.StatusOK,
			body:     `[{"label":"LABEL_1","score":0.9}]`,
			expected: []domain.LabelScore{{Label: "LABEL_1", Score: 0.9}},
		},
		{
			name:        "model loading",
			status:      http.StatusServiceUnavailable,
			body:        `{"error":"Model is currently loading","estimated_time":20}`,
			expectError: "Model is currently loading",
		},
		{
			name:        "malformed body",
			status:      http.StatusOK,
			body:        `{"unexpected":true}`,
			expectError: "failed to parse classification response",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

				var req hfRequest
				assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				assert.Equal(t, "Symptoms: none", req.Inputs)

				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewHFClassifierClient(domain.ModelConfig{
				ID:        "biobert",
				Endpoint:  server.URL,
				APIKey:    "test-key",
				Timeout:   5 * time.Second,
				RateLimit: 100,
			})
			assert.Equal(t, "biobert", client.ID())

			scores, err := client.Classify(context.Background(), "Symptoms: none")
			if tt.expectError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectError)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, scores)
		})
	}
}

func TestHFClassifierClient_WithoutAPIKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		w.Write([]byte(`[{"label":"LABEL_0","score":1}]`))
	}))
	defer server.Close()

	client := NewHFClassifierClient(domain.ModelConfig{ID: "local", Endpoint: server.URL, RateLimit: 100})
	scores, err := client.Classify(context.Background(), "Symptoms: none")
	require.NoError(t, err)
	assert.Equal(t, []domain.LabelScore{{Label: "LABEL_0", Score: 1}}, scores)
}

func TestHFClassifierClient_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	client := NewHFClassifierClient(domain.ModelConfig{ID: "slow", Endpoint: server.URL, RateLimit: 100})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.Classify(ctx, "Symptoms: none")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func chatServer(t *testing.T, reply string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)

		var req chatRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.NotEmpty(t, req.Messages)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": reply}},
			},
		})
	}))
}

func TestLLMDocumentExtractor_Extract(t *testing.T) {
	t.Run("flat and nested values", func(t *testing.T) {
		reply := "```json\n" + `{
			"低密度脂蛋白": "4.43 mmol/L (<3.4)",
			"Troponin I": {"value": 0.05, "unit": "ng/mL", "reference_range": "<0.04"},
			"HbA1c": 6.1,
			"Comment": null
		}` + "\n```"
		server := chatServer(t, reply)
		defer server.Close()

		extractor := NewLLMDocumentExtractor(domain.LLMClientConfig{BaseURL: server.URL, RateLimit: 100}, newTestLogger())
		result := extractor.Extract(context.Background(), &domain.DocumentInput{Filename: "labs.docx", Content: "..."})

		require.True(t, result.OK(), result.Error)
		assert.Equal(t, "4.43 mmol/L (<3.4)", result.Values["低密度脂蛋白"])
		assert.Equal(t, "0.05 ng/mL (<0.04)", result.Values["Troponin I"])
		assert.Equal(t, "6.1", result.Values["HbA1c"])
		_, ok := result.Values["Comment"]
		assert.False(t, ok)
	})

	t.Run("non-JSON reply is an extraction error", func(t *testing.T) {
		server := chatServer(t, "I could not read the document.")
		defer server.Close()

		extractor := NewLLMDocumentExtractor(domain.LLMClientConfig{BaseURL: server.URL, RateLimit: 100}, newTestLogger())
		result := extractor.Extract(context.Background(), &domain.DocumentInput{Content: "..."})

		assert.False(t, result.OK())
		assert.Contains(t, result.Error, "not a JSON object")
	})

	t.Run("transport failure is an extraction error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":{"message":"invalid api key","type":"auth"}}`))
		}))
		defer server.Close()

		extractor := NewLLMDocumentExtractor(domain.LLMClientConfig{BaseURL: server.URL, RateLimit: 100}, newTestLogger())
		result := extractor.Extract(context.Background(), &domain.DocumentInput{Content: "..."})

		assert.False(t, result.OK())
		assert.Contains(t, result.Error, "invalid api key")
	})
}

func TestLLMSummarizer_Summarize(t *testing.T) {
	var prompt string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		prompt = req.Messages[len(req.Messages)-1].Content
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]string{"content": "  总体为中风险。 "}}},
		})
	}))
	defer server.Close()

	render := func(r *domain.StructuredReport) string { return "## 最终风险等级\n- 中风险" }
	summarizer := NewLLMSummarizer(domain.LLMClientConfig{BaseURL: server.URL, RateLimit: 100}, render, newTestLogger())

	narrative, err := summarizer.Summarize(context.Background(), &domain.StructuredReport{ID: "r1"}, domain.LANG_ZH)
	require.NoError(t, err)
	assert.Equal(t, "总体为中风险。", narrative)
	assert.Contains(t, prompt, "请只用中文输出")
	assert.Contains(t, prompt, "- 中风险")
}

type stubClassifier struct {
	calls  int32
	err    error
	scores []domain.LabelScore
}

func (s *stubClassifier) ID() string { return "stub" }

func (s *stubClassifier) Classify(ctx context.Context, text string) ([]domain.LabelScore, error) {
	atomic.AddInt32(&s.calls, 1)
	return s.scores, s.err
}

func TestResilientClassifier_OpensAfterFailures(t *testing.T) {
	inner := &stubClassifier{err: errors.New("upstream 500")}
	classifier := NewResilientClassifier(inner, DefaultCircuitBreakerConfig(), newTestLogger())

	for i := 0; i < 3; i++ {
		_, err := classifier.Classify(context.Background(), "text")
		require.Error(t, err)
	}
	assert.Equal(t, gobreaker.StateOpen, classifier.State())

	_, err := classifier.Classify(context.Background(), "text")
	require.Error(t, err)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, int32(3), atomic.LoadInt32(&inner.calls))
}

type memoryStore struct {
	data map[string][]domain.LabelScore
	err  error
}

func (m *memoryStore) Get(_ context.Context, key string) ([]domain.LabelScore, bool, error) {
	if m.err != nil {
		return nil, false, m.err
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memoryStore) Set(_ context.Context, key string, scores []domain.LabelScore, _ time.Duration) error {
	if m.err != nil {
		return m.err
	}
	m.data[key] = scores
	return nil
}

func TestCachedClassifier(t *testing.T) {
	scores := []domain.LabelScore{{Label: "LABEL_0", Score: 1}}

	t.Run("memory tier", func(t *testing.T) {
		inner := &stubClassifier{scores: scores}
		cached, err := NewCachedClassifier(inner, domain.CacheConfig{MaxItems: 10, DefaultTTL: time.Minute}, nil, newTestLogger())
		require.NoError(t, err)

		for i := 0; i < 3; i++ {
			got, err := cached.Classify(context.Background(), "same text")
			require.NoError(t, err)
			assert.Equal(t, scores, got)
		}
		assert.Equal(t, int32(1), atomic.LoadInt32(&inner.calls))
		assert.Equal(t, int64(2), cached.Stats().MemoryHits)
		assert.Equal(t, int64(1), cached.Stats().Misses)
	})

	t.Run("shared store tier", func(t *testing.T) {
		store := &memoryStore{data: map[string][]domain.LabelScore{}}
		first, err := NewCachedClassifier(&stubClassifier{scores: scores}, domain.CacheConfig{}, store, newTestLogger())
		require.NoError(t, err)
		_, err = first.Classify(context.Background(), "shared text")
		require.NoError(t, err)

		inner := &stubClassifier{scores: scores}
		second, err := NewCachedClassifier(inner, domain.CacheConfig{}, store, newTestLogger())
		require.NoError(t, err)
		got, err := second.Classify(context.Background(), "shared text")
		require.NoError(t, err)
		assert.Equal(t, scores, got)
		assert.Equal(t, int32(0), atomic.LoadInt32(&inner.calls))
		assert.Equal(t, int64(1), second.Stats().StoreHits)
	})

	t.Run("store failures fall through", func(t *testing.T) {
		inner := &stubClassifier{scores: scores}
		cached, err := NewCachedClassifier(inner, domain.CacheConfig{}, &memoryStore{err: errors.New("connection reset")}, newTestLogger())
		require.NoError(t, err)
		got, err := cached.Classify(context.Background(), "text")
		require.NoError(t, err)
		assert.Equal(t, scores, got)
		assert.Equal(t, int64(2), cached.Stats().StoreErrors)
	})

	t.Run("errors are not cached", func(t *testing.T) {
		inner := &stubClassifier{err: errors.New("timeout")}
		cached, err := NewCachedClassifier(inner, domain.CacheConfig{}, nil, newTestLogger())
		require.NoError(t, err)
		_, err = cached.Classify(context.Background(), "text")
		require.Error(t, err)
		_, err = cached.Classify(context.Background(), "text")
		require.Error(t, err)
		assert.Equal(t, int32(2), atomic.LoadInt32(&inner.calls))
	})
}

func TestCacheKey_HidesText(t *testing.T) {
	key := cacheKey("biobert", "patient reports chest pain")
	assert.True(t, strings.HasPrefix(key, "biobert:"))
	assert.NotContains(t, key, "chest")
	assert.NotEqual(t, key, cacheKey("pubmedbert", "patient reports chest pain"))
}

type pingFunc func(context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestCheckHealth(t *testing.T) {
	health := CheckHealth(context.Background(), map[string]HealthChecker{
		"redis":  pingFunc(func(context.Context) error { return errors.New("refused") }),
		"memory": pingFunc(func(context.Context) error { return nil }),
	})
	require.Len(t, health, 2)
	assert.Equal(t, "memory", health[0].Service)
	assert.True(t, health[0].Healthy)
	assert.False(t, health[1].Healthy)
	assert.Equal(t, "refused", health[1].Error)
}
