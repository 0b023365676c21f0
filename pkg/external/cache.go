package external

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/cardio-risk-mcp-server/internal/domain"
)

const redisKeyPrefix = "cardio-risk:classify:"

// RedisStore is the distributed tier of the classifier result cache
type RedisStore struct {
	redis *redis.Client
}

// cachedScores represents cached classifier output with metadata
type cachedScores struct {
	Scores    []domain.LabelScore `json:"scores"`
	CachedAt  time.Time           `json:"cached_at"`
	ExpiresAt time.Time           `json:"expires_at"`
}

// NewRedisStore connects to Redis and verifies the connection
func NewRedisStore(ctx context.Context, config domain.CacheConfig) (*RedisStore, error) {
	opts, err := redis.ParseURL(config.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	if config.PoolSize > 0 {
		opts.PoolSize = config.PoolSize
	}
	if config.PoolTimeout > 0 {
		opts.PoolTimeout = config.PoolTimeout
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStore{redis: client}, nil
}

// Get implements ResultStore
func (s *RedisStore) Get(ctx context.Context, key string) ([]domain.LabelScore, bool, error) {
	val, err := s.redis.Get(ctx, redisKeyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get cached scores: %w", err)
	}

	var cached cachedScores
	if err := json.Unmarshal([]byte(val), &cached); err != nil {
		// Remove corrupted cache entry
		s.redis.Del(ctx, redisKeyPrefix+key)
		return nil, false, nil
	}
	if time.Now().After(cached.ExpiresAt) {
		s.redis.Del(ctx, redisKeyPrefix+key)
		return nil, false, nil
	}
	return cached.Scores, true, nil
}

// Set implements ResultStore
func (s *RedisStore) Set(ctx context.Context, key string, scores []domain.LabelScore, ttl time.Duration) error {
	now := time.Now()
	data, err := json.Marshal(cachedScores{Scores: scores, CachedAt: now, ExpiresAt: now.Add(ttl)})
	if err != nil {
		return fmt.Errorf("failed to marshal cached scores: %w", err)
	}
	return s.redis.Set(ctx, redisKeyPrefix+key, data, ttl).Err()
}

// Ping implements HealthChecker
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.redis.Ping(ctx).Err()
}

// Close releases the connection pool
func (s *RedisStore) Close() error {
	return s.redis.Close()
}

// CacheStats tracks classifier cache performance
type CacheStats struct {
	MemoryHits  int64     `json:"memory_hits"`
	StoreHits   int64     `json:"store_hits"`
	Misses      int64     `json:"misses"`
	StoreErrors int64     `json:"store_errors"`
	LastReset   time.Time `json:"last_reset"`
}

type memoryEntry struct {
	scores []domain.LabelScore
	expiry time.Time
}

// CachedClassifier memoizes a text classifier: an in-memory LRU tier in front of an
// optional shared store. Only successful answers are cached.
type CachedClassifier struct {
	inner  domain.TextClassifier
	memory *lru.Cache[string, memoryEntry]
	store  ResultStore
	ttl    time.Duration
	logger *logrus.Logger

	statsMu sync.Mutex
	stats   CacheStats
}

// NewCachedClassifier wraps inner. store may be nil.
func NewCachedClassifier(inner domain.TextClassifier, config domain.CacheConfig, store ResultStore, logger *logrus.Logger) (*CachedClassifier, error) {
	if config.MaxItems <= 0 {
		config.MaxItems = 1000
	}
	if config.DefaultTTL <= 0 {
		config.DefaultTTL = time.Hour
	}
	memory, err := lru.New[string, memoryEntry](config.MaxItems)
	if err != nil {
		return nil, fmt.Errorf("failed to create memory cache: %w", err)
	}
	return &CachedClassifier{
		inner:  inner,
		memory: memory,
		store:  store,
		ttl:    config.DefaultTTL,
		logger: logger,
		stats:  CacheStats{LastReset: time.Now()},
	}, nil
}

// ID implements domain.TextClassifier
func (c *CachedClassifier) ID() string {
	return c.inner.ID()
}

// Classify implements domain.TextClassifier
func (c *CachedClassifier) Classify(ctx context.Context, text string) ([]domain.LabelScore, error) {
	key := cacheKey(c.inner.ID(), text)

	if entry, ok := c.memory.Get(key); ok {
		if time.Now().Before(entry.expiry) {
			c.record(func(s *CacheStats) { s.MemoryHits++ })
			return entry.scores, nil
		}
		c.memory.Remove(key)
	}

	if c.store != nil {
		scores, found, err := c.store.Get(ctx, key)
		if err != nil {
			c.record(func(s *CacheStats) { s.StoreErrors++ })
			c.logger.WithFields(logrus.Fields{
				"model_id": c.inner.ID(),
				"error":    err.Error(),
			}).Warn("Classifier cache store lookup failed")
		} else if found {
			c.record(func(s *CacheStats) { s.StoreHits++ })
			c.memory.Add(key, memoryEntry{scores: scores, expiry: time.Now().Add(c.ttl)})
			return scores, nil
		}
	}

	c.record(func(s *CacheStats) { s.Misses++ })
	scores, err := c.inner.Classify(ctx, text)
	if err != nil {
		return nil, err
	}

	c.memory.Add(key, memoryEntry{scores: scores, expiry: time.Now().Add(c.ttl)})
	if c.store != nil {
		if err := c.store.Set(ctx, key, scores, c.ttl); err != nil {
			c.record(func(s *CacheStats) { s.StoreErrors++ })
			c.logger.WithFields(logrus.Fields{
				"model_id": c.inner.ID(),
				"error":    err.Error(),
			}).Warn("Classifier cache store write failed")
		}
	}
	return scores, nil
}

// Stats returns a snapshot of cache statistics
func (c *CachedClassifier) Stats() CacheStats {
	c.statsMu.Lock()
	defer c.statsMu.Unlock()
	return c.stats
}

func (c *CachedClassifier) record(update func(*CacheStats)) {
	c.statsMu.Lock()
	update(&c.stats)
	c.statsMu.Unlock()
}

// cacheKey hashes the model and its input; patient text never appears in a key.
func cacheKey(modelID, text string) string {
	sum := sha256.Sum256([]byte(modelID + "\x00" + text))
	return modelID + ":" + hex.EncodeToString(sum[:])
}
