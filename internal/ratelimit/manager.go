// Package ratelimit enforces a per-principal fixed-window limit on the
// gateway endpoint. Redis backs the counters when configured so limits
// hold across replicas; an in-memory limiter covers single-node
// deployments and redis outages.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/mcpflow/mcpflow/internal/config"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// redisBreakerDuration keeps the manager off redis after a failure so a
// dead backend does not add latency to every gateway call.
const redisBreakerDuration = 30 * time.Second

// RedisClientFactory constructs a Redis client for the given options.
type RedisClientFactory func(options *redis.Options) *redis.Client

// Manager selects a limiter backend and enforces rate limits.
type Manager struct {
	cfg            config.RedisConfig
	nowFn          func() time.Time
	memoryLimiter  Limiter
	newRedisClient RedisClientFactory

	mu           sync.Mutex
	redisLimiter *RedisLimiter
	breakerUntil time.Time
}

// NewManager constructs a Manager with default dependencies when nil.
func NewManager(cfg config.RedisConfig, nowFn func() time.Time, newRedisClient RedisClientFactory) *Manager {
	if nowFn == nil {
		nowFn = time.Now
	}
	if newRedisClient == nil {
		newRedisClient = redis.NewClient
	}
	return &Manager{
		cfg:            cfg,
		nowFn:          nowFn,
		memoryLimiter:  NewMemoryLimiter(),
		newRedisClient: newRedisClient,
	}
}

// Allow checks whether the request should be allowed using the best
// available backend.
func (m *Manager) Allow(ctx context.Context, key string, limit int) (Result, error) {
	if m == nil || limit <= 0 || key == "" {
		return Result{Allowed: true}, nil
	}
	now := m.nowFn()

	if m.cfg.Addr != "" {
		if result, ok := m.allowRedis(ctx, key, limit, now); ok {
			return result, nil
		}
	}
	return m.memoryLimiter.Allow(ctx, key, limit, now)
}

// allowRedis attempts the redis backend, tripping the breaker on error.
func (m *Manager) allowRedis(ctx context.Context, key string, limit int, now time.Time) (Result, bool) {
	m.mu.Lock()
	if now.Before(m.breakerUntil) {
		m.mu.Unlock()
		return Result{}, false
	}
	if m.redisLimiter == nil {
		client := m.newRedisClient(&redis.Options{
			Addr:     m.cfg.Addr,
			Password: m.cfg.Password,
			DB:       m.cfg.DB,
		})
		m.redisLimiter = NewRedisLimiter(client, m.cfg.Prefix)
	}
	limiter := m.redisLimiter
	m.mu.Unlock()

	result, errAllow := limiter.Allow(ctx, key, limit, now)
	if errAllow != nil {
		log.WithError(errAllow).Warn("rate limit: redis backend failed, falling back to memory")
		m.mu.Lock()
		m.breakerUntil = now.Add(redisBreakerDuration)
		m.mu.Unlock()
		return Result{}, false
	}
	return result, true
}
