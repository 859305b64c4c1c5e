package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/mcpflow/mcpflow/internal/config"
)

func TestManager_MemoryBackendWithoutRedis(t *testing.T) {
	now := time.Unix(1700000000, 0)
	manager := NewManager(config.RedisConfig{}, func() time.Time { return now }, nil)

	if result, err := manager.Allow(context.Background(), "user-1", 1); err != nil || !result.Allowed {
		t.Fatalf("first request should pass: %+v err=%v", result, err)
	}
	if result, err := manager.Allow(context.Background(), "user-1", 1); err != nil || result.Allowed {
		t.Fatalf("second request should be limited: %+v err=%v", result, err)
	}
}

func TestManager_DisabledWhenLimitZero(t *testing.T) {
	manager := NewManager(config.RedisConfig{}, nil, nil)
	for i := 0; i < 5; i++ {
		result, err := manager.Allow(context.Background(), "user-1", 0)
		if err != nil || !result.Allowed {
			t.Fatalf("zero limit must allow everything, got %+v err=%v", result, err)
		}
	}
}

func TestManager_FallsBackWhenRedisUnavailable(t *testing.T) {
	now := time.Unix(1700000000, 0)
	cfg := config.RedisConfig{Addr: "127.0.0.1:1", Prefix: "test"}
	manager := NewManager(cfg, func() time.Time { return now }, nil)

	// The redis backend cannot connect; the manager must trip the
	// breaker and serve from memory instead of failing the request.
	result, err := manager.Allow(context.Background(), "user-1", 1)
	if err != nil {
		t.Fatalf("Allow: %v", err)
	}
	if !result.Allowed {
		t.Fatalf("first request should pass via memory fallback")
	}

	result, err = manager.Allow(context.Background(), "user-1", 1)
	if err != nil {
		t.Fatalf("Allow: %v", err)
	}
	if result.Allowed {
		t.Fatalf("second request should be limited by the memory backend")
	}
}
