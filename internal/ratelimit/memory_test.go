package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestMemoryLimiter_EnforcesWindow(t *testing.T) {
	limiter := NewMemoryLimiter()
	now := time.Unix(1700000000, 0)

	for i := 0; i < 3; i++ {
		result, err := limiter.Allow(context.Background(), "user-1", 3, now)
		if err != nil {
			t.Fatalf("Allow: %v", err)
		}
		if !result.Allowed {
			t.Fatalf("request %d should be allowed", i+1)
		}
		if result.Remaining != 3-i-1 {
			t.Fatalf("unexpected remaining %d after request %d", result.Remaining, i+1)
		}
	}

	result, err := limiter.Allow(context.Background(), "user-1", 3, now)
	if err != nil {
		t.Fatalf("Allow: %v", err)
	}
	if result.Allowed {
		t.Fatalf("fourth request in the same window should be denied")
	}
	if result.Reset != time.Unix(1700000001, 0).UTC() {
		t.Fatalf("unexpected reset %v", result.Reset)
	}
}

func TestMemoryLimiter_WindowRollsOver(t *testing.T) {
	limiter := NewMemoryLimiter()
	now := time.Unix(1700000000, 0)

	if result, _ := limiter.Allow(context.Background(), "user-1", 1, now); !result.Allowed {
		t.Fatalf("first request should be allowed")
	}
	if result, _ := limiter.Allow(context.Background(), "user-1", 1, now); result.Allowed {
		t.Fatalf("second request in the same second should be denied")
	}
	if result, _ := limiter.Allow(context.Background(), "user-1", 1, now.Add(time.Second)); !result.Allowed {
		t.Fatalf("request in the next window should be allowed")
	}
}

func TestMemoryLimiter_KeysAreIndependent(t *testing.T) {
	limiter := NewMemoryLimiter()
	now := time.Unix(1700000000, 0)

	if result, _ := limiter.Allow(context.Background(), "user-1", 1, now); !result.Allowed {
		t.Fatalf("user-1 should be allowed")
	}
	if result, _ := limiter.Allow(context.Background(), "user-2", 1, now); !result.Allowed {
		t.Fatalf("user-2 should not share user-1's window")
	}
}

func TestMemoryLimiter_ZeroLimitDisables(t *testing.T) {
	limiter := NewMemoryLimiter()
	for i := 0; i < 10; i++ {
		result, err := limiter.Allow(context.Background(), "user-1", 0, time.Now())
		if err != nil || !result.Allowed {
			t.Fatalf("zero limit must allow everything, got %+v err=%v", result, err)
		}
	}
}
