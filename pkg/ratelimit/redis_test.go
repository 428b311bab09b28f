package ratelimit

import (
	"context"
	"os"
	"testing"
	"time"
)

func skipIfNoRedis(t *testing.T) {
	t.Helper()
	if os.Getenv("REDIS_TEST_ADDR") == "" {
		t.Skip("REDIS_TEST_ADDR not set, skipping Redis tests")
	}
}

func redisTestConfig(requests int) *Config {
	return &Config{
		Requests:      requests,
		Window:        time.Minute,
		Strategy:      "sliding_window",
		Backend:       "redis",
		RedisAddr:     os.Getenv("REDIS_TEST_ADDR"),
		RedisPassword: os.Getenv("REDIS_TEST_PASSWORD"),
	}
}

func TestRedisLimiter_Allow(t *testing.T) {
	skipIfNoRedis(t)

	limiter, err := NewRedisLimiter(redisTestConfig(2))
	if err != nil {
		t.Fatalf("NewRedisLimiter() error = %v", err)
	}
	defer limiter.Close()

	ctx := context.Background()
	key := "export:user-ratelimit-test"
	limiter.Reset(ctx, key)
	defer limiter.Reset(ctx, key)

	for i := 0; i < 2; i++ {
		allowed, err := limiter.Allow(ctx, key)
		if err != nil {
			t.Fatalf("Allow() error = %v", err)
		}
		if !allowed {
			t.Errorf("request %d should be allowed", i+1)
		}
	}

	allowed, err := limiter.Allow(ctx, key)
	if err != nil {
		t.Fatalf("Allow() error = %v", err)
	}
	if allowed {
		t.Error("request over the limit should be denied")
	}
}

func TestRedisLimiter_GetInfo(t *testing.T) {
	skipIfNoRedis(t)

	limiter, err := NewRedisLimiter(redisTestConfig(5))
	if err != nil {
		t.Fatalf("NewRedisLimiter() error = %v", err)
	}
	defer limiter.Close()

	ctx := context.Background()
	key := "export:user-info-test"
	limiter.Reset(ctx, key)
	defer limiter.Reset(ctx, key)

	limiter.Allow(ctx, key)
	limiter.Allow(ctx, key)

	info, err := limiter.GetInfo(ctx, key)
	if err != nil {
		t.Fatalf("GetInfo() error = %v", err)
	}

	if info.Limit != 5 {
		t.Errorf("Limit = %d, want 5", info.Limit)
	}
	if info.Remaining != 3 {
		t.Errorf("Remaining = %d, want 3", info.Remaining)
	}
}
