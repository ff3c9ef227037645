package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"pagesim/pkg/config"
)

// fakeClock управляемые часы для MemoryLimiter
type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLimiter(t *testing.T, cfg *Config) (*MemoryLimiter, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	cfg.CleanupInterval = 0
	l := NewMemoryLimiter(cfg)
	l.now = clock.now
	t.Cleanup(func() { l.Close() })
	return l, clock
}

func mustAllow(t *testing.T, l Limiter, key string) *Decision {
	t.Helper()
	d, err := l.Allow(context.Background(), key)
	if err != nil {
		t.Fatalf("Allow() error = %v", err)
	}
	return d
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Requests != 30 || cfg.Window != time.Minute {
		t.Errorf("unexpected defaults: %d per %v", cfg.Requests, cfg.Window)
	}
	if cfg.Strategy != StrategySlidingWindow || cfg.Backend != BackendMemory {
		t.Errorf("unexpected strategy/backend: %s/%s", cfg.Strategy, cfg.Backend)
	}
}

func TestFromConfig(t *testing.T) {
	cfg := FromConfig(
		config.RateLimitConfig{Requests: 10, Window: 30 * time.Second, Strategy: StrategyTokenBucket, Backend: BackendRedis, BurstSize: 2},
		config.CacheConfig{Host: "redis.local", Port: 6380, Password: "secret", DB: 2},
	)

	if cfg.Requests != 10 || cfg.Window != 30*time.Second || cfg.BurstSize != 2 {
		t.Errorf("unexpected limits: %+v", cfg)
	}
	if cfg.Strategy != StrategyTokenBucket || cfg.Backend != BackendRedis {
		t.Errorf("unexpected strategy/backend: %s/%s", cfg.Strategy, cfg.Backend)
	}
	if cfg.RedisAddr != "redis.local:6380" || cfg.RedisPassword != "secret" || cfg.RedisDB != 2 {
		t.Errorf("unexpected redis settings: %+v", cfg)
	}

	zero := FromConfig(config.RateLimitConfig{}, config.CacheConfig{})
	if zero.Requests != 30 || zero.Window != time.Minute {
		t.Errorf("zero values should keep defaults, got %d per %v", zero.Requests, zero.Window)
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *Config
		wantErr bool
	}{
		{name: "nil config", cfg: nil},
		{name: "memory", cfg: &Config{Requests: 1, Window: time.Second, Backend: BackendMemory}},
		{name: "unknown backend", cfg: &Config{Backend: "memcached"}, wantErr: true},
		{name: "unknown strategy", cfg: &Config{Strategy: "leaky"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if l != nil {
				l.Close()
			}
		})
	}
}

func TestMemoryLimiter_SlidingWindow(t *testing.T) {
	l, clock := newTestLimiter(t, &Config{Requests: 3, Window: time.Minute, Strategy: StrategySlidingWindow})

	for i := 0; i < 3; i++ {
		d := mustAllow(t, l, "client")
		if !d.Allowed {
			t.Fatalf("request %d should be allowed", i+1)
		}
		if d.Remaining != 2-i {
			t.Errorf("request %d: remaining = %d, want %d", i+1, d.Remaining, 2-i)
		}
		clock.advance(10 * time.Second)
	}

	d := mustAllow(t, l, "client")
	if d.Allowed {
		t.Fatal("4th request should be denied")
	}
	// первый запрос был 30s назад, окно минута
	if d.RetryAfter != 30*time.Second {
		t.Errorf("retry after = %v, want 30s", d.RetryAfter)
	}

	clock.advance(30 * time.Second)
	if d := mustAllow(t, l, "client"); !d.Allowed {
		t.Error("request should be allowed once the oldest one leaves the window")
	}
}

func TestMemoryLimiter_DeniedRequestsDoNotCount(t *testing.T) {
	l, clock := newTestLimiter(t, &Config{Requests: 1, Window: time.Minute})

	mustAllow(t, l, "client")
	for i := 0; i < 5; i++ {
		clock.advance(time.Second)
		mustAllow(t, l, "client")
	}

	clock.advance(55 * time.Second)
	if d := mustAllow(t, l, "client"); !d.Allowed {
		t.Error("denied requests must not extend the window")
	}
}

func TestMemoryLimiter_TokenBucket(t *testing.T) {
	l, clock := newTestLimiter(t, &Config{Requests: 2, Window: 2 * time.Second, Strategy: StrategyTokenBucket, BurstSize: 1})

	for i := 0; i < 3; i++ {
		if d := mustAllow(t, l, "client"); !d.Allowed {
			t.Fatalf("request %d should fit into capacity 3", i+1)
		}
	}

	d := mustAllow(t, l, "client")
	if d.Allowed {
		t.Fatal("bucket should be empty")
	}
	if d.Limit != 3 {
		t.Errorf("limit = %d, want 3", d.Limit)
	}
	if d.RetryAfter != time.Second {
		t.Errorf("retry after = %v, want 1s at 1 token/s", d.RetryAfter)
	}

	clock.advance(time.Second)
	if d := mustAllow(t, l, "client"); !d.Allowed {
		t.Error("one token should be refilled after a second")
	}
}

func TestMemoryLimiter_KeysAreIndependent(t *testing.T) {
	l, _ := newTestLimiter(t, &Config{Requests: 1, Window: time.Minute})

	if !mustAllow(t, l, "a").Allowed || !mustAllow(t, l, "b").Allowed {
		t.Fatal("first request of each key should be allowed")
	}
	if mustAllow(t, l, "a").Allowed {
		t.Error("second request of key a should be denied")
	}
}

func TestMemoryLimiter_Reset(t *testing.T) {
	l, _ := newTestLimiter(t, &Config{Requests: 1, Window: time.Minute})

	mustAllow(t, l, "client")
	if err := l.Reset(context.Background(), "client"); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	if !mustAllow(t, l, "client").Allowed {
		t.Error("request after reset should be allowed")
	}
}

func TestMemoryLimiter_Cleanup(t *testing.T) {
	l, clock := newTestLimiter(t, &Config{Requests: 5, Window: time.Minute})

	mustAllow(t, l, "old")
	clock.advance(90 * time.Second)
	mustAllow(t, l, "fresh")
	clock.advance(40 * time.Second)

	l.cleanup()
	if l.Len() != 1 {
		t.Errorf("expected only the fresh key to survive, got %d keys", l.Len())
	}
}

func TestMemoryLimiter_Closed(t *testing.T) {
	l := NewMemoryLimiter(&Config{Requests: 1, Window: time.Minute, CleanupInterval: time.Hour})

	if err := l.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := l.Close(); err != nil {
		t.Errorf("second Close() should be a no-op, got %v", err)
	}
	if _, err := l.Allow(context.Background(), "client"); !errors.Is(err, ErrLimiterClosed) {
		t.Errorf("expected ErrLimiterClosed, got %v", err)
	}
}
