package cache

import (
	"testing"
	"time"

	"pagesim/pkg/config"
)

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()

	if opts.Backend != BackendMemory {
		t.Errorf("expected backend 'memory', got %s", opts.Backend)
	}
	if opts.DefaultTTL != 24*time.Hour {
		t.Errorf("expected default TTL 24h, got %v", opts.DefaultTTL)
	}
	if opts.MaxEntries != 10000 {
		t.Errorf("expected max entries 10000, got %d", opts.MaxEntries)
	}
	if opts.RedisAddr != "localhost:6379" {
		t.Errorf("expected redis addr 'localhost:6379', got %s", opts.RedisAddr)
	}
}

func TestFromConfig(t *testing.T) {
	cfg := &config.CacheConfig{
		Driver:     "redis",
		Host:       "redis.local",
		Port:       6380,
		Password:   "secret",
		DB:         1,
		DefaultTTL: 10 * time.Minute,
		MaxEntries: 500,
	}

	opts := FromConfig(cfg)

	if opts.Backend != BackendRedis {
		t.Errorf("expected backend 'redis', got %s", opts.Backend)
	}
	if opts.DefaultTTL != 10*time.Minute {
		t.Errorf("expected TTL 10m, got %v", opts.DefaultTTL)
	}
	if opts.RedisAddr != "redis.local:6380" {
		t.Errorf("expected addr 'redis.local:6380', got %s", opts.RedisAddr)
	}
	if opts.RedisPassword != "secret" || opts.RedisDB != 1 || opts.MaxEntries != 500 {
		t.Errorf("unexpected options: %+v", opts)
	}
}

func TestNew_Memory(t *testing.T) {
	cache, err := New(&Options{Backend: BackendMemory})
	if err != nil {
		t.Fatalf("failed to create memory cache: %v", err)
	}
	defer cache.Close()

	if _, ok := cache.(*MemoryCache); !ok {
		t.Errorf("expected *MemoryCache, got %T", cache)
	}
}

func TestNew_NilOptions(t *testing.T) {
	cache, err := New(nil)
	if err != nil {
		t.Fatalf("failed to create cache with nil options: %v", err)
	}
	defer cache.Close()
}

func TestNew_UnknownBackend(t *testing.T) {
	if _, err := New(&Options{Backend: "memcached"}); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestMustNew(t *testing.T) {
	cache := MustNew(&Options{Backend: BackendMemory})
	if cache == nil {
		t.Fatal("expected cache to be non-nil")
	}
	cache.Close()

	defer func() {
		if r := recover(); r == nil {
			t.Error("MustNew should panic for unknown backend")
		}
	}()
	MustNew(&Options{Backend: "memcached"})
}

func TestFromConfig_ZeroValuesKeepDefaults(t *testing.T) {
	opts := FromConfig(&config.CacheConfig{Driver: "memory", Host: "localhost", Port: 6379})

	if opts.DefaultTTL != 24*time.Hour {
		t.Errorf("expected default TTL to survive, got %v", opts.DefaultTTL)
	}
	if opts.MaxEntries != 10000 {
		t.Errorf("expected default max entries to survive, got %d", opts.MaxEntries)
	}
	if opts.CleanupInterval != time.Minute {
		t.Errorf("expected cleanup interval 1m, got %v", opts.CleanupInterval)
	}
}
