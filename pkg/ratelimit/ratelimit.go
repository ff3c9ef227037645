// Package ratelimit ограничивает частоту запросов по ключу клиента.
//
// Симулятор ставит лимитер перед эндпоинтами пояснений: каждый такой
// запрос может уйти во внешний генератор текста, и один клиент не должен
// выбирать общую квоту.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pagesim/pkg/config"
)

// Стратегии и бэкенды
const (
	StrategySlidingWindow = "sliding_window"
	StrategyTokenBucket   = "token_bucket"

	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// ErrLimiterClosed лимитер уже закрыт
var ErrLimiterClosed = errors.New("limiter is closed")

// Limiter ограничитель запросов
type Limiter interface {
	// Allow учитывает один запрос ключа и возвращает решение
	Allow(ctx context.Context, key string) (*Decision, error)

	// Reset сбрасывает историю ключа
	Reset(ctx context.Context, key string) error

	Close() error
}

// Decision результат проверки лимита
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int

	// RetryAfter через сколько освободится место; ноль, если запрос пропущен
	RetryAfter time.Duration
}

// Config конфигурация лимитера
type Config struct {
	Requests  int
	Window    time.Duration
	Strategy  string
	Backend   string
	BurstSize int // только token_bucket

	CleanupInterval time.Duration

	// Redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	KeyPrefix     string
}

// DefaultConfig 30 запросов в минуту, скользящее окно в памяти
func DefaultConfig() *Config {
	return &Config{
		Requests:        30,
		Window:          time.Minute,
		Strategy:        StrategySlidingWindow,
		Backend:         BackendMemory,
		BurstSize:       5,
		CleanupInterval: 5 * time.Minute,
		KeyPrefix:       "ratelimit",
	}
}

// FromConfig собирает конфигурацию лимитера. Redis берётся из настроек кэша.
func FromConfig(rl config.RateLimitConfig, cache config.CacheConfig) *Config {
	cfg := DefaultConfig()
	if rl.Requests > 0 {
		cfg.Requests = rl.Requests
	}
	if rl.Window > 0 {
		cfg.Window = rl.Window
	}
	if rl.Strategy != "" {
		cfg.Strategy = rl.Strategy
	}
	if rl.Backend != "" {
		cfg.Backend = rl.Backend
	}
	cfg.BurstSize = rl.BurstSize
	cfg.RedisAddr = cache.Address()
	cfg.RedisPassword = cache.Password
	cfg.RedisDB = cache.DB
	return cfg
}

// New создаёт лимитер выбранного бэкенда
func New(cfg *Config) (Limiter, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	switch cfg.Strategy {
	case StrategySlidingWindow, StrategyTokenBucket, "":
	default:
		return nil, fmt.Errorf("unknown rate limit strategy: %s", cfg.Strategy)
	}

	switch cfg.Backend {
	case BackendMemory, "":
		return NewMemoryLimiter(cfg), nil
	case BackendRedis:
		return NewRedisLimiter(cfg)
	default:
		return nil, fmt.Errorf("unknown rate limit backend: %s", cfg.Backend)
	}
}
