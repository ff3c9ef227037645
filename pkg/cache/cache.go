// Package cache хранит сгенерированные пояснения к шагам симуляции.
//
// Бэкенд выбирается конфигурацией: in-memory LRU для одиночного процесса
// или Redis, когда несколько экземпляров сервиса должны делить ответы
// генератора.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pagesim/pkg/config"
)

// Поддерживаемые бэкенды
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

var (
	// ErrKeyNotFound ключ отсутствует или истёк
	ErrKeyNotFound = errors.New("key not found")
	// ErrCacheClosed кэш уже закрыт
	ErrCacheClosed = errors.New("cache is closed")
)

// Cache хранилище байтовых значений с TTL.
//
// Get и GetWithTTL возвращают ErrKeyNotFound для отсутствующего ключа,
// Delete отсутствующего ключа не считается ошибкой. Шаблоны в Keys и
// DeleteByPattern используют синтаксис Redis с единственным '*'.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	GetWithTTL(ctx context.Context, key string) (value []byte, ttl time.Duration, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)

	Keys(ctx context.Context, pattern string) ([]string, error)
	DeleteByPattern(ctx context.Context, pattern string) (int64, error)

	Stats(ctx context.Context) (*Stats, error)
	Clear(ctx context.Context) error
	Close() error
}

// Stats статистика кэша
type Stats struct {
	Backend     string
	TotalKeys   int64
	Hits        int64
	Misses      int64
	Evictions   int64 // только memory
	HitRate     float64
	MemoryBytes int64

	// KeysByPrefix число ключей по префиксу до первого ':'
	KeysByPrefix map[string]int64
}

// Options параметры создания кэша
type Options struct {
	Backend    string
	DefaultTTL time.Duration

	// memory
	MaxEntries      int
	CleanupInterval time.Duration

	// redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPoolSize int
}

// DefaultOptions опции по умолчанию: память, сутки TTL
func DefaultOptions() *Options {
	return &Options{
		Backend:         BackendMemory,
		DefaultTTL:      24 * time.Hour,
		MaxEntries:      10000,
		CleanupInterval: time.Minute,
		RedisAddr:       "localhost:6379",
		RedisPoolSize:   10,
	}
}

// FromConfig создаёт опции из конфигурации
func FromConfig(cfg *config.CacheConfig) *Options {
	opts := DefaultOptions()
	opts.Backend = cfg.Driver
	opts.RedisAddr = cfg.Address()
	opts.RedisPassword = cfg.Password
	opts.RedisDB = cfg.DB
	if cfg.DefaultTTL > 0 {
		opts.DefaultTTL = cfg.DefaultTTL
	}
	if cfg.MaxEntries > 0 {
		opts.MaxEntries = cfg.MaxEntries
	}
	return opts
}

// New создаёт кэш выбранного бэкенда
func New(opts *Options) (Cache, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	switch opts.Backend {
	case BackendMemory, "":
		return NewMemoryCache(opts), nil
	case BackendRedis:
		return NewRedisCache(opts)
	default:
		return nil, fmt.Errorf("unknown cache backend: %s", opts.Backend)
	}
}

// MustNew как New, но паникует при ошибке
func MustNew(opts *Options) Cache {
	c, err := New(opts)
	if err != nil {
		panic(err)
	}
	return c
}
