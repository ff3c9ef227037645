package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ExplanationCache кэш сгенерированных пояснений поверх произвольного Cache
type ExplanationCache struct {
	cache      Cache
	defaultTTL time.Duration
}

// CachedExplanation запись кэша
type CachedExplanation struct {
	Text        string    `json:"text"`
	Kind        string    `json:"kind"` // step, compare
	GeneratedAt time.Time `json:"generated_at"`
}

// NewExplanationCache создаёт кэш пояснений
func NewExplanationCache(cache Cache, defaultTTL time.Duration) *ExplanationCache {
	if defaultTTL <= 0 {
		defaultTTL = 24 * time.Hour
	}
	return &ExplanationCache{
		cache:      cache,
		defaultTTL: defaultTTL,
	}
}

// Get получает пояснение по ключу. Промах не считается ошибкой.
func (ec *ExplanationCache) Get(ctx context.Context, key string) (*CachedExplanation, bool, error) {
	data, err := ec.cache.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}

	var entry CachedExplanation
	if err := json.Unmarshal(data, &entry); err != nil {
		// повреждённая запись: удаляем и считаем промахом
		_ = ec.cache.Delete(ctx, key)
		return nil, false, nil
	}

	return &entry, true, nil
}

// Set сохраняет пояснение
func (ec *ExplanationCache) Set(ctx context.Context, key, kind, text string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = ec.defaultTTL
	}

	data, err := json.Marshal(CachedExplanation{
		Text:        text,
		Kind:        kind,
		GeneratedAt: time.Now().UTC(),
	})
	if err != nil {
		return err
	}

	return ec.cache.Set(ctx, key, data, ttl)
}

// InvalidateAlgorithm удаляет все пояснения алгоритма
func (ec *ExplanationCache) InvalidateAlgorithm(ctx context.Context, algorithm string) (int64, error) {
	return ec.cache.DeleteByPattern(ctx, AlgorithmPattern(algorithm))
}

// InvalidateAll удаляет все пояснения
func (ec *ExplanationCache) InvalidateAll(ctx context.Context) (int64, error) {
	return ec.cache.DeleteByPattern(ctx, KeyPrefix+":*")
}

// Stats статистика нижележащего кэша
func (ec *ExplanationCache) Stats(ctx context.Context) (*Stats, error) {
	return ec.cache.Stats(ctx)
}
