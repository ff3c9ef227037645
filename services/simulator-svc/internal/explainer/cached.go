package explainer

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"pagesim/pkg/apperror"
	"pagesim/pkg/cache"
	"pagesim/pkg/logger"
	"pagesim/pkg/metrics"
	"pagesim/pkg/telemetry"
)

// CachedGenerator мемоизирует ответы генератора по Prompt.CacheKey
type CachedGenerator struct {
	next    TextGenerator
	cache   *cache.ExplanationCache
	metrics *metrics.Metrics
	ttl     time.Duration
}

// NewCachedGenerator оборачивает генератор кэшем.
// cache и m могут быть nil: тогда кэширование и метрики отключены.
func NewCachedGenerator(next TextGenerator, ec *cache.ExplanationCache, m *metrics.Metrics, ttl time.Duration) *CachedGenerator {
	return &CachedGenerator{
		next:    next,
		cache:   ec,
		metrics: m,
		ttl:     ttl,
	}
}

func (g *CachedGenerator) Generate(ctx context.Context, p Prompt) (string, error) {
	ctx, span := telemetry.StartSpan(ctx, "explainer.Generate",
		telemetry.WithAttributes(attribute.String(telemetry.AttrExplainKind, string(p.Kind))))
	defer span.End()

	log := logger.FromContext(ctx).With("kind", string(p.Kind))
	start := time.Now()

	if g.cache != nil && p.CacheKey != "" {
		entry, ok, err := g.cache.Get(ctx, p.CacheKey)
		if err != nil {
			log.Warn("explanation cache lookup failed", "error", err)
		}
		g.recordLookup(ok)
		if ok {
			telemetry.SetAttributes(ctx, attribute.Bool(telemetry.AttrExplainCached, true))
			g.record(p.Kind, "cached", start)
			return entry.Text, nil
		}
	}
	telemetry.SetAttributes(ctx, attribute.Bool(telemetry.AttrExplainCached, false))

	text, err := g.next.Generate(ctx, p)
	if err != nil {
		telemetry.SetError(ctx, err)
		g.record(p.Kind, "error", start)
		return "", err
	}
	g.record(p.Kind, "success", start)

	if g.cache != nil && p.CacheKey != "" {
		if err := g.cache.Set(ctx, p.CacheKey, string(p.Kind), text, g.ttl); err != nil {
			log.Warn("failed to store explanation", "error", err)
		}
	}

	return text, nil
}

// Flush удаляет пояснения алгоритма из кэша
func (g *CachedGenerator) Flush(ctx context.Context, algorithm string) (int64, error) {
	if g.cache == nil {
		return 0, apperror.New(apperror.CodeUnimplemented, "explanation cache is disabled")
	}
	if algorithm == "" {
		return g.cache.InvalidateAll(ctx)
	}
	return g.cache.InvalidateAlgorithm(ctx, algorithm)
}

func (g *CachedGenerator) recordLookup(hit bool) {
	if g.metrics != nil {
		g.metrics.RecordCacheLookup(hit)
	}
}

func (g *CachedGenerator) record(kind Kind, outcome string, start time.Time) {
	if g.metrics != nil {
		g.metrics.RecordExplainerRequest(string(kind), outcome, time.Since(start))
	}
}
