package cli

import (
	"context"
	"errors"

	"pagesim/pkg/audit"
	"pagesim/pkg/cache"
	"pagesim/pkg/config"
	"pagesim/pkg/logger"
	"pagesim/pkg/metrics"
	"pagesim/services/simulator-svc/internal/explainer"
	"pagesim/services/simulator-svc/internal/service"
)

// components собранные компоненты сервиса
type components struct {
	cfg     *config.Config
	metrics *metrics.Metrics
	cache   cache.Cache
	journal audit.Logger
	service *service.SimulatorService
}

// buildComponents собирает кэш, генератор пояснений и сервис. m может быть nil.
func buildComponents(cfg *config.Config, m *metrics.Metrics) *components {
	rt := &components{cfg: cfg, metrics: m}

	// =========================================================================
	// Кэш пояснений
	// =========================================================================

	var explanations *cache.ExplanationCache
	if cfg.Cache.Enabled {
		c, err := cache.New(cache.FromConfig(&cfg.Cache))
		if err != nil {
			// Без кэша пояснения всё равно работают, просто каждый раз идут в генератор
			logger.Log.Warn("Failed to init cache, explanations will not be memoized",
				"driver", cfg.Cache.Driver,
				"error", err,
			)
		} else {
			rt.cache = c
			explanations = cache.NewExplanationCache(c, cfg.Explainer.CacheTTL)
			if err := m.RegisterCacheStats(cacheStats(c, cfg.Cache.Driver)); err != nil {
				logger.Log.Warn("Failed to register cache collector", "error", err)
			}
			logger.Log.Debug("Cache initialized", "driver", cfg.Cache.Driver)
		}
	}

	// =========================================================================
	// Генератор пояснений
	// =========================================================================

	var gen explainer.TextGenerator = explainer.Disabled{}
	if cfg.Explainer.Enabled {
		if cfg.Explainer.APIKey == "" {
			logger.Log.Warn("Explainer enabled without API key, requests will be rejected upstream")
		}
		gen = explainer.NewGeminiClient(cfg.Explainer)
		logger.Log.Info("Explainer enabled",
			"timeout", cfg.Explainer.Timeout,
			"max_attempts", cfg.Explainer.MaxAttempts,
		)
	}
	gen = explainer.NewCachedGenerator(gen, explanations, m, cfg.Explainer.CacheTTL)

	// =========================================================================
	// Сервис
	// =========================================================================

	rt.service = service.NewSimulatorService(cfg, gen, m)

	if cfg.Audit.Enabled {
		journal, err := audit.New(audit.FromConfig(cfg.Audit, cfg.App.Name))
		if err != nil {
			logger.Log.Warn("Failed to init audit journal, session actions will not be recorded",
				"backend", cfg.Audit.Backend,
				"error", err,
			)
		} else {
			rt.journal = journal
			rt.service.WithAudit(journal)
			logger.Log.Info("Audit journal enabled", "backend", cfg.Audit.Backend)
		}
	}

	return rt
}

// Close останавливает сервис, закрывает журнал и кэш
func (rt *components) Close(context.Context) error {
	rt.service.Close()

	var errs []error
	if rt.journal != nil {
		errs = append(errs, rt.journal.Close())
	}
	if rt.cache != nil {
		errs = append(errs, rt.cache.Close())
	}
	return errors.Join(errs...)
}

// cacheStats переводит статистику кэша в срез для коллектора метрик
func cacheStats(c cache.Cache, backend string) metrics.CacheStatsFunc {
	return func(ctx context.Context) (metrics.CacheSnapshot, error) {
		st, err := c.Stats(ctx)
		if err != nil {
			return metrics.CacheSnapshot{Backend: backend}, err
		}
		return metrics.CacheSnapshot{
			Backend:   st.Backend,
			Keys:      st.TotalKeys,
			Hits:      st.Hits,
			Misses:    st.Misses,
			Evictions: st.Evictions,
		}, nil
	}
}
