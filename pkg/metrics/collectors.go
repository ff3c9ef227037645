package metrics

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// =============================================================================
// Кэш пояснений
// =============================================================================

// CacheSnapshot срез состояния кэша на момент сбора
type CacheSnapshot struct {
	Backend   string
	Keys      int64
	Hits      int64
	Misses    int64
	Evictions int64
}

// CacheStatsFunc источник статистики кэша
type CacheStatsFunc func(ctx context.Context) (CacheSnapshot, error)

// CacheCollector отдаёт статистику кэша при каждом scrape
type CacheCollector struct {
	source  CacheStatsFunc
	timeout time.Duration

	keys      *prometheus.Desc
	hits      *prometheus.Desc
	misses    *prometheus.Desc
	evictions *prometheus.Desc
	up        *prometheus.Desc
}

// NewCacheCollector создаёт коллектор поверх источника статистики
func NewCacheCollector(namespace, subsystem string, source CacheStatsFunc) *CacheCollector {
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(
			prometheus.BuildFQName(namespace, subsystem, name),
			help,
			[]string{"backend"}, nil,
		)
	}

	return &CacheCollector{
		source:    source,
		timeout:   2 * time.Second,
		keys:      desc("cache_keys", "Number of keys in the explanation cache"),
		hits:      desc("cache_backend_hits_total", "Lookups answered by the cache backend"),
		misses:    desc("cache_backend_misses_total", "Lookups missed by the cache backend"),
		evictions: desc("cache_evictions_total", "Entries evicted to respect the size limit"),
		up:        desc("cache_up", "Whether the last stats call succeeded"),
	}
}

// Describe implements prometheus.Collector
func (c *CacheCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.keys
	ch <- c.hits
	ch <- c.misses
	ch <- c.evictions
	ch <- c.up
}

// Collect implements prometheus.Collector
func (c *CacheCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	snap, err := c.source(ctx)
	if err != nil {
		ch <- prometheus.MustNewConstMetric(c.up, prometheus.GaugeValue, 0, snap.Backend)
		return
	}

	ch <- prometheus.MustNewConstMetric(c.up, prometheus.GaugeValue, 1, snap.Backend)
	ch <- prometheus.MustNewConstMetric(c.keys, prometheus.GaugeValue, float64(snap.Keys), snap.Backend)
	ch <- prometheus.MustNewConstMetric(c.hits, prometheus.CounterValue, float64(snap.Hits), snap.Backend)
	ch <- prometheus.MustNewConstMetric(c.misses, prometheus.CounterValue, float64(snap.Misses), snap.Backend)
	ch <- prometheus.MustNewConstMetric(c.evictions, prometheus.CounterValue, float64(snap.Evictions), snap.Backend)
}

// RegisterCacheStats регистрирует CacheCollector в регистре метрик
func (m *Metrics) RegisterCacheStats(source CacheStatsFunc) error {
	if m == nil || m.reg == nil {
		return nil
	}
	return m.reg.Register(NewCacheCollector(m.namespace, m.subsystem, source))
}

// =============================================================================
// Активные запросы
// =============================================================================

// RequestTracker считает активные запросы по маршрутам
type RequestTracker struct {
	mu       sync.Mutex
	active   map[string]int
	inFlight prometheus.Gauge
}

// NewRequestTracker создаёт трекер поверх общего gauge
func NewRequestTracker(inFlight prometheus.Gauge) *RequestTracker {
	return &RequestTracker{
		active:   make(map[string]int),
		inFlight: inFlight,
	}
}

// Start отмечает начало запроса
func (t *RequestTracker) Start(route string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.active[route]++
	t.inFlight.Inc()
}

// End отмечает завершение запроса; счётчик не уходит в минус
func (t *RequestTracker) End(route string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.active[route] > 0 {
		t.active[route]--
		t.inFlight.Dec()
	}
}

// Active число активных запросов маршрута
func (t *RequestTracker) Active(route string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active[route]
}
