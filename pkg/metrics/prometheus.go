package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics контейнер метрик симулятора
type Metrics struct {
	// HTTP метрики
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
	RateLimitDecisions   *prometheus.CounterVec

	// Симуляции
	SimulationsTotal   *prometheus.CounterVec
	SimulationDuration *prometheus.HistogramVec
	PageFaults         *prometheus.HistogramVec
	HitRatio           *prometheus.GaugeVec
	ReferenceLength    prometheus.Histogram
	BeladyAnomalies    *prometheus.CounterVec

	// Сессии и проигрывание
	SessionsActive     prometheus.Gauge
	SessionTransitions *prometheus.CounterVec
	PlaybackTicks      prometheus.Counter

	// Генератор пояснений
	ExplainerRequestsTotal *prometheus.CounterVec
	ExplainerDuration      *prometheus.HistogramVec
	ExplanationCacheTotal  *prometheus.CounterVec

	// Отчёты
	ReportsGeneratedTotal *prometheus.CounterVec
	ReportSizeBytes       *prometheus.HistogramVec

	// Информация о сервисе
	ServiceInfo *prometheus.GaugeVec

	reg       prometheus.Registerer
	namespace string
	subsystem string
}

var defaultMetrics *Metrics

// InitMetrics регистрирует метрики в prometheus.DefaultRegisterer
// и делает их глобальными
func InitMetrics(namespace, subsystem string) *Metrics {
	m := NewMetrics(prometheus.DefaultRegisterer, namespace, subsystem)
	defaultMetrics = m
	return m
}

// NewMetrics создаёт метрики в указанном регистре
func NewMetrics(reg prometheus.Registerer, namespace, subsystem string) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		reg:       reg,
		namespace: namespace,
		subsystem: subsystem,

		HTTPRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),

		HTTPRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of HTTP requests",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "route"},
		),

		HTTPRequestsInFlight: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "http_requests_in_flight",
				Help:      "Current number of HTTP requests being processed",
			},
		),

		SimulationsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "simulations_total",
				Help:      "Total number of simulation runs",
			},
			[]string{"algorithm", "status"},
		),

		SimulationDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "simulation_duration_seconds",
				Help:      "Duration of trace building",
				Buckets:   []float64{.00001, .0001, .0005, .001, .005, .01, .05, .1},
			},
			[]string{"algorithm"},
		),

		PageFaults: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "page_faults",
				Help:      "Number of page faults per simulation",
				Buckets:   []float64{1, 2, 5, 10, 20, 50, 100, 250, 500, 1000},
			},
			[]string{"algorithm"},
		),

		HitRatio: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "hit_ratio",
				Help:      "Hit ratio of the last simulation per algorithm",
			},
			[]string{"algorithm"},
		),

		ReferenceLength: f.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "reference_length",
				Help:      "Length of simulated reference strings",
				Buckets:   []float64{5, 10, 20, 50, 100, 250, 500, 1000},
			},
		),

		BeladyAnomalies: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "belady_anomalies_total",
				Help:      "Capacity increases that produced more page faults",
			},
			[]string{"algorithm"},
		),

		RateLimitDecisions: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "rate_limit_decisions_total",
				Help:      "Rate limiter decisions by route",
			},
			[]string{"route", "decision"},
		),

		SessionsActive: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "sessions_active",
				Help:      "Current number of simulation sessions",
			},
		),

		SessionTransitions: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "session_transitions_total",
				Help:      "Session navigation actions",
			},
			[]string{"action", "result"},
		),

		PlaybackTicks: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "playback_ticks_total",
				Help:      "Auto-advance ticks delivered to sessions",
			},
		),

		ExplainerRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "explainer_requests_total",
				Help:      "Requests to the text-generation service",
			},
			[]string{"kind", "outcome"},
		),

		ExplainerDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "explainer_duration_seconds",
				Help:      "Duration of text-generation requests including retries",
				Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 20, 30, 60},
			},
			[]string{"kind"},
		),

		ExplanationCacheTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "explanation_cache_total",
				Help:      "Explanation cache lookups",
			},
			[]string{"result"},
		),

		ReportsGeneratedTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "reports_generated_total",
				Help:      "Generated export documents",
			},
			[]string{"format", "status"},
		),

		ReportSizeBytes: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "report_size_bytes",
				Help:      "Size of generated export documents",
				Buckets:   prometheus.ExponentialBuckets(256, 4, 8),
			},
			[]string{"format"},
		),

		ServiceInfo: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "service_info",
				Help:      "Service information",
			},
			[]string{"version", "environment"},
		),
	}
}

// Get возвращает глобальные метрики
func Get() *Metrics {
	if defaultMetrics == nil {
		return InitMetrics("pagesim", "")
	}
	return defaultMetrics
}

func statusLabel(success bool) string {
	if success {
		return "success"
	}
	return "error"
}

// RecordHTTPRequest записывает метрики HTTP запроса
func (m *Metrics) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordRateLimit учитывает решение лимитера
func (m *Metrics) RecordRateLimit(route string, allowed bool) {
	decision := "rejected"
	if allowed {
		decision = "allowed"
	}
	m.RateLimitDecisions.WithLabelValues(route, decision).Inc()
}

// RecordSimulation записывает результат построения трассы
func (m *Metrics) RecordSimulation(algorithm string, success bool, duration time.Duration, refs, faults int) {
	m.SimulationsTotal.WithLabelValues(algorithm, statusLabel(success)).Inc()
	m.SimulationDuration.WithLabelValues(algorithm).Observe(duration.Seconds())
	if !success {
		return
	}

	m.ReferenceLength.Observe(float64(refs))
	m.PageFaults.WithLabelValues(algorithm).Observe(float64(faults))
	if refs > 0 {
		m.HitRatio.WithLabelValues(algorithm).Set(float64(refs-faults) / float64(refs))
	}
}

// RecordBeladyAnomalies учитывает найденные аномалии Белади
func (m *Metrics) RecordBeladyAnomalies(algorithm string, count int) {
	if count > 0 {
		m.BeladyAnomalies.WithLabelValues(algorithm).Add(float64(count))
	}
}

// RecordSessionAction учитывает действие навигации по сессии
func (m *Metrics) RecordSessionAction(action string, success bool) {
	m.SessionTransitions.WithLabelValues(action, statusLabel(success)).Inc()
}

// RecordExplainerRequest записывает обращение к генератору текста
func (m *Metrics) RecordExplainerRequest(kind, outcome string, duration time.Duration) {
	m.ExplainerRequestsTotal.WithLabelValues(kind, outcome).Inc()
	m.ExplainerDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

// RecordCacheLookup учитывает попадание или промах кэша пояснений
func (m *Metrics) RecordCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.ExplanationCacheTotal.WithLabelValues(result).Inc()
}

// RecordReport записывает генерацию отчёта
func (m *Metrics) RecordReport(format string, success bool, size int) {
	m.ReportsGeneratedTotal.WithLabelValues(format, statusLabel(success)).Inc()
	if success {
		m.ReportSizeBytes.WithLabelValues(format).Observe(float64(size))
	}
}

// SetServiceInfo устанавливает информацию о сервисе
func (m *Metrics) SetServiceInfo(version, environment string) {
	m.ServiceInfo.WithLabelValues(version, environment).Set(1)
}

// Handler возвращает HTTP handler для /metrics
func Handler() http.Handler {
	return promhttp.Handler()
}

// HandlerFor возвращает handler для отдельного регистра
func HandlerFor(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
