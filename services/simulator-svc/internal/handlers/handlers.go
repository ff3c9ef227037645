// Package handlers exposes the simulator service over JSON/HTTP.
//
// Routes are registered on a method-aware http.ServeMux, so the route label
// used by metrics and spans is the registered pattern rather than the raw path.
package handlers

import (
	"net/http"
	"time"

	"pagesim/pkg/config"
	"pagesim/pkg/metrics"
	"pagesim/pkg/ratelimit"
	"pagesim/pkg/telemetry"
	"pagesim/services/simulator-svc/internal/policy"
	"pagesim/services/simulator-svc/internal/report"
	"pagesim/services/simulator-svc/internal/service"
)

// Константы
const (
	statusHealthy = "HEALTHY"
	apiPrefix     = "/api/v1"
)

// Handler корневой обработчик API
type Handler struct {
	svc       *service.SimulatorService
	config    *config.Config
	metrics   *metrics.Metrics
	limiter   ratelimit.Limiter
	startedAt time.Time

	// Sub-handlers
	simulation *SimulationHandler
	sessions   *SessionHandler
	report     *ReportHandler
}

// New создаёт handler. m == nil отключает метрики HTTP.
func New(svc *service.SimulatorService, cfg *config.Config, m *metrics.Metrics) *Handler {
	h := &Handler{
		svc:       svc,
		config:    cfg,
		metrics:   m,
		startedAt: time.Now(),
	}

	h.simulation = NewSimulationHandler(svc)
	h.sessions = NewSessionHandler(svc)
	h.report = NewReportHandler(svc)

	return h
}

// WithLimiter включает ограничение частоты для эндпоинтов пояснений
func (h *Handler) WithLimiter(l ratelimit.Limiter) *Handler {
	h.limiter = l
	return h
}

// Routes собирает mux и цепочку middleware
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("GET "+apiPrefix+"/info", h.Info)

	// Каталог и одиночные прогоны
	mux.HandleFunc("GET "+apiPrefix+"/algorithms", h.simulation.ListAlgorithms)
	mux.HandleFunc("GET "+apiPrefix+"/algorithms/{name}", h.simulation.GetAlgorithm)
	mux.HandleFunc("GET "+apiPrefix+"/examples", h.simulation.ListExamples)
	mux.HandleFunc("POST "+apiPrefix+"/simulations", h.simulation.Simulate)
	mux.HandleFunc("POST "+apiPrefix+"/simulations/analyze", RateLimit(h.limiter, h.metrics, h.simulation.Analyze))
	mux.HandleFunc("POST "+apiPrefix+"/compare", h.simulation.Compare)
	mux.HandleFunc("POST "+apiPrefix+"/sweep", h.simulation.Sweep)
	mux.HandleFunc("DELETE "+apiPrefix+"/explanations", h.simulation.FlushExplanations)

	// Сессии
	mux.HandleFunc("POST "+apiPrefix+"/sessions", h.sessions.Create)
	mux.HandleFunc("GET "+apiPrefix+"/sessions/{id}", h.sessions.Get)
	mux.HandleFunc("DELETE "+apiPrefix+"/sessions/{id}", h.sessions.Delete)
	mux.HandleFunc("POST "+apiPrefix+"/sessions/{id}/run", h.sessions.Run)
	mux.HandleFunc("POST "+apiPrefix+"/sessions/{id}/step", h.sessions.StepForward)
	mux.HandleFunc("POST "+apiPrefix+"/sessions/{id}/back", h.sessions.StepBack)
	mux.HandleFunc("POST "+apiPrefix+"/sessions/{id}/jump", h.sessions.Jump)
	mux.HandleFunc("POST "+apiPrefix+"/sessions/{id}/play", h.sessions.Play)
	mux.HandleFunc("POST "+apiPrefix+"/sessions/{id}/pause", h.sessions.Pause)
	mux.HandleFunc("POST "+apiPrefix+"/sessions/{id}/reset", h.sessions.Reset)
	mux.HandleFunc("POST "+apiPrefix+"/sessions/{id}/explain", RateLimit(h.limiter, h.metrics, h.sessions.Explain))
	mux.HandleFunc("POST "+apiPrefix+"/sessions/{id}/compare", RateLimit(h.limiter, h.metrics, h.sessions.CompareWithOptimal))
	mux.HandleFunc("GET "+apiPrefix+"/sessions/{id}/activity", h.sessions.Activity)

	// Отчёты
	mux.HandleFunc("GET "+apiPrefix+"/sessions/{id}/report", h.report.SessionReport)
	mux.HandleFunc("POST "+apiPrefix+"/reports", h.report.Generate)

	if h.config.Metrics.Enabled {
		mux.Handle("GET "+h.config.Metrics.Path, metrics.Handler())
	}
	h.registerDocs(mux)

	// Observe и BodyLimit передают запрос в mux без копирования,
	// иначе Pattern не дойдёт до метрик и span
	return Chain(mux,
		RequestID,
		Recover,
		CORS(h.config.HTTP.CORS),
		telemetry.Middleware,
		Observe(h.metrics),
		BodyLimit(h.config.HTTP.MaxBodyBytes),
	)
}

// ==================== Health & Info ====================

// HealthResponse ответ проверки живости
type HealthResponse struct {
	Status         string    `json:"status"`
	Timestamp      time.Time `json:"timestamp"`
	ActiveSessions int       `json:"active_sessions"`
}

func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:         statusHealthy,
		Timestamp:      time.Now().UTC(),
		ActiveSessions: h.svc.Sessions().Len(),
	})
}

// LimitsInfo границы входных данных
type LimitsInfo struct {
	MinFrames          int   `json:"min_frames"`
	MaxFrames          int   `json:"max_frames"`
	MaxReferenceLength int   `json:"max_reference_length"`
	MaxSessions        int   `json:"max_sessions"`
	MinSpeed           int   `json:"min_speed"`
	MaxSpeed           int   `json:"max_speed"`
	MaxBodyBytes       int64 `json:"max_body_bytes"`
}

// InfoResponse сведения о сервисе
type InfoResponse struct {
	Name             string             `json:"name"`
	Version          string             `json:"version"`
	Environment      string             `json:"environment"`
	StartedAt        time.Time          `json:"started_at"`
	UptimeSeconds    int64              `json:"uptime_seconds"`
	Algorithms       []policy.Algorithm `json:"algorithms"`
	DefaultAlgorithm string             `json:"default_algorithm"`
	ReportFormats    []report.Format    `json:"report_formats"`
	Explainer        bool               `json:"explainer"`
	Limits           LimitsInfo         `json:"limits"`
}

func (h *Handler) Info(w http.ResponseWriter, _ *http.Request) {
	cfg := h.config
	writeJSON(w, http.StatusOK, InfoResponse{
		Name:             cfg.App.Name,
		Version:          cfg.App.Version,
		Environment:      cfg.App.Environment,
		StartedAt:        h.startedAt.UTC(),
		UptimeSeconds:    int64(time.Since(h.startedAt).Seconds()),
		Algorithms:       policy.Algorithms(),
		DefaultAlgorithm: cfg.Simulation.DefaultAlgorithm,
		ReportFormats:    report.Formats(),
		Explainer:        cfg.Explainer.Enabled,
		Limits: LimitsInfo{
			MinFrames:          cfg.Simulation.MinFrames,
			MaxFrames:          cfg.Simulation.MaxFrames,
			MaxReferenceLength: cfg.Simulation.MaxReferenceLength,
			MaxSessions:        cfg.Playback.MaxSessions,
			MinSpeed:           cfg.Playback.MinSpeed,
			MaxSpeed:           cfg.Playback.MaxSpeed,
			MaxBodyBytes:       cfg.HTTP.MaxBodyBytes,
		},
	})
}
