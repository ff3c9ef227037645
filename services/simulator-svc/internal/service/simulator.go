// Package service wires the simulation core to the outside world: request
// validation against configured bounds, the session registry with playback
// drivers, explanation requests and report export. Metrics, spans and logs
// are recorded here so the core packages stay free of I/O.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"pagesim/pkg/apperror"
	"pagesim/pkg/audit"
	"pagesim/pkg/config"
	"pagesim/pkg/logger"
	"pagesim/pkg/metrics"
	"pagesim/pkg/telemetry"
	"pagesim/services/simulator-svc/internal/explainer"
	"pagesim/services/simulator-svc/internal/policy"
	"pagesim/services/simulator-svc/internal/trace"
)

// SimulateRequest входные данные прогона.
// Example подставляет пресет; References имеет приоритет над ReferenceString.
type SimulateRequest struct {
	Algorithm       string `json:"algorithm"`
	References      []int  `json:"references,omitempty"`
	ReferenceString string `json:"reference_string,omitempty"`
	Frames          int    `json:"frames"`
	Example         string `json:"example,omitempty"`
}

// CompareRequest сравнение нескольких алгоритмов на одном входе
type CompareRequest struct {
	SimulateRequest
	Algorithms []string `json:"algorithms,omitempty"`
}

// SweepRequest прогон одного алгоритма по диапазону ёмкостей
type SweepRequest struct {
	SimulateRequest
	MinFrames int `json:"min_frames,omitempty"`
	MaxFrames int `json:"max_frames,omitempty"`
}

type input struct {
	algo   policy.Algorithm
	refs   []int
	frames int
}

// SimulatorService фасад над ядром симуляции
type SimulatorService struct {
	cfg       *config.Config
	metrics   *metrics.Metrics
	explainer explainer.TextGenerator
	sessions  *Registry
	audit     audit.Logger

	// ctx живёт до Close; на нём работают драйверы проигрывания и уборка сессий
	ctx         context.Context
	cancel      context.CancelFunc
	janitorDone chan struct{}
}

// NewSimulatorService создаёт сервис. gen == nil отключает пояснения, m == nil отключает метрики.
func NewSimulatorService(cfg *config.Config, gen explainer.TextGenerator, m *metrics.Metrics) *SimulatorService {
	if gen == nil {
		gen = explainer.Disabled{}
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &SimulatorService{
		cfg:       cfg,
		metrics:   m,
		explainer: gen,
		sessions:  NewRegistry(cfg.Playback.MaxSessions, cfg.Playback.SessionTTL),
		audit:     audit.NoopLogger{},
		ctx:       ctx,
		cancel:    cancel,
	}
	if m != nil {
		s.sessions.OnSizeChange(func(n int) { m.SessionsActive.Set(float64(n)) })
	}
	if ttl := cfg.Playback.SessionTTL; ttl > 0 {
		s.janitorDone = make(chan struct{})
		go s.janitor(janitorInterval(ttl))
	}
	return s
}

// WithAudit подключает журнал действий над сессиями
func (s *SimulatorService) WithAudit(l audit.Logger) *SimulatorService {
	if l != nil {
		s.audit = l
	}
	return s
}

// Close останавливает уборку и все проигрывания
func (s *SimulatorService) Close() {
	s.cancel()
	if s.janitorDone != nil {
		<-s.janitorDone
	}
	s.sessions.Close()
}

func janitorInterval(ttl time.Duration) time.Duration {
	interval := ttl / 2
	if interval < time.Second {
		interval = time.Second
	}
	if interval > 5*time.Minute {
		interval = 5 * time.Minute
	}
	return interval
}

// janitor периодически удаляет просроченные сессии
func (s *SimulatorService) janitor(interval time.Duration) {
	defer close(s.janitorDone)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			if n := s.sessions.Cleanup(); n > 0 {
				logger.Log.Info("expired sessions removed", "count", n, "active", s.sessions.Len())
			}
		}
	}
}

// Sessions реестр сессий
func (s *SimulatorService) Sessions() *Registry {
	return s.sessions
}

// Algorithms каталог алгоритмов в каноническом порядке
func (s *SimulatorService) Algorithms() []*policy.Info {
	return policy.GetAllAlgorithms()
}

// Examples готовые наборы входных данных
func (s *SimulatorService) Examples() []trace.Example {
	return trace.Examples()
}

// Simulate строит полную трассу
func (s *SimulatorService) Simulate(ctx context.Context, req SimulateRequest) (*trace.SimulationResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "SimulatorService.Simulate")
	defer span.End()

	in, err := s.resolve(req)
	if err != nil {
		telemetry.SetError(ctx, err)
		s.recordSimulation(s.algorithmLabel(req.Algorithm), false, 0, 0, 0)
		return nil, err
	}
	span.SetAttributes(telemetry.InputAttributes(in.algo.String(), in.frames, len(in.refs))...)

	return s.build(ctx, in)
}

func (s *SimulatorService) build(ctx context.Context, in input) (*trace.SimulationResult, error) {
	start := time.Now()
	result, err := trace.BuildAlgorithm(in.algo, in.refs, in.frames)
	elapsed := time.Since(start)

	if err != nil {
		telemetry.SetError(ctx, err)
		s.recordSimulation(in.algo.String(), false, elapsed, len(in.refs), 0)
		return nil, err
	}

	telemetry.SetAttributes(ctx, telemetry.ResultAttributes(result.TotalFaults, result.TotalHits)...)
	s.recordSimulation(in.algo.String(), true, elapsed, len(in.refs), result.TotalFaults)

	logger.WithAlgorithm(in.algo.String(), in.frames).Debug("simulation built",
		"references", len(in.refs),
		"faults", result.TotalFaults,
		"duration", elapsed,
	)
	return result, nil
}

// Compare сравнивает алгоритмы; пустой список означает все пять
func (s *SimulatorService) Compare(ctx context.Context, req CompareRequest) (*trace.Comparison, error) {
	ctx, span := telemetry.StartSpan(ctx, "SimulatorService.Compare")
	defer span.End()

	algos := make([]policy.Algorithm, 0, len(req.Algorithms))
	for _, name := range req.Algorithms {
		algo, err := policy.ParseAlgorithm(name)
		if err != nil {
			telemetry.SetError(ctx, err)
			return nil, err
		}
		algos = append(algos, algo)
	}

	in, err := s.resolve(req.SimulateRequest)
	if err != nil {
		telemetry.SetError(ctx, err)
		return nil, err
	}
	span.SetAttributes(
		attribute.Int(telemetry.AttrFrames, in.frames),
		attribute.Int(telemetry.AttrReferenceLength, len(in.refs)),
	)

	start := time.Now()
	comparison, err := trace.Compare(in.refs, in.frames, algos...)
	if err != nil {
		telemetry.SetError(ctx, err)
		return nil, err
	}

	elapsed := time.Since(start)
	for _, e := range comparison.Entries {
		s.recordSimulation(e.Algorithm.String(), true, elapsed/time.Duration(len(comparison.Entries)), len(in.refs), e.Faults)
	}
	telemetry.AddEvent(ctx, "compared",
		attribute.String("best", comparison.Best().String()),
		attribute.Int("optimal_faults", comparison.OptimalFaults),
	)
	return comparison, nil
}

// Sweep прогоняет алгоритм по диапазону ёмкостей и ищет аномалию Белади.
// Незаданные границы берутся из simulation.min_frames и simulation.max_frames.
func (s *SimulatorService) Sweep(ctx context.Context, req SweepRequest) (*trace.Sweep, error) {
	ctx, span := telemetry.StartSpan(ctx, "SimulatorService.Sweep")
	defer span.End()

	minFrames, maxFrames := req.MinFrames, req.MaxFrames
	if minFrames == 0 {
		minFrames = s.cfg.Simulation.MinFrames
	}
	if maxFrames == 0 {
		maxFrames = s.cfg.Simulation.MaxFrames
	}

	// кадры запроса в развёртке не участвуют, но должны пройти проверку
	base := req.SimulateRequest
	base.Frames = minFrames
	in, err := s.resolve(base)
	if err != nil {
		telemetry.SetError(ctx, err)
		return nil, err
	}
	if err := s.checkFrames(maxFrames); err != nil {
		telemetry.SetError(ctx, err)
		return nil, err
	}

	sweep, err := trace.SweepCapacity(in.algo, in.refs, minFrames, maxFrames)
	if err != nil {
		telemetry.SetError(ctx, err)
		return nil, err
	}

	span.SetAttributes(
		attribute.String(telemetry.AttrAlgorithm, in.algo.String()),
		attribute.Int("sweep.points", len(sweep.Points)),
		attribute.Int("sweep.anomalies", len(sweep.Anomalies)),
	)
	if s.metrics != nil {
		s.metrics.RecordBeladyAnomalies(in.algo.String(), len(sweep.Anomalies))
	}
	if sweep.HasAnomaly() {
		logger.WithAlgorithm(in.algo.String(), 0).Info("belady anomaly detected",
			"anomalies", len(sweep.Anomalies),
			"references", trace.FormatReferenceString(in.refs),
		)
	}
	return sweep, nil
}

// resolve проверяет запрос: пресет, алгоритм, длина, границы ёмкости.
// Остальные ошибки (пустая последовательность, ёмкость < 1) возвращает ядро.
func (s *SimulatorService) resolve(req SimulateRequest) (input, error) {
	var in input

	refs := req.References
	frames := req.Frames
	switch {
	case req.Example != "":
		ex, ok := trace.GetExample(req.Example)
		if !ok {
			return in, apperror.NewWithField(apperror.CodeNotFound,
				fmt.Sprintf("example %q not found", req.Example), "example")
		}
		refs = ex.References
		if frames == 0 {
			frames = ex.Frames
		}
	case len(refs) == 0 && strings.TrimSpace(req.ReferenceString) != "":
		parsed, err := trace.ParseReferenceString(req.ReferenceString)
		if err != nil {
			return in, err
		}
		refs = parsed
	}

	name := req.Algorithm
	if strings.TrimSpace(name) == "" {
		name = s.cfg.Simulation.DefaultAlgorithm
	}
	algo, err := policy.ParseAlgorithm(name)
	if err != nil {
		return in, err
	}

	if limit := s.cfg.Simulation.MaxReferenceLength; limit > 0 && len(refs) > limit {
		return in, apperror.NewWithField(apperror.CodeReferenceTooLong,
			fmt.Sprintf("reference sequence has %d pages, limit is %d", len(refs), limit), "references").
			WithDetails("limit", limit)
	}

	if err := s.checkFrames(frames); err != nil {
		return in, err
	}

	return input{algo: algo, refs: refs, frames: frames}, nil
}

// checkFrames ограничивает ёмкость диапазоном формы ввода; значения < 1 проверяет ядро
func (s *SimulatorService) checkFrames(frames int) error {
	if frames < 1 {
		return nil
	}
	lo, hi := s.cfg.Simulation.MinFrames, s.cfg.Simulation.MaxFrames
	if (lo > 0 && frames < lo) || (hi > 0 && frames > hi) {
		return apperror.NewWithField(apperror.CodeInvalidCapacity,
			fmt.Sprintf("frames must be between %d and %d, got %d", lo, hi, frames), "frames").
			WithDetails("min", lo).
			WithDetails("max", hi)
	}
	return nil
}

func (s *SimulatorService) recordSimulation(algo string, success bool, d time.Duration, refs, faults int) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordSimulation(algo, success, d, refs, faults)
}

// algorithmLabel метка метрики: произвольный ввод не должен попадать в метки
func (s *SimulatorService) algorithmLabel(name string) string {
	if strings.TrimSpace(name) == "" {
		name = s.cfg.Simulation.DefaultAlgorithm
	}
	if algo, err := policy.ParseAlgorithm(name); err == nil {
		return algo.String()
	}
	return "unknown"
}
