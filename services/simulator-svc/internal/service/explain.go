package service

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"

	"pagesim/pkg/apperror"
	"pagesim/pkg/logger"
	"pagesim/pkg/telemetry"
	"pagesim/services/simulator-svc/internal/explainer"
	"pagesim/services/simulator-svc/internal/policy"
	"pagesim/services/simulator-svc/internal/trace"
)

// Explanation ответ генератора текста
type Explanation struct {
	Text string `json:"text"`

	// Step шаг, к которому относится пояснение; -1 для разбора всего прогона
	Step int `json:"step"`

	// Applied false, если курсор ушёл с шага, пока генерировался текст
	Applied bool `json:"applied"`

	Session *SessionView `json:"session,omitempty"`
}

// ExplainStep поясняет шаг под курсором и сохраняет текст в сессии
func (s *SimulatorService) ExplainStep(ctx context.Context, id string) (*Explanation, error) {
	ctx, span := telemetry.StartSpan(ctx, "SimulatorService.ExplainStep")
	defer span.End()

	e, err := s.sessions.Get(id)
	if err != nil {
		s.recordAction(ctx, ActionExplain, id, err)
		return nil, err
	}

	e.mu.Lock()
	step, ok := e.session.Current()
	cursor := e.session.Cursor()
	var result *trace.SimulationResult
	if ok {
		result = e.session.Result()
	}
	e.mu.Unlock()

	if !ok {
		err := apperror.New(apperror.CodeNoSimulation, "session has no simulation to explain")
		telemetry.SetError(ctx, err)
		s.recordAction(ctx, ActionExplain, id, err)
		return nil, err
	}
	span.SetAttributes(telemetry.SessionAttributes(id, cursor, "")...)

	text, err := s.generate(ctx, explainer.StepPrompt(result.Algorithm, step))
	if err != nil {
		telemetry.SetError(ctx, err)
		s.recordAction(ctx, ActionExplain, id, err)
		logger.WithSession(id).Warn("step explanation failed", "step", cursor, "error", err)
		return nil, err
	}

	e.mu.Lock()
	applied := e.session.SetExplanation(cursor, text)
	view := e.viewLocked()
	e.mu.Unlock()

	s.recordAction(ctx, ActionExplain, id, nil)
	telemetry.AddEvent(ctx, "explained", attribute.Bool("applied", applied))

	return &Explanation{Text: text, Step: cursor, Applied: applied, Session: &view}, nil
}

// CompareWithOptimal разбирает прогон сессии в сравнении с Optimal
func (s *SimulatorService) CompareWithOptimal(ctx context.Context, id string) (*Explanation, error) {
	ctx, span := telemetry.StartSpan(ctx, "SimulatorService.CompareWithOptimal")
	defer span.End()

	e, err := s.sessions.Get(id)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	result := e.session.Result()
	e.mu.Unlock()

	if result == nil {
		err := apperror.New(apperror.CodeNoSimulation, "session has no simulation to analyze")
		telemetry.SetError(ctx, err)
		return nil, err
	}

	return s.analyze(ctx, result)
}

// AnalyzeSimulation то же, что CompareWithOptimal, без сессии
func (s *SimulatorService) AnalyzeSimulation(ctx context.Context, req SimulateRequest) (*Explanation, error) {
	result, err := s.Simulate(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.analyze(ctx, result)
}

func (s *SimulatorService) analyze(ctx context.Context, result *trace.SimulationResult) (*Explanation, error) {
	text, err := s.generate(ctx, explainer.ComparePrompt(result))
	if err != nil {
		telemetry.SetError(ctx, err)
		logger.WithAlgorithm(result.Algorithm.String(), result.FrameCount).Warn("analysis failed", "error", err)
		return nil, err
	}
	return &Explanation{Text: text, Step: -1, Applied: true}, nil
}

// generate ждёт генератор не дольше, чем живёт ctx
func (s *SimulatorService) generate(ctx context.Context, p explainer.Prompt) (string, error) {
	var res explainer.Result
	select {
	case res = <-explainer.ExplainAsync(ctx, s.explainer, p):
	case <-ctx.Done():
		res.Err = ctx.Err()
	}
	if res.Err == nil {
		return res.Text, nil
	}

	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return "", apperror.Wrap(res.Err, apperror.CodeTimeout, "text generation timed out")
	case ctx.Err() != nil:
		return "", apperror.Wrap(res.Err, apperror.CodeUnavailable, "text generation cancelled")
	}
	return "", res.Err
}

// FlushExplanations сбрасывает кэш пояснений алгоритма; пустое имя - всех алгоритмов
func (s *SimulatorService) FlushExplanations(ctx context.Context, algorithm string) (int64, error) {
	ctx, span := telemetry.StartSpan(ctx, "SimulatorService.FlushExplanations")
	defer span.End()

	name := ""
	if algorithm != "" {
		algo, err := policy.ParseAlgorithm(algorithm)
		if err != nil {
			return 0, err
		}
		name = algo.String()
	}

	f, ok := s.explainer.(explainer.Flusher)
	if !ok {
		return 0, apperror.New(apperror.CodeUnimplemented, "explanation cache is disabled")
	}

	n, err := f.Flush(ctx, name)
	if err != nil {
		telemetry.SetError(ctx, err)
		var appErr *apperror.Error
		if errors.As(err, &appErr) {
			return 0, err
		}
		return 0, apperror.Wrap(err, apperror.CodeInternal, "failed to flush explanation cache")
	}

	span.SetAttributes(attribute.String(telemetry.AttrAlgorithm, name), attribute.Int64(telemetry.AttrCacheRemoved, n))
	logger.Log.Info("explanation cache flushed", "algorithm", name, "removed", n)
	return n, nil
}
