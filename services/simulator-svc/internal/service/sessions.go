package service

import (
	"context"
	"errors"
	"time"

	"pagesim/pkg/apperror"
	"pagesim/pkg/audit"
	"pagesim/pkg/logger"
	"pagesim/pkg/telemetry"
	"pagesim/services/simulator-svc/internal/playback"
	"pagesim/services/simulator-svc/internal/session"
)

// Действия над сессией, они же метки метрики session_transitions_total
const (
	ActionCreate  = "create"
	ActionRun     = "run"
	ActionDelete  = "delete"
	ActionForward = "step_forward"
	ActionBack    = "step_back"
	ActionJump    = "jump"
	ActionPlay    = "play"
	ActionPause   = "pause"
	ActionReset   = "reset"
	ActionExplain = "explain"
)

// SessionView снимок сессии для транспорта
type SessionView struct {
	ID string `json:"id"`
	session.Snapshot
	Algorithm  string    `json:"algorithm,omitempty"`
	FrameCount int       `json:"frame_count,omitempty"`
	IntervalMs int64     `json:"interval_ms,omitempty"`
	CreatedAt  time.Time `json:"created_at"`

	// Moved есть только в ответах на шаг: false, если курсор упёрся в край трассы
	Moved *bool `json:"moved,omitempty"`
}

// CreateSession строит трассу и регистрирует сессию на первом шаге
func (s *SimulatorService) CreateSession(ctx context.Context, req SimulateRequest) (SessionView, error) {
	ctx, span := telemetry.StartSpan(ctx, "SimulatorService.CreateSession")
	defer span.End()

	result, err := s.Simulate(ctx, req)
	if err != nil {
		s.recordAction(ctx, ActionCreate, "", err)
		return SessionView{}, err
	}

	sess := session.New()
	sess.Run(result)

	e, err := s.sessions.Create(sess)
	if err != nil {
		telemetry.SetError(ctx, err)
		s.recordAction(ctx, ActionCreate, "", err)
		logger.Log.Warn("session rejected", "error", err, "active", s.sessions.Len())
		return SessionView{}, err
	}
	e.mu.Lock()
	view := e.viewLocked()
	e.mu.Unlock()
	s.recordAction(ctx, ActionCreate, view.ID, nil)

	span.SetAttributes(telemetry.SessionAttributes(view.ID, view.Cursor, view.State.String())...)
	logger.WithSession(view.ID).Info("session created",
		"algorithm", view.Algorithm,
		"frames", view.FrameCount,
		"steps", view.TotalSteps,
	)
	return view, nil
}

// RunSession заменяет трассу в существующей сессии; проигрывание останавливается
func (s *SimulatorService) RunSession(ctx context.Context, id string, req SimulateRequest) (SessionView, error) {
	e, err := s.sessions.Get(id)
	if err != nil {
		s.recordAction(ctx, ActionRun, id, err)
		return SessionView{}, err
	}

	result, err := s.Simulate(ctx, req)
	if err != nil {
		s.recordAction(ctx, ActionRun, id, err)
		return SessionView{}, err
	}

	e.stopPlayback()
	return s.mutate(ctx, e, ActionRun, func(sess *session.Session) error {
		sess.Run(result)
		return nil
	})
}

// GetSession текущий снимок
func (s *SimulatorService) GetSession(ctx context.Context, id string) (SessionView, error) {
	e, err := s.sessions.Get(id)
	if err != nil {
		return SessionView{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.viewLocked(), nil
}

// DeleteSession удаляет сессию
func (s *SimulatorService) DeleteSession(ctx context.Context, id string) error {
	err := s.sessions.Delete(id)
	s.recordAction(ctx, ActionDelete, id, err)
	if err == nil {
		logger.WithSession(id).Info("session deleted")
	}
	return err
}

// StepForward шаг вперёд; на последнем шаге снимок не меняется и Moved = false
func (s *SimulatorService) StepForward(ctx context.Context, id string) (SessionView, error) {
	return s.step(ctx, id, ActionForward, (*session.Session).StepForward)
}

// StepBack шаг назад; проигрывание продолжается. На первом шаге Moved = false.
func (s *SimulatorService) StepBack(ctx context.Context, id string) (SessionView, error) {
	return s.step(ctx, id, ActionBack, (*session.Session).StepBack)
}

func (s *SimulatorService) step(ctx context.Context, id, action string, move func(*session.Session) bool) (SessionView, error) {
	var moved bool
	view, err := s.act(ctx, id, action, false, func(sess *session.Session) error {
		moved = move(sess)
		return nil
	})
	if err != nil {
		return view, err
	}
	view.Moved = &moved
	return view, nil
}

// Jump переход на шаг index; останавливает проигрывание.
// При индексе вне диапазона сессия и проигрывание не меняются.
func (s *SimulatorService) Jump(ctx context.Context, id string, index int) (SessionView, error) {
	e, err := s.sessions.Get(id)
	if err != nil {
		s.recordAction(ctx, ActionJump, id, err)
		return SessionView{}, err
	}

	e.mu.Lock()
	valid := index >= 0 && index < e.session.Len()
	e.mu.Unlock()
	if valid {
		e.stopPlayback()
	}

	return s.mutate(ctx, e, ActionJump, func(sess *session.Session) error {
		return sess.Jump(index)
	})
}

// Pause выключает автопроигрывание
func (s *SimulatorService) Pause(ctx context.Context, id string) (SessionView, error) {
	return s.act(ctx, id, ActionPause, true, func(sess *session.Session) error {
		sess.Pause()
		return nil
	})
}

// Reset возвращает сессию в Idle
func (s *SimulatorService) Reset(ctx context.Context, id string) (SessionView, error) {
	return s.act(ctx, id, ActionReset, true, func(sess *session.Session) error {
		sess.Reset()
		return nil
	})
}

// Play включает автопроигрывание со скоростью speed (0 - скорость по умолчанию).
// На последнем шаге и в Idle ничего не делает.
func (s *SimulatorService) Play(ctx context.Context, id string, speed int) (SessionView, error) {
	ctx, span := telemetry.StartSpan(ctx, "SimulatorService.Play")
	defer span.End()

	e, err := s.sessions.Get(id)
	if err != nil {
		telemetry.SetError(ctx, err)
		s.recordAction(ctx, ActionPlay, id, err)
		return SessionView{}, err
	}

	interval := s.cfg.Playback.PlaybackInterval(speed)

	e.mu.Lock()
	started := e.session.Play()
	if e.driver == nil {
		e.driver = s.newDriver(e, interval)
	}
	d := e.driver
	view := e.viewLocked()
	e.mu.Unlock()

	if started {
		// драйвер перезапускается вне e.mu: его шаг берёт ту же блокировку
		d.SetInterval(s.ctx, interval)
		d.Start(s.ctx)
		view.IntervalMs = interval.Milliseconds()
		logger.WithSession(id).Debug("playback started", "interval", interval)
	}

	s.recordAction(ctx, ActionPlay, id, nil)
	span.SetAttributes(telemetry.SessionAttributes(id, view.Cursor, view.State.String())...)
	return view, nil
}

func (s *SimulatorService) newDriver(e *entry, interval time.Duration) *playback.Driver {
	return playback.NewDriver(interval,
		func() bool {
			e.mu.Lock()
			defer e.mu.Unlock()
			if !e.session.IsPlaying() {
				return false
			}
			return e.session.StepForward() && e.session.IsPlaying()
		},
		playback.WithTickHook(func(bool) {
			if s.metrics != nil {
				s.metrics.PlaybackTicks.Inc()
			}
		}),
		playback.WithStopHook(func() {
			logger.WithSession(e.id).Debug("playback stopped")
		}),
	)
}

// act находит сессию и применяет fn под её блокировкой.
// stop останавливает драйвер заранее, вне блокировки.
func (s *SimulatorService) act(ctx context.Context, id, action string, stop bool, fn func(*session.Session) error) (SessionView, error) {
	e, err := s.sessions.Get(id)
	if err != nil {
		s.recordAction(ctx, action, id, err)
		return SessionView{}, err
	}
	if stop {
		e.stopPlayback()
	}
	return s.mutate(ctx, e, action, fn)
}

func (s *SimulatorService) mutate(ctx context.Context, e *entry, action string, fn func(*session.Session) error) (SessionView, error) {
	e.mu.Lock()
	err := fn(e.session)
	view := e.viewLocked()
	e.mu.Unlock()

	s.recordEntry(ctx, action, audit.NewEntry(audit.Action(action)).Session(e.id).Cursor(view.Cursor), err)
	if err != nil {
		telemetry.SetError(ctx, err)
		return view, err
	}
	return view, nil
}

// SessionActivity журнал действий над сессией, от старых к новым.
// Записи остаются после удаления сессии. limit <= 0 - без ограничения.
func (s *SimulatorService) SessionActivity(ctx context.Context, id string, limit int) ([]*audit.Entry, error) {
	entries, err := s.audit.Query(ctx, &audit.QueryFilter{SessionID: id, Limit: limit})
	if errors.Is(err, audit.ErrQueryUnsupported) {
		return nil, apperror.New(apperror.CodeUnimplemented, "audit backend does not keep session activity")
	}
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeInternal, "failed to query session activity")
	}
	if entries == nil {
		entries = []*audit.Entry{}
	}
	return entries, nil
}

// recordAction пишет исход действия в метрики и журнал
func (s *SimulatorService) recordAction(ctx context.Context, action, id string, err error) {
	s.recordEntry(ctx, action, audit.NewEntry(audit.Action(action)).Session(id), err)
}

func (s *SimulatorService) recordEntry(ctx context.Context, action string, b *audit.Builder, err error) {
	if s.metrics != nil {
		s.metrics.RecordSessionAction(action, err == nil)
	}
	s.journal(ctx, b, err)
}

// journal дописывает запись в журнал; ошибка журнала не прерывает действие
func (s *SimulatorService) journal(ctx context.Context, b *audit.Builder, err error) {
	b.Service(s.cfg.App.Name)
	if err != nil {
		b.Error(string(apperror.Code(err)), err.Error())
	}
	if lerr := s.audit.Log(ctx, b.Build()); lerr != nil {
		logger.Log.Warn("audit entry dropped", "error", lerr)
	}
}

// viewLocked вызывать под e.mu
func (e *entry) viewLocked() SessionView {
	view := SessionView{
		ID:        e.id,
		Snapshot:  e.session.Snapshot(),
		CreatedAt: e.createdAt,
	}
	if r := e.session.Result(); r != nil {
		view.Algorithm = r.Algorithm.String()
		view.FrameCount = r.FrameCount
	}
	if e.driver != nil && view.Playing {
		view.IntervalMs = e.driver.Interval().Milliseconds()
	}
	return view
}
