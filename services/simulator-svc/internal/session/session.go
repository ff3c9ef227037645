// Package session implements navigation over a completed simulation trace.
//
// A Session is a pure state machine: it never schedules work, holds no timers
// and performs no I/O. Auto-advance is driven from outside by calling
// StepForward on a cadence (see the playback package). A Session is not safe
// for concurrent use; callers that share one must serialize access.
package session

import (
	"fmt"

	"pagesim/pkg/apperror"
	"pagesim/services/simulator-svc/internal/trace"
)

// State - состояние сессии
type State int

const (
	Idle State = iota
	Ready
	Stepping
	Playing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Ready:
		return "ready"
	case Stepping:
		return "stepping"
	case Playing:
		return "playing"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(text []byte) error {
	for _, st := range []State{Idle, Ready, Stepping, Playing} {
		if st.String() == string(text) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown session state %q", text)
}

// Session курсор и флаг проигрывания поверх SimulationResult
type Session struct {
	result      *trace.SimulationResult
	cursor      int
	state       State
	explanation string
}

// New создаёт пустую сессию в состоянии Idle
func New() *Session {
	return &Session{state: Idle}
}

// Run загружает результат: курсор 0, проигрывание выключено, пояснение сброшено.
// nil равносилен Reset.
func (s *Session) Run(result *trace.SimulationResult) {
	if result == nil || result.Len() == 0 {
		s.Reset()
		return
	}
	s.result = result
	s.cursor = 0
	s.state = Ready
	s.explanation = ""
}

// StepForward сдвигает курсор на шаг вперёд. Возвращает false, если шагов больше нет;
// в этом случае проигрывание останавливается.
func (s *Session) StepForward() bool {
	if s.state == Idle {
		return false
	}
	s.explanation = ""

	if s.cursor >= s.lastIndex() {
		s.stop()
		return false
	}

	s.cursor++
	if s.state == Ready {
		s.state = Stepping
	}
	if s.state == Playing && s.cursor == s.lastIndex() {
		s.state = Stepping
	}
	return true
}

// StepBack сдвигает курсор на шаг назад. На нулевом шаге ничего не делает.
// Проигрывание не прерывается.
func (s *Session) StepBack() bool {
	if s.state == Idle {
		return false
	}
	s.explanation = ""

	if s.cursor == 0 {
		return false
	}
	s.cursor--
	if s.state == Ready {
		s.state = Stepping
	}
	return true
}

// Jump ставит курсор на index и останавливает проигрывание.
// Индекс вне [0, Len) возвращает IndexOutOfRange, состояние не меняется.
func (s *Session) Jump(index int) error {
	if index < 0 || index >= s.Len() {
		return apperror.NewWithField(apperror.CodeIndexOutOfRange,
			fmt.Sprintf("step index %d is outside [0, %d)", index, s.Len()), "index").
			WithDetails("index", index).
			WithDetails("length", s.Len())
	}

	s.cursor = index
	s.state = Stepping
	s.explanation = ""
	return nil
}

// Play включает автопроигрывание. На последнем шаге и без результата ничего не делает.
func (s *Session) Play() bool {
	if s.state == Idle || s.cursor >= s.lastIndex() {
		return false
	}
	s.state = Playing
	return true
}

// Pause выключает автопроигрывание
func (s *Session) Pause() {
	s.stop()
}

// Reset возвращает сессию в Idle
func (s *Session) Reset() {
	s.result = nil
	s.cursor = 0
	s.state = Idle
	s.explanation = ""
}

func (s *Session) stop() {
	if s.state == Playing {
		s.state = Stepping
	}
}

func (s *Session) lastIndex() int {
	return s.Len() - 1
}

func (s *Session) State() State { return s.state }

func (s *Session) Cursor() int { return s.cursor }

func (s *Session) IsPlaying() bool { return s.state == Playing }

// Len количество шагов, 0 в Idle
func (s *Session) Len() int { return s.result.Len() }

// AtEnd курсор на последнем шаге
func (s *Session) AtEnd() bool {
	return s.state != Idle && s.cursor == s.lastIndex()
}

// Result загруженный результат; вызывающий не должен его изменять
func (s *Session) Result() *trace.SimulationResult { return s.result }

// Current копия шага под курсором
func (s *Session) Current() (trace.StepRecord, bool) {
	if s.state == Idle {
		return trace.StepRecord{}, false
	}
	step, err := s.result.Step(s.cursor)
	if err != nil {
		return trace.StepRecord{}, false
	}
	return step, true
}

func (s *Session) Explanation() string { return s.explanation }

// SetExplanation сохраняет текст, только если курсор всё ещё на шаге step.
// Ответ внешнего генератора может прийти после перехода на другой шаг.
func (s *Session) SetExplanation(step int, text string) bool {
	if s.state == Idle || s.cursor != step {
		return false
	}
	s.explanation = text
	return true
}

// Snapshot - неизменяемое представление сессии для транспорта
type Snapshot struct {
	State       State             `json:"state"`
	Cursor      int               `json:"cursor"`
	TotalSteps  int               `json:"total_steps"`
	Playing     bool              `json:"playing"`
	AtEnd       bool              `json:"at_end"`
	Current     *trace.StepRecord `json:"current,omitempty"`
	Explanation string            `json:"explanation,omitempty"`
}

func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		State:       s.state,
		Cursor:      s.cursor,
		TotalSteps:  s.Len(),
		Playing:     s.IsPlaying(),
		AtEnd:       s.AtEnd(),
		Explanation: s.explanation,
	}
	if step, ok := s.Current(); ok {
		snap.Current = &step
	}
	return snap
}
