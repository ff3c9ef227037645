// Package audit ведёт журнал действий над сессиями проигрывания.
//
// Каждая запись фиксирует действие, его исход, идентификатор сессии и код
// ошибки приложения. Бэкенды пишут записи JSON-строками в stdout или в файл
// с ротацией либо держат последние записи в памяти для выборки.
package audit

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"

	"pagesim/pkg/config"
)

// Action тип действия над сессией
type Action string

const (
	ActionCreate      Action = "create"
	ActionRun         Action = "run"
	ActionDelete      Action = "delete"
	ActionStepForward Action = "step_forward"
	ActionStepBack    Action = "step_back"
	ActionJump        Action = "jump"
	ActionPlay        Action = "play"
	ActionPause       Action = "pause"
	ActionReset       Action = "reset"
	ActionExplain     Action = "explain"
	ActionExport      Action = "export"
)

// Outcome исход действия
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// Бэкенды журнала
const (
	BackendStdout = "stdout"
	BackendFile   = "file"
	BackendMemory = "memory"
)

// Entry запись журнала
type Entry struct {
	ID           string         `json:"id"`
	Timestamp    time.Time      `json:"timestamp"`
	Service      string         `json:"service"`
	Action       Action         `json:"action"`
	Outcome      Outcome        `json:"outcome"`
	SessionID    string         `json:"session_id,omitempty"`
	Cursor       *int           `json:"cursor,omitempty"`
	ErrorCode    string         `json:"error_code,omitempty"`
	ErrorMessage string         `json:"error_message,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

// Logger бэкенд журнала
type Logger interface {
	// Log записывает событие
	Log(ctx context.Context, entry *Entry) error

	// Query выборка записей; поддерживается не всеми бэкендами
	Query(ctx context.Context, filter *QueryFilter) ([]*Entry, error)

	Close() error
}

// QueryFilter условия выборки. Нулевые поля не ограничивают результат.
type QueryFilter struct {
	Since     time.Time
	SessionID string
	Action    Action
	Outcome   Outcome
	Limit     int
}

// Match проверяет запись на соответствие фильтру
func (f *QueryFilter) Match(e *Entry) bool {
	if f == nil {
		return true
	}
	if !f.Since.IsZero() && e.Timestamp.Before(f.Since) {
		return false
	}
	if f.SessionID != "" && e.SessionID != f.SessionID {
		return false
	}
	if f.Action != "" && e.Action != f.Action {
		return false
	}
	if f.Outcome != "" && e.Outcome != f.Outcome {
		return false
	}
	return true
}

// Config настройки журнала
type Config struct {
	Enabled     bool
	Backend     string
	Service     string
	FilePath    string
	MaxSize     int // МБ
	MaxBackups  int
	MaxAge      int // дни
	Compress    bool
	BufferSize  int
	FlushPeriod time.Duration

	// Capacity число записей, которые хранит бэкенд memory
	Capacity int
}

// DefaultConfig возвращает конфигурацию по умолчанию
func DefaultConfig() *Config {
	return &Config{
		Enabled:     true,
		Backend:     BackendStdout,
		Service:     "simulator-svc",
		FilePath:    "audit.log",
		MaxSize:     50,
		MaxBackups:  3,
		MaxAge:      28,
		BufferSize:  1000,
		FlushPeriod: 5 * time.Second,
		Capacity:    1000,
	}
}

// FromConfig переносит секцию audit; service подписывает записи
func FromConfig(c config.AuditConfig, service string) *Config {
	return &Config{
		Enabled:     c.Enabled,
		Backend:     c.Backend,
		Service:     service,
		FilePath:    c.FilePath,
		MaxSize:     c.MaxSize,
		MaxBackups:  c.MaxBackups,
		MaxAge:      c.MaxAge,
		Compress:    c.Compress,
		BufferSize:  c.BufferSize,
		FlushPeriod: c.FlushPeriod,
		Capacity:    c.Capacity,
	}
}

// ============================================================================
// Построение записи
// ============================================================================

// Builder собирает Entry
type Builder struct {
	entry *Entry
}

// NewEntry начинает запись с текущим временем
func NewEntry(action Action) *Builder {
	return &Builder{
		entry: &Entry{
			Timestamp: time.Now().UTC(),
			Action:    action,
			Outcome:   OutcomeSuccess,
		},
	}
}

func (b *Builder) Service(s string) *Builder {
	b.entry.Service = s
	return b
}

func (b *Builder) Session(id string) *Builder {
	b.entry.SessionID = id
	return b
}

// Cursor шаг сессии после действия
func (b *Builder) Cursor(c int) *Builder {
	b.entry.Cursor = &c
	return b
}

// Error помечает действие неудачным
func (b *Builder) Error(code, message string) *Builder {
	b.entry.Outcome = OutcomeFailure
	b.entry.ErrorCode = code
	b.entry.ErrorMessage = message
	return b
}

func (b *Builder) Meta(key string, value any) *Builder {
	if b.entry.Metadata == nil {
		b.entry.Metadata = make(map[string]any)
	}
	b.entry.Metadata[key] = value
	return b
}

// Build возвращает запись; ID - ULID, записи сортируются по времени создания
func (b *Builder) Build() *Entry {
	if b.entry.ID == "" {
		b.entry.ID = ulid.Make().String()
	}
	return b.entry
}
