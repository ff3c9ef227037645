package audit

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"pagesim/pkg/logger"
)

// ErrQueryUnsupported бэкенд не хранит записи
var ErrQueryUnsupported = errors.New("audit: query not supported by backend")

// New создаёт бэкенд по конфигурации. Выключенный журнал - NoopLogger.
func New(cfg *Config) (Logger, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if !cfg.Enabled {
		return NoopLogger{}, nil
	}

	switch cfg.Backend {
	case BackendStdout, "":
		return NewWriterLogger(os.Stdout), nil
	case BackendFile:
		return NewFileLogger(cfg)
	case BackendMemory:
		return NewMemoryLogger(cfg.Capacity), nil
	default:
		return nil, fmt.Errorf("unknown audit backend %q", cfg.Backend)
	}
}

// ============================================================================
// Writer
// ============================================================================

// WriterLogger пишет записи синхронно, по строке на запись
type WriterLogger struct {
	mu sync.Mutex
	w  io.Writer
}

func NewWriterLogger(w io.Writer) *WriterLogger {
	return &WriterLogger{w: w}
}

func (l *WriterLogger) Log(_ context.Context, entry *Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	_, err = l.w.Write(append(data, '\n'))
	return err
}

func (l *WriterLogger) Query(context.Context, *QueryFilter) ([]*Entry, error) {
	return nil, ErrQueryUnsupported
}

func (l *WriterLogger) Close() error { return nil }

// ============================================================================
// File
// ============================================================================

// FileLogger пишет записи асинхронно в файл с ротацией.
// При переполненном буфере запись идёт синхронно.
type FileLogger struct {
	config *Config
	out    *lumberjack.Logger
	writer *bufio.Writer

	mu        sync.Mutex
	buffer    chan *Entry
	done      chan struct{}
	loopDone  chan struct{}
	closeOnce sync.Once
}

// NewFileLogger открывает файл журнала и запускает фоновую запись
func NewFileLogger(cfg *Config) (*FileLogger, error) {
	path := cfg.FilePath
	if path == "" {
		path = "audit.log"
	}

	// lumberjack откладывает открытие файла до первой записи
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	_ = f.Close()

	bufferSize := cfg.BufferSize
	if bufferSize <= 0 {
		bufferSize = 1000
	}

	out := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	}
	l := &FileLogger{
		config:   cfg,
		out:      out,
		writer:   bufio.NewWriter(out),
		buffer:   make(chan *Entry, bufferSize),
		done:     make(chan struct{}),
		loopDone: make(chan struct{}),
	}

	go l.processLoop()
	return l, nil
}

func (l *FileLogger) Log(_ context.Context, entry *Entry) error {
	select {
	case <-l.done:
		return errors.New("audit: logger closed")
	default:
	}

	select {
	case l.buffer <- entry:
		return nil
	default:
		return l.writeEntry(entry)
	}
}

func (l *FileLogger) Query(context.Context, *QueryFilter) ([]*Entry, error) {
	return nil, ErrQueryUnsupported
}

// Close дописывает буфер и закрывает файл
func (l *FileLogger) Close() error {
	var err error
	l.closeOnce.Do(func() {
		close(l.done)
		<-l.loopDone

		l.mu.Lock()
		defer l.mu.Unlock()
	drain:
		for {
			select {
			case entry := <-l.buffer:
				if werr := l.writeEntryLocked(entry); werr != nil {
					logger.Log.Warn("Failed to write audit entry during shutdown", "error", werr)
				}
			default:
				break drain
			}
		}
		if ferr := l.writer.Flush(); ferr != nil {
			logger.Log.Warn("Failed to flush audit writer", "error", ferr)
		}
		err = l.out.Close()
	})
	return err
}

func (l *FileLogger) processLoop() {
	defer close(l.loopDone)

	period := l.config.FlushPeriod
	if period <= 0 {
		period = 5 * time.Second
	}
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-l.done:
			return
		case entry := <-l.buffer:
			if err := l.writeEntry(entry); err != nil {
				logger.Log.Warn("Failed to write audit entry", "error", err)
			}
		case <-ticker.C:
			l.flush()
		}
	}
}

func (l *FileLogger) writeEntry(entry *Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.writeEntryLocked(entry)
}

func (l *FileLogger) writeEntryLocked(entry *Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	_, err = l.writer.Write(append(data, '\n'))
	return err
}

func (l *FileLogger) flush() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.writer.Flush(); err != nil {
		logger.Log.Warn("Failed to flush audit writer", "error", err)
	}
}

// ============================================================================
// Memory
// ============================================================================

// MemoryLogger хранит последние capacity записей
type MemoryLogger struct {
	mu      sync.RWMutex
	entries []*Entry
	next    int
	full    bool
}

func NewMemoryLogger(capacity int) *MemoryLogger {
	if capacity <= 0 {
		capacity = 1000
	}
	return &MemoryLogger{entries: make([]*Entry, capacity)}
}

func (l *MemoryLogger) Log(_ context.Context, entry *Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries[l.next] = entry
	l.next = (l.next + 1) % len(l.entries)
	if l.next == 0 {
		l.full = true
	}
	return nil
}

// Query возвращает записи от старых к новым; Limit оставляет последние
func (l *MemoryLogger) Query(_ context.Context, filter *QueryFilter) ([]*Entry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []*Entry
	for _, e := range l.ordered() {
		if filter.Match(e) {
			out = append(out, e)
		}
	}
	if filter != nil && filter.Limit > 0 && len(out) > filter.Limit {
		out = out[len(out)-filter.Limit:]
	}
	return out, nil
}

// Len число хранимых записей
func (l *MemoryLogger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.full {
		return len(l.entries)
	}
	return l.next
}

func (l *MemoryLogger) Close() error { return nil }

func (l *MemoryLogger) ordered() []*Entry {
	if !l.full {
		return l.entries[:l.next]
	}
	out := make([]*Entry, 0, len(l.entries))
	out = append(out, l.entries[l.next:]...)
	return append(out, l.entries[:l.next]...)
}

// ============================================================================
// Noop
// ============================================================================

// NoopLogger выключенный журнал
type NoopLogger struct{}

func (NoopLogger) Log(context.Context, *Entry) error { return nil }

func (NoopLogger) Query(context.Context, *QueryFilter) ([]*Entry, error) { return nil, nil }

func (NoopLogger) Close() error { return nil }
