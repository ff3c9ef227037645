package audit

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"pagesim/pkg/logger"
)

func init() {
	logger.Init("error")
}

func TestWriterLogger(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger(&buf)

	for _, a := range []Action{ActionCreate, ActionStepForward} {
		if err := l.Log(context.Background(), NewEntry(a).Session("s").Build()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	var e Entry
	if err := json.Unmarshal(lines[1], &e); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if e.Action != ActionStepForward {
		t.Errorf("expected step_forward, got %s", e.Action)
	}

	if _, err := l.Query(context.Background(), nil); !errors.Is(err, ErrQueryUnsupported) {
		t.Errorf("expected ErrQueryUnsupported, got %v", err)
	}
}

func TestFileLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")
	l, err := NewFileLogger(&Config{FilePath: path, BufferSize: 4, FlushPeriod: time.Hour})
	if err != nil {
		t.Fatalf("NewFileLogger: %v", err)
	}

	for i := 0; i < 10; i++ {
		if err := l.Log(context.Background(), NewEntry(ActionStepForward).Cursor(i).Build()); err != nil {
			t.Fatalf("log %d: %v", i, err)
		}
	}
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	count := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var e Entry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			t.Fatalf("line %d: %v", count, err)
		}
		count++
	}
	if count != 10 {
		t.Errorf("expected 10 entries, got %d", count)
	}

	if err := l.Log(context.Background(), NewEntry(ActionPlay).Build()); err == nil {
		t.Error("expected error after close")
	}
}

func TestFileLogger_InvalidPath(t *testing.T) {
	_, err := NewFileLogger(&Config{FilePath: filepath.Join(t.TempDir(), "missing", "dir", "audit.log")})
	if err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestMemoryLogger_Ring(t *testing.T) {
	l := NewMemoryLogger(3)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_ = l.Log(ctx, NewEntry(ActionStepForward).Session("s").Cursor(i).Build())
	}
	if l.Len() != 3 {
		t.Fatalf("expected 3 entries, got %d", l.Len())
	}

	got, err := l.Query(ctx, nil)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	for i, want := range []int{2, 3, 4} {
		if *got[i].Cursor != want {
			t.Errorf("entry %d: expected cursor %d, got %d", i, want, *got[i].Cursor)
		}
	}
}

func TestMemoryLogger_Query(t *testing.T) {
	l := NewMemoryLogger(10)
	ctx := context.Background()

	_ = l.Log(ctx, NewEntry(ActionCreate).Session("a").Build())
	_ = l.Log(ctx, NewEntry(ActionJump).Session("a").Error("INDEX_OUT_OF_RANGE", "out of range").Build())
	_ = l.Log(ctx, NewEntry(ActionCreate).Session("b").Build())
	_ = l.Log(ctx, NewEntry(ActionStepForward).Session("a").Build())

	got, _ := l.Query(ctx, &QueryFilter{SessionID: "a"})
	if len(got) != 3 {
		t.Errorf("expected 3 entries for session a, got %d", len(got))
	}

	got, _ = l.Query(ctx, &QueryFilter{Outcome: OutcomeFailure})
	if len(got) != 1 || got[0].Action != ActionJump {
		t.Errorf("expected the failed jump, got %v", got)
	}

	got, _ = l.Query(ctx, &QueryFilter{SessionID: "a", Limit: 1})
	if len(got) != 1 || got[0].Action != ActionStepForward {
		t.Errorf("expected the latest entry, got %v", got)
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *Config
		want    string
		wantErr bool
	}{
		{"disabled", &Config{Enabled: false}, "noop", false},
		{"stdout", &Config{Enabled: true, Backend: BackendStdout}, "writer", false},
		{"default backend", &Config{Enabled: true}, "writer", false},
		{"memory", &Config{Enabled: true, Backend: BackendMemory, Capacity: 5}, "memory", false},
		{"unknown", &Config{Enabled: true, Backend: "kafka"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			defer l.Close()

			var got string
			switch l.(type) {
			case NoopLogger:
				got = "noop"
			case *WriterLogger:
				got = "writer"
			case *MemoryLogger:
				got = "memory"
			}
			if got != tt.want {
				t.Errorf("expected %s backend, got %T", tt.want, l)
			}
		})
	}
}

func TestNew_File(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Backend = BackendFile
	cfg.FilePath = filepath.Join(t.TempDir(), "audit.log")

	l, err := New(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := l.(*FileLogger); !ok {
		t.Errorf("expected *FileLogger, got %T", l)
	}
	_ = l.Close()
}
