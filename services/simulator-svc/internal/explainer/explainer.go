// Package explainer talks to the external text-generation collaborator that
// turns trace data into prose.
//
// The simulation core never depends on this package: traces are built first,
// explanations are requested afterwards and may fail, time out or be served
// from cache without affecting the trace.
package explainer

import (
	"context"

	"pagesim/pkg/apperror"
)

// Kind - вид запроса пояснения
type Kind string

const (
	KindStep    Kind = "step"
	KindCompare Kind = "compare"
)

// Prompt запрос к генератору текста
type Prompt struct {
	Kind   Kind
	System string
	User   string

	// CacheKey ключ мемоизации; пустой ключ отключает кэш
	CacheKey string
}

// TextGenerator внешний генератор текста
type TextGenerator interface {
	Generate(ctx context.Context, p Prompt) (string, error)
}

// Flusher генератор, который умеет сбрасывать сохранённые пояснения.
// Пустое имя алгоритма сбрасывает все.
type Flusher interface {
	Flush(ctx context.Context, algorithm string) (int64, error)
}

// Result результат асинхронного запроса
type Result struct {
	Text string
	Err  error
}

// ExplainAsync запускает генерацию в отдельной горутине.
// Канал буферизован, поэтому горутина завершается, даже если результат никто не читает.
func ExplainAsync(ctx context.Context, gen TextGenerator, p Prompt) <-chan Result {
	out := make(chan Result, 1)
	go func() {
		text, err := gen.Generate(ctx, p)
		out <- Result{Text: text, Err: err}
	}()
	return out
}

// Disabled генератор, который всегда недоступен
type Disabled struct{}

func (Disabled) Generate(context.Context, Prompt) (string, error) {
	return "", apperror.New(apperror.CodeUnavailable, "text generation is disabled")
}
