// Package playback drives session auto-advance from outside the core.
package playback

import (
	"context"
	"sync"
	"time"
)

// StepFunc делает один шаг и сообщает, продолжать ли проигрывание
type StepFunc func() bool

// Option - опция драйвера
type Option func(*Driver)

// WithTickHook вызывается после каждого тика с результатом шага
func WithTickHook(hook func(advanced bool)) Option {
	return func(d *Driver) {
		d.onTick = hook
	}
}

// WithStopHook вызывается один раз при завершении цикла
func WithStopHook(hook func()) Option {
	return func(d *Driver) {
		d.onStop = hook
	}
}

// Driver вызывает StepFunc с заданным интервалом в отдельной горутине.
// Цикл завершается, когда StepFunc вернёт false, по Stop или по отмене контекста.
type Driver struct {
	step     StepFunc
	interval time.Duration
	onTick   func(bool)
	onStop   func()

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewDriver создаёт остановленный драйвер
func NewDriver(interval time.Duration, step StepFunc, opts ...Option) *Driver {
	if interval <= 0 {
		interval = time.Second
	}
	d := &Driver{
		step:     step,
		interval: interval,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Start запускает цикл. Повторный вызов при работающем цикле ничего не делает.
func (d *Driver) Start(ctx context.Context) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.runningLocked() {
		return false
	}
	d.startLocked(ctx)
	return true
}

func (d *Driver) startLocked(ctx context.Context) {
	if d.cancel != nil {
		d.cancel()
	}
	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	d.cancel = cancel
	d.done = done

	go d.loop(loopCtx, d.interval, done)
}

// Stop останавливает цикл и ждёт его завершения
func (d *Driver) Stop() {
	d.mu.Lock()
	cancel, done := d.cancel, d.done
	d.cancel = nil
	d.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// SetInterval меняет интервал; работающий цикл перезапускается с новым интервалом
func (d *Driver) SetInterval(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	d.mu.Lock()
	d.interval = interval
	running := d.runningLocked()
	d.mu.Unlock()

	if running {
		d.Stop()
		d.Start(ctx)
	}
}

// Interval текущий интервал
func (d *Driver) Interval() time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.interval
}

// Running сообщает, работает ли цикл
func (d *Driver) Running() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.runningLocked()
}

// Done закрывается при завершении текущего цикла; nil, если цикл не запускался
func (d *Driver) Done() <-chan struct{} {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.done
}

func (d *Driver) runningLocked() bool {
	if d.done == nil {
		return false
	}
	select {
	case <-d.done:
		return false
	default:
		return true
	}
}

func (d *Driver) loop(ctx context.Context, interval time.Duration, done chan struct{}) {
	defer close(done)
	if d.onStop != nil {
		defer d.onStop()
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			advanced := d.step()
			if d.onTick != nil {
				d.onTick(advanced)
			}
			if !advanced {
				return
			}
		}
	}
}
