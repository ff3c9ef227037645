package ratelimit

import (
	"context"
	"math"
	"sync"
	"sync/atomic"
	"time"
)

// MemoryLimiter лимитер в памяти процесса
type MemoryLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	config  *Config
	now     func() time.Time

	stopCh chan struct{}
	closed atomic.Bool
}

type bucket struct {
	tokens   float64
	lastSeen time.Time
	requests []time.Time // sliding_window
}

// NewMemoryLimiter создаёт лимитер и запускает фоновую очистку
func NewMemoryLimiter(cfg *Config) *MemoryLimiter {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	l := &MemoryLimiter{
		buckets: make(map[string]*bucket),
		config:  cfg,
		now:     time.Now,
		stopCh:  make(chan struct{}),
	}

	if cfg.CleanupInterval > 0 {
		go l.cleanupLoop(cfg.CleanupInterval)
	}

	return l
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (*Decision, error) {
	if l.closed.Load() {
		return nil, ErrLimiterClosed
	}

	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{tokens: float64(l.capacity()), lastSeen: now}
		l.buckets[key] = b
	}

	if l.config.Strategy == StrategyTokenBucket {
		return l.allowTokenBucket(b, now), nil
	}
	return l.allowSlidingWindow(b, now), nil
}

func (l *MemoryLimiter) capacity() int {
	if l.config.Strategy == StrategyTokenBucket {
		return l.config.Requests + l.config.BurstSize
	}
	return l.config.Requests
}

func (l *MemoryLimiter) allowTokenBucket(b *bucket, now time.Time) *Decision {
	rate := float64(l.config.Requests) / l.config.Window.Seconds()
	maxTokens := float64(l.capacity())

	b.tokens = math.Min(maxTokens, b.tokens+now.Sub(b.lastSeen).Seconds()*rate)
	b.lastSeen = now

	d := &Decision{Limit: l.capacity()}
	if b.tokens >= 1 {
		b.tokens--
		d.Allowed = true
		d.Remaining = int(b.tokens)
		return d
	}

	d.RetryAfter = time.Duration((1 - b.tokens) / rate * float64(time.Second))
	return d
}

func (l *MemoryLimiter) allowSlidingWindow(b *bucket, now time.Time) *Decision {
	b.requests = pruneBefore(b.requests, now.Add(-l.config.Window))
	b.lastSeen = now

	d := &Decision{Limit: l.config.Requests}
	if len(b.requests) < l.config.Requests {
		b.requests = append(b.requests, now)
		d.Allowed = true
		d.Remaining = l.config.Requests - len(b.requests)
		return d
	}

	// место освободится, когда самый старый запрос выйдет из окна
	d.RetryAfter = b.requests[0].Add(l.config.Window).Sub(now)
	return d
}

// pruneBefore отбрасывает отметки не позже start; срез отсортирован
func pruneBefore(requests []time.Time, start time.Time) []time.Time {
	i := 0
	for i < len(requests) && !requests[i].After(start) {
		i++
	}
	return requests[i:]
}

func (l *MemoryLimiter) Reset(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.buckets, key)
	return nil
}

// Len количество отслеживаемых ключей
func (l *MemoryLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

func (l *MemoryLimiter) Close() error {
	if l.closed.Swap(true) {
		return nil
	}
	close(l.stopCh)

	l.mu.Lock()
	l.buckets = make(map[string]*bucket)
	l.mu.Unlock()

	return nil
}

func (l *MemoryLimiter) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-l.stopCh:
			return
		case <-ticker.C:
			l.cleanup()
		}
	}
}

// cleanup удаляет ключи, молчавшие дольше двух окон
func (l *MemoryLimiter) cleanup() {
	cutoff := l.now().Add(-2 * l.config.Window)

	l.mu.Lock()
	defer l.mu.Unlock()

	for key, b := range l.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(l.buckets, key)
		}
	}
}
