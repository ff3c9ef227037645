package service

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"pagesim/pkg/apperror"
	"pagesim/services/simulator-svc/internal/playback"
	"pagesim/services/simulator-svc/internal/session"
)

// entry сессия в реестре; все обращения к session идут под mu
type entry struct {
	id string

	mu         sync.Mutex
	session    *session.Session
	driver     *playback.Driver
	createdAt  time.Time
	lastAccess time.Time
}

// stopPlayback останавливает драйвер; вызывать без mu, иначе цикл драйвера не сможет завершить шаг
func (e *entry) stopPlayback() {
	e.mu.Lock()
	d := e.driver
	e.mu.Unlock()
	if d != nil {
		d.Stop()
	}
}

// Registry хранит сессии по uuid с ограничением числа и временем жизни
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
	max     int
	ttl     time.Duration
	now     func() time.Time
	onSize  func(int)
}

// NewRegistry создаёт реестр. max <= 0 и ttl <= 0 снимают соответствующие ограничения.
func NewRegistry(max int, ttl time.Duration) *Registry {
	return &Registry{
		entries: make(map[string]*entry),
		max:     max,
		ttl:     ttl,
		now:     time.Now,
	}
}

// OnSizeChange подписка на изменение числа сессий (для метрик)
func (r *Registry) OnSizeChange(fn func(int)) {
	r.mu.Lock()
	r.onSize = fn
	r.mu.Unlock()
}

// Create регистрирует сессию. Просроченные сессии удаляются до проверки лимита.
func (r *Registry) Create(s *session.Session) (*entry, error) {
	expired := r.collectExpired()
	for _, e := range expired {
		e.stopPlayback()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.max > 0 && len(r.entries) >= r.max {
		return nil, apperror.New(apperror.CodeSessionLimit,
			fmt.Sprintf("session limit of %d reached", r.max)).
			WithDetails("max_sessions", r.max)
	}

	now := r.now()
	e := &entry{
		id:         uuid.NewString(),
		session:    s,
		createdAt:  now,
		lastAccess: now,
	}
	r.entries[e.id] = e
	r.notifyLocked()
	return e, nil
}

// Get находит сессию и продлевает её жизнь
func (r *Registry) Get(id string) (*entry, error) {
	r.mu.Lock()
	e, ok := r.entries[id]
	if ok && r.expiredLocked(e) {
		delete(r.entries, id)
		r.notifyLocked()
		r.mu.Unlock()
		e.stopPlayback()
		return nil, notFound(id)
	}
	r.mu.Unlock()

	if !ok {
		return nil, notFound(id)
	}

	e.mu.Lock()
	e.lastAccess = r.now()
	e.mu.Unlock()
	return e, nil
}

// Delete удаляет сессию и останавливает её проигрывание
func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	e, ok := r.entries[id]
	if ok {
		delete(r.entries, id)
		r.notifyLocked()
	}
	r.mu.Unlock()

	if !ok {
		return notFound(id)
	}
	e.stopPlayback()
	return nil
}

// Len число живых сессий
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Cleanup удаляет просроченные сессии и возвращает их число
func (r *Registry) Cleanup() int {
	expired := r.collectExpired()
	for _, e := range expired {
		e.stopPlayback()
	}
	return len(expired)
}

// Close останавливает все проигрывания и очищает реестр
func (r *Registry) Close() {
	r.mu.Lock()
	all := make([]*entry, 0, len(r.entries))
	for id, e := range r.entries {
		all = append(all, e)
		delete(r.entries, id)
	}
	r.notifyLocked()
	r.mu.Unlock()

	for _, e := range all {
		e.stopPlayback()
	}
}

func (r *Registry) collectExpired() []*entry {
	if r.ttl <= 0 {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var expired []*entry
	for id, e := range r.entries {
		if r.expiredLocked(e) {
			expired = append(expired, e)
			delete(r.entries, id)
		}
	}
	if len(expired) > 0 {
		r.notifyLocked()
	}
	return expired
}

func (r *Registry) expiredLocked(e *entry) bool {
	if r.ttl <= 0 {
		return false
	}
	e.mu.Lock()
	last := e.lastAccess
	e.mu.Unlock()
	return r.now().Sub(last) > r.ttl
}

func (r *Registry) notifyLocked() {
	if r.onSize != nil {
		r.onSize(len(r.entries))
	}
}

func notFound(id string) error {
	return apperror.NewWithField(apperror.CodeSessionNotFound,
		fmt.Sprintf("session %q not found", id), "session_id")
}
