package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagesim/pkg/apperror"
	"pagesim/services/simulator-svc/internal/session"
)

func TestRegistry_CreateGetDelete(t *testing.T) {
	r := NewRegistry(0, 0)

	var sizes []int
	r.OnSizeChange(func(n int) { sizes = append(sizes, n) })

	e, err := r.Create(session.New())
	require.NoError(t, err)
	assert.Len(t, e.id, 36)

	got, err := r.Get(e.id)
	require.NoError(t, err)
	assert.Same(t, e, got)

	require.NoError(t, r.Delete(e.id))
	assert.Equal(t, 0, r.Len())
	assert.Equal(t, []int{1, 0}, sizes)

	_, err = r.Get(e.id)
	assert.True(t, apperror.Is(err, apperror.CodeSessionNotFound))
}

func TestRegistry_Limit(t *testing.T) {
	r := NewRegistry(2, 0)

	for i := 0; i < 2; i++ {
		_, err := r.Create(session.New())
		require.NoError(t, err)
	}

	_, err := r.Create(session.New())
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.CodeSessionLimit))
	assert.Equal(t, 2, r.Len())
}

func TestRegistry_TTL(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	r := NewRegistry(1, time.Minute)
	r.now = func() time.Time { return now }

	stale, err := r.Create(session.New())
	require.NoError(t, err)

	now = now.Add(30 * time.Second)
	_, err = r.Get(stale.id)
	require.NoError(t, err, "access within the TTL extends the session")

	now = now.Add(50 * time.Second)
	_, err = r.Get(stale.id)
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = r.Get(stale.id)
	assert.True(t, apperror.Is(err, apperror.CodeSessionNotFound))
	assert.Equal(t, 0, r.Len())

	// просроченная сессия не занимает место под лимитом
	first, err := r.Create(session.New())
	require.NoError(t, err)
	now = now.Add(2 * time.Minute)
	second, err := r.Create(session.New())
	require.NoError(t, err)
	assert.NotEqual(t, first.id, second.id)
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_Cleanup(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	r := NewRegistry(0, time.Minute)
	r.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		_, err := r.Create(session.New())
		require.NoError(t, err)
	}
	now = now.Add(time.Minute / 2)
	fresh, err := r.Create(session.New())
	require.NoError(t, err)

	now = now.Add(45 * time.Second)
	assert.Equal(t, 3, r.Cleanup())
	assert.Equal(t, 1, r.Len())

	_, err = r.Get(fresh.id)
	assert.NoError(t, err)
}

func TestRegistry_Close(t *testing.T) {
	r := NewRegistry(0, 0)
	for i := 0; i < 3; i++ {
		_, err := r.Create(session.New())
		require.NoError(t, err)
	}

	r.Close()
	assert.Equal(t, 0, r.Len())
}
