package session

import (
	"testing"

	"pagesim/pkg/apperror"
	"pagesim/services/simulator-svc/internal/trace"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loaded(t *testing.T, refs ...int) *Session {
	t.Helper()
	result, err := trace.Build("FIFO", refs, 2)
	require.NoError(t, err)

	s := New()
	s.Run(result)
	return s
}

func TestSession_Run(t *testing.T) {
	s := New()
	assert.Equal(t, Idle, s.State())
	assert.Zero(t, s.Len())

	s = loaded(t, 1, 2, 3)
	assert.Equal(t, Ready, s.State())
	assert.Equal(t, 0, s.Cursor())
	assert.Equal(t, 3, s.Len())
	assert.False(t, s.IsPlaying())

	require.True(t, s.StepForward())
	s.SetExplanation(1, "text")
	require.True(t, s.Play())

	result, err := trace.Build("LRU", []int{4, 5}, 1)
	require.NoError(t, err)
	s.Run(result)

	assert.Equal(t, Ready, s.State())
	assert.Equal(t, 0, s.Cursor())
	assert.Empty(t, s.Explanation())
	assert.Same(t, result, s.Result())
}

func TestSession_StepForward(t *testing.T) {
	s := loaded(t, 1, 2, 3)

	assert.True(t, s.StepForward())
	assert.Equal(t, Stepping, s.State())
	assert.True(t, s.StepForward())
	assert.Equal(t, 2, s.Cursor())
	assert.True(t, s.AtEnd())

	assert.False(t, s.StepForward(), "no further steps")
	assert.Equal(t, 2, s.Cursor())
}

func TestSession_PlaySelfStopsAtLastIndex(t *testing.T) {
	s := loaded(t, 1, 2, 3)

	require.True(t, s.Play())
	assert.Equal(t, Playing, s.State())

	assert.True(t, s.StepForward())
	assert.True(t, s.IsPlaying())

	assert.True(t, s.StepForward())
	assert.False(t, s.IsPlaying(), "reaching the last step stops playback")
	assert.Equal(t, Stepping, s.State())

	assert.False(t, s.Play(), "play is a no-op at the last index")
	assert.False(t, s.StepForward())
}

func TestSession_StepBack(t *testing.T) {
	s := loaded(t, 1, 2, 3)

	assert.False(t, s.StepBack())
	assert.Equal(t, 0, s.Cursor())

	require.NoError(t, s.Jump(2))
	assert.False(t, s.Play())

	require.NoError(t, s.Jump(1))
	require.True(t, s.Play())
	assert.True(t, s.StepBack())
	assert.Equal(t, 0, s.Cursor())
	assert.True(t, s.IsPlaying(), "stepping back keeps playback running")
}

func TestSession_Jump(t *testing.T) {
	s := loaded(t, 1, 2, 3, 4)
	require.True(t, s.Play())

	require.NoError(t, s.Jump(2))
	assert.Equal(t, 2, s.Cursor())
	assert.False(t, s.IsPlaying())
	assert.Equal(t, Stepping, s.State())

	for _, idx := range []int{-1, 4, 100} {
		err := s.Jump(idx)
		require.Error(t, err)
		assert.True(t, apperror.Is(err, apperror.CodeIndexOutOfRange))
		assert.Equal(t, 2, s.Cursor())
		assert.Equal(t, Stepping, s.State())
	}
}

func TestSession_JumpWhileIdle(t *testing.T) {
	s := New()
	err := s.Jump(0)
	assert.True(t, apperror.Is(err, apperror.CodeIndexOutOfRange))
	assert.Equal(t, Idle, s.State())
}

func TestSession_Pause(t *testing.T) {
	s := loaded(t, 1, 2, 3)

	require.True(t, s.Play())
	assert.True(t, s.IsPlaying())
	s.Pause()
	assert.Equal(t, Stepping, s.State())

	s.Pause()
	assert.Equal(t, Stepping, s.State())
}

func TestSession_Reset(t *testing.T) {
	s := loaded(t, 1, 2, 3)
	require.True(t, s.StepForward())
	require.True(t, s.Play())

	s.Reset()
	assert.Equal(t, Idle, s.State())
	assert.Nil(t, s.Result())
	assert.Zero(t, s.Cursor())

	assert.False(t, s.StepForward())
	assert.False(t, s.StepBack())
	assert.False(t, s.Play())
	_, ok := s.Current()
	assert.False(t, ok)
}

func TestSession_Explanation(t *testing.T) {
	s := loaded(t, 1, 2, 3)

	assert.False(t, s.SetExplanation(1, "stale"))
	assert.True(t, s.SetExplanation(0, "step one"))
	assert.Equal(t, "step one", s.Explanation())

	require.True(t, s.StepForward())
	assert.Empty(t, s.Explanation(), "moving the cursor clears the explanation")

	require.True(t, s.SetExplanation(1, "step two"))
	require.True(t, s.StepBack())
	assert.Empty(t, s.Explanation())

	require.True(t, s.SetExplanation(0, "again"))
	require.NoError(t, s.Jump(2))
	assert.Empty(t, s.Explanation())
}

func TestSession_Snapshot(t *testing.T) {
	s := loaded(t, 1, 2, 1)
	require.NoError(t, s.Jump(2))
	s.SetExplanation(2, "hit")

	snap := s.Snapshot()
	assert.Equal(t, Stepping, snap.State)
	assert.Equal(t, 2, snap.Cursor)
	assert.Equal(t, 3, snap.TotalSteps)
	assert.True(t, snap.AtEnd)
	assert.Equal(t, "hit", snap.Explanation)
	require.NotNil(t, snap.Current)
	assert.True(t, snap.Current.IsHit)

	snap.Current.FramesAfter[0] = 99
	cur, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, 1, cur.FramesAfter[0])

	assert.Nil(t, New().Snapshot().Current)
}

func TestSession_RunNil(t *testing.T) {
	s := loaded(t, 1)
	s.Run(nil)
	assert.Equal(t, Idle, s.State())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "playing", Playing.String())
	assert.Equal(t, "State(9)", State(9).String())
}

func TestState_TextRoundTrip(t *testing.T) {
	var st State
	require.NoError(t, st.UnmarshalText([]byte("stepping")))
	assert.Equal(t, Stepping, st)

	assert.Error(t, st.UnmarshalText([]byte("paused")))
}
