package policy

import (
	"testing"

	"pagesim/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	textbookRefs = []int{7, 0, 1, 2, 0, 3, 0, 4, 2, 3, 0, 3, 2}
	beladyRefs   = []int{1, 2, 3, 4, 1, 2, 5, 1, 2, 3, 4, 5}
)

func TestRun_Textbook(t *testing.T) {
	tests := []struct {
		name       string
		algo       Algorithm
		wantFaults int
		wantFrames []int
	}{
		{"fifo", FIFO, 10, []int{0, 2, 3}},
		{"lru", LRU, 9, []int{0, 3, 2}},
		{"mru", MRU, 11, []int{7, 4, 2}},
		{"optimal", Optimal, 7, []int{2, 0, 3}},
		{"second_chance", SecondChance, 9, []int{3, 2, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			faults, decisions, err := Run(tt.algo, textbookRefs, 3)
			require.NoError(t, err)
			require.Len(t, decisions, len(textbookRefs))

			assert.Equal(t, tt.wantFaults, faults)
			assert.Equal(t, tt.wantFrames, decisions[len(decisions)-1].Frames)
		})
	}
}

func TestRun_Invariants(t *testing.T) {
	inputs := [][]int{
		textbookRefs,
		beladyRefs,
		{1, 2, 3, 4, 5, 6, 7, 8, 9, 10},
		{2, 5, 1, 8, 3, 7, 4, 6, 2, 9, 1, 5, 8, 3, 7},
		{0, 0, 0, 0},
		{5},
	}

	for _, algo := range Algorithms() {
		for capacity := 1; capacity <= 5; capacity++ {
			for _, refs := range inputs {
				faults, decisions, err := Run(algo, refs, capacity)
				require.NoError(t, err)
				require.Len(t, decisions, len(refs))

				counted := 0
				for i, d := range decisions {
					assert.NotEqual(t, d.IsHit, d.IsFault, "%s step %d: hit xor fault", algo, i)
					assert.Len(t, d.Frames, capacity)
					assert.Equal(t, refs[i], d.Page)
					assert.Contains(t, d.Frames, d.Page)

					if d.IsHit {
						assert.Equal(t, NoSlot, d.ReplacedIndex)
						assert.Equal(t, NoPage, d.ReplacedPage)
						continue
					}
					counted++
					assert.GreaterOrEqual(t, d.ReplacedIndex, 0)
					assert.Less(t, d.ReplacedIndex, capacity)
					assert.Equal(t, d.Page, d.Frames[d.ReplacedIndex])
				}
				assert.Equal(t, counted, faults, "%s capacity %d", algo, capacity)
			}
		}
	}
}

func TestRun_OptimalIsLowerBound(t *testing.T) {
	inputs := [][]int{
		textbookRefs,
		beladyRefs,
		{1, 2, 3, 1, 2, 3, 1, 2, 3, 1, 2, 3},
		{1, 2, 3, 4, 1, 2, 3, 4, 1, 2, 3, 4},
		{2, 5, 1, 8, 3, 7, 4, 6, 2, 9, 1, 5, 8, 3, 7},
	}

	for _, refs := range inputs {
		for capacity := 1; capacity <= 4; capacity++ {
			best, _, err := Run(Optimal, refs, capacity)
			require.NoError(t, err)

			for _, algo := range Algorithms() {
				faults, _, err := Run(algo, refs, capacity)
				require.NoError(t, err)
				assert.LessOrEqual(t, best, faults, "%s capacity %d", algo, capacity)
			}
		}
	}
}

func TestRun_BeladyAnomaly(t *testing.T) {
	fifo3, _, err := Run(FIFO, beladyRefs, 3)
	require.NoError(t, err)
	fifo4, _, err := Run(FIFO, beladyRefs, 4)
	require.NoError(t, err)

	assert.Equal(t, 9, fifo3)
	assert.Equal(t, 10, fifo4)

	lru3, _, err := Run(LRU, beladyRefs, 3)
	require.NoError(t, err)
	lru4, _, err := Run(LRU, beladyRefs, 4)
	require.NoError(t, err)

	assert.Equal(t, 10, lru3)
	assert.Equal(t, 8, lru4)
}

func TestRun_StackAlgorithmsAreMonotonic(t *testing.T) {
	inputs := [][]int{textbookRefs, beladyRefs, {2, 5, 1, 8, 3, 7, 4, 6, 2, 9, 1, 5, 8, 3, 7}}

	for _, algo := range []Algorithm{LRU, Optimal} {
		for _, refs := range inputs {
			prev := len(refs) + 1
			for capacity := 1; capacity <= 8; capacity++ {
				faults, _, err := Run(algo, refs, capacity)
				require.NoError(t, err)
				assert.LessOrEqual(t, faults, prev, "%s capacity %d", algo, capacity)
				prev = faults
			}
		}
	}
}

func TestRun_NoEvictionWhenCapacityIsLarge(t *testing.T) {
	for _, algo := range Algorithms() {
		t.Run(algo.String(), func(t *testing.T) {
			faults, decisions, err := Run(algo, textbookRefs, 8)
			require.NoError(t, err)

			assert.Equal(t, 6, faults) // distinct pages
			for _, d := range decisions {
				assert.False(t, d.Evicted())
			}
		})
	}
}

func TestRun_SnapshotsAreIndependent(t *testing.T) {
	for _, algo := range Algorithms() {
		t.Run(algo.String(), func(t *testing.T) {
			_, decisions, err := Run(algo, textbookRefs, 3)
			require.NoError(t, err)

			before := make([][]int, len(decisions))
			for i, d := range decisions {
				before[i] = append([]int(nil), d.Frames...)
			}

			for i := range decisions {
				for j := range decisions[i].Frames {
					decisions[i].Frames[j] = 99
				}
				for k := i + 1; k < len(decisions); k++ {
					assert.Equal(t, before[k], decisions[k].Frames)
				}
			}
		})
	}
}

func TestRun_InvalidCapacity(t *testing.T) {
	for _, algo := range Algorithms() {
		for _, capacity := range []int{0, -1} {
			_, decisions, err := Run(algo, textbookRefs, capacity)
			require.Error(t, err)
			assert.True(t, apperror.Is(err, apperror.CodeInvalidCapacity))
			assert.Nil(t, decisions)
		}
	}
}

func TestRun_UnknownAlgorithm(t *testing.T) {
	_, _, err := Run(AlgorithmUnknown, textbookRefs, 3)
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.CodeUnknownAlgorithm))

	_, err = New(Algorithm(42))
	assert.True(t, apperror.Is(err, apperror.CodeUnknownAlgorithm))
}

func TestRun_EmptyInput(t *testing.T) {
	faults, decisions, err := Run(FIFO, nil, 3)
	require.NoError(t, err)
	assert.Zero(t, faults)
	assert.Empty(t, decisions)
}

func TestRun_PageZeroIsEvictable(t *testing.T) {
	_, decisions, err := Run(FIFO, []int{0, 1, 2}, 2)
	require.NoError(t, err)

	last := decisions[2]
	assert.True(t, last.Evicted())
	assert.Equal(t, 0, last.ReplacedPage)
	assert.Equal(t, 0, last.ReplacedIndex)
	assert.Equal(t, []int{2, 1}, last.Frames)
}

func TestRun_Deterministic(t *testing.T) {
	for _, algo := range Algorithms() {
		f1, d1, err := Run(algo, beladyRefs, 3)
		require.NoError(t, err)
		f2, d2, err := Run(algo, beladyRefs, 3)
		require.NoError(t, err)

		assert.Equal(t, f1, f2)
		assert.Equal(t, d1, d2)
	}
}

func TestParseAlgorithm(t *testing.T) {
	tests := []struct {
		input   string
		want    Algorithm
		wantErr bool
	}{
		{"FIFO", FIFO, false},
		{"fifo", FIFO, false},
		{" LRU ", LRU, false},
		{"MRU", MRU, false},
		{"Optimal", Optimal, false},
		{"belady", Optimal, false},
		{"SecondChance", SecondChance, false},
		{"second-chance", SecondChance, false},
		{"Clock", SecondChance, false},
		{"LFU", AlgorithmUnknown, true},
		{"", AlgorithmUnknown, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseAlgorithm(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperror.Is(err, apperror.CodeUnknownAlgorithm))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAlgorithm_TextRoundTrip(t *testing.T) {
	for _, algo := range Algorithms() {
		text, err := algo.MarshalText()
		require.NoError(t, err)

		var parsed Algorithm
		require.NoError(t, parsed.UnmarshalText(text))
		assert.Equal(t, algo, parsed)
	}

	_, err := AlgorithmUnknown.MarshalText()
	assert.Error(t, err)
}
