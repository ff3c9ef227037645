package trace

import (
	"encoding/json"
	"testing"

	"pagesim/pkg/apperror"
	"pagesim/services/simulator-svc/internal/policy"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var textbookRefs = []int{7, 0, 1, 2, 0, 3, 0, 4, 2, 3, 0, 3, 2}

func TestBuild_StepRecords(t *testing.T) {
	result, err := Build("FIFO", textbookRefs, 3)
	require.NoError(t, err)
	require.Len(t, result.Steps, len(textbookRefs))

	assert.Equal(t, policy.FIFO, result.Algorithm)
	assert.Equal(t, 3, result.FrameCount)
	assert.Equal(t, textbookRefs, result.ReferenceSequence)
	assert.Equal(t, 10, result.TotalFaults)
	assert.Equal(t, 3, result.TotalHits)

	first := result.Steps[0]
	assert.Equal(t, 1, first.StepNumber)
	assert.Equal(t, Frames{-1, -1, -1}, first.FramesBefore)
	assert.Equal(t, Frames{7, -1, -1}, first.FramesAfter)
	assert.Equal(t, "Page Fault! Loaded page 7.", first.Explanation)
	assert.Equal(t, "Placed in an empty frame.", first.DecisionReason)
	assert.Equal(t, policy.NoPage, first.ReplacedPage)
	assert.Equal(t, 0, first.ReplacedIndex)

	evict := result.Steps[3]
	assert.Equal(t, Frames{7, 0, 1}, evict.FramesBefore)
	assert.Equal(t, Frames{2, 0, 1}, evict.FramesAfter)
	assert.Equal(t, "Page Fault! Loaded page 2.", evict.Explanation)
	assert.Equal(t, "Replaced page 7.", evict.DecisionReason)
	assert.Equal(t, 0, evict.ReplacedIndex)

	hit := result.Steps[4]
	assert.True(t, hit.IsHit)
	assert.Equal(t, "Page Hit! Page 0 is already in memory.", hit.Explanation)
	assert.Equal(t, "No replacement needed.", hit.DecisionReason)
	assert.Equal(t, policy.NoSlot, hit.ReplacedIndex)
	assert.Equal(t, 4, hit.CumulativeFaults)
	assert.Equal(t, 1, hit.CumulativeHits)

	last := result.Steps[len(result.Steps)-1]
	assert.Equal(t, 10, last.CumulativeFaults)
	assert.Equal(t, 3, last.CumulativeHits)
}

func TestBuild_ReplacingPageZero(t *testing.T) {
	result, err := Build("LRU", []int{0, 1, 2}, 2)
	require.NoError(t, err)

	assert.Equal(t, "Replaced page 0.", result.Steps[2].DecisionReason)
}

func TestBuild_Invariants(t *testing.T) {
	for _, algo := range policy.Algorithms() {
		for _, ex := range Examples() {
			result, err := BuildAlgorithm(algo, ex.References, ex.Frames)
			require.NoError(t, err)

			assert.Equal(t, len(ex.References), result.TotalFaults+result.TotalHits)
			for i, s := range result.Steps {
				assert.NotEqual(t, s.IsHit, s.IsFault)
				assert.Len(t, s.FramesAfter, ex.Frames)
				if i > 0 {
					assert.Equal(t, result.Steps[i-1].FramesAfter, s.FramesBefore)
				}
			}
		}
	}
}

func TestBuild_Errors(t *testing.T) {
	tests := []struct {
		name      string
		algorithm string
		refs      []int
		capacity  int
		wantCode  apperror.ErrorCode
	}{
		{"unknown algorithm", "LFU", textbookRefs, 3, apperror.CodeUnknownAlgorithm},
		{"unknown algorithm wins over empty input", "LFU", nil, 0, apperror.CodeUnknownAlgorithm},
		{"empty sequence", "FIFO", nil, 3, apperror.CodeEmptyReferenceSequence},
		{"empty sequence wins over capacity", "FIFO", []int{}, 0, apperror.CodeEmptyReferenceSequence},
		{"zero capacity", "LRU", textbookRefs, 0, apperror.CodeInvalidCapacity},
		{"negative page", "LRU", []int{1, -2}, 3, apperror.CodeInvalidReference},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Build(tt.algorithm, tt.refs, tt.capacity)
			require.Error(t, err)
			assert.Nil(t, result)
			assert.Equal(t, tt.wantCode, apperror.Code(err))
		})
	}
}

func TestBuild_Idempotent(t *testing.T) {
	for _, algo := range policy.Algorithms() {
		a, err := BuildAlgorithm(algo, textbookRefs, 3)
		require.NoError(t, err)
		b, err := BuildAlgorithm(algo, textbookRefs, 3)
		require.NoError(t, err)
		assert.Equal(t, a, b)
	}
}

func TestBuild_NoAliasing(t *testing.T) {
	refs := append([]int(nil), textbookRefs...)
	result, err := Build("Optimal", refs, 3)
	require.NoError(t, err)

	refs[0] = 42
	assert.Equal(t, 7, result.ReferenceSequence[0])

	want := result.Clone()
	for i := range result.Steps {
		result.Steps[i].FramesAfter[0] = 99
		if i+1 < len(result.Steps) {
			assert.Equal(t, want.Steps[i+1].FramesBefore, result.Steps[i+1].FramesBefore)
		}
	}
}

func TestSimulationResult_Series(t *testing.T) {
	result, err := Build("FIFO", []int{1, 1, 2, 1}, 2)
	require.NoError(t, err)

	assert.Equal(t, []int{1, 1, 2, 2}, result.CumulativeFaultSeries())
	assert.Equal(t, []float64{0, 0.5, 1.0 / 3.0, 0.5}, result.HitRateSeries())
	assert.InDelta(t, 0.5, result.HitRate(), 1e-9)
	assert.InDelta(t, 0.5, result.FaultRate(), 1e-9)
}

func TestSimulationResult_Step(t *testing.T) {
	result, err := Build("FIFO", textbookRefs, 3)
	require.NoError(t, err)

	step, err := result.Step(3)
	require.NoError(t, err)
	assert.Equal(t, 4, step.StepNumber)

	step.FramesAfter[0] = 99
	assert.Equal(t, 2, result.Steps[3].FramesAfter[0])

	_, err = result.Step(len(textbookRefs))
	assert.True(t, apperror.Is(err, apperror.CodeIndexOutOfRange))
	_, err = result.Step(-1)
	assert.True(t, apperror.Is(err, apperror.CodeIndexOutOfRange))
}

func TestSimulationResult_Summary(t *testing.T) {
	result, err := Build("Optimal", textbookRefs, 3)
	require.NoError(t, err)

	s := result.Summary()
	assert.Equal(t, "Optimal (Belady's Algorithm)", s.AlgorithmName)
	assert.Equal(t, 13, s.TotalSteps)
	assert.Equal(t, 7, s.TotalFaults)
	assert.Equal(t, 6, s.TotalHits)
	assert.Equal(t, 4, s.Evictions)
	assert.Equal(t, Frames{2, 0, 3}, s.FinalFrames)
	assert.InDelta(t, 6.0/13.0, s.HitRate, 1e-9)
}

func TestFrames_Encoding(t *testing.T) {
	f := Frames{7, policy.EmptySlot, 0}
	assert.Equal(t, "[7, Empty, 0]", f.String())
	assert.Equal(t, 2, f.Resident())

	data, err := json.Marshal(f)
	require.NoError(t, err)
	assert.JSONEq(t, `[7,null,0]`, string(data))

	var decoded Frames
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, f, decoded)
}

func TestSimulationResult_JSON(t *testing.T) {
	result, err := Build("SecondChance", []int{1, 2}, 2)
	require.NoError(t, err)

	data, err := json.Marshal(result)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"algorithm":"SecondChance"`)
	assert.Contains(t, string(data), `"frames_before":[null,null]`)
}

func TestParseReferenceString(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		want     []int
		wantCode apperror.ErrorCode
	}{
		{"commas", "7,0,1,2", []int{7, 0, 1, 2}, ""},
		{"spaces around commas", " 7, 0 ,1 ", []int{7, 0, 1}, ""},
		{"whitespace only separators", "1 2\t3", []int{1, 2, 3}, ""},
		{"trailing comma", "1,2,", []int{1, 2}, ""},
		{"not a number", "1,a,3", nil, apperror.CodeInvalidReference},
		{"negative", "1,-3", nil, apperror.CodeInvalidReference},
		{"empty", "", nil, apperror.CodeEmptyReferenceSequence},
		{"only commas", ",,,", nil, apperror.CodeEmptyReferenceSequence},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseReferenceString(tt.input)
			if tt.wantCode != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantCode, apperror.Code(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, mustParse(t, FormatReferenceString(got)))
		})
	}
}

func mustParse(t *testing.T, s string) []int {
	t.Helper()
	refs, err := ParseReferenceString(s)
	require.NoError(t, err)
	return refs
}
