package trace

import (
	"fmt"
	"strconv"
	"strings"

	"pagesim/pkg/apperror"
	"pagesim/services/simulator-svc/internal/policy"
)

// HitRate доля попаданий в [0, 1]
func (r *SimulationResult) HitRate() float64 {
	if r.Len() == 0 {
		return 0
	}
	return float64(r.TotalHits) / float64(r.Len())
}

// FaultRate доля промахов в [0, 1]
func (r *SimulationResult) FaultRate() float64 {
	if r.Len() == 0 {
		return 0
	}
	return float64(r.TotalFaults) / float64(r.Len())
}

// Evictions количество шагов с вытеснением
func (r *SimulationResult) Evictions() int {
	n := 0
	for _, s := range r.Steps {
		if s.Evicted() {
			n++
		}
	}
	return n
}

// CumulativeFaultSeries накопленные промахи по шагам (для графика)
func (r *SimulationResult) CumulativeFaultSeries() []int {
	series := make([]int, len(r.Steps))
	for i, s := range r.Steps {
		series[i] = s.CumulativeFaults
	}
	return series
}

// HitRateSeries текущая доля попаданий по шагам
func (r *SimulationResult) HitRateSeries() []float64 {
	series := make([]float64, len(r.Steps))
	for i, s := range r.Steps {
		series[i] = float64(s.CumulativeHits) / float64(i+1)
	}
	return series
}

// Step возвращает копию шага с индексом i (с нуля)
func (r *SimulationResult) Step(i int) (StepRecord, error) {
	if i < 0 || i >= r.Len() {
		return StepRecord{}, apperror.NewWithField(apperror.CodeIndexOutOfRange,
			fmt.Sprintf("step index %d is outside [0, %d)", i, r.Len()), "index")
	}
	return r.Steps[i].clone(), nil
}

// Summary - агрегаты для отчётов и API
type Summary struct {
	Algorithm         policy.Algorithm `json:"algorithm"`
	AlgorithmName     string           `json:"algorithm_name"`
	FrameCount        int              `json:"frame_count"`
	ReferenceSequence []int            `json:"reference_sequence"`
	TotalSteps        int              `json:"total_steps"`
	TotalFaults       int              `json:"total_faults"`
	TotalHits         int              `json:"total_hits"`
	Evictions         int              `json:"evictions"`
	HitRate           float64          `json:"hit_rate"`
	FaultRate         float64          `json:"fault_rate"`
	FinalFrames       Frames           `json:"final_frames"`
}

func (r *SimulationResult) Summary() Summary {
	s := Summary{
		Algorithm:         r.Algorithm,
		AlgorithmName:     policy.DisplayName(r.Algorithm),
		FrameCount:        r.FrameCount,
		ReferenceSequence: append([]int(nil), r.ReferenceSequence...),
		TotalSteps:        r.Len(),
		TotalFaults:       r.TotalFaults,
		TotalHits:         r.TotalHits,
		Evictions:         r.Evictions(),
		HitRate:           r.HitRate(),
		FaultRate:         r.FaultRate(),
	}
	if n := r.Len(); n > 0 {
		s.FinalFrames = r.Steps[n-1].FramesAfter.Clone()
	} else {
		s.FinalFrames = emptyFrames(r.FrameCount)
	}
	return s
}

// ParseReferenceString разбирает строку вида "7, 0, 1, 2".
// Допускаются запятые и пробелы как разделители.
func ParseReferenceString(s string) ([]int, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == ';'
	})

	refs := make([]int, 0, len(fields))
	for i, f := range fields {
		page, err := strconv.Atoi(f)
		if err != nil {
			return nil, apperror.Wrap(err, apperror.CodeInvalidReference,
				fmt.Sprintf("reference %d (%q) is not an integer", i+1, f)).
				WithField("reference_string").
				WithDetails("position", i+1)
		}
		if page < 0 {
			return nil, apperror.NewWithField(apperror.CodeInvalidReference,
				fmt.Sprintf("reference %d is negative: %d", i+1, page), "reference_string").
				WithDetails("position", i+1)
		}
		refs = append(refs, page)
	}

	if len(refs) == 0 {
		return nil, apperror.NewWithField(apperror.CodeEmptyReferenceSequence,
			"reference string contains no pages", "reference_string")
	}
	return refs, nil
}

// FormatReferenceString обратная операция: "7,0,1"
func FormatReferenceString(refs []int) string {
	parts := make([]string, len(refs))
	for i, p := range refs {
		parts[i] = strconv.Itoa(p)
	}
	return strings.Join(parts, ",")
}
