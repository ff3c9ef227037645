package trace

import (
	"fmt"
	"sort"

	"pagesim/pkg/apperror"
	"pagesim/services/simulator-svc/internal/policy"
)

// ComparisonEntry - один алгоритм в сравнении
type ComparisonEntry struct {
	Rank      int              `json:"rank"`
	Algorithm policy.Algorithm `json:"algorithm"`
	Name      string           `json:"name"`
	Faults    int              `json:"faults"`
	Hits      int              `json:"hits"`
	HitRate   float64          `json:"hit_rate"`

	// GapToOptimal лишние промахи относительно Optimal
	GapToOptimal int `json:"gap_to_optimal"`

	Result *SimulationResult `json:"-"`
}

// Comparison результат сравнения алгоритмов на одном входе
type Comparison struct {
	ReferenceSequence []int             `json:"reference_sequence"`
	FrameCount        int               `json:"frame_count"`
	OptimalFaults     int               `json:"optimal_faults"`
	Entries           []ComparisonEntry `json:"entries"`
}

// Best алгоритм с наименьшим числом промахов
func (c *Comparison) Best() policy.Algorithm {
	if len(c.Entries) == 0 {
		return policy.AlgorithmUnknown
	}
	return c.Entries[0].Algorithm
}

// Entry ищет запись по алгоритму
func (c *Comparison) Entry(algo policy.Algorithm) (ComparisonEntry, bool) {
	for _, e := range c.Entries {
		if e.Algorithm == algo {
			return e, true
		}
	}
	return ComparisonEntry{}, false
}

// Compare прогоняет алгоритмы на одном входе и ранжирует по числу промахов.
// Без аргументов сравниваются все пять. При равенстве сохраняется канонический порядок.
func Compare(refs []int, capacity int, algos ...policy.Algorithm) (*Comparison, error) {
	if len(algos) == 0 {
		algos = policy.Algorithms()
	}

	optimal, err := BuildAlgorithm(policy.Optimal, refs, capacity)
	if err != nil {
		return nil, err
	}

	seen := make(map[policy.Algorithm]bool, len(algos))
	entries := make([]ComparisonEntry, 0, len(algos))
	for _, algo := range canonicalOrder(algos) {
		if seen[algo] {
			continue
		}
		seen[algo] = true

		result := optimal
		if algo != policy.Optimal {
			if result, err = BuildAlgorithm(algo, refs, capacity); err != nil {
				return nil, err
			}
		}

		entries = append(entries, ComparisonEntry{
			Algorithm:    algo,
			Name:         policy.DisplayName(algo),
			Faults:       result.TotalFaults,
			Hits:         result.TotalHits,
			HitRate:      result.HitRate(),
			GapToOptimal: result.TotalFaults - optimal.TotalFaults,
			Result:       result,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Faults < entries[j].Faults
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}

	return &Comparison{
		ReferenceSequence: append([]int(nil), refs...),
		FrameCount:        capacity,
		OptimalFaults:     optimal.TotalFaults,
		Entries:           entries,
	}, nil
}

func canonicalOrder(algos []policy.Algorithm) []policy.Algorithm {
	out := append([]policy.Algorithm(nil), algos...)
	sort.SliceStable(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// SweepPoint число промахов при заданной ёмкости
type SweepPoint struct {
	Frames  int     `json:"frames"`
	Faults  int     `json:"faults"`
	HitRate float64 `json:"hit_rate"`
}

// Anomaly - рост числа промахов при увеличении ёмкости (аномалия Белади)
type Anomaly struct {
	FromFrames int `json:"from_frames"`
	ToFrames   int `json:"to_frames"`
	FromFaults int `json:"from_faults"`
	ToFaults   int `json:"to_faults"`
}

// Sweep результат прогона по диапазону ёмкостей
type Sweep struct {
	Algorithm         policy.Algorithm `json:"algorithm"`
	ReferenceSequence []int            `json:"reference_sequence"`
	Points            []SweepPoint     `json:"points"`
	Anomalies         []Anomaly        `json:"anomalies"`
}

// HasAnomaly сообщает, найдена ли аномалия Белади
func (s *Sweep) HasAnomaly() bool {
	return len(s.Anomalies) > 0
}

// SweepCapacity прогоняет алгоритм для ёмкостей minCap..maxCap включительно
func SweepCapacity(algo policy.Algorithm, refs []int, minCap, maxCap int) (*Sweep, error) {
	if minCap < 1 {
		return nil, apperror.NewWithField(apperror.CodeInvalidCapacity,
			fmt.Sprintf("minimum capacity must be at least 1, got %d", minCap), "min_frames")
	}
	if maxCap < minCap {
		return nil, apperror.NewWithField(apperror.CodeInvalidArgument,
			fmt.Sprintf("maximum capacity %d is below minimum %d", maxCap, minCap), "max_frames")
	}

	sweep := &Sweep{
		Algorithm:         algo,
		ReferenceSequence: append([]int(nil), refs...),
		Points:            make([]SweepPoint, 0, maxCap-minCap+1),
		Anomalies:         []Anomaly{},
	}

	for c := minCap; c <= maxCap; c++ {
		result, err := BuildAlgorithm(algo, refs, c)
		if err != nil {
			return nil, err
		}
		point := SweepPoint{Frames: c, Faults: result.TotalFaults, HitRate: result.HitRate()}

		if n := len(sweep.Points); n > 0 && point.Faults > sweep.Points[n-1].Faults {
			prev := sweep.Points[n-1]
			sweep.Anomalies = append(sweep.Anomalies, Anomaly{
				FromFrames: prev.Frames,
				ToFrames:   point.Frames,
				FromFaults: prev.Faults,
				ToFaults:   point.Faults,
			})
		}
		sweep.Points = append(sweep.Points, point)
	}

	return sweep, nil
}
