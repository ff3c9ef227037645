// Package trace turns raw policy decisions into replayable step records.
package trace

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"pagesim/pkg/apperror"
	"pagesim/services/simulator-svc/internal/policy"
)

// Frames снимок набора фреймов; пустой слот хранится как policy.EmptySlot.
// В JSON пустой слот кодируется как null, в тексте как "Empty".
type Frames []int

// Clone возвращает независимую копию
func (f Frames) Clone() Frames {
	if f == nil {
		return nil
	}
	out := make(Frames, len(f))
	copy(out, f)
	return out
}

// Resident количество занятых слотов
func (f Frames) Resident() int {
	n := 0
	for _, p := range f {
		if p != policy.EmptySlot {
			n++
		}
	}
	return n
}

func (f Frames) String() string {
	parts := make([]string, len(f))
	for i, p := range f {
		if p == policy.EmptySlot {
			parts[i] = "Empty"
		} else {
			parts[i] = strconv.Itoa(p)
		}
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func (f Frames) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, p := range f {
		if i > 0 {
			buf.WriteByte(',')
		}
		if p == policy.EmptySlot {
			buf.WriteString("null")
		} else {
			buf.WriteString(strconv.Itoa(p))
		}
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

func (f *Frames) UnmarshalJSON(data []byte) error {
	var raw []*int
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Frames, len(raw))
	for i, p := range raw {
		if p == nil {
			out[i] = policy.EmptySlot
		} else {
			out[i] = *p
		}
	}
	*f = out
	return nil
}

func emptyFrames(capacity int) Frames {
	f := make(Frames, capacity)
	for i := range f {
		f[i] = policy.EmptySlot
	}
	return f
}

// StepRecord - одно обращение к странице
type StepRecord struct {
	StepNumber   int    `json:"step_number"` // с единицы
	Page         int    `json:"page"`
	FramesBefore Frames `json:"frames_before"`
	FramesAfter  Frames `json:"frames_after"`
	IsHit        bool   `json:"is_hit"`
	IsFault      bool   `json:"is_fault"`

	// ReplacedPage вытесненная страница или policy.NoPage
	ReplacedPage int `json:"replaced_page"`
	// ReplacedIndex слот, в который записана страница, или policy.NoSlot при попадании
	ReplacedIndex int `json:"replaced_index"`

	Explanation    string `json:"explanation"`
	DecisionReason string `json:"decision_reason"`

	CumulativeFaults int `json:"cumulative_faults"`
	CumulativeHits   int `json:"cumulative_hits"`
}

// Evicted сообщает, была ли вытеснена страница
func (s StepRecord) Evicted() bool {
	return s.ReplacedPage != policy.NoPage
}

// Outcome "HIT" или "FAULT"
func (s StepRecord) Outcome() string {
	if s.IsHit {
		return "HIT"
	}
	return "FAULT"
}

func (s StepRecord) clone() StepRecord {
	s.FramesBefore = s.FramesBefore.Clone()
	s.FramesAfter = s.FramesAfter.Clone()
	return s
}

// SimulationResult - полный результат прогона
type SimulationResult struct {
	Steps             []StepRecord     `json:"steps"`
	TotalFaults       int              `json:"total_faults"`
	TotalHits         int              `json:"total_hits"`
	Algorithm         policy.Algorithm `json:"algorithm"`
	FrameCount        int              `json:"frame_count"`
	ReferenceSequence []int            `json:"reference_sequence"`
}

// Len количество шагов
func (r *SimulationResult) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Steps)
}

// Clone глубокая копия результата
func (r *SimulationResult) Clone() *SimulationResult {
	if r == nil {
		return nil
	}
	out := *r
	out.ReferenceSequence = append([]int(nil), r.ReferenceSequence...)
	out.Steps = make([]StepRecord, len(r.Steps))
	for i, s := range r.Steps {
		out.Steps[i] = s.clone()
	}
	return &out
}

// Build запускает политику по имени и собирает трассу.
// Ошибки проверяются в порядке: алгоритм, пустая последовательность, ёмкость.
func Build(algorithm string, refs []int, capacity int) (*SimulationResult, error) {
	algo, err := policy.ParseAlgorithm(algorithm)
	if err != nil {
		return nil, err
	}
	return BuildAlgorithm(algo, refs, capacity)
}

// BuildAlgorithm то же, что Build, для уже разобранного алгоритма
func BuildAlgorithm(algo policy.Algorithm, refs []int, capacity int) (*SimulationResult, error) {
	p, err := policy.New(algo)
	if err != nil {
		return nil, err
	}
	if len(refs) == 0 {
		return nil, apperror.NewWithField(apperror.CodeEmptyReferenceSequence,
			"reference sequence is empty", "reference_sequence")
	}
	for i, page := range refs {
		if page < 0 {
			return nil, apperror.NewWithField(apperror.CodeInvalidReference,
				fmt.Sprintf("page id must be non-negative, got %d at position %d", page, i+1), "reference_sequence").
				WithDetails("position", i+1)
		}
	}

	input := append([]int(nil), refs...)
	faults, decisions, err := p.Run(input, capacity)
	if err != nil {
		return nil, err
	}

	return assemble(algo, input, capacity, faults, decisions), nil
}

func assemble(algo policy.Algorithm, refs []int, capacity, faults int, decisions []policy.Decision) *SimulationResult {
	steps := make([]StepRecord, len(decisions))
	before := emptyFrames(capacity)
	var cumFaults, cumHits int

	for i, d := range decisions {
		if d.IsHit {
			cumHits++
		} else {
			cumFaults++
		}

		after := Frames(d.Frames).Clone()
		explanation, reason := describe(d)

		steps[i] = StepRecord{
			StepNumber:       i + 1,
			Page:             d.Page,
			FramesBefore:     before,
			FramesAfter:      after,
			IsHit:            d.IsHit,
			IsFault:          d.IsFault,
			ReplacedPage:     d.ReplacedPage,
			ReplacedIndex:    d.ReplacedIndex,
			Explanation:      explanation,
			DecisionReason:   reason,
			CumulativeFaults: cumFaults,
			CumulativeHits:   cumHits,
		}
		before = after.Clone()
	}

	return &SimulationResult{
		Steps:             steps,
		TotalFaults:       faults,
		TotalHits:         len(refs) - faults,
		Algorithm:         algo,
		FrameCount:        capacity,
		ReferenceSequence: refs,
	}
}

func describe(d policy.Decision) (explanation, reason string) {
	switch {
	case d.IsHit:
		return fmt.Sprintf("Page Hit! Page %d is already in memory.", d.Page), "No replacement needed."
	case d.Evicted():
		return fmt.Sprintf("Page Fault! Loaded page %d.", d.Page), fmt.Sprintf("Replaced page %d.", d.ReplacedPage)
	default:
		return fmt.Sprintf("Page Fault! Loaded page %d.", d.Page), "Placed in an empty frame."
	}
}
