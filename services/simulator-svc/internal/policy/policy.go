// Package policy implements the page-replacement policies of the simulator:
// FIFO, LRU, MRU, Optimal (Belady) and Second-Chance (Clock).
//
// Every policy maps a reference sequence and a frame capacity onto an ordered
// list of per-access decisions. Policies are pure: they perform no I/O, keep
// no state between runs and never alias the returned frame snapshots.
//
// # Frame Slots
//
// The frame set is a fixed-length slice indexed by physical frame number.
// Empty slots hold EmptySlot. A new page always lands either in the lowest
// empty slot or in the slot of its victim, so slot order is stable across
// snapshots and can be rendered as a frame grid.
//
// # Determinism
//
// Running the same algorithm on the same input twice yields identical
// decisions. Ties (Optimal) are broken by frame order.
//
// # Example Usage
//
//	faults, decisions, err := policy.Run(policy.LRU, []int{7, 0, 1, 2, 0}, 3)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(faults, decisions[len(decisions)-1].Frames)
package policy

import (
	"fmt"
	"strings"

	"pagesim/pkg/apperror"
)

// =============================================================================
// Sentinels
// =============================================================================

const (
	// EmptySlot marks a frame that holds no page.
	EmptySlot = -1

	// NoPage is the ReplacedPage value of a decision that evicted nothing.
	NoPage = -1

	// NoSlot is the ReplacedIndex value of a hit.
	NoSlot = -1
)

// =============================================================================
// Algorithm Enumeration
// =============================================================================

// Algorithm identifies one of the supported replacement policies.
// The zero value is not a valid algorithm.
type Algorithm int

const (
	AlgorithmUnknown Algorithm = iota
	FIFO
	LRU
	MRU
	Optimal
	SecondChance
)

var algorithmNames = map[Algorithm]string{
	FIFO:         "FIFO",
	LRU:          "LRU",
	MRU:          "MRU",
	Optimal:      "Optimal",
	SecondChance: "SecondChance",
}

// Algorithms returns every supported algorithm in canonical order.
func Algorithms() []Algorithm {
	return []Algorithm{FIFO, LRU, MRU, Optimal, SecondChance}
}

// String returns the canonical identifier ("FIFO", "SecondChance", ...).
func (a Algorithm) String() string {
	if name, ok := algorithmNames[a]; ok {
		return name
	}
	return fmt.Sprintf("Algorithm(%d)", int(a))
}

// Valid reports whether a is one of the five supported policies.
func (a Algorithm) Valid() bool {
	_, ok := algorithmNames[a]
	return ok
}

// MarshalText encodes the algorithm by its canonical identifier.
func (a Algorithm) MarshalText() ([]byte, error) {
	if !a.Valid() {
		return nil, unknownAlgorithm(a.String())
	}
	return []byte(a.String()), nil
}

// UnmarshalText accepts anything ParseAlgorithm accepts.
func (a *Algorithm) UnmarshalText(text []byte) error {
	parsed, err := ParseAlgorithm(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// ParseAlgorithm resolves an identifier case-insensitively.
// "Clock" and "second-chance" are accepted as aliases of SecondChance.
func ParseAlgorithm(name string) (Algorithm, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	key = strings.NewReplacer("-", "", "_", "", " ", "").Replace(key)

	switch key {
	case "fifo":
		return FIFO, nil
	case "lru":
		return LRU, nil
	case "mru":
		return MRU, nil
	case "optimal", "opt", "belady":
		return Optimal, nil
	case "secondchance", "clock":
		return SecondChance, nil
	default:
		return AlgorithmUnknown, unknownAlgorithm(name)
	}
}

// =============================================================================
// Decisions
// =============================================================================

// Decision is the outcome of a single page access.
type Decision struct {
	// Page is the requested page id.
	Page int

	// Frames is the frame set after the access. It is an independent copy.
	Frames []int

	// IsHit and IsFault are mutually exclusive.
	IsHit   bool
	IsFault bool

	// ReplacedPage is the evicted page, or NoPage.
	ReplacedPage int

	// ReplacedIndex is the slot written on a fault, or NoSlot on a hit.
	ReplacedIndex int
}

// Evicted reports whether the access removed a resident page.
func (d Decision) Evicted() bool {
	return d.ReplacedPage != NoPage
}

// =============================================================================
// Dispatch
// =============================================================================

// Policy is the common contract of all replacement policies.
type Policy interface {
	// Algorithm returns the identifier of the policy.
	Algorithm() Algorithm

	// Run replays refs against a frame set of the given capacity and returns
	// the number of faults together with one decision per reference.
	Run(refs []int, capacity int) (int, []Decision, error)
}

// New returns the policy implementing algo.
func New(algo Algorithm) (Policy, error) {
	switch algo {
	case FIFO:
		return fifoPolicy{}, nil
	case LRU:
		return lruPolicy{}, nil
	case MRU:
		return mruPolicy{}, nil
	case Optimal:
		return optimalPolicy{}, nil
	case SecondChance:
		return clockPolicy{}, nil
	default:
		return nil, unknownAlgorithm(algo.String())
	}
}

// Run executes algo over refs with the given frame capacity.
func Run(algo Algorithm, refs []int, capacity int) (int, []Decision, error) {
	p, err := New(algo)
	if err != nil {
		return 0, nil, err
	}
	return p.Run(refs, capacity)
}

func validateCapacity(capacity int) error {
	if capacity < 1 {
		return apperror.NewWithField(apperror.CodeInvalidCapacity,
			fmt.Sprintf("frame capacity must be at least 1, got %d", capacity), "capacity").
			WithDetails("capacity", capacity)
	}
	return nil
}

func unknownAlgorithm(name string) error {
	return apperror.NewWithField(apperror.CodeUnknownAlgorithm,
		fmt.Sprintf("unknown algorithm %q", name), "algorithm").
		WithDetails("supported", []string{"FIFO", "LRU", "MRU", "Optimal", "SecondChance"})
}
