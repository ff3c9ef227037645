package policy

// =============================================================================
// Algorithm Information
// =============================================================================

// Info provides metadata about a replacement policy.
//
// Use GetAlgorithmInfo() or GetAllAlgorithms() to retrieve this information
// for catalogue endpoints and report headers.
type Info struct {
	// Algorithm is the algorithm enum value.
	Algorithm Algorithm `json:"algorithm"`

	// Name is the human-readable name.
	Name string `json:"name"`

	// Description is a brief description of the policy.
	Description string `json:"description"`

	// ComplexityBadge is the short per-operation cost shown next to the name.
	ComplexityBadge string `json:"complexity_badge"`

	// TimeComplexity is the Big-O time complexity.
	TimeComplexity string `json:"time_complexity"`

	// SpaceComplexity is the Big-O space complexity.
	SpaceComplexity string `json:"space_complexity"`

	// Advantages lists where the policy shines.
	Advantages []string `json:"advantages"`

	// Disadvantages lists known limitations.
	Disadvantages []string `json:"disadvantages"`

	// RealWorldUse names systems that use the policy or a variant of it.
	RealWorldUse string `json:"real_world_use"`

	// DataStructures describes the bookkeeping the policy needs.
	DataStructures string `json:"data_structures"`

	// StackAlgorithm is true when fault counts never grow with capacity.
	StackAlgorithm bool `json:"stack_algorithm"`

	// RequiresFuture is true for offline policies.
	RequiresFuture bool `json:"requires_future"`
}

var algorithmInfos = map[Algorithm]*Info{
	FIFO: {
		Algorithm:       FIFO,
		Name:            "First In First Out",
		Description:     "Replaces the oldest page in memory using a queue-based approach",
		ComplexityBadge: "O(1)",
		TimeComplexity:  "O(1) per operation",
		SpaceComplexity: "O(n) for queue maintenance",
		Advantages:      []string{"Simple to implement", "Low overhead", "Predictable behavior"},
		Disadvantages:   []string{"Poor performance in practice", "Suffers from Belady's anomaly", "Ignores page usage patterns"},
		RealWorldUse:    "Simple embedded systems, basic caching mechanisms",
		DataStructures:  "Queue to track insertion order",
	},
	LRU: {
		Algorithm:       LRU,
		Name:            "Least Recently Used",
		Description:     "Replaces the page that has been unused for the longest time",
		ComplexityBadge: "O(1)",
		TimeComplexity:  "O(1) with proper data structures (doubly linked list + hash map)",
		SpaceComplexity: "O(n) for tracking usage order",
		Advantages:      []string{"Excellent performance", "Exploits temporal locality", "No Belady's anomaly"},
		Disadvantages:   []string{"Complex implementation", "Higher memory overhead", "Requires hardware support"},
		RealWorldUse:    "CPU cache management, operating system page replacement, database buffer pools",
		DataStructures:  "Doubly linked list with hash map for O(1) access",
		StackAlgorithm:  true,
	},
	MRU: {
		Algorithm:       MRU,
		Name:            "Most Recently Used (MRU)",
		Description:     "Replaces the most recently used page, useful in access patterns where recently used pages are less likely to be needed again",
		ComplexityBadge: "O(1)",
		TimeComplexity:  "O(1) per operation with proper tracking",
		SpaceComplexity: "O(n) for tracking usage order",
		Advantages:      []string{"Simple to implement", "Can perform well for certain workloads"},
		Disadvantages:   []string{"Often performs poorly for typical temporal-locality workloads", "Can evict useful pages"},
		RealWorldUse:    "Specialized caching scenarios and educational comparisons",
		DataStructures:  "Stack or list to track most-recently-used order",
	},
	Optimal: {
		Algorithm:       Optimal,
		Name:            "Optimal (Belady's Algorithm)",
		Description:     "Replaces the page that will not be used for the longest time in the future",
		ComplexityBadge: "O(n)",
		TimeComplexity:  "O(m * n) total, each replacement may scan all frames (m = references, n = frames)",
		SpaceComplexity: "O(1) additional space",
		Advantages:      []string{"Theoretically optimal performance", "Minimum possible page faults", "Perfect benchmark for comparison"},
		Disadvantages:   []string{"Cannot be implemented in practice", "Requires future knowledge", "Only useful for analysis"},
		RealWorldUse:    "Theoretical analysis, algorithm performance benchmarking",
		DataStructures:  "Future reference lookup table",
		StackAlgorithm:  true,
		RequiresFuture:  true,
	},
	SecondChance: {
		Algorithm:       SecondChance,
		Name:            "Second Chance (Clock Algorithm)",
		Description:     "Enhanced FIFO with reference bits that gives recently used pages a second chance",
		ComplexityBadge: "O(1)",
		TimeComplexity:  "O(1) amortized, O(n) worst case",
		SpaceComplexity: "O(n) for reference bit storage",
		Advantages:      []string{"Better than pure FIFO", "Simple implementation", "Good compromise"},
		Disadvantages:   []string{"Can degrade to FIFO performance", "Still not optimal", "Reference bit overhead"},
		RealWorldUse:    "Operating system page replacement, virtual memory management",
		DataStructures:  "Circular buffer with reference bits and clock hand pointer",
	},
}

// GetAlgorithmInfo returns detailed information about a specific algorithm.
//
// Returns nil for unknown algorithms. The returned value is a copy.
func GetAlgorithmInfo(algo Algorithm) *Info {
	info, ok := algorithmInfos[algo]
	if !ok {
		return nil
	}
	out := *info
	out.Advantages = append([]string(nil), info.Advantages...)
	out.Disadvantages = append([]string(nil), info.Disadvantages...)
	return &out
}

// GetAllAlgorithms returns information about all supported algorithms
// in canonical order.
func GetAllAlgorithms() []*Info {
	infos := make([]*Info, 0, len(algorithmInfos))
	for _, algo := range Algorithms() {
		if info := GetAlgorithmInfo(algo); info != nil {
			infos = append(infos, info)
		}
	}
	return infos
}

// DisplayName returns the human-readable name, falling back to the identifier.
func DisplayName(algo Algorithm) string {
	if info, ok := algorithmInfos[algo]; ok {
		return info.Name
	}
	return algo.String()
}
