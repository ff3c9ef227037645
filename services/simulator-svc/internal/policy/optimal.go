package policy

// =============================================================================
// Optimal (Belady's MIN)
// =============================================================================
//
// Optimal evicts the resident page whose next use lies farthest in the
// future. It needs the whole reference sequence up front, so it is only
// usable offline as a lower bound for other policies.
//
// Time Complexity: O(m × n) total (m = references, n = frames)
// Space Complexity: O(m) for the next-use table
//
// Key Features:
//   - Minimum possible number of faults for every input
//   - A page never referenced again is evicted at once
//   - Ties go to the first candidate in frame order
//
// References:
//   - Belady, L.A. (1966). "A study of replacement algorithms for a
//     virtual-storage computer"
// =============================================================================

// never is the next-use index of a page with no future reference.
const never = -1

type optimalPolicy struct{}

func (optimalPolicy) Algorithm() Algorithm { return Optimal }

func (optimalPolicy) Run(refs []int, capacity int) (int, []Decision, error) {
	if err := validateCapacity(capacity); err != nil {
		return 0, nil, err
	}

	next := nextUseTable(refs)
	rec := newRecorder(refs, capacity)

	// lastSeen[slot] is the index of the latest reference to the page in slot;
	// next[lastSeen[slot]] is therefore its next use after the current index.
	lastSeen := make([]int, capacity)

	for i, page := range refs {
		if slot, ok := rec.frames.slotOf(page); ok {
			lastSeen[slot] = i
			rec.hit(page)
			continue
		}

		if !rec.frames.full() {
			slot := rec.frames.place(page)
			lastSeen[slot] = i
			rec.fault(page, slot, NoPage)
			continue
		}

		slot := farthestSlot(next, lastSeen)
		victim := rec.frames.replace(slot, page)
		lastSeen[slot] = i
		rec.fault(page, slot, victim)
	}

	return rec.result()
}

// farthestSlot scans slots in frame order.
func farthestSlot(next, lastSeen []int) int {
	best, farthest := 0, -1
	for slot, seen := range lastSeen {
		use := next[seen]
		if use == never {
			return slot
		}
		if use > farthest {
			best, farthest = slot, use
		}
	}
	return best
}

// nextUseTable maps every index i to the next index j > i with
// refs[j] == refs[i], or never.
func nextUseTable(refs []int) []int {
	next := make([]int, len(refs))
	upcoming := make(map[int]int)
	for i := len(refs) - 1; i >= 0; i-- {
		if j, ok := upcoming[refs[i]]; ok {
			next[i] = j
		} else {
			next[i] = never
		}
		upcoming[refs[i]] = i
	}
	return next
}
