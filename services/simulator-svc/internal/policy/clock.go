package policy

// =============================================================================
// Second-Chance (Clock)
// =============================================================================
//
// Second-Chance is FIFO with one reference bit per frame. A circular hand
// sweeps the frames on a fault: a set bit is cleared and the frame is
// skipped, the first frame with a clear bit is the victim.
//
// Time Complexity: O(1) amortized, O(n) worst case per fault
// Space Complexity: O(n) for reference bits
//
// Key Features:
//   - A hit sets the bit and leaves the hand in place
//   - Free slots are filled in index order with the bit set
//   - After a replacement the hand moves past the victim's frame
//   - Degrades to FIFO when every bit is set
// =============================================================================

type clockPolicy struct{}

func (clockPolicy) Algorithm() Algorithm { return SecondChance }

func (clockPolicy) Run(refs []int, capacity int) (int, []Decision, error) {
	if err := validateCapacity(capacity); err != nil {
		return 0, nil, err
	}

	rec := newRecorder(refs, capacity)
	referenced := make([]bool, capacity)
	hand := 0

	for _, page := range refs {
		if slot, ok := rec.frames.slotOf(page); ok {
			referenced[slot] = true
			rec.hit(page)
			continue
		}

		if !rec.frames.full() {
			slot := rec.frames.place(page)
			referenced[slot] = true
			rec.fault(page, slot, NoPage)
			continue
		}

		for referenced[hand] {
			referenced[hand] = false
			hand = (hand + 1) % capacity
		}

		slot := hand
		victim := rec.frames.replace(slot, page)
		referenced[slot] = true
		hand = (hand + 1) % capacity
		rec.fault(page, slot, victim)
	}

	return rec.result()
}
