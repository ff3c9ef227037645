package policy

// =============================================================================
// FIFO (First In, First Out)
// =============================================================================
//
// FIFO evicts the page that has been resident the longest, regardless of how
// often or how recently it was used.
//
// Time Complexity: O(1) per reference
// Space Complexity: O(n) for the arrival queue (n = frames)
//
// Key Features:
//   - Arrival queue independent of hits
//   - The new page takes the victim's slot and joins the queue tail
//   - Suffers from Belady's anomaly
// =============================================================================

type fifoPolicy struct{}

func (fifoPolicy) Algorithm() Algorithm { return FIFO }

func (fifoPolicy) Run(refs []int, capacity int) (int, []Decision, error) {
	if err := validateCapacity(capacity); err != nil {
		return 0, nil, err
	}

	rec := newRecorder(refs, capacity)
	queue := make([]int, 0, capacity)

	for _, page := range refs {
		if _, ok := rec.frames.slotOf(page); ok {
			rec.hit(page)
			continue
		}

		if !rec.frames.full() {
			slot := rec.frames.place(page)
			queue = append(queue, page)
			rec.fault(page, slot, NoPage)
			continue
		}

		oldest := queue[0]
		queue = append(queue[1:], page)
		slot, _ := rec.frames.slotOf(oldest)
		victim := rec.frames.replace(slot, page)
		rec.fault(page, slot, victim)
	}

	return rec.result()
}
