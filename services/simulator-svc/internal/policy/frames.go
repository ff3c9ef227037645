package policy

// frameSet is the mutable frame set owned by a single policy run.
type frameSet struct {
	slots []int
	used  int
	where map[int]int // page -> slot
}

func newFrameSet(capacity int) *frameSet {
	slots := make([]int, capacity)
	for i := range slots {
		slots[i] = EmptySlot
	}
	return &frameSet{
		slots: slots,
		where: make(map[int]int, capacity),
	}
}

func (f *frameSet) slotOf(page int) (int, bool) {
	slot, ok := f.where[page]
	return slot, ok
}

func (f *frameSet) full() bool {
	return f.used == len(f.slots)
}

// place puts page into the lowest empty slot. Slots are never emptied during a
// run, so the lowest empty slot is always the occupancy count.
func (f *frameSet) place(page int) int {
	slot := f.used
	f.slots[slot] = page
	f.where[page] = slot
	f.used++
	return slot
}

// replace overwrites slot with page and returns the evicted page.
func (f *frameSet) replace(slot, page int) int {
	victim := f.slots[slot]
	delete(f.where, victim)
	f.slots[slot] = page
	f.where[page] = slot
	return victim
}

func (f *frameSet) snapshot() []int {
	out := make([]int, len(f.slots))
	copy(out, f.slots)
	return out
}

// recorder accumulates decisions for one run.
type recorder struct {
	frames    *frameSet
	decisions []Decision
	faults    int
}

func newRecorder(refs []int, capacity int) *recorder {
	return &recorder{
		frames:    newFrameSet(capacity),
		decisions: make([]Decision, 0, len(refs)),
	}
}

func (r *recorder) hit(page int) {
	r.decisions = append(r.decisions, Decision{
		Page:          page,
		Frames:        r.frames.snapshot(),
		IsHit:         true,
		ReplacedPage:  NoPage,
		ReplacedIndex: NoSlot,
	})
}

func (r *recorder) fault(page, slot, victim int) {
	r.faults++
	r.decisions = append(r.decisions, Decision{
		Page:          page,
		Frames:        r.frames.snapshot(),
		IsFault:       true,
		ReplacedPage:  victim,
		ReplacedIndex: slot,
	})
}

func (r *recorder) result() (int, []Decision, error) {
	return r.faults, r.decisions, nil
}
