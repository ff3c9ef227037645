package policy

import "container/list"

// =============================================================================
// LRU (Least Recently Used) and MRU (Most Recently Used)
// =============================================================================
//
// Both policies keep a recency list ordered from the least to the most
// recently used resident page. A hit moves the page to the newest end; a new
// page is always pushed to the newest end.
//
// LRU evicts from the oldest end, MRU evicts from the newest end.
//
// Time Complexity: O(1) per reference (list + map)
// Space Complexity: O(n)
//
// Key Features:
//   - LRU is a stack algorithm and never exhibits Belady's anomaly
//   - MRU suits cyclic scans longer than the frame set
//   - Victim slot comes from the frame set, not from list position
// =============================================================================

// recency is a doubly linked list of resident pages with O(1) lookup.
type recency struct {
	order *list.List // front - least recently used
	nodes map[int]*list.Element
}

func newRecency(capacity int) *recency {
	return &recency{
		order: list.New(),
		nodes: make(map[int]*list.Element, capacity),
	}
}

func (r *recency) touch(page int) {
	if elem, ok := r.nodes[page]; ok {
		r.order.MoveToBack(elem)
		return
	}
	r.nodes[page] = r.order.PushBack(page)
}

func (r *recency) remove(elem *list.Element) int {
	page := r.order.Remove(elem).(int)
	delete(r.nodes, page)
	return page
}

// runRecency drives LRU and MRU; pick selects the victim element.
func runRecency(refs []int, capacity int, pick func(*list.List) *list.Element) (int, []Decision, error) {
	if err := validateCapacity(capacity); err != nil {
		return 0, nil, err
	}

	rec := newRecorder(refs, capacity)
	used := newRecency(capacity)

	for _, page := range refs {
		if _, ok := rec.frames.slotOf(page); ok {
			used.touch(page)
			rec.hit(page)
			continue
		}

		if !rec.frames.full() {
			slot := rec.frames.place(page)
			used.touch(page)
			rec.fault(page, slot, NoPage)
			continue
		}

		target := used.remove(pick(used.order))
		slot, _ := rec.frames.slotOf(target)
		victim := rec.frames.replace(slot, page)
		used.touch(page)
		rec.fault(page, slot, victim)
	}

	return rec.result()
}

type lruPolicy struct{}

func (lruPolicy) Algorithm() Algorithm { return LRU }

func (lruPolicy) Run(refs []int, capacity int) (int, []Decision, error) {
	return runRecency(refs, capacity, (*list.List).Front)
}

type mruPolicy struct{}

func (mruPolicy) Algorithm() Algorithm { return MRU }

func (mruPolicy) Run(refs []int, capacity int) (int, []Decision, error) {
	return runRecency(refs, capacity, (*list.List).Back)
}
