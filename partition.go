package nbadet

import "sort"

// PartitionRefiner Mutable ordered partition of a fixed ground set of
// integers. Elements are grouped contiguously in a backing slice; a class is
// a range into it, identified by a stable integer token that survives
// unrelated splits.
type PartitionRefiner struct {
	elements []int
	classes  []classBounds
	// class ids in creation order
	ids []int
}

type classBounds struct {
	lo, hi int
}

// NewPartitionRefiner Builds the partition from the given initial classes;
// each class is sorted on construction.
func NewPartitionRefiner(startsets [][]int) *PartitionRefiner {
	p := &PartitionRefiner{}
	for _, s := range startsets {
		lo := len(p.elements)
		p.elements = append(p.elements, s...)
		sort.Ints(p.elements[lo:])
		p.classes = append(p.classes, classBounds{lo: lo, hi: len(p.elements)})
		p.ids = append(p.ids, len(p.classes)-1)
	}
	return p
}

// NumSets Number of classes.
func (p *PartitionRefiner) NumSets() int { return len(p.classes) }

// SetSize Number of elements in the class.
func (p *PartitionRefiner) SetSize(id int) int {
	c := p.classes[id]
	return c.hi - c.lo
}

// SetIDs All class tokens in creation order.
func (p *PartitionRefiner) SetIDs() []int {
	res := make([]int, len(p.ids))
	copy(res, p.ids)
	return res
}

// ElementsOf Members of the class, ascending.
func (p *PartitionRefiner) ElementsOf(id int) []int {
	c := p.classes[id]
	res := make([]int, c.hi-c.lo)
	copy(res, p.elements[c.lo:c.hi])
	sort.Ints(res)
	return res
}

// RefinedSets All classes in backing-store order.
func (p *PartitionRefiner) RefinedSets() [][]int {
	type span struct {
		id int
		lo int
	}
	spans := make([]span, 0, len(p.classes))
	for id, c := range p.classes {
		spans = append(spans, span{id: id, lo: c.lo})
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].lo < spans[j].lo })

	res := make([][]int, 0, len(spans))
	for _, s := range spans {
		res = append(res, p.ElementsOf(s.id))
	}
	return res
}

// Separate Splits the class into the elements satisfying the predicate and
// the rest. The satisfying side becomes a new class placed in front of the
// remainder, which keeps the old token. Returns the new token, or false when
// the split is trivial. The reorder is stable on both sides.
func (p *PartitionRefiner) Separate(id int, pred func(int) bool) (int, bool) {
	c := p.classes[id]

	var yes, no []int
	for _, e := range p.elements[c.lo:c.hi] {
		if pred(e) {
			yes = append(yes, e)
		} else {
			no = append(no, e)
		}
	}
	if len(yes) == 0 || len(no) == 0 {
		return 0, false
	}

	copy(p.elements[c.lo:], yes)
	copy(p.elements[c.lo+len(yes):], no)

	newID := len(p.classes)
	p.classes = append(p.classes, classBounds{lo: c.lo, hi: c.lo + len(yes)})
	p.classes[id] = classBounds{lo: c.lo + len(yes), hi: c.hi}
	p.ids = append(p.ids, newID)
	return newID, true
}
