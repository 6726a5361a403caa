package nbadet

import "fmt"

// TransformPriorities Maps every assigned priority slot through f. The
// automaton must be colored so that no slot is silently skipped.
func TransformPriorities[T Hashable](aut *Aut[T], f func(int) int) error {
	if !aut.IsColored() {
		return fmt.Errorf("priority transformation needs a colored automaton")
	}

	for _, st := range aut.States() {
		if aut.IsSBA() {
			if err := aut.SetPri(st, f(aut.GetPri(st))); err != nil {
				return err
			}
			continue
		}
		for _, x := range aut.StateOutsyms(st) {
			for _, q := range aut.Succ(st, x) {
				pri, _ := aut.EdgePri(st, x, q)
				if err := aut.ModEdge(st, x, q, f(pri)); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// ChangePAType Switches a colored automaton to an equivalent priority
// assignment under another parity condition.
func ChangePAType[T Hashable](aut *Aut[T], t PAType) error {
	pmin, pmax := aut.PriBounds()
	f := PriorityTransformer(aut.PAType(), t, pmin, pmax)
	if err := TransformPriorities(aut, f); err != nil {
		return err
	}
	aut.SetPAType(t)
	return nil
}

// MinimizePriorities Compresses the priorities of a colored automaton:
// consecutive same-parity colors collapse into one, keeping relative order
// and goodness, so acceptance of every word is unchanged. Returns the
// old-to-new priority map. State count is untouched.
func MinimizePriorities[T Hashable](aut *Aut[T]) (map[int]int, error) {
	if !aut.IsColored() {
		return nil, fmt.Errorf("priority minimization needs a colored automaton")
	}

	pris := aut.Pris()
	if len(pris) == 0 {
		return map[int]int{}, nil
	}

	// split the ascending priority list at every parity alternation; the
	// refiner hands back the runs as stable classes in backing order
	refiner := NewPartitionRefiner([][]int{pris})
	cur := refiner.SetIDs()[0]
	runs := []int{cur}
	for i := 1; i < len(pris); i++ {
		if pris[i]%2 == pris[i-1]%2 {
			continue
		}
		boundary := pris[i]
		newID, ok := refiner.Separate(cur, func(p int) bool { return p < boundary })
		if ok {
			runs[len(runs)-1] = newID
			runs = append(runs, cur)
		}
	}

	base := 0
	if GoodPriority(aut.PAType(), pris[0]) != GoodPriority(aut.PAType(), 0) {
		base = 1
	}

	primap := make(map[int]int, len(pris))
	for idx, cls := range runs {
		for _, p := range refiner.ElementsOf(cls) {
			primap[p] = base + idx
		}
	}

	if err := TransformPriorities(aut, func(p int) int { return primap[p] }); err != nil {
		return nil, err
	}
	return primap, nil
}
