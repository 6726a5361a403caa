package nbadet

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

// intLabel Minimal label type for automata whose tags don't matter.
type intLabel int

func (l intLabel) Hash() uint64 { return mix64(uint64(l)) }

func (l intLabel) Equals(other Hashable) bool {
	o, ok := other.(intLabel)
	return ok && l == o
}

// buildNBA State-based automaton with one state per priority entry (-1 for
// unprioritized states) and edges given as (source, symbol, target).
func buildNBA(t *testing.T, aps []string, pris []int, edges [][3]int) *Aut[intLabel] {
	t.Helper()

	a := NewAut[intLabel](true, "", aps, 0)
	for s := 1; s < len(pris); s++ {
		require.NoError(t, a.AddState(s))
	}
	for s, p := range pris {
		if p >= 0 {
			require.NoError(t, a.SetPri(s, p))
		}
	}
	for _, e := range edges {
		require.NoError(t, a.AddEdge(e[0], e[1], e[2], -1))
	}
	return a
}

// nbaAcceptsLasso Büchi acceptance of stem·loop^ω: some run reaches, in the
// product with the loop positions, an accepting vertex that lies on a cycle.
func nbaAcceptsLasso(a *Aut[intLabel], stem, loop []int) bool {
	if len(loop) == 0 {
		return false
	}

	cur := map[int]struct{}{a.Init(): {}}
	for _, x := range stem {
		nxt := map[int]struct{}{}
		for q := range cur {
			for _, s := range a.Succ(q, x) {
				nxt[s] = struct{}{}
			}
		}
		cur = nxt
	}

	type vert struct{ q, i int }
	step := func(v vert) []vert {
		var res []vert
		for _, s := range a.Succ(v.q, loop[v.i]) {
			res = append(res, vert{q: s, i: (v.i + 1) % len(loop)})
		}
		return res
	}
	reach := func(from map[vert]struct{}) map[vert]struct{} {
		seen := map[vert]struct{}{}
		queue := make([]vert, 0, len(from))
		for v := range from {
			queue = append(queue, v)
		}
		for len(queue) > 0 {
			v := queue[0]
			queue = queue[1:]
			for _, w := range step(v) {
				if _, ok := seen[w]; !ok {
					seen[w] = struct{}{}
					queue = append(queue, w)
				}
			}
		}
		return seen
	}

	start := map[vert]struct{}{}
	for q := range cur {
		start[vert{q: q, i: 0}] = struct{}{}
	}
	fromStart := reach(start)
	for v := range start {
		fromStart[v] = struct{}{}
	}

	for v := range fromStart {
		if !a.StateBuchiAccepting(v.q) {
			continue
		}
		// accepting vertex on a cycle
		if _, onCycle := reach(map[vert]struct{}{v: {}})[v]; onCycle {
			return true
		}
	}
	return false
}

// randNBA Random Büchi automaton over one atomic proposition with up to six
// states; possibly incomplete and possibly without accepting states.
func randNBA(t *testing.T, r *rand.Rand) *Aut[intLabel] {
	t.Helper()

	n := 1 + r.Intn(6)
	pris := make([]int, n)
	for i := range pris {
		pris[i] = 1
		if r.Intn(5) < 2 {
			pris[i] = 0
		}
	}

	var edges [][3]int
	for p := 0; p < n; p++ {
		for x := 0; x < 2; x++ {
			for q := 0; q < n; q++ {
				if r.Intn(100) < 45 {
					edges = append(edges, [3]int{p, x, q})
				}
			}
		}
	}
	return buildNBA(t, []string{"a"}, pris, edges)
}

func randLasso(r *rand.Rand) (stem, loop []int) {
	stem = make([]int, r.Intn(11))
	loop = make([]int, 1+r.Intn(8))
	for i := range stem {
		stem[i] = r.Intn(2)
	}
	for i := range loop {
		loop[i] = r.Intn(2)
	}
	return stem, loop
}

// priCoherent Recomputes the priority multiset from scratch and compares it
// with the maintained counts.
func priCoherent[T Hashable](a *Aut[T]) bool {
	cnt := map[int]int{}
	for _, s := range a.States() {
		if a.IsSBA() && a.HasPri(s) {
			cnt[a.GetPri(s)]++
		}
		for _, x := range a.StateOutsyms(s) {
			for _, q := range a.Succ(s, x) {
				if p, ok := a.EdgePri(s, x, q); ok && p >= 0 {
					cnt[p]++
				}
			}
		}
	}

	for p, c := range cnt {
		if a.PriCount(p) != c {
			return false
		}
	}
	for _, p := range a.Pris() {
		if cnt[p] != a.PriCount(p) {
			return false
		}
	}
	return true
}

// autEqual Structural equality: same states, initial state, edges and
// priorities.
func autEqual[T Hashable](a, b *Aut[T]) bool {
	if a.Init() != b.Init() || a.NumStates() != b.NumStates() {
		return false
	}
	as, bs := a.States(), b.States()
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	for _, s := range as {
		if a.GetPri(s) != b.GetPri(s) {
			return false
		}
		for x := 0; x < a.NumSyms(); x++ {
			aq, bq := a.Succ(s, x), b.Succ(s, x)
			if len(aq) != len(bq) {
				return false
			}
			for i := range aq {
				if aq[i] != bq[i] {
					return false
				}
				ap, _ := a.EdgePri(s, x, aq[i])
				bp, _ := b.EdgePri(s, x, bq[i])
				if ap != bp {
					return false
				}
			}
		}
	}
	return true
}
