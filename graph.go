package nbadet

import (
	"fmt"
	"math/bits"

	"github.com/bits-and-blooms/bitset"
)

// bfs Generic breadth-first driver. The visitor receives the current vertex,
// a pusher to enqueue neighbors and a predicate to query whether a vertex was
// seen already. Every vertex is visited at most once; insertion order governs
// visiting order.
func bfs[V comparable](seed V, visitor func(v V, push func(V), seen func(V) bool)) {
	visited := map[V]bool{seed: true}
	queue := []V{seed}

	push := func(v V) {
		if !visited[v] {
			visited[v] = true
			queue = append(queue, v)
		}
	}
	seen := func(v V) bool { return visited[v] }

	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		visitor(v, push, seen)
	}
}

// Reachable All states reachable from a given state over the symbol-agnostic
// successor relation, ascending.
func Reachable[T Hashable](g *Aut[T], from int) []int {
	reached := bitset.New(uint(g.NumStates()))
	bfs(from, func(st int, push func(int), _ func(int) bool) {
		reached.Set(uint(st))
		for _, suc := range g.SuccAll(st) {
			push(suc)
		}
	})

	res := make([]int, 0, reached.Count())
	for i, ok := reached.NextSet(0); ok; i, ok = reached.NextSet(i + 1) {
		res = append(res, int(i))
	}
	return res
}

// UnreachableStates All states not reachable from the given state, ascending.
func UnreachableStates[T Hashable](g *Aut[T], from int) []int {
	return setDiff(g.States(), Reachable(g, from))
}

// FindPath Shortest state sequence from one state to another, both included;
// empty when unreachable.
func FindPath[T Hashable](g *Aut[T], from, to int) []int {
	pred := make(map[int]int)
	bfs(from, func(st int, push func(int), _ func(int) bool) {
		for _, q := range g.SuccAll(st) {
			if _, ok := pred[q]; !ok && q != from {
				pred[q] = st
				push(q)
			}
		}
	})

	if from == to {
		return []int{from}
	}
	if _, ok := pred[to]; !ok {
		return nil
	}

	res := []int{to}
	for res[len(res)-1] != from {
		res = append(res, pred[res[len(res)-1]])
	}
	for i, j := 0, len(res)-1; i < j; i, j = i+1, j-1 {
		res[i], res[j] = res[j], res[i]
	}
	return res
}

// WordOfPath Some symbol sequence realizing the given state sequence, chosen
// by scanning the outgoing symbols of each state in ascending order.
func WordOfPath[T Hashable](g *Aut[T], p []int) ([]int, error) {
	if len(p) < 2 {
		return nil, fmt.Errorf("path needs at least two states")
	}

	w := make([]int, 0, len(p)-1)
	for i := 0; i < len(p)-1; i++ {
		found := false
		for _, x := range g.StateOutsyms(p[i]) {
			if g.HasEdge(p[i], x, p[i+1]) {
				w = append(w, x)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("found no word realizing the path at step %d", i)
		}
	}
	return w, nil
}

// nbaBitsetWidth Fixed width of the NBA-side bitsets; automata handed to the
// determinizer may have at most this many states.
const nbaBitsetWidth = 64

// AdjMat Adjacency bitmatrix of an NBA: entry [x][p] is the set of
// x-successors of state p as a fixed-width bitset.
type AdjMat [][]uint64

// GetAdjMat Builds the adjacency bitmatrix. The automaton must use state ids
// below the fixed bitset width.
func GetAdjMat[T Hashable](aut *Aut[T]) (AdjMat, error) {
	sts := aut.States()
	n := 0
	if len(sts) > 0 {
		n = sts[len(sts)-1] + 1
	}
	if n > nbaBitsetWidth {
		return nil, fmt.Errorf("automaton needs %d bits, bitset width is %d", n, nbaBitsetWidth)
	}

	mat := make(AdjMat, aut.NumSyms())
	for x := range mat {
		mat[x] = make([]uint64, n)
	}
	for _, p := range sts {
		for _, x := range aut.StateOutsyms(p) {
			for _, q := range aut.Succ(p, x) {
				mat[x][p] |= 1 << uint(q)
			}
		}
	}
	return mat, nil
}

// Powersucc Successor of a state set under one symbol: the union of the
// per-state successor rows, collapsed to the accepting sinks when one is
// reached, then reduced by the implication masks (states subsumed under
// language inclusion are dropped).
func Powersucc(mat AdjMat, from uint64, x int, sinks uint64, implMask map[int]uint64) uint64 {
	ret := uint64(0)
	xmat := mat[x]
	for rest := from; rest != 0; rest &= rest - 1 {
		i := bits.TrailingZeros64(rest)
		if i < len(xmat) {
			ret |= xmat[i]
		}
	}
	if ret&sinks != 0 {
		// reached an accepting sink
		return sinks
	}

	if len(implMask) > 0 {
		for rest := ret; rest != 0; rest &= rest - 1 {
			i := bits.TrailingZeros64(rest)
			if m, ok := implMask[i]; ok && ret&(1<<uint(i)) != 0 {
				ret &= m
			}
		}
	}
	return ret
}

// setDiff Elements of a not in b; both ascending.
func setDiff(a, b []int) []int {
	res := make([]int, 0, len(a))
	j := 0
	for _, v := range a {
		for j < len(b) && b[j] < v {
			j++
		}
		if j < len(b) && b[j] == v {
			continue
		}
		res = append(res, v)
	}
	return res
}
