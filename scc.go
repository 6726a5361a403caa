package nbadet

import "sort"

// SCCDat Strongly connected component decomposition of a graph over integer
// states. SCCs contains the member lists (each ascending) in topological
// order of the condensation, so iterating it in reverse processes every
// successor component before its predecessors. SCCOf maps a state to the
// index of its component in SCCs.
type SCCDat struct {
	SCCOf map[int]int
	SCCs  [][]int
}

// NumSCCs Number of components.
func (d *SCCDat) NumSCCs() int { return len(d.SCCs) }

// GetSCCs Computes the SCC decomposition with an iterative Tarjan pass.
// The succ function must return successors deterministically.
func GetSCCs(states []int, succ func(int) []int) *SCCDat {
	index := make(map[int]int, len(states))
	lowlink := make(map[int]int, len(states))
	onStack := make(map[int]bool, len(states))
	var stack []int
	next := 0

	dat := &SCCDat{SCCOf: make(map[int]int, len(states))}

	type frame struct {
		v    int
		sucs []int
		i    int
	}

	var emitted [][]int

	strongconnect := func(root int) {
		work := []frame{{v: root, sucs: succ(root)}}
		index[root] = next
		lowlink[root] = next
		next++
		stack = append(stack, root)
		onStack[root] = true

		for len(work) > 0 {
			f := &work[len(work)-1]
			recursed := false
			for f.i < len(f.sucs) {
				w := f.sucs[f.i]
				f.i++
				if _, ok := index[w]; !ok {
					index[w] = next
					lowlink[w] = next
					next++
					stack = append(stack, w)
					onStack[w] = true
					work = append(work, frame{v: w, sucs: succ(w)})
					recursed = true
					break
				}
				if onStack[w] && index[w] < lowlink[f.v] {
					lowlink[f.v] = index[w]
				}
			}
			if recursed {
				continue
			}

			if lowlink[f.v] == index[f.v] {
				var comp []int
				for {
					w := stack[len(stack)-1]
					stack = stack[:len(stack)-1]
					onStack[w] = false
					comp = append(comp, w)
					if w == f.v {
						break
					}
				}
				sort.Ints(comp)
				emitted = append(emitted, comp)
			}

			v := f.v
			work = work[:len(work)-1]
			if len(work) > 0 {
				p := &work[len(work)-1]
				if lowlink[v] < lowlink[p.v] {
					lowlink[p.v] = lowlink[v]
				}
			}
		}
	}

	for _, s := range states {
		if _, ok := index[s]; !ok {
			strongconnect(s)
		}
	}

	// Tarjan pops components reverse-topologically; store them topologically
	// so reverse iteration is successors-first
	for i, j := 0, len(emitted)-1; i < j; i, j = i+1, j-1 {
		emitted[i], emitted[j] = emitted[j], emitted[i]
	}
	dat.SCCs = emitted
	for i, comp := range emitted {
		for _, s := range comp {
			dat.SCCOf[s] = i
		}
	}
	return dat
}

// SuccSCCs Indices of the components directly reachable from the given
// component, excluding itself, ascending.
func SuccSCCs(succ func(int) []int, dat *SCCDat, scc int) []int {
	seen := make(map[int]struct{})
	for _, s := range dat.SCCs[scc] {
		for _, q := range succ(s) {
			if t := dat.SCCOf[q]; t != scc {
				seen[t] = struct{}{}
			}
		}
	}
	res := make([]int, 0, len(seen))
	for t := range seen {
		res = append(res, t)
	}
	sort.Ints(res)
	return res
}
