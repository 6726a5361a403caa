package nbadet

import (
	"fmt"
	"slices"

	"github.com/bits-and-blooms/bitset"
)

// detPair BFS state of the determinization: the pure powerset successor is
// tracked in parallel with the interned macro state.
type detPair struct {
	set uint64
	st  int
}

// DeterminizeSet BFS-based determinization starting from the given subset of
// NBA states. pred filters successor exploration by the powerset value of the
// candidate; when backmap is non-nil, every created DPA state is recorded
// with the powerset it was first reached with. The result is a deterministic
// min-even parity automaton with transition-based priorities, tagged with
// levels.
func DeterminizeSet[T Hashable](nba *Aut[T], dc *DetConf, startset uint64,
	pred func(uint64) (bool, error), backmap map[int]uint64) (*Aut[*Level], error) {

	if !nba.IsBuchi() {
		return nil, fmt.Errorf("determinization needs a Büchi automaton")
	}

	const myinit = 0
	pa := NewAut[*Level](false, nba.Name(), nba.APs(), myinit)
	pa.SetPAType(MinEven)
	pa.Tag.Put(NewLevel(dc, startset), myinit)

	if backmap != nil {
		backmap[myinit] = startset
	}

	// a DPA state is expanded once, no matter how many subset paths reach it
	expanded := bitset.New(64)
	var detErr error

	bfs(detPair{set: startset, st: myinit}, func(stp detPair, push func(detPair), _ func(detPair) bool) {
		if detErr != nil {
			return
		}
		if expanded.Test(uint(stp.st)) {
			return
		}
		expanded.Set(uint(stp.st))

		cur, _ := pa.Tag.GetInv(stp.st)

		for x := 0; x < pa.NumSyms(); x++ {
			suclevel, sucpri := cur.Succ(dc, x)
			if suclevel.Powerset == 0 {
				// empty set, no successor
				continue
			}

			sucset := Powersucc(dc.Mat, stp.set, x, dc.Sinks, dc.Masks)
			ok, err := pred(sucset)
			if err != nil {
				detErr = err
				return
			}
			if !ok {
				continue
			}

			sucst := pa.Tag.PutOrGet(suclevel, pa.NumStates())
			if !pa.HasState(sucst) {
				if err := pa.AddState(sucst); err != nil {
					detErr = err
					return
				}
				if backmap != nil {
					backmap[sucst] = sucset
				}
			}
			if err := pa.AddEdge(stp.st, x, sucst, sucpri); err != nil {
				detErr = err
				return
			}
			push(detPair{set: sucset, st: sucst})
		}
	})

	if detErr != nil {
		return nil, detErr
	}
	return pa, nil
}

// Determinize Determinizes a Büchi automaton into an equivalent deterministic
// min-even parity automaton, exploring everything reachable from the NBA's
// initial state.
func Determinize[T Hashable](nba *Aut[T], dc *DetConf) (*Aut[*Level], error) {
	initset := uint64(1) << uint(nba.Init())
	return DeterminizeSet(nba, dc, initset,
		func(uint64) (bool, error) { return true, nil }, nil)
}

// getMinTermSCC Smallest bottom SCC of a determinized piece; bottom ensures
// all powersets of the corresponding powerset-automaton SCC are reachable
// inside it.
func getMinTermSCC(pa *Aut[*Level], pai *SCCDat) (int, error) {
	succ := func(p int) []int { return pa.SuccAll(p) }

	minterm := -1
	mintermsz := pa.NumStates() + 1
	for i, comp := range pai.SCCs {
		if len(SuccSCCs(succ, pai, i)) == 0 && len(comp) < mintermsz {
			minterm = i
			mintermsz = len(comp)
		}
	}
	if minterm == -1 {
		return 0, fmt.Errorf("no terminal component found")
	}
	return minterm, nil
}

// DeterminizeSCCs Determinizes each SCC of the powerset automaton separately
// and fuses the pieces: every per-SCC determinization is trimmed to its
// smallest bottom SCC, normalized past the states already emitted and
// inserted; inter-SCC edges are then recovered by re-walking the powerset
// automaton. psai must list the SCCs in topological order (as GetSCCs does);
// the loop iterates them in reverse so successor components exist before
// their predecessors reference them.
func DeterminizeSCCs[T Hashable](nba *Aut[T], dc *DetConf, psa *Aut[Pset], psai *SCCDat) (*Aut[*Level], error) {
	if !nba.IsBuchi() {
		return nil, fmt.Errorf("determinization needs a Büchi automaton")
	}

	// ps state -> pa state with the same language
	ps2pa := make(map[int]int)
	// pa state -> powerset it semantically represents
	origps := make(map[int]uint64)

	ret := NewAut[*Level](false, nba.Name(), nba.APs(), 0)
	if err := ret.RemoveStates([]int{0}); err != nil {
		return nil, err
	}
	ret.SetPAType(MinEven)

	for scc := len(psai.SCCs) - 1; scc >= 0; scc-- {
		if len(psai.SCCs[scc]) == 0 {
			continue
		}
		rep := psai.SCCs[scc][0]
		repLabel, ok := psa.Tag.GetInv(rep)
		if !ok {
			return nil, fmt.Errorf("powerset state %d has no label", rep)
		}
		repps := uint64(repLabel)
		if repps == 0 {
			continue
		}

		backmap := make(map[int]uint64)
		sccIdx := scc
		sccpa, err := DeterminizeSet(nba, dc, repps, func(ds uint64) (bool, error) {
			s, ok := psa.Tag.Get(Pset(ds))
			if !ok {
				return false, fmt.Errorf("reached a successor outside the powerset automaton: %s", Pset(ds))
			}
			// don't explore levels with powerset in another scc
			return psai.SCCOf[s] == sccIdx, nil
		}, backmap)
		if err != nil {
			return nil, err
		}

		sccpai := GetSCCs(sccpa.States(), func(p int) []int { return sccpa.SuccAll(p) })

		minterm, err := getMinTermSCC(sccpa, sccpai)
		if err != nil {
			return nil, err
		}
		sccstates := slices.Clone(sccpai.SCCs[minterm])

		// trim to the bottom SCC, renumber past the emitted states, insert
		if err := sccpa.RemoveStates(setDiff(sccpa.States(), sccstates)); err != nil {
			return nil, err
		}
		normmap := sccpa.Normalize(ret.NumStates())
		for _, st := range sccstates {
			origps[normmap[st]] = backmap[st]
		}
		if err := ret.Insert(sccpa); err != nil {
			return nil, err
		}

		// find the state representing rep's powerset: walk a word leading
		// from the trim survivor's powerset to rep, replayed deterministically
		repst := sccpa.Init()
		entry, ok := psa.Tag.Get(Pset(origps[repst]))
		if !ok {
			return nil, fmt.Errorf("trimmed component lost its powerset origin")
		}
		if entry != rep {
			path := FindPath(psa, entry, rep)
			if len(path) == 0 {
				return nil, fmt.Errorf("no path back to the component representative")
			}
			word, err := WordOfPath(psa, path)
			if err != nil {
				return nil, err
			}
			for _, x := range word {
				sucs := sccpa.Succ(repst, x)
				if len(sucs) != 1 {
					return nil, fmt.Errorf("component subautomaton is not deterministic at %d", repst)
				}
				repst = sucs[0]
			}
		}
		ps2pa[rep] = repst

		// map the rest of the powerset SCC by simulating it in the piece
		var simErr error
		bfs(rep, func(st int, push func(int), _ func(int) bool) {
			if simErr != nil {
				return
			}
			pst := ps2pa[st]
			for _, x := range psa.StateOutsyms(st) {
				for _, sucst := range psa.Succ(st, x) {
					if _, done := ps2pa[sucst]; done || psai.SCCOf[sucst] != sccIdx {
						continue
					}
					psucs := sccpa.Succ(pst, x)
					if len(psucs) != 1 {
						simErr = fmt.Errorf("component subautomaton is not deterministic at %d", pst)
						return
					}
					ps2pa[sucst] = psucs[0]
					push(sucst)
				}
			}
		})
		if simErr != nil {
			return nil, simErr
		}
	}

	if err := ret.SetInit(ps2pa[psa.Init()]); err != nil {
		return nil, err
	}

	// recover the inter-SCC edges the per-component runs filtered out
	var fuseErr error
	bfs(ret.Init(), func(st int, push func(int), _ func(int) bool) {
		if fuseErr != nil {
			return
		}
		pst, ok := psa.Tag.Get(Pset(origps[st]))
		if !ok {
			fuseErr = fmt.Errorf("state %d lost its powerset origin", st)
			return
		}
		for x := 0; x < ret.NumSyms(); x++ {
			if !ret.StateHasOutsym(st, x) {
				psucs := psa.Succ(pst, x)
				if len(psucs) > 1 {
					fuseErr = fmt.Errorf("powerset automaton is not deterministic at %d", pst)
					return
				}
				if len(psucs) == 1 {
					if err := ret.AddEdge(st, x, ps2pa[psucs[0]], 0); err != nil {
						fuseErr = err
						return
					}
				}
			}
			for _, sucst := range ret.Succ(st, x) {
				push(sucst)
			}
		}
	})
	if fuseErr != nil {
		return nil, fuseErr
	}

	return ret, nil
}
