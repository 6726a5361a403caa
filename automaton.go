package nbadet

import (
	"fmt"
	"slices"
	"sort"
)

// Aut Parity automaton with a unique initial state, priorities on states or
// on edges, and an arbitrary label per state. States are nonnegative integers;
// edges live in side tables keyed by source id, so the graph itself owns no
// cycles. Can represent (co)Büchi as well.
//
// Priorities use -1 as the "unassigned" sentinel. The multiset prioCnt counts
// every assigned slot (edges in transition-based mode, states in state-based
// mode) and is kept coherent by every mutating operation; there is no other
// path to change one without the other.
type Aut[T Hashable] struct {
	// state ids are contiguous: 0..n-1, or offset..offset+n-1 after
	// Normalize(offset)
	normalized bool
	// state-based acceptance (priorities on states instead of edges)
	sba bool

	name string
	aps  []string

	patype PAType
	init   int

	prioCnt  map[int]int
	statePri map[int]int

	// source -> sym -> target -> edge priority
	adj map[int]map[int]map[int]int

	// Tag Node labels, injective in both directions.
	Tag *Bimap[T]
}

// NewAut Creates an automaton with a single state that is also the initial
// state. The atomic propositions fix the alphabet size 2^|aps| once and for
// all.
func NewAut[T Hashable](statebased bool, name string, aps []string, initial int) *Aut[T] {
	a := &Aut[T]{
		normalized: true,
		sba:        statebased,
		name:       name,
		aps:        slices.Clone(aps),
		patype:     MinEven,
		prioCnt:    make(map[int]int),
		statePri:   make(map[int]int),
		adj:        make(map[int]map[int]map[int]int),
		Tag:        NewBimap[T](),
	}
	_ = a.AddState(initial)
	a.init = initial
	return a
}

func (a *Aut[T]) IsSBA() bool        { return a.sba }
func (a *Aut[T]) Name() string       { return a.name }
func (a *Aut[T]) SetName(n string)   { a.name = n }
func (a *Aut[T]) APs() []string      { return a.aps }
func (a *Aut[T]) PAType() PAType     { return a.patype }
func (a *Aut[T]) SetPAType(t PAType) { a.patype = t }

// NumSyms Alphabet size, the power set of the atomic propositions.
func (a *Aut[T]) NumSyms() int { return 1 << len(a.aps) }

func (a *Aut[T]) Init() int { return a.init }

func (a *Aut[T]) SetInit(s int) error {
	if !a.HasState(s) {
		return fmt.Errorf("initial state %d does not exist", s)
	}
	a.init = s
	return nil
}

func (a *Aut[T]) NumStates() int { return len(a.adj) }

// States All state ids in ascending order.
func (a *Aut[T]) States() []int {
	sts := make([]int, 0, len(a.adj))
	for s := range a.adj {
		sts = append(sts, s)
	}
	sort.Ints(sts)
	return sts
}

func (a *Aut[T]) HasState(s int) bool {
	_, ok := a.adj[s]
	return ok
}

// AddState Adds a new state; the id must be unused.
func (a *Aut[T]) AddState(s int) error {
	if a.HasState(s) {
		return fmt.Errorf("state %d already exists", s)
	}
	if s != a.NumStates() {
		// not densely used state ids
		a.normalized = false
	}
	a.adj[s] = make(map[int]map[int]int)
	return nil
}

func (a *Aut[T]) incPri(p int) {
	if p >= 0 {
		a.prioCnt[p]++
	}
}

func (a *Aut[T]) decPri(p int) {
	if p < 0 {
		return
	}
	c, ok := a.prioCnt[p]
	if !ok {
		panic(fmt.Sprintf("priority multiset diverged: no count for %d", p))
	}
	if c == 1 {
		delete(a.prioCnt, p)
		return
	}
	a.prioCnt[p] = c - 1
}

// HasPri Reports whether the state carries a priority (state-based mode).
func (a *Aut[T]) HasPri(s int) bool {
	_, ok := a.statePri[s]
	return ok
}

// GetPri State priority, or -1 when unassigned.
func (a *Aut[T]) GetPri(s int) int {
	if p, ok := a.statePri[s]; ok {
		return p
	}
	return -1
}

// SetPri Sets the state priority, replacing any previous value; p = -1
// clears. Only valid in state-based mode.
func (a *Aut[T]) SetPri(s, p int) error {
	if !a.sba {
		return fmt.Errorf("state priorities need state-based acceptance")
	}
	if !a.HasState(s) {
		return fmt.Errorf("state %d does not exist", s)
	}

	if old, ok := a.statePri[s]; ok {
		a.decPri(old)
	}
	if p >= 0 {
		a.statePri[s] = p
		a.incPri(p)
	} else {
		delete(a.statePri, s)
	}
	return nil
}

// ToTransitionBased Copies each state's priority onto all of its outgoing
// edges, clears the state priorities and switches the acceptance mode.
func (a *Aut[T]) ToTransitionBased() error {
	if !a.sba {
		return fmt.Errorf("automaton is already transition-based")
	}
	for _, p := range a.States() {
		pri := a.GetPri(p)
		_ = a.SetPri(p, -1)
		for _, targets := range a.adj[p] {
			for q := range targets {
				targets[q] = pri
				a.incPri(pri)
			}
		}
	}
	a.sba = false
	return nil
}

// StateOutsyms Symbols with at least one outgoing edge, ascending.
func (a *Aut[T]) StateOutsyms(p int) []int {
	xs := make([]int, 0, len(a.adj[p]))
	for x := range a.adj[p] {
		xs = append(xs, x)
	}
	sort.Ints(xs)
	return xs
}

func (a *Aut[T]) StateHasOutsym(p, x int) bool {
	_, ok := a.adj[p][x]
	return ok
}

func (a *Aut[T]) HasEdge(p, x, q int) bool {
	_, ok := a.adj[p][x][q]
	return ok
}

// EdgePri Priority of an existing edge (-1 means unassigned).
func (a *Aut[T]) EdgePri(p, x, q int) (int, bool) {
	pri, ok := a.adj[p][x][q]
	return pri, ok
}

// AddEdge Adds the edge p -x-> q with the given priority (-1 for none).
// The edge must not exist yet; assigned priorities are rejected in
// state-based mode.
func (a *Aut[T]) AddEdge(p, x, q, pri int) error {
	if !a.HasState(p) {
		return fmt.Errorf("edge source %d does not exist", p)
	}
	if !a.HasState(q) {
		return fmt.Errorf("edge target %d does not exist", q)
	}
	if x < 0 || x >= a.NumSyms() {
		return fmt.Errorf("symbol %d out of alphabet range", x)
	}
	if pri >= 0 && a.sba {
		return fmt.Errorf("edge priorities need transition-based acceptance")
	}
	if a.HasEdge(p, x, q) {
		return fmt.Errorf("edge %d -%d-> %d already exists", p, x, q)
	}

	if a.adj[p][x] == nil {
		a.adj[p][x] = make(map[int]int)
	}
	a.adj[p][x][q] = pri
	a.incPri(pri)
	return nil
}

// ModEdge Replaces the priority of an existing edge.
func (a *Aut[T]) ModEdge(p, x, q, pri int) error {
	old, ok := a.adj[p][x][q]
	if !ok {
		return fmt.Errorf("edge %d -%d-> %d does not exist", p, x, q)
	}
	a.decPri(old)
	a.adj[p][x][q] = pri
	a.incPri(pri)
	return nil
}

// RemoveEdge Removes an existing edge.
func (a *Aut[T]) RemoveEdge(p, x, q int) error {
	old, ok := a.adj[p][x][q]
	if !ok {
		return fmt.Errorf("edge %d -%d-> %d does not exist", p, x, q)
	}
	a.decPri(old)
	delete(a.adj[p][x], q)
	if len(a.adj[p][x]) == 0 {
		delete(a.adj[p], x)
	}
	return nil
}

// SuccEdges All x-successors of p with their edge priorities. The returned
// map is the automaton's own storage; callers must not mutate it.
func (a *Aut[T]) SuccEdges(p, x int) map[int]int {
	return a.adj[p][x]
}

// Succ All x-successors of p, ascending.
func (a *Aut[T]) Succ(p, x int) []int {
	targets := a.adj[p][x]
	sucs := make([]int, 0, len(targets))
	for q := range targets {
		sucs = append(sucs, q)
	}
	sort.Ints(sucs)
	return sucs
}

// SuccAll All successors of p over any symbol, ascending and deduplicated.
func (a *Aut[T]) SuccAll(p int) []int {
	seen := make(map[int]struct{})
	for _, targets := range a.adj[p] {
		for q := range targets {
			seen[q] = struct{}{}
		}
	}
	sucs := make([]int, 0, len(seen))
	for q := range seen {
		sucs = append(sucs, q)
	}
	sort.Ints(sucs)
	return sucs
}

// Pris All priorities currently in use, ascending.
func (a *Aut[T]) Pris() []int {
	ps := make([]int, 0, len(a.prioCnt))
	for p := range a.prioCnt {
		ps = append(ps, p)
	}
	sort.Ints(ps)
	return ps
}

// PriCount Number of assigned slots currently carrying priority p.
func (a *Aut[T]) PriCount(p int) int {
	return a.prioCnt[p]
}

// PriBounds Smallest and largest priority in use. An automaton without
// priorities counts as all-rejecting, so the bound is a single bad priority.
func (a *Aut[T]) PriBounds() (int, int) {
	ps := a.Pris()
	if len(ps) == 0 {
		if PAAccIsEven(a.patype) {
			return 1, 1
		}
		return 0, 0
	}
	return ps[0], ps[len(ps)-1]
}

// IsBuchi Büchi = state-based with at most two priorities where the stronger
// one, if both are present, is good.
func (a *Aut[T]) IsBuchi() bool {
	ps := a.Pris()
	if !a.sba || len(ps) > 2 {
		return false
	}
	if len(ps) < 2 {
		return true
	}
	return GoodPriority(a.patype, StrongerPriority(a.patype, ps[0], ps[1]))
}

// StateBuchiAccepting If the automaton is Büchi, a state is accepting iff it
// is marked with a good priority.
func (a *Aut[T]) StateBuchiAccepting(s int) bool {
	return a.HasPri(s) && GoodPriority(a.patype, a.GetPri(s))
}

// IsDeterministic At most one outgoing edge per state and symbol.
func (a *Aut[T]) IsDeterministic() bool {
	for _, es := range a.adj {
		for _, targets := range es {
			if len(targets) > 1 {
				return false
			}
		}
	}
	return true
}

// IsComplete At least one outgoing edge per state and symbol.
func (a *Aut[T]) IsComplete() bool {
	for _, es := range a.adj {
		for x := 0; x < a.NumSyms(); x++ {
			if len(es[x]) == 0 {
				return false
			}
		}
	}
	return true
}

// MakeComplete Routes every missing (state, symbol) pair to a fresh rejecting
// sink. No-op when already complete or the alphabet is empty.
func (a *Aut[T]) MakeComplete() error {
	if a.IsComplete() || a.NumSyms() == 0 {
		return nil
	}

	rejsink := a.NumStates()
	for a.HasState(rejsink) {
		rejsink++
	}
	if err := a.AddState(rejsink); err != nil {
		return err
	}

	rejpri := 0
	if PAAccIsEven(a.patype) {
		rejpri = 1
	}
	if a.sba {
		if err := a.SetPri(rejsink, rejpri); err != nil {
			return err
		}
	}

	epri := rejpri
	if a.sba {
		epri = -1
	}
	for _, st := range a.States() {
		for x := 0; x < a.NumSyms(); x++ {
			if len(a.adj[st][x]) == 0 {
				if err := a.AddEdge(st, x, rejsink, epri); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// IsColored Every state (state-based) or every existing edge
// (transition-based) carries a non-sentinel priority.
func (a *Aut[T]) IsColored() bool {
	for s, es := range a.adj {
		if a.sba && !a.HasPri(s) {
			return false
		}
		if !a.sba {
			for _, targets := range es {
				for _, pri := range targets {
					if pri == -1 {
						return false
					}
				}
			}
		}
	}
	return true
}

// MakeColored Assigns the weakest bad priority above all existing priorities
// to every unassigned slot. Min-parity conditions only.
func (a *Aut[T]) MakeColored() error {
	if !PAAccIsMin(a.patype) {
		return fmt.Errorf("coloring is defined for min-parity conditions only")
	}

	badpri := 0
	if ps := a.Pris(); len(ps) > 0 {
		badpri = ps[len(ps)-1] + 1
	}
	if GoodPriority(a.patype, badpri) {
		badpri++
	}

	for _, p := range a.States() {
		if a.sba && !a.HasPri(p) {
			if err := a.SetPri(p, badpri); err != nil {
				return err
			}
		}
		if !a.sba {
			for _, targets := range a.adj[p] {
				for q, pri := range targets {
					if pri == -1 {
						targets[q] = badpri
						a.incPri(badpri)
					}
				}
			}
		}
	}
	return nil
}

// RemoveStates Erases the given states (sorted, all existing) together with
// their priorities, tags and edges in both directions. If the initial state
// is removed, the smallest remaining id becomes initial (-1 when none
// remain); callers that may remove the initial state should re-set it
// explicitly afterwards.
func (a *Aut[T]) RemoveStates(tokill []int) error {
	if !isSetVec(tokill) {
		return fmt.Errorf("states to remove must be sorted and unique")
	}
	for _, s := range tokill {
		if !a.HasState(s) {
			return fmt.Errorf("state %d does not exist", s)
		}
	}
	_, killinit := slices.BinarySearch(tokill, a.init)

	for _, s := range tokill {
		if a.sba && a.HasPri(s) {
			_ = a.SetPri(s, -1)
		}
	}
	for _, s := range tokill {
		a.Tag.EraseInv(s)
	}
	for _, s := range tokill {
		// outgoing edge priorities leave the multiset with the state
		for _, targets := range a.adj[s] {
			for _, pri := range targets {
				a.decPri(pri)
			}
		}
		delete(a.adj, s)
	}

	// kill the states from every remaining successor map
	for _, es := range a.adj {
		for x, targets := range es {
			for _, v := range tokill {
				if pri, ok := targets[v]; ok {
					a.decPri(pri)
					delete(targets, v)
				}
			}
			if len(targets) == 0 {
				delete(es, x)
			}
		}
	}

	if killinit {
		a.init = -1
		if len(a.adj) > 0 {
			a.init = a.States()[0]
		}
	}
	a.normalized = false
	return nil
}

// Insert Pastes another automaton with disjoint state ids into this one,
// ignoring the other's initial state. Alphabets must agree.
func (a *Aut[T]) Insert(other *Aut[T]) error {
	if !slices.Equal(a.aps, other.aps) {
		return fmt.Errorf("alphabet mismatch on insert")
	}
	otherStates := other.States()
	for _, s := range otherStates {
		if a.HasState(s) {
			return fmt.Errorf("state %d exists in both automata", s)
		}
	}

	if !a.normalized || !other.normalized ||
		len(otherStates) == 0 || otherStates[0] != a.NumStates() {
		a.normalized = false
	}

	for _, st := range otherStates {
		if err := a.AddState(st); err != nil {
			return err
		}
		if a.sba && other.sba && other.HasPri(st) {
			if err := a.SetPri(st, other.GetPri(st)); err != nil {
				return err
			}
		}
		if label, ok := other.Tag.GetInv(st); ok {
			a.Tag.Put(label, st)
		}
	}
	for _, st := range otherStates {
		for _, x := range other.StateOutsyms(st) {
			for _, q := range other.Succ(st, x) {
				if err := a.AddEdge(st, x, q, other.adj[st][x][q]); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// MergeStates Redirects every edge into a member of others onto rep,
// preserving the edge priority of the smallest-id absorbed target on each
// (source, symbol), then removes the others. When rep already has an edge on
// that (source, symbol) the existing edge wins; the merge is only
// well-defined when all candidate priorities agree. The initial state must
// not be merged away.
func (a *Aut[T]) MergeStates(others []int, rep int) error {
	if len(others) == 0 {
		return nil
	}
	if !a.HasState(rep) {
		return fmt.Errorf("representative %d does not exist", rep)
	}
	if !isSetVec(others) {
		return fmt.Errorf("merged states must be sorted and unique")
	}
	if _, found := slices.BinarySearch(others, a.init); found {
		return fmt.Errorf("cannot merge away the initial state")
	}
	if _, found := slices.BinarySearch(others, rep); found {
		return fmt.Errorf("representative cannot be merged into itself")
	}
	for _, q := range others {
		if !a.HasState(q) {
			return fmt.Errorf("state %d does not exist", q)
		}
	}

	for _, st := range a.States() {
		for _, x := range a.StateOutsyms(st) {
			first := -1
			for _, q := range a.Succ(st, x) {
				if _, found := slices.BinarySearch(others, q); found {
					first = q
					break
				}
			}
			if first == -1 || a.HasEdge(st, x, rep) {
				continue
			}
			if err := a.AddEdge(st, x, rep, a.adj[st][x][first]); err != nil {
				return err
			}
		}
	}

	return a.RemoveStates(others)
}

// Quotient Merges each equivalence class of size >= 2 into its largest
// member; a class containing the initial state keeps the initial state as
// representative instead (at most one such class exists).
func (a *Aut[T]) Quotient(equiv [][]int) error {
	seenini := false
	for _, ecl := range equiv {
		if len(ecl) < 2 {
			continue
		}
		cls := slices.Clone(ecl)

		rep := cls[len(cls)-1]
		if i, found := slices.BinarySearch(cls, a.init); !seenini && found {
			rep = a.init
			cls = slices.Delete(cls, i, i+1)
			seenini = true
		} else {
			cls = cls[:len(cls)-1]
		}

		if err := a.MergeStates(cls, rep); err != nil {
			return err
		}
	}
	return nil
}

// Normalize Renumbers all states to offset..offset+n-1 preserving order,
// initial state, tags, priorities and edges, and returns the renumbering.
// Externally held state ids are invalid afterwards; the returned map is the
// only way to rewrite them.
func (a *Aut[T]) Normalize(offset int) map[int]int {
	sts := a.States()
	m := make(map[int]int, len(sts))
	if len(sts) == 0 {
		a.normalized = true
		return m
	}
	needsRenumbering := false
	for i, st := range sts {
		m[st] = offset + i
		if m[st] != st {
			needsRenumbering = true
		}
	}
	if !needsRenumbering {
		a.normalized = true
		return m
	}

	ret := NewAut[T](a.sba, a.name, a.aps, m[a.init])
	ret.patype = a.patype
	for _, st := range sts {
		if !ret.HasState(m[st]) {
			_ = ret.AddState(m[st])
		}
		if label, ok := a.Tag.GetInv(st); ok {
			ret.Tag.Put(label, m[st])
		}
		if a.sba && a.HasPri(st) {
			_ = ret.SetPri(m[st], a.GetPri(st))
		}
	}
	for _, st := range sts {
		for _, x := range a.StateOutsyms(st) {
			for _, q := range a.Succ(st, x) {
				_ = ret.AddEdge(m[st], x, m[q], a.adj[st][x][q])
			}
		}
	}
	ret.normalized = true

	*a = *ret
	return m
}

// isSetVec Sorted and duplicate-free.
func isSetVec(v []int) bool {
	for i := 1; i < len(v); i++ {
		if v[i-1] >= v[i] {
			return false
		}
	}
	return true
}
