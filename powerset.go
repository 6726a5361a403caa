package nbadet

// Pset Bitset label of a powerset-automaton state.
type Pset uint64

func (p Pset) Hash() uint64 { return mix64(uint64(p)) }

func (p Pset) Equals(other Hashable) bool {
	q, ok := other.(Pset)
	return ok && p == q
}

func (p Pset) String() string { return prettyBitset(uint64(p)) }

// NewPowersetAut Subset construction of an NBA: states are labeled by the
// reachable subsets, the initial subset is the singleton of the NBA's initial
// state, and transitions follow Powersucc. The empty subset is omitted, so
// the result may be incomplete.
func NewPowersetAut[T Hashable](nba *Aut[T], dc *DetConf) *Aut[Pset] {
	initset := uint64(1) << uint(nba.Init())

	ps := NewAut[Pset](true, nba.Name(), nba.APs(), 0)
	ps.Tag.Put(Pset(initset), 0)

	bfs(0, func(st int, push func(int), _ func(int) bool) {
		cur, _ := ps.Tag.GetInv(st)
		for x := 0; x < ps.NumSyms(); x++ {
			suc := Powersucc(dc.Mat, uint64(cur), x, dc.Sinks, dc.Masks)
			if suc == 0 {
				continue
			}
			sucst := ps.Tag.PutOrGet(Pset(suc), ps.NumStates())
			if !ps.HasState(sucst) {
				_ = ps.AddState(sucst)
			}
			_ = ps.AddEdge(st, x, sucst, -1)
			push(sucst)
		}
	})
	return ps
}
