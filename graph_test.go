package nbadet

import (
	"math/bits"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chainAut(t *testing.T) *Aut[intLabel] {
	// 0 -> 1 -> 2, 2 -> 2, 3 detached
	return buildNBA(t, []string{"a"}, []int{-1, -1, -1, -1}, [][3]int{
		{0, 0, 1},
		{1, 1, 2},
		{2, 0, 2},
		{2, 1, 2},
	})
}

func TestReachable(t *testing.T) {
	g := chainAut(t)

	assert.Equal(t, []int{0, 1, 2}, Reachable(g, 0))
	assert.Equal(t, []int{2}, Reachable(g, 2))
	assert.Equal(t, []int{3}, Reachable(g, 3))
	assert.Equal(t, []int{3}, UnreachableStates(g, 0))
}

func TestFindPath(t *testing.T) {
	g := chainAut(t)

	assert.Equal(t, []int{0, 1, 2}, FindPath(g, 0, 2))
	assert.Equal(t, []int{1, 2}, FindPath(g, 1, 2))
	assert.Empty(t, FindPath(g, 2, 0))
	assert.Equal(t, []int{0}, FindPath(g, 0, 0))
}

func TestWordOfPath(t *testing.T) {
	g := chainAut(t)

	w, err := WordOfPath(g, []int{0, 1, 2})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, w)

	// smallest symbol wins on self-loops with several choices
	w, err = WordOfPath(g, []int{2, 2})
	require.NoError(t, err)
	assert.Equal(t, []int{0}, w)

	_, err = WordOfPath(g, []int{2, 0})
	assert.Error(t, err)

	_, err = WordOfPath(g, []int{0})
	assert.Error(t, err)
}

func TestBFSVisitsOnce(t *testing.T) {
	g := chainAut(t)

	var order []int
	bfs(0, func(st int, push func(int), seen func(int) bool) {
		order = append(order, st)
		assert.True(t, seen(st))
		for _, q := range g.SuccAll(st) {
			push(q)
		}
	})
	assert.Equal(t, []int{0, 1, 2}, order)
}

func TestGetAdjMat(t *testing.T) {
	g := chainAut(t)

	mat, err := GetAdjMat(g)
	require.NoError(t, err)
	require.Len(t, mat, 2)

	assert.Equal(t, uint64(1<<1), mat[0][0])
	assert.Equal(t, uint64(0), mat[1][0])
	assert.Equal(t, uint64(1<<2), mat[1][1])
	assert.Equal(t, uint64(1<<2), mat[0][2])
	assert.Equal(t, uint64(1<<2), mat[1][2])
}

// naivePowersucc Set-theoretic reference: union of the per-state successors,
// sink collapse, then the implication-mask reduction.
func naivePowersucc(mat AdjMat, from uint64, x int, sinks uint64, masks map[int]uint64) uint64 {
	union := uint64(0)
	for i := 0; i < 64; i++ {
		if from&(1<<uint(i)) != 0 && i < len(mat[x]) {
			union |= mat[x][i]
		}
	}
	if union&sinks != 0 {
		return sinks
	}
	for i := 0; i < 64; i++ {
		if m, ok := masks[i]; ok && union&(1<<uint(i)) != 0 {
			union &= m
		}
	}
	return union
}

func TestPowersuccMatchesNaive(t *testing.T) {
	r := rand.New(rand.NewSource(7))

	for iter := 0; iter < 200; iter++ {
		n := 1 + r.Intn(8)
		mat := make(AdjMat, 2)
		for x := range mat {
			mat[x] = make([]uint64, n)
			for p := range mat[x] {
				mat[x][p] = r.Uint64() & ((1 << uint(n)) - 1)
			}
		}

		sinks := uint64(0)
		if r.Intn(2) == 0 {
			sinks = 1 << uint(r.Intn(n))
		}
		masks := map[int]uint64{}
		for i := 0; i < n; i++ {
			if r.Intn(4) == 0 {
				masks[i] = r.Uint64() & ((1 << uint(n)) - 1)
			}
		}

		from := r.Uint64() & ((1 << uint(n)) - 1)
		x := r.Intn(2)
		assert.Equal(t, naivePowersucc(mat, from, x, sinks, masks),
			Powersucc(mat, from, x, sinks, masks))
	}
}

func TestPowersuccSinkCollapse(t *testing.T) {
	mat := AdjMat{{0b10, 0b01}, {0b11, 0b10}}

	// successor set {0,1} intersects the sink {0}: collapse
	assert.Equal(t, uint64(0b01), Powersucc(mat, 0b11, 1, 0b01, nil))
	// without sinks the union survives
	assert.Equal(t, uint64(0b11), Powersucc(mat, 0b11, 1, 0, nil))
}

func TestPowersuccImplicationMask(t *testing.T) {
	mat := AdjMat{{0b11, 0b11}}

	// state 0 subsumes state 1
	got := Powersucc(mat, 0b01, 0, 0, map[int]uint64{0: 0b01})
	assert.Equal(t, uint64(0b01), got)
	assert.Equal(t, 1, bits.OnesCount64(got))
}
