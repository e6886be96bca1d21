package rcpsp

import (
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

// checkMirrored fails the test if any arc is missing its mirror entry.
func checkMirrored(t *testing.T, g *PrecedenceGraph) {
	t.Helper()
	for v := 0; v < g.Len(); v++ {
		for w := 0; w < g.Len(); w++ {
			if g.Successors(v).Contains(w) != g.Predecessors(w).Contains(v) {
				t.Fatalf("arc %d->%d is not mirrored", v, w)
			}
			if g.ArcExists(v, w) && (!g.HasNode(v) || !g.HasNode(w)) {
				t.Fatalf("arc %d->%d references a removed node", v, w)
			}
		}
	}
}

func TestPrecedenceGraph_MirroredUnderRandomMutations(t *testing.T) {
	const n = 8
	rng := rand.New(rand.NewSource(1))
	g := NewPrecedenceGraph(n)
	for step := 0; step < 500; step++ {
		a, b := rng.Intn(n), rng.Intn(n)
		switch rng.Intn(4) {
		case 0:
			if a != b {
				g.AddArc(a, b)
			}
		case 1:
			g.RemoveArc(a, b)
		case 2:
			g.AddNode(a)
		case 3:
			g.RemoveNode(a)
		}
		checkMirrored(t, g)
	}
}

func TestPrecedenceGraph_RemoveNodeDetachesArcs(t *testing.T) {
	g := NewPrecedenceGraph(3)
	require.True(t, g.AddArc(0, 1))
	require.True(t, g.AddArc(1, 2))
	require.False(t, g.AddArc(0, 1))
	require.Equal(t, 2, g.ArcCount())

	require.True(t, g.RemoveNode(1))
	require.False(t, g.HasNode(1))
	require.True(t, g.Successors(0).IsEmpty())
	require.True(t, g.Predecessors(2).IsEmpty())
	require.Equal(t, 0, g.ArcCount())
	require.False(t, g.RemoveNode(1))

	// adding an arc restores its endpoints
	require.True(t, g.AddArc(1, 2))
	require.True(t, g.HasNode(1))
}

func TestBuildPrecedenceGraph(t *testing.T) {
	m := [][]bool{
		{false, true, true},
		{false, false, true},
		{false, false, false},
	}
	g, err := BuildPrecedenceGraph(m)
	require.NoError(t, err)
	require.Equal(t, 3, g.ArcCount())
	require.True(t, g.ArcExists(0, 2), "graph is not transitively reduced")
	if diff := cmp.Diff([]int{0, 1}, g.Predecessors(2).Slice()); diff != "" {
		t.Fatalf("predecessors of 2 (-want +got):\n%s", diff)
	}
}

func TestBuildPrecedenceGraph_Malformed(t *testing.T) {
	cases := map[string][][]bool{
		"ragged":    {{false, true}, {false}},
		"reflexive": {{true, false}, {false, false}},
		"symmetric": {{false, true}, {true, false}},
	}
	for name, m := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := BuildPrecedenceGraph(m)
			require.True(t, errors.Is(err, ErrMalformedPrecedence), "got %v", err)
		})
	}
}

func TestTopologicalOrder_RankMonotone(t *testing.T) {
	// 0 -> 1 -> 3, 0 -> 2 -> 3 -> 4, and a long chain 5 -> 6 -> 7 -> 4
	g := NewPrecedenceGraph(8)
	for _, a := range [][2]int{{0, 1}, {1, 3}, {0, 2}, {2, 3}, {3, 4}, {5, 6}, {6, 7}, {7, 4}} {
		g.AddArc(a[0], a[1])
	}
	order, rank, err := TopologicalOrder(g)
	require.NoError(t, err)
	require.Len(t, order, 8)

	for v := 0; v < g.Len(); v++ {
		g.Successors(v).ForEach(func(w int) bool {
			if rank[v] >= rank[w] {
				t.Fatalf("rank[%d]=%d not below rank[%d]=%d", v, rank[v], w, rank[w])
			}
			return true
		})
	}
	// node 4 sits below both branches and the longer chain
	require.Equal(t, 3, rank[4])

	pos := make([]int, len(order))
	for i, v := range order {
		pos[v] = i
	}
	for v := 0; v < g.Len(); v++ {
		g.Successors(v).ForEach(func(w int) bool {
			require.Less(t, pos[v], pos[w])
			return true
		})
	}
}

func TestTopologicalOrder_LongestPathRevisits(t *testing.T) {
	// 0 -> 3 directly and 0 -> 1 -> 2 -> 3: node 3 is processed once with a
	// partial rank and must be revisited after 2.
	g := NewPrecedenceGraph(4)
	g.AddArc(0, 3)
	g.AddArc(0, 1)
	g.AddArc(1, 2)
	g.AddArc(2, 3)
	order, rank, err := TopologicalOrder(g)
	require.NoError(t, err)
	if diff := cmp.Diff([]int{0, 1, 2, 3}, rank); diff != "" {
		t.Fatalf("rank (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{0, 1, 2, 3}, order); diff != "" {
		t.Fatalf("order (-want +got):\n%s", diff)
	}
}

func TestTopologicalOrder_Cycle(t *testing.T) {
	g := NewPrecedenceGraph(4)
	g.AddArc(0, 1)
	g.AddArc(1, 2)
	g.AddArc(2, 1)
	g.AddArc(2, 3)
	_, _, err := TopologicalOrder(g)
	require.True(t, errors.Is(err, ErrCycle), "got %v", err)

	// a cycle with no source at all
	g = NewPrecedenceGraph(2)
	g.AddArc(0, 1)
	g.AddArc(1, 0)
	_, _, err = TopologicalOrder(g)
	require.True(t, errors.Is(err, ErrCycle), "got %v", err)
}

func TestBuildPrecedence_TransitiveClosure(t *testing.T) {
	// 0 -> 1 -> 2, 3 isolated
	preds := [][]int{{}, {0}, {1}, {}}
	succs := [][]int{{1}, {2}, {}, {}}

	anc, err := BuildAncestors(preds, succs)
	require.NoError(t, err)
	if diff := cmp.Diff([][]int{{}, {0}, {0, 1}, {}}, anc); diff != "" {
		t.Fatalf("ancestors (-want +got):\n%s", diff)
	}
	desc, err := BuildDescendants(preds, succs)
	require.NoError(t, err)
	if diff := cmp.Diff([][]int{{1, 2}, {2}, {}, {}}, desc); diff != "" {
		t.Fatalf("descendants (-want +got):\n%s", diff)
	}

	m, err := BuildPrecedence(preds, succs)
	require.NoError(t, err)
	require.True(t, m[0][2])
	require.False(t, m[2][0])
	require.False(t, m[0][3])
	require.Equal(t, m, BuildPrecedenceFromClosure(anc, desc))
}

func TestBuildPrecedence_Errors(t *testing.T) {
	_, err := BuildPrecedence([][]int{{1}, {0}}, [][]int{{1}, {0}})
	require.True(t, errors.Is(err, ErrCycle), "got %v", err)

	_, err = BuildPrecedence([][]int{{}, {5}}, [][]int{{}, {}})
	require.True(t, errors.Is(err, ErrMalformedPrecedence), "got %v", err)

	_, err = BuildPrecedence([][]int{{}}, [][]int{{}, {}})
	require.True(t, errors.Is(err, ErrMalformedPrecedence), "got %v", err)
}
