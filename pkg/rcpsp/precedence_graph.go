// Package rcpsp implements the propagation and search core of a solver for
// the resource-constrained project scheduling problem.
//
// This file provides the precedence graph: a directed graph over activity
// indices whose nodes each own a successor set and a predecessor set.
//
// Representation:
//   - Nodes never move; node v is addressed by its activity index in [0, n).
//   - succ[v] and pred[v] are fixed-capacity bitsets, giving O(1) membership
//     tests and ordered iteration.
//   - An arc (v,w) is always mirrored: w ∈ succ[v] ⟺ v ∈ pred[w]. Every
//     mutator preserves this, and RemoveNode detaches all incident arcs from
//     the opposite side before dropping the node.
//
// The graph built from a precedence matrix is not transitively reduced: every
// true entry becomes a direct arc. Propagators treat it as read-only after
// construction.
package rcpsp

import (
	"fmt"
	"strings"

	"github.com/gitrdm/gokando-rcpsp/internal/bitset"
	"github.com/pkg/errors"
)

// PrecedenceGraph is a directed graph over activity indices.
type PrecedenceGraph struct {
	n     int
	nodes *bitset.Set
	succ  []*bitset.Set
	pred  []*bitset.Set
}

// NewPrecedenceGraph returns a graph with all n nodes present and no arcs.
func NewPrecedenceGraph(n int) *PrecedenceGraph {
	g := &PrecedenceGraph{
		n:     n,
		nodes: bitset.Full(n),
		succ:  make([]*bitset.Set, n),
		pred:  make([]*bitset.Set, n),
	}
	for i := 0; i < n; i++ {
		g.succ[i] = bitset.New(n)
		g.pred[i] = bitset.New(n)
	}
	return g
}

// BuildPrecedenceGraph adds one arc v→w for every precedence[v][w].
//
// The matrix must be square, irreflexive and antisymmetric; acyclicity is
// checked later by TopologicalOrder.
func BuildPrecedenceGraph(precedence [][]bool) (*PrecedenceGraph, error) {
	if err := checkPrecedenceMatrix(precedence); err != nil {
		return nil, err
	}
	n := len(precedence)
	g := NewPrecedenceGraph(n)
	for v := 0; v < n; v++ {
		for w := v + 1; w < n; w++ {
			switch {
			case precedence[v][w]:
				g.AddArc(v, w)
			case precedence[w][v]:
				g.AddArc(w, v)
			}
		}
	}
	return g, nil
}

// checkPrecedenceMatrix rejects a matrix that is not square, irreflexive
// and antisymmetric.
func checkPrecedenceMatrix(precedence [][]bool) error {
	n := len(precedence)
	for v := 0; v < n; v++ {
		if len(precedence[v]) != n {
			return errors.Wrapf(ErrMalformedPrecedence, "row %d has %d columns, want %d", v, len(precedence[v]), n)
		}
		if precedence[v][v] {
			return errors.Wrapf(ErrMalformedPrecedence, "activity %d precedes itself", v)
		}
	}
	for v := 0; v < n; v++ {
		for w := v + 1; w < n; w++ {
			if precedence[v][w] && precedence[w][v] {
				return errors.Wrapf(ErrMalformedPrecedence, "activities %d and %d precede each other", v, w)
			}
		}
	}
	return nil
}

// Len returns the node capacity n.
func (g *PrecedenceGraph) Len() int { return g.n }

// HasNode reports whether node x is present.
func (g *PrecedenceGraph) HasNode(x int) bool { return g.nodes.Contains(x) }

// Nodes returns the present nodes in ascending order.
func (g *PrecedenceGraph) Nodes() []int { return g.nodes.Slice() }

// AddNode inserts node x and reports whether it was absent.
func (g *PrecedenceGraph) AddNode(x int) bool { return g.nodes.Add(x) }

// RemoveNode deletes node x together with all its incident arcs.
func (g *PrecedenceGraph) RemoveNode(x int) bool {
	if !g.nodes.Remove(x) {
		return false
	}
	g.succ[x].ForEach(func(w int) bool {
		g.pred[w].Remove(x)
		return true
	})
	g.succ[x].Clear()
	g.pred[x].ForEach(func(p int) bool {
		g.succ[p].Remove(x)
		return true
	})
	g.pred[x].Clear()
	return true
}

// AddArc inserts from→to, adding missing endpoints, and reports whether the
// arc was new.
func (g *PrecedenceGraph) AddArc(from, to int) bool {
	if from < 0 || from >= g.n || to < 0 || to >= g.n {
		return false
	}
	g.AddNode(from)
	g.AddNode(to)
	if g.succ[from].Contains(to) {
		return false
	}
	g.succ[from].Add(to)
	g.pred[to].Add(from)
	return true
}

// RemoveArc deletes from→to and reports whether it existed.
func (g *PrecedenceGraph) RemoveArc(from, to int) bool {
	if from < 0 || from >= g.n || !g.succ[from].Remove(to) {
		return false
	}
	g.pred[to].Remove(from)
	return true
}

// ArcExists reports whether from→to is in the graph.
func (g *PrecedenceGraph) ArcExists(from, to int) bool {
	return from >= 0 && from < g.n && g.succ[from].Contains(to)
}

// Successors returns the successor set of x. Callers must not mutate it.
func (g *PrecedenceGraph) Successors(x int) *bitset.Set { return g.succ[x] }

// Predecessors returns the predecessor set of x. Callers must not mutate it.
func (g *PrecedenceGraph) Predecessors(x int) *bitset.Set { return g.pred[x] }

// ArcCount returns the number of arcs.
func (g *PrecedenceGraph) ArcCount() int {
	total := 0
	for _, s := range g.succ {
		total += s.Len()
	}
	return total
}

func (g *PrecedenceGraph) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "nodes: %s\nsuccessors:\n", g.nodes)
	g.nodes.ForEach(func(i int) bool {
		fmt.Fprintf(&sb, "%d -> %s\n", i, g.succ[i])
		return true
	})
	return sb.String()
}
