package rcpsp

import (
	"github.com/gitrdm/gokando-rcpsp/internal/bitset"
	"github.com/pkg/errors"
)

// BuildAncestors returns, for every activity, the sorted list of all its
// transitive predecessors. predecessors and successors must describe the
// same relation from both sides.
func BuildAncestors(predecessors, successors [][]int) ([][]int, error) {
	return closure(predecessors, successors)
}

// BuildDescendants returns, for every activity, the sorted list of all its
// transitive successors.
func BuildDescendants(predecessors, successors [][]int) ([][]int, error) {
	return closure(successors, predecessors)
}

// closure computes the transitive closure along in-edges. A node is resolved
// once every node it depends on is resolved, starting from the nodes with no
// dependency and walking forward along out-edges.
func closure(in, out [][]int) ([][]int, error) {
	n := len(in)
	if len(out) != n {
		return nil, errors.Wrapf(ErrMalformedPrecedence, "got %d predecessor lists and %d successor lists", len(in), len(out))
	}
	for _, lists := range [][][]int{in, out} {
		for i, l := range lists {
			for _, j := range l {
				if j < 0 || j >= n || j == i {
					return nil, errors.Wrapf(ErrMalformedPrecedence, "activity %d lists invalid neighbour %d", i, j)
				}
			}
		}
	}

	sets := make([]*bitset.Set, n)
	done := make([]bool, n)
	queue := make([]int, 0, n)
	for i := 0; i < n; i++ {
		sets[i] = bitset.New(n)
		if len(in[i]) == 0 {
			queue = append(queue, i)
		}
	}
	resolved := 0
	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]
		if done[i] {
			continue
		}
		ready := true
		for _, j := range in[i] {
			if !done[j] {
				ready = false
				break
			}
		}
		if !ready {
			continue
		}
		for _, j := range in[i] {
			sets[i].Add(j)
			sets[j].ForEach(func(k int) bool {
				sets[i].Add(k)
				return true
			})
		}
		done[i] = true
		resolved++
		queue = append(queue, out[i]...)
	}
	if resolved != n {
		return nil, errors.Wrapf(ErrCycle, "%d of %d activities could not be ordered", n-resolved, n)
	}

	result := make([][]int, n)
	for i, s := range sets {
		result[i] = s.Slice()
	}
	return result, nil
}

// BuildPrecedence returns the transitive precedence matrix of the relation
// given by predecessor and successor lists: m[v][w] is true iff v is an
// ancestor of w.
func BuildPrecedence(predecessors, successors [][]int) ([][]bool, error) {
	ancestors, err := BuildAncestors(predecessors, successors)
	if err != nil {
		return nil, err
	}
	descendants, err := BuildDescendants(predecessors, successors)
	if err != nil {
		return nil, err
	}
	return BuildPrecedenceFromClosure(ancestors, descendants), nil
}

// BuildPrecedenceFromClosure builds the precedence matrix from already
// computed ancestor and descendant lists.
func BuildPrecedenceFromClosure(ancestors, descendants [][]int) [][]bool {
	n := len(ancestors)
	m := make([][]bool, n)
	for i := range m {
		m[i] = make([]bool, n)
	}
	for i := 0; i < n; i++ {
		for _, a := range ancestors[i] {
			if a != i {
				m[a][i] = true
			}
		}
		if i < len(descendants) {
			for _, d := range descendants[i] {
				if d != i {
					m[i][d] = true
				}
			}
		}
	}
	return m
}
