package rcpsp

import (
	"sort"

	"github.com/pkg/errors"
)

// TopologicalOrder labels every node of g with its longest-path distance
// from a source node and returns the node indices stable-sorted by that rank,
// together with the rank array itself.
//
// The work queue is seeded with every node that has no predecessor. A node is
// enqueued whenever one of its predecessors is processed and it is not
// already waiting in the queue, so a node can be processed several times as
// deeper predecessors are discovered; the rank update is a max and repeated
// visits converge. In a DAG no rank can reach n, so a rank of n or more means
// a cycle and yields ErrCycle. Nodes that never enter the queue lie on, or
// downstream of, a cycle and are reported the same way.
//
// Iterating the order forward visits every node after all of its ancestors;
// iterating it backward visits every node after all of its descendants.
func TopologicalOrder(g *PrecedenceGraph) (order []int, rank []int, err error) {
	n := g.Len()
	rank = make([]int, n)
	queued := make([]bool, n)
	seen := make([]bool, n)
	queue := make([]int, 0, n)
	for v := 0; v < n; v++ {
		if g.Predecessors(v).IsEmpty() {
			queue = append(queue, v)
			queued[v] = true
		}
	}
	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		queued[v] = false
		seen[v] = true
		g.Predecessors(v).ForEach(func(p int) bool {
			if rank[p]+1 > rank[v] {
				rank[v] = rank[p] + 1
			}
			return true
		})
		if rank[v] >= n {
			return nil, nil, errors.Wrapf(ErrCycle, "node %d reached rank %d", v, rank[v])
		}
		g.Successors(v).ForEach(func(w int) bool {
			if !queued[w] {
				queue = append(queue, w)
				queued[w] = true
			}
			return true
		})
	}
	for v := 0; v < n; v++ {
		if !seen[v] {
			return nil, nil, errors.Wrapf(ErrCycle, "node %d is unreachable from any source", v)
		}
	}

	order = make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool { return rank[order[i]] < rank[order[j]] })
	return order, rank, nil
}
