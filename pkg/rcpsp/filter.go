package rcpsp

import (
	"container/heap"
	"sort"
	"strings"

	"github.com/gitrdm/gokando-rcpsp/pkg/cp"
	"github.com/pkg/errors"
)

// Filter is a mutual-exclusion filtering strategy plugged into AllDiffPrec.
// Propagate tightens the bounds of the strategy's variables so that they can
// still take pairwise distinct values consistent with the precedence graph,
// and reports whether anything changed. Inconsistency is returned as the
// contradiction raised by the failing update, or one built with cp.Fail.
//
// Implementations must be idempotent: once a call reports no change, a call
// on the same bounds reports no change either.
type Filter interface {
	Name() string
	Propagate(g *PrecedenceGraph, order []int, cause cp.Cause) (bool, error)
}

// FilterKind selects one of the built-in strategies.
type FilterKind int

const (
	// FilterStrengthened packs ancestors and descendants, then applies
	// Hall-interval reasoning. It is the default.
	FilterStrengthened FilterKind = iota
	// FilterBoundSupport enforces exact bound consistency by probing.
	FilterBoundSupport
	// FilterGreedy applies Hall-interval reasoning and a feasibility test.
	FilterGreedy
)

func (k FilterKind) String() string {
	switch k {
	case FilterBoundSupport:
		return "bessiere"
	case FilterGreedy:
		return "greedy"
	case FilterStrengthened:
		return "godet"
	default:
		return "unknown"
	}
}

// ParseFilterKind maps a strategy tag to its kind. Tags are case
// insensitive; "default" and the empty string select FilterStrengthened.
func ParseFilterKind(tag string) (FilterKind, error) {
	switch strings.ToLower(strings.TrimSpace(tag)) {
	case "bessiere":
		return FilterBoundSupport, nil
	case "greedy":
		return FilterGreedy, nil
	case "godet", "default", "":
		return FilterStrengthened, nil
	}
	return 0, errors.Wrapf(ErrUnknownFilter, "%q", tag)
}

// NewFilter builds the strategy of the given kind over vars.
func NewFilter(kind FilterKind, vars []*cp.IntVar, precedence [][]bool) (Filter, error) {
	if err := checkVars(vars, len(precedence)); err != nil {
		return nil, err
	}
	if err := checkPrecedenceMatrix(precedence); err != nil {
		return nil, err
	}
	switch kind {
	case FilterBoundSupport:
		return newBoundSupportFilter(vars), nil
	case FilterGreedy:
		return newGreedyFilter(vars), nil
	case FilterStrengthened:
		return newStrengthenedFilter(vars, precedence), nil
	}
	return nil, errors.Wrapf(ErrUnknownFilter, "kind %d", int(kind))
}

// snapshotBounds copies the current bounds of vars.
func snapshotBounds(vars []*cp.IntVar) (lbs, ubs []int) {
	lbs = make([]int, len(vars))
	ubs = make([]int, len(vars))
	for i, v := range vars {
		lbs[i], ubs[i] = v.LB(), v.UB()
	}
	return lbs, ubs
}

// hallIntervals applies bound reasoning on Hall intervals computed from a
// snapshot of the bounds. An interval [a,b] holding more variables than
// values fails; one holding exactly b-a+1 variables is a Hall interval and
// every other variable is pushed out of it. The snapshot keeps every
// detected Hall interval valid while the updates are applied.
func hallIntervals(vars []*cp.IntVar, cause cp.Cause) (bool, error) {
	n := len(vars)
	if n < 2 {
		return false, nil
	}
	lbs, ubs := snapshotBounds(vars)

	byUB := make([]int, n)
	for i := range byUB {
		byUB[i] = i
	}
	sort.Slice(byUB, func(i, j int) bool { return ubs[byUB[i]] < ubs[byUB[j]] })

	starts := append([]int(nil), lbs...)
	sort.Ints(starts)

	newLB := append([]int(nil), lbs...)
	newUB := append([]int(nil), ubs...)
	inside := make([]bool, n)
	members := make([]int, 0, n)
	for k, a := range starts {
		if k > 0 && starts[k-1] == a {
			continue
		}
		members = members[:0]
		for _, i := range byUB {
			if lbs[i] >= a {
				members = append(members, i)
			}
		}
		for idx, i := range members {
			count := idx + 1
			b := ubs[i]
			if idx+1 < len(members) && ubs[members[idx+1]] == b {
				continue
			}
			size := b - a + 1
			if count > size {
				return false, cp.Fail(cause, vars[i], "%d variables share the %d values of [%d,%d]", count, size, a, b)
			}
			if count < size {
				continue
			}
			for j := range inside {
				inside[j] = lbs[j] >= a && ubs[j] <= b
			}
			for j := 0; j < n; j++ {
				if inside[j] {
					continue
				}
				if lbs[j] >= a && lbs[j] <= b && b+1 > newLB[j] {
					newLB[j] = b + 1
				}
				if ubs[j] >= a && ubs[j] <= b && a-1 < newUB[j] {
					newUB[j] = a - 1
				}
			}
		}
	}

	changed := false
	for i, v := range vars {
		c, err := v.UpdateBounds(newLB[i], newUB[i], cause)
		if err != nil {
			return false, err
		}
		changed = changed || c
	}
	return changed, nil
}

// deadlines is a min-heap of upper bounds.
type deadlines []int

func (h deadlines) Len() int            { return len(h) }
func (h deadlines) Less(i, j int) bool  { return h[i] < h[j] }
func (h deadlines) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *deadlines) Push(x interface{}) { *h = append(*h, x.(int)) }
func (h *deadlines) Pop() interface{} {
	old := *h
	x := old[len(old)-1]
	*h = old[:len(old)-1]
	return x
}

// distinctFeasible reports whether the windows [lbs[i], ubs[i]] admit
// pairwise distinct integer values. It assigns values in increasing order
// to the open window with the earliest deadline, which is exact for unit
// intervals.
func distinctFeasible(lbs, ubs []int) bool {
	n := len(lbs)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(i, j int) bool { return lbs[idx[i]] < lbs[idx[j]] })

	h := make(deadlines, 0, n)
	next, t := 0, 0
	for next < n || h.Len() > 0 {
		if h.Len() == 0 {
			t = lbs[idx[next]]
		}
		for next < n && lbs[idx[next]] <= t {
			heap.Push(&h, ubs[idx[next]])
			next++
		}
		if heap.Pop(&h).(int) < t {
			return false
		}
		t++
	}
	return true
}

// checkDistinct fails when the current bounds admit no distinct assignment.
func checkDistinct(vars []*cp.IntVar, cause cp.Cause) error {
	lbs, ubs := snapshotBounds(vars)
	if !distinctFeasible(lbs, ubs) {
		return cp.Fail(cause, nil, "no pairwise distinct assignment fits the current bounds")
	}
	return nil
}
