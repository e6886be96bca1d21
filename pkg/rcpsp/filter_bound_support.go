package rcpsp

import (
	"math"

	"github.com/gitrdm/gokando-rcpsp/pkg/cp"
)

// boundSupportFilter enforces bound consistency on the conjunction of
// all-different and precedence. A bound value is kept only if fixing the
// variable to it still leaves the precedence-adjusted windows of every
// variable nonempty and pairwise distinct values available for them.
// Bounds move inward until a supported value is found.
type boundSupportFilter struct {
	vars     []*cp.IntVar
	lbs, ubs []int
}

func newBoundSupportFilter(vars []*cp.IntVar) *boundSupportFilter {
	return &boundSupportFilter{
		vars: vars,
		lbs:  make([]int, len(vars)),
		ubs:  make([]int, len(vars)),
	}
}

func (f *boundSupportFilter) Name() string { return FilterBoundSupport.String() }

func (f *boundSupportFilter) Propagate(g *PrecedenceGraph, order []int, cause cp.Cause) (bool, error) {
	changed := false
	for i, v := range f.vars {
		lb := v.LB()
		for lb != math.MaxInt && lb <= v.UB() && !f.supported(g, order, i, lb) {
			lb = v.NextValue(lb)
		}
		if lb == math.MaxInt || lb > v.UB() {
			return false, cp.Fail(cause, v, "no value of [%d,%d] has a bound support", v.LB(), v.UB())
		}
		c, err := v.UpdateLowerBound(lb, cause)
		if err != nil {
			return false, err
		}
		changed = changed || c

		ub := v.UB()
		for ub > v.LB() && !f.supported(g, order, i, ub) {
			ub = v.PreviousValue(ub)
		}
		c, err = v.UpdateUpperBound(ub, cause)
		if err != nil {
			return false, err
		}
		changed = changed || c
	}
	return changed, nil
}

// supported fixes variable i to value on scratch bounds, closes the bounds
// under precedence and tests distinct-value feasibility.
func (f *boundSupportFilter) supported(g *PrecedenceGraph, order []int, i, value int) bool {
	for j, v := range f.vars {
		f.lbs[j], f.ubs[j] = v.LB(), v.UB()
	}
	f.lbs[i], f.ubs[i] = value, value
	for _, v := range order {
		g.Successors(v).ForEach(func(w int) bool {
			if f.lbs[v]+1 > f.lbs[w] {
				f.lbs[w] = f.lbs[v] + 1
			}
			return true
		})
	}
	for k := len(order) - 1; k >= 0; k-- {
		v := order[k]
		g.Predecessors(v).ForEach(func(p int) bool {
			if f.ubs[v]-1 < f.ubs[p] {
				f.ubs[p] = f.ubs[v] - 1
			}
			return true
		})
	}
	for j := range f.lbs {
		if f.lbs[j] > f.ubs[j] {
			return false
		}
	}
	return distinctFeasible(f.lbs, f.ubs)
}
