package rcpsp

import (
	"sort"

	"github.com/gitrdm/gokando-rcpsp/pkg/cp"
)

// strengthenedFilter exploits that all ancestors of a variable take distinct
// values below it. Packing the ancestors' lower bounds from the left gives
// the earliest value the last of them can take, and the variable must come
// after it. Descendants are packed symmetrically from the right. Hall
// interval reasoning runs afterwards.
type strengthenedFilter struct {
	vars        []*cp.IntVar
	ancestors   [][]int
	descendants [][]int
	scratch     []int
}

func newStrengthenedFilter(vars []*cp.IntVar, precedence [][]bool) *strengthenedFilter {
	n := len(vars)
	f := &strengthenedFilter{
		vars:        vars,
		ancestors:   make([][]int, n),
		descendants: make([][]int, n),
		scratch:     make([]int, 0, n),
	}
	for v := 0; v < n; v++ {
		for w := 0; w < n; w++ {
			if precedence[v][w] {
				f.descendants[v] = append(f.descendants[v], w)
				f.ancestors[w] = append(f.ancestors[w], v)
			}
		}
	}
	return f
}

func (f *strengthenedFilter) Name() string { return FilterStrengthened.String() }

func (f *strengthenedFilter) Propagate(_ *PrecedenceGraph, order []int, cause cp.Cause) (bool, error) {
	changed := false
	for _, v := range order {
		if len(f.ancestors[v]) == 0 {
			continue
		}
		f.scratch = f.scratch[:0]
		for _, a := range f.ancestors[v] {
			f.scratch = append(f.scratch, f.vars[a].LB())
		}
		sort.Ints(f.scratch)
		t := f.scratch[0]
		for _, lb := range f.scratch[1:] {
			if t+1 > lb {
				t++
			} else {
				t = lb
			}
		}
		c, err := f.vars[v].UpdateLowerBound(t+1, cause)
		if err != nil {
			return false, err
		}
		changed = changed || c
	}
	for k := len(order) - 1; k >= 0; k-- {
		v := order[k]
		if len(f.descendants[v]) == 0 {
			continue
		}
		f.scratch = f.scratch[:0]
		for _, d := range f.descendants[v] {
			f.scratch = append(f.scratch, f.vars[d].UB())
		}
		sort.Sort(sort.Reverse(sort.IntSlice(f.scratch)))
		t := f.scratch[0]
		for _, ub := range f.scratch[1:] {
			if t-1 < ub {
				t--
			} else {
				t = ub
			}
		}
		c, err := f.vars[v].UpdateUpperBound(t-1, cause)
		if err != nil {
			return false, err
		}
		changed = changed || c
	}

	c, err := hallIntervals(f.vars, cause)
	if err != nil {
		return false, err
	}
	return changed || c, checkDistinct(f.vars, cause)
}
