package rcpsp

import "github.com/gitrdm/gokando-rcpsp/pkg/cp"

// greedyFilter prunes with Hall intervals and then checks that distinct
// values still exist. It ignores the precedence graph beyond what the
// coordinator's bound passes already encode, which makes it cheap but
// weaker than boundSupportFilter.
type greedyFilter struct {
	vars []*cp.IntVar
}

func newGreedyFilter(vars []*cp.IntVar) *greedyFilter {
	return &greedyFilter{vars: vars}
}

func (f *greedyFilter) Name() string { return FilterGreedy.String() }

func (f *greedyFilter) Propagate(_ *PrecedenceGraph, _ []int, cause cp.Cause) (bool, error) {
	changed, err := hallIntervals(f.vars, cause)
	if err != nil {
		return false, err
	}
	return changed, checkDistinct(f.vars, cause)
}
