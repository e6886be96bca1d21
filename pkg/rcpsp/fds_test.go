package rcpsp

import (
	"testing"

	"github.com/gitrdm/gokando-rcpsp/pkg/cp"
	"github.com/stretchr/testify/require"
)

// solve is a minimal depth-first driver: it branches on the decisions of the
// heuristic and runs propagate after every branch. On success the store is
// left at the solution.
func solve(s *cp.Store, path *cp.Path, fds *FailureDirectedSearch, propagate func() error) (bool, error) {
	d, ok := fds.NextDecision()
	if !ok {
		return true, nil
	}
	for _, left := range []bool{true, false} {
		s.WorldPush()
		path.Push(d)
		fds.BeforeDownBranch(left)
		var err error
		if left {
			err = d.Apply()
		} else {
			err = d.Refute()
		}
		if err == nil {
			err = propagate()
		}
		if err != nil {
			if !cp.IsContradiction(err) {
				return false, err
			}
			fds.OnContradiction(err)
		}
		fds.AfterDownBranch(left)
		if err == nil {
			found, err := solve(s, path, fds, propagate)
			if err != nil || found {
				return found, err
			}
		}
		path.Pop()
		if err := s.WorldPop(); err != nil {
			return false, err
		}
	}
	return false, nil
}

func TestFailureDirectedSearch_FirstDecision(t *testing.T) {
	s := cp.NewStore()
	vars := newVars(t, s, [][2]int{{0, 3}, {0, 3}})
	fds, err := NewFailureDirectedSearch(vars, cp.NewPath())
	require.NoError(t, err)

	_, ok := fds.Rating(vars[0], 0)
	require.False(t, ok, "the initial lower bound is not rated")
	r, ok := fds.Rating(vars[0], 1)
	require.True(t, ok)
	require.Equal(t, 1.0, r.Positive)
	require.Equal(t, 1.0, r.Negative)
	require.Equal(t, 2.0, r.Total())

	d, ok := fds.NextDecision()
	require.True(t, ok)
	require.Equal(t, vars[0], d.Var)
	require.Equal(t, 1, d.Value)
	require.Equal(t, cp.OpGreaterOrEqual, d.Op)
	require.Equal(t, "x0 >= 1", d.String())
}

func TestFailureDirectedSearch_ScenarioD(t *testing.T) {
	s := cp.NewStore()
	x := s.MustIntVar("x", 0, 10)
	path := cp.NewPath()
	fds, err := NewFailureDirectedSearch([]*cp.IntVar{x}, path)
	require.NoError(t, err)

	branch := func(value int, fail bool) {
		s.WorldPush()
		d := cp.Decision{Var: x, Value: value, Op: cp.OpGreaterOrEqual}
		path.Push(d)
		fds.BeforeDownBranch(true)
		require.NoError(t, d.Apply())
		if fail {
			fds.OnContradiction(cp.Fail(nil, x, "dead end"))
		}
		fds.AfterDownBranch(true)
		path.Pop()
		require.NoError(t, s.WorldPop())
	}
	for i := 0; i < 30; i++ {
		branch(3, true)
		branch(7, false)
	}

	failing, ok := fds.Rating(x, 3)
	require.True(t, ok)
	succeeding, ok := fds.Rating(x, 7)
	require.True(t, ok)
	require.Less(t, failing.Positive, 1.0)
	require.Greater(t, succeeding.Positive, 1.0)
	require.Less(t, failing.Positive, succeeding.Positive)
	require.Equal(t, 1.0, failing.Negative, "only the positive side was explored")

	// the failure-prone value is tried first, on its failing side
	d, ok := fds.NextDecision()
	require.True(t, ok)
	require.Equal(t, 3, d.Value)
	require.Equal(t, cp.OpGreaterOrEqual, d.Op)
}

func TestFailureDirectedSearch_BranchSides(t *testing.T) {
	s := cp.NewStore()
	x := s.MustIntVar("x", 0, 10)
	path := cp.NewPath()
	fds, err := NewFailureDirectedSearch([]*cp.IntVar{x}, path)
	require.NoError(t, err)

	run := func(d cp.Decision, left bool) {
		s.WorldPush()
		path.Push(d)
		fds.BeforeDownBranch(left)
		fds.OnContradiction(cp.Fail(nil, x, "dead end"))
		fds.AfterDownBranch(left)
		path.Pop()
		require.NoError(t, s.WorldPop())
	}

	// refuting x >= 5 explores x < 5
	run(cp.Decision{Var: x, Value: 5, Op: cp.OpGreaterOrEqual}, false)
	r, _ := fds.Rating(x, 5)
	require.Equal(t, 1.0, r.Positive)
	require.Less(t, r.Negative, 1.0)

	// refuting x < 6 explores x >= 6
	run(cp.Decision{Var: x, Value: 6, Op: cp.OpLess}, false)
	r, _ = fds.Rating(x, 6)
	require.Less(t, r.Positive, 1.0)
	require.Equal(t, 1.0, r.Negative)

	// once the negative side is the weaker one, the decision is x < value
	d, ok := fds.NextDecision()
	require.True(t, ok)
	require.Equal(t, 5, d.Value)
	require.Equal(t, cp.OpLess, d.Op)

	fds.Init()
	r, _ = fds.Rating(x, 5)
	require.Equal(t, 2.0, r.Total(), "Init forgets learned ratings")
}

func TestFailureDirectedSearch_FollowsBacktracks(t *testing.T) {
	s := cp.NewStore()
	x := s.MustIntVar("x", 0, 5)
	y := s.MustIntVar("y", 2, 2)
	fds, err := NewFailureDirectedSearch([]*cp.IntVar{y, x}, cp.NewPath())
	require.NoError(t, err)

	s.WorldPush()
	_, err = x.UpdateLowerBound(3, nil)
	require.NoError(t, err)
	d, ok := fds.NextDecision()
	require.True(t, ok)
	require.Equal(t, x, d.Var, "instantiated variables are skipped")
	require.Equal(t, 4, d.Value)
	require.NoError(t, s.WorldPop())

	d, ok = fds.NextDecision()
	require.True(t, ok)
	require.Equal(t, 1, d.Value)

	_, err = x.InstantiateTo(2, nil)
	require.NoError(t, err)
	_, ok = fds.NextDecision()
	require.False(t, ok)
}

func TestFailureDirectedSearch_SolvesAllDiffPrec(t *testing.T) {
	s := cp.NewStore()
	vars := newVars(t, s, [][2]int{{0, 4}, {0, 4}, {0, 4}, {0, 4}, {0, 4}})
	prec := precedenceFromArcs(5, [2]int{0, 1}, [2]int{1, 2}, [2]int{0, 2}, [2]int{3, 4})
	p, err := NewAllDiffPrec(vars, prec, FilterGreedy)
	require.NoError(t, err)
	require.NoError(t, p.Propagate())

	path := cp.NewPath()
	fds, err := NewFailureDirectedSearch(vars, path, WithDecay(0.9))
	require.NoError(t, err)
	found, err := solve(s, path, fds, p.Propagate)
	require.NoError(t, err)
	require.True(t, found)

	seen := map[int]bool{}
	for _, v := range vars {
		require.True(t, v.IsInstantiated())
		require.False(t, seen[v.Value()], "duplicate value %d", v.Value())
		seen[v.Value()] = true
	}
	require.Less(t, vars[0].Value(), vars[1].Value())
	require.Less(t, vars[1].Value(), vars[2].Value())
	require.Less(t, vars[3].Value(), vars[4].Value())
	require.Equal(t, cp.Satisfied, p.IsEntailed())
}

func TestNewFailureDirectedSearch_Errors(t *testing.T) {
	s := cp.NewStore()
	vars := newVars(t, s, [][2]int{{0, 3}})
	_, err := NewFailureDirectedSearch(vars, nil)
	require.Error(t, err)
	for _, decay := range []float64{0, 1, -0.5, 1.5} {
		_, err = NewFailureDirectedSearch(vars, cp.NewPath(), WithDecay(decay))
		require.Error(t, err, "decay %v", decay)
	}
	_, err = NewFailureDirectedSearch([]*cp.IntVar{nil}, cp.NewPath())
	require.Error(t, err)
}
