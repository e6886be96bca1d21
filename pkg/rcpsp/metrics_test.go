package rcpsp

import (
	"testing"

	"github.com/gitrdm/gokando-rcpsp/pkg/cp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Propagators(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	require.NoError(t, err)

	s := cp.NewStore()
	vars := newVars(t, s, [][2]int{{0, 3}, {0, 3}})
	p, err := NewAllDiffPrec(vars, precedenceFromArcs(2, [2]int{0, 1}), FilterGreedy, WithMetrics(m))
	require.NoError(t, err)
	require.NoError(t, p.Propagate())
	require.Equal(t, 1.0, testutil.ToFloat64(m.propagations.WithLabelValues("AllDiffPrec")))
	require.Equal(t, 0.0, testutil.ToFloat64(m.contradictions.WithLabelValues("AllDiffPrec")))
	require.Positive(t, testutil.ToFloat64(m.boundUpdates.WithLabelValues("AllDiffPrec")))

	clash := newVars(t, s, [][2]int{{1, 1}, {1, 1}})
	q, err := NewAllDiffPrec(clash, precedenceFromArcs(2), FilterGreedy, WithMetrics(m))
	require.NoError(t, err)
	require.True(t, cp.IsContradiction(q.Propagate()))
	require.Equal(t, 2.0, testutil.ToFloat64(m.propagations.WithLabelValues("AllDiffPrec")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.contradictions.WithLabelValues("AllDiffPrec")))

	order := newVars(t, s, [][2]int{{0, 0}})
	starts := newVars(t, s, [][2]int{{0, 5}})
	ls, err := NewOrderLeftShift(s, order, starts, []int{2}, [][]int{{1}}, []int{1}, [][]int{{}}, WithMetrics(m))
	require.NoError(t, err)
	require.NoError(t, ls.Propagate())
	require.Equal(t, 1.0, testutil.ToFloat64(m.placed))

	fds, err := NewFailureDirectedSearch(newVars(t, s, [][2]int{{0, 2}}), cp.NewPath(), WithMetrics(m))
	require.NoError(t, err)
	_, ok := fds.NextDecision()
	require.True(t, ok)
	require.Equal(t, 1.0, testutil.ToFloat64(m.decisions.WithLabelValues(">=")))

	// the same collectors cannot be registered twice
	_, err = NewMetrics(reg)
	require.Error(t, err)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	m.observePropagation("x", nil)
	m.addBoundUpdates("x", 3)
	m.observeDecision(">=")
	m.setPlaced(2)

	m, err := NewMetrics(nil)
	require.NoError(t, err)
	m.observePropagation("x", cp.Fail(nil, nil, "boom"))
	require.Equal(t, 1.0, testutil.ToFloat64(m.contradictions.WithLabelValues("x")))
}
