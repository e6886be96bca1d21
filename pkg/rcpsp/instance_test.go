package rcpsp

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

// sampleInstance is a diamond 0 -> {1, 2} -> 3 on two resources.
func sampleInstance() *Instance {
	return &Instance{
		Name:       "diamond",
		Capacities: []int{4, 2},
		Horizon:    10,
		Activities: []Activity{
			{ID: 0, Duration: 2, ResourceConsumption: []int{2, 1}, Successors: []int{1, 2}},
			{ID: 1, Duration: 3, ResourceConsumption: []int{3, 0}, Successors: []int{3}},
			{ID: 2, Duration: 1, ResourceConsumption: []int{1, 2}, Successors: []int{3}},
			{ID: 3, Duration: 4, ResourceConsumption: []int{0, 1}},
		},
	}
}

func TestInstance_Derived(t *testing.T) {
	in := sampleInstance()
	require.NoError(t, in.Validate())
	require.Equal(t, 4, in.Len())

	if diff := cmp.Diff([]int{2, 3, 1, 4}, in.Durations()); diff != "" {
		t.Fatalf("durations (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([][]int{{}, {0}, {0}, {1, 2}}, in.Predecessors()); diff != "" {
		t.Fatalf("predecessors (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([][]int{{1, 2}, {3}, {3}, {}}, in.Successors()); diff != "" {
		t.Fatalf("successors (-want +got):\n%s", diff)
	}

	heights := in.Heights()
	heights[0][0] = 99
	require.Equal(t, 2, in.Activities[0].ResourceConsumption[0], "Heights returns a copy")

	prec, err := in.PrecedenceMatrix()
	require.NoError(t, err)
	require.True(t, prec[0][3], "precedence is transitive")
	require.False(t, prec[1][2])
	require.False(t, prec[3][0])

	chain, err := in.SuccessorChainLength(false)
	require.NoError(t, err)
	if diff := cmp.Diff([]int{3, 2, 2, 1}, chain); diff != "" {
		t.Fatalf("chain length (-want +got):\n%s", diff)
	}
	chain, err = in.SuccessorChainLength(true)
	require.NoError(t, err)
	if diff := cmp.Diff([]int{9, 7, 5, 4}, chain); diff != "" {
		t.Fatalf("chain length with time (-want +got):\n%s", diff)
	}

	require.Equal(t, "Activity(0,2,[2 1],[1 2])", in.Activities[0].String())
}

func TestInstance_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(in *Instance)
	}{
		{"empty", func(in *Instance) { in.Activities = nil }},
		{"negative horizon", func(in *Instance) { in.Horizon = -1 }},
		{"negative capacity", func(in *Instance) { in.Capacities[1] = -1 }},
		{"id mismatch", func(in *Instance) { in.Activities[2].ID = 7 }},
		{"negative duration", func(in *Instance) { in.Activities[1].Duration = -3 }},
		{"missing resource", func(in *Instance) { in.Activities[3].ResourceConsumption = []int{1} }},
		{"over capacity", func(in *Instance) { in.Activities[1].ResourceConsumption[0] = 5 }},
		{"self successor", func(in *Instance) { in.Activities[3].Successors = []int{3} }},
		{"unknown successor", func(in *Instance) { in.Activities[3].Successors = []int{4} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := sampleInstance()
			tt.mutate(in)
			err := in.Validate()
			require.True(t, errors.Is(err, ErrInvalidInstance), "got %v", err)
		})
	}

	in := sampleInstance()
	in.Activities[3].Successors = []int{0}
	require.True(t, errors.Is(in.Validate(), ErrCycle))
	_, err := in.SuccessorChainLength(true)
	require.True(t, errors.Is(err, ErrCycle))
}

func TestInstance_FeedsPropagators(t *testing.T) {
	in := sampleInstance()
	require.NoError(t, in.Validate())
	n := in.Len()
	f := newLeftShiftFixture(t, in.Durations(), in.Heights(), in.Capacities, in.Predecessors(), sameBounds(n, 0, in.Horizon))
	f.fixOrder(t, []int{0, 1, 2, 3})
	require.NoError(t, f.prop.Propagate())
	// 1 and 2 share resource 0 side by side; 3 waits for both.
	if diff := cmp.Diff([]int{0, 2, 2, 5}, f.startValues()); diff != "" {
		t.Fatalf("starts (-want +got):\n%s", diff)
	}
}
