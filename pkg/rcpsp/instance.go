package rcpsp

import (
	"fmt"

	"github.com/pkg/errors"
)

// Activity is one non-preemptive activity of an instance.
type Activity struct {
	ID                  int
	Duration            int
	ResourceConsumption []int
	Successors          []int
}

func (a Activity) String() string {
	return fmt.Sprintf("Activity(%d,%d,%v,%v)", a.ID, a.Duration, a.ResourceConsumption, a.Successors)
}

// Instance is the read-only data of a scheduling problem: renewable
// resource capacities and activities indexed by their ID.
type Instance struct {
	Name       string
	Capacities []int
	Horizon    int
	Activities []Activity
}

// Len returns the number of activities.
func (in *Instance) Len() int { return len(in.Activities) }

// Validate checks that activity IDs match their index, durations and
// consumptions are non-negative, no consumption exceeds its capacity and
// the successor lists form an acyclic relation.
func (in *Instance) Validate() error {
	n := len(in.Activities)
	if n == 0 {
		return errors.Wrap(ErrInvalidInstance, "no activity")
	}
	if in.Horizon < 0 {
		return errors.Wrapf(ErrInvalidInstance, "horizon %d is negative", in.Horizon)
	}
	for c, capa := range in.Capacities {
		if capa < 0 {
			return errors.Wrapf(ErrInvalidInstance, "capacity %d of resource %d is negative", capa, c)
		}
	}
	for i, a := range in.Activities {
		if a.ID != i {
			return errors.Wrapf(ErrInvalidInstance, "activity at index %d has ID %d", i, a.ID)
		}
		if a.Duration < 0 {
			return errors.Wrapf(ErrInvalidInstance, "activity %d has negative duration %d", i, a.Duration)
		}
		if len(a.ResourceConsumption) != len(in.Capacities) {
			return errors.Wrapf(ErrInvalidInstance, "activity %d consumes %d resources, want %d", i, len(a.ResourceConsumption), len(in.Capacities))
		}
		for c, h := range a.ResourceConsumption {
			if h < 0 || h > in.Capacities[c] {
				return errors.Wrapf(ErrInvalidInstance, "activity %d consumes %d of resource %d with capacity %d", i, h, c, in.Capacities[c])
			}
		}
		for _, s := range a.Successors {
			if s < 0 || s >= n || s == i {
				return errors.Wrapf(ErrInvalidInstance, "activity %d has invalid successor %d", i, s)
			}
		}
	}
	if _, err := in.topologicalOrder(); err != nil {
		return err
	}
	return nil
}

// Durations returns the activity durations.
func (in *Instance) Durations() []int {
	out := make([]int, len(in.Activities))
	for i, a := range in.Activities {
		out[i] = a.Duration
	}
	return out
}

// Heights returns a copy of the consumption matrix, heights[i][c] being the
// demand of activity i on resource c.
func (in *Instance) Heights() [][]int {
	out := make([][]int, len(in.Activities))
	for i, a := range in.Activities {
		out[i] = append([]int(nil), a.ResourceConsumption...)
	}
	return out
}

// Successors returns a copy of the direct successor lists.
func (in *Instance) Successors() [][]int {
	out := make([][]int, len(in.Activities))
	for i, a := range in.Activities {
		out[i] = append([]int{}, a.Successors...)
	}
	return out
}

// Predecessors inverts the successor lists. Each list is sorted.
func (in *Instance) Predecessors() [][]int {
	out := make([][]int, len(in.Activities))
	for i := range out {
		out[i] = []int{}
	}
	for i, a := range in.Activities {
		for _, s := range a.Successors {
			out[s] = append(out[s], i)
		}
	}
	return out
}

// PrecedenceMatrix returns the transitive precedence matrix of the instance.
func (in *Instance) PrecedenceMatrix() ([][]bool, error) {
	return BuildPrecedence(in.Predecessors(), in.Successors())
}

// SuccessorChainLength returns, for every activity, the length of the
// longest successor chain starting at it, the activity included. Each
// activity counts for 1, or for its duration when withTime is set.
func (in *Instance) SuccessorChainLength(withTime bool) ([]int, error) {
	order, err := in.topologicalOrder()
	if err != nil {
		return nil, err
	}
	length := make([]int, len(in.Activities))
	for k := len(order) - 1; k >= 0; k-- {
		i := order[k]
		a := in.Activities[i]
		longest := 0
		for _, s := range a.Successors {
			if length[s] > longest {
				longest = length[s]
			}
		}
		length[i] = longest + 1
		if withTime {
			length[i] = longest + a.Duration
		}
	}
	return length, nil
}

func (in *Instance) topologicalOrder() ([]int, error) {
	g := NewPrecedenceGraph(len(in.Activities))
	for i, a := range in.Activities {
		for _, s := range a.Successors {
			if s < 0 || s >= len(in.Activities) || s == i {
				return nil, errors.Wrapf(ErrInvalidInstance, "activity %d has invalid successor %d", i, s)
			}
			g.AddArc(i, s)
		}
	}
	order, _, err := TopologicalOrder(g)
	if err != nil {
		return nil, errors.Wrapf(err, "instance %q", in.Name)
	}
	return order, nil
}
