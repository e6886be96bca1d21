// This file provides OrderLeftShift, the propagator that turns an activity
// order into a left-shift schedule.
//
// order[k] is the activity scheduled k-th. The propagator keeps a trailed
// cursor: every position before it holds an instantiated order variable
// whose activity has been placed, i.e. its start was fixed to the earliest
// date compatible with its placed predecessors and with the resource
// profiles of the placed prefix.
//
// Each propagation round:
//   - advances the cursor past the placed prefix, going passive at the end;
//   - rebuilds one Profile per resource from the placed prefix;
//   - removes from order[cursor] every activity whose start lower bound is
//     already beyond its earliest feasible start (cursor > 0 only);
//   - if order[cursor] is now fixed, instantiates that activity's start to
//     its earliest feasible start, marks it placed and starts a new round.
//
// The cursor and the placed flags live on the host trail, so after a
// backtrack the cursor position is derived again from restored state.

package rcpsp

import (
	"fmt"

	"github.com/gitrdm/gokando-rcpsp/pkg/cp"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// OrderLeftShift is the order-based left-shift scheduling propagator.
type OrderLeftShift struct {
	order        []*cp.IntVar
	starts       []*cp.IntVar
	durations    []int
	heights      [][]int
	capacities   []int
	predecessors [][]int

	n        int
	min      int
	cursor   *cp.StateInt
	placed   []*cp.StateBool
	profiles []*Profile

	// scratch buffers for profile construction
	sub, elb, hlb []int

	log     logrus.FieldLogger
	metrics *Metrics
}

// NewOrderLeftShift builds the propagator. heights[i][c] is the demand of
// activity i on resource c; predecessors[i] lists the direct predecessors of
// activity i. Every order variable must range within [0, n).
func NewOrderLeftShift(store *cp.Store, order, starts []*cp.IntVar, durations []int, heights [][]int, capacities []int, predecessors [][]int, opts ...Option) (*OrderLeftShift, error) {
	n := len(order)
	if n == 0 {
		return nil, errors.New("OrderLeftShift requires at least one activity")
	}
	if store == nil {
		return nil, errors.New("OrderLeftShift: nil store")
	}
	if len(starts) != n || len(durations) != n || len(heights) != n || len(predecessors) != n {
		return nil, errors.Wrapf(ErrInvalidInstance, "OrderLeftShift: mismatched lengths (order=%d, starts=%d, durations=%d, heights=%d, predecessors=%d)",
			n, len(starts), len(durations), len(heights), len(predecessors))
	}
	for c, capa := range capacities {
		if capa < 0 {
			return nil, errors.Wrapf(ErrInvalidInstance, "OrderLeftShift: capacities[%d] must be >= 0", c)
		}
	}
	for i := 0; i < n; i++ {
		if order[i] == nil || starts[i] == nil {
			return nil, errors.Errorf("OrderLeftShift: nil variable at index %d", i)
		}
		if order[i].LB() < 0 || order[i].UB() >= n {
			return nil, errors.Wrapf(ErrInvalidInstance, "OrderLeftShift: order[%d] ranges over [%d,%d], want within [0,%d]", i, order[i].LB(), order[i].UB(), n-1)
		}
		if durations[i] < 0 {
			return nil, errors.Wrapf(ErrInvalidInstance, "OrderLeftShift: durations[%d] must be >= 0", i)
		}
		if len(heights[i]) != len(capacities) {
			return nil, errors.Wrapf(ErrInvalidInstance, "OrderLeftShift: heights[%d] has %d resources, want %d", i, len(heights[i]), len(capacities))
		}
		for c, h := range heights[i] {
			if h < 0 {
				return nil, errors.Wrapf(ErrInvalidInstance, "OrderLeftShift: heights[%d][%d] must be >= 0", i, c)
			}
		}
		for _, p := range predecessors[i] {
			if p < 0 || p >= n || p == i {
				return nil, errors.Wrapf(ErrInvalidInstance, "OrderLeftShift: activity %d has invalid predecessor %d", i, p)
			}
		}
	}
	o := buildOptions(opts)

	// Defensive copies
	p := &OrderLeftShift{
		order:        append([]*cp.IntVar(nil), order...),
		starts:       append([]*cp.IntVar(nil), starts...),
		durations:    append([]int(nil), durations...),
		heights:      make([][]int, n),
		capacities:   append([]int(nil), capacities...),
		predecessors: make([][]int, n),
		n:            n,
		min:          starts[0].LB(),
		cursor:       store.MakeInt(0),
		placed:       make([]*cp.StateBool, n),
		profiles:     make([]*Profile, len(capacities)),
		sub:          make([]int, n),
		elb:          make([]int, n),
		hlb:          make([]int, n),
		metrics:      o.metrics,
	}
	for i := 0; i < n; i++ {
		p.heights[i] = append([]int(nil), heights[i]...)
		p.predecessors[i] = append([]int(nil), predecessors[i]...)
		p.placed[i] = store.MakeBool(false)
		if starts[i].LB() < p.min {
			p.min = starts[i].LB()
		}
	}
	for c := range p.profiles {
		p.profiles[c] = NewProfile(n)
	}
	p.log = o.logger.WithFields(logrus.Fields{"propagator": p.Name()})
	return p, nil
}

// Name implements cp.Cause.
func (p *OrderLeftShift) Name() string { return "OrderLeftShift" }

func (p *OrderLeftShift) String() string {
	return fmt.Sprintf("OrderLeftShift(n=%d, resources=%d, cursor=%d)", p.n, len(p.capacities), p.cursor.Get())
}

// Cursor returns the number of placed order positions.
func (p *OrderLeftShift) Cursor() int { return p.cursor.Get() }

// Passive reports whether every position has been placed.
func (p *OrderLeftShift) Passive() bool { return p.cursor.Get() == p.n }

// Placed reports whether activity i has been placed.
func (p *OrderLeftShift) Placed(i int) bool { return p.placed[i].Get() }

// Propagate runs placement rounds until the activity at the cursor is not
// fixed by the order or the order is complete.
func (p *OrderLeftShift) Propagate() error {
	err := p.propagate()
	p.metrics.observePropagation(p.Name(), err)
	p.metrics.setPlaced(p.cursor.Get())
	if err != nil {
		p.log.WithFields(failureFields(err)).WithField("cursor", p.cursor.Get()).Debug("propagation failed")
	}
	return err
}

func (p *OrderLeftShift) propagate() error {
	for {
		idx := p.advanceCursor()
		if idx == p.n {
			return nil
		}
		if err := p.buildSchedule(idx); err != nil {
			return err
		}
		cur := p.order[idx]
		if idx > 0 {
			pruned := 0
			for _, v := range cur.Values() {
				m, err := p.MinAccValue(v)
				if err != nil {
					return err
				}
				if p.starts[v].LB() > m {
					if _, err := cur.RemoveValue(v, p); err != nil {
						return err
					}
					pruned++
				}
			}
			p.metrics.addBoundUpdates(p.Name(), pruned)
		}
		if !cur.IsInstantiated() {
			return nil
		}
		i := cur.Value()
		t, err := p.MinAccValue(i)
		if err != nil {
			return err
		}
		if _, err := p.starts[i].InstantiateTo(t, p); err != nil {
			return err
		}
		p.placed[i].Set(true)
		p.metrics.addBoundUpdates(p.Name(), 1)
		p.log.WithFields(logrus.Fields{"activity": i, "position": idx, "value": t}).Debug("activity placed")
	}
}

func (p *OrderLeftShift) advanceCursor() int {
	idx := p.cursor.Get()
	for idx < p.n && p.order[idx].IsInstantiated() && p.placed[p.order[idx].Value()].Get() {
		idx++
	}
	p.cursor.Set(idx)
	return idx
}

// buildSchedule rebuilds every resource profile from the activities at
// order positions [0, idx).
func (p *OrderLeftShift) buildSchedule(idx int) error {
	for c, prof := range p.profiles {
		nb := 0
		for k := 0; k < idx; k++ {
			v := p.order[k].Value()
			if p.heights[v][c] > 0 {
				p.sub[nb] = p.starts[v].UB()
				p.elb[nb] = p.starts[v].LB() + p.durations[v]
				p.hlb[nb] = p.heights[v][c]
				nb++
			}
		}
		if _, err := prof.Build(nb, p.sub, p.elb, p.hlb); err != nil {
			return err
		}
	}
	return nil
}

// MinAccValue returns the earliest start of activity v that follows all of
// its placed predecessors and fits under every resource profile.
//
// Starting from the latest end of the placed predecessors (or the smallest
// initial start lower bound), the candidate date is pushed, resource after
// resource, to the first date from which the activity fits, until a full
// pass leaves it unchanged. Each changing pass moves the date to a strictly
// later profile breakpoint, so more than Σ(Size()+1)+1 passes means a
// broken profile and yields ErrInvariant.
func (p *OrderLeftShift) MinAccValue(v int) (int, error) {
	m := p.min
	for _, q := range p.predecessors[v] {
		if p.placed[q].Get() {
			if end := p.starts[q].LB() + p.durations[q]; end > m {
				m = end
			}
		}
	}
	for c, capa := range p.capacities {
		if p.heights[v][c] > capa {
			return 0, cp.Fail(p, p.starts[v], "demand %d exceeds capacity %d of resource %d", p.heights[v][c], capa, c)
		}
	}

	limit := 1
	for _, prof := range p.profiles {
		limit += prof.Size() + 1
	}
	d := p.durations[v]
	for pass := 0; pass <= limit; pass++ {
		former := m
		for c, prof := range p.profiles {
			h, capa := p.heights[v][c], p.capacities[c]
			found := false
			for j := prof.Find(m); j < prof.Size(); j++ {
				t := m
				if s := prof.Start(j); s > t {
					t = s
				}
				if prof.FitsFrom(t, j, d, h, capa) {
					m = t
					found = true
					break
				}
			}
			if !found {
				if s := prof.Start(prof.Size()); s > m {
					m = s
				}
			}
		}
		if m == former {
			return m, nil
		}
	}
	return 0, errors.Wrapf(ErrInvariant, "OrderLeftShift: earliest start of activity %d did not settle after %d passes", v, limit)
}

// IsEntailed reports Satisfied once every order variable and every ordered
// start is instantiated, Undefined before.
func (p *OrderLeftShift) IsEntailed() cp.Entailment {
	for _, o := range p.order {
		if !o.IsInstantiated() || !p.starts[o.Value()].IsInstantiated() {
			return cp.Undefined
		}
	}
	return cp.Satisfied
}

// SmallestStartOrder returns a value selector for order variables that picks
// the candidate activity with the smallest start lower bound, ties going to
// the smallest index.
func SmallestStartOrder(starts []*cp.IntVar) func(order *cp.IntVar) int {
	return func(order *cp.IntVar) int {
		best := order.LB()
		for _, i := range order.Values() {
			if starts[i].LB() < starts[best].LB() {
				best = i
			}
		}
		return best
	}
}

// FirstUninstantiated returns the index of the first free variable, or -1.
func FirstUninstantiated(vars []*cp.IntVar) int {
	for i, v := range vars {
		if !v.IsInstantiated() {
			return i
		}
	}
	return -1
}
