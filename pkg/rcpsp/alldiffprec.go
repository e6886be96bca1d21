// This file provides AllDiffPrec, the propagator that forces a set of
// integer variables to take pairwise distinct values while respecting a
// strict partial order between them: whenever precedence[v][w] holds,
// x[v] < x[w].
//
// Propagation runs to a fixpoint on every call:
//   - Forward pass: visit activities in topological order and raise every
//     successor's lower bound above its predecessor's lower bound.
//   - Backward pass: visit in reverse topological order and lower every
//     predecessor's upper bound below its successor's upper bound.
//   - With the bound-support strategy, Hall-interval bound reasoning joins
//     the two passes in the inner loop.
//   - The selected Filter then runs; if it tightened anything, the whole
//     cycle repeats.
//
// Every step only tightens bounds, so the loop terminates after at most
// Σ|dom(x)| productive iterations. A wipe-out aborts immediately with the
// *cp.Contradiction returned by the failing update.

package rcpsp

import (
	"fmt"

	"github.com/gitrdm/gokando-rcpsp/pkg/cp"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// AllDiffPrec is the all-different-with-precedences propagator.
type AllDiffPrec struct {
	vars       []*cp.IntVar
	precedence [][]bool
	graph      *PrecedenceGraph
	order      []int
	filter     Filter
	hallBounds bool

	log     logrus.FieldLogger
	metrics *Metrics
	updates int
}

// NewAllDiffPrec builds the propagator from a precedence matrix in which
// precedence[v][w] means v must take a smaller value than w. The matrix must
// be square, irreflexive, antisymmetric and acyclic.
func NewAllDiffPrec(vars []*cp.IntVar, precedence [][]bool, kind FilterKind, opts ...Option) (*AllDiffPrec, error) {
	filter, err := NewFilter(kind, vars, precedence)
	if err != nil {
		return nil, err
	}
	return NewAllDiffPrecWithFilter(vars, precedence, filter, opts...)
}

// NewAllDiffPrecFromLists builds the propagator from per-activity
// predecessor and successor lists; the transitive closure is computed first.
func NewAllDiffPrecFromLists(vars []*cp.IntVar, predecessors, successors [][]int, kind FilterKind, opts ...Option) (*AllDiffPrec, error) {
	precedence, err := BuildPrecedence(predecessors, successors)
	if err != nil {
		return nil, err
	}
	return NewAllDiffPrec(vars, precedence, kind, opts...)
}

// NewAllDiffPrecWithFilter builds the propagator around a caller-supplied
// filtering strategy.
func NewAllDiffPrecWithFilter(vars []*cp.IntVar, precedence [][]bool, filter Filter, opts ...Option) (*AllDiffPrec, error) {
	if err := checkVars(vars, len(precedence)); err != nil {
		return nil, err
	}
	if filter == nil {
		return nil, errors.New("AllDiffPrec: nil filter")
	}
	graph, err := BuildPrecedenceGraph(precedence)
	if err != nil {
		return nil, err
	}
	order, _, err := TopologicalOrder(graph)
	if err != nil {
		return nil, err
	}
	o := buildOptions(opts)

	// Defensive copies
	varsCopy := make([]*cp.IntVar, len(vars))
	copy(varsCopy, vars)
	precCopy := make([][]bool, len(precedence))
	for i := range precedence {
		precCopy[i] = append([]bool(nil), precedence[i]...)
	}

	_, hall := filter.(*boundSupportFilter)
	p := &AllDiffPrec{
		vars:       varsCopy,
		precedence: precCopy,
		graph:      graph,
		order:      order,
		filter:     filter,
		hallBounds: hall,
		metrics:    o.metrics,
	}
	p.log = o.logger.WithFields(logrus.Fields{"propagator": p.Name()})
	return p, nil
}

func checkVars(vars []*cp.IntVar, n int) error {
	if len(vars) != n {
		return errors.Wrapf(ErrMalformedPrecedence, "AllDiffPrec: %d variables but a %d×%d precedence matrix", len(vars), n, n)
	}
	for i, v := range vars {
		if v == nil {
			return errors.Errorf("AllDiffPrec: vars[%d] is nil", i)
		}
	}
	return nil
}

// Name implements cp.Cause.
func (p *AllDiffPrec) Name() string { return "AllDiffPrec" }

func (p *AllDiffPrec) String() string {
	return fmt.Sprintf("AllDiffPrec(n=%d, arcs=%d, filter=%s)", len(p.vars), p.graph.ArcCount(), p.filter.Name())
}

// Graph returns the precedence graph. Callers must not mutate it.
func (p *AllDiffPrec) Graph() *PrecedenceGraph { return p.graph }

// Order returns the topological visiting order.
func (p *AllDiffPrec) Order() []int { return append([]int(nil), p.order...) }

// Filter returns the filtering strategy.
func (p *AllDiffPrec) Filter() Filter { return p.filter }

// Propagate runs the fixpoint loop described in the file header.
func (p *AllDiffPrec) Propagate() error {
	p.updates = 0
	err := p.propagate()
	p.metrics.observePropagation(p.Name(), err)
	p.metrics.addBoundUpdates(p.Name(), p.updates)
	if err != nil {
		p.log.WithFields(failureFields(err)).Debug("propagation failed")
	}
	return err
}

func (p *AllDiffPrec) propagate() error {
	for {
		if err := p.filterPrecedenceAndBounds(); err != nil {
			return err
		}
		changed, err := p.filter.Propagate(p.graph, p.order, p)
		if err != nil {
			return err
		}
		if !changed {
			return nil
		}
		p.updates++
	}
}

func (p *AllDiffPrec) filterPrecedenceAndBounds() error {
	for {
		changed, err := p.updateBounds(true)
		if err != nil {
			return err
		}
		c, err := p.updateBounds(false)
		if err != nil {
			return err
		}
		changed = changed || c
		if p.hallBounds {
			c, err = hallIntervals(p.vars, p)
			if err != nil {
				return err
			}
			changed = changed || c
		}
		if !changed {
			return nil
		}
	}
}

// updateBounds runs the forward (lower bound) or backward (upper bound)
// precedence pass.
func (p *AllDiffPrec) updateBounds(lower bool) (bool, error) {
	changed := false
	var err error
	n := len(p.order)
	for k := 0; k < n && err == nil; k++ {
		if lower {
			v := p.order[k]
			p.graph.Successors(v).ForEach(func(w int) bool {
				var c bool
				c, err = p.vars[w].UpdateLowerBound(p.vars[v].LB()+1, p)
				if c {
					changed = true
					p.updates++
				}
				return err == nil
			})
		} else {
			v := p.order[n-1-k]
			p.graph.Predecessors(v).ForEach(func(q int) bool {
				var c bool
				c, err = p.vars[q].UpdateUpperBound(p.vars[v].UB()-1, p)
				if c {
					changed = true
					p.updates++
				}
				return err == nil
			})
		}
	}
	return changed, err
}

// IsEntailed reports Violated when a fully instantiated assignment repeats a
// value or inverts a precedence, Satisfied when it does neither, and
// Undefined while some variable is still free.
func (p *AllDiffPrec) IsEntailed() cp.Entailment {
	for _, v := range p.vars {
		if !v.IsInstantiated() {
			return cp.Undefined
		}
	}
	for i := range p.vars {
		for j := i + 1; j < len(p.vars); j++ {
			vi, vj := p.vars[i].Value(), p.vars[j].Value()
			if vi == vj || p.precedence[i][j] && vi > vj || p.precedence[j][i] && vi < vj {
				return cp.Violated
			}
		}
	}
	return cp.Satisfied
}
