package rcpsp

import (
	"fmt"

	"github.com/gitrdm/gokando-rcpsp/pkg/cp"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// SetTimes is the schedule-or-postpone branching rule for start variables.
// At each node it selects the unmarked task with the smallest start lower
// bound, ties going to the smallest end lower bound, and branches
// start = lb versus start > lb. A task whose start = lb branch was refuted is
// marked, and stays unselectable until its lower bound moves past the date
// it was postponed from.
//
// As a propagator it fails the node when no task can be selected while some
// start is still free: every remaining task has been postponed without any
// event that could justify it.
type SetTimes struct {
	starts    []*cp.IntVar
	durations []int
	notMarked int
	lastStart []*cp.StateInt

	log     logrus.FieldLogger
	metrics *Metrics
}

// NewSetTimes builds the rule over the given start variables.
func NewSetTimes(store *cp.Store, starts []*cp.IntVar, durations []int, opts ...Option) (*SetTimes, error) {
	if store == nil {
		return nil, errors.New("SetTimes: nil store")
	}
	if len(starts) != len(durations) {
		return nil, errors.Wrapf(ErrInvalidInstance, "SetTimes: %d starts for %d durations", len(starts), len(durations))
	}
	o := buildOptions(opts)
	s := &SetTimes{
		starts:    append([]*cp.IntVar(nil), starts...),
		durations: append([]int(nil), durations...),
		lastStart: make([]*cp.StateInt, len(starts)),
		metrics:   o.metrics,
	}
	for i, st := range starts {
		if st == nil {
			return nil, errors.Errorf("SetTimes: nil variable at index %d", i)
		}
		if durations[i] < 0 {
			return nil, errors.Wrapf(ErrInvalidInstance, "SetTimes: durations[%d] must be >= 0", i)
		}
		if i == 0 || st.LB()-1 < s.notMarked {
			s.notMarked = st.LB() - 1
		}
	}
	for i := range s.lastStart {
		s.lastStart[i] = store.MakeInt(s.notMarked)
	}
	s.log = o.logger.WithFields(logrus.Fields{"propagator": s.Name()})
	return s, nil
}

// Name implements cp.Cause.
func (s *SetTimes) Name() string { return "SetTimes" }

func (s *SetTimes) String() string {
	return fmt.Sprintf("SetTimes(n=%d)", len(s.starts))
}

// Marked reports whether task i is currently postponed.
func (s *SetTimes) Marked(i int) bool { return s.lastStart[i].Get() != s.notMarked }

// SelectVariable returns the task to branch on and marks it, or -1 when no
// free task is selectable. The mark is trailed at the current world, so a
// driver calls it before opening the choice point: the mark then survives
// into the start > lb branch.
func (s *SetTimes) SelectVariable() int {
	return s.selectNext(true)
}

// NextDecision returns start[i] < lb+1, i.e. start = lb, for the selected
// task i. Its refutation is start >= lb+1.
func (s *SetTimes) NextDecision() (cp.Decision, bool) {
	i := s.SelectVariable()
	if i < 0 {
		return cp.Decision{}, false
	}
	op := cp.OpLess
	s.metrics.observeDecision(op.String())
	return cp.Decision{Var: s.starts[i], Value: s.starts[i].LB() + 1, Op: op}, true
}

func (s *SetTimes) selectNext(mark bool) int {
	best := -1
	for i, st := range s.starts {
		if st.IsInstantiated() {
			continue
		}
		lb := st.LB()
		if last := s.lastStart[i].Get(); last != s.notMarked && last < lb {
			s.lastStart[i].Set(s.notMarked)
		}
		if s.lastStart[i].Get() != s.notMarked {
			continue
		}
		if best < 0 || lb < s.starts[best].LB() ||
			(lb == s.starts[best].LB() && lb+s.durations[i] < s.starts[best].LB()+s.durations[best]) {
			best = i
		}
	}
	if best >= 0 && mark {
		s.lastStart[best].Set(s.starts[best].LB() + 1)
	}
	return best
}

// Propagate fails when some start is free but no task is selectable.
func (s *SetTimes) Propagate() error {
	err := s.propagate()
	s.metrics.observePropagation(s.Name(), err)
	if err != nil {
		s.log.WithFields(failureFields(err)).Debug("propagation failed")
	}
	return err
}

func (s *SetTimes) propagate() error {
	free := -1
	for i, st := range s.starts {
		if !st.IsInstantiated() {
			free = i
			break
		}
	}
	if free < 0 {
		return nil
	}
	if s.selectNext(false) < 0 {
		return cp.Fail(s, s.starts[free], "every free task is postponed")
	}
	return nil
}

// IsEntailed always reports Satisfied: the rule never rejects a complete
// assignment.
func (s *SetTimes) IsEntailed() cp.Entailment { return cp.Satisfied }
