// This file provides FailureDirectedSearch, a branching heuristic that
// prefers the decisions whose branches fail most often or shrink the search
// space the most.
//
// Every value of every variable carries a positive and a negative rating,
// the decayed average of the local ratings observed after taking the
// branches x >= value and x < value. A local rating is 0 when the branch
// fails and 1 + size after / size before otherwise, where the size is the
// product of the domain sizes. Local ratings are normalised by the running
// average of the ratings observed at the same decision count.
//
// Values of a variable are split into unresolved values, which still yield
// a meaningful decision (lb < value <= ub), and resolved ones. The split is
// re-synchronised with the current domains before each selection and after
// each branch, so it follows backtracks.

package rcpsp

import (
	"container/heap"
	"math"

	"github.com/gitrdm/gokando-rcpsp/pkg/cp"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Rating is the learned rating of one value of a variable.
type Rating struct {
	Value    int
	Positive float64
	Negative float64

	index int
}

// Total returns Positive + Negative.
func (r Rating) Total() float64 { return r.Positive + r.Negative }

// ratingHeap orders ratings by total, then by value.
type ratingHeap []*Rating

func (h ratingHeap) Len() int { return len(h) }
func (h ratingHeap) Less(i, j int) bool {
	ti, tj := h[i].Total(), h[j].Total()
	if ti != tj {
		return ti < tj
	}
	return h[i].Value < h[j].Value
}
func (h ratingHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}
func (h *ratingHeap) Push(x interface{}) {
	r := x.(*Rating)
	r.index = len(*h)
	*h = append(*h, r)
}
func (h *ratingHeap) Pop() interface{} {
	old := *h
	n := len(old)
	r := old[n-1]
	old[n-1] = nil
	r.index = -1
	*h = old[:n-1]
	return r
}

type varRating struct {
	v          *cp.IntVar
	ratings    map[int]*Rating
	unresolved ratingHeap
	resolved   []*Rating
}

// sync moves every value in (lb, ub] to the unresolved heap and every other
// value to the resolved list.
func (vr *varRating) sync() {
	lb, ub := vr.v.LB(), vr.v.UB()
	all := make([]*Rating, 0, len(vr.resolved)+len(vr.unresolved))
	all = append(all, vr.resolved...)
	all = append(all, vr.unresolved...)
	vr.unresolved, vr.resolved = vr.unresolved[:0], vr.resolved[:0]
	for _, r := range all {
		if lb < r.Value && r.Value <= ub {
			vr.unresolved = append(vr.unresolved, r)
		} else {
			vr.resolved = append(vr.resolved, r)
		}
	}
	for i, r := range vr.unresolved {
		r.index = i
	}
	heap.Init(&vr.unresolved)
}

func (vr *varRating) best() *Rating {
	if len(vr.unresolved) == 0 {
		return nil
	}
	return vr.unresolved[0]
}

// FailureDirectedSearch selects decisions from learned ratings. It also
// acts as a search monitor: the driver reports every branch through
// BeforeDownBranch, OnContradiction and AfterDownBranch.
type FailureDirectedSearch struct {
	vars    []*cp.IntVar
	initial [][]int
	path    cp.DecisionPath
	decay   float64

	ratings []*varRating
	index   map[*cp.IntVar]*varRating
	// avg[k] accumulates the sum and count of the ratings updated at
	// decision count k.
	avg    map[int64]*[2]float64
	failed bool
	before float64

	log     logrus.FieldLogger
	metrics *Metrics
}

// NewFailureDirectedSearch rates every value of vars except the current
// lower bound. The decay factor, set with WithDecay, must lie in (0, 1).
func NewFailureDirectedSearch(vars []*cp.IntVar, path cp.DecisionPath, opts ...Option) (*FailureDirectedSearch, error) {
	if path == nil {
		return nil, errors.New("FailureDirectedSearch: nil decision path")
	}
	o := buildOptions(opts)
	if !(o.decay > 0 && o.decay < 1) {
		return nil, errors.Errorf("FailureDirectedSearch: decay %v must lie in (0, 1)", o.decay)
	}
	f := &FailureDirectedSearch{
		vars:    append([]*cp.IntVar(nil), vars...),
		initial: make([][]int, len(vars)),
		path:    path,
		decay:   o.decay,
		metrics: o.metrics,
	}
	for i, v := range vars {
		if v == nil {
			return nil, errors.Errorf("FailureDirectedSearch: nil variable at index %d", i)
		}
		f.initial[i] = v.Values()
	}
	f.log = o.logger.WithFields(logrus.Fields{"strategy": "FailureDirectedSearch"})
	f.Init()
	return f, nil
}

// Init forgets every learned rating and average, resetting all ratings to
// (1, 1) over the domains the variables had at construction.
func (f *FailureDirectedSearch) Init() {
	f.ratings = make([]*varRating, len(f.vars))
	f.index = make(map[*cp.IntVar]*varRating, len(f.vars))
	f.avg = make(map[int64]*[2]float64)
	f.failed = false
	f.before = 0
	for i, v := range f.vars {
		vr := &varRating{v: v, ratings: make(map[int]*Rating)}
		values := f.initial[i]
		// the smallest value gives no decision: x >= lb is a no-op
		for _, val := range values[1:] {
			r := &Rating{Value: val, Positive: 1, Negative: 1}
			vr.ratings[val] = r
			vr.unresolved = append(vr.unresolved, r)
		}
		vr.sync()
		f.ratings[i] = vr
		f.index[v] = vr
	}
}

// Rating returns the current rating of value for v.
func (f *FailureDirectedSearch) Rating(v *cp.IntVar, value int) (Rating, bool) {
	vr, ok := f.index[v]
	if !ok {
		return Rating{}, false
	}
	r, ok := vr.ratings[value]
	if !ok {
		return Rating{}, false
	}
	return *r, true
}

// NextDecision returns the decision on the uninstantiated variable whose
// best unresolved value has the lowest total rating, ties going to the first
// variable. The branch with the lower rating is taken first. It returns
// false when every variable is instantiated.
func (f *FailureDirectedSearch) NextDecision() (cp.Decision, bool) {
	var chosen *varRating
	for _, vr := range f.ratings {
		vr.sync()
		if vr.v.IsInstantiated() {
			continue
		}
		r := vr.best()
		if r == nil {
			continue
		}
		if chosen == nil || r.Total() < chosen.best().Total() {
			chosen = vr
		}
	}
	if chosen == nil {
		return cp.Decision{}, false
	}
	r := heap.Pop(&chosen.unresolved).(*Rating)
	chosen.resolved = append(chosen.resolved, r)

	op := cp.OpGreaterOrEqual
	if r.Positive > r.Negative {
		op = cp.OpLess
	}
	d := cp.Decision{Var: chosen.v, Value: r.Value, Op: op}
	f.metrics.observeDecision(op.String())
	f.log.WithFields(logrus.Fields{"decision": d.String(), "positive": r.Positive, "negative": r.Negative}).Debug("decision selected")
	return d, true
}

// BeforeDownBranch records the search space size before a branch is taken.
func (f *FailureDirectedSearch) BeforeDownBranch(left bool) {
	f.failed = false
	f.before = f.logSpace()
}

// OnContradiction marks the current branch as failed.
func (f *FailureDirectedSearch) OnContradiction(err error) {
	f.failed = true
}

// AfterDownBranch rates the branch that was just taken: the decision itself
// when left is true, its refutation otherwise.
func (f *FailureDirectedSearch) AfterDownBranch(left bool) {
	defer f.syncAll()
	d, ok := f.path.LastDecision()
	if !ok {
		return
	}
	vr, ok := f.index[d.Var]
	if !ok {
		return
	}
	r, ok := vr.ratings[d.Value]
	if !ok {
		return
	}

	local := 0.0
	if !f.failed {
		local = 1 + math.Exp(f.logSpace()-f.before)
	}
	count := f.path.DecisionCount()
	a, ok := f.avg[count]
	if !ok {
		a = &[2]float64{1, 1}
		f.avg[count] = a
	}
	mean := a[0] / a[1]

	positive := (d.Op == cp.OpGreaterOrEqual) == left
	rating := &r.Negative
	if positive {
		rating = &r.Positive
	}
	*rating = f.decay**rating + (1-f.decay)*local/mean
	a[0] += *rating
	a[1]++
}

func (f *FailureDirectedSearch) syncAll() {
	for _, vr := range f.ratings {
		vr.sync()
	}
}

// logSpace returns the log of the product of the domain sizes.
func (f *FailureDirectedSearch) logSpace() float64 {
	s := 0.0
	for _, v := range f.vars {
		s += math.Log(float64(v.Size()))
	}
	return s
}
