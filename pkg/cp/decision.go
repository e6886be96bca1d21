package cp

import "fmt"

// DecisionOp is the branching operator of a binary decision.
type DecisionOp uint8

const (
	// OpGreaterOrEqual branches x >= v and is refuted by x < v.
	OpGreaterOrEqual DecisionOp = iota
	// OpLess branches x < v and is refuted by x >= v.
	OpLess
)

func (op DecisionOp) String() string {
	if op == OpLess {
		return "<"
	}
	return ">="
}

// Decision is one binary branching decision on an integer variable.
type Decision struct {
	Var   *IntVar
	Value int
	Op    DecisionOp
}

// Name implements Cause so that decision mutations are attributed.
func (d Decision) Name() string { return "decision " + d.String() }

// Apply posts the decision on its variable.
func (d Decision) Apply() error {
	return d.post(d.Op)
}

// Refute posts the negation of the decision.
func (d Decision) Refute() error {
	if d.Op == OpLess {
		return d.post(OpGreaterOrEqual)
	}
	return d.post(OpLess)
}

func (d Decision) post(op DecisionOp) error {
	var err error
	if op == OpLess {
		_, err = d.Var.UpdateUpperBound(d.Value-1, d)
	} else {
		_, err = d.Var.UpdateLowerBound(d.Value, d)
	}
	return err
}

func (d Decision) String() string {
	if d.Var == nil {
		return fmt.Sprintf("? %s %d", d.Op, d.Value)
	}
	return fmt.Sprintf("%s %s %d", d.Var.name, d.Op, d.Value)
}

// DecisionPath is the read-only view of the search path offered to search
// heuristics.
type DecisionPath interface {
	// LastDecision returns the decision most recently taken.
	LastDecision() (Decision, bool)
	// DecisionCount returns the number of decisions taken so far.
	DecisionCount() int64
}

// Path is a stack-backed DecisionPath for drivers and tests.
type Path struct {
	stack []Decision
	count int64
}

// NewPath returns an empty path.
func NewPath() *Path { return &Path{} }

// Push records a new decision and bumps the decision count.
func (p *Path) Push(d Decision) {
	p.stack = append(p.stack, d)
	p.count++
}

// Pop removes the most recent decision. The decision count is not rewound.
func (p *Path) Pop() (Decision, bool) {
	if len(p.stack) == 0 {
		return Decision{}, false
	}
	d := p.stack[len(p.stack)-1]
	p.stack = p.stack[:len(p.stack)-1]
	return d, true
}

// Depth returns the number of decisions on the path.
func (p *Path) Depth() int { return len(p.stack) }

// LastDecision implements DecisionPath.
func (p *Path) LastDecision() (Decision, bool) {
	if len(p.stack) == 0 {
		return Decision{}, false
	}
	return p.stack[len(p.stack)-1], true
}

// DecisionCount implements DecisionPath.
func (p *Path) DecisionCount() int64 { return p.count }
