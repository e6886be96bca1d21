package cp

import (
	"fmt"

	"github.com/pkg/errors"
)

// Cause identifies the propagator or decision a mutation is attributed to.
type Cause interface {
	Name() string
}

// ErrContradiction matches every *Contradiction under errors.Is.
var ErrContradiction = errors.New("contradiction")

// Contradiction is the failure signal: a domain wipe-out or any other
// detected inconsistency. The host unwinds to the nearest choice point when
// it sees one; propagators return it unchanged.
type Contradiction struct {
	Cause string // propagator name, "external" when unattributed
	Var   string // variable involved, empty when none
	Msg   string
}

// Fail builds a contradiction attributed to cause on variable v (which may
// be nil).
func Fail(cause Cause, v *IntVar, format string, args ...interface{}) *Contradiction {
	c := &Contradiction{Cause: CauseName(cause), Msg: fmt.Sprintf(format, args...)}
	if v != nil {
		c.Var = v.name
	}
	return c
}

func (c *Contradiction) Error() string {
	if c.Var == "" {
		return fmt.Sprintf("contradiction (%s): %s", c.Cause, c.Msg)
	}
	return fmt.Sprintf("contradiction (%s) on %s: %s", c.Cause, c.Var, c.Msg)
}

// Is makes errors.Is(err, ErrContradiction) hold.
func (c *Contradiction) Is(target error) bool { return target == ErrContradiction }

// IsContradiction reports whether err is, or wraps, a contradiction.
func IsContradiction(err error) bool { return errors.Is(err, ErrContradiction) }

// CauseName returns cause.Name(), or "external" for a nil cause.
func CauseName(cause Cause) string {
	if cause == nil {
		return "external"
	}
	return cause.Name()
}

// Entailment is the three-valued answer of a satisfaction check.
type Entailment int8

const (
	// Undefined means the variables are not fixed enough to decide.
	Undefined Entailment = iota
	// Satisfied means every completion satisfies the constraint.
	Satisfied
	// Violated means no completion satisfies the constraint.
	Violated
)

func (e Entailment) String() string {
	switch e {
	case Satisfied:
		return "satisfied"
	case Violated:
		return "violated"
	default:
		return "undefined"
	}
}
