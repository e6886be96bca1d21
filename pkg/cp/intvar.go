package cp

import (
	"fmt"
	"math"

	"github.com/gitrdm/gokando-rcpsp/internal/bitset"
	"github.com/pkg/errors"
)

// IntVar is a bounded integer variable with an optional sparse domain.
//
// The domain is the interval [LB, UB] minus any values removed with
// RemoveValue. Holes are kept in a bitset over the initial interval that is
// only allocated on the first removal, so pure bound variables (the start
// times of a schedule) cost three integers.
//
// Mutators return (changed, err). A mutation that would empty the domain
// returns a *Contradiction and leaves the variable untouched.
type IntVar struct {
	store  *Store
	id     int
	name   string
	offset int // initial lower bound; dom index i stands for offset+i
	width  int
	lb, ub int
	size   int
	dom    *bitset.Set
}

// NewIntVar creates a variable with domain [lb, ub].
func (s *Store) NewIntVar(name string, lb, ub int) (*IntVar, error) {
	if lb > ub {
		return nil, errors.Errorf("cp: variable %q has empty initial domain [%d,%d]", name, lb, ub)
	}
	v := &IntVar{
		store:  s,
		id:     len(s.vars),
		name:   name,
		offset: lb,
		width:  ub - lb + 1,
		lb:     lb,
		ub:     ub,
		size:   ub - lb + 1,
	}
	s.vars = append(s.vars, v)
	return v, nil
}

// MustIntVar is NewIntVar that panics on an empty initial domain.
func (s *Store) MustIntVar(name string, lb, ub int) *IntVar {
	v, err := s.NewIntVar(name, lb, ub)
	if err != nil {
		panic(err)
	}
	return v
}

// NewIntVarFromValues creates a variable whose domain is exactly values.
func (s *Store) NewIntVarFromValues(name string, values []int) (*IntVar, error) {
	if len(values) == 0 {
		return nil, errors.Errorf("cp: variable %q has no values", name)
	}
	lo, hi := values[0], values[0]
	for _, x := range values[1:] {
		lo = min(lo, x)
		hi = max(hi, x)
	}
	v, err := s.NewIntVar(name, lo, hi)
	if err != nil {
		return nil, err
	}
	v.dom = bitset.New(v.width)
	for _, x := range values {
		v.dom.Add(x - lo)
	}
	v.size = v.dom.Len()
	return v, nil
}

// ID returns the creation index of the variable in its store.
func (v *IntVar) ID() int { return v.id }

// Name returns the variable's name.
func (v *IntVar) Name() string { return v.name }

// LB returns the current lower bound.
func (v *IntVar) LB() int { return v.lb }

// UB returns the current upper bound.
func (v *IntVar) UB() int { return v.ub }

// Size returns the number of values left in the domain.
func (v *IntVar) Size() int { return v.size }

// IsInstantiated reports whether a single value is left.
func (v *IntVar) IsInstantiated() bool { return v.lb == v.ub }

// Value returns the lower bound; it is the value once IsInstantiated holds.
func (v *IntVar) Value() int { return v.lb }

// Contains reports whether x is in the current domain.
func (v *IntVar) Contains(x int) bool {
	if x < v.lb || x > v.ub {
		return false
	}
	return v.dom == nil || v.dom.Contains(x-v.offset)
}

// NextValue returns the smallest domain value strictly greater than x, or
// math.MaxInt when there is none.
func (v *IntVar) NextValue(x int) int {
	if x < v.lb {
		return v.lb
	}
	if x >= v.ub {
		return math.MaxInt
	}
	if v.dom == nil {
		return x + 1
	}
	i := v.dom.NextSetBit(x + 1 - v.offset)
	if i < 0 || i+v.offset > v.ub {
		return math.MaxInt
	}
	return i + v.offset
}

// PreviousValue returns the largest domain value strictly smaller than x, or
// math.MinInt when there is none.
func (v *IntVar) PreviousValue(x int) int {
	if x > v.ub {
		return v.ub
	}
	if x <= v.lb {
		return math.MinInt
	}
	if v.dom == nil {
		return x - 1
	}
	i := v.dom.PrevSetBit(x - 1 - v.offset)
	if i < 0 || i+v.offset < v.lb {
		return math.MinInt
	}
	return i + v.offset
}

// Values returns the domain in ascending order.
func (v *IntVar) Values() []int {
	out := make([]int, 0, v.size)
	for x := v.lb; x <= v.ub; x = v.NextValue(x) {
		out = append(out, x)
	}
	return out
}

func (v *IntVar) countRange(lb, ub int) int {
	if v.dom == nil {
		return ub - lb + 1
	}
	return v.dom.CountRange(lb-v.offset, ub-v.offset)
}

// UpdateLowerBound raises the lower bound to the smallest domain value >= x.
func (v *IntVar) UpdateLowerBound(x int, cause Cause) (bool, error) {
	if x <= v.lb {
		return false, nil
	}
	if x > v.ub {
		return false, Fail(cause, v, "lower bound %d above upper bound %d", x, v.ub)
	}
	nlb := x
	if !v.Contains(x) {
		nlb = v.NextValue(x)
		if nlb > v.ub {
			return false, Fail(cause, v, "no value left at or above %d", x)
		}
	}
	v.store.recordVar(v, -1)
	v.lb = nlb
	v.size = v.countRange(v.lb, v.ub)
	return true, nil
}

// UpdateUpperBound lowers the upper bound to the largest domain value <= x.
func (v *IntVar) UpdateUpperBound(x int, cause Cause) (bool, error) {
	if x >= v.ub {
		return false, nil
	}
	if x < v.lb {
		return false, Fail(cause, v, "upper bound %d below lower bound %d", x, v.lb)
	}
	nub := x
	if !v.Contains(x) {
		nub = v.PreviousValue(x)
		if nub < v.lb {
			return false, Fail(cause, v, "no value left at or below %d", x)
		}
	}
	v.store.recordVar(v, -1)
	v.ub = nub
	v.size = v.countRange(v.lb, v.ub)
	return true, nil
}

// UpdateBounds intersects the domain with [lb, ub].
func (v *IntVar) UpdateBounds(lb, ub int, cause Cause) (bool, error) {
	if lb > ub || lb > v.ub || ub < v.lb {
		return false, Fail(cause, v, "bounds [%d,%d] disjoint from [%d,%d]", lb, ub, v.lb, v.ub)
	}
	changedLB, err := v.UpdateLowerBound(lb, cause)
	if err != nil {
		return false, err
	}
	changedUB, err := v.UpdateUpperBound(ub, cause)
	if err != nil {
		return false, err
	}
	return changedLB || changedUB, nil
}

// InstantiateTo fixes the variable to x.
func (v *IntVar) InstantiateTo(x int, cause Cause) (bool, error) {
	if !v.Contains(x) {
		return false, Fail(cause, v, "cannot instantiate to %d", x)
	}
	if v.IsInstantiated() {
		return false, nil
	}
	v.store.recordVar(v, -1)
	v.lb, v.ub, v.size = x, x, 1
	return true, nil
}

// RemoveValue removes x from the domain.
func (v *IntVar) RemoveValue(x int, cause Cause) (bool, error) {
	if !v.Contains(x) {
		return false, nil
	}
	if v.size == 1 {
		return false, Fail(cause, v, "removing last value %d", x)
	}
	if x == v.lb {
		return v.UpdateLowerBound(x+1, cause)
	}
	if x == v.ub {
		return v.UpdateUpperBound(x-1, cause)
	}
	if v.dom == nil {
		v.dom = bitset.Full(v.width)
	}
	v.store.recordVar(v, x-v.offset)
	v.dom.Remove(x - v.offset)
	v.size--
	return true, nil
}

// String renders the variable as name = [lb,ub] or name = value.
func (v *IntVar) String() string {
	if v.IsInstantiated() {
		return fmt.Sprintf("%s = %d", v.name, v.lb)
	}
	if v.size == v.ub-v.lb+1 {
		return fmt.Sprintf("%s = [%d,%d]", v.name, v.lb, v.ub)
	}
	return fmt.Sprintf("%s = %v", v.name, v.Values())
}
