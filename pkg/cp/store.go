// Package cp provides the host-side primitives that the scheduling
// propagators in package rcpsp are written against: bounded integer
// variables, trailed scalar cells, a failure signal and a decision-path hook.
//
// It deliberately stops short of a constraint engine. There is no constraint
// store, no propagation queue and no search loop; a driver owns those and
// calls the propagators directly.
//
// # Trail
//
// Every mutation of a variable or of a StateInt/StateBool cell records the
// previous value on the Store's trail. WorldPush opens a choice point and
// WorldPop replays the trail in reverse back to the matching push:
//
//	store := cp.NewStore()
//	x := store.MustIntVar("x", 0, 10)
//	store.WorldPush()
//	x.UpdateLowerBound(4, nil) // x = [4,10]
//	store.WorldPop()           // x = [0,10]
//
// A Store is not safe for concurrent use; a search runs on one goroutine.
package cp

import (
	"github.com/pkg/errors"
)

type trailKind uint8

const (
	trailVar trailKind = iota
	trailInt
	trailBool
)

// trailEntry records one undoable change. Only the fields relevant to kind
// are meaningful.
type trailEntry struct {
	kind     trailKind
	v        *IntVar
	lb, ub   int
	size     int
	removed  int // domain offset of a removed value, -1 for bound changes
	icell    *StateInt
	prevInt  int
	bcell    *StateBool
	prevBool bool
}

// Store owns the undo trail shared by variables and scalar cells.
type Store struct {
	trail  []trailEntry
	worlds []int
	vars   []*IntVar
}

// NewStore creates an empty store at world 0.
func NewStore() *Store {
	return &Store{
		trail:  make([]trailEntry, 0, 1024),
		worlds: make([]int, 0, 64),
	}
}

// WorldPush opens a new choice point and returns the new world index.
func (s *Store) WorldPush() int {
	s.worlds = append(s.worlds, len(s.trail))
	return len(s.worlds)
}

// WorldPop undoes every change recorded since the last WorldPush.
func (s *Store) WorldPop() error {
	if len(s.worlds) == 0 {
		return errors.New("cp: WorldPop at root world")
	}
	to := s.worlds[len(s.worlds)-1]
	s.worlds = s.worlds[:len(s.worlds)-1]
	s.undo(to)
	return nil
}

// WorldIndex returns the number of open choice points.
func (s *Store) WorldIndex() int { return len(s.worlds) }

// TrailSize returns the number of recorded changes.
func (s *Store) TrailSize() int { return len(s.trail) }

// Vars returns the variables created by this store, in creation order.
func (s *Store) Vars() []*IntVar { return s.vars }

func (s *Store) undo(to int) {
	for i := len(s.trail) - 1; i >= to; i-- {
		e := &s.trail[i]
		switch e.kind {
		case trailVar:
			e.v.lb, e.v.ub, e.v.size = e.lb, e.ub, e.size
			if e.removed >= 0 {
				e.v.dom.Add(e.removed)
			}
			e.v = nil
		case trailInt:
			e.icell.value = e.prevInt
			e.icell = nil
		case trailBool:
			e.bcell.value = e.prevBool
			e.bcell = nil
		}
	}
	s.trail = s.trail[:to]
}

func (s *Store) recordVar(v *IntVar, removed int) {
	if len(s.worlds) == 0 {
		// Root-level changes are permanent.
		return
	}
	s.trail = append(s.trail, trailEntry{kind: trailVar, v: v, lb: v.lb, ub: v.ub, size: v.size, removed: removed})
}

// StateInt is an integer cell restored automatically on WorldPop.
type StateInt struct {
	store *Store
	value int
}

// MakeInt creates a trailed integer cell.
func (s *Store) MakeInt(initial int) *StateInt {
	return &StateInt{store: s, value: initial}
}

// Get returns the current value.
func (c *StateInt) Get() int { return c.value }

// Set stores v, recording the previous value when inside a choice point.
func (c *StateInt) Set(v int) {
	if v == c.value {
		return
	}
	if len(c.store.worlds) > 0 {
		c.store.trail = append(c.store.trail, trailEntry{kind: trailInt, icell: c, prevInt: c.value})
	}
	c.value = v
}

// Add increments the cell by delta and returns the new value.
func (c *StateInt) Add(delta int) int {
	c.Set(c.value + delta)
	return c.value
}

// StateBool is a boolean cell restored automatically on WorldPop.
type StateBool struct {
	store *Store
	value bool
}

// MakeBool creates a trailed boolean cell.
func (s *Store) MakeBool(initial bool) *StateBool {
	return &StateBool{store: s, value: initial}
}

// Get returns the current value.
func (c *StateBool) Get() bool { return c.value }

// Set stores v, recording the previous value when inside a choice point.
func (c *StateBool) Set(v bool) {
	if v == c.value {
		return
	}
	if len(c.store.worlds) > 0 {
		c.store.trail = append(c.store.trail, trailEntry{kind: trailBool, bcell: c, prevBool: c.value})
	}
	c.value = v
}
