package rcpsp

import "fmt"

// EventKind tags a sweep event. The numeric order is the tie-break between
// events on the same date.
type EventKind uint8

const (
	// StartCompulsory opens the compulsory part of a task.
	StartCompulsory EventKind = iota
	// EndCompulsory closes the compulsory part of a task.
	EndCompulsory
	// ConditionalCompulsoryStart marks where a compulsory part would start
	// if the task's start were pushed.
	ConditionalCompulsoryStart
	// PossibleReduction marks a start lower bound that may still be filtered.
	PossibleReduction
)

func (k EventKind) String() string {
	switch k {
	case StartCompulsory:
		return "SCP"
	case EndCompulsory:
		return "ECP"
	case ConditionalCompulsoryStart:
		return "CCP"
	case PossibleReduction:
		return "PR"
	default:
		return fmt.Sprintf("EventKind(%d)", uint8(k))
	}
}

// Event is one timestamped sweep event for a task.
type Event struct {
	Kind EventKind
	Task int
	Date int
}

// Compare orders events by date, then by kind. It returns a negative number,
// zero or a positive number.
func (e Event) Compare(o Event) int {
	switch {
	case e.Date < o.Date:
		return -1
	case e.Date > o.Date:
		return 1
	}
	return int(e.Kind) - int(o.Kind)
}

func (e Event) String() string {
	return fmt.Sprintf("Event<%s,%d,%d>", e.Kind, e.Task, e.Date)
}
