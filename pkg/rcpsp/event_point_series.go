package rcpsp

import (
	"sort"
	"strings"
)

// GenerateOptions selects which events GenerateEvents emits besides the
// compulsory-part pairs.
type GenerateOptions struct {
	// PossibleReductions emits a PossibleReduction event at slb for every
	// task whose start is not fixed.
	PossibleReductions bool
	// ConditionalStarts emits a ConditionalCompulsoryStart event at sub for
	// every task without a compulsory part.
	ConditionalStarts bool
	// MergeStarts emits a StartCompulsory event at sub for every task,
	// whether or not it has a compulsory part.
	MergeStarts bool
}

// EventPointSeries is a sorted buffer of sweep events consumed from the
// front. The unconsumed suffix is kept sorted by Event.Compare; events with
// equal keys keep their insertion order. The buffer is reused across
// GenerateEvents calls.
type EventPointSeries struct {
	events []Event
	cursor int
}

// NewEventPointSeries preallocates room for maxPerTask events per task.
func NewEventPointSeries(nbTasks, maxPerTask int) *EventPointSeries {
	return &EventPointSeries{events: make([]Event, 0, nbTasks*maxPerTask)}
}

// GenerateEvents replaces the content of the series with the events of the
// first n tasks. A task has a compulsory part when sub[i] < elb[i]. slb is
// only read when opts.PossibleReductions is set.
func (s *EventPointSeries) GenerateEvents(n int, slb, sub, elb []int, opts GenerateOptions) {
	s.events = s.events[:0]
	s.cursor = 0
	for i := 0; i < n; i++ {
		if opts.PossibleReductions && slb[i] < sub[i] {
			s.events = append(s.events, Event{PossibleReduction, i, slb[i]})
		}
		switch {
		case opts.MergeStarts:
			s.events = append(s.events, Event{StartCompulsory, i, sub[i]})
			if sub[i] < elb[i] {
				s.events = append(s.events, Event{EndCompulsory, i, elb[i]})
			}
		case sub[i] < elb[i]:
			s.events = append(s.events,
				Event{StartCompulsory, i, sub[i]},
				Event{EndCompulsory, i, elb[i]},
			)
		case opts.ConditionalStarts:
			s.events = append(s.events, Event{ConditionalCompulsoryStart, i, sub[i]})
		}
	}
	sort.SliceStable(s.events, func(a, b int) bool { return s.events[a].Compare(s.events[b]) < 0 })
}

// IsEmpty reports whether every event has been consumed.
func (s *EventPointSeries) IsEmpty() bool { return s.cursor >= len(s.events) }

// Len returns the number of unconsumed events.
func (s *EventPointSeries) Len() int { return len(s.events) - s.cursor }

// Peek returns the next event without consuming it. The series must not be
// empty.
func (s *EventPointSeries) Peek() Event { return s.events[s.cursor] }

// Pop consumes and returns the next event. The series must not be empty.
func (s *EventPointSeries) Pop() Event {
	e := s.events[s.cursor]
	s.cursor++
	return e
}

// AddEvent inserts an event into the unconsumed suffix at its sorted
// position.
func (s *EventPointSeries) AddEvent(kind EventKind, task, date int) {
	s.events = append(s.events, Event{kind, task, date})
	for pos := len(s.events) - 1; pos > s.cursor && s.events[pos-1].Compare(s.events[pos]) > 0; pos-- {
		s.events[pos-1], s.events[pos] = s.events[pos], s.events[pos-1]
	}
}

// UpdateEvent moves the first unconsumed event of the given kind and task to
// a new date and restores the order by bubbling it in either direction. It
// reports whether such an event was found.
func (s *EventPointSeries) UpdateEvent(kind EventKind, task, date int) bool {
	pos := s.cursor
	for pos < len(s.events) && (s.events[pos].Kind != kind || s.events[pos].Task != task) {
		pos++
	}
	if pos == len(s.events) {
		return false
	}
	s.events[pos].Date = date
	for pos > s.cursor && s.events[pos-1].Compare(s.events[pos]) > 0 {
		s.events[pos-1], s.events[pos] = s.events[pos], s.events[pos-1]
		pos--
	}
	for pos < len(s.events)-1 && s.events[pos].Compare(s.events[pos+1]) > 0 {
		s.events[pos], s.events[pos+1] = s.events[pos+1], s.events[pos]
		pos++
	}
	return true
}

// UpdateCompulsoryPartEvents moves both compulsory-part events of task to
// the current sub and elb, if the task still has a compulsory part.
func (s *EventPointSeries) UpdateCompulsoryPartEvents(task int, sub, elb []int) {
	if sub[task] < elb[task] {
		s.UpdateEvent(StartCompulsory, task, sub[task])
		s.UpdateEvent(EndCompulsory, task, elb[task])
	}
}

// NextDate returns the first date strictly after the date of the next
// event, or that date itself when no later event exists. The series must
// not be empty.
func (s *EventPointSeries) NextDate() int {
	date := s.events[s.cursor].Date
	for pos := s.cursor; pos < len(s.events); pos++ {
		if s.events[pos].Date != date {
			return s.events[pos].Date
		}
	}
	return date
}

func (s *EventPointSeries) String() string {
	var sb strings.Builder
	sb.WriteString("EventPointSeries[")
	for pos := s.cursor; pos < len(s.events); pos++ {
		if pos > s.cursor {
			sb.WriteByte(',')
		}
		sb.WriteString(s.events[pos].String())
	}
	sb.WriteByte(']')
	return sb.String()
}
