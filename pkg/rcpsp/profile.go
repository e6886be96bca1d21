// This file provides Profile, the resource-usage step function built from
// compulsory parts, used by the left-shift scheduler to answer "does an
// activity fit from date t" queries.
//
// Layout, for k real breakpoints:
//
//	points:  [ -inf, t1, t2, ..., tk, +inf ]
//	heights: [    0, h1, h2, ...,  0,    0 ]
//
// Segment j, for 0 <= j <= k, covers [points[j], points[j+1]) at height
// heights[j]. Segment 0 and segment k have height 0 when the sweep is
// balanced. Find locates a date's segment by binary search.

package rcpsp

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/gitrdm/gokando-rcpsp/pkg/cp"
)

// Profile is a piecewise-constant resource profile.
type Profile struct {
	points  []int
	heights []int
	k       int
	series  *EventPointSeries
}

// NewProfile returns an empty profile with room for nbTasks compulsory parts.
func NewProfile(nbTasks int) *Profile {
	p := &Profile{
		points:  make([]int, 2, 2*nbTasks+2),
		heights: make([]int, 2, 2*nbTasks+2),
		series:  NewEventPointSeries(nbTasks, 2),
	}
	p.Clear()
	return p
}

// Name implements cp.Cause for contradictions raised while building.
func (p *Profile) Name() string { return "Profile" }

// Clear resets the profile to a single zero-height segment.
func (p *Profile) Clear() {
	p.points = append(p.points[:0], math.MinInt, math.MaxInt)
	p.heights = append(p.heights[:0], 0, 0)
	p.k = 0
}

// Build rebuilds the profile from the compulsory parts [sub[i], elb[i]) of
// the first n tasks, each consuming heights[i], and returns the maximum
// height reached. A negative running height or a sweep that does not return
// to zero is reported as a contradiction.
func (p *Profile) Build(n int, sub, elb, heights []int) (int, error) {
	p.points = append(p.points[:0], math.MinInt)
	p.heights = append(p.heights[:0], 0)
	p.series.GenerateEvents(n, nil, sub, elb, GenerateOptions{})

	maxHeight, h := 0, 0
	for !p.series.IsEmpty() {
		date := p.series.Peek().Date
		for !p.series.IsEmpty() && p.series.Peek().Date == date {
			e := p.series.Pop()
			if e.Kind == StartCompulsory {
				h += heights[e.Task]
			} else {
				h -= heights[e.Task]
			}
		}
		if h < 0 {
			p.Clear()
			return 0, cp.Fail(p, nil, "negative height %d at %d", h, date)
		}
		p.points = append(p.points, date)
		p.heights = append(p.heights, h)
		if h > maxHeight {
			maxHeight = h
		}
	}
	if h != 0 {
		p.Clear()
		return 0, cp.Fail(p, nil, "unbalanced sweep ends at height %d", h)
	}
	p.k = len(p.points) - 1
	p.points = append(p.points, math.MaxInt)
	p.heights = append(p.heights, 0)
	return maxHeight, nil
}

// Size returns the number of real breakpoints; segments are indexed
// 0..Size().
func (p *Profile) Size() int { return p.k }

// Start returns the first date of segment j.
func (p *Profile) Start(j int) int { return p.points[j] }

// End returns the first date after segment j.
func (p *Profile) End(j int) int { return p.points[j+1] }

// Height returns the height of segment j.
func (p *Profile) Height(j int) int { return p.heights[j] }

// Find returns the segment containing date.
func (p *Profile) Find(date int) int {
	return sort.Search(p.k+1, func(i int) bool { return p.points[i] > date }) - 1
}

// FitsFrom reports whether an activity of the given duration and height can
// run from date on without exceeding capacity. j must be Find(date). The
// check walks consecutive segments until the activity's end is covered.
func (p *Profile) FitsFrom(date, j, duration, height, capacity int) bool {
	if duration <= 0 {
		return true
	}
	end := date + duration
	for ; ; j++ {
		if p.heights[j]+height > capacity {
			return false
		}
		if j == p.k || p.points[j+1] >= end {
			return true
		}
	}
}

// CanBePlacedAt reports whether the activity fits when started at the
// beginning of segment j.
func (p *Profile) CanBePlacedAt(j, duration, height, capacity int) bool {
	return p.FitsFrom(p.points[j], j, duration, height, capacity)
}

func formatDate(d int) string {
	switch d {
	case math.MinInt:
		return "-inf"
	case math.MaxInt:
		return "+inf"
	}
	return fmt.Sprint(d)
}

func (p *Profile) String() string {
	var sb strings.Builder
	sb.WriteString("Profile[")
	for j := 0; j <= p.k; j++ {
		if j > 0 {
			sb.WriteByte(',')
		}
		fmt.Fprintf(&sb, "<%s,%s,%d>", formatDate(p.points[j]), formatDate(p.points[j+1]), p.heights[j])
	}
	sb.WriteByte(']')
	return sb.String()
}
