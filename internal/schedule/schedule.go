// Package schedule places tasks backwards from a deadline on a working-day
// calendar.
package schedule

import (
	"fmt"
	"slices"

	"github.com/twiced-technology-gmbh/backplan/internal/calendar"
	"github.com/twiced-technology-gmbh/backplan/internal/date"
	"github.com/twiced-technology-gmbh/backplan/internal/graph"
	"github.com/twiced-technology-gmbh/backplan/internal/task"
)

// Anchor decides where terminal tasks end relative to the deadline.
type Anchor string

const (
	// AnchorLiteral ends terminal tasks on the deadline even when it is a
	// non-working day.
	AnchorLiteral Anchor = "literal"
	// AnchorPreviousWorkingDay ends terminal tasks on the last working day
	// on or before the deadline.
	AnchorPreviousWorkingDay Anchor = "previous-working-day"
)

// Anchors lists the accepted anchor policies.
var Anchors = []Anchor{AnchorLiteral, AnchorPreviousWorkingDay}

// ParseAnchor validates s as an anchor policy. Empty means AnchorLiteral.
func ParseAnchor(s string) (Anchor, error) {
	if s == "" {
		return AnchorLiteral, nil
	}
	a := Anchor(s)
	if !slices.Contains(Anchors, a) {
		return "", fmt.Errorf("unknown deadline anchor %q (want %s or %s)", s, AnchorLiteral, AnchorPreviousWorkingDay)
	}
	return a, nil
}

// Options tune a Scheduler.
type Options struct {
	Anchor Anchor
	// MaxPasses caps the resolution passes; zero means task count + 1.
	MaxPasses int
}

// Scheduler computes task dates. It holds no state between calls.
type Scheduler struct {
	opts Options
}

// New returns a scheduler with the given options.
func New(opts Options) *Scheduler {
	if opts.Anchor == "" {
		opts.Anchor = AnchorLiteral
	}
	return &Scheduler{opts: opts}
}

// Options returns the scheduler's effective options.
func (s *Scheduler) Options() Options { return s.opts }

// Result is the outcome of one scheduling run.
type Result struct {
	// Tasks are copies of the input with Start and End set, listed in Order.
	Tasks []*task.Task `json:"tasks"`
	// Start is the earliest task start, nil when there are no tasks.
	Start *date.Date `json:"start,omitempty"`
	// End is the date terminal tasks were anchored to.
	End date.Date `json:"end"`
	// Order lists task ids dependencies first, ties by start date then id.
	Order []int `json:"order"`
	// Passes is the number of resolution passes used.
	Passes int `json:"-"`
}

// Task returns the scheduled copy of the task with id, or nil.
func (r *Result) Task(id int) *task.Task {
	return task.ByID(r.Tasks, id)
}

// Schedule computes Start and End for every task so that each terminal task
// ends on the anchored deadline and every other task ends on the working day
// before its earliest successor starts. The input is never modified.
func (s *Scheduler) Schedule(tasks []*task.Task, deadline date.Date, cal calendar.Calendar) (*Result, error) {
	for _, t := range tasks {
		if t.Duration < 1 {
			return nil, fmt.Errorf("task %d: %w, got %d", t.ID, ErrInvalidDuration, t.Duration)
		}
	}

	g, err := graph.Build(tasks)
	if err != nil {
		return nil, err
	}

	end, err := s.anchor(deadline, cal)
	if err != nil {
		return nil, schedulingError(0, err, "anchoring deadline %s", deadline)
	}

	byID := make(map[int]*task.Task, len(tasks))
	for _, t := range tasks {
		c := t.Clone()
		c.ClearDates()
		byID[c.ID] = c
	}

	passes, err := s.resolve(g, byID, end, cal)
	if err != nil {
		return nil, err
	}

	res := &Result{End: end, Passes: passes}
	for _, t := range byID {
		if res.Start == nil || t.Start.Before(*res.Start) {
			res.Start = t.Start.Ptr()
		}
	}

	res.Order = g.OrderBy(func(a, b int) bool {
		if c := byID[a].Start.Compare(*byID[b].Start); c != 0 {
			return c < 0
		}
		return a < b
	})
	res.Tasks = make([]*task.Task, 0, len(res.Order))
	for _, id := range res.Order {
		res.Tasks = append(res.Tasks, byID[id])
	}
	return res, nil
}

func (s *Scheduler) anchor(deadline date.Date, cal calendar.Calendar) (date.Date, error) {
	if s.opts.Anchor == AnchorPreviousWorkingDay {
		return cal.PreviousWorkingDay(deadline)
	}
	return deadline, nil
}

// resolve runs fixed-point passes in ascending id order. A task resolves
// once every successor has a start date. It returns the passes used.
func (s *Scheduler) resolve(g *graph.Graph, byID map[int]*task.Task, end date.Date, cal calendar.Calendar) (int, error) {
	maxPasses := s.opts.MaxPasses
	if maxPasses <= 0 {
		maxPasses = g.Len() + 1
	}

	ids := g.IDs()
	remaining := len(ids)
	passes := 0
	for remaining > 0 {
		if passes >= maxPasses {
			return passes, schedulingError(0, nil, "%d tasks unresolved after %d passes", remaining, passes)
		}
		passes++

		progressed := false
		for _, id := range ids {
			t := byID[id]
			if t.Start != nil {
				continue
			}
			taskEnd, ok, err := endFor(g, byID, id, end, cal)
			if err != nil {
				return passes, schedulingError(id, err, "computing end date")
			}
			if !ok {
				continue
			}
			start, err := cal.SubtractWorkingDays(taskEnd, t.Duration-1)
			if err != nil {
				return passes, schedulingError(id, err, "computing start date")
			}
			t.End = taskEnd.Ptr()
			t.Start = start.Ptr()
			remaining--
			progressed = true
		}
		if !progressed {
			return passes, schedulingError(0, nil, "no progress with %d tasks unresolved", remaining)
		}
	}
	return passes, nil
}

// endFor returns the end date of id, or false while a successor is unresolved.
func endFor(g *graph.Graph, byID map[int]*task.Task, id int, end date.Date, cal calendar.Calendar) (date.Date, bool, error) {
	succ := g.Successors(id)
	if len(succ) == 0 {
		return end, true, nil
	}
	var earliest *date.Date
	for _, sid := range succ {
		st := byID[sid].Start
		if st == nil {
			return date.Date{}, false, nil
		}
		if earliest == nil || st.Before(*earliest) {
			earliest = st
		}
	}
	d, err := cal.SubtractWorkingDays(*earliest, 1)
	if err != nil {
		return date.Date{}, false, err
	}
	return d, true, nil
}
