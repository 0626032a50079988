// Package task holds the task model, its validation rules and the
// markdown-with-frontmatter file codec.
package task

import (
	"slices"

	"github.com/twiced-technology-gmbh/backplan/internal/date"
)

// Task is a unit of work with a duration in working days.
// Start and End are a projection written by the scheduler; they are never
// read back as intent.
type Task struct {
	ID        int        `yaml:"id" json:"id"`
	Name      string     `yaml:"name" json:"name"`
	Duration  int        `yaml:"duration" json:"duration"`
	DependsOn []int      `yaml:"depends_on,omitempty" json:"depends_on"`
	Assignee  string     `yaml:"assignee,omitempty" json:"assignee,omitempty"`
	Start     *date.Date `yaml:"start,omitempty" json:"start,omitempty"`
	End       *date.Date `yaml:"end,omitempty" json:"end,omitempty"`

	// Notes is the markdown content below the frontmatter (not in YAML).
	Notes string `yaml:"-" json:"notes,omitempty"`

	// File is the path to the task file (not in YAML).
	File string `yaml:"-" json:"-"`
}

// Clone returns a deep copy of t.
func (t *Task) Clone() *Task {
	c := *t
	c.DependsOn = slices.Clone(t.DependsOn)
	if t.Start != nil {
		c.Start = t.Start.Ptr()
	}
	if t.End != nil {
		c.End = t.End.Ptr()
	}
	return &c
}

// ClearDates drops the computed projection.
func (t *Task) ClearDates() {
	t.Start = nil
	t.End = nil
}

// DependsOnID reports whether id is one of t's dependencies.
func (t *Task) DependsOnID(id int) bool {
	return slices.Contains(t.DependsOn, id)
}

// CloneAll deep-copies a task list.
func CloneAll(tasks []*Task) []*Task {
	out := make([]*Task, len(tasks))
	for i, t := range tasks {
		out[i] = t.Clone()
	}
	return out
}

// ByID returns the task with the given id, or nil.
func ByID(tasks []*Task, id int) *Task {
	for _, t := range tasks {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// NextID returns one more than the largest id in tasks, or 1 when empty.
func NextID(tasks []*Task) int {
	maxID := 0
	for _, t := range tasks {
		maxID = max(maxID, t.ID)
	}
	return maxID + 1
}
