// Package project holds the project model and the store that keeps its
// computed schedule consistent with every mutation.
package project

import (
	"slices"
	"sort"

	"github.com/google/uuid"

	"github.com/twiced-technology-gmbh/backplan/internal/clierr"
	"github.com/twiced-technology-gmbh/backplan/internal/date"
	"github.com/twiced-technology-gmbh/backplan/internal/task"
)

// Status is the advisory lifecycle state of a project.
type Status string

// Project statuses.
const (
	StatusPlanning   Status = "planning"
	StatusInProgress Status = "inProgress"
	StatusCompleted  Status = "completed"
)

// Statuses lists the accepted statuses.
var Statuses = []Status{StatusPlanning, StatusInProgress, StatusCompleted}

// CustomPreset marks a task list that no longer matches its template.
const CustomPreset = "custom"

// Project is a deadline plus the tasks that must be done by it.
type Project struct {
	ID          uuid.UUID  `yaml:"id" json:"id"`
	Name        string     `yaml:"name" json:"name"`
	Description string     `yaml:"description,omitempty" json:"description,omitempty"`
	Status      Status     `yaml:"status" json:"status"`
	Deadline    date.Date  `yaml:"deadline" json:"deadline"`
	Start       *date.Date `yaml:"start,omitempty" json:"start,omitempty"`
	Preset      string     `yaml:"preset,omitempty" json:"preset,omitempty"`
	Countries   []string   `yaml:"countries,omitempty" json:"countries"`
	NextID      int        `yaml:"next_id" json:"next_id"`

	// Tasks are kept in ascending id order and stored apart from the metadata.
	Tasks []*task.Task `yaml:"-" json:"tasks"`
}

// New returns an empty planning project with a fresh id.
func New(name string, deadline date.Date) *Project {
	return &Project{
		ID:       uuid.New(),
		Name:     name,
		Status:   StatusPlanning,
		Deadline: deadline,
		NextID:   1,
	}
}

// Clone returns a deep copy of p.
func (p *Project) Clone() *Project {
	c := *p
	c.Countries = slices.Clone(p.Countries)
	c.Tasks = task.CloneAll(p.Tasks)
	if p.Start != nil {
		c.Start = p.Start.Ptr()
	}
	return &c
}

// Task returns the task with id, or nil.
func (p *Project) Task(id int) *task.Task {
	return task.ByID(p.Tasks, id)
}

// SortTasks orders tasks by ascending id and refreshes NextID.
func (p *Project) SortTasks() {
	sort.Slice(p.Tasks, func(i, j int) bool { return p.Tasks[i].ID < p.Tasks[j].ID })
	p.NextID = task.NextID(p.Tasks)
}

// ClearDates drops every computed date.
func (p *Project) ClearDates() {
	p.Start = nil
	for _, t := range p.Tasks {
		t.ClearDates()
	}
}

// ValidateStatus checks s against Statuses.
func ValidateStatus(s string) error {
	if slices.Contains(Statuses, Status(s)) {
		return nil
	}
	return clierr.Newf(clierr.InvalidStatus, "invalid status %q", s).
		WithDetails(map[string]any{
			"status":  s,
			"allowed": Statuses,
		})
}
