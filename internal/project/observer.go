package project

import "time"

// Event describes one committed mutation.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Action    string    `json:"action"`
	TaskID    int       `json:"task_id,omitempty"`
	Detail    string    `json:"detail"`
	// Project is a snapshot taken right after the commit.
	Project *Project `json:"-"`
}

// Observer is told about every committed mutation. Implementations must not
// call back into the Store that notified them.
type Observer interface {
	ProjectChanged(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

// ProjectChanged calls f.
func (f ObserverFunc) ProjectChanged(e Event) { f(e) }

// Store actions reported in events.
const (
	ActionCreate      = "create"
	ActionDeadline    = "deadline"
	ActionCalendar    = "calendar"
	ActionHolidays    = "holidays"
	ActionAddTask     = "add"
	ActionUpdateTask  = "edit"
	ActionDeleteTask  = "delete"
	ActionPreset      = "preset"
	ActionRecompute   = "recompute"
	ActionProjectMeta = "project"
)
