package task

import (
	"strings"

	"github.com/twiced-technology-gmbh/backplan/internal/date"
)

// FilterOptions defines which tasks to include.
type FilterOptions struct {
	Assignee string
	Search   string     // case-insensitive substring match across name and notes
	From     *date.Date // keep tasks ending on or after From
	To       *date.Date // keep tasks starting on or before To
	After    int        // keep tasks depending directly on this id; 0 disables
}

// Filter returns tasks matching all specified criteria (AND logic), in
// their original order. Unscheduled tasks never match a date window.
func Filter(tasks []*Task, opts FilterOptions) []*Task {
	var result []*Task
	for _, t := range tasks {
		if matchesFilter(t, opts) {
			result = append(result, t)
		}
	}
	return result
}

func matchesFilter(t *Task, opts FilterOptions) bool {
	if opts.Assignee != "" && t.Assignee != opts.Assignee {
		return false
	}
	if opts.Search != "" && !matchesSearch(t, opts.Search) {
		return false
	}
	if opts.After != 0 && !t.DependsOnID(opts.After) {
		return false
	}
	return matchesWindow(t, opts.From, opts.To)
}

// matchesSearch performs case-insensitive substring matching across name and notes.
func matchesSearch(t *Task, query string) bool {
	q := strings.ToLower(query)
	return strings.Contains(strings.ToLower(t.Name), q) ||
		strings.Contains(strings.ToLower(t.Notes), q)
}

func matchesWindow(t *Task, from, to *date.Date) bool {
	if from == nil && to == nil {
		return true
	}
	if t.Start == nil || t.End == nil {
		return false
	}
	if from != nil && t.End.Before(*from) {
		return false
	}
	if to != nil && t.Start.After(*to) {
		return false
	}
	return true
}
