package output

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/twiced-technology-gmbh/backplan/internal/date"
	"github.com/twiced-technology-gmbh/backplan/internal/project"
	"github.com/twiced-technology-gmbh/backplan/internal/repository"
	"github.com/twiced-technology-gmbh/backplan/internal/schedule"
	"github.com/twiced-technology-gmbh/backplan/internal/task"
)

// ScheduleCompact renders scheduled tasks in one-line-per-record compact format.
func ScheduleCompact(w io.Writer, tasks []*task.Task) {
	if len(tasks) == 0 {
		fmt.Fprintln(os.Stderr, "No tasks found.")
		return
	}

	for _, t := range tasks {
		fmt.Fprintln(w, formatTaskLine(t))
	}
}

// TaskDetailCompact renders a single task with detail in compact format.
func TaskDetailCompact(w io.Writer, t *task.Task) {
	fmt.Fprintln(w, formatTaskLine(t))
	if t.Notes != "" {
		for _, line := range strings.Split(strings.TrimRight(t.Notes, "\n"), "\n") {
			fmt.Fprintln(w, "  "+line)
		}
	}
}

// ProjectCompact renders a project summary in compact format.
func ProjectCompact(w io.Writer, p *project.Project, res *schedule.Result) {
	line := p.Name + " [" + string(p.Status) + "] deadline:" + p.Deadline.String()
	if res != nil && !res.End.Equal(p.Deadline) {
		line += " finish:" + res.End.String()
	}
	if p.Start != nil {
		line += " start:" + p.Start.String()
	}
	line += " (" + strconv.Itoa(len(p.Tasks)) + " tasks)"
	fmt.Fprintln(w, line)

	if len(p.Countries) > 0 {
		fmt.Fprintln(w, "  countries: "+strings.Join(p.Countries, ","))
	}
	if p.Preset != "" {
		fmt.Fprintln(w, "  preset: "+p.Preset)
	}
}

// formatTaskLine builds the one-line representation of a task.
func formatTaskLine(t *task.Task) string {
	line := "#" + strconv.Itoa(t.ID) + " " + dateOrDash(t.Start) + ".." + dateOrDash(t.End) +
		" (" + strconv.Itoa(t.Duration) + "d) " + t.Name

	if t.Assignee != "" {
		line += " @" + t.Assignee
	}
	if len(t.DependsOn) > 0 {
		line += " after:" + formatDeps(t.DependsOn)
	}

	return line
}

func dateOrDash(d *date.Date) string {
	if d == nil {
		return "--"
	}
	return d.String()
}

// ProjectsCompact renders one line per stored project; current is starred.
func ProjectsCompact(w io.Writer, projects []repository.Summary, current uuid.UUID) {
	for _, p := range projects {
		line := fmt.Sprintf("%s %s [%s] deadline:%s start:%s (%d tasks)",
			shortID(p.ID), p.Name, p.Status, p.Deadline, dateOrDash(p.Start), p.Tasks)
		if p.ID == current {
			line += " *"
		}
		fmt.Fprintln(w, line)
	}
}
