package output

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/muesli/termenv"

	"github.com/twiced-technology-gmbh/backplan/internal/activity"
	"github.com/twiced-technology-gmbh/backplan/internal/calendar"
	"github.com/twiced-technology-gmbh/backplan/internal/holiday"
	"github.com/twiced-technology-gmbh/backplan/internal/preset"
	"github.com/twiced-technology-gmbh/backplan/internal/project"
	"github.com/twiced-technology-gmbh/backplan/internal/repository"
	"github.com/twiced-technology-gmbh/backplan/internal/schedule"
	"github.com/twiced-technology-gmbh/backplan/internal/task"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("244"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	titleStyle  = lipgloss.NewStyle().Bold(true)

	// Status colors aligned with the TUI header palette.
	statusStyles = map[string]lipgloss.Style{
		string(project.StatusPlanning):   lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		string(project.StatusInProgress): lipgloss.NewStyle().Foreground(lipgloss.Color("33")),
		string(project.StatusCompleted):  lipgloss.NewStyle().Foreground(lipgloss.Color("34")),
	}

	dateStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("110"))
	assigneeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("44")).Bold(true)
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)

	plain bool
)

// DisableColor strips all styling from table output.
func DisableColor() {
	headerStyle = lipgloss.NewStyle()
	dimStyle = lipgloss.NewStyle()
	titleStyle = lipgloss.NewStyle()
	statusStyles = map[string]lipgloss.Style{}
	dateStyle = lipgloss.NewStyle()
	assigneeStyle = lipgloss.NewStyle()
	selectedStyle = lipgloss.NewStyle()
	barStyle = lipgloss.NewStyle()
	offStyle = lipgloss.NewStyle()
	lipgloss.SetColorProfile(termenv.Ascii)
	plain = true
}

// ScheduleTable renders scheduled tasks, in the order given, as a table.
func ScheduleTable(w io.Writer, tasks []*task.Task) {
	if len(tasks) == 0 {
		fmt.Fprintln(os.Stderr, "No tasks found.")
		return
	}

	const pad = 2
	idW, nameW, durW, dateW, depsW, assigneeW := 4, 6, 5, 12, 9, 10
	for _, t := range tasks {
		idW = max(idW, len(strconv.Itoa(t.ID))+pad)
		nameW = max(nameW, min(len(t.Name)+pad, 42)) //nolint:mnd // max name column width
		durW = max(durW, len(strconv.Itoa(t.Duration))+pad)
		depsW = max(depsW, min(len(formatDeps(t.DependsOn))+pad, 24)) //nolint:mnd // max deps column width
		assigneeW = max(assigneeW, len(t.Assignee)+pad)
	}

	header := fmt.Sprintf("%-*s %-*s %-*s %-*s %-*s %-*s %-*s",
		idW, "ID", nameW, "NAME", durW, "DUR", dateW, "START", dateW, "END",
		depsW, "DEPENDS", assigneeW, "ASSIGNEE")
	fmt.Fprintln(w, headerStyle.Render(strings.TrimRight(header, " ")))

	for _, t := range tasks {
		name := t.Name
		const maxName = 40
		if len(name) > maxName {
			name = name[:maxName-3] + "..."
		}
		deps := formatDeps(t.DependsOn)
		if deps == "" {
			deps = dimStyle.Render("--")
		}
		assignee := t.Assignee
		if assignee == "" {
			assignee = dimStyle.Render("--")
		} else {
			assignee = assigneeStyle.Render(assignee)
		}

		row := fmt.Sprintf("%-*d %s %-*d %s %s %s %s",
			idW, t.ID,
			padRight(name, nameW),
			durW, t.Duration,
			padRight(dateOrDash(t.Start), dateW),
			padRight(dateOrDash(t.End), dateW),
			padRight(deps, depsW),
			assignee)
		fmt.Fprintln(w, strings.TrimRight(row, " "))
	}
}

// TaskDetail renders a single task with full detail.
func TaskDetail(w io.Writer, t *task.Task, cal calendar.Calendar) {
	titleLine := fmt.Sprintf("Task #%d: %s", t.ID, t.Name)
	fmt.Fprintln(w, titleStyle.Render(titleLine))
	fmt.Fprintln(w, strings.Repeat("─", lipgloss.Width(titleLine)))

	printField(w, "Duration", pluralDays(t.Duration, "working day"))
	printField(w, "Start", dateOrDash(t.Start))
	printField(w, "End", dateOrDash(t.End))
	if t.Start != nil && t.End != nil {
		span := t.Start.DaysUntil(*t.End) + 1
		printField(w, "Span", pluralDays(cal.CountWorkingDays(*t.Start, *t.End), "working day")+
			dimStyle.Render(" ("+pluralDays(span, "calendar day")+")"))
	}
	deps := formatDeps(t.DependsOn)
	printField(w, "Depends on", stringOrDash(deps))
	if t.Assignee != "" {
		printField(w, "Assignee", assigneeStyle.Render(t.Assignee))
	} else {
		printField(w, "Assignee", dimStyle.Render("--"))
	}

	if t.Notes != "" {
		fmt.Fprintln(w)
		fmt.Fprint(w, Markdown(t.Notes, 0))
	}
}

// ProjectDetail renders project metadata and the schedule envelope.
func ProjectDetail(w io.Writer, p *project.Project, res *schedule.Result, cal calendar.Calendar) {
	fmt.Fprintln(w, titleStyle.Render(p.Name))
	fmt.Fprintf(w, "Total: %d tasks\n\n", len(p.Tasks))

	printField(w, "Status", styledValue(string(p.Status), statusStyles))
	printField(w, "Deadline", dateStyle.Render(p.Deadline.String()))
	if res != nil {
		printField(w, "Finish", dateStyle.Render(res.End.String()))
	}
	printField(w, "Start", dateOrDash(p.Start))
	if p.Start != nil && res != nil {
		printField(w, "Working", pluralDays(cal.CountWorkingDays(*p.Start, res.End), "working day"))
	}
	printField(w, "Countries", stringOrDash(strings.Join(p.Countries, ", ")))
	printField(w, "Preset", stringOrDash(p.Preset))
	printField(w, "ID", dimStyle.Render(p.ID.String()))

	if p.Description != "" {
		fmt.Fprintln(w)
		fmt.Fprint(w, Markdown(p.Description, 0))
	}
}

// PresetTable lists the available presets.
func PresetTable(w io.Writer, presets []preset.Preset, current string) {
	if len(presets) == 0 {
		fmt.Fprintln(os.Stderr, "No presets found.")
		return
	}

	idW, nameW := 4, 6
	for _, p := range presets {
		idW = max(idW, len(p.ID)+4) //nolint:mnd // room for the current marker
		nameW = max(nameW, len(p.Name)+2)
	}
	header := fmt.Sprintf("%-*s %-*s %6s  %s", idW, "ID", nameW, "NAME", "TASKS", "DESCRIPTION")
	fmt.Fprintln(w, headerStyle.Render(header))
	for _, p := range presets {
		id := p.ID
		if id == current {
			id = selectedStyle.Render(id + " *")
		}
		fmt.Fprintf(w, "%s %s %6d  %s\n", padRight(id, idW), padRight(p.Name, nameW), len(p.Tasks),
			dimStyle.Render(p.Description))
	}
}

// ProjectTable lists stored projects by short id, marking current.
func ProjectTable(w io.Writer, projects []repository.Summary, current uuid.UUID) {
	if len(projects) == 0 {
		fmt.Fprintln(os.Stderr, "No projects found.")
		return
	}

	const idW = 11 // short id plus the current marker
	nameW := 6
	for _, p := range projects {
		nameW = max(nameW, len(p.Name)+2)
	}
	header := fmt.Sprintf("%-*s %-*s %-11s %-10s  %-10s  %s", idW, "ID", nameW, "NAME", "STATUS", "DEADLINE", "START", "TASKS")
	fmt.Fprintln(w, headerStyle.Render(header))
	for _, p := range projects {
		id := shortID(p.ID)
		if p.ID == current {
			id = selectedStyle.Render(id + " *")
		}
		fmt.Fprintf(w, "%s %s %s %s  %s  %d\n",
			padRight(id, idW),
			padRight(p.Name, nameW),
			padRight(styledValue(string(p.Status), statusStyles), 11), //nolint:mnd // status column
			dateStyle.Render(p.Deadline.String()),
			dateStyle.Render(padRight(dateOrDash(p.Start), 10)), //nolint:mnd // date column
			p.Tasks)
	}
}

// shortID is the first block of a project uuid, enough to address it.
func shortID(id uuid.UUID) string {
	return id.String()[:8]
}

// CountryTable lists holiday countries, marking the selected ones.
func CountryTable(w io.Writer, countries []holiday.Country, selected []string) {
	if len(countries) == 0 {
		fmt.Fprintln(os.Stderr, "No countries available.")
		return
	}

	const codeW = 12
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("   %-*s %s", codeW, "CODE", "NAME")))
	for _, c := range countries {
		mark := "   "
		code := padRight(c.Code, codeW)
		if slices.Contains(selected, c.Code) {
			mark = " * "
			code = selectedStyle.Render(code)
		}
		fmt.Fprintf(w, "%s%s %s\n", mark, code, c.Name)
	}
}

// LogTable renders activity log entries.
func LogTable(w io.Writer, entries []activity.LogEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(os.Stderr, "No activity recorded.")
		return
	}

	const tsW, actionW, taskW = 20, 10, 6
	header := fmt.Sprintf("%-*s %-*s %-*s %s", tsW, "TIME", actionW, "ACTION", taskW, "TASK", "DETAIL")
	fmt.Fprintln(w, headerStyle.Render(header))
	for _, e := range entries {
		id := dimStyle.Render("--")
		if e.TaskID > 0 {
			id = "#" + strconv.Itoa(e.TaskID)
		}
		row := fmt.Sprintf("%-*s %-*s %s %s", tsW, e.Timestamp.Local().Format("2006-01-02 15:04:05"),
			actionW, e.Action, padRight(id, taskW), e.Detail)
		fmt.Fprintln(w, strings.TrimRight(row, " "))
	}
}

// Messagef prints a simple formatted message line.
func Messagef(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintf(w, format+"\n", args...)
}

func printField(w io.Writer, label, value string) {
	fmt.Fprintf(w, "  %-12s %s\n", label+":", value)
}

// padRight pads s with spaces to the given visible width, accounting for ANSI
// escape codes that are invisible but consume bytes.
func padRight(s string, width int) string {
	visible := lipgloss.Width(s)
	if visible >= width {
		return s
	}
	return s + strings.Repeat(" ", width-visible)
}

func stringOrDash(s string) string {
	if s == "" {
		return dimStyle.Render("--")
	}
	return s
}

// styledValue renders s using a matching style from the map, or returns s unchanged.
func styledValue(s string, styles map[string]lipgloss.Style) string {
	if st, ok := styles[s]; ok {
		return st.Render(s)
	}
	return s
}

func formatDeps(deps []int) string {
	parts := make([]string, len(deps))
	for i, d := range deps {
		parts[i] = "#" + strconv.Itoa(d)
	}
	return strings.Join(parts, ",")
}

func pluralDays(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return strconv.Itoa(n) + " " + unit + "s"
}
