// Package tui implements a terminal Gantt viewer for a plan.
package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/twiced-technology-gmbh/backplan/internal/calendar"
	"github.com/twiced-technology-gmbh/backplan/internal/date"
	"github.com/twiced-technology-gmbh/backplan/internal/output"
	"github.com/twiced-technology-gmbh/backplan/internal/project"
	"github.com/twiced-technology-gmbh/backplan/internal/schedule"
	"github.com/twiced-technology-gmbh/backplan/internal/task"
)

// view represents the current screen state.
type view int

const (
	viewChart view = iota
	viewConfirmDelete
)

const keyEsc = "esc"

// Layout: title and axis above the bars; blank line, detail and help below.
const (
	chromeAbove = 2
	chromeBelow = 3
	errorChrome = 1
)

// Workspace is the plan access the viewer needs.
type Workspace interface {
	Load(ctx context.Context) (*project.Store, error)
	Mutate(ctx context.Context, fn func(*project.Store) error) (*project.Store, error)
}

// Gantt is the top-level bubbletea model.
type Gantt struct {
	ctx     context.Context
	ws      Workspace
	project *project.Project
	result  *schedule.Result
	cal     calendar.Calendar
	rows    []*task.Task
	active  int
	offset  int
	view    view
	width   int
	height  int
	err     error
	keys    keyMap
	help    help.Model

	// Delete confirmation.
	deleteID   int
	deleteName string
}

// NewGantt creates the viewer and loads the plan.
func NewGantt(ctx context.Context, ws Workspace) *Gantt {
	g := &Gantt{ctx: ctx, ws: ws, keys: defaultKeys(), help: help.New()}
	g.reload()
	return g
}

// ReloadMsg is sent by the file watcher to trigger a refresh.
type ReloadMsg struct{}

// Init implements tea.Model.
func (g *Gantt) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (g *Gantt) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return g.handleKey(msg)
	case tea.WindowSizeMsg:
		g.width = msg.Width
		g.height = msg.Height
		g.help.Width = msg.Width
		g.ensureVisible()
		return g, nil
	case ReloadMsg:
		g.reload()
		return g, nil
	}
	return g, nil
}

// View implements tea.Model.
func (g *Gantt) View() string {
	if g.width == 0 {
		return "Loading..."
	}
	if g.view == viewConfirmDelete {
		return g.viewDeleteConfirm()
	}
	return g.viewChart()
}

func (g *Gantt) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return g, tea.Quit
	}
	if g.view == viewConfirmDelete {
		return g.handleDeleteKey(msg)
	}

	switch {
	case key.Matches(msg, g.keys.Quit):
		return g, tea.Quit
	case key.Matches(msg, g.keys.Down):
		if g.active < len(g.rows)-1 {
			g.active++
			g.ensureVisible()
		}
	case key.Matches(msg, g.keys.Up):
		if g.active > 0 {
			g.active--
			g.ensureVisible()
		}
	case key.Matches(msg, g.keys.Later):
		g.shiftDeadline(1)
	case key.Matches(msg, g.keys.Earlier):
		g.shiftDeadline(-1)
	case key.Matches(msg, g.keys.Delete):
		if t := g.selectedTask(); t != nil {
			g.deleteID = t.ID
			g.deleteName = t.Name
			g.view = viewConfirmDelete
		}
	case key.Matches(msg, g.keys.Reload):
		g.reload()
	case key.Matches(msg, g.keys.Help):
		g.help.ShowAll = !g.help.ShowAll
		g.ensureVisible()
	}
	return g, nil
}

func (g *Gantt) handleDeleteKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		id := g.deleteID
		g.view = viewChart
		g.mutate(func(s *project.Store) error { return s.DeleteTask(id) })
	case "n", "N", keyEsc, "q":
		g.view = viewChart
	}
	return g, nil
}

// shiftDeadline moves the deadline by one working day in direction dir.
func (g *Gantt) shiftDeadline(dir int) {
	g.mutate(func(s *project.Store) error {
		cal := s.Calendar()
		current := s.Project().Deadline
		var (
			next date.Date
			err  error
		)
		if dir > 0 {
			next, err = cal.AddWorkingDays(current, 1)
		} else {
			next, err = cal.SubtractWorkingDays(current, 1)
		}
		if err != nil {
			return err
		}
		return s.SetDeadline(next)
	})
}

func (g *Gantt) mutate(fn func(*project.Store) error) {
	store, err := g.ws.Mutate(g.ctx, fn)
	if err != nil {
		g.err = err
		return
	}
	g.err = nil
	g.apply(store)
}

// reload reads the plan again. A plan that fails to schedule is still shown
// without dates, with the error in the status line.
func (g *Gantt) reload() {
	store, err := g.ws.Load(g.ctx)
	g.err = err
	if store != nil {
		g.apply(store)
	}
}

func (g *Gantt) apply(store *project.Store) {
	g.project = store.Project()
	g.result = store.Result()
	g.cal = store.Calendar()
	if g.result != nil {
		g.rows = g.result.Tasks
	} else {
		g.rows = g.project.Tasks
	}
	if g.active >= len(g.rows) {
		g.active = max(len(g.rows)-1, 0)
	}
	g.ensureVisible()
}

func (g *Gantt) selectedTask() *task.Task {
	if g.active >= 0 && g.active < len(g.rows) {
		return g.rows[g.active]
	}
	return nil
}

func (g *Gantt) visibleRows() int {
	chrome := chromeAbove + chromeBelow
	if g.err != nil {
		chrome += errorChrome
	}
	if g.help.ShowAll {
		chrome += len(g.keys.FullHelp()[0]) - 1
	}
	return max(g.height-chrome, 1)
}

func (g *Gantt) ensureVisible() {
	vis := g.visibleRows()
	switch {
	case g.active >= g.offset+vis:
		g.offset = g.active - vis + 1
	case g.active < g.offset:
		g.offset = g.active
	}
	g.offset = max(min(g.offset, len(g.rows)-vis), 0)
}

func (g *Gantt) viewChart() string {
	if g.project == nil {
		return errorStyle.Render(truncate("Error: "+errString(g.err), g.width)) + "\n"
	}

	var b strings.Builder
	b.WriteString(g.renderTitle())
	b.WriteByte('\n')

	if len(g.rows) == 0 {
		b.WriteString(dimStyle.Render("  (no tasks; add one with 'backplan add')"))
		b.WriteByte('\n')
	} else {
		from, to := g.span()
		lines := output.GanttLines(g.rows, from, to, output.GanttOptions{
			Width:    g.width,
			Selected: g.rows[g.active].ID,
			Calendar: g.cal,
		})
		b.WriteString(lines[0])
		b.WriteByte('\n')
		bars := lines[1:]
		end := min(g.offset+g.visibleRows(), len(bars))
		for _, line := range bars[g.offset:end] {
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}

	b.WriteByte('\n')
	if t := g.selectedTask(); t != nil {
		b.WriteString(truncate(taskSummary(t), g.width))
	}
	b.WriteByte('\n')
	if g.err != nil {
		b.WriteString(errorStyle.Render(truncate("Error: "+g.err.Error(), g.width)))
		b.WriteByte('\n')
	}
	b.WriteString(g.help.View(g.keys))
	return b.String()
}

func (g *Gantt) renderTitle() string {
	p := g.project
	title := titleStyle.Render(p.Name)
	meta := " deadline " + p.Deadline.String()
	if p.Start != nil {
		meta += " | start " + p.Start.String()
	}
	meta += " | " + strconv.Itoa(len(p.Tasks)) + " tasks"
	if len(p.Countries) > 0 {
		meta += " | " + strings.Join(p.Countries, ",")
	}
	return title + statusBarStyle.Render(truncate(meta, g.width-lipgloss.Width(title)))
}

// span is the chart range: earliest start through the later of the
// anchored end and the deadline.
func (g *Gantt) span() (from, to date.Date) {
	to = g.project.Deadline
	from = to
	if g.result != nil {
		if g.result.End.After(to) {
			to = g.result.End
		}
		if g.result.Start != nil {
			from = *g.result.Start
		}
	}
	return from, to
}

func (g *Gantt) viewDeleteConfirm() string {
	content := errorStyle.Render("Delete task?") + "\n\n" +
		fmt.Sprintf("  #%d: %s", g.deleteID, g.deleteName) + "\n\n" +
		dimStyle.Render("Dependents lose this dependency.") + "\n\n" +
		dimStyle.Render("y:yes  n:no")

	return dialogStyle.Render(content)
}

func taskSummary(t *task.Task) string {
	parts := []string{"#" + strconv.Itoa(t.ID) + " " + t.Name}
	if t.Start != nil && t.End != nil {
		parts = append(parts, t.Start.String()+" → "+t.End.String())
	}
	parts = append(parts, strconv.Itoa(t.Duration)+"d")
	if len(t.DependsOn) > 0 {
		deps := make([]string, len(t.DependsOn))
		for i, dep := range t.DependsOn {
			deps[i] = "#" + strconv.Itoa(dep)
		}
		parts = append(parts, "after "+strings.Join(deps, ","))
	}
	if t.Assignee != "" {
		parts = append(parts, "@"+t.Assignee)
	}
	return strings.Join(parts, " · ")
}

func errString(err error) string {
	if err == nil {
		return "no plan loaded"
	}
	return err.Error()
}

// --- Styles ---

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	dialogPadY = 1
	dialogPadX = 2

	dialogStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(dialogPadY, dialogPadX)
)

func truncate(s string, maxLen int) string {
	if maxLen < 4 { //nolint:mnd // minimum length for truncation
		maxLen = 4
	}
	if lipgloss.Width(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	target := min(maxLen-3, len(runes)) //nolint:mnd // room for "..."
	for target > 0 && lipgloss.Width(string(runes[:target])) > maxLen-3 {
		target--
	}
	return string(runes[:target]) + "..."
}
