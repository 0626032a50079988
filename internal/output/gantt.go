package output

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/twiced-technology-gmbh/backplan/internal/calendar"
	"github.com/twiced-technology-gmbh/backplan/internal/date"
	"github.com/twiced-technology-gmbh/backplan/internal/schedule"
	"github.com/twiced-technology-gmbh/backplan/internal/task"
)

// Gantt layout constants.
const (
	defaultGanttWidth = 100
	minLabelWidth     = 12
	maxLabelWidth     = 28
	minBarColumns     = 10
	dateWidth         = 10 // len("2006-01-02")
)

var (
	barStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("33"))
	offStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
)

// GanttOptions controls chart rendering.
type GanttOptions struct {
	Width    int // total line width; <= 0 uses 100
	Selected int // task id to highlight, 0 for none
	Calendar calendar.Calendar
}

type cell int

const (
	cellEmpty cell = iota
	cellOff
	cellWork
	cellWorkOff
)

var cellGlyphs = map[cell]string{
	cellEmpty:   " ",
	cellOff:     "·",
	cellWork:    "█",
	cellWorkOff: "░",
}

// Gantt writes a chart of the scheduled tasks ending at the deadline.
func Gantt(w io.Writer, res *schedule.Result, deadline date.Date, opts GanttOptions) {
	if res == nil || res.Start == nil {
		fmt.Fprintln(os.Stderr, "No tasks found.")
		return
	}
	to := res.End
	if deadline.After(to) {
		to = deadline
	}
	for _, line := range GanttLines(res.Tasks, *res.Start, to, opts) {
		fmt.Fprintln(w, line)
	}
}

// GanttLines renders a header plus one bar per task across [from, to].
// Each column covers one day when the range fits, otherwise several.
func GanttLines(tasks []*task.Task, from, to date.Date, opts GanttOptions) []string {
	width := opts.Width
	if width <= 0 {
		width = defaultGanttWidth
	}
	days := max(from.DaysUntil(to)+1, 1)

	labelW := minLabelWidth
	for _, t := range tasks {
		labelW = max(labelW, len(taskLabel(t))+1)
	}
	labelW = min(labelW, maxLabelWidth)

	avail := max(width-labelW, minBarColumns)
	perCol := (days + avail - 1) / avail
	cols := (days + perCol - 1) / perCol

	axis := from.String()
	if cols >= 2*dateWidth+2 {
		axis += strings.Repeat(" ", cols-2*dateWidth) + to.String()
	}
	lines := make([]string, 0, len(tasks)+1)
	lines = append(lines, strings.Repeat(" ", labelW)+dimStyle.Render(axis))

	for _, t := range tasks {
		label := taskLabel(t)
		if len(label) > labelW-1 {
			label = label[:labelW-4] + "..."
		}
		label = padRight(label, labelW)
		if t.ID == opts.Selected {
			label = selectedStyle.Render(label)
		}

		cells := make([]cell, cols)
		for c := range cells {
			lo := from.AddDays(c * perCol)
			hi := date.Min(lo.AddDays(perCol-1), to)
			off := perCol == 1 && opts.Calendar.IsNonWorkingDay(lo)
			in := t.Start != nil && t.End != nil && !hi.Before(*t.Start) && !lo.After(*t.End)
			switch {
			case in && off:
				cells[c] = cellWorkOff
			case in:
				cells[c] = cellWork
			case off:
				cells[c] = cellOff
			}
		}
		lines = append(lines, strings.TrimRight(label+renderCells(cells), " "))
	}
	return lines
}

// renderCells styles runs of equal cells together.
func renderCells(cells []cell) string {
	var b strings.Builder
	for i := 0; i < len(cells); {
		j := i
		for j < len(cells) && cells[j] == cells[i] {
			j++
		}
		run := strings.Repeat(cellGlyphs[cells[i]], j-i)
		switch cells[i] {
		case cellWork, cellWorkOff:
			run = barStyle.Render(run)
		case cellOff:
			run = offStyle.Render(run)
		}
		b.WriteString(run)
		i = j
	}
	return b.String()
}

func taskLabel(t *task.Task) string {
	return "#" + strconv.Itoa(t.ID) + " " + t.Name
}
