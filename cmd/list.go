package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/twiced-technology-gmbh/backplan/internal/date"
	"github.com/twiced-technology-gmbh/backplan/internal/output"
	"github.com/twiced-technology-gmbh/backplan/internal/task"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls", "schedule"},
	Short:   "List the schedule",
	Long: `Lists tasks with their computed start and end dates, dependencies first.
--gantt draws the schedule as bars over working days.`,
	RunE: runList,
}

func init() {
	listCmd.Flags().Bool("gantt", false, "draw a Gantt chart")
	listCmd.Flags().Int("width", 0, "chart width (defaults to the terminal width)")
	listCmd.Flags().String("assignee", "", "filter by assignee")
	listCmd.Flags().String("search", "", "filter by name or notes (case-insensitive)")
	listCmd.Flags().String("from", "", "only tasks ending on or after DATE")
	listCmd.Flags().String("to", "", "only tasks starting on or before DATE")
	listCmd.Flags().String("after", "", "only tasks depending on ID")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, _ []string) error {
	gantt, _ := cmd.Flags().GetBool("gantt")
	width, _ := cmd.Flags().GetInt("width")
	opts, err := filterOptions(cmd)
	if err != nil {
		return err
	}

	ctx := context.Background()
	ws, err := openWorkspace(ctx)
	if err != nil {
		return err
	}
	defer ws.Close()

	store, err := ws.Load(ctx)
	if err != nil {
		return err
	}
	res := store.Result()

	filtering := opts != (task.FilterOptions{})
	tasks := res.Tasks
	if filtering {
		tasks = task.Filter(tasks, opts)
	}

	if outputFormat() == output.FormatJSON {
		if !filtering {
			return output.JSON(os.Stdout, res)
		}
		return output.JSON(os.Stdout, tasks)
	}

	if gantt {
		if width <= 0 {
			width = terminalWidth()
		}
		filtered := *res
		filtered.Tasks = tasks
		output.Gantt(os.Stdout, &filtered, store.Project().Deadline, output.GanttOptions{
			Width:    width,
			Calendar: store.Calendar(),
		})
		return nil
	}

	if outputFormat() == output.FormatCompact {
		output.ScheduleCompact(os.Stdout, tasks)
		return nil
	}
	output.ScheduleTable(os.Stdout, tasks)
	return nil
}

func filterOptions(cmd *cobra.Command) (task.FilterOptions, error) {
	var opts task.FilterOptions
	opts.Assignee, _ = cmd.Flags().GetString("assignee")
	opts.Search, _ = cmd.Flags().GetString("search")

	for flag, dst := range map[string]**date.Date{"from": &opts.From, "to": &opts.To} {
		v, _ := cmd.Flags().GetString(flag)
		if v == "" {
			continue
		}
		d, err := parseDate(flag, v)
		if err != nil {
			return opts, err
		}
		*dst = &d
	}

	if v, _ := cmd.Flags().GetString("after"); v != "" {
		id, err := parseID(v)
		if err != nil {
			return opts, err
		}
		opts.After = id
	}
	return opts, nil
}

// terminalWidth returns the width of stdout, or 0 when it is not a terminal.
func terminalWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return 0
	}
	return w
}
