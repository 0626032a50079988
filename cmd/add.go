package cmd

import (
	"context"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/twiced-technology-gmbh/backplan/internal/output"
	"github.com/twiced-technology-gmbh/backplan/internal/project"
	"github.com/twiced-technology-gmbh/backplan/internal/task"
)

var addCmd = &cobra.Command{
	Use:     "add NAME",
	Aliases: []string{"create"},
	Short:   "Add a task",
	Long: `Adds a task and reschedules the plan. The task gets the next free ID.
Dependencies name tasks that must finish before this one starts.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAdd,
}

func init() {
	addCmd.Flags().IntP("duration", "d", 1, "duration in working days")
	addCmd.Flags().String("after", "", "dependency task IDs (comma-separated)")
	addCmd.Flags().String("assignee", "", "assignee")
	addCmd.Flags().String("notes", "", "markdown notes")
	addCmd.Flags().SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		switch name {
		case "depends-on", "deps":
			name = "after"
		case "days":
			name = "duration"
		case "note":
			name = "notes"
		}
		return pflag.NormalizedName(name)
	})
	rootCmd.AddCommand(addCmd)
}

func runAdd(cmd *cobra.Command, args []string) error {
	duration, _ := cmd.Flags().GetInt("duration")
	after, _ := cmd.Flags().GetString("after")
	assignee, _ := cmd.Flags().GetString("assignee")
	notes, _ := cmd.Flags().GetString("notes")

	deps, err := parseIDList(after)
	if err != nil {
		return err
	}
	in := project.TaskInput{
		Name:      strings.Join(args, " "),
		Duration:  duration,
		DependsOn: deps,
		Assignee:  assignee,
		Notes:     notes,
	}

	ctx := context.Background()
	ws, err := openWorkspace(ctx)
	if err != nil {
		return err
	}
	defer ws.Close()

	var added *task.Task
	store, err := ws.Mutate(ctx, func(s *project.Store) error {
		var addErr error
		added, addErr = s.AddTask(in)
		return addErr
	})
	if err != nil {
		return err
	}

	t := store.Project().Task(added.ID)
	if outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, t)
	}

	output.Messagef(os.Stdout, "Created task #%d: %s (%s..%s)", t.ID, t.Name, t.Start, t.End)
	return nil
}
