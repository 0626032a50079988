package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/backplan/internal/clierr"
	"github.com/twiced-technology-gmbh/backplan/internal/output"
	"github.com/twiced-technology-gmbh/backplan/internal/project"
	"github.com/twiced-technology-gmbh/backplan/internal/task"
)

var editCmd = &cobra.Command{
	Use:   "edit ID",
	Short: "Edit a task",
	Long: `Modifies fields of an existing task and reschedules the plan.
Only specified fields are changed. A change that would create a dependency
cycle is rejected and nothing is saved.`,
	Args: cobra.ExactArgs(1),
	RunE: runEdit,
}

func init() {
	editCmd.Flags().String("name", "", "new name")
	editCmd.Flags().IntP("duration", "d", 0, "new duration in working days")
	editCmd.Flags().String("after", "", "replace dependencies (comma-separated IDs, empty to clear)")
	editCmd.Flags().IntSlice("add-dep", nil, "add dependency task IDs")
	editCmd.Flags().IntSlice("remove-dep", nil, "remove dependency task IDs")
	editCmd.Flags().String("assignee", "", "new assignee (empty to clear)")
	editCmd.Flags().String("notes", "", "new markdown notes (replaces existing notes)")
	rootCmd.AddCommand(editCmd)
}

func runEdit(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	ctx := context.Background()
	ws, err := openWorkspace(ctx)
	if err != nil {
		return err
	}
	defer ws.Close()

	var updated *task.Task
	store, err := ws.Mutate(ctx, func(s *project.Store) error {
		current := s.Project().Task(id)
		if current == nil {
			return task.NotFound(id)
		}
		patch, err := buildPatch(cmd, current)
		if err != nil {
			return err
		}
		updated, err = s.UpdateTask(id, patch)
		return err
	})
	if err != nil {
		return err
	}

	t := store.Project().Task(updated.ID)
	if outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, t)
	}

	output.Messagef(os.Stdout, "Updated task #%d: %s (%s..%s)", t.ID, t.Name, t.Start, t.End)
	return nil
}

// buildPatch turns the changed flags into a patch against current.
func buildPatch(cmd *cobra.Command, current *task.Task) (project.TaskPatch, error) {
	var patch project.TaskPatch
	flags := cmd.Flags()

	if flags.Changed("name") {
		v, _ := flags.GetString("name")
		patch.Name = &v
	}
	if flags.Changed("duration") {
		v, _ := flags.GetInt("duration")
		patch.Duration = &v
	}
	if flags.Changed("assignee") {
		v, _ := flags.GetString("assignee")
		patch.Assignee = &v
	}
	if flags.Changed("notes") {
		v, _ := flags.GetString("notes")
		patch.Notes = &v
	}

	if flags.Changed("after") && (flags.Changed("add-dep") || flags.Changed("remove-dep")) {
		return patch, clierr.New(clierr.InvalidInput, "--after cannot be combined with --add-dep or --remove-dep")
	}
	if flags.Changed("after") {
		v, _ := flags.GetString("after")
		deps, err := parseIDList(v)
		if err != nil {
			return patch, err
		}
		patch.DependsOn = &deps
	}
	if flags.Changed("add-dep") || flags.Changed("remove-dep") {
		add, _ := flags.GetIntSlice("add-dep")
		remove, _ := flags.GetIntSlice("remove-dep")
		deps := editDeps(current.DependsOn, add, remove)
		patch.DependsOn = &deps
	}

	if patch.Empty() {
		return patch, clierr.New(clierr.NoChanges, "no changes specified")
	}
	return patch, nil
}

// editDeps applies additions then removals, keeping the existing order.
func editDeps(current, add, remove []int) []int {
	out := make([]int, 0, len(current)+len(add))
	drop := make(map[int]bool, len(remove))
	for _, id := range remove {
		drop[id] = true
	}
	seen := make(map[int]bool, len(current)+len(add))
	for _, id := range append(append([]int{}, current...), add...) {
		if drop[id] || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
