package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/twiced-technology-gmbh/backplan/internal/clierr"
	"github.com/twiced-technology-gmbh/backplan/internal/output"
	"github.com/twiced-technology-gmbh/backplan/internal/project"
	"github.com/twiced-technology-gmbh/backplan/internal/task"
	"github.com/twiced-technology-gmbh/backplan/internal/workspace"
)

var deleteCmd = &cobra.Command{
	Use:     "rm ID[,ID,...]",
	Aliases: []string{"delete"},
	Short:   "Delete a task",
	Long: `Deletes a task and removes it from every dependency list, then reschedules.
Prompts for confirmation in interactive mode.
Multiple IDs can be provided as a comma-separated list (requires --yes).`,
	Args: cobra.ExactArgs(1),
	RunE: runDelete,
}

func init() {
	deleteCmd.Flags().BoolP("yes", "y", false, "skip confirmation prompt")
	rootCmd.AddCommand(deleteCmd)
}

func runDelete(cmd *cobra.Command, args []string) error {
	ids, err := parseIDs(args[0])
	if err != nil {
		return err
	}

	yes, _ := cmd.Flags().GetBool("yes")

	// Batch mode requires --yes.
	if len(ids) > 1 && !yes {
		return clierr.New(clierr.ConfirmationReq,
			"batch delete requires --yes")
	}

	ctx := context.Background()
	ws, err := openWorkspace(ctx)
	if err != nil {
		return err
	}
	defer ws.Close()

	if len(ids) == 1 {
		return deleteSingleTask(ctx, ws, ids[0], yes)
	}

	return runBatch(ids, func(id int) error {
		_, err := executeDelete(ctx, ws, id)
		return err
	})
}

// deleteSingleTask handles a single task delete with confirmation and output.
func deleteSingleTask(ctx context.Context, ws *workspace.Workspace, id int, yes bool) error {
	store, err := ws.Load(ctx)
	if store == nil {
		return err
	}
	t := store.Project().Task(id)
	if t == nil {
		return task.NotFound(id)
	}

	warnDependents(store.Project(), id)

	// Require confirmation in TTY mode unless --yes.
	if !yes {
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			return clierr.New(clierr.ConfirmationReq,
				"cannot prompt for confirmation (not a terminal); use --yes")
		}
		fmt.Fprintf(os.Stderr, "Delete task #%d %q? [y/N] ", t.ID, t.Name)
		reader := bufio.NewReader(os.Stdin)
		answer, _ := reader.ReadString('\n')
		answer = strings.TrimSpace(strings.ToLower(answer))
		if answer != "y" && answer != "yes" {
			fmt.Fprintln(os.Stderr, "Canceled.")
			return nil
		}
	}

	deleted, err := executeDelete(ctx, ws, id)
	if err != nil {
		return err
	}

	if outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, map[string]interface{}{
			"status": "deleted",
			"id":     deleted.ID,
			"name":   deleted.Name,
		})
	}

	output.Messagef(os.Stdout, "Deleted task #%d: %s", deleted.ID, deleted.Name)
	return nil
}

// executeDelete removes the task under the plan lock and returns it.
func executeDelete(ctx context.Context, ws *workspace.Workspace, id int) (*task.Task, error) {
	var deleted *task.Task
	_, err := ws.Mutate(ctx, func(s *project.Store) error {
		deleted = s.Project().Task(id)
		if deleted == nil {
			return task.NotFound(id)
		}
		return s.DeleteTask(id)
	})
	return deleted, err
}

func warnDependents(p *project.Project, id int) {
	for _, t := range p.Tasks {
		if t.DependsOnID(id) {
			fmt.Fprintf(os.Stderr, "Warning: task #%d %q depends on #%d; the dependency will be removed\n",
				t.ID, t.Name, id)
		}
	}
}

// runBatch executes fn for each ID and collects results. Returns a SilentError
// with exit code 1 if any operation failed (after outputting results).
func runBatch(ids []int, fn func(int) error) error {
	results := make([]output.BatchResult, 0, len(ids))
	anyFailed := false

	for _, id := range ids {
		err := fn(id)
		if err != nil {
			anyFailed = true
			var cliErr *clierr.Error
			if errors.As(err, &cliErr) {
				results = append(results, output.BatchResult{ID: id, OK: false, Error: cliErr.Message, Code: cliErr.Code})
			} else {
				results = append(results, output.BatchResult{ID: id, OK: false, Error: err.Error()})
			}
		} else {
			results = append(results, output.BatchResult{ID: id, OK: true})
		}
	}

	if outputFormat() == output.FormatJSON {
		if err := output.JSON(os.Stdout, results); err != nil {
			return err
		}
	} else {
		var succeeded int
		for _, r := range results {
			if r.OK {
				succeeded++
			} else {
				fmt.Fprintf(os.Stderr, "Error: task #%d: %s\n", r.ID, r.Error)
			}
		}
		output.Messagef(os.Stdout, "Completed %d/%d operations", succeeded, len(ids))
	}

	if anyFailed {
		return &clierr.SilentError{Code: 1}
	}
	return nil
}
