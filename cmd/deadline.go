package cmd

import (
	"context"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/backplan/internal/calendar"
	"github.com/twiced-technology-gmbh/backplan/internal/date"
	"github.com/twiced-technology-gmbh/backplan/internal/output"
	"github.com/twiced-technology-gmbh/backplan/internal/project"
)

var deadlineCmd = &cobra.Command{
	Use:   "deadline [DATE|+N|-N]",
	Short: "Show or move the deadline",
	Long: `Without arguments prints the deadline. A date sets it; +N or -N moves it
by N working days (write "backplan deadline -- -2" for negative offsets).
Every task is rescheduled.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDeadline,
}

func init() {
	rootCmd.AddCommand(deadlineCmd)
}

func runDeadline(_ *cobra.Command, args []string) error {
	ctx := context.Background()
	ws, err := openWorkspace(ctx)
	if err != nil {
		return err
	}
	defer ws.Close()

	if len(args) == 0 {
		store, err := ws.Load(ctx)
		if store == nil {
			return err
		}
		return printDeadline(store)
	}

	store, err := ws.Mutate(ctx, func(s *project.Store) error {
		next, err := resolveDeadline(args[0], s.Project().Deadline, s.Calendar())
		if err != nil {
			return project.MapError(err)
		}
		return s.SetDeadline(next)
	})
	if err != nil {
		return err
	}
	return printDeadline(store)
}

// resolveDeadline reads arg as a date, or as a signed working-day offset
// from current.
func resolveDeadline(arg string, current date.Date, cal calendar.Calendar) (date.Date, error) {
	if strings.HasPrefix(arg, "+") || strings.HasPrefix(arg, "-") {
		n, err := strconv.Atoi(arg)
		if err != nil {
			_, perr := parseDate("deadline", arg)
			return date.Date{}, perr
		}
		if n >= 0 {
			return cal.AddWorkingDays(current, n)
		}
		return cal.SubtractWorkingDays(current, -n)
	}
	return parseDate("deadline", arg)
}

func printDeadline(store *project.Store) error {
	p := store.Project()
	if outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, map[string]any{
			"deadline": p.Deadline,
			"start":    p.Start,
		})
	}
	if p.Start != nil {
		output.Messagef(os.Stdout, "Deadline %s (work starts %s)", p.Deadline, p.Start)
		return nil
	}
	output.Messagef(os.Stdout, "Deadline %s", p.Deadline)
	return nil
}
