package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/backplan/internal/clierr"
	"github.com/twiced-technology-gmbh/backplan/internal/config"
	"github.com/twiced-technology-gmbh/backplan/internal/output"
	"github.com/twiced-technology-gmbh/backplan/internal/project"
	"github.com/twiced-technology-gmbh/backplan/internal/schedule"
	"github.com/twiced-technology-gmbh/backplan/internal/workspace"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new plan",
	Long: `Creates a plan directory with config.yml and a tasks/ subdirectory.
The deadline is required; a preset fills in a starter task list.`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().String("name", "", "project name (defaults to current directory name)")
	initCmd.Flags().String("deadline", "", "project deadline (YYYY-MM-DD)")
	initCmd.Flags().StringSlice("countries", config.DefaultCountries, "holiday countries (comma-separated)")
	initCmd.Flags().String("preset", "", "start from a preset task list")
	initCmd.Flags().String("anchor", config.DefaultAnchor, "deadline anchor policy (literal, previous-working-day)")
	_ = initCmd.MarkFlagRequired("deadline")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, _ []string) error {
	dir := flagDir
	if dir == "" {
		dir = config.DefaultDir
	}

	deadlineStr, _ := cmd.Flags().GetString("deadline")
	deadline, err := parseDate("deadline", deadlineStr)
	if err != nil {
		return err
	}

	anchor, _ := cmd.Flags().GetString("anchor")
	if _, err := schedule.ParseAnchor(anchor); err != nil {
		return clierr.Wrap(clierr.InvalidInput, err)
	}

	name, _ := cmd.Flags().GetString("name")
	if name == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("getting working directory: %w", err)
		}
		name = filepath.Base(cwd)
	}

	cfg, err := config.Init(dir, name, deadline)
	if err != nil {
		return err
	}
	if anchor != cfg.Schedule.DeadlineAnchor {
		cfg.Schedule.DeadlineAnchor = anchor
		if err := cfg.Save(); err != nil {
			return err
		}
	}

	countries, _ := cmd.Flags().GetStringSlice("countries")
	presetID, _ := cmd.Flags().GetString("preset")

	ctx := context.Background()
	ws, err := workspace.Open(ctx, cfg, logger, workspace.WithWarnings(printWarning))
	if err != nil {
		return err
	}
	defer ws.Close()

	store, err := ws.Mutate(ctx, func(s *project.Store) error {
		normalized := project.NormalizeCodes(countries)
		if err := s.SetHolidays(ws.Holidays(ctx, normalized)); err != nil {
			return err
		}
		if err := s.SetCalendarSelection(normalized); err != nil {
			return err
		}
		if presetID != "" {
			return s.SelectPreset(presetID)
		}
		return nil
	})
	if err != nil {
		return err
	}

	p := store.Project()
	if outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, map[string]any{
			"status":   "initialized",
			"dir":      cfg.Dir(),
			"project":  p,
			"schedule": store.Result(),
		})
	}

	output.Messagef(os.Stdout, "Initialized plan %q in %s (deadline %s, %d tasks)",
		p.Name, cfg.Dir(), p.Deadline, len(p.Tasks))
	return nil
}
