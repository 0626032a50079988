// Package cmd implements the backplan CLI commands.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/twiced-technology-gmbh/backplan/internal/clierr"
	"github.com/twiced-technology-gmbh/backplan/internal/config"
	"github.com/twiced-technology-gmbh/backplan/internal/date"
	"github.com/twiced-technology-gmbh/backplan/internal/logging"
	"github.com/twiced-technology-gmbh/backplan/internal/output"
	"github.com/twiced-technology-gmbh/backplan/internal/task"
	"github.com/twiced-technology-gmbh/backplan/internal/workspace"
)

// version is set at build time via ldflags.
var version = "dev"

// Global flags.
var (
	flagJSON    bool
	flagTable   bool
	flagCompact bool
	flagDir     string
	flagNoColor bool
	flagVerbose bool
)

// logger is built once flags are parsed.
var logger = zap.NewNop()

var rootCmd = &cobra.Command{
	Use:   "backplan",
	Short: "Plan backwards from a deadline",
	Long: `backplan schedules tasks backwards from a deadline over working days,
honoring dependencies, weekends and national holidays.
Run backplan without a command to open the Gantt view.`,
	Version:       version,
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE:          runTUI,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		if flagNoColor || os.Getenv("NO_COLOR") != "" {
			output.DisableColor()
		}
		logger = logging.New(flagVerbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVar(&flagTable, "table", false, "output as table")
	rootCmd.PersistentFlags().BoolVar(&flagCompact, "compact", false, "compact one-line-per-record output")
	rootCmd.PersistentFlags().BoolVar(&flagCompact, "oneline", false, "alias for --compact")
	rootCmd.PersistentFlags().StringVar(&flagDir, "dir", "", "path to plan directory")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "disable color output")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "log debug details to stderr")
}

// Execute runs the root command.
func Execute() {
	_, err := rootCmd.ExecuteC()
	_ = logger.Sync()
	if err == nil {
		return
	}

	// SilentError: exit with code, no output.
	var silent *clierr.SilentError
	if errors.As(err, &silent) {
		os.Exit(silent.Code)
	}

	if outputFormat() == output.FormatJSON {
		var cliErr *clierr.Error
		if errors.As(err, &cliErr) {
			output.JSONError(os.Stdout, cliErr.Code, cliErr.Message, cliErr.Details)
			os.Exit(cliErr.ExitCode())
		}
		// Unknown error: report as INTERNAL_ERROR.
		output.JSONError(os.Stdout, clierr.InternalError, err.Error(), nil)
		os.Exit(2) //nolint:mnd // exit code 2 for internal errors
	}

	fmt.Fprintln(os.Stderr, "Error:", err)
	var cliErr *clierr.Error
	if errors.As(err, &cliErr) {
		os.Exit(cliErr.ExitCode())
	}
	os.Exit(1)
}

// resolveDir returns the plan directory from --dir or the nearest one above
// the working directory.
func resolveDir() (string, error) {
	if flagDir != "" {
		return flagDir, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting working directory: %w", err)
	}
	return config.FindDir(cwd)
}

// loadConfig finds and loads the plan config.
func loadConfig() (*config.Config, error) {
	dir, err := resolveDir()
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(dir)
	switch {
	case errors.Is(err, config.ErrNotFound):
		return nil, clierr.Wrap(clierr.PlanNotFound, err).WithDetails(map[string]any{"dir": dir})
	case errors.Is(err, config.ErrInvalid):
		return nil, clierr.Wrap(clierr.InvalidInput, err)
	}
	return cfg, err
}

// openWorkspace loads the config and wires its backends. Callers must Close.
func openWorkspace(ctx context.Context) (*workspace.Workspace, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return workspace.Open(ctx, cfg, logger, workspace.WithWarnings(printWarning))
}

// outputFormat returns the detected output format from flags/env.
func outputFormat() output.Format {
	return output.Detect(flagJSON, flagTable, flagCompact)
}

// printWarning reports a non-fatal problem on stderr.
func printWarning(err error) {
	fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
}

// parseIDs splits a comma-separated ID string into deduplicated int IDs.
func parseIDs(arg string) ([]int, error) {
	ids, err := parseIDList(arg)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, clierr.New(clierr.InvalidTaskID, "no valid task IDs provided")
	}
	seen := make(map[int]bool, len(ids))
	return slices.DeleteFunc(ids, func(id int) bool {
		dup := seen[id]
		seen[id] = true
		return dup
	}), nil
}

// parseIDList is parseIDs allowing an empty list, for clearing dependencies.
// Duplicates are kept so validation can report them.
func parseIDList(arg string) ([]int, error) {
	parts := strings.Split(arg, ",")
	ids := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(p), "#"))
		if p == "" {
			continue
		}
		id, err := strconv.Atoi(p)
		if err != nil || id <= 0 {
			return nil, task.ValidateTaskID(p)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// parseID parses a single task id argument.
func parseID(arg string) (int, error) {
	id, err := strconv.Atoi(strings.TrimPrefix(arg, "#"))
	if err != nil || id <= 0 {
		return 0, task.ValidateTaskID(arg)
	}
	return id, nil
}

// parseDate parses a YYYY-MM-DD argument.
func parseDate(field, input string) (date.Date, error) {
	d, err := date.Parse(input)
	if err != nil {
		return date.Date{}, task.ValidateDate(field, input, err)
	}
	return d, nil
}
