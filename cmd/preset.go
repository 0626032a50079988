package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/backplan/internal/clierr"
	"github.com/twiced-technology-gmbh/backplan/internal/output"
	"github.com/twiced-technology-gmbh/backplan/internal/preset"
	"github.com/twiced-technology-gmbh/backplan/internal/project"
)

var presetCmd = &cobra.Command{
	Use:   "preset",
	Short: "Manage task presets",
	Long: `Lists preset task lists or replaces the plan's tasks with one.
Plan-local presets live in presets/*.yml inside the plan directory.`,
	RunE: runPresetList,
}

var presetListCmd = &cobra.Command{
	Use:   "list",
	Short: "List presets",
	RunE:  runPresetList,
}

var presetSelectCmd = &cobra.Command{
	Use:   "select ID",
	Short: "Replace all tasks with a preset",
	Args:  cobra.ExactArgs(1),
	RunE:  runPresetSelect,
}

func init() {
	presetSelectCmd.Flags().BoolP("yes", "y", false, "replace existing tasks without asking")
	presetCmd.AddCommand(presetListCmd)
	presetCmd.AddCommand(presetSelectCmd)
	rootCmd.AddCommand(presetCmd)
}

func runPresetList(_ *cobra.Command, _ []string) error {
	ctx := context.Background()
	ws, err := openWorkspace(ctx)
	if err != nil {
		return err
	}
	defer ws.Close()

	presets := ws.Presets().List()
	current := ""
	if store, _ := ws.Load(ctx); store != nil {
		current = store.Project().Preset
	}

	switch outputFormat() {
	case output.FormatJSON:
		return output.JSON(os.Stdout, presets)
	case output.FormatCompact:
		for _, p := range presets {
			output.Messagef(os.Stdout, "%s (%d tasks) %s", p.ID, len(p.Tasks), p.Name)
		}
	default:
		output.PresetTable(os.Stdout, presets, current)
	}
	return nil
}

func runPresetSelect(cmd *cobra.Command, args []string) error {
	id := args[0]
	yes, _ := cmd.Flags().GetBool("yes")

	ctx := context.Background()
	ws, err := openWorkspace(ctx)
	if err != nil {
		return err
	}
	defer ws.Close()

	var selected preset.Preset
	store, err := ws.Mutate(ctx, func(s *project.Store) error {
		if n := len(s.Project().Tasks); n > 0 && !yes {
			return clierr.Newf(clierr.ConfirmationReq,
				"preset replaces %d existing tasks; use --yes", n).
				WithDetails(map[string]any{"tasks": n})
		}
		var err error
		if selected, err = ws.Presets().Get(id); err != nil {
			return err
		}
		return s.SelectPreset(id)
	})
	if err != nil {
		return err
	}

	if outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, store.Result())
	}
	output.Messagef(os.Stdout, "Selected preset %s: %d tasks", selected.Name, len(selected.Tasks))
	return nil
}
