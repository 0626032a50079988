package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/backplan/internal/activity"
	"github.com/twiced-technology-gmbh/backplan/internal/output"
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Show recent plan changes",
	Long:  `Prints the activity log: every committed change with its time and target task.`,
	RunE:  runLog,
}

func init() {
	logCmd.Flags().IntP("limit", "n", 20, "number of entries (0 for all)") //nolint:mnd // default page
	rootCmd.AddCommand(logCmd)
}

func runLog(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	limit, _ := cmd.Flags().GetInt("limit")
	entries, err := activity.ReadLog(cfg.Dir(), limit)
	if err != nil {
		return err
	}

	switch outputFormat() {
	case output.FormatJSON:
		if entries == nil {
			entries = []activity.LogEntry{}
		}
		return output.JSON(os.Stdout, entries)
	case output.FormatCompact:
		for _, e := range entries {
			output.Messagef(os.Stdout, "%s %s #%d %s",
				e.Timestamp.Local().Format("2006-01-02T15:04:05"), e.Action, e.TaskID, e.Detail)
		}
	default:
		output.LogTable(os.Stdout, entries)
	}
	return nil
}
