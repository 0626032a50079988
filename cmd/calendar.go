package cmd

import (
	"context"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/backplan/internal/output"
	"github.com/twiced-technology-gmbh/backplan/internal/project"
)

var calendarCmd = &cobra.Command{
	Use:     "calendar",
	Aliases: []string{"cal"},
	Short:   "Manage holiday countries",
	Long:    `Lists holiday countries or selects the ones whose holidays count as non-working days.`,
	RunE:    runCalendarList,
}

var calendarListCmd = &cobra.Command{
	Use:   "list",
	Short: "List holiday countries",
	RunE:  runCalendarList,
}

var calendarSetCmd = &cobra.Command{
	Use:   "set [CODE,...]",
	Short: "Select holiday countries",
	Long: `Replaces the holiday country selection and reschedules. No codes means
weekends only.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCalendarSet,
}

var calendarHolidaysCmd = &cobra.Command{
	Use:   "holidays",
	Short: "List the holidays in the plan's range",
	RunE:  runCalendarHolidays,
}

func init() {
	calendarCmd.AddCommand(calendarListCmd)
	calendarCmd.AddCommand(calendarSetCmd)
	calendarCmd.AddCommand(calendarHolidaysCmd)
	rootCmd.AddCommand(calendarCmd)
}

func runCalendarList(_ *cobra.Command, _ []string) error {
	ctx := context.Background()
	ws, err := openWorkspace(ctx)
	if err != nil {
		return err
	}
	defer ws.Close()

	store, err := ws.Load(ctx)
	if store == nil {
		return err
	}
	selected := store.Project().Countries
	countries := ws.Countries()

	switch outputFormat() {
	case output.FormatJSON:
		return output.JSON(os.Stdout, map[string]any{
			"countries": countries,
			"selected":  selected,
		})
	case output.FormatCompact:
		for _, c := range countries {
			output.Messagef(os.Stdout, "%s %s", c.Code, c.Name)
		}
	default:
		output.CountryTable(os.Stdout, countries, selected)
	}
	return nil
}

func runCalendarSet(_ *cobra.Command, args []string) error {
	var codes []string
	if len(args) == 1 {
		codes = project.NormalizeCodes(strings.Split(args[0], ","))
	}

	ctx := context.Background()
	ws, err := openWorkspace(ctx)
	if err != nil {
		return err
	}
	defer ws.Close()

	store, err := ws.Mutate(ctx, func(s *project.Store) error {
		if err := s.SetHolidays(ws.Holidays(ctx, codes)); err != nil {
			return err
		}
		return s.SetCalendarSelection(codes)
	})
	if err != nil {
		return err
	}

	p := store.Project()
	if outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, map[string]any{"countries": p.Countries, "start": p.Start})
	}
	if len(p.Countries) == 0 {
		output.Messagef(os.Stdout, "Calendar set to weekends only")
		return nil
	}
	output.Messagef(os.Stdout, "Calendar set to %s", strings.Join(p.Countries, ", "))
	return nil
}

// runCalendarHolidays lists holidays of the selected countries between the
// project start and the deadline.
func runCalendarHolidays(_ *cobra.Command, _ []string) error {
	ctx := context.Background()
	ws, err := openWorkspace(ctx)
	if err != nil {
		return err
	}
	defer ws.Close()

	store, err := ws.Load(ctx)
	if store == nil {
		return err
	}
	p := store.Project()
	from := p.Deadline
	if p.Start != nil {
		from = *p.Start
	}
	cal := store.Calendar()

	type entry struct {
		Country string `json:"country"`
		Date    string `json:"date"`
	}
	var entries []entry
	for _, code := range p.Countries {
		for _, d := range cal.Holidays.Dates(code) {
			if d.Before(from) || d.After(p.Deadline) {
				continue
			}
			entries = append(entries, entry{Country: code, Date: d.String()})
		}
	}

	if outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, entries)
	}
	if len(entries) == 0 {
		output.Messagef(os.Stderr, "No holidays between %s and %s.", from, p.Deadline)
		return nil
	}
	for _, e := range entries {
		output.Messagef(os.Stdout, "%s  %s", e.Date, e.Country)
	}
	return nil
}
