// Package calendar holds the cli commands for the working-day calendar
//
// e.g., op calendar ...
package calendar

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kianm04/OpenProjectEkster-sub016/internal/cli"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/cli/styles"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/models"
)

// dayNames maps ISO week day numbers to short names
var dayNames = [8]string{"", "mon", "tue", "wed", "thu", "fri", "sat", "sun"}

// CalendarCmd returns the calendar parent command
func CalendarCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Manage working days and holidays",
	}

	cmd.AddCommand(showCmd())
	cmd.AddCommand(setWeekCmd())
	cmd.AddCommand(holidayCmd())
	cmd.AddCommand(durationCmd())

	return cmd
}

func showCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the working week and non-working days",
		RunE:  cli.Run(runShow),
	}
	cmd.Flags().String("from", "", "Only list non-working days on or after this date (YYYY-MM-DD)")
	cmd.Flags().String("to", "", "Only list non-working days on or before this date (YYYY-MM-DD)")
	cli.AddOutputFlags(cmd)
	return cmd
}

type calendarData struct {
	WeekDays       []models.WeekDay       `json:"week_days"`
	NonWorkingDays []models.NonWorkingDay `json:"non_working_days"`
}

func runShow(c *cli.CLI, f *cli.OutputFormatter, cmd *cobra.Command, args []string) error {
	from, err := cli.DateFlag(cmd, "from")
	if err != nil {
		return err
	}
	to, err := cli.DateFlag(cmd, "to")
	if err != nil {
		return err
	}

	week, err := c.App.CalendarService.GetWeekDays(c.Context())
	if err != nil {
		return err
	}
	holidays, err := c.App.CalendarService.ListNonWorkingDays(c.Context(), from, to)
	if err != nil {
		return err
	}
	if holidays == nil {
		holidays = []models.NonWorkingDay{}
	}

	ids := make([]int, len(holidays))
	for i, h := range holidays {
		ids[i] = h.ID
	}
	data := calendarData{WeekDays: week, NonWorkingDays: holidays}
	return f.Print("calendar", data, ids, func(w io.Writer) error {
		fmt.Fprintln(w, styles.Section("Working week"))
		for _, wd := range week {
			mark := styles.ClosedStyle.Render(dayNames[wd.Day])
			if wd.Working {
				mark = styles.SuccessStyle.Render(dayNames[wd.Day])
			}
			fmt.Fprintf(w, "  %s", mark)
		}
		fmt.Fprintln(w)

		fmt.Fprintln(w, styles.Section("Non-working days"))
		if len(holidays) == 0 {
			fmt.Fprintln(w, styles.SubtitleStyle.Render("  none"))
		}
		for _, h := range holidays {
			fmt.Fprintf(w, "  %s %s\n", h.Date.Format(time.DateOnly), h.Name)
		}
		return nil
	})
}

func setWeekCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set-week",
		Short: "Choose the working days of the week",
		Long: `Choose the working days of the week. Every dated work package that
is not manually scheduled is refitted to the new week.

Examples:
  op calendar set-week --working=mon,tue,wed,thu
`,
		RunE: cli.Run(runSetWeek),
	}
	cmd.Flags().StringSlice("working", nil, "Working days (mon..sun), comma separated (required)")
	if err := cmd.MarkFlagRequired("working"); err != nil {
		slog.Error("failed to mark flag as required", "flag", "working", "error", err)
	}
	cli.AddOutputFlags(cmd)
	return cmd
}

// parseWeek turns day names into all seven week days
func parseWeek(names []string) ([]models.WeekDay, error) {
	working := make(map[int]bool, len(names))
	for _, name := range names {
		day := dayNumber(name)
		if day == 0 {
			return nil, cli.UsageError("unknown week day %q (use mon..sun)", name)
		}
		working[day] = true
	}
	week := make([]models.WeekDay, 0, 7)
	for day := 1; day <= 7; day++ {
		week = append(week, models.WeekDay{Day: day, Working: working[day]})
	}
	return week, nil
}

func dayNumber(name string) int {
	name = strings.ToLower(strings.TrimSpace(name))
	if len(name) < 3 {
		return 0
	}
	for day := 1; day <= 7; day++ {
		if strings.HasPrefix(name, dayNames[day]) {
			return day
		}
	}
	return 0
}

func runSetWeek(c *cli.CLI, f *cli.OutputFormatter, cmd *cobra.Command, args []string) error {
	names, _ := cmd.Flags().GetStringSlice("working")
	week, err := parseWeek(names)
	if err != nil {
		return err
	}

	res, err := cli.Checked(c.App.CalendarService.SetWeekDays(c.Context(), week))
	if err != nil {
		return err
	}
	return printChange(f, res.Result, nil, res.Dependents, "Working week updated")
}

func holidayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "holiday",
		Aliases: []string{"non-working-day"},
		Short:   "Add or remove non-working days",
	}

	add := &cobra.Command{
		Use:   "add",
		Short: "Mark a date as non-working",
		RunE:  cli.Run(runHolidayAdd),
	}
	add.Flags().String("date", "", "Date (YYYY-MM-DD, required)")
	add.Flags().String("name", "", "Name of the holiday (required)")
	for _, name := range []string{"date", "name"} {
		if err := add.MarkFlagRequired(name); err != nil {
			slog.Error("failed to mark flag as required", "flag", name, "error", err)
		}
	}
	cli.AddOutputFlags(add)

	remove := &cobra.Command{
		Use:   "remove",
		Short: "Make a non-working date a regular day again",
		RunE:  cli.Run(runHolidayRemove),
	}
	remove.Flags().String("date", "", "Date (YYYY-MM-DD, required)")
	if err := remove.MarkFlagRequired("date"); err != nil {
		slog.Error("failed to mark flag as required", "flag", "date", "error", err)
	}
	cli.AddOutputFlags(remove)

	cmd.AddCommand(add, remove)
	return cmd
}

func runHolidayAdd(c *cli.CLI, f *cli.OutputFormatter, cmd *cobra.Command, args []string) error {
	date, err := cli.DateFlag(cmd, "date")
	if err != nil {
		return err
	}
	name, _ := cmd.Flags().GetString("name")

	res, err := cli.Checked(c.App.CalendarService.AddNonWorkingDay(c.Context(), *date, name))
	if err != nil {
		return err
	}
	msg := fmt.Sprintf("%s is now a non-working day (%s)", res.Result.Date.Format(time.DateOnly), res.Result.Name)
	return printChange(f, res.Result, []int{res.Result.ID}, res.Dependents, msg)
}

func runHolidayRemove(c *cli.CLI, f *cli.OutputFormatter, cmd *cobra.Command, args []string) error {
	date, err := cli.DateFlag(cmd, "date")
	if err != nil {
		return err
	}

	res, err := cli.Checked(c.App.CalendarService.RemoveNonWorkingDay(c.Context(), *date))
	if err != nil {
		return err
	}
	msg := fmt.Sprintf("%s is a regular day again", res.Result.Date.Format(time.DateOnly))
	return printChange(f, res.Result, []int{res.Result.ID}, res.Dependents, msg)
}

func durationCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "duration",
		Short: "Count working days or derive a due date",
		Long: `Count the working days between two dates, or derive the due date of
a work package from its start and duration.

Examples:
  op calendar duration --start=2024-06-03 --due=2024-06-14
  op calendar duration --start=2024-06-03 --days=5
`,
		RunE: cli.Run(runDuration),
	}
	cmd.Flags().String("start", "", "Start date (YYYY-MM-DD, required)")
	cmd.Flags().String("due", "", "Due date (YYYY-MM-DD)")
	cmd.Flags().Int("days", 0, "Duration in working days")
	cmd.Flags().Bool("ignore-non-working-days", false, "Count every calendar day")
	if err := cmd.MarkFlagRequired("start"); err != nil {
		slog.Error("failed to mark flag as required", "flag", "start", "error", err)
	}
	cmd.MarkFlagsMutuallyExclusive("due", "days")
	cli.AddOutputFlags(cmd)
	return cmd
}

type durationData struct {
	StartDate time.Time `json:"start_date"`
	DueDate   time.Time `json:"due_date"`
	Duration  int       `json:"duration"`
}

func runDuration(c *cli.CLI, f *cli.OutputFormatter, cmd *cobra.Command, args []string) error {
	start, err := cli.DateFlag(cmd, "start")
	if err != nil {
		return err
	}
	due, err := cli.DateFlag(cmd, "due")
	if err != nil {
		return err
	}
	length, _ := cmd.Flags().GetInt("days")
	ignore, _ := cmd.Flags().GetBool("ignore-non-working-days")
	if due == nil && length < 1 {
		return cli.UsageError("either --due or a positive --days is required")
	}

	cal, err := c.App.CalendarService.Calendar(c.Context())
	if err != nil {
		return err
	}
	cal = cal.For(ignore)

	data := durationData{StartDate: *start}
	if due != nil {
		if due.Before(*start) {
			return cli.UsageError("--due must not be before --start")
		}
		data.DueDate = *due
		data.Duration, _ = cal.Duration(start, due)
	} else {
		d, err := cal.DueDate(*start, length)
		if err != nil {
			return fmt.Errorf("failed to derive due date: %w", err)
		}
		data.DueDate, data.Duration = d, length
	}

	return f.Print("duration", data, nil, func(w io.Writer) error {
		fmt.Fprintf(w, "%s  %s\n", styles.DateRange(&data.StartDate, &data.DueDate),
			styles.LabelStyle.Render(fmt.Sprintf("%d working days", data.Duration)))
		return nil
	})
}

func printChange(f *cli.OutputFormatter, payload any, ids []int, moved []*models.WorkPackage, message string) error {
	if moved == nil {
		moved = []*models.WorkPackage{}
	}
	data := map[string]any{"calendar": payload, "rescheduled": moved}
	return f.Print("result", data, ids, func(w io.Writer) error {
		fmt.Fprintf(w, "%s %s\n", styles.SuccessStyle.Render("✓"), message)
		for _, wp := range moved {
			fmt.Fprintln(w, "  rescheduled "+styles.RenderReference("", models.WorkPackageReference{
				ID: wp.ID, Subject: wp.Subject, StartDate: wp.StartDate, DueDate: wp.DueDate,
			}))
		}
		return nil
	})
}
