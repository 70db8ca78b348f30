package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/klokku/worktime/internal/event_bus"
	"github.com/klokku/worktime/pkg/draft_cache"
	"github.com/klokku/worktime/pkg/reconciler"
	"github.com/klokku/worktime/pkg/timesheet"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var weekdays = []string{"mon", "tue", "wed", "thu", "fri", "sat", "sun"}

func newWeekCmd(s *session) *cobra.Command {
	var week string

	weekCmd := &cobra.Command{
		Use:   "week",
		Short: "Show, edit, submit or export a weekly timesheet",
	}
	weekCmd.PersistentFlags().StringVar(&week, "week", "", "Any day of the week, YYYY-MM-DD (default: today)")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the week's grid with totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.withWeek(cmd, week, func(r *reconciler.Reconciler, grid *timesheet.Grid) error {
				return renderGrid(cmd.OutOrStdout(), grid, s.projectNames(cmd.Context()))
			})
		},
	}

	setCmd := &cobra.Command{
		Use:   "set <project> <day> <hours>",
		Short: "Set the hours of one cell and save the week",
		Long: `Day is an index 0-6 (Monday is 0), a weekday name such as "tue", or a date.
Hours are rounded to the nearest quarter and capped at 24; 0 clears the cell.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.withWeek(cmd, week, func(r *reconciler.Reconciler, grid *timesheet.Grid) error {
				day, err := parseDay(grid.WeekStart(), args[1])
				if err != nil {
					return err
				}
				hours := timesheet.ParseHours(args[2])
				if err := r.SetHours(cmd.Context(), args[0], day, hours); err != nil {
					return err
				}
				if _, err := r.Save(cmd.Context()); err != nil {
					if errors.Is(err, timesheet.ErrNotEditable) {
						return err
					}
					fmt.Fprintf(cmd.ErrOrStderr(), "Could not reach the record store, the change is kept offline: %v\n", err)
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Saved %s on %s: %s h\n", args[0],
					timesheet.FormatDate(timesheet.DayOfWeek(grid.WeekStart(), day)), formatHours(r.Grid().GetHours(args[0], day)))
				return nil
			})
		},
	}

	submitCmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit the week for approval",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.withWeek(cmd, week, func(r *reconciler.Reconciler, grid *timesheet.Grid) error {
				result, err := r.Submit(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Submitted week %s: %d entries, %s h\n",
					timesheet.FormatDate(grid.WeekStart()), result.EntryCount, formatHours(result.TotalHours))
				return nil
			})
		},
	}

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Write the week as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.withWeek(cmd, week, func(r *reconciler.Reconciler, grid *timesheet.Grid) error {
				csv, err := timesheet.RenderCSV(grid, s.projectNames(cmd.Context()))
				if err != nil {
					return err
				}
				_, err = io.WriteString(cmd.OutOrStdout(), csv)
				return err
			})
		},
	}

	weekCmd.AddCommand(showCmd, setCmd, submitCmd, exportCmd)
	return weekCmd
}

// withWeek opens the draft cache, loads the requested week and runs fn.
// An unreachable record store is reported and fn runs on the offline week.
func (s *session) withWeek(cmd *cobra.Command, week string, fn func(r *reconciler.Reconciler, grid *timesheet.Grid) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	date := s.clock.Now()
	if week != "" {
		parsed, err := timesheet.ParseDate(week)
		if err != nil {
			return fmt.Errorf("invalid --week %q: %w", week, err)
		}
		date = parsed
	}

	cache, err := draft_cache.Open(s.cfg.Client.DraftPath, s.clock)
	if err != nil {
		return err
	}
	defer cache.Close()

	bus := event_bus.NewEventBus()
	defer draft_cache.Subscribe(bus, cache)()

	r := reconciler.NewReconciler(s.client, cache, bus)
	grid, err := r.Navigate(ctx, date)
	switch {
	case errors.Is(err, reconciler.ErrOffline):
		fmt.Fprintf(cmd.ErrOrStderr(), "Working offline, showing cached edits only: %v\n", err)
	case err != nil:
		return err
	}
	return fn(r, grid)
}

func (s *session) projectNames(ctx context.Context) map[string]string {
	names := map[string]string{}
	projects, err := s.client.ListProjects(ctx)
	if err != nil {
		log.Warnf("could not load project names: %v", err)
		return names
	}
	for _, p := range projects {
		names[p.Id] = p.Name
	}
	return names
}

func parseDay(weekStart time.Time, arg string) (int, error) {
	arg = strings.ToLower(strings.TrimSpace(arg))
	if i, err := strconv.Atoi(arg); err == nil {
		if i < 0 || i >= timesheet.DaysInWeek {
			return 0, timesheet.ErrInvalidDay
		}
		return i, nil
	}
	for i, name := range weekdays {
		if strings.HasPrefix(arg, name) {
			return i, nil
		}
	}
	date, err := timesheet.ParseDate(arg)
	if err != nil {
		return 0, fmt.Errorf("unrecognised day %q", arg)
	}
	day := timesheet.DayIndex(weekStart, date)
	if day < 0 {
		return 0, errors.New("date " + arg + " is outside of week " + timesheet.FormatDate(weekStart))
	}
	return day, nil
}

func renderGrid(out io.Writer, grid *timesheet.Grid, projectNames map[string]string) error {
	fmt.Fprintf(out, "Week of %s (%s)\n\n", timesheet.FormatDate(grid.WeekStart()), grid.Status())

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	header := []string{"Project"}
	for day := 0; day < timesheet.DaysInWeek; day++ {
		header = append(header, timesheet.DayOfWeek(grid.WeekStart(), day).Format("Mon 02"))
	}
	header = append(header, "Total")
	fmt.Fprintln(w, strings.Join(header, "\t")+"\t")

	for _, projectId := range grid.ProjectIds() {
		name := projectNames[projectId]
		if name == "" {
			name = projectId
		}
		row := []string{name}
		for day := 0; day < timesheet.DaysInWeek; day++ {
			row = append(row, formatHours(grid.GetHours(projectId, day)))
		}
		row = append(row, formatHours(grid.ProjectTotal(projectId)))
		fmt.Fprintln(w, strings.Join(row, "\t")+"\t")
	}

	footer := []string{"Total"}
	for day := 0; day < timesheet.DaysInWeek; day++ {
		footer = append(footer, formatHours(grid.DailyTotal(day)))
	}
	footer = append(footer, formatHours(grid.WeeklyTotal()))
	fmt.Fprintln(w, strings.Join(footer, "\t")+"\t")
	return w.Flush()
}

func formatHours(hours float64) string {
	if hours == 0 {
		return "-"
	}
	return strconv.FormatFloat(hours, 'f', -1, 64)
}
