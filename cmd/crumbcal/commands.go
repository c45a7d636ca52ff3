package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"cloud.google.com/go/civil"
	"github.com/spf13/cobra"

	"github.com/example/crumb-calendar/internal/application"
	"github.com/example/crumb-calendar/internal/calendar"
	"github.com/example/crumb-calendar/internal/grid"
	"github.com/example/crumb-calendar/internal/ics"
)

// errConflicts is returned by add and update when the change was not saved
// because it overlaps other events.
var errConflicts = errors.New("event overlaps existing events; rerun with --force to save anyway")

func newWeekCmd(a *app) *cobra.Command {
	var date, view string
	cmd := &cobra.Command{
		Use:   "week",
		Short: "Print the grid for a day, 3-day or week window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			anchor, err := parseDateFlag(date, civil.DateOf(a.now()))
			if err != nil {
				return err
			}
			fallback, err := a.cfg.DefaultMode()
			if err != nil {
				return err
			}
			mode, err := parseView(view, fallback)
			if err != nil {
				return err
			}
			events, err := a.svc.List(cmd.Context())
			if err != nil {
				return err
			}

			v := grid.NewView(anchor, mode)
			from, to := v.Range()
			g := a.projector.BuildView(v, events, a.book.Visits(from, to))
			return printGrid(cmd.OutOrStdout(), g)
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "first day of the window (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&view, "view", "", "day, 3day or week (default from config)")
	return cmd
}

func newListCmd(a *app) *cobra.Command {
	var from string
	var days int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List occurrences in a date range",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			start, err := parseDateFlag(from, civil.DateOf(a.now()))
			if err != nil {
				return err
			}
			if days <= 0 {
				return fmt.Errorf("--days must be positive, got %d", days)
			}
			occurrences, err := a.svc.Occurrences(cmd.Context(), start, start.AddDays(days))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(occurrences) == 0 {
				fmt.Fprintln(out, "No events found.")
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			for _, occ := range occurrences {
				ev := occ.Event
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", occ.Date, timeRange(ev.Start, ev.End), ev.Title, ev.Recurrence.OrNone(), ev.ID)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "first day (YYYY-MM-DD, default today)")
	cmd.Flags().IntVar(&days, "days", 7, "number of days to list")
	return cmd
}

// eventFlags binds the editable event fields to flags.
type eventFlags struct {
	input application.EventInput
	force bool
}

func (f *eventFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&f.input.Title, "title", "", "event title")
	flags.StringVar(&f.input.Date, "date", "", "anchor date (YYYY-MM-DD)")
	flags.StringVar(&f.input.StartTime, "start", "", "start time (HH:MM), empty for all-day")
	flags.StringVar(&f.input.EndTime, "end", "", "end time (HH:MM)")
	flags.StringVar(&f.input.Recurrence, "repeat", "", "none, daily, weekly, biweekly or monthly")
	flags.StringVar(&f.input.Location, "location", "", "location")
	flags.StringVar(&f.input.Notes, "notes", "", "notes")
	flags.StringVar(&f.input.Color, "color", "", "palette colour, e.g. #3498db")
	flags.BoolVar(&f.force, "force", false, "save even when the event overlaps others")
}

// apply copies the flags the user set onto base.
func (f *eventFlags) apply(cmd *cobra.Command, base application.EventInput) application.EventInput {
	changed := cmd.Flags().Changed
	if changed("title") {
		base.Title = f.input.Title
	}
	if changed("date") {
		base.Date = f.input.Date
	}
	if changed("start") {
		base.StartTime = f.input.StartTime
	}
	if changed("end") {
		base.EndTime = f.input.EndTime
	}
	if changed("repeat") {
		base.Recurrence = f.input.Recurrence
	}
	if changed("location") {
		base.Location = f.input.Location
	}
	if changed("notes") {
		base.Notes = f.input.Notes
	}
	if changed("color") {
		base.Color = f.input.Color
	}
	return base
}

func newAddCmd(a *app) *cobra.Command {
	var f eventFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create an event",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			base := application.EventInput{Date: civil.DateOf(a.now()).String()}
			result, err := a.svc.Create(cmd.Context(), application.CreateEventParams{
				Input:            f.apply(cmd, base),
				ConfirmConflicts: f.force,
			})
			return reportSave(cmd, "created", result, err)
		},
	}
	f.register(cmd)
	return cmd
}

func newUpdateCmd(a *app) *cobra.Command {
	var f eventFlags
	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Update every occurrence of an event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			current, err := a.svc.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			result, err := a.svc.Update(cmd.Context(), application.UpdateEventParams{
				EventID:          current.ID,
				Input:            f.apply(cmd, application.InputFromEvent(current)),
				ConfirmConflicts: f.force,
			})
			return reportSave(cmd, "updated", result, err)
		},
	}
	f.register(cmd)
	return cmd
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete an event and all of its occurrences",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := a.svc.Delete(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", result.EventID)
			warnPersist(cmd, result.PersistWarning)
			return nil
		},
	}
}

func newExportCmd(a *app) *cobra.Command {
	var output, name string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write all events as an iCalendar file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			events, err := a.svc.List(cmd.Context())
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if output != "" && output != "-" {
				f, ferr := os.Create(output)
				if ferr != nil {
					return ferr
				}
				defer func() {
					if cerr := f.Close(); cerr != nil && err == nil {
						err = cerr
					}
				}()
				w = f
			}
			exporter := ics.NewExporter(a.engine, ics.Options{Name: name, Now: a.now})
			return exporter.Write(w, events)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "destination file (default stdout)")
	cmd.Flags().StringVar(&name, "name", "crumbcal", "calendar name")
	return cmd
}

func reportSave(cmd *cobra.Command, verb string, result application.SaveResult, err error) error {
	if err != nil {
		var vErr *application.ValidationError
		if errors.As(err, &vErr) {
			return fmt.Errorf("invalid event: %s", vErr.Detail())
		}
		return err
	}
	out := cmd.OutOrStdout()
	if !result.Committed {
		for _, c := range result.Conflicts {
			fmt.Fprintf(cmd.ErrOrStderr(), "conflict: %s\n", c)
		}
		return errConflicts
	}
	for _, c := range result.Conflicts {
		fmt.Fprintf(out, "overlaps: %s\n", c)
	}
	fmt.Fprintf(out, "%s %s\n", verb, result.Event.ID)
	warnPersist(cmd, result.PersistWarning)
	return nil
}

func warnPersist(cmd *cobra.Command, warning error) {
	if warning != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: change kept in memory only: %v\n", warning)
	}
}

func parseDateFlag(value string, fallback civil.Date) (civil.Date, error) {
	if value == "" {
		return fallback, nil
	}
	d, err := civil.ParseDate(value)
	if err != nil {
		return civil.Date{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", value)
	}
	return d, nil
}

func timeRange(start, end *calendar.Clock) string {
	switch {
	case start == nil:
		return "all day"
	case end == nil:
		return start.String()
	default:
		return start.String() + "-" + end.String()
	}
}

func printGrid(w io.Writer, g grid.Grid) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for i, day := range g.Days {
		if i > 0 {
			fmt.Fprintln(tw)
		}
		fmt.Fprintf(tw, "%s %s\n", day.Date.In(time.UTC).Weekday().String()[:3], day.Date)
		if len(day.AllDay) == 0 && len(day.Outside) == 0 && !hasTimed(day) {
			fmt.Fprintln(tw, "  -")
			continue
		}
		for _, entry := range day.AllDay {
			fmt.Fprintf(tw, "  all day\t%s\t%s\n", entry.Title, entryRef(entry))
		}
		for _, cell := range day.Cells {
			for _, entry := range cell.Entries {
				fmt.Fprintf(tw, "  %s\t%s\t%s\n", timeRange(entry.Start, entry.End), entry.Title, entryRef(entry))
			}
		}
		for _, entry := range day.Outside {
			fmt.Fprintf(tw, "  %s\t%s\t%s\n", timeRange(entry.Start, entry.End), entry.Title, strings.TrimSpace(entryRef(entry)+" outside hours"))
		}
	}
	return tw.Flush()
}

func hasTimed(day grid.Day) bool {
	for _, cell := range day.Cells {
		if len(cell.Entries) > 0 {
			return true
		}
	}
	return false
}

func entryRef(entry grid.Entry) string {
	if entry.Kind == grid.EntryVisit {
		if entry.Visit.Done {
			return "(visit, done)"
		}
		return "(visit)"
	}
	return entry.Occurrence.Event.ID
}
