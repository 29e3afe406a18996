// ABOUTME: Calendar CLI commands
// ABOUTME: Lists Google and local events, runs a sync, and shows sync status
package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/harperreed/prospecta/models"
	"github.com/harperreed/prospecta/sync"
)

var calendarCmd = &cobra.Command{
	Use:     "calendar",
	Aliases: []string{"cal"},
	Short:   "Google Calendar sync and local events",
}

var calendarFlags struct {
	From   string
	To     string
	Before int
	After  int
	Google bool
}

var calendarListCmd = &cobra.Command{
	Use:   "list",
	Short: "List events (local store by default, --google for the live calendar)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, appOptions{}, func(ctx context.Context, a *app) error {
			from, to, err := calendarRange(ctx, a)
			if err != nil {
				return err
			}

			var events []models.Event
			if calendarFlags.Google {
				if err := a.requireCalendar(); err != nil {
					return err
				}
				events, err = a.calendar.ListEvents(ctx, from, to)
			} else {
				events, err = a.events.List(ctx, from, to)
			}
			if err != nil {
				return fmt.Errorf("failed to list events: %w", err)
			}

			printEvents(cmd.OutOrStdout(), events)
			return nil
		})
	},
}

var calendarSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Pull Google Calendar events into the local store",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, appOptions{}, func(ctx context.Context, a *app) error {
			if err := a.requireCalendar(); err != nil {
				return err
			}
			before, after, err := syncMonths(ctx, a, cmd)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Syncing Google Calendar (%d month(s) back, %d ahead)...\n", before, after)
			events, err := a.calendar.Sync(ctx, before, after)
			if err != nil {
				return fmt.Errorf("sync failed: %w", err)
			}
			fmt.Fprintf(out, "  ✓ %d event(s) synced\n", len(events))
			return nil
		})
	},
}

var calendarStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the last calendar sync",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, appOptions{}, func(ctx context.Context, a *app) error {
			if err := a.requireCalendar(); err != nil {
				return err
			}
			state, err := a.calendar.Status(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			connected := "no"
			if a.tokens.Connected(ctx) {
				connected = "yes"
			}
			fmt.Fprintln(out, "CALENDAR SYNC")
			fmt.Fprintln(out, "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
			fmt.Fprintf(out, "Connected: %s\n", connected)
			fmt.Fprintf(out, "Status:    %s\n", state.Status)
			if state.LastSyncTime != nil {
				fmt.Fprintf(out, "Last sync: %s\n", state.LastSyncTime.Local().Format(time.RFC1123))
			} else {
				fmt.Fprintln(out, "Last sync: never")
			}
			if state.WindowStart != nil && state.WindowEnd != nil {
				fmt.Fprintf(out, "Window:    %s → %s\n", state.WindowStart.Format("2006-01-02"), state.WindowEnd.Format("2006-01-02"))
			}
			if state.ErrorMessage != "" {
				fmt.Fprintf(out, "Error:     %s\n", state.ErrorMessage)
			}
			return nil
		})
	},
}

func init() {
	calendarListCmd.Flags().StringVar(&calendarFlags.From, "from", "", "Start date YYYY-MM-DD (default: sync window start)")
	calendarListCmd.Flags().StringVar(&calendarFlags.To, "to", "", "End date YYYY-MM-DD, exclusive (default: sync window end)")
	calendarListCmd.Flags().BoolVar(&calendarFlags.Google, "google", false, "Query Google Calendar directly")
	calendarSyncCmd.Flags().IntVar(&calendarFlags.Before, "before", 0, "Months before the current one (default from settings)")
	calendarSyncCmd.Flags().IntVar(&calendarFlags.After, "after", 0, "Months after the current one (default from settings)")

	calendarCmd.AddCommand(calendarListCmd, calendarSyncCmd, calendarStatusCmd)
	RootCmd.AddCommand(calendarCmd)
}

// calendarRange resolves --from/--to, falling back to the configured sync window.
func calendarRange(ctx context.Context, a *app) (time.Time, time.Time, error) {
	settings, err := a.events.Settings(ctx)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	loc, err := time.LoadLocation(settings.TimeZone)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid calendar time zone %q: %w", settings.TimeZone, err)
	}
	from, to := sync.SyncWindow(time.Now().In(loc), settings.SyncMonthsBefore, settings.SyncMonthsAfter)

	if calendarFlags.From != "" {
		if from, err = time.ParseInLocation("2006-01-02", calendarFlags.From, loc); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --from: %w", err)
		}
	}
	if calendarFlags.To != "" {
		if to, err = time.ParseInLocation("2006-01-02", calendarFlags.To, loc); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --to: %w", err)
		}
	}
	return from, to, nil
}

// syncMonths takes explicit flags first, then the stored calendar settings.
func syncMonths(ctx context.Context, a *app, cmd *cobra.Command) (int, int, error) {
	settings, err := a.events.Settings(ctx)
	if err != nil {
		return 0, 0, err
	}
	before, after := settings.SyncMonthsBefore, settings.SyncMonthsAfter
	if cmd.Flags().Changed("before") {
		before = calendarFlags.Before
	}
	if cmd.Flags().Changed("after") {
		after = calendarFlags.After
	}
	if err := sync.ValidateWindow(before, after); err != nil {
		return 0, 0, err
	}
	return before, after, nil
}

func printEvents(out io.Writer, events []models.Event) {
	if len(events) == 0 {
		fmt.Fprintln(out, "No events found")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "START\tEND\tTITLE\tCATEGORY\tLOCATION")
	_, _ = fmt.Fprintln(w, "-----\t---\t-----\t--------\t--------")
	for _, ev := range events {
		layout := "2006-01-02 15:04"
		if ev.AllDay {
			layout = "2006-01-02"
		}
		location := ev.Location
		if location == "" {
			location = "-"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			ev.Start.Local().Format(layout), ev.End.Local().Format(layout), ev.Title, ev.Category, location)
	}
	_ = w.Flush()

	fmt.Fprintf(out, "\nTotal: %d event(s)\n", len(events))
}
