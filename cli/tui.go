// ABOUTME: Launches the full-screen terminal UI
// ABOUTME: Runs in the alternate screen; calendar sync appears when Google is configured
package cli

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/harperreed/prospecta/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Browse and work the pipeline in a terminal UI",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, appOptions{}, func(ctx context.Context, a *app) error {
			settings, err := a.events.Settings(ctx)
			if err != nil {
				return err
			}
			model := tui.NewModel(ctx, tui.Deps{
				Prospects:    a.prospects,
				Users:        a.users,
				Calendar:     a.calendar,
				MonthsBefore: settings.SyncMonthsBefore,
				MonthsAfter:  settings.SyncMonthsAfter,
			})
			p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
			_, err = p.Run()
			return err
		})
	},
}

func init() {
	RootCmd.AddCommand(tuiCmd)
}
