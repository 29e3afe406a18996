// ABOUTME: Document store maintenance commands
// ABOUTME: Charm sync operations plus a per-collection document count for any backend
package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/harperreed/prospecta/charm"
	"github.com/harperreed/prospecta/config"
)

var storeWipeConfirm bool

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Inspect and sync the document store",
}

var storeCollectionsCmd = &cobra.Command{
	Use:   "collections",
	Short: "Count documents per collection",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, appOptions{}, func(ctx context.Context, a *app) error {
			names, err := a.docs.Collections(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Backend: %s\n\n", a.cfg.Store.Backend)
			if len(names) == 0 {
				fmt.Fprintln(out, "Store is empty")
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "COLLECTION\tDOCUMENTS")
			for _, name := range names {
				docs, err := a.docs.List(ctx, name)
				if err != nil {
					return fmt.Errorf("failed to list %s: %w", name, err)
				}
				_, _ = fmt.Fprintf(w, "%s\t%d\n", name, len(docs))
			}
			return w.Flush()
		})
	},
}

var storeLinkCmd = &cobra.Command{
	Use:   "link",
	Short: "Link this device to the Charm server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCharm(cmd, func(c *charm.Client) error {
			return charm.Link(cmd.OutOrStdout(), c)
		})
	},
}

var storeStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show Charm sync status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCharm(cmd, func(c *charm.Client) error {
			return charm.Status(cmd.OutOrStdout(), c)
		})
	},
}

var storeSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync with the Charm server now",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCharm(cmd, func(c *charm.Client) error {
			return charm.SyncNow(cmd.OutOrStdout(), c)
		})
	},
}

var storeWipeCmd = &cobra.Command{
	Use:   "wipe",
	Short: "Delete all local Charm data",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCharm(cmd, func(c *charm.Client) error {
			return charm.Wipe(cmd.OutOrStdout(), c, storeWipeConfirm)
		})
	},
}

var storeAutoSyncCmd = &cobra.Command{
	Use:       "autosync <on|off>",
	Short:     "Turn write-through Charm sync on or off",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"on", "off"},
	RunE: func(cmd *cobra.Command, args []string) error {
		var enabled bool
		switch args[0] {
		case "on":
			enabled = true
		case "off":
		default:
			return fmt.Errorf("expected on or off, got %q", args[0])
		}
		if err := config.SetCharmAutoSync(globalFlags.Config, enabled); err != nil {
			return fmt.Errorf("failed to save charm auto-sync: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Auto-sync %s\n", args[0])
		return nil
	},
}

func init() {
	storeWipeCmd.Flags().BoolVar(&storeWipeConfirm, "confirm", false, "Really wipe everything")
	storeCmd.AddCommand(storeCollectionsCmd, storeLinkCmd, storeStatusCmd, storeSyncCmd, storeWipeCmd, storeAutoSyncCmd)
	RootCmd.AddCommand(storeCmd)
}

// withCharm opens the store and hands fn the Charm client. Other backends have nothing to sync.
func withCharm(cmd *cobra.Command, fn func(c *charm.Client) error) error {
	return withApp(cmd, appOptions{}, func(_ context.Context, a *app) error {
		c, ok := a.docs.(*charm.Client)
		if !ok || a.cfg.Store.Backend != config.BackendCharm {
			return fmt.Errorf("store backend is %q; sync commands need %q", a.cfg.Store.Backend, config.BackendCharm)
		}
		return fn(c)
	})
}
