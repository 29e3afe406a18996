// ABOUTME: Operator account CLI commands
// ABOUTME: Add, list, change role, remove, and summarize users
package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/harperreed/prospecta/models"
	"github.com/harperreed/prospecta/services"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage operator accounts",
}

var userAddFlags struct {
	Apellido string
	Rol      string
}

var userAddCmd = &cobra.Command{
	Use:   "add <nombre> <email>",
	Short: "Create an account",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, appOptions{}, func(ctx context.Context, a *app) error {
			u, err := a.users.Create(ctx, models.User{
				Nombre:   args[0],
				Apellido: userAddFlags.Apellido,
				Email:    args[1],
				Rol:      userAddFlags.Rol,
			})
			if err != nil {
				return fmt.Errorf("failed to add user: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Added %s <%s> as %s [%s]\n", u.FullName(), u.Email, u.Rol, u.ID)
			return nil
		})
	},
}

var userListRol string

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List accounts",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, appOptions{}, func(ctx context.Context, a *app) error {
			var (
				users []models.User
				err   error
			)
			if userListRol != "" {
				users, err = a.users.ByRole(ctx, userListRol)
			} else {
				users, err = a.users.List(ctx)
			}
			if err != nil {
				return fmt.Errorf("failed to list users: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(users) == 0 {
				fmt.Fprintln(out, "No users found")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "NAME\tEMAIL\tROLE\tESTADO\tID")
			_, _ = fmt.Fprintln(w, "----\t-----\t----\t------\t--")
			for _, u := range users {
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", u.FullName(), u.Email, u.Rol, u.Estado, u.ID)
			}
			_ = w.Flush()

			fmt.Fprintf(out, "\nTotal: %d user(s)\n", len(users))
			return nil
		})
	},
}

var userRoleCmd = &cobra.Command{
	Use:   "role <id> <rol>",
	Short: "Change an account's role (resets its permissions)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, appOptions{}, func(ctx context.Context, a *app) error {
			rol := args[1]
			u, err := a.users.Update(ctx, args[0], services.UserPatch{Rol: &rol})
			if err != nil {
				return fmt.Errorf("failed to change role: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ %s is now %s\n", u.FullName(), u.Rol)
			return nil
		})
	},
}

var userRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Delete an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, appOptions{}, func(ctx context.Context, a *app) error {
			if err := a.users.Delete(ctx, args[0]); err != nil {
				return fmt.Errorf("failed to remove user: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "✓ User removed")
			return nil
		})
	},
}

var userStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Count accounts by role and estado",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, appOptions{}, func(ctx context.Context, a *app) error {
			summary, err := a.users.Stats(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "TEAM")
			fmt.Fprintln(out, "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
			for _, r := range models.Roles {
				fmt.Fprintf(out, "  %-10s %3d\n", r, summary.PorRol[r])
			}
			fmt.Fprintln(out)
			for _, e := range models.UserEstados {
				fmt.Fprintf(out, "  %-10s %3d\n", e, summary.PorEstado[e])
			}
			fmt.Fprintf(out, "\nTotal: %d user(s)\n", summary.Total)
			return nil
		})
	},
}

func init() {
	userAddCmd.Flags().StringVar(&userAddFlags.Apellido, "apellido", "", "Last name")
	userAddCmd.Flags().StringVar(&userAddFlags.Rol, "rol", "", "admin, manager, agent, or viewer (default agent)")
	userListCmd.Flags().StringVar(&userListRol, "rol", "", "Only users with this role")

	usersCmd.AddCommand(userAddCmd, userListCmd, userRoleCmd, userRemoveCmd, userStatsCmd)
	RootCmd.AddCommand(usersCmd)
}
