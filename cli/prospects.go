// ABOUTME: Prospect CLI commands
// ABOUTME: Add, list, show, follow up, quote, assign, and pipeline stats
package cli

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/harperreed/prospecta/models"
	"github.com/harperreed/prospecta/services"
)

var prospectsCmd = &cobra.Command{
	Use:     "prospects",
	Aliases: []string{"p", "leads"},
	Short:   "Manage the prospect pipeline",
}

var prospectAddFlags struct {
	Telefono    string
	Correo      string
	Servicio    string
	Plataforma  string
	Responsable string
}

var prospectAddCmd = &cobra.Command{
	Use:   "add <nombre>",
	Short: "Add a prospect",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, appOptions{}, func(ctx context.Context, a *app) error {
			p, err := a.prospects.Create(ctx, models.Prospect{
				Nombre:      strings.Join(args, " "),
				Telefono:    prospectAddFlags.Telefono,
				Correo:      prospectAddFlags.Correo,
				Servicio:    prospectAddFlags.Servicio,
				Plataforma:  prospectAddFlags.Plataforma,
				Responsable: prospectAddFlags.Responsable,
			})
			if err != nil {
				return fmt.Errorf("failed to add prospect: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Added %s (%s) [%s]\n", p.Nombre, p.Estado, p.ID)
			return nil
		})
	},
}

var prospectListFlags struct {
	Estado      string
	Responsable string
	Limit       int
}

var prospectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List prospects, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, appOptions{}, func(ctx context.Context, a *app) error {
			all, err := a.prospects.List(ctx)
			if err != nil {
				return fmt.Errorf("failed to list prospects: %w", err)
			}

			var filtered []models.Prospect
			for _, p := range all {
				if prospectListFlags.Estado != "" && !strings.EqualFold(p.Estado, prospectListFlags.Estado) {
					continue
				}
				if prospectListFlags.Responsable != "" && p.Responsable != prospectListFlags.Responsable {
					continue
				}
				filtered = append(filtered, p)
				if prospectListFlags.Limit > 0 && len(filtered) == prospectListFlags.Limit {
					break
				}
			}

			out := cmd.OutOrStdout()
			if len(filtered) == 0 {
				fmt.Fprintln(out, "No prospects found")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "NAME\tESTADO\tPLATFORM\tOWNER\tCONTACTED\tID")
			_, _ = fmt.Fprintln(w, "----\t------\t--------\t-----\t---------\t--")
			for _, p := range filtered {
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					p.Nombre, p.Estado, p.Plataforma, dash(p.Responsable), p.FechaContacto.Local().Format("2006-01-02"), p.ID)
			}
			_ = w.Flush()

			fmt.Fprintf(out, "\nTotal: %d prospect(s)\n", len(filtered))
			return nil
		})
	},
}

var prospectShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a prospect with follow-ups and quotes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, appOptions{}, func(ctx context.Context, a *app) error {
			p, err := a.prospects.Get(ctx, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s\n", p.Nombre)
			fmt.Fprintln(out, "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
			fmt.Fprintf(out, "Estado:      %s\n", p.Estado)
			fmt.Fprintf(out, "Platform:    %s\n", p.Plataforma)
			fmt.Fprintf(out, "Owner:       %s\n", dash(p.Responsable))
			fmt.Fprintf(out, "Phone:       %s\n", dash(p.Telefono))
			fmt.Fprintf(out, "Email:       %s\n", dash(p.Correo))
			fmt.Fprintf(out, "Service:     %s\n", dash(p.Servicio))
			fmt.Fprintf(out, "Contacted:   %s\n", p.FechaContacto.Local().Format("2006-01-02"))

			if len(p.Seguimientos) > 0 {
				fmt.Fprintln(out, "\nFOLLOW-UPS")
				for _, s := range p.Seguimientos {
					fmt.Fprintf(out, "  %s  %s", s.Fecha.Local().Format("2006-01-02"), s.Nota)
					if s.Autor != "" {
						fmt.Fprintf(out, " (%s)", s.Autor)
					}
					fmt.Fprintln(out)
				}
			}
			if len(p.Cotizaciones) > 0 {
				fmt.Fprintln(out, "\nQUOTES")
				for _, q := range p.Cotizaciones {
					fmt.Fprintf(out, "  %s  %-30s %10.2f\n", q.Fecha.Local().Format("2006-01-02"), q.Descripcion, q.Monto)
				}
			}
			return nil
		})
	},
}

var prospectFollowUpAutor string

var prospectFollowUpCmd = &cobra.Command{
	Use:   "followup <id> <nota>",
	Short: "Log a follow-up on a prospect",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, appOptions{}, func(ctx context.Context, a *app) error {
			p, err := a.prospects.AddFollowUp(ctx, args[0], strings.Join(args[1:], " "), prospectFollowUpAutor)
			if err != nil {
				return fmt.Errorf("failed to log follow-up: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Follow-up logged for %s (%s)\n", p.Nombre, p.Estado)
			return nil
		})
	},
}

var prospectQuoteDesc string

var prospectQuoteCmd = &cobra.Command{
	Use:   "quote <id> <monto>",
	Short: "Attach a quote to a prospect",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		monto, err := parseAmount(args[1])
		if err != nil {
			return err
		}
		return withApp(cmd, appOptions{}, func(ctx context.Context, a *app) error {
			p, err := a.prospects.AddQuote(ctx, args[0], prospectQuoteDesc, monto)
			if err != nil {
				return fmt.Errorf("failed to add quote: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Quote of %.2f added for %s (%s)\n", monto, p.Nombre, p.Estado)
			return nil
		})
	},
}

var prospectAssignCmd = &cobra.Command{
	Use:   "assign <id> <responsable>",
	Short: "Assign a prospect to a team member",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, appOptions{}, func(ctx context.Context, a *app) error {
			p, err := a.prospects.Assign(ctx, args[0], args[1])
			if err != nil {
				return fmt.Errorf("failed to assign prospect: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ %s assigned to %s\n", p.Nombre, p.Responsable)
			return nil
		})
	},
}

var prospectSetEstadoCmd = &cobra.Command{
	Use:   "estado <id> <estado>",
	Short: "Move a prospect to another pipeline estado",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, appOptions{}, func(ctx context.Context, a *app) error {
			estado := strings.Join(args[1:], " ")
			p, err := a.prospects.Update(ctx, args[0], services.ProspectPatch{Estado: &estado})
			if err != nil {
				return fmt.Errorf("failed to update prospect: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ %s is now %s\n", p.Nombre, p.Estado)
			return nil
		})
	},
}

var prospectDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a prospect",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, appOptions{}, func(ctx context.Context, a *app) error {
			if err := a.prospects.Delete(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "✓ Prospect deleted")
			return nil
		})
	},
}

var prospectStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Count prospects by estado and platform",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, appOptions{}, func(ctx context.Context, a *app) error {
			stats, err := a.prospects.Stats(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "PIPELINE")
			fmt.Fprintln(out, "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
			for _, e := range models.Estados {
				fmt.Fprintf(out, "  %-15s %3d\n", e, stats.PorEstado[e])
			}
			fmt.Fprintln(out, "\nPLATFORMS")
			for _, p := range models.Plataformas {
				fmt.Fprintf(out, "  %-15s %3d\n", p, stats.PorPlataforma[p])
			}
			fmt.Fprintf(out, "\nTotal: %d prospect(s)\n", stats.Total)
			return nil
		})
	},
}

func init() {
	prospectAddCmd.Flags().StringVar(&prospectAddFlags.Telefono, "phone", "", "Phone number")
	prospectAddCmd.Flags().StringVar(&prospectAddFlags.Correo, "email", "", "Email address")
	prospectAddCmd.Flags().StringVar(&prospectAddFlags.Servicio, "service", "", "Service of interest")
	prospectAddCmd.Flags().StringVar(&prospectAddFlags.Plataforma, "platform", "", "WhatsApp, Instagram, or Facebook (default WhatsApp)")
	prospectAddCmd.Flags().StringVar(&prospectAddFlags.Responsable, "owner", "", "Responsible user")

	prospectListCmd.Flags().StringVar(&prospectListFlags.Estado, "estado", "", "Filter by estado")
	prospectListCmd.Flags().StringVar(&prospectListFlags.Responsable, "owner", "", "Filter by responsible user")
	prospectListCmd.Flags().IntVar(&prospectListFlags.Limit, "limit", 50, "Maximum results")

	prospectFollowUpCmd.Flags().StringVar(&prospectFollowUpAutor, "author", "", "Who made the contact")
	prospectQuoteCmd.Flags().StringVar(&prospectQuoteDesc, "desc", "", "What is being quoted")

	prospectsCmd.AddCommand(
		prospectAddCmd,
		prospectListCmd,
		prospectShowCmd,
		prospectFollowUpCmd,
		prospectQuoteCmd,
		prospectAssignCmd,
		prospectSetEstadoCmd,
		prospectDeleteCmd,
		prospectStatsCmd,
	)
	RootCmd.AddCommand(prospectsCmd)
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
