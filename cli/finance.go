// ABOUTME: Finance CLI commands
// ABOUTME: Transactions, invoices, budgets, and the monthly summary
package cli

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/harperreed/prospecta/models"
	"github.com/harperreed/prospecta/services"
)

var financeCmd = &cobra.Command{
	Use:     "finance",
	Aliases: []string{"fin"},
	Short:   "Transactions, invoices, and budgets",
}

var financeSummaryMonth string

var financeSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Income, expenses, and invoices for one month",
	RunE: func(cmd *cobra.Command, args []string) error {
		from, to, err := monthRange(financeSummaryMonth, time.Now())
		if err != nil {
			return err
		}
		return withApp(cmd, appOptions{}, func(ctx context.Context, a *app) error {
			s, err := a.finance.Summary(ctx, from, to)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "FINANCES %s\n", from.Format("January 2006"))
			fmt.Fprintln(out, "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
			fmt.Fprintf(out, "  Income:         %12.2f\n", s.Income)
			fmt.Fprintf(out, "  Payments:       %12.2f\n", s.Payments)
			fmt.Fprintf(out, "  Expenses:       %12.2f\n", s.Expenses)
			fmt.Fprintf(out, "  Net:            %12.2f\n", s.Net)
			fmt.Fprintf(out, "  Pending income: %12.2f\n", s.PendingIncome)
			fmt.Fprintf(out, "  Outstanding:    %12.2f\n", s.OutstandingInvoice)
			fmt.Fprintf(out, "  Overdue:        %12.2f\n", s.OverdueInvoice)

			if len(s.ExpenseByCategory) > 0 {
				fmt.Fprintln(out, "\nEXPENSES BY CATEGORY")
				cats := make([]string, 0, len(s.ExpenseByCategory))
				for c := range s.ExpenseByCategory {
					cats = append(cats, c)
				}
				sort.Strings(cats)
				for _, c := range cats {
					fmt.Fprintf(out, "  %-16s%12.2f\n", c, s.ExpenseByCategory[c])
				}
			}
			return nil
		})
	},
}

var txFlags struct {
	Status      string
	Category    string
	Description string
	Date        string
}

var txListFlags struct {
	Type     string
	Status   string
	Category string
}

var txCmd = &cobra.Command{
	Use:     "transactions",
	Aliases: []string{"tx"},
	Short:   "Record and list transactions",
}

var txAddCmd = &cobra.Command{
	Use:   "add <income|expense|payment> <amount>",
	Short: "Record a transaction",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		amount, err := parseAmount(args[1])
		if err != nil {
			return err
		}
		date, err := parseDay(txFlags.Date)
		if err != nil {
			return err
		}
		return withApp(cmd, appOptions{}, func(ctx context.Context, a *app) error {
			t, err := a.finance.CreateTransaction(ctx, models.Transaction{
				Type:        args[0],
				Amount:      amount,
				Status:      txFlags.Status,
				Category:    txFlags.Category,
				Description: txFlags.Description,
				Date:        date,
			})
			if err != nil {
				return fmt.Errorf("failed to record transaction: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Recorded %s of %.2f (%s) [%s]\n", t.Type, t.Amount, t.Status, t.ID)
			return nil
		})
	},
}

var txListCmd = &cobra.Command{
	Use:   "list",
	Short: "List transactions, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, appOptions{}, func(ctx context.Context, a *app) error {
			txs, err := a.finance.ListTransactions(ctx, services.TransactionFilter{
				Type:     txListFlags.Type,
				Status:   txListFlags.Status,
				Category: txListFlags.Category,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(txs) == 0 {
				fmt.Fprintln(out, "No transactions found")
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "DATE\tTYPE\tAMOUNT\tSTATUS\tCATEGORY\tDESCRIPTION")
			_, _ = fmt.Fprintln(w, "----\t----\t------\t------\t--------\t-----------")
			for _, t := range txs {
				_, _ = fmt.Fprintf(w, "%s\t%s\t%.2f\t%s\t%s\t%s\n",
					t.Date.Format("2006-01-02"), t.Type, t.Amount, t.Status, dash(t.Category), dash(t.Description))
			}
			_ = w.Flush()
			fmt.Fprintf(out, "\nTotal: %d transaction(s)\n", len(txs))
			return nil
		})
	},
}

var invoiceFlags struct {
	Tax float64
	Due string
}

var invoiceCmd = &cobra.Command{
	Use:     "invoices",
	Aliases: []string{"inv"},
	Short:   "Create and track invoices",
}

var invoiceCreateCmd = &cobra.Command{
	Use:   "create <client> <amount>",
	Short: "Create a draft invoice",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		amount, err := parseAmount(args[1])
		if err != nil {
			return err
		}
		inv := models.Invoice{Client: args[0], Amount: amount, Tax: invoiceFlags.Tax}
		if invoiceFlags.Due != "" {
			due, err := parseDay(invoiceFlags.Due)
			if err != nil {
				return err
			}
			inv.DueDate = &due
		}
		return withApp(cmd, appOptions{}, func(ctx context.Context, a *app) error {
			created, err := a.finance.CreateInvoice(ctx, inv)
			if err != nil {
				return fmt.Errorf("failed to create invoice: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ %s for %s: %.2f [%s]\n", created.Number, created.Client, created.Total, created.ID)
			return nil
		})
	},
}

var invoiceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List invoices",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, appOptions{}, func(ctx context.Context, a *app) error {
			invoices, err := a.finance.ListInvoices(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(invoices) == 0 {
				fmt.Fprintln(out, "No invoices found")
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "NUMBER\tCLIENT\tTOTAL\tSTATUS\tDUE\tID")
			_, _ = fmt.Fprintln(w, "------\t------\t-----\t------\t---\t--")
			for _, inv := range invoices {
				due := "-"
				if inv.DueDate != nil {
					due = inv.DueDate.Format("2006-01-02")
				}
				_, _ = fmt.Fprintf(w, "%s\t%s\t%.2f\t%s\t%s\t%s\n", inv.Number, inv.Client, inv.Total, inv.Status, due, inv.ID)
			}
			_ = w.Flush()
			fmt.Fprintf(out, "\nTotal: %d invoice(s)\n", len(invoices))
			return nil
		})
	},
}

var invoiceStatusCmd = &cobra.Command{
	Use:   "status <id> <draft|sent|paid|overdue|cancelled>",
	Short: "Change an invoice's status",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, appOptions{}, func(ctx context.Context, a *app) error {
			inv, err := a.finance.GetInvoice(ctx, args[0])
			if err != nil {
				return err
			}
			inv.Status = args[1]
			updated, err := a.finance.UpdateInvoice(ctx, inv.ID, *inv)
			if err != nil {
				return fmt.Errorf("failed to update invoice: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ %s is now %s\n", updated.Number, updated.Status)
			return nil
		})
	},
}

var invoiceOverdueCmd = &cobra.Command{
	Use:   "mark-overdue",
	Short: "Flag sent invoices past their due date as overdue",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, appOptions{}, func(ctx context.Context, a *app) error {
			n, err := a.finance.MarkOverdue(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ %d invoice(s) marked overdue\n", n)
			return nil
		})
	},
}

var budgetCmd = &cobra.Command{
	Use:   "budgets",
	Short: "Track spending against budgets",
}

var budgetListCmd = &cobra.Command{
	Use:   "list",
	Short: "List budgets",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, appOptions{}, func(ctx context.Context, a *app) error {
			budgets, err := a.finance.ListBudgets(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(budgets) == 0 {
				fmt.Fprintln(out, "No budgets found")
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "NAME\tBUDGET\tSPENT\tREMAINING\tSTATUS\tID")
			_, _ = fmt.Fprintln(w, "----\t------\t-----\t---------\t------\t--")
			for _, b := range budgets {
				_, _ = fmt.Fprintf(w, "%s\t%.2f\t%.2f\t%.2f\t%s\t%s\n", b.Name, b.TotalBudget, b.Spent, b.Remaining, b.Status, b.ID)
			}
			_ = w.Flush()
			return nil
		})
	},
}

var budgetExpenseCmd = &cobra.Command{
	Use:   "expense <budget-id> <category> <amount>",
	Short: "Spend against a budget category",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		amount, err := parseAmount(args[2])
		if err != nil {
			return err
		}
		return withApp(cmd, appOptions{}, func(ctx context.Context, a *app) error {
			b, err := a.finance.RecordExpense(ctx, args[0], args[1], amount)
			if err != nil {
				return fmt.Errorf("failed to record expense: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ %s: %.2f of %.2f spent (%s)\n", b.Name, b.Spent, b.TotalBudget, b.Status)
			return nil
		})
	},
}

func init() {
	financeSummaryCmd.Flags().StringVar(&financeSummaryMonth, "month", "", "Month as YYYY-MM (default current month)")

	txAddCmd.Flags().StringVar(&txFlags.Status, "status", "", "pending, completed, or cancelled (default pending)")
	txAddCmd.Flags().StringVar(&txFlags.Category, "category", "", "Category label")
	txAddCmd.Flags().StringVar(&txFlags.Description, "desc", "", "Description")
	txAddCmd.Flags().StringVar(&txFlags.Date, "date", "", "Date YYYY-MM-DD (default today)")
	txListCmd.Flags().StringVar(&txListFlags.Type, "type", "", "Filter by type")
	txListCmd.Flags().StringVar(&txListFlags.Status, "status", "", "Filter by status")
	txListCmd.Flags().StringVar(&txListFlags.Category, "category", "", "Filter by category")
	txCmd.AddCommand(txAddCmd, txListCmd)

	invoiceCreateCmd.Flags().Float64Var(&invoiceFlags.Tax, "tax", 0, "Tax amount")
	invoiceCreateCmd.Flags().StringVar(&invoiceFlags.Due, "due", "", "Due date YYYY-MM-DD")
	invoiceCmd.AddCommand(invoiceCreateCmd, invoiceListCmd, invoiceStatusCmd, invoiceOverdueCmd)

	budgetCmd.AddCommand(budgetListCmd, budgetExpenseCmd)

	financeCmd.AddCommand(financeSummaryCmd, txCmd, invoiceCmd, budgetCmd)
	RootCmd.AddCommand(financeCmd)
}

func parseAmount(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return v, nil
}

// parseDay parses YYYY-MM-DD in local time; empty means zero.
func parseDay(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation("2006-01-02", s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD): %w", s, err)
	}
	return t, nil
}

// monthRange returns [first of month, first of next month) for YYYY-MM, or the month of now.
func monthRange(month string, now time.Time) (time.Time, time.Time, error) {
	if month != "" {
		m, err := time.ParseInLocation("2006-01", month, time.Local)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid month %q (expected YYYY-MM): %w", month, err)
		}
		now = m
	}
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return from, from.AddDate(0, 1, 0), nil
}
