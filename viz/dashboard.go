// ABOUTME: Terminal dashboard statistics and rendering
// ABOUTME: Summarises the pipeline, team, and current month finances with lipgloss
package viz

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/prospecta/models"
	"github.com/harperreed/prospecta/services"
)

type DashboardStats struct {
	Prospects models.ProspectStats
	Users     models.UserSummary
	Finance   models.FinancialSummary

	// Needs attention
	StaleProspects []StaleProspect
}

type StaleProspect struct {
	Name      string
	Estado    string
	DaysSince int
}

// GenerateDashboardStats gathers everything the dashboard shows for the month containing now.
func GenerateDashboardStats(ctx context.Context, prospects *services.ProspectService, users *services.UserService, finance *services.FinanceService, now time.Time) (*DashboardStats, error) {
	pstats, err := prospects.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compute prospect stats: %w", err)
	}

	ustats, err := users.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compute user stats: %w", err)
	}

	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	summary, err := finance.Summary(ctx, from, from.AddDate(0, 1, 0))
	if err != nil {
		return nil, fmt.Errorf("failed to build finance summary: %w", err)
	}

	stale, err := prospects.Stale(ctx, services.StaleAfter)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch stale prospects: %w", err)
	}

	stats := &DashboardStats{
		Prospects: *pstats,
		Users:     *ustats,
		Finance:   *summary,
	}
	for _, p := range stale {
		stats.StaleProspects = append(stats.StaleProspects, StaleProspect{
			Name:      p.Nombre,
			Estado:    p.Estado,
			DaysSince: int(now.Sub(services.LastTouch(p)).Hours() / 24),
		})
	}
	return stats, nil
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			BorderStyle(lipgloss.DoubleBorder()).
			BorderBottom(true).
			PaddingRight(2)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			MarginTop(1)

	barStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	lossStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

func RenderDashboard(stats *DashboardStats) string {
	var out strings.Builder

	out.WriteString(titleStyle.Render("PROSPECTA DASHBOARD"))
	out.WriteString("\n")

	out.WriteString(headerStyle.Render("PIPELINE"))
	out.WriteString("\n")
	renderPipeline(&out, stats.Prospects)

	out.WriteString(headerStyle.Render("TEAM"))
	out.WriteString("\n")
	fmt.Fprintf(&out, "  %d users", stats.Users.Total)
	for _, role := range models.Roles {
		if n := stats.Users.PorRol[role]; n > 0 {
			fmt.Fprintf(&out, "  %s:%d", role, n)
		}
	}
	out.WriteString("\n")

	out.WriteString(headerStyle.Render("THIS MONTH"))
	out.WriteString("\n")
	fmt.Fprintf(&out, "  income %.2f  payments %.2f  expenses %.2f\n",
		stats.Finance.Income, stats.Finance.Payments, stats.Finance.Expenses)
	net := fmt.Sprintf("%.2f", stats.Finance.Net)
	if stats.Finance.Net < 0 {
		net = lossStyle.Render(net)
	}
	fmt.Fprintf(&out, "  net %s  outstanding %.2f\n", net, stats.Finance.OutstandingInvoice)
	if stats.Finance.OverdueInvoice > 0 {
		out.WriteString(warnStyle.Render(fmt.Sprintf("  ⚠️  %.2f overdue", stats.Finance.OverdueInvoice)))
		out.WriteString("\n")
	}

	if len(stats.StaleProspects) > 0 {
		out.WriteString(headerStyle.Render("NEEDS ATTENTION"))
		out.WriteString("\n")
		fmt.Fprintf(&out, "  %s\n", warnStyle.Render(fmt.Sprintf("⚠️  %d prospects - no follow-up in 7+ days", len(stats.StaleProspects))))
		for _, p := range stats.StaleProspects {
			fmt.Fprintf(&out, "    %-24s %-15s %dd\n", p.Name, p.Estado, p.DaysSince)
		}
	}

	return out.String()
}

func renderPipeline(out *strings.Builder, stats models.ProspectStats) {
	maxCount := 0
	for _, n := range stats.PorEstado {
		if n > maxCount {
			maxCount = n
		}
	}
	if maxCount == 0 {
		maxCount = 1
	}

	for _, estado := range models.Estados {
		count := stats.PorEstado[estado]
		barLength := (count * 10) / maxCount
		bar := barStyle.Render(strings.Repeat("█", barLength)) + strings.Repeat("░", 10-barLength)
		fmt.Fprintf(out, "  %-15s %s  %2d\n", estado, bar, count)
	}
	fmt.Fprintf(out, "  %d prospects total\n", stats.Total)
}
