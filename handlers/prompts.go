// ABOUTME: MCP prompt handlers for reusable CRM workflow templates
// ABOUTME: Provides prospect, pipeline, follow-up, and monthly finance review prompts
package handlers

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/prospecta/models"
	"github.com/harperreed/prospecta/services"
)

type PromptHandlers struct {
	prospects *services.ProspectService
	finance   *services.FinanceService
}

func NewPromptHandlers(prospects *services.ProspectService, finance *services.FinanceService) *PromptHandlers {
	return &PromptHandlers{prospects: prospects, finance: finance}
}

// GetPrompt generates the prompt message based on the template
func (h *PromptHandlers) GetPrompt(ctx context.Context, request *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	switch request.Params.Name {
	case "prospect-summary":
		return h.getProspectSummaryPrompt(ctx, request.Params.Arguments)
	case "pipeline-review":
		return h.getPipelineReviewPrompt(ctx)
	case "follow-up-suggestions":
		return h.getFollowUpSuggestionsPrompt(ctx)
	case "finance-review":
		return h.getFinanceReviewPrompt(ctx, request.Params.Arguments)
	default:
		return nil, fmt.Errorf("unknown prompt: %s", request.Params.Name)
	}
}

func (h *PromptHandlers) getProspectSummaryPrompt(ctx context.Context, args map[string]string) (*mcp.GetPromptResult, error) {
	id, ok := args["prospect_id"]
	if !ok || id == "" {
		return nil, fmt.Errorf("prospect_id is required")
	}
	p, err := h.prospects.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch prospect: %w", err)
	}

	var b strings.Builder
	b.WriteString("Please provide a summary of this prospect:\n\n")
	fmt.Fprintf(&b, "Name: %s\n", p.Nombre)
	fmt.Fprintf(&b, "Estado: %s\n", p.Estado)
	fmt.Fprintf(&b, "Platform: %s\n", p.Plataforma)
	if p.Servicio != "" {
		fmt.Fprintf(&b, "Service: %s\n", p.Servicio)
	}
	if p.Responsable != "" {
		fmt.Fprintf(&b, "Owner: %s\n", p.Responsable)
	}
	fmt.Fprintf(&b, "First contact: %s\n", p.FechaContacto.Format("2006-01-02"))
	if len(p.Seguimientos) > 0 {
		b.WriteString("\nFollow-ups:\n")
		for _, s := range p.Seguimientos {
			fmt.Fprintf(&b, "- %s: %s\n", s.Fecha.Format("2006-01-02"), s.Nota)
		}
	}
	if len(p.Cotizaciones) > 0 {
		b.WriteString("\nQuotes:\n")
		for _, q := range p.Cotizaciones {
			fmt.Fprintf(&b, "- %s: %.2f (%s)\n", q.Descripcion, q.Monto, q.Estado)
		}
	}

	b.WriteString("\nPlease provide:")
	b.WriteString("\n1. Where this prospect stands in the pipeline")
	b.WriteString("\n2. The most likely objection and how to address it")
	b.WriteString("\n3. A concrete next step with a suggested message")

	return userPrompt(fmt.Sprintf("Summary for prospect: %s", p.Nombre), b.String()), nil
}

func (h *PromptHandlers) getPipelineReviewPrompt(ctx context.Context) (*mcp.GetPromptResult, error) {
	stats, err := h.prospects.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compute pipeline: %w", err)
	}

	var b strings.Builder
	b.WriteString("Please review the sales pipeline:\n\n")
	fmt.Fprintf(&b, "Total prospects: %d\n\nBy estado:\n", stats.Total)
	for _, e := range models.Estados {
		fmt.Fprintf(&b, "- %s: %d\n", e, stats.PorEstado[e])
	}
	b.WriteString("\nBy platform:\n")
	for _, p := range models.Plataformas {
		fmt.Fprintf(&b, "- %s: %d\n", p, stats.PorPlataforma[p])
	}

	b.WriteString("\nPlease identify bottlenecks between stages and suggest where the team should focus this week.")
	return userPrompt("Pipeline review", b.String()), nil
}

func (h *PromptHandlers) getFollowUpSuggestionsPrompt(ctx context.Context) (*mcp.GetPromptResult, error) {
	stale, err := h.prospects.Stale(ctx, services.StaleAfter)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch prospects: %w", err)
	}

	var b strings.Builder
	b.WriteString("These open prospects have had no follow-up in over a week:\n\n")
	if len(stale) == 0 {
		b.WriteString("(none)\n")
	}
	for _, p := range stale {
		fmt.Fprintf(&b, "- %s (%s, %s) last touched %s\n", p.Nombre, p.Estado, p.Plataforma, services.LastTouch(p).Format("2006-01-02"))
	}
	b.WriteString("\nFor each, suggest a short, friendly follow-up message in Spanish.")

	return userPrompt("Follow-up suggestions", b.String()), nil
}

func (h *PromptHandlers) getFinanceReviewPrompt(ctx context.Context, args map[string]string) (*mcp.GetPromptResult, error) {
	month := time.Now()
	if m := args["month"]; m != "" {
		parsed, err := time.Parse("2006-01", m)
		if err != nil {
			return nil, fmt.Errorf("invalid month %q: expected YYYY-MM", m)
		}
		month = parsed
	}
	from := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.UTC)
	summary, err := h.finance.Summary(ctx, from, from.AddDate(0, 1, 0))
	if err != nil {
		return nil, fmt.Errorf("failed to build finance summary: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Please review the finances for %s:\n\n", from.Format("January 2006"))
	fmt.Fprintf(&b, "Income: %.2f\n", summary.Income)
	fmt.Fprintf(&b, "Payments: %.2f\n", summary.Payments)
	fmt.Fprintf(&b, "Expenses: %.2f\n", summary.Expenses)
	fmt.Fprintf(&b, "Net: %.2f\n", summary.Net)
	fmt.Fprintf(&b, "Pending income: %.2f\n", summary.PendingIncome)
	fmt.Fprintf(&b, "Outstanding invoices: %.2f (overdue %.2f)\n", summary.OutstandingInvoice, summary.OverdueInvoice)
	if len(summary.ExpenseByCategory) > 0 {
		b.WriteString("\nExpenses by category:\n")
		cats := make([]string, 0, len(summary.ExpenseByCategory))
		for c := range summary.ExpenseByCategory {
			cats = append(cats, c)
		}
		sort.Strings(cats)
		for _, c := range cats {
			fmt.Fprintf(&b, "- %s: %.2f\n", c, summary.ExpenseByCategory[c])
		}
	}
	b.WriteString("\nPlease point out anything unusual and which overdue invoices to chase first.")

	return userPrompt(fmt.Sprintf("Finance review: %s", from.Format("2006-01")), b.String()), nil
}

func userPrompt(description, text string) *mcp.GetPromptResult {
	return &mcp.GetPromptResult{
		Description: description,
		Messages: []*mcp.PromptMessage{
			{
				Role:    "user",
				Content: &mcp.TextContent{Text: text},
			},
		},
	}
}
