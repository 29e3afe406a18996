// ABOUTME: Universal query tool handler
// ABOUTME: Implements flexible filtering across prospects, users, invoices, and transactions
package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/prospecta/services"
)

type QueryHandlers struct {
	prospects *services.ProspectService
	users     *services.UserService
	finance   *services.FinanceService
}

func NewQueryHandlers(prospects *services.ProspectService, users *services.UserService, finance *services.FinanceService) *QueryHandlers {
	return &QueryHandlers{prospects: prospects, users: users, finance: finance}
}

type QueryCRMInput struct {
	EntityType string            `json:"entity_type" jsonschema:"Type of entity to query (prospect, user, invoice, transaction)"`
	Query      string            `json:"query,omitempty" jsonschema:"Search text (name, email, or client)"`
	Filters    map[string]string `json:"filters,omitempty" jsonschema:"Field filters such as estado, plataforma, responsable, rol, status, type"`
	Limit      int               `json:"limit,omitempty" jsonschema:"Maximum results to return (default 10)"`
}

type QueryCRMOutput struct {
	EntityType string `json:"entity_type"`
	Results    []any  `json:"results"`
	Count      int    `json:"count"`
}

func (h *QueryHandlers) QueryCRM(ctx context.Context, _ *mcp.CallToolRequest, input QueryCRMInput) (*mcp.CallToolResult, QueryCRMOutput, error) {
	if input.Limit == 0 {
		input.Limit = 10
	}

	var (
		results []any
		err     error
	)
	switch input.EntityType {
	case "prospect":
		results, err = h.queryProspects(ctx, input)
	case "user":
		results, err = h.queryUsers(ctx, input)
	case "invoice":
		results, err = h.queryInvoices(ctx, input)
	case "transaction":
		results, err = h.queryTransactions(ctx, input)
	default:
		return nil, QueryCRMOutput{}, fmt.Errorf("invalid entity_type: %s (valid: prospect, user, invoice, transaction)", input.EntityType)
	}
	if err != nil {
		return nil, QueryCRMOutput{}, err
	}
	if results == nil {
		results = []any{}
	}

	return nil, QueryCRMOutput{
		EntityType: input.EntityType,
		Results:    results,
		Count:      len(results),
	}, nil
}

func (h *QueryHandlers) queryProspects(ctx context.Context, input QueryCRMInput) ([]any, error) {
	all, err := h.prospects.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to find prospects: %w", err)
	}
	query := strings.ToLower(input.Query)

	var results []any
	for _, p := range all {
		if !filterMatch(input.Filters, "estado", p.Estado) ||
			!filterMatch(input.Filters, "plataforma", p.Plataforma) ||
			!filterMatch(input.Filters, "responsable", p.Responsable) {
			continue
		}
		if query != "" && !matchesProspect(p, query) {
			continue
		}
		results = append(results, p)
		if len(results) == input.Limit {
			break
		}
	}
	return results, nil
}

func (h *QueryHandlers) queryUsers(ctx context.Context, input QueryCRMInput) ([]any, error) {
	all, err := h.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to find users: %w", err)
	}
	query := strings.ToLower(input.Query)

	var results []any
	for _, u := range all {
		if !filterMatch(input.Filters, "rol", u.Rol) || !filterMatch(input.Filters, "estado", u.Estado) {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(u.FullName()), query) && !strings.Contains(strings.ToLower(u.Email), query) {
			continue
		}
		results = append(results, u)
		if len(results) == input.Limit {
			break
		}
	}
	return results, nil
}

func (h *QueryHandlers) queryInvoices(ctx context.Context, input QueryCRMInput) ([]any, error) {
	all, err := h.finance.ListInvoices(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to find invoices: %w", err)
	}
	query := strings.ToLower(input.Query)

	var results []any
	for _, inv := range all {
		if !filterMatch(input.Filters, "status", inv.Status) {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(inv.Client), query) && !strings.Contains(strings.ToLower(inv.Number), query) {
			continue
		}
		results = append(results, inv)
		if len(results) == input.Limit {
			break
		}
	}
	return results, nil
}

func (h *QueryHandlers) queryTransactions(ctx context.Context, input QueryCRMInput) ([]any, error) {
	txs, err := h.finance.ListTransactions(ctx, services.TransactionFilter{
		Type:     input.Filters["type"],
		Status:   input.Filters["status"],
		Category: input.Filters["category"],
	})
	if err != nil {
		return nil, fmt.Errorf("failed to find transactions: %w", err)
	}
	query := strings.ToLower(input.Query)

	var results []any
	for _, t := range txs {
		if query != "" && !strings.Contains(strings.ToLower(t.Description), query) {
			continue
		}
		results = append(results, t)
		if len(results) == input.Limit {
			break
		}
	}
	return results, nil
}

// filterMatch reports whether value satisfies filters[key]; an absent filter matches.
func filterMatch(filters map[string]string, key, value string) bool {
	want, ok := filters[key]
	return !ok || want == "" || strings.EqualFold(want, value)
}
