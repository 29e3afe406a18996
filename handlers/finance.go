// ABOUTME: Finance MCP tool handlers
// ABOUTME: Implements record_transaction, list_transactions, create_invoice, set_invoice_status, record_budget_expense, and finance_summary
package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/prospecta/models"
	"github.com/harperreed/prospecta/services"
)

type FinanceHandlers struct {
	finance *services.FinanceService
}

func NewFinanceHandlers(finance *services.FinanceService) *FinanceHandlers {
	return &FinanceHandlers{finance: finance}
}

type RecordTransactionInput struct {
	Type        string  `json:"type" jsonschema:"income, expense, or payment (required)"`
	Amount      float64 `json:"amount" jsonschema:"Positive amount (required)"`
	Status      string  `json:"status,omitempty" jsonschema:"pending, completed, or cancelled (default pending)"`
	Category    string  `json:"category,omitempty" jsonschema:"Category label"`
	Description string  `json:"description,omitempty" jsonschema:"Free-form description"`
	Date        string  `json:"date,omitempty" jsonschema:"Date in YYYY-MM-DD format (default today)"`
}

func (h *FinanceHandlers) RecordTransaction(ctx context.Context, _ *mcp.CallToolRequest, input RecordTransactionInput) (*mcp.CallToolResult, models.Transaction, error) {
	date, err := parseDate(input.Date)
	if err != nil {
		return nil, models.Transaction{}, err
	}
	t, err := h.finance.CreateTransaction(ctx, models.Transaction{
		Type:        input.Type,
		Amount:      input.Amount,
		Status:      input.Status,
		Category:    input.Category,
		Description: input.Description,
		Date:        date,
	})
	if err != nil {
		return nil, models.Transaction{}, fmt.Errorf("failed to record transaction: %w", err)
	}
	return nil, *t, nil
}

type ListTransactionsInput struct {
	Type     string `json:"type,omitempty" jsonschema:"Filter by type"`
	Status   string `json:"status,omitempty" jsonschema:"Filter by status"`
	Category string `json:"category,omitempty" jsonschema:"Filter by category"`
	From     string `json:"from,omitempty" jsonschema:"Start date YYYY-MM-DD (inclusive)"`
	To       string `json:"to,omitempty" jsonschema:"End date YYYY-MM-DD (exclusive)"`
}

type ListTransactionsOutput struct {
	Transactions []models.Transaction `json:"transactions"`
	Count        int                  `json:"count"`
}

func (h *FinanceHandlers) ListTransactions(ctx context.Context, _ *mcp.CallToolRequest, input ListTransactionsInput) (*mcp.CallToolResult, ListTransactionsOutput, error) {
	from, err := parseDate(input.From)
	if err != nil {
		return nil, ListTransactionsOutput{}, err
	}
	to, err := parseDate(input.To)
	if err != nil {
		return nil, ListTransactionsOutput{}, err
	}
	txs, err := h.finance.ListTransactions(ctx, services.TransactionFilter{
		Type:     input.Type,
		Status:   input.Status,
		Category: input.Category,
		From:     from,
		To:       to,
	})
	if err != nil {
		return nil, ListTransactionsOutput{}, fmt.Errorf("failed to list transactions: %w", err)
	}
	return nil, ListTransactionsOutput{Transactions: txs, Count: len(txs)}, nil
}

type InvoiceItemInput struct {
	Description string  `json:"description" jsonschema:"Line description"`
	Quantity    float64 `json:"quantity" jsonschema:"Quantity"`
	UnitPrice   float64 `json:"unit_price" jsonschema:"Price per unit"`
}

type CreateInvoiceInput struct {
	Client  string             `json:"client" jsonschema:"Client name (required)"`
	Amount  float64            `json:"amount,omitempty" jsonschema:"Amount before tax; ignored when items are given"`
	Tax     float64            `json:"tax,omitempty" jsonschema:"Tax amount"`
	Items   []InvoiceItemInput `json:"items,omitempty" jsonschema:"Line items"`
	DueDate string             `json:"due_date,omitempty" jsonschema:"Due date YYYY-MM-DD"`
}

func (h *FinanceHandlers) CreateInvoice(ctx context.Context, _ *mcp.CallToolRequest, input CreateInvoiceInput) (*mcp.CallToolResult, models.Invoice, error) {
	inv := models.Invoice{
		Client: input.Client,
		Amount: input.Amount,
		Tax:    input.Tax,
	}
	for _, item := range input.Items {
		inv.Items = append(inv.Items, models.InvoiceItem{
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
		})
	}
	if input.DueDate != "" {
		due, err := parseDate(input.DueDate)
		if err != nil {
			return nil, models.Invoice{}, err
		}
		inv.DueDate = &due
	}

	created, err := h.finance.CreateInvoice(ctx, inv)
	if err != nil {
		return nil, models.Invoice{}, fmt.Errorf("failed to create invoice: %w", err)
	}
	return nil, *created, nil
}

type SetInvoiceStatusInput struct {
	ID     string `json:"id" jsonschema:"Invoice ID (required)"`
	Status string `json:"status" jsonschema:"draft, sent, paid, overdue, or cancelled (required)"`
}

func (h *FinanceHandlers) SetInvoiceStatus(ctx context.Context, _ *mcp.CallToolRequest, input SetInvoiceStatusInput) (*mcp.CallToolResult, models.Invoice, error) {
	if input.ID == "" {
		return nil, models.Invoice{}, fmt.Errorf("id is required")
	}
	inv, err := h.finance.GetInvoice(ctx, input.ID)
	if err != nil {
		return nil, models.Invoice{}, fmt.Errorf("failed to get invoice: %w", err)
	}
	inv.Status = input.Status
	updated, err := h.finance.UpdateInvoice(ctx, input.ID, *inv)
	if err != nil {
		return nil, models.Invoice{}, fmt.Errorf("failed to update invoice: %w", err)
	}
	return nil, *updated, nil
}

type RecordBudgetExpenseInput struct {
	BudgetID string  `json:"budget_id" jsonschema:"Budget ID (required)"`
	Category string  `json:"category,omitempty" jsonschema:"Budget category name"`
	Amount   float64 `json:"amount" jsonschema:"Amount spent (required)"`
}

func (h *FinanceHandlers) RecordBudgetExpense(ctx context.Context, _ *mcp.CallToolRequest, input RecordBudgetExpenseInput) (*mcp.CallToolResult, models.Budget, error) {
	if input.BudgetID == "" {
		return nil, models.Budget{}, fmt.Errorf("budget_id is required")
	}
	b, err := h.finance.RecordExpense(ctx, input.BudgetID, input.Category, input.Amount)
	if err != nil {
		return nil, models.Budget{}, fmt.Errorf("failed to record expense: %w", err)
	}
	return nil, *b, nil
}

type FinanceSummaryInput struct {
	From string `json:"from,omitempty" jsonschema:"Start date YYYY-MM-DD (default first day of this month)"`
	To   string `json:"to,omitempty" jsonschema:"End date YYYY-MM-DD, exclusive (default first day of next month)"`
}

func (h *FinanceHandlers) FinanceSummary(ctx context.Context, _ *mcp.CallToolRequest, input FinanceSummaryInput) (*mcp.CallToolResult, models.FinancialSummary, error) {
	from, err := parseDate(input.From)
	if err != nil {
		return nil, models.FinancialSummary{}, err
	}
	to, err := parseDate(input.To)
	if err != nil {
		return nil, models.FinancialSummary{}, err
	}
	if from.IsZero() && to.IsZero() {
		now := time.Now()
		from = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		to = from.AddDate(0, 1, 0)
	}

	summary, err := h.finance.Summary(ctx, from, to)
	if err != nil {
		return nil, models.FinancialSummary{}, fmt.Errorf("failed to build summary: %w", err)
	}
	return nil, *summary, nil
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD): %w", s, err)
	}
	return t, nil
}
