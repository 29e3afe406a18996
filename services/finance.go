// ABOUTME: Finance module: transactions, invoices, budgets, and the summary report
// ABOUTME: Invoice totals and budget remaining/status are recomputed on every write
package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/harperreed/prospecta/models"
	"github.com/harperreed/prospecta/store"
)

const (
	TransactionCollection = "transactions"
	InvoiceCollection     = "invoices"
	BudgetCollection      = "budgets"

	entityTransaction = "transaction"
	entityInvoice     = "invoice"
	entityBudget      = "budget"
)

// TransactionFilter narrows ListTransactions. Zero values match everything.
type TransactionFilter struct {
	Type     string
	Status   string
	Category string
	From     time.Time
	To       time.Time
}

func (f TransactionFilter) match(t models.Transaction) bool {
	if f.Type != "" && t.Type != f.Type {
		return false
	}
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if f.Category != "" && !strings.EqualFold(t.Category, f.Category) {
		return false
	}
	if !f.From.IsZero() && t.Date.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && !t.Date.Before(f.To) {
		return false
	}
	return true
}

type FinanceService struct {
	base
	// mu serialises invoice numbering and budget read-modify-write.
	mu sync.Mutex
}

func NewFinanceService(docs store.Documents, opts ...Option) *FinanceService {
	return &FinanceService{base: newBase(docs, opts)}
}

// Transactions

func (s *FinanceService) CreateTransaction(ctx context.Context, t models.Transaction) (*models.Transaction, error) {
	if err := s.prepareTransaction(&t); err != nil {
		return nil, err
	}
	now := s.now()
	t.ID = newSortableID()
	if t.Date.IsZero() {
		t.Date = now
	}
	t.CreatedAt = now
	t.UpdatedAt = now

	if err := store.PutJSON(ctx, s.docs, TransactionCollection, t.ID, t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *FinanceService) GetTransaction(ctx context.Context, id string) (*models.Transaction, error) {
	var t models.Transaction
	if err := s.getDoc(ctx, TransactionCollection, entityTransaction, id, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// UpdateTransaction replaces the editable fields of an existing transaction.
func (s *FinanceService) UpdateTransaction(ctx context.Context, id string, t models.Transaction) (*models.Transaction, error) {
	existing, err := s.GetTransaction(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.prepareTransaction(&t); err != nil {
		return nil, err
	}
	t.ID = existing.ID
	t.CreatedAt = existing.CreatedAt
	if t.Date.IsZero() {
		t.Date = existing.Date
	}
	t.UpdatedAt = s.now()

	if err := store.PutJSON(ctx, s.docs, TransactionCollection, t.ID, t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *FinanceService) DeleteTransaction(ctx context.Context, id string) error {
	return s.deleteDoc(ctx, TransactionCollection, entityTransaction, id)
}

// ListTransactions returns matching transactions, most recent date first.
func (s *FinanceService) ListTransactions(ctx context.Context, filter TransactionFilter) ([]models.Transaction, error) {
	all, err := store.ListJSON[models.Transaction](ctx, s.docs, TransactionCollection)
	if err != nil {
		return nil, err
	}
	out := []models.Transaction{}
	for _, t := range all {
		if filter.match(t) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date.Equal(out[j].Date) {
			return out[i].ID > out[j].ID
		}
		return out[i].Date.After(out[j].Date)
	})
	return out, nil
}

func (s *FinanceService) prepareTransaction(t *models.Transaction) error {
	if !contains(models.TransactionTypes, t.Type) {
		return invalid("type", "unknown value %q", t.Type)
	}
	if t.Amount <= 0 {
		return invalid("amount", "must be positive")
	}
	if t.Status == "" {
		t.Status = models.TransactionPending
	}
	if !contains(models.TransactionStatuses, t.Status) {
		return invalid("status", "unknown value %q", t.Status)
	}
	return nil
}

// Invoices

// CreateInvoice stores a new invoice, numbering it INV-<year>-<seq> when no number is given.
func (s *FinanceService) CreateInvoice(ctx context.Context, inv models.Invoice) (*models.Invoice, error) {
	if err := prepareInvoice(&inv); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	inv.ID = newID()
	if inv.IssueDate.IsZero() {
		inv.IssueDate = now
	}
	if inv.Number == "" {
		number, err := s.nextInvoiceNumber(ctx, inv.IssueDate.Year())
		if err != nil {
			return nil, err
		}
		inv.Number = number
	}
	if inv.Status == models.InvoicePaid && inv.PaidAt == nil {
		inv.PaidAt = &now
	}
	inv.CreatedAt = now
	inv.UpdatedAt = now

	if err := store.PutJSON(ctx, s.docs, InvoiceCollection, inv.ID, inv); err != nil {
		return nil, err
	}
	return &inv, nil
}

func (s *FinanceService) GetInvoice(ctx context.Context, id string) (*models.Invoice, error) {
	var inv models.Invoice
	if err := s.getDoc(ctx, InvoiceCollection, entityInvoice, id, &inv); err != nil {
		return nil, err
	}
	return &inv, nil
}

// ListInvoices returns invoices, most recently issued first.
func (s *FinanceService) ListInvoices(ctx context.Context) ([]models.Invoice, error) {
	all, err := store.ListJSON[models.Invoice](ctx, s.docs, InvoiceCollection)
	if err != nil {
		return nil, err
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].IssueDate.Equal(all[j].IssueDate) {
			return all[i].Number > all[j].Number
		}
		return all[i].IssueDate.After(all[j].IssueDate)
	})
	return all, nil
}

// UpdateInvoice replaces the invoice and recomputes its totals. Moving to
// paid stamps PaidAt.
func (s *FinanceService) UpdateInvoice(ctx context.Context, id string, inv models.Invoice) (*models.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.GetInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := prepareInvoice(&inv); err != nil {
		return nil, err
	}
	now := s.now()
	inv.ID = existing.ID
	inv.CreatedAt = existing.CreatedAt
	if inv.Number == "" {
		inv.Number = existing.Number
	}
	if inv.IssueDate.IsZero() {
		inv.IssueDate = existing.IssueDate
	}
	if inv.PaidAt == nil {
		inv.PaidAt = existing.PaidAt
	}
	if inv.Status == models.InvoicePaid && inv.PaidAt == nil {
		inv.PaidAt = &now
	}
	inv.UpdatedAt = now

	if err := store.PutJSON(ctx, s.docs, InvoiceCollection, inv.ID, inv); err != nil {
		return nil, err
	}
	return &inv, nil
}

func (s *FinanceService) DeleteInvoice(ctx context.Context, id string) error {
	return s.deleteDoc(ctx, InvoiceCollection, entityInvoice, id)
}

// MarkOverdue moves every sent invoice whose due date has passed to overdue
// and returns how many changed.
func (s *FinanceService) MarkOverdue(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := store.ListJSON[models.Invoice](ctx, s.docs, InvoiceCollection)
	if err != nil {
		return 0, err
	}
	now := s.now()
	changed := 0
	for _, inv := range all {
		if inv.Status != models.InvoiceSent || inv.DueDate == nil || !inv.DueDate.Before(now) {
			continue
		}
		inv.Status = models.InvoiceOverdue
		inv.UpdatedAt = now
		if err := store.PutJSON(ctx, s.docs, InvoiceCollection, inv.ID, inv); err != nil {
			return changed, err
		}
		changed++
	}
	return changed, nil
}

func prepareInvoice(inv *models.Invoice) error {
	inv.Client = strings.TrimSpace(inv.Client)
	if inv.Client == "" {
		return invalid("client", "is required")
	}
	if inv.Status == "" {
		inv.Status = models.InvoiceDraft
	}
	if !contains(models.InvoiceStatuses, inv.Status) {
		return invalid("status", "unknown value %q", inv.Status)
	}
	if inv.Tax < 0 {
		return invalid("tax", "must not be negative")
	}
	for i, item := range inv.Items {
		if item.Quantity <= 0 {
			return invalid(fmt.Sprintf("items[%d].quantity", i), "must be positive")
		}
	}
	if inv.Items == nil {
		inv.Items = []models.InvoiceItem{}
	}
	inv.Recompute()
	return nil
}

func (s *FinanceService) nextInvoiceNumber(ctx context.Context, year int) (string, error) {
	all, err := store.ListJSON[models.Invoice](ctx, s.docs, InvoiceCollection)
	if err != nil {
		return "", err
	}
	prefix := fmt.Sprintf("INV-%d-", year)
	highest := 0
	for _, inv := range all {
		var seq int
		if !strings.HasPrefix(inv.Number, prefix) {
			continue
		}
		if _, err := fmt.Sscanf(strings.TrimPrefix(inv.Number, prefix), "%d", &seq); err == nil && seq > highest {
			highest = seq
		}
	}
	return fmt.Sprintf("%s%04d", prefix, highest+1), nil
}

// Budgets

func (s *FinanceService) CreateBudget(ctx context.Context, b models.Budget) (*models.Budget, error) {
	if err := prepareBudget(&b); err != nil {
		return nil, err
	}
	now := s.now()
	b.ID = newID()
	b.CreatedAt = now
	b.UpdatedAt = now

	if err := store.PutJSON(ctx, s.docs, BudgetCollection, b.ID, b); err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *FinanceService) GetBudget(ctx context.Context, id string) (*models.Budget, error) {
	var b models.Budget
	if err := s.getDoc(ctx, BudgetCollection, entityBudget, id, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *FinanceService) ListBudgets(ctx context.Context) ([]models.Budget, error) {
	all, err := store.ListJSON[models.Budget](ctx, s.docs, BudgetCollection)
	if err != nil {
		return nil, err
	}
	sort.Slice(all, func(i, j int) bool {
		return strings.ToLower(all[i].Name) < strings.ToLower(all[j].Name)
	})
	return all, nil
}

func (s *FinanceService) UpdateBudget(ctx context.Context, id string, b models.Budget) (*models.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.GetBudget(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := prepareBudget(&b); err != nil {
		return nil, err
	}
	b.ID = existing.ID
	b.CreatedAt = existing.CreatedAt
	b.UpdatedAt = s.now()

	if err := store.PutJSON(ctx, s.docs, BudgetCollection, b.ID, b); err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *FinanceService) DeleteBudget(ctx context.Context, id string) error {
	return s.deleteDoc(ctx, BudgetCollection, entityBudget, id)
}

// RecordExpense adds amount to a budget category and books a matching
// completed expense transaction.
func (s *FinanceService) RecordExpense(ctx context.Context, budgetID, category string, amount float64) (*models.Budget, error) {
	if amount <= 0 {
		return nil, invalid("amount", "must be positive")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := s.GetBudget(ctx, budgetID)
	if err != nil {
		return nil, err
	}
	found := false
	for i := range b.Categories {
		if strings.EqualFold(b.Categories[i].Name, category) {
			b.Categories[i].Spent += amount
			found = true
			break
		}
	}
	if !found {
		if category != "" || len(b.Categories) > 0 {
			return nil, &NotFoundError{Entity: "budget category", ID: category}
		}
		b.Spent += amount
	}
	b.Recompute()
	b.UpdatedAt = s.now()

	// The transaction goes first so a failed write never leaves a budget
	// charged without its expense.
	tx, err := s.CreateTransaction(ctx, models.Transaction{
		Type:        models.TransactionExpense,
		Amount:      amount,
		Status:      models.TransactionCompleted,
		Category:    category,
		Description: fmt.Sprintf("budget %s", b.Name),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record expense transaction: %w", err)
	}

	if err := store.PutJSON(ctx, s.docs, BudgetCollection, b.ID, b); err != nil {
		if delErr := s.docs.Delete(ctx, TransactionCollection, tx.ID); delErr != nil {
			return nil, errors.Join(err, fmt.Errorf("failed to roll back expense transaction %s: %w", tx.ID, delErr))
		}
		return nil, err
	}
	return b, nil
}

func prepareBudget(b *models.Budget) error {
	b.Name = strings.TrimSpace(b.Name)
	if b.Name == "" {
		return invalid("name", "is required")
	}
	if b.TotalBudget < 0 {
		return invalid("totalBudget", "must not be negative")
	}
	if b.Status != "" && b.Status != models.BudgetActive && b.Status != models.BudgetCompleted && b.Status != models.BudgetExceeded {
		return invalid("status", "unknown value %q", b.Status)
	}
	if b.PeriodStart != nil && b.PeriodEnd != nil && b.PeriodEnd.Before(*b.PeriodStart) {
		return invalid("periodEnd", "must not be before periodStart")
	}
	if b.Categories == nil {
		b.Categories = []models.BudgetCategory{}
	}
	b.Recompute()
	return nil
}

// Summary reports completed transaction totals dated in [from, to) together
// with the open invoice position. A zero bound is unbounded.
func (s *FinanceService) Summary(ctx context.Context, from, to time.Time) (*models.FinancialSummary, error) {
	transactions, err := s.ListTransactions(ctx, TransactionFilter{From: from, To: to})
	if err != nil {
		return nil, err
	}
	invoices, err := store.ListJSON[models.Invoice](ctx, s.docs, InvoiceCollection)
	if err != nil {
		return nil, err
	}

	summary := &models.FinancialSummary{
		From:              from,
		To:                to,
		InvoicesByStatus:  make(map[string]int, len(models.InvoiceStatuses)),
		ExpenseByCategory: map[string]float64{},
	}
	for _, st := range models.InvoiceStatuses {
		summary.InvoicesByStatus[st] = 0
	}

	for _, t := range transactions {
		if t.Status == models.TransactionPending && t.Type == models.TransactionIncome {
			summary.PendingIncome += t.Amount
		}
		if t.Status != models.TransactionCompleted {
			continue
		}
		switch t.Type {
		case models.TransactionIncome:
			summary.Income += t.Amount
		case models.TransactionPayment:
			summary.Payments += t.Amount
		case models.TransactionExpense:
			summary.Expenses += t.Amount
			category := t.Category
			if category == "" {
				category = "uncategorized"
			}
			summary.ExpenseByCategory[category] += t.Amount
		}
	}

	for _, inv := range invoices {
		summary.InvoicesByStatus[inv.Status]++
		switch inv.Status {
		case models.InvoiceSent:
			summary.OutstandingInvoice += inv.Total
		case models.InvoiceOverdue:
			summary.OutstandingInvoice += inv.Total
			summary.OverdueInvoice += inv.Total
		}
	}

	summary.Net = roundCents(summary.Income + summary.Payments - summary.Expenses)
	summary.Income = roundCents(summary.Income)
	summary.Payments = roundCents(summary.Payments)
	summary.Expenses = roundCents(summary.Expenses)
	summary.PendingIncome = roundCents(summary.PendingIncome)
	summary.OutstandingInvoice = roundCents(summary.OutstandingInvoice)
	summary.OverdueInvoice = roundCents(summary.OverdueInvoice)
	for k, v := range summary.ExpenseByCategory {
		summary.ExpenseByCategory[k] = roundCents(v)
	}
	return summary, nil
}

func contains(values []string, s string) bool {
	for _, v := range values {
		if v == s {
			return true
		}
	}
	return false
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
