// ABOUTME: Data models for the finance module
// ABOUTME: Defines Transaction, Invoice, Budget and the recompute rules for derived totals
package models

import (
	"math"
	"time"
)

// Transaction types.
const (
	TransactionIncome  = "income"
	TransactionExpense = "expense"
	TransactionPayment = "payment"
)

// Transaction statuses.
const (
	TransactionPending   = "pending"
	TransactionCompleted = "completed"
	TransactionCancelled = "cancelled"
)

// Invoice statuses.
const (
	InvoiceDraft     = "draft"
	InvoiceSent      = "sent"
	InvoicePaid      = "paid"
	InvoiceOverdue   = "overdue"
	InvoiceCancelled = "cancelled"
)

// Budget statuses.
const (
	BudgetActive    = "active"
	BudgetCompleted = "completed"
	BudgetExceeded  = "exceeded"
)

var TransactionTypes = []string{TransactionIncome, TransactionExpense, TransactionPayment}

var TransactionStatuses = []string{TransactionPending, TransactionCompleted, TransactionCancelled}

var InvoiceStatuses = []string{InvoiceDraft, InvoiceSent, InvoicePaid, InvoiceOverdue, InvoiceCancelled}

type Transaction struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Amount      float64   `json:"amount"`
	Status      string    `json:"status"`
	Category    string    `json:"category,omitempty"`
	Description string    `json:"description,omitempty"`
	Date        time.Time `json:"date"`
	InvoiceID   string    `json:"invoiceId,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type InvoiceItem struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
}

// Total is quantity times unit price.
func (i InvoiceItem) Total() float64 {
	return roundCents(i.Quantity * i.UnitPrice)
}

type Invoice struct {
	ID        string        `json:"id"`
	Number    string        `json:"number"`
	Client    string        `json:"client"`
	Status    string        `json:"status"`
	Items     []InvoiceItem `json:"items"`
	Amount    float64       `json:"amount"`
	Tax       float64       `json:"tax"`
	Total     float64       `json:"total"`
	IssueDate time.Time     `json:"issueDate"`
	DueDate   *time.Time    `json:"dueDate,omitempty"`
	PaidAt    *time.Time    `json:"paidAt,omitempty"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// Recompute derives amount from items (when there are any) and total = amount + tax.
func (inv *Invoice) Recompute() {
	if len(inv.Items) > 0 {
		var sum float64
		for _, item := range inv.Items {
			sum += item.Total()
		}
		inv.Amount = roundCents(sum)
	}
	inv.Total = roundCents(inv.Amount + inv.Tax)
}

type BudgetCategory struct {
	Name      string  `json:"name"`
	Allocated float64 `json:"allocated"`
	Spent     float64 `json:"spent"`
}

type Budget struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Categories  []BudgetCategory `json:"categories"`
	TotalBudget float64          `json:"totalBudget"`
	Spent       float64          `json:"spent"`
	Remaining   float64          `json:"remaining"`
	Status      string           `json:"status"`
	PeriodStart *time.Time       `json:"periodStart,omitempty"`
	PeriodEnd   *time.Time       `json:"periodEnd,omitempty"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

// Recompute derives spent from categories (when there are any), remaining, and status.
// A budget explicitly marked completed stays completed unless it is over budget.
func (b *Budget) Recompute() {
	if len(b.Categories) > 0 {
		var spent float64
		for _, c := range b.Categories {
			spent += c.Spent
		}
		b.Spent = roundCents(spent)
		if b.TotalBudget == 0 {
			var allocated float64
			for _, c := range b.Categories {
				allocated += c.Allocated
			}
			b.TotalBudget = roundCents(allocated)
		}
	}
	b.Remaining = roundCents(b.TotalBudget - b.Spent)

	switch {
	case b.Spent > b.TotalBudget:
		b.Status = BudgetExceeded
	case b.Status == BudgetCompleted:
	default:
		b.Status = BudgetActive
	}
}

// FinancialSummary is the report over a date range.
type FinancialSummary struct {
	From               time.Time          `json:"from"`
	To                 time.Time          `json:"to"`
	Income             float64            `json:"income"`
	Expenses           float64            `json:"expenses"`
	Payments           float64            `json:"payments"`
	Net                float64            `json:"net"`
	PendingIncome      float64            `json:"pendingIncome"`
	OutstandingInvoice float64            `json:"outstandingInvoices"`
	OverdueInvoice     float64            `json:"overdueInvoices"`
	InvoicesByStatus   map[string]int     `json:"invoicesByStatus"`
	ExpenseByCategory  map[string]float64 `json:"expenseByCategory"`
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
