// ABOUTME: Tests for invoices, transactions and budgets
// ABOUTME: Covers numbering, overdue marking and expense booking

package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/prospecta/models"
	"github.com/harperreed/prospecta/services"
)

func newFinanceService() *services.FinanceService {
	return services.NewFinanceService(newDocs(), services.WithClock(newClock().Now))
}

func TestInvoiceTotalIsAmountPlusTax(t *testing.T) {
	svc := newFinanceService()
	ctx := context.Background()

	inv, err := svc.CreateInvoice(ctx, models.Invoice{Client: "Acme", Amount: 1000, Tax: 100})
	require.NoError(t, err)
	assert.Equal(t, 1100.0, inv.Total)
	assert.Equal(t, "INV-2025-0001", inv.Number)
	assert.Equal(t, models.InvoiceDraft, inv.Status)

	stored, err := svc.GetInvoice(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, 1100.0, stored.Total)

	stored.Tax = 160
	updated, err := svc.UpdateInvoice(ctx, inv.ID, *stored)
	require.NoError(t, err)
	assert.Equal(t, 1160.0, updated.Total)
	assert.Equal(t, inv.Number, updated.Number)
}

func TestInvoiceAmountFromItems(t *testing.T) {
	svc := newFinanceService()
	ctx := context.Background()

	inv, err := svc.CreateInvoice(ctx, models.Invoice{
		Client: "Acme",
		Amount: 1,
		Tax:    40,
		Items: []models.InvoiceItem{
			{Description: "Design", Quantity: 2, UnitPrice: 150},
			{Description: "Hosting", Quantity: 1, UnitPrice: 99.99},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 399.99, inv.Amount)
	assert.Equal(t, 439.99, inv.Total)
}

func TestInvoiceNumberingAndPaid(t *testing.T) {
	svc := newFinanceService()
	ctx := context.Background()

	_, err := svc.CreateInvoice(ctx, models.Invoice{Client: "A", Amount: 10})
	require.NoError(t, err)
	second, err := svc.CreateInvoice(ctx, models.Invoice{Client: "B", Amount: 20, Status: models.InvoiceSent})
	require.NoError(t, err)
	assert.Equal(t, "INV-2025-0002", second.Number)
	assert.Nil(t, second.PaidAt)

	second.Status = models.InvoicePaid
	paid, err := svc.UpdateInvoice(ctx, second.ID, *second)
	require.NoError(t, err)
	require.NotNil(t, paid.PaidAt)

	all, err := svc.ListInvoices(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, svc.DeleteInvoice(ctx, second.ID))
	_, err = svc.GetInvoice(ctx, second.ID)
	assert.True(t, services.IsNotFound(err))
}

func TestInvoiceValidation(t *testing.T) {
	svc := newFinanceService()
	ctx := context.Background()

	var verr *services.ValidationError
	_, err := svc.CreateInvoice(ctx, models.Invoice{Amount: 10})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "client", verr.Field)

	_, err = svc.CreateInvoice(ctx, models.Invoice{Client: "A", Status: "lost"})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "status", verr.Field)
}

func TestMarkOverdue(t *testing.T) {
	svc := newFinanceService()
	ctx := context.Background()

	past := testNow.Add(-48 * time.Hour)
	future := testNow.Add(48 * time.Hour)

	late, err := svc.CreateInvoice(ctx, models.Invoice{Client: "Late", Amount: 100, Status: models.InvoiceSent, DueDate: &past})
	require.NoError(t, err)
	_, err = svc.CreateInvoice(ctx, models.Invoice{Client: "OnTime", Amount: 100, Status: models.InvoiceSent, DueDate: &future})
	require.NoError(t, err)
	_, err = svc.CreateInvoice(ctx, models.Invoice{Client: "Draft", Amount: 100, DueDate: &past})
	require.NoError(t, err)

	n, err := svc.MarkOverdue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := svc.GetInvoice(ctx, late.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InvoiceOverdue, got.Status)
}

func TestBudgetRemainingRecomputed(t *testing.T) {
	svc := newFinanceService()
	ctx := context.Background()

	b, err := svc.CreateBudget(ctx, models.Budget{
		Name: "Marketing",
		Categories: []models.BudgetCategory{
			{Name: "Ads", Allocated: 600},
			{Name: "Events", Allocated: 400},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 1000.0, b.TotalBudget)
	assert.Equal(t, 1000.0, b.Remaining)
	assert.Equal(t, models.BudgetActive, b.Status)

	b, err = svc.RecordExpense(ctx, b.ID, "ads", 250)
	require.NoError(t, err)
	assert.Equal(t, 250.0, b.Spent)
	assert.Equal(t, 750.0, b.Remaining)

	b, err = svc.RecordExpense(ctx, b.ID, "Events", 900)
	require.NoError(t, err)
	assert.Equal(t, 1150.0, b.Spent)
	assert.Equal(t, -150.0, b.Remaining)
	assert.Equal(t, models.BudgetExceeded, b.Status)

	expenses, err := svc.ListTransactions(ctx, services.TransactionFilter{Type: models.TransactionExpense})
	require.NoError(t, err)
	assert.Len(t, expenses, 2)
	for _, tx := range expenses {
		assert.Equal(t, models.TransactionCompleted, tx.Status)
	}

	_, err = svc.RecordExpense(ctx, b.ID, "Travel", 10)
	assert.True(t, services.IsNotFound(err))
}

func TestRecordExpenseWriteFailures(t *testing.T) {
	cases := []struct {
		name       string
		collection string
	}{
		{name: "transaction write fails", collection: services.TransactionCollection},
		{name: "budget write fails", collection: services.BudgetCollection},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			docs := &failingDocs{Documents: newDocs(), collection: tc.collection}
			svc := services.NewFinanceService(docs, services.WithClock(newClock().Now))
			ctx := context.Background()

			b, err := svc.CreateBudget(ctx, models.Budget{
				Name:       "Marketing",
				Categories: []models.BudgetCategory{{Name: "Ads", Allocated: 600}},
			})
			require.NoError(t, err)

			docs.armed = true
			_, err = svc.RecordExpense(ctx, b.ID, "Ads", 250)
			require.ErrorIs(t, err, errPutFailed)
			docs.armed = false

			stored, err := svc.GetBudget(ctx, b.ID)
			require.NoError(t, err)
			assert.Equal(t, 0.0, stored.Spent)
			assert.Equal(t, 600.0, stored.Remaining)

			expenses, err := svc.ListTransactions(ctx, services.TransactionFilter{Type: models.TransactionExpense})
			require.NoError(t, err)
			assert.Empty(t, expenses)
		})
	}
}

func TestBudgetUpdateRecomputes(t *testing.T) {
	svc := newFinanceService()
	ctx := context.Background()

	b, err := svc.CreateBudget(ctx, models.Budget{Name: "Ops", TotalBudget: 500, Spent: 100})
	require.NoError(t, err)
	assert.Equal(t, 400.0, b.Remaining)

	b.Spent = 450
	updated, err := svc.UpdateBudget(ctx, b.ID, *b)
	require.NoError(t, err)
	assert.Equal(t, 50.0, updated.Remaining)

	list, err := svc.ListBudgets(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 50.0, list[0].Remaining)

	require.NoError(t, svc.DeleteBudget(ctx, b.ID))
}

func TestTransactionsCRUDAndFilter(t *testing.T) {
	svc := newFinanceService()
	ctx := context.Background()

	income, err := svc.CreateTransaction(ctx, models.Transaction{Type: models.TransactionIncome, Amount: 500, Date: testNow})
	require.NoError(t, err)
	assert.Equal(t, models.TransactionPending, income.Status)

	_, err = svc.CreateTransaction(ctx, models.Transaction{Type: models.TransactionExpense, Amount: 80, Status: models.TransactionCompleted, Category: "Office", Date: testNow.AddDate(0, -2, 0)})
	require.NoError(t, err)

	_, err = svc.CreateTransaction(ctx, models.Transaction{Type: "gift", Amount: 1})
	var verr *services.ValidationError
	assert.ErrorAs(t, err, &verr)
	_, err = svc.CreateTransaction(ctx, models.Transaction{Type: models.TransactionIncome, Amount: 0})
	assert.ErrorAs(t, err, &verr)

	recent, err := svc.ListTransactions(ctx, services.TransactionFilter{From: testNow.AddDate(0, -1, 0)})
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, income.ID, recent[0].ID)

	office, err := svc.ListTransactions(ctx, services.TransactionFilter{Category: "office"})
	require.NoError(t, err)
	assert.Len(t, office, 1)

	income.Status = models.TransactionCompleted
	updated, err := svc.UpdateTransaction(ctx, income.ID, *income)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionCompleted, updated.Status)
	assert.Equal(t, income.CreatedAt, updated.CreatedAt)

	require.NoError(t, svc.DeleteTransaction(ctx, income.ID))
	assert.True(t, services.IsNotFound(svc.DeleteTransaction(ctx, income.ID)))
}

func TestFinancialSummary(t *testing.T) {
	svc := newFinanceService()
	ctx := context.Background()

	add := func(tx models.Transaction) {
		t.Helper()
		tx.Date = testNow
		_, err := svc.CreateTransaction(ctx, tx)
		require.NoError(t, err)
	}
	add(models.Transaction{Type: models.TransactionIncome, Amount: 1000, Status: models.TransactionCompleted})
	add(models.Transaction{Type: models.TransactionIncome, Amount: 300, Status: models.TransactionPending})
	add(models.Transaction{Type: models.TransactionPayment, Amount: 200, Status: models.TransactionCompleted})
	add(models.Transaction{Type: models.TransactionExpense, Amount: 150.5, Status: models.TransactionCompleted, Category: "Ads"})
	add(models.Transaction{Type: models.TransactionExpense, Amount: 49.5, Status: models.TransactionCompleted})
	add(models.Transaction{Type: models.TransactionExpense, Amount: 999, Status: models.TransactionCancelled})

	past := testNow.Add(-time.Hour)
	_, err := svc.CreateInvoice(ctx, models.Invoice{Client: "A", Amount: 100, Status: models.InvoiceSent})
	require.NoError(t, err)
	_, err = svc.CreateInvoice(ctx, models.Invoice{Client: "B", Amount: 50, Tax: 5, Status: models.InvoiceOverdue, DueDate: &past})
	require.NoError(t, err)

	summary, err := svc.Summary(ctx, testNow.AddDate(0, 0, -1), testNow.AddDate(0, 0, 1))
	require.NoError(t, err)

	assert.Equal(t, 1000.0, summary.Income)
	assert.Equal(t, 200.0, summary.Payments)
	assert.Equal(t, 200.0, summary.Expenses)
	assert.Equal(t, 1000.0, summary.Net)
	assert.Equal(t, 300.0, summary.PendingIncome)
	assert.Equal(t, 155.0, summary.OutstandingInvoice)
	assert.Equal(t, 55.0, summary.OverdueInvoice)
	assert.Equal(t, 150.5, summary.ExpenseByCategory["Ads"])
	assert.Equal(t, 49.5, summary.ExpenseByCategory["uncategorized"])
	assert.Equal(t, 1, summary.InvoicesByStatus[models.InvoiceSent])
	assert.Equal(t, 0, summary.InvoicesByStatus[models.InvoicePaid])

	empty, err := svc.Summary(ctx, testNow.AddDate(1, 0, 0), testNow.AddDate(2, 0, 0))
	require.NoError(t, err)
	assert.Zero(t, empty.Income)
	assert.Zero(t, empty.Net)
}
