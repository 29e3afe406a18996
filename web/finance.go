// ABOUTME: Invoice, transaction and budget handlers
// ABOUTME: Summary ranges come from from/to query values

package web

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/harperreed/prospecta/models"
	"github.com/harperreed/prospecta/services"
)

func (s *Server) handleFinanceSummary(c *gin.Context) {
	from, to, err := queryRange(c, "from", "to")
	if err != nil {
		badRequest(c, err)
		return
	}
	summary, err := s.deps.Finance.Summary(c.Request.Context(), from, to)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// Transactions

func (s *Server) handleListTransactions(c *gin.Context) {
	from, to, err := queryRange(c, "from", "to")
	if err != nil {
		badRequest(c, err)
		return
	}
	filter := services.TransactionFilter{
		Type:     c.Query("type"),
		Status:   c.Query("status"),
		Category: c.Query("category"),
		From:     from,
		To:       to,
	}
	txs, err := s.deps.Finance.ListTransactions(c.Request.Context(), filter)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, txs)
}

func (s *Server) handleCreateTransaction(c *gin.Context) {
	var t models.Transaction
	if err := c.ShouldBindJSON(&t); err != nil {
		badRequest(c, err)
		return
	}
	created, err := s.deps.Finance.CreateTransaction(c.Request.Context(), t)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (s *Server) handleGetTransaction(c *gin.Context) {
	t, err := s.deps.Finance.GetTransaction(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (s *Server) handleUpdateTransaction(c *gin.Context) {
	var t models.Transaction
	if err := c.ShouldBindJSON(&t); err != nil {
		badRequest(c, err)
		return
	}
	updated, err := s.deps.Finance.UpdateTransaction(c.Request.Context(), c.Param("id"), t)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (s *Server) handleDeleteTransaction(c *gin.Context) {
	if err := s.deps.Finance.DeleteTransaction(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Invoices

func (s *Server) handleListInvoices(c *gin.Context) {
	invoices, err := s.deps.Finance.ListInvoices(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, invoices)
}

func (s *Server) handleCreateInvoice(c *gin.Context) {
	var inv models.Invoice
	if err := c.ShouldBindJSON(&inv); err != nil {
		badRequest(c, err)
		return
	}
	created, err := s.deps.Finance.CreateInvoice(c.Request.Context(), inv)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (s *Server) handleGetInvoice(c *gin.Context) {
	inv, err := s.deps.Finance.GetInvoice(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, inv)
}

func (s *Server) handleUpdateInvoice(c *gin.Context) {
	var inv models.Invoice
	if err := c.ShouldBindJSON(&inv); err != nil {
		badRequest(c, err)
		return
	}
	updated, err := s.deps.Finance.UpdateInvoice(c.Request.Context(), c.Param("id"), inv)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (s *Server) handleDeleteInvoice(c *gin.Context) {
	if err := s.deps.Finance.DeleteInvoice(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) handleMarkOverdue(c *gin.Context) {
	n, err := s.deps.Finance.MarkOverdue(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": n})
}

// Budgets

func (s *Server) handleListBudgets(c *gin.Context) {
	budgets, err := s.deps.Finance.ListBudgets(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, budgets)
}

func (s *Server) handleCreateBudget(c *gin.Context) {
	var b models.Budget
	if err := c.ShouldBindJSON(&b); err != nil {
		badRequest(c, err)
		return
	}
	created, err := s.deps.Finance.CreateBudget(c.Request.Context(), b)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (s *Server) handleGetBudget(c *gin.Context) {
	b, err := s.deps.Finance.GetBudget(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (s *Server) handleUpdateBudget(c *gin.Context) {
	var b models.Budget
	if err := c.ShouldBindJSON(&b); err != nil {
		badRequest(c, err)
		return
	}
	updated, err := s.deps.Finance.UpdateBudget(c.Request.Context(), c.Param("id"), b)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (s *Server) handleDeleteBudget(c *gin.Context) {
	if err := s.deps.Finance.DeleteBudget(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

type expenseRequest struct {
	Category string  `json:"category"`
	Amount   float64 `json:"amount" binding:"required"`
}

func (s *Server) handleRecordExpense(c *gin.Context) {
	var req expenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	b, err := s.deps.Finance.RecordExpense(c.Request.Context(), c.Param("id"), req.Category, req.Amount)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}
