// ABOUTME: Prospect and team member handlers
// ABOUTME: Includes the public webhook intake

package web

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/harperreed/prospecta/logging"
	"github.com/harperreed/prospecta/models"
	"github.com/harperreed/prospecta/services"
)

// handleWebhook turns an inbound lead into a prospect.
func (s *Server) handleWebhook(c *gin.Context) {
	ctx := c.Request.Context()

	var lead services.WebhookLead
	if err := c.ShouldBindJSON(&lead); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": err.Error()})
		return
	}
	p, err := s.deps.Prospects.CreateFromWebhook(ctx, lead)
	if err != nil {
		logging.FromContext(ctx).Error("webhook lead rejected", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "prospect": p})
}

// Prospects

func (s *Server) handleListProspects(c *gin.Context) {
	prospects, err := s.deps.Prospects.List(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, prospects)
}

func (s *Server) handleCreateProspect(c *gin.Context) {
	var p models.Prospect
	if err := c.ShouldBindJSON(&p); err != nil {
		badRequest(c, err)
		return
	}
	created, err := s.deps.Prospects.Create(c.Request.Context(), p)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (s *Server) handleProspectStats(c *gin.Context) {
	stats, err := s.deps.Prospects.Stats(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) handleProspectsByUser(c *gin.Context) {
	prospects, err := s.deps.Prospects.ByUser(c.Request.Context(), c.Param("responsable"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, prospects)
}

func (s *Server) handleGetProspect(c *gin.Context) {
	p, err := s.deps.Prospects.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) handleUpdateProspect(c *gin.Context) {
	var patch services.ProspectPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, err)
		return
	}
	p, err := s.deps.Prospects.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) handleDeleteProspect(c *gin.Context) {
	if err := s.deps.Prospects.Delete(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

type followUpRequest struct {
	Nota  string `json:"nota" binding:"required"`
	Autor string `json:"autor"`
}

func (s *Server) handleAddFollowUp(c *gin.Context) {
	var req followUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	p, err := s.deps.Prospects.AddFollowUp(c.Request.Context(), c.Param("id"), req.Nota, req.Autor)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

type quoteRequest struct {
	Descripcion string  `json:"descripcion"`
	Monto       float64 `json:"monto" binding:"required"`
}

func (s *Server) handleAddQuote(c *gin.Context) {
	var req quoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	p, err := s.deps.Prospects.AddQuote(c.Request.Context(), c.Param("id"), req.Descripcion, req.Monto)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

type assignRequest struct {
	Responsable string `json:"responsable" binding:"required"`
}

func (s *Server) handleAssignProspect(c *gin.Context) {
	var req assignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	p, err := s.deps.Prospects.Assign(c.Request.Context(), c.Param("id"), req.Responsable)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// Users

func (s *Server) handleListUsers(c *gin.Context) {
	ctx := c.Request.Context()
	var (
		users []models.User
		err   error
	)
	if rol := c.Query("rol"); rol != "" {
		users, err = s.deps.Users.ByRole(ctx, rol)
	} else {
		users, err = s.deps.Users.List(ctx)
	}
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (s *Server) handleCreateUser(c *gin.Context) {
	var u models.User
	if err := c.ShouldBindJSON(&u); err != nil {
		badRequest(c, err)
		return
	}
	created, err := s.deps.Users.Create(c.Request.Context(), u)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (s *Server) handleUserStats(c *gin.Context) {
	stats, err := s.deps.Users.Stats(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) handleGetUser(c *gin.Context) {
	u, err := s.deps.Users.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (s *Server) handleUpdateUser(c *gin.Context) {
	var patch services.UserPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, err)
		return
	}
	u, err := s.deps.Users.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (s *Server) handleDeleteUser(c *gin.Context) {
	if err := s.deps.Users.Delete(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
