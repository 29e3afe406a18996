// ABOUTME: Calendar auth, event and sync handlers
// ABOUTME: Sync windows are validated before any state changes

package web

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/harperreed/prospecta/logging"
	"github.com/harperreed/prospecta/models"
	"github.com/harperreed/prospecta/sync"
)

func (s *Server) handleAuthRedirect(c *gin.Context) {
	c.Redirect(http.StatusFound, s.deps.Tokens.AuthURL())
}

func (s *Server) handleAuthURL(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"url": s.deps.Tokens.AuthURL()})
}

func (s *Server) handleAuthCallback(c *gin.Context) {
	if authErr := c.Query("error"); authErr != "" {
		c.String(http.StatusBadRequest, "Authorization failed: %s", authErr)
		return
	}
	code := c.Query("code")
	if code == "" {
		c.String(http.StatusBadRequest, "Missing authorization code")
		return
	}

	ctx := c.Request.Context()
	if _, err := s.deps.Tokens.ExchangeCode(ctx, code); err != nil {
		logging.FromContext(ctx).Error("authorization code exchange failed", "err", err)
		c.String(http.StatusInternalServerError, "Failed to connect Google Calendar: %s", err.Error())
		return
	}

	c.Status(http.StatusOK)
	c.Header("Content-Type", "text/html; charset=utf-8")
	err := s.templates.ExecuteTemplate(c.Writer, "callback.html", map[string]string{
		"Title":   "Google Calendar conectado",
		"Message": "La cuenta de Google Calendar se conectó correctamente.",
	})
	if err != nil {
		logging.FromContext(ctx).Error("template error rendering callback.html", "err", err)
	}
}

func (s *Server) handleAuthStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"connected": s.deps.Tokens.Connected(c.Request.Context())})
}

func (s *Server) handleLogout(c *gin.Context) {
	if err := s.deps.Tokens.Disconnect(c.Request.Context()); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// handleListCalendarEvents lists live Google events; without timeMin/timeMax
// it uses the configured sync window.
func (s *Server) handleListCalendarEvents(c *gin.Context) {
	ctx := c.Request.Context()
	timeMin, timeMax, err := queryRange(c, "timeMin", "timeMax")
	if err != nil {
		badRequest(c, err)
		return
	}
	if timeMin.IsZero() && timeMax.IsZero() {
		settings, err := s.deps.Events.Settings(ctx)
		if err != nil {
			fail(c, err)
			return
		}
		timeMin, timeMax, err = s.deps.Calendar.Window(ctx, settings.SyncMonthsBefore, settings.SyncMonthsAfter)
		if err != nil {
			fail(c, err)
			return
		}
	}

	events, err := s.deps.Calendar.ListEvents(ctx, timeMin, timeMax)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

type syncRequest struct {
	MonthsBefore *int `json:"monthsBefore"`
	MonthsAfter  *int `json:"monthsAfter"`
}

func (s *Server) handleSync(c *gin.Context) {
	ctx := c.Request.Context()

	var req syncRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, err)
		return
	}
	settings, err := s.deps.Events.Settings(ctx)
	if err != nil {
		fail(c, err)
		return
	}
	before, after := settings.SyncMonthsBefore, settings.SyncMonthsAfter
	if req.MonthsBefore != nil {
		before = *req.MonthsBefore
	}
	if req.MonthsAfter != nil {
		after = *req.MonthsAfter
	}
	if err := sync.ValidateWindow(before, after); err != nil {
		badRequest(c, err)
		return
	}

	events, err := s.deps.Calendar.Sync(ctx, before, after)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"synced": true, "events": events})
}

func (s *Server) handleSyncStatus(c *gin.Context) {
	state, err := s.deps.Calendar.Status(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

func (s *Server) handleCreateCalendarEvent(c *gin.Context) {
	var ev models.Event
	if err := c.ShouldBindJSON(&ev); err != nil {
		badRequest(c, err)
		return
	}
	if ev.End.Before(ev.Start) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "end must not be before start"})
		return
	}
	created, err := s.deps.Calendar.CreateEvent(c.Request.Context(), ev)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (s *Server) handleUpdateCalendarEvent(c *gin.Context) {
	var ev models.Event
	if err := c.ShouldBindJSON(&ev); err != nil {
		badRequest(c, err)
		return
	}
	if ev.End.Before(ev.Start) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "end must not be before start"})
		return
	}
	updated, err := s.deps.Calendar.UpdateEvent(c.Request.Context(), c.Param("id"), ev)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (s *Server) handleDeleteCalendarEvent(c *gin.Context) {
	if err := s.deps.Calendar.DeleteEvent(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Local event store

func (s *Server) handleListLocalEvents(c *gin.Context) {
	from, to, err := queryRange(c, "from", "to")
	if err != nil {
		badRequest(c, err)
		return
	}
	events, err := s.deps.Events.List(c.Request.Context(), from, to)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

func (s *Server) handleGetLocalEvent(c *gin.Context) {
	ev, err := s.deps.Events.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, ev)
}

func (s *Server) handleSaveLocalEvent(c *gin.Context) {
	var ev models.Event
	if err := c.ShouldBindJSON(&ev); err != nil {
		badRequest(c, err)
		return
	}
	saved, err := s.deps.Events.Save(c.Request.Context(), ev)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, saved)
}

func (s *Server) handleDeleteLocalEvent(c *gin.Context) {
	if err := s.deps.Events.Delete(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) handleListCategories(c *gin.Context) {
	cats, err := s.deps.Events.Categories(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": cats})
}

func (s *Server) handleSaveCategory(c *gin.Context) {
	var cat models.Category
	if err := c.ShouldBindJSON(&cat); err != nil {
		badRequest(c, err)
		return
	}
	saved, err := s.deps.Events.SaveCategory(c.Request.Context(), cat)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, saved)
}

func (s *Server) handleDeleteCategory(c *gin.Context) {
	if err := s.deps.Events.DeleteCategory(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) handleGetSettings(c *gin.Context) {
	settings, err := s.deps.Events.Settings(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

func (s *Server) handleUpdateSettings(c *gin.Context) {
	patch, err := io.ReadAll(c.Request.Body)
	if err != nil {
		badRequest(c, err)
		return
	}
	settings, err := s.deps.Events.UpdateSettings(c.Request.Context(), patch)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}
