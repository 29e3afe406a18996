// ABOUTME: HTTP API server: OAuth and calendar endpoints, lead webhook, REST CRUD
// ABOUTME: Gin router with correlation-id logging, Prometheus metrics, and graceful shutdown
package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"github.com/harperreed/prospecta/config"
	"github.com/harperreed/prospecta/logging"
	"github.com/harperreed/prospecta/metrics"
	"github.com/harperreed/prospecta/services"
	"github.com/harperreed/prospecta/sync"
)

//go:embed templates/*
var templatesFS embed.FS

// Deps are the services the API serves.
type Deps struct {
	Tokens    *sync.TokenManager
	Calendar  *sync.CalendarService
	Events    *services.EventStore
	Prospects *services.ProspectService
	Users     *services.UserService
	Finance   *services.FinanceService
	Metrics   *metrics.Metrics
	Logger    *log.Logger
}

type Server struct {
	router     *gin.Engine
	config     config.ServerConfig
	deps       Deps
	logger     *log.Logger
	templates  *template.Template
	httpServer *http.Server
	now        func() time.Time
}

// NewServer builds the router. Metrics and Logger may be nil.
func NewServer(cfg config.ServerConfig, deps Deps) (*Server, error) {
	gin.SetMode(gin.ReleaseMode)

	tmpl, err := template.ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	logger := deps.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	m := deps.Metrics
	if m == nil {
		m = metrics.NewMetrics("prospecta")
		deps.Metrics = m
	}

	s := &Server{
		router:    gin.New(),
		config:    cfg,
		deps:      deps,
		logger:    logger,
		templates: tmpl,
		now:       time.Now,
	}
	s.router.HandleMethodNotAllowed = true
	s.router.Use(gin.Recovery())
	s.router.Use(loggingMiddleware(logger))
	s.router.Use(metrics.Middleware(m, logger))

	s.setupRoutes()
	return s, nil
}

// Router returns the gin engine for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) setupRoutes() {
	s.router.GET("/metrics", gin.WrapH(s.deps.Metrics.Handler()))
	s.router.GET("/health", s.handleHealth)

	cal := s.router.Group("/calendar")
	{
		cal.GET("/auth", s.handleAuthRedirect)
		cal.GET("/auth/callback", s.handleAuthCallback)
		cal.GET("/auth/status", s.handleAuthStatus)
		cal.GET("/auth/url", s.handleAuthURL)
		cal.POST("/auth/logout", s.handleLogout)

		cal.GET("/events", s.handleListCalendarEvents)
		cal.POST("/events", s.handleCreateCalendarEvent)
		cal.PUT("/events/:id", s.handleUpdateCalendarEvent)
		cal.DELETE("/events/:id", s.handleDeleteCalendarEvent)

		cal.POST("/sync", s.handleSync)
		cal.GET("/sync/status", s.handleSyncStatus)
	}

	s.router.POST("/webhook", s.handleWebhook)

	api := s.router.Group("/api")
	{
		api.GET("/events", s.handleListLocalEvents)
		api.POST("/events", s.handleSaveLocalEvent)
		api.GET("/events/:id", s.handleGetLocalEvent)
		api.DELETE("/events/:id", s.handleDeleteLocalEvent)
		api.GET("/calendar/categories", s.handleListCategories)
		api.POST("/calendar/categories", s.handleSaveCategory)
		api.DELETE("/calendar/categories/:id", s.handleDeleteCategory)
		api.GET("/calendar/settings", s.handleGetSettings)
		api.PATCH("/calendar/settings", s.handleUpdateSettings)

		prospects := api.Group("/prospects")
		{
			prospects.GET("", s.handleListProspects)
			prospects.POST("", s.handleCreateProspect)
			prospects.GET("/stats", s.handleProspectStats)
			prospects.GET("/by-user/:responsable", s.handleProspectsByUser)
			prospects.GET("/:id", s.handleGetProspect)
			prospects.PATCH("/:id", s.handleUpdateProspect)
			prospects.DELETE("/:id", s.handleDeleteProspect)
			prospects.POST("/:id/followups", s.handleAddFollowUp)
			prospects.POST("/:id/quotes", s.handleAddQuote)
			prospects.POST("/:id/assign", s.handleAssignProspect)
		}

		users := api.Group("/users")
		{
			users.GET("", s.handleListUsers)
			users.POST("", s.handleCreateUser)
			users.GET("/stats", s.handleUserStats)
			users.GET("/:id", s.handleGetUser)
			users.PATCH("/:id", s.handleUpdateUser)
			users.DELETE("/:id", s.handleDeleteUser)
		}

		finance := api.Group("/finance")
		{
			finance.GET("/summary", s.handleFinanceSummary)

			finance.GET("/transactions", s.handleListTransactions)
			finance.POST("/transactions", s.handleCreateTransaction)
			finance.GET("/transactions/:id", s.handleGetTransaction)
			finance.PUT("/transactions/:id", s.handleUpdateTransaction)
			finance.DELETE("/transactions/:id", s.handleDeleteTransaction)

			finance.GET("/invoices", s.handleListInvoices)
			finance.POST("/invoices", s.handleCreateInvoice)
			finance.POST("/invoices/mark-overdue", s.handleMarkOverdue)
			finance.GET("/invoices/:id", s.handleGetInvoice)
			finance.PUT("/invoices/:id", s.handleUpdateInvoice)
			finance.DELETE("/invoices/:id", s.handleDeleteInvoice)

			finance.GET("/budgets", s.handleListBudgets)
			finance.POST("/budgets", s.handleCreateBudget)
			finance.GET("/budgets/:id", s.handleGetBudget)
			finance.PUT("/budgets/:id", s.handleUpdateBudget)
			finance.DELETE("/budgets/:id", s.handleDeleteBudget)
			finance.POST("/budgets/:id/expenses", s.handleRecordExpense)
		}
	}
}

// loggingMiddleware tags each request with a correlation id and logs its outcome.
func loggingMiddleware(logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		correlationID := c.GetHeader(logging.CorrelationIDHeader)
		if correlationID == "" {
			correlationID = logging.GenerateCorrelationID()
		}
		c.Header(logging.CorrelationIDHeader, correlationID)

		reqLogger := logger.With("correlation_id", correlationID)
		ctx := logging.WithCorrelationID(c.Request.Context(), correlationID)
		ctx = logging.WithLogger(ctx, reqLogger)
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		reqLogger.Info("request completed",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_seconds", time.Since(start).Seconds(),
		)
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":            "healthy",
		"timestamp":         s.now().UTC(),
		"calendarConnected": s.deps.Tokens != nil && s.deps.Tokens.Connected(c.Request.Context()),
	})
}

// NewHTTPServer wraps handler with the configured timeouts.
func NewHTTPServer(cfg config.ServerConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	s.httpServer = NewHTTPServer(s.config, s.router)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", s.config.Addr)
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	timeout := s.config.ShutdownTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	s.logger.Info("shutting down HTTP server")
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down HTTP server: %w", err)
	}
	s.logger.Info("graceful shutdown completed")
	return nil
}
