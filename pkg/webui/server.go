// Package webui provides the HTTP API consumed by the fact-checking
// UI and pipeline. It uses Echo v5 for routing.
package webui

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"go.uber.org/zap"

	"veriscope/pkg/config"
	"veriscope/pkg/logger"
	"veriscope/pkg/search"
	"veriscope/pkg/usage"
	"veriscope/pkg/version"
)

// Server is the API HTTP server.
type Server struct {
	echo       *echo.Echo
	httpServer *http.Server
	logger     *logger.Logger
	search     *search.Orchestrator
	tracker    *usage.Tracker
	port       int
	startedAt  time.Time
}

// NewServer creates the API server.
func NewServer(cfg *config.Config, log *logger.Logger, orch *search.Orchestrator, tracker *usage.Tracker) *Server {
	port := cfg.WebUI.Port
	if port == 0 {
		port = 8390
	}

	s := &Server{
		logger:    log,
		search:    orch,
		tracker:   tracker,
		port:      port,
		startedAt: time.Now(),
	}

	s.setup()
	return s
}

func (s *Server) setup() {
	e := echo.New()

	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost},
	}))

	e.POST("/api/search", s.handleSearch)
	e.GET("/api/usage", s.handleUsage)
	e.GET("/api/status", s.handleStatus)

	s.echo = e
}

// Start starts the API server.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Info("API server starting", zap.String("addr", addr))

	// Use http.Server directly so shutdown is controlled from the fx
	// lifecycle rather than Echo's own signal handling.
	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.echo,
	}

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("API server error", zap.Error(err))
		}
	}()

	return nil
}

// Stop gracefully stops the API server.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("API server stopping")
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

type searchRequest struct {
	Query string `json:"query"`
}

type searchResponse struct {
	search.Outcome
	Formatted string `json:"formatted"`
}

// handleSearch runs the fallback chain for a query. Total exhaustion
// is still HTTP 200 with empty results; only a missing query is a
// client error.
func (s *Server) handleSearch(c *echo.Context) error {
	var req searchRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "query is required"})
	}

	outcome := s.search.Search(c.Request().Context(), query)
	return c.JSON(http.StatusOK, searchResponse{
		Outcome:   outcome,
		Formatted: search.FormatOutcome(outcome),
	})
}

func (s *Server) handleUsage(c *echo.Context) error {
	return c.JSON(http.StatusOK, s.tracker.Status())
}

func (s *Server) handleStatus(c *echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"version":   version.Version,
		"providers": s.search.Providers(),
		"usage":     s.tracker.Status(),
		"uptime":    time.Since(s.startedAt).String(),
	})
}
