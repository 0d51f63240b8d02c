// Package ui serves a small HTML front end for ad-hoc fits.
package ui

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"time"

	"labfit/app"
	"labfit/internal"

	"github.com/gin-gonic/gin"
)

// Config holds UI server settings
type Config struct {
	Addr    string
	GinMode string
	Digits  int
}

// Server represents the web server for the report UI
type Server struct {
	config    Config
	router    *gin.Engine
	templates *template.Template
	fits      *app.FitService
	logger    *internal.Logger
}

// NewServer creates a new web server instance
func NewServer(config Config, fits *app.FitService, logger *internal.Logger) (*Server, error) {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	if config.GinMode != "" {
		gin.SetMode(config.GinMode)
	}

	templates, err := parseTemplates()
	if err != nil {
		return nil, err
	}

	s := &Server{
		config:    config,
		router:    gin.Default(),
		templates: templates,
		fits:      fits,
		logger:    logger.With("ui"),
	}
	s.setupRoutes()
	return s, nil
}

// setupRoutes configures the application routes
func (s *Server) setupRoutes() {
	s.router.GET("/", s.handleIndex)
	s.router.POST("/fit", s.handleFit)
	s.router.GET("/api/models", s.handleModels)
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until ctx is cancelled
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{Addr: s.config.Addr, Handler: s.router}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting labfit UI on http://%s", s.config.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
