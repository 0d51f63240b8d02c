// Package api serves fits over HTTP with a chi router.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"labfit/app"
	"labfit/domain/core"
	"labfit/internal"
	apperrors "labfit/internal/errors"
	"labfit/ports"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const defaultListLimit = 50

// Server exposes the fit service and, when configured, the result store
type Server struct {
	config Config
	router *chi.Mux
	fits   *app.FitService
	repo   ports.FitRepository
	logger *internal.Logger
}

// NewServer creates the API server. repo may be nil, in which case the
// stored-result endpoints answer 503.
func NewServer(config Config, fits *app.FitService, repo ports.FitRepository, logger *internal.Logger) *Server {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	if config.MaxBodyBytes <= 0 {
		config.MaxBodyBytes = DefaultConfig().MaxBodyBytes
	}
	s := &Server{
		config: config,
		router: chi.NewRouter(),
		fits:   fits,
		repo:   repo,
		logger: logger.With("api"),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures HTTP middleware
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	if s.config.WriteTimeout > 0 {
		s.router.Use(middleware.Timeout(s.config.WriteTimeout))
	}
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api/fits", func(r chi.Router) {
		r.Post("/", s.handleCreateFit)
		r.Get("/", s.handleListFits)
		r.Get("/{id}", s.handleGetFit)
	})
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.config.Addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout + 5*time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening on %s", s.config.Addr)
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

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"store":  s.repo != nil,
	})
}

func (s *Server) handleCreateFit(w http.ResponseWriter, r *http.Request) {
	var req FitRequest
	body := http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		s.writeError(w, core.NewArgumentError("invalid request body: %v", err))
		return
	}

	spec, err := app.BuildSpec(req.Family, req.Model, req.Expression, req.Params)
	if err != nil {
		s.writeError(w, err)
		return
	}

	res, err := s.fits.Fit(r.Context(), req.X, req.Y, spec)
	if err != nil {
		s.writeError(w, err)
		return
	}

	resp := newFitResponse(req.Title, res, s.config.Digits)
	if req.Save {
		if s.repo == nil {
			s.writeError(w, apperrors.StoreDisabled())
			return
		}
		stored := &ports.StoredFit{Title: req.Title, Source: "api", Result: res}
		if err := s.repo.Save(r.Context(), stored); err != nil {
			s.writeError(w, err)
			return
		}
		resp = storedResponse(stored, s.config.Digits)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetFit(w http.ResponseWriter, r *http.Request) {
	if s.repo == nil {
		s.writeError(w, apperrors.StoreDisabled())
		return
	}
	id, err := core.ParseFitID(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	stored, err := s.repo.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, storedResponse(stored, s.config.Digits))
}

func (s *Server) handleListFits(w http.ResponseWriter, r *http.Request) {
	if s.repo == nil {
		s.writeError(w, apperrors.StoreDisabled())
		return
	}

	var runID core.RunID
	if raw := r.URL.Query().Get("run_id"); raw != "" {
		parsed, err := core.ParseRunID(raw)
		if err != nil {
			s.writeError(w, err)
			return
		}
		runID = parsed
	}
	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			s.writeError(w, core.NewArgumentError("limit must be a positive integer, got %q", raw))
			return
		}
		limit = n
	}

	fits, err := s.repo.List(r.Context(), runID, limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	out := make([]FitResponse, len(fits))
	for i, f := range fits {
		out[i] = storedResponse(f, s.config.Digits)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := apperrors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed: %v", err)
	}
	writeJSON(w, status, ErrorResponse{Error: err.Error(), Code: apperrors.GetCode(err)})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
