// Package api serves the SectorScan dashboard and its JSON endpoints.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/supertypeai/sectors-kb/internal/config"
	"github.com/supertypeai/sectors-kb/internal/logger"
	"github.com/supertypeai/sectors-kb/internal/providers/sectors"
	"github.com/supertypeai/sectors-kb/internal/shaper"
	"github.com/supertypeai/sectors-kb/pkg/utils"
)

// Backend is what the server reads sector data from. *sectors.Client
// satisfies it.
type Backend interface {
	shaper.Source
	Subsectors(ctx context.Context) ([]string, error)
}

// Server is the HTTP dashboard server.
type Server struct {
	router  chi.Router
	cfg     config.DashboardConfig
	backend Backend
	shaper  *shaper.Shaper
	version string
}

// NewServer creates a configured server with all routes and middleware.
func NewServer(cfg config.DashboardConfig, backend Backend, version string) *Server {
	if cfg.DefaultSectors <= 0 {
		cfg.DefaultSectors = 3
	}
	if cfg.MaxSectors <= 0 {
		cfg.MaxSectors = 5
	}
	srv := &Server{
		cfg:     cfg,
		backend: backend,
		shaper:  shaper.New(backend),
		version: version,
	}
	srv.router = srv.buildRouter()
	return srv
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ListenAndServe starts the HTTP server and shuts it down gracefully on
// SIGINT or SIGTERM.
func (s *Server) ListenAndServe(addr string) error {
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.L().Info().Str("addr", addr).Msg("dashboard listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(done)

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-done:
	}
	logger.L().Info().Msg("shutting down dashboard")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return httpSrv.Shutdown(ctx)
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(logger.L()))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	origins := []string{"*"}
	if len(s.cfg.CORSOrigins) > 0 {
		origins = s.cfg.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/", s.handleDashboard)
	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/sectors", s.handleSectors)
		r.Get("/market-cap", s.handleMarketCap)
		r.Get("/valuation", s.handleValuation)
		r.Get("/top-companies", s.handleTopCompanies)
	})

	return r
}

// ── Response Types ──

// APIResponse is the standard JSON envelope.
type APIResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ── JSON Handlers ──

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]any{
			"status":   "ok",
			"version":  s.version,
			"time_wib": utils.NowWIB().Format(time.RFC3339),
		},
	})
}

func (s *Server) handleSectors(w http.ResponseWriter, r *http.Request) {
	list, err := s.backend.Subsectors(r.Context())
	if err != nil {
		writeUpstreamError(w, r, err)
		return
	}
	type option struct {
		Value string `json:"value"`
		Label string `json:"label"`
	}
	out := make([]option, 0, len(list))
	for _, v := range list {
		out = append(out, option{Value: v, Label: utils.FormatSectorLabel(v)})
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: out})
}

func (s *Server) handleMarketCap(w http.ResponseWriter, r *http.Request) {
	selected, err := s.selection(r)
	if err != nil {
		writeUpstreamError(w, r, err)
		return
	}
	tables, err := s.shaper.MarketCap(r.Context(), selected)
	if err != nil {
		writeUpstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: tables})
}

func (s *Server) handleValuation(w http.ResponseWriter, r *http.Request) {
	selected, err := s.selection(r)
	if err != nil {
		writeUpstreamError(w, r, err)
		return
	}
	rows, err := s.shaper.Valuation(r.Context(), selected)
	if err != nil {
		writeUpstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: rows})
}

func (s *Server) handleTopCompanies(w http.ResponseWriter, r *http.Request) {
	selected, err := s.selection(r)
	if err != nil {
		writeUpstreamError(w, r, err)
		return
	}
	tables, err := s.shaper.TopCompanies(r.Context(), selected)
	if err != nil {
		writeUpstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: tables})
}

// selection reads ?sectors=a,b for the JSON endpoints. Unlike the page, the
// JSON endpoints never substitute defaults and reject more than MaxSectors.
func (s *Server) selection(r *http.Request) ([]string, error) {
	selected := parseSectors(r.URL.Query()["sectors"])
	if len(selected) == 0 {
		return nil, &sectors.ValidationError{Field: "sectors", Value: "", Reason: "select at least one sector"}
	}
	if len(selected) > s.cfg.MaxSectors {
		return nil, &sectors.ValidationError{
			Field:  "sectors",
			Value:  fmt.Sprint(selected),
			Reason: fmt.Sprintf("at most %d sectors may be selected", s.cfg.MaxSectors),
		}
	}
	return selected, nil
}

// ── Helpers ──

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.L().Error().Err(err).Msg("failed to write JSON response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   msg,
	})
}

// writeUpstreamError maps fetcher errors to HTTP statuses.
func writeUpstreamError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	ev := logger.L().Warn()
	if status >= http.StatusInternalServerError {
		ev = logger.L().Error()
	}
	ev.Err(err).Str("path", r.URL.Path).Int("status", status).Msg("request failed")
	writeError(w, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case sectors.IsValidation(err):
		return http.StatusBadRequest
	case sectors.IsMalformed(err), sectors.IsRemote(err):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
