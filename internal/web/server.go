// Package web serves the gridrules UI and JSON API.
package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/gridrules/internal/config"
	"github.com/JonMunkholm/gridrules/internal/rulestore"
	"github.com/JonMunkholm/gridrules/internal/web/middleware"
	"github.com/JonMunkholm/gridrules/internal/workspace"
)

// Server is the HTTP server.
type Server struct {
	cfg       *config.Config
	workspace *workspace.Service
	rules     rulestore.Store
	router    *chi.Mux
	server    *http.Server
	limiters  []*middleware.RateLimiter
}

// NewServer wires routes for ws. Rule sets are read and written through
// ws.Store().
func NewServer(cfg *config.Config, ws *workspace.Service) *Server {
	s := &Server{
		cfg:       cfg,
		workspace: ws,
		rules:     ws.Store(),
		router:    chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(middleware.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(middleware.Logger)
	s.router.Use(chimw.Recoverer)
	s.router.Use(chimw.Compress(5))
	s.router.Use(chimw.Timeout(s.cfg.Server.RequestTimeout))
	s.router.Use(middleware.SecurityHeaders(s.cfg.Security.EnableCSP))

	if s.cfg.Rate.Enabled {
		s.router.Use(s.rateLimiter(s.cfg.Rate.RequestsPerMinute).Middleware)
	}
}

// rateLimiter creates a per-minute limiter that Shutdown will stop.
func (s *Server) rateLimiter(perMinute int) *middleware.RateLimiter {
	rl := middleware.NewRateLimiter(perMinute, time.Minute)
	s.limiters = append(s.limiters, rl)
	return rl
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	// Pages
	s.router.Get("/", s.handleDashboard)
	s.router.Get("/datasets/{id}", s.handleDatasetPage)
	s.router.Get("/rule-sets", s.handleRuleSetsPage)

	s.router.Route("/api", func(r chi.Router) {
		r.Use(middleware.APIKeyAuth(s.cfg.Security.RequireAPIKey, s.cfg.Security.APIKeys))

		r.Get("/status", s.handleStatus)

		r.Route("/rule-sets", func(r chi.Router) {
			r.Get("/", s.handleListRuleSets)
			r.Post("/", s.handleCreateRuleSet)
			r.Post("/import", s.handleImportRuleSet)
			r.Get("/{name}", s.handleGetRuleSet)
			r.Put("/{name}", s.handleUpdateRuleSet)
			r.Delete("/{name}", s.handleDeleteRuleSet)
			r.Get("/{name}/export", s.handleExportRuleSet)
		})

		r.Route("/datasets", func(r chi.Router) {
			r.Get("/", s.handleListDatasets)
			upload := r.With()
			if s.cfg.Rate.Enabled {
				upload = r.With(s.rateLimiter(s.cfg.Rate.UploadLimit).Middleware)
			}
			upload.Post("/", s.handleUploadDataset)

			r.Get("/{id}", s.handleGetDataset)
			r.Delete("/{id}", s.handleDeleteDataset)
			r.Post("/{id}/rule-set", s.handleSelectRuleSet)
			r.Post("/{id}/cells", s.handleEditCell)
			r.Post("/{id}/next-error", s.handleNextError)
			r.Get("/{id}/export", s.handleExportDataset)
			r.Get("/{id}/rules/export", s.handleExportDatasetRules)
		})
	})
}

// Start listens on the configured address until Shutdown.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	slog.Info("server starting", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown stops accepting requests, waits for in-flight ones and for
// running dataset loads, then stops background work.
func (s *Server) Shutdown(ctx context.Context) error {
	defer func() {
		for _, rl := range s.limiters {
			rl.Close()
		}
	}()

	if s.server != nil {
		if err := s.server.Shutdown(ctx); err != nil {
			return err
		}
	}
	return s.workspace.WaitForLoads(ctx)
}

// Router returns the handler, for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleStatus reports load slot usage for monitoring.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"loads":    s.workspace.LimiterStatus(),
		"datasets": len(s.workspace.List()),
	})
}

// writeJSON encodes v with status. Encoding errors are logged since the
// header is already sent.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
