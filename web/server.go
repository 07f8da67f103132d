// Package web is the HTTP ingress: the admin-gated native API, the
// qBittorrent-compatible compatibility surface, and the observability
// endpoints. Everything is served from one chi.Router so the admin-gate,
// logging, and panic-recovery middleware wrap consistently; compatibility
// routes are mounted in their own route group and health/metrics directly
// on the top-level router, both with the admin gate omitted.
package web

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/qdispatch/qdispatch/arrclient"
	"github.com/qdispatch/qdispatch/core"
	"github.com/qdispatch/qdispatch/dispatcher"
	"github.com/qdispatch/qdispatch/models"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

// Dispatch is the subset of dispatcher.Dispatcher the HTTP layer depends
// on.
type Dispatch interface {
	Submit(ctx context.Context, req models.SubmitRequest) (models.SubmitDecision, error)
	Decisions(limit int) []models.DecisionRecord
	Evaluate(ctx context.Context, sizeGB float64) []models.NodeSnapshot
}

// Server wires the routing core to HTTP.
type Server struct {
	router *chi.Mux
	disp   Dispatch
	plane  *core.Plane
	arr    *arrclient.Checker
	logger *zap.Logger
}

// NewServer builds the router and mounts every route described in the
// external interfaces contract.
func NewServer(disp Dispatch, plane *core.Plane, arr *arrclient.Checker, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{disp: disp, plane: plane, arr: arr, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)
	r.Use(cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type", "X-Api-Key"},
	}).Handler)

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(open chi.Router) {
		open.Post("/api/v2/auth/login", s.handleCompatLogin)
		open.Post("/api/v2/torrents/add", s.handleCompatAdd)
		open.Get("/api/v2/app/version", s.handleCompatVersion)
		open.Get("/api/v2/app/webapiVersion", s.handleCompatWebAPIVersion)
	})

	r.Group(func(admin chi.Router) {
		admin.Use(s.adminGate)
		admin.Post("/submit", s.handleSubmit)
		admin.Get("/nodes", s.handleNodes)
		admin.Post("/debug/decision", s.handleDebugDecision)
		admin.Get("/decisions", s.handleDecisions)
		admin.Get("/config/json", s.handleConfigGetJSON)
		admin.Post("/config/json", s.handleConfigSetJSON)
		admin.Get("/config/raw", s.handleConfigGetRaw)
		admin.Post("/config/raw", s.handleConfigSetRaw)
		admin.Post("/config/test/node", s.handleTestNode)
		admin.Post("/config/test/arr", s.handleTestArr)
	})

	s.router = r
	return s
}

// ServeHTTP lets Server itself act as an http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// adminGate requires a matching X-Api-Key header when the active policy
// configures an admin key; it's a no-op otherwise.
func (s *Server) adminGate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := s.plane.Current().Policy.AdminKey
		if key == "" {
			next.ServeHTTP(w, r)
			return
		}
		if r.Header.Get("X-Api-Key") != key {
			writeError(w, http.StatusUnauthorized, &dispatcher.Unauthorized{Detail: "missing or mismatched X-Api-Key"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requestLogger is a status-code-aware logging wrapper built on chi's
// middleware.WrapResponseWriter.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
		)
	})
}
