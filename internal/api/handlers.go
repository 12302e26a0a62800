// Package api provides HTTP handlers for the PatchMe dashboard and the
// agent ingest endpoint.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/a-h/templ"
	"github.com/go-playground/validator/v10"
	"github.com/patchme-dev/patchme/internal/ingest"
	"github.com/patchme-dev/patchme/internal/ratelimit"
	"github.com/patchme-dev/patchme/internal/status"
	"github.com/patchme-dev/patchme/internal/store"
	"github.com/patchme-dev/patchme/templates"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/patchme-dev/patchme/docs/swagger"
)

// Server is the HTTP server for PatchMe.
type Server struct {
	store    *store.Store
	limiter  *ratelimit.Limiter
	pipeline *ingest.Pipeline
	validate *validator.Validate

	maxBodyBytes int64
	mux          *http.ServeMux
	server       *http.Server
	started      time.Time
}

// NewServer creates a new HTTP server.
func NewServer(addr string, st *store.Store, limiter *ratelimit.Limiter, pipe *ingest.Pipeline, maxBodyBytes int64) *Server {
	srv := &Server{
		store:        st,
		limiter:      limiter,
		pipeline:     pipe,
		validate:     validator.New(validator.WithRequiredStructEnabled()),
		maxBodyBytes: maxBodyBytes,
		mux:          http.NewServeMux(),
		started:      time.Now(),
	}

	srv.registerRoutes()

	srv.server = &http.Server{
		Addr:         addr,
		Handler:      SecurityHeadersMiddleware(RecoveryMiddleware(LoggingMiddleware(srv.mux))),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return srv
}

// Run starts the HTTP server. It blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	slog.Info("HTTP server starting", "addr", s.server.Addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		slog.Info("HTTP server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) registerRoutes() {
	// Agent ingest; authenticated by API key, never by session
	s.mux.HandleFunc("POST /api/ingest", s.handleIngest)

	// Session management
	s.mux.HandleFunc("POST /api/login", s.handleLogin)
	s.mux.HandleFunc("POST /api/logout", s.handleLogout)

	// Pages
	s.mux.HandleFunc("GET /", s.requirePage(s.handleDashboard))
	s.mux.HandleFunc("GET /login", s.handleLoginPage)

	// Session-guarded JSON API
	s.mux.HandleFunc("GET /api/systems", s.requireSession(s.handleListSystems))
	s.mux.HandleFunc("POST /api/systems", s.requireSession(s.handleCreateSystem))
	s.mux.HandleFunc("PUT /api/systems/{id}", s.requireSession(s.handleUpdateSystem))
	s.mux.HandleFunc("DELETE /api/systems/{id}", s.requireSession(s.handleDeleteSystem))
	s.mux.HandleFunc("POST /api/systems/{id}/rotate-key", s.requireSession(s.handleRotateKey))
	s.mux.HandleFunc("GET /api/systems/counts", s.requireSession(s.handleStatusCounts))

	s.mux.HandleFunc("GET /api/baselines", s.requireSession(s.handleListBaselines))
	s.mux.HandleFunc("POST /api/baselines", s.requireSession(s.handleCreateBaseline))
	s.mux.HandleFunc("PUT /api/baselines/{id}", s.requireSession(s.handleUpdateBaseline))
	s.mux.HandleFunc("DELETE /api/baselines/{id}", s.requireSession(s.handleDeleteBaseline))

	s.mux.HandleFunc("GET /api/tags", s.requireSession(s.handleListTags))
	s.mux.HandleFunc("POST /api/tags", s.requireSession(s.handleCreateTag))
	s.mux.HandleFunc("PUT /api/tags/{id}", s.requireSession(s.handleUpdateTag))
	s.mux.HandleFunc("DELETE /api/tags/{id}", s.requireSession(s.handleDeleteTag))

	s.mux.HandleFunc("GET /api/users", s.requireSession(s.handleListUsers))
	s.mux.HandleFunc("POST /api/users", s.requireSession(s.handleCreateUser))
	s.mux.HandleFunc("PUT /api/users/{id}", s.requireSession(s.handleUpdateUser))
	s.mux.HandleFunc("DELETE /api/users/{id}", s.requireSession(s.handleDeleteUser))

	s.mux.HandleFunc("GET /api/activitylog", s.requireSession(s.handleListActivity))

	// Health check
	s.mux.HandleFunc("GET /healthz", s.handleHealthz)

	// Prometheus metrics
	s.mux.Handle("GET /metrics", promhttp.Handler())

	// Swagger UI
	s.mux.Handle("GET /swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
}

// renderHTML renders a templ component to a buffer first, then writes the
// buffer to the response. This ensures rendering errors can be returned as a
// proper 500 before any bytes reach the client.
func renderHTML(w http.ResponseWriter, r *http.Request, component templ.Component) {
	var buf bytes.Buffer
	if err := component.Render(r.Context(), &buf); err != nil {
		slog.Error("rendering component", "path", r.URL.Path, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := buf.WriteTo(w); err != nil {
		// Client disconnected after headers were sent, nothing to recover.
		slog.Debug("writing HTML response", "path", r.URL.Path, "error", err)
	}
}

// writeJSON marshals v to JSON into a buffer first, then writes it to the
// response. This ensures marshalling errors can be returned as a proper 500.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("encoding JSON response", "path", r.URL.Path, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		slog.Debug("writing JSON response", "path", r.URL.Path, "error", err)
	}
}

// writeError writes a JSON error body with the given status.
func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, map[string]string{"error": msg})
}

// decodeBody decodes and validates a JSON request body into dst. Validation
// failures report the number of violated fields, never their values.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	defer r.Body.Close()
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		fields := 1
		if errors.As(err, &verrs) {
			fields = len(verrs)
		}
		writeJSON(w, r, http.StatusBadRequest, map[string]any{
			"error":         "validation failed",
			"invalidFields": fields,
		})
		return false
	}
	return true
}

// @Summary Dashboard page
// @Description Full HTML dashboard page with status counts and systems table
// @Produce html
// @Success 200 {string} string "HTML page"
// @Router / [get]
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	systems, err := s.store.GetSystems(r.Context())
	if err != nil {
		slog.Error("loading systems", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	baselines, err := s.store.GetBaselines(r.Context())
	if err != nil {
		slog.Error("loading baselines", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	renderHTML(w, r, templates.Dashboard(systems, baselines, status.Counts(systems, baselines)))
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	renderHTML(w, r, templates.Login())
}

// @Summary Health check
// @Description Returns service health status and uptime
// @Produce json
// @Success 200 {object} map[string]interface{} "Health status"
// @Router /healthz [get]
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Unix(),
		"uptime":    int(time.Since(s.started).Seconds()),
	})
}
