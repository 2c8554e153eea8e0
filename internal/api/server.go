// Package api exposes the attendance daemon over HTTP: status and
// health probes, attendance queries, event history, exports and a
// manual rescan trigger.
package api

import (
	"context"
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/attmon/attmon/internal/attendance"
	"github.com/attmon/attmon/internal/config"
	"github.com/attmon/attmon/internal/health"
	"github.com/attmon/attmon/internal/log"
	"github.com/attmon/attmon/internal/store"
	"github.com/attmon/attmon/internal/watch"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/google/uuid"
)

// Store is the read side of the attendance store the API serves from.
type Store interface {
	QueryByDate(ctx context.Context, date string) ([]attendance.Record, error)
	QueryByEmployee(ctx context.Context, employeeID string) ([]attendance.Record, error)
	Employees(ctx context.Context) ([]attendance.Employee, error)
	RecentEvents(ctx context.Context, limit int) ([]store.Event, error)
	LastIngest(ctx context.Context) (time.Time, string, error)
}

// Scanner triggers and reports on the folder monitor.
type Scanner interface {
	Stats() watch.Stats
	ScanExisting() error
}

// Server wires the HTTP surface together.
type Server struct {
	store   Store
	scanner Scanner
	healthM *health.Manager
	cfg     config.Config
}

// NewServer builds the API server. healthM may not be nil.
func NewServer(st Store, scanner Scanner, healthM *health.Manager, cfg config.Config) *Server {
	return &Server{store: st, scanner: scanner, healthM: healthM, cfg: cfg}
}

// Router builds the chi router with the canonical middleware stack:
// recoverer first, then request correlation, logging, and rate limiting.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestID)
	r.Use(log.Middleware())
	// Burst cap per second plus a sustained per-minute budget.
	r.Use(rateLimit(s.cfg.RateLimitBurst, time.Second))
	r.Use(rateLimit(s.cfg.RateLimitRPS*60, time.Minute))

	// JSON error bodies on unknown routes too, consistent with the handlers.
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSONError(w, http.StatusNotFound, "not_found", "no such route")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed for this route")
	})

	r.Get("/healthz", s.healthM.ServeHealth)
	r.Get("/readyz", s.healthM.ServeReady)

	r.Route("/api", func(r chi.Router) {
		if s.cfg.APIToken != "" {
			r.Use(bearerAuth(s.cfg.APIToken))
		}
		r.Get("/status", s.handleStatus)
		r.Get("/attendance", s.handleAttendanceByDate)
		r.Get("/attendance/employee/{id}", s.handleAttendanceByEmployee)
		r.Get("/employees", s.handleEmployees)
		r.Get("/events", s.handleEvents)
		r.Get("/export", s.handleExport)
		r.Post("/scan", s.handleScan)
	})

	return r
}

func rateLimit(limit int, window time.Duration) func(http.Handler) http.Handler {
	return httprate.Limit(
		limit,
		window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			writeJSONError(w, http.StatusTooManyRequests, "rate_limit_exceeded", "too many requests")
		}),
	)
}

// requestID attaches a correlation id to the request context so handler
// logs and access logs line up.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(log.ContextWithRequestID(r.Context(), id)))
	})
}

// bearerAuth enforces a static bearer token on the /api subtree.
func bearerAuth(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get("Authorization")
			if subtle.ConstantTimeCompare([]byte(got), []byte("Bearer "+token)) != 1 {
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "missing or invalid token")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
