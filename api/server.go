/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:     Unique ID per request for tracing
  2. RequestLogger: Structured access logs (httplog, ECS schema)
  3. Recoverer:     Panic recovery (500 instead of crash)
  4. CleanPath:     Collapse double slashes
  5. CORS:          Cross-origin requests for the HR frontend
  6. Heartbeat:     GET /health for load balancers

ROUTE GROUPS:
  /api/periods          Pay calendar
  /api/payroll/*        Generation, edits, history
  /api/time-records/*   Time Ledger
  /api/attendance/*     Attendance hand-off
  /api/employees/*      Directory replica
  /api/leave-requests   Leave replica
  /api/scenarios/*      Demo scenarios
  /api/admin/*          Admin operations
  /metrics              Prometheus (when enabled)

SECURITY NOTE:
  No authentication middleware. The actor headers are trusted, so the
  service must sit behind a gateway that authenticates and sets them.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
)

// RouterOptions configures the ambient middleware.
type RouterOptions struct {
	// Logger receives access logs; nil disables request logging.
	Logger *slog.Logger
	// CORSOrigins defaults to local frontends when empty.
	CORSOrigins []string
	// Metrics is mounted at /metrics when non-nil.
	Metrics http.Handler
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, opts RouterOptions) *chi.Mux {
	r := chi.NewRouter()

	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:5173", "http://localhost:8080"}
	}

	// Middleware
	r.Use(middleware.RequestID)
	if opts.Logger != nil {
		r.Use(httplog.RequestLogger(opts.Logger, &httplog.Options{
			Level:  slog.LevelInfo,
			Schema: httplog.SchemaECS,
		}))
	}
	r.Use(middleware.Recoverer)
	r.Use(middleware.CleanPath)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", HeaderActorID, HeaderActorRole},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.Heartbeat("/health"))

	if opts.Metrics != nil {
		r.Handle("/metrics", opts.Metrics)
	}

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Get("/periods", h.ListPeriods)

		// Payroll routes
		r.Route("/payroll", func(r chi.Router) {
			r.Get("/", h.ListPayroll)
			r.Post("/generate", h.GeneratePayroll)
			r.Post("/preview", h.PreviewPayroll)
			r.Get("/{id}", h.GetPayroll)
			r.Patch("/{id}", h.EditPayroll)
			r.Post("/{id}/status", h.SetPayrollStatus)
			r.Get("/{id}/edits", h.ListEdits)
			r.Get("/{id}/edits/verify", h.VerifyEdits)
		})

		// Time Ledger routes
		r.Route("/time-records", func(r chi.Router) {
			r.Put("/", h.UpsertTime)
			r.Post("/bulk", h.BulkUpsertTime)
			r.Delete("/{employeeID}/{date}", h.DeleteTime)
		})
		r.Post("/attendance/completed-days", h.ReportCompletedDay)

		// Employee routes
		r.Route("/employees", func(r chi.Router) {
			r.Get("/", h.ListEmployees)
			r.Post("/", h.CreateEmployee)
			r.Get("/{id}/time-records", h.ListEmployeeTime)
		})

		// Leave routes
		r.Route("/leave-requests", func(r chi.Router) {
			r.Get("/", h.ListLeaveRequests)
			r.Post("/", h.CreateLeaveRequest)
		})

		// Admin routes
		r.Route("/admin", func(r chi.Router) {
			r.Post("/retention", h.RunRetention)
		})

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
		})
	})

	return r
}
