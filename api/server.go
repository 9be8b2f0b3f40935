/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the chi router, the middleware stack and the route table.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request, echoed in logs
  2. RealIP:     Client address from X-Forwarded-For / X-Real-IP
  3. Logger:     One logrus entry per request
  4. Recoverer:  Panic recovery (500 instead of crash)
  5. CORS:       Cross-origin requests for the frontend
  6. RateLimit:  Token bucket per client IP (429 when exhausted)

TENANCY:
  Everything under /api except /api/organizations and /api/scenarios
  requires the X-Organization-ID header naming an existing organization.
  The organization is put on the request context for the service.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/peopledear: Server startup
*/
package api

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/peopledear/peopledear/generic"
)

// OrganizationHeader carries the tenant of every scoped request.
const OrganizationHeader = "X-Organization-ID"

// RouterOptions tunes the middleware. A zero RateLimit disables limiting.
type RouterOptions struct {
	AllowedOrigins []string
	RateLimit      float64
	RateBurst      int
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, opts RouterOptions) *chi.Mux {
	r := chi.NewRouter()

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(h.logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", OrganizationHeader},
		ExposedHeaders: []string{middleware.RequestIDHeader},
		MaxAge:         300,
	}))
	if opts.RateLimit > 0 {
		r.Use(newIPLimiter(opts.RateLimit, opts.RateBurst).middleware)
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/organizations", func(r chi.Router) {
			r.Get("/", h.ListOrganizations)
			r.Post("/", h.CreateOrganization)
		})

		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Post("/load", h.LoadScenario)
		})

		r.Group(func(r chi.Router) {
			r.Use(h.tenant)

			r.Route("/employees", func(r chi.Router) {
				r.Get("/", h.ListEmployees)
				r.Post("/", h.CreateEmployee)
				r.Get("/{id}", h.GetEmployee)
				r.Get("/{id}/requests", h.ListEmployeeRequests)
				r.Get("/{id}/balance", h.GetBalance)
				r.Put("/{id}/balance/{year}", h.SetBalance)
			})

			r.Route("/time-off-types", func(r chi.Router) {
				r.Get("/", h.ListTimeOffTypes)
				r.Post("/", h.SaveTimeOffType)
				r.Post("/catalog", h.InstallCatalog)
			})

			r.Route("/requests", func(r chi.Router) {
				r.Post("/", h.CreateRequest)
				r.Get("/{id}", h.GetRequest)
			})

			r.Route("/approvals", func(r chi.Router) {
				r.Get("/", h.ListApprovals)
				r.Get("/{id}", h.GetApproval)
				r.Post("/{id}/approve", h.Approve)
				r.Post("/{id}/reject", h.Reject)
				r.Post("/{id}/cancel", h.Cancel)
			})

			r.Route("/periods", func(r chi.Router) {
				r.Get("/", h.ListPeriods)
				r.Post("/", h.CreatePeriod)
				r.Post("/{year}/balances", h.OpenBalances)
				r.Get("/{year}/balances", h.ListBalances)
			})

			r.Route("/holidays", func(r chi.Router) {
				r.Get("/", h.ListHolidays)
				r.Post("/", h.CreateHoliday)
				r.Delete("/{id}", h.DeleteHoliday)
			})

			r.Get("/audit", h.QueryAudit)
		})
	})

	return r
}

// tenant resolves X-Organization-ID and puts it on the context.
func (h *Handler) tenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := generic.OrganizationID(r.Header.Get(OrganizationHeader))
		if id == "" {
			writeError(w, h.logger, generic.ErrMissingOrganization)
			return
		}
		if _, err := h.svc.GetOrganization(r.Context(), id); err != nil {
			writeError(w, h.logger, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(generic.WithOrganization(r.Context(), id)))
	})
}

// =============================================================================
// MIDDLEWARE
// =============================================================================

func requestLogger(logger log.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				latency := time.Since(start)
				entry := logger.WithFields(log.Fields{
					"method":        r.Method,
					"path":          r.URL.Path,
					"remote_ip":     r.RemoteAddr,
					"status":        ww.Status(),
					"bytes_out":     ww.BytesWritten(),
					"latency_human": latency.String(),
					"request_id":    middleware.GetReqID(r.Context()),
					"organization":  r.Header.Get(OrganizationHeader),
				})
				if ww.Status() >= http.StatusInternalServerError {
					entry.Warn("http request")
					return
				}
				entry.Info("http request")
			}()
			next.ServeHTTP(ww, r)
		})
	}
}

// ipLimiter keeps one token bucket per client address.
type ipLimiter struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	limiters map[string]*rate.Limiter
}

func newIPLimiter(perSecond float64, burst int) *ipLimiter {
	if burst <= 0 {
		burst = int(perSecond) + 1
	}
	return &ipLimiter{limit: rate.Limit(perSecond), burst: burst, limiters: make(map[string]*rate.Limiter)}
}

func (l *ipLimiter) get(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	lim, ok := l.limiters[key]
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.limiters[key] = lim
	}
	return lim
}

func (l *ipLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}
		if !l.get(host).Allow() {
			w.Header().Set("Retry-After", "1")
			writeJSON(w, http.StatusTooManyRequests, ErrorResponse{Error: "rate limit exceeded"})
			return
		}
		next.ServeHTTP(w, r)
	})
}
