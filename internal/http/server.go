package http

import (
	"context"
	"fmt"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"orca/internal/log"
	"orca/internal/middleware/ratelimit"
	"orca/internal/middleware/security"
	"orca/internal/middleware/trace"
	"orca/internal/services"
	"orca/internal/state"
	appweb "orca/web"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators the server renders from.
type Deps struct {
	Registry  *state.Registry
	Dashboard *services.DashboardService
	Export    *services.ExportService
	Chart     *services.ChartService
	API       Pinger
	Prefs     Pinger
	Logger    *log.Logger

	// Templates and Static default to the embedded web assets.
	Templates fs.FS
	Static    fs.FS
}

type Options struct {
	Addr           string
	AllowedOrigins []string
	CookieSecure   bool
	RateLimit      ratelimit.Config
	ReadyTimeout   time.Duration
}

type Server struct {
	http.Server

	deps      Deps
	opts      Options
	logger    *log.Logger
	events    *log.StructuredLogger
	templates *renderer
	started   time.Time

	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware
	metrics          *prometheus.Registry

	shutdownOnce sync.Once
}

func NewServer(opts Options, deps Deps) (*Server, error) {
	if deps.Logger == nil {
		deps.Logger = log.Discard()
	}
	if deps.Templates == nil {
		deps.Templates = appweb.TemplatesFS
	}
	if deps.Static == nil {
		deps.Static = appweb.StaticFS
	}
	if opts.ReadyTimeout <= 0 {
		opts.ReadyTimeout = 2 * time.Second
	}
	if opts.RateLimit.RequestsPerSecond <= 0 {
		opts.RateLimit = ratelimit.DefaultConfig()
	}

	templates, err := newRenderer(deps.Templates)
	if err != nil {
		return nil, err
	}

	logger := deps.Logger.WithComponent(log.ComponentHTTP)
	s := &Server{
		Server: http.Server{
			Addr:              opts.Addr,
			ReadHeaderTimeout: 10 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		deps:             deps,
		opts:             opts,
		logger:           logger,
		events:           log.NewStructuredLogger(deps.Logger),
		templates:        templates,
		started:          time.Now(),
		rateLimiter:      ratelimit.NewLimiter(opts.RateLimit),
		securityDetector: security.NewDetector(),
		metrics:          prometheus.NewRegistry(),
	}
	s.traceMiddleware = trace.NewMiddleware(deps.Logger, s.securityDetector.ExtractClientIP, s.metrics)
	s.registerMetrics()

	router, err := s.routes()
	if err != nil {
		return nil, err
	}
	s.Handler = router
	return s, nil
}

// registerMetrics exposes the limiter, detector and session counts next to
// the request collectors. Each server owns its registry.
func (s *Server) registerMetrics() {
	s.metrics.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "rate_limit_hits_total",
			Help: "Requests rejected by the rate limiter.",
		}, func() float64 { return float64(s.rateLimiter.GetMetrics().TotalHits) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "rate_limit_clients",
			Help: "Clients tracked by the rate limiter.",
		}, func() float64 { return float64(s.rateLimiter.ActiveClients()) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "suspicious_requests_total",
			Help: "Requests flagged as suspicious.",
		}, func() float64 { return float64(s.securityDetector.GetMetrics().SuspiciousRequests) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "sessions_active",
			Help: "Workspaces held in memory.",
		}, func() float64 { return float64(s.deps.Registry.Len()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "uptime_seconds",
			Help: "Seconds since start.",
		}, func() float64 { return time.Since(s.started).Seconds() }),
	)
}

func (s *Server) routes() (http.Handler, error) {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(log.Middleware(s.deps.Logger, trace.GetRequestID))
	r.Use(s.traceMiddleware.Middleware)
	r.Use(middleware.Recoverer)
	r.Use(s.securityDetector.Middleware(s.deps.Logger))
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.metrics, promhttp.HandlerOpts{}))

	static, err := fs.Sub(s.deps.Static, "static")
	if err != nil {
		return nil, fmt.Errorf("mount static assets: %w", err)
	}
	r.With(security.StaticAssetMiddleware(3600)).
		Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))

	r.Group(func(r chi.Router) {
		r.Use(middleware.Compress(5))
		r.Use(s.sessionMiddleware)
		r.Use(s.rateLimiter.Middleware(s.securityDetector.ExtractClientIP, s.onRateLimited))
		r.Use(security.NoStore)

		r.Get("/", s.handleDashboardPage)
		r.Get("/accounts", s.handleAccountsPage)
		r.Get("/categories", s.handleCategoriesPage)
		r.Get("/envelopes", s.handleEnvelopesPage)
		r.Get("/goals", s.handleGoalsPage)
		r.Get("/budgets", s.handleBudgetsPage)

		r.Route("/ui", func(r chi.Router) {
			r.Get("/dashboard", s.handleDashboardPartial)
			r.Get("/accounts", s.handleAccountsPartial)
			r.Get("/categories", s.handleCategoriesPartial)
			r.Get("/envelopes", s.handleEnvelopesPartial)
			r.Get("/goals", s.handleGoalsPartial)
		})

		r.Post("/budgets/select", s.handleSelectBudget)

		r.Post("/accounts", s.handleCreateAccount)
		r.Post("/accounts/{id}", s.handleUpdateAccount)
		r.Post("/accounts/{id}/delete", s.handleDeleteAccount)
		r.Post("/accounts/transfer", s.handleTransfer)
		r.Post("/accounts/reconcile", s.handleReconcile)

		r.Post("/categories", s.handleCreateCategory)
		r.Post("/categories/{id}", s.handleUpdateCategory)
		r.Post("/categories/{id}/delete", s.handleDeleteCategory)

		r.Post("/envelopes", s.handleCreateEnvelope)
		r.Post("/envelopes/{id}", s.handleUpdateEnvelope)
		r.Post("/envelopes/{id}/delete", s.handleDeleteEnvelope)

		r.Post("/goals", s.handleCreateGoal)
		r.Post("/goals/{id}", s.handleUpdateGoal)
		r.Post("/goals/{id}/delete", s.handleDeleteGoal)
		r.Post("/goals/{id}/add-amount", s.handleAddGoalAmount)
		r.Post("/goals/{id}/remove-amount", s.handleRemoveGoalAmount)

		r.Get("/exports/budget.xlsx", s.handleExportWorkbook)
		r.Get("/charts/envelopes.png", s.handleEnvelopeChart)

		r.Route("/api/v1", func(r chi.Router) {
			r.Use(cors.Handler(cors.Options{
				AllowedOrigins:   s.opts.AllowedOrigins,
				AllowedMethods:   []string{http.MethodGet, http.MethodOptions},
				AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
				ExposedHeaders:   []string{"X-Request-ID"},
				AllowCredentials: true,
				MaxAge:           300,
			}))
			r.Get("/dashboard", s.handleDashboardJSON)
			r.Get("/health-indicators", s.handleHealthIndicatorsJSON)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusNotFound, "Página não encontrada.").Write(w)
	})
	return r, nil
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	s.logger.WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.securityDetector.ExtractClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	w.Header().Set("Retry-After", "1")
	ErrorResponse(http.StatusTooManyRequests, "Muitas requisições. Aguarde um instante e tente novamente.").Write(w)
}

// Shutdown stops the rate limiter cleanup and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}
