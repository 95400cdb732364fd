package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"fintrack/internal/auth"
	"fintrack/internal/core"
	"fintrack/internal/insights"
	"fintrack/internal/log"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/security"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/shopspring/decimal"
)

// Ports used by the handlers; implemented by the services package.
type (
	TransactionAPI interface {
		Create(ctx context.Context, ownerID string, t core.Transaction) (core.Transaction, error)
		Get(ctx context.Context, ownerID, id string) (core.Transaction, error)
		List(ctx context.Context, ownerID string, f core.TransactionFilter) ([]core.Transaction, error)
		Update(ctx context.Context, ownerID, id string, patch core.TransactionPatch) (core.Transaction, error)
		Delete(ctx context.Context, ownerID, id string) error
	}

	ChallengeAPI interface {
		Create(ctx context.Context, ownerID string, in core.Challenge) (core.Challenge, error)
		List(ctx context.Context, ownerID string) ([]core.Challenge, error)
		Get(ctx context.Context, ownerID, id string) (services.ChallengeDetail, error)
		Delete(ctx context.Context, ownerID, id string) error
		UpdateProgress(ctx context.Context, ownerID, id string, amount decimal.Decimal) (core.Challenge, error)
		Badges(ctx context.Context, ownerID string) ([]core.Badge, error)
	}

	InsightAPI interface {
		Spending(ctx context.Context, ownerID string, days, top int) (insights.Spending, error)
		Monthly(ctx context.Context, ownerID string) (insights.MonthlySeries, error)
		Patterns(ctx context.Context, ownerID string) (insights.Analysis, error)
	}

	SettingsAPI interface {
		Get(ctx context.Context, ownerID string) (core.Settings, error)
		Update(ctx context.Context, ownerID string, patch core.SettingsPatch) (core.Settings, error)
	}

	Pinger interface {
		Ping(ctx context.Context) error
	}
)

// Services bundles the handler dependencies.
type Services struct {
	Transactions TransactionAPI
	Challenges   ChallengeAPI
	Insights     InsightAPI
	Settings     SettingsAPI
	Store        Pinger
}

// Options configures the HTTP surface.
type Options struct {
	Addr               string
	Verifier           *auth.Verifier
	Logger             *log.Logger
	AllowedOrigins     []string
	RateLimitPerMinute int
	TrustedProxies     []string
}

type appMetrics struct {
	uptime time.Time
}

type Server struct {
	http.Server
	svc Services

	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware
	appMetrics       appMetrics

	shutdownOnce sync.Once
}

// NewServer wires the middleware chain and routes, returning a ready-to-run http.Server.
func NewServer(opts Options, svc Services) (*Server, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}

	detector, err := security.NewDetector(opts.TrustedProxies...)
	if err != nil {
		return nil, err
	}

	s := &Server{
		svc:              svc,
		securityDetector: detector,
		rateLimiter:      ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		traceMiddleware:  trace.NewMiddleware(logger, detector.ExtractClientIP),
		appMetrics:       appMetrics{uptime: time.Now()},
	}

	r := chi.NewRouter()
	r.Use(s.traceMiddleware.Middleware)
	r.Use(middleware.Recoverer)
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	r.Use(detector.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", trace.RequestIDHeader},
		ExposedHeaders:   []string{trace.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		NotFoundError("Route not found").Write(w)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusMethodNotAllowed, "Method not allowed").Write(w)
	})

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", s.handleMetrics)

	r.Group(func(api chi.Router) {
		api.Use(s.rateLimiter.Middleware(detector.ExtractClientIP, nil))
		api.Use(auth.Middleware(opts.Verifier))

		api.Route("/transactions", func(tr chi.Router) {
			tr.Use(log.ComponentMiddleware(log.ComponentTransactions))
			tr.Get("/", s.handleListTransactions)
			tr.Post("/", s.handleCreateTransaction)
			tr.Get("/{id}", s.handleGetTransaction)
			tr.Put("/{id}", s.handleUpdateTransaction)
			tr.Delete("/{id}", s.handleDeleteTransaction)
		})

		api.Route("/rewards", func(rw chi.Router) {
			rw.Use(log.ComponentMiddleware(log.ComponentRewards))
			rw.Get("/badges", s.handleListBadges)
			rw.Get("/challenges", s.handleListChallenges)
			rw.Post("/challenges", s.handleCreateChallenge)
			rw.Get("/challenges/{id}", s.handleGetChallenge)
			rw.Delete("/challenges/{id}", s.handleDeleteChallenge)
			rw.Patch("/challenges/{id}/progress", s.handleUpdateProgress)
		})

		api.Route("/insights", func(in chi.Router) {
			in.Use(log.ComponentMiddleware(log.ComponentInsights))
			in.Get("/spending", s.handleSpendingInsights)
			in.Get("/monthly", s.handleMonthlyInsights)
			in.Get("/patterns", s.handlePatternInsights)
		})

		api.Route("/settings", func(st chi.Router) {
			st.Use(log.ComponentMiddleware(log.ComponentSettings))
			st.Get("/", s.handleGetSettings)
			st.Put("/", s.handleUpdateSettings)
		})
	})

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s, nil
}

// Shutdown gracefully shuts down the server and its background routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
