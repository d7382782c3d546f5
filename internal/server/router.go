package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/cptk8s/registro/internal/handler"
	"github.com/cptk8s/registro/internal/metrics"
	"github.com/cptk8s/registro/internal/middleware"
)

// RouterConfig carries everything the router wires together.
type RouterConfig struct {
	Logger  *slog.Logger
	Metrics metrics.Recorder

	Auth    *handler.AuthHandler
	Records *handler.RecordHandler
	Health  *handler.HealthHandler
	Export  *handler.MetricsHandler

	// Decoder validates bearer tokens on the protected routes.
	Decoder middleware.TokenDecoder

	// RateLimit throttles POST /login. Disabled unless Enabled and Limiter are set.
	RateLimit middleware.RateLimitConfig

	// TrustProxyHeaders resolves the client address from X-Forwarded-For /
	// X-Real-IP. Off, the login throttle keys on the socket address.
	TrustProxyHeaders bool

	IsDevelopment      bool
	CORSAllowedOrigins []string
	MaxRequestBodySize int64
}

// NewRouter builds the HTTP routes.
// Login and the operational endpoints are public; everything else sits
// behind the bearer-token guard.
func NewRouter(cfg RouterConfig) http.Handler {
	h := handler.New()
	r := chi.NewRouter()

	// Global middleware
	if cfg.TrustProxyHeaders {
		r.Use(chimiddleware.RealIP)
	}
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recoverer(cfg.Logger))
	r.Use(middleware.Security(middleware.SecurityConfig{IsDevelopment: cfg.IsDevelopment}))

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.CORSAllowedOrigins
	r.Use(middleware.CORS(corsCfg))
	r.Use(middleware.MaxBodySize(cfg.MaxRequestBodySize))

	// Operational endpoints
	r.Get("/healthz", cfg.Health.Healthz)
	r.Get("/readyz", cfg.Health.Readyz)
	r.Get("/metrics", cfg.Export.Metrics)
	r.Get("/api-docs/openapi.json", handler.OpenAPI)

	rateLimitCfg := cfg.RateLimit
	rateLimitCfg.Logger = cfg.Logger
	r.With(middleware.RateLimitLogin(rateLimitCfg)).Post("/login", cfg.Auth.Login)

	authCfg := middleware.AuthConfig{
		Logger:  cfg.Logger,
		Decoder: cfg.Decoder,
		Metrics: cfg.Metrics,
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(authCfg))

		r.Route("/users", func(r chi.Router) {
			r.Get("/", cfg.Records.ListUsers)
			r.Post("/", cfg.Records.CreateUser)
			r.Delete("/{id}", cfg.Records.DeleteUser)
		})

		r.Route("/comunicaciones", func(r chi.Router) {
			r.Get("/", cfg.Records.ListCommunications)
			r.Post("/", cfg.Records.CreateCommunication)
			r.Delete("/{id}", cfg.Records.DeleteCommunication)
		})
	})

	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)

	return r
}
