// Package main is the entrypoint for the registro API server.
package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"regexp"
	"strings"
	"syscall"

	"github.com/cptk8s/registro/internal/audit"
	"github.com/cptk8s/registro/internal/auth"
	"github.com/cptk8s/registro/internal/cache"
	"github.com/cptk8s/registro/internal/config"
	"github.com/cptk8s/registro/internal/handler"
	"github.com/cptk8s/registro/internal/metrics"
	"github.com/cptk8s/registro/internal/middleware"
	"github.com/cptk8s/registro/internal/repository"
	"github.com/cptk8s/registro/internal/server"
	"github.com/cptk8s/registro/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	recorder := metrics.NewInMemory()

	// The codec needs no resources, so it is built before anything that
	// must be closed.
	codec, err := auth.NewTokenCodec([]byte(cfg.JWTSecret), cfg.TokenTTL)
	if err != nil {
		return err
	}

	store, err := openStore(ctx, cfg, logger, recorder)
	if err != nil {
		logger.Error(
			"failed to open store",
			slog.String("driver", cfg.DBDriver),
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		return err
	}
	logger.Info("store ready", slog.String("driver", cfg.DBDriver))

	if err := service.EnsureAdmin(ctx, store, cfg.AdminUsername, cfg.AdminPassword, logger); err != nil {
		_ = store.Close()
		return err
	}

	var (
		cacheClient *cache.Cache
		cacheCheck  handler.HealthChecker
		limiter     middleware.LoginLimiter
		auditor     service.Auditor
		publisher   *audit.Publisher
	)
	if cfg.RedisURL != "" {
		cacheClient, err = cache.New(ctx, cfg.RedisURL)
		if err != nil {
			logger.Error(
				"failed to connect to Redis",
				slog.String("error", sanitizeError(err, cfg.RedisURL)),
				slog.String("redis_url", redactURL(cfg.RedisURL)),
			)
			_ = store.Close()
			return err
		}
		logger.Info("connected to Redis")
		cacheCheck = cacheClient
		limiter = cacheClient
		publisher = audit.NewPublisher(cacheClient.Client(), logger, recorder)
		auditor = publisher
	} else if cfg.LoginRateLimitEnabled {
		logger.Warn("login rate limiting disabled: REDIS_URL not set")
	}

	authService := service.NewAuthService(store, codec, logger, recorder, auditor)
	recordService := service.NewRecordService(store, recorder, auditor)

	router := server.NewRouter(server.RouterConfig{
		Logger:  logger,
		Metrics: recorder,
		Auth:    handler.NewAuthHandler(authService, logger),
		Records: handler.NewRecordHandler(recordService, logger),
		Health:  handler.NewHealthHandler(store, cfg.DBDriver, cacheCheck),
		Export:  handler.NewMetricsHandler(recorder),
		Decoder: codec,
		RateLimit: middleware.RateLimitConfig{
			Limiter: limiter,
			Enabled: cfg.LoginRateLimitActive(),
			RPS:     cfg.LoginRateLimitRPS,
			Burst:   cfg.LoginRateLimitBurst,
		},
		TrustProxyHeaders:  cfg.TrustProxyHeaders,
		IsDevelopment:      cfg.IsDevelopment(),
		CORSAllowedOrigins: cfg.GetCORSAllowedOrigins(),
		MaxRequestBodySize: cfg.MaxRequestBodySize,
	})

	srv := server.New(router, server.Options{
		Port:            cfg.AppPort,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		IdleTimeout:     cfg.IdleTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)

	srv.OnShutdown("store", func(context.Context) error { return store.Close() })
	if cacheClient != nil {
		srv.OnShutdown("redis", func(context.Context) error { return cacheClient.Close() })
	}
	if publisher != nil {
		srv.OnShutdown("audit", publisher.Wait)
	}

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
		"driver", cfg.DBDriver,
		"insert_returning", cfg.DBInsertReturning,
		"audit", publisher != nil,
	)

	return srv.Run(ctx)
}

// openStore opens the store selected by DB_DRIVER.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger, recorder metrics.Recorder) (service.Store, error) {
	if cfg.DBDriver == config.DriverMemory {
		logger.Warn("using in-memory store; data is lost on restart")
		return repository.NewMemory(), nil
	}

	return repository.New(ctx, repository.Options{
		Driver:       cfg.DBDriver,
		URL:          cfg.DatabaseURL,
		Returning:    cfg.DBInsertReturning,
		MaxOpenConns: cfg.DBMaxOpenConns,
		Logger:       logger,
		Metrics:      recorder,
	})
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s&]+`)

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
