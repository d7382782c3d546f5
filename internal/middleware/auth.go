package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/cptk8s/registro/internal/auth"
	"github.com/cptk8s/registro/internal/metrics"
)

const bearerPrefix = "Bearer "

// Rejection reasons reported in logs and metrics.
const (
	reasonMissingHeader = "missing_header"
	reasonWrongScheme   = "wrong_scheme"
	reasonInvalidToken  = "invalid_token"
)

// TokenDecoder validates a bearer token and returns its claims.
type TokenDecoder interface {
	Decode(token string) (*auth.Claims, error)
}

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	Logger  *slog.Logger
	Decoder TokenDecoder
	Metrics metrics.Recorder
}

// Auth returns a middleware that requires a valid bearer token.
// Every rejection is the same bare 401 so callers cannot tell a missing
// header from a bad signature. On success the claims are stored in the
// request context.
func Auth(cfg AuthConfig) func(http.Handler) http.Handler {
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NewNoop()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, reason := extractBearerToken(r)
			if reason != "" {
				rejectRequest(cfg, w, r, reason, nil)
				return
			}

			claims, err := cfg.Decoder.Decode(token)
			if err != nil {
				rejectRequest(cfg, w, r, reasonInvalidToken, err)
				return
			}

			ctx := auth.ContextWithClaims(r.Context(), claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractBearerToken returns the token or the reason it could not be read.
// The scheme match is exact and case-sensitive.
func extractBearerToken(r *http.Request) (string, string) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", reasonMissingHeader
	}
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", reasonWrongScheme
	}

	token := strings.TrimPrefix(header, bearerPrefix)
	if token == "" {
		return "", reasonInvalidToken
	}
	return token, ""
}

func rejectRequest(cfg AuthConfig, w http.ResponseWriter, r *http.Request, reason string, cause error) {
	attrs := []any{
		slog.String("reason", reason),
		slog.String("ip", r.RemoteAddr),
		slog.String("endpoint", r.Method+" "+r.URL.Path),
		slog.String("request_id", GetRequestID(r.Context())),
	}
	if cause != nil {
		attrs = append(attrs, slog.String("error", cause.Error()))
	}
	cfg.Logger.Warn("authentication failed", attrs...)
	cfg.Metrics.IncAuthRejected(reason)

	w.Header().Set("WWW-Authenticate", "Bearer")
	w.WriteHeader(http.StatusUnauthorized)
}
