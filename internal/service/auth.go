package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/oklog/ulid/v2"

	"github.com/cptk8s/registro/internal/audit"
	"github.com/cptk8s/registro/internal/auth"
	"github.com/cptk8s/registro/internal/metrics"
	"github.com/cptk8s/registro/internal/repository"
)

// TokenEncoder mints bearer tokens for an authenticated subject.
type TokenEncoder interface {
	Encode(subject string) (string, error)
}

// AuthService verifies credentials and issues tokens.
type AuthService struct {
	store   Store
	tokens  TokenEncoder
	logger  *slog.Logger
	metrics metrics.Recorder
	audit   Auditor

	// dummyHash is verified when the username is unknown so both failure
	// paths cost one hash computation.
	dummyHash string
}

// NewAuthService creates a new AuthService.
func NewAuthService(store Store, tokens TokenEncoder, logger *slog.Logger, recorder metrics.Recorder, auditor Auditor) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if auditor == nil {
		auditor = noopAuditor{}
	}

	dummy, err := auth.HashPassword(ulid.Make().String())
	if err != nil {
		logger.Warn("failed to prepare dummy password hash", slog.String("error", err.Error()))
	}

	return &AuthService{
		store:     store,
		tokens:    tokens,
		logger:    logger,
		metrics:   recorder,
		audit:     auditor,
		dummyHash: dummy,
	}
}

// Login checks username and password and returns a signed token.
// An unknown username and a wrong password both return ErrUnauthorized.
// An unreadable stored hash is an internal error.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, error) {
	const op = "login"

	cred, err := s.store.GetCredentialByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrCredentialNotFound) {
			if s.dummyHash != "" {
				_, _ = auth.VerifyPassword(password, s.dummyHash)
			}
			s.rejectLogin(ctx, username, "unknown_user")
			return "", newError(ErrUnauthorized, op, err)
		}
		s.logger.Error("credential lookup failed",
			slog.String("username", username),
			slog.String("error", err.Error()),
		)
		return "", newError(ErrInternal, op, err)
	}

	match, err := auth.VerifyPassword(password, cred.PasswordHash)
	if err != nil {
		s.logger.Error("stored password hash is unusable",
			slog.Int64("credential_id", cred.ID),
			slog.String("error", err.Error()),
		)
		return "", newError(ErrInternal, op, err)
	}
	if !match {
		s.rejectLogin(ctx, username, "bad_password")
		return "", newError(ErrUnauthorized, op, nil)
	}

	token, err := s.tokens.Encode(username)
	if err != nil {
		s.logger.Error("token encoding failed",
			slog.String("username", username),
			slog.String("error", err.Error()),
		)
		return "", newError(ErrInternal, op, err)
	}

	s.metrics.IncLoginSucceeded()
	s.audit.Record(ctx, audit.ActionLoginSucceeded, username, cred.UserID)
	s.logger.Info("login succeeded",
		slog.String("username", username),
		slog.Int64("user_id", cred.UserID),
	)

	return token, nil
}

func (s *AuthService) rejectLogin(ctx context.Context, username, reason string) {
	s.metrics.IncLoginFailed()
	s.audit.Record(ctx, audit.ActionLoginFailed, username, 0)
	s.logger.Warn("login failed",
		slog.String("reason", reason),
		slog.String("username", username),
	)
}
