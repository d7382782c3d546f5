package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cptk8s/registro/internal/auth"
	"github.com/cptk8s/registro/internal/model"
	"github.com/cptk8s/registro/internal/repository"
)

// adminPlaceholder is the user record that owns the bootstrapped credential.
var adminPlaceholder = model.NewUser{
	Name:    "Administrador",
	Surname: "Sistema",
	Phone:   "-",
	Address: "-",
}

// EnsureAdmin creates the administrative credential and its placeholder user
// when no credential named username exists yet. The password is meant to be
// changed by operators after the first start.
func EnsureAdmin(ctx context.Context, store Store, username, password string, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	_, err := store.GetCredentialByUsername(ctx, username)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repository.ErrCredentialNotFound) {
		return fmt.Errorf("look up admin credential: %w", err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	user, err := store.CreateUser(ctx, adminPlaceholder)
	if err != nil {
		return fmt.Errorf("create admin user: %w", err)
	}

	_, err = store.CreateCredential(ctx, &model.Credential{
		UserID:       user.ID,
		Username:     username,
		PasswordHash: hash,
	})
	if err != nil {
		if derr := store.DeleteUser(ctx, user.ID); derr != nil {
			logger.Error("failed to remove placeholder admin user",
				slog.Int64("user_id", user.ID),
				slog.String("error", derr.Error()),
			)
		}
		// Another instance bootstrapped first.
		if errors.Is(err, repository.ErrCredentialExists) {
			return nil
		}
		return fmt.Errorf("create admin credential: %w", err)
	}

	logger.Warn("bootstrapped admin credential with the default password, change it",
		slog.String("username", username),
		slog.Int64("user_id", user.ID),
	)

	return nil
}
