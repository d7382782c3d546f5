package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/cptk8s/registro/internal/model"
)

// Common errors for credential repository operations.
var (
	ErrCredentialNotFound = errors.New("credential not found")
	ErrCredentialExists   = errors.New("username already exists")
)

var credentialColumns = []string{"id", "usuario_id", "username", "password_hash"}

// GetCredentialByUsername looks up a credential by exact username match.
func (r *Repository) GetCredentialByUsername(ctx context.Context, username string) (*model.Credential, error) {
	query := r.dialect.Rebind(`
		SELECT id, usuario_id, username, password_hash
		FROM credenciales
		WHERE username = ?
	`)

	cred, err := scanCredential(r.db.QueryRowContext(ctx, query, username))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCredentialNotFound
		}
		return nil, fmt.Errorf("failed to get credential: %w", err)
	}

	return cred, nil
}

// CreateCredential stores a credential for an existing user.
func (r *Repository) CreateCredential(ctx context.Context, cred *model.Credential) (*model.Credential, error) {
	stmt := insertStmt{
		table:   "credenciales",
		columns: []string{"usuario_id", "username", "password_hash"},
		values:  []any{cred.UserID, cred.Username, cred.PasswordHash},
		fetch:   credentialColumns,
	}

	created, err := insertThenFetch(ctx, r, stmt, scanCredential)
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return nil, ErrCredentialExists
		case isForeignKeyViolation(err):
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to create credential: %w", err)
	}

	return created, nil
}

func scanCredential(row rowScanner) (*model.Credential, error) {
	var cred model.Credential
	if err := row.Scan(
		&cred.ID,
		&cred.UserID,
		&cred.Username,
		&cred.PasswordHash,
	); err != nil {
		return nil, err
	}
	return &cred, nil
}
