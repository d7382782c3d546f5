package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/cptk8s/registro/internal/model"
)

// Common errors for user repository operations.
var (
	ErrUserNotFound = errors.New("user not found")
)

var userColumns = []string{"id", "nombre", "apellidos", "telefono", "direccion"}

// CreateUser inserts a user and returns the stored row.
func (r *Repository) CreateUser(ctx context.Context, in model.NewUser) (*model.User, error) {
	stmt := insertStmt{
		table:   "usuarios",
		columns: []string{"nombre", "apellidos", "telefono", "direccion"},
		values:  []any{in.Name, in.Surname, in.Phone, in.Address},
		fetch:   userColumns,
	}

	user, err := insertThenFetch(ctx, r, stmt, scanUser)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// ListUsers returns all users ordered by ID.
func (r *Repository) ListUsers(ctx context.Context) ([]*model.User, error) {
	query := `
		SELECT id, nombre, apellidos, telefono, direccion
		FROM usuarios
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := make([]*model.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return users, nil
}

// UserExists reports whether a user with the given ID exists.
func (r *Repository) UserExists(ctx context.Context, id int64) (bool, error) {
	query := r.dialect.Rebind(`SELECT EXISTS (SELECT 1 FROM usuarios WHERE id = ?)`)

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check user existence: %w", err)
	}

	return exists, nil
}

// DeleteUser removes a user. Their communications and credentials are
// removed by the cascading foreign keys.
func (r *Repository) DeleteUser(ctx context.Context, id int64) error {
	query := r.dialect.Rebind(`DELETE FROM usuarios WHERE id = ?`)

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return ErrUserNotFound
	}

	return nil
}

func scanUser(row rowScanner) (*model.User, error) {
	var user model.User
	if err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Surname,
		&user.Phone,
		&user.Address,
	); err != nil {
		return nil, err
	}
	return &user, nil
}
