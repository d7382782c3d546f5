package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/cptk8s/registro/internal/model"
)

// Common errors for communication repository operations.
var (
	ErrCommunicationNotFound = errors.New("communication not found")
)

var communicationColumns = []string{"id", "fecha", "tipo", "usuario_id", "resumen"}

// CreateCommunication inserts a communication and returns the stored row,
// including the server-assigned date.
// Returns ErrUserNotFound if the engine rejects the user reference.
func (r *Repository) CreateCommunication(ctx context.Context, in model.NewCommunication) (*model.Communication, error) {
	stmt := insertStmt{
		table:   "comunicaciones",
		columns: []string{"tipo", "usuario_id", "resumen"},
		values:  []any{in.Type, in.UserID, in.Summary},
		fetch:   communicationColumns,
	}

	comm, err := insertThenFetch(ctx, r, stmt, scanCommunication)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to create communication: %w", err)
	}

	return comm, nil
}

// ListCommunications returns all communications ordered by ID.
func (r *Repository) ListCommunications(ctx context.Context) ([]*model.Communication, error) {
	query := `
		SELECT id, fecha, tipo, usuario_id, resumen
		FROM comunicaciones
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list communications: %w", err)
	}
	defer rows.Close()

	comms := make([]*model.Communication, 0)
	for rows.Next() {
		comm, err := scanCommunication(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan communication: %w", err)
		}
		comms = append(comms, comm)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating communications: %w", err)
	}

	return comms, nil
}

// DeleteCommunication removes a communication by ID.
func (r *Repository) DeleteCommunication(ctx context.Context, id int64) error {
	query := r.dialect.Rebind(`DELETE FROM comunicaciones WHERE id = ?`)

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete communication: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return ErrCommunicationNotFound
	}

	return nil
}

func scanCommunication(row rowScanner) (*model.Communication, error) {
	var (
		comm model.Communication
		date dbTime
	)
	if err := row.Scan(
		&comm.ID,
		&date,
		&comm.Type,
		&comm.UserID,
		&comm.Summary,
	); err != nil {
		return nil, err
	}
	comm.Date = date.Time
	return &comm, nil
}
