package repository

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Insert fallback stages reported to metrics.
const (
	fallbackPinned = "pinned_insert"
	fallbackMaxID  = "max_id"
)

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// insertStmt describes a single-row insert into a table whose primary key
// column is "id" and is assigned by the engine.
type insertStmt struct {
	table   string
	columns []string
	values  []any
	// fetch lists the columns read back, in scan order.
	fetch []string
}

func (s insertStmt) insertSQL(d Dialect) string {
	cols := make([]string, len(s.columns))
	marks := make([]string, len(s.columns))
	for i, c := range s.columns {
		cols[i] = quoteIdent(c)
		marks[i] = "?"
	}
	return d.Rebind(fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(s.table), strings.Join(cols, ", "), strings.Join(marks, ", ")))
}

func (s insertStmt) returningSQL(d Dialect) string {
	return s.insertSQL(d) + " RETURNING " + s.fetchList()
}

func (s insertStmt) byLastIDSQL(d Dialect) string {
	return fmt.Sprintf("SELECT %s FROM %s WHERE id = %s",
		s.fetchList(), quoteIdent(s.table), d.lastInsertID)
}

// byValuesSQL selects the newest row whose client-supplied columns equal the
// inserted values. It is only a best-effort recovery: a concurrent insert of an
// identical row may be returned instead.
func (s insertStmt) byValuesSQL(d Dialect) string {
	conds := make([]string, len(s.columns))
	for i, c := range s.columns {
		conds[i] = quoteIdent(c) + " = ?"
	}
	return d.Rebind(fmt.Sprintf("SELECT %s FROM %s WHERE %s ORDER BY id DESC LIMIT 1",
		s.fetchList(), quoteIdent(s.table), strings.Join(conds, " AND ")))
}

func (s insertStmt) fetchList() string {
	cols := make([]string, len(s.fetch))
	for i, c := range s.fetch {
		cols[i] = quoteIdent(c)
	}
	return strings.Join(cols, ", ")
}

// insertThenFetch inserts one row and returns it fully materialized, including
// server-assigned columns.
//
// It first tries INSERT ... RETURNING. If the dialect has returning disabled or
// the statement fails, it pins a single connection, repeats the insert as a
// plain statement and reads the row back by the connection-scoped last insert
// id. If that lookup fails too, the newest row matching the inserted values is
// used. The pinned connection is always returned to the pool.
func insertThenFetch[T any](ctx context.Context, r *Repository, stmt insertStmt, scan func(rowScanner) (T, error)) (T, error) {
	var zero T

	if r.dialect.Returning {
		row, err := scan(r.db.QueryRowContext(ctx, stmt.returningSQL(r.dialect), stmt.values...))
		if err == nil {
			return row, nil
		}
		// A constraint violation would fail the plain insert identically.
		if isUniqueViolation(err) || isForeignKeyViolation(err) {
			return zero, fmt.Errorf("insert %s: %w", stmt.table, err)
		}
		r.logger.Warn("insert returning failed, using pinned connection",
			slog.String("table", stmt.table),
			slog.String("dialect", r.dialect.Name),
			slog.String("error", err.Error()),
		)
	}
	r.metrics.IncInsertFallback(fallbackPinned)

	conn, err := r.db.Conn(ctx)
	if err != nil {
		return zero, fmt.Errorf("acquire connection: %w", err)
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			r.logger.Warn("release pinned connection", slog.String("error", cerr.Error()))
		}
	}()

	if _, err := conn.ExecContext(ctx, stmt.insertSQL(r.dialect), stmt.values...); err != nil {
		return zero, fmt.Errorf("insert %s: %w", stmt.table, err)
	}

	row, err := scan(conn.QueryRowContext(ctx, stmt.byLastIDSQL(r.dialect)))
	if err == nil {
		return row, nil
	}

	r.logger.Warn("last insert id lookup failed, using newest matching row",
		slog.String("table", stmt.table),
		slog.String("dialect", r.dialect.Name),
		slog.String("error", err.Error()),
	)
	r.metrics.IncInsertFallback(fallbackMaxID)

	row, err = scan(conn.QueryRowContext(ctx, stmt.byValuesSQL(r.dialect), stmt.values...))
	if err != nil {
		return zero, fmt.Errorf("fetch inserted %s: %w", stmt.table, err)
	}

	return row, nil
}
