package repository

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/cptk8s/registro/internal/metrics"
	"github.com/cptk8s/registro/internal/model"
)

func newMockRepository(t *testing.T, dialect Dialect) (*Repository, sqlmock.Sqlmock, *metrics.InMemoryRecorder) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	rec := metrics.NewInMemory()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewWithDB(db, dialect, logger, rec), mock, rec
}

func communicationStmt() insertStmt {
	return insertStmt{
		table:   "comunicaciones",
		columns: []string{"tipo", "usuario_id", "resumen"},
		values:  []any{"email", int64(3), "hola"},
		fetch:   communicationColumns,
	}
}

func TestInsertStmt_SQL(t *testing.T) {
	stmt := communicationStmt()

	require.Equal(t,
		`INSERT INTO "comunicaciones" ("tipo", "usuario_id", "resumen") VALUES ($1, $2, $3) RETURNING "id", "fecha", "tipo", "usuario_id", "resumen"`,
		stmt.returningSQL(Postgres))
	require.Equal(t,
		`INSERT INTO "comunicaciones" ("tipo", "usuario_id", "resumen") VALUES (?, ?, ?)`,
		stmt.insertSQL(SQLite))
	require.Equal(t,
		`SELECT "id", "fecha", "tipo", "usuario_id", "resumen" FROM "comunicaciones" WHERE id = lastval()`,
		stmt.byLastIDSQL(Postgres))
	require.Equal(t,
		`SELECT "id", "fecha", "tipo", "usuario_id", "resumen" FROM "comunicaciones" WHERE id = last_insert_rowid()`,
		stmt.byLastIDSQL(SQLite))
	require.Equal(t,
		`SELECT "id", "fecha", "tipo", "usuario_id", "resumen" FROM "comunicaciones" WHERE "tipo" = $1 AND "usuario_id" = $2 AND "resumen" = $3 ORDER BY id DESC LIMIT 1`,
		stmt.byValuesSQL(Postgres))
}

func TestInsertThenFetch_Returning(t *testing.T) {
	repo, mock, rec := newMockRepository(t, Postgres)
	stmt := communicationStmt()
	now := time.Date(2026, 10, 14, 9, 30, 0, 0, time.UTC)

	mock.ExpectQuery(stmt.returningSQL(Postgres)).
		WithArgs("email", int64(3), "hola").
		WillReturnRows(sqlmock.NewRows(communicationColumns).AddRow(int64(11), now, "email", int64(3), "hola"))

	comm, err := insertThenFetch(context.Background(), repo, stmt, scanCommunication)
	require.NoError(t, err)
	require.Equal(t, &model.Communication{ID: 11, Date: now, Type: "email", UserID: 3, Summary: "hola"}, comm)
	require.NoError(t, mock.ExpectationsWereMet())
	require.Zero(t, rec.Snapshot().InsertFallbacks[fallbackPinned])
}

func TestInsertThenFetch_ReturningRejectedUsesPinnedConnection(t *testing.T) {
	repo, mock, rec := newMockRepository(t, SQLite)
	stmt := communicationStmt()
	now := time.Date(2026, 10, 14, 9, 30, 0, 0, time.UTC)

	mock.ExpectQuery(stmt.returningSQL(SQLite)).
		WithArgs("email", int64(3), "hola").
		WillReturnError(errors.New(`near "RETURNING": syntax error`))
	mock.ExpectExec(stmt.insertSQL(SQLite)).
		WithArgs("email", int64(3), "hola").
		WillReturnResult(sqlmock.NewResult(12, 1))
	mock.ExpectQuery(stmt.byLastIDSQL(SQLite)).
		WillReturnRows(sqlmock.NewRows(communicationColumns).AddRow(int64(12), "2026-10-14 09:30:00", "email", int64(3), "hola"))

	comm, err := insertThenFetch(context.Background(), repo, stmt, scanCommunication)
	require.NoError(t, err)
	require.EqualValues(t, 12, comm.ID)
	require.True(t, comm.Date.Equal(now), "unexpected date %s", comm.Date)
	require.Equal(t, "hola", comm.Summary)

	require.NoError(t, mock.ExpectationsWereMet())
	require.EqualValues(t, 1, rec.Snapshot().InsertFallbacks[fallbackPinned])
	require.Zero(t, rec.Snapshot().InsertFallbacks[fallbackMaxID])
	require.Zero(t, repo.DB().Stats().InUse, "pinned connection must be released")
}

func TestInsertThenFetch_LastIDUnavailableUsesNewestMatchingRow(t *testing.T) {
	repo, mock, rec := newMockRepository(t, Postgres)
	stmt := communicationStmt()
	now := time.Now().UTC().Truncate(time.Second)

	mock.ExpectQuery(stmt.returningSQL(Postgres)).
		WillReturnError(errors.New("statement rejected"))
	mock.ExpectExec(stmt.insertSQL(Postgres)).
		WithArgs("email", int64(3), "hola").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(stmt.byLastIDSQL(Postgres)).
		WillReturnError(errors.New(`lastval is not yet defined in this session`))
	mock.ExpectQuery(stmt.byValuesSQL(Postgres)).
		WithArgs("email", int64(3), "hola").
		WillReturnRows(sqlmock.NewRows(communicationColumns).AddRow(int64(40), now, "email", int64(3), "hola"))

	comm, err := insertThenFetch(context.Background(), repo, stmt, scanCommunication)
	require.NoError(t, err)
	require.EqualValues(t, 40, comm.ID)

	require.NoError(t, mock.ExpectationsWereMet())
	require.EqualValues(t, 1, rec.Snapshot().InsertFallbacks[fallbackMaxID])
	require.Zero(t, repo.DB().Stats().InUse)
}

func TestInsertThenFetch_ReturningDisabledSkipsFirstAttempt(t *testing.T) {
	dialect := SQLite
	dialect.Returning = false
	repo, mock, _ := newMockRepository(t, dialect)
	stmt := communicationStmt()

	mock.ExpectExec(stmt.insertSQL(dialect)).
		WithArgs("email", int64(3), "hola").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery(stmt.byLastIDSQL(dialect)).
		WillReturnRows(sqlmock.NewRows(communicationColumns).AddRow(int64(1), time.Now(), "email", int64(3), "hola"))

	comm, err := insertThenFetch(context.Background(), repo, stmt, scanCommunication)
	require.NoError(t, err)
	require.EqualValues(t, 1, comm.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertThenFetch_Exhausted(t *testing.T) {
	repo, mock, _ := newMockRepository(t, Postgres)
	stmt := communicationStmt()

	mock.ExpectQuery(stmt.returningSQL(Postgres)).
		WillReturnError(errors.New("statement rejected"))
	mock.ExpectExec(stmt.insertSQL(Postgres)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(stmt.byLastIDSQL(Postgres)).
		WillReturnError(errors.New("no lastval"))
	mock.ExpectQuery(stmt.byValuesSQL(Postgres)).
		WillReturnError(errors.New("connection reset"))

	comm, err := insertThenFetch(context.Background(), repo, stmt, scanCommunication)
	require.Error(t, err)
	require.Nil(t, comm, "no partial row may be returned")
	require.NoError(t, mock.ExpectationsWereMet())
	require.Zero(t, repo.DB().Stats().InUse)
}

func TestInsertThenFetch_PlainInsertFails(t *testing.T) {
	repo, mock, _ := newMockRepository(t, Postgres)
	stmt := communicationStmt()

	mock.ExpectQuery(stmt.returningSQL(Postgres)).
		WillReturnError(errors.New("statement rejected"))
	mock.ExpectExec(stmt.insertSQL(Postgres)).
		WillReturnError(errors.New("disk full"))

	comm, err := insertThenFetch(context.Background(), repo, stmt, scanCommunication)
	require.ErrorContains(t, err, "disk full")
	require.Nil(t, comm)
	require.NoError(t, mock.ExpectationsWereMet())
	require.Zero(t, repo.DB().Stats().InUse)
}

func TestInsertThenFetch_ConstraintViolationDoesNotRetry(t *testing.T) {
	repo, mock, rec := newMockRepository(t, Postgres)
	stmt := insertStmt{
		table:   "credenciales",
		columns: []string{"usuario_id", "username", "password_hash"},
		values:  []any{int64(1), "admin", "hash"},
		fetch:   credentialColumns,
	}

	mock.ExpectQuery(stmt.returningSQL(Postgres)).
		WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"})

	_, err := repo.CreateCredential(context.Background(), &model.Credential{UserID: 1, Username: "admin", PasswordHash: "hash"})
	require.ErrorIs(t, err, ErrCredentialExists)
	require.NoError(t, mock.ExpectationsWereMet())
	require.Zero(t, rec.Snapshot().InsertFallbacks[fallbackPinned])
}

func TestCreateCommunication_ForeignKeyViolation(t *testing.T) {
	repo, mock, _ := newMockRepository(t, Postgres)
	stmt := communicationStmt()

	mock.ExpectQuery(stmt.returningSQL(Postgres)).
		WillReturnError(&pgconn.PgError{Code: "23503"})

	_, err := repo.CreateCommunication(context.Background(), model.NewCommunication{Type: "email", UserID: 3, Summary: "hola"})
	require.ErrorIs(t, err, ErrUserNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
