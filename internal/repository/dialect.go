package repository

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	"github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Supported driver names.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// ErrUnsupportedDriver is returned for an unknown driver name.
var ErrUnsupportedDriver = errors.New("unsupported database driver")

// Dialect captures the differences between the supported SQL engines.
// Queries are written with "?" placeholders and rebound per dialect.
type Dialect struct {
	// Name identifies the dialect and its migrations directory.
	Name string
	// Returning reports whether INSERT ... RETURNING should be attempted.
	Returning bool

	driverName string
	goose      goose.Dialect
	numbered   bool
	// lastInsertID is a connection-scoped expression yielding the last
	// identifier assigned on the current connection.
	lastInsertID string
}

// Postgres is the PostgreSQL dialect (pgx driver).
var Postgres = Dialect{
	Name:         DriverPostgres,
	Returning:    true,
	driverName:   "pgx",
	goose:        goose.DialectPostgres,
	numbered:     true,
	lastInsertID: "lastval()",
}

// SQLite is the SQLite dialect (modernc.org/sqlite driver).
var SQLite = Dialect{
	Name:         DriverSQLite,
	Returning:    true,
	driverName:   "sqlite",
	goose:        goose.DialectSQLite3,
	lastInsertID: "last_insert_rowid()",
}

// DialectFor returns the dialect registered under driver.
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case DriverPostgres:
		return Postgres, nil
	case DriverSQLite:
		return SQLite, nil
	default:
		return Dialect{}, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}
}

// Rebind rewrites "?" placeholders into the dialect's native form.
func (d Dialect) Rebind(query string) string {
	if !d.numbered {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, c := range query {
		if c == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}

// sqlitePragmas are applied to every SQLite connection unless the URL
// already sets them. Foreign keys (and so cascading deletes) are only
// enforced with the pragma on; busy_timeout makes writers wait for the
// lock instead of failing with SQLITE_BUSY.
var sqlitePragmas = []struct{ name, value string }{
	{"foreign_keys", "1"},
	{"busy_timeout", "5000"},
	{"journal_mode", "WAL"},
	{"synchronous", "NORMAL"},
}

// dsn adjusts the connection string for the engine.
func (d Dialect) dsn(url string) string {
	if d.Name != DriverSQLite {
		return url
	}

	var b strings.Builder
	b.WriteString(url)
	sep := "?"
	if strings.Contains(url, "?") {
		sep = "&"
	}
	for _, p := range sqlitePragmas {
		if strings.Contains(url, p.name) {
			continue
		}
		b.WriteString(sep)
		b.WriteString("_pragma=" + p.name + "(" + p.value + ")")
		sep = "&"
	}
	return b.String()
}

// quoteIdent quotes a table or column name. Both engines accept
// SQL-standard double-quoted identifiers.
func quoteIdent(name string) string {
	return pq.QuoteIdentifier(name)
}

// isUniqueViolation reports whether err is a unique constraint violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}

	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		code := sqliteErr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}

	return false
}

// isForeignKeyViolation reports whether err is a foreign key violation.
func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23503"
	}

	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY
	}

	return false
}
