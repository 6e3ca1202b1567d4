package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// DB is the progression store. Statements are written with ? placeholders and
// rebound for the dialect of the underlying driver.
type DB struct {
	*Conn
	sql *sql.DB
}

// DefaultDBPath returns the default FocusQuest DB location.
func DefaultDBPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(homeDir, ".focusquest.db"), nil
}

// Open connects to driver at dsn and brings the schema up to date.
func Open(ctx context.Context, driver, dsn string) (*DB, error) {
	var dialect Dialect
	switch driver {
	case DriverSQLite, "":
		driver, dialect = DriverSQLite, DialectSQLite
		dsn = sqliteDSN(dsn)
	case DriverPostgres:
		dialect = DialectPostgres
	default:
		return nil, fmt.Errorf("unsupported db driver %q", driver)
	}

	sqlDB, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if dialect == DialectSQLite {
		// One writer; the pragmas in the DSN apply per connection.
		sqlDB.SetMaxOpenConns(1)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	db := NewDB(sqlDB, dialect)
	if err := Migrate(ctx, db); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return db, nil
}

// NewDB wraps an already opened pool without migrating it.
func NewDB(sqlDB *sql.DB, dialect Dialect) *DB {
	return &DB{
		Conn: &Conn{q: sqlDB, dialect: dialect},
		sql:  sqlDB,
	}
}

func (db *DB) SQL() *sql.DB { return db.sql }

func (db *DB) Close() error {
	return db.sql.Close()
}

func sqliteDSN(dsn string) string {
	if dsn == "" || strings.Contains(dsn, "_pragma") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Conn executes statements against either the pool or an open transaction.
type Conn struct {
	q       querier
	dialect Dialect
}

func (c *Conn) Dialect() Dialect { return c.dialect }

func (c *Conn) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return c.q.ExecContext(ctx, c.dialect.Rebind(query), args...)
}

func (c *Conn) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return c.q.QueryContext(ctx, c.dialect.Rebind(query), args...)
}

func (c *Conn) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return c.q.QueryRowContext(ctx, c.dialect.Rebind(query), args...)
}
