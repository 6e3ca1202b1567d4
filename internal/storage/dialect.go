package storage

import "github.com/jmoiron/sqlx"

type Dialect int

const (
	DialectSQLite Dialect = iota
	DialectPostgres
)

func (d Dialect) String() string {
	if d == DialectPostgres {
		return DriverPostgres
	}
	return DriverSQLite
}

// BindType is the sqlx placeholder style of the dialect.
func (d Dialect) BindType() int {
	if d == DialectPostgres {
		return sqlx.DOLLAR
	}
	return sqlx.QUESTION
}

// Rebind rewrites the ? placeholders used throughout this package into the
// dialect's bind style. Queries here never carry a literal question mark.
func (d Dialect) Rebind(query string) string {
	return sqlx.Rebind(d.BindType(), query)
}
