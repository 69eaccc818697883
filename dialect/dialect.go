package dialect

import (
	"context"
	"database/sql/driver"
	"fmt"
	"strings"
)

// Dialect names.
const (
	SQLServer = "sqlserver"
	Postgres  = "postgres"
	MySQL     = "mysql"
	SQLite    = "sqlite"
)

// Dialects lists the supported dialects.
var Dialects = []string{SQLServer, Postgres, MySQL, SQLite}

// Parse returns the dialect with the given name. A few driver names are
// accepted as aliases ("mssql", "pgx", "sqlite3").
func Parse(name string) (string, error) {
	switch n := strings.ToLower(strings.TrimSpace(name)); n {
	case SQLServer, "mssql":
		return SQLServer, nil
	case Postgres, "postgresql", "pgx":
		return Postgres, nil
	case MySQL, "mariadb":
		return MySQL, nil
	case SQLite, "sqlite3":
		return SQLite, nil
	}
	return "", fmt.Errorf("dialect: unknown dialect %q", name)
}

// ExecQuerier wraps the Exec and Query methods.
type ExecQuerier interface {
	// Exec executes a statement that does not return rows. v is nil or a
	// *sql.Result receiving the result.
	Exec(ctx context.Context, query string, args, v any) error
	// Query executes a query that returns rows into v.
	Query(ctx context.Context, query string, args, v any) error
}

// Driver is the execution boundary of compiled statements.
type Driver interface {
	ExecQuerier
	// Tx starts a transaction.
	Tx(context.Context) (Tx, error)
	// Close closes the underlying connection.
	Close() error
	// Dialect returns the dialect of the driver.
	Dialect() string
}

// Tx wraps the Exec and Query operations in a transaction.
type Tx interface {
	ExecQuerier
	driver.Tx
}
