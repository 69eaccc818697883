package compiler

import (
	"log/slog"
	"strings"

	"github.com/syssam/relmap/dialect"
	"github.com/syssam/relmap/privacy"
)

// Option configures a Compiler.
type Option func(*Compiler) error

// WithDialect sets the dialect of the emitted SQL. The default is SQL
// Server. Driver aliases such as "pgx" or "sqlite3" are accepted.
func WithDialect(name string) Option {
	return func(c *Compiler) error {
		d, err := dialect.Parse(name)
		if err != nil {
			return NewConfigError("Dialect", name, "unsupported dialect; use sqlserver, postgres, mysql, or sqlite")
		}
		c.cfg.Dialect = d
		return nil
	}
}

// WithLogger sets the logger receiving the Debug records of every
// compilation. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Compiler) error {
		if l == nil {
			return NewConfigError("Logger", nil, "logger cannot be nil")
		}
		c.log = l
		return nil
	}
}

// WithSubqueries compiles conditions on collection fields and on references
// stored in the relations table as nested IN subqueries instead of joins.
func WithSubqueries(enabled bool) Option {
	return func(c *Compiler) error {
		c.cfg.Subqueries = enabled
		return nil
	}
}

// WithEscapeChar sets the escape character of LIKE patterns. It cannot be
// one of the wildcards it escapes.
func WithEscapeChar(r rune) Option {
	return func(c *Compiler) error {
		if r == 0 || strings.ContainsRune("%_[", r) {
			return NewConfigError("EscapeChar", string(r), "escape character cannot be NUL or a LIKE wildcard")
		}
		c.cfg.EscapeChar = r
		return nil
	}
}

// WithPolicy sets the policy restricting the selects compiled by
// CompileSelectContext.
func WithPolicy(p privacy.Policy) Option {
	return func(c *Compiler) error {
		c.policy = &p
		return nil
	}
}
