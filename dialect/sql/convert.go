package sql

import (
	"regexp"
	"strings"

	"github.com/lib/pq"

	"github.com/syssam/relmap/dialect"
)

var plainIdentRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// reserved holds the keywords shared by the supported dialects that are
// likely to collide with field names.
var reserved = map[string]struct{}{}

func init() {
	for _, w := range strings.Fields(`ADD ALL ALTER AND ANY AS ASC BETWEEN BY CASE CHECK
		COLUMN CONSTRAINT CREATE CROSS CURRENT DEFAULT DELETE DESC DISTINCT DROP ELSE END
		EXCEPT EXISTS FOR FOREIGN FROM FULL GROUP HAVING IN INDEX INNER INSERT INTERSECT
		INTO IS JOIN KEY LEFT LIKE LIMIT NOT NULL OFFSET ON OR ORDER OUTER PRIMARY
		REFERENCES RIGHT SELECT SET TABLE THEN TO UNION UNIQUE UPDATE USER VALUES VIEW
		WHEN WHERE WITH`) {
		reserved[w] = struct{}{}
	}
}

// FieldNameConverter escapes identifiers for a dialect.
type FieldNameConverter struct {
	dialect string
}

// NewFieldNameConverter returns the converter of the given dialect.
func NewFieldNameConverter(dialect string) FieldNameConverter {
	return FieldNameConverter{dialect: dialect}
}

// Dialect returns the dialect of the converter.
func (c FieldNameConverter) Dialect() string { return c.dialect }

// Escape returns the identifier as is when the dialect accepts it unquoted,
// and quoted otherwise.
func (c FieldNameConverter) Escape(ident string) string {
	if c.needsQuote(ident) {
		return c.Quote(ident)
	}
	return ident
}

func (c FieldNameConverter) needsQuote(ident string) bool {
	if !plainIdentRe.MatchString(ident) {
		return true
	}
	if _, ok := reserved[strings.ToUpper(ident)]; ok {
		return true
	}
	// PostgreSQL folds unquoted names to lower case.
	return c.dialect == dialect.Postgres && strings.ToLower(ident) != ident
}

// Quote always quotes the identifier.
func (c FieldNameConverter) Quote(ident string) string {
	switch c.dialect {
	case dialect.SQLServer:
		return "[" + strings.ReplaceAll(ident, "]", "]]") + "]"
	case dialect.Postgres:
		return pq.QuoteIdentifier(ident)
	case dialect.MySQL:
		return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
	default:
		return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
	}
}

// Qualify returns the escaped column qualified by a table alias.
func (c FieldNameConverter) Qualify(alias, column string) string {
	if alias == "" {
		return c.Escape(column)
	}
	return alias + "." + c.Escape(column)
}
