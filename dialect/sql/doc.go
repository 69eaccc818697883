// Package sql holds the dialect-specific building blocks shared by the SQL
// compilers and the execution boundary.
//
// # Identifiers
//
// FieldNameConverter escapes identifiers for a dialect. Plain identifiers
// are emitted as is; anything else (reserved words, punctuation, and on
// PostgreSQL upper-case letters) is quoted:
//
//	c := sql.NewFieldNameConverter(dialect.SQLServer)
//	c.Escape("Name")  // Name
//	c.Escape("Order") // [Order]
//
// # Types and parameters
//
// DataTypeMapper maps field types to column types and converts values into
// typed parameters. Placeholders are @p1 on SQL Server and SQLite, $1 on
// PostgreSQL and ? on MySQL:
//
//	m := sql.NewDataTypeMapper(dialect.Postgres)
//	p, err := m.CreateParameter(1, 2000, field.TypeInt32)
//	sql.Placeholder(dialect.Postgres, p) // $1
//
// ApplyParameters substitutes literals for the placeholders of a statement,
// for logging and for tools that cannot bind parameters.
//
// # LIKE patterns
//
// LikeEscaper escapes the LIKE wildcard characters with a sentinel escape
// character, BEL by default, so patterns match user input exactly.
//
// # Execution
//
// Driver executes compiled statements through database/sql. It is used by
// tools and tests; the compilers never execute anything.
package sql
