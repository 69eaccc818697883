// Package dialect names the SQL dialects the compilers target and defines
// the execution interfaces implemented by dialect/sql.
//
// # Supported Dialects
//
//   - SQLServer: Microsoft SQL Server
//   - Postgres: PostgreSQL
//   - MySQL: MySQL/MariaDB
//   - SQLite: SQLite
//
// A dialect decides identifier quoting, column types, parameter placeholders
// (@p1, $1 or ?), literal rendering, pagination and full-text predicates.
//
// # Sub-packages
//
//   - dialect/sql: identifier escaping, type mapping, parameters and the
//     execution driver
//   - dialect/sql/sqlgraph: join and subquery resolution of field-name chains
//   - dialect/sql/sqlquery: WHERE and SELECT compilation
//   - dialect/sql/schema: polymorphic view definitions and their DDL
package dialect
