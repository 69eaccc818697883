// Package compiler is the entry point of the execution, CRUD and migration
// layers into relmap.
//
// A Compiler is bound to a schema snapshot and a few options:
//
//	c, err := compiler.New(snap,
//		compiler.WithDialect(dialect.Postgres),
//		compiler.WithSubqueries(true),
//	)
//	stmt, err := c.CompileSelect(sqlquery.Select{
//		Root:   "Book",
//		Filter: querylanguage.Where("Author.Name", querylanguage.IsEqualTo, "Ann"),
//		Sorts:  querylanguage.Sorts{querylanguage.Desc("PublishedYear")},
//	})
//
// The compiler holds no mutable state and may be shared by goroutines. A
// new snapshot needs a new compiler, see schema.Store.
//
// Queries may also be declared as YAML documents, see Query.
package compiler
