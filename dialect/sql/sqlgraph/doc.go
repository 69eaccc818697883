// Package sqlgraph resolves field-name chains that cross object boundaries
// into relational joins or nested subqueries.
//
// A chain such as Author.Name, queried on a Book, leaves the Books table
// through the inline Author reference. The JoinResolver turns every such hop
// into a join against the polymorphic view of the referenced type:
//
//	Books_View r0 JOIN People_View r1 ON r0.Author = r1.Id
//
// Hops through the relations table take two joins, and element collections
// join their sub-table view. Joins are deduplicated by the chain they
// resolve, so terms sharing a prefix share the join.
//
// The SubqueryResolver models the same chains as nested IN (SELECT ...)
// levels, used for collection-valued and permission fields where a join
// would multiply result rows.
package sqlgraph
