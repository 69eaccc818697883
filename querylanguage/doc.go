// Package querylanguage holds the filter and sort representation consumed
// by the SQL compilers.
//
// A filter is a chain of Criterion values. Each criterion is either a leaf
// condition on a field-name chain or a parenthesized group, and is joined to
// its successor by a Connective. Criteria are immutable; combinators return
// new chains.
//
//	f := querylanguage.Where("Author.Name", querylanguage.IsEqualTo, "Ann").
//		And(querylanguage.Where("PublishedYear", querylanguage.IsGreaterThan, 2000))
//	fmt.Println(f) // Author.Name == "Ann" && PublishedYear > 2000
//
// Connectives follow SQL precedence when the chain is rendered, AND binding
// tighter than OR. Use Group, All or Any to parenthesize.
package querylanguage
