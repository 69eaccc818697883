// Package sqlquery compiles filter chains and select requests into SQL text
// and ordered parameters, on top of the join and subquery resolution of
// package sqlgraph.
//
// Compilers hold the working state of a single compilation: parameter
// ordinals, the join list and the subquery memo. Create one per statement
// and do not share it between goroutines.
package sqlquery
