// Package queryir defines an abstract query representation for the frame
// archive.
//
// Inspection tooling (the trace CLI command and anything else that reads
// archived runs) describes what it wants as a Scan: a table, a filter, and
// explicit column bindings. The querysql package compiles a Scan into
// parameterized SQLite; no caller ever assembles SQL strings by hand.
//
// The representation is deliberately small:
//
//   - Scan - one archive table with filtering and explicit columns
//   - Predicates: Eq (column = value), Range (bounded column), And
//
// Scan and Predicate are sealed by marker methods, so a backend can type
// switch exhaustively: a new node type does not compile until every
// backend handles it.
//
// Filters never interpolate values. Every literal travels as a parameter
// through the compiled query, and every compiled query carries a stable
// ORDER BY, so identical archives always list in identical order.
package queryir
