// Package queryir provides the structured query intermediate representation
// (IR) used to express relational questions without writing SQL text.
//
// QueryIR is the abstraction boundary between the code that asks a question
// and the backend dialect that answers it. A query is an explicit expression
// tree, built with a typed fluent Builder, checked against a schema Catalog,
// and compiled to SQL by internal/querysql.
//
// ARCHITECTURE:
//
//	[Builder] → [Query IR] → Validate(catalog) → [querysql] → SQL + params
//
// SUPPORTED FRAGMENT:
//
// The IR covers the relational algebra the equivalence checks need:
//   - Select with DISTINCT, projections and aliases
//   - Comma-joined sources (cross product) and INNER JOIN ... ON
//   - Derived tables (sub-selects in FROM, alias mandatory)
//   - Predicates: comparisons, And, Or, [NOT] IN (sub-select)
//   - Aggregates: COUNT (incl. DISTINCT and *), MAX, MIN, AVG, SUM
//   - Scalar sub-selects, GROUP BY, HAVING, ORDER BY, LIMIT
//
// The fragment EXCLUDES:
//   - Outer joins
//   - SELECT * (explicit projections required)
//   - Inline literals (every literal is a bound parameter)
//   - Window functions, UNION, CTEs
//
// SEALED INTERFACES:
//
// Query, Source, Expr and Predicate are sealed interfaces using the marker
// method pattern. Only types in this package can implement them.
//
// This enables:
//   - Exhaustive type switches in backends
//   - Compile-time safety against external extensions
//   - Clear contract for backend implementers
//
// Example:
//
//	switch e := expr.(type) {
//	case Column:
//	    // column reference
//	case Aggregate:
//	    // aggregate call
//	default:
//	    // reject
//	}
//
// ERRORS:
//
// Construction errors (Builder.Build) and resolution errors (Validate) both
// wrap ErrInvalidQuery. A query referencing a column the schema does not
// declare never reaches the database.
package queryir
