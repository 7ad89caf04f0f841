package queryir

import "github.com/roach88/sailors/internal/ir"

// Query represents a structured query in the QueryIR.
//
// This is a sealed interface - only types in this package implement it.
// The marker method pattern prevents external implementations and enables
// exhaustive type switches in backend compilers.
//
// Query types:
//   - Select: projection over sources with filtering, grouping, ordering
//
// A Query is a plain value. The same Query may appear several times in a
// tree (for example as two derived tables with different aliases); compilers
// emit it once per occurrence.
type Query interface {
	queryNode() // Marker method - seals interface to this package
}

// Source is something a Select reads rows from.
//
// Source types:
//   - Table: a base table from the schema catalog
//   - Derived: a parenthesised sub-select with a mandatory alias
type Source interface {
	sourceNode()
}

// Expr is a scalar expression in a projection, predicate, grouping or
// ordering.
//
// Expr types:
//   - Column: qualified or unqualified column reference
//   - Literal: parameterised constant
//   - Aggregate: COUNT/MAX/MIN/AVG/SUM over an expression (or *)
//   - Subquery: scalar sub-select producing one column
type Expr interface {
	exprNode()
}

// Predicate represents a filter condition in the QueryIR.
//
// Predicate types:
//   - Compare: left <op> right
//   - And: all predicates must be true (empty = always true)
//   - Or: any predicate must be true (empty = always false)
//   - InQuery: expr [NOT] IN (sub-select)
type Predicate interface {
	predicateNode()
}

// Select represents a SELECT statement.
//
// Semantics:
//
//	SELECT [DISTINCT] <columns>
//	FROM <from[0]>, <from[1]>, ...
//	[INNER JOIN <join.source> ON <join.on>]...
//	[WHERE <where>]
//	[GROUP BY <group_by>]
//	[HAVING <having>]
//	[ORDER BY <order_by>]
//	[LIMIT <limit>]
//
// Multiple From entries form a cross product (comma join) that Where
// filters; Joins are inner joins with an explicit ON predicate. Both shapes
// exist because hand-written SQL uses both and the two must be comparable.
//
// Example (conceptual SQL translation):
//
//	Select{
//	  Columns: []Projection{
//	    {Expr: Aggregate{Func: AggCount, Arg: Column{Source: "b", Name: "bid"}}},
//	    {Expr: Column{Source: "b", Name: "bid"}},
//	  },
//	  From:    []Source{Table{Name: "boats", Alias: "b"}},
//	  Joins:   []Join{{Source: Table{Name: "reserves", Alias: "r"}, On: Compare{...}}},
//	  GroupBy: []Expr{Column{Source: "b", Name: "bid"}},
//	  OrderBy: []Ordering{{Expr: Column{Source: "b", Name: "bid"}}},
//	}
//
// Translates to SQL:
//
//	SELECT COUNT(b.bid), b.bid FROM boats AS b
//	INNER JOIN reserves AS r ON r.bid = b.bid
//	GROUP BY b.bid ORDER BY b.bid ASC
//
// Limit of 0 means no limit.
type Select struct {
	Distinct bool
	Columns  []Projection // SELECT list (required, no SELECT *)
	From     []Source     // comma-joined sources (at least one)
	Joins    []Join       // inner joins applied after From
	Where    Predicate    // nil = no filter
	GroupBy  []Expr
	Having   Predicate // nil = no group filter
	OrderBy  []Ordering
	Limit    int // 0 = unlimited
}

func (Select) queryNode() {}

// Projection is one entry of a SELECT list.
// Alias is optional; derived tables need every column named, either by an
// alias or by being a plain Column.
type Projection struct {
	Expr  Expr
	Alias string
}

// Ordering is one ORDER BY key.
type Ordering struct {
	Expr Expr
	Desc bool
}

// Join is an inner join of a source onto the sources before it.
// On is required; cross products are expressed through Select.From.
type Join struct {
	Source Source
	On     Predicate
}

// Table references a base table by catalog name.
// Columns of the table are referenced by Alias when set, by Name otherwise.
type Table struct {
	Name  string
	Alias string
}

func (Table) sourceNode() {}

// Ref returns the name columns use to qualify references to this table.
func (t Table) Ref() string {
	if t.Alias != "" {
		return t.Alias
	}
	return t.Name
}

// Derived is a sub-select used as a FROM source.
//
// Semantics:
//
//	(<query>) AS <alias>
//
// Alias is mandatory (MySQL and PostgreSQL reject anonymous derived tables).
// Columns of the derived table are the projection names of Query.
type Derived struct {
	Query Query
	Alias string
}

func (Derived) sourceNode() {}

// Column references a column of a source in scope.
//
// Source is the table alias, table name, or derived alias. An empty Source
// is an unqualified reference; it must resolve to exactly one source in the
// innermost scope that has the column, searching outward for correlated
// references.
type Column struct {
	Source string
	Name   string
}

func (Column) exprNode() {}

// Literal is a constant compiled as a bound parameter, never inline text.
type Literal struct {
	Value ir.IRValue
}

func (Literal) exprNode() {}

// AggFunc names an aggregate function.
type AggFunc string

// Supported aggregate functions.
const (
	AggCount AggFunc = "COUNT"
	AggMax   AggFunc = "MAX"
	AggMin   AggFunc = "MIN"
	AggAvg   AggFunc = "AVG"
	AggSum   AggFunc = "SUM"
)

// Aggregate applies an aggregate function.
//
// Semantics:
//
//	<func>([DISTINCT] <arg>)    -- Arg set
//	COUNT(*)                    -- Arg nil, COUNT only
type Aggregate struct {
	Func     AggFunc
	Arg      Expr // nil = * (COUNT only)
	Distinct bool
}

func (Aggregate) exprNode() {}

// Subquery is a scalar sub-select. Its query must project exactly one column.
type Subquery struct {
	Query Query
}

func (Subquery) exprNode() {}

// CompareOp is a binary comparison operator.
type CompareOp string

// Supported comparison operators.
const (
	OpEq CompareOp = "="
	OpNe CompareOp = "<>"
	OpLt CompareOp = "<"
	OpLe CompareOp = "<="
	OpGt CompareOp = ">"
	OpGe CompareOp = ">="
)

// Compare represents left <op> right.
//
// Example:
//
//	Compare{Op: OpEq, Left: Column{Source: "b", Name: "color"}, Right: Literal{Value: ir.IRString("red")}}
//
// Translates to SQL:
//
//	b.color = ?    -- params: ["red"]
//
// NULL never compares equal to anything, as in SQL.
type Compare struct {
	Op    CompareOp
	Left  Expr
	Right Expr
}

func (Compare) predicateNode() {}

// And represents a conjunction of predicates (all must be true).
// Empty Predicates slice means "always true".
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// Or represents a disjunction of predicates (any must be true).
// Empty Predicates slice means "always false".
type Or struct {
	Predicates []Predicate
}

func (Or) predicateNode() {}

// InQuery tests membership of Expr in the single-column result of Query.
//
// Semantics:
//
//	<expr> IN (<query>)        -- Negate false
//	<expr> NOT IN (<query>)    -- Negate true
//
// NOT IN follows SQL three-valued logic: a NULL in the sub-select makes the
// predicate unknown for every row. Callers filtering on nullable columns must
// exclude NULLs in the sub-select themselves.
type InQuery struct {
	Expr   Expr
	Query  Query
	Negate bool
}

func (InQuery) predicateNode() {}
