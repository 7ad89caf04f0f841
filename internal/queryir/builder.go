package queryir

import (
	"errors"
	"fmt"

	"github.com/roach88/sailors/internal/ir"
)

// ErrInvalidQuery is wrapped by every construction and validation error.
var ErrInvalidQuery = errors.New("invalid query")

// Builder composes a Select fluently.
//
// The first construction error is kept and returned by Build; later calls
// are still accepted so chains read naturally:
//
//	q, err := queryir.From(queryir.T("boats", "b")).
//	    Join(queryir.T("reserves", "r"), queryir.Eq(queryir.C("r", "bid"), queryir.C("b", "bid"))).
//	    Select(queryir.Count(queryir.C("b", "bid")), queryir.C("b", "bid")).
//	    GroupBy(queryir.C("b", "bid")).
//	    OrderBy(queryir.Asc(queryir.C("b", "bid"))).
//	    Build()
//
// Build checks structure only. Name resolution against a schema is done by
// Validate.
type Builder struct {
	sel Select
	err error
}

// From starts a query over one or more comma-joined sources.
func From(sources ...Source) *Builder {
	b := &Builder{}
	if len(sources) == 0 {
		b.fail("FROM requires at least one source")
	}
	for _, s := range sources {
		b.checkSource(s)
	}
	b.sel.From = append(b.sel.From, sources...)
	return b
}

// Join adds an inner join. The ON predicate is required.
func (b *Builder) Join(source Source, on Predicate) *Builder {
	b.checkSource(source)
	if on == nil {
		b.fail("join of %s without ON predicate", describeSource(source))
	}
	b.sel.Joins = append(b.sel.Joins, Join{Source: source, On: on})
	return b
}

// Select appends unaliased projections.
func (b *Builder) Select(exprs ...Expr) *Builder {
	for _, e := range exprs {
		if e == nil {
			b.fail("nil expression in SELECT list")
			continue
		}
		b.sel.Columns = append(b.sel.Columns, Projection{Expr: e})
	}
	return b
}

// SelectAs appends a projection named alias.
func (b *Builder) SelectAs(e Expr, alias string) *Builder {
	if e == nil {
		b.fail("nil expression for alias %q", alias)
		return b
	}
	if alias == "" {
		b.fail("empty alias in SELECT list")
	}
	b.sel.Columns = append(b.sel.Columns, Projection{Expr: e, Alias: alias})
	return b
}

// Distinct marks the query SELECT DISTINCT.
func (b *Builder) Distinct() *Builder {
	b.sel.Distinct = true
	return b
}

// Where adds predicates; repeated calls are ANDed together.
func (b *Builder) Where(preds ...Predicate) *Builder {
	b.sel.Where = b.conjoin(b.sel.Where, preds, "WHERE")
	return b
}

// GroupBy appends grouping keys.
func (b *Builder) GroupBy(exprs ...Expr) *Builder {
	for _, e := range exprs {
		if e == nil {
			b.fail("nil expression in GROUP BY")
			continue
		}
		b.sel.GroupBy = append(b.sel.GroupBy, e)
	}
	return b
}

// Having adds group predicates; repeated calls are ANDed together.
func (b *Builder) Having(preds ...Predicate) *Builder {
	b.sel.Having = b.conjoin(b.sel.Having, preds, "HAVING")
	return b
}

// OrderBy appends ordering keys.
func (b *Builder) OrderBy(orderings ...Ordering) *Builder {
	for _, o := range orderings {
		if o.Expr == nil {
			b.fail("nil expression in ORDER BY")
			continue
		}
		b.sel.OrderBy = append(b.sel.OrderBy, o)
	}
	return b
}

// Limit caps the number of rows. n must be positive.
func (b *Builder) Limit(n int) *Builder {
	if n <= 0 {
		b.fail("LIMIT must be positive, got %d", n)
		return b
	}
	b.sel.Limit = n
	return b
}

// Build returns the composed Select or the first construction error.
func (b *Builder) Build() (*Select, error) {
	if b.err != nil {
		return nil, b.err
	}
	if len(b.sel.Columns) == 0 {
		return nil, fmt.Errorf("%w: empty SELECT list", ErrInvalidQuery)
	}
	sel := b.sel
	return &sel, nil
}

func (b *Builder) fail(format string, args ...any) {
	if b.err == nil {
		b.err = fmt.Errorf("%w: %s", ErrInvalidQuery, fmt.Sprintf(format, args...))
	}
}

func (b *Builder) checkSource(s Source) {
	switch src := s.(type) {
	case nil:
		b.fail("nil source")
	case Table:
		if src.Name == "" {
			b.fail("table source without name")
		}
	case Derived:
		if src.Query == nil {
			b.fail("derived table %q without query", src.Alias)
		}
		if src.Alias == "" {
			b.fail("derived table without alias")
		}
	}
}

func (b *Builder) conjoin(existing Predicate, preds []Predicate, clause string) Predicate {
	all := make([]Predicate, 0, len(preds)+1)
	if existing != nil {
		if and, ok := existing.(And); ok {
			all = append(all, and.Predicates...)
		} else {
			all = append(all, existing)
		}
	}
	for _, p := range preds {
		if p == nil {
			b.fail("nil predicate in %s", clause)
			continue
		}
		all = append(all, p)
	}
	switch len(all) {
	case 0:
		return nil
	case 1:
		return all[0]
	default:
		return And{Predicates: all}
	}
}

func describeSource(s Source) string {
	switch src := s.(type) {
	case Table:
		return src.Ref()
	case Derived:
		return src.Alias
	default:
		return fmt.Sprintf("%T", s)
	}
}

// T references a base table, optionally aliased.
func T(name, alias string) Table {
	return Table{Name: name, Alias: alias}
}

// D wraps a query as a derived table.
func D(q Query, alias string) Derived {
	return Derived{Query: q, Alias: alias}
}

// C references a column; source may be empty for an unqualified reference.
func C(source, name string) Column {
	return Column{Source: source, Name: name}
}

// Str is a text literal.
func Str(s string) Literal {
	return Literal{Value: ir.NewIRString(s)}
}

// Int is an integer literal.
func Int(n int64) Literal {
	return Literal{Value: ir.NewIRInt(n)}
}

// Count is COUNT(e).
func Count(e Expr) Aggregate {
	return Aggregate{Func: AggCount, Arg: e}
}

// CountAll is COUNT(*).
func CountAll() Aggregate {
	return Aggregate{Func: AggCount}
}

// CountDistinct is COUNT(DISTINCT e).
func CountDistinct(e Expr) Aggregate {
	return Aggregate{Func: AggCount, Arg: e, Distinct: true}
}

// Max is MAX(e).
func Max(e Expr) Aggregate {
	return Aggregate{Func: AggMax, Arg: e}
}

// Min is MIN(e).
func Min(e Expr) Aggregate {
	return Aggregate{Func: AggMin, Arg: e}
}

// Avg is AVG(e).
func Avg(e Expr) Aggregate {
	return Aggregate{Func: AggAvg, Arg: e}
}

// Sum is SUM(e).
func Sum(e Expr) Aggregate {
	return Aggregate{Func: AggSum, Arg: e}
}

// Scalar wraps a single-column query as a scalar expression.
func Scalar(q Query) Subquery {
	return Subquery{Query: q}
}

// Eq is l = r.
func Eq(l, r Expr) Compare { return Compare{Op: OpEq, Left: l, Right: r} }

// Ne is l <> r.
func Ne(l, r Expr) Compare { return Compare{Op: OpNe, Left: l, Right: r} }

// Lt is l < r.
func Lt(l, r Expr) Compare { return Compare{Op: OpLt, Left: l, Right: r} }

// Le is l <= r.
func Le(l, r Expr) Compare { return Compare{Op: OpLe, Left: l, Right: r} }

// Gt is l > r.
func Gt(l, r Expr) Compare { return Compare{Op: OpGt, Left: l, Right: r} }

// Ge is l >= r.
func Ge(l, r Expr) Compare { return Compare{Op: OpGe, Left: l, Right: r} }

// AllOf is the conjunction of preds.
func AllOf(preds ...Predicate) And {
	return And{Predicates: preds}
}

// AnyOf is the disjunction of preds.
func AnyOf(preds ...Predicate) Or {
	return Or{Predicates: preds}
}

// In is e IN (q).
func In(e Expr, q Query) InQuery {
	return InQuery{Expr: e, Query: q}
}

// NotIn is e NOT IN (q).
func NotIn(e Expr, q Query) InQuery {
	return InQuery{Expr: e, Query: q, Negate: true}
}

// Asc orders by e ascending.
func Asc(e Expr) Ordering {
	return Ordering{Expr: e}
}

// Desc orders by e descending.
func Desc(e Expr) Ordering {
	return Ordering{Expr: e, Desc: true}
}
