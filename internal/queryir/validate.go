package queryir

import (
	"errors"
	"fmt"
	"strings"
)

// Catalog resolves base table names to their columns.
// *schema.Schema satisfies it.
type Catalog interface {
	Columns(table string) ([]string, bool)
}

// ValidationResult contains the name-resolution analysis of a query.
type ValidationResult struct {
	// Valid is true when every table and column reference resolves.
	Valid bool

	// Errors lists unresolved or malformed references in traversal order.
	// Empty when Valid is true.
	Errors []string
}

// Err returns nil for a valid result, otherwise an error wrapping
// ErrInvalidQuery that lists every problem.
func (r ValidationResult) Err() error {
	if r.Valid {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInvalidQuery, strings.Join(r.Errors, "; "))
}

// Validate resolves every reference in query against catalog.
//
// Rules:
//  1. Base tables must exist in the catalog; derived tables need an alias
//  2. Source references (alias or table name) are unique within a FROM clause
//  3. Qualified columns must exist in the referenced source
//  4. Unqualified columns must match exactly one source of the innermost
//     scope that has them; outer scopes are searched for correlated references
//  5. Derived tables and IN/scalar sub-selects need named/single columns
//  6. Aggregates are not allowed in WHERE or ON; only COUNT takes *
//  7. ORDER BY may also name a projection alias
//
// Validate is a pure function with no side effects.
func Validate(query Query, catalog Catalog) ValidationResult {
	v := &validator{
		catalog: catalog,
		errors:  []string{},
	}
	v.validateQuery(query, nil)

	return ValidationResult{
		Valid:  len(v.errors) == 0,
		Errors: v.errors,
	}
}

// OutputColumns returns the column names a query projects.
// Unnamed projections (aggregates or subqueries without alias) are "".
func OutputColumns(q Query) []string {
	sel, ok := asSelect(q)
	if !ok {
		return nil
	}
	names := make([]string, len(sel.Columns))
	for i, p := range sel.Columns {
		names[i] = projectionName(p)
	}
	return names
}

func projectionName(p Projection) string {
	if p.Alias != "" {
		return p.Alias
	}
	if col, ok := asColumn(p.Expr); ok {
		return col.Name
	}
	return ""
}

// validator accumulates errors during traversal.
type validator struct {
	catalog Catalog
	errors  []string
}

// scope is one SELECT level: the sources visible to its expressions.
type scope struct {
	sources []scopeSource
	aliases map[string]bool // projection aliases, ORDER BY only
	outer   *scope
}

type scopeSource struct {
	ref     string
	columns []string
}

func (s *scope) lookup(ref string) (scopeSource, bool) {
	for _, src := range s.sources {
		if src.ref == ref {
			return src, true
		}
	}
	return scopeSource{}, false
}

func (v *validator) addError(format string, args ...any) {
	v.errors = append(v.errors, fmt.Sprintf(format, args...))
}

// validateQuery validates a query node with outer as enclosing scope.
func (v *validator) validateQuery(q Query, outer *scope) {
	if q == nil {
		v.addError("nil query")
		return
	}

	sel, ok := asSelect(q)
	if !ok {
		v.addError("unknown query type: %T", q)
		return
	}
	v.validateSelect(sel, outer)
}

func (v *validator) validateSelect(sel Select, outer *scope) {
	sc := &scope{outer: outer}

	if len(sel.From) == 0 {
		v.addError("select without FROM source")
	}
	for _, src := range sel.From {
		v.addSource(sc, src, outer)
	}
	for _, j := range sel.Joins {
		v.addSource(sc, j.Source, outer)
		if j.On == nil {
			v.addError("join without ON predicate")
			continue
		}
		v.validatePredicate(j.On, sc, "ON")
	}

	if len(sel.Columns) == 0 {
		v.addError("empty SELECT list")
	}
	for _, p := range sel.Columns {
		v.validateExpr(p.Expr, sc, "SELECT")
	}

	if sel.Where != nil {
		v.validatePredicate(sel.Where, sc, "WHERE")
	}
	for _, g := range sel.GroupBy {
		v.validateExpr(g, sc, "GROUP BY")
	}
	if sel.Having != nil {
		v.validatePredicate(sel.Having, sc, "HAVING")
	}

	sc.aliases = make(map[string]bool)
	for _, p := range sel.Columns {
		if p.Alias != "" {
			sc.aliases[p.Alias] = true
		}
	}
	for _, o := range sel.OrderBy {
		v.validateExpr(o.Expr, sc, "ORDER BY")
	}

	if sel.Limit < 0 {
		v.addError("negative LIMIT %d", sel.Limit)
	}
}

// addSource resolves a FROM/JOIN source and registers it in sc.
// Derived tables see only the enclosing scope, not their siblings.
func (v *validator) addSource(sc *scope, src Source, outer *scope) {
	var entry scopeSource

	switch s := src.(type) {
	case Table:
		entry = v.tableSource(s)
	case *Table:
		entry = v.tableSource(*s)
	case Derived:
		entry = v.derivedSource(s, outer)
	case *Derived:
		entry = v.derivedSource(*s, outer)
	case nil:
		v.addError("nil source")
		return
	default:
		v.addError("unknown source type: %T", src)
		return
	}

	if entry.ref == "" {
		return
	}
	if _, dup := sc.lookup(entry.ref); dup {
		v.addError("duplicate source reference %q", entry.ref)
		return
	}
	sc.sources = append(sc.sources, entry)
}

func (v *validator) tableSource(t Table) scopeSource {
	cols, ok := v.catalog.Columns(t.Name)
	if !ok {
		v.addError("unknown table %q", t.Name)
		return scopeSource{}
	}
	return scopeSource{ref: t.Ref(), columns: cols}
}

func (v *validator) derivedSource(d Derived, outer *scope) scopeSource {
	if d.Alias == "" {
		v.addError("derived table without alias")
	}
	if d.Query == nil {
		v.addError("derived table %q without query", d.Alias)
		return scopeSource{}
	}

	v.validateQuery(d.Query, outer)

	cols := OutputColumns(d.Query)
	for i, name := range cols {
		if name == "" {
			v.addError("derived table %q: column %d has no name", d.Alias, i+1)
		}
	}
	return scopeSource{ref: d.Alias, columns: cols}
}

func (v *validator) validateExpr(e Expr, sc *scope, clause string) {
	switch expr := e.(type) {
	case Column:
		v.resolveColumn(expr, sc, clause)
	case *Column:
		v.resolveColumn(*expr, sc, clause)
	case Literal:
		if expr.Value == nil {
			v.addError("%s: literal without value", clause)
		}
	case *Literal:
		v.validateExpr(*expr, sc, clause)
	case Aggregate:
		v.validateAggregate(expr, sc, clause)
	case *Aggregate:
		v.validateAggregate(*expr, sc, clause)
	case Subquery:
		v.validateSubquery(expr.Query, sc, clause)
	case *Subquery:
		v.validateSubquery(expr.Query, sc, clause)
	case nil:
		v.addError("%s: nil expression", clause)
	default:
		v.addError("%s: unknown expression type: %T", clause, e)
	}
}

func (v *validator) validateAggregate(agg Aggregate, sc *scope, clause string) {
	switch clause {
	case "WHERE", "ON", "GROUP BY":
		v.addError("%s: aggregate %s not allowed", clause, agg.Func)
	}

	switch agg.Func {
	case AggCount, AggMax, AggMin, AggAvg, AggSum:
	default:
		v.addError("%s: unknown aggregate function %q", clause, agg.Func)
	}

	if agg.Arg == nil {
		if agg.Func != AggCount {
			v.addError("%s: %s(*) is not valid", clause, agg.Func)
		}
		if agg.Distinct {
			v.addError("%s: COUNT(DISTINCT *) is not valid", clause)
		}
		return
	}
	v.validateExpr(agg.Arg, sc, clause)
}

func (v *validator) validateSubquery(q Query, sc *scope, clause string) {
	if q == nil {
		v.addError("%s: subquery without query", clause)
		return
	}
	v.validateQuery(q, sc)
	if n := len(OutputColumns(q)); n != 1 {
		v.addError("%s: subquery must project exactly one column, got %d", clause, n)
	}
}

func (v *validator) resolveColumn(col Column, sc *scope, clause string) {
	if col.Name == "" {
		v.addError("%s: column without name", clause)
		return
	}

	if col.Source != "" {
		for s := sc; s != nil; s = s.outer {
			src, ok := s.lookup(col.Source)
			if !ok {
				continue
			}
			if !contains(src.columns, col.Name) {
				v.addError("%s: unknown column %s.%s", clause, col.Source, col.Name)
			}
			return
		}
		v.addError("%s: unknown source %q for column %s", clause, col.Source, col.Name)
		return
	}

	if clause == "ORDER BY" && sc.aliases[col.Name] {
		return
	}

	for s := sc; s != nil; s = s.outer {
		var matches []string
		for _, src := range s.sources {
			if contains(src.columns, col.Name) {
				matches = append(matches, src.ref)
			}
		}
		switch len(matches) {
		case 0:
			continue
		case 1:
			return
		default:
			v.addError("%s: ambiguous column %s (in %s)", clause, col.Name, strings.Join(matches, ", "))
			return
		}
	}
	v.addError("%s: unknown column %s", clause, col.Name)
}

func (v *validator) validatePredicate(p Predicate, sc *scope, clause string) {
	switch pred := p.(type) {
	case Compare:
		v.validateCompare(pred, sc, clause)
	case *Compare:
		v.validateCompare(*pred, sc, clause)
	case And:
		for _, sub := range pred.Predicates {
			v.validatePredicate(sub, sc, clause)
		}
	case *And:
		v.validatePredicate(*pred, sc, clause)
	case Or:
		for _, sub := range pred.Predicates {
			v.validatePredicate(sub, sc, clause)
		}
	case *Or:
		v.validatePredicate(*pred, sc, clause)
	case InQuery:
		v.validateIn(pred, sc, clause)
	case *InQuery:
		v.validateIn(*pred, sc, clause)
	case nil:
		v.addError("%s: nil predicate", clause)
	default:
		v.addError("%s: unknown predicate type: %T", clause, p)
	}
}

func (v *validator) validateCompare(cmp Compare, sc *scope, clause string) {
	switch cmp.Op {
	case OpEq, OpNe, OpLt, OpLe, OpGt, OpGe:
	default:
		v.addError("%s: unknown comparison operator %q", clause, cmp.Op)
	}
	v.validateExpr(cmp.Left, sc, clause)
	v.validateExpr(cmp.Right, sc, clause)
}

func (v *validator) validateIn(in InQuery, sc *scope, clause string) {
	v.validateExpr(in.Expr, sc, clause)
	v.validateSubquery(in.Query, sc, clause)
}

func asSelect(q Query) (Select, bool) {
	switch query := q.(type) {
	case Select:
		return query, true
	case *Select:
		if query == nil {
			return Select{}, false
		}
		return *query, true
	default:
		return Select{}, false
	}
}

func asColumn(e Expr) (Column, bool) {
	switch expr := e.(type) {
	case Column:
		return expr, true
	case *Column:
		return *expr, true
	default:
		return Column{}, false
	}
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

// IsInvalid reports whether err came from query construction or validation.
func IsInvalid(err error) bool {
	return errors.Is(err, ErrInvalidQuery)
}
