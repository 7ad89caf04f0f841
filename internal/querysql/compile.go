package querysql

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/roach88/sailors/internal/ir"
	"github.com/roach88/sailors/internal/queryir"
)

// ErrUnordered is returned when a top-level query could yield several rows
// but declares no ORDER BY. Result sets are compared in order, so row order
// must never depend on the backend.
var ErrUnordered = errors.New("top-level query has no ORDER BY")

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SQLCompiler compiles QueryIR to parameterized SQL.
//
// The output uses ? placeholders; callers targeting a backend with another
// bind style rebind the text (sqlx.Rebind). Keywords are upper case, aliases
// are introduced with AS, and clauses are emitted in a fixed order so the
// same query always compiles to the same text.
//
// CRITICAL: All values are parameterized (never interpolated).
// CRITICAL: Identifiers are checked against a strict pattern before they are
// written, since they cannot be bound.
type SQLCompiler struct{}

// NewSQLCompiler creates a new SQLCompiler.
func NewSQLCompiler() *SQLCompiler {
	return &SQLCompiler{}
}

// Compile converts a QueryIR query to parameterized SQL.
// Returns (sql, params, error) tuple. Params appear in the order of their
// placeholders in the text.
//
// MANDATORY: a top-level query has ORDER BY unless it is a single-row
// aggregate (aggregates only, no GROUP BY).
func (c *SQLCompiler) Compile(q queryir.Query) (string, []any, error) {
	if q == nil {
		return "", nil, fmt.Errorf("cannot compile nil query")
	}

	sel, ok := selectOf(q)
	if !ok {
		return "", nil, fmt.Errorf("unsupported query type: %T", q)
	}
	if len(sel.OrderBy) == 0 && !singleRow(sel) {
		return "", nil, ErrUnordered
	}

	w := &writer{}
	if err := w.selectStmt(sel); err != nil {
		return "", nil, err
	}
	return w.sb.String(), w.params, nil
}

// writer accumulates SQL text and the parameters bound to its placeholders.
type writer struct {
	sb     strings.Builder
	params []any
}

func (w *writer) write(s string) {
	w.sb.WriteString(s)
}

func (w *writer) query(q queryir.Query) error {
	if q == nil {
		return fmt.Errorf("cannot compile nil query")
	}
	sel, ok := selectOf(q)
	if !ok {
		return fmt.Errorf("unsupported query type: %T", q)
	}
	return w.selectStmt(sel)
}

// selectStmt writes SELECT ... FROM ... [JOIN] [WHERE] [GROUP BY] [HAVING]
// [ORDER BY] [LIMIT] in that order.
func (w *writer) selectStmt(sel queryir.Select) error {
	if len(sel.Columns) == 0 {
		return fmt.Errorf("empty SELECT list")
	}
	if len(sel.From) == 0 {
		return fmt.Errorf("select without FROM source")
	}

	w.write("SELECT ")
	if sel.Distinct {
		w.write("DISTINCT ")
	}
	for i, p := range sel.Columns {
		if i > 0 {
			w.write(", ")
		}
		if err := w.expr(p.Expr); err != nil {
			return fmt.Errorf("compile SELECT: %w", err)
		}
		if p.Alias != "" {
			if err := checkIdent(p.Alias); err != nil {
				return fmt.Errorf("compile SELECT: %w", err)
			}
			w.write(" AS " + p.Alias)
		}
	}

	w.write(" FROM ")
	for i, src := range sel.From {
		if i > 0 {
			w.write(", ")
		}
		if err := w.source(src); err != nil {
			return fmt.Errorf("compile FROM: %w", err)
		}
	}

	for _, j := range sel.Joins {
		if j.On == nil {
			return fmt.Errorf("compile JOIN: missing ON predicate")
		}
		w.write(" INNER JOIN ")
		if err := w.source(j.Source); err != nil {
			return fmt.Errorf("compile JOIN: %w", err)
		}
		w.write(" ON ")
		if err := w.predicate(j.On); err != nil {
			return fmt.Errorf("compile JOIN ON: %w", err)
		}
	}

	if sel.Where != nil {
		w.write(" WHERE ")
		if err := w.predicate(sel.Where); err != nil {
			return fmt.Errorf("compile WHERE: %w", err)
		}
	}

	if len(sel.GroupBy) > 0 {
		w.write(" GROUP BY ")
		for i, g := range sel.GroupBy {
			if i > 0 {
				w.write(", ")
			}
			if err := w.expr(g); err != nil {
				return fmt.Errorf("compile GROUP BY: %w", err)
			}
		}
	}

	if sel.Having != nil {
		w.write(" HAVING ")
		if err := w.predicate(sel.Having); err != nil {
			return fmt.Errorf("compile HAVING: %w", err)
		}
	}

	if len(sel.OrderBy) > 0 {
		w.write(" ORDER BY ")
		for i, o := range sel.OrderBy {
			if i > 0 {
				w.write(", ")
			}
			if err := w.expr(o.Expr); err != nil {
				return fmt.Errorf("compile ORDER BY: %w", err)
			}
			if o.Desc {
				w.write(" DESC")
			}
		}
	}

	switch {
	case sel.Limit > 0:
		w.write(" LIMIT " + strconv.Itoa(sel.Limit))
	case sel.Limit < 0:
		return fmt.Errorf("negative LIMIT %d", sel.Limit)
	}

	return nil
}

func (w *writer) source(s queryir.Source) error {
	switch src := s.(type) {
	case queryir.Table:
		return w.table(src)
	case *queryir.Table:
		return w.table(*src)
	case queryir.Derived:
		return w.derived(src)
	case *queryir.Derived:
		return w.derived(*src)
	case nil:
		return fmt.Errorf("nil source")
	default:
		return fmt.Errorf("unsupported source type: %T", s)
	}
}

func (w *writer) table(t queryir.Table) error {
	if err := checkIdent(t.Name); err != nil {
		return err
	}
	w.write(t.Name)
	if t.Alias != "" {
		if err := checkIdent(t.Alias); err != nil {
			return err
		}
		w.write(" AS " + t.Alias)
	}
	return nil
}

func (w *writer) derived(d queryir.Derived) error {
	if d.Alias == "" {
		return fmt.Errorf("derived table without alias")
	}
	if err := checkIdent(d.Alias); err != nil {
		return err
	}
	w.write("(")
	if err := w.query(d.Query); err != nil {
		return fmt.Errorf("derived table %s: %w", d.Alias, err)
	}
	w.write(") AS " + d.Alias)
	return nil
}

func (w *writer) expr(e queryir.Expr) error {
	switch ex := e.(type) {
	case queryir.Column:
		return w.column(ex)
	case *queryir.Column:
		return w.column(*ex)
	case queryir.Literal:
		return w.literal(ex.Value)
	case *queryir.Literal:
		return w.literal(ex.Value)
	case queryir.Aggregate:
		return w.aggregate(ex)
	case *queryir.Aggregate:
		return w.aggregate(*ex)
	case queryir.Subquery:
		return w.subquery(ex.Query)
	case *queryir.Subquery:
		return w.subquery(ex.Query)
	case nil:
		return fmt.Errorf("nil expression")
	default:
		return fmt.Errorf("unsupported expression type: %T", e)
	}
}

func (w *writer) column(col queryir.Column) error {
	if col.Source != "" {
		if err := checkIdent(col.Source); err != nil {
			return err
		}
		w.write(col.Source + ".")
	}
	if err := checkIdent(col.Name); err != nil {
		return err
	}
	w.write(col.Name)
	return nil
}

// literal writes a placeholder and records the bound value.
// CRITICAL: Value is NEVER interpolated - always parameterized.
func (w *writer) literal(v ir.IRValue) error {
	param, err := ir.ToParam(v)
	if err != nil {
		return fmt.Errorf("convert value: %w", err)
	}
	w.write("?")
	w.params = append(w.params, param)
	return nil
}

func (w *writer) aggregate(agg queryir.Aggregate) error {
	switch agg.Func {
	case queryir.AggCount, queryir.AggMax, queryir.AggMin, queryir.AggAvg, queryir.AggSum:
	default:
		return fmt.Errorf("unsupported aggregate function %q", agg.Func)
	}

	w.write(string(agg.Func) + "(")
	if agg.Distinct {
		w.write("DISTINCT ")
	}
	if agg.Arg == nil {
		if agg.Func != queryir.AggCount || agg.Distinct {
			return fmt.Errorf("%s(*) is not valid", agg.Func)
		}
		w.write("*")
	} else if err := w.expr(agg.Arg); err != nil {
		return err
	}
	w.write(")")
	return nil
}

func (w *writer) subquery(q queryir.Query) error {
	w.write("(")
	if err := w.query(q); err != nil {
		return fmt.Errorf("subquery: %w", err)
	}
	w.write(")")
	return nil
}

// predicate compiles a queryir.Predicate to a WHERE/ON/HAVING fragment.
func (w *writer) predicate(p queryir.Predicate) error {
	switch pred := p.(type) {
	case queryir.Compare:
		return w.compare(pred)
	case *queryir.Compare:
		return w.compare(*pred)
	case queryir.And:
		return w.junction(pred.Predicates, " AND ", "1 = 1")
	case *queryir.And:
		return w.junction(pred.Predicates, " AND ", "1 = 1")
	case queryir.Or:
		return w.junction(pred.Predicates, " OR ", "1 = 0")
	case *queryir.Or:
		return w.junction(pred.Predicates, " OR ", "1 = 0")
	case queryir.InQuery:
		return w.in(pred)
	case *queryir.InQuery:
		return w.in(*pred)
	case nil:
		return fmt.Errorf("nil predicate")
	default:
		return fmt.Errorf("unsupported predicate type: %T", p)
	}
}

func (w *writer) compare(cmp queryir.Compare) error {
	switch cmp.Op {
	case queryir.OpEq, queryir.OpNe, queryir.OpLt, queryir.OpLe, queryir.OpGt, queryir.OpGe:
	default:
		return fmt.Errorf("unsupported comparison operator %q", cmp.Op)
	}
	if err := w.expr(cmp.Left); err != nil {
		return err
	}
	w.write(" " + string(cmp.Op) + " ")
	return w.expr(cmp.Right)
}

// junction joins preds with sep. An empty And is always true and an empty
// Or always false. Nested compound predicates are parenthesised.
func (w *writer) junction(preds []queryir.Predicate, sep, empty string) error {
	if len(preds) == 0 {
		w.write(empty)
		return nil
	}
	for i, p := range preds {
		if i > 0 {
			w.write(sep)
		}
		if !compound(p) {
			if err := w.predicate(p); err != nil {
				return err
			}
			continue
		}
		w.write("(")
		if err := w.predicate(p); err != nil {
			return err
		}
		w.write(")")
	}
	return nil
}

func (w *writer) in(in queryir.InQuery) error {
	if err := w.expr(in.Expr); err != nil {
		return err
	}
	if in.Negate {
		w.write(" NOT IN (")
	} else {
		w.write(" IN (")
	}
	if err := w.query(in.Query); err != nil {
		return fmt.Errorf("IN subquery: %w", err)
	}
	w.write(")")
	return nil
}

func compound(p queryir.Predicate) bool {
	switch pred := p.(type) {
	case queryir.And:
		return len(pred.Predicates) > 1
	case *queryir.And:
		return len(pred.Predicates) > 1
	case queryir.Or:
		return len(pred.Predicates) > 1
	case *queryir.Or:
		return len(pred.Predicates) > 1
	default:
		return false
	}
}

// singleRow reports whether sel projects only aggregates without grouping,
// which always yields exactly one row.
func singleRow(sel queryir.Select) bool {
	if len(sel.GroupBy) > 0 || len(sel.Columns) == 0 {
		return false
	}
	for _, p := range sel.Columns {
		switch p.Expr.(type) {
		case queryir.Aggregate, *queryir.Aggregate:
		default:
			return false
		}
	}
	return true
}

func selectOf(q queryir.Query) (queryir.Select, bool) {
	switch query := q.(type) {
	case queryir.Select:
		return query, true
	case *queryir.Select:
		if query == nil {
			return queryir.Select{}, false
		}
		return *query, true
	default:
		return queryir.Select{}, false
	}
}

func checkIdent(name string) error {
	if !identPattern.MatchString(name) {
		return fmt.Errorf("invalid identifier %q", name)
	}
	return nil
}
