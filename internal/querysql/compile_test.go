package querysql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sailors/internal/ir"
	q "github.com/roach88/sailors/internal/queryir"
)

func mustBuild(t *testing.T, b *q.Builder) *q.Select {
	t.Helper()
	sel, err := b.Build()
	require.NoError(t, err)
	return sel
}

func TestCompile_GoldenSQL(t *testing.T) {
	compiler := NewSQLCompiler()

	inner := mustBuild(t, q.From(q.T("reserves", "r")).
		SelectAs(q.C("r", "sid"), "sid").
		SelectAs(q.CountDistinct(q.C("r", "bid")), "r_boats").
		GroupBy(q.C("r", "sid")))

	testCases := []struct {
		name       string
		query      q.Query
		wantSQL    string
		wantParams []any
	}{
		{
			name: "filter with parameter",
			query: mustBuild(t, q.From(q.T("sailors", "s")).
				Select(q.C("s", "sid"), q.C("s", "sname")).
				Where(q.Eq(q.C("s", "rating"), q.Int(10))).
				OrderBy(q.Asc(q.C("s", "sid")))),
			wantSQL:    "SELECT s.sid, s.sname FROM sailors AS s WHERE s.rating = ? ORDER BY s.sid",
			wantParams: []any{int64(10)},
		},
		{
			name: "inner join with group by",
			query: mustBuild(t, q.From(q.T("boats", "b")).
				Join(q.T("reserves", "r"), q.Eq(q.C("r", "bid"), q.C("b", "bid"))).
				Select(q.Count(q.C("b", "bid")), q.C("b", "bid"), q.C("b", "bname")).
				GroupBy(q.C("b", "bid"), q.C("b", "bname")).
				OrderBy(q.Asc(q.C("b", "bid")))),
			wantSQL: "SELECT COUNT(b.bid), b.bid, b.bname FROM boats AS b " +
				"INNER JOIN reserves AS r ON r.bid = b.bid GROUP BY b.bid, b.bname ORDER BY b.bid",
			wantParams: nil,
		},
		{
			name: "comma join with derived table",
			query: mustBuild(t, q.From(q.T("sailors", "s"), q.D(inner, "t")).
				Select(q.C("s", "sname")).
				Where(q.Eq(q.C("t", "sid"), q.C("s", "sid")), q.Gt(q.C("t", "r_boats"), q.Int(1))).
				OrderBy(q.Asc(q.C("s", "sname")))),
			wantSQL: "SELECT s.sname FROM sailors AS s, " +
				"(SELECT r.sid AS sid, COUNT(DISTINCT r.bid) AS r_boats FROM reserves AS r GROUP BY r.sid) AS t " +
				"WHERE t.sid = s.sid AND t.r_boats > ? ORDER BY s.sname",
			wantParams: []any{int64(1)},
		},
		{
			name: "not in subquery",
			query: mustBuild(t, q.From(q.T("sailors", "s")).
				Select(q.C("s", "sid")).
				Where(q.NotIn(q.C("s", "sid"), mustBuild(t, q.From(q.T("reserves", "r")).
					Join(q.T("boats", "b"), q.Eq(q.C("b", "bid"), q.C("r", "bid"))).
					Select(q.C("r", "sid")).
					Where(q.Eq(q.C("b", "color"), q.Str("red")))))).
				OrderBy(q.Asc(q.C("s", "sid")))),
			wantSQL: "SELECT s.sid FROM sailors AS s WHERE s.sid NOT IN " +
				"(SELECT r.sid FROM reserves AS r INNER JOIN boats AS b ON b.bid = r.bid WHERE b.color = ?) " +
				"ORDER BY s.sid",
			wantParams: []any{"red"},
		},
		{
			name: "scalar subquery and distinct",
			query: mustBuild(t, q.From(q.T("boats", "b")).
				Distinct().
				Select(q.C("b", "color")).
				Where(q.Eq(q.C("b", "length"), q.Scalar(mustBuild(t, q.From(q.T("boats", "")).Select(q.Max(q.C("", "length"))))))).
				OrderBy(q.Asc(q.C("b", "color")))),
			wantSQL:    "SELECT DISTINCT b.color FROM boats AS b WHERE b.length = (SELECT MAX(length) FROM boats) ORDER BY b.color",
			wantParams: nil,
		},
		{
			name: "order by aggregate with limit",
			query: mustBuild(t, q.From(q.T("reserves", "r")).
				SelectAs(q.CountAll(), "cnt").
				Select(q.C("r", "bid")).
				GroupBy(q.C("r", "bid")).
				OrderBy(q.Desc(q.CountAll()), q.Asc(q.C("r", "bid"))).
				Limit(1)),
			wantSQL:    "SELECT COUNT(*) AS cnt, r.bid FROM reserves AS r GROUP BY r.bid ORDER BY COUNT(*) DESC, r.bid LIMIT 1",
			wantParams: nil,
		},
		{
			name: "having",
			query: mustBuild(t, q.From(q.T("reserves", "r")).
				Select(q.C("r", "sid")).
				GroupBy(q.C("r", "sid")).
				Having(q.Ge(q.CountAll(), q.Int(2))).
				OrderBy(q.Asc(q.C("r", "sid")))),
			wantSQL:    "SELECT r.sid FROM reserves AS r GROUP BY r.sid HAVING COUNT(*) >= ? ORDER BY r.sid",
			wantParams: []any{int64(2)},
		},
		{
			name: "single-row aggregate needs no order",
			query: mustBuild(t, q.From(q.T("sailors", "")).
				Select(q.Avg(q.C("", "age"))).
				Where(q.Eq(q.C("", "rating"), q.Int(10)))),
			wantSQL:    "SELECT AVG(age) FROM sailors WHERE rating = ?",
			wantParams: []any{int64(10)},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			sql, params, err := compiler.Compile(tc.query)
			require.NoError(t, err)

			assert.Equal(t, tc.wantSQL, sql, "SQL mismatch")
			assert.Equal(t, tc.wantParams, params, "Parameters mismatch")
		})
	}
}

func TestCompile_NoStringInterpolation(t *testing.T) {
	compiler := NewSQLCompiler()

	malicious := "red'; DROP TABLE boats; --"
	query := mustBuild(t, q.From(q.T("boats", "b")).
		Select(q.C("b", "bid")).
		Where(q.Eq(q.C("b", "color"), q.Str(malicious))).
		OrderBy(q.Asc(q.C("b", "bid"))))

	sql, params, err := compiler.Compile(query)
	require.NoError(t, err)

	assert.NotContains(t, sql, "DROP")
	assert.NotContains(t, sql, "red")
	assert.Equal(t, []any{malicious}, params)
}

func TestCompile_ParamsInTextualOrder(t *testing.T) {
	compiler := NewSQLCompiler()

	sub := mustBuild(t, q.From(q.T("boats", "b")).
		SelectAs(q.C("b", "bid"), "bid").
		Where(q.Eq(q.C("b", "color"), q.Str("from")))) // inside FROM

	query := mustBuild(t, q.From(q.D(sub, "x")).
		Join(q.T("reserves", "r"), q.AllOf(q.Eq(q.C("r", "bid"), q.C("x", "bid")), q.Ne(q.C("r", "sid"), q.Int(2)))).
		Select(q.C("x", "bid")).
		Where(q.Gt(q.C("r", "sid"), q.Int(3))).
		GroupBy(q.C("x", "bid")).
		Having(q.Lt(q.CountAll(), q.Int(4))).
		OrderBy(q.Asc(q.C("x", "bid"))))

	sql, params, err := compiler.Compile(query)
	require.NoError(t, err)

	assert.Equal(t, "SELECT x.bid FROM (SELECT b.bid AS bid FROM boats AS b WHERE b.color = ?) AS x "+
		"INNER JOIN reserves AS r ON r.bid = x.bid AND r.sid <> ? "+
		"WHERE r.sid > ? GROUP BY x.bid HAVING COUNT(*) < ? ORDER BY x.bid", sql)
	assert.Equal(t, []any{"from", int64(2), int64(3), int64(4)}, params)
}

func TestCompile_OrderByRequired(t *testing.T) {
	compiler := NewSQLCompiler()

	testCases := []struct {
		name  string
		query q.Query
	}{
		{
			name:  "plain projection",
			query: mustBuild(t, q.From(q.T("boats", "b")).Select(q.C("b", "bid"))),
		},
		{
			name: "grouped aggregate",
			query: mustBuild(t, q.From(q.T("reserves", "r")).
				Select(q.CountAll()).
				GroupBy(q.C("r", "bid"))),
		},
		{
			name: "aggregate mixed with column",
			query: mustBuild(t, q.From(q.T("reserves", "r")).
				Select(q.CountAll(), q.C("r", "bid"))),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := compiler.Compile(tc.query)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrUnordered)
		})
	}
}

func TestCompile_NestedQueriesNeedNoOrder(t *testing.T) {
	compiler := NewSQLCompiler()

	sub := mustBuild(t, q.From(q.T("reserves", "r")).Select(q.C("r", "sid")))
	query := mustBuild(t, q.From(q.T("sailors", "s")).
		Select(q.C("s", "sid")).
		Where(q.In(q.C("s", "sid"), sub)).
		OrderBy(q.Asc(q.C("s", "sid"))))

	sql, _, err := compiler.Compile(query)
	require.NoError(t, err)
	assert.Equal(t, "SELECT s.sid FROM sailors AS s WHERE s.sid IN (SELECT r.sid FROM reserves AS r) ORDER BY s.sid", sql)
}

func TestCompile_CompoundPredicatesParenthesised(t *testing.T) {
	compiler := NewSQLCompiler()

	query := q.Select{
		Columns: []q.Projection{{Expr: q.C("b", "bid")}},
		From:    []q.Source{q.T("boats", "b")},
		Where: q.And{Predicates: []q.Predicate{
			q.AnyOf(q.Eq(q.C("b", "color"), q.Str("red")), q.Eq(q.C("b", "color"), q.Str("green"))),
			q.Gt(q.C("b", "length"), q.Int(10)),
		}},
		OrderBy: []q.Ordering{q.Asc(q.C("b", "bid"))},
	}

	sql, params, err := compiler.Compile(query)
	require.NoError(t, err)
	assert.Equal(t, "SELECT b.bid FROM boats AS b WHERE (b.color = ? OR b.color = ?) AND b.length > ? ORDER BY b.bid", sql)
	assert.Equal(t, []any{"red", "green", int64(10)}, params)
}

func TestCompile_EmptyJunctions(t *testing.T) {
	compiler := NewSQLCompiler()

	base := q.Select{
		Columns: []q.Projection{{Expr: q.C("b", "bid")}},
		From:    []q.Source{q.T("boats", "b")},
		OrderBy: []q.Ordering{q.Asc(q.C("b", "bid"))},
	}

	and := base
	and.Where = q.And{}
	sql, _, err := compiler.Compile(and)
	require.NoError(t, err)
	assert.Contains(t, sql, "WHERE 1 = 1")

	or := base
	or.Where = q.Or{}
	sql, _, err = compiler.Compile(or)
	require.NoError(t, err)
	assert.Contains(t, sql, "WHERE 1 = 0")
}

func TestCompile_PointerVariants(t *testing.T) {
	compiler := NewSQLCompiler()

	query := &q.Select{
		Columns: []q.Projection{
			{Expr: &q.Column{Source: "b", Name: "bid"}},
			{Expr: &q.Aggregate{Func: q.AggCount}, Alias: "n"},
		},
		From:    []q.Source{&q.Table{Name: "boats", Alias: "b"}},
		Where:   &q.Compare{Op: q.OpEq, Left: &q.Column{Source: "b", Name: "color"}, Right: &q.Literal{Value: ir.IRString("red")}},
		GroupBy: []q.Expr{&q.Column{Source: "b", Name: "bid"}},
		OrderBy: []q.Ordering{{Expr: &q.Column{Source: "b", Name: "bid"}}},
	}

	sql, params, err := compiler.Compile(query)
	require.NoError(t, err)
	assert.Equal(t, "SELECT b.bid, COUNT(*) AS n FROM boats AS b WHERE b.color = ? GROUP BY b.bid ORDER BY b.bid", sql)
	assert.Equal(t, []any{"red"}, params)
}

func TestCompile_AllIRValueTypes(t *testing.T) {
	compiler := NewSQLCompiler()

	testCases := []struct {
		name  string
		value ir.IRValue
		want  any
	}{
		{"string", ir.IRString("red"), "red"},
		{"int", ir.IRInt(42), int64(42)},
		{"bool", ir.IRBool(true), true},
		{"null", ir.IRNull{}, nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			query := q.Select{
				Columns: []q.Projection{{Expr: q.C("b", "bid")}},
				From:    []q.Source{q.T("boats", "b")},
				Where:   q.Eq(q.C("b", "color"), q.Literal{Value: tc.value}),
				OrderBy: []q.Ordering{q.Asc(q.C("b", "bid"))},
			}
			_, params, err := compiler.Compile(query)
			require.NoError(t, err)
			assert.Equal(t, []any{tc.want}, params)
		})
	}
}

func TestCompile_InvalidIdentifiers(t *testing.T) {
	compiler := NewSQLCompiler()

	testCases := []struct {
		name  string
		query q.Select
	}{
		{
			name: "table name",
			query: q.Select{
				Columns: []q.Projection{{Expr: q.C("", "bid")}},
				From:    []q.Source{q.T("boats; DROP TABLE boats", "")},
				OrderBy: []q.Ordering{q.Asc(q.C("", "bid"))},
			},
		},
		{
			name: "column name",
			query: q.Select{
				Columns: []q.Projection{{Expr: q.C("b", "bid FROM boats --")}},
				From:    []q.Source{q.T("boats", "b")},
				OrderBy: []q.Ordering{q.Asc(q.C("b", "bid"))},
			},
		},
		{
			name: "projection alias",
			query: q.Select{
				Columns: []q.Projection{{Expr: q.C("b", "bid"), Alias: "1bad"}},
				From:    []q.Source{q.T("boats", "b")},
				OrderBy: []q.Ordering{q.Asc(q.C("b", "bid"))},
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := compiler.Compile(tc.query)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid identifier")
		})
	}
}

func TestCompile_StructuralErrors(t *testing.T) {
	compiler := NewSQLCompiler()

	ordered := []q.Ordering{q.Asc(q.C("b", "bid"))}

	testCases := []struct {
		name    string
		query   q.Query
		wantErr string
	}{
		{
			name:    "nil query",
			query:   nil,
			wantErr: "cannot compile nil query",
		},
		{
			name:    "nil pointer",
			query:   (*q.Select)(nil),
			wantErr: "unsupported query type",
		},
		{
			name: "derived without alias",
			query: q.Select{
				Columns: []q.Projection{{Expr: q.C("", "bid")}},
				From:    []q.Source{q.Derived{Query: q.Select{}}},
				OrderBy: ordered,
			},
			wantErr: "derived table without alias",
		},
		{
			name: "max star",
			query: q.Select{
				Columns: []q.Projection{{Expr: q.Aggregate{Func: q.AggMax}}},
				From:    []q.Source{q.T("boats", "b")},
			},
			wantErr: "MAX(*) is not valid",
		},
		{
			name: "join without on",
			query: q.Select{
				Columns: []q.Projection{{Expr: q.C("b", "bid")}},
				From:    []q.Source{q.T("boats", "b")},
				Joins:   []q.Join{{Source: q.T("reserves", "r")}},
				OrderBy: ordered,
			},
			wantErr: "missing ON predicate",
		},
		{
			name: "nil literal",
			query: q.Select{
				Columns: []q.Projection{{Expr: q.C("b", "bid")}},
				From:    []q.Source{q.T("boats", "b")},
				Where:   q.Eq(q.C("b", "bid"), q.Literal{}),
				OrderBy: ordered,
			},
			wantErr: "nil IRValue",
		},
		{
			name: "unknown operator",
			query: q.Select{
				Columns: []q.Projection{{Expr: q.C("b", "bid")}},
				From:    []q.Source{q.T("boats", "b")},
				Where:   q.Compare{Op: "LIKE", Left: q.C("b", "bname"), Right: q.Str("x%")},
				OrderBy: ordered,
			},
			wantErr: `unsupported comparison operator "LIKE"`,
		},
		{
			name: "negative limit",
			query: q.Select{
				Columns: []q.Projection{{Expr: q.C("b", "bid")}},
				From:    []q.Source{q.T("boats", "b")},
				OrderBy: ordered,
				Limit:   -1,
			},
			wantErr: "negative LIMIT -1",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := compiler.Compile(tc.query)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestCompile_Deterministic(t *testing.T) {
	compiler := NewSQLCompiler()

	query := mustBuild(t, q.From(q.T("boats", "b")).
		Join(q.T("reserves", "r"), q.Eq(q.C("r", "bid"), q.C("b", "bid"))).
		Select(q.Count(q.C("b", "bid")), q.C("b", "bid")).
		Where(q.Eq(q.C("b", "color"), q.Str("red"))).
		GroupBy(q.C("b", "bid")).
		OrderBy(q.Asc(q.C("b", "bid"))))

	first, firstParams, err := compiler.Compile(query)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		sql, params, err := compiler.Compile(query)
		require.NoError(t, err)
		assert.Equal(t, first, sql)
		assert.Equal(t, firstParams, params)
	}
}
