package queryir

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/sailors/internal/ir"
)

func TestQuery_SealedInterface(t *testing.T) {
	var q Query = Select{}
	switch q.(type) {
	case Select:
		// Expected
	default:
		t.Fatal("unexpected type")
	}

	var qp Query = &Select{}
	_, ok := qp.(*Select)
	assert.True(t, ok, "pointer variant also implements Query")
}

func TestSource_SealedInterface(t *testing.T) {
	sources := []Source{
		Table{Name: "boats"},
		Derived{Alias: "t"},
		&Table{Name: "boats"},
	}
	assert.Len(t, sources, 3)
}

func TestExpr_SealedInterface(t *testing.T) {
	exprs := []Expr{
		Column{Name: "bid"},
		Literal{Value: ir.IRInt(1)},
		Aggregate{Func: AggCount},
		Subquery{},
	}
	assert.Len(t, exprs, 4)
}

func TestPredicate_SealedInterface(t *testing.T) {
	preds := []Predicate{
		Compare{Op: OpEq},
		And{},
		Or{},
		InQuery{},
	}
	assert.Len(t, preds, 4)
}

func TestTable_Ref(t *testing.T) {
	assert.Equal(t, "b", Table{Name: "boats", Alias: "b"}.Ref())
	assert.Equal(t, "boats", Table{Name: "boats"}.Ref())
}

func TestSelect_Construction(t *testing.T) {
	sel := Select{
		Columns: []Projection{
			{Expr: Aggregate{Func: AggCount, Arg: Column{Source: "b", Name: "bid"}}},
			{Expr: Column{Source: "b", Name: "bid"}},
		},
		From: []Source{Table{Name: "boats", Alias: "b"}},
		Joins: []Join{{
			Source: Table{Name: "reserves", Alias: "r"},
			On:     Compare{Op: OpEq, Left: Column{Source: "r", Name: "bid"}, Right: Column{Source: "b", Name: "bid"}},
		}},
		GroupBy: []Expr{Column{Source: "b", Name: "bid"}},
		OrderBy: []Ordering{{Expr: Column{Source: "b", Name: "bid"}}},
	}

	assert.Len(t, sel.Columns, 2)
	assert.Len(t, sel.Joins, 1)
	assert.Nil(t, sel.Where, "Where is optional")
	assert.Zero(t, sel.Limit, "0 means unlimited")
}

func TestDerived_SameQueryTwice(t *testing.T) {
	inner := Select{
		Columns: []Projection{{Expr: Column{Name: "sid"}}},
		From:    []Source{Table{Name: "reserves"}},
	}

	outer := Select{
		Columns: []Projection{{Expr: Column{Source: "a", Name: "sid"}}},
		From:    []Source{Derived{Query: inner, Alias: "a"}, Derived{Query: inner, Alias: "b"}},
	}

	assert.Equal(t, outer.From[0].(Derived).Query, outer.From[1].(Derived).Query)
}
