package checks

import (
	"context"
	"fmt"

	"github.com/roach88/sailors/internal/queryir"
	"github.com/roach88/sailors/internal/querysql"
	"github.com/roach88/sailors/internal/resultset"
	"github.com/roach88/sailors/internal/schema"
)

// Runner executes SQL and returns the full result set.
// *store.Store satisfies it.
type Runner interface {
	Query(ctx context.Context, query string, args ...any) (*resultset.ResultSet, error)
}

// Compiled is the structured side of a check, ready to execute.
type Compiled struct {
	SQL    string
	Params []any
}

// Compile builds the structured query of c, validates it against the
// default schema and compiles it to SQL. Malformed queries fail here,
// before any statement reaches the backend.
func Compile(c Check) (*Compiled, error) {
	if c.Build == nil {
		return nil, fmt.Errorf("check %s: no structured query", c.Name)
	}
	query, err := c.Build()
	if err != nil {
		return nil, fmt.Errorf("check %s: build: %w", c.Name, err)
	}
	if err := queryir.Validate(query, schema.Default()).Err(); err != nil {
		return nil, fmt.Errorf("check %s: %w", c.Name, err)
	}
	sql, params, err := querysql.NewSQLCompiler().Compile(query)
	if err != nil {
		return nil, fmt.Errorf("check %s: compile: %w", c.Name, err)
	}
	return &Compiled{SQL: sql, Params: params}, nil
}

// Outcome is the result of verifying one check.
type Outcome struct {
	Check Check

	// StructuredSQL and Params are what the structured side executed.
	StructuredSQL string
	Params        []any

	Structured *resultset.ResultSet
	Literal    *resultset.ResultSet

	// Mismatch is nil when both result sets are equal.
	Mismatch *resultset.MismatchError
}

// Passed reports whether the structured and literal results matched.
func (o *Outcome) Passed() bool {
	return o.Mismatch == nil
}

// Err returns nil for a passing outcome, otherwise an error naming the
// check and describing the differing rows.
func (o *Outcome) Err() error {
	if o.Mismatch == nil {
		return nil
	}
	return fmt.Errorf("check %s: %w", o.Check.Name, o.Mismatch)
}

// Verify runs both sides of c against r and compares them in order.
// The structured query is executed first, then the literal. The literal
// result is the expected side.
//
// A construction, compile or execution failure is returned as an error and
// nothing is retried. A result mismatch is not an error: it is reported
// through Outcome.Mismatch.
func Verify(ctx context.Context, r Runner, c Check, opts resultset.Options) (*Outcome, error) {
	compiled, err := Compile(c)
	if err != nil {
		return nil, err
	}

	structured, err := r.Query(ctx, compiled.SQL, compiled.Params...)
	if err != nil {
		return nil, fmt.Errorf("check %s: structured query: %w", c.Name, err)
	}
	literal, err := r.Query(ctx, c.Literal)
	if err != nil {
		return nil, fmt.Errorf("check %s: literal query: %w", c.Name, err)
	}

	return &Outcome{
		Check:         c,
		StructuredSQL: compiled.SQL,
		Params:        compiled.Params,
		Structured:    structured,
		Literal:       literal,
		Mismatch:      resultset.Compare(literal, structured, opts),
	}, nil
}
