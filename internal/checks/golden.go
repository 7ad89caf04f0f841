package checks

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// GoldenSQL renders the compiled structured query of a check for golden
// comparison: the SQL text on the first line, the bound parameters as a
// JSON array on the second.
func GoldenSQL(c *Compiled) ([]byte, error) {
	params := c.Params
	if params == nil {
		params = []any{}
	}
	encoded, err := json.Marshal(params)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(c.SQL)+len(encoded)+16)
	out = append(out, c.SQL...)
	out = append(out, "\nparams: "...)
	out = append(out, encoded...)
	out = append(out, '\n')
	return out, nil
}

// AssertGolden compiles c and compares the result against
// testdata/golden/{c.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/checks -update
func AssertGolden(t *testing.T, c Check) {
	t.Helper()

	compiled, err := Compile(c)
	if err != nil {
		t.Fatalf("Compile(%s) failed: %v", c.Name, err)
	}
	data, err := GoldenSQL(compiled)
	if err != nil {
		t.Fatalf("GoldenSQL(%s) failed: %v", c.Name, err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, c.Name, data)
}
