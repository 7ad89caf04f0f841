package checks

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompiledSQL_Golden(t *testing.T) {
	for _, c := range All() {
		t.Run(c.Name, func(t *testing.T) {
			AssertGolden(t, c)
		})
	}
}

func TestCompile_Deterministic(t *testing.T) {
	for _, c := range All() {
		first, err := Compile(c)
		require.NoError(t, err, c.Name)
		second, err := Compile(c)
		require.NoError(t, err, c.Name)
		assert.Equal(t, first, second, c.Name)
	}
}

func TestCompile_LiteralsAreBound(t *testing.T) {
	for _, c := range All() {
		compiled, err := Compile(c)
		require.NoError(t, err, c.Name)
		assert.NotContains(t, compiled.SQL, "'", "%s: literal text in compiled SQL", c.Name)
		assert.Equal(t, strings.Count(compiled.SQL, "?"), len(compiled.Params), c.Name)
	}
}

func TestGoldenSQL_Format(t *testing.T) {
	data, err := GoldenSQL(&Compiled{SQL: "SELECT 1 FROM t ORDER BY 1"})
	require.NoError(t, err)
	assert.Equal(t, "SELECT 1 FROM t ORDER BY 1\nparams: []\n", string(data))

	data, err = GoldenSQL(&Compiled{SQL: "SELECT a FROM t WHERE b = ?", Params: []any{"red", int64(10)}})
	require.NoError(t, err)
	assert.Equal(t, "SELECT a FROM t WHERE b = ?\nparams: [\"red\",10]\n", string(data))
}
