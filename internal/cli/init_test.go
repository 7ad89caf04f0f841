package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_CreatesTables(t *testing.T) {
	db := tempDB(t)

	out, err := execute(t, withDB(db, "init")...)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Tables ready (sqlite3)")
	assert.Contains(t, out, "sailors: 0 rows")
	assert.Contains(t, out, "boats:   0 rows")
	assert.Contains(t, out, "reserves: 0 rows")
}

func TestInit_KeepsRows(t *testing.T) {
	db := tempDB(t)

	_, err := execute(t, withDB(db, "seed", "testdata/classic.yaml")...)
	require.NoError(t, err)

	out, err := execute(t, withDB(db, "init")...)
	require.NoError(t, err)
	assert.Contains(t, out, "sailors: 10 rows")
	assert.Contains(t, out, "reserves: 13 rows")
}

func TestInit_JSON(t *testing.T) {
	db := tempDB(t)

	out, err := execute(t, withDB(db, "--format", "json", "init")...)
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   InitResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "sqlite3", resp.Data.Driver)
	require.Len(t, resp.Data.Tables, 3)
	assert.Equal(t, "sailors", resp.Data.Tables[0].Table)
	assert.Equal(t, "boats", resp.Data.Tables[1].Table)
	assert.Equal(t, "reserves", resp.Data.Tables[2].Table)
}

func TestInit_RejectsArgs(t *testing.T) {
	_, err := execute(t, withDB(tempDB(t), "init", "extra")...)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
