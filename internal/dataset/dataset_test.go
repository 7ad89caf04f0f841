package dataset

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sailors/internal/schema"
)

func TestLoad_Classic(t *testing.T) {
	ds, err := Load(filepath.Join("testdata", "classic.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "classic", ds.Name)
	assert.Len(t, ds.Sailors, 10)
	assert.Len(t, ds.Boats, 4)
	assert.Len(t, ds.Reserves, 13)

	assert.Equal(t, schema.Sailor{ID: 22, Name: "Dustin", Rating: 7, Age: 45.0}, ds.Sailors[0])
	assert.Equal(t, schema.Boat{ID: 104, Name: "Marine", Color: "red", Length: 35}, ds.Boats[3])
	assert.Equal(t, int64(22), ds.Reserves[0].SailorID)
	assert.True(t, ds.Reserves[0].Day.Equal(time.Date(1998, 10, 10, 0, 0, 0, 0, time.UTC)))
}

func TestLoad_NameDefaultsToFileName(t *testing.T) {
	ds, err := Load(filepath.Join("testdata", "scenario.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "scenario", ds.Name)
	require.Len(t, ds.Reserves, 1)
	assert.True(t, ds.Reserves[0].Day.Equal(time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC)))
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join("testdata", "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read dataset file")
}

func TestLoad_UnknownFieldRejected(t *testing.T) {
	_, err := Load(filepath.Join("testdata", "unknown_field.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
	assert.Contains(t, err.Error(), "colour")
}

func TestLoad_ShapeViolations(t *testing.T) {
	_, err := Load(filepath.Join("testdata", "bad_shape.yaml"))
	require.Error(t, err)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr), "want *ValidationError, got %T", err)

	msg := err.Error()
	assert.Contains(t, msg, "sailors.0.sid")
	assert.Contains(t, msg, "sailors.0.rating")
	assert.Contains(t, msg, "boats.0.bname")
}

func TestLoad_ReferentialViolations(t *testing.T) {
	_, err := Load(filepath.Join("testdata", "dangling.yaml"))
	require.Error(t, err)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr), "want *ValidationError, got %T", err)
	assert.Equal(t, []string{
		"sailors[1]: duplicate sid 1",
		"reserves[1]: duplicate reservation (1, 10, 2024-01-01)",
		"reserves[2]: unknown sailor 9",
		"reserves[2]: unknown boat 99",
	}, verr.Problems)
	assert.Contains(t, err.Error(), "invalid dataset: 4 problems")
}

func TestParse_Empty(t *testing.T) {
	_, err := Parse(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty document")
}

func TestParse_EmptyTablesAllowed(t *testing.T) {
	ds, err := Parse([]byte("name: empty\n"))
	require.NoError(t, err)
	assert.Equal(t, "empty", ds.Name)
	assert.Empty(t, ds.Sailors)
}

func TestParse_MissingDay(t *testing.T) {
	data := []byte(`
sailors: [{sid: 1, sname: A, rating: 1, age: 20}]
boats: [{bid: 1, bname: B, color: red, length: 10}]
reserves: [{sid: 1, bid: 1}]
`)
	_, err := Parse(data)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reserves[0]: missing day")
}

func TestValidate_Valid(t *testing.T) {
	ds := &Dataset{
		Sailors:  []schema.Sailor{{ID: 1, Name: "Dusty", Rating: 7, Age: 45}},
		Boats:    []schema.Boat{{ID: 10, Name: "Red Boat", Color: "red", Length: 12}},
		Reserves: []schema.Reservation{{SailorID: 1, BoatID: 10, Day: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}},
	}
	assert.NoError(t, ds.Validate())
}

func TestValidationError_SingleProblem(t *testing.T) {
	err := &ValidationError{Problems: []string{"boats[0]: duplicate bid 1"}}
	assert.Equal(t, "invalid dataset: boats[0]: duplicate bid 1", err.Error())
}
