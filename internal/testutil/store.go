// Package testutil provides shared fixtures for tests: in-memory stores,
// the sample datasets and deterministic run IDs.
package testutil

import (
	"context"
	_ "embed"
	"testing"
	"time"

	"github.com/roach88/sailors/internal/dataset"
	"github.com/roach88/sailors/internal/schema"
	"github.com/roach88/sailors/internal/store"
)

//go:embed testdata/classic.yaml
var classicYAML []byte

// SampleDataset returns the classic ten-sailor, four-boat dataset.
// Each call parses a fresh copy.
func SampleDataset(t testing.TB) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.Parse(classicYAML)
	if err != nil {
		t.Fatalf("parse sample dataset: %v", err)
	}
	return ds
}

// ScenarioDataset returns two sailors, two boats and one reservation:
// Dusty (sid 1) reserved the red boat 10, Bob (sid 2) reserved nothing.
func ScenarioDataset() *dataset.Dataset {
	return &dataset.Dataset{
		Name: "scenario",
		Sailors: []schema.Sailor{
			{ID: 1, Name: "Dusty", Rating: 7, Age: 45.0},
			{ID: 2, Name: "Bob", Rating: 3, Age: 20.0},
		},
		Boats: []schema.Boat{
			{ID: 10, Name: "Red Boat", Color: "red", Length: 12},
			{ID: 20, Name: "Blue Boat", Color: "blue", Length: 15},
		},
		Reserves: []schema.Reservation{
			{SailorID: 1, BoatID: 10, Day: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		},
	}
}

// OpenStore opens an in-memory SQLite store and seeds it with ds when ds
// is not nil. The store is closed when the test ends.
//
// The database lives in the store's single connection, so every test gets
// its own isolated copy.
func OpenStore(t testing.TB, ds *dataset.Dataset) *store.Store {
	t.Helper()
	ctx := context.Background()

	s, err := store.Open(ctx, store.Config{Driver: store.DriverSQLite, DSN: ":memory:"})
	if err != nil {
		t.Fatalf("open in-memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	if ds != nil {
		if err := s.Seed(ctx, ds); err != nil {
			t.Fatalf("seed %s: %v", ds.Name, err)
		}
	}
	return s
}
