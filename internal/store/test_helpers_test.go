package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/sailors/internal/dataset"
	"github.com/roach88/sailors/internal/schema"
)

// createTestStore creates a new file-backed SQLite store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(context.Background(), Config{Driver: DriverSQLite, DSN: path})
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func day(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

// createTestDataset returns two sailors, two boats and three reservations.
func createTestDataset() *dataset.Dataset {
	return &dataset.Dataset{
		Name: "test",
		Sailors: []schema.Sailor{
			{ID: 1, Name: "Dusty", Rating: 7, Age: 45.0},
			{ID: 2, Name: "Bob", Rating: 3, Age: 20.0},
		},
		Boats: []schema.Boat{
			{ID: 10, Name: "Red Boat", Color: "red", Length: 12},
			{ID: 20, Name: "Blue Boat", Color: "blue", Length: 15},
		},
		Reserves: []schema.Reservation{
			{SailorID: 1, BoatID: 10, Day: day("2024-01-01")},
			{SailorID: 1, BoatID: 20, Day: day("2024-01-02")},
			{SailorID: 2, BoatID: 20, Day: day("2024-01-03")},
		},
	}
}

func countsByTable(t *testing.T, s *Store) map[string]int64 {
	t.Helper()
	counts, err := s.Counts(context.Background())
	if err != nil {
		t.Fatalf("Counts() failed: %v", err)
	}
	m := make(map[string]int64, len(counts))
	for _, c := range counts {
		m[c.Table] = c.Rows
	}
	return m
}
