package store

import (
	"context"
	"fmt"
)

// TableCount is the row count of one table.
type TableCount struct {
	Table string `json:"table"`
	Rows  int64  `json:"rows"`
}

// Counts returns the row count of every table in declaration order.
func (s *Store) Counts(ctx context.Context) ([]TableCount, error) {
	counts := make([]TableCount, 0, len(s.schema.Tables))
	for _, t := range s.schema.Tables {
		var n int64
		// Table names come from the validated schema, never from input.
		if err := s.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM "+t.Name); err != nil {
			return nil, fmt.Errorf("count %s: %w", t.Name, err)
		}
		counts = append(counts, TableCount{Table: t.Name, Rows: n})
	}
	return counts, nil
}
