package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/roach88/sailors/internal/dataset"
	"github.com/roach88/sailors/internal/schema"
)

// Seed inserts a dataset in one transaction: sailors, then boats, then
// reservations. Any failure (duplicate key, dangling reference) rolls the
// whole dataset back.
func (s *Store) Seed(ctx context.Context, ds *dataset.Dataset) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seed: begin: %w", err)
	}
	defer tx.Rollback()

	for _, sailor := range ds.Sailors {
		if err := s.insert(ctx, tx, schema.SailorsTable, sailor); err != nil {
			return fmt.Errorf("seed: sailor %d: %w", sailor.ID, err)
		}
	}
	for _, boat := range ds.Boats {
		if err := s.insert(ctx, tx, schema.BoatsTable, boat); err != nil {
			return fmt.Errorf("seed: boat %d: %w", boat.ID, err)
		}
	}
	for _, r := range ds.Reserves {
		r.Day = r.Day.UTC()
		if err := s.insert(ctx, tx, schema.ReservesTable, r); err != nil {
			return fmt.Errorf("seed: reservation (%d, %d, %s): %w", r.SailorID, r.BoatID, r.Day.Format("2006-01-02"), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed: commit: %w", err)
	}

	s.logger.Debug("seeded dataset",
		"name", ds.Name,
		"sailors", len(ds.Sailors),
		"boats", len(ds.Boats),
		"reserves", len(ds.Reserves))
	return nil
}

func (s *Store) insert(ctx context.Context, tx *sqlx.Tx, table string, row any) error {
	t, ok := s.schema.Table(table)
	if !ok {
		return fmt.Errorf("table %s not in schema", table)
	}
	_, err := tx.NamedExecContext(ctx, insertSQL(*t), row)
	return err
}

// Reset deletes every row, children first. Tables are kept.
func (s *Store) Reset(ctx context.Context) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("reset: begin: %w", err)
	}
	defer tx.Rollback()

	for i := len(s.schema.Tables) - 1; i >= 0; i-- {
		name := s.schema.Tables[i].Name
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+name); err != nil {
			return fmt.Errorf("reset: %s: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("reset: commit: %w", err)
	}
	return nil
}

// DeleteBoat removes a boat; its reservations go with it (ON DELETE
// CASCADE). Returns the number of boats deleted (0 or 1).
func (s *Store) DeleteBoat(ctx context.Context, bid int64) (int64, error) {
	query := s.db.Rebind(fmt.Sprintf("DELETE FROM %s WHERE %s = ?", schema.BoatsTable, schema.BoatID))
	res, err := s.db.ExecContext(ctx, query, bid)
	if err != nil {
		return 0, fmt.Errorf("delete boat %d: %w", bid, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete boat %d: %w", bid, err)
	}
	return n, nil
}
