package store

import (
	"context"
	"fmt"
)

// CountUnits returns the number of recorded units. The history command
// reports it alongside a limited or per-run listing.
func (s *Store) CountUnits(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM units`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count units: %w", err)
	}
	return n, nil
}

// ReplayUnits calls fn for every unit in recording order
// (seq ASC, id COLLATE BINARY ASC). Iteration stops at the first error
// returned by fn, which is passed through unwrapped.
//
// Rows are fully read before fn runs, so fn may use the store.
func (s *Store) ReplayUnits(ctx context.Context, fn func(Record) error) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+unitColumns+`
		FROM units
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return fmt.Errorf("replay units: %w", err)
	}
	records, err := collectRecords(rows)
	rows.Close()
	if err != nil {
		return fmt.Errorf("replay units: %w", err)
	}

	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
	return nil
}
