package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// WriteUnit inserts a compilation unit into the store.
// Returns the unit's seq and whether a new record was inserted.
//
// Uses ON CONFLICT(id) DO NOTHING for idempotency. If a unit with the same
// content hash already exists, returns the existing seq and inserted=false;
// the stored run_id keeps pointing at the first run that produced it.
//
// When rec.Seq is zero the next logical clock value is assigned inside the
// same transaction.
func (s *Store) WriteUnit(ctx context.Context, rec Record) (seq int64, inserted bool, err error) {
	if rec.ID == "" {
		return 0, false, fmt.Errorf("write unit: empty id")
	}

	irJSON, err := marshalProgram(rec.Program)
	if err != nil {
		return 0, false, fmt.Errorf("write unit: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, false, fmt.Errorf("write unit: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	seq = rec.Seq
	if seq == 0 {
		if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM units`).Scan(&seq); err != nil {
			return 0, false, fmt.Errorf("write unit: next seq: %w", err)
		}
	}

	result, err := tx.ExecContext(ctx, `
		INSERT INTO units
		(id, run_id, source_path, source, postfix, ir, seq, compiler_version, ir_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		rec.ID,
		rec.RunID,
		rec.SourcePath,
		rec.Source,
		rec.Postfix,
		irJSON,
		seq,
		rec.CompilerVersion,
		rec.IRVersion,
	)
	if err != nil {
		return 0, false, fmt.Errorf("write unit: insert: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, false, fmt.Errorf("write unit: rows affected: %w", err)
	}

	if rows == 0 {
		// Already recorded; report the original seq.
		err := tx.QueryRowContext(ctx, `SELECT seq FROM units WHERE id = ?`, rec.ID).Scan(&seq)
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, fmt.Errorf("write unit: conflict on %q but no row found", rec.ID)
		}
		if err != nil {
			return 0, false, fmt.Errorf("write unit: select existing: %w", err)
		}
		inserted = false
	} else {
		inserted = true
	}

	if err := tx.Commit(); err != nil {
		return 0, false, fmt.Errorf("write unit: commit: %w", err)
	}

	return seq, inserted, nil
}
