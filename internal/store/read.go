package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when no unit matches an id or prefix.
	ErrNotFound = errors.New("unit not found")

	// ErrAmbiguous is returned when an id prefix matches more than one unit.
	ErrAmbiguous = errors.New("ambiguous unit id prefix")
)

const unitColumns = `id, run_id, source_path, source, postfix, ir, seq, compiler_version, ir_version`

// ReadUnit retrieves a unit by exact id or by a unique id prefix.
// Returns ErrNotFound if nothing matches and ErrAmbiguous if a prefix
// matches several units.
func (s *Store) ReadUnit(ctx context.Context, id string) (Record, error) {
	if id == "" {
		return Record{}, fmt.Errorf("read unit: %w", ErrNotFound)
	}

	row := s.db.QueryRowContext(ctx, `SELECT `+unitColumns+` FROM units WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("read unit: %w", err)
	}

	// Fall back to prefix lookup. Escape LIKE metacharacters so ids are
	// matched literally.
	pattern := escapeLike(id) + "%"
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+unitColumns+`
		FROM units
		WHERE id LIKE ? ESCAPE '\'
		ORDER BY seq ASC, id COLLATE BINARY ASC
		LIMIT 2
	`, pattern)
	if err != nil {
		return Record{}, fmt.Errorf("read unit: query prefix: %w", err)
	}
	defer rows.Close()

	var matches []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return Record{}, fmt.Errorf("read unit: %w", err)
		}
		matches = append(matches, rec)
	}
	if err := rows.Err(); err != nil {
		return Record{}, fmt.Errorf("read unit: iterate: %w", err)
	}

	switch len(matches) {
	case 0:
		return Record{}, fmt.Errorf("read unit %q: %w", id, ErrNotFound)
	case 1:
		return matches[0], nil
	default:
		return Record{}, fmt.Errorf("read unit %q: %w", id, ErrAmbiguous)
	}
}

// ListUnits returns the most recent units first, ordered by
// seq DESC, id COLLATE BINARY ASC. A limit <= 0 returns every unit.
//
// Returns an empty slice (not nil) if the store is empty.
func (s *Store) ListUnits(ctx context.Context, limit int) ([]Record, error) {
	query := `SELECT ` + unitColumns + ` FROM units ORDER BY seq DESC, id COLLATE BINARY ASC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list units: %w", err)
	}
	defer rows.Close()

	return collectRecords(rows)
}

// ListUnitsForRun returns the units first recorded by runID in seq order.
func (s *Store) ListUnitsForRun(ctx context.Context, runID string) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+unitColumns+`
		FROM units
		WHERE run_id = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("list units for run: %w", err)
	}
	defer rows.Close()

	return collectRecords(rows)
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (Record, error) {
	var rec Record
	var irJSON string

	if err := row.Scan(
		&rec.ID, &rec.RunID, &rec.SourcePath, &rec.Source, &rec.Postfix,
		&irJSON, &rec.Seq, &rec.CompilerVersion, &rec.IRVersion,
	); err != nil {
		return Record{}, err
	}

	prog, err := unmarshalProgram(irJSON)
	if err != nil {
		return Record{}, fmt.Errorf("unit %s: %w", rec.ID, err)
	}
	rec.Program = prog

	return rec, nil
}

func collectRecords(rows *sql.Rows) ([]Record, error) {
	records := []Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate units: %w", err)
	}
	return records, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
