package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/vx/internal/compiler"
	"github.com/roach88/vx/internal/testutil"
)

// createTestStore creates a new temporary store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// compileRecord compiles src with a fixed run ID and returns its Record.
func compileRecord(t *testing.T, src, runID string) Record {
	t.Helper()
	unit, err := compiler.Compile(src, compiler.WithRunIDGenerator(testutil.NewFixedRunIDGenerator(runID)))
	if err != nil {
		t.Fatalf("Compile(%q) failed: %v", src, err)
	}
	return RecordFromUnit(unit)
}
