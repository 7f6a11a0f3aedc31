// Package store provides SQLite-backed history of vx compilation units.
//
// Each successfully compiled source is recorded once, keyed by the content
// hash of its IR program (ir.Hash). Recompiling identical source is a no-op
// write: the first run that produced the program keeps ownership.
//
// # Ordering
//
// All ordering uses seq INTEGER (a logical clock assigned as MAX(seq)+1),
// never timestamps, so listings are identical across machines. Ties are
// broken by id COLLATE BINARY.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON
//
// The ir column holds canonical JSON produced by ir.MarshalProgram, so a
// stored program decodes back to a value equal to the one compiled.
package store
