package store

import (
	"fmt"

	"github.com/roach88/vx/internal/compiler"
	"github.com/roach88/vx/internal/ir"
)

// Record is one row of the units table.
type Record struct {
	ID              string
	RunID           string
	SourcePath      string
	Source          string
	Postfix         string
	Program         *ir.Program
	Seq             int64
	CompilerVersion string
	IRVersion       string
}

// RecordFromUnit builds a Record from a compiled unit. Seq is left zero so
// WriteUnit assigns the next logical clock value.
func RecordFromUnit(u *compiler.Unit) Record {
	return Record{
		ID:              u.Hash,
		RunID:           u.RunID,
		SourcePath:      u.Path,
		Source:          u.Source,
		Postfix:         u.Postfix.String(),
		Program:         u.Program,
		CompilerVersion: ir.CompilerVersion,
		IRVersion:       ir.IRVersion,
	}
}

// marshalProgram converts a program to canonical JSON TEXT for storage.
func marshalProgram(p *ir.Program) (string, error) {
	data, err := ir.MarshalProgram(p)
	if err != nil {
		return "", fmt.Errorf("marshal program: %w", err)
	}
	return string(data), nil
}

// unmarshalProgram parses canonical JSON TEXT back into a program.
func unmarshalProgram(data string) (*ir.Program, error) {
	p, err := ir.UnmarshalProgram([]byte(data))
	if err != nil {
		return nil, fmt.Errorf("unmarshal program: %w", err)
	}
	return p, nil
}
