package harness

import (
	"bytes"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/vx/internal/ir"
)

// Snapshot captures a scenario's compilation output for golden comparison.
// The IR is embedded as canonical JSON so snapshots change exactly when
// the content address changes.
type Snapshot struct {
	ScenarioName string          `json:"scenario_name"`
	Source       string          `json:"source"`
	Postfix      string          `json:"postfix,omitempty"`
	IR           json.RawMessage `json:"ir,omitempty"`
	Hash         string          `json:"hash,omitempty"`
	Error        string          `json:"error,omitempty"`
	Message      string          `json:"message,omitempty"`
}

// NewSnapshot builds the snapshot of a result.
func NewSnapshot(name string, result *Result) (*Snapshot, error) {
	snap := &Snapshot{
		ScenarioName: name,
		Source:       result.Source,
	}
	if result.Failed() {
		snap.Error = result.ErrorCode
		snap.Message = result.ErrorMessage
		return snap, nil
	}

	canonical, err := ir.MarshalProgram(result.Unit.Program)
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", name, err)
	}
	snap.Postfix = result.Postfix
	snap.IR = canonical
	snap.Hash = result.Hash
	return snap, nil
}

// Marshal renders the snapshot as two-space indented JSON with a trailing
// newline and without HTML escaping.
func (s *Snapshot) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	return buf.Bytes(), nil
}

// SnapshotBytes runs NewSnapshot and Marshal.
func SnapshotBytes(name string, result *Result) ([]byte, error) {
	snap, err := NewSnapshot(name, result)
	if err != nil {
		return nil, err
	}
	return snap.Marshal()
}

// RunWithGolden executes a scenario and compares its snapshot against a
// golden file stored in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns the result so callers can also assert on expectations.
// Test failure (via goldie) occurs if the snapshot doesn't match.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}

	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := SnapshotBytes(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)

	return nil
}
