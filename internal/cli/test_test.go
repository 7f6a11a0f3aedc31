package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const passingScenario = `name: mul_first
description: "* binds tighter than +"
source: "1 + 2 * 3"
expect:
  postfix: "1 2 3 * + end"
  value: 7
`

const failingScenario = `name: wrong_value
description: "expects the wrong value"
source: "1 + 2 * 3"
expect:
  value: 9
`

func TestTestCommandMissingArgs(t *testing.T) {
	cmd := NewTestCommand(&RootOptions{Format: "text"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestTestCommandNonExistentScenariosDir(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewTestCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"/nonexistent/scenarios"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "scenarios directory not found")
}

func TestTestCommandEmptyDir(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewTestCommand(&RootOptions{Format: "json"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{t.TempDir()})

	require.NoError(t, cmd.Execute())

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 0, resp.Data.Total)
}

func TestTestCommandPassAndFail(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "mul_first.yaml", passingScenario)
	writeFile(t, dir, "wrong_value.yaml", failingScenario)

	buf := &bytes.Buffer{}
	cmd := NewTestCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{dir})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	out := buf.String()
	assert.Contains(t, out, "✓ mul_first")
	assert.Contains(t, out, "✗ wrong_value")
	assert.Contains(t, out, "value mismatch: expected 9, got 7")
	assert.Contains(t, out, "Scenarios: 1 passed, 1 failed, 2 total")
}

func TestTestCommandFilter(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "mul_first.yaml", passingScenario)
	writeFile(t, dir, "wrong_value.yaml", failingScenario)

	buf := &bytes.Buffer{}
	cmd := NewTestCommand(&RootOptions{Format: "json"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{dir, "--filter", "mul_*"})

	require.NoError(t, cmd.Execute())

	var resp struct {
		Data TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, 1, resp.Data.Total)
	assert.Equal(t, "mul_first", resp.Data.Scenarios[0].Name)
}

func TestTestCommandGoldenUpdateAndCompare(t *testing.T) {
	dir := t.TempDir()
	scenarioFile := writeFile(t, dir, "mul_first.yaml", passingScenario)

	// --update writes the golden file
	cmd := NewTestCommand(&RootOptions{Format: "text"})
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetArgs([]string{dir, "--update"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "✓ mul_first (golden updated)")

	goldenPath := goldenFilePath(scenarioFile)
	assert.Equal(t, filepath.Join(dir, "golden", "mul_first.golden"), goldenPath)
	golden, err := os.ReadFile(goldenPath)
	require.NoError(t, err)
	assert.Contains(t, string(golden), `"scenario_name": "mul_first"`)

	// A matching golden passes
	cmd = NewTestCommand(&RootOptions{Format: "text"})
	buf = &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetArgs([]string{dir})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "✓ All scenarios passed")

	// A stale golden fails
	require.NoError(t, os.WriteFile(goldenPath, []byte("{}\n"), 0644))
	cmd = NewTestCommand(&RootOptions{Format: "text"})
	buf = &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetArgs([]string{dir})
	err = cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, buf.String(), "golden file mismatch: "+goldenPath)
}

func TestTestCommandGoldenStatesJSON(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "mul_first.yaml", passingScenario)
	writeFile(t, dir, "underflow.yaml", `name: underflow
description: "trailing operator"
source: "1 +"
expect:
  error: STACK_UNDERFLOW
`)

	cmd := NewTestCommand(&RootOptions{Format: "json"})
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetArgs([]string{dir, "--update", "--filter", "mul_*"})
	require.NoError(t, cmd.Execute())

	cmd = NewTestCommand(&RootOptions{Format: "json"})
	buf = &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetArgs([]string{dir})
	require.NoError(t, cmd.Execute())

	var resp struct {
		Data TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	require.Len(t, resp.Data.Scenarios, 2)

	// Files run in lexical order.
	mul, under := resp.Data.Scenarios[0], resp.Data.Scenarios[1]
	assert.Equal(t, "mul_first", mul.Name)
	assert.Equal(t, GoldenMatch, mul.Golden)
	assert.Equal(t, "1 2 3 * + end", mul.Postfix)

	assert.Equal(t, "underflow", under.Name)
	assert.Equal(t, GoldenAbsent, under.Golden)
	assert.Equal(t, "STACK_UNDERFLOW", under.ErrorCode)
	assert.True(t, under.Pass)
}

func TestTestCommandUpdateKeepsFailures(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "wrong_value.yaml", failingScenario)

	buf := &bytes.Buffer{}
	cmd := NewTestCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{dir, "--update"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, buf.String(), "✗ wrong_value (golden updated)")
	assert.Contains(t, buf.String(), "Scenarios: 0 passed, 1 failed, 1 total, 1 golden file(s) updated")
}

func TestTestCommandInvalidFilter(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewTestCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{t.TempDir(), "--filter", "["})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, buf.String(), "invalid filter pattern")
}

func TestTestCommandSourceFileRelativeToScenario(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "nested/prog.vx", "2 * 21")
	writeFile(t, dir, "nested/from_file.yaml", `name: from_file
description: "source next to the scenario"
source_file: prog.vx
expect:
  value: 42
`)

	buf := &bytes.Buffer{}
	cmd := NewTestCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{dir})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "✓ from_file")
}

func TestTestCommandProjectScenarios(t *testing.T) {
	scenariosDir := filepath.Join("..", "..", "testdata", "scenarios")

	buf := &bytes.Buffer{}
	cmd := NewTestCommand(&RootOptions{Format: "json"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{scenariosDir})
	require.NoError(t, cmd.Execute(), buf.String())

	var resp struct {
		Data TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, resp.Data.Total, resp.Data.Passed)
	assert.Zero(t, resp.Data.Failed)
}
