package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/vx/internal/ir"
)

func TestShowCommandByPrefix(t *testing.T) {
	db, units := seedHistory(t, "total = (a + 1_000) / 2.5")

	buf := &bytes.Buffer{}
	cmd := NewShowCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{units[0].Hash[:10], "--db", db})
	require.NoError(t, cmd.Execute())

	out := buf.String()
	assert.Contains(t, out, "Unit "+units[0].Hash)
	assert.Contains(t, out, "Seq:     1")
	assert.Contains(t, out, "Run:     run-1")
	assert.Contains(t, out, "  total = (a + 1_000) / 2.5\n")
	assert.Contains(t, out, "  total a 1000 + 2.5 / = end\n")
	assert.Contains(t, out, "(store total (div (add a 1000) 2.5))\n(exit 0)\n")
	assert.Contains(t, out, "Statements:\n  ")
	assert.Contains(t, out, "  (store total (div (add a 1000) 2.5))\nIR:")
}

func TestShowCommandStatementHashes(t *testing.T) {
	// Both units open with the statement 7, which must hash the same in each.
	db, units := seedHistory(t, "7 x", "7 y")

	statements := func(id string) []StatementView {
		buf := &bytes.Buffer{}
		cmd := NewShowCommand(&RootOptions{Format: "json"})
		cmd.SetOut(buf)
		cmd.SetArgs([]string{id, "--db", db})
		require.NoError(t, cmd.Execute())

		var resp struct {
			Data UnitDetail `json:"data"`
		}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
		return resp.Data.Statements
	}

	first := statements(units[0].Hash)
	second := statements(units[1].Hash)
	require.Len(t, first, 2)
	require.Len(t, second, 2)

	assert.Equal(t, "7", first[0].Text)
	assert.Equal(t, "x", first[1].Text)
	assert.Equal(t, first[0].Hash, second[0].Hash)
	assert.NotEqual(t, first[1].Hash, second[1].Hash)

	want, err := ir.NodeHash(ir.IntegerLiteral(7))
	require.NoError(t, err)
	assert.Equal(t, want, first[0].Hash)
}

func TestShowCommandJSON(t *testing.T) {
	db, units := seedHistory(t, "4 / 2")

	buf := &bytes.Buffer{}
	cmd := NewShowCommand(&RootOptions{Format: "json"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{units[0].Hash, "--db", db})
	require.NoError(t, cmd.Execute())

	var resp struct {
		Status string     `json:"status"`
		Data   UnitDetail `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "4 / 2", resp.Data.Source)
	assert.Equal(t, ir.CompilerVersion, resp.Data.CompilerVersion)
	assert.Equal(t, ir.IRVersion, resp.Data.IRVersion)

	prog, err := ir.UnmarshalProgram(resp.Data.IR)
	require.NoError(t, err)
	assert.Equal(t, units[0].Hash, ir.MustHash(prog))
}

func TestShowCommandNotFound(t *testing.T) {
	db, _ := seedHistory(t, "1")

	buf := &bytes.Buffer{}
	cmd := NewShowCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"zzzz", "--db", db})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, buf.String(), `Error [E005]: no unit matches "zzzz"`)
}

func TestShowCommandAmbiguousPrefix(t *testing.T) {
	sources := make([]string, 17)
	for i := range sources {
		sources[i] = fmt.Sprintf("%d", i)
	}
	db, units := seedHistory(t, sources...)

	// 17 hex ids cannot all have distinct first characters.
	seen := map[byte]bool{}
	var prefix string
	for _, u := range units {
		if seen[u.Hash[0]] {
			prefix = u.Hash[:1]
			break
		}
		seen[u.Hash[0]] = true
	}
	require.NotEmpty(t, prefix)

	buf := &bytes.Buffer{}
	cmd := NewShowCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{prefix, "--db", db})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, buf.String(), "is ambiguous")
}
