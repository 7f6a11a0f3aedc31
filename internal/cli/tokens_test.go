package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokensText(t *testing.T) {
	src := writeFile(t, t.TempDir(), "calc.vx", "n = 1_000.5\n")

	buf := &bytes.Buffer{}
	cmd := NewTokensCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{src})
	require.NoError(t, cmd.Execute())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, []string{"POSITION", "KIND", "TEXT"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"1:1", "Identifier", "n"}, strings.Fields(lines[1]))
	assert.Equal(t, []string{"1:3", "Operator", "="}, strings.Fields(lines[2]))
	assert.Equal(t, []string{"1:5", "NumericLiteral", "1_000.5"}, strings.Fields(lines[3]))
	assert.Equal(t, []string{"2:1", "EndOfInput", "EOF"}, strings.Fields(lines[4]))
}

func TestTokensJSON(t *testing.T) {
	src := writeFile(t, t.TempDir(), "calc.vx", "(a)")

	buf := &bytes.Buffer{}
	cmd := NewTokensCommand(&RootOptions{Format: "json"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{src})
	require.NoError(t, cmd.Execute())

	var resp struct {
		Status string      `json:"status"`
		Data   []TokenView `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, []TokenView{
		{Kind: "Operator", Text: "(", Line: 1, Column: 1},
		{Kind: "Identifier", Text: "a", Line: 1, Column: 2},
		{Kind: "Operator", Text: ")", Line: 1, Column: 3},
		{Kind: "EndOfInput", Line: 1, Column: 4},
	}, resp.Data)
}

func TestTokensLexError(t *testing.T) {
	src := writeFile(t, t.TempDir(), "bad.vx", "1 @ 2")

	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd := NewTokensCommand(&RootOptions{Format: "text"})
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs([]string{src})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, errOut.String(), ":1:3: E201 UNEXPECTED_CHARACTER")
	assert.Empty(t, out.String())
}
