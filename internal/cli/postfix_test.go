package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostfixCommand(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"1 + 2 * 3", "1 2 3 * + end"},
		{"(1 + 2) * 3", "1 2 + 3 * end"},
		{"a = b = 3", "a b 3 = = end"},
		{"10 - 4 - 3", "10 4 - 3 - end"},
		// Generation is not run, so an operand shortage still prints.
		{"1 +", "1 + end"},
		{"", "end"},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			src := writeFile(t, t.TempDir(), "in.vx", tt.src)

			buf := &bytes.Buffer{}
			cmd := NewPostfixCommand(&RootOptions{Format: "text"})
			cmd.SetOut(buf)
			cmd.SetArgs([]string{src})
			require.NoError(t, cmd.Execute())
			assert.Equal(t, tt.want+"\n", buf.String())
		})
	}
}

func TestPostfixJSON(t *testing.T) {
	src := writeFile(t, t.TempDir(), "in.vx", "x = 1.5")

	buf := &bytes.Buffer{}
	cmd := NewPostfixCommand(&RootOptions{Format: "json"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{src})
	require.NoError(t, cmd.Execute())

	var resp struct {
		Data PostfixResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "x 1.5 = end", resp.Data.Postfix)
	assert.Equal(t, []string{"x", "1.5", "=", "end"}, resp.Data.Entities)
}

func TestPostfixParseError(t *testing.T) {
	src := writeFile(t, t.TempDir(), "bad.vx", "1 + 2)")

	errOut := &bytes.Buffer{}
	cmd := NewPostfixCommand(&RootOptions{Format: "text"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(errOut)
	cmd.SetArgs([]string{src})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, errOut.String(), ":1:6: E203 UNBALANCED_PARENTHESES")
	assert.Contains(t, errOut.String(), "       ^")
}
