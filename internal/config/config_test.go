package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "main.vx", cfg.Source)
	assert.Equal(t, "text", cfg.Format)
	assert.Equal(t, "vx.db", cfg.DB)
	assert.False(t, cfg.Verbose)
	assert.Empty(t, cfg.Path)
}

func TestLoad_AllFields(t *testing.T) {
	path := writeConfig(t, `
source:  "calc.vx"
format:  "json"
db:      "history.db"
verbose: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Config{
		Source:  "calc.vx",
		Format:  "json",
		DB:      "history.db",
		Verbose: true,
		Path:    path,
	}, cfg)
}

func TestLoad_PartialKeepsDefaults(t *testing.T) {
	path := writeConfig(t, `format: "json"`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, DefaultSource, cfg.Source)
	assert.Equal(t, DefaultDB, cfg.DB)
}

func TestLoad_Empty(t *testing.T) {
	path := writeConfig(t, "")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultSource, cfg.Source)
	assert.Equal(t, path, cfg.Path)
}

func TestLoad_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown field", `colour: "red"`},
		{"bad format", `format: "yaml"`},
		{"wrong type", `verbose: "yes"`},
		{"empty source", `source: ""`},
		{"syntax error", `source: `},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)

			var ce *Error
			assert.True(t, errors.As(err, &ce))
		})
	}
}

func TestLoad_ErrorHasPosition(t *testing.T) {
	path := writeConfig(t, "source: \"a.vx\"\nformat: 42\n")

	_, err := Load(path)
	require.Error(t, err)

	var ce *Error
	require.ErrorAs(t, err, &ce)
	assert.True(t, ce.Pos.IsValid())
	assert.Contains(t, err.Error(), "format")
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.cue"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")

	_, err = Load(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "directory")
}

func TestDiscover(t *testing.T) {
	cfg, err := Discover(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	path := writeConfig(t, `db: "other.db"`)
	cfg, err = Discover(filepath.Dir(path))
	require.NoError(t, err)
	assert.Equal(t, "other.db", cfg.DB)
	assert.Equal(t, path, cfg.Path)
}
