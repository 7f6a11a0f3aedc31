// Package config loads the optional vx.cue project file.
//
// A project file sets defaults for the CLI:
//
//	source:  "main.vx"
//	format:  "text"
//	db:      "vx.db"
//	verbose: false
//
// Every field is optional. Unknown fields are rejected. Explicit command-line
// flags always win over values from the file.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"
)

// FileName is the project file looked up in the working directory.
const FileName = "vx.cue"

// Built-in defaults.
const (
	DefaultSource = "main.vx"
	DefaultFormat = "text"
	DefaultDB     = "vx.db"
)

// schema closes the accepted field set.
const schema = `
#Config: {
	source?:  string & !=""
	format?:  "text" | "json"
	db?:      string & !=""
	verbose?: bool
}
`

// Config holds project-level defaults.
type Config struct {
	Source  string
	Format  string
	DB      string
	Verbose bool

	// Path is the file the values came from, empty for built-in defaults.
	Path string
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Source: DefaultSource,
		Format: DefaultFormat,
		DB:     DefaultDB,
	}
}

// Error is a configuration problem, positioned in the CUE source when
// the position is known.
type Error struct {
	Message string
	Pos     token.Pos
}

func (e *Error) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Message)
	}
	return e.Message
}

// Find returns the path of FileName inside dir and whether it exists.
func Find(dir string) (string, bool) {
	path := filepath.Join(dir, FileName)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return path, false
	}
	return path, true
}

// Discover loads FileName from dir if present, else returns Default.
func Discover(dir string) (Config, error) {
	path, ok := Find(dir)
	if !ok {
		return Default(), nil
	}
	return Load(path)
}

// Load reads a CUE project file. Fields the file omits keep their
// built-in defaults.
func Load(path string) (Config, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Config{}, &Error{Message: fmt.Sprintf("config file not found: %s", path)}
	}
	if info.IsDir() {
		return Config{}, &Error{Message: fmt.Sprintf("config path is a directory: %s", path)}
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{filepath.Base(path)}, &load.Config{Dir: filepath.Dir(path)})
	if len(instances) == 0 {
		return Config{}, &Error{Message: "no CUE instances loaded"}
	}
	inst := instances[0]
	if inst.Err != nil {
		return Config{}, fromCUE(inst.Err)
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return Config{}, fromCUE(err)
	}

	def := ctx.CompileString(schema).LookupPath(cue.ParsePath("#Config"))
	value = def.Unify(value)
	if err := value.Validate(cue.Concrete(true)); err != nil {
		return Config{}, fromCUE(err)
	}

	cfg := Default()
	cfg.Path = path
	if err := decode(value, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decode(v cue.Value, cfg *Config) error {
	strs := []struct {
		name string
		dst  *string
	}{
		{"source", &cfg.Source},
		{"format", &cfg.Format},
		{"db", &cfg.DB},
	}
	for _, f := range strs {
		fv := v.LookupPath(cue.ParsePath(f.name))
		if !fv.Exists() {
			continue
		}
		s, err := fv.String()
		if err != nil {
			return fromCUE(err)
		}
		*f.dst = s
	}

	if fv := v.LookupPath(cue.ParsePath("verbose")); fv.Exists() {
		b, err := fv.Bool()
		if err != nil {
			return fromCUE(err)
		}
		cfg.Verbose = b
	}
	return nil
}

// fromCUE keeps the first CUE error and its position.
func fromCUE(err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &Error{Message: err.Error()}
	}
	first := errs[0]
	ce := &Error{Message: first.Error()}
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		ce.Pos = positions[0]
	}
	return ce
}
