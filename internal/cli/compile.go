package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/alecthomas/repr"
	"github.com/spf13/cobra"

	"github.com/roach88/vx/internal/compiler"
	"github.com/roach88/vx/internal/ir"
	"github.com/roach88/vx/internal/store"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output   string // output file path
	Database string // record the unit in this history database
	Dump     bool   // debug dump of postfix and IR to stderr

	// RunIDs overrides the run ID generator (for testing).
	// If nil, defaults to compiler.UUIDv7Generator.
	RunIDs compiler.RunIDGenerator
}

// CompilationResult is the JSON payload of a successful compile.
type CompilationResult struct {
	Path    string          `json:"path,omitempty"`
	Postfix string          `json:"postfix"`
	IR      json.RawMessage `json:"ir"`
	Hash    string          `json:"hash"`
	Seq     int64           `json:"seq,omitempty"`
	Output  string          `json:"output,omitempty"`
}

// CompileErrorDetails locates a compile error in the source.
type CompileErrorDetails struct {
	Path   string `json:"path,omitempty"`
	Stage  string `json:"stage"`
	Code   string `json:"code"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile [file]",
		Short: "Compile an expression to IR",
		Long: `Compile an infix expression file to the expression-tree IR.

Text output prints one s-expression per statement, ending with (exit 0).
JSON output carries the postfix sequence, the canonical IR and its hash.
Without a file argument the configured source (default main.vx) is used.

Exit codes:
  0 - Compiled
  1 - Compile error
  2 - Command error (file not found, write failure, database error)

Examples:
  vx compile calc.vx
  vx compile calc.vx -o calc.json
  vx compile calc.vx --db vx.db
  vx compile calc.vx --dump --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, opts.sourcePath(args), cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write canonical IR JSON to this file")
	cmd.Flags().StringVar(&opts.Database, "db", "", "record the compiled unit in this history database")
	cmd.Flags().BoolVar(&opts.Dump, "dump", false, "dump postfix and IR structures to stderr")

	return cmd
}

func runCompile(opts *CompileOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	src, err := readSource(formatter, path)
	if err != nil {
		return err
	}

	copts := []compiler.Option{
		compiler.WithLogger(opts.logger()),
		compiler.WithPath(path),
	}
	if opts.RunIDs != nil {
		copts = append(copts, compiler.WithRunIDGenerator(opts.RunIDs))
	}

	unit, err := compiler.Compile(src, copts...)
	if err != nil {
		return outputCompileFailure(formatter, path, src, err)
	}
	formatter.VerboseLog("Compiled %s: %d token(s), run %s", path, len(unit.Tokens), unit.RunID)

	if opts.Dump {
		w := formatter.GetErrWriter()
		fmt.Fprintln(w, repr.String(unit.Postfix, repr.Indent("  ")))
		fmt.Fprintln(w, repr.String(unit.Program, repr.Indent("  ")))
	}

	irJSON, err := ir.MarshalProgram(unit.Program)
	if err != nil {
		return outputCommandError(formatter, ErrCodeGeneric, fmt.Sprintf("marshaling IR: %v", err))
	}

	result := &CompilationResult{
		Path:    path,
		Postfix: unit.Postfix.String(),
		IR:      irJSON,
		Hash:    unit.Hash,
	}

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, irJSON, 0644); err != nil {
			return outputCommandError(formatter, ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err))
		}
		result.Output = opts.Output
	}

	if opts.Database != "" {
		seq, inserted, err := recordUnit(cmd.Context(), opts.Database, unit)
		if err != nil {
			return outputCommandError(formatter, ErrCodeStore, fmt.Sprintf("recording unit: %v", err))
		}
		result.Seq = seq
		if inserted {
			formatter.VerboseLog("Recorded unit %s at seq %d", shortID(unit.Hash), seq)
		} else {
			formatter.VerboseLog("Unit %s already recorded at seq %d", shortID(unit.Hash), seq)
		}
	}

	if formatter.Format == "json" {
		return json.NewEncoder(formatter.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   result,
			RunID:  unit.RunID,
		})
	}

	// Human-readable text output
	fmt.Fprintln(formatter.Writer, unit.Program.String())
	if result.Output != "" {
		fmt.Fprintf(formatter.Writer, "Wrote canonical IR to %s\n", result.Output)
	}
	if result.Seq != 0 {
		fmt.Fprintf(formatter.Writer, "Recorded %s (seq %d) in %s\n", shortID(unit.Hash), result.Seq, opts.Database)
	}
	return nil
}

// readSource loads a source file, reporting a missing file as E005.
func readSource(formatter *OutputFormatter, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", outputCommandError(formatter, ErrCodeNotFound, fmt.Sprintf("source file not found: %s", path))
		}
		return "", outputCommandError(formatter, ErrCodeGeneric, fmt.Sprintf("reading source: %v", err))
	}
	return string(data), nil
}

// recordUnit writes unit to the history database at dbPath.
func recordUnit(ctx context.Context, dbPath string, unit *compiler.Unit) (int64, bool, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return 0, false, err
	}
	defer st.Close()

	return st.WriteUnit(ctx, store.RecordFromUnit(unit))
}

// outputCompileFailure reports a compile error. Compile errors are
// failures (exit code 1), not command errors.
func outputCompileFailure(formatter *OutputFormatter, path, src string, err error) error {
	code := compileErrorCode(err)

	if formatter.Format == "json" {
		var details *CompileErrorDetails
		if d, ok := compiler.Diagnose(err); ok {
			details = &CompileErrorDetails{
				Path:   path,
				Stage:  d.Stage,
				Code:   d.Code,
				Line:   d.Pos.Line,
				Column: d.Pos.Column,
			}
		}
		_ = formatter.Error(code, err.Error(), details)
	} else {
		w := formatter.GetErrWriter()
		writeDiagnostic(w, path, src, err, isTerminal(w))
	}

	return WrapExitError(ExitFailure, code, err)
}

// outputCommandError outputs a command-level error (exit code 2).
func outputCommandError(formatter *OutputFormatter, code, message string) error {
	_ = formatter.Error(code, message, nil)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// shortID abbreviates a content hash for display.
func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
