package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/vx/internal/ir"
	"github.com/roach88/vx/internal/store"
)

// ShowOptions holds flags for the show command.
type ShowOptions struct {
	*RootOptions
	Database string
}

// UnitDetail is the full view of one recorded unit.
type UnitDetail struct {
	ID              string          `json:"id"`
	Seq             int64           `json:"seq"`
	RunID           string          `json:"run_id"`
	SourcePath      string          `json:"source_path,omitempty"`
	Source          string          `json:"source"`
	Postfix         string          `json:"postfix"`
	IR              json.RawMessage `json:"ir"`
	CompilerVersion string          `json:"compiler_version"`
	IRVersion       string          `json:"ir_version"`
	Statements      []StatementView `json:"statements"`
}

// StatementView is one top-level statement of a unit. Hash is the
// statement's own content address, so the same statement recorded in
// different units shares it.
type StatementView struct {
	Hash string `json:"hash"`
	Text string `json:"text"`
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ShowOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "show <id-or-prefix>",
		Short: "Show a recorded compilation unit",
		Long: `Show one recorded unit: its source, postfix sequence and IR.

The unit is selected by its full id or by any unique id prefix.

Examples:
  vx show 640bd14e --db ./vx.db
  vx show 640bd14edef9f522 --db ./vx.db --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default from vx.cue, else vx.db)")

	return cmd
}

func runShow(opts *ShowOptions, id string, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	st, err := openExistingStore(formatter, opts.dbPath(opts.Database))
	if err != nil {
		return err
	}
	defer st.Close()

	rec, err := st.ReadUnit(ctx, id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return outputCommandError(formatter, ErrCodeNotFound, fmt.Sprintf("no unit matches %q", id))
	case errors.Is(err, store.ErrAmbiguous):
		return outputCommandError(formatter, ErrCodeNotFound, fmt.Sprintf("id prefix %q is ambiguous", id))
	case err != nil:
		return outputCommandError(formatter, ErrCodeStore, fmt.Sprintf("reading unit: %v", err))
	}

	irJSON, err := ir.MarshalProgram(rec.Program)
	if err != nil {
		return outputCommandError(formatter, ErrCodeGeneric, fmt.Sprintf("marshaling IR: %v", err))
	}

	statements, err := statementViews(rec.Program)
	if err != nil {
		return outputCommandError(formatter, ErrCodeGeneric, fmt.Sprintf("hashing statements: %v", err))
	}

	detail := UnitDetail{
		ID:              rec.ID,
		Seq:             rec.Seq,
		RunID:           rec.RunID,
		SourcePath:      rec.SourcePath,
		Source:          rec.Source,
		Postfix:         rec.Postfix,
		IR:              irJSON,
		CompilerVersion: rec.CompilerVersion,
		IRVersion:       rec.IRVersion,
		Statements:      statements,
	}

	if formatter.Format == "json" {
		return formatter.Success(detail)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "Unit %s\n", detail.ID)
	fmt.Fprintf(w, "  Seq:     %d\n", detail.Seq)
	fmt.Fprintf(w, "  Run:     %s\n", detail.RunID)
	if detail.SourcePath != "" {
		fmt.Fprintf(w, "  Path:    %s\n", detail.SourcePath)
	}
	fmt.Fprintf(w, "  Version: compiler %s, ir %s\n", detail.CompilerVersion, detail.IRVersion)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Source:")
	fmt.Fprintf(w, "  %s\n", strings.TrimRight(detail.Source, "\n"))
	fmt.Fprintln(w, "Postfix:")
	fmt.Fprintf(w, "  %s\n", detail.Postfix)
	fmt.Fprintln(w, "Statements:")
	for _, st := range detail.Statements {
		fmt.Fprintf(w, "  %s  %s\n", shortID(st.Hash), st.Text)
	}
	fmt.Fprintln(w, "IR:")
	fmt.Fprintln(w, rec.Program.String())
	return nil
}

func statementViews(p *ir.Program) ([]StatementView, error) {
	stmts := p.Statements()
	views := make([]StatementView, 0, len(stmts))
	for _, n := range stmts {
		h, err := ir.NodeHash(n)
		if err != nil {
			return nil, err
		}
		views = append(views, StatementView{Hash: h, Text: ir.Format(n)})
	}
	return views, nil
}
