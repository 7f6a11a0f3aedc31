package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/vx/internal/compiler"
	"github.com/roach88/vx/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
	Limit    int
	RunID    string
	Verify   bool // recompile every unit and compare hashes
}

// UnitSummary is one row of the history listing.
type UnitSummary struct {
	ID         string `json:"id"`
	Seq        int64  `json:"seq"`
	RunID      string `json:"run_id"`
	SourcePath string `json:"source_path,omitempty"`
	Postfix    string `json:"postfix"`
	// Verified is set only with --verify.
	Verified *bool `json:"verified,omitempty"`
}

// HistoryResult holds the history listing. Total counts every recorded
// unit, not only the listed ones. Verification covers the whole history,
// so NotReproduced may include units the listing left out.
type HistoryResult struct {
	Units         []UnitSummary `json:"units"`
	Total         int           `json:"total"`
	NotReproduced []string      `json:"not_reproduced,omitempty"`
	AllReproduced bool          `json:"all_reproduced"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded compilation units",
		Long: `List compilation units recorded with "vx compile --db", newest first.

With --run only the units first recorded by that run are listed.

With --verify every recorded source is recompiled in recording order and
its IR hash compared with the recorded id, checking that the compiler
still reproduces its history. Verification always covers the whole
database, whatever --limit or --run select for display.

Exit codes:
  0 - Listed (and, with --verify, every unit reproduced)
  1 - A recorded unit no longer reproduces
  2 - Command error (database not found, etc.)

Examples:
  vx history --db ./vx.db
  vx history --db ./vx.db --limit 5
  vx history --db ./vx.db --run 0192f3c4-7d1e-7a00-8000-000000000000
  vx history --db ./vx.db --verify --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default from vx.cue, else vx.db)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "show at most n units (0 = all)")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "list only units first recorded by this run id")
	cmd.Flags().BoolVar(&opts.Verify, "verify", false, "recompile recorded sources and compare hashes")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
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

	records, err := listHistory(ctx, st, opts.RunID, opts.Limit)
	if err != nil {
		return outputCommandError(formatter, ErrCodeStore, fmt.Sprintf("listing units: %v", err))
	}

	total, err := st.CountUnits(ctx)
	if err != nil {
		return outputCommandError(formatter, ErrCodeStore, fmt.Sprintf("counting units: %v", err))
	}

	result := HistoryResult{
		Units:         make([]UnitSummary, 0, len(records)),
		Total:         total,
		AllReproduced: true,
	}
	for _, rec := range records {
		result.Units = append(result.Units, UnitSummary{
			ID:         rec.ID,
			Seq:        rec.Seq,
			RunID:      rec.RunID,
			SourcePath: rec.SourcePath,
			Postfix:    rec.Postfix,
		})
	}

	if opts.Verify {
		verified, failed, err := verifyUnits(ctx, st, opts.logger())
		if err != nil {
			return outputCommandError(formatter, ErrCodeStore, fmt.Sprintf("replaying units: %v", err))
		}
		for i := range result.Units {
			ok := verified[result.Units[i].ID]
			result.Units[i].Verified = &ok
		}
		result.NotReproduced = failed
		result.AllReproduced = len(failed) == 0
	}

	if opts.Format == "json" {
		return outputHistoryJSON(cmd, result)
	}
	return outputHistoryText(cmd, result, opts.Verbose)
}

// openExistingStore opens a history database that must already exist.
// store.Open would otherwise create an empty one.
func openExistingStore(formatter *OutputFormatter, path string) (*store.Store, error) {
	if path != ":memory:" {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return nil, outputCommandError(formatter, ErrCodeNotFound, fmt.Sprintf("database not found: %s", path))
		}
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, outputCommandError(formatter, ErrCodeStore, fmt.Sprintf("opening database: %v", err))
	}
	return st, nil
}

// listHistory returns the units to display, newest first. With a run id
// only that run's units are listed; limit applies either way.
func listHistory(ctx context.Context, st *store.Store, runID string, limit int) ([]store.Record, error) {
	if runID == "" {
		return st.ListUnits(ctx, limit)
	}
	records, err := st.ListUnitsForRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	slices.Reverse(records)
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// verifyUnits replays every recorded unit in seq order, recompiles its
// source and reports whether the resulting hash equals the recorded id.
// failed lists the ids that did not reproduce, in seq order.
func verifyUnits(ctx context.Context, st *store.Store, logger *slog.Logger) (verified map[string]bool, failed []string, err error) {
	verified = make(map[string]bool)
	err = st.ReplayUnits(ctx, func(rec store.Record) error {
		unit, err := compiler.Compile(rec.Source, compiler.WithPath(rec.SourcePath))
		ok := err == nil && unit.Hash == rec.ID
		logger.Debug("history: verify", "id", rec.ID, "seq", rec.Seq, "reproduced", ok)
		verified[rec.ID] = ok
		if !ok {
			failed = append(failed, rec.ID)
		}
		return nil
	})
	return verified, failed, err
}

// outputHistoryJSON outputs the history listing as JSON.
func outputHistoryJSON(cmd *cobra.Command, result HistoryResult) error {
	response := CLIResponse{
		Status: "ok",
		Data:   result,
	}

	if !result.AllReproduced {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    "E_NOT_REPRODUCED",
			Message: "recorded units no longer reproduce",
		}
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(response); err != nil {
		return err
	}

	if !result.AllReproduced {
		return NewExitError(ExitFailure, "history verification failed")
	}
	return nil
}

// outputHistoryText outputs the history listing as text.
func outputHistoryText(cmd *cobra.Command, result HistoryResult, verbose bool) error {
	w := cmd.OutOrStdout()

	if result.Total == 0 {
		fmt.Fprintln(w, "No units recorded.")
		return nil
	}

	if len(result.Units) == result.Total {
		fmt.Fprintf(w, "History: %d unit(s)\n", result.Total)
	} else {
		fmt.Fprintf(w, "History: %d of %d unit(s)\n", len(result.Units), result.Total)
	}
	fmt.Fprintln(w)

	for _, u := range result.Units {
		status := " "
		if u.Verified != nil {
			status = "✓"
			if !*u.Verified {
				status = "✗"
			}
		}

		fmt.Fprintf(w, "%s %4d  %s  %s\n", status, u.Seq, shortID(u.ID), u.Postfix)
		if verbose {
			fmt.Fprintf(w, "        id: %s\n", u.ID)
			fmt.Fprintf(w, "        run: %s\n", u.RunID)
			if u.SourcePath != "" {
				fmt.Fprintf(w, "        source: %s\n", u.SourcePath)
			}
		}
	}

	if result.AllReproduced {
		return nil
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "✗ History verification failed: %d of %d unit(s) no longer reproduce\n",
		len(result.NotReproduced), result.Total)
	if verbose {
		for _, id := range result.NotReproduced {
			fmt.Fprintf(w, "    %s\n", id)
		}
	}
	return NewExitError(ExitFailure, "history verification failed")
}
