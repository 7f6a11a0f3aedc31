package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/roach88/vx/internal/compiler"
	"github.com/roach88/vx/internal/ir"
	"github.com/roach88/vx/internal/store"
	"github.com/roach88/vx/internal/testutil"
)

// Harness is the scenario execution engine.
// It compiles with a fixed run ID so results are reproducible.
type Harness struct {
	store  *store.Store
	runIDs compiler.RunIDGenerator
	logger *slog.Logger
}

// Option configures a Run.
type Option func(*Harness)

// WithLogger traces compilation to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Harness) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// Run executes a scenario and returns the result.
//
// Each scenario runs against a fresh in-memory history store for isolation.
//
// Execution flow:
//  1. Resolve the source text (inline or from source_file)
//  2. Compile it with a fixed run ID
//  3. Check the expect clause
//  4. Evaluate assertions
//
// A compile error is a scenario outcome, not a Run error. Run only
// returns an error when the scenario cannot be executed at all.
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		store:  st,
		runIDs: testutil.NewFixedRunIDGenerator(scenario.RunID),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(h)
	}

	src, path, err := resolveSource(scenario)
	if err != nil {
		return nil, err
	}

	result := NewResult()
	result.Source = src
	unit, cerr := compiler.Compile(src,
		compiler.WithLogger(h.logger),
		compiler.WithRunIDGenerator(h.runIDs),
		compiler.WithPath(path),
	)
	if cerr != nil {
		result.ErrorCode = compiler.ErrorCode(cerr)
		result.ErrorMessage = cerr.Error()
	} else {
		result.Unit = unit
		result.Postfix = unit.Postfix.String()
		result.IR = unit.Program.String()
		result.Hash = unit.Hash
	}

	h.logger.Info("scenario compiled",
		"scenario", scenario.Name,
		"error_code", result.ErrorCode,
		"hash", result.Hash,
	)

	if scenario.Expect != nil {
		h.checkExpect(scenario.Expect, result)
	} else if cerr != nil {
		result.AddError(fmt.Sprintf("unexpected compile error: %v", cerr))
	}

	actx := &AssertionContext{
		Store: st,
		Ctx:   context.Background(),
	}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}

	return result, nil
}

// resolveSource returns the scenario's program text and its path, if any.
func resolveSource(s *Scenario) (src, path string, err error) {
	if s.SourceFile == "" {
		return s.Source, "", nil
	}
	data, err := os.ReadFile(s.SourceFile)
	if err != nil {
		return "", "", fmt.Errorf("failed to read source file: %w", err)
	}
	return string(data), s.SourceFile, nil
}

// checkExpect compares the compilation outcome with the expect clause.
func (h *Harness) checkExpect(exp *ExpectClause, result *Result) {
	if exp.Error != "" {
		switch {
		case !result.Failed():
			result.AddError(fmt.Sprintf("expected error %s, compilation succeeded", exp.Error))
		case result.ErrorCode != exp.Error:
			result.AddError(fmt.Sprintf("expected error %s, got %s (%s)", exp.Error, result.ErrorCode, result.ErrorMessage))
		}
		return
	}

	if result.Failed() {
		result.AddError(fmt.Sprintf("unexpected compile error: %s", result.ErrorMessage))
		return
	}

	if exp.Postfix != nil && *exp.Postfix != result.Postfix {
		result.AddError(fmt.Sprintf("postfix mismatch:\n  Expected: %s\n  Actual: %s", *exp.Postfix, result.Postfix))
	}

	stmts := result.Unit.Program.Statements()
	if exp.IR != nil {
		got := formatStatements(stmts)
		if strings.TrimSpace(*exp.IR) != got {
			result.AddError(fmt.Sprintf("ir mismatch:\n  Expected: %s\n  Actual: %s", strings.TrimSpace(*exp.IR), got))
		}
	}

	if exp.Value != nil {
		root, err := result.Unit.Program.Root()
		if err != nil {
			result.AddError(fmt.Sprintf("value: %v", err))
			return
		}
		got, err := testutil.Eval(root, map[string]int64{})
		if err != nil {
			result.AddError(fmt.Sprintf("value: %v", err))
			return
		}
		if got != *exp.Value {
			result.AddError(fmt.Sprintf("value mismatch: expected %d, got %d", *exp.Value, got))
		}
	}
}

func formatStatements(stmts []ir.Node) string {
	lines := make([]string, len(stmts))
	for i, n := range stmts {
		lines[i] = ir.Format(n)
	}
	return strings.Join(lines, "\n")
}
