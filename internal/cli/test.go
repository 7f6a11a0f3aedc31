package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/vx/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update bool   // regenerate golden files
	Filter string // scenario filter (glob pattern)
}

// Golden file states reported per scenario.
const (
	GoldenAbsent   = "absent"
	GoldenMatch    = "match"
	GoldenMismatch = "mismatch"
	GoldenUpdated  = "updated"
)

// ScenarioResult is the outcome of one scenario file.
//
// Postfix and ErrorCode record what the compiler produced, whether or not
// that was what the scenario expected.
type ScenarioResult struct {
	Name      string   `json:"name"`
	File      string   `json:"file"`
	Pass      bool     `json:"pass"`
	Postfix   string   `json:"postfix,omitempty"`
	ErrorCode string   `json:"error_code,omitempty"`
	Golden    string   `json:"golden,omitempty"`
	Errors    []string `json:"errors,omitempty"`
}

func (r *ScenarioResult) fail(format string, args ...any) {
	r.Pass = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// TestResult holds the overall test result.
type TestResult struct {
	Scenarios     []ScenarioResult `json:"scenarios"`
	Passed        int              `json:"passed"`
	Failed        int              `json:"failed"`
	Total         int              `json:"total"`
	GoldenUpdated int              `json:"golden_updated,omitempty"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios-dir>",
		Short: "Run conformance scenarios",
		Long: `Run the YAML conformance scenarios under <scenarios-dir>.

Each scenario's source is compiled and its expect clause and assertions
checked. When <scenarios-dir>/golden/<name>.golden exists the snapshot of
the scenario's postfix and IR must also match it byte for byte. Relative
source_file paths resolve against the scenario's directory.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, etc.)

Examples:
  vx test ./testdata/scenarios
  vx test ./testdata/scenarios --filter "assign*"
  vx test ./testdata/scenarios --update
  vx test ./testdata/scenarios --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern on the file name")

	return cmd
}

func runTests(opts *TestOptions, scenariosDir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	if _, err := os.Stat(scenariosDir); errors.Is(err, os.ErrNotExist) {
		return outputCommandError(formatter, ErrCodeNotFound, fmt.Sprintf("scenarios directory not found: %s", scenariosDir))
	}

	files, err := findScenarioFiles(scenariosDir, opts.Filter)
	if err != nil {
		return outputCommandError(formatter, ErrCodeGeneric, fmt.Sprintf("failed to find scenarios: %v", err))
	}

	result := TestResult{
		Scenarios: make([]ScenarioResult, 0, len(files)),
		Total:     len(files),
	}

	text := opts.Format != "json"
	if text && len(files) == 0 {
		fmt.Fprintf(formatter.Writer, "No scenarios found (%s).\n", ErrCodeNoFiles)
		return nil
	}

	for _, file := range files {
		sr := runScenario(opts, file)
		if text {
			printScenario(formatter.Writer, sr, opts.Verbose)
		}
		if sr.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
		if sr.Golden == GoldenUpdated {
			result.GoldenUpdated++
		}
		result.Scenarios = append(result.Scenarios, sr)
	}

	if !text {
		return outputTestJSON(cmd, result)
	}
	return outputTestText(cmd, result)
}

// findScenarioFiles returns the .yaml and .yml files under dir in lexical
// order. A non-empty filter is matched against the file name without its
// extension.
func findScenarioFiles(dir, filter string) ([]string, error) {
	if filter != "" {
		if _, err := filepath.Match(filter, ""); err != nil {
			return nil, fmt.Errorf("invalid filter pattern: %w", err)
		}
	}

	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		ext := filepath.Ext(path)
		if d.IsDir() || (ext != ".yaml" && ext != ".yml") {
			return nil
		}
		if filter != "" {
			if ok, _ := filepath.Match(filter, strings.TrimSuffix(d.Name(), ext)); !ok {
				return nil
			}
		}
		files = append(files, path)
		return nil
	})
	slices.Sort(files)
	return files, err
}

// runScenario loads, compiles and checks one scenario file, then compares
// or rewrites its golden snapshot.
func runScenario(opts *TestOptions, file string) ScenarioResult {
	sr := ScenarioResult{Name: filepath.Base(file), File: file, Pass: true}

	scenario, err := harness.LoadScenarioWithBasePath(file, filepath.Dir(file))
	if err != nil {
		sr.fail("load: %v", err)
		return sr
	}
	sr.Name = scenario.Name

	result, err := harness.Run(scenario, harness.WithLogger(opts.logger()))
	if err != nil {
		sr.fail("run: %v", err)
		return sr
	}
	sr.Postfix = result.Postfix
	sr.ErrorCode = result.ErrorCode
	for _, e := range result.Errors {
		sr.fail("%s", e)
	}

	snapshot, err := harness.SnapshotBytes(scenario.Name, result)
	if err != nil {
		sr.fail("snapshot: %v", err)
		return sr
	}

	goldenPath := goldenFilePath(file)
	if opts.Update {
		if err := writeGolden(goldenPath, snapshot); err != nil {
			sr.fail("golden update: %v", err)
			return sr
		}
		sr.Golden = GoldenUpdated
		return sr
	}

	golden, err := os.ReadFile(goldenPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		sr.Golden = GoldenAbsent
	case err != nil:
		sr.fail("golden read: %v", err)
	case bytes.Equal(golden, snapshot):
		sr.Golden = GoldenMatch
	default:
		sr.Golden = GoldenMismatch
		sr.fail("golden file mismatch: %s (rerun with --update)", goldenPath)
	}
	return sr
}

// goldenFilePath returns <dir>/golden/<name>.golden for a scenario file.
func goldenFilePath(scenarioFile string) string {
	base := filepath.Base(scenarioFile)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(filepath.Dir(scenarioFile), "golden", name+".golden")
}

func writeGolden(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create golden directory: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// printScenario writes one line per scenario, followed by its failures.
// Verbose output adds the compiled postfix or the compile error code.
func printScenario(w io.Writer, sr ScenarioResult, verbose bool) {
	mark := "✓"
	if !sr.Pass {
		mark = "✗"
	}
	line := mark + " " + sr.Name
	if sr.Golden == GoldenUpdated {
		line += " (golden updated)"
	}
	fmt.Fprintln(w, line)

	if verbose {
		switch {
		case sr.ErrorCode != "":
			fmt.Fprintf(w, "    error:   %s\n", sr.ErrorCode)
		case sr.Postfix != "":
			fmt.Fprintf(w, "    postfix: %s\n", sr.Postfix)
		}
	}
	for _, e := range sr.Errors {
		fmt.Fprintf(w, "  %s\n", e)
	}
}

func outputTestJSON(cmd *cobra.Command, result TestResult) error {
	response := CLIResponse{Status: "ok", Data: result}
	if result.Failed > 0 {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    "E_TEST_FAILED",
			Message: fmt.Sprintf("%d scenario(s) failed", result.Failed),
		}
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(response); err != nil {
		return err
	}

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}
	return nil
}

func outputTestText(cmd *cobra.Command, result TestResult) error {
	w := cmd.OutOrStdout()

	fmt.Fprintln(w)
	summary := fmt.Sprintf("Scenarios: %d passed, %d failed, %d total", result.Passed, result.Failed, result.Total)
	if result.GoldenUpdated > 0 {
		summary += fmt.Sprintf(", %d golden file(s) updated", result.GoldenUpdated)
	}
	fmt.Fprintln(w, summary)

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}

	fmt.Fprintln(w, "✓ All scenarios passed")
	return nil
}
