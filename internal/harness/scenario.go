package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance test scenario.
// A scenario compiles one source text and checks the front end's output
// at each stage against the expectations.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Source is the inline program text. Mutually exclusive with SourceFile.
	Source string `yaml:"source,omitempty"`

	// SourceFile is a path to a .vx file, relative to the scenario file
	// when loaded with a base path.
	SourceFile string `yaml:"source_file,omitempty"`

	// Expect holds the stage outputs to compare against.
	Expect *ExpectClause `yaml:"expect,omitempty"`

	// Assertions are structural checks on tokens and postfix output.
	Assertions []Assertion `yaml:"assertions,omitempty"`

	// RunID is an optional fixed run ID. Defaults to "test-run-default".
	RunID string `yaml:"run_id,omitempty"`
}

// ExpectClause specifies expected compilation behavior.
// Every field is optional; only the ones present are checked.
type ExpectClause struct {
	// Postfix is the expected postfix rendering, e.g. "1 2 3 * + end".
	Postfix *string `yaml:"postfix,omitempty"`

	// IR is the expected s-expression of the statements, one per line,
	// excluding the trailing (exit 0).
	IR *string `yaml:"ir,omitempty"`

	// Error is the expected error code, e.g. "STACK_UNDERFLOW".
	// When set, compilation must fail with exactly this code.
	Error string `yaml:"error,omitempty"`

	// Value is the expected integer value of the single statement.
	Value *int64 `yaml:"value,omitempty"`
}

// Assertion is a structural check on compilation output.
type Assertion struct {
	// Type specifies the assertion type:
	// - "token_count": Number of tokens of Kind equals Count
	// - "postfix_order": Symbols appear in this relative order in postfix
	// - "statement_count": Number of statements before exit equals Count
	// - "stored": Unit round-trips through the history store unchanged
	Type string `yaml:"type"`

	// Kind is the token kind name (used by token_count).
	Kind string `yaml:"kind,omitempty"`

	// Count is the expected number (used by token_count, statement_count).
	Count int `yaml:"count,omitempty"`

	// Symbols are postfix entity renderings (used by postfix_order).
	Symbols []string `yaml:"symbols,omitempty"`
}

// Assertion type constants.
const (
	AssertTokenCount     = "token_count"
	AssertPostfixOrder   = "postfix_order"
	AssertStatementCount = "statement_count"
	AssertStored         = "stored"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, "")
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving source_file relative to basePath.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	if scenario.SourceFile != "" && !filepath.IsAbs(scenario.SourceFile) && basePath != "" {
		scenario.SourceFile = filepath.Join(basePath, scenario.SourceFile)
	}

	if err := validateScenario(scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return scenario, nil
}

// ParseScenario decodes scenario YAML without validating it.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Source != "" && s.SourceFile != "" {
		return fmt.Errorf("source and source_file are mutually exclusive")
	}

	if s.SourceFile != "" {
		if _, err := os.Stat(s.SourceFile); os.IsNotExist(err) {
			return fmt.Errorf("source file not found: %s", s.SourceFile)
		}
	}

	if s.Expect == nil && len(s.Assertions) == 0 {
		return fmt.Errorf("expect or assertions is required")
	}

	if s.Expect != nil && s.Expect.Error != "" {
		if s.Expect.Postfix != nil || s.Expect.IR != nil || s.Expect.Value != nil {
			return fmt.Errorf("expect.error cannot be combined with postfix, ir or value")
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTokenCount:
		if a.Kind == "" {
			return fmt.Errorf("assertions[%d]: kind is required for token_count", index)
		}
		if _, ok := tokenKindByName(a.Kind); !ok {
			return fmt.Errorf("assertions[%d]: unknown token kind %q", index, a.Kind)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for token_count", index)
		}
	case AssertPostfixOrder:
		if len(a.Symbols) == 0 {
			return fmt.Errorf("assertions[%d]: symbols list is required for postfix_order", index)
		}
	case AssertStatementCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for statement_count", index)
		}
	case AssertStored:
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
