package harness

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/vx/internal/ir"
	"github.com/roach88/vx/internal/lexer"
	"github.com/roach88/vx/internal/store"
)

// AssertionError is returned when an assertion fails.
// It carries the postfix rendering to help debug the failure.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Postfix  string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)
	if e.Postfix != "" {
		fmt.Fprintf(&buf, "  Postfix: %s\n", e.Postfix)
	}

	return buf.String()
}

// AssertionContext provides store access for assertions that need it.
type AssertionContext struct {
	Store *store.Store
	Ctx   context.Context
}

// tokenKindByName resolves a token kind name, case-insensitively.
func tokenKindByName(name string) (lexer.Kind, bool) {
	for k := lexer.EndOfInput; k <= lexer.Operator; k++ {
		if strings.EqualFold(k.String(), name) {
			return k, true
		}
	}
	return 0, false
}

// assertTokenCount checks that exactly Count tokens of Kind were scanned.
func assertTokenCount(r *Result, a Assertion) error {
	kind, ok := tokenKindByName(a.Kind)
	if !ok {
		return fmt.Errorf("unknown token kind %q", a.Kind)
	}

	count := 0
	for _, tok := range r.Unit.Tokens {
		if tok.Kind == kind {
			count++
		}
	}
	if count != a.Count {
		return &AssertionError{
			Type:     AssertTokenCount,
			Expected: fmt.Sprintf("%d %s token(s)", a.Count, kind),
			Actual:   fmt.Sprintf("%d", count),
			Postfix:  r.Postfix,
		}
	}
	return nil
}

// assertPostfixOrder checks that Symbols occur in postfix in the given
// relative order. Other entities may appear between them.
func assertPostfixOrder(r *Result, a Assertion) error {
	next := 0
	for _, e := range r.Unit.Postfix {
		if next < len(a.Symbols) && e.String() == a.Symbols[next] {
			next++
		}
	}
	if next < len(a.Symbols) {
		return &AssertionError{
			Type:     AssertPostfixOrder,
			Expected: strings.Join(a.Symbols, " → "),
			Actual:   fmt.Sprintf("%q not found in order", a.Symbols[next]),
			Postfix:  r.Postfix,
		}
	}
	return nil
}

// assertStatementCount checks the number of unconnected statements.
func assertStatementCount(r *Result, a Assertion) error {
	n := len(r.Unit.Program.Statements())
	if n != a.Count {
		return &AssertionError{
			Type:     AssertStatementCount,
			Expected: fmt.Sprintf("%d statement(s)", a.Count),
			Actual:   fmt.Sprintf("%d", n),
			Postfix:  r.Postfix,
		}
	}
	return nil
}

// assertStored writes the unit to the store, reads it back, and checks the
// decoded program hashes to the same content address.
func assertStored(ctx context.Context, st *store.Store, r *Result) error {
	rec := store.RecordFromUnit(r.Unit)
	if _, _, err := st.WriteUnit(ctx, rec); err != nil {
		return fmt.Errorf("stored: %w", err)
	}

	got, err := st.ReadUnit(ctx, rec.ID)
	if err != nil {
		return fmt.Errorf("stored: %w", err)
	}

	hash, err := ir.Hash(got.Program)
	if err != nil {
		return fmt.Errorf("stored: %w", err)
	}
	if hash != r.Hash || got.Postfix != r.Postfix {
		return &AssertionError{
			Type:     AssertStored,
			Expected: r.Hash,
			Actual:   hash,
			Postfix:  got.Postfix,
		}
	}
	return nil
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
// Assertions need a successful compilation; on failure each one reports
// that it could not run.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	for i, assertion := range assertions {
		if result.Unit == nil {
			errors = append(errors, fmt.Sprintf("assertion[%d]: %s requires a successful compilation", i, assertion.Type))
			continue
		}

		var err error
		switch assertion.Type {
		case AssertTokenCount:
			err = assertTokenCount(result, assertion)
		case AssertPostfixOrder:
			err = assertPostfixOrder(result, assertion)
		case AssertStatementCount:
			err = assertStatementCount(result, assertion)
		case AssertStored:
			if actx == nil || actx.Store == nil {
				err = fmt.Errorf("assertion[%d]: stored requires database context", i)
			} else {
				err = assertStored(actx.Ctx, actx.Store, result)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
