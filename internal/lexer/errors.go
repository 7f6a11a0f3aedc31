package lexer

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// ErrorCode categorizes lexical errors.
type ErrorCode string

const (
	// ErrCodeUnexpectedCharacter indicates a character outside the literal,
	// identifier, operator, and whitespace sets, or an operator character
	// with no operator table entry.
	ErrCodeUnexpectedCharacter ErrorCode = "UNEXPECTED_CHARACTER"
)

// LexError is returned by Lexer.Next when the source cannot be tokenized.
//
// Char is utf8.RuneError when the source holds a byte that is not valid
// UTF-8; Raw then carries the offending byte.
type LexError struct {
	Code    ErrorCode
	Message string
	Char    rune
	Raw     string
	Pos     Position
}

func (e *LexError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s: %s: %s", e.Pos, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsLexError reports whether err wraps a *LexError.
func IsLexError(err error) bool {
	var le *LexError
	return errors.As(err, &le)
}

func newUnexpectedCharacter(c rune, raw string, pos Position) *LexError {
	msg := fmt.Sprintf("unexpected character %q", c)
	if c == utf8.RuneError && len(raw) == 1 {
		msg = fmt.Sprintf("invalid UTF-8 byte %q", raw)
	}
	return &LexError{
		Code:    ErrCodeUnexpectedCharacter,
		Message: msg,
		Char:    c,
		Raw:     raw,
		Pos:     pos,
	}
}

// newMissingOperator reports a character that the operator character set
// accepts but the operator table does not define.
func newMissingOperator(c rune, pos Position) *LexError {
	return &LexError{
		Code:    ErrCodeUnexpectedCharacter,
		Message: fmt.Sprintf("operator character %q has no operator table entry", c),
		Char:    c,
		Pos:     pos,
	}
}
