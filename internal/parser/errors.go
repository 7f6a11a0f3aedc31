package parser

import (
	"errors"
	"fmt"

	"github.com/roach88/vx/internal/lexer"
)

// ErrorCode categorizes parse errors.
type ErrorCode string

const (
	// ErrCodeInvalidNumericLiteral indicates literal text that does not parse
	// as an int64 or float64 after separators are stripped.
	ErrCodeInvalidNumericLiteral ErrorCode = "INVALID_NUMERIC_LITERAL"

	// ErrCodeUnbalancedParentheses indicates a close group with no matching
	// open group, or an open group still pending at end of input.
	ErrCodeUnbalancedParentheses ErrorCode = "UNBALANCED_PARENTHESES"

	// ErrCodeUnexpectedToken indicates a token kind the grammar never accepts.
	ErrCodeUnexpectedToken ErrorCode = "UNEXPECTED_TOKEN"
)

// ParseError is returned when the token stream cannot be converted to postfix.
type ParseError struct {
	Code    ErrorCode
	Message string
	Lexeme  string
	Pos     lexer.Position

	// Err is the underlying conversion error, if any.
	Err error
}

func (e *ParseError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s: %s: %s", e.Pos, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// IsParseError reports whether err wraps a *ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// HasCode reports whether err wraps a *ParseError with the given code.
func HasCode(err error, code ErrorCode) bool {
	var pe *ParseError
	if errors.As(err, &pe) {
		return pe.Code == code
	}
	return false
}

// NewInvalidNumericLiteral creates a ParseError for a malformed literal.
func NewInvalidNumericLiteral(text string, pos lexer.Position, cause error) *ParseError {
	return &ParseError{
		Code:    ErrCodeInvalidNumericLiteral,
		Message: fmt.Sprintf("invalid numeric literal %q", text),
		Lexeme:  text,
		Pos:     pos,
		Err:     cause,
	}
}

func newUnbalanced(lexeme string, pos lexer.Position, msg string) *ParseError {
	return &ParseError{
		Code:    ErrCodeUnbalancedParentheses,
		Message: msg,
		Lexeme:  lexeme,
		Pos:     pos,
	}
}

func newUnexpectedToken(tok lexer.Token) *ParseError {
	return &ParseError{
		Code:    ErrCodeUnexpectedToken,
		Message: fmt.Sprintf("unexpected %s token %q", tok.Kind, tok.Text),
		Lexeme:  tok.Text,
		Pos:     tok.Pos,
	}
}
