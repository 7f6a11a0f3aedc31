package lexer

import (
	"fmt"

	"github.com/roach88/vx/internal/op"
)

// Kind categorizes a token.
type Kind int

const (
	// EndOfInput is terminal: once returned, every later Next call returns it again.
	EndOfInput Kind = iota
	NumericLiteral
	// StringLiteral is reserved. The lexer never emits it and the parser rejects it.
	StringLiteral
	Identifier
	Operator
)

var kindNames = map[Kind]string{
	EndOfInput:     "EndOfInput",
	NumericLiteral: "NumericLiteral",
	StringLiteral:  "StringLiteral",
	Identifier:     "Identifier",
	Operator:       "Operator",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Position locates a token in the source.
// Offset is a byte offset; Line and Column are 1-based and Column counts runes.
type Position struct {
	Offset int `json:"offset"`
	Line   int `json:"line"`
	Column int `json:"column"`
}

// IsValid reports whether the position was set by the lexer.
func (p Position) IsValid() bool {
	return p.Line > 0
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Token is a single lexeme.
//
// Text holds the raw lexeme for literals and identifiers and the symbol for
// operators. Op is only meaningful when Kind is Operator.
type Token struct {
	Kind Kind     `json:"kind"`
	Text string   `json:"text,omitempty"`
	Op   op.Def   `json:"-"`
	Pos  Position `json:"pos"`
}

// Numeric returns a NumericLiteral token with the raw, unvalidated text.
func Numeric(text string, pos Position) Token {
	return Token{Kind: NumericLiteral, Text: text, Pos: pos}
}

// Ident returns an Identifier token.
func Ident(name string, pos Position) Token {
	return Token{Kind: Identifier, Text: name, Pos: pos}
}

// Oper returns an Operator token for d.
func Oper(d op.Def, pos Position) Token {
	return Token{Kind: Operator, Text: d.Symbol, Op: d, Pos: pos}
}

// End returns an EndOfInput token.
func End(pos Position) Token {
	return Token{Kind: EndOfInput, Pos: pos}
}

func (t Token) String() string {
	switch t.Kind {
	case EndOfInput:
		return "EOF"
	case Operator:
		return t.Op.Symbol
	default:
		return t.Text
	}
}
