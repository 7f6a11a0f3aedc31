// Package postfix defines the reverse-Polish entity sequence produced by the
// parser and consumed by the IR generator.
//
// The sequence has no tree structure. Every operator appears after all of
// its operands, and a well-formed sequence ends with exactly one End entity.
package postfix

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/vx/internal/lexer"
	"github.com/roach88/vx/internal/op"
)

// Kind tags an Entity.
type Kind int

const (
	IntegerLiteral Kind = iota + 1
	FloatLiteral
	Identifier
	Operator
	End
)

var kindNames = map[Kind]string{
	IntegerLiteral: "int",
	FloatLiteral:   "float",
	Identifier:     "ident",
	Operator:       "op",
	End:            "end",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Entity is one element of a postfix sequence.
// Only the field matching Kind is meaningful.
type Entity struct {
	Kind  Kind
	Int   int64
	Float float64
	Name  string
	Op    op.Kind
	Pos   lexer.Position
}

// Int returns an IntegerLiteral entity.
func Int(v int64) Entity { return Entity{Kind: IntegerLiteral, Int: v} }

// Float returns a FloatLiteral entity.
func Float(v float64) Entity { return Entity{Kind: FloatLiteral, Float: v} }

// Ident returns an Identifier entity.
func Ident(name string) Entity { return Entity{Kind: Identifier, Name: name} }

// Op returns an Operator entity.
func Op(k op.Kind) Entity { return Entity{Kind: Operator, Op: k} }

// EndMarker returns the terminal End entity.
func EndMarker() Entity { return Entity{Kind: End} }

// At returns a copy of e positioned at pos.
func (e Entity) At(pos lexer.Position) Entity {
	e.Pos = pos
	return e
}

// IsOperand reports whether e is a literal or identifier.
func (e Entity) IsOperand() bool {
	switch e.Kind {
	case IntegerLiteral, FloatLiteral, Identifier:
		return true
	}
	return false
}

func (e Entity) String() string {
	switch e.Kind {
	case IntegerLiteral:
		return strconv.FormatInt(e.Int, 10)
	case FloatLiteral:
		return formatFloat(e.Float)
	case Identifier:
		return e.Name
	case Operator:
		return e.Op.Symbol()
	case End:
		return "end"
	default:
		return e.Kind.String()
	}
}

// formatFloat keeps a decimal point so floats never print like integers.
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if strings.ContainsAny(s, ".eIN") {
		return s
	}
	return s + ".0"
}

// Sequence is a finished postfix program. Treat it as immutable.
type Sequence []Entity

// String renders the sequence space-separated, e.g. "1 2 3 * + end".
func (s Sequence) String() string {
	parts := make([]string, len(s))
	for i, e := range s {
		parts[i] = e.String()
	}
	return strings.Join(parts, " ")
}

// StripPositions returns a copy of s with every position cleared.
// Useful when comparing sequences structurally.
func (s Sequence) StripPositions() Sequence {
	out := make(Sequence, len(s))
	for i, e := range s {
		e.Pos = lexer.Position{}
		out[i] = e
	}
	return out
}
