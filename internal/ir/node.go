package ir

import (
	"fmt"

	"github.com/roach88/vx/internal/op"
)

// Node is a sealed interface over IR tree nodes.
// Only Identifier, IntegerLiteral, FloatLiteral, Exit, BinaryOp, and Store
// implement it.
type Node interface {
	irNode() // Sealed
}

// Identifier is a named leaf.
type Identifier string

func (Identifier) irNode() {}

// IntegerLiteral is an integer leaf.
type IntegerLiteral int64

func (IntegerLiteral) irNode() {}

// FloatLiteral is a floating-point leaf.
type FloatLiteral float64

func (FloatLiteral) irNode() {}

// Exit terminates a program. The generator always emits Exit(0);
// real exit-code semantics belong to later stages.
type Exit int

func (Exit) irNode() {}

// BinaryKind selects the arithmetic performed by a BinaryOp.
type BinaryKind int

const (
	OpAdd BinaryKind = iota + 1
	OpSub
	OpMul
	OpDiv
)

var binaryNames = map[BinaryKind]string{
	OpAdd: "add",
	OpSub: "sub",
	OpMul: "mul",
	OpDiv: "div",
}

func (k BinaryKind) String() string {
	if name, ok := binaryNames[k]; ok {
		return name
	}
	return fmt.Sprintf("BinaryKind(%d)", int(k))
}

// BinaryKindOf maps an arithmetic operator to its BinaryKind.
// Returns false for non-arithmetic operators.
func BinaryKindOf(k op.Kind) (BinaryKind, bool) {
	switch k {
	case op.Add:
		return OpAdd, true
	case op.Sub:
		return OpSub, true
	case op.Mul:
		return OpMul, true
	case op.Div:
		return OpDiv, true
	}
	return 0, false
}

// parseBinaryKind is the inverse of BinaryKind.String.
func parseBinaryKind(s string) (BinaryKind, bool) {
	for k, name := range binaryNames {
		if name == s {
			return k, true
		}
	}
	return 0, false
}

// BinaryOp applies Kind to Left and Right.
type BinaryOp struct {
	Kind  BinaryKind
	Left  Node
	Right Node
}

func (BinaryOp) irNode() {}

// Store assigns Value to Target.
type Store struct {
	Target Identifier
	Value  Node
}

func (Store) irNode() {}

// Add is shorthand for BinaryOp{OpAdd, l, r}.
func Add(l, r Node) BinaryOp { return BinaryOp{Kind: OpAdd, Left: l, Right: r} }

// Sub is shorthand for BinaryOp{OpSub, l, r}.
func Sub(l, r Node) BinaryOp { return BinaryOp{Kind: OpSub, Left: l, Right: r} }

// Mul is shorthand for BinaryOp{OpMul, l, r}.
func Mul(l, r Node) BinaryOp { return BinaryOp{Kind: OpMul, Left: l, Right: r} }

// Div is shorthand for BinaryOp{OpDiv, l, r}.
func Div(l, r Node) BinaryOp { return BinaryOp{Kind: OpDiv, Left: l, Right: r} }
