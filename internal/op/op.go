// Package op defines the operator table shared by the lexer and parser.
//
// The table is built once at package initialization and never mutated.
// Operators are a closed enumeration (Kind); everything the lexer and
// parser need to know about an operator is exposed through Kind methods,
// so adding an operator only touches this package.
//
// Precedence tiers (higher binds tighter):
//
//	0  ( )     grouping sentinel, never emitted into postfix
//	1  =       right-associative
//	2  + -     left-associative
//	3  * /     left-associative
package op

import "fmt"

// Kind identifies an operator.
type Kind int

const (
	// Invalid is the zero Kind. It never appears in the table.
	Invalid Kind = iota
	Add
	Sub
	Mul
	Div
	Assign
	OpenGroup
	CloseGroup
)

// Associativity controls how operators of equal precedence group.
type Associativity int

const (
	Left Associativity = iota
	Right
)

func (a Associativity) String() string {
	if a == Right {
		return "right"
	}
	return "left"
}

// GroupPrecedence is the sentinel precedence of grouping markers.
// It is lower than any real operator so an open group bounds stack draining.
const GroupPrecedence uint8 = 0

// Def is the immutable definition of an operator.
type Def struct {
	Kind          Kind
	Symbol        string
	Precedence    uint8
	Associativity Associativity
	Arity         int
}

// IsGrouping reports whether the definition is a parenthesis marker.
func (d Def) IsGrouping() bool {
	return d.Kind.IsGrouping()
}

func (d Def) String() string {
	return d.Symbol
}

// defs is indexed by Kind.
var defs = [...]Def{
	Invalid:    {Kind: Invalid, Symbol: "<invalid>"},
	Add:        {Kind: Add, Symbol: "+", Precedence: 2, Associativity: Left, Arity: 2},
	Sub:        {Kind: Sub, Symbol: "-", Precedence: 2, Associativity: Left, Arity: 2},
	Mul:        {Kind: Mul, Symbol: "*", Precedence: 3, Associativity: Left, Arity: 2},
	Div:        {Kind: Div, Symbol: "/", Precedence: 3, Associativity: Left, Arity: 2},
	Assign:     {Kind: Assign, Symbol: "=", Precedence: 1, Associativity: Right, Arity: 2},
	OpenGroup:  {Kind: OpenGroup, Symbol: "(", Precedence: GroupPrecedence, Associativity: Left, Arity: 0},
	CloseGroup: {Kind: CloseGroup, Symbol: ")", Precedence: GroupPrecedence, Associativity: Left, Arity: 0},
}

// table maps lexemes to definitions. Built once; read-only afterwards.
var table = func() map[string]Def {
	m := make(map[string]Def, len(defs)-1)
	for _, d := range defs[1:] {
		m[d.Symbol] = d
	}
	return m
}()

// Chars is the set of characters that may begin an operator lexeme.
// The lexer consults it before looking up the table; a character listed
// here but missing from the table is a table inconsistency.
const Chars = "+-*/=()"

// Lookup returns the definition for symbol.
func Lookup(symbol string) (Def, bool) {
	d, ok := table[symbol]
	return d, ok
}

// MustLookup is like Lookup but panics on unknown symbols.
// Intended for tests and static initialization only.
func MustLookup(symbol string) Def {
	d, ok := Lookup(symbol)
	if !ok {
		panic(fmt.Sprintf("op: unknown operator %q", symbol))
	}
	return d
}

// Kinds returns every operator kind in the table, in declaration order.
func Kinds() []Kind {
	kinds := make([]Kind, 0, len(defs)-1)
	for _, d := range defs[1:] {
		kinds = append(kinds, d.Kind)
	}
	return kinds
}

// Def returns the table entry for k.
func (k Kind) Def() Def {
	if k <= Invalid || int(k) >= len(defs) {
		return defs[Invalid]
	}
	return defs[k]
}

func (k Kind) Symbol() string { return k.Def().Symbol }
func (k Kind) Precedence() uint8 { return k.Def().Precedence }
func (k Kind) Associativity() Associativity { return k.Def().Associativity }
func (k Kind) Arity() int { return k.Def().Arity }

// IsGrouping reports whether k is a parenthesis marker.
func (k Kind) IsGrouping() bool {
	return k == OpenGroup || k == CloseGroup
}

// IsArithmetic reports whether k is one of + - * /.
func (k Kind) IsArithmetic() bool {
	switch k {
	case Add, Sub, Mul, Div:
		return true
	}
	return false
}

// Yields reports whether an operator k already on the stack must be
// popped before incoming is pushed. Grouping markers never yield.
func (k Kind) Yields(incoming Kind) bool {
	if k.IsGrouping() {
		return false
	}
	top, in := k.Precedence(), incoming.Precedence()
	if top > in {
		return true
	}
	return top == in && incoming.Associativity() == Left
}

func (k Kind) String() string {
	return k.Symbol()
}
