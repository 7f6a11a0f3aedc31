package testutil

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/roach88/vx/internal/ir"
)

// ErrDivisionByZero is returned by both evaluators on integer division by zero.
var ErrDivisionByZero = errors.New("division by zero")

// Eval evaluates an integer IR tree. Store writes into env and yields the
// stored value; identifiers read from env. It exists to check that the
// front end preserves meaning and is not part of the product.
func Eval(n ir.Node, env map[string]int64) (int64, error) {
	switch v := n.(type) {
	case ir.IntegerLiteral:
		return int64(v), nil
	case ir.Identifier:
		val, ok := env[string(v)]
		if !ok {
			return 0, fmt.Errorf("undefined identifier %q", string(v))
		}
		return val, nil
	case ir.Store:
		val, err := Eval(v.Value, env)
		if err != nil {
			return 0, err
		}
		env[string(v.Target)] = val
		return val, nil
	case ir.BinaryOp:
		l, err := Eval(v.Left, env)
		if err != nil {
			return 0, err
		}
		r, err := Eval(v.Right, env)
		if err != nil {
			return 0, err
		}
		return apply(v.Kind.String(), l, r)
	default:
		return 0, fmt.Errorf("cannot evaluate %s", ir.Format(n))
	}
}

func apply(kind string, l, r int64) (int64, error) {
	switch kind {
	case "add", "+":
		return l + r, nil
	case "sub", "-":
		return l - r, nil
	case "mul", "*":
		return l * r, nil
	case "div", "/":
		if r == 0 {
			return 0, ErrDivisionByZero
		}
		return l / r, nil
	}
	return 0, fmt.Errorf("unknown operator %q", kind)
}

// EvalInfix evaluates an integer infix expression with standard precedence
// (* / above + -, left-associative, parentheses allowed). It is a
// recursive-descent reference independent of the shunting-yard parser.
func EvalInfix(src string) (int64, error) {
	e := &infix{src: strings.TrimSpace(src)}
	v, err := e.expr()
	if err != nil {
		return 0, err
	}
	e.skip()
	if e.pos != len(e.src) {
		return 0, fmt.Errorf("trailing input at %d: %q", e.pos, e.src[e.pos:])
	}
	return v, nil
}

type infix struct {
	src string
	pos int
}

func (e *infix) skip() {
	for e.pos < len(e.src) && unicode.IsSpace(rune(e.src[e.pos])) {
		e.pos++
	}
}

func (e *infix) peek() byte {
	e.skip()
	if e.pos < len(e.src) {
		return e.src[e.pos]
	}
	return 0
}

func (e *infix) expr() (int64, error) {
	v, err := e.term()
	if err != nil {
		return 0, err
	}
	for c := e.peek(); c == '+' || c == '-'; c = e.peek() {
		e.pos++
		r, err := e.term()
		if err != nil {
			return 0, err
		}
		if v, err = apply(string(c), v, r); err != nil {
			return 0, err
		}
	}
	return v, nil
}

func (e *infix) term() (int64, error) {
	v, err := e.factor()
	if err != nil {
		return 0, err
	}
	for c := e.peek(); c == '*' || c == '/'; c = e.peek() {
		e.pos++
		r, err := e.factor()
		if err != nil {
			return 0, err
		}
		if v, err = apply(string(c), v, r); err != nil {
			return 0, err
		}
	}
	return v, nil
}

func (e *infix) factor() (int64, error) {
	if e.peek() == '(' {
		e.pos++
		v, err := e.expr()
		if err != nil {
			return 0, err
		}
		if e.peek() != ')' {
			return 0, fmt.Errorf("expected ) at %d", e.pos)
		}
		e.pos++
		return v, nil
	}

	e.skip()
	start := e.pos
	for e.pos < len(e.src) && (e.src[e.pos] >= '0' && e.src[e.pos] <= '9' || e.src[e.pos] == '_') {
		e.pos++
	}
	if start == e.pos {
		return 0, fmt.Errorf("expected number at %d", start)
	}
	return strconv.ParseInt(strings.ReplaceAll(e.src[start:e.pos], "_", ""), 10, 64)
}
