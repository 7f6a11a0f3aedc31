package ir

import (
	"fmt"
	"strconv"
	"strings"
)

// Format renders n as an s-expression, e.g. "(add 1 (mul 2 3))".
// Leaves render bare; floats always carry a decimal point or exponent.
func Format(n Node) string {
	var b strings.Builder
	writeNode(&b, n)
	return b.String()
}

func writeNode(b *strings.Builder, n Node) {
	switch v := n.(type) {
	case Identifier:
		b.WriteString(string(v))
	case IntegerLiteral:
		b.WriteString(strconv.FormatInt(int64(v), 10))
	case FloatLiteral:
		b.WriteString(formatFloat(float64(v)))
	case Exit:
		fmt.Fprintf(b, "(exit %d)", int(v))
	case BinaryOp:
		b.WriteByte('(')
		b.WriteString(v.Kind.String())
		b.WriteByte(' ')
		writeNode(b, v.Left)
		b.WriteByte(' ')
		writeNode(b, v.Right)
		b.WriteByte(')')
	case Store:
		b.WriteString("(store ")
		writeNode(b, v.Target)
		b.WriteByte(' ')
		writeNode(b, v.Value)
		b.WriteByte(')')
	case nil:
		b.WriteString("<nil>")
	default:
		fmt.Fprintf(b, "<%T>", n)
	}
}

func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if strings.ContainsAny(s, ".eIN") {
		return s
	}
	return s + ".0"
}
