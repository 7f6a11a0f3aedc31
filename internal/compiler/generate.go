package compiler

import (
	"io"
	"log/slog"

	"github.com/roach88/vx/internal/ir"
	"github.com/roach88/vx/internal/op"
	"github.com/roach88/vx/internal/postfix"
)

// Generator builds an IR tree from a finished postfix sequence.
//
// The generator never mutates the sequence it consumes. It owns a fresh
// operand stack per call to Generate.
type Generator struct {
	logger *slog.Logger
}

// NewGenerator creates a Generator. A nil logger discards tracing.
func NewGenerator(logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Generator{logger: logger}
}

// Generate is shorthand for NewGenerator(nil).Generate(seq).
func Generate(seq postfix.Sequence) (*ir.Program, error) {
	return NewGenerator(nil).Generate(seq)
}

// Generate consumes seq once, forward. Operands push leaves, End pushes
// Exit(0), and operators pop their operands (right first, then left) and
// push the combined node. The final value stack becomes the program.
func (g *Generator) Generate(seq postfix.Sequence) (*ir.Program, error) {
	stack := make([]ir.Node, 0, len(seq))

	for _, e := range seq {
		switch e.Kind {
		case postfix.IntegerLiteral:
			stack = append(stack, ir.IntegerLiteral(e.Int))
		case postfix.FloatLiteral:
			stack = append(stack, ir.FloatLiteral(e.Float))
		case postfix.Identifier:
			stack = append(stack, ir.Identifier(e.Name))
		case postfix.End:
			stack = append(stack, ir.Exit(0))

		case postfix.Operator:
			var err error
			stack, err = g.reduce(stack, e)
			if err != nil {
				g.logger.Debug("irgen: failed", "op", e.Op.Symbol(), "error", err)
				return nil, err
			}
		}
	}

	g.logger.Debug("irgen: done", "roots", len(stack))
	return &ir.Program{Nodes: stack}, nil
}

// reduce applies a single operator entity to the value stack.
func (g *Generator) reduce(stack []ir.Node, e postfix.Entity) ([]ir.Node, error) {
	sym := e.Op.Symbol()

	if e.Op.IsGrouping() || e.Op == op.Invalid {
		return nil, newUnsupportedOperatorError(sym, e.Pos, len(stack))
	}

	// Exit marks the end of a previous program; operands never cross it.
	avail := operandsAvailable(stack)
	if avail < e.Op.Arity() {
		return nil, NewStackUnderflowError(sym, e.Pos, avail, e.Op.Arity())
	}

	right := stack[len(stack)-1]
	left := stack[len(stack)-2]
	stack = stack[:len(stack)-2]

	if e.Op == op.Assign {
		target, ok := left.(ir.Identifier)
		if !ok {
			return nil, NewInvalidAssignmentTargetError(ir.Format(left), e.Pos, len(stack)+2)
		}
		node := ir.Store{Target: target, Value: right}
		g.logger.Debug("irgen: store", "node", ir.Format(node))
		return append(stack, node), nil
	}

	kind, ok := ir.BinaryKindOf(e.Op)
	if !ok {
		return nil, newUnsupportedOperatorError(sym, e.Pos, len(stack)+2)
	}
	node := ir.BinaryOp{Kind: kind, Left: left, Right: right}
	g.logger.Debug("irgen: binary", "node", ir.Format(node))
	return append(stack, node), nil
}

// operandsAvailable counts values above the most recent Exit.
func operandsAvailable(stack []ir.Node) int {
	n := 0
	for i := len(stack) - 1; i >= 0; i-- {
		if _, ok := stack[i].(ir.Exit); ok {
			break
		}
		n++
	}
	return n
}
