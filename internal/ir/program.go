package ir

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoStatement is returned by Program.Root when the program holds no
// expression before its Exit node.
var ErrNoStatement = errors.New("program has no statement")

// Program is the generator's final value stack, bottom to top.
//
// Without a statement-sequencing construct, independent expressions remain
// separate, unconnected roots. For a terminated postfix sequence the last
// node is always Exit.
type Program struct {
	Nodes []Node
}

// Statements returns the nodes preceding a trailing Exit.
func (p *Program) Statements() []Node {
	if p == nil || len(p.Nodes) == 0 {
		return nil
	}
	if _, ok := p.Nodes[len(p.Nodes)-1].(Exit); ok {
		return p.Nodes[:len(p.Nodes)-1]
	}
	return p.Nodes
}

// Root returns the single statement of a one-expression program.
func (p *Program) Root() (Node, error) {
	stmts := p.Statements()
	switch len(stmts) {
	case 0:
		return nil, ErrNoStatement
	case 1:
		return stmts[0], nil
	default:
		return nil, fmt.Errorf("program has %d unconnected statements", len(stmts))
	}
}

// String renders every node, one s-expression per line.
func (p *Program) String() string {
	if p == nil {
		return ""
	}
	lines := make([]string, len(p.Nodes))
	for i, n := range p.Nodes {
		lines[i] = Format(n)
	}
	return strings.Join(lines, "\n")
}
