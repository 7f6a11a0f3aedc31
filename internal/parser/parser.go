// Package parser converts a token stream into postfix order using the
// shunting-yard algorithm.
//
// The parser owns an operator stack and an append-only output sequence.
// It consumes its token source to completion in a single call to Parse;
// partial or resumable parsing is not supported.
package parser

import (
	"errors"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/roach88/vx/internal/lexer"
	"github.com/roach88/vx/internal/op"
	"github.com/roach88/vx/internal/postfix"
)

// TokenSource yields tokens on demand. *lexer.Lexer satisfies it.
type TokenSource interface {
	Next() (lexer.Token, error)
}

// stackEntry is an operator or open-group marker waiting on the stack.
type stackEntry struct {
	kind op.Kind
	pos  lexer.Position
}

// Parser is a single-use shunting-yard engine.
type Parser struct {
	src    TokenSource
	stack  []stackEntry
	output postfix.Sequence
	done   bool
	err    error
	logger *slog.Logger
}

// Option configures a Parser.
type Option func(*Parser)

// WithLogger routes stack tracing to logger at debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Parser) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// New returns a Parser reading from src.
func New(src TokenSource, opts ...Option) *Parser {
	p := &Parser{
		src:    src,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Parse is a convenience that lexes and parses src.
// Lexer tracing uses the same logger as the parser.
func Parse(src string, opts ...Option) (postfix.Sequence, error) {
	p := New(nil, opts...)
	p.src = lexer.New(src, lexer.WithLogger(p.logger))
	return p.Parse()
}

// Parse consumes the token source to end of input and returns the postfix
// sequence, terminated by an End entity. Calling Parse again returns the
// same result without reading further tokens.
func (p *Parser) Parse() (postfix.Sequence, error) {
	for !p.done && p.err == nil {
		tok, err := p.src.Next()
		if err != nil {
			p.err = err
			break
		}
		p.err = p.step(tok)
	}
	if p.err != nil {
		return nil, p.err
	}
	return p.output, nil
}

// step processes a single token.
func (p *Parser) step(tok lexer.Token) error {
	switch tok.Kind {
	case lexer.NumericLiteral:
		e, err := ParseNumber(tok.Text)
		if err != nil {
			var pe *ParseError
			if errors.As(err, &pe) {
				pe.Pos = tok.Pos
			}
			return err
		}
		p.emit(e.At(tok.Pos))

	case lexer.Identifier:
		p.emit(postfix.Ident(tok.Text).At(tok.Pos))

	case lexer.Operator:
		switch tok.Op.Kind {
		case op.OpenGroup:
			p.push(tok.Op.Kind, tok.Pos)
		case op.CloseGroup:
			return p.closeGroup(tok)
		default:
			p.pushOperator(tok.Op.Kind, tok.Pos)
		}

	case lexer.EndOfInput:
		return p.finish(tok.Pos)

	default:
		return newUnexpectedToken(tok)
	}
	return nil
}

// pushOperator pops every stacked operator that binds at least as tightly
// (respecting associativity), then pushes k.
func (p *Parser) pushOperator(k op.Kind, pos lexer.Position) {
	for len(p.stack) > 0 {
		top := p.stack[len(p.stack)-1]
		if !top.kind.Yields(k) {
			break
		}
		p.pop()
		p.emit(postfix.Op(top.kind).At(top.pos))
	}
	p.push(k, pos)
}

// closeGroup drains operators down to the matching open group.
func (p *Parser) closeGroup(tok lexer.Token) error {
	for len(p.stack) > 0 {
		top := p.pop()
		if top.kind == op.OpenGroup {
			return nil
		}
		p.emit(postfix.Op(top.kind).At(top.pos))
	}
	return newUnbalanced(tok.Text, tok.Pos, "closing parenthesis has no matching open parenthesis")
}

// finish drains the whole stack in LIFO order and appends End.
func (p *Parser) finish(pos lexer.Position) error {
	p.logger.Debug("parser: draining stack", "depth", len(p.stack))
	for len(p.stack) > 0 {
		top := p.pop()
		if top.kind == op.OpenGroup {
			return newUnbalanced(top.kind.Symbol(), top.pos, "open parenthesis is never closed")
		}
		p.emit(postfix.Op(top.kind).At(top.pos))
	}
	p.emit(postfix.EndMarker().At(pos))
	p.done = true
	return nil
}

func (p *Parser) push(k op.Kind, pos lexer.Position) {
	p.stack = append(p.stack, stackEntry{kind: k, pos: pos})
	p.logger.Debug("parser: push", "op", k.Symbol(), "depth", len(p.stack))
}

func (p *Parser) pop() stackEntry {
	top := p.stack[len(p.stack)-1]
	p.stack = p.stack[:len(p.stack)-1]
	p.logger.Debug("parser: pop", "op", top.kind.Symbol(), "depth", len(p.stack))
	return top
}

func (p *Parser) emit(e postfix.Entity) {
	p.output = append(p.output, e)
	p.logger.Debug("parser: output", "entity", e.String(), "kind", e.Kind.String())
}

// ParseNumber converts raw literal text to an IntegerLiteral or FloatLiteral.
// Underscore separators are stripped; a '.' selects floating point.
func ParseNumber(text string) (postfix.Entity, error) {
	digits := strings.ReplaceAll(text, "_", "")
	if digits == "" || digits == "." {
		return postfix.Entity{}, NewInvalidNumericLiteral(text, lexer.Position{}, nil)
	}

	if strings.Contains(digits, ".") {
		f, err := strconv.ParseFloat(digits, 64)
		if err != nil {
			return postfix.Entity{}, NewInvalidNumericLiteral(text, lexer.Position{}, err)
		}
		return postfix.Float(f), nil
	}

	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return postfix.Entity{}, NewInvalidNumericLiteral(text, lexer.Position{}, err)
	}
	return postfix.Int(n), nil
}
