// Package lexer turns vx source text into tokens.
//
// A Lexer is pulled one token at a time with Next. Numeric runs and
// identifiers are scanned by maximal munch, operators by trying a
// two-character lexeme before a single character. Every token and error
// carries a Position with a 1-based line and a rune-counted column.
//
// Numeric runs are not validated here: "1.2.3" is one Numeric token and
// the parser rejects it.
package lexer

import (
	"io"
	"iter"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/roach88/vx/internal/op"
)

const (
	whitespaceChars = "\t\r\n "
	numericChars    = "0123456789._"
)

// Lexer is a pull-based, single-pass tokenizer.
// Characters are consumed exactly once; a Lexer cannot be rewound.
type Lexer struct {
	src  string
	off  int
	line int
	col  int

	opChars string
	logger  *slog.Logger
}

// Option configures a Lexer.
type Option func(*Lexer)

// WithLogger routes token tracing to logger at debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Lexer) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// withOperatorChars overrides the operator character set.
func withOperatorChars(chars string) Option {
	return func(l *Lexer) {
		l.opChars = chars
	}
}

// New returns a Lexer over src.
func New(src string, opts ...Option) *Lexer {
	l := &Lexer{
		src:     src,
		line:    1,
		col:     1,
		opChars: op.Chars,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Offset returns the byte offset of the next unconsumed character.
func (l *Lexer) Offset() int {
	return l.off
}

// Remaining returns the unconsumed source.
func (l *Lexer) Remaining() string {
	return l.src[l.off:]
}

// Next returns the next token. After the source is exhausted it returns an
// EndOfInput token on every call.
func (l *Lexer) Next() (Token, error) {
	for l.off < len(l.src) {
		pos := l.pos()
		c, _ := l.peek()

		switch {
		case strings.ContainsRune(whitespaceChars, c):
			l.advance()

		case isNumeric(c):
			text := l.scanWhile(isNumeric)
			l.logger.Debug("lexer: numeric", "text", text, "pos", pos.String())
			return Numeric(text, pos), nil

		case isIdentStart(c):
			name := l.scanWhile(isIdentPart)
			l.logger.Debug("lexer: identifier", "name", name, "pos", pos.String())
			return Ident(name, pos), nil

		case strings.ContainsRune(l.opChars, c):
			return l.scanOperator(pos)

		default:
			raw := l.src[l.off:]
			_, size := l.peek()
			l.advance()
			return Token{}, newUnexpectedCharacter(c, raw[:size], pos)
		}
	}
	return End(l.pos()), nil
}

// All yields tokens until EndOfInput (inclusive) or the first error.
func (l *Lexer) All() iter.Seq2[Token, error] {
	return func(yield func(Token, error) bool) {
		for {
			tok, err := l.Next()
			if !yield(tok, err) || err != nil || tok.Kind == EndOfInput {
				return
			}
		}
	}
}

// Tokenize lexes src to completion. The returned slice ends with EndOfInput.
func Tokenize(src string, opts ...Option) ([]Token, error) {
	var toks []Token
	for tok, err := range New(src, opts...).All() {
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
	}
	return toks, nil
}

// scanOperator tries a two-character lexeme first, then one character.
func (l *Lexer) scanOperator(pos Position) (Token, error) {
	c, size := l.peek()
	if next, nsize := utf8.DecodeRuneInString(l.src[l.off+size:]); nsize > 0 {
		if d, ok := op.Lookup(string([]rune{c, next})); ok {
			l.advance()
			l.advance()
			l.logger.Debug("lexer: operator", "op", d.Symbol, "pos", pos.String())
			return Oper(d, pos), nil
		}
	}

	l.advance()
	d, ok := op.Lookup(string(c))
	if !ok {
		return Token{}, newMissingOperator(c, pos)
	}
	l.logger.Debug("lexer: operator", "op", d.Symbol, "pos", pos.String())
	return Oper(d, pos), nil
}

// scanWhile consumes the maximal run of characters satisfying pred.
func (l *Lexer) scanWhile(pred func(rune) bool) string {
	start := l.off
	for l.off < len(l.src) {
		c, _ := l.peek()
		if !pred(c) {
			break
		}
		l.advance()
	}
	return l.src[start:l.off]
}

func (l *Lexer) peek() (rune, int) {
	return utf8.DecodeRuneInString(l.src[l.off:])
}

func (l *Lexer) advance() {
	c, size := l.peek()
	l.off += size
	if c == '\n' {
		l.line++
		l.col = 1
		return
	}
	l.col++
}

func (l *Lexer) pos() Position {
	return Position{Offset: l.off, Line: l.line, Column: l.col}
}

func isNumeric(c rune) bool {
	return strings.ContainsRune(numericChars, c)
}

func isIdentStart(c rune) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

func isIdentPart(c rune) bool {
	return isIdentStart(c) || ('0' <= c && c <= '9') || c == '_'
}
