package compiler

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/roach88/vx/internal/ir"
	"github.com/roach88/vx/internal/lexer"
	"github.com/roach88/vx/internal/parser"
	"github.com/roach88/vx/internal/postfix"
)

// Stage names used to prefix wrapped errors.
const (
	StageLex      = "lex"
	StageParse    = "parse"
	StageGenerate = "generate"
)

// Unit is the result of compiling one source text.
type Unit struct {
	RunID   string
	Path    string
	Source  string
	Tokens  []lexer.Token
	Postfix postfix.Sequence
	Program *ir.Program
	Hash    string
}

type options struct {
	logger *slog.Logger
	runIDs RunIDGenerator
	path   string
}

// Option configures Compile.
type Option func(*options)

// WithLogger traces every stage to logger at debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithRunIDGenerator overrides the run ID source (for testing).
func WithRunIDGenerator(g RunIDGenerator) Option {
	return func(o *options) {
		if g != nil {
			o.runIDs = g
		}
	}
}

// WithPath records the source path on the Unit.
func WithPath(path string) Option {
	return func(o *options) {
		o.path = path
	}
}

// recorder tees tokens pulled by the parser.
type recorder struct {
	lx   *lexer.Lexer
	toks []lexer.Token
}

func (r *recorder) Next() (lexer.Token, error) {
	tok, err := r.lx.Next()
	if err == nil {
		r.toks = append(r.toks, tok)
	}
	return tok, err
}

// Compile runs the full front end over src: lexing and parsing to
// completion, then IR generation. Stages never interleave with generation,
// and the first error stops the pipeline.
//
// Errors are wrapped with the failing stage ("lex: ...", "parse: ...",
// "generate: ..."); use errors.As to reach the typed error.
func Compile(src string, opts ...Option) (*Unit, error) {
	o := &options{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		runIDs: UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(o)
	}

	unit := &Unit{
		RunID:  o.runIDs.Generate(),
		Path:   o.path,
		Source: src,
	}
	log := o.logger.With("run_id", unit.RunID)
	log.Debug("compile: start", "path", o.path, "bytes", len(src))

	rec := &recorder{lx: lexer.New(src, lexer.WithLogger(log))}
	seq, err := parser.New(rec, parser.WithLogger(log)).Parse()
	if err != nil {
		if lexer.IsLexError(err) {
			return nil, fmt.Errorf("%s: %w", StageLex, err)
		}
		return nil, fmt.Errorf("%s: %w", StageParse, err)
	}
	unit.Tokens = rec.toks
	unit.Postfix = seq
	log.Debug("compile: parsed", "tokens", len(rec.toks), "postfix", seq.String())

	prog, err := NewGenerator(log).Generate(seq)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", StageGenerate, err)
	}
	unit.Program = prog

	hash, err := ir.Hash(prog)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", StageGenerate, err)
	}
	unit.Hash = hash

	log.Debug("compile: done", "roots", len(prog.Nodes), "hash", hash)
	return unit, nil
}

// CompileFile reads path and compiles its contents.
func CompileFile(path string, opts ...Option) (*Unit, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading source: %w", err)
	}
	opts = append([]Option{WithPath(path)}, opts...)
	return Compile(string(data), opts...)
}
