// Package compiler turns postfix sequences into IR and drives the vx front
// end end-to-end.
//
// Pipeline (strictly sequential, one pass per compilation unit):
//
//	source ─ lexer ─▶ tokens ─ parser ─▶ postfix.Sequence ─ Generator ─▶ ir.Program
//
// The parser runs to completion before generation starts. The generator
// depends only on the postfix data model, never on the parser itself.
//
// Errors from every stage are typed (*lexer.LexError, *parser.ParseError,
// *IRError) and surface to the caller wrapped with the stage name.
package compiler
