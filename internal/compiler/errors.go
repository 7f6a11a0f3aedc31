package compiler

import (
	"errors"
	"fmt"

	"github.com/roach88/vx/internal/lexer"
	"github.com/roach88/vx/internal/parser"
)

// IRError represents a malformed postfix sequence detected during IR
// generation. These indicate a defect upstream or invalid input; they are
// never recoverable.
type IRError struct {
	// Code identifies the error category.
	Code IRErrorCode

	// Message is a human-readable description.
	Message string

	// Op is the operator symbol being reduced.
	Op string

	// Pos is the position of the operator in the source.
	Pos lexer.Position

	// Depth is the value stack depth when the error was detected.
	Depth int
}

// IRErrorCode categorizes IR generation errors.
type IRErrorCode string

const (
	// ErrCodeStackUnderflow indicates an operator without enough operands.
	ErrCodeStackUnderflow IRErrorCode = "STACK_UNDERFLOW"

	// ErrCodeInvalidAssignmentTarget indicates an assignment whose left
	// operand is not an identifier.
	ErrCodeInvalidAssignmentTarget IRErrorCode = "INVALID_ASSIGNMENT_TARGET"

	// ErrCodeUnsupportedOperator indicates an operator entity the generator
	// cannot reduce, such as a grouping marker leaking into postfix.
	ErrCodeUnsupportedOperator IRErrorCode = "UNSUPPORTED_OPERATOR"
)

// Error implements the error interface.
func (e *IRError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s: %s: %s", e.Pos, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsIRError returns true if err wraps an *IRError.
func IsIRError(err error) bool {
	var ie *IRError
	return errors.As(err, &ie)
}

// IsStackUnderflow returns true if err is a stack underflow IRError.
// Uses errors.As to handle wrapped errors.
func IsStackUnderflow(err error) bool {
	var ie *IRError
	if errors.As(err, &ie) {
		return ie.Code == ErrCodeStackUnderflow
	}
	return false
}

// IsInvalidAssignmentTarget returns true if err is an assignment target IRError.
func IsInvalidAssignmentTarget(err error) bool {
	var ie *IRError
	if errors.As(err, &ie) {
		return ie.Code == ErrCodeInvalidAssignmentTarget
	}
	return false
}

// NewStackUnderflowError creates an IRError for an operator lacking operands.
func NewStackUnderflowError(op string, pos lexer.Position, have, need int) *IRError {
	return &IRError{
		Code:    ErrCodeStackUnderflow,
		Message: fmt.Sprintf("operator %q needs %d operand(s), found %d", op, need, have),
		Op:      op,
		Pos:     pos,
		Depth:   have,
	}
}

// NewInvalidAssignmentTargetError creates an IRError for a non-identifier target.
func NewInvalidAssignmentTargetError(target string, pos lexer.Position, depth int) *IRError {
	return &IRError{
		Code:    ErrCodeInvalidAssignmentTarget,
		Message: fmt.Sprintf("cannot assign to %s: target must be an identifier", target),
		Op:      "=",
		Pos:     pos,
		Depth:   depth,
	}
}

func newUnsupportedOperatorError(op string, pos lexer.Position, depth int) *IRError {
	return &IRError{
		Code:    ErrCodeUnsupportedOperator,
		Message: fmt.Sprintf("operator %q cannot appear in postfix", op),
		Op:      op,
		Pos:     pos,
		Depth:   depth,
	}
}

// Diagnostic is the stage-independent view of a front-end error.
type Diagnostic struct {
	Stage   string
	Code    string
	Message string
	Pos     lexer.Position
}

// Diagnose extracts the typed code and source position from an error
// returned by Compile. ok is false for errors that carry no code, such as
// I/O failures.
func Diagnose(err error) (d Diagnostic, ok bool) {
	var (
		le *lexer.LexError
		pe *parser.ParseError
		ie *IRError
	)
	switch {
	case errors.As(err, &ie):
		return Diagnostic{Stage: StageGenerate, Code: string(ie.Code), Message: ie.Message, Pos: ie.Pos}, true
	case errors.As(err, &pe):
		return Diagnostic{Stage: StageParse, Code: string(pe.Code), Message: pe.Message, Pos: pe.Pos}, true
	case errors.As(err, &le):
		return Diagnostic{Stage: StageLex, Code: string(le.Code), Message: le.Message, Pos: le.Pos}, true
	}
	return Diagnostic{}, false
}

// ErrorCode returns the typed code carried by err, or "" if there is none.
func ErrorCode(err error) string {
	d, _ := Diagnose(err)
	return d.Code
}
