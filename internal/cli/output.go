package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/vx/internal/compiler"
	"github.com/roach88/vx/internal/lexer"
	"github.com/roach88/vx/internal/parser"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Compile error, failed scenario, history mismatch
	ExitCommandError = 2 // Command error (invalid paths, bad config, database not found, etc.)
)

// Error codes for CLI responses.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeNoFiles     = "E003" // No scenario files found
	ErrCodeNotFound    = "E005" // Path or unit not found
	ErrCodeWriteFailed = "E007" // File write error
	ErrCodeConfig      = "E008" // vx.cue load or validation error
	ErrCodeStore       = "E009" // History database error

	ErrCodeUnexpectedCharacter     = "E201"
	ErrCodeInvalidNumericLiteral   = "E202"
	ErrCodeUnbalancedParentheses   = "E203"
	ErrCodeUnexpectedToken         = "E204"
	ErrCodeStackUnderflow          = "E205"
	ErrCodeInvalidAssignmentTarget = "E206"
)

// MapDiagnosticCode maps a compiler error code to its CLI error code.
func MapDiagnosticCode(code string) string {
	switch code {
	case string(lexer.ErrCodeUnexpectedCharacter):
		return ErrCodeUnexpectedCharacter
	case string(parser.ErrCodeInvalidNumericLiteral):
		return ErrCodeInvalidNumericLiteral
	case string(parser.ErrCodeUnbalancedParentheses):
		return ErrCodeUnbalancedParentheses
	case string(parser.ErrCodeUnexpectedToken):
		return ErrCodeUnexpectedToken
	case string(compiler.ErrCodeStackUnderflow):
		return ErrCodeStackUnderflow
	case string(compiler.ErrCodeInvalidAssignmentTarget):
		return ErrCodeInvalidAssignmentTarget
	default:
		return ErrCodeGeneric
	}
}

// compileErrorCode returns the CLI error code for a compile pipeline error.
func compileErrorCode(err error) string {
	return MapDiagnosticCode(compiler.ErrorCode(err))
}

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for verbose/diagnostic output (defaults to Writer)
	Verbose   bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string    `json:"status"`           // "ok" or "error"
	Data   any       `json:"data,omitempty"`   // success payload
	Error  *CLIError `json:"error,omitempty"`  // error details
	RunID  string    `json:"run_id,omitempty"` // compilation run correlation
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`              // "E001", "E201", etc.
	Message string `json:"message"`           // human-readable message
	Details any    `json:"details,omitempty"` // additional context
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}

	// Human-readable text output
	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	// Human-readable error
	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// VerboseLog outputs a message only if verbose mode is enabled.
// Uses ErrWriter if set, otherwise falls back to Writer.
// When format is JSON, verbose logs go to ErrWriter to avoid corrupting JSON output.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	w := f.ErrWriter
	if w == nil {
		w = f.Writer
	}
	fmt.Fprintf(w, format+"\n", args...)
}

// GetErrWriter returns the appropriate writer for diagnostic output.
// Returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}
