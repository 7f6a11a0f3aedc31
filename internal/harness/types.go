package harness

import (
	"github.com/roach88/vx/internal/compiler"
)

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall success: every expectation and assertion held.
	Pass bool `json:"pass"`

	// Source is the program text that was compiled.
	Source string `json:"source"`

	// Postfix is the rendered postfix sequence, empty on compile failure.
	Postfix string `json:"postfix,omitempty"`

	// IR is the rendered program, one s-expression per line.
	IR string `json:"ir,omitempty"`

	// Hash is the program's content address.
	Hash string `json:"hash,omitempty"`

	// ErrorCode is the typed code of the compile error, if any.
	ErrorCode string `json:"error_code,omitempty"`

	// ErrorMessage is the full compile error text, if any.
	ErrorMessage string `json:"error_message,omitempty"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Unit is the compiled unit, nil on compile failure.
	Unit *compiler.Unit `json:"-"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Failed reports whether the compilation itself failed.
func (r *Result) Failed() bool {
	return r.ErrorCode != "" || r.ErrorMessage != ""
}
