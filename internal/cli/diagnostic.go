package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/roach88/vx/internal/compiler"
)

// isTerminal reports whether w is a terminal file descriptor.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// diagnosticPalette colors the parts of a rendered diagnostic.
type diagnosticPalette struct {
	location *color.Color
	code     *color.Color
	caret    *color.Color
}

func newDiagnosticPalette(enabled bool) diagnosticPalette {
	p := diagnosticPalette{
		location: color.New(color.Bold),
		code:     color.New(color.FgRed, color.Bold),
		caret:    color.New(color.FgGreen, color.Bold),
	}
	for _, c := range []*color.Color{p.location, p.code, p.caret} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// writeDiagnostic renders a compile error as
//
//	path:line:col: E205 STACK_UNDERFLOW: message
//	  1 +
//	    ^
//
// Errors without a position fall back to a single line.
func writeDiagnostic(w io.Writer, path, src string, err error, colorize bool) {
	p := newDiagnosticPalette(colorize)

	d, ok := compiler.Diagnose(err)
	if !ok {
		fmt.Fprintf(w, "%s %v\n", p.code.Sprint("error:"), err)
		return
	}

	name := path
	if name == "" {
		name = "<input>"
	}
	loc := name
	if d.Pos.IsValid() {
		loc = fmt.Sprintf("%s:%d:%d", name, d.Pos.Line, d.Pos.Column)
	}
	fmt.Fprintf(w, "%s: %s %s: %s\n",
		p.location.Sprint(loc),
		p.code.Sprint(MapDiagnosticCode(d.Code)),
		d.Code,
		d.Message)

	if !d.Pos.IsValid() {
		return
	}
	line, ok := sourceLine(src, d.Pos.Line)
	if !ok {
		return
	}
	fmt.Fprintf(w, "  %s\n", line)
	fmt.Fprintf(w, "  %s%s\n", caretIndent(line, d.Pos.Column), p.caret.Sprint("^"))
}

// sourceLine returns the 1-based line n of src without its newline.
func sourceLine(src string, n int) (string, bool) {
	lines := strings.Split(src, "\n")
	if n < 1 || n > len(lines) {
		return "", false
	}
	return strings.TrimRight(lines[n-1], "\r"), true
}

// caretIndent returns padding that places a caret under the 1-based rune
// column col. Tabs are kept so the caret lines up with the echoed line.
func caretIndent(line string, col int) string {
	var b strings.Builder
	i := 1
	for _, r := range line {
		if i >= col {
			break
		}
		if r == '\t' {
			b.WriteRune('\t')
		} else {
			b.WriteByte(' ')
		}
		i++
	}
	for ; i < col; i++ {
		b.WriteByte(' ')
	}
	return b.String()
}
