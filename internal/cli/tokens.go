package cli

import (
	"encoding/json"
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/roach88/vx/internal/lexer"
)

// TokenView is the JSON shape of a token.
type TokenView struct {
	Kind   string `json:"kind"`
	Text   string `json:"text,omitempty"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
}

// NewTokensCommand creates the tokens command.
func NewTokensCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tokens [file]",
		Short: "Print the token stream",
		Long: `Lex a source file and print every token with its position,
ending with EndOfInput. Lexing stops at the first error.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTokens(rootOpts, rootOpts.sourcePath(args), cmd)
		},
	}
	return cmd
}

func runTokens(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	src, err := readSource(formatter, path)
	if err != nil {
		return err
	}

	toks, err := lexer.Tokenize(src, lexer.WithLogger(opts.logger()))
	if err != nil {
		return outputCompileFailure(formatter, path, src, err)
	}

	if formatter.Format == "json" {
		views := make([]TokenView, len(toks))
		for i, tok := range toks {
			views[i] = TokenView{
				Kind:   tok.Kind.String(),
				Text:   tok.Text,
				Line:   tok.Pos.Line,
				Column: tok.Pos.Column,
			}
		}
		return json.NewEncoder(formatter.Writer).Encode(CLIResponse{Status: "ok", Data: views})
	}

	table := newPlainTable(formatter.Writer)
	table.SetHeader([]string{"Position", "Kind", "Text"})
	for _, tok := range toks {
		table.Append([]string{tok.Pos.String(), tok.Kind.String(), tok.String()})
	}
	table.Render()
	return nil
}

// newPlainTable returns a borderless, left-aligned table writer.
func newPlainTable(w io.Writer) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	table.SetNoWhiteSpace(true)
	return table
}
