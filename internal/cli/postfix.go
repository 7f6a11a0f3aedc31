package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/vx/internal/lexer"
	"github.com/roach88/vx/internal/parser"
)

// PostfixResult is the JSON payload of the postfix command.
type PostfixResult struct {
	Postfix  string   `json:"postfix"`
	Entities []string `json:"entities"`
}

// NewPostfixCommand creates the postfix command.
func NewPostfixCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "postfix [file]",
		Short: "Print the postfix sequence",
		Long: `Parse a source file and print its postfix sequence, ending with end.

IR generation is not run, so operand-count problems such as "1 +" still
print a sequence.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPostfix(rootOpts, rootOpts.sourcePath(args), cmd)
		},
	}
	return cmd
}

func runPostfix(opts *RootOptions, path string, cmd *cobra.Command) error {
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

	logger := opts.logger()
	seq, err := parser.New(lexer.New(src, lexer.WithLogger(logger)), parser.WithLogger(logger)).Parse()
	if err != nil {
		return outputCompileFailure(formatter, path, src, err)
	}

	if formatter.Format == "json" {
		entities := make([]string, len(seq))
		for i, e := range seq {
			entities[i] = e.String()
		}
		return json.NewEncoder(formatter.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   PostfixResult{Postfix: seq.String(), Entities: entities},
		})
	}

	fmt.Fprintln(formatter.Writer, seq.String())
	return nil
}
