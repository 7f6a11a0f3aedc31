package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/vx/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string

	// Config holds project defaults from vx.cue. Subcommands built without
	// the root command see the zero value and fall back to built-ins.
	Config config.Config

	// Logger receives stage tracing. Nil means discard.
	Logger *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the vx CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "vx",
		Short: "vx - arithmetic expression front end",
		Long: `vx compiles infix arithmetic expressions to a postfix sequence and an
expression-tree IR.

Project defaults are read from vx.cue in the working directory, or from
the file given with --config. Flags always win over the file.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.loadConfig(cmd); err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), "Error:", err)
				return err
			}
			// Validate format flag
			if !isValidFormat(opts.Format) {
				err := NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
				fmt.Fprintln(cmd.ErrOrStderr(), "Error:", err)
				return err
			}
			opts.Logger = newLogger(cmd.ErrOrStderr(), opts.Verbose)
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to a vx.cue project file")

	// Add subcommands
	cmd.AddCommand(NewCompileCommand(opts))
	cmd.AddCommand(NewTokensCommand(opts))
	cmd.AddCommand(NewPostfixCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))
	cmd.AddCommand(NewShowCommand(opts))

	return cmd
}

// loadConfig reads the project file and applies it beneath explicit flags.
func (o *RootOptions) loadConfig(cmd *cobra.Command) error {
	var (
		cfg config.Config
		err error
	)
	if o.ConfigPath != "" {
		cfg, err = config.Load(o.ConfigPath)
	} else {
		wd, wdErr := os.Getwd()
		if wdErr != nil {
			return WrapExitError(ExitCommandError, "resolving working directory", wdErr)
		}
		cfg, err = config.Discover(wd)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, ErrCodeConfig+": invalid configuration", err)
	}
	o.Config = cfg

	flags := cmd.Flags()
	if !flags.Changed("format") && cfg.Format != "" {
		o.Format = cfg.Format
	}
	if !flags.Changed("verbose") && cfg.Verbose {
		o.Verbose = true
	}
	return nil
}

// sourcePath picks the file argument, then the configured source, then
// the built-in default.
func (o *RootOptions) sourcePath(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	if o.Config.Source != "" {
		return o.Config.Source
	}
	return config.DefaultSource
}

// dbPath picks the --db flag, then the configured database, then the
// built-in default.
func (o *RootOptions) dbPath(flag string) string {
	if flag != "" {
		return flag
	}
	if o.Config.DB != "" {
		return o.Config.DB
	}
	return config.DefaultDB
}

func (o *RootOptions) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newLogger builds the stderr text logger: Info by default, Debug when
// verbose.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: logLevel,
	})
	return slog.New(handler)
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
