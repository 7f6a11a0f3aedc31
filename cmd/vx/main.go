// Command vx compiles infix arithmetic expressions to postfix and IR.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/vx/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		// Commands report their own failures; cobra usage errors are plain.
		var exitErr *cli.ExitError
		if !errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(cli.GetExitCode(err))
	}
}
