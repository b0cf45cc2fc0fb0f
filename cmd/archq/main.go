package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/archq/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	cmd.SilenceErrors = true

	if err := cmd.Execute(); err != nil {
		// Commands print their own ExitErrors; flag and usage errors reach here unprinted.
		var exitErr *cli.ExitError
		if !errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(cli.ExitCommandError)
		}
		os.Exit(exitErr.Code)
	}
}
