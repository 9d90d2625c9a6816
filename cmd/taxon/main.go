// Command taxon maintains a closure-table category taxonomy in SQLite.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/taxon/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		// stdout carries only formatted output, so JSON stays parseable.
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
