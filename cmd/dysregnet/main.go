// Package main is the entry point of the DysRegNet Explorer CLI.
package main

import (
	"os"

	"github.com/dysregnet/dysregnet-explorer/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
