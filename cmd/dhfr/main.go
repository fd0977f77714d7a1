// Package main is the entry point for the dhfr CLI.
package main

import (
	"os"

	"github.com/f3rmion/dhfr/cmd/dhfr/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
