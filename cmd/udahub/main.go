// Package main is the entry point for the udahub CLI.
package main

import (
	"os"

	"github.com/udahub/udahub/cmd/udahub/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
