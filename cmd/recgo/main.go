// Package main provides the entry point for the recgo CLI.
package main

import (
	"os"

	"github.com/hupe1980/recgo/cmd/recgo/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
