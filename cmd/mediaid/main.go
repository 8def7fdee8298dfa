// Package main is the entry point for the mediaid CLI.
//
// Usage:
//
//	mediaid [flags] <command> [subcommand] [args]
//
// Commands:
//
//	face       - Face histogram K-NN classification (run)
//	voice      - Voice capture and speaker identification (record, split, eval, identify)
//	devices    - List audio devices
//	config     - Configuration management (contexts)
//	version    - Show version information
//
// Configuration:
//
//	The CLI stores configuration in ~/.mediaid/config.yaml.
//	Use 'mediaid config' commands to manage contexts.
package main

import (
	"fmt"
	"os"

	"github.com/mediaid/mediaid/cmd/mediaid/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
