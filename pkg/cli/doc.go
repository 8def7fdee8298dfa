// Package cli provides the shared plumbing of the mediaid command-line tool.
//
// This package includes:
//   - Configuration management (contexts holding dataset profiles)
//   - Output formatting (JSON, YAML) and styled terminal marks
//   - Logging setup with optional rotating log files
//   - Interactive prompts and progress bars
//
// Configuration is stored in ~/.mediaid/config.yaml and supports multiple
// contexts similar to kubectl. A context names a dataset layout: where the
// face images and label table live, which voice directory and speaker
// registry to use, and how to record.
//
// Example usage:
//
//	cfg, err := cli.LoadConfig("")
//
//	// Resolve the context named by -c, or the current one
//	ctx, err := cfg.ResolveContext(name)
//
//	// Render a report
//	cli.Output(report, cli.OutputOptions{Format: cli.FormatJSON})
package cli
