// Package main is the entry point for the sake CLI.
//
// sake builds and releases WooCommerce and WordPress plugins. All commands
// live in internal/cli; this package only injects the build information
// set via ldflags.
package main

import (
	"github.com/skyverge/sake/internal/cli"
)

// version, commit and date are set at build time via
// -ldflags "-X main.version=... -X main.commit=... -X main.date=...".
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cli.Version = version
	cli.Commit = commit
	cli.Date = date

	cli.Execute(cli.NewRootCommand())
}
