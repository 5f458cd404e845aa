// Package main is the entrypoint for the cordon CLI.
package main

import (
	"os"

	"github.com/cordonlabs/cordon/internal/cli"
)

// Version information set at build time via ldflags.
var (
	version = ""
	commit  = ""
	date    = ""
)

func main() {
	cli.SetVersionInfo(version, commit, date)
	os.Exit(cli.New().Execute())
}
