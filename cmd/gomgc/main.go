// Package main is the entry point for the gomgc CLI.
package main

import (
	"errors"
	"os"

	"github.com/yaklabco/gomgc/internal/cli"
	"github.com/yaklabco/gomgc/internal/logging"
	"github.com/yaklabco/gomgc/pkg/script"
)

// Build-time variables set by GoReleaser via ldflags.
//
//nolint:gochecknoglobals // Version variables must be package-level for ldflags injection
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	info := cli.BuildInfo{
		Version: version,
		Commit:  commit,
		Date:    date,
	}

	rootCmd := cli.NewRootCommand(info)

	if err := rootCmd.Execute(); err != nil {
		// Script failures are already rendered by their command; anything
		// else (usage, config) still needs reporting here.
		var serr *script.Error
		if !errors.As(err, &serr) {
			logger := logging.Default()
			logger.Error("command failed", logging.FieldError, err)
		}
		return cli.ExitCodeForError(err)
	}

	return 0
}
