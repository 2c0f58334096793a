// Package cli provides the Cobra command structure for gomgc.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/yaklabco/gomgc/internal/logging"
)

// BuildInfo holds build-time version information.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

// globalFlags are the persistent flags shared by every subcommand.
type globalFlags struct {
	debug      bool
	silent     bool
	verbose    bool
	configPath string
	color      string
}

// NewRootCommand creates the root gomgc command with all subcommands.
func NewRootCommand(info BuildInfo) *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "gomgc",
		Short: "A compiler for Melee Gecko Code save files",
		Long: `gomgc compiles MGC scripts into Super Smash Bros. Melee GCI save files.

An MGC script places raw bytes, binary files, PowerPC assembly and Gecko
codelists at Melee memory addresses or raw container offsets. gomgc expands
the script, builds the write table, overlays it onto a save container and
re-encodes the container with fresh obfuscation and checksums.`,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			switch {
			case flags.debug:
				logging.SetLevel("debug")
			case flags.silent:
				logging.SetSilent()
			}
			cmd.SetContext(logging.WithLogger(cmd.Context(), logging.Default()))
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w: %w", ErrUsage, err)
	})

	// Global flags.
	rootCmd.PersistentFlags().BoolVar(&flags.debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVarP(&flags.silent, "silent", "q", false,
		"suppress echo and warning output, keep fatal errors")
	rootCmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false,
		"show the full cause chain of fatal errors")
	rootCmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "path to config file")
	rootCmd.PersistentFlags().StringVar(&flags.color, "color", "auto",
		"colorize output: auto, always, never")

	// Add subcommands.
	rootCmd.AddCommand(newCompileCommand(flags))
	rootCmd.AddCommand(newDecodeCommand(flags))
	rootCmd.AddCommand(newChecksumCommand(flags))
	rootCmd.AddCommand(newVersionCommand(info))

	// Apply styled help formatting.
	helpFormatter := NewHelpFormatter(flags.color, os.Stdout)
	helpFormatter.ApplyToCommand(rootCmd)

	return rootCmd
}

// exactArgs wraps cobra.ExactArgs so argument-count mistakes exit with the
// usage status instead of the generic failure status.
func exactArgs(n int) cobra.PositionalArgs {
	check := cobra.ExactArgs(n)
	return func(cmd *cobra.Command, args []string) error {
		if err := check(cmd, args); err != nil {
			return fmt.Errorf("%w: %w", ErrUsage, err)
		}
		return nil
	}
}
