package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yaklabco/gomgc/internal/ui/pretty"
	"github.com/yaklabco/gomgc/pkg/gci"
	"github.com/yaklabco/gomgc/pkg/script"
)

func newChecksumCommand(global *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "checksum <save.gci>",
		Short: "Verify the integrity of a GCI save file",
		Long: `Verify that a GCI save file passes its own block checksums.

The file is deobfuscated and every block checksum is recomputed and
compared against the stored value. Exit status is zero only when all
blocks verify.`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChecksum(cmd, args[0], global)
		},
	}

	return cmd
}

func runChecksum(cmd *cobra.Command, inputPath string, global *globalFlags) error {
	diag := newDiagnostics(cmd, global)
	styles := pretty.NewStyles(pretty.IsColorEnabled(global.color, cmd.OutOrStdout()))

	_, _, err := readContainer(inputPath)
	switch {
	case err == nil:
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", styles.Success.Render("ok:"), inputPath)
		return nil
	case errors.Is(err, gci.ErrChecksumMismatch):
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", styles.Failure.Render("corrupt:"), inputPath)
		return script.WrapErr(script.Position{File: inputPath}, script.ErrIntegrity, err)
	default:
		diag.errors.RenderError(err)
		return err
	}
}
