package cli

import (
	"context"
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/yaklabco/gomgc/internal/logging"
	"github.com/yaklabco/gomgc/pkg/fsutil"
	"github.com/yaklabco/gomgc/pkg/gci"
	"github.com/yaklabco/gomgc/pkg/script"
)

func newDecodeCommand(global *globalFlags) *cobra.Command {
	var output string
	var strict bool

	cmd := &cobra.Command{
		Use:   "decode <save.gci>",
		Short: "Unpack a GCI save file for inspection",
		Long: `Unpack a GCI save file by reversing the obfuscation transform.

The output is the plain container: the directory header followed by the
deobfuscated blocks, byte-compatible with compile --nopack output.

Examples:
  gomgc decode save.gci                 # Write save.raw
  gomgc decode save.gci -o plain.bin    # Explicit output path`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDecode(cmd, args[0], output, strict, global)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output path (default: input with .raw extension)")
	cmd.Flags().BoolVar(&strict, "strict", false, "treat a checksum mismatch as fatal")

	return cmd
}

func runDecode(cmd *cobra.Command, inputPath, output string, strict bool, global *globalFlags) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	logger := logging.FromContext(ctx)
	diag := newDiagnostics(cmd, global)

	packed, container, err := readContainer(inputPath)
	if err != nil {
		if errors.Is(err, gci.ErrChecksumMismatch) && !strict {
			logger.Warn("save file fails its own checksum; decoding anyway",
				logging.FieldInput, inputPath)
		} else {
			if errors.Is(err, gci.ErrChecksumMismatch) {
				err = script.WrapErr(script.Position{File: inputPath}, script.ErrIntegrity, err)
			}
			diag.errors.RenderError(err)
			return err
		}
	}

	if output == "" {
		output = replaceExt(inputPath, ".raw")
	}

	if err := fsutil.WriteAtomic(ctx, output, container.Plain(), 0o644); err != nil {
		werr := script.WrapErr(script.Position{File: output}, script.ErrOutput, err)
		diag.errors.RenderError(werr)
		return werr
	}

	logger.Info("unpacked save file",
		logging.FieldInput, inputPath,
		logging.FieldOutput, output,
		logging.FieldBytes, len(packed))
	return nil
}

// readContainer reads and unpacks a GCI file. On a checksum mismatch the
// container is still returned alongside gci.ErrChecksumMismatch so callers
// can choose whether the mismatch is fatal.
func readContainer(path string) ([]byte, *gci.Container, error) {
	packed, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, script.WrapErr(script.Position{File: path}, script.ErrFileAccess, err)
	}
	container, err := gci.Decode(packed)
	if container == nil && err != nil {
		return packed, nil, script.WrapErr(script.Position{File: path}, script.ErrSyntax, err)
	}
	return packed, container, err
}
