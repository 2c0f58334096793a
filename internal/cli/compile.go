package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/yaklabco/gomgc/internal/configloader"
	"github.com/yaklabco/gomgc/internal/logging"
	"github.com/yaklabco/gomgc/internal/ui/pretty"
	"github.com/yaklabco/gomgc/pkg/asm"
	"github.com/yaklabco/gomgc/pkg/compiler"
	"github.com/yaklabco/gomgc/pkg/config"
	"github.com/yaklabco/gomgc/pkg/fsutil"
	"github.com/yaklabco/gomgc/pkg/gci"
	"github.com/yaklabco/gomgc/pkg/script"
)

type compileFlags struct {
	output      string
	input       string
	requireBase bool
	noPack      bool
	backup      bool
	as          string
	objcopy     string
	mapVersion  string
	showSummary bool
}

func newCompileCommand(global *globalFlags) *cobra.Command {
	flags := &compileFlags{}

	cmd := &cobra.Command{
		Use:   "compile <script.mgc>",
		Short: "Compile an MGC script into a GCI save file",
		Long:  compileLongDescription,
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(cmd, args[0], global, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.output, "output", "o", "",
		"output path (default: script name with .gci extension)")
	cmd.Flags().StringVarP(&flags.input, "input", "i", "",
		"base GCI save file to overlay onto")
	cmd.Flags().BoolVar(&flags.requireBase, "require-base", false,
		"treat a base file checksum mismatch as fatal")
	cmd.Flags().BoolVar(&flags.noPack, "nopack", false,
		"skip obfuscation and emit the plain data region")
	cmd.Flags().BoolVar(&flags.backup, "backup", false,
		"keep a .bak copy of an existing output file")
	cmd.Flags().StringVar(&flags.as, "as", "", "path to the PowerPC assembler")
	cmd.Flags().StringVar(&flags.objcopy, "objcopy", "", "path to objcopy")
	cmd.Flags().StringVar(&flags.mapVersion, "map", "", "game version address map (default NTSC 1.02)")
	cmd.Flags().BoolVar(&flags.showSummary, "summary", true, "print block usage after compiling")

	return cmd
}

const compileLongDescription = `Compile an MGC script into a GCI save file.

The script is expanded, assembled and overlaid onto a base save file
(or a zero-filled container when no base is given), then re-encoded
with fresh obfuscation and checksums.

Examples:
  gomgc compile codes.mgc                      # Write codes.gci
  gomgc compile codes.mgc -i base.gci          # Overlay onto a real save
  gomgc compile codes.mgc -o out.gci --nopack  # Plain data for inspection
  gomgc compile codes.mgc --require-base -i base.gci`

func runCompile(cmd *cobra.Command, scriptPath string, global *globalFlags, flags *compileFlags) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	logger := logging.FromContext(ctx)

	cfg, err := loadConfig(global)
	if err != nil {
		return err
	}

	// CLI flags win over config file and environment.
	if flags.as != "" {
		cfg.Toolchain.As = flags.as
	}
	if flags.objcopy != "" {
		cfg.Toolchain.Objcopy = flags.objcopy
	}
	if flags.mapVersion != "" {
		cfg.MapVersion = flags.mapVersion
	}
	if flags.noPack {
		cfg.NoPack = true
	}

	blockMap, err := gci.MapForVersion(cfg.MapVersion)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConfigLoad, err)
	}

	var base []byte
	if flags.input != "" {
		var info *fsutil.FileInfo
		base, info, err = fsutil.ReadFile(ctx, flags.input)
		if err != nil {
			return script.WrapErr(script.Position{File: flags.input}, script.ErrFileAccess, err)
		}
		logger.Debug("read base save file",
			logging.FieldInput, flags.input,
			logging.FieldBytes, info.Size)
	}

	assembler := asm.NewExternal(cfg.Toolchain.As, cfg.Toolchain.Objcopy)
	if cfg.Toolchain.TimeoutSeconds > 0 {
		assembler.Timeout = time.Duration(cfg.Toolchain.TimeoutSeconds) * time.Second
	}

	diag := newDiagnostics(cmd, global)

	result, err := compiler.Compile(ctx, compiler.Options{
		ScriptPath:  scriptPath,
		BaseGCI:     base,
		RequireBase: flags.requireBase,
		NoPack:      cfg.NoPack,
		Map:         blockMap,
		Assembler:   assembler,
		Gecko:       asm.Gecko{},
		Log:         logger,
	})
	if err != nil {
		diag.errors.RenderError(err)
		return err
	}

	outPath := flags.output
	if outPath == "" {
		outPath = replaceExt(scriptPath, ".gci")
	}

	if flags.backup {
		if _, err := fsutil.CreateBackup(ctx, outPath); err != nil {
			return script.WrapErr(script.Position{File: outPath}, script.ErrOutput, err)
		}
	}

	written, err := fsutil.WriteAtomicIfChanged(ctx, outPath, result.Output, 0o644)
	if err != nil {
		werr := script.WrapErr(script.Position{File: outPath}, script.ErrOutput, err)
		diag.errors.RenderError(werr)
		return werr
	}
	if written {
		logger.Info("wrote save file",
			logging.FieldOutput, outPath,
			logging.FieldBytes, len(result.Output))
	} else {
		logger.Info("save file unchanged", logging.FieldOutput, outPath)
	}

	if flags.showSummary && !global.silent {
		diag.summary.Render(&result.Summary, blockMap)
	}

	return nil
}

// diagnostics bundles the styled stderr/stdout renderers for one command.
type diagnostics struct {
	errors  *pretty.DiagnosticRenderer
	summary *pretty.SummaryRenderer
}

func newDiagnostics(cmd *cobra.Command, global *globalFlags) *diagnostics {
	errStyles := pretty.NewStyles(pretty.IsColorEnabled(global.color, cmd.ErrOrStderr()))
	outStyles := pretty.NewStyles(pretty.IsColorEnabled(global.color, cmd.OutOrStdout()))
	return &diagnostics{
		errors:  pretty.NewDiagnosticRenderer(cmd.ErrOrStderr(), errStyles, global.verbose),
		summary: pretty.NewSummaryRenderer(cmd.OutOrStdout(), outStyles),
	}
}

// loadConfig resolves configuration from defaults, file and environment.
func loadConfig(global *globalFlags) (*config.Config, error) {
	workDir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("%w: get working directory: %w", ErrConfigLoad, err)
	}

	result, err := configloader.Load(configloader.LoadOptions{
		WorkingDir:   workDir,
		ExplicitPath: global.configPath,
	})
	if err != nil {
		return nil, errors.Join(ErrConfigLoad, err)
	}

	if result.LoadedFrom != "" {
		logging.Default().Debug("loaded configuration",
			logging.FieldPath, result.LoadedFrom)
	}
	return result.Config, nil
}

// replaceExt swaps a path's extension, or appends when there is none.
func replaceExt(path, ext string) string {
	if idx := strings.LastIndex(path, "."); idx > strings.LastIndexAny(path, "/\\") {
		return path[:idx] + ext
	}
	return path + ext
}
