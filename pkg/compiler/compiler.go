// Package compiler orchestrates one MGC compilation run: expand the
// script tree, build the write table, overlay it onto a save container,
// and re-encode the result. Each run owns its own tables, cursor and
// write history; nothing is shared across runs.
package compiler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/yaklabco/gomgc/pkg/asm"
	"github.com/yaklabco/gomgc/pkg/gci"
	"github.com/yaklabco/gomgc/pkg/script"
)

// Options configures a compilation run. Zero-value fields fall back to
// production defaults; tests inject fakes.
type Options struct {
	// ScriptPath is the root MGC file.
	ScriptPath string

	// BaseGCI is an optional packed save file the image is overlaid onto.
	// Without one, a zero-filled container is used.
	BaseGCI []byte

	// RequireBase makes a base container checksum mismatch fatal instead
	// of a warning.
	RequireBase bool

	// NoPack skips the obfuscation transform and emits the plain data
	// region for inspection. Checksums are still recomputed.
	NoPack bool

	// Map translates Melee addresses to container offsets. Defaults to
	// the NTSC 1.02 table.
	Map *gci.BlockMap

	// Assembler and Gecko are the external toolchain capabilities.
	Assembler asm.Assembler
	Gecko     asm.CodelistCompiler

	// Loader reads !src scripts; ReadFile reads !file binaries. Both
	// default to the local filesystem.
	Loader   script.SourceLoader
	ReadFile func(path string) ([]byte, error)

	// Log receives echo output, warnings and debug detail.
	Log *log.Logger
}

// Result is the outcome of a successful run.
type Result struct {
	// Output is the final container image, packed unless NoPack was set.
	Output []byte

	// Summary describes what was written.
	Summary Summary
}

// Compile runs the whole pipeline. Any failure aborts the run; partial
// output is never produced.
func Compile(ctx context.Context, opts Options) (*Result, error) {
	opts = withDefaults(opts)

	container, err := loadBase(opts)
	if err != nil {
		return nil, err
	}

	tables := script.NewTables()
	tables.Warn = func(pos script.Position, msg string) {
		opts.Log.Warn(msg, "pos", pos.String())
	}

	expander := script.NewExpander(tables, opts.Loader)
	opts.Log.Debug("expanding script", "script", opts.ScriptPath)
	dirs, err := expander.ExpandFile(opts.ScriptPath, script.Position{File: opts.ScriptPath})
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b := &builder{
		assembler: opts.Assembler,
		gecko:     opts.Gecko,
		readFile:  opts.ReadFile,
		readText: func(path string) (string, error) {
			data, err := opts.ReadFile(path)
			return string(data), err
		},
		log:      opts.Log,
		binCache: make(map[string][]byte),
	}
	if err := b.build(dirs); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	summary, err := overlay(container, b, opts)
	if err != nil {
		return nil, err
	}

	var out []byte
	if opts.NoPack {
		container.RecomputeChecksums()
		out = container.Plain()
	} else {
		opts.Log.Debug("packing container")
		out = container.Encode()
	}
	summary.Packed = !opts.NoPack
	return &Result{Output: out, Summary: summary}, nil
}

// overlay applies the write table to the container: address-mode runs are
// translated through the block map, offset-mode runs land directly.
// Writes apply in script order so the later directive wins per byte, with
// patch-table entries deferred to the very end.
func overlay(c *gci.Container, b *builder, opts Options) (Summary, error) {
	var summary Summary
	var history []appliedRun
	var patches []Write

	apply := func(w Write, offset int, data []byte) error {
		warnOverlap(opts.Log, history, offset, len(data), w.Pos)
		if err := c.WriteAt(offset, data); err != nil {
			return script.WrapErr(w.Pos, script.ErrOutOfBounds, err)
		}
		history = append(history, appliedRun{offset: offset, length: len(data), pos: w.Pos})
		summary.record(offset, len(data), opts.Map)
		return nil
	}

	for _, w := range b.writes {
		switch w.Mode {
		case ModePatch:
			patches = append(patches, w)
		case ModeGCI:
			opts.Log.Debug("writing in gci mode",
				"offset", fmt.Sprintf("0x%x", w.Target), "bytes", len(w.Data))
			if err := apply(w, int(w.Target), w.Data); err != nil {
				return summary, err
			}
		case ModeLoc:
			opts.Log.Debug("writing in loc mode",
				"address", fmt.Sprintf("0x%x", w.Target), "bytes", len(w.Data))
			runs, err := opts.Map.Translate(w.Target, len(w.Data))
			if err != nil {
				return summary, script.WrapErr(w.Pos, script.ErrOutOfBounds, err)
			}
			data := w.Data
			for _, r := range runs {
				if err := apply(w, r.Offset, data[:r.Length]); err != nil {
					return summary, err
				}
				data = data[r.Length:]
			}
		}
	}

	if b.hasBlockOrder {
		opts.Log.Debug("reordering blocks")
		if err := c.Reorder(b.blockOrder, opts.Map); err != nil {
			return summary, script.Errorf(script.Position{File: opts.ScriptPath}, script.ErrSyntax, "%v", err)
		}
	}

	for _, w := range patches {
		opts.Log.Debug("applying patch table entry",
			"offset", fmt.Sprintf("0x%x", w.Target), "bytes", len(w.Data))
		if err := apply(w, int(w.Target), w.Data); err != nil {
			return summary, err
		}
	}
	return summary, nil
}

type appliedRun struct {
	offset int
	length int
	pos    script.Position
}

func (r appliedRun) intersects(offset, length int) bool {
	return r.offset < offset+length && offset < r.offset+r.length
}

func warnOverlap(logger *log.Logger, history []appliedRun, offset, length int, pos script.Position) {
	for _, prev := range history {
		if prev.intersects(offset, length) {
			logger.Warn(fmt.Sprintf(
				"container offset 0x%x was already written by %s and is being overwritten",
				max(prev.offset, offset), prev.pos), "pos", pos.String())
			return
		}
	}
}

func loadBase(opts Options) (*gci.Container, error) {
	if opts.BaseGCI == nil {
		opts.Log.Debug("initializing new container")
		return gci.NewContainer(), nil
	}
	opts.Log.Debug("unpacking base container")
	c, err := gci.Decode(opts.BaseGCI)
	if err != nil {
		if errors.Is(err, gci.ErrChecksumMismatch) {
			if opts.RequireBase {
				return nil, script.WrapErr(script.Position{}, script.ErrIntegrity, err)
			}
			opts.Log.Warn("base container fails its own checksum; continuing", "error", err)
			return c, nil
		}
		return nil, fmt.Errorf("base container: %w", err)
	}
	return c, nil
}

func withDefaults(opts Options) Options {
	if opts.Map == nil {
		opts.Map = gci.NTSC102()
	}
	if opts.Assembler == nil {
		opts.Assembler = asm.NewExternal("", "")
	}
	if opts.Gecko == nil {
		opts.Gecko = asm.Gecko{}
	}
	if opts.Loader == nil {
		opts.Loader = osLoader{}
	}
	if opts.ReadFile == nil {
		opts.ReadFile = func(path string) ([]byte, error) { return os.ReadFile(path) }
	}
	if opts.Log == nil {
		opts.Log = log.New(io.Discard)
	}
	return opts
}

// osLoader reads scripts from the local filesystem.
type osLoader struct{}

func (osLoader) Load(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// resolveKey resolves a file reference against the directory of the
// script that made it, mirroring how !src includes resolve.
func resolveKey(fromFile, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(filepath.Dir(fromFile), path)
}
