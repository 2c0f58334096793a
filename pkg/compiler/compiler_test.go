package compiler_test

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/gomgc/pkg/asm"
	"github.com/yaklabco/gomgc/pkg/compiler"
	"github.com/yaklabco/gomgc/pkg/gci"
	"github.com/yaklabco/gomgc/pkg/script"
)

// fixture is an in-memory script tree plus binary files, compiled with a
// canned assembler so no toolchain is needed.
type fixture struct {
	scripts map[string]string
	files   map[string][]byte
	asm     *asm.Fake
	opts    compiler.Options
}

func newFixture(main string) *fixture {
	f := &fixture{
		scripts: map[string]string{"main.mgc": main},
		files:   map[string][]byte{},
		asm:     &asm.Fake{},
	}
	f.opts = compiler.Options{
		ScriptPath: "main.mgc",
		NoPack:     true,
		Assembler:  f.asm,
		Loader:     f,
		ReadFile: func(path string) ([]byte, error) {
			data, ok := f.files[filepath.Clean(path)]
			if !ok {
				return nil, fmt.Errorf("open %s: no such file", path)
			}
			return data, nil
		},
	}
	return f
}

func (f *fixture) Load(path string) (string, error) {
	text, ok := f.scripts[filepath.Clean(path)]
	if !ok {
		return "", fmt.Errorf("open %s: no such file", path)
	}
	return text, nil
}

func (f *fixture) compile(t *testing.T) *compiler.Result {
	t.Helper()
	res, err := compiler.Compile(context.Background(), f.opts)
	require.NoError(t, err)
	return res
}

// bytesAt reads a span out of an unpacked result image.
func bytesAt(t *testing.T, res *compiler.Result, offset, length int) []byte {
	t.Helper()
	c, err := gci.FromPlain(res.Output)
	require.NoError(t, err)
	data, err := c.ReadAt(offset, length)
	require.NoError(t, err)
	return data
}

func TestCompileWrites(t *testing.T) {
	t.Parallel()

	t.Run("loc mode translates through the block map", func(t *testing.T) {
		t.Parallel()

		f := newFixture("!loc 8045d6b8\n00010203")
		res := f.compile(t)
		assert.Equal(t, []byte{0, 1, 2, 3}, bytesAt(t, res, 0x4060, 4))
		assert.Equal(t, 4, res.Summary.BytesWritten)
		assert.Equal(t, 1, res.Summary.Runs)
		assert.Equal(t, 4, res.Summary.BlockBytes[1])
		assert.False(t, res.Summary.Packed)
	})

	t.Run("gci mode writes the raw offset", func(t *testing.T) {
		t.Parallel()

		f := newFixture("!gci 2060\nCAFEBABE")
		res := f.compile(t)
		assert.Equal(t, []byte{0xCA, 0xFE, 0xBA, 0xBE}, bytesAt(t, res, 0x2060, 4))
	})

	t.Run("writes advance the cursor", func(t *testing.T) {
		t.Parallel()

		f := newFixture("!gci 2060\n1122\n3344")
		res := f.compile(t)
		assert.Equal(t, []byte{0x11, 0x22, 0x33, 0x44}, bytesAt(t, res, 0x2060, 4))
	})

	t.Run("add offsets the active cursor", func(t *testing.T) {
		t.Parallel()

		f := newFixture("!gci 2060\n!add 10\nAB")
		res := f.compile(t)
		assert.Equal(t, []byte{0xAB}, bytesAt(t, res, 0x2070, 1))
	})

	t.Run("later writes win byte by byte", func(t *testing.T) {
		t.Parallel()

		f := newFixture("!loc 8045d6b8\n00000000\n!loc 8045d6ba\nFFFF")
		res := f.compile(t)
		assert.Equal(t, []byte{0x00, 0x00, 0xFF, 0xFF}, bytesAt(t, res, 0x4060, 4))
	})

	t.Run("loc writes split across block seams", func(t *testing.T) {
		t.Parallel()

		// The first two bytes land at the tail of the last addressable
		// block, the rest at the head of the next one in memory order.
		f := newFixture("!loc 8045d6b6\n01020304")
		res := f.compile(t)
		assert.Equal(t, []byte{0x01, 0x02}, bytesAt(t, res, 0x14060+0x178e, 2))
		assert.Equal(t, []byte{0x03, 0x04}, bytesAt(t, res, 0x4060, 2))
		assert.Equal(t, 2, res.Summary.Runs)
	})

	t.Run("usage is split across a block seam", func(t *testing.T) {
		t.Parallel()

		// 0x4030..0x4050 straddles the boundary between the first two
		// physical blocks, sixteen bytes on each side.
		f := newFixture("!gci 4030\n!fill 0x20 AB")
		res := f.compile(t)
		assert.Equal(t, 0x20, res.Summary.BytesWritten)
		assert.Equal(t, 0x10, res.Summary.BlockBytes[0])
		assert.Equal(t, 0x10, res.Summary.BlockBytes[1])
		assert.Equal(t, 0, res.Summary.Other)
	})

	t.Run("usage outside the blocks stops at the first block", func(t *testing.T) {
		t.Parallel()

		f := newFixture("!gci 2030\n!fill 0x20 CD")
		res := f.compile(t)
		assert.Equal(t, 0x10, res.Summary.Other)
		assert.Equal(t, 0x10, res.Summary.BlockBytes[0])
	})

	t.Run("string bytes land unterminated", func(t *testing.T) {
		t.Parallel()

		f := newFixture("!gci 2060\n!string \"ok\"\nFF")
		res := f.compile(t)
		assert.Equal(t, []byte{'o', 'k', 0xFF}, bytesAt(t, res, 0x2060, 3))
	})

	t.Run("negative cursor is rejected", func(t *testing.T) {
		t.Parallel()

		f := newFixture("!gci 10\n!add -20\nAA")
		_, err := compiler.Compile(context.Background(), f.opts)
		require.ErrorIs(t, err, script.ErrOutOfBounds)
	})

	t.Run("address outside the save region is rejected", func(t *testing.T) {
		t.Parallel()

		f := newFixture("!loc 80001000\nAA")
		_, err := compiler.Compile(context.Background(), f.opts)
		require.ErrorIs(t, err, script.ErrOutOfBounds)
	})
}

func TestCompilePatchMode(t *testing.T) {
	t.Parallel()

	// Patch-table entries apply after everything else, so a later !gci
	// write to the same offset cannot clobber them.
	f := newFixture("!patch 2060\nAA\n!gci 2060\nBB")
	res := f.compile(t)
	assert.Equal(t, []byte{0xAA}, bytesAt(t, res, 0x2060, 1))
}

func TestCompileSubstitutionTransparency(t *testing.T) {
	t.Parallel()

	literal := newFixture("!loc 8045d6b8\nDEADBEEF")
	aliased := newFixture("!define target 8045d6b8\n!define data DEADBEEF\n!loc [target]\n[data]")
	assert.Equal(t, literal.compile(t).Output, aliased.compile(t).Output)
}

func TestCompileMacros(t *testing.T) {
	t.Parallel()

	t.Run("copies share the ambient cursor", func(t *testing.T) {
		t.Parallel()

		f := newFixture("!gci 2060\n!macro four\n01020304\n!macroend\n+four 3")
		res := f.compile(t)
		want := []byte{1, 2, 3, 4, 1, 2, 3, 4, 1, 2, 3, 4}
		assert.Equal(t, want, bytesAt(t, res, 0x2060, 12))
		assert.Equal(t, 12, res.Summary.BytesWritten)
	})

	t.Run("a loc inside a macro persists", func(t *testing.T) {
		t.Parallel()

		f := newFixture("!macro jump\n!gci 2060\nAA\n!macroend\n+jump 2\nBB")
		res := f.compile(t)
		// Second copy resets the cursor to 0x2060 and overwrites the
		// first; BB continues from where the last copy stopped.
		assert.Equal(t, []byte{0xAA, 0xBB}, bytesAt(t, res, 0x2060, 2))
	})
}

func TestCompileAssembly(t *testing.T) {
	t.Parallel()

	t.Run("asm blocks emit machine code at the cursor", func(t *testing.T) {
		t.Parallel()

		f := newFixture("!gci 2060\n!asm\nmflr r0\nblr\n!asmend")
		f.asm.Out = []byte{0x7C, 0x08, 0x02, 0xA6}
		res := f.compile(t)
		assert.Equal(t, f.asm.Out, bytesAt(t, res, 0x2060, 4))
		require.Len(t, f.asm.Calls, 1)
		assert.Equal(t, "mflr r0\nblr", f.asm.Calls[0])
	})

	t.Run("c2 blocks wrap the code in an injection header", func(t *testing.T) {
		t.Parallel()

		f := newFixture("!gci 2060\n!c2 801a4d98\nmflr r0\n!c2end")
		f.asm.Out = []byte{0x7C, 0x08, 0x02, 0xA6}
		res := f.compile(t)

		out := bytesAt(t, res, 0x2060, 16)
		assert.Equal(t, uint32(0xC21a4d98), binary.BigEndian.Uint32(out))
		assert.Equal(t, uint32(1), binary.BigEndian.Uint32(out[4:]))
		assert.Equal(t, f.asm.Out, out[8:12])
		assert.Equal(t, uint32(0), binary.BigEndian.Uint32(out[12:]))
	})

	t.Run("toolchain failures abort with the failing line", func(t *testing.T) {
		t.Parallel()

		f := newFixture("!gci 2060\n!asm\ngood\nbad\n!asmend")
		f.asm.Err = &asm.Error{Diagnostic: "unrecognized opcode", Line: 2}
		_, err := compiler.Compile(context.Background(), f.opts)
		require.ErrorIs(t, err, script.ErrAssembly)

		var serr *script.Error
		require.ErrorAs(t, err, &serr)
		// The block opens on line 2; the toolchain points at its second
		// body line.
		assert.Equal(t, 4, serr.Pos.Line)
	})

	t.Run("asmsrc assembles a separate file", func(t *testing.T) {
		t.Parallel()

		f := newFixture("!gci 2060\n!asmsrc \"boot.s\"")
		f.files["boot.s"] = []byte("mflr r0\n")
		f.asm.Out = []byte{0x7C, 0x08, 0x02, 0xA6}
		res := f.compile(t)
		assert.Equal(t, f.asm.Out, bytesAt(t, res, 0x2060, 4))
	})
}

func TestCompileFileDirectives(t *testing.T) {
	t.Parallel()

	t.Run("file appends raw bytes", func(t *testing.T) {
		t.Parallel()

		f := newFixture("!gci 2060\n!file \"payload.bin\"")
		f.files["payload.bin"] = []byte{9, 8, 7}
		res := f.compile(t)
		assert.Equal(t, []byte{9, 8, 7}, bytesAt(t, res, 0x2060, 3))
	})

	t.Run("missing file aborts", func(t *testing.T) {
		t.Parallel()

		f := newFixture("!gci 2060\n!file \"gone.bin\"")
		_, err := compiler.Compile(context.Background(), f.opts)
		require.ErrorIs(t, err, script.ErrFileAccess)
	})

	t.Run("gecko codelists carry their sentinels", func(t *testing.T) {
		t.Parallel()

		f := newFixture("!gci 2060\n!geckocodelist \"codes.txt\"")
		f.files["codes.txt"] = []byte("*04453130 3F800000\n")
		res := f.compile(t)

		out := bytesAt(t, res, 0x2060, 24)
		assert.Equal(t, []byte{0x00, 0xD0, 0xC0, 0xDE, 0x00, 0xD0, 0xC0, 0xDE}, out[:8])
		assert.Equal(t, []byte{0x04, 0x45, 0x31, 0x30, 0x3F, 0x80, 0x00, 0x00}, out[8:16])
		assert.Equal(t, []byte{0xF0, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}, out[16:24])
	})

	t.Run("file paths resolve against the including script", func(t *testing.T) {
		t.Parallel()

		f := newFixture("!src \"codes/sub.mgc\"")
		f.scripts["codes/sub.mgc"] = "!gci 2060\n!file \"payload.bin\""
		f.files["codes/payload.bin"] = []byte{5}
		res := f.compile(t)
		assert.Equal(t, []byte{5}, bytesAt(t, res, 0x2060, 1))
	})
}

func TestCompileBaseContainer(t *testing.T) {
	t.Parallel()

	// base returns a packed container with a known byte at 0x2060.
	base := func(t *testing.T) []byte {
		t.Helper()
		c := gci.NewContainer()
		require.NoError(t, c.WriteAt(0x2060, []byte{0x5A}))
		return c.Encode()
	}

	t.Run("untouched bytes come from the base", func(t *testing.T) {
		t.Parallel()

		f := newFixture("!gci 2061\nAA")
		f.opts.BaseGCI = base(t)
		res := f.compile(t)
		assert.Equal(t, []byte{0x5A, 0xAA}, bytesAt(t, res, 0x2060, 2))
	})

	t.Run("corrupt base is fatal only when required", func(t *testing.T) {
		t.Parallel()

		corrupt := base(t)
		corrupt[gci.HeaderSize+0x100] ^= 0xFF

		f := newFixture("!gci 2060\nAA")
		f.opts.BaseGCI = corrupt
		f.opts.RequireBase = true
		_, err := compiler.Compile(context.Background(), f.opts)
		require.ErrorIs(t, err, script.ErrIntegrity)

		f = newFixture("!gci 2060\nAA")
		f.opts.BaseGCI = corrupt
		res := f.compile(t)
		assert.Equal(t, []byte{0xAA}, bytesAt(t, res, 0x2060, 1))
	})

	t.Run("wrong-size base is always fatal", func(t *testing.T) {
		t.Parallel()

		f := newFixture("!gci 2060\nAA")
		f.opts.BaseGCI = make([]byte, 10)
		_, err := compiler.Compile(context.Background(), f.opts)
		require.ErrorIs(t, err, gci.ErrBadLayout)
	})
}

func TestCompilePacking(t *testing.T) {
	t.Parallel()

	t.Run("packed output decodes to the plain image", func(t *testing.T) {
		t.Parallel()

		plain := newFixture("!loc 8045d6b8\nDEADBEEF")
		plainOut := plain.compile(t).Output

		packed := newFixture("!loc 8045d6b8\nDEADBEEF")
		packed.opts.NoPack = false
		packedOut := packed.compile(t).Output

		assert.NotEqual(t, plainOut, packedOut)
		c, err := gci.Decode(packedOut)
		require.NoError(t, err)
		assert.Equal(t, plainOut, c.Plain())
	})

	t.Run("runs are deterministic", func(t *testing.T) {
		t.Parallel()

		one := newFixture("!loc 8045d6b8\nDEADBEEF\n!gci 2060\n!string \"x\"")
		one.opts.NoPack = false
		two := newFixture("!loc 8045d6b8\nDEADBEEF\n!gci 2060\n!string \"x\"")
		two.opts.NoPack = false
		assert.Equal(t, one.compile(t).Output, two.compile(t).Output)
	})
}

func TestCompileBlockOrder(t *testing.T) {
	t.Parallel()

	f := newFixture("!loc 8045d6b8\n77\n!blockorder 1 0 2 3 4 5 6 7 8 9")
	res := f.compile(t)
	// Position 0 now holds what was block 1, so the marker written at
	// file offset 0x4060 surfaces at 0x2060.
	assert.Equal(t, []byte{0x77}, bytesAt(t, res, 0x2060, 1))
}

func TestCompileEcho(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	f := newFixture("!echo \"hello from the script\"")
	f.opts.Log = log.New(&buf)
	f.compile(t)
	assert.True(t, strings.Contains(buf.String(), "hello from the script"))
}

func TestCompileCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f := newFixture("!gci 2060\nAA")
	_, err := compiler.Compile(ctx, f.opts)
	require.ErrorIs(t, err, context.Canceled)
}
