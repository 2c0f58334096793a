package pretty_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yaklabco/gomgc/internal/ui/pretty"
	"github.com/yaklabco/gomgc/pkg/asm"
	"github.com/yaklabco/gomgc/pkg/compiler"
	"github.com/yaklabco/gomgc/pkg/gci"
	"github.com/yaklabco/gomgc/pkg/script"
)

func TestIsColorEnabled(t *testing.T) {
	t.Run("always and never ignore the writer", func(t *testing.T) {
		assert.True(t, pretty.IsColorEnabled("always", &bytes.Buffer{}))
		assert.False(t, pretty.IsColorEnabled("never", &bytes.Buffer{}))
	})

	t.Run("auto is off for non-terminal writers", func(t *testing.T) {
		assert.False(t, pretty.IsColorEnabled("auto", &bytes.Buffer{}))
	})

	t.Run("NO_COLOR disables auto", func(t *testing.T) {
		t.Setenv("NO_COLOR", "1")
		assert.False(t, pretty.IsColorEnabled("auto", &bytes.Buffer{}))
	})
}

func TestDiagnosticRenderer(t *testing.T) {
	t.Parallel()

	render := func(verbose bool, err error) string {
		var buf bytes.Buffer
		pretty.NewDiagnosticRenderer(&buf, pretty.NewStyles(false), verbose).RenderError(err)
		return buf.String()
	}

	t.Run("positioned errors show file and line once", func(t *testing.T) {
		t.Parallel()

		err := script.Errorf(script.Position{File: "codes.mgc", Line: 12},
			script.ErrSyntax, "fill count must be greater than 0")
		assert.Equal(t, "error: codes.mgc:12: fill count must be greater than 0\n", render(false, err))
	})

	t.Run("plain errors render verbatim", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, "error: something broke\n", render(false, errors.New("something broke")))
	})

	t.Run("verbose mode prints hidden causes", func(t *testing.T) {
		t.Parallel()

		toolchain := &asm.Error{Diagnostic: "unrecognized opcode", Line: 2, Err: errors.New("exit status 1")}
		err := script.WrapErr(script.Position{File: "a.mgc", Line: 3}, script.ErrAssembly, toolchain)
		out := render(true, err)
		assert.Contains(t, out, "error: a.mgc:3: assembly failed: line 2: unrecognized opcode")
		assert.Contains(t, out, "caused by: exit status 1")
		assert.NotContains(t, out, "caused by: assembly failed", "text the headline shows is not repeated")
	})

	t.Run("warnings carry their position", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		r := pretty.NewDiagnosticRenderer(&buf, pretty.NewStyles(false), false)
		r.RenderWarning(script.Position{File: "a.mgc", Line: 7}, "alias [x] is already defined; overwriting")
		assert.Equal(t, "warning: a.mgc:7: alias [x] is already defined; overwriting\n", buf.String())

		buf.Reset()
		r.RenderWarning(script.Position{}, "no position")
		assert.Equal(t, "warning: no position\n", buf.String())
	})
}

func TestSummaryRenderer(t *testing.T) {
	t.Parallel()

	render := func(sum *compiler.Summary) string {
		var buf bytes.Buffer
		pretty.NewSummaryRenderer(&buf, pretty.NewStyles(false)).Render(sum, gci.NTSC102())
		return buf.String()
	}

	t.Run("reports usage per loaded block", func(t *testing.T) {
		t.Parallel()

		sum := &compiler.Summary{BytesWritten: 16, Runs: 2, Packed: true}
		sum.BlockBytes[1] = 16
		out := render(sum)
		assert.Contains(t, out, "Save data usage")
		assert.Contains(t, out, "0x0010 / 0x1f2c")
		assert.Contains(t, out, "total: 16 bytes in 2 runs (packed)")
		assert.NotContains(t, out, "block 0 ", "blocks the game never loads are omitted")
		assert.NotContains(t, out, "outside blocks")
	})

	t.Run("reports plain output and stray bytes", func(t *testing.T) {
		t.Parallel()

		sum := &compiler.Summary{BytesWritten: 8, Runs: 1, Other: 8}
		out := render(sum)
		assert.Contains(t, out, "outside blocks: 0x8 bytes")
		assert.Contains(t, out, "(plain)")
	})

	t.Run("small nonzero usage still shows a filled cell", func(t *testing.T) {
		t.Parallel()

		sum := &compiler.Summary{BytesWritten: 1, Runs: 1}
		sum.BlockBytes[1] = 1
		assert.Contains(t, render(sum), "█")
	})
}
