package pretty

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/yaklabco/gomgc/pkg/compiler"
	"github.com/yaklabco/gomgc/pkg/gci"
)

const (
	defaultTermWidth = 80
	maxBarWidth      = 24
	minBarWidth      = 8

	// rowOverhead is what one usage row occupies besides the bar: the
	// "  block NN " prefix and the " 0xNNNN / 0xNNNN" tail.
	rowOverhead = 28
)

// SummaryRenderer formats the end-of-run block usage report.
type SummaryRenderer struct {
	styles   *Styles
	writer   io.Writer
	barWidth int
}

// NewSummaryRenderer creates a renderer writing to the given writer. The
// usage bars shrink on narrow terminals so rows never wrap.
func NewSummaryRenderer(writer io.Writer, styles *Styles) *SummaryRenderer {
	bar := terminalWidth(writer) - rowOverhead
	if bar > maxBarWidth {
		bar = maxBarWidth
	}
	if bar < minBarWidth {
		bar = minBarWidth
	}
	return &SummaryRenderer{
		styles:   styles,
		writer:   writer,
		barWidth: bar,
	}
}

// Render writes the per-block usage table followed by totals.
func (r *SummaryRenderer) Render(sum *compiler.Summary, m *gci.BlockMap) {
	fmt.Fprintln(r.writer, r.styles.SummaryTitle.Render("Save data usage"))

	for i, region := range m.Blocks {
		if region.Size == 0 {
			continue
		}
		used := sum.BlockBytes[i]
		bar := r.usageBar(used, int(region.Size))
		line := fmt.Sprintf("  block %-2d %s %s", i, bar,
			r.styles.SummaryValue.Render(fmt.Sprintf("0x%04x / 0x%04x", used, region.Size)))
		fmt.Fprintln(r.writer, line)
	}

	if sum.Other > 0 {
		fmt.Fprintf(r.writer, "  %s\n",
			r.styles.Dim.Render(fmt.Sprintf("outside blocks: 0x%x bytes", sum.Other)))
	}

	mode := "plain"
	if sum.Packed {
		mode = "packed"
	}
	total := fmt.Sprintf("%d bytes in %d runs (%s)", sum.BytesWritten, sum.Runs, mode)
	fmt.Fprintf(r.writer, "%s %s\n", r.styles.Bold.Render("total:"), total)
}

// usageBar renders a fill bar for used/capacity at the renderer's width.
func (r *SummaryRenderer) usageBar(used, capacity int) string {
	if capacity <= 0 {
		return strings.Repeat(" ", r.barWidth)
	}
	filled := used * r.barWidth / capacity
	if filled > r.barWidth {
		filled = r.barWidth
	}
	if used > 0 && filled == 0 {
		filled = 1
	}
	return r.styles.BarFilled.Render(strings.Repeat("█", filled)) +
		r.styles.BarEmpty.Render(strings.Repeat("░", r.barWidth-filled))
}

// terminalWidth returns the width of the terminal, or a default.
func terminalWidth(writer io.Writer) int {
	if f, ok := writer.(*os.File); ok {
		if width, _, err := term.GetSize(int(f.Fd())); err == nil && width > 0 {
			return width
		}
	}
	return defaultTermWidth
}
