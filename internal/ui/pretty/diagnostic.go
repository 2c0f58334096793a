package pretty

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/yaklabco/gomgc/pkg/script"
)

// DiagnosticRenderer formats compile diagnostics for terminal output.
type DiagnosticRenderer struct {
	styles  *Styles
	writer  io.Writer
	verbose bool
}

// NewDiagnosticRenderer creates a renderer writing to the given writer.
func NewDiagnosticRenderer(writer io.Writer, styles *Styles, verbose bool) *DiagnosticRenderer {
	return &DiagnosticRenderer{
		styles:  styles,
		writer:  writer,
		verbose: verbose,
	}
}

// RenderError writes a single compile error.
//
// Positioned errors render as:
//
//	error: codes.mgc:12: fill count must be positive
//
// In verbose mode the full cause chain follows, one cause per line.
func (r *DiagnosticRenderer) RenderError(err error) {
	label := r.styles.Error.Render("error:")

	var serr *script.Error
	if errors.As(err, &serr) && serr.Pos.File != "" {
		loc := r.styles.FilePath.Render(serr.Pos.String())
		fmt.Fprintf(r.writer, "%s %s: %s\n", label, loc, r.styles.Message.Render(messageOf(serr)))
	} else {
		fmt.Fprintf(r.writer, "%s %s\n", label, r.styles.Message.Render(err.Error()))
	}

	if r.verbose {
		r.renderCauses(err)
	}
}

// RenderWarning writes a single warning line with an optional position.
func (r *DiagnosticRenderer) RenderWarning(pos script.Position, msg string) {
	label := r.styles.Warning.Render("warning:")
	if pos.File != "" {
		loc := r.styles.FilePath.Render(pos.String())
		fmt.Fprintf(r.writer, "%s %s: %s\n", label, loc, msg)
	} else {
		fmt.Fprintf(r.writer, "%s %s\n", label, msg)
	}
}

// renderCauses prints wrapped causes the headline did not already show,
// indented one level. Both single and multi-error wrapping are walked.
func (r *DiagnosticRenderer) renderCauses(err error) {
	shown := err.Error()
	queue := unwrap(err)
	for len(queue) > 0 {
		cause := queue[0]
		queue = append(queue[1:], unwrap(cause)...)
		text := cause.Error()
		if strings.Contains(shown, text) {
			continue
		}
		shown += "\n" + text
		fmt.Fprintf(r.writer, "  %s %s\n", r.styles.Dim.Render("caused by:"), r.styles.Cause.Render(text))
	}
}

func unwrap(err error) []error {
	switch e := err.(type) {
	case interface{ Unwrap() error }:
		if u := e.Unwrap(); u != nil {
			return []error{u}
		}
	case interface{ Unwrap() []error }:
		return e.Unwrap()
	}
	return nil
}

// messageOf strips the leading "file:line: " prefix the error's own
// Error() carries, so the styled location is not printed twice.
func messageOf(serr *script.Error) string {
	full := serr.Error()
	prefix := serr.Pos.String() + ": "
	return strings.TrimPrefix(full, prefix)
}
