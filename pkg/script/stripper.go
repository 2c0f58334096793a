// Package script turns MGC source text into a flat stream of typed
// directives. Processing is two-phase: an untyped textual phase (comment
// stripping, !begin/!end trimming, alias substitution) followed by a typed
// phase that classifies each line into exactly one directive.
package script

import (
	"strings"
	"unicode"
)

// Line is one logical line of a source document with its original 1-based
// line number preserved for diagnostics.
type Line struct {
	Text   string
	Number int
}

// Strip removes comments from raw source text and restricts it to the span
// between an optional !begin marker and an optional !end marker. Stripped
// lines keep their original numbering. An unterminated /* block comment is
// a syntax error.
func Strip(file string, src string) ([]Line, error) {
	rawLines := strings.Split(src, "\n")
	lines := make([]Line, 0, len(rawLines))

	inBlock := false
	blockStart := 0
	for i, raw := range rawLines {
		number := i + 1
		text, nowInBlock := stripComments(raw, inBlock)
		if !inBlock && nowInBlock {
			blockStart = number
		}
		inBlock = nowInBlock
		text = strings.TrimSpace(collapseSpaces(text))
		lines = append(lines, Line{Text: text, Number: number})
	}
	if inBlock {
		return nil, Errorf(Position{File: file, Line: blockStart}, ErrSyntax,
			"block comment is never closed")
	}

	return trimBeginEnd(lines), nil
}

// collapseSpaces squeezes each whitespace run outside double quotes down
// to a single space. Quoted spans pass through untouched so string
// payloads keep their exact bytes.
func collapseSpaces(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	inQuote := false
	pendingSpace := false
	for _, r := range text {
		if r == '"' {
			inQuote = !inQuote
		}
		if !inQuote && unicode.IsSpace(r) {
			pendingSpace = true
			continue
		}
		if pendingSpace {
			b.WriteByte(' ')
			pendingSpace = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

// stripComments removes comment spans from one raw line. inBlock reports
// whether the line starts inside a /* block comment; the return value
// reports whether the next line does.
func stripComments(raw string, inBlock bool) (string, bool) {
	var b strings.Builder
	for {
		if inBlock {
			end := strings.Index(raw, "*/")
			if end < 0 {
				return b.String(), true
			}
			raw = raw[end+2:]
			inBlock = false
			continue
		}
		hash := strings.Index(raw, "#")
		open := strings.Index(raw, "/*")
		if hash >= 0 && (open < 0 || hash < open) {
			b.WriteString(raw[:hash])
			return b.String(), false
		}
		if open < 0 {
			b.WriteString(raw)
			return b.String(), false
		}
		b.WriteString(raw[:open])
		raw = raw[open+2:]
		inBlock = true
	}
}

// trimBeginEnd wipes everything up to the first !begin line and after the
// last !end line, inclusive of the markers themselves.
func trimBeginEnd(lines []Line) []Line {
	start := 0
	end := len(lines)
	for i, l := range lines {
		if l.Text == "!begin" {
			start = i + 1
			break
		}
	}
	for i := len(lines) - 1; i >= 0; i-- {
		if lines[i].Text == "!end" {
			end = i
			break
		}
	}
	if end < start {
		end = start
	}
	out := make([]Line, 0, end-start)
	for _, l := range lines[start:end] {
		if l.Text == "" {
			continue
		}
		out = append(out, l)
	}
	return out
}
