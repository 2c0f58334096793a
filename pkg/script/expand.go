package script

import (
	"path/filepath"
)

// macroDepthLimit bounds nested macro expansion. The include chain needs
// no equivalent limit because membership is checked explicitly.
const macroDepthLimit = 32

// SourceLoader reads script text for !src includes. It is injectable so
// the expander can be tested without touching the filesystem.
type SourceLoader interface {
	Load(path string) (string, error)
}

// Expander flattens a script tree into one fully resolved directive
// stream: !src includes are replaced by the expanded stream of their
// target file and macro invocations by copies of their parsed bodies.
type Expander struct {
	Tables *Tables
	Loader SourceLoader

	includeStack []string
	macroStack   []string
}

// NewExpander returns an expander over the given tables and loader.
func NewExpander(tables *Tables, loader SourceLoader) *Expander {
	return &Expander{Tables: tables, Loader: loader}
}

// ExpandFile loads, parses and fully expands one script file.
func (e *Expander) ExpandFile(path string, from Position) ([]Directive, error) {
	clean := filepath.Clean(path)
	for _, active := range e.includeStack {
		if active == clean {
			return nil, Errorf(from, ErrCyclicInclude, "%s is already being compiled", clean)
		}
	}

	text, err := e.Loader.Load(clean)
	if err != nil {
		return nil, WrapErr(from, ErrFileAccess, err)
	}
	lines, err := Strip(clean, text)
	if err != nil {
		return nil, err
	}
	parsed, err := Parse(clean, lines, e.Tables)
	if err != nil {
		return nil, err
	}

	e.includeStack = append(e.includeStack, clean)
	defer func() { e.includeStack = e.includeStack[:len(e.includeStack)-1] }()
	return e.expand(parsed)
}

// expand resolves includes and macro invocations in a parsed stream.
func (e *Expander) expand(dirs []Directive) ([]Directive, error) {
	out := make([]Directive, 0, len(dirs))
	for _, d := range dirs {
		switch d := d.(type) {
		case IncludeSource:
			target := resolveRelative(d.Pos().File, d.Path)
			included, err := e.ExpandFile(target, d.Pos())
			if err != nil {
				return nil, err
			}
			out = append(out, included...)
		case InvokeMacro:
			expanded, err := e.expandMacro(d)
			if err != nil {
				return nil, err
			}
			out = append(out, expanded...)
		default:
			out = append(out, d)
		}
	}
	return out, nil
}

// expandMacro produces Count sequential copies of the macro body. The body
// is parsed lazily here, against the alias table as it stands now, and may
// itself invoke other macros.
func (e *Expander) expandMacro(inv InvokeMacro) ([]Directive, error) {
	m, ok := e.Tables.Macros.Lookup(inv.Name)
	if !ok {
		return nil, Errorf(inv.Pos(), ErrUndefinedMacro, "%s", inv.Name)
	}
	for _, active := range e.macroStack {
		if active == inv.Name {
			return nil, Errorf(inv.Pos(), ErrCyclicMacro, "%s", inv.Name)
		}
	}
	if len(e.macroStack) >= macroDepthLimit {
		return nil, Errorf(inv.Pos(), ErrCyclicMacro, "expansion deeper than %d levels", macroDepthLimit)
	}

	e.macroStack = append(e.macroStack, inv.Name)
	defer func() { e.macroStack = e.macroStack[:len(e.macroStack)-1] }()

	var out []Directive
	for range inv.Count {
		parsed, err := Parse(m.File, m.Body, e.Tables)
		if err != nil {
			return nil, err
		}
		expanded, err := e.expand(parsed)
		if err != nil {
			return nil, err
		}
		out = append(out, expanded...)
	}
	return out, nil
}

// resolveRelative resolves an include path against the directory of the
// including file.
func resolveRelative(fromFile, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(filepath.Dir(fromFile), path)
}
