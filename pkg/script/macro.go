package script

// Macro is a named block of not-yet-parsed lines captured between !macro
// and !macroend. The body is parsed at expansion time so that aliases
// defined after the macro but before its use still apply.
type Macro struct {
	Name string
	File string
	Body []Line
}

// MacroTable maps macro names to their captured bodies.
type MacroTable struct {
	entries map[string]*Macro
}

// NewMacroTable returns an empty macro table.
func NewMacroTable() *MacroTable {
	return &MacroTable{entries: make(map[string]*Macro)}
}

// Define adds or replaces a macro. It reports whether a previous
// definition was overwritten.
func (t *MacroTable) Define(m *Macro) bool {
	_, existed := t.entries[m.Name]
	t.entries[m.Name] = m
	return existed
}

// Lookup returns the macro with the given name, if defined.
func (t *MacroTable) Lookup(name string) (*Macro, bool) {
	m, ok := t.entries[name]
	return m, ok
}
