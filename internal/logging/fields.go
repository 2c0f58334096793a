// Package logging provides a structured logging wrapper around charmbracelet/log.
package logging

// Field name constants for structured logging.
// Using constants prevents typos and enables IDE autocomplete.
const (
	// Common fields.
	FieldError  = "error"
	FieldPath   = "path"
	FieldScript = "script"
	FieldInput  = "input"
	FieldOutput = "output"

	// Compilation fields.
	FieldLine       = "line"
	FieldAddress    = "address"
	FieldOffset     = "offset"
	FieldBytes      = "bytes"
	FieldBlock      = "block"
	FieldNoPack     = "nopack"
	FieldMapVersion = "map_version"

	// Build version fields.
	FieldVersion = "version"
	FieldCommit  = "commit"
	FieldBuilt   = "built"
)
