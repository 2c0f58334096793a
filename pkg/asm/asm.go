// Package asm isolates the external PPC toolchain behind a narrow
// capability interface so the compiler can be tested without it.
package asm

import (
	"fmt"
)

// Assembler turns PPC assembly text into machine code. origin is the
// address the code is being injected at, for toolchains that need it to
// resolve relative branches.
//
// Implementations must be safe to call repeatedly within one compilation
// run; no other concurrency is assumed.
type Assembler interface {
	Assemble(source string, origin uint32) ([]byte, error)
}

// CodelistCompiler turns Gecko codelist text into an opaque code blob.
type CodelistCompiler interface {
	Compile(source string) ([]byte, error)
}

// Error is a toolchain failure carrying the diagnostic text and, when the
// toolchain reported one, the 1-based line within the assembly source.
type Error struct {
	Diagnostic string
	Line       int
	Err        error
}

func (e *Error) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Diagnostic)
	}
	return e.Diagnostic
}

func (e *Error) Unwrap() error {
	return e.Err
}
