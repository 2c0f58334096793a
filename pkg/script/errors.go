package script

import (
	"errors"
	"fmt"
)

// Sentinel errors for the failure classes a script can produce. Callers
// match them with errors.Is after unwrapping through Error.
var (
	ErrSyntax         = errors.New("invalid syntax")
	ErrCyclicAlias    = errors.New("alias substitution does not terminate")
	ErrCyclicMacro    = errors.New("macro invokes itself")
	ErrCyclicInclude  = errors.New("source files include each other in a loop")
	ErrUndefinedAlias = errors.New("undefined alias")
	ErrUndefinedMacro = errors.New("undefined macro")
	ErrFileAccess     = errors.New("cannot access file")
	ErrAssembly       = errors.New("assembly failed")
	ErrOutOfBounds    = errors.New("write outside the save data region")
	ErrIntegrity      = errors.New("save file fails its own checksum")
	ErrOutput         = errors.New("cannot write output")
)

// Position identifies a source location for diagnostics. Line is 1-based;
// a zero Line means the position refers to the file as a whole.
type Position struct {
	File string
	Line int
}

func (p Position) String() string {
	if p.File == "" {
		return "<script>"
	}
	if p.Line <= 0 {
		return p.File
	}
	return fmt.Sprintf("%s:%d", p.File, p.Line)
}

// Error is a script failure annotated with the source position that
// produced it. It wraps one of the sentinel errors above.
type Error struct {
	Pos Position
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Pos, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Errorf builds a positioned Error wrapping the given sentinel.
func Errorf(pos Position, sentinel error, format string, args ...any) *Error {
	msg := fmt.Sprintf(format, args...)
	if msg == "" {
		return &Error{Pos: pos, Err: sentinel}
	}
	return &Error{Pos: pos, Err: fmt.Errorf("%w: %s", sentinel, msg)}
}

// WrapErr builds a positioned Error around an underlying cause, keeping the
// sentinel matchable and the cause visible in verbose output.
func WrapErr(pos Position, sentinel, cause error) *Error {
	return &Error{Pos: pos, Err: fmt.Errorf("%w: %w", sentinel, cause)}
}
