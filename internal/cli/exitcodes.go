package cli

import (
	"errors"

	"github.com/yaklabco/gomgc/pkg/script"
)

// Exit codes for gomgc.
const (
	// ExitSuccess indicates successful execution.
	ExitSuccess = 0

	// ExitCompileError indicates the script failed to compile.
	ExitCompileError = 1

	// ExitInvalidUsage indicates invalid command-line usage.
	ExitInvalidUsage = 64

	// ExitConfigError indicates configuration file errors.
	ExitConfigError = 65

	// ExitInternalError indicates an internal error.
	ExitInternalError = 70

	// ExitIOError indicates file I/O errors.
	ExitIOError = 74
)

// ErrConfigLoad marks a failure loading or validating configuration.
var ErrConfigLoad = errors.New("configuration error")

// ErrUsage marks invalid command-line usage.
var ErrUsage = errors.New("invalid usage")

// ExitCodeForError maps an error to the process exit code. Script-level
// failures all exit 1; I/O failures reading inputs or writing the result
// exit 74; configuration problems exit 65; anything else is internal.
func ExitCodeForError(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, ErrUsage):
		return ExitInvalidUsage
	case errors.Is(err, script.ErrFileAccess), errors.Is(err, script.ErrOutput):
		return ExitIOError
	case errors.Is(err, ErrConfigLoad):
		return ExitConfigError
	case errors.Is(err, script.ErrSyntax),
		errors.Is(err, script.ErrCyclicAlias),
		errors.Is(err, script.ErrCyclicMacro),
		errors.Is(err, script.ErrCyclicInclude),
		errors.Is(err, script.ErrUndefinedAlias),
		errors.Is(err, script.ErrUndefinedMacro),
		errors.Is(err, script.ErrAssembly),
		errors.Is(err, script.ErrOutOfBounds),
		errors.Is(err, script.ErrIntegrity):
		return ExitCompileError
	default:
		return ExitInternalError
	}
}
