package asm

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Default toolchain binary names, overridable through configuration.
const (
	DefaultAs      = "powerpc-eabi-as"
	DefaultObjcopy = "powerpc-eabi-objcopy"
)

// diagPattern extracts the line number and message from a GNU as
// diagnostic, eg. "code.s:3: Error: unrecognized opcode: `mflrr'".
var diagPattern = regexp.MustCompile(`code\.s:(\d+): Error: (.*)`)

// External assembles by shelling out to the GNU PPC toolchain: as to
// build an object, objcopy to flatten it to raw machine code.
type External struct {
	As      string
	Objcopy string

	// Timeout bounds one toolchain invocation. Zero means no bound.
	Timeout time.Duration
}

// NewExternal returns an External using the given binaries, or the
// defaults where empty.
func NewExternal(as, objcopy string) *External {
	if as == "" {
		as = DefaultAs
	}
	if objcopy == "" {
		objcopy = DefaultObjcopy
	}
	return &External{As: as, Objcopy: objcopy}
}

// Assemble implements Assembler.
func (e *External) Assemble(source string, origin uint32) ([]byte, error) {
	dir, err := os.MkdirTemp("", "gomgc-asm-*")
	if err != nil {
		return nil, &Error{Diagnostic: "cannot create scratch directory", Err: err}
	}
	defer os.RemoveAll(dir)

	srcPath := filepath.Join(dir, "code.s")
	objPath := filepath.Join(dir, "code.o")
	binPath := filepath.Join(dir, "code.bin")
	if err := os.WriteFile(srcPath, []byte(source+"\n"), 0o644); err != nil {
		return nil, &Error{Diagnostic: "cannot write assembly source", Err: err}
	}

	ctx := context.Background()
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	asCmd := exec.CommandContext(ctx, e.As,
		"-mregnames", "-mgekko", "-o", objPath, srcPath)
	asCmd.Dir = dir
	if out, err := asCmd.CombinedOutput(); err != nil {
		return nil, toolchainError(string(out), err)
	}

	cpCmd := exec.CommandContext(ctx, e.Objcopy, "-O", "binary", objPath, binPath)
	cpCmd.Dir = dir
	if out, err := cpCmd.CombinedOutput(); err != nil {
		return nil, toolchainError(string(out), err)
	}

	code, err := os.ReadFile(binPath)
	if err != nil {
		return nil, &Error{Diagnostic: "toolchain produced no output", Err: err}
	}
	if len(code)%4 != 0 {
		return nil, &Error{Diagnostic: fmt.Sprintf("machine code length 0x%x is not word-aligned", len(code))}
	}
	_ = origin // GNU as resolves branches relative to zero; origin is applied by C2 wrapping
	return code, nil
}

// toolchainError distills toolchain stderr into a single diagnostic,
// keeping the first reported error line when one can be found.
func toolchainError(output string, cause error) *Error {
	if m := diagPattern.FindStringSubmatch(output); m != nil {
		line, _ := strconv.Atoi(m[1])
		return &Error{Diagnostic: strings.TrimSpace(m[2]), Line: line, Err: cause}
	}
	first := strings.TrimSpace(output)
	if i := strings.IndexByte(first, '\n'); i >= 0 {
		first = first[:i]
	}
	if first == "" {
		first = cause.Error()
	}
	return &Error{Diagnostic: first, Err: cause}
}
