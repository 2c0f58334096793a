package compiler

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/yaklabco/gomgc/pkg/asm"
	"github.com/yaklabco/gomgc/pkg/script"
)

// Mode says how a write's target is interpreted.
type Mode int

const (
	// ModeLoc targets a Melee memory address, translated through the
	// block map before reaching the container.
	ModeLoc Mode = iota

	// ModeGCI targets a raw container offset with no translation.
	ModeGCI

	// ModePatch targets a raw container offset but is applied after the
	// whole write table, so nothing can overwrite it.
	ModePatch
)

// Write is one run of bytes addressed by the script, in execution order.
type Write struct {
	Mode   Mode
	Target uint32
	Data   []byte
	Pos    script.Position
}

// builder walks a fully expanded directive stream once, maintaining the
// cursor and producing the ordered write table. Machine code generation
// is delegated to the injected assembler.
type builder struct {
	assembler asm.Assembler
	gecko     asm.CodelistCompiler
	readFile  func(path string) ([]byte, error)
	readText  func(path string) (string, error)
	log       *log.Logger

	mode   Mode
	locPtr int64
	gciPtr int64

	binCache map[string][]byte
	writes   []Write

	blockOrder    [10]int
	hasBlockOrder bool
}

func (b *builder) build(dirs []script.Directive) error {
	for _, d := range dirs {
		if err := b.step(d); err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) step(d script.Directive) error {
	switch d := d.(type) {
	case script.SetLocation:
		b.mode = ModeLoc
		b.locPtr = int64(d.Addr)
	case script.SetGCIOffset:
		b.mode = ModeGCI
		b.gciPtr = int64(d.Offset)
	case script.SetPatchOffset:
		b.mode = ModePatch
		b.gciPtr = int64(d.Offset)
	case script.AddOffset:
		if b.mode == ModeLoc {
			b.locPtr += d.Delta
		} else {
			b.gciPtr += d.Delta
		}
	case script.RawBytes:
		return b.emit(d.Data, d.Pos())
	case script.EmitString:
		return b.emit(d.Data, d.Pos())
	case script.IncludeFile:
		data, err := b.loadBin(d.Path, d.Pos())
		if err != nil {
			return err
		}
		return b.emit(data, d.Pos())
	case script.IncludeAssembly:
		data, err := b.loadAsmFile(d.Path, d.Pos())
		if err != nil {
			return err
		}
		return b.emit(data, d.Pos())
	case script.IncludeGeckoCodelist:
		data, err := b.loadGecko(d.Path, d.Pos())
		if err != nil {
			return err
		}
		return b.emit(data, d.Pos())
	case script.AsmBlock:
		code, err := b.assemble(d.Source, d.Pos())
		if err != nil {
			return err
		}
		return b.emit(code, d.Pos())
	case script.C2Block:
		code, err := b.assemble(d.Source, d.Pos())
		if err != nil {
			return err
		}
		return b.emit(asm.WrapC2(code, d.Addr), d.Pos())
	case script.Echo:
		b.log.Info(d.Message)
	case script.BlockOrder:
		b.blockOrder = d.Order
		b.hasBlockOrder = true
	default:
		// IncludeSource and InvokeMacro never survive expansion.
		return fmt.Errorf("unexpected directive %T at %s", d, d.Pos())
	}
	return nil
}

// emit appends one byte run at the cursor and advances it.
func (b *builder) emit(data []byte, pos script.Position) error {
	if len(data) == 0 {
		return nil
	}
	ptr := &b.locPtr
	if b.mode != ModeLoc {
		ptr = &b.gciPtr
	}
	if *ptr < 0 {
		return script.Errorf(pos, script.ErrOutOfBounds, "data pointer must be a positive value")
	}
	b.writes = append(b.writes, Write{
		Mode:   b.mode,
		Target: uint32(*ptr),
		Data:   data,
		Pos:    pos,
	})
	*ptr += int64(len(data))
	return nil
}

// cursor returns the active pointer value, used as the origin for
// assembled code.
func (b *builder) cursor() uint32 {
	if b.mode == ModeLoc {
		return uint32(max(b.locPtr, 0))
	}
	return uint32(max(b.gciPtr, 0))
}

func (b *builder) assemble(source string, pos script.Position) ([]byte, error) {
	code, err := b.assembler.Assemble(source, b.cursor())
	if err != nil {
		var asmErr *asm.Error
		if errors.As(err, &asmErr) && asmErr.Line > 0 {
			// Point at the failing line inside the block, not its opener.
			pos.Line += asmErr.Line
		}
		return nil, script.WrapErr(pos, script.ErrAssembly, err)
	}
	return code, nil
}

func (b *builder) loadBin(path string, pos script.Position) ([]byte, error) {
	key := resolveKey(pos.File, path)
	if data, ok := b.binCache[key]; ok {
		return data, nil
	}
	b.log.Debug("reading binary file", "path", key)
	data, err := b.readFile(key)
	if err != nil {
		return nil, script.WrapErr(pos, script.ErrFileAccess, err)
	}
	b.binCache[key] = data
	return data, nil
}

func (b *builder) loadAsmFile(path string, pos script.Position) ([]byte, error) {
	key := resolveKey(pos.File, path)
	if data, ok := b.binCache[key]; ok {
		return data, nil
	}
	b.log.Debug("assembling source file", "path", key)
	text, err := b.readText(key)
	if err != nil {
		return nil, script.WrapErr(pos, script.ErrFileAccess, err)
	}
	code, err := b.assembler.Assemble(text, b.cursor())
	if err != nil {
		return nil, script.WrapErr(pos, script.ErrAssembly, err)
	}
	b.binCache[key] = code
	return code, nil
}

func (b *builder) loadGecko(path string, pos script.Position) ([]byte, error) {
	key := resolveKey(pos.File, path)
	if data, ok := b.binCache[key]; ok {
		return data, nil
	}
	b.log.Debug("compiling Gecko codelist", "path", key)
	text, err := b.readText(key)
	if err != nil {
		return nil, script.WrapErr(pos, script.ErrFileAccess, err)
	}
	data, err := b.gecko.Compile(text)
	if err != nil {
		return nil, script.WrapErr(pos, script.ErrSyntax, err)
	}
	b.binCache[key] = data
	return data, nil
}
