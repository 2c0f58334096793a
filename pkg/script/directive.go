package script

// Directive is one typed operation parsed from a script line. The set of
// implementations is closed; the builder switches over all of them.
type Directive interface {
	Pos() Position
}

type base struct {
	P Position
}

func (b base) Pos() Position { return b.P }

// RawBytes appends literal bytes at the cursor. Produced by bare hex runs,
// %-prefixed binary runs, and !fill.
type RawBytes struct {
	base
	Data []byte
}

// SetLocation switches the cursor to Melee-memory address mode (!loc).
type SetLocation struct {
	base
	Addr uint32
}

// SetGCIOffset switches the cursor to raw container offset mode (!gci).
type SetGCIOffset struct {
	base
	Offset uint32
}

// SetPatchOffset is !patch: container offset mode whose writes are queued
// and applied after the whole write table.
type SetPatchOffset struct {
	base
	Offset uint32
}

// AddOffset applies a signed delta to whichever cursor mode is active (!add).
type AddOffset struct {
	base
	Delta int64
}

// IncludeSource compiles another MGC file in place (!src).
type IncludeSource struct {
	base
	Path string
}

// IncludeAssembly assembles a PPC source file and appends the machine code
// (!asmsrc).
type IncludeAssembly struct {
	base
	Path string
}

// IncludeFile appends a binary file verbatim (!file).
type IncludeFile struct {
	base
	Path string
}

// IncludeGeckoCodelist compiles a Gecko codelist file and appends the
// result (!geckocodelist).
type IncludeGeckoCodelist struct {
	base
	Path string
}

// EmitString appends unterminated ASCII bytes (!string). Escape sequences
// are already decoded.
type EmitString struct {
	base
	Data []byte
}

// AsmBlock holds the text between !asm and !asmend for the assembler.
type AsmBlock struct {
	base
	Source string
}

// C2Block holds the text between !c2 and !c2end plus the injection target
// address the resulting Gecko C2 code is wrapped for.
type C2Block struct {
	base
	Addr   uint32
	Source string
}

// Echo logs a message during compilation with no effect on the image.
type Echo struct {
	base
	Message string
}

// InvokeMacro expands a named macro Count times (+name [count]).
type InvokeMacro struct {
	base
	Name  string
	Count int
}

// BlockOrder rearranges the ten data blocks before packing (!blockorder).
type BlockOrder struct {
	base
	Order [10]int
}
