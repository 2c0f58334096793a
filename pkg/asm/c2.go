package asm

import (
	"encoding/binary"
)

// C2 code geometry: after the 8 byte header, the code is a sequence of
// 8 byte lines whose final word must be zero. Code that already fills
// whole lines gets a trailing nop so the terminator has a line of its
// own.
const (
	c2Opcode = 0xC2000000
	c2Nop    = 0x60000000
)

// WrapC2 wraps assembled machine code in a Gecko C2 hook targeting addr:
// a header carrying the hook address and line count, the code itself, and
// a zero-word terminator padded to line alignment.
func WrapC2(code []byte, addr uint32) []byte {
	words := len(code) / 4
	pad := 1 // terminating zero word
	if words%2 == 0 {
		pad = 2 // nop + terminator
	}
	lines := uint32((words + pad) / 2)

	out := make([]byte, 0, 8+len(code)+pad*4)
	out = binary.BigEndian.AppendUint32(out, c2Opcode|addr&0x01FFFFFF)
	out = binary.BigEndian.AppendUint32(out, lines)
	out = append(out, code...)
	if pad == 2 {
		out = binary.BigEndian.AppendUint32(out, c2Nop)
	}
	out = binary.BigEndian.AppendUint32(out, 0)
	return out
}
