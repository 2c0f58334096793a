// Package gci reads and writes Super Smash Bros. Melee save containers.
// A container is a fixed-layout GCI file: a 0x40 byte directory header
// followed by eleven 0x2000 byte blocks, each carrying a 16 byte checksum
// and an obfuscated data region. The package reproduces the game's
// checksum and byte obfuscation transforms so that patched saves remain
// valid to the console.
package gci

import (
	"fmt"
)

// Container geometry.
const (
	TotalSize   = 0x16040 // exact size of a Melee save GCI
	HeaderSize  = 0x40    // GCI directory header, never transformed
	BlockSize   = 0x2000  // one save block
	NumBlocks   = 11      // blocks in the container
	DataBlocks  = 10      // blocks addressable by scripts
	StartOffset = 0x2060  // earliest script-injectable container offset
)

// Region describes where one addressable block lives: its offset in the
// unpacked container, the Melee memory address its payload is loaded to,
// and how many of its bytes reach memory. Blocks the game never loads
// have a zero base and size.
type Region struct {
	FileOffset uint32
	MemBase    uint32
	Size       uint32
}

// BlockMap is the version-specific table translating Melee memory
// addresses to container offsets. The target title loads its save data at
// different bases depending on its own version, so the map is supplied by
// the caller rather than hardcoded into the overlay step.
type BlockMap struct {
	Version string
	Blocks  [DataBlocks]Region
}

// NTSC102 returns the block map for NTSC Melee v1.02, the version the
// community codebase targets.
func NTSC102() *BlockMap {
	return &BlockMap{
		Version: "NTSC 1.02",
		Blocks: [DataBlocks]Region{
			{FileOffset: 0x02060, MemBase: 0, Size: 0},
			{FileOffset: 0x04060, MemBase: 0x8045d6b8, Size: 0x1f2c},
			{FileOffset: 0x06060, MemBase: 0x8045f5e4, Size: 0x1f2c},
			{FileOffset: 0x08060, MemBase: 0x80461510, Size: 0x1f2c},
			{FileOffset: 0x0a060, MemBase: 0x8046343c, Size: 0x1f2c},
			{FileOffset: 0x0c060, MemBase: 0x80465368, Size: 0x1f2c},
			{FileOffset: 0x0e060, MemBase: 0x80467294, Size: 0x1f2c},
			{FileOffset: 0x10060, MemBase: 0x804691c0, Size: 0x1f2c},
			{FileOffset: 0x12060, MemBase: 0, Size: 0},
			{FileOffset: 0x14060, MemBase: 0x8045bf28, Size: 0x1790},
		},
	}
}

// MapForVersion resolves a game version name to its block map. Version
// matching is forgiving about case and punctuation, so "ntsc1.02" and
// "NTSC 1.02" name the same map.
func MapForVersion(version string) (*BlockMap, error) {
	switch normalizeVersion(version) {
	case "", "ntsc102", "102":
		return NTSC102(), nil
	default:
		return nil, fmt.Errorf("unknown game version %q (supported: NTSC 1.02)", version)
	}
}

func normalizeVersion(version string) string {
	var b []byte
	for i := 0; i < len(version); i++ {
		c := version[i]
		switch {
		case c >= 'A' && c <= 'Z':
			b = append(b, c+'a'-'A')
		case c >= 'a' && c <= 'z' || c >= '0' && c <= '9':
			b = append(b, c)
		}
	}
	return string(b)
}

// Run is a contiguous span of the unpacked container.
type Run struct {
	Offset int
	Length int
}

// MemStart returns the lowest Melee address present in the container.
func (m *BlockMap) MemStart() uint32 {
	start := ^uint32(0)
	for _, b := range m.Blocks {
		if b.Size > 0 && b.MemBase < start {
			start = b.MemBase
		}
	}
	return start
}

// MemEnd returns one past the highest Melee address present in the
// container.
func (m *BlockMap) MemEnd() uint32 {
	var end uint32
	for _, b := range m.Blocks {
		if b.Size > 0 && b.MemBase+b.Size > end {
			end = b.MemBase + b.Size
		}
	}
	return end
}

// blockFor finds the block holding addr and the offset of addr within it.
func (m *BlockMap) blockFor(addr uint32) (Region, uint32, bool) {
	for _, b := range m.Blocks {
		if b.Size == 0 {
			continue
		}
		if addr >= b.MemBase && addr < b.MemBase+b.Size {
			return b, addr - b.MemBase, true
		}
	}
	return Region{}, 0, false
}

// Translate maps a contiguous span of Melee memory to the container runs
// that load into it. Data written at the returned runs, in order, reaches
// memory as one contiguous span at addr. Spans that leave the mapped
// memory range are an error.
func (m *BlockMap) Translate(addr uint32, length int) ([]Run, error) {
	if length <= 0 {
		return nil, fmt.Errorf("data length must be greater than 0")
	}
	if addr < m.MemStart() {
		return nil, fmt.Errorf("address 0x%08x is below the save region (starts at 0x%08x)",
			addr, m.MemStart())
	}
	if addr+uint32(length) > m.MemEnd() {
		return nil, fmt.Errorf("data ends at 0x%08x which overflows the save region (ends at 0x%08x)",
			addr+uint32(length), m.MemEnd())
	}

	var runs []Run
	remaining := length
	current := addr
	for remaining > 0 {
		block, offset, ok := m.blockFor(current)
		if !ok {
			return nil, fmt.Errorf("address 0x%08x has no corresponding save location", current)
		}
		fits := int(block.Size - offset)
		n := min(remaining, fits)
		runs = append(runs, Run{Offset: int(block.FileOffset + offset), Length: n})
		remaining -= n
		current += uint32(n)
	}
	return runs, nil
}
