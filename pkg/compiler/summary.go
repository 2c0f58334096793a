package compiler

import (
	"github.com/yaklabco/gomgc/pkg/gci"
)

// Summary describes what one run wrote, for end-of-run reporting.
type Summary struct {
	// BytesWritten counts every byte placed into the container,
	// including bytes later overwritten.
	BytesWritten int

	// Runs counts contiguous container spans written.
	Runs int

	// BlockBytes attributes written bytes to each script-addressable
	// block; Other counts bytes landing outside those blocks.
	BlockBytes [gci.DataBlocks]int
	Other      int

	// Packed reports whether the output went through the obfuscation and
	// integrity transform.
	Packed bool
}

func (s *Summary) record(offset, length int, m *gci.BlockMap) {
	s.Runs++
	s.BytesWritten += length
	for length > 0 {
		n := s.attribute(offset, length, m)
		offset += n
		length -= n
	}
}

// attribute charges the longest prefix of the span that stays within one
// block, or outside every block, and returns its length. record loops it
// so a run crossing a block seam lands in both usage rows.
func (s *Summary) attribute(offset, length int, m *gci.BlockMap) int {
	n := length
	for i, b := range m.Blocks {
		start := int(b.FileOffset) - 0x20
		end := start + gci.BlockSize
		if offset >= start && offset < end {
			n = min(length, end-offset)
			s.BlockBytes[i] += n
			return n
		}
		if start > offset && start-offset < n {
			n = start - offset
		}
	}
	s.Other += n
	return n
}
