package gci

import (
	"errors"
	"fmt"
)

var (
	// ErrBadLayout means the input is not a Melee save container at all.
	ErrBadLayout = errors.New("input is the wrong size; make sure it's a Melee save file")

	// ErrChecksumMismatch means a block's stored integrity field does not
	// match its data. Whether this is fatal is the caller's decision.
	ErrChecksumMismatch = errors.New("checksum mismatch")

	// ErrOutOfBounds means a write lands outside the container.
	ErrOutOfBounds = errors.New("write outside container bounds")
)

// Each block: a 16 byte integrity field stored in the clear, 16 bytes of
// block metadata, then the payload scripts address. The checksummed and
// obfuscated span covers everything after the integrity field.
const (
	blockDataStart    = ChecksumSize
	blockPayloadStart = 0x20
)

// Container is the logical, unpacked view of a save file: the directory
// header plus eleven plaintext blocks. All offsets used by WriteAt are
// absolute container offsets, matching what scripts use in !gci mode.
type Container struct {
	raw []byte
}

// NewContainer returns a zero-filled container with valid checksums, used
// when no base save file is supplied.
func NewContainer() *Container {
	c := &Container{raw: make([]byte, TotalSize)}
	c.RecomputeChecksums()
	return c
}

// Decode validates an encoded container, reverses the obfuscation
// transform, and verifies every block's integrity field. A checksum
// failure is reported as ErrChecksumMismatch but the decoded container is
// still returned so the caller can decide whether the mismatch is fatal.
func Decode(data []byte) (*Container, error) {
	if len(data) != TotalSize {
		return nil, fmt.Errorf("%w (got 0x%x bytes, want 0x%x)", ErrBadLayout, len(data), TotalSize)
	}
	c := &Container{raw: append([]byte(nil), data...)}
	for b := 0; b < NumBlocks; b++ {
		decodeRegion(c.blockData(b))
	}
	if err := c.VerifyChecksums(); err != nil {
		return c, err
	}
	return c, nil
}

// FromPlain wraps an already-unpacked image, as produced by a previous
// no-pack run.
func FromPlain(data []byte) (*Container, error) {
	if len(data) != TotalSize {
		return nil, fmt.Errorf("%w (got 0x%x bytes, want 0x%x)", ErrBadLayout, len(data), TotalSize)
	}
	return &Container{raw: append([]byte(nil), data...)}, nil
}

// Encode recomputes every integrity field, reapplies the obfuscation
// transform, and serializes the container to its exact on-disk layout.
// The receiver is left unpacked.
func (c *Container) Encode() []byte {
	c.RecomputeChecksums()
	out := append([]byte(nil), c.raw...)
	packed := Container{raw: out}
	for b := 0; b < NumBlocks; b++ {
		encodeRegion(packed.blockData(b))
	}
	return out
}

// Plain serializes the container without the obfuscation or integrity
// steps, for inspection.
func (c *Container) Plain() []byte {
	return append([]byte(nil), c.raw...)
}

// Header returns the GCI directory header, untouched by patching.
func (c *Container) Header() []byte {
	return c.raw[:HeaderSize]
}

// Size returns the container length in bytes.
func (c *Container) Size() int {
	return len(c.raw)
}

// WriteAt copies data into the container at an absolute offset. Writes
// reaching outside the container fail without partial effect.
func (c *Container) WriteAt(offset int, data []byte) error {
	if offset < 0 || offset+len(data) > len(c.raw) {
		return fmt.Errorf("%w: 0x%x bytes at offset 0x%x", ErrOutOfBounds, len(data), offset)
	}
	copy(c.raw[offset:], data)
	return nil
}

// ReadAt returns a copy of the given span.
func (c *Container) ReadAt(offset, length int) ([]byte, error) {
	if offset < 0 || offset+length > len(c.raw) {
		return nil, fmt.Errorf("%w: 0x%x bytes at offset 0x%x", ErrOutOfBounds, length, offset)
	}
	return append([]byte(nil), c.raw[offset:offset+length]...), nil
}

// Reorder rearranges the ten script-addressable blocks so that position i
// holds what block order[i] holds now. The system block and header stay
// put.
func (c *Container) Reorder(order [10]int, m *BlockMap) error {
	seen := [DataBlocks]bool{}
	for _, b := range order {
		if b < 0 || b >= DataBlocks {
			return fmt.Errorf("block number %d is outside 0-9", b)
		}
		seen[b] = true
	}
	for b, ok := range seen {
		if !ok {
			return fmt.Errorf("block order must mention every block once; %d is missing", b)
		}
	}

	src := append([]byte(nil), c.raw...)
	for i, b := range order {
		dst := int(m.Blocks[i].FileOffset) - blockPayloadStart
		from := int(m.Blocks[b].FileOffset) - blockPayloadStart
		copy(c.raw[dst:dst+BlockSize], src[from:from+BlockSize])
	}
	return nil
}

// RecomputeChecksums rewrites every block's integrity field from its
// current data.
func (c *Container) RecomputeChecksums() {
	for b := 0; b < NumBlocks; b++ {
		cs := checksum(c.blockData(b))
		copy(c.raw[c.blockStart(b):], cs[:])
	}
}

// VerifyChecksums checks every block's stored integrity field against its
// data.
func (c *Container) VerifyChecksums() error {
	for b := 0; b < NumBlocks; b++ {
		want := checksum(c.blockData(b))
		start := c.blockStart(b)
		stored := c.raw[start : start+ChecksumSize]
		for i := range want {
			if stored[i] != want[i] {
				return fmt.Errorf("%w in block %d", ErrChecksumMismatch, b)
			}
		}
	}
	return nil
}

func (c *Container) blockStart(b int) int {
	return HeaderSize + b*BlockSize
}

// blockData returns the checksummed, obfuscated span of a block:
// everything after the integrity field.
func (c *Container) blockData(b int) []byte {
	start := c.blockStart(b) + blockDataStart
	return c.raw[start : c.blockStart(b)+BlockSize]
}
