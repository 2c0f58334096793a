package gci

// The game obfuscates each block's data region with a byte-serial
// transform lifted from its own PPC code: every byte is permuted by one of
// seven bit shuffles selected by the previous encoded byte modulo 7, then
// xored against a constant table indexed by the same byte modulo 13 and
// against the previous encoded byte itself. The original uses magic-number
// division; for byte inputs that reduces to the plain remainders used
// here.

// xorTable is the constant table indexed by prevByte % 13.
var xorTable = [13]byte{
	0x26, 0xFF, 0xE8, 0xEF, 0x42, 0xD6, 0x01,
	0x54, 0x14, 0xA3, 0x80, 0xFD, 0x6E,
}

// bitMove is one rlwinm step: rotate the source left by Rot and keep PPC
// bit Bit (bit 24 is value bit 7, bit 31 is value bit 0).
type bitMove struct {
	Rot uint
	Bit uint
}

type bitShuffle [8]bitMove

// decodeShuffles[prev%7] recovers plaintext bit positions from an encoded
// byte.
var decodeShuffles = [7]bitShuffle{
	{{1, 29}, {0, 31}, {2, 27}, {3, 25}, {29, 30}, {30, 28}, {31, 26}, {0, 24}},
	{{6, 24}, {1, 30}, {0, 29}, {29, 31}, {1, 26}, {31, 27}, {29, 28}, {31, 25}},
	{{2, 28}, {2, 29}, {4, 25}, {1, 27}, {3, 24}, {28, 30}, {26, 31}, {30, 26}},
	{{31, 31}, {4, 27}, {3, 26}, {30, 30}, {31, 28}, {1, 25}, {1, 24}, {27, 29}},
	{{4, 26}, {3, 28}, {31, 30}, {4, 24}, {2, 25}, {29, 29}, {30, 27}, {25, 31}},
	{{5, 25}, {5, 26}, {5, 24}, {0, 28}, {30, 29}, {27, 31}, {27, 30}, {29, 27}},
	{{0, 30}, {6, 25}, {30, 31}, {2, 26}, {0, 27}, {2, 24}, {28, 29}, {28, 28}},
}

// encodeShuffles[prev%7] is the inverse of the decode shuffle with the
// same index.
var encodeShuffles = [7]bitShuffle{
	{{3, 27}, {0, 31}, {31, 30}, {2, 26}, {30, 29}, {1, 25}, {29, 28}, {0, 24}},
	{{31, 31}, {3, 28}, {0, 29}, {3, 25}, {1, 26}, {31, 27}, {1, 24}, {26, 30}},
	{{4, 26}, {6, 25}, {30, 31}, {30, 30}, {31, 28}, {2, 24}, {28, 29}, {29, 27}},
	{{2, 28}, {1, 30}, {5, 24}, {1, 27}, {28, 31}, {29, 29}, {31, 26}, {31, 25}},
	{{1, 29}, {7, 24}, {3, 26}, {29, 31}, {2, 25}, {28, 30}, {30, 27}, {28, 28}},
	{{5, 25}, {5, 26}, {2, 27}, {0, 28}, {3, 24}, {27, 31}, {27, 30}, {27, 29}},
	{{0, 30}, {2, 29}, {4, 25}, {4, 24}, {0, 27}, {30, 28}, {26, 31}, {30, 26}},
}

func rotl32(x uint32, sh uint) uint32 {
	return x<<sh | x>>((32-sh)&31)
}

// apply runs the shuffle over a byte: the OR of rlwinm(x, Rot, Bit, Bit)
// for each move.
func (s bitShuffle) apply(x byte) byte {
	var out uint32
	for _, m := range s {
		out |= rotl32(uint32(x), m.Rot) & (1 << (31 - m.Bit))
	}
	return byte(out)
}

// decodeByte recovers a plaintext byte given the previous encoded byte.
func decodeByte(prev, cur byte) byte {
	b := decodeShuffles[prev%7].apply(cur)
	return b ^ xorTable[prev%13] ^ prev
}

// encodeByte produces an encoded byte given the previous encoded byte.
func encodeByte(prev, cur byte) byte {
	x := prev ^ cur ^ xorTable[prev%13]
	return encodeShuffles[prev%7].apply(x)
}

// encodeRegion obfuscates a block data region in place. The first byte is
// stored in the clear; every later byte is chained on the previous
// encoded byte.
func encodeRegion(region []byte) {
	for i := 1; i < len(region); i++ {
		region[i] = encodeByte(region[i-1], region[i])
	}
}

// decodeRegion reverses encodeRegion in place, walking backwards so each
// byte still sees its original encoded predecessor.
func decodeRegion(region []byte) {
	for i := len(region) - 1; i >= 1; i-- {
		region[i] = decodeByte(region[i-1], region[i])
	}
}
