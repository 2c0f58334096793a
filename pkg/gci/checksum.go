package gci

// ChecksumSize is the per-block integrity field width.
const ChecksumSize = 16

// checksumSeed initializes every block checksum.
var checksumSeed = [ChecksumSize]byte{
	0x01, 0x23, 0x45, 0x67, 0x89, 0xAB, 0xCD, 0xEF,
	0xFE, 0xDC, 0xBA, 0x98, 0x76, 0x54, 0x32, 0x10,
}

// checksum computes the 16 byte integrity field over one block's
// checksummed region: a rotating byte sum over the seed, then adjacent
// equal bytes are broken up so runs of identical data cannot produce a
// degenerate field.
func checksum(data []byte) [ChecksumSize]byte {
	cs := checksumSeed
	for i, b := range data {
		cs[i%ChecksumSize] += b
	}
	for i := 1; i < ChecksumSize; i++ {
		if cs[i] == cs[i-1] {
			cs[i] = cs[i-1] ^ 0xFF
		}
	}
	return cs
}
