package gci

import (
	"bytes"
	"testing"
)

func TestByteTransformRoundTrip(t *testing.T) {
	t.Parallel()

	for prev := 0; prev < 256; prev++ {
		for cur := 0; cur < 256; cur++ {
			enc := encodeByte(byte(prev), byte(cur))
			dec := decodeByte(byte(prev), enc)
			if dec != byte(cur) {
				t.Fatalf("decodeByte(%#02x, encodeByte(%#02x, %#02x)) = %#02x", prev, prev, cur, dec)
			}
		}
	}
}

func TestShufflesAreInverses(t *testing.T) {
	t.Parallel()

	for i := range decodeShuffles {
		for x := 0; x < 256; x++ {
			y := encodeShuffles[i].apply(byte(x))
			if got := decodeShuffles[i].apply(y); got != byte(x) {
				t.Fatalf("shuffle %d: decode(encode(%#02x)) = %#02x", i, x, got)
			}
		}
	}
}

func TestRegionRoundTrip(t *testing.T) {
	t.Parallel()

	region := make([]byte, 0x200)
	for i := range region {
		region[i] = byte(i * 7)
	}
	original := append([]byte(nil), region...)

	encodeRegion(region)
	if bytes.Equal(region, original) {
		t.Fatal("encodeRegion left the region unchanged")
	}
	if region[0] != original[0] {
		t.Fatalf("first byte must stay in the clear: got %#02x, want %#02x", region[0], original[0])
	}

	decodeRegion(region)
	if !bytes.Equal(region, original) {
		t.Fatal("decodeRegion did not restore the original bytes")
	}
}

func TestChecksum(t *testing.T) {
	t.Parallel()

	t.Run("empty data yields the seed", func(t *testing.T) {
		t.Parallel()

		if got := checksum(nil); got != checksumSeed {
			t.Fatalf("checksum(nil) = % x, want seed", got)
		}
	})

	t.Run("single byte change moves the field", func(t *testing.T) {
		t.Parallel()

		data := make([]byte, 0x100)
		before := checksum(data)
		data[0x42] = 1
		after := checksum(data)
		if before == after {
			t.Fatal("checksum did not react to a data change")
		}
	})

	t.Run("adjacent equal bytes are broken up", func(t *testing.T) {
		t.Parallel()

		// All-zero data sums to the raw seed; the seed has no adjacent
		// equal bytes, so craft data that forces two equal neighbors.
		data := make([]byte, ChecksumSize)
		data[0] = 0x22 // cs[0] = 0x01+0x22 = 0x23 = seed[1]
		cs := checksum(data)
		for i := 1; i < ChecksumSize; i++ {
			if cs[i] == cs[i-1] {
				t.Fatalf("adjacent equal bytes at %d: % x", i, cs)
			}
		}
	})
}
