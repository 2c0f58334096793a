package asm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/gomgc/pkg/asm"
)

func TestGeckoCompile(t *testing.T) {
	t.Parallel()

	header := []byte{0x00, 0xD0, 0xC0, 0xDE, 0x00, 0xD0, 0xC0, 0xDE}
	footer := []byte{0xF0, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}

	t.Run("starred lines become code words", func(t *testing.T) {
		t.Parallel()

		src := "Title of the code [author]\n*04453130 3F800000\nSome explanation\n*04453134 40000000\n"
		out, err := asm.Gecko{}.Compile(src)
		require.NoError(t, err)

		want := append(append([]byte(nil), header...),
			0x04, 0x45, 0x31, 0x30, 0x3F, 0x80, 0x00, 0x00,
			0x04, 0x45, 0x31, 0x34, 0x40, 0x00, 0x00, 0x00)
		want = append(want, footer...)
		assert.Equal(t, want, out)
	})

	t.Run("empty source is just the sentinels", func(t *testing.T) {
		t.Parallel()

		out, err := asm.Gecko{}.Compile("no codes here, only prose\n")
		require.NoError(t, err)
		assert.Equal(t, append(append([]byte(nil), header...), footer...), out)
	})

	t.Run("bad hex reports the line", func(t *testing.T) {
		t.Parallel()

		_, err := asm.Gecko{}.Compile("*ok: 04453130 3F800000")
		require.Error(t, err)
		assert.ErrorContains(t, err, "line 1")
	})
}
