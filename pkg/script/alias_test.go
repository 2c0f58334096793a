package script_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/gomgc/pkg/script"
)

func TestAliasTable(t *testing.T) {
	t.Parallel()

	pos := script.Position{File: "test.mgc", Line: 1}

	t.Run("substitutes tokens", func(t *testing.T) {
		t.Parallel()

		table := script.NewAliasTable()
		table.Define("base", "8045d6b8")

		got, err := table.Apply("!loc [base]", pos)
		require.NoError(t, err)
		assert.Equal(t, "!loc 8045d6b8", got)
	})

	t.Run("substitutes repeatedly until fixpoint", func(t *testing.T) {
		t.Parallel()

		table := script.NewAliasTable()
		table.Define("a", "[b] [b]")
		table.Define("b", "FF")

		got, err := table.Apply("[a]", pos)
		require.NoError(t, err)
		assert.Equal(t, "FF FF", got)
	})

	t.Run("leaves unknown tokens alone", func(t *testing.T) {
		t.Parallel()

		table := script.NewAliasTable()
		got, err := table.Apply("!echo \"[missing]\"", pos)
		require.NoError(t, err)
		assert.Equal(t, "!echo \"[missing]\"", got)
	})

	t.Run("redefinition is reported", func(t *testing.T) {
		t.Parallel()

		table := script.NewAliasTable()
		assert.False(t, table.Define("a", "1"))
		assert.True(t, table.Define("a", "2"))
		assert.Equal(t, 1, table.Len())
	})

	t.Run("self referential alias is a cyclic error", func(t *testing.T) {
		t.Parallel()

		table := script.NewAliasTable()
		table.Define("loop", "[loop]")

		_, err := table.Apply("[loop]", pos)
		require.ErrorIs(t, err, script.ErrCyclicAlias)
	})

	t.Run("mutually recursive aliases are a cyclic error", func(t *testing.T) {
		t.Parallel()

		table := script.NewAliasTable()
		table.Define("a", "[b]")
		table.Define("b", "[a]")

		_, err := table.Apply("[a]", pos)
		require.ErrorIs(t, err, script.ErrCyclicAlias)
	})
}
