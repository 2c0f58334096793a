package script

import (
	"fmt"
	"strings"
)

// aliasDepthLimit bounds repeated alias substitution on a single line.
// Hitting the limit with tokens still resolvable means the definitions
// refer to each other in a loop.
const aliasDepthLimit = 64

// AliasTable maps alias names to raw substitution text. Definitions take
// effect for lines after the defining one, never retroactively.
type AliasTable struct {
	entries map[string]string
}

// NewAliasTable returns an empty alias table.
func NewAliasTable() *AliasTable {
	return &AliasTable{entries: make(map[string]string)}
}

// Define adds or replaces an alias. It reports whether a previous
// definition was overwritten.
func (t *AliasTable) Define(name, value string) bool {
	_, existed := t.entries[name]
	t.entries[name] = value
	return existed
}

// Len returns the number of defined aliases.
func (t *AliasTable) Len() int {
	return len(t.entries)
}

// Apply substitutes [name] tokens in line, repeatedly, until the line
// contains no further resolvable token. A round that leaves resolvable
// tokens without changing the line, or that never settles within the
// depth limit, is a cyclic-alias error.
func (t *AliasTable) Apply(line string, pos Position) (string, error) {
	for range aliasDepthLimit {
		replaced := line
		resolvable := false
		for name, value := range t.entries {
			tok := token(name)
			if strings.Contains(replaced, tok) {
				resolvable = true
				replaced = strings.ReplaceAll(replaced, tok, value)
			}
		}
		if !resolvable {
			return line, nil
		}
		if replaced == line {
			return "", Errorf(pos, ErrCyclicAlias, "substitution cannot make progress on %q", line)
		}
		line = replaced
	}
	return "", Errorf(pos, ErrCyclicAlias, "substitution did not settle after %d rounds", aliasDepthLimit)
}

func token(name string) string {
	return fmt.Sprintf("[%s]", name)
}
