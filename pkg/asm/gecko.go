package asm

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// Gecko codeset sentinels. The !geckocodelist directive emits both; when
// scripts assemble a codeset by hand it is on them to include the
// markers.
var (
	geckoHeader = []byte{0x00, 0xD0, 0xC0, 0xDE, 0x00, 0xD0, 0xC0, 0xDE}
	geckoFooter = []byte{0xF0, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}
)

// Gecko compiles codelist text of the kind distributed by the modding
// community: lines starting with '*' carry code words in hex, everything
// else is commentary.
type Gecko struct{}

// Compile implements CodelistCompiler.
func (Gecko) Compile(source string) ([]byte, error) {
	out := append([]byte(nil), geckoHeader...)
	for i, line := range strings.Split(source, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || line[0] != '*' {
			continue
		}
		code, err := hex.DecodeString(strings.ReplaceAll(line[1:], " ", ""))
		if err != nil {
			return nil, fmt.Errorf("invalid Gecko code on line %d: %w", i+1, err)
		}
		out = append(out, code...)
	}
	return append(out, geckoFooter...), nil
}
