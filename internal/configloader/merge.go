package configloader

import (
	"github.com/yaklabco/gomgc/pkg/config"
)

// Merge overlays src onto dst: set fields in src win, zero fields leave
// dst alone. Booleans only merge when true, so a file cannot un-set a
// default that is already off.
func Merge(dst, src *config.Config) {
	if src == nil {
		return
	}
	if src.Toolchain.As != "" {
		dst.Toolchain.As = src.Toolchain.As
	}
	if src.Toolchain.Objcopy != "" {
		dst.Toolchain.Objcopy = src.Toolchain.Objcopy
	}
	if src.Toolchain.TimeoutSeconds != 0 {
		dst.Toolchain.TimeoutSeconds = src.Toolchain.TimeoutSeconds
	}
	if src.MapVersion != "" {
		dst.MapVersion = src.MapVersion
	}
	if src.Color != "" {
		dst.Color = src.Color
	}
	if src.NoPack {
		dst.NoPack = true
	}
}
