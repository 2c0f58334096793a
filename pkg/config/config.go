// Package config defines the gomgc configuration model.
package config

import (
	"fmt"
)

// ColorMode controls terminal color output.
type ColorMode string

// Valid color modes.
const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

// Toolchain names the external PPC toolchain binaries used for !asm
// blocks.
type Toolchain struct {
	// As is the assembler binary. Defaults to powerpc-eabi-as.
	As string `yaml:"as,omitempty"`

	// Objcopy flattens objects to raw machine code. Defaults to
	// powerpc-eabi-objcopy.
	Objcopy string `yaml:"objcopy,omitempty"`

	// TimeoutSeconds bounds one toolchain invocation. Zero means no
	// bound.
	TimeoutSeconds int `yaml:"timeout_seconds,omitempty"`
}

// Config is the resolved gomgc configuration.
type Config struct {
	// Toolchain configures the external assembler.
	Toolchain Toolchain `yaml:"toolchain,omitempty"`

	// MapVersion selects the address map used for !loc translation.
	// Currently only "NTSC 1.02" ships built in.
	MapVersion string `yaml:"map_version,omitempty"`

	// Color controls styled terminal output.
	Color ColorMode `yaml:"color,omitempty"`

	// NoPack makes compile emit the plain data region by default.
	NoPack bool `yaml:"nopack,omitempty"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		MapVersion: "NTSC 1.02",
		Color:      ColorAuto,
	}
}

// Validate checks the configuration for values no command could accept.
func (c *Config) Validate() error {
	switch c.Color {
	case ColorAuto, ColorAlways, ColorNever, "":
	default:
		return fmt.Errorf("invalid color mode %q (want auto, always or never)", c.Color)
	}
	if c.Toolchain.TimeoutSeconds < 0 {
		return fmt.Errorf("toolchain timeout cannot be negative")
	}
	return nil
}
