// Package configloader resolves the effective gomgc configuration from
// config files, environment variables and CLI flags.
package configloader

import (
	"fmt"
	"os"

	"github.com/yaklabco/gomgc/pkg/config"
)

// LoadOptions controls configuration loading behavior.
type LoadOptions struct {
	// WorkingDir is the directory to search from for a project config.
	// Defaults to the current working directory.
	WorkingDir string

	// ExplicitPath is an explicit config file path (from --config).
	// When set, discovery is skipped and a missing file is an error.
	ExplicitPath string

	// IgnoreEnv skips GOMGC_* environment overrides.
	IgnoreEnv bool
}

// LoadResult is the resolved configuration and where it came from.
type LoadResult struct {
	Config *config.Config

	// LoadedFrom is the config file that was applied, if any.
	LoadedFrom string
}

// Load resolves the final configuration.
// Precedence (highest to lowest): environment variables, config file,
// built-in defaults. CLI flags are applied by the caller on top.
func Load(opts LoadOptions) (*LoadResult, error) {
	cfg := config.Default()
	result := &LoadResult{Config: cfg}

	path, required := opts.ExplicitPath, true
	if path == "" {
		path, required = Discover(opts.WorkingDir), false
	}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err != nil && required:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		case err == nil:
			loaded, err := config.FromYAML(data)
			if err != nil {
				return nil, fmt.Errorf("config %s: %w", path, err)
			}
			Merge(cfg, loaded)
			result.LoadedFrom = path
		}
	}

	if !opts.IgnoreEnv {
		if err := LoadFromEnv(cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return result, nil
}
