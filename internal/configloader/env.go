package configloader

import (
	"fmt"
	"os"
	"strconv"

	"github.com/yaklabco/gomgc/pkg/config"
)

// envVarPrefix is the prefix for all gomgc environment variables.
const envVarPrefix = "GOMGC_"

// LoadFromEnv applies environment variable overrides to the
// configuration (eg. GOMGC_AS, GOMGC_COLOR).
func LoadFromEnv(cfg *config.Config) error {
	if v := os.Getenv(envVarPrefix + "AS"); v != "" {
		cfg.Toolchain.As = v
	}
	if v := os.Getenv(envVarPrefix + "OBJCOPY"); v != "" {
		cfg.Toolchain.Objcopy = v
	}
	if v := os.Getenv(envVarPrefix + "TOOLCHAIN_TIMEOUT"); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sTOOLCHAIN_TIMEOUT: %w", envVarPrefix, err)
		}
		cfg.Toolchain.TimeoutSeconds = secs
	}
	if v := os.Getenv(envVarPrefix + "MAP_VERSION"); v != "" {
		cfg.MapVersion = v
	}
	if v := os.Getenv(envVarPrefix + "COLOR"); v != "" {
		cfg.Color = config.ColorMode(v)
	}
	if v := os.Getenv(envVarPrefix + "NOPACK"); v != "" {
		nopack, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sNOPACK: %w", envVarPrefix, err)
		}
		cfg.NoPack = nopack
	}
	return nil
}
