package configloader

import (
	"os"
	"path/filepath"
)

// configFileNames are the project config names searched in order.
var configFileNames = []string{"gomgc.yaml", ".gomgc.yaml"}

// Discover finds a project config file: each candidate name is tried in
// dir, then in the user config directory. The first existing file wins;
// "" means none was found.
func Discover(dir string) string {
	if dir == "" {
		dir = "."
	}
	for _, name := range configFileNames {
		candidate := filepath.Join(dir, name)
		if fileExists(candidate) {
			return candidate
		}
	}
	if userDir, err := os.UserConfigDir(); err == nil {
		candidate := filepath.Join(userDir, "gomgc", "config.yaml")
		if fileExists(candidate) {
			return candidate
		}
	}
	return ""
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
