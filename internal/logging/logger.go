// Package logging wraps charmbracelet/log with the defaults gomgc wants:
// no timestamps, stderr output, a shared default logger, and context
// plumbing so subcommands inherit the root command's logger.
package logging

import (
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
)

//nolint:gochecknoglobals // shared default logger, set up once
var defaultLogger = sync.OnceValue(func() *log.Logger {
	return New("info")
})

//nolint:gochecknoglobals // test hook for swapping the default
var overrideLogger *log.Logger

// New returns a logger writing to stderr at the given level. Levels are
// "debug", "info", "warn"/"warning" and "error"; anything else means info.
func New(level string) *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: false,
		ReportCaller:    false,
	})
	logger.SetLevel(parseLevel(level))
	return logger
}

func parseLevel(level string) log.Level {
	switch strings.ToLower(level) {
	case "debug":
		return log.DebugLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

// Default returns the shared logger.
func Default() *log.Logger {
	if overrideLogger != nil {
		return overrideLogger
	}
	return defaultLogger()
}

// SetDefault replaces the shared logger. Tests use this to capture output.
func SetDefault(logger *log.Logger) {
	overrideLogger = logger
}

// SetLevel changes the shared logger's level.
func SetLevel(level string) {
	Default().SetLevel(parseLevel(level))
}

// SetSilent drops everything below fatal errors, for --silent runs where
// only the final diagnostic may reach the terminal.
func SetSilent() {
	Default().SetLevel(log.ErrorLevel)
}
