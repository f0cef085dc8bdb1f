// Package logger provides a thin factory over charmbracelet/log so every
// package gets a consistently configured logger with its own prefix.
package logger

import (
	"os"

	"github.com/charmbracelet/log"
)

// New creates a default charm log that respects the global log level.
func New(prefix string) *log.Logger {
	return log.NewWithOptions(os.Stderr, log.Options{
		Prefix:          prefix,
		ReportCaller:    false,
		ReportTimestamp: false,
		Formatter:       log.TextFormatter,
		Level:           log.GetLevel(),
	})
}
