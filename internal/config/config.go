// Package config sets up the shared pieces of the program shell.
package config

import (
	"github.com/retroenv/retrogolib/log"
)

// CreateLogger creates the program logger. Debug enables the verbose
// indexing and detection output, quiet reduces it to errors so the
// listing can be piped cleanly.
func CreateLogger(debug, quiet bool) *log.Logger {
	cfg := log.DefaultConfig()
	switch {
	case debug:
		cfg.Level = log.DebugLevel
	case quiet:
		cfg.Level = log.ErrorLevel
	}
	return log.NewWithConfig(cfg)
}
