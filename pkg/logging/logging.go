// Package logging builds the process logger from configuration.
package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/ethlayer/ethlayer/pkg/config"
)

// NewLogger creates a zerolog logger based on the provided configuration.
//
// Configuration options:
//   - Output format (text or json)
//   - Log level (debug, info, warn, error)
//
// Unknown levels fall back to info.
func NewLogger(cfg config.LogConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	var out io.Writer = os.Stderr
	if cfg.Format != "json" {
		out = zerolog.ConsoleWriter{Out: os.Stderr}
	}

	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}
