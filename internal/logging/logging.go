// Package logging constructs the process-wide zerolog logger.
package logging

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// New creates a zerolog logger. Level accepts the usual zerolog names;
// unknown values fall back to info. Console format is used in dev, JSON
// otherwise.
func New(level string, dev bool) zerolog.Logger {
	parsed, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || parsed == zerolog.NoLevel {
		parsed = zerolog.InfoLevel
	}

	if dev {
		out := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		return zerolog.New(out).Level(parsed).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).Level(parsed).With().Timestamp().Logger()
}
