// Package logging builds the zerolog logger shared by gfr commands.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// DefaultLevel applies when neither --debug nor log_level is set.
const DefaultLevel = zerolog.WarnLevel

// Config holds logger configuration.
type Config struct {
	Level   string // debug, info, warn, error; empty means DefaultLevel
	Debug   bool   // forces debug level
	Out     io.Writer
	NoColor bool
}

// New creates a console logger. An unknown level falls back to
// DefaultLevel.
func New(cfg Config) zerolog.Logger {
	level := DefaultLevel
	if cfg.Level != "" {
		if l, err := zerolog.ParseLevel(strings.ToLower(cfg.Level)); err == nil && l != zerolog.NoLevel {
			level = l
		}
	}
	if cfg.Debug {
		level = zerolog.DebugLevel
	}

	out := cfg.Out
	if out == nil {
		out = os.Stderr
	}
	w := zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.Kitchen,
		NoColor:    cfg.NoColor,
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}
