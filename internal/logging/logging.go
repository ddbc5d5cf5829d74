// Package logging builds the process-wide logger. Level and color are
// decided once at startup from flags and config and injected from main;
// nothing else in the program touches logger configuration.
package logging

import (
	"io"
	"time"

	"github.com/rs/zerolog"
)

// ParseLevel maps a level name to a zerolog level. Unknown names fall back
// to info, matching the flag default.
func ParseLevel(s string) zerolog.Level {
	switch s {
	case "debug":
		return zerolog.DebugLevel
	case "info", "":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	}
	return zerolog.InfoLevel
}

// New returns a console logger writing to w at the given level. Color is
// opt-out; trace rows are fixed-width and line up either way.
func New(w io.Writer, level string, noColor bool) zerolog.Logger {
	out := zerolog.ConsoleWriter{
		Out:        w,
		NoColor:    noColor,
		TimeFormat: time.TimeOnly,
	}
	return zerolog.New(out).Level(ParseLevel(level)).With().Timestamp().Logger()
}
