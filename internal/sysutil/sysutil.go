// Package sysutil applies process-level runtime settings derived from the
// loaded configuration. It owns the global zerolog setup so main stays a
// plain wiring sequence.
package sysutil

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// SetupLogging configures the global zerolog logger.
//
// level is one of debug, info, warn, error, fatal, panic (case-insensitive);
// empty or unknown values fall back to info so a typo in LOG_LEVEL never
// silences the process. pretty switches stderr to the human-readable console
// writer for local runs; production keeps JSON lines.
func SetupLogging(level string, pretty bool) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	if pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}
