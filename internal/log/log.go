// Package log holds the process-wide zerolog logger.
package log

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

var (
	// L is the shared logger (use log.L.Info().Msg("hi")).
	// It writes to stderr so command output on stdout stays clean.
	L zerolog.Logger
)

func init() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	L = zerolog.New(os.Stderr).With().Timestamp().Logger().Level(zerolog.InfoLevel)
}

// SetLevel changes the minimum level of the shared logger.
func SetLevel(level zerolog.Level) { L = L.Level(level) }

// SetOutput redirects the shared logger, keeping its level.
func SetOutput(w io.Writer) {
	L = zerolog.New(w).With().Timestamp().Logger().Level(L.GetLevel())
}

func Debug() *zerolog.Event { return L.Debug() }
func Info() *zerolog.Event  { return L.Info() }
func Warn() *zerolog.Event  { return L.Warn() }
func Error() *zerolog.Event { return L.Error() }
