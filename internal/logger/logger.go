package logger

import (
	"os"

	"github.com/rs/zerolog"
)

// New builds the application logger. Production emits JSON to stdout;
// anything else gets a human-readable console writer.
func New(environment string) zerolog.Logger {
	if environment == "production" {
		return zerolog.New(os.Stdout).With().Timestamp().Logger()
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().Timestamp().Logger().Level(zerolog.DebugLevel)
}
