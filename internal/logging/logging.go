// Package logging configures the server's single structured logger.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New builds a zerolog.Logger. When pretty is false output is
// newline-delimited JSON suitable for log aggregation; when true it
// uses zerolog's console writer for local development. cmd/fanout
// passes !FANOUT_LOG_JSON, so the console writer is used by default.
func New(pretty bool) zerolog.Logger {
	var out io.Writer = os.Stdout
	if pretty {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	return zerolog.New(out).
		With().
		Timestamp().
		Str("service", "ws-fanout").
		Logger()
}
