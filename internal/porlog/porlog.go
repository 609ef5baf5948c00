// Package porlog provides the structured logger used by the shape/parameter
// cache and the prove/verify drivers. Grounded on zerolog, which gnark
// itself already pulls in transitively for its own internal logger
// (gnark/logger); por-core promotes it to a direct dependency for the one
// place structured fields genuinely earn their keep: cache and pipeline
// event logging. Components that only ever see trusted internal state
// (codec, merkle, field) do not log at all.
package porlog

import (
	"os"
	"sync"

	"github.com/rs/zerolog"
)

var (
	once   sync.Once
	logger zerolog.Logger
)

// L returns the package-wide logger, initialized lazily on first use.
func L() *zerolog.Logger {
	once.Do(func() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
			With().
			Timestamp().
			Str("component", "por-core").
			Logger()
	})
	return &logger
}
