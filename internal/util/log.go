package util

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogLevelFromString parses a zerolog level name, falling back to info on
// unknown input.
func LogLevelFromString(s string) zerolog.Level {
	level, err := zerolog.ParseLevel(s)
	if err != nil {
		log.Warn().Str("level", s).Err(err).Msg("Unknown log level, using info")
		return zerolog.InfoLevel
	}
	return level
}
