package bootstrap

import (
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/planforge/planforge-backend/config"
)

// NewLogger builds the process-wide zerolog logger. Development gets the
// human console writer, everything else stays structured JSON on stderr.
func NewLogger(app config.AppConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(app.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var logger zerolog.Logger
	if app.Environment == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	} else {
		logger = zerolog.New(os.Stderr)
	}

	return logger.Level(level).With().
		Timestamp().
		Str("version", app.Version).
		Logger()
}
