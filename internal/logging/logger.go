package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// The engine logs through a single package-level logger so hot-path callers
// never pay for logger plumbing. Backed by zerolog with a console writer and
// an optional append-only file.

var globalLogger zerolog.Logger

func init() {
	globalLogger = newLogger(zerolog.InfoLevel, os.Stderr)
}

func newLogger(level zerolog.Level, out io.Writer) zerolog.Logger {
	cw := zerolog.ConsoleWriter{Out: out, TimeFormat: "2006-01-02 15:04:05.000"}
	return zerolog.New(cw).Level(level).With().Timestamp().Logger()
}

// Init configures the global logger. If path is non-empty, log lines are
// duplicated to the file in zerolog's JSON format for machine consumption.
func Init(levelName, path string) error {
	level, err := zerolog.ParseLevel(strings.ToLower(levelName))
	if err != nil {
		level = zerolog.InfoLevel
	}

	if path == "" {
		globalLogger = newLogger(level, os.Stderr)
		return nil
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	cw := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "2006-01-02 15:04:05.000"}
	globalLogger = zerolog.New(zerolog.MultiLevelWriter(cw, file)).
		Level(level).With().Timestamp().Logger()
	return nil
}

func Debug(format string, args ...interface{}) {
	globalLogger.Debug().Msgf(format, args...)
}

func Info(format string, args ...interface{}) {
	globalLogger.Info().Msgf(format, args...)
}

func Warn(format string, args ...interface{}) {
	globalLogger.Warn().Msgf(format, args...)
}

func Error(format string, args ...interface{}) {
	globalLogger.Error().Msgf(format, args...)
}

// Incident logs a structured incident line alongside the formatted stream so
// forensic tooling can filter on fields instead of parsing text.
func Incident(guildID, actorID, threatType string, score int, actionTaken bool) {
	globalLogger.Warn().
		Str("guild_id", guildID).
		Str("actor_id", actorID).
		Str("threat_type", threatType).
		Int("score", score).
		Bool("action_taken", actionTaken).
		Time("at", time.Now()).
		Msg("incident")
}
