// Package logging configures the global zerolog logger.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup configures the global logger level and output format.
// Should be called once during application initialization.
func Setup(level string, format string) {
	SetupWriter(os.Stdout, level, format)
}

// SetupWriter is Setup with an explicit destination.
func SetupWriter(out io.Writer, level string, format string) {
	zerolog.SetGlobalLevel(parseLogLevel(level))

	output := out
	if format == "console" {
		// Console output with colors (for development)
		output = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
		}
	}

	log.Logger = zerolog.New(output).With().Timestamp().Logger()

	if format == "console" {
		log.Logger = log.Logger.With().Caller().Logger()
	}

	log.Info().
		Str("level", level).
		Str("format", format).
		Msg("Logger initialized")
}

// parseLogLevel converts a string log level to zerolog.Level.
// Unknown levels fall back to info.
func parseLogLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// WithComponent adds a component name to the logger context.
//
// Example usage:
//
//	logger := logging.WithComponent("stats_publisher")
//	logger.Info().Msg("Publishing router stats")
func WithComponent(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// LogRequest logs a resolved request with common fields.
func LogRequest(method, path string, statusCode int, latencyMs int64) {
	log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", statusCode).
		Int64("latency_ms", latencyMs).
		Msg("Request resolved")
}

// LogPanic logs a recovered panic with stack trace.
//
// Should be used in defer recover() blocks.
func LogPanic(recovered interface{}) {
	log.Error().
		Interface("panic", recovered).
		Stack().
		Msg("Panic recovered")
}
