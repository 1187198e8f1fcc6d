package telemetry

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger creates a zerolog logger from the given configuration.
func NewLogger(cfg LoggingConfig) (zerolog.Logger, error) {
	var writer io.Writer
	switch cfg.Output {
	case "stdout":
		writer = os.Stdout
	case "stderr", "":
		writer = os.Stderr
	default:
		// Anything else is treated as a file path.
		file, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return zerolog.Nop(), err
		}
		writer = file
	}

	if cfg.Format == "console" {
		writer = zerolog.ConsoleWriter{
			Out:        writer,
			TimeFormat: time.RFC3339,
		}
	}

	switch cfg.TimeFormat {
	case "unix":
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	default:
		zerolog.TimeFieldFormat = time.RFC3339
	}

	logger := zerolog.New(writer).With().Timestamp().Logger()
	logger = logger.Level(parseLogLevel(cfg.Level))

	if cfg.EnableCaller {
		logger = logger.With().Caller().Logger()
	}

	return logger, nil
}

// ComponentLogger returns a child logger tagged with a component name.
func ComponentLogger(logger zerolog.Logger, component string) zerolog.Logger {
	return logger.With().Str("component", component).Logger()
}

// ProjectLogger returns a child logger tagged with a project name.
func ProjectLogger(logger zerolog.Logger, project string) zerolog.Logger {
	return logger.With().Str("project", project).Logger()
}

// CycleLogger returns a child logger tagged with a cycle identity.
func CycleLogger(logger zerolog.Logger, cycleID string, seq uint64) zerolog.Logger {
	return logger.With().Str("cycle_id", cycleID).Uint64("cycle_seq", seq).Logger()
}

// parseLogLevel converts a string log level to zerolog.Level.
func parseLogLevel(level string) zerolog.Level {
	switch level {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	default:
		return zerolog.InfoLevel
	}
}
