package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// defaultLogger backs the package-level event helpers.
var defaultLogger zerolog.Logger

// LogLevel selects the minimum severity that gets emitted.
type LogLevel string

const (
	DebugLevel LogLevel = "debug"
	InfoLevel  LogLevel = "info"
	WarnLevel  LogLevel = "warn"
	ErrorLevel LogLevel = "error"
	FatalLevel LogLevel = "fatal"
)

// Config controls the global logger.
type Config struct {
	// Level is the minimum severity; anything below it is dropped.
	Level LogLevel
	// Pretty switches from JSON lines to a human-readable console format.
	Pretty bool
	// Output defaults to os.Stdout.
	Output io.Writer
}

// Configure replaces the global logger. Called once from bootstrap with
// the logging section of the config file; unknown levels fall back to
// info.
func Configure(config Config) {
	if config.Output == nil {
		config.Output = os.Stdout
	}

	zerolog.TimeFieldFormat = time.RFC3339

	switch config.Level {
	case DebugLevel:
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case InfoLevel:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case WarnLevel:
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case ErrorLevel:
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	case FatalLevel:
		zerolog.SetGlobalLevel(zerolog.FatalLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	var writer io.Writer = config.Output
	if config.Pretty {
		writer = zerolog.ConsoleWriter{
			Out:        config.Output,
			TimeFormat: time.RFC3339,
		}
	}

	defaultLogger = zerolog.New(writer).With().Timestamp().Logger()
	log.Logger = defaultLogger
}

// Component returns a child logger tagged with a component name, for
// code that wants its own zerolog.Logger instead of the package helpers.
func Component(name string) zerolog.Logger {
	return defaultLogger.With().Str("component", name).Logger()
}

// Debug starts a debug-level event.
func Debug() *zerolog.Event {
	return defaultLogger.Debug()
}

// Info starts an info-level event.
func Info() *zerolog.Event {
	return defaultLogger.Info()
}

// Warn starts a warn-level event.
func Warn() *zerolog.Event {
	return defaultLogger.Warn()
}

// Error starts an error-level event.
func Error() *zerolog.Event {
	return defaultLogger.Error()
}

// Fatal starts a fatal-level event; its Msg call exits the process.
func Fatal() *zerolog.Event {
	return defaultLogger.Fatal()
}

// init installs a usable default so early startup logs are not lost
// before bootstrap calls Configure.
func init() {
	Configure(Config{
		Level:  InfoLevel,
		Pretty: true,
		Output: os.Stdout,
	})
}
