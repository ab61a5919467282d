package logger

import (
	"io"
	"os"
	"strings"
	"syscall"
	"time"

	"codeberg.org/mutker/laserlog/internal/errors"
	"github.com/rs/zerolog"
)

var log = zerolog.New(os.Stdout).With().Timestamp().Logger()

type LogLevel int8

const (
	DebugLevel LogLevel = iota
	InfoLevel
	WarnLevel
	ErrorLevel
	FatalLevel
)

type LogEvent struct {
	*zerolog.Event
}

func (e *LogEvent) Msg(msg string) {
	e.Event.Msg(msg)
}

func (e *LogEvent) Send() {
	e.Event.Send()
}

// Init initializes the console logger at the given level
func Init(level string, isService bool) {
	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}

	if isService {
		output.TimeFormat = ""
		output.FormatTimestamp = func(_ interface{}) string {
			return ""
		}
	}

	InitWithWriter(output, level)
}

// InitWithWriter initializes the logger on an arbitrary writer
func InitWithWriter(w io.Writer, level string) {
	log = zerolog.New(w).With().Timestamp().Logger()
	SetLogLevel(ParseLevel(level))
}

// ParseLevel maps a configured level name to a LogLevel, defaulting to info
func ParseLevel(level string) LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return DebugLevel
	case "warn", "warning":
		return WarnLevel
	case "error":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

// SetLogLevel sets the global log level
func SetLogLevel(level LogLevel) {
	zerolog.SetGlobalLevel(zerolog.Level(level))
}

// IsService checks if the application is running as a service
func IsService() bool {
	if _, err := os.Stdin.Stat(); err != nil {
		return true
	}
	if os.Getenv("SERVICE_NAME") != "" || os.Getenv("INVOCATION_ID") != "" {
		return true
	}
	if os.Getppid() == 1 {
		return true
	}

	return syscall.Getpgrp() == syscall.Getpid()
}

// Debug logs a debug message
func Debug() *LogEvent {
	return &LogEvent{log.Debug()}
}

// Info logs an info message
func Info() *LogEvent {
	return &LogEvent{log.Info()}
}

// Warn logs a warning message
func Warn() *LogEvent {
	return &LogEvent{log.Warn()}
}

// Error logs an error message
func Error() *LogEvent {
	return &LogEvent{log.Error()}
}

// ErrorWithCode logs an error message with its error code
func ErrorWithCode(err errors.Error) *LogEvent {
	return &LogEvent{log.Error().
		Str("error_code", string(err.Code())).
		Str("error_message", err.Error()).
		AnErr("error", err.Unwrap())}
}

// Fatal logs a fatal message and exits the program
func Fatal() *LogEvent {
	return &LogEvent{log.Fatal()}
}

// FatalWithCode logs a fatal message with its error code and exits the program
func FatalWithCode(err errors.Error) *LogEvent {
	return &LogEvent{log.Fatal().
		Str("error_code", string(err.Code())).
		Str("error_message", err.Error()).
		AnErr("error", err.Unwrap())}
}

type componentLogger struct {
	name string
}

// Component returns a Logger that tags every event with a component name.
// It reads the global logger on each call, so it follows later Init calls.
func Component(name string) Logger {
	return &componentLogger{name: name}
}

func (c *componentLogger) Debug() *LogEvent {
	return &LogEvent{log.Debug().Str("component", c.name)}
}

func (c *componentLogger) Info() *LogEvent {
	return &LogEvent{log.Info().Str("component", c.name)}
}

func (c *componentLogger) Warn() *LogEvent {
	return &LogEvent{log.Warn().Str("component", c.name)}
}

func (c *componentLogger) Error() *LogEvent {
	return &LogEvent{log.Error().Str("component", c.name)}
}

func (c *componentLogger) ErrorWithCode(err errors.Error) *LogEvent {
	return &LogEvent{ErrorWithCode(err).Str("component", c.name)}
}
