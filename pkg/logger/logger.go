package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	"travel-docs/internal/domain"

	"github.com/rs/zerolog"
)

// AppLogger implements the domain.Logger interface on top of zerolog
type AppLogger struct {
	logger zerolog.Logger
}

// Options configures the logger output.
type Options struct {
	Level   string
	Format  string // json or console
	Service string
	Output  io.Writer
}

// NewLogger creates a new JSON logger writing to stdout
func NewLogger(levelStr string) domain.Logger {
	return New(Options{Level: levelStr})
}

// New creates a logger from options
func New(opts Options) *AppLogger {
	var out io.Writer = opts.Output
	if out == nil {
		out = os.Stdout
	}
	if strings.EqualFold(opts.Format, "console") {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"}
	}
	service := opts.Service
	if service == "" {
		service = "travel-docs"
	}

	l := zerolog.New(out).
		With().
		Timestamp().
		Str("service", service).
		Logger().
		Level(parseLogLevel(opts.Level))

	return &AppLogger{logger: l}
}

// Info logs an info message
func (l *AppLogger) Info(msg string, fields ...interface{}) {
	l.emit(l.logger.Info(), msg, fields)
}

// Error logs an error message
func (l *AppLogger) Error(msg string, err error, fields ...interface{}) {
	l.emit(l.logger.Error().Err(err), msg, fields)
}

// Debug logs a debug message
func (l *AppLogger) Debug(msg string, fields ...interface{}) {
	l.emit(l.logger.Debug(), msg, fields)
}

// Warn logs a warning message
func (l *AppLogger) Warn(msg string, fields ...interface{}) {
	l.emit(l.logger.Warn(), msg, fields)
}

// emit attaches key/value pairs to the event. A trailing key without a
// value is dropped.
func (l *AppLogger) emit(ev *zerolog.Event, msg string, fields []interface{}) {
	if ev == nil {
		return
	}
	for i := 0; i+1 < len(fields); i += 2 {
		key, ok := fields[i].(string)
		if !ok {
			key = fmt.Sprint(fields[i])
		}
		if err, isErr := fields[i+1].(error); isErr {
			ev = ev.AnErr(key, err)
			continue
		}
		ev = ev.Interface(key, fields[i+1])
	}
	ev.Msg(msg)
}

// parseLogLevel converts string log level to a zerolog level
func parseLogLevel(levelStr string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(levelStr)) {
	case "debug":
		return zerolog.DebugLevel
	case "info", "":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
