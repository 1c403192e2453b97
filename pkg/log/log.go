// Package log provides structured logging for preprocessing pipelines.
//
// The package wraps github.com/rs/zerolog behind a small Logger interface so
// that stages log key/value pairs without depending on a concrete backend.
// Loggers are obtained from a LoggerProvider; the package-level provider is
// a zerolog provider writing to stderr and can be replaced for tests.
package log

import (
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// Level is the minimum severity a logger emits.
type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
	Disabled
)

// ToLogLevel parses a level name ("debug", "info", "warn", "error", "off").
// Unknown names map to InfoLevel.
func ToLogLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DebugLevel
	case "info":
		return InfoLevel
	case "warn", "warning":
		return WarnLevel
	case "error":
		return ErrorLevel
	case "off", "disabled", "none":
		return Disabled
	default:
		return InfoLevel
	}
}

// Logger is the structured logging interface used by all stages.
// Fields are alternating key/value pairs.
type Logger interface {
	Debug(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})

	// With returns a child logger with the given fields attached to every
	// message.
	With(fields ...interface{}) Logger
}

// LoggerProvider creates named loggers.
type LoggerProvider interface {
	GetLogger() Logger
	GetLoggerWithName(name string) Logger
}

type zerologLogger struct {
	l zerolog.Logger
}

func (z *zerologLogger) Debug(msg string, fields ...interface{}) {
	withFields(z.l.Debug(), fields).Msg(msg)
}

func (z *zerologLogger) Info(msg string, fields ...interface{}) {
	withFields(z.l.Info(), fields).Msg(msg)
}

func (z *zerologLogger) Warn(msg string, fields ...interface{}) {
	withFields(z.l.Warn(), fields).Msg(msg)
}

func (z *zerologLogger) Error(msg string, fields ...interface{}) {
	withFields(z.l.Error(), fields).Msg(msg)
}

func (z *zerologLogger) With(fields ...interface{}) Logger {
	ctx := z.l.With()
	for i := 0; i+1 < len(fields); i += 2 {
		key, ok := fields[i].(string)
		if !ok {
			continue
		}
		ctx = ctx.Interface(key, fields[i+1])
	}
	return &zerologLogger{l: ctx.Logger()}
}

func withFields(ev *zerolog.Event, fields []interface{}) *zerolog.Event {
	for i := 0; i+1 < len(fields); i += 2 {
		key, ok := fields[i].(string)
		if !ok {
			continue
		}
		switch v := fields[i+1].(type) {
		case error:
			ev = ev.AnErr(key, v)
		default:
			ev = ev.Interface(key, v)
		}
	}
	return ev
}

// ZerologProvider creates zerolog-backed loggers sharing one root logger.
type ZerologProvider struct {
	root zerolog.Logger
}

// NewZerologProvider creates a provider writing console output to stderr at
// the given level.
func NewZerologProvider(level Level) *ZerologProvider {
	zl := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(toZerologLevel(level)).
		With().Timestamp().Logger()
	return &ZerologProvider{root: zl}
}

// NewZerologProviderWithLogger wraps an existing zerolog.Logger. Useful in
// tests to capture output.
func NewZerologProviderWithLogger(zl zerolog.Logger) *ZerologProvider {
	return &ZerologProvider{root: zl}
}

// GetLogger returns an unnamed logger.
func (p *ZerologProvider) GetLogger() Logger {
	return &zerologLogger{l: p.root}
}

// GetLoggerWithName returns a logger with a "logger" field identifying the
// component.
func (p *ZerologProvider) GetLoggerWithName(name string) Logger {
	return &zerologLogger{l: p.root.With().Str("logger", name).Logger()}
}

func toZerologLevel(level Level) zerolog.Level {
	switch level {
	case DebugLevel:
		return zerolog.DebugLevel
	case InfoLevel:
		return zerolog.InfoLevel
	case WarnLevel:
		return zerolog.WarnLevel
	case ErrorLevel:
		return zerolog.ErrorLevel
	case Disabled:
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

var (
	providerMu      sync.RWMutex
	defaultProvider LoggerProvider
)

// SetupLogger replaces the package-level provider. Passing nil restores the
// default stderr provider on next use.
func SetupLogger(p LoggerProvider) {
	providerMu.Lock()
	defer providerMu.Unlock()
	defaultProvider = p
}

func provider() LoggerProvider {
	providerMu.RLock()
	p := defaultProvider
	providerMu.RUnlock()
	if p != nil {
		return p
	}

	providerMu.Lock()
	defer providerMu.Unlock()
	if defaultProvider == nil {
		defaultProvider = NewZerologProvider(InfoLevel)
	}
	return defaultProvider
}

// GetLogger returns an unnamed logger from the package-level provider.
func GetLogger() Logger {
	return provider().GetLogger()
}

// GetLoggerWithName returns a named logger from the package-level provider.
func GetLoggerWithName(name string) Logger {
	return provider().GetLoggerWithName(name)
}
