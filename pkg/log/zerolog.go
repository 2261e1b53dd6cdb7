package log

import (
	"context"
	"io"
	"os"
	"sync"

	"github.com/YuminosukeSato/gdlinear/pkg/errors"
	"github.com/rs/zerolog"
)

// ZerologLogger implements Logger on top of zerolog.
type ZerologLogger struct {
	logger zerolog.Logger
}

// NewZerologLogger returns a JSON logger writing to w at the given level.
func NewZerologLogger(w io.Writer, level Level) *ZerologLogger {
	return &ZerologLogger{
		logger: zerolog.New(w).Level(toZerologLevel(level)).With().Timestamp().Logger(),
	}
}

// NewConsoleLogger returns a human-readable logger for terminal output.
func NewConsoleLogger(w io.Writer, level Level) *ZerologLogger {
	return NewZerologLogger(zerolog.ConsoleWriter{Out: w, NoColor: true}, level)
}

func (z *ZerologLogger) Debug(msg string, fields ...any) {
	z.logger.Debug().Fields(fields).Msg(msg)
}

func (z *ZerologLogger) Info(msg string, fields ...any) {
	z.logger.Info().Fields(fields).Msg(msg)
}

func (z *ZerologLogger) Warn(msg string, fields ...any) {
	z.logger.Warn().Fields(fields).Msg(msg)
}

func (z *ZerologLogger) Error(msg string, fields ...any) {
	ev := z.logger.Error()
	if len(fields) > 0 {
		if err, ok := fields[0].(error); ok {
			ev = withError(ev, err)
			fields = fields[1:]
		}
	}
	ev.Fields(fields).Msg(msg)
}

func (z *ZerologLogger) With(fields ...any) Logger {
	return &ZerologLogger{logger: z.logger.With().Fields(fields).Logger()}
}

func (z *ZerologLogger) Enabled(_ context.Context, level Level) bool {
	return toZerologLevel(level) >= z.logger.GetLevel()
}

// Warning logs a warning from pkg/errors, embedding its structured fields
// when the warning implements zerolog.LogObjectMarshaler.
func (z *ZerologLogger) Warning(w error) {
	ev := z.logger.Warn()
	if m, ok := w.(zerolog.LogObjectMarshaler); ok {
		ev = ev.EmbedObject(m)
	}
	ev.Msg(w.Error())
}

func withError(ev *zerolog.Event, err error) *zerolog.Event {
	ev = ev.Err(err)
	var m zerolog.LogObjectMarshaler
	if errors.As(err, &m) {
		ev = ev.Dict("detail", zerolog.Dict().EmbedObject(m))
	}
	return ev
}

func toZerologLevel(level Level) zerolog.Level {
	switch {
	case level <= LevelDebug:
		return zerolog.DebugLevel
	case level <= LevelInfo:
		return zerolog.InfoLevel
	case level <= LevelWarn:
		return zerolog.WarnLevel
	default:
		return zerolog.ErrorLevel
	}
}

// ZerologProvider implements LoggerProvider with zerolog loggers sharing
// one writer.
type ZerologProvider struct {
	mu     sync.RWMutex
	w      io.Writer
	level  Level
	logger *ZerologLogger
}

// NewZerologProvider creates a provider writing JSON lines to w.
func NewZerologProvider(w io.Writer, level Level) *ZerologProvider {
	return &ZerologProvider{w: w, level: level, logger: NewZerologLogger(w, level)}
}

func (p *ZerologProvider) GetLogger() Logger {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.logger
}

func (p *ZerologProvider) GetLoggerWithName(name string) Logger {
	return p.GetLogger().With(ComponentKey, name)
}

func (p *ZerologProvider) SetLevel(level Level) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.level = level
	p.logger = NewZerologLogger(p.w, level)
}

var (
	globalMu       sync.RWMutex
	globalProvider LoggerProvider = NewZerologProvider(os.Stderr, LevelWarn)
)

// GetLogger returns the logger of the global provider.
func GetLogger() Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalProvider.GetLogger()
}

// GetLoggerWithName returns a component logger from the global provider.
func GetLoggerWithName(name string) Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalProvider.GetLoggerWithName(name)
}

// SetProvider replaces the global provider.
func SetProvider(p LoggerProvider) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalProvider = p
}

// RouteWarnings sends warnings raised through errors.Warn to z.
func RouteWarnings(z *ZerologLogger) {
	errors.SetZerologWarnFunc(z.Warning)
}
