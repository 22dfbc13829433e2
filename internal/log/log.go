// Package log wraps go-kratos/kratos/v2/log with a zerolog-backed level
// filter, the same composition the teacher uses in app/log/helper.go and
// app/log/logger.go, trimmed to what the bundler core needs: leveled
// structured logging with no dependency on a running kratos application.
package log

import (
	"os"
	"sync/atomic"

	kratoslog "github.com/go-kratos/kratos/v2/log"
	"github.com/rs/zerolog"
)

// Logger is the bundler-wide structured logger. Build one with New or
// Nop: a zero Logger has no output configured and its Kratos() is nil.
type Logger struct {
	zl  zerolog.Logger
	kl  kratoslog.Logger
	lvl atomic.Int32 // zerolog.Level, changeable at runtime
}

// New builds a Logger writing to os.Stderr at the given zerolog level.
func New(level zerolog.Level) *Logger {
	zl := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).With().Timestamp().Logger().Level(level)
	l := &Logger{zl: zl}
	l.lvl.Store(int32(level))
	l.kl = kratoslog.NewStdLogger(os.Stderr)
	return l
}

// SetLevel changes the active log level without reconstructing the
// Logger, mirroring the teacher's atomic.Value level-store helper.
func (l *Logger) SetLevel(level zerolog.Level) {
	l.lvl.Store(int32(level))
	l.zl = l.zl.Level(level)
}

func (l *Logger) Debugf(format string, args ...any) { l.zl.Debug().Msgf(format, args...) }
func (l *Logger) Infof(format string, args ...any)  { l.zl.Info().Msgf(format, args...) }
func (l *Logger) Warnf(format string, args ...any)  { l.zl.Warn().Msgf(format, args...) }
func (l *Logger) Errorf(format string, args ...any) { l.zl.Error().Msgf(format, args...) }

// With returns a Logger that attaches the given key/value fields (in
// key, value, key, value, ... order) to every subsequent entry.
func (l *Logger) With(kv ...any) *Logger {
	ctx := l.zl.With()
	for i := 0; i+1 < len(kv); i += 2 {
		key, _ := kv[i].(string)
		ctx = ctx.Interface(key, kv[i+1])
	}
	return &Logger{zl: ctx.Logger(), kl: l.kl}
}

// Kratos exposes the underlying kratos log.Logger, for components that
// are themselves written against the kratos logging interface (the
// convention the teacher's app packages use throughout).
func (l *Logger) Kratos() kratoslog.Logger { return l.kl }

// Nop returns a Logger that discards everything, used by bundler.New
// (which takes no logger) and by NewDriver/NewContext when given nil.
func Nop() *Logger {
	return New(zerolog.Disabled)
}
