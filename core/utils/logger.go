package utils

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger wraps zerolog behind the Printf-style surface the rest of the
// codebase uses. Handlers and stores never touch zerolog directly.
type Logger struct {
	zl zerolog.Logger
}

type LogOptions struct {
	Level      string
	FilePath   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Console    bool
}

func NewLogger() *Logger {
	return NewLoggerWith(LogOptions{Level: "info", Console: true})
}

func NewLoggerWith(opts LogOptions) *Logger {
	var writers []io.Writer
	if opts.Console || opts.FilePath == "" {
		writers = append(writers, zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	if opts.FilePath != "" {
		writers = append(writers, &lumberjack.Logger{
			Filename:   opts.FilePath,
			MaxSize:    defaultInt(opts.MaxSizeMB, 50),
			MaxBackups: defaultInt(opts.MaxBackups, 5),
			MaxAge:     defaultInt(opts.MaxAgeDays, 30),
			Compress:   true,
		})
	}
	level, err := zerolog.ParseLevel(strings.ToLower(opts.Level))
	if err != nil || opts.Level == "" {
		level = zerolog.InfoLevel
	}
	zl := zerolog.New(io.MultiWriter(writers...)).Level(level).With().Timestamp().Logger()
	return &Logger{zl: zl}
}

func (l *Logger) Printf(format string, args ...any) {
	l.zl.Info().Msgf(format, args...)
}

func (l *Logger) Debugf(format string, args ...any) {
	l.zl.Debug().Msgf(format, args...)
}

func (l *Logger) Warnf(format string, args ...any) {
	l.zl.Warn().Msgf(format, args...)
}

func (l *Logger) Errorf(format string, args ...any) {
	l.zl.Error().Msgf(format, args...)
}
