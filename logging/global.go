// Package logging wires log/slog to the console and to weekly rotated JSON files.
package logging

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/giygas/medcompanion-api/config"
)

// Options configures the process logger
type Options struct {
	Dir            string
	Env            string
	Level          string
	RetentionWeeks int
	MaxFileSize    int64
	Verbose        bool // keeps info output on the console in the test env
}

type LoggingService struct {
	Logger *slog.Logger
	file   *WeeklyFile
}

var DefaultLoggingService *LoggingService

// InitLogger initializes the global logger instance. When the log directory
// is unusable the logger falls back to console only.
func InitLogger(opts Options) {
	console := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: GetConsoleLogLevel(opts.Env, opts.Level, opts.Verbose),
	})

	service := &LoggingService{}
	file, err := OpenWeeklyFile(opts.Dir, opts.RetentionWeeks, opts.MaxFileSize)
	if err != nil {
		service.Logger = slog.New(console)
		service.Logger.Error("File logging disabled", "dir", opts.Dir, "error", err)
	} else {
		service.file = file
		service.Logger = slog.New(&multiHandler{handlers: []slog.Handler{
			console,
			slog.NewJSONHandler(file, &slog.HandlerOptions{Level: GetFileLogLevel()}),
		}})
	}

	DefaultLoggingService = service
	slog.SetDefault(service.Logger)
}

// Close flushes and closes the log file, if any.
func Close() error {
	if DefaultLoggingService == nil || DefaultLoggingService.file == nil {
		return nil
	}
	return DefaultLoggingService.file.Close()
}

// parseLogLevel maps LOG_LEVEL values to slog levels, defaulting to info
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// GetConsoleLogLevel picks the console level: LOG_LEVEL wins outside tests,
// tests stay quiet unless verbose, staging and prod default to warn.
func GetConsoleLogLevel(env, level string, verbose bool) slog.Level {
	if env == config.EnvTest {
		if verbose {
			return slog.LevelInfo
		}
		return slog.LevelError
	}

	if level != "" {
		return parseLogLevel(level)
	}

	switch env {
	case config.EnvProduction, config.EnvStaging:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// GetFileLogLevel returns the file level; files keep everything
func GetFileLogLevel() slog.Level {
	return slog.LevelDebug
}

// Logger returns the global logger, or a stderr logger before InitLogger runs.
func Logger() *slog.Logger {
	if DefaultLoggingService == nil || DefaultLoggingService.Logger == nil {
		return fallback
	}
	return DefaultLoggingService.Logger
}

var fallback = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))

// Package-level functions for direct access

func Info(msg string, args ...any) {
	Logger().Info(msg, args...)
}

func Error(msg string, args ...any) {
	Logger().Error(msg, args...)
}

func Warn(msg string, args ...any) {
	Logger().Warn(msg, args...)
}

func Debug(msg string, args ...any) {
	Logger().Debug(msg, args...)
}

// multiHandler fans records out to every handler that accepts the level
type multiHandler struct {
	handlers []slog.Handler
}

func (m *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (m *multiHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, h := range m.handlers {
		if h.Enabled(ctx, r.Level) {
			if err := h.Handle(ctx, r.Clone()); err != nil {
				return err
			}
		}
	}
	return nil
}

func (m *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		next[i] = h.WithAttrs(attrs)
	}
	return &multiHandler{handlers: next}
}

func (m *multiHandler) WithGroup(name string) slog.Handler {
	next := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		next[i] = h.WithGroup(name)
	}
	return &multiHandler{handlers: next}
}
