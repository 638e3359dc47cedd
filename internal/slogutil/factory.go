package slogutil

import (
	"context"
	"errors"
	"io"
	"log/slog"
)

// Settings is the logging configuration a LoggerFactory builds from.
type Settings struct {
	Format     string // human or json
	Level      string
	File       string // optional second sink, appended to
	MaxSize    string // rotate File past this size; empty disables
	MaxBackups int
}

// LoggerFactory builds the process logger. The CLI level, when set, wins
// over the configured level.
type LoggerFactory struct {
	settings Settings
	cliLevel *slog.Level
	closers  []io.Closer
}

// NewLoggerFactory creates a factory. cliLevel is nil when no verbosity
// flag was given.
func NewLoggerFactory(settings Settings, cliLevel *slog.Level) *LoggerFactory {
	return &LoggerFactory{settings: settings, cliLevel: cliLevel}
}

// Logger returns a logger writing to w and, when Settings.File is set, to
// the (possibly rotating) log file as well. The file keeps at least info
// records even when w is quiet.
func (f *LoggerFactory) Logger(w io.Writer) (*slog.Logger, error) {
	level := f.EffectiveLevel()
	handler := f.handler(w, level)
	if f.settings.File == "" {
		return slog.New(handler), nil
	}

	rf, err := openLogFile(f.settings.File, f.settings.MaxSize, f.settings.MaxBackups)
	if err != nil {
		return nil, err
	}
	f.closers = append(f.closers, rf)
	return slog.New(tee{handler, f.handler(rf, min(level, slog.LevelInfo))}), nil
}

// handler picks the record format from Settings.Format.
func (f *LoggerFactory) handler(w io.Writer, level slog.Level) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	if f.settings.Format == "json" {
		return slog.NewJSONHandler(w, opts)
	}
	return NewLineHandler(w, opts)
}

// EffectiveLevel returns the CLI level when set, else the configured level.
func (f *LoggerFactory) EffectiveLevel() slog.Level {
	if f.cliLevel != nil {
		return *f.cliLevel
	}
	if f.settings.Level != "" {
		return LevelFromString(f.settings.Level)
	}
	return slog.LevelWarn
}

// Close closes all open log files.
func (f *LoggerFactory) Close() error {
	var errs []error
	for _, c := range f.closers {
		errs = append(errs, c.Close())
	}
	f.closers = nil
	return errors.Join(errs...)
}

// tee sends each record to every sink enabled for its level.
type tee []slog.Handler

func (t tee) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range t {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (t tee) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range t {
		if h.Enabled(ctx, r.Level) {
			errs = append(errs, h.Handle(ctx, r.Clone()))
		}
	}
	return errors.Join(errs...)
}

func (t tee) WithAttrs(attrs []slog.Attr) slog.Handler {
	return t.each(func(h slog.Handler) slog.Handler { return h.WithAttrs(attrs) })
}

func (t tee) WithGroup(name string) slog.Handler {
	return t.each(func(h slog.Handler) slog.Handler { return h.WithGroup(name) })
}

func (t tee) each(fn func(slog.Handler) slog.Handler) tee {
	out := make(tee, len(t))
	for i, h := range t {
		out[i] = fn(h)
	}
	return out
}
