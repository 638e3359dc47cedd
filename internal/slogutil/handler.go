package slogutil

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"
)

// LineHandler writes one line per record:
//
//	2024-05-01T10:00:00Z [info] importance computed | iterations=14 converged=true
//
// Attributes bound with WithAttrs are rendered once. Group values and
// WithGroup names become dotted key prefixes.
type LineHandler struct {
	out    *lineOutput
	level  slog.Leveler
	prefix string // "" or "g1.g2."
	bound  []byte // rendered WithAttrs attributes, each " key=value"
}

// lineOutput is shared by a handler and every handler derived from it.
type lineOutput struct {
	mu sync.Mutex
	w  io.Writer
}

// NewLineHandler creates a line handler. opts.Level may be a *slog.LevelVar
// to change the level at runtime; it defaults to info.
func NewLineHandler(w io.Writer, opts *slog.HandlerOptions) *LineHandler {
	var level slog.Leveler = slog.LevelInfo
	if opts != nil && opts.Level != nil {
		level = opts.Level
	}
	return &LineHandler{out: &lineOutput{w: w}, level: level}
}

func (h *LineHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *LineHandler) Handle(_ context.Context, r slog.Record) error {
	buf := make([]byte, 0, 160)
	if !r.Time.IsZero() {
		buf = r.Time.UTC().AppendFormat(buf, time.RFC3339)
		buf = append(buf, ' ')
	}
	buf = append(buf, '[')
	buf = append(buf, levelName(r.Level)...)
	buf = append(buf, "] "...)
	buf = append(buf, r.Message...)

	tail := slices.Clone(h.bound)
	r.Attrs(func(a slog.Attr) bool {
		tail = appendAttr(tail, h.prefix, a)
		return true
	})
	if len(tail) > 0 {
		buf = append(buf, " |"...)
		buf = append(buf, tail...)
	}
	buf = append(buf, '\n')

	h.out.mu.Lock()
	defer h.out.mu.Unlock()
	_, err := h.out.w.Write(buf)
	return err
}

func (h *LineHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	clone := *h
	clone.bound = slices.Clone(h.bound)
	for _, a := range attrs {
		clone.bound = appendAttr(clone.bound, h.prefix, a)
	}
	return &clone
}

func (h *LineHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.prefix = h.prefix + name + "."
	return &clone
}

func appendAttr(buf []byte, prefix string, a slog.Attr) []byte {
	a.Value = a.Value.Resolve()
	if a.Value.Kind() == slog.KindGroup {
		if a.Key != "" {
			prefix += a.Key + "."
		}
		for _, ga := range a.Value.Group() {
			buf = appendAttr(buf, prefix, ga)
		}
		return buf
	}
	if a.Key == "" {
		return buf
	}
	buf = append(buf, ' ')
	buf = append(buf, prefix...)
	buf = append(buf, a.Key...)
	buf = append(buf, '=')
	return appendValue(buf, a.Value)
}

func appendValue(buf []byte, v slog.Value) []byte {
	switch v.Kind() {
	case slog.KindString:
		s := v.String()
		if s == "" || strings.ContainsAny(s, " \t\n\"=") {
			return strconv.AppendQuote(buf, s)
		}
		return append(buf, s...)
	case slog.KindInt64:
		return strconv.AppendInt(buf, v.Int64(), 10)
	case slog.KindUint64:
		return strconv.AppendUint(buf, v.Uint64(), 10)
	case slog.KindFloat64:
		return strconv.AppendFloat(buf, v.Float64(), 'g', -1, 64)
	case slog.KindBool:
		return strconv.AppendBool(buf, v.Bool())
	case slog.KindDuration:
		return append(buf, v.Duration().String()...)
	case slog.KindTime:
		return v.Time().UTC().AppendFormat(buf, time.RFC3339)
	default:
		return fmt.Append(buf, v.Any())
	}
}

// levelName buckets custom levels into the nearest standard name below.
func levelName(l slog.Level) string {
	switch {
	case l >= slog.LevelError:
		return "error"
	case l >= slog.LevelWarn:
		return "warn"
	case l >= slog.LevelInfo:
		return "info"
	default:
		return "debug"
	}
}
