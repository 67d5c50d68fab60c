// Package log builds the process slog.Logger and the hex report log.
//
// Without a log file, records below error go to stdout and errors to stderr.
// With a file, everything goes to stderr and the file.
package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// LevelTrace is below Debug and enables per-report logging.
const LevelTrace slog.Level = -8

// Options are the logging flags shared by every command.
type Options struct {
	Level      string `help:"Log level" enum:"trace,debug,info,warn,error" default:"info" env:"TIDBIT_LOG_LEVEL"`
	File       string `help:"Also write logs to this file" env:"TIDBIT_LOG_FILE"`
	ReportFile string `help:"Write a hex dump of every HID report and LED update to this file" env:"TIDBIT_LOG_REPORT_FILE"`
}

// ParseLevel maps a level name to a slog level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "trace":
		return LevelTrace
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

type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, l slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, l) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	for _, h := range f {
		if h.Enabled(ctx, r.Level) {
			_ = h.Handle(ctx, r.Clone())
		}
	}
	return nil
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (f fanout) WithGroup(name string) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}
	return out
}

// levelRange passes records with min <= level < max to h.
type levelRange struct {
	min, max slog.Level
	h        slog.Handler
}

func (r levelRange) Enabled(ctx context.Context, l slog.Level) bool {
	return l >= r.min && l < r.max && r.h.Enabled(ctx, l)
}

func (r levelRange) Handle(ctx context.Context, rec slog.Record) error {
	return r.h.Handle(ctx, rec)
}

func (r levelRange) WithAttrs(attrs []slog.Attr) slog.Handler {
	return levelRange{r.min, r.max, r.h.WithAttrs(attrs)}
}

func (r levelRange) WithGroup(name string) slog.Handler {
	return levelRange{r.min, r.max, r.h.WithGroup(name)}
}

// NewHandler builds the console handler pair writing to out and errOut.
func NewHandler(level slog.Level, out, errOut io.Writer) slog.Handler {
	const top = slog.Level(1 << 20)
	return fanout{
		levelRange{min: level, max: slog.LevelError, h: slog.NewTextHandler(out, &slog.HandlerOptions{Level: level})},
		levelRange{min: slog.LevelError, max: top, h: slog.NewTextHandler(errOut, &slog.HandlerOptions{Level: slog.LevelError})},
	}
}

// SetupLogger builds the logger described by o. The returned closers must be
// closed on exit.
func SetupLogger(o Options) (*slog.Logger, []io.Closer, error) {
	level := ParseLevel(o.Level)
	if o.File == "" {
		return slog.New(NewHandler(level, os.Stdout, os.Stderr)), nil, nil
	}
	f, err := os.OpenFile(o.File, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	h := fanout{slog.NewTextHandler(os.Stderr, opts), slog.NewTextHandler(f, opts)}
	return slog.New(h), []io.Closer{f}, nil
}
