package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// New returns the process logger. Every line carries the service name so the
// API and scheduler can share a log sink.
func New(level string, pretty bool, service string) zerolog.Logger {
	var out io.Writer = os.Stdout
	if pretty {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}
	return build(out, level, service).With().Caller().Logger()
}

// NewWithWriter builds a logger over w without caller info.
func NewWithWriter(level string, w io.Writer) zerolog.Logger {
	return build(w, level, "")
}

func build(w io.Writer, level, service string) zerolog.Logger {
	ctx := zerolog.New(w).Level(ParseLevel(level)).With().Timestamp()
	if service != "" {
		ctx = ctx.Str("service", service)
	}
	return ctx.Logger()
}

// ParseLevel maps a config string to a zerolog level, falling back to info.
// Trace and disabled levels are not accepted from config.
func ParseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl < zerolog.DebugLevel || lvl > zerolog.ErrorLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// Printf lets cron write through zerolog.
type Printf struct {
	Log zerolog.Logger
}

func (p Printf) Printf(format string, args ...interface{}) {
	p.Log.Info().Str("component", "cron").Msg(fmt.Sprintf(format, args...))
}
