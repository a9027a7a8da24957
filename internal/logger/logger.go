package logger

import (
	"io"
	"os"
	"strings"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
)

const (
	LogFormatLogfmt = "logfmt"
	LogFormatJSON   = "json"
)

const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

// New returns a log.Logger that prints to stderr in the provided format at the
// provided level with a UTC timestamp and the caller of the log entry.
// A non-empty name is added to every entry.
func New(logLevel, logFormat, name string) log.Logger {
	return NewWithWriter(os.Stderr, logLevel, logFormat, name)
}

// NewWithWriter is New printing to w.
func NewWithWriter(w io.Writer, logLevel, logFormat, name string) log.Logger {
	var lvl level.Option

	switch strings.ToLower(logLevel) {
	case LogLevelError:
		lvl = level.AllowError()
	case LogLevelWarn:
		lvl = level.AllowWarn()
	case LogLevelDebug:
		lvl = level.AllowDebug()
	default:
		lvl = level.AllowInfo()
	}

	l := log.NewSyncLogger(log.NewLogfmtLogger(w))
	if logFormat == LogFormatJSON {
		l = log.NewSyncLogger(log.NewJSONLogger(w))
	}

	l = level.NewFilter(l, lvl)

	if name != "" {
		l = log.With(l, "name", name)
	}

	return log.With(l, "ts", log.DefaultTimestampUTC, "caller", log.DefaultCaller)
}
