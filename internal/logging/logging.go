// Package logging builds the zerolog logger shared by every component.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// New creates a logger writing to out (stderr when nil). format "json"
// selects structured output; anything else uses the console writer.
func New(level, format string, out io.Writer) zerolog.Logger {
	if out == nil {
		out = os.Stderr
	}
	if strings.ToLower(strings.TrimSpace(format)) != "json" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	return zerolog.New(out).
		With().
		Timestamp().
		Str("service", "assistant").
		Logger().
		Level(parseLevel(level))
}

// Component returns a child logger tagged with the component name.
func Component(log zerolog.Logger, name string) zerolog.Logger {
	return log.With().Str("component", name).Logger()
}

func parseLevel(raw string) zerolog.Level {
	if raw == "" {
		return zerolog.InfoLevel
	}
	level, err := zerolog.ParseLevel(strings.ToLower(raw))
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}

// RestyLogger adapts zerolog to resty's Logger interface. Resty reports every
// failed request as an error; callers log the ones that matter, so resty's
// own output stays at debug and below.
type RestyLogger struct {
	Log zerolog.Logger
}

func (l RestyLogger) Errorf(format string, v ...any) {
	l.Log.Debug().Msg(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l RestyLogger) Warnf(format string, v ...any) {
	l.Log.Debug().Msg(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l RestyLogger) Debugf(format string, v ...any) {
	l.Log.Trace().Msg(strings.TrimSpace(fmt.Sprintf(format, v...)))
}
