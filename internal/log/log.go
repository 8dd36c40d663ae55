package log

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelError Level = "ERROR"
)

var (
	mu       sync.RWMutex
	out      io.Writer = os.Stderr
	minLevel           = LevelInfo
	logger             = newLogger(out, minLevel)
)

func newLogger(w io.Writer, l Level) zerolog.Logger {
	return zerolog.New(w).
		Level(zerologLevel(l)).
		With().
		Timestamp().
		Str("component", "partyplanner").
		Logger()
}

// ParseLevel maps a config value (debug|info|error, any case) to a Level.
// Unknown values fall back to INFO.
func ParseLevel(s string) Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return LevelDebug
	case "ERROR":
		return LevelError
	default:
		return LevelInfo
	}
}

func SetLevel(l Level) {
	mu.Lock()
	defer mu.Unlock()
	minLevel = l
	logger = newLogger(out, minLevel)
}

// SetOutput redirects all log lines to w. Tests use it to capture output.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	out = w
	logger = newLogger(out, minLevel)
}

func Debug(msg string, kv ...any) {
	l := current()
	l.Debug().Fields(pairs(kv)).Msg(msg)
}

func Info(msg string, kv ...any) {
	l := current()
	l.Info().Fields(pairs(kv)).Msg(msg)
}

func Error(msg string, err error, kv ...any) {
	l := current()
	l.Error().Err(err).Fields(pairs(kv)).Msg(msg)
}

func current() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

func zerologLevel(l Level) zerolog.Level {
	switch l {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// pairs drops a trailing key without a value and any non-string key, so a
// malformed call never panics inside zerolog.
func pairs(kv []any) []any {
	out := make([]any, 0, len(kv))
	for i := 0; i+1 < len(kv); i += 2 {
		if _, ok := kv[i].(string); !ok {
			continue
		}
		out = append(out, kv[i], kv[i+1])
	}
	return out
}
