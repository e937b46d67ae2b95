// Package logger builds the zerolog loggers used by boardd and boardctl.
//
// The server calls Init once and hands out Component loggers; short-lived
// processes such as the CLI build their own with New.
package logger

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Options configures a logger.
type Options struct {
	// Level is one of trace, debug, info, warn, error. Anything else means info.
	Level string
	// Pretty switches from JSON lines to zerolog's console writer.
	Pretty bool
	// Output defaults to os.Stdout.
	Output io.Writer
	// Service, when set, is stamped on every entry.
	Service string
}

var (
	mu     sync.RWMutex
	global *zerolog.Logger
)

// New returns a logger for opts without touching the process-wide one.
func New(opts Options) zerolog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	if opts.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}
	}

	lvl := Level(opts.Level)
	ctx := zerolog.New(out).Level(lvl).With().Timestamp()
	if opts.Service != "" {
		ctx = ctx.Str("service", opts.Service)
	}
	if lvl <= zerolog.DebugLevel {
		ctx = ctx.Caller()
	}
	return ctx.Logger()
}

// Init installs the process-wide logger. Later calls return the logger
// from the first one.
func Init(opts Options) zerolog.Logger {
	mu.Lock()
	defer mu.Unlock()
	if global == nil {
		zerolog.TimeFieldFormat = time.RFC3339Nano
		l := New(opts)
		zerolog.SetGlobalLevel(l.GetLevel())
		global = &l
	}
	return *global
}

// Get returns the process-wide logger. It panics before Init.
func Get() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	if global == nil {
		panic("logger: Get called before Init")
	}
	return *global
}

// Component tags the process-wide logger with a component name.
func Component(name string) zerolog.Logger {
	return Get().With().Str("component", name).Logger()
}

// Reset drops the process-wide logger. Tests only.
func Reset() {
	mu.Lock()
	global = nil
	mu.Unlock()
	zerolog.SetGlobalLevel(zerolog.TraceLevel)
}

// Level maps a configured level name onto zerolog, accepting "warning"
// as an alias and defaulting to info.
func Level(name string) zerolog.Level {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "warning" {
		name = "warn"
	}
	switch lvl, err := zerolog.ParseLevel(name); {
	case err != nil, lvl == zerolog.NoLevel, lvl > zerolog.ErrorLevel:
		return zerolog.InfoLevel
	default:
		return lvl
	}
}
