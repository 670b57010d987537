// Package logger holds the process-wide zerolog logger shared by the API
// server and the civic client. Init configures it once; Component hands out
// tagged children.
package logger

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type Options struct {
	// Level is a zerolog level name. "warning" is accepted for warn; anything
	// unknown falls back to info.
	Level string
	// Pretty switches to the coloured console writer. The server uses it in
	// development, the client always.
	Pretty bool
	// Output defaults to os.Stdout.
	Output io.Writer
	// Service becomes the "service" field of every entry.
	Service string
}

var (
	mu       sync.RWMutex
	root     zerolog.Logger
	hasRoot  bool
	initOnce sync.Once
)

// New builds a logger from opts without touching the shared one.
func New(opts Options) zerolog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	if opts.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.TimeOnly}
	}

	lvl := ParseLevel(opts.Level)
	zctx := zerolog.New(out).Level(lvl).With().Timestamp()
	if lvl <= zerolog.DebugLevel {
		zctx = zctx.Caller()
	}
	if opts.Service != "" {
		zctx = zctx.Str("service", opts.Service)
	}
	return zctx.Logger()
}

// Init installs the shared logger. Later calls return the first logger
// unchanged.
func Init(opts Options) zerolog.Logger {
	initOnce.Do(func() {
		zerolog.TimeFieldFormat = time.RFC3339Nano
		l := New(opts)

		mu.Lock()
		root, hasRoot = l, true
		mu.Unlock()
	})
	return Get()
}

// Get panics when Init has not run.
func Get() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	if !hasRoot {
		panic("logger: Get called before Init")
	}
	return root
}

// Component returns the shared logger tagged component=name, or a no-op
// logger before Init.
func Component(name string) zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	if !hasRoot {
		return zerolog.Nop()
	}
	return root.With().Str("component", name).Logger()
}

// Reset forgets the shared logger. Tests only.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	initOnce = sync.Once{}
	root, hasRoot = zerolog.Logger{}, false
}

func ParseLevel(s string) zerolog.Level {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "warning" {
		return zerolog.WarnLevel
	}
	lvl, err := zerolog.ParseLevel(s)
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}
