package lox

import (
	"io"
	"log/slog"

	"nickandperla.net/lox/internal/store"
)

// Option configures a Runtime.
type Option func(*Runtime)

// Store interface for custom stores.
type Store = store.Store

// Entry is one recorded run.
type Entry = store.Entry

// WithSQLiteStore configures SQLite run history at the given path. A store
// that fails to open leaves the runtime without history; open it with
// store.NewSQLite and pass WithStore to handle the error.
func WithSQLiteStore(path string) Option {
	return func(r *Runtime) {
		s, err := store.NewSQLite(path)
		if err != nil {
			r.logger.Warn("open history", slog.String("path", path), slog.Any("err", err))
			return
		}
		r.store = s
	}
}

// WithMemoryStore configures an in-memory store (for testing).
func WithMemoryStore() Option {
	return func(r *Runtime) {
		r.store = store.NewMemory()
	}
}

// WithStore sets a custom run history store.
func WithStore(s Store) Option {
	return func(r *Runtime) {
		r.store = s
	}
}

// WithOutput sets the io.Writer print writes to.
func WithOutput(w io.Writer) Option {
	return func(r *Runtime) {
		r.out = w
	}
}

// WithTreeOutput writes the parsed tree of every program to w before it runs.
func WithTreeOutput(w io.Writer) Option {
	return func(r *Runtime) {
		r.tree = w
	}
}

// WithLogger sets the debug logger shared by the parser and evaluator.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runtime) {
		r.logger = l
	}
}

// WithSourceName sets the name diagnostics use for Eval and Feed input.
// Defaults to "stdin".
func WithSourceName(name string) Option {
	return func(r *Runtime) {
		r.source = name
	}
}

// WithPrelude sets a custom prelude source to be loaded on startup.
// If not set, the embedded standard prelude is used.
func WithPrelude(source string) Option {
	return func(r *Runtime) {
		r.prelude = source
	}
}

// WithNoStdlib disables loading the prelude. Native builtins stay available.
func WithNoStdlib() Option {
	return func(r *Runtime) {
		r.noStdlib = true
	}
}
