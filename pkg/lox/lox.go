// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package lox provides the lox runtime.
package lox

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"nickandperla.net/lox/internal/ast"
	"nickandperla.net/lox/internal/eval"
	"nickandperla.net/lox/internal/parser"
	"nickandperla.net/lox/internal/scanner"
	"nickandperla.net/lox/internal/stdlib"
	"nickandperla.net/lox/internal/store"
)

// State reports whether fed input formed a complete program.
type State = parser.State

// Parse states.
const (
	Finished   = parser.Finished
	Unfinished = parser.Unfinished
	Err        = parser.Err
)

// Result is the outcome of Feed.
type Result struct {
	State State
	Value string // rendered value of the program, when Finished
	Tree  string // indented dump of the parsed tree, when Finished
}

// Runtime is the lox interpreter runtime. A Runtime is not safe for
// concurrent use, except for Interrupt.
type Runtime struct {
	arena     *ast.Arena
	parser    *parser.Parser
	evaluator *eval.Evaluator
	store     store.Store
	out       io.Writer
	tree      io.Writer
	logger    *slog.Logger
	source    string
	prelude   string // Custom prelude source (if empty, uses stdlib.Prelude)
	noStdlib  bool   // If true, skip loading prelude

	pending    *parser.Sequence
	pendingSrc strings.Builder
	line       int
}

// New creates a new lox runtime with the given options.
func New(opts ...Option) *Runtime {
	r := &Runtime{
		arena:   ast.NewArena(),
		out:     os.Stdout,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		pending: parser.NewSequence(),
		line:    1,
	}

	for _, opt := range opts {
		opt(r)
	}

	r.parser = parser.New(r.arena, parser.WithLogger(r.logger))

	evalOpts := []eval.Option{
		eval.WithOutput(r.out),
		eval.WithLogger(r.logger),
	}
	if r.store != nil {
		evalOpts = append(evalOpts, eval.WithStore(r.store))
	}
	r.evaluator = eval.New(r.arena, evalOpts...)

	// Load prelude unless disabled
	if !r.noStdlib {
		prelude := r.prelude
		if prelude == "" {
			prelude = stdlib.Prelude
		}

		// Check for database override
		if ms, ok := r.store.(store.MetadataStore); ok {
			if src, err := ms.GetMetadata("prelude"); err == nil && strings.TrimSpace(src) != "" {
				prelude = src
			}
		}

		if _, err := r.evalSource(prelude, "prelude", false); err != nil {
			r.logger.Warn("prelude failed", slog.Any("err", err))
		}
	}

	return r
}

// Eval evaluates a complete lox program and returns the rendered value of
// its last statement.
func (r *Runtime) Eval(input string) (string, error) {
	return r.evalSource(input, r.source, true)
}

// EvalReader evaluates lox from a reader.
func (r *Runtime) EvalReader(reader io.Reader) (string, error) {
	b, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	return r.Eval(string(b))
}

// EvalFile evaluates a lox file. Diagnostics name the file.
func (r *Runtime) EvalFile(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return r.evalSource(string(b), path, true)
}

func (r *Runtime) evalSource(src, source string, record bool) (string, error) {
	line := 1
	toks, err := scanner.Scan(src, &line, source)
	if err != nil {
		return "", err
	}
	seq := parser.NewSequence()
	state, err := r.parser.Parse(toks, seq)
	if state != parser.Finished {
		return "", err
	}
	return r.execute(src, seq.Root(), record)
}

// execute runs a parsed program and records it in the history store.
func (r *Runtime) execute(src string, root ast.NodeID, record bool) (string, error) {
	if r.tree != nil && root != ast.None {
		fmt.Fprint(r.tree, r.arena.Dump(root))
	}
	v, err := r.evaluator.Run(root)

	if record && r.store != nil && strings.TrimSpace(src) != "" {
		result, ok := v.String(), err == nil
		if err != nil {
			result = err.Error()
		}
		if _, serr := r.store.Record(src, result, ok); serr != nil {
			r.logger.Warn("record history", slog.Any("err", serr))
		}
	}
	if err != nil {
		return "", err
	}
	return v.String(), nil
}

// Feed appends a chunk of input, typically one line, to the pending program
// and parses it. While an opening delimiter is unclosed the State is
// Unfinished, the error describes the open delimiter, and the input is kept
// for the next call. Once the program is complete it is evaluated and the
// pending input is cleared. Errors also clear it.
func (r *Runtime) Feed(src string) (Result, error) {
	toks, err := scanner.Scan(src, &r.line, r.source)
	if err != nil {
		r.Reset()
		return Result{State: Err}, err
	}
	r.pendingSrc.WriteString(src)
	if !strings.HasSuffix(src, "\n") {
		r.pendingSrc.WriteByte('\n')
	}

	state, err := r.parser.Parse(toks, r.pending)
	switch state {
	case Unfinished:
		return Result{State: Unfinished}, err
	case Err:
		r.Reset()
		return Result{State: Err}, err
	}

	root := r.pending.Root()
	full := r.pendingSrc.String()
	r.Reset()

	res := Result{State: Finished}
	if root != ast.None {
		res.Tree = r.arena.Dump(root)
	}
	res.Value, err = r.execute(full, root, true)
	return res, err
}

// Pending reports whether Feed is holding an unfinished program.
func (r *Runtime) Pending() bool {
	return r.pending.Len() > 0
}

// Reset drops any pending input.
func (r *Runtime) Reset() {
	r.pending.Reset()
	r.pendingSrc.Reset()
}

// Line returns the line number the next fed chunk starts on.
func (r *Runtime) Line() int {
	return r.line
}

// Interrupt stops a running evaluation at its next loop iteration or
// function call. It may be called from another goroutine.
func (r *Runtime) Interrupt() {
	r.evaluator.Interrupt()
}

// HasHistory reports whether runs are being recorded.
func (r *Runtime) HasHistory() bool {
	return r.store != nil
}

// History returns up to n recorded runs, most recent first. It returns nil
// when the runtime has no store.
func (r *Runtime) History(n int) ([]store.Entry, error) {
	if r.store == nil {
		return nil, nil
	}
	return r.store.Recent(n)
}

// Close releases resources.
func (r *Runtime) Close() error {
	if r.store != nil {
		return r.store.Close()
	}
	return nil
}
