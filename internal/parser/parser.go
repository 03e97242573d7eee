// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package parser turns lox tokens into a syntax tree by repeatedly rewriting
// a flat sequence of nodes. There is no grammar function per construct:
// ordered passes fold matching runs of neighbours into composite nodes until
// one root remains. Passes run in precedence order, so the order of the
// pipeline below is the grammar.
package parser

import (
	"io"
	"log/slog"

	"nickandperla.net/lox/internal/ast"
	"nickandperla.net/lox/internal/diag"
	"nickandperla.net/lox/internal/token"
)

// State is the outcome of a parse or of a single pass.
type State int

const (
	// Finished means the pass made all the progress it could.
	Finished State = iota
	// Unfinished means an opening delimiter has no close yet; feed more input.
	Unfinished
	// Err means the input is malformed. The accompanying error says where.
	Err
)

func (s State) String() string {
	switch s {
	case Finished:
		return "Finished"
	case Unfinished:
		return "Unfinished"
	case Err:
		return "Err"
	}
	return "UNKNOWN"
}

type pass func(p *Parser, seq *Sequence) (State, error)

// Parser runs the rewrite passes over sequences whose nodes live in arena.
type Parser struct {
	arena    *ast.Arena
	logger   *slog.Logger
	pipeline []pass
}

// Option configures a Parser.
type Option func(*Parser)

// WithLogger sets the debug logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Parser) { p.logger = l }
}

// New creates a Parser allocating into arena.
func New(arena *ast.Arena, opts ...Option) *Parser {
	p := &Parser{
		arena:  arena,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.pipeline = []pass{
		(*Parser).parens,
		(*Parser).braces,
		(*Parser).calls,
		(*Parser).negation,
		binary(token.STAR, token.SLASH, token.PERCENT),
		binary(token.PLUS, token.MINUS),
		binary(token.GREATER, token.GREATER_EQUAL, token.LESS, token.LESS_EQUAL),
		binary(token.EQUAL_EQUAL, token.BANG_EQUAL),
		binary(token.AND),
		binary(token.OR),
		(*Parser).assignments,
		(*Parser).declarations,
		(*Parser).tuples,
		(*Parser).whiles,
		(*Parser).ifs,
		(*Parser).functionDefs,
		(*Parser).separators,
		(*Parser).compounds,
	}
	return p
}

// Arena returns the arena nodes are allocated in.
func (p *Parser) Arena() *ast.Arena {
	return p.arena
}

// Parse appends toks to seq and re-runs the passes over the whole sequence.
// seq may hold the remains of an earlier Unfinished parse; keep feeding it
// until the state is Finished, then take seq.Root().
//
// Unfinished comes with a diag.Unterminated error naming the open delimiter,
// so a caller that has no more input can report it.
func (p *Parser) Parse(toks []token.Token, seq *Sequence) (State, error) {
	for _, t := range toks {
		seq.Append(p.arena.FromToken(t))
	}
	state, err := p.resolve(seq)
	p.logger.Debug("parse",
		slog.String("state", state.String()),
		slog.Int("nodes", seq.Len()),
		slog.String("classes", seq.Describe(p.arena)))
	return state, err
}

// resolve applies every pass in order, stopping at the first that is not Finished.
func (p *Parser) resolve(seq *Sequence) (State, error) {
	for _, run := range p.pipeline {
		if state, err := run(p, seq); state != Finished {
			return state, err
		}
	}
	return p.finish(seq)
}

// finish checks that the passes reduced the sequence to at most one node.
func (p *Parser) finish(seq *Sequence) (State, error) {
	for i := 0; i < seq.Len(); i++ {
		if p.classAt(seq, i).Kind == ast.Unparsed {
			return p.unexpected(seq.At(i))
		}
	}
	if seq.Len() > 1 {
		tok := p.leading(seq.At(1))
		return Err, diag.At(diag.Parse, tok, "expected end of statement before '%s'", tok.Display())
	}
	return Finished, nil
}

// leading returns the first source token under id, skipping synthesized
// compound and separator tokens.
func (p *Parser) leading(id ast.NodeID) token.Token {
	for {
		tok := p.arena.Token(id)
		child := p.arena.Child(id, 0)
		if (tok.Kind != token.DUMMY && tok.Kind != token.STMT_SEP) || child == ast.None {
			return tok
		}
		id = child
	}
}

func (p *Parser) classAt(seq *Sequence, i int) ast.Class {
	id := seq.At(i)
	if id == ast.None {
		return ast.UnknownClass
	}
	return p.arena.Class(id)
}

func (p *Parser) isRaw(seq *Sequence, i int, k token.Kind) bool {
	return p.classAt(seq, i).Is(k)
}

func (p *Parser) unexpected(id ast.NodeID) (State, error) {
	tok := p.arena.Token(id)
	return Err, diag.At(diag.Parse, tok, "unexpected '%s'", tok.Display())
}

// failAt reports a pattern failure at index i of seq, falling back to the
// anchor node when the pattern ran past the end of the sequence.
func (p *Parser) failAt(seq *Sequence, i int, anchor ast.NodeID, format string, args ...any) (State, error) {
	tok := p.arena.Token(anchor)
	if id := seq.At(i); id != ast.None {
		tok = p.arena.Token(id)
	}
	return Err, diag.At(diag.Parse, tok, format, args...)
}
