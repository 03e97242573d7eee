// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package scanner provides a streaming lexer for lox source.
package scanner

import (
	"bufio"
	"io"
	"strings"
	"unicode"

	"nickandperla.net/lox/internal/diag"
	"nickandperla.net/lox/internal/token"
)

// Scanner tokenizes lox input rune-by-rune.
type Scanner struct {
	reader *bufio.Reader
	buf    strings.Builder
	source string
	line   int // Current line number (1-based)
	column int // Column of the last rune read (1-based, 0 before the first rune of a line)
	prev   int // Column before the last newline, for UnreadRune
}

// New creates a new Scanner from an io.Reader. source names the input in diagnostics.
func New(r io.Reader, source string) *Scanner {
	if source == "" {
		source = diag.Stdin
	}
	return &Scanner{
		reader: bufio.NewReader(r),
		source: source,
		line:   1,
	}
}

// NewFromString creates a new Scanner from a string.
func NewFromString(s, source string) *Scanner {
	return New(strings.NewReader(s), source)
}

// SetLine sets the line number of the next rune.
func (s *Scanner) SetLine(line int) {
	s.line = line
	s.column = 0
}

func (s *Scanner) read() (rune, error) {
	r, _, err := s.reader.ReadRune()
	if err != nil {
		return 0, err
	}
	if r == '\n' {
		s.line++
		s.prev = s.column + 1
		s.column = 0
	} else {
		s.column++
	}
	return r, nil
}

func (s *Scanner) unread(r rune) {
	s.reader.UnreadRune()
	if r == '\n' {
		s.line--
		s.column = s.prev - 1
	} else {
		s.column--
	}
}

// match consumes the next rune if it equals want.
func (s *Scanner) match(want rune) bool {
	r, err := s.read()
	if err != nil {
		return false
	}
	if r != want {
		s.unread(r)
		return false
	}
	return true
}

func (s *Scanner) tok(kind token.Kind, lexeme string, line, column int) token.Token {
	return token.Token{Kind: kind, Lexeme: lexeme, Line: line, Column: column, Source: s.source}
}

// Next returns the next token. At the end of input it returns a token of kind EOF.
func (s *Scanner) Next() (token.Token, error) {
	for {
		r, err := s.read()
		if err == io.EOF {
			return s.tok(token.EOF, "", s.line, s.column+1), nil
		}
		if err != nil {
			return token.Token{}, err
		}

		line, col := s.line, s.column

		switch r {
		case ' ', '\t', '\r':
			continue
		case '\n':
			return s.tok(token.STMT_SEP, "\n", line-1, s.prev), nil
		case ';':
			return s.tok(token.STMT_SEP, ";", line, col), nil
		case '(':
			return s.tok(token.LEFT_PAREN, "(", line, col), nil
		case ')':
			return s.tok(token.RIGHT_PAREN, ")", line, col), nil
		case '{':
			return s.tok(token.LEFT_BRACE, "{", line, col), nil
		case '}':
			return s.tok(token.RIGHT_BRACE, "}", line, col), nil
		case ',':
			return s.tok(token.COMMA, ",", line, col), nil
		case '.':
			return s.tok(token.DOT, ".", line, col), nil
		case '-':
			return s.operator(token.MINUS, token.MINUS_EQUAL, "-", line, col), nil
		case '+':
			return s.operator(token.PLUS, token.PLUS_EQUAL, "+", line, col), nil
		case '*':
			return s.operator(token.STAR, token.STAR_EQUAL, "*", line, col), nil
		case '%':
			return s.operator(token.PERCENT, token.PERCENT_EQUAL, "%", line, col), nil
		case '!':
			return s.operator(token.BANG, token.BANG_EQUAL, "!", line, col), nil
		case '=':
			return s.operator(token.EQUAL, token.EQUAL_EQUAL, "=", line, col), nil
		case '>':
			return s.operator(token.GREATER, token.GREATER_EQUAL, ">", line, col), nil
		case '<':
			return s.operator(token.LESS, token.LESS_EQUAL, "<", line, col), nil
		case '/':
			if s.match('/') {
				if err := s.skipComment(); err != nil {
					return token.Token{}, err
				}
				continue
			}
			return s.operator(token.SLASH, token.SLASH_EQUAL, "/", line, col), nil
		case '"':
			return s.scanString(line, col)
		}

		switch {
		case isDigit(r):
			return s.scanNumber(r, line, col)
		case unicode.IsLetter(r) || r == '_':
			return s.scanIdentifier(r, line, col)
		}
		return token.Token{}, diag.New(diag.Scan, line, col, s.source, "'%c' is an invalid token", r)
	}
}

func (s *Scanner) operator(single, withEqual token.Kind, lexeme string, line, col int) token.Token {
	if s.match('=') {
		return s.tok(withEqual, lexeme+"=", line, col)
	}
	return s.tok(single, lexeme, line, col)
}

// skipComment consumes up to, but not including, the next newline.
func (s *Scanner) skipComment() error {
	for {
		r, err := s.read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if r == '\n' {
			s.unread(r)
			return nil
		}
	}
}

func (s *Scanner) scanString(line, col int) (token.Token, error) {
	s.buf.Reset()
	for {
		r, err := s.read()
		if err == io.EOF {
			return token.Token{}, diag.New(diag.Scan, line, col, s.source, "Unmatched \"")
		}
		if err != nil {
			return token.Token{}, err
		}
		if r == '"' {
			return s.tok(token.STRING, s.buf.String(), line, col), nil
		}
		s.buf.WriteRune(r)
	}
}

func (s *Scanner) scanNumber(first rune, line, col int) (token.Token, error) {
	s.buf.Reset()
	s.buf.WriteRune(first)
	if err := s.digits(); err != nil {
		return token.Token{}, err
	}
	// A fraction needs a digit after the dot; "1." scans as NUMBER DOT.
	if b, err := s.reader.Peek(2); err == nil && b[0] == '.' && isDigit(rune(b[1])) {
		s.read()
		s.buf.WriteRune('.')
		if err := s.digits(); err != nil {
			return token.Token{}, err
		}
	}
	return s.tok(token.NUMBER, s.buf.String(), line, col), nil
}

func (s *Scanner) digits() error {
	for {
		r, err := s.read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if !isDigit(r) {
			s.unread(r)
			return nil
		}
		s.buf.WriteRune(r)
	}
}

func (s *Scanner) scanIdentifier(first rune, line, col int) (token.Token, error) {
	s.buf.Reset()
	s.buf.WriteRune(first)
	for {
		r, err := s.read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return token.Token{}, err
		}
		if !isIdentChar(r) {
			s.unread(r)
			break
		}
		s.buf.WriteRune(r)
	}
	text := s.buf.String()
	return s.tok(token.Lookup(text), text, line, col), nil
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

// isIdentChar returns true if the rune is valid in an identifier (letter, digit, underscore).
func isIdentChar(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

// Scan tokenizes one chunk of source. line holds the row of the chunk's first
// line and is advanced past the chunk, so consecutive chunks of a REPL session
// keep increasing row numbers, even when the chunk fails to scan. The result
// always ends with a STMT_SEP sentinel marking the end of the chunk.
func Scan(text string, line *int, source string) ([]token.Token, error) {
	s := NewFromString(text, source)
	s.SetLine(*line)

	*line += strings.Count(text, "\n")
	if !strings.HasSuffix(text, "\n") {
		*line++
	}

	var toks []token.Token
	for {
		tok, err := s.Next()
		if err != nil {
			return nil, err
		}
		if tok.Kind == token.EOF {
			toks = append(toks, s.tok(token.STMT_SEP, "\n", tok.Line, tok.Column))
			break
		}
		toks = append(toks, tok)
	}
	return toks, nil
}
