// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package token defines lox token kinds and the token value produced by the scanner.
package token

import "fmt"

// Kind represents a lox token type.
type Kind int

const (
	DUMMY Kind = iota
	EOF

	// Delimiters
	LEFT_PAREN
	RIGHT_PAREN
	LEFT_BRACE
	RIGHT_BRACE
	COMMA
	DOT
	STMT_SEP // newline or ';'

	// Operators
	MINUS
	MINUS_EQUAL
	PLUS
	PLUS_EQUAL
	SLASH
	SLASH_EQUAL
	STAR
	STAR_EQUAL
	PERCENT
	PERCENT_EQUAL
	BANG
	BANG_EQUAL
	EQUAL
	EQUAL_EQUAL
	GREATER
	GREATER_EQUAL
	LESS
	LESS_EQUAL

	// Literals
	IDENTIFIER
	STRING
	NUMBER

	// Keywords
	AND
	CLASS
	ELSE
	FALSE
	FN
	FOR
	IF
	NIL
	OR
	RETURN
	SUPER
	THIS
	TRUE
	VAR
	WHILE
)

var names = [...]string{
	DUMMY:         "DUMMY",
	EOF:           "EOF",
	LEFT_PAREN:    "LEFT_PAREN",
	RIGHT_PAREN:   "RIGHT_PAREN",
	LEFT_BRACE:    "LEFT_BRACE",
	RIGHT_BRACE:   "RIGHT_BRACE",
	COMMA:         "COMMA",
	DOT:           "DOT",
	STMT_SEP:      "STMT_SEP",
	MINUS:         "MINUS",
	MINUS_EQUAL:   "MINUS_EQUAL",
	PLUS:          "PLUS",
	PLUS_EQUAL:    "PLUS_EQUAL",
	SLASH:         "SLASH",
	SLASH_EQUAL:   "SLASH_EQUAL",
	STAR:          "STAR",
	STAR_EQUAL:    "STAR_EQUAL",
	PERCENT:       "PERCENT",
	PERCENT_EQUAL: "PERCENT_EQUAL",
	BANG:          "BANG",
	BANG_EQUAL:    "BANG_EQUAL",
	EQUAL:         "EQUAL",
	EQUAL_EQUAL:   "EQUAL_EQUAL",
	GREATER:       "GREATER",
	GREATER_EQUAL: "GREATER_EQUAL",
	LESS:          "LESS",
	LESS_EQUAL:    "LESS_EQUAL",
	IDENTIFIER:    "IDENTIFIER",
	STRING:        "STRING",
	NUMBER:        "NUMBER",
	AND:           "AND",
	CLASS:         "CLASS",
	ELSE:          "ELSE",
	FALSE:         "FALSE",
	FN:            "FN",
	FOR:           "FOR",
	IF:            "IF",
	NIL:           "NIL",
	OR:            "OR",
	RETURN:        "RETURN",
	SUPER:         "SUPER",
	THIS:          "THIS",
	TRUE:          "TRUE",
	VAR:           "VAR",
	WHILE:         "WHILE",
}

// String returns the string representation of a token kind.
func (k Kind) String() string {
	if k >= 0 && int(k) < len(names) && names[k] != "" {
		return names[k]
	}
	return "UNKNOWN"
}

var keywords = map[string]Kind{
	"and":    AND,
	"class":  CLASS,
	"else":   ELSE,
	"false":  FALSE,
	"fn":     FN,
	"for":    FOR,
	"if":     IF,
	"nil":    NIL,
	"or":     OR,
	"return": RETURN,
	"super":  SUPER,
	"this":   THIS,
	"true":   TRUE,
	"var":    VAR,
	"while":  WHILE,
}

// Lookup returns the keyword kind for an identifier, or IDENTIFIER.
func Lookup(ident string) Kind {
	if k, ok := keywords[ident]; ok {
		return k
	}
	return IDENTIFIER
}

// Token is a single lexeme. Tokens are never mutated after the scanner emits them.
type Token struct {
	Kind   Kind
	Lexeme string
	Line   int
	Column int
	Source string
}

// Synthetic returns a token of the given kind positioned at t.
func (t Token) Synthetic(kind Kind, lexeme string) Token {
	return Token{Kind: kind, Lexeme: lexeme, Line: t.Line, Column: t.Column, Source: t.Source}
}

// Display returns the lexeme in the form used by diagnostics.
func (t Token) Display() string {
	switch t.Kind {
	case STMT_SEP:
		if t.Lexeme == ";" {
			return ";"
		}
		return "end of line"
	case STRING:
		return fmt.Sprintf("%q", t.Lexeme)
	case DUMMY, EOF:
		return t.Kind.String()
	}
	return t.Lexeme
}

func (t Token) String() string {
	return fmt.Sprintf("%s %q %d:%d", t.Kind, t.Lexeme, t.Line, t.Column)
}
