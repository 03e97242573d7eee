// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package ast

import (
	"fmt"

	"nickandperla.net/lox/internal/token"
)

// Kind is the top-level syntactic role of a node.
type Kind uint8

const (
	Unfinished Kind = iota
	Stmt
	PotentialStmt
	Expr
	Identifier
	Unknown
	Unparsed // raw token, role not resolved yet
	Tuple
)

// ExprKind refines Expr.
type ExprKind uint8

const (
	ExprNormal ExprKind = iota
	ExprParen
	ExprNegated
	ExprFunction
)

// StmtKind refines Stmt.
type StmtKind uint8

const (
	StmtNormal StmtKind = iota
	StmtBraced
	StmtAssignment
	StmtDeclaration
	StmtCompound
	StmtIf
	StmtElseif
	StmtElse
	StmtWhile
	StmtPlusEqual
	StmtMinusEqual
	StmtStarEqual
	StmtSlashEqual
	StmtPercentEqual
	StmtFunctionDef
)

// Class is the classification of a node. Only the field matching Kind is
// meaningful; the others stay zero so that Class values compare with ==.
type Class struct {
	Kind  Kind
	Expr  ExprKind
	Stmt  StmtKind
	Token token.Kind
}

// ExprOf returns the Expr classification of the given kind.
func ExprOf(k ExprKind) Class { return Class{Kind: Expr, Expr: k} }

// StmtOf returns the Stmt classification of the given kind.
func StmtOf(k StmtKind) Class { return Class{Kind: Stmt, Stmt: k} }

// UnparsedOf returns the classification of a raw token of kind k.
func UnparsedOf(k token.Kind) Class { return Class{Kind: Unparsed, Token: k} }

var (
	IdentifierClass = Class{Kind: Identifier}
	TupleClass      = Class{Kind: Tuple}
	UnknownClass    = Class{Kind: Unknown}
)

// Seed is the classification a token starts with before any rewrite pass.
func Seed(k token.Kind) Class {
	switch k {
	case token.NUMBER, token.STRING, token.TRUE, token.FALSE, token.NIL:
		return ExprOf(ExprNormal)
	case token.IDENTIFIER:
		return IdentifierClass
	}
	return UnparsedOf(k)
}

// IsStmt reports whether c is a statement of any kind.
func (c Class) IsStmt() bool { return c.Kind == Stmt }

// IsValue reports whether c can stand where a value is expected.
func (c Class) IsValue() bool {
	return c.Kind == Expr || c.Kind == Identifier || c.Kind == Tuple
}

// Is reports whether c is the raw token kind k.
func (c Class) Is(k token.Kind) bool {
	return c.Kind == Unparsed && c.Token == k
}

func (k ExprKind) String() string {
	switch k {
	case ExprNormal:
		return "Normal"
	case ExprParen:
		return "Paren"
	case ExprNegated:
		return "Negated"
	case ExprFunction:
		return "Function"
	}
	return "?"
}

var stmtNames = [...]string{
	StmtNormal:       "Normal",
	StmtBraced:       "Braced",
	StmtAssignment:   "Assignment",
	StmtDeclaration:  "Declaration",
	StmtCompound:     "Compound",
	StmtIf:           "If",
	StmtElseif:       "Elseif",
	StmtElse:         "Else",
	StmtWhile:        "While",
	StmtPlusEqual:    "PlusEqual",
	StmtMinusEqual:   "MinusEqual",
	StmtStarEqual:    "StarEqual",
	StmtSlashEqual:   "SlashEqual",
	StmtPercentEqual: "PercentEqual",
	StmtFunctionDef:  "FunctionDef",
}

func (k StmtKind) String() string {
	if int(k) < len(stmtNames) {
		return stmtNames[k]
	}
	return "?"
}

func (c Class) String() string {
	switch c.Kind {
	case Unfinished:
		return "Unfinished"
	case Stmt:
		return fmt.Sprintf("Stmt(%s)", c.Stmt)
	case PotentialStmt:
		return "PotentialStmt"
	case Expr:
		return fmt.Sprintf("Expr(%s)", c.Expr)
	case Identifier:
		return "Identifier"
	case Unknown:
		return "Unknown"
	case Unparsed:
		return fmt.Sprintf("Unparsed(%s)", c.Token)
	case Tuple:
		return "Tuple"
	}
	return "?"
}
