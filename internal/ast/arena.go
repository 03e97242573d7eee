// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package ast holds lox syntax trees. Nodes live in an Arena and refer to each
// other by NodeID, so the parser can keep a node in its working sequence while
// attaching it as the child of a neighbour.
package ast

import (
	"fmt"
	"strings"

	"nickandperla.net/lox/internal/token"
)

// NodeID indexes a node in its Arena.
type NodeID int

// None is the absent node.
const None NodeID = -1

// Node is a single tree node.
type Node struct {
	Class    Class
	Tok      token.Token
	Children []NodeID
}

// Arena owns every node of a parse session. Nodes are never freed; user
// functions keep referring to their body after the parse that produced it.
type Arena struct {
	nodes []Node
}

// NewArena creates an empty arena.
func NewArena() *Arena {
	return &Arena{}
}

// New allocates a childless node.
func (a *Arena) New(tok token.Token, c Class) NodeID {
	a.nodes = append(a.nodes, Node{Class: c, Tok: tok})
	return NodeID(len(a.nodes) - 1)
}

// FromToken allocates a leaf carrying its seed classification.
func (a *Arena) FromToken(tok token.Token) NodeID {
	return a.New(tok, Seed(tok.Kind))
}

// Len returns the number of allocated nodes.
func (a *Arena) Len() int {
	return len(a.nodes)
}

// Valid reports whether id refers to an allocated node.
func (a *Arena) Valid(id NodeID) bool {
	return id >= 0 && int(id) < len(a.nodes)
}

// Class returns the classification of id.
func (a *Arena) Class(id NodeID) Class {
	return a.nodes[id].Class
}

// SetClass reclassifies id in place.
func (a *Arena) SetClass(id NodeID, c Class) {
	a.nodes[id].Class = c
}

// Token returns the token id was created from.
func (a *Arena) Token(id NodeID) token.Token {
	return a.nodes[id].Tok
}

// Children returns the ordered children of id. The slice must not be modified.
func (a *Arena) Children(id NodeID) []NodeID {
	return a.nodes[id].Children
}

// Child returns the i-th child of id, or None.
func (a *Arena) Child(id NodeID, i int) NodeID {
	ch := a.nodes[id].Children
	if i < 0 || i >= len(ch) {
		return None
	}
	return ch[i]
}

// Adopt appends children to id.
func (a *Arena) Adopt(id NodeID, children ...NodeID) {
	a.nodes[id].Children = append(a.nodes[id].Children, children...)
}

// Fold reclassifies id and appends children in one step.
func (a *Arena) Fold(id NodeID, c Class, children ...NodeID) {
	a.nodes[id].Class = c
	a.Adopt(id, children...)
}

// Dump renders the subtree rooted at id, one node per line.
func (a *Arena) Dump(id NodeID) string {
	var b strings.Builder
	a.dump(&b, id, 0)
	return b.String()
}

func (a *Arena) dump(b *strings.Builder, id NodeID, depth int) {
	if !a.Valid(id) {
		return
	}
	n := a.nodes[id]
	b.WriteString(strings.Repeat("  ", depth))
	b.WriteString(n.Class.String())
	if lex := label(n); lex != "" {
		fmt.Fprintf(b, " %s", lex)
	}
	b.WriteByte('\n')
	for _, c := range n.Children {
		a.dump(b, c, depth+1)
	}
}

func label(n Node) string {
	switch n.Tok.Kind {
	case token.DUMMY, token.STMT_SEP:
		return ""
	case token.STRING:
		return fmt.Sprintf("%q", n.Tok.Lexeme)
	}
	return n.Tok.Lexeme
}

// Sexp renders the subtree rooted at id as a compact s-expression of lexemes,
// e.g. "(+ (+ a b) c)". Grouping nodes use their classification name.
func (a *Arena) Sexp(id NodeID) string {
	if !a.Valid(id) {
		return "<none>"
	}
	n := a.nodes[id]
	head := label(n)
	switch n.Class {
	case TupleClass, ExprOf(ExprParen), StmtOf(StmtBraced), StmtOf(StmtCompound), StmtOf(StmtNormal):
		head = n.Class.String()
	}
	if head == "" {
		head = n.Class.String()
	}
	if len(n.Children) == 0 {
		return head
	}
	parts := make([]string, 0, len(n.Children)+1)
	parts = append(parts, head)
	for _, c := range n.Children {
		parts = append(parts, a.Sexp(c))
	}
	return "(" + strings.Join(parts, " ") + ")"
}
