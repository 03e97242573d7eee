// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package parser

import (
	"strings"

	"nickandperla.net/lox/internal/ast"
)

// Sequence is the parser's working buffer: an ordered list of node handles
// that rewrite passes shrink by folding neighbours into composite nodes.
type Sequence struct {
	ids []ast.NodeID
}

// NewSequence creates a sequence holding ids.
func NewSequence(ids ...ast.NodeID) *Sequence {
	return &Sequence{ids: append([]ast.NodeID(nil), ids...)}
}

// Len returns the number of nodes in the sequence.
func (s *Sequence) Len() int {
	return len(s.ids)
}

// At returns the node at index i, or ast.None when i is out of range.
func (s *Sequence) At(i int) ast.NodeID {
	if i < 0 || i >= len(s.ids) {
		return ast.None
	}
	return s.ids[i]
}

// Append adds nodes at the end.
func (s *Sequence) Append(ids ...ast.NodeID) {
	s.ids = append(s.ids, ids...)
}

// Remove deletes n nodes starting at i.
func (s *Sequence) Remove(i, n int) {
	s.ids = append(s.ids[:i], s.ids[i+n:]...)
}

// Replace substitutes the half-open range [i, j) with id.
func (s *Sequence) Replace(i, j int, id ast.NodeID) {
	s.ids[i] = id
	s.Remove(i+1, j-i-1)
}

// Slice returns a copy of the half-open range [i, j).
func (s *Sequence) Slice(i, j int) *Sequence {
	return NewSequence(s.ids[i:j]...)
}

// IDs returns the handles in order. The slice must not be modified.
func (s *Sequence) IDs() []ast.NodeID {
	return s.ids
}

// Reset empties the sequence.
func (s *Sequence) Reset() {
	s.ids = s.ids[:0]
}

// Root returns the single remaining node of a finished parse, or ast.None when
// the input was empty.
func (s *Sequence) Root() ast.NodeID {
	if len(s.ids) != 1 {
		return ast.None
	}
	return s.ids[0]
}

// Describe renders the classifications of the sequence, for debugging.
func (s *Sequence) Describe(a *ast.Arena) string {
	parts := make([]string, len(s.ids))
	for i, id := range s.ids {
		parts[i] = a.Class(id).String()
	}
	return "[" + strings.Join(parts, " ") + "]"
}
