// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package parser

import (
	"github.com/ahrtr/gocontainer/set"

	"nickandperla.net/lox/internal/ast"
	"nickandperla.net/lox/internal/token"
)

// Set holds the classifications admissible at one pattern position.
type Set struct {
	members set.Interface
	classes []ast.Class
}

// Of builds a Set from classifications.
func Of(classes ...ast.Class) Set {
	s := Set{members: set.New()}
	for _, c := range classes {
		s.members.Add(c)
		s.classes = append(s.classes, c)
	}
	return s
}

// Raw builds a Set of unparsed token kinds.
func Raw(kinds ...token.Kind) Set {
	classes := make([]ast.Class, len(kinds))
	for i, k := range kinds {
		classes[i] = ast.UnparsedOf(k)
	}
	return Of(classes...)
}

// Union returns a new Set with the members of s and others.
func (s Set) Union(others ...Set) Set {
	all := append([]ast.Class(nil), s.classes...)
	for _, o := range others {
		all = append(all, o.classes...)
	}
	return Of(all...)
}

// Has reports whether c is admissible.
func (s Set) Has(c ast.Class) bool {
	return s.members.Contains(c)
}

// Pattern is one Set per consecutive position.
type Pattern []Set

// Outcome is the result kind of a pattern match.
type Outcome int

const (
	// NoMatch means the key position does not match: the construct does not start here.
	NoMatch Outcome = iota
	// Matched means every position matched.
	Matched
	// FailedAt means the key matched but a later position did not. It is an error.
	FailedAt
)

// Match is the result of matching a pattern against a sequence.
type Match struct {
	Outcome Outcome
	Pos     int // pattern-relative index of the first mismatch, for FailedAt
	Count   int // repetitions matched, for MatchRepeat
}

// Match checks pattern against the nodes starting at index start. The key
// position is checked first; positions outside the sequence never match.
func (s *Sequence) Match(a *ast.Arena, start int, pattern Pattern, key int) Match {
	if !s.matchesAt(a, start+key, pattern[key]) {
		return Match{Outcome: NoMatch}
	}
	for i, want := range pattern {
		if i == key {
			continue
		}
		if !s.matchesAt(a, start+i, want) {
			return Match{Outcome: FailedAt, Pos: i}
		}
	}
	return Match{Outcome: Matched}
}

// MatchRepeat matches a cyclic pattern as many times as possible starting at
// index start, returning the number of complete repetitions. Zero repetitions
// is NoMatch.
func (s *Sequence) MatchRepeat(a *ast.Arena, start int, pattern Pattern) Match {
	n := 0
	for {
		base := start + n*len(pattern)
		for i, want := range pattern {
			if !s.matchesAt(a, base+i, want) {
				if n == 0 {
					return Match{Outcome: NoMatch}
				}
				return Match{Outcome: Matched, Count: n}
			}
		}
		n++
	}
}

func (s *Sequence) matchesAt(a *ast.Arena, i int, want Set) bool {
	id := s.At(i)
	if id == ast.None {
		return false
	}
	return want.Has(a.Class(id))
}
