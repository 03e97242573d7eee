// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package eval implements the lox evaluator.
package eval

import (
	"log/slog"

	"github.com/edwingeng/deque"
)

type scope map[string]*Value

// Stack is the variable stack: a deque of scopes, innermost at the back.
// The base scope is never popped.
type Stack struct {
	scopes deque.Deque
	logger *slog.Logger
}

// NewStack creates a stack holding one empty base scope.
func NewStack(logger *slog.Logger) *Stack {
	s := &Stack{scopes: deque.NewDeque(), logger: logger}
	s.scopes.PushBack(scope{})
	return s
}

// Push opens a new innermost scope.
func (s *Stack) Push() {
	s.scopes.PushBack(scope{})
	s.logger.Debug("push scope", slog.Int("depth", s.scopes.Len()))
}

// Pop discards the innermost scope.
func (s *Stack) Pop() {
	if s.scopes.Len() <= 1 {
		return
	}
	s.scopes.PopBack()
	s.logger.Debug("pop scope", slog.Int("depth", s.scopes.Len()))
}

// Depth returns the number of scopes, including the base scope.
func (s *Stack) Depth() int {
	return s.scopes.Len()
}

// Declare binds name in the innermost scope, shadowing outer bindings.
func (s *Stack) Declare(name string, v Value) {
	v.Ident = name
	s.scopes.Back().(scope)[name] = &v
}

// Lookup finds the innermost binding of name.
func (s *Stack) Lookup(name string) (*Value, bool) {
	for i := s.scopes.Len() - 1; i >= 0; i-- {
		if cell, ok := s.scopes.Peek(i).(scope)[name]; ok {
			return cell, true
		}
	}
	return nil, false
}
