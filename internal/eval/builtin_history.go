// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package eval

import (
	"math"

	"nickandperla.net/lox/internal/ast"
)

// builtinHistory returns the sources of the n most recent runs, newest first.
func builtinHistory(e *Evaluator, args []Value, call ast.NodeID) (Value, error) {
	n := args[0]
	if n.Type != Number || n.Num < 0 || n.Num != math.Trunc(n.Num) {
		return Value{}, e.errorFor(n, call, "Expected a non-negative whole NUMBER for history")
	}
	if n.Num == 0 {
		return TupleValue(nil, call), nil
	}

	entries, err := e.store.Recent(int(n.Num))
	if err != nil {
		return Value{}, e.errorAt(call, "history: %v", err)
	}
	items := make([]Value, len(entries))
	for i, entry := range entries {
		items[i] = StringValue(entry.Source, call)
	}
	return TupleValue(items, call), nil
}
