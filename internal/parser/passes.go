// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package parser

import (
	"nickandperla.net/lox/internal/ast"
	"nickandperla.net/lox/internal/diag"
	"nickandperla.net/lox/internal/token"
)

var (
	exprs = Of(
		ast.ExprOf(ast.ExprNormal),
		ast.ExprOf(ast.ExprParen),
		ast.ExprOf(ast.ExprNegated),
		ast.ExprOf(ast.ExprFunction),
	)
	identifier = Of(ast.IdentifierClass)
	operands   = exprs.Union(identifier)
	values     = operands.Union(Of(ast.TupleClass))
	paren      = Of(ast.ExprOf(ast.ExprParen))
	braced     = Of(ast.StmtOf(ast.StmtBraced))
	assignment = Of(ast.StmtOf(ast.StmtAssignment))
	separator  = Raw(token.STMT_SEP)

	statements = Of(
		ast.StmtOf(ast.StmtNormal),
		ast.StmtOf(ast.StmtBraced),
		ast.StmtOf(ast.StmtAssignment),
		ast.StmtOf(ast.StmtDeclaration),
		ast.StmtOf(ast.StmtCompound),
		ast.StmtOf(ast.StmtIf),
		ast.StmtOf(ast.StmtElseif),
		ast.StmtOf(ast.StmtElse),
		ast.StmtOf(ast.StmtWhile),
		ast.StmtOf(ast.StmtPlusEqual),
		ast.StmtOf(ast.StmtMinusEqual),
		ast.StmtOf(ast.StmtStarEqual),
		ast.StmtOf(ast.StmtSlashEqual),
		ast.StmtOf(ast.StmtPercentEqual),
		ast.StmtOf(ast.StmtFunctionDef),
	)

	// prefixContext is what may precede a prefix '-' or '!'. A value before
	// the minus makes it binary.
	prefixContext = Raw(
		token.STMT_SEP, token.COMMA,
		token.MINUS, token.PLUS, token.STAR, token.SLASH, token.PERCENT, token.BANG,
		token.EQUAL, token.PLUS_EQUAL, token.MINUS_EQUAL, token.STAR_EQUAL,
		token.SLASH_EQUAL, token.PERCENT_EQUAL,
		token.EQUAL_EQUAL, token.BANG_EQUAL,
		token.GREATER, token.GREATER_EQUAL, token.LESS, token.LESS_EQUAL,
		token.AND, token.OR, token.IF, token.WHILE, token.RETURN,
	).Union(statements)

	assignOps = map[token.Kind]ast.StmtKind{
		token.EQUAL:         ast.StmtAssignment,
		token.PLUS_EQUAL:    ast.StmtPlusEqual,
		token.MINUS_EQUAL:   ast.StmtMinusEqual,
		token.STAR_EQUAL:    ast.StmtStarEqual,
		token.SLASH_EQUAL:   ast.StmtSlashEqual,
		token.PERCENT_EQUAL: ast.StmtPercentEqual,
	}
)

// delimiterPairs returns the outermost open/close index pairs in seq.
func (p *Parser) delimiterPairs(seq *Sequence, open, close token.Kind) ([][2]int, State, error) {
	var pairs [][2]int
	depth, start := 0, 0
	for i := 0; i < seq.Len(); i++ {
		c := p.classAt(seq, i)
		switch {
		case c.Is(open):
			if depth == 0 {
				start = i
			}
			depth++
		case c.Is(close):
			if depth == 0 {
				tok := p.arena.Token(seq.At(i))
				return nil, Err, diag.At(diag.Parse, tok, "Extra right delimiter '%s'", tok.Lexeme)
			}
			depth--
			if depth == 0 {
				pairs = append(pairs, [2]int{start, i})
			}
		}
	}
	if depth > 0 {
		tok := p.arena.Token(seq.At(start))
		return nil, Unfinished, diag.At(diag.Unterminated, tok, "Unpaired '%s'", tok.Lexeme)
	}
	return pairs, Finished, nil
}

// delimited folds every outermost open/close pair into the open node, which
// is reclassified as c and adopts the sub-parse result of the enclosed run.
// Pairs are handled last to first so earlier indices stay valid.
func (p *Parser) delimited(seq *Sequence, open, close token.Kind, c ast.Class, prepare func(inner *Sequence) *Sequence) (State, error) {
	pairs, state, err := p.delimiterPairs(seq, open, close)
	if state != Finished {
		return state, err
	}
	for k := len(pairs) - 1; k >= 0; k-- {
		l, r := pairs[k][0], pairs[k][1]
		inner := prepare(seq.Slice(l+1, r))

		state, err := p.resolve(inner)
		switch state {
		case Err:
			return Err, err
		case Unfinished:
			// The enclosing pair is closed, so nothing can complete the inner one.
			if d, ok := diag.As(err); ok {
				return Err, diag.New(diag.Parse, d.Row, d.Column, d.Source, "%s", d.Description)
			}
			return Err, err
		}

		node := seq.At(l)
		p.arena.SetClass(node, c)
		if root := inner.Root(); root != ast.None {
			p.arena.Adopt(node, root)
		}
		seq.Replace(l, r+1, node)
	}
	return Finished, nil
}

// parens resolves (...) into Expr(Paren). Statement separators inside a
// parenthesised region are dropped so calls and groupings may span lines.
func (p *Parser) parens(seq *Sequence) (State, error) {
	return p.delimited(seq, token.LEFT_PAREN, token.RIGHT_PAREN, ast.ExprOf(ast.ExprParen), func(inner *Sequence) *Sequence {
		out := NewSequence()
		for _, id := range inner.IDs() {
			if !p.arena.Class(id).Is(token.STMT_SEP) {
				out.Append(id)
			}
		}
		return out
	})
}

// braces resolves {...} into Stmt(Braced). A separator is appended so the
// last statement of a block needs no terminator.
func (p *Parser) braces(seq *Sequence) (State, error) {
	return p.delimited(seq, token.LEFT_BRACE, token.RIGHT_BRACE, ast.StmtOf(ast.StmtBraced), func(inner *Sequence) *Sequence {
		n := inner.Len()
		if n == 0 || p.isRaw(inner, n-1, token.STMT_SEP) {
			return inner
		}
		last := p.arena.Token(inner.At(n - 1))
		inner.Append(p.arena.New(last.Synthetic(token.STMT_SEP, "\n"), ast.UnparsedOf(token.STMT_SEP)))
		return inner
	})
}

// calls folds `name (args)` into Expr(Function). The identifier keeps its
// token and adopts the argument paren. A name after `fn` is a definition.
func (p *Parser) calls(seq *Sequence) (State, error) {
	for i := 0; i+1 < seq.Len(); i++ {
		if p.classAt(seq, i) != ast.IdentifierClass || !paren.Has(p.classAt(seq, i+1)) {
			continue
		}
		if p.isRaw(seq, i-1, token.FN) {
			continue
		}
		p.arena.Fold(seq.At(i), ast.ExprOf(ast.ExprFunction), seq.At(i+1))
		seq.Remove(i+1, 1)
	}
	return Finished, nil
}

// negation folds prefix '-' and '!' into Expr(Negated). Scanning right to
// left lets stacked prefixes fold innermost first.
func (p *Parser) negation(seq *Sequence) (State, error) {
	for i := seq.Len() - 2; i >= 0; i-- {
		c := p.classAt(seq, i)
		if !c.Is(token.MINUS) && !c.Is(token.BANG) {
			continue
		}
		if !operands.Has(p.classAt(seq, i+1)) {
			continue
		}
		if i > 0 && !prefixContext.Has(p.classAt(seq, i-1)) {
			continue
		}
		p.arena.Fold(seq.At(i), ast.ExprOf(ast.ExprNegated), seq.At(i+1))
		seq.Remove(i+1, 1)
	}
	return Finished, nil
}

// binary returns a left-associative fold over the given operators. The scan
// does not advance after a fold, so `a+b+c` becomes ((a+b)+c).
func binary(ops ...token.Kind) pass {
	pattern := Pattern{operands, Raw(ops...), operands}
	return func(p *Parser, seq *Sequence) (State, error) {
		for s := -1; s+1 < seq.Len(); {
			m := seq.Match(p.arena, s, pattern, 1)
			switch m.Outcome {
			case NoMatch:
				s++
			case FailedAt:
				op := seq.At(s + 1)
				where := "after"
				if m.Pos == 0 {
					where = "before"
				}
				return p.failAt(seq, s+m.Pos, op, "expected an operand %s '%s'", where, p.arena.Token(op).Display())
			case Matched:
				op := seq.At(s + 1)
				p.arena.Fold(op, ast.ExprOf(ast.ExprNormal), seq.At(s), seq.At(s+2))
				seq.Replace(s, s+3, op)
			}
		}
		return Finished, nil
	}
}

// assignments folds `name op value ;` for = += -= *= /= %=. The separator
// stays in the sequence for the separator pass.
func (p *Parser) assignments(seq *Sequence) (State, error) {
	ops := make([]token.Kind, 0, len(assignOps))
	for k := range assignOps {
		ops = append(ops, k)
	}
	pattern := Pattern{identifier, Raw(ops...), operands, separator}

	for s := -1; s+1 < seq.Len(); s++ {
		m := seq.Match(p.arena, s, pattern, 1)
		switch m.Outcome {
		case FailedAt:
			op := seq.At(s + 1)
			lex := p.arena.Token(op).Display()
			switch m.Pos {
			case 0:
				return p.failAt(seq, s, op, "expected identifier before '%s'", lex)
			case 2:
				return p.failAt(seq, s+2, op, "expected expression after '%s'", lex)
			default:
				return p.failAt(seq, s+3, op, "expected end of statement after assignment")
			}
		case Matched:
			op := seq.At(s + 1)
			kind := assignOps[p.arena.Token(op).Kind]
			p.arena.Fold(op, ast.StmtOf(kind), seq.At(s), seq.At(s+2))
			seq.Replace(s, s+3, op)
		}
	}
	return Finished, nil
}

// declarations promotes `var` followed by an assignment to Stmt(Declaration).
func (p *Parser) declarations(seq *Sequence) (State, error) {
	pattern := Pattern{Raw(token.VAR), assignment}
	for s := 0; s < seq.Len(); s++ {
		m := seq.Match(p.arena, s, pattern, 0)
		switch m.Outcome {
		case FailedAt:
			return p.failAt(seq, s+1, seq.At(s), "expected assignment after 'var'")
		case Matched:
			p.arena.Fold(seq.At(s), ast.StmtOf(ast.StmtDeclaration), seq.At(s+1))
			seq.Remove(s+1, 1)
		}
	}
	return Finished, nil
}

// tuples folds comma separated runs of values into one Tuple node.
func (p *Parser) tuples(seq *Sequence) (State, error) {
	pattern := Pattern{values, Raw(token.COMMA)}
	for i := 0; i < seq.Len(); i++ {
		if !p.isRaw(seq, i, token.COMMA) {
			continue
		}
		comma := seq.At(i)
		start := i - 1
		m := seq.MatchRepeat(p.arena, start, pattern)
		if m.Outcome == NoMatch {
			return p.failAt(seq, start, comma, "expected expression before ','")
		}
		end := start + 2*m.Count
		if !values.Has(p.classAt(seq, end)) {
			return p.failAt(seq, end, seq.At(end-1), "expected expression after ','")
		}

		tuple := p.arena.New(p.arena.Token(comma), ast.TupleClass)
		for k := start; k <= end; k += 2 {
			p.arena.Adopt(tuple, seq.At(k))
		}
		seq.Replace(start, end+1, tuple)
		i = start
	}
	return Finished, nil
}

// whiles folds `while cond {body}`.
func (p *Parser) whiles(seq *Sequence) (State, error) {
	pattern := Pattern{Raw(token.WHILE), operands, braced}
	for s := 0; s < seq.Len(); s++ {
		m := seq.Match(p.arena, s, pattern, 0)
		switch m.Outcome {
		case FailedAt:
			if m.Pos == 1 {
				return p.failAt(seq, s+1, seq.At(s), "expected condition after 'while'")
			}
			return p.failAt(seq, s+2, seq.At(s), "expected '{' after while condition")
		case Matched:
			node := seq.At(s)
			p.arena.Fold(node, ast.StmtOf(ast.StmtWhile), seq.At(s+1), seq.At(s+2))
			seq.Replace(s, s+3, node)
		}
	}
	return Finished, nil
}

// ifs folds `if cond {body}` and then absorbs any following `else if` and
// `else` clauses as extra children of the same node. Separators between a
// closing brace and `else` are skipped.
func (p *Parser) ifs(seq *Sequence) (State, error) {
	pattern := Pattern{Raw(token.IF), operands, braced}
	elseIf := Pattern{Raw(token.ELSE), Raw(token.IF), operands, braced}
	elseOnly := Pattern{Raw(token.ELSE), braced}

	for s := 0; s < seq.Len(); s++ {
		m := seq.Match(p.arena, s, pattern, 0)
		switch m.Outcome {
		case NoMatch:
			continue
		case FailedAt:
			if m.Pos == 1 {
				return p.failAt(seq, s+1, seq.At(s), "expected condition after 'if'")
			}
			return p.failAt(seq, s+2, seq.At(s), "expected '{' after if condition")
		}

		node := seq.At(s)
		p.arena.Fold(node, ast.StmtOf(ast.StmtIf), seq.At(s+1), seq.At(s+2))
		seq.Replace(s, s+3, node)

		for {
			j := s + 1
			for p.isRaw(seq, j, token.STMT_SEP) {
				j++
			}
			if !p.isRaw(seq, j, token.ELSE) {
				break
			}
			clause := seq.At(j)

			if p.isRaw(seq, j+1, token.IF) {
				m := seq.Match(p.arena, j, elseIf, 0)
				if m.Outcome == FailedAt {
					if m.Pos == 2 {
						return p.failAt(seq, j+2, clause, "expected condition after 'else if'")
					}
					return p.failAt(seq, j+3, clause, "expected '{' after else if condition")
				}
				p.arena.Fold(clause, ast.StmtOf(ast.StmtElseif), seq.At(j+2), seq.At(j+3))
				p.arena.Adopt(node, clause)
				seq.Remove(s+1, j+4-(s+1))
				continue
			}

			if m := seq.Match(p.arena, j, elseOnly, 0); m.Outcome == FailedAt {
				return p.failAt(seq, j+1, clause, "expected '{' after 'else'")
			}
			p.arena.Fold(clause, ast.StmtOf(ast.StmtElse), seq.At(j+1))
			p.arena.Adopt(node, clause)
			seq.Remove(s+1, j+2-(s+1))
			break
		}
	}
	return Finished, nil
}

// functionDefs folds `fn name (params) {body}` into Stmt(FunctionDef) with
// children [name, params, body].
func (p *Parser) functionDefs(seq *Sequence) (State, error) {
	pattern := Pattern{Raw(token.FN), identifier, paren, braced}
	for s := 0; s < seq.Len(); s++ {
		m := seq.Match(p.arena, s, pattern, 0)
		switch m.Outcome {
		case FailedAt:
			fn := seq.At(s)
			switch m.Pos {
			case 1:
				return p.failAt(seq, s+1, fn, "expected function name after 'fn'")
			case 2:
				return p.failAt(seq, s+2, fn, "expected parameter list after function name")
			default:
				return p.failAt(seq, s+3, fn, "expected '{' after parameter list")
			}
		case Matched:
			node := seq.At(s)
			p.arena.Fold(node, ast.StmtOf(ast.StmtFunctionDef), seq.At(s+1), seq.At(s+2), seq.At(s+3))
			seq.Replace(s, s+4, node)
		}
	}
	return Finished, nil
}

// separators turns `value ;` into Stmt(Normal) and drops separators that
// follow a statement, lead the sequence, or repeat.
func (p *Parser) separators(seq *Sequence) (State, error) {
	for i := 0; i < seq.Len(); {
		if !p.isRaw(seq, i, token.STMT_SEP) {
			i++
			continue
		}
		if i == 0 {
			seq.Remove(0, 1)
			continue
		}
		prev := p.classAt(seq, i-1)
		switch {
		case prev.IsStmt():
			seq.Remove(i, 1)
		case prev.IsValue():
			sep := seq.At(i)
			p.arena.Fold(sep, ast.StmtOf(ast.StmtNormal), seq.At(i-1))
			seq.Replace(i-1, i+1, sep)
		default:
			return p.unexpected(seq.At(i - 1))
		}
	}
	return Finished, nil
}

// compounds merges each run of adjacent statements into one Stmt(Compound).
// Nested compounds are flattened; bare expressions are left in place.
func (p *Parser) compounds(seq *Sequence) (State, error) {
	compound := ast.StmtOf(ast.StmtCompound)
	acc := ast.None
	for i := 0; i < seq.Len(); {
		id := seq.At(i)
		c := p.arena.Class(id)
		if !c.IsStmt() {
			acc = ast.None
			i++
			continue
		}
		if acc == ast.None {
			if c == compound {
				acc = id
			} else {
				acc = p.arena.New(p.arena.Token(id).Synthetic(token.DUMMY, ""), compound)
				p.arena.Adopt(acc, id)
				seq.Replace(i, i+1, acc)
			}
			i++
			continue
		}
		if c == compound {
			p.arena.Adopt(acc, p.arena.Children(id)...)
		} else {
			p.arena.Adopt(acc, id)
		}
		seq.Remove(i, 1)
	}
	return Finished, nil
}
