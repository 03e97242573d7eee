package eval

import (
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/tevino/abool/v2"

	"nickandperla.net/lox/internal/ast"
	"nickandperla.net/lox/internal/diag"
	"nickandperla.net/lox/internal/store"
	"nickandperla.net/lox/internal/token"
)

// Evaluator interprets lox syntax trees.
type Evaluator struct {
	arena       *ast.Arena
	stack       *Stack
	out         io.Writer
	store       store.Store
	logger      *slog.Logger
	interrupted *abool.AtomicBool
	depth       int
	maxDepth    int
}

// DefaultMaxDepth bounds nested user function calls.
const DefaultMaxDepth = 10000

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithOutput sets the writer print writes to. Defaults to os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(e *Evaluator) { e.out = w }
}

// WithStore sets the run history store, which enables the history builtin.
func WithStore(s store.Store) Option {
	return func(e *Evaluator) { e.store = s }
}

// WithLogger sets the debug logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Evaluator) { e.logger = l }
}

// WithMaxDepth sets how deeply user functions may nest before a call fails.
func WithMaxDepth(n int) Option {
	return func(e *Evaluator) { e.maxDepth = n }
}

// New creates an Evaluator for trees allocated in arena. The base scope holds
// the standard library.
func New(arena *ast.Arena, opts ...Option) *Evaluator {
	e := &Evaluator{
		arena:       arena,
		out:         os.Stdout,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		interrupted: abool.New(),
		maxDepth:    DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.stack = NewStack(e.logger)
	for _, b := range StandardLibrary() {
		e.stack.Declare(b.Name, b.Value)
	}
	if e.store != nil {
		e.stack.Declare("history", nativeValue("history", 1, builtinHistory))
	}
	return e
}

// Stack returns the variable stack.
func (e *Evaluator) Stack() *Stack {
	return e.stack
}

// Interrupt asks a running evaluation to stop at the next loop iteration or
// function call. It is safe to call from another goroutine.
func (e *Evaluator) Interrupt() {
	e.interrupted.Set()
}

// Run evaluates a finished tree. ast.None, the root of empty input, yields
// the none value.
func (e *Evaluator) Run(root ast.NodeID) (Value, error) {
	e.interrupted.UnSet()
	return e.Evaluate(root)
}

// Evaluate dispatches on the classification of id.
func (e *Evaluator) Evaluate(id ast.NodeID) (Value, error) {
	if id == ast.None {
		return Empty(ast.None), nil
	}
	c := e.arena.Class(id)
	switch c.Kind {
	case ast.Expr:
		switch c.Expr {
		case ast.ExprNormal:
			return e.evalNormal(id)
		case ast.ExprParen:
			return e.evalParen(id)
		case ast.ExprNegated:
			return e.evalNegated(id)
		case ast.ExprFunction:
			return e.evalCall(id)
		}
	case ast.Identifier:
		return e.evalIdentifier(id)
	case ast.Tuple:
		return e.evalTuple(id)
	case ast.Stmt:
		switch c.Stmt {
		case ast.StmtCompound, ast.StmtNormal:
			return e.execCompound(id)
		case ast.StmtAssignment:
			return e.execAssignment(id)
		case ast.StmtDeclaration:
			return e.execDeclaration(id)
		case ast.StmtPlusEqual, ast.StmtMinusEqual, ast.StmtStarEqual, ast.StmtSlashEqual, ast.StmtPercentEqual:
			return e.execCompoundAssignment(id)
		case ast.StmtBraced:
			return e.execBraced(id)
		case ast.StmtIf:
			return e.execIf(id)
		case ast.StmtWhile:
			return e.execWhile(id)
		case ast.StmtFunctionDef:
			return e.execFunctionDef(id)
		}
	}
	return Value{}, e.internal(id, "cannot evaluate %s", c)
}

func (e *Evaluator) errorAt(id ast.NodeID, format string, args ...any) error {
	if id == ast.None || !e.arena.Valid(id) {
		return diag.New(diag.Runtime, 0, 0, "", format, args...)
	}
	return diag.At(diag.Runtime, e.arena.Token(id), format, args...)
}

// errorFor positions an error at the syntax that produced v, falling back to at.
func (e *Evaluator) errorFor(v Value, at ast.NodeID, format string, args ...any) error {
	if v.Node != ast.None && e.arena.Valid(v.Node) {
		at = v.Node
	}
	return e.errorAt(at, format, args...)
}

func (e *Evaluator) internal(id ast.NodeID, format string, args ...any) error {
	return diag.At(diag.Internal, e.arena.Token(id), format, args...)
}

func (e *Evaluator) checkInterrupt(id ast.NodeID) error {
	if e.interrupted.IsSet() {
		e.interrupted.UnSet()
		return e.errorAt(id, "interrupted")
	}
	return nil
}

// evalNormal evaluates a literal leaf or a binary operation.
func (e *Evaluator) evalNormal(id ast.NodeID) (Value, error) {
	children := e.arena.Children(id)
	switch len(children) {
	case 0:
		return e.literal(id)
	case 2:
		left, err := e.Evaluate(children[0])
		if err != nil {
			return Value{}, err
		}
		right, err := e.Evaluate(children[1])
		if err != nil {
			return Value{}, err
		}
		return e.binary(id, e.arena.Token(id).Kind, left, right)
	}
	return Value{}, e.internal(id, "expected 0 or 2 children, found %d", len(children))
}

func (e *Evaluator) literal(id ast.NodeID) (Value, error) {
	tok := e.arena.Token(id)
	switch tok.Kind {
	case token.NUMBER:
		f, err := strconv.ParseFloat(tok.Lexeme, 64)
		if err != nil {
			return Value{}, e.errorAt(id, "invalid number '%s'", tok.Lexeme)
		}
		return NumberValue(f, id), nil
	case token.STRING:
		return StringValue(tok.Lexeme, id), nil
	case token.TRUE:
		return BoolValue(true, id), nil
	case token.FALSE:
		return BoolValue(false, id), nil
	case token.NIL:
		return Empty(id), nil
	}
	return Value{}, e.internal(id, "unexpected literal %s", tok.Kind)
}

func (e *Evaluator) evalParen(id ast.NodeID) (Value, error) {
	children := e.arena.Children(id)
	switch len(children) {
	case 0:
		return Empty(id), nil
	case 1:
		return e.Evaluate(children[0])
	}
	return Value{}, e.internal(id, "parenthesis has %d children", len(children))
}

func (e *Evaluator) evalNegated(id ast.NodeID) (Value, error) {
	v, err := e.Evaluate(e.arena.Child(id, 0))
	if err != nil {
		return Value{}, err
	}
	return e.negate(id, e.arena.Token(id).Kind, v)
}

func (e *Evaluator) evalIdentifier(id ast.NodeID) (Value, error) {
	name := e.arena.Token(id).Lexeme
	cell, ok := e.stack.Lookup(name)
	if !ok {
		return Value{}, e.errorAt(id, "undeclared variable '%s'", name)
	}
	v := *cell
	v.Node = id
	return v, nil
}

func (e *Evaluator) evalTuple(id ast.NodeID) (Value, error) {
	children := e.arena.Children(id)
	items := make([]Value, 0, len(children))
	for _, c := range children {
		v, err := e.Evaluate(c)
		if err != nil {
			return Value{}, err
		}
		items = append(items, v)
	}
	return TupleValue(items, id), nil
}

// evalCall evaluates `name(args)`. The identifier node carries the callee
// name and owns the argument paren.
func (e *Evaluator) evalCall(id ast.NodeID) (Value, error) {
	if err := e.checkInterrupt(id); err != nil {
		return Value{}, err
	}

	paren := e.arena.Child(id, 0)
	if paren == ast.None {
		return Value{}, e.internal(id, "call without argument list")
	}
	// The argument list is the paren's value as a tuple, so a tuple value
	// spreads into arguments. Empty parens pass none.
	var args []Value
	if inner := e.arena.Child(paren, 0); inner != ast.None {
		v, err := e.Evaluate(inner)
		if err != nil {
			return Value{}, err
		}
		args = v.ToTuple().Items
	}

	name := e.arena.Token(id).Lexeme
	cell, ok := e.stack.Lookup(name)
	if !ok {
		return Value{}, e.errorAt(id, "undeclared function '%s'", name)
	}
	callee := *cell
	if !callee.IsCallable() {
		return Value{}, e.errorAt(id, "'%s' is not a function", name)
	}

	switch callee.Type {
	case NativeFunction:
		n := callee.Native
		if n.Arity >= 0 && len(args) != n.Arity {
			return Value{}, e.errorAt(id, "expected %d argument(s), found %d", n.Arity, len(args))
		}
		e.logger.Debug("call native", slog.String("fn", n.Name), slog.Int("args", len(args)))
		return n.Fn(e, args, id)
	case UserFunction:
		return e.callFunction(id, callee.Fn, args)
	}
	return Value{}, e.internal(id, "unhandled callable type %s", callee.Type)
}

// callFunction binds args to the parameters of fn in a fresh scope and
// evaluates the body there. The result is the value of the last statement.
func (e *Evaluator) callFunction(id ast.NodeID, fn *Function, args []Value) (Value, error) {
	if len(args) != len(fn.Params) {
		return Value{}, e.errorAt(id, "Expected %d inputs, found %d", len(fn.Params), len(args))
	}
	if e.depth >= e.maxDepth {
		return Value{}, e.errorAt(id, "maximum recursion depth exceeded")
	}
	e.depth++
	defer func() { e.depth-- }()
	e.logger.Debug("call", slog.String("fn", fn.Name), slog.Int("args", len(args)), slog.Int("depth", e.depth))

	e.stack.Push()
	defer e.stack.Pop()
	for i, p := range fn.Params {
		e.stack.Declare(p, args[i])
	}
	return e.Evaluate(e.arena.Child(fn.Body, 0))
}

// execCompound runs each child in order. The last value is the result.
func (e *Evaluator) execCompound(id ast.NodeID) (Value, error) {
	res := Empty(id)
	for _, c := range e.arena.Children(id) {
		v, err := e.Evaluate(c)
		if err != nil {
			return Value{}, err
		}
		res = v
	}
	return res, nil
}

func (e *Evaluator) assignmentParts(id ast.NodeID) (string, ast.NodeID, error) {
	children := e.arena.Children(id)
	if len(children) != 2 || e.arena.Class(children[0]) != ast.IdentifierClass {
		return "", ast.None, e.internal(id, "expected identifier and expression")
	}
	return e.arena.Token(children[0]).Lexeme, children[1], nil
}

func (e *Evaluator) execAssignment(id ast.NodeID) (Value, error) {
	name, rhs, err := e.assignmentParts(id)
	if err != nil {
		return Value{}, err
	}
	v, err := e.Evaluate(rhs)
	if err != nil {
		return Value{}, err
	}
	cell, ok := e.stack.Lookup(name)
	if !ok {
		return Value{}, e.errorAt(e.arena.Child(id, 0), "undeclared variable '%s'", name)
	}
	v.Ident = name
	*cell = v
	return v, nil
}

func (e *Evaluator) execDeclaration(id ast.NodeID) (Value, error) {
	assign := e.arena.Child(id, 0)
	if assign == ast.None || e.arena.Class(assign) != ast.StmtOf(ast.StmtAssignment) {
		return Value{}, e.internal(id, "expected assignment in declaration")
	}
	name, rhs, err := e.assignmentParts(assign)
	if err != nil {
		return Value{}, err
	}
	v, err := e.Evaluate(rhs)
	if err != nil {
		return Value{}, err
	}
	e.stack.Declare(name, v)
	return Empty(id), nil
}

var compoundOps = map[ast.StmtKind]token.Kind{
	ast.StmtPlusEqual:    token.PLUS,
	ast.StmtMinusEqual:   token.MINUS,
	ast.StmtStarEqual:    token.STAR,
	ast.StmtSlashEqual:   token.SLASH,
	ast.StmtPercentEqual: token.PERCENT,
}

func (e *Evaluator) execCompoundAssignment(id ast.NodeID) (Value, error) {
	name, rhs, err := e.assignmentParts(id)
	if err != nil {
		return Value{}, err
	}
	right, err := e.Evaluate(rhs)
	if err != nil {
		return Value{}, err
	}
	target := e.arena.Child(id, 0)
	cell, ok := e.stack.Lookup(name)
	if !ok {
		return Value{}, e.errorAt(target, "undeclared variable '%s'", name)
	}
	left := *cell
	left.Node = target

	v, err := e.binary(id, compoundOps[e.arena.Class(id).Stmt], left, right)
	if err != nil {
		return Value{}, err
	}
	v.Ident = name
	*cell = v
	return v, nil
}

func (e *Evaluator) execBraced(id ast.NodeID) (Value, error) {
	e.stack.Push()
	defer e.stack.Pop()
	body := e.arena.Child(id, 0)
	if body == ast.None {
		return Empty(id), nil
	}
	return e.Evaluate(body)
}

func (e *Evaluator) condition(id ast.NodeID, keyword string) (bool, error) {
	v, err := e.Evaluate(id)
	if err != nil {
		return false, err
	}
	if v.Type != Bool {
		return false, e.errorFor(v, id, "Expected boolean expression after %s", keyword)
	}
	return v.Bool, nil
}

// execIf takes the first branch whose condition holds. Children are
// [cond, body, Elseif(cond, body)..., Else(body)?].
func (e *Evaluator) execIf(id ast.NodeID) (Value, error) {
	children := e.arena.Children(id)
	if len(children) < 2 {
		return Value{}, e.internal(id, "if needs a condition and a body")
	}
	ok, err := e.condition(children[0], "if")
	if err != nil {
		return Value{}, err
	}
	if ok {
		return e.Evaluate(children[1])
	}
	for _, clause := range children[2:] {
		switch e.arena.Class(clause) {
		case ast.StmtOf(ast.StmtElseif):
			ok, err := e.condition(e.arena.Child(clause, 0), "else if")
			if err != nil {
				return Value{}, err
			}
			if ok {
				return e.Evaluate(e.arena.Child(clause, 1))
			}
		case ast.StmtOf(ast.StmtElse):
			return e.Evaluate(e.arena.Child(clause, 0))
		default:
			return Value{}, e.internal(clause, "expected else if or else clause")
		}
	}
	return Empty(id), nil
}

func (e *Evaluator) execWhile(id ast.NodeID) (Value, error) {
	cond, body := e.arena.Child(id, 0), e.arena.Child(id, 1)
	if body == ast.None {
		return Value{}, e.internal(id, "while needs a condition and a body")
	}
	res := Empty(id)
	for {
		ok, err := e.condition(cond, "while")
		if err != nil {
			return Value{}, err
		}
		if !ok {
			return res, nil
		}
		if err := e.checkInterrupt(id); err != nil {
			return Value{}, err
		}
		if res, err = e.Evaluate(body); err != nil {
			return Value{}, err
		}
	}
}

// execFunctionDef binds a user function in the current scope. Children are
// [name, params paren, body].
func (e *Evaluator) execFunctionDef(id ast.NodeID) (Value, error) {
	children := e.arena.Children(id)
	if len(children) != 3 {
		return Value{}, e.internal(id, "function definition has %d children", len(children))
	}
	params, err := e.parameters(children[1])
	if err != nil {
		return Value{}, err
	}
	fn := &Function{
		Name:   e.arena.Token(children[0]).Lexeme,
		Params: params,
		Body:   children[2],
	}
	v := Value{Type: UserFunction, Fn: fn, Node: id}
	e.stack.Declare(fn.Name, v)
	v.Ident = fn.Name
	return v, nil
}

// parameters reads the names in a definition's paren: nothing, one
// identifier, or a tuple of identifiers.
func (e *Evaluator) parameters(paren ast.NodeID) ([]string, error) {
	inner := e.arena.Child(paren, 0)
	if inner == ast.None {
		return nil, nil
	}
	nodes := []ast.NodeID{inner}
	if e.arena.Class(inner) == ast.TupleClass {
		nodes = e.arena.Children(inner)
	}

	names := make([]string, 0, len(nodes))
	seen := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		if e.arena.Class(n) != ast.IdentifierClass {
			return nil, e.errorAt(n, "expected parameter name, found '%s'", e.arena.Token(n).Display())
		}
		name := e.arena.Token(n).Lexeme
		if seen[name] {
			return nil, e.errorAt(n, "duplicate parameter '%s'", name)
		}
		seen[name] = true
		names = append(names, name)
	}
	return names, nil
}
