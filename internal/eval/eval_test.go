package eval

import (
	"strings"
	"testing"

	"nickandperla.net/lox/internal/ast"
	"nickandperla.net/lox/internal/diag"
	"nickandperla.net/lox/internal/parser"
	"nickandperla.net/lox/internal/scanner"
	"nickandperla.net/lox/internal/store"
)

type session struct {
	t      *testing.T
	arena  *ast.Arena
	parser *parser.Parser
	eval   *Evaluator
	output *strings.Builder
	line   int
}

func newSession(t *testing.T, opts ...Option) *session {
	arena := ast.NewArena()
	var output strings.Builder
	opts = append([]Option{WithOutput(&output)}, opts...)
	return &session{
		t:      t,
		arena:  arena,
		parser: parser.New(arena),
		eval:   New(arena, opts...),
		output: &output,
		line:   1,
	}
}

// run parses src as one complete program and evaluates it.
func (s *session) run(src string) (Value, error) {
	s.t.Helper()
	toks, err := scanner.Scan(src, &s.line, "")
	if err != nil {
		s.t.Fatalf("scan %q: unexpected error: %v", src, err)
	}
	seq := parser.NewSequence()
	state, err := s.parser.Parse(toks, seq)
	if state != parser.Finished {
		s.t.Fatalf("parse %q: expected Finished, got %s (%v)", src, state, err)
	}
	return s.eval.Run(seq.Root())
}

func (s *session) mustRun(src string) string {
	s.t.Helper()
	v, err := s.run(src)
	if err != nil {
		s.t.Fatalf("%q: unexpected error: %v", src, err)
	}
	return v.String()
}

func TestExpressions(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"precedence", "1 + 2 * 3", "7"},
		{"grouping", "(1 + 2) * 3", "9"},
		{"left assoc", "10 - 4 - 3", "3"},
		{"division", "7 / 2", "3.5"},
		{"modulo", "7 % 3", "1"},
		{"negation", "1 - -2", "3"},
		{"fraction", "0.1 + 0.2 > 0.3", "true"},
		{"concat", `"foo" + "bar"`, "foobar"},
		{"string equality", `"a" == "a"`, "true"},
		{"bool equality", "true != false", "true"},
		{"comparison", "2 <= 2", "true"},
		{"not", "!(1 > 2)", "true"},
		{"minus bool", "-true", "false"},
		{"and or", "true and false or true", "true"},
		{"nil", "nil", ""},
		{"empty paren", "()", ""},
		{"tuple", "1, \"a\", true", "(1, a, true)"},
		{"divide by zero", "1 / 0", "inf"},
		{"pi", "PI", "3.141592653589793"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSession(t)
			if got := s.mustRun(tt.input); got != tt.expected {
				t.Errorf("expected '%s', got '%s'", tt.expected, got)
			}
		})
	}
}

func TestStatements(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"compound assignment", "var a = 1\na += 2\na", "3"},
		{"all compound ops", "var a = 10\na -= 2\na *= 3\na /= 4\na %= 4\na", "2"},
		{"assignment value", "var a = 1\na = 5", "5"},
		{"declaration is none", "var a = 1", ""},
		{"if true", "if true { 1 } else { 2 }", "1"},
		{"if false", "if false { 1 } else { 2 }", "2"},
		{"else if", "var x = 2\nif x == 1 { \"one\" } else if x == 2 { \"two\" } else { \"many\" }", "two"},
		{"no branch", "if false { 1 }", ""},
		{"else next line", "if false {\n 1\n}\nelse {\n 2\n}", "2"},
		{"while", "var i = 0\nwhile i < 3 { i += 1 }\ni", "3"},
		{"while result", "var i = 0\nwhile i < 3 { i += 1 }", "3"},
		{"while zero iterations", "while false { 1 }", ""},
		{"string accumulate", "var s = \"\"\nvar i = 0\nwhile i < 3 { s += str(i); i += 1 }\ns", "012"},
		{"block value", "{ 1; 2 }", "2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSession(t)
			if got := s.mustRun(tt.input); got != tt.expected {
				t.Errorf("expected '%s', got '%s'", tt.expected, got)
			}
		})
	}
}

func TestFunctions(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"two params", "fn add(a, b) { a + b }\nadd(1, 2)", "3"},
		{"one param", "fn twice(x) { x * 2 }\ntwice(21)", "42"},
		{"no params", "fn answer() { 42 }\nanswer()", "42"},
		{"last statement", "fn f(x) { var y = x + 1\n y * 2 }\nf(1)", "4"},
		{"outer scope", "var base = 10\nfn f(x) { base + x }\nf(5)", "15"},
		{"recursion", "fn fact(n) { if n <= 1 { 1 } else { n * fact(n - 1) } }\nfact(5)", "120"},
		{"nested call", "fn inc(x) { x + 1 }\ninc(inc(1))", "3"},
		{"definition value", "fn f() { 1 }", "<fn f>"},
		{"native value", "print", "<native fn print>"},
		{"call in expression", "fn one() { 1 }\none() + one()", "2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSession(t)
			if got := s.mustRun(tt.input); got != tt.expected {
				t.Errorf("expected '%s', got '%s'", tt.expected, got)
			}
		})
	}
}

func TestPrint(t *testing.T) {
	s := newSession(t)
	result := s.mustRun("print(1 + 1)\nprint(\"hi\")\nprint((1, 2))")
	if result != "" {
		t.Errorf("expected empty result, got '%s'", result)
	}
	if s.output.String() != "2\nhi\n(1, 2)\n" {
		t.Errorf("unexpected output %q", s.output.String())
	}
}

func TestCallArgumentsFromTupleValue(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"fn add(a, b) { a + b }\nvar t = (2, 3)\nadd(t)", "5"},
		{"fn add(a, b) { a + b }\nadd((2, 3))", "5"},
		{"fn id(x) { x }\nvar n = 4\nid(n)", "4"},
		{"fn none() { 1 }\nnone()", "1"},
		{"var t = (1, 2, 3)\nlen(t)", "3"},
		{"var t = (1, 2)\nstr(t)", "(1, 2)"},
	}
	for _, tt := range tests {
		s := newSession(t)
		if got := s.mustRun(tt.input); got != tt.expected {
			t.Errorf("%q: expected '%s', got '%s'", tt.input, tt.expected, got)
		}
	}

	s := newSession(t)
	_, err := s.run("fn id(x) { x }\nvar t = (1, 2)\nid(t)")
	if d, ok := diag.As(err); !ok || d.Description != "Expected 1 inputs, found 2" {
		t.Errorf("expected tuple value to spread into two arguments, got %v", err)
	}
}

func TestBuiltins(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{`len("hello")`, "5"},
		{`len((1, 2, 3))`, "3"},
		{`str(1.5) + "!"`, "1.5!"},
		{`str(true)`, "true"},
		{`clock() > 0`, "true"},
	}
	for _, tt := range tests {
		s := newSession(t)
		if got := s.mustRun(tt.input); got != tt.expected {
			t.Errorf("%s: expected '%s', got '%s'", tt.input, tt.expected, got)
		}
	}
}

func TestRuntimeErrors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		column   int
	}{
		{"string plus number", `"a" + 1`, "Expected STRING type for right operand", 7},
		{"number plus string", `1 + "a"`, "Expected NUMBER type for right operand", 5},
		{"bool plus", "true + 1", "Expected NUMBER or STRING type for left operand", 1},
		{"minus string", `"a" - 1`, "Expected NUMBER type for left operand", 1},
		{"cross type equality", `1 == "1"`, "Expected NUMBER type for right operand", 6},
		{"and number", "true and 1", "Expected BOOL type for right operand", 10},
		{"negate string", `-"a"`, "Expected NUMBER or BOOL type for operand of '-'", 2},
		{"not number", "!1", "Expected BOOL type for operand of '!'", 2},
		{"undeclared", "x + 1", "undeclared variable 'x'", 1},
		{"assign undeclared", "x = 1", "undeclared variable 'x'", 1},
		{"if condition", "if 1 { 2 }", "Expected boolean expression after if", 4},
		{"while condition", `while "a" { 2 }`, "Expected boolean expression after while", 7},
		{"not a function", "var x = 1\nx(2)", "'x' is not a function", 1},
		{"unknown function", "nope()", "undeclared function 'nope'", 1},
		{"arity", "fn f(a, b) { a }\nf(1)", "Expected 2 inputs, found 1", 1},
		{"native arity", "clock(1)", "expected 0 argument(s), found 1", 1},
		{"len type", "len(1)", "Expected STRING or TUPLE type for argument, found NUMBER", 5},
		{"bad params", "fn f(1) { 1 }", "expected parameter name, found '1'", 6},
		{"duplicate params", "fn f(a, a) { 1 }", "duplicate parameter 'a'", 9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSession(t)
			_, err := s.run(tt.input)
			if err == nil {
				t.Fatalf("expected error, got none")
			}
			d, ok := diag.As(err)
			if !ok {
				t.Fatalf("expected diagnostic, got %T", err)
			}
			if d.Kind != diag.Runtime {
				t.Errorf("expected runtime error, got %s", d.Kind)
			}
			if d.Description != tt.expected {
				t.Errorf("expected '%s', got '%s'", tt.expected, d.Description)
			}
			if d.Column != tt.column {
				t.Errorf("expected column %d, got %d", tt.column, d.Column)
			}
		})
	}
}

func TestScopeBalance(t *testing.T) {
	s := newSession(t)
	depth := s.eval.Stack().Depth()

	inputs := []string{
		"{ var a = 1; { var b = 2 } }",
		"{ var a = 1; { var b = \"x\" + 1 } }",
		"fn f(x) { { x + \"a\" } }\nf(1)",
		"var i = 0\nwhile i < 3 { var j = i; i += 1 }",
		"var k = 0\nwhile k < 3 { k += 1; if k == 2 { k + \"boom\" } }",
		"fn loop(x) { loop(x) }\nloop(1)",
	}
	for _, input := range inputs {
		s.run(input)
		if got := s.eval.Stack().Depth(); got != depth {
			t.Errorf("%q: expected depth %d after run, got %d", input, depth, got)
		}
	}
}

func TestRecursionLimit(t *testing.T) {
	s := newSession(t, WithMaxDepth(50))

	_, err := s.run("fn loop(x) { loop(x) }\nloop(1)")
	d, ok := diag.As(err)
	if !ok || d.Kind != diag.Runtime || d.Description != "maximum recursion depth exceeded" {
		t.Fatalf("expected recursion limit error, got %v", err)
	}

	// Recursion within the limit still works, and the limit resets.
	got := s.mustRun("fn down(n) { if n > 0 { down(n - 1) } else { 0 } }\ndown(40)")
	if got != "0" {
		t.Errorf("expected '0', got '%s'", got)
	}
}

func TestDefaultRecursionLimit(t *testing.T) {
	s := newSession(t)
	_, err := s.run("fn loop(x) { loop(x) }\nloop(1)")
	if d, ok := diag.As(err); !ok || d.Description != "maximum recursion depth exceeded" {
		t.Fatalf("expected recursion limit error, got %v", err)
	}
	if got := s.eval.Stack().Depth(); got != 1 {
		t.Errorf("expected only the base scope after unwinding, got %d", got)
	}
}

func TestDeclarationShadowing(t *testing.T) {
	s := newSession(t)
	s.mustRun("var x = 1")
	if got := s.mustRun("{ var x = 2\n x }"); got != "2" {
		t.Errorf("expected inner x 2, got '%s'", got)
	}
	if got := s.mustRun("x"); got != "1" {
		t.Errorf("expected outer x 1 after block, got '%s'", got)
	}
	if got := s.mustRun("{ x }"); got != "1" {
		t.Errorf("expected sibling block to see outer x 1, got '%s'", got)
	}
	if got := s.mustRun("{ x = 3 }\nx"); got != "3" {
		t.Errorf("expected assignment in block to update outer x, got '%s'", got)
	}
}

func TestBlockLocalsDoNotLeak(t *testing.T) {
	s := newSession(t)
	s.mustRun("{ var hidden = 1 }")
	if _, err := s.run("hidden"); err == nil {
		t.Error("expected block local to be out of scope")
	}
}

func TestWhileIterationScope(t *testing.T) {
	s := newSession(t)
	got := s.mustRun("var n = 0\nvar sum = 0\nwhile n < 3 { var step = n * 10; sum += step; n += 1 }\nsum")
	if got != "30" {
		t.Errorf("expected 30, got '%s'", got)
	}
}

func TestInterrupt(t *testing.T) {
	s := newSession(t)
	s.eval.Stack().Declare("tick", nativeValue("tick", 0, func(e *Evaluator, args []Value, call ast.NodeID) (Value, error) {
		e.Interrupt()
		return Empty(call), nil
	}))

	depth := s.eval.Stack().Depth()
	_, err := s.run("var i = 0\nwhile true { tick(); i += 1 }")
	if err == nil || !strings.Contains(err.Error(), "interrupted") {
		t.Fatalf("expected interrupted error, got %v", err)
	}
	if got := s.eval.Stack().Depth(); got != depth {
		t.Errorf("expected scopes to unwind to %d, got %d", depth, got)
	}
	if got := s.mustRun("i"); got != "1" {
		t.Errorf("expected loop to stop after one iteration, got '%s'", got)
	}

	// A stale interrupt does not leak into the next run
	s.eval.Interrupt()
	if got := s.mustRun("fn one() { 1 }\none()"); got != "1" {
		t.Errorf("expected 1 after interrupt, got '%s'", got)
	}
}

func TestHistoryBuiltin(t *testing.T) {
	st := store.NewMemory()
	st.Record("1 + 1", "2", true)
	st.Record("print(3)", "", true)

	s := newSession(t, WithStore(st))
	if got := s.mustRun("history(5)"); got != "(print(3), 1 + 1)" {
		t.Errorf("unexpected history %q", got)
	}
	if got := s.mustRun("len(history(1))"); got != "1" {
		t.Errorf("expected one entry, got '%s'", got)
	}
	if _, err := s.run("history(-1)"); err == nil {
		t.Error("expected error for negative count")
	}

	plain := newSession(t)
	if _, err := plain.run("history(1)"); err == nil {
		t.Error("expected history to be undefined without a store")
	}
}

func TestEmptyProgram(t *testing.T) {
	s := newSession(t)
	v, err := s.eval.Run(ast.None)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Type != None {
		t.Errorf("expected none, got %s", v.Type)
	}
}
