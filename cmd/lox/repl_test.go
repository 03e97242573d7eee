package main

import (
	"strings"
	"testing"

	"nickandperla.net/lox/internal/config"
	"nickandperla.net/lox/internal/diag"
	"nickandperla.net/lox/pkg/lox"
)

func newTestSession(t *testing.T, opts ...lox.Option) (*session, *strings.Builder, *strings.Builder) {
	t.Helper()
	var out, errw strings.Builder
	opts = append([]lox.Option{lox.WithOutput(&out)}, opts...)
	rt := lox.New(opts...)
	t.Cleanup(func() { rt.Close() })
	return &session{
		runtime: rt,
		cfg:     config.Default(),
		printer: diag.NewPrinter(false),
		out:     &out,
		errw:    &errw,
	}, &out, &errw
}

func TestBasicREPL(t *testing.T) {
	s, out, errw := newTestSession(t)

	input := "var a = 2\nfn double(x) {\n  x * 2\n}\nprint(double(a))\na + 1\n"
	runBasicREPL(s, strings.NewReader(input))

	if errw.Len() != 0 {
		t.Fatalf("unexpected errors: %s", errw.String())
	}
	got := out.String()
	for _, want := range []string{">>> ", "... ", "4\n", "3\n"} {
		if !strings.Contains(got, want) {
			t.Errorf("expected output to contain %q, got %q", want, got)
		}
	}
}

func TestREPLDiagnosticUsesTranscript(t *testing.T) {
	s, _, errw := newTestSession(t)

	runBasicREPL(s, strings.NewReader("var a = 1\na + \"x\"\n"))

	expected := "Error: Expected NUMBER type for right operand\n" +
		"--> stdin:2:5\n" +
		"a + \"x\"\n" +
		"    ^\n"
	if errw.String() != expected {
		t.Errorf("expected:\n%s\ngot:\n%s", expected, errw.String())
	}
}

func TestREPLRecoversAfterError(t *testing.T) {
	s, out, _ := newTestSession(t)

	runBasicREPL(s, strings.NewReader("(1 + 2))\n5\n"))

	if !strings.Contains(out.String(), "5\n") {
		t.Errorf("expected REPL to keep evaluating, got %q", out.String())
	}
}

func TestRecall(t *testing.T) {
	s, _, _ := newTestSession(t, lox.WithMemoryStore())
	s.handle("1 + 1")
	s.handle("fn f() {")
	s.handle("  1")
	s.handle("}")
	s.handle("2 + 2")

	h := &recall{limit: 10}
	h.preload(s.runtime)
	if h.Len() != 2 {
		t.Fatalf("expected 2 recalled lines, got %d", h.Len())
	}
	if h.At(0) != "2 + 2" || h.At(1) != "1 + 1" {
		t.Errorf("unexpected recall order: %q, %q", h.At(0), h.At(1))
	}

	h.Add("   ")
	if h.Len() != 2 {
		t.Error("expected blank lines to be skipped")
	}
	h.limit = 2
	h.Add("3 + 3")
	if h.Len() != 2 || h.At(0) != "3 + 3" {
		t.Errorf("expected oldest line to be dropped, got %v", h.lines)
	}
}
