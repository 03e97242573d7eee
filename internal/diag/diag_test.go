package diag

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"nickandperla.net/lox/internal/token"
)

func TestErrorString(t *testing.T) {
	d := New(Parse, 3, 7, "main.lox", "expected %s after %q", "expression", "=")
	want := `main.lox:3:7: expected expression after "="`
	if d.Error() != want {
		t.Errorf("expected '%s', got '%s'", want, d.Error())
	}
}

func TestDefaultSourceIsStdin(t *testing.T) {
	d := At(Runtime, token.Token{Kind: token.IDENTIFIER, Lexeme: "x", Line: 1, Column: 2}, "boom")
	if d.Source != Stdin {
		t.Errorf("expected source %q, got %q", Stdin, d.Source)
	}
}

func TestRenderCaret(t *testing.T) {
	text := "var a = 1\na += \"x\"\n"
	d := New(Runtime, 2, 6, "t.lox", "Expected NUMBER type for right operand")

	var buf bytes.Buffer
	NewPrinter(false).Render(&buf, d, text)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d: %q", len(lines), buf.String())
	}
	if lines[0] != "Error: Expected NUMBER type for right operand" {
		t.Errorf("unexpected header: %q", lines[0])
	}
	if lines[1] != "--> t.lox:2:6" {
		t.Errorf("unexpected locator: %q", lines[1])
	}
	if lines[2] != `a += "x"` {
		t.Errorf("unexpected source line: %q", lines[2])
	}
	if lines[3] != "     ^" {
		t.Errorf("unexpected caret line: %q", lines[3])
	}
}

func TestRenderKeepsTabs(t *testing.T) {
	d := New(Parse, 1, 3, "", "x")
	var buf bytes.Buffer
	NewPrinter(false).Render(&buf, d, "\t\tfoo")
	if !strings.HasSuffix(buf.String(), "\t\t^\n") {
		t.Errorf("expected tab padded caret, got %q", buf.String())
	}
}

func TestRenderOutOfRangeRow(t *testing.T) {
	d := New(Parse, 9, 1, "", "late")
	var buf bytes.Buffer
	NewPrinter(false).Render(&buf, d, "one line")
	if strings.Count(buf.String(), "\n") != 2 {
		t.Errorf("expected header and locator only, got %q", buf.String())
	}
}

func TestAsThroughWrap(t *testing.T) {
	d := New(Unterminated, 1, 1, "", "Unpaired '('")
	err := fmt.Errorf("feeding chunk: %w", d)
	got, ok := As(err)
	if !ok || got != d {
		t.Fatalf("expected wrapped diagnostic to be found")
	}
	if !Is(err, Unterminated) {
		t.Errorf("expected Is(err, Unterminated)")
	}
	if Is(err, Parse) {
		t.Errorf("did not expect Is(err, Parse)")
	}
}
