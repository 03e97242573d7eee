package scanner

import (
	"testing"

	"nickandperla.net/lox/internal/diag"
	"nickandperla.net/lox/internal/token"
)

func kinds(toks []token.Token) []token.Kind {
	out := make([]token.Kind, len(toks))
	for i, t := range toks {
		out[i] = t.Kind
	}
	return out
}

func TestScanKinds(t *testing.T) {
	tests := []struct {
		input    string
		expected []token.Kind
	}{
		{"1 + 2 * 3", []token.Kind{token.NUMBER, token.PLUS, token.NUMBER, token.STAR, token.NUMBER, token.STMT_SEP}},
		{"a += 2; b %= 3", []token.Kind{
			token.IDENTIFIER, token.PLUS_EQUAL, token.NUMBER, token.STMT_SEP,
			token.IDENTIFIER, token.PERCENT_EQUAL, token.NUMBER, token.STMT_SEP,
		}},
		{"x == y != z >= 1 <= 2", []token.Kind{
			token.IDENTIFIER, token.EQUAL_EQUAL, token.IDENTIFIER, token.BANG_EQUAL, token.IDENTIFIER,
			token.GREATER_EQUAL, token.NUMBER, token.LESS_EQUAL, token.NUMBER, token.STMT_SEP,
		}},
		{"fn f(a) { }", []token.Kind{
			token.FN, token.IDENTIFIER, token.LEFT_PAREN, token.IDENTIFIER, token.RIGHT_PAREN,
			token.LEFT_BRACE, token.RIGHT_BRACE, token.STMT_SEP,
		}},
		{"var a = 1 // comment\na", []token.Kind{
			token.VAR, token.IDENTIFIER, token.EQUAL, token.NUMBER, token.STMT_SEP,
			token.IDENTIFIER, token.STMT_SEP,
		}},
		{"1.", []token.Kind{token.NUMBER, token.DOT, token.STMT_SEP}},
		{"", []token.Kind{token.STMT_SEP}},
	}

	for _, tt := range tests {
		line := 1
		toks, err := Scan(tt.input, &line, "")
		if err != nil {
			t.Fatalf("Scan(%q): unexpected error: %v", tt.input, err)
		}
		got := kinds(toks)
		if len(got) != len(tt.expected) {
			t.Errorf("Scan(%q): expected %v, got %v", tt.input, tt.expected, got)
			continue
		}
		for i := range got {
			if got[i] != tt.expected[i] {
				t.Errorf("Scan(%q)[%d]: expected %s, got %s", tt.input, i, tt.expected[i], got[i])
			}
		}
	}
}

func TestScanLexemes(t *testing.T) {
	line := 1
	toks, err := Scan(`"hello world" 3.25 _name while`, &line, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"hello world", "3.25", "_name", "while"}
	for i, w := range want {
		if toks[i].Lexeme != w {
			t.Errorf("token %d: expected '%s', got '%s'", i, w, toks[i].Lexeme)
		}
	}
	if toks[3].Kind != token.WHILE {
		t.Errorf("expected WHILE keyword, got %s", toks[3].Kind)
	}
}

func TestScanPositions(t *testing.T) {
	line := 1
	toks, err := Scan("var a = 1\n  a += 2", &line, "pos.lox")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// var a = 1 \n a += 2 <sentinel>
	if toks[4].Kind != token.STMT_SEP || toks[4].Line != 1 || toks[4].Column != 10 {
		t.Errorf("newline separator: got %v", toks[4])
	}
	if toks[5].Line != 2 || toks[5].Column != 3 {
		t.Errorf("expected a at 2:3, got %d:%d", toks[5].Line, toks[5].Column)
	}
	if toks[6].Column != 5 {
		t.Errorf("expected += at column 5, got %d", toks[6].Column)
	}
	if toks[0].Source != "pos.lox" {
		t.Errorf("expected source pos.lox, got %s", toks[0].Source)
	}
	if line != 3 {
		t.Errorf("expected line counter to advance to 3, got %d", line)
	}
}

func TestScanLineCounterAcrossChunks(t *testing.T) {
	line := 1
	if _, err := Scan("var a = 1", &line, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	toks, err := Scan("a", &line, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if toks[0].Line != 2 {
		t.Errorf("expected second chunk on line 2, got %d", toks[0].Line)
	}
}

func TestScanMultilineString(t *testing.T) {
	line := 1
	toks, err := Scan("\"a\nb\" x", &line, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if toks[0].Lexeme != "a\nb" {
		t.Errorf("expected multi-line lexeme, got %q", toks[0].Lexeme)
	}
	if toks[1].Line != 2 {
		t.Errorf("expected x on line 2, got %d", toks[1].Line)
	}
}

func TestScanErrors(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{`"open`, "Unmatched \""},
		{"a = 1 $", "'$' is an invalid token"},
	}
	for _, tt := range tests {
		line := 1
		_, err := Scan(tt.input, &line, "")
		if err == nil {
			t.Fatalf("Scan(%q): expected error", tt.input)
		}
		d, ok := diag.As(err)
		if !ok {
			t.Fatalf("Scan(%q): expected diagnostic, got %T", tt.input, err)
		}
		if d.Kind != diag.Scan || d.Description != tt.expected {
			t.Errorf("Scan(%q): expected scan error '%s', got %v '%s'", tt.input, tt.expected, d.Kind, d.Description)
		}
	}
}

func TestScanErrorAdvancesLine(t *testing.T) {
	line := 1
	if _, err := Scan(`"abc`, &line, ""); err == nil {
		t.Fatal("expected scan error")
	}
	if line != 2 {
		t.Errorf("expected line counter to advance past the failed chunk, got %d", line)
	}
	toks, err := Scan("x", &line, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if toks[0].Line != 2 {
		t.Errorf("expected next chunk on line 2, got %d", toks[0].Line)
	}
}
