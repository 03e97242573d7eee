package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeLox(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestCheckFile(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name         string
		content      string
		errors       int
		expectsError bool
		message      string
	}{
		{"good.lox", "var a = 1\nprint(a)\n", 0, false, ""},
		{"open.lox", "fn f() {\n  1\n", 1, false, "line 1:8"},
		{"extra.lox", "1 + 2)\n", 1, false, "line 1:6"},
		{"scan.lox", "var a = @\n", 1, false, "invalid token"},
		{"runtime.lox", "// EXPECTED: Error: undeclared variable 'x'\nx\n", 0, true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := checkFile(writeLox(t, dir, tt.name, tt.content))
			if len(result.errors) != tt.errors {
				t.Fatalf("expected %d errors, got %v", tt.errors, result.errors)
			}
			if result.expectsError != tt.expectsError {
				t.Errorf("expected expectsError=%v", tt.expectsError)
			}
			if tt.message != "" && !strings.Contains(result.errors[0], tt.message) {
				t.Errorf("expected %q in %q", tt.message, result.errors[0])
			}
		})
	}
}

func TestFindLoxFiles(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	writeLox(t, sub, "b.lox", "1\n")
	writeLox(t, dir, "a.lox", "1\n")
	writeLox(t, dir, "notes.txt", "x\n")

	files, err := findLoxFiles(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(files) != 2 || filepath.Base(files[0]) != "a.lox" {
		t.Errorf("unexpected files %v", files)
	}
}

func TestReport(t *testing.T) {
	dir := t.TempDir()
	files := []string{
		writeLox(t, dir, "ok.lox", "1 + 1\n"),
		writeLox(t, dir, "bad.lox", "else\n"),
	}

	var out strings.Builder
	if failed := report(&out, files); failed != 1 {
		t.Errorf("expected 1 failure, got %d", failed)
	}
	if !strings.Contains(out.String(), "FAIL "+files[1]) || !strings.Contains(out.String(), "Total:           2") {
		t.Errorf("unexpected report:\n%s", out.String())
	}
}
