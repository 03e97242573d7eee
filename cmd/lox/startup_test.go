package main

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// buildLox builds the CLI into a temp directory and returns the binary path
// and a separate working directory for scripts, config and history.
func buildLox(t *testing.T) (string, string) {
	t.Helper()
	bin := filepath.Join(t.TempDir(), "lox")
	cmd := exec.Command("go", "build", "-o", bin, "./")
	cmd.Dir = "."
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("failed to build lox: %v\n%s", err, out)
	}
	return bin, t.TempDir()
}

// loxCommand isolates the binary from the user's config and color settings.
func loxCommand(bin, dir string, args ...string) *exec.Cmd {
	cmd := exec.Command(bin, args...)
	cmd.Env = append(os.Environ(),
		"XDG_CONFIG_HOME="+filepath.Join(dir, "config"),
		"NO_COLOR=1",
		"LOX_HISTORY_DB="+filepath.Join(dir, "history.db"),
	)
	return cmd
}

func TestEvalFlag(t *testing.T) {
	bin, dir := buildLox(t)

	output, err := loxCommand(bin, dir, "-e", "print(\"hi\")\nmax(2, 3) * 2").CombinedOutput()
	if err != nil {
		t.Fatalf("failed to run lox: %v\n%s", err, output)
	}
	if string(output) != "hi\n6\n" {
		t.Errorf("expected 'hi\\n6\\n', got %q", output)
	}
}

func TestRunFile(t *testing.T) {
	bin, dir := buildLox(t)

	script := filepath.Join(dir, "count.lox")
	content := "var i = 0\nwhile i < 3 {\n  print(i)\n  i += 1\n}\n"
	if err := os.WriteFile(script, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}

	output, err := loxCommand(bin, dir, script).CombinedOutput()
	if err != nil {
		t.Fatalf("failed to run lox: %v\n%s", err, output)
	}
	if string(output) != "0\n1\n2\n3\n" {
		t.Errorf("unexpected output %q", output)
	}
}

func TestRuntimeErrorExitsNonZero(t *testing.T) {
	bin, dir := buildLox(t)

	script := filepath.Join(dir, "bad.lox")
	if err := os.WriteFile(script, []byte("var a = 1\nprint(b)\n"), 0o644); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}

	cmd := loxCommand(bin, dir, script)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	err := cmd.Run()
	if exitErr, ok := err.(*exec.ExitError); !ok || exitErr.ExitCode() != 1 {
		t.Fatalf("expected exit status 1, got %v", err)
	}

	expected := "Error: undeclared variable 'b'\n" +
		"--> " + script + ":2:7\n" +
		"print(b)\n" +
		"      ^\n"
	if stderr.String() != expected {
		t.Errorf("expected:\n%s\ngot:\n%s", expected, stderr.String())
	}
}

func TestPipedStdin(t *testing.T) {
	bin, dir := buildLox(t)

	cmd := loxCommand(bin, dir, "-n")
	cmd.Stdin = strings.NewReader("fn sq(x) { x * x }\nsq(7)\n")
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("failed to run lox: %v\n%s", err, output)
	}
	if string(output) != "49\n" {
		t.Errorf("expected '49\\n', got %q", output)
	}
}

func TestInteractiveFlagWithPipe(t *testing.T) {
	bin, dir := buildLox(t)

	cmd := loxCommand(bin, dir, "-n", "-i")
	cmd.Stdin = strings.NewReader("var a = 4\nfn f(x) {\n  x + a\n}\nf(1)\n")
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("failed to run lox: %v\n%s", err, output)
	}
	got := string(output)
	for _, want := range []string{"lox REPL", ">>> ", "... ", "5\n"} {
		if !strings.Contains(got, want) {
			t.Errorf("expected output to contain %q, got %q", want, got)
		}
	}
}

func TestHistoryListing(t *testing.T) {
	bin, dir := buildLox(t)

	for _, src := range []string{"1 + 1", "2 + 2", "1 + 1"} {
		if out, err := loxCommand(bin, dir, "-e", src).CombinedOutput(); err != nil {
			t.Fatalf("failed to run %q: %v\n%s", src, err, out)
		}
	}

	output, err := loxCommand(bin, dir, "-H").CombinedOutput()
	if err != nil {
		t.Fatalf("failed to list history: %v\n%s", err, output)
	}
	listing := string(output)
	first := strings.Index(listing, "1 + 1")
	second := strings.Index(listing, "2 + 2")
	if first < 0 || second < 0 || first > second {
		t.Errorf("expected newest entry first, got:\n%s", listing)
	}
	if !strings.Contains(listing, "2x") {
		t.Errorf("expected repeated run to be counted, got:\n%s", listing)
	}
}

func TestHistoryDisabled(t *testing.T) {
	bin, dir := buildLox(t)

	output, err := loxCommand(bin, dir, "-d", "", "-H").CombinedOutput()
	if err == nil {
		t.Fatalf("expected failure with history disabled, got:\n%s", output)
	}
	if !strings.Contains(string(output), "history is disabled") {
		t.Errorf("unexpected output %q", output)
	}
}

func TestExplicitConfigMissing(t *testing.T) {
	bin, dir := buildLox(t)

	output, err := loxCommand(bin, dir, "-c", filepath.Join(dir, "missing.yaml"), "-e", "1").CombinedOutput()
	if err == nil {
		t.Fatalf("expected failure for missing config, got:\n%s", output)
	}
}

func TestTreeFlag(t *testing.T) {
	bin, dir := buildLox(t)

	output, err := loxCommand(bin, dir, "-n", "-t", "-e", "1 + 2").CombinedOutput()
	if err != nil {
		t.Fatalf("failed to run lox: %v\n%s", err, output)
	}
	if !strings.Contains(string(output), "Expr(Normal) +") || !strings.HasSuffix(string(output), "3\n") {
		t.Errorf("unexpected output %q", output)
	}
}
