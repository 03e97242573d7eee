// lox-check: syntax checker for .lox files.
//
// Runs the scanner and parser over each file without evaluating it and
// reports every diagnostic. A file containing a "// EXPECTED: Error" line is
// expected to fail; such files never count as failures.
//
// Usage:
//
//	lox-check [-d DIR] FILE [FILE...]
package main

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"git.sr.ht/~sircmpwn/getopt"

	"nickandperla.net/lox/internal/ast"
	"nickandperla.net/lox/internal/diag"
	"nickandperla.net/lox/internal/parser"
	"nickandperla.net/lox/internal/scanner"
)

// checkResult holds the outcome of checking a single file.
type checkResult struct {
	path         string
	errors       []string
	expectsError bool
}

// checkFile parses a .lox file and returns its syntax errors. An unclosed
// delimiter at end of file is an error.
func checkFile(path string) checkResult {
	content, err := os.ReadFile(path)
	if err != nil {
		return checkResult{
			path:   path,
			errors: []string{fmt.Sprintf("read error: %v", err)},
		}
	}
	text := string(content)

	expectsError := false
	for _, line := range strings.Split(text, "\n") {
		rest, ok := strings.CutPrefix(strings.TrimSpace(line), "// EXPECTED:")
		if ok && strings.HasPrefix(strings.TrimSpace(rest), "Error") {
			expectsError = true
		}
	}

	result := checkResult{path: path, expectsError: expectsError}

	line := 1
	toks, err := scanner.Scan(text, &line, path)
	if err == nil {
		p := parser.New(ast.NewArena())
		_, err = p.Parse(toks, parser.NewSequence())
	}
	if err != nil {
		msg := err.Error()
		if d, ok := diag.As(err); ok {
			msg = fmt.Sprintf("line %d:%d: %s", d.Row, d.Column, d.Description)
		}
		result.errors = append(result.errors, msg)
	}
	return result
}

// findLoxFiles recursively finds all .lox files under dir.
func findLoxFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), ".lox") {
			files = append(files, path)
		}
		return nil
	})
	sort.Strings(files)
	return files, err
}

func main() {
	opts, optind, err := getopt.Getopts(os.Args, "d:")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	var files []string
	for _, opt := range opts {
		if opt.Option == 'd' {
			found, err := findLoxFiles(opt.Value)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error scanning directory %s: %v\n", opt.Value, err)
				os.Exit(1)
			}
			files = append(files, found...)
		}
	}
	files = append(files, os.Args[optind:]...)

	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: lox-check [-d DIR] FILE [FILE...]")
		os.Exit(1)
	}

	if report(os.Stdout, files) > 0 {
		os.Exit(1)
	}
}

// report checks every file, prints one line per file and a summary, and
// returns the number of failures.
func report(w io.Writer, files []string) int {
	passed := 0
	failed := 0
	expectedErr := 0

	for _, f := range files {
		result := checkFile(f)
		hasErrors := len(result.errors) > 0

		switch {
		case result.expectsError:
			// Runtime errors are invisible to the parser, so a clean parse
			// is fine here too.
			expectedErr++
			if hasErrors {
				fmt.Fprintf(w, "OK   %s (expected error, found %d)\n", f, len(result.errors))
			} else {
				fmt.Fprintf(w, "OK   %s (expected error, parser accepted)\n", f)
			}
		case hasErrors:
			failed++
			fmt.Fprintf(w, "FAIL %s\n", f)
			for _, e := range result.errors {
				fmt.Fprintf(w, "     %s\n", e)
			}
		default:
			passed++
			fmt.Fprintf(w, "OK   %s\n", f)
		}
	}

	fmt.Fprintf(w, "\n--- Summary ---\n")
	fmt.Fprintf(w, "Passed:          %d\n", passed)
	fmt.Fprintf(w, "Expected errors: %d\n", expectedErr)
	fmt.Fprintf(w, "Failed:          %d\n", failed)
	fmt.Fprintf(w, "Total:           %d\n", len(files))
	return failed
}
