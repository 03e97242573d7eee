// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package diag provides the positioned error type shared by the scanner,
// parser and evaluator, and renders it with a caret under the source column.
package diag

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"nickandperla.net/lox/internal/token"
)

// Kind classifies a diagnostic.
type Kind int

const (
	Scan Kind = iota
	Parse
	// Unterminated marks an opening delimiter with no close yet. Callers feeding
	// input incrementally treat it as "need more input" rather than failure.
	Unterminated
	Runtime
	Internal
)

func (k Kind) String() string {
	switch k {
	case Scan:
		return "scan error"
	case Parse:
		return "parse error"
	case Unterminated:
		return "unterminated delimiter"
	case Runtime:
		return "runtime error"
	case Internal:
		return "internal error"
	}
	return "error"
}

// Stdin is the source name used for input that did not come from a file.
const Stdin = "stdin"

// Diagnostic is an error anchored to a source position.
type Diagnostic struct {
	Kind        Kind
	Description string
	Row         int
	Column      int
	Source      string
}

// New creates a diagnostic at an explicit position.
func New(kind Kind, row, column int, source, format string, args ...any) *Diagnostic {
	if source == "" {
		source = Stdin
	}
	return &Diagnostic{
		Kind:        kind,
		Description: fmt.Sprintf(format, args...),
		Row:         row,
		Column:      column,
		Source:      source,
	}
}

// At creates a diagnostic positioned at a token.
func At(kind Kind, tok token.Token, format string, args ...any) *Diagnostic {
	return New(kind, tok.Line, tok.Column, tok.Source, format, args...)
}

func (d *Diagnostic) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s", d.Source, d.Row, d.Column, d.Description)
}

// As extracts a *Diagnostic from an error chain.
func As(err error) (*Diagnostic, bool) {
	var d *Diagnostic
	if errors.As(err, &d) {
		return d, true
	}
	return nil, false
}

// Is reports whether err carries a diagnostic of the given kind.
func Is(err error, kind Kind) bool {
	d, ok := As(err)
	return ok && d.Kind == kind
}

// Printer renders diagnostics for a terminal.
type Printer struct {
	header  *color.Color
	locator *color.Color
	caret   *color.Color
}

// NewPrinter returns a printer. Colors are emitted only when colored is true.
func NewPrinter(colored bool) *Printer {
	p := &Printer{
		header:  color.New(color.FgRed, color.Bold),
		locator: color.New(color.FgBlue),
		caret:   color.New(color.FgRed, color.Bold),
	}
	if colored {
		p.header.EnableColor()
		p.locator.EnableColor()
		p.caret.EnableColor()
	} else {
		p.header.DisableColor()
		p.locator.DisableColor()
		p.caret.DisableColor()
	}
	return p
}

// Render writes d in the form
//
//	Error: <description>
//	--> <source>:<row>:<col>
//	<source line>
//	     ^
//
// text is the full source the diagnostic refers to. The line and caret are
// omitted when the row is outside text.
func (p *Printer) Render(w io.Writer, d *Diagnostic, text string) {
	p.header.Fprint(w, "Error: ")
	fmt.Fprintln(w, d.Description)
	p.locator.Fprintf(w, "--> %s:%d:%d\n", d.Source, d.Row, d.Column)

	line, ok := sourceLine(text, d.Row)
	if !ok {
		return
	}
	fmt.Fprintln(w, line)
	fmt.Fprint(w, caretPadding(line, d.Column))
	p.caret.Fprintln(w, "^")
}

func sourceLine(text string, row int) (string, bool) {
	if row < 1 {
		return "", false
	}
	lines := strings.Split(text, "\n")
	if row > len(lines) {
		return "", false
	}
	return strings.TrimRight(lines[row-1], "\r"), true
}

// caretPadding keeps tabs so the caret lines up with the rendered source line.
func caretPadding(line string, column int) string {
	var b strings.Builder
	i := 1
	for _, r := range line {
		if i >= column {
			break
		}
		if r == '\t' {
			b.WriteRune('\t')
		} else {
			b.WriteRune(' ')
		}
		i++
	}
	for ; i < column; i++ {
		b.WriteRune(' ')
	}
	return b.String()
}
