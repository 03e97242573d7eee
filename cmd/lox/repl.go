package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"golang.org/x/term"

	"nickandperla.net/lox/internal/config"
	"nickandperla.net/lox/internal/diag"
	"nickandperla.net/lox/pkg/lox"
)

// session feeds REPL lines to the runtime and keeps the transcript that
// diagnostic rows refer to.
type session struct {
	runtime    *lox.Runtime
	cfg        config.Config
	printer    *diag.Printer
	out        io.Writer
	errw       io.Writer
	transcript []string
}

func (s *session) prompt() string {
	if s.runtime.Pending() {
		return s.cfg.ContinuationPrompt
	}
	return s.cfg.Prompt
}

// handle feeds one line. Output of a finished program is printed; an
// unfinished one waits for more lines.
func (s *session) handle(line string) {
	s.transcript = append(s.transcript, line)
	res, err := s.runtime.Feed(line)
	switch {
	case res.State == lox.Unfinished:
	case err != nil:
		report(s.errw, s.printer, err, strings.Join(s.transcript, "\n"))
	case res.Value != "":
		fmt.Fprintln(s.out, res.Value)
	}
}

// recall is the up-arrow history of the raw REPL. At(0) is the newest line.
type recall struct {
	lines []string
	limit int
}

func (h *recall) Add(line string) {
	if strings.TrimSpace(line) == "" {
		return
	}
	h.lines = append(h.lines, line)
	if h.limit > 0 && len(h.lines) > h.limit {
		h.lines = h.lines[len(h.lines)-h.limit:]
	}
}

func (h *recall) Len() int { return len(h.lines) }

func (h *recall) At(idx int) string {
	return h.lines[len(h.lines)-1-idx]
}

// preload fills h with single-line sources from the run history.
func (h *recall) preload(runtime *lox.Runtime) {
	entries, err := runtime.History(h.limit)
	if err != nil {
		return
	}
	for i := len(entries) - 1; i >= 0; i-- {
		src := strings.TrimRight(entries[i].Source, "\n")
		if !strings.Contains(src, "\n") {
			h.Add(src)
		}
	}
}

func runREPL(runtime *lox.Runtime, cfg config.Config, printer *diag.Printer) {
	s := &session{
		runtime: runtime,
		cfg:     cfg,
		printer: printer,
		out:     os.Stdout,
		errw:    os.Stderr,
	}

	// Ctrl+C while a program runs stops it at the next loop iteration or
	// call. Line reads happen in raw mode, where it arrives as a key instead.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt)
	defer signal.Stop(sigs)
	go func() {
		for range sigs {
			runtime.Interrupt()
		}
	}()

	fmt.Println("lox REPL (Ctrl+D to exit)")

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		runBasicREPL(s, os.Stdin)
		return
	}
	runRawREPL(s)
}

// runBasicREPL reads lines without editing, for input that is not a TTY.
func runBasicREPL(s *session, in io.Reader) {
	reader := bufio.NewReader(in)
	for {
		fmt.Fprint(s.out, s.prompt())
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			fmt.Fprintln(s.out)
			return
		}
		s.handle(strings.TrimRight(line, "\r\n"))
	}
}

// runRawREPL edits lines with term.Terminal. The terminal is raw only while a
// line is being read.
func runRawREPL(s *session) {
	fd := int(os.Stdin.Fd())

	screen := struct {
		io.Reader
		io.Writer
	}{os.Stdin, os.Stdout}
	t := term.NewTerminal(screen, s.prompt())

	h := &recall{limit: s.cfg.HistoryLimit}
	h.preload(s.runtime)
	t.History = h

	for {
		t.SetPrompt(s.prompt())
		line, err := readLine(fd, t)
		if err != nil {
			if err != io.EOF {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			}
			fmt.Println()
			return
		}
		s.handle(line)
	}
}

func readLine(fd int, t *term.Terminal) (string, error) {
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return "", fmt.Errorf("failed to set raw mode: %w", err)
	}
	defer term.Restore(fd, oldState)
	return t.ReadLine()
}
