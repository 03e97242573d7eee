// Command lox is the lox interpreter CLI.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"git.sr.ht/~sircmpwn/getopt"
	"golang.org/x/term"

	"nickandperla.net/lox/internal/config"
	"nickandperla.net/lox/internal/diag"
	"nickandperla.net/lox/internal/store"
	"nickandperla.net/lox/pkg/lox"
)

const usage = `usage: lox [-itnHvh] [-c config] [-d db] [-e source | file | -]

  -e source  evaluate source and exit
  -i         start the REPL even when stdin is not a terminal
  -c config  configuration file (default $XDG_CONFIG_HOME/lox/config.yaml)
  -d db      run history database; empty disables history
  -t         print the parsed tree before evaluating
  -n         do not load the prelude
  -H         list recent history and exit
  -v         debug trace on stderr
  -h         show this help
`

func main() {
	opts, optind, err := getopt.Getopts(os.Args, "e:c:d:itnHvh")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	args := os.Args[optind:]

	var (
		evalStr     string
		hasEval     bool
		configPath  = config.DefaultPath()
		explicit    bool
		dbPath      string
		hasDB       bool
		showTree    bool
		noStdlib    bool
		listHistory bool
		verbose     bool
		interactive bool
	)
	for _, opt := range opts {
		switch opt.Option {
		case 'e':
			evalStr, hasEval = opt.Value, true
		case 'c':
			configPath, explicit = opt.Value, true
		case 'd':
			dbPath, hasDB = opt.Value, true
		case 'i':
			interactive = true
		case 't':
			showTree = true
		case 'n':
			noStdlib = true
		case 'H':
			listHistory = true
		case 'v':
			verbose = true
		case 'h':
			fmt.Print(usage)
			return
		}
	}

	cfg, err := config.Load(configPath, explicit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	cfg.ApplyEnv()
	if hasDB {
		cfg.HistoryDB = dbPath
	}
	if showTree {
		cfg.ShowTree = true
	}
	if noStdlib {
		cfg.Stdlib = false
	}
	if verbose {
		cfg.Trace = true
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Decide what to run before building the runtime so diagnostics carry
	// the right source name.
	var (
		text   string
		source = diag.Stdin
		script = true
	)
	switch {
	case listHistory, interactive:
		script = false
	case hasEval:
		text = evalStr
	case len(args) > 0 && args[0] != "-":
		b, err := os.ReadFile(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		text, source = string(b), args[0]
	case len(args) > 0 || !term.IsTerminal(int(os.Stdin.Fd())):
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading stdin: %v\n", err)
			os.Exit(1)
		}
		text = string(b)
	default:
		script = false
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if cfg.Trace {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	rtOpts := []lox.Option{
		lox.WithOutput(os.Stdout),
		lox.WithLogger(logger),
		lox.WithSourceName(source),
	}
	if cfg.HistoryDB != "" {
		st, err := store.NewSQLite(cfg.HistoryDB)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: history disabled: %v\n", err)
		} else {
			rtOpts = append(rtOpts, lox.WithStore(st))
		}
	}
	if !cfg.Stdlib {
		rtOpts = append(rtOpts, lox.WithNoStdlib())
	}
	if cfg.ShowTree {
		rtOpts = append(rtOpts, lox.WithTreeOutput(os.Stdout))
	}

	runtime := lox.New(rtOpts...)
	defer runtime.Close()

	printer := diag.NewPrinter(cfg.Color && term.IsTerminal(int(os.Stderr.Fd())))

	if listHistory {
		if err := printHistory(os.Stdout, runtime, cfg.HistoryLimit); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			runtime.Close()
			os.Exit(1)
		}
		return
	}

	if !script {
		runREPL(runtime, cfg, printer)
		return
	}

	result, err := runtime.Eval(text)
	if err != nil {
		report(os.Stderr, printer, err, text)
		runtime.Close()
		os.Exit(1)
	}
	if result != "" {
		fmt.Println(result)
	}
}

// report renders diagnostics with their source line and prints anything
// else as a plain error.
func report(w io.Writer, printer *diag.Printer, err error, text string) {
	if d, ok := diag.As(err); ok {
		printer.Render(w, d, text)
		return
	}
	fmt.Fprintf(w, "Error: %v\n", err)
}

func printHistory(w io.Writer, runtime *lox.Runtime, limit int) error {
	if !runtime.HasHistory() {
		return fmt.Errorf("history is disabled")
	}
	entries, err := runtime.History(limit)
	if err != nil {
		return err
	}
	for _, e := range entries {
		status := "ok"
		if !e.OK {
			status = "error"
		}
		fmt.Fprintf(w, "%s  %s  %dx  %s\n", e.Ts, e.Digest[:12], e.Runs, status)
		for _, line := range strings.Split(strings.TrimRight(e.Source, "\n"), "\n") {
			fmt.Fprintf(w, "    %s\n", line)
		}
		if e.Result != "" {
			fmt.Fprintf(w, "    => %s\n", e.Result)
		}
	}
	return nil
}
