// Command principia is the CLI entrypoint: it processes file arguments
// into a single shared State (spec.md §6), renders diagnostics to the
// console with isatty-gated coloring the way the teacher's term builtins
// detect color support (internal/evaluator/builtins_term.go's
// detectColorLevel: NO_COLOR, then isatty.IsTerminal/IsCygwinTerminal),
// and optionally starts the RPC front end and opens the theorem ledger
// per principia.yaml (internal/config).
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/principia-lang/principia/internal/config"
	"github.com/principia-lang/principia/internal/diagnostics"
	"github.com/principia-lang/principia/internal/driver"
	"github.com/principia-lang/principia/internal/ledger"
	"github.com/principia-lang/principia/internal/rpcserver"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, "usage: principia FILE...")
		return 2
	}

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	d := driver.New()
	d.State.Strict = cfg.Strict
	sink := newConsoleSink(stdout, colorEnabled(stdout))

	if cfg.LedgerPath != "" {
		led, err := ledger.Open(cfg.LedgerPath)
		if err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		defer led.Close()
		d.State.Ledger = led
	}

	for _, file := range args {
		d.ProcessFile(file, sink)
	}
	for _, src := range cfg.Sources {
		d.ProcessFile(src, sink)
	}

	if sink.hasErrors() {
		return 1
	}

	if cfg.RPCAddr != "" {
		srv := rpcserver.New(d, cfg.RPCAddr)
		fmt.Fprintf(stdout, "serving Principia RPC on %s\n", cfg.RPCAddr)
		if err := srv.Serve(); err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
	}

	return 0
}

func loadConfig() (*config.Config, error) {
	path, err := config.FindConfig(".")
	if err != nil {
		return nil, err
	}
	if path == "" {
		return config.Default(), nil
	}
	return config.LoadConfig(path)
}

// colorEnabled mirrors the teacher's NO_COLOR + isatty gate, minus the
// 256/truecolor tiering this CLI's plain diagnostic lines don't need.
func colorEnabled(out io.Writer) bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	f, ok := out.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// consoleSink renders diagnostics to a writer, colorizing by Kind when
// color is enabled, and counts non-notice diagnostics so run() can decide
// the process exit code.
type consoleSink struct {
	out      io.Writer
	color    bool
	errCount int
}

func newConsoleSink(out io.Writer, color bool) *consoleSink {
	return &consoleSink{out: out, color: color}
}

func (s *consoleSink) hasErrors() bool { return s.errCount > 0 }

const (
	ansiRed    = "\x1b[31m"
	ansiYellow = "\x1b[33m"
	ansiReset  = "\x1b[0m"
)

func (s *consoleSink) Report(d diagnostics.Diagnostic) {
	switch d.Kind {
	case diagnostics.SorryNotice, diagnostics.LedgerHit:
		// informational, does not affect exit status
	default:
		s.errCount++
	}

	label := d.Kind.String()
	color := ansiRed
	if d.Kind == diagnostics.SorryNotice || d.Kind == diagnostics.LedgerHit {
		color = ansiYellow
	}

	location := d.File
	if d.Name != "" {
		if location != "" {
			location += ":"
		}
		location += d.Name
	}

	if s.color {
		fmt.Fprintf(s.out, "%s%s%s: %s: %s\n", color, label, ansiReset, location, d.Message)
	} else {
		fmt.Fprintf(s.out, "%s: %s: %s\n", label, location, d.Message)
	}
}
