// tinysh is a small POSIX-like interactive shell.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"tinysh/ast"
	"tinysh/config"
	"tinysh/env"
	"tinysh/expand"
	"tinysh/history"
	"tinysh/internal/shellio"
	"tinysh/interp"
	"tinysh/parser"
	"tinysh/syntax"
)

var (
	command = flag.String("c", "", "command line to execute, then exit")
	rcfile  = flag.String("rcfile", "./.tinyshrc", "path to the startup config file")
)

func main() {
	flag.Parse()
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load(*rcfile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	en := env.New()
	for name, val := range cfg.EnvOverrides {
		en.Export(name, &val)
	}

	home, _ := en.Get("HOME")
	hist := history.New(cfg.ExpandHistoryPath(home), cfg.HistoryMax)
	if err := hist.Load(); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}

	rt := interp.NewRuntime(hist, parseLine)
	ex := newExecutor(cfg.ExecutorType, rt)
	rt.Parse = func(line string) (ast.Node, error) {
		return parseAndExpand(line, en, rt, ex)
	}

	defer flushHistory(hist)

	if *command != "" {
		return runLine(ctx, *command, en, rt, ex, hist)
	}

	for _, path := range flag.Args() {
		if code := runScript(ctx, path, en, rt, ex, hist); code != 0 {
			return code
		}
	}
	if flag.NArg() > 0 {
		return 0
	}

	return runInteractive(ctx, cfg.Prompt, en, rt, ex, hist)
}

func newExecutor(kind string, rt *interp.Runtime) interp.Executor {
	if kind == "recursive" {
		return interp.NewRecursiveExecutor(rt)
	}
	return interp.NewFlattenExecutor(rt)
}

// parseLine lexes and parses a raw line, without expansion. NewRuntime
// receives it as the initial Runtime.Parse, which run then replaces with
// parseAndExpand so that a command substitution's line is expanded
// before RunCaptured executes it.
func parseLine(line string) (ast.Node, error) {
	toks, err := syntax.Lex(line)
	if err != nil {
		return nil, err
	}
	return parser.Parse(toks)
}

// parseAndExpand lexes, parses and statically expands a line, wiring
// command substitution back through ex so `$(...)` runs as a genuine
// subshell against rt.
func parseAndExpand(line string, en *env.Environment, rt *interp.Runtime, ex interp.Executor) (ast.Node, error) {
	n, err := parseLine(line)
	if err != nil {
		return nil, err
	}
	exp := expand.New(en, func(sub string) (string, error) {
		return rt.RunCaptured(context.Background(), ex, sub, en)
	})
	return exp.Node(n)
}

func runLine(ctx context.Context, line string, en *env.Environment, rt *interp.Runtime, ex interp.Executor, hist *history.Manager) int {
	n, err := parseAndExpand(line, en, rt, ex)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	outcome, err := ex.Exec(ctx, n, en, interp.StdStdIO())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if outcome.IsExit {
		return outcome.ExitCode
	}
	return outcome.Code
}

func runScript(ctx context.Context, path string, en *env.Environment, rt *interp.Runtime, ex interp.Executor, hist *history.Manager) int {
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		hist.Add(line)
		if code := runLine(ctx, line, en, rt, ex, hist); code != 0 {
			return code
		}
	}
	return 0
}

func runInteractive(ctx context.Context, prompt string, en *env.Environment, rt *interp.Runtime, ex interp.Executor, hist *history.Manager) int {
	in := shellio.New(os.Stdin, os.Stdout, os.Stdin.Fd())
	for {
		select {
		case <-ctx.Done():
			return 0
		default:
		}

		line, err := in.ReadLine(prompt)
		if err != nil {
			if errors.Is(err, shellio.ErrEOF) {
				return 0
			}
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		hist.Add(line)

		n, err := parseAndExpand(line, en, rt, ex)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			continue
		}
		outcome, err := ex.Exec(ctx, n, en, interp.StdStdIO())
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			continue
		}
		if outcome.IsExit {
			return outcome.ExitCode
		}
	}
}

// flushHistory persists hist, reporting but never failing the shell on
// a save error (spec.md §7: persistence errors don't change exit status).
// The history write and the final terminal courtesy newline run as a
// concurrent teardown pair through history.FlushAll, so a SIGINT landing
// mid-write doesn't leave the prompt cursor sitting mid-line.
func flushHistory(hist *history.Manager) {
	err := history.FlushAll(context.Background(),
		hist.Flush,
		func(context.Context) error {
			fmt.Fprintln(os.Stdout)
			return nil
		},
	)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
}
