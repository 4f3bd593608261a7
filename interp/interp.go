// Package interp implements the executor: it walks a tinysh command tree,
// forking external processes, wiring pipes, applying redirections and
// running built-ins, and reports exit status.
package interp

import (
	"context"
	"fmt"
	"io"
	"os"

	"tinysh/ast"
	"tinysh/env"
	"tinysh/history"
)

// ExecOutcome is the result of executing a node: either a plain exit
// code, or an Exit that should unwind the whole REPL loop.
type ExecOutcome struct {
	Code     int
	IsExit   bool
	ExitCode int
}

// Code builds a plain, non-unwinding outcome.
func Code(n int) ExecOutcome { return ExecOutcome{Code: n} }

// Exit builds an outcome that unwinds the REPL loop with status n.
func Exit(n int) ExecOutcome { return ExecOutcome{Code: n, IsExit: true, ExitCode: n} }

// IOError wraps an I/O failure encountered while spawning, opening a
// redirect target, or wiring a pipe.
type IOError struct{ Err error }

func (e *IOError) Error() string { return e.Err.Error() }
func (e *IOError) Unwrap() error { return e.Err }

func ioErr(err error) error {
	if err == nil {
		return nil
	}
	return &IOError{Err: err}
}

// StdIO is the explicit stdio triple threaded through the executor's
// recursive walk. Passing these down as values, rather than mutating the
// process's real file descriptors 0/1/2 with dup2, gives built-ins and
// externals alike the correct redirected stream while keeping restoration
// automatic (it falls out of the call stack unwinding) instead of
// requiring a manually paired save/restore dup2 dance.
type StdIO struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Builtin is the contract every built-in command implements: given its
// arguments, the shell environment and its current stdio, produce an
// outcome. Builtins needing shared state (history) close over it.
type Builtin func(ctx context.Context, args []string, en *env.Environment, io StdIO) (ExecOutcome, error)

// CmdSubstFunc matches expand.CmdSubstFunc without importing the expand
// package (which imports ast, not interp) to avoid a dependency cycle;
// cmd/tinysh wires Runtime.RunCaptured into an expand.CmdSubstFunc.
type CmdSubstFunc func(line string) (string, error)

// Runtime is the shared, long-lived state every Executor strategy reads:
// the built-in registry and the history manager `history` needs
// read/write access to.
type Runtime struct {
	Builtins map[string]Builtin
	History  *history.Manager
	// Parse compiles a raw command line into a tree, used by command
	// substitution and by RunCaptured. It is set by cmd/tinysh to close
	// over the lexer, parser and expander, keeping interp free of a parser import
	// cycle concern (parser does not depend on interp).
	Parse func(line string) (ast.Node, error)
}

// NewRuntime builds a Runtime with the standard built-in registry.
func NewRuntime(h *history.Manager, parse func(string) (ast.Node, error)) *Runtime {
	rt := &Runtime{History: h, Parse: parse}
	rt.Builtins = newBuiltins(rt)
	return rt
}

// Executor is the interface both the recursive and flatten strategies
// satisfy; both must produce identical results for the same tree.
type Executor interface {
	Exec(ctx context.Context, n ast.Node, en *env.Environment, io StdIO) (ExecOutcome, error)
}

// StdStdIO is the process's real standard streams, used as the top-level
// StdIO for a fresh Exec call from the REPL.
func StdStdIO() StdIO {
	return StdIO{Stdin: os.Stdin, Stdout: os.Stdout, Stderr: os.Stderr}
}

// RunCaptured lexes, parses and executes line using ex, capturing its
// stdout. It backs command substitution. Env mutations performed by line
// never escape to the caller's environment, matching Subshell isolation.
func (rt *Runtime) RunCaptured(ctx context.Context, ex Executor, line string, en *env.Environment) (string, error) {
	n, err := rt.Parse(line)
	if err != nil {
		return "", err
	}
	var buf captureWriter
	sub := en.Clone()
	_, err = ex.Exec(ctx, n, sub, StdIO{Stdin: os.Stdin, Stdout: &buf, Stderr: os.Stderr})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

type captureWriter struct{ b []byte }

func (c *captureWriter) Write(p []byte) (int, error) {
	c.b = append(c.b, p...)
	return len(p), nil
}

func (c *captureWriter) String() string { return string(c.b) }

// commandNotFound prints the standard message and returns the spec'd
// exit status 127.
func commandNotFound(stderr io.Writer, name string) ExecOutcome {
	fmt.Fprintf(stderr, "%s: command not found\n", name)
	return Code(127)
}
