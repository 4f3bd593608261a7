package interp

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"tinysh/ast"
	"tinysh/env"
)

// runNode executes the tree-shaped constructs that require real OS
// mechanics: Command (builtin dispatch or fork/exec), Pipeline (pipe
// chain), Redirect (fd-swap) and Subshell (isolated child). Sequence,
// And and Or are orchestration-only and never reach here directly; each
// Executor strategy walks those itself and calls down into runNode for
// their operands.
func runNode(ctx context.Context, n ast.Node, en *env.Environment, stdio StdIO, rt *Runtime, self Executor) (ExecOutcome, error) {
	switch v := n.(type) {
	case *ast.Command:
		return runCommand(ctx, v, en, stdio, rt)
	case *ast.Redirect:
		return runRedirect(ctx, v, en, stdio, rt, self)
	case *ast.Pipeline:
		return runPipeline(ctx, v, en, stdio, rt, self)
	case *ast.Subshell:
		return runSubshell(ctx, v, en, stdio, rt, self)
	default:
		return Code(1), fmt.Errorf("interp: unexpected node type %T in leaf position", n)
	}
}

// runCommand dispatches in the order spec'd: a registered built-in runs
// in the current process with direct access to en and stdio; otherwise
// the Path Resolver looks the name up and it is forked/exec'd.
func runCommand(ctx context.Context, c *ast.Command, en *env.Environment, stdio StdIO, rt *Runtime) (ExecOutcome, error) {
	if b, ok := rt.Builtins[c.Name]; ok {
		return b(ctx, c.Args, en, stdio)
	}
	path, ok := resolvePath(en, c.Name)
	if !ok {
		return commandNotFound(stdio.Stderr, c.Name), nil
	}
	return runExternal(ctx, path, c.Name, c.Args, en, stdio)
}

func runExternal(ctx context.Context, path, name string, args []string, en *env.Environment, stdio StdIO) (ExecOutcome, error) {
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Args = append([]string{name}, args...)
	cmd.Env = en.ExportedPairs()
	cmd.Stdin = stdio.Stdin
	cmd.Stdout = stdio.Stdout
	cmd.Stderr = stdio.Stderr
	if wd, err := os.Getwd(); err == nil {
		cmd.Dir = wd
	}
	err := cmd.Run()
	if err == nil {
		return Code(0), nil
	}
	if code, ok := exitCodeFromError(err); ok {
		return Code(code), nil
	}
	return Code(1), ioErr(err)
}

// resolvePath implements the Path Resolver: a name containing '/' is a
// literal path that must exist and be a regular file; otherwise PATH is
// searched left to right and the first matching regular file wins.
func resolvePath(en *env.Environment, name string) (string, bool) {
	if strings.Contains(name, "/") {
		if isRegularFile(name) {
			return name, true
		}
		return "", false
	}
	pathVar, ok := en.Get("PATH")
	if !ok || pathVar == "" {
		return "", false
	}
	for _, dir := range strings.Split(pathVar, ":") {
		if dir == "" {
			continue
		}
		candidate := filepath.Join(dir, name)
		if isRegularFile(candidate) {
			return candidate, true
		}
	}
	return "", false
}

func isRegularFile(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.Mode().IsRegular()
}

// runRedirect collects a stack of nested Redirect wrappers and opens
// their files innermost-first, so that "cmd > a < b" (parsed as
// Redirect(Redirect(cmd, Out, a), In, b)) opens a before b, matching
// left-to-right source order. Restoration is automatic: every opened
// *os.File is closed via defer once the wrapped subtree returns.
func runRedirect(ctx context.Context, r *ast.Redirect, en *env.Environment, stdio StdIO, rt *Runtime, self Executor) (ExecOutcome, error) {
	chain, leaf := redirectChain(r)

	var opened []*os.File
	defer func() {
		for _, f := range opened {
			f.Close()
		}
	}()

	cur := stdio
	for i := len(chain) - 1; i >= 0; i-- {
		red := chain[i]
		f, err := openRedirectFile(red)
		if err != nil {
			return Code(1), ioErr(err)
		}
		opened = append(opened, f)
		switch red.Kind {
		case ast.In:
			cur.Stdin = f
		case ast.Out, ast.Append:
			cur.Stdout = f
		}
	}
	return runNode(ctx, leaf, en, cur, rt, self)
}

// redirectChain walks down a nested Redirect wrapper, returning the
// chain from outermost to innermost plus the wrapped leaf node.
func redirectChain(r *ast.Redirect) ([]*ast.Redirect, ast.Node) {
	var chain []*ast.Redirect
	var leaf ast.Node = r
	for cur, ok := leaf.(*ast.Redirect); ok; cur, ok = leaf.(*ast.Redirect) {
		chain = append(chain, cur)
		leaf = cur.Inner
	}
	return chain, leaf
}

func openRedirectFile(r *ast.Redirect) (*os.File, error) {
	switch r.Kind {
	case ast.In:
		return os.Open(r.File)
	case ast.Out:
		return os.OpenFile(r.File, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	default: // Append
		return os.OpenFile(r.File, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	}
}

// runSubshell emulates "an isolated child process with copied
// environment" without an actual OS fork: Go's runtime cannot safely
// fork and keep running arbitrary Go code in the child (only
// fork-then-immediately-exec, as os/exec does, is supported), so tinysh
// instead runs the inner tree in-process against a cloned Environment
// and a saved/restored working directory. This reproduces the two
// observable guarantees spec'd for Subshell (env mutations and cwd
// changes never escape) without the unsoundness of a raw fork.
func runSubshell(ctx context.Context, s *ast.Subshell, en *env.Environment, stdio StdIO, rt *Runtime, self Executor) (ExecOutcome, error) {
	subEnv := en.Clone()
	savedWd, err := os.Getwd()
	if err != nil {
		return Code(1), ioErr(err)
	}
	defer os.Chdir(savedWd)

	outcome, err := self.Exec(ctx, s.Inner, subEnv, stdio)
	if outcome.IsExit {
		// exit inside a subshell always terminates only the subshell,
		// since a subshell is "always forked" per spec's resolution of
		// the corresponding open question.
		return Code(outcome.ExitCode), err
	}
	return outcome, err
}
