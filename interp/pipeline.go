package interp

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"tinysh/ast"
	"tinysh/env"
)

// stageResult is what a started stage eventually produces.
type stageResult struct {
	outcome ExecOutcome
	err     error
}

// stageHandle lets the pipeline wait for a started stage, whether it is
// a real child process or an in-process goroutine standing in for one.
type stageHandle struct {
	wait func() (ExecOutcome, error)
}

func immediateHandle(outcome ExecOutcome, err error) stageHandle {
	return stageHandle{wait: func() (ExecOutcome, error) { return outcome, err }}
}

// runPipeline wires an n-stage pipe chain and runs every stage, per
// spec.md §4.3: stages are spawned left to right, each stage's stdin is
// the previous stage's pipe read end (or the pipeline's own stdin for
// stage 0), each stage's stdout is the next stage's pipe write end (or
// the pipeline's own stdout for the last stage). Every spawned stage is
// waited for, in start order, once all are spawned; the pipeline's exit
// status is the last stage's.
func runPipeline(ctx context.Context, p *ast.Pipeline, en *env.Environment, stdio StdIO, rt *Runtime, self Executor) (ExecOutcome, error) {
	n := len(p.Children)
	var handles []stageHandle
	var prevRead *os.File

	reapStarted := func() {
		for _, h := range handles {
			h.wait()
		}
	}

	for i := 0; i < n; i++ {
		var readEnd, writeEnd *os.File
		if i < n-1 {
			r, w, err := os.Pipe()
			if err != nil {
				if prevRead != nil {
					prevRead.Close()
				}
				reapStarted()
				return Code(1), ioErr(err)
			}
			readEnd, writeEnd = r, w
		}

		stageIO := stdio
		if prevRead != nil {
			stageIO.Stdin = prevRead
		}
		if writeEnd != nil {
			stageIO.Stdout = writeEnd
		}

		h, err := startStage(ctx, p.Children[i], en, stageIO, rt, self)

		// The parent's copies of the pipe ends it handed to the child are
		// no longer needed once the stage owns them; closing them here
		// (rather than only at the very end) is what lets a downstream
		// reader observe EOF once its upstream writer finishes.
		if prevRead != nil {
			prevRead.Close()
		}
		if writeEnd != nil {
			writeEnd.Close()
		}

		if err != nil {
			if readEnd != nil {
				readEnd.Close()
			}
			reapStarted()
			return Code(1), ioErr(err)
		}

		handles = append(handles, h)
		prevRead = readEnd
	}

	var last ExecOutcome
	var firstErr error
	for _, h := range handles {
		outcome, err := h.wait()
		last = outcome
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return last, firstErr
}

// startStage resolves a pipeline stage's own redirections, then spawns
// it: an external command becomes a real child process started
// asynchronously (Start, not Run); a built-in or subshell has no
// process to fork into, so it runs on a goroutine against a cloned
// Environment instead, whose mutations are therefore discarded exactly
// as spec'd for "built-ins inside a pipeline stage".
func startStage(ctx context.Context, node ast.Node, en *env.Environment, stdio StdIO, rt *Runtime, self Executor) (stageHandle, error) {
	var chain []*ast.Redirect
	leaf := node
	for cur, ok := leaf.(*ast.Redirect); ok; cur, ok = leaf.(*ast.Redirect) {
		chain = append(chain, cur)
		leaf = cur.Inner
	}

	var opened []*os.File
	closeOpened := func() {
		for _, f := range opened {
			f.Close()
		}
	}
	cur := stdio
	for i := len(chain) - 1; i >= 0; i-- {
		red := chain[i]
		f, err := openRedirectFile(red)
		if err != nil {
			closeOpened()
			return stageHandle{}, err
		}
		opened = append(opened, f)
		switch red.Kind {
		case ast.In:
			cur.Stdin = f
		case ast.Out, ast.Append:
			cur.Stdout = f
		}
	}

	switch v := leaf.(type) {
	case *ast.Command:
		if b, ok := rt.Builtins[v.Name]; ok {
			subEnv := en.Clone()
			resCh := make(chan stageResult, 1)
			go func() {
				outcome, err := b(ctx, v.Args, subEnv, cur)
				resCh <- stageResult{outcome, err}
			}()
			return stageHandle{wait: func() (ExecOutcome, error) {
				res := <-resCh
				closeOpened()
				if res.outcome.IsExit {
					// exit in a pipeline stage ends only that stage.
					return Code(res.outcome.ExitCode), res.err
				}
				return res.outcome, res.err
			}}, nil
		}
		path, ok := resolvePath(en, v.Name)
		if !ok {
			outcome := commandNotFound(cur.Stderr, v.Name)
			closeOpened()
			return immediateHandle(outcome, nil), nil
		}
		cmd := exec.CommandContext(ctx, path, v.Args...)
		cmd.Args = append([]string{v.Name}, v.Args...)
		cmd.Env = en.ExportedPairs()
		cmd.Stdin, cmd.Stdout, cmd.Stderr = cur.Stdin, cur.Stdout, cur.Stderr
		if wd, err := os.Getwd(); err == nil {
			cmd.Dir = wd
		}
		if err := cmd.Start(); err != nil {
			closeOpened()
			return stageHandle{}, err
		}
		return stageHandle{wait: func() (ExecOutcome, error) {
			err := cmd.Wait()
			closeOpened()
			if err == nil {
				return Code(0), nil
			}
			if code, ok := exitCodeFromError(err); ok {
				return Code(code), nil
			}
			return Code(1), ioErr(err)
		}}, nil
	case *ast.Subshell:
		// NOTE: a Subshell pipeline stage runs on a goroutine (see the
		// doc comment on startStage) while runPipeline's own loop
		// immediately moves on to start the next stage. If that next
		// stage is an external command, its cmd.Dir is captured via
		// os.Getwd() in the *ast.Command case above concurrently with this
		// goroutine's os.Chdir restore — a pipeline like "(cd /tmp) |
		// someexternal" can therefore race on which working directory
		// someexternal's cmd.Dir observes. This differs from a
		// top-level Subshell (interp/exec_core.go's runSubshell), which
		// runs synchronously and has no such race. savedWd is captured
		// here, before the goroutine starts, rather than inside it, to
		// avoid a second, needless window where a concurrently-started
		// sibling stage's own chdir could be captured as "saved" instead
		// of the cwd this stage actually started with.
		savedWd, _ := os.Getwd()
		subEnv := en.Clone()
		resCh := make(chan stageResult, 1)
		go func() {
			outcome, err := self.Exec(ctx, v.Inner, subEnv, cur)
			os.Chdir(savedWd)
			resCh <- stageResult{outcome, err}
		}()
		return stageHandle{wait: func() (ExecOutcome, error) {
			res := <-resCh
			closeOpened()
			if res.outcome.IsExit {
				return Code(res.outcome.ExitCode), res.err
			}
			return res.outcome, res.err
		}}, nil
	default:
		closeOpened()
		return stageHandle{}, fmt.Errorf("interp: unsupported pipeline stage %T", leaf)
	}
}
