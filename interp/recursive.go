package interp

import (
	"context"

	"tinysh/ast"
	"tinysh/env"
)

// RecursiveExecutor walks the command tree with direct Go recursion: it
// mirrors the call stack onto the tree's own nesting, using the parent
// to save/restore state around each subtree exactly as the tree shape
// demands.
type RecursiveExecutor struct {
	rt *Runtime
}

// NewRecursiveExecutor builds the recursive strategy over rt.
func NewRecursiveExecutor(rt *Runtime) *RecursiveExecutor {
	return &RecursiveExecutor{rt: rt}
}

func (e *RecursiveExecutor) Exec(ctx context.Context, n ast.Node, en *env.Environment, stdio StdIO) (ExecOutcome, error) {
	return e.exec(ctx, n, en, stdio)
}

func (e *RecursiveExecutor) exec(ctx context.Context, n ast.Node, en *env.Environment, stdio StdIO) (ExecOutcome, error) {
	switch v := n.(type) {
	case *ast.Sequence:
		var last ExecOutcome
		for _, c := range v.Children {
			outcome, err := e.exec(ctx, c, en, stdio)
			if err != nil {
				return outcome, err
			}
			last = outcome
			if outcome.IsExit {
				return last, nil
			}
		}
		return last, nil
	case *ast.And:
		left, err := e.exec(ctx, v.Left, en, stdio)
		if err != nil || left.IsExit || left.Code != 0 {
			return left, err
		}
		return e.exec(ctx, v.Right, en, stdio)
	case *ast.Or:
		left, err := e.exec(ctx, v.Left, en, stdio)
		if err != nil || left.IsExit || left.Code == 0 {
			return left, err
		}
		return e.exec(ctx, v.Right, en, stdio)
	default:
		return runNode(ctx, n, en, stdio, e.rt, e)
	}
}
