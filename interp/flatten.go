package interp

import (
	"context"

	"tinysh/ast"
	"tinysh/env"
)

// stepOp is the control-flow shape of one compiled step.
type stepOp int

const (
	opRun stepOp = iota // execute Node, record its outcome as `last`
	opAndSkip            // if last.Code != 0, skip the next step (right of &&)
	opOrSkip             // if last.Code == 0, skip the next step (right of ||)
)

type step struct {
	op   stepOp
	node ast.Node
}

// compile flattens a tree into a linear step list ahead of execution,
// per the design note in spec.md §9: Sequence is unrolled into
// consecutive steps, and each And/Or becomes a [run left, conditional
// skip, run right] triple. Pipeline/Redirect/Subshell/Command remain
// single opRun steps: their "leaf" execution still goes through runNode,
// since the OS mechanics of forking and piping aren't meaningfully
// flattenable any further.
func compile(n ast.Node) []step {
	switch v := n.(type) {
	case *ast.Sequence:
		var steps []step
		for _, c := range v.Children {
			steps = append(steps, compile(c)...)
		}
		return steps
	case *ast.And:
		steps := compile(v.Left)
		steps = append(steps, step{op: opAndSkip})
		steps = append(steps, compile(v.Right)...)
		return steps
	case *ast.Or:
		steps := compile(v.Left)
		steps = append(steps, step{op: opOrSkip})
		steps = append(steps, compile(v.Right)...)
		return steps
	default:
		// Grammar guarantee: the operand of And/Or is always a single
		// `pipeline` production (Pipeline/Redirect/Subshell/Command), so
		// this always compiles to exactly one step — opAndSkip/opOrSkip
		// can therefore skip by exactly one step to drop it.
		return []step{{op: opRun, node: n}}
	}
}

// FlattenExecutor pre-compiles the tree into a linear step list, then
// runs it with a small imperative loop instead of native recursion over
// Sequence/And/Or. Both strategies delegate to the same runNode for the
// tree-shaped constructs that require real OS mechanics.
type FlattenExecutor struct {
	rt *Runtime
}

// NewFlattenExecutor builds the flatten strategy over rt.
func NewFlattenExecutor(rt *Runtime) *FlattenExecutor {
	return &FlattenExecutor{rt: rt}
}

func (e *FlattenExecutor) Exec(ctx context.Context, n ast.Node, en *env.Environment, stdio StdIO) (ExecOutcome, error) {
	steps := compile(n)
	var last ExecOutcome
	for i := 0; i < len(steps); i++ {
		s := steps[i]
		switch s.op {
		case opAndSkip:
			if last.Code != 0 {
				i++ // skip the right-hand operand; && short-circuits
			}
			continue
		case opOrSkip:
			if last.Code == 0 {
				i++ // skip the right-hand operand; || short-circuits
			}
			continue
		}
		outcome, err := runNode(ctx, s.node, en, stdio, e.rt, e)
		if err != nil {
			return outcome, err
		}
		last = outcome
		if outcome.IsExit {
			return last, nil
		}
	}
	return last, nil
}
