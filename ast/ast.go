// Package ast defines the tinysh command tree and a pretty-printer used
// both for debug output and for the parser round-trip test property.
package ast

import "strings"

// CommandKind labels how a Command is dispatched. The parser always sets
// Simple; the executors choose built-in or external dispatch by name at
// run time and do not write that choice back into Kind.
type CommandKind int

const (
	Simple CommandKind = iota
	Builtin
	External
)

// RedirectKind is the flavor of file-descriptor redirection a Redirect
// node applies.
type RedirectKind int

const (
	In RedirectKind = iota
	Out
	Append
)

func (k RedirectKind) String() string {
	switch k {
	case In:
		return "<"
	case Append:
		return ">>"
	default:
		return ">"
	}
}

// Node is the tagged command-tree variant. Every concrete node type below
// implements it. The tree owns its nodes exclusively; nodes are never
// shared between parents.
type Node interface {
	node()
	String() string
}

// Command is a leaf node naming a program and its arguments.
type Command struct {
	Name string
	Args []string
	Kind CommandKind
}

// Pipeline chains two or more commands via OS pipes; a bare command is
// never wrapped in a Pipeline (len(Children) is always >= 2).
type Pipeline struct {
	Children []Node
}

// Redirect wraps any subtree, transiently replacing one standard file
// descriptor while Inner runs.
type Redirect struct {
	Inner Node
	Kind  RedirectKind
	File  string
}

// Sequence is an unconditional ";"-separated chain (len(Children) >= 2).
type Sequence struct {
	Children []Node
}

// And is the short-circuit "&&" operator: Right runs only if Left
// succeeds.
type And struct {
	Left, Right Node
}

// Or is the short-circuit "||" operator: Right runs only if Left fails.
type Or struct {
	Left, Right Node
}

// Subshell executes Inner in isolation: the executors run it in the
// shell's own process, not a forked child, against a copied environment
// and restore the working directory afterwards, so environment and cwd
// changes never reach the parent.
type Subshell struct {
	Inner Node
}

func (*Command) node()  {}
func (*Pipeline) node() {}
func (*Redirect) node() {}
func (*Sequence) node() {}
func (*And) node()      {}
func (*Or) node()       {}
func (*Subshell) node() {}

func (c *Command) String() string {
	parts := append([]string{c.Name}, c.Args...)
	return strings.Join(parts, " ")
}

func (p *Pipeline) String() string {
	parts := make([]string, len(p.Children))
	for i, c := range p.Children {
		parts[i] = c.String()
	}
	return strings.Join(parts, " | ")
}

func (r *Redirect) String() string {
	return r.Inner.String() + " " + r.Kind.String() + " " + r.File
}

func (s *Sequence) String() string {
	parts := make([]string, len(s.Children))
	for i, c := range s.Children {
		parts[i] = c.String()
	}
	return strings.Join(parts, "; ")
}

func (a *And) String() string { return a.Left.String() + " && " + a.Right.String() }
func (o *Or) String() string  { return o.Left.String() + " || " + o.Right.String() }
func (s *Subshell) String() string {
	return "(" + s.Inner.String() + ")"
}

// Walk calls visit on node and recursively on every child, depth-first,
// stopping a branch early when visit returns false for it.
func Walk(n Node, visit func(Node) bool) {
	if n == nil || !visit(n) {
		return
	}
	switch v := n.(type) {
	case *Command:
		// leaf
	case *Pipeline:
		for _, c := range v.Children {
			Walk(c, visit)
		}
	case *Redirect:
		Walk(v.Inner, visit)
	case *Sequence:
		for _, c := range v.Children {
			Walk(c, visit)
		}
	case *And:
		Walk(v.Left, visit)
		Walk(v.Right, visit)
	case *Or:
		Walk(v.Left, visit)
		Walk(v.Right, visit)
	case *Subshell:
		Walk(v.Inner, visit)
	}
}
