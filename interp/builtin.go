package interp

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"

	"tinysh/env"
)

// newBuiltins returns the standard registry, spec.md §4.5. history needs
// read/write access to rt.History; capturing rt in each closure is how a
// built-in reaches shared state without the registry itself becoming
// stateful.
func newBuiltins(rt *Runtime) map[string]Builtin {
	return map[string]Builtin{
		"cd":      builtinCd,
		"exit":    builtinExit,
		"export":  builtinExport,
		"help":    builtinHelp(rt),
		"history": builtinHistory(rt),
	}
}

func builtinCd(ctx context.Context, args []string, en *env.Environment, stdio StdIO) (ExecOutcome, error) {
	var dir string
	switch len(args) {
	case 0:
		home, ok := en.Get("HOME")
		if !ok || home == "" {
			fmt.Fprintln(stdio.Stderr, "cd: HOME not set")
			return Code(1), nil
		}
		dir = home
	case 1:
		dir = args[0]
	default:
		fmt.Fprintln(stdio.Stderr, "cd: too many arguments")
		return Code(1), nil
	}
	if err := os.Chdir(dir); err != nil {
		fmt.Fprintf(stdio.Stderr, "cd: %s\n", err)
		return Code(1), nil
	}
	return Code(0), nil
}

func builtinExit(ctx context.Context, args []string, en *env.Environment, stdio StdIO) (ExecOutcome, error) {
	switch len(args) {
	case 0:
		return Exit(0), nil
	case 1:
		n, err := strconv.Atoi(args[0])
		if err != nil {
			fmt.Fprintf(stdio.Stderr, "exit: %s: numeric argument required\n", args[0])
			return Code(1), nil
		}
		return Exit(n), nil
	default:
		fmt.Fprintln(stdio.Stderr, "exit: too many arguments")
		return Code(1), nil
	}
}

func builtinExport(ctx context.Context, args []string, en *env.Environment, stdio StdIO) (ExecOutcome, error) {
	if len(args) == 0 {
		fmt.Fprintln(stdio.Stderr, "export: usage: export NAME[=VALUE]")
		return Code(1), nil
	}
	for _, arg := range args {
		name, val, hasVal := splitAssignment(arg)
		if hasVal {
			en.Export(name, &val)
		} else {
			en.Export(name, nil)
		}
	}
	return Code(0), nil
}

// splitAssignment splits "NAME=VALUE" into its parts; "NAME" alone
// reports hasVal=false so export leaves an existing value untouched.
func splitAssignment(s string) (name, val string, hasVal bool) {
	for i := 0; i < len(s); i++ {
		if s[i] == '=' {
			return s[:i], s[i+1:], true
		}
	}
	return s, "", false
}

func builtinHelp(rt *Runtime) Builtin {
	return func(ctx context.Context, args []string, en *env.Environment, stdio StdIO) (ExecOutcome, error) {
		names := make([]string, 0, len(rt.Builtins))
		for name := range rt.Builtins {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintln(stdio.Stdout, name)
		}
		return Code(0), nil
	}
}

func builtinHistory(rt *Runtime) Builtin {
	return func(ctx context.Context, args []string, en *env.Environment, stdio StdIO) (ExecOutcome, error) {
		if rt.History == nil {
			return Code(0), nil
		}
		if len(args) > 0 && (args[0] == "-c" || args[0] == "--clear") {
			n := rt.History.Clear()
			fmt.Fprintf(stdio.Stdout, "cleared %d entries\n", n)
			return Code(0), nil
		}
		limit := 0
		if len(args) > 0 {
			n, err := strconv.Atoi(args[0])
			if err != nil || n < 0 {
				fmt.Fprintf(stdio.Stderr, "history: %s: numeric argument required\n", args[0])
				return Code(1), nil
			}
			limit = n
		}
		entries := rt.History.Entries(limit)
		first := rt.History.Len() - len(entries) + 1
		for i, e := range entries {
			fmt.Fprintf(stdio.Stdout, "%5d  %s\n", first+i, e)
		}
		return Code(0), nil
	}
}
