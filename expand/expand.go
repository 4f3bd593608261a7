// Package expand implements the static expansion pass: tilde, variable,
// command substitution and glob expansion over a parsed command tree.
package expand

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"tinysh/ast"
	"tinysh/env"
)

// TildeExpandError reports a failure to resolve a leading "~" because
// HOME could not be determined.
type TildeExpandError struct{}

func (TildeExpandError) Error() string { return "tilde expansion failed: HOME is not set" }

// CmdSubstFunc runs line as a tinysh command line in a subshell and
// returns its captured, trailing-newline-stripped stdout. The interp
// package supplies the real implementation; nil leaves command
// substitution as a documented no-op (the pattern survives unchanged),
// per spec's allowance for a stub implementation.
type CmdSubstFunc func(line string) (string, error)

// Expander holds the collaborators needed to expand words: the variable
// store and (optionally) a way to run command substitutions.
type Expander struct {
	Env      *env.Environment
	CmdSubst CmdSubstFunc
}

var varNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z_0-9]*`)

// New builds an Expander over env. A nil CmdSubst leaves $(...) and
// backtick substitutions as literal, unparsed text.
func New(e *env.Environment, cmdSubst CmdSubstFunc) *Expander {
	return &Expander{Env: e, CmdSubst: cmdSubst}
}

// Node expands every Command name/args and every Redirect.File within n,
// returning a new tree; every node is rebuilt and the input is never
// mutated in place.
func (x *Expander) Node(n ast.Node) (ast.Node, error) {
	switch v := n.(type) {
	case nil:
		return nil, nil
	case *ast.Command:
		return x.command(v)
	case *ast.Pipeline:
		children := make([]ast.Node, len(v.Children))
		for i, c := range v.Children {
			ec, err := x.Node(c)
			if err != nil {
				return nil, err
			}
			children[i] = ec
		}
		return &ast.Pipeline{Children: children}, nil
	case *ast.Redirect:
		inner, err := x.Node(v.Inner)
		if err != nil {
			return nil, err
		}
		file, err := x.word(v.File)
		if err != nil {
			return nil, err
		}
		files := splitFields(file)
		target := v.File
		if len(files) > 0 {
			target = files[0]
		}
		return &ast.Redirect{Inner: inner, Kind: v.Kind, File: target}, nil
	case *ast.Sequence:
		children := make([]ast.Node, len(v.Children))
		for i, c := range v.Children {
			ec, err := x.Node(c)
			if err != nil {
				return nil, err
			}
			children[i] = ec
		}
		return &ast.Sequence{Children: children}, nil
	case *ast.And:
		l, err := x.Node(v.Left)
		if err != nil {
			return nil, err
		}
		r, err := x.Node(v.Right)
		if err != nil {
			return nil, err
		}
		return &ast.And{Left: l, Right: r}, nil
	case *ast.Or:
		l, err := x.Node(v.Left)
		if err != nil {
			return nil, err
		}
		r, err := x.Node(v.Right)
		if err != nil {
			return nil, err
		}
		return &ast.Or{Left: l, Right: r}, nil
	case *ast.Subshell:
		inner, err := x.Node(v.Inner)
		if err != nil {
			return nil, err
		}
		return &ast.Subshell{Inner: inner}, nil
	default:
		return nil, fmt.Errorf("expand: unknown node type %T", n)
	}
}

func (x *Expander) command(c *ast.Command) (*ast.Command, error) {
	name, err := x.word(c.Name)
	if err != nil {
		return nil, err
	}
	nameFields := splitFields(name)
	var args []string
	if len(nameFields) > 1 {
		args = append(args, nameFields[1:]...)
	}
	for _, a := range c.Args {
		w, err := x.word(a)
		if err != nil {
			return nil, err
		}
		args = append(args, splitFields(w)...)
	}
	newName := name
	if len(nameFields) > 0 {
		newName = nameFields[0]
	}
	return &ast.Command{Name: newName, Args: args, Kind: c.Kind}, nil
}

// word runs the four expansion passes, in order, over a single word.
func (x *Expander) word(w string) (string, error) {
	w, err := x.tilde(w)
	if err != nil {
		return "", err
	}
	w, err = x.variables(w)
	if err != nil {
		return "", err
	}
	w, err = x.cmdSubst(w)
	if err != nil {
		return "", err
	}
	return x.glob(w), nil
}

// tilde expands a leading "~" not followed by an identifier into HOME.
func (x *Expander) tilde(w string) (string, error) {
	if !strings.HasPrefix(w, "~") {
		return w, nil
	}
	rest := w[1:]
	if len(rest) > 0 {
		c := rest[0]
		if c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
			return w, nil // "~foo" is not a plain HOME reference
		}
	}
	home, ok := x.Env.Get("HOME")
	if !ok || home == "" {
		return "", TildeExpandError{}
	}
	return home + rest, nil
}

// variables substitutes $NAME and ${NAME} with the environment value (or
// empty string if unset). A backslash escapes the following byte
// verbatim, including '$'.
func (x *Expander) variables(w string) (string, error) {
	var out strings.Builder
	for i := 0; i < len(w); i++ {
		c := w[i]
		switch {
		case c == '\\' && i+1 < len(w):
			out.WriteByte(w[i+1])
			i++
		case c == '$' && i+1 < len(w) && w[i+1] == '{':
			end := strings.IndexByte(w[i+2:], '}')
			if end < 0 {
				out.WriteByte(c)
				continue
			}
			name := w[i+2 : i+2+end]
			val, _ := x.Env.Get(name)
			out.WriteString(val)
			i += 2 + end
		case c == '$' && i+1 < len(w):
			loc := varNameRe.FindString(w[i+1:])
			if loc == "" {
				out.WriteByte(c)
				continue
			}
			val, _ := x.Env.Get(loc)
			out.WriteString(val)
			i += len(loc)
		default:
			out.WriteByte(c)
		}
	}
	return out.String(), nil
}

// cmdSubst recognizes $(...) and `...` and replaces them with captured
// command output. With no CmdSubst hook configured, the pattern is
// returned unchanged, per spec's documented-stub allowance.
func (x *Expander) cmdSubst(w string) (string, error) {
	if x.CmdSubst == nil {
		return w, nil
	}
	var out strings.Builder
	i := 0
	for i < len(w) {
		switch {
		case strings.HasPrefix(w[i:], "$("):
			end := matchParen(w, i+2)
			if end < 0 {
				out.WriteString(w[i:])
				return out.String(), nil
			}
			res, err := x.CmdSubst(w[i+2 : end])
			if err != nil {
				return "", err
			}
			out.WriteString(strings.TrimRight(res, "\n"))
			i = end + 1
		case w[i] == '`':
			end := strings.IndexByte(w[i+1:], '`')
			if end < 0 {
				out.WriteString(w[i:])
				return out.String(), nil
			}
			res, err := x.CmdSubst(w[i+1 : i+1+end])
			if err != nil {
				return "", err
			}
			out.WriteString(strings.TrimRight(res, "\n"))
			i = i + 1 + end + 1
		default:
			out.WriteByte(w[i])
			i++
		}
	}
	return out.String(), nil
}

// matchParen finds the index of the ')' matching the '(' implicitly
// opened at start (start points just past "$("), honoring nested parens.
func matchParen(w string, start int) int {
	depth := 1
	for i := start; i < len(w); i++ {
		switch w[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

var globMetaRe = regexp.MustCompile(`[*?\[]`)

// glob expands a word containing unescaped glob metacharacters against
// the working directory. A pattern with no matches survives unchanged.
func (x *Expander) glob(w string) string {
	if !globMetaRe.MatchString(w) {
		return w
	}
	matches, err := filepath.Glob(w)
	if err != nil || len(matches) == 0 {
		return w
	}
	return strings.Join(matches, " ")
}

// splitFields performs the limited field splitting spec'd for
// expansion: the resulting string is split on spaces so that a glob or
// variable expansion that produced multiple tokens becomes multiple
// arguments.
func splitFields(s string) []string {
	return strings.Fields(s)
}
