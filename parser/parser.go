// Package parser implements a recursive-descent parser turning a tinysh
// token stream into a command tree (ast.Node).
package parser

import (
	"fmt"

	"tinysh/ast"
	"tinysh/token"
)

// ParseError is the common error type for every parser failure; Pos is a
// byte offset into the line that produced the failing token.
type ParseError struct {
	Pos token.Pos
	Msg string
}

func (e *ParseError) Error() string { return fmt.Sprintf("%d: %s", e.Pos, e.Msg) }

func errEmptyInput() *ParseError {
	return &ParseError{Msg: "empty input"}
}

func errUnexpectedEOF(pos token.Pos) *ParseError {
	return &ParseError{Pos: pos, Msg: "unexpected end of input"}
}

func errUnexpectedToken(found token.Kind, expected string, pos token.Pos) *ParseError {
	return &ParseError{Pos: pos, Msg: fmt.Sprintf("unexpected token %s, expected %s", found, expected)}
}

func errUnmatchedParen(pos token.Pos) *ParseError {
	return &ParseError{Pos: pos, Msg: "unmatched '('"}
}

// parser walks a token slice with a mutable position cursor, the same
// shape as a hand-written recursive-descent parser over pre-lexed input.
type parser struct {
	toks []token.Token
	pos  int
}

// Parse turns a token stream (as produced by syntax.Lex) into a command
// tree. toks must end with exactly one Eof token.
func Parse(toks []token.Token) (ast.Node, error) {
	if len(toks) == 0 || toks[0].Kind == token.Eof {
		return nil, errEmptyInput()
	}
	p := &parser{toks: toks}
	n, err := p.sequence()
	if err != nil {
		return nil, err
	}
	if p.cur().Kind != token.Eof {
		return nil, errUnexpectedToken(p.cur().Kind, "';', '&&', '||', '|' or end of input", p.cur().Span.Start)
	}
	return n, nil
}

func (p *parser) cur() token.Token {
	return p.toks[p.pos]
}

func (p *parser) advance() token.Token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

// sequence := and_or (";" and_or)*
func (p *parser) sequence() (ast.Node, error) {
	first, err := p.andOr()
	if err != nil {
		return nil, err
	}
	children := []ast.Node{first}
	for p.cur().Kind == token.Semicolon {
		p.advance()
		if p.cur().Kind == token.Eof || p.cur().Kind == token.RParen {
			break // trailing ";" is tolerated, matching a final no-op statement
		}
		n, err := p.andOr()
		if err != nil {
			return nil, err
		}
		children = append(children, n)
	}
	if len(children) == 1 {
		return children[0], nil
	}
	return &ast.Sequence{Children: children}, nil
}

// and_or := pipeline (("&&" | "||") pipeline)*, left-associative.
func (p *parser) andOr() (ast.Node, error) {
	left, err := p.pipeline()
	if err != nil {
		return nil, err
	}
	for p.cur().Kind == token.And || p.cur().Kind == token.Or {
		op := p.advance()
		right, err := p.pipeline()
		if err != nil {
			return nil, err
		}
		if op.Kind == token.And {
			left = &ast.And{Left: left, Right: right}
		} else {
			left = &ast.Or{Left: left, Right: right}
		}
	}
	return left, nil
}

// pipeline := redirected ("|" redirected)+ | redirected
func (p *parser) pipeline() (ast.Node, error) {
	first, err := p.redirected()
	if err != nil {
		return nil, err
	}
	if p.cur().Kind != token.Pipe {
		return first, nil
	}
	children := []ast.Node{first}
	for p.cur().Kind == token.Pipe {
		p.advance()
		n, err := p.redirected()
		if err != nil {
			return nil, err
		}
		children = append(children, n)
	}
	return &ast.Pipeline{Children: children}, nil
}

// redirected := atom (redirect)*
//
// The first redirect encountered wraps the atom directly, becoming the
// innermost Redirect node; subsequent redirects wrap outward. This makes
// execution, which applies the innermost redirect first, observe
// redirections in left-to-right source order.
func (p *parser) redirected() (ast.Node, error) {
	n, err := p.atom()
	if err != nil {
		return nil, err
	}
	for {
		var kind ast.RedirectKind
		switch p.cur().Kind {
		case token.RedirectIn:
			kind = ast.In
		case token.RedirectOut:
			kind = ast.Out
		case token.RedirectAppend:
			kind = ast.Append
		default:
			return n, nil
		}
		p.advance()
		if p.cur().Kind != token.Word {
			return nil, errUnexpectedToken(p.cur().Kind, "word", p.cur().Span.Start)
		}
		file := p.advance().Lexeme
		n = &ast.Redirect{Inner: n, Kind: kind, File: file}
	}
}

// atom := "(" sequence ")" | WORD+
func (p *parser) atom() (ast.Node, error) {
	switch p.cur().Kind {
	case token.LParen:
		openPos := p.cur().Span.Start
		p.advance()
		inner, err := p.sequence()
		if err != nil {
			return nil, err
		}
		if p.cur().Kind != token.RParen {
			return nil, errUnmatchedParen(openPos)
		}
		p.advance()
		return &ast.Subshell{Inner: inner}, nil
	case token.Word:
		words := []string{p.advance().Lexeme}
		for p.cur().Kind == token.Word {
			words = append(words, p.advance().Lexeme)
		}
		return &ast.Command{Name: words[0], Args: words[1:], Kind: ast.Simple}, nil
	case token.Eof:
		return nil, errUnexpectedEOF(p.cur().Span.Start)
	default:
		return nil, errUnexpectedToken(p.cur().Kind, "'(' or word", p.cur().Span.Start)
	}
}
