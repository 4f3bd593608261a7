package token

import "testing"

func TestKindString(t *testing.T) {
	tests := []struct {
		k    Kind
		want string
	}{
		{Word, "word"},
		{Pipe, "|"},
		{RedirectIn, "<"},
		{RedirectOut, ">"},
		{RedirectAppend, ">>"},
		{And, "&&"},
		{Or, "||"},
		{Semicolon, ";"},
		{LParen, "("},
		{RParen, ")"},
		{Eof, "EOF"},
		{Kind(99), "Kind(99)"},
	}
	for _, tc := range tests {
		if got := tc.k.String(); got != tc.want {
			t.Errorf("Kind(%d).String() = %q, want %q", tc.k, got, tc.want)
		}
	}
}

func TestTokenString(t *testing.T) {
	w := Token{Kind: Word, Lexeme: "hi", Span: Span{0, 2}}
	if got, want := w.String(), `word("hi")`; got != want {
		t.Errorf("Token.String() = %q, want %q", got, want)
	}
	p := Token{Kind: Pipe, Span: Span{2, 3}}
	if got, want := p.String(), "|"; got != want {
		t.Errorf("Token.String() = %q, want %q", got, want)
	}
}
