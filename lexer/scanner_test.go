package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func scanAll(src string) []Token {
	s := New(src)
	var out []Token
	for {
		tok := s.ScanToken()
		out = append(out, tok)
		if tok.Type == EOF {
			return out
		}
	}
}

func TestScanPunctuationAndOperators(t *testing.T) {
	toks := scanAll("(){};,.+-*/! != = == < <= > >=")
	types := make([]TokenType, 0, len(toks))
	for _, tok := range toks {
		types = append(types, tok.Type)
	}
	assert.Equal(t, []TokenType{
		LeftParen, RightParen, LeftBrace, RightBrace, Semicolon, Comma, Dot,
		Plus, Minus, Star, Slash, Bang, BangEqual, Equal, EqualEqual,
		Less, LessEqual, Greater, GreaterEqual, EOF,
	}, types)
}

func TestScanKeywordsAndIdentifiers(t *testing.T) {
	toks := scanAll("var n = fun orchid")
	assert.Equal(t, Var, toks[0].Type)
	assert.Equal(t, Identifier, toks[1].Type)
	assert.Equal(t, Equal, toks[2].Type)
	assert.Equal(t, Fun, toks[3].Type)
	assert.Equal(t, Identifier, toks[4].Type)
	assert.Equal(t, "orchid", toks[4].Lexeme)
}

func TestScanStringAndNumber(t *testing.T) {
	toks := scanAll(`"hello" 3.5 42`)
	assert.Equal(t, String, toks[0].Type)
	assert.Equal(t, `"hello"`, toks[0].Lexeme)
	assert.Equal(t, Number, toks[1].Type)
	assert.Equal(t, "3.5", toks[1].Lexeme)
	assert.Equal(t, Number, toks[2].Type)
	assert.Equal(t, "42", toks[2].Lexeme)
}

func TestUnterminatedStringIsError(t *testing.T) {
	toks := scanAll(`"oops`)
	assert.Equal(t, Error, toks[0].Type)
}

func TestCommentsAreSkipped(t *testing.T) {
	toks := scanAll("1 // a comment\n2")
	assert.Equal(t, Number, toks[0].Type)
	assert.Equal(t, "1", toks[0].Lexeme)
	assert.Equal(t, Number, toks[1].Type)
	assert.Equal(t, "2", toks[1].Lexeme)
}

func TestLineTracking(t *testing.T) {
	toks := scanAll("1\n2\n3")
	assert.Equal(t, 1, toks[0].Line)
	assert.Equal(t, 2, toks[1].Line)
	assert.Equal(t, 3, toks[2].Line)
}
