package scanner_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wisteria-lang/wisteria/lang/scanner"
	"github.com/wisteria-lang/wisteria/lang/token"
)

func scanAll(t *testing.T, src string) []token.Token {
	t.Helper()
	s := scanner.New([]byte(src))
	var toks []token.Token
	for {
		tok := s.Scan()
		toks = append(toks, tok)
		if tok.Kind == token.EOF || tok.Kind == token.ERROR {
			break
		}
	}
	return toks
}

func TestScanPunctuationAndOperators(t *testing.T) {
	toks := scanAll(t, "( ) { } , . - + ; / * ! != = == > >= < <=")
	want := []token.Kind{
		token.LEFT_PAREN, token.RIGHT_PAREN, token.LEFT_BRACE, token.RIGHT_BRACE,
		token.COMMA, token.DOT, token.MINUS, token.PLUS, token.SEMICOLON,
		token.SLASH, token.STAR, token.BANG, token.BANG_EQUAL, token.EQUAL,
		token.EQUAL_EQUAL, token.GREATER, token.GREATER_EQUAL, token.LESS,
		token.LESS_EQUAL, token.EOF,
	}
	require.Len(t, toks, len(want))
	for i, k := range want {
		assert.Equal(t, k, toks[i].Kind, "token %d", i)
	}
}

func TestScanKeywordsAndIdentifiers(t *testing.T) {
	toks := scanAll(t, "and class else false for fun if nil or print return super this true var while orchid")
	require.Len(t, toks, 18)
	assert.Equal(t, token.AND, toks[0].Kind)
	assert.Equal(t, token.CLASS, toks[1].Kind)
	assert.Equal(t, token.WHILE, toks[15].Kind)
	assert.Equal(t, token.IDENTIFIER, toks[16].Kind)
	assert.Equal(t, "orchid", toks[16].Lexeme)
}

func TestScanNumbers(t *testing.T) {
	toks := scanAll(t, "123 3.14 0")
	assert.Equal(t, "123", toks[0].Lexeme)
	assert.Equal(t, "3.14", toks[1].Lexeme)
	assert.Equal(t, "0", toks[2].Lexeme)
}

func TestScanString(t *testing.T) {
	toks := scanAll(t, `"hello world"`)
	require.Equal(t, token.STRING, toks[0].Kind)
	assert.Equal(t, `"hello world"`, toks[0].Lexeme)
}

func TestScanUnterminatedString(t *testing.T) {
	toks := scanAll(t, `"hello`)
	require.Equal(t, token.ERROR, toks[0].Kind)
}

func TestScanSkipsCommentsAndWhitespace(t *testing.T) {
	toks := scanAll(t, "// a comment\n  \t 1")
	require.Equal(t, token.NUMBER, toks[0].Kind)
	assert.Equal(t, "1", toks[0].Lexeme)
}

func TestScanLineTracking(t *testing.T) {
	toks := scanAll(t, "1\n2\n\n3")
	assert.Equal(t, 1, toks[0].Line)
	assert.Equal(t, 2, toks[1].Line)
	assert.Equal(t, 4, toks[2].Line)
}
