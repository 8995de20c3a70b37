// Package scanner implements the hand-written lexer that turns source bytes
// into a stream of tokens for the compiler to consume.
package scanner

import (
	"github.com/wisteria-lang/wisteria/lang/token"
)

// Scanner tokenizes a single source buffer. It has no dependency on the
// compiler or the VM: it only knows about bytes, runes and token kinds.
type Scanner struct {
	src     []byte
	start   int // start offset of the token currently being scanned
	current int // offset of the next unread byte
	line    int
}

// New returns a Scanner ready to tokenize src.
func New(src []byte) *Scanner {
	return &Scanner{src: src, line: 1}
}

// Scan returns the next token in the source. It returns an EOF token forever
// once the source is exhausted.
func (s *Scanner) Scan() token.Token {
	s.skipWhitespaceAndComments()
	s.start = s.current

	if s.atEnd() {
		return s.make(token.EOF)
	}

	c := s.advance()
	switch {
	case isAlpha(c):
		return s.identifier()
	case isDigit(c):
		return s.number()
	}

	switch c {
	case '(':
		return s.make(token.LEFT_PAREN)
	case ')':
		return s.make(token.RIGHT_PAREN)
	case '{':
		return s.make(token.LEFT_BRACE)
	case '}':
		return s.make(token.RIGHT_BRACE)
	case ';':
		return s.make(token.SEMICOLON)
	case ',':
		return s.make(token.COMMA)
	case '.':
		return s.make(token.DOT)
	case '-':
		return s.make(token.MINUS)
	case '+':
		return s.make(token.PLUS)
	case '/':
		return s.make(token.SLASH)
	case '*':
		return s.make(token.STAR)
	case '!':
		return s.make(s.selectIf('=', token.BANG_EQUAL, token.BANG))
	case '=':
		return s.make(s.selectIf('=', token.EQUAL_EQUAL, token.EQUAL))
	case '<':
		return s.make(s.selectIf('=', token.LESS_EQUAL, token.LESS))
	case '>':
		return s.make(s.selectIf('=', token.GREATER_EQUAL, token.GREATER))
	case '"':
		return s.string()
	}

	return s.errorf("Unexpected character.")
}

func (s *Scanner) atEnd() bool { return s.current >= len(s.src) }

func (s *Scanner) advance() byte {
	c := s.src[s.current]
	s.current++
	return c
}

func (s *Scanner) peek() byte {
	if s.atEnd() {
		return 0
	}
	return s.src[s.current]
}

func (s *Scanner) peekNext() byte {
	if s.current+1 >= len(s.src) {
		return 0
	}
	return s.src[s.current+1]
}

// selectIf advances past a trailing '=' (or whatever expected is) and returns
// ifMatch, otherwise leaves the scanner position untouched and returns
// otherwise.
func (s *Scanner) selectIf(expected byte, ifMatch, otherwise token.Kind) token.Kind {
	if s.atEnd() || s.src[s.current] != expected {
		return otherwise
	}
	s.current++
	return ifMatch
}

func (s *Scanner) skipWhitespaceAndComments() {
	for {
		switch s.peek() {
		case ' ', '\r', '\t':
			s.advance()
		case '\n':
			s.line++
			s.advance()
		case '/':
			if s.peekNext() == '/' {
				for s.peek() != '\n' && !s.atEnd() {
					s.advance()
				}
			} else {
				return
			}
		default:
			return
		}
	}
}

func (s *Scanner) string() token.Token {
	for s.peek() != '"' && !s.atEnd() {
		if s.peek() == '\n' {
			s.line++
		}
		s.advance()
	}

	if s.atEnd() {
		return s.errorf("Unterminated string.")
	}

	s.advance() // closing quote
	return s.make(token.STRING)
}

func (s *Scanner) number() token.Token {
	for isDigit(s.peek()) {
		s.advance()
	}

	if s.peek() == '.' && isDigit(s.peekNext()) {
		s.advance() // consume the '.'
		for isDigit(s.peek()) {
			s.advance()
		}
	}

	return s.make(token.NUMBER)
}

func (s *Scanner) identifier() token.Token {
	for isAlpha(s.peek()) || isDigit(s.peek()) {
		s.advance()
	}

	lexeme := string(s.src[s.start:s.current])
	if kind, ok := token.Keyword(lexeme); ok {
		return s.make(kind)
	}
	return s.make(token.IDENTIFIER)
}

func (s *Scanner) make(kind token.Kind) token.Token {
	return token.Token{
		Kind:   kind,
		Lexeme: string(s.src[s.start:s.current]),
		Line:   s.line,
	}
}

func (s *Scanner) errorf(msg string) token.Token {
	return token.Token{Kind: token.ERROR, Lexeme: msg, Line: s.line}
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isAlpha(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
