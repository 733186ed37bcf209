package kicadsexp

import (
	"fmt"
	"io"
	"strings"
)

// TokenType is the kind of a token.
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenLeftParen
	TokenRightParen
	TokenSymbol
	TokenString
)

var tokenNames = map[TokenType]string{
	TokenEOF:        "end of input",
	TokenLeftParen:  "'('",
	TokenRightParen: "')'",
	TokenSymbol:     "symbol",
	TokenString:     "string",
}

func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TokenType(%d)", int(t))
}

// Token is one lexical unit. Line and Col are 1-based; Col counts bytes.
type Token struct {
	Type  TokenType
	Value string
	Line  int
	Col   int
}

// SyntaxError locates malformed input.
type SyntaxError struct {
	Line int
	Col  int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Col, e.Msg)
}

// Lexer splits S-expression text into tokens. The input is read in full
// up front; symbol libraries are at most a few megabytes.
type Lexer struct {
	src  []byte
	pos  int
	line int
	col  int
	err  error
}

// NewLexer creates a lexer over everything r yields. A read error is
// returned by the first call to NextToken.
func NewLexer(r io.Reader) *Lexer {
	src, err := io.ReadAll(r)
	return &Lexer{src: src, line: 1, col: 1, err: err}
}

// NextToken returns the next token, or a TokenEOF token at the end.
func (l *Lexer) NextToken() (Token, error) {
	if l.err != nil {
		return Token{}, l.err
	}
	l.skipSpace()

	tok := Token{Line: l.line, Col: l.col}
	if l.pos >= len(l.src) {
		tok.Type = TokenEOF
		return tok, nil
	}

	switch c := l.src[l.pos]; c {
	case '(':
		l.next()
		tok.Type, tok.Value = TokenLeftParen, "("
	case ')':
		l.next()
		tok.Type, tok.Value = TokenRightParen, ")"
	case '"':
		value, err := l.scanString()
		if err != nil {
			return Token{}, err
		}
		tok.Type, tok.Value = TokenString, value
	default:
		start := l.pos
		for l.pos < len(l.src) && !isDelimiter(l.src[l.pos]) {
			l.next()
		}
		tok.Type, tok.Value = TokenSymbol, string(l.src[start:l.pos])
	}
	return tok, nil
}

// next consumes one byte.
func (l *Lexer) next() {
	if l.src[l.pos] == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	l.pos++
}

func (l *Lexer) skipSpace() {
	for l.pos < len(l.src) && isSpace(l.src[l.pos]) {
		l.next()
	}
}

// scanString consumes a quoted string and resolves its escapes. \n, \t
// and \r become control characters; any other escaped byte stands for
// itself.
func (l *Lexer) scanString() (string, error) {
	line, col := l.line, l.col
	l.next()

	var b strings.Builder
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		l.next()
		if c == '"' {
			return b.String(), nil
		}
		if c != '\\' || l.pos >= len(l.src) {
			b.WriteByte(c)
			continue
		}
		e := l.src[l.pos]
		l.next()
		switch e {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		default:
			b.WriteByte(e)
		}
	}
	return "", &SyntaxError{Line: line, Col: col, Msg: "unterminated string"}
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\f', '\v':
		return true
	}
	return false
}

func isDelimiter(c byte) bool {
	return isSpace(c) || c == '(' || c == ')' || c == '"'
}
