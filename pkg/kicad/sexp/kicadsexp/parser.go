package kicadsexp

import (
	"fmt"
	"io"
)

// Parser builds expression trees from the tokens of a Lexer.
type Parser struct {
	lexer *Lexer
	tok   Token
}

// NewParser creates a parser reading from r.
func NewParser(r io.Reader) *Parser {
	return &Parser{lexer: NewLexer(r)}
}

func (p *Parser) advance() (err error) {
	p.tok, err = p.lexer.NextToken()
	return err
}

// errorf reports a problem at the current token.
func (p *Parser) errorf(format string, args ...any) error {
	return &SyntaxError{Line: p.tok.Line, Col: p.tok.Col, Msg: fmt.Sprintf(format, args...)}
}

// ParseAll parses every top-level expression.
func (p *Parser) ParseAll() ([]Sexp, error) {
	var exprs []Sexp
	for {
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.tok.Type == TokenEOF {
			return exprs, nil
		}
		expr, err := p.expr()
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, expr)
	}
}

// expr converts the current token, descending into lists.
func (p *Parser) expr() (Sexp, error) {
	switch p.tok.Type {
	case TokenSymbol:
		return Symbol(p.tok.Value), nil
	case TokenString:
		return String(p.tok.Value), nil
	case TokenLeftParen:
		list := &List{Line: p.tok.Line}
		for {
			if err := p.advance(); err != nil {
				return nil, err
			}
			switch p.tok.Type {
			case TokenRightParen:
				return list, nil
			case TokenEOF:
				return nil, p.errorf("unexpected end of input in list opened at line %d", list.Line)
			}
			elem, err := p.expr()
			if err != nil {
				return nil, err
			}
			list.elements = append(list.elements, elem)
		}
	default:
		return nil, p.errorf("unexpected %s", p.tok.Type)
	}
}
