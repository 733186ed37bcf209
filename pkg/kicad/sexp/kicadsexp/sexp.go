// Package kicadsexp is a small streaming S-expression reader for KiCad
// symbol libraries. Quoted strings and bare symbols are kept apart so a
// quoted value never matches a keyword.
package kicadsexp

import (
	"io"
	"strings"
)

// Sexp is a node of the tree: Symbol, String or *List.
type Sexp interface {
	String() string
	node()
}

// Symbol is a bare atom: keyword, number or identifier.
type Symbol string

// String is a quoted atom with escapes resolved.
type String string

// List is a parenthesized sequence. Line is where it opens.
type List struct {
	Line     int
	elements []Sexp
}

func (Symbol) node() {}
func (String) node() {}
func (*List) node() {}

func (s Symbol) String() string { return string(s) }
func (s String) String() string { return Quote(string(s)) }

func (l *List) String() string {
	parts := make([]string, len(l.elements))
	for i, elem := range l.elements {
		parts[i] = elem.String()
	}
	return "(" + strings.Join(parts, " ") + ")"
}

// Items returns the elements of the list.
func (l *List) Items() []Sexp {
	return l.elements
}

// Get returns the element at index, or nil when index is out of range.
func (l *List) Get(index int) Sexp {
	if index >= 0 && index < len(l.elements) {
		return l.elements[index]
	}
	return nil
}

func (l *List) Len() int { return len(l.elements) }

// NewList builds a list from elements.
func NewList(elements ...Sexp) *List {
	return &List{elements: elements}
}

// Parse reads every top-level expression from r.
func Parse(r io.Reader) ([]Sexp, error) {
	return NewParser(r).ParseAll()
}

// ParseString parses expressions from a string.
func ParseString(s string) ([]Sexp, error) {
	return Parse(strings.NewReader(s))
}

var quoter = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\t", `\t`, "\r", `\r`)

// Quote renders s as a KiCad string literal.
func Quote(s string) string {
	return `"` + quoter.Replace(s) + `"`
}
