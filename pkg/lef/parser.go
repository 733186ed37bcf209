package lef

import (
	"io"
	"os"
	"strings"

	"github.com/alecthomas/participle/v2"

	"github.com/OpenTraceLab/pdk2kicad/internal/errors"
)

// UnknownPolicy decides what happens to statements outside the modelled grammar.
type UnknownPolicy int

const (
	// SkipUnknown keeps unknown statements as opaque nodes that extraction ignores.
	SkipUnknown UnknownPolicy = iota
	// RejectUnknown turns any unknown statement into a SyntaxError.
	RejectUnknown
)

func (p UnknownPolicy) String() string {
	if p == RejectUnknown {
		return "reject"
	}
	return "skip"
}

// ParseUnknownPolicy maps a configuration value to a policy.
func ParseUnknownPolicy(s string) (UnknownPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "skip":
		return SkipUnknown, nil
	case "reject":
		return RejectUnknown, nil
	default:
		return SkipUnknown, errors.Newf("unknown statement policy %q (want skip or reject)", s)
	}
}

// Option configures a Parser.
type Option func(*Parser)

// WithUnknownPolicy sets the policy applied to unknown statements.
func WithUnknownPolicy(policy UnknownPolicy) Option {
	return func(p *Parser) {
		p.policy = policy
	}
}

// Parser parses LEF cell libraries. The grammar is built once in NewParser
// and a Parser is safe for concurrent use by multiple goroutines.
type Parser struct {
	parser *participle.Parser[Library]
	policy UnknownPolicy
}

// NewParser builds the LEF grammar.
func NewParser(opts ...Option) (*Parser, error) {
	parser, err := participle.Build[Library](
		participle.Lexer(LEFLexer),
		participle.Elide("Comment", "Whitespace"),
		participle.UseLookahead(2),
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build LEF parser")
	}

	p := &Parser{parser: parser}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Policy returns the unknown statement policy of the parser.
func (p *Parser) Policy() UnknownPolicy {
	return p.policy
}

// Parse parses a library from a reader. filename is used in error locations.
func (p *Parser) Parse(filename string, r io.Reader) (*Library, error) {
	lib, err := p.parser.Parse(filename, r)
	if err != nil {
		return nil, asSyntaxError(filename, err)
	}
	if err := Validate(filename, lib, p.policy); err != nil {
		return nil, err
	}
	return lib, nil
}

// ParseString parses a library held in a string.
func (p *Parser) ParseString(filename, input string) (*Library, error) {
	return p.Parse(filename, strings.NewReader(input))
}

// ParseFile parses the library at path.
func (p *Parser) ParseFile(path string) (*Library, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open file")
	}
	defer file.Close()

	return p.Parse(path, file)
}
