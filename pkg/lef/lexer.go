package lef

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// LEFLexer defines the lexical structure of cell library LEF files.
// Keywords are matched in the grammar as literal Ident values, so the
// lexer only distinguishes the token classes.
var LEFLexer = lexer.MustSimple([]lexer.SimpleRule{
	// Comments run from # to end of line
	{Name: "Comment", Pattern: `#[^\n]*`},

	{Name: "Whitespace", Pattern: `[\s\t\n\r]+`},

	// Quoted strings (DIVIDERCHAR "/", BUSBITCHARS "[]", NETEXPR, property values)
	{Name: "String", Pattern: `"[^"]*"`},

	// Dotted version numbers must win over Number (VERSION 5.8.1 ;)
	{Name: "Version", Pattern: `\d+\.\d+\.\d+`},

	// Signed integers or decimals, no exponent form
	{Name: "Number", Pattern: `[-+]?\d+(\.\d+)?`},

	// Identifiers: letter or underscore first, then alphanumerics, underscore, brackets
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_\[\]]*`},

	{Name: "Semicolon", Pattern: `;`},

	// Anything else is a single punctuation token. Only opaque statements
	// can consume these; the modelled grammar rejects them.
	{Name: "Punct", Pattern: `[^\sA-Za-z0-9_;"#]`},
})
