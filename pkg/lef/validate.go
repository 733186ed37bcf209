package lef

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/alecthomas/participle/v2/lexer"
)

// unitNames pairs each UNITS keyword with the unit it must declare.
var unitNames = map[string]string{
	"TIME":        "NANOSECONDS",
	"CAPACITANCE": "PICOFARADS",
	"RESISTANCE":  "OHMS",
	"POWER":       "MILLIWATTS",
	"CURRENT":     "MILLIAMPS",
	"VOLTAGE":     "VOLTS",
	"DATABASE":    "MICRONS",
	"FREQUENCY":   "MEGAHERTZ",
}

// classSubtypes lists the subtypes allowed after each CLASS type.
var classSubtypes = map[string][]string{
	"COVER":  {"BUMP"},
	"RING":   nil,
	"BLOCK":  {"BLACKBOX", "SOFT"},
	"PAD":    {"INPUT", "OUTPUT", "INOUT", "POWER", "SPACER", "AREAIO"},
	"CORE":   {"FEEDTHRU", "TIEHIGH", "TIELOW", "SPACER", "ANTENNACELL", "WELLTAP"},
	"ENDCAP": {"PRE", "POST", "TOPLEFT", "TOPRIGHT", "BOTTOMLEFT", "BOTTOMRIGHT"},
}

// Validate applies the lexical and semantic checks the grammar cannot
// express: divider and bus-bit characters, unit pairs, class subtypes,
// and, under RejectUnknown, the absence of opaque statements.
func Validate(filename string, lib *Library, policy UnknownPolicy) error {
	fail := func(pos lexer.Position, format string, args ...any) error {
		return &SyntaxError{File: filename, Line: pos.Line, Column: pos.Column, Msg: fmt.Sprintf(format, args...)}
	}

	for _, stmt := range lib.Statements {
		switch {
		case stmt.DividerChar != nil:
			v := stmt.DividerChar.GetValue()
			if utf8.RuneCountInString(v) != 1 || !isNonWord(v) {
				return fail(stmt.DividerChar.Pos, "DIVIDERCHAR must be a single non-word character, got %q", v)
			}
		case stmt.BusBitChars != nil:
			v := stmt.BusBitChars.GetValue()
			if utf8.RuneCountInString(v) != 2 || !isNonWord(v) {
				return fail(stmt.BusBitChars.Pos, "BUSBITCHARS must be two non-word characters, got %q", v)
			}
		case stmt.Units != nil:
			for _, u := range stmt.Units.Entries {
				if want := unitNames[u.Kind]; u.Unit != want {
					return fail(u.Pos, "%s unit must be %s, got %s", u.Kind, want, u.Unit)
				}
			}
		case stmt.Macro != nil:
			if err := validateMacro(stmt.Macro, policy, fail); err != nil {
				return err
			}
		case stmt.Unknown != nil:
			if policy == RejectUnknown {
				return fail(stmt.Unknown.Pos, "unsupported library statement %s", stmt.Unknown.Keyword)
			}
		}
	}
	return nil
}

func validateMacro(m *Macro, policy UnknownPolicy, fail func(lexer.Position, string, ...any) error) error {
	for _, stmt := range m.Statements {
		switch {
		case stmt.Class != nil:
			if stmt.Class.Subtype == "" {
				continue
			}
			allowed := false
			for _, sub := range classSubtypes[stmt.Class.Type] {
				if sub == stmt.Class.Subtype {
					allowed = true
					break
				}
			}
			if !allowed {
				return fail(stmt.Class.Pos, "CLASS %s does not take subtype %s", stmt.Class.Type, stmt.Class.Subtype)
			}
		case stmt.Pin != nil:
			if policy != RejectUnknown {
				continue
			}
			for _, ps := range stmt.Pin.Statements {
				if ps.Unknown != nil {
					return fail(ps.Unknown.Pos, "unsupported statement %s in pin %s", ps.Unknown.Keyword, stmt.Pin.Name)
				}
			}
		case stmt.Unknown != nil:
			if policy == RejectUnknown {
				return fail(stmt.Unknown.Pos, "unsupported statement %s in macro %s", stmt.Unknown.Keyword, m.Name)
			}
		}
	}
	return nil
}

func isNonWord(s string) bool {
	return strings.IndexFunc(s, func(r rune) bool {
		return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
	}) < 0
}
