package lef

import (
	"strconv"
	"strings"
)

// Macros returns the macro blocks in declaration order.
func (l *Library) Macros() []*Macro {
	var macros []*Macro
	for _, stmt := range l.Statements {
		if stmt.Macro != nil {
			macros = append(macros, stmt.Macro)
		}
	}
	return macros
}

// Version returns the declared LEF version, or "" when absent.
func (l *Library) Version() string {
	version := ""
	for _, stmt := range l.Statements {
		if stmt.Version != nil {
			version = *stmt.Version
		}
	}
	return version
}

// DividerChar returns the hierarchy divider character, "/" by default.
func (l *Library) DividerChar() string {
	divider := "/"
	for _, stmt := range l.Statements {
		if stmt.DividerChar != nil {
			divider = stmt.DividerChar.GetValue()
		}
	}
	return divider
}

// BusBitChars returns the bus bit delimiters, "[]" by default.
func (l *Library) BusBitChars() string {
	chars := "[]"
	for _, stmt := range l.Statements {
		if stmt.BusBitChars != nil {
			chars = stmt.BusBitChars.GetValue()
		}
	}
	return chars
}

// DatabaseUnits returns the DATABASE MICRONS value, or 0 when undeclared.
func (l *Library) DatabaseUnits() float64 {
	for _, stmt := range l.Statements {
		if stmt.Units == nil {
			continue
		}
		for _, u := range stmt.Units.Entries {
			if u.Kind == "DATABASE" {
				return u.Value
			}
		}
	}
	return 0
}

// UnknownCount returns how many opaque statements the library holds at any level.
func (l *Library) UnknownCount() int {
	n := 0
	for _, stmt := range l.Statements {
		switch {
		case stmt.Unknown != nil:
			n++
		case stmt.Macro != nil:
			for _, ms := range stmt.Macro.Statements {
				switch {
				case ms.Unknown != nil:
					n++
				case ms.Pin != nil:
					for _, ps := range ms.Pin.Statements {
						if ps.Unknown != nil {
							n++
						}
					}
				}
			}
		}
	}
	return n
}

// Pins returns the pin blocks of the macro in declaration order.
func (m *Macro) Pins() []*Pin {
	var pins []*Pin
	for _, stmt := range m.Statements {
		if stmt.Pin != nil {
			pins = append(pins, stmt.Pin)
		}
	}
	return pins
}

// String renders a symmetry statement's flags as they appear in the source.
func (s *Symmetry) String() string {
	if s == nil {
		return ""
	}
	return strings.Join(s.Flags, " ")
}

// GetValue returns the property value as text.
func (v *Value) GetValue() string {
	switch {
	case v == nil:
		return ""
	case v.String != nil:
		return v.String.GetValue()
	case v.Number != nil:
		return formatNumber(*v.Number)
	case v.Ident != nil:
		return *v.Ident
	}
	return ""
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
