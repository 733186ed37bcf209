package cell

import (
	"strings"

	"github.com/OpenTraceLab/pdk2kicad/internal/errors"
)

// Options controls how macros become cells.
type Options struct {
	// Naming
	NameSplitDelimiter string // Keep only the text after the last occurrence (default: off)
	StripLibraryPrefix bool   // Drop a leading "<library>__" (default: true)

	// Pin filtering and roles
	IgnorePowerPins    bool // Drop power and ground pins before numbering (default: false)
	InferPowerFromName bool // Guess roles of pins without USE from their names (default: true)

	// Metadata
	PDK string // PDK identifier, stored as a property only

	// Strict turns close-name mismatches, repeated pin names and repeated
	// property ids into errors. Otherwise they are reported as diagnostics
	// and recovered with the last occurrence winning (default: true).
	Strict bool
}

// DefaultOptions returns Options with the converter defaults.
func DefaultOptions() Options {
	return Options{
		StripLibraryPrefix: true,
		InferPowerFromName: true,
		Strict:             true,
	}
}

// Validate checks the options for errors.
func (o Options) Validate() error {
	if strings.ContainsAny(o.NameSplitDelimiter, " \t\r\n") {
		return errors.Newf("name split delimiter %q must not contain whitespace", o.NameSplitDelimiter)
	}
	return nil
}

// CellName applies the split and prefix transforms to a macro name.
func (o Options) CellName(macro, library string) string {
	name := macro
	if o.NameSplitDelimiter != "" {
		if i := strings.LastIndex(name, o.NameSplitDelimiter); i >= 0 {
			name = name[i+len(o.NameSplitDelimiter):]
		}
	}
	if o.StripLibraryPrefix && library != "" {
		name = strings.TrimPrefix(name, library+"__")
	}
	return name
}
