// Package sexp holds the value types of KiCad symbol libraries and helpers
// to pull them out of a kicadsexp tree. Symbol libraries store lengths in
// millimeters and angles in degrees, so no unit conversion happens here.
package sexp

// Position represents a 2D coordinate in millimeters. Symbol space has Y
// pointing up.
type Position struct {
	X float64
	Y float64
}

// Angle represents rotation in degrees
type Angle float64

// PositionAngle combines position with rotation
type PositionAngle struct {
	Position
	Angle Angle
}

// Size represents dimensions
type Size struct {
	Width  float64
	Height float64
}

// Color is an RGB color with components 0-255 and alpha 0-1, as written
// in the file.
type Color struct {
	R, G, B int
	A       float64
}

// Stroke defines line/outline appearance
type Stroke struct {
	Width float64
	Type  string // solid, dash, dot, ...
	Color Color
}

// Fill defines area fill
type Fill struct {
	Type string // none, outline, background
}

// Effects represents text effects (font, justification, etc.)
type Effects struct {
	Font    Font
	Justify Justify
	Hide    bool
}

// Font represents font properties
type Font struct {
	Size   Size
	Bold   bool
	Italic bool
}

// Justify represents text justification. Empty fields mean centered.
type Justify struct {
	Horizontal string // left, right
	Vertical   string // top, bottom
	Mirror     bool
}

// IsSet reports whether any justification was given.
func (j Justify) IsSet() bool {
	return j.Horizontal != "" || j.Vertical != "" || j.Mirror
}

// Property represents a symbol field.
type Property struct {
	Key      string
	Value    string
	ID       int
	Position PositionAngle
	Effects  Effects
}

// Rectangle is a symbol body graphic.
type Rectangle struct {
	Start  Position
	End    Position
	Stroke Stroke
	Fill   Fill
}

// Pin is a symbol pin. Position is the connection point; the pin extends
// Length toward the body along Angle.
type Pin struct {
	Electrical string // power_in, input, output, ...
	Style      string // line, inverted, clock, ...
	Position   PositionAngle
	Length     float64
	Name       string
	NameHidden bool
	Number     string
	NumberHide bool
}
