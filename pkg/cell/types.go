// Package cell holds the normalized cell model built from a parsed LEF
// library: cells, pins and the properties that end up on a schematic symbol.
package cell

import (
	"fmt"
	"sort"

	"github.com/OpenTraceLab/pdk2kicad/internal/errors"
)

// Direction is the signal-flow classification of a pin.
type Direction int

const (
	DirectionBidirectional Direction = iota
	DirectionInput
	DirectionOutput
	DirectionTristate
	DirectionPassive
	DirectionUnspecified
)

var directionNames = map[Direction]string{
	DirectionBidirectional: "bidirectional",
	DirectionInput:         "input",
	DirectionOutput:        "output",
	DirectionTristate:      "tristate",
	DirectionPassive:       "passive",
	DirectionUnspecified:   "unspecified",
}

func (d Direction) String() string {
	if name, ok := directionNames[d]; ok {
		return name
	}
	return fmt.Sprintf("Direction(%d)", int(d))
}

// MarshalText renders the direction by name in JSON and YAML reports.
func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText reads a direction written by MarshalText.
func (d *Direction) UnmarshalText(text []byte) error {
	for dir, name := range directionNames {
		if name == string(text) {
			*d = dir
			return nil
		}
	}
	return errors.Newf("unknown pin direction %q", text)
}

// Role is the electrical role of a pin.
type Role int

const (
	RoleSignal Role = iota
	RolePower
	RoleGround
	RoleClock
)

// Roles lists every role in report order.
var Roles = []Role{RoleSignal, RolePower, RoleGround, RoleClock}

var roleNames = map[Role]string{
	RoleSignal: "signal",
	RolePower:  "power",
	RoleGround: "ground",
	RoleClock:  "clock",
}

func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return fmt.Sprintf("Role(%d)", int(r))
}

// MarshalText renders the role by name in JSON and YAML reports.
func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText reads a role written by MarshalText.
func (r *Role) UnmarshalText(text []byte) error {
	for role, name := range roleNames {
		if name == string(text) {
			*r = role
			return nil
		}
	}
	return errors.Newf("unknown pin role %q", text)
}

// Placement is a symbol-space position with a rotation in degrees.
type Placement struct {
	X        float64 `json:"x" yaml:"x"`
	Y        float64 `json:"y" yaml:"y"`
	Rotation float64 `json:"rotation" yaml:"rotation"`
}

// Bounds is the symbol body rectangle, (X0,Y0) lower left and (X1,Y1) upper right.
type Bounds struct {
	X0 float64 `json:"x0" yaml:"x0"`
	Y0 float64 `json:"y0" yaml:"y0"`
	X1 float64 `json:"x1" yaml:"x1"`
	Y1 float64 `json:"y1" yaml:"y1"`
}

// Width returns the body width.
func (b Bounds) Width() float64 { return b.X1 - b.X0 }

// Height returns the body height.
func (b Bounds) Height() float64 { return b.Y1 - b.Y0 }

// Pin is one retained pin of a cell. Number is 1-based in declaration
// order after filtering. Placement stays zero until layout.
type Pin struct {
	Name      string    `json:"name" yaml:"name"`
	Number    int       `json:"number" yaml:"number"`
	Direction Direction `json:"direction" yaml:"direction"`
	Role      Role      `json:"role" yaml:"role"`
	Placement Placement `json:"placement" yaml:"placement"`
}

// Property is a named symbol field. ID is the slot key and is unique within a cell.
type Property struct {
	ID        int       `json:"id" yaml:"id"`
	Name      string    `json:"name" yaml:"name"`
	Value     string    `json:"value" yaml:"value"`
	Hidden    bool      `json:"hidden" yaml:"hidden"`
	Justify   bool      `json:"justify" yaml:"justify"`
	Placement Placement `json:"placement" yaml:"placement"`
}

// Cell is one macro turned into a symbol record.
type Cell struct {
	ID         string     `json:"id" yaml:"id"`
	Library    string     `json:"library" yaml:"library"`
	Source     string     `json:"source" yaml:"source"`
	Pins       []Pin      `json:"pins" yaml:"pins"`
	Bounds     Bounds     `json:"bounds" yaml:"bounds"`
	Properties []Property `json:"properties" yaml:"properties"`
}

// Property returns the property with the given name.
func (c *Cell) Property(name string) (Property, bool) {
	for _, p := range c.Properties {
		if p.Name == name {
			return p, true
		}
	}
	return Property{}, false
}

// HasPropertyID reports whether id is already taken.
func (c *Cell) HasPropertyID(id int) bool {
	for _, p := range c.Properties {
		if p.ID == id {
			return true
		}
	}
	return false
}

// FreePropertyID returns the first unused id in [lo, hi].
func (c *Cell) FreePropertyID(lo, hi int) (int, bool) {
	for id := lo; id <= hi; id++ {
		if !c.HasPropertyID(id) {
			return id, true
		}
	}
	return 0, false
}

// AddProperty appends p. A colliding id is a structural mismatch.
func (c *Cell) AddProperty(p Property) error {
	if c.HasPropertyID(p.ID) {
		return &StructuralMismatchError{
			File:   c.Source,
			Macro:  c.ID,
			Detail: fmt.Sprintf("duplicate property id %d (%s)", p.ID, p.Name),
		}
	}
	c.Properties = append(c.Properties, p)
	return nil
}

// SortedProperties returns the properties ordered by id.
func (c *Cell) SortedProperties() []Property {
	props := make([]Property, len(c.Properties))
	copy(props, c.Properties)
	sort.SliceStable(props, func(i, j int) bool { return props[i].ID < props[j].ID })
	return props
}

// Clone returns a deep copy of the cell.
func (c Cell) Clone() Cell {
	out := c
	out.Pins = append([]Pin(nil), c.Pins...)
	out.Properties = append([]Property(nil), c.Properties...)
	return out
}

// RoleCounts counts the cell's pins per role.
func (c *Cell) RoleCounts() map[Role]int {
	counts := make(map[Role]int, len(Roles))
	for _, p := range c.Pins {
		counts[p.Role]++
	}
	return counts
}
