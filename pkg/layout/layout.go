package layout

import (
	"unicode/utf8"

	"github.com/OpenTraceLab/pdk2kicad/pkg/cell"
)

const (
	// Pitch is the pin-to-pin spacing and body margin, in millimeters.
	Pitch = 2.54
	// LabelWidth is the estimated width of one pin name character.
	LabelWidth = Pitch / 2
)

// Pin rotations, in degrees. A pin points from its placement toward the body.
const (
	RotationLeft   = 0
	RotationRight  = 180
	RotationTop    = 270
	RotationBottom = 90
)

// Category is the layout bucket of a pin.
type Category int

const (
	CategoryPower Category = iota
	CategoryGround
	CategoryInput
	CategoryOutput
	CategoryIOP
)

var categoryNames = map[Category]string{
	CategoryPower:  "power",
	CategoryGround: "ground",
	CategoryInput:  "input",
	CategoryOutput: "output",
	CategoryIOP:    "iop",
}

func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return "unknown"
}

// Categorize returns the layout bucket of p. Tristate pins are placed with
// the outputs.
func Categorize(p cell.Pin) Category {
	switch p.Role {
	case cell.RolePower:
		return CategoryPower
	case cell.RoleGround:
		return CategoryGround
	}
	switch p.Direction {
	case cell.DirectionInput:
		return CategoryInput
	case cell.DirectionOutput, cell.DirectionTristate:
		return CategoryOutput
	default:
		return CategoryIOP
	}
}

// Counts summarizes a placed cell.
type Counts struct {
	Power  int `json:"power" yaml:"power"`
	Ground int `json:"ground" yaml:"ground"`
	Input  int `json:"input" yaml:"input"`
	Output int `json:"output" yaml:"output"`
	IOP    int `json:"iop" yaml:"iop"`

	// Fixup is the number of IOP pins used to even out the columns.
	Fixup int `json:"fixup" yaml:"fixup"`
	// Left and Right are the final column heights, in pins.
	Left  int `json:"left" yaml:"left"`
	Right int `json:"right" yaml:"right"`
}

// Total returns the number of pins counted.
func (c Counts) Total() int {
	return c.Power + c.Ground + c.Input + c.Output + c.IOP
}

// Count buckets the pins of c.
func Count(pins []cell.Pin) Counts {
	var n Counts
	for _, p := range pins {
		switch Categorize(p) {
		case CategoryPower:
			n.Power++
		case CategoryGround:
			n.Ground++
		case CategoryInput:
			n.Input++
		case CategoryOutput:
			n.Output++
		case CategoryIOP:
			n.IOP++
		}
	}

	hdiff := n.Input - n.Output
	n.Fixup = min(abs(hdiff), n.IOP)
	n.Left, n.Right = n.Input, n.Output
	if hdiff < 0 {
		n.Left += n.Fixup
	} else {
		n.Right += n.Fixup
	}
	rest := n.IOP - n.Fixup
	n.Left += rest / 2
	n.Right += rest - rest/2
	return n
}

// Padding returns the label room reserved beside the body (wpad) and above
// and below it (hpad).
func Padding(pins []cell.Pin) (wpad, hpad float64) {
	var w, h int
	for _, p := range pins {
		n := utf8.RuneCountInString(p.Name)
		if p.IsSupply() {
			h = max(h, n)
		} else {
			w = max(w, n)
		}
	}
	return float64(w) * LabelWidth, float64(h) * LabelWidth
}

// BoundsFor returns the origin-centered body rectangle for the given counts
// and padding.
func BoundsFor(n Counts, wpad, hpad float64) cell.Bounds {
	x := (float64(max(n.Power, n.Ground))*Pitch + Pitch) / 2
	y := (float64(max(n.Left, n.Right))*Pitch + Pitch) / 2
	return cell.Bounds{X0: -x - wpad, Y0: -y - hpad, X1: x + wpad, Y1: y + hpad}
}

// placementOrder is the order in which the categories claim their slots.
// IOP pins come last so they only fill what inputs and outputs leave free.
var placementOrder = []Category{CategoryPower, CategoryGround, CategoryInput, CategoryOutput, CategoryIOP}

// Place returns a copy of c with bounds computed and every pin placed, and
// the counts the layout was derived from. The Value property is anchored
// at the lower left corner of the body.
func Place(c cell.Cell) (cell.Cell, Counts) {
	out := c.Clone()
	n := Count(out.Pins)
	wpad, hpad := Padding(out.Pins)
	b := BoundsFor(n, wpad, hpad)
	out.Bounds = b

	s := newSlots(b, wpad, hpad, n.Fixup, n.Input < n.Output)
	for _, cat := range placementOrder {
		for i := range out.Pins {
			if Categorize(out.Pins[i]) == cat {
				out.Pins[i].Placement = s.place(cat)
			}
		}
	}

	for i := range out.Properties {
		if out.Properties[i].ID == cell.IDValue {
			out.Properties[i].Placement = cell.Placement{X: b.X0, Y: b.Y0}
			out.Properties[i].Justify = true
		}
	}
	return out, n
}

// slots hands out pin positions, one category at a time.
type slots struct {
	b          cell.Bounds
	wpad, hpad float64

	power, ground int
	left, right   int

	fixup      int  // IOP pins still owed to the short column
	fixupLeft  bool // the left column is the short one
	nextIsLeft bool // rotating flag for the remaining IOP pins, starts on the right
}

func newSlots(b cell.Bounds, wpad, hpad float64, fixup int, fixupLeft bool) *slots {
	return &slots{b: b, wpad: wpad, hpad: hpad, fixup: fixup, fixupLeft: fixupLeft}
}

func (s *slots) place(cat Category) cell.Placement {
	switch cat {
	case CategoryPower:
		s.power++
		return cell.Placement{X: s.column(s.power), Y: s.b.Y1 + Pitch, Rotation: RotationTop}
	case CategoryGround:
		s.ground++
		return cell.Placement{X: s.column(s.ground), Y: s.b.Y0 - Pitch, Rotation: RotationBottom}
	case CategoryInput:
		return s.leftSlot()
	case CategoryOutput:
		return s.rightSlot()
	}

	if s.fixup > 0 {
		s.fixup--
		if s.fixupLeft {
			return s.leftSlot()
		}
		return s.rightSlot()
	}
	left := s.nextIsLeft
	s.nextIsLeft = !s.nextIsLeft
	if left {
		return s.leftSlot()
	}
	return s.rightSlot()
}

// column is the x of the k-th (1-based) pin along the top or bottom edge.
func (s *slots) column(k int) float64 {
	return s.b.X0 + s.wpad + Pitch*float64(k)
}

// row is the y of the k-th (1-based) pin down the left or right edge.
func (s *slots) row(k int) float64 {
	return s.b.Y1 - s.hpad - Pitch*float64(k)
}

func (s *slots) leftSlot() cell.Placement {
	s.left++
	return cell.Placement{X: s.b.X0 - Pitch, Y: s.row(s.left), Rotation: RotationLeft}
}

func (s *slots) rightSlot() cell.Placement {
	s.right++
	return cell.Placement{X: s.b.X1 + Pitch, Y: s.row(s.right), Rotation: RotationRight}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
