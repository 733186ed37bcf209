package layout

import (
	"fmt"
	"math"
	"testing"

	"github.com/OpenTraceLab/pdk2kicad/pkg/cell"
	"github.com/OpenTraceLab/pdk2kicad/pkg/lef"
)

const eps = 1e-9

func near(a, b float64) bool {
	return math.Abs(a-b) < eps
}

func pin(name string, dir cell.Direction, role cell.Role) cell.Pin {
	return cell.Pin{Name: name, Direction: dir, Role: role}
}

func buffer() cell.Cell {
	return cell.Cell{
		ID: "BUF",
		Pins: []cell.Pin{
			pin("A", cell.DirectionInput, cell.RoleSignal),
			pin("Y", cell.DirectionOutput, cell.RoleSignal),
			pin("VPWR", cell.DirectionBidirectional, cell.RolePower),
			pin("VGND", cell.DirectionBidirectional, cell.RoleGround),
		},
		Properties: []cell.Property{
			{ID: cell.IDReference, Name: "Reference", Value: "X", Hidden: true},
			{ID: cell.IDValue, Name: "Value", Value: "BUF"},
		},
	}
}

func TestPlaceBuffer(t *testing.T) {
	placed, n := Place(buffer())

	if want := (Counts{Power: 1, Ground: 1, Input: 1, Output: 1, Left: 1, Right: 1}); n != want {
		t.Errorf("Counts = %+v, want %+v", n, want)
	}

	wpad, hpad := Padding(placed.Pins)
	if !near(wpad, 1.27) || !near(hpad, 5.08) {
		t.Errorf("Padding = (%v, %v), want (1.27, 5.08)", wpad, hpad)
	}

	b := placed.Bounds
	if got := b.Width() - 2*wpad; !near(got, 5.08) {
		t.Errorf("Body width = %v, want 5.08", got)
	}
	if got := b.X1 - wpad; !near(got, 2.54) {
		t.Errorf("Half width = %v, want 2.54", got)
	}
	if got := b.Height() - 2*hpad; !near(got, 5.08) {
		t.Errorf("Body height = %v, want 5.08", got)
	}

	want := []cell.Placement{
		{X: b.X0 - Pitch, Y: 0, Rotation: RotationLeft},
		{X: b.X1 + Pitch, Y: 0, Rotation: RotationRight},
		{X: 0, Y: b.Y1 + Pitch, Rotation: RotationTop},
		{X: 0, Y: b.Y0 - Pitch, Rotation: RotationBottom},
	}
	for i, w := range want {
		got := placed.Pins[i].Placement
		if !near(got.X, w.X) || !near(got.Y, w.Y) || got.Rotation != w.Rotation {
			t.Errorf("Pin %s at %+v, want %+v", placed.Pins[i].Name, got, w)
		}
	}

	value, ok := placed.Property("Value")
	if !ok {
		t.Fatalf("Value property missing")
	}
	if value.Placement.X != b.X0 || value.Placement.Y != b.Y0 || !value.Justify {
		t.Errorf("Value property at %+v justify=%v, want lower left corner, justified", value.Placement, value.Justify)
	}
	if ref, _ := placed.Property("Reference"); ref.Justify {
		t.Errorf("Reference property should keep its justification")
	}
}

const bufLEF = `
MACRO BUF
  PIN A
    DIRECTION INPUT ;
    USE SIGNAL ;
  END A
  PIN Y
    DIRECTION OUTPUT ;
    USE SIGNAL ;
  END Y
  PIN VPWR
    DIRECTION INOUT ;
  END VPWR
  PIN VGND
    DIRECTION INOUT ;
  END VGND
END BUF
END LIBRARY
`

func extractBuffer(t *testing.T, opts cell.Options) cell.Cell {
	t.Helper()
	p, err := lef.NewParser()
	if err != nil {
		t.Fatalf("Failed to build parser: %v", err)
	}
	lib, err := p.ParseString("LIB.lef", bufLEF)
	if err != nil {
		t.Fatalf("Failed to parse library: %v", err)
	}
	ex, err := cell.Extract(lib, "LIB.lef", opts)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	return ex.Cells[0]
}

func TestBufferWithInferredSupplies(t *testing.T) {
	placed, n := Place(extractBuffer(t, cell.DefaultOptions()))

	if want := (Counts{Power: 1, Ground: 1, Input: 1, Output: 1, Left: 1, Right: 1}); n != want {
		t.Errorf("Counts = %+v, want %+v", n, want)
	}
	wpad, _ := Padding(placed.Pins)
	if got := placed.Bounds.Width() - 2*wpad; !near(got, 5.08) {
		t.Errorf("Body width = %v, want 5.08", got)
	}
	if got := placed.Bounds.X1 - wpad; !near(got, 2.54) {
		t.Errorf("Half width = %v, want 2.54", got)
	}
}

func TestBufferWithoutSupplies(t *testing.T) {
	opts := cell.DefaultOptions()
	opts.IgnorePowerPins = true
	placed, n := Place(extractBuffer(t, opts))

	if len(placed.Pins) != 2 || placed.Pins[0].Name != "A" || placed.Pins[1].Name != "Y" {
		t.Fatalf("Expected pins A and Y, got %+v", placed.Pins)
	}
	if placed.Pins[0].Number != 1 || placed.Pins[1].Number != 2 {
		t.Errorf("Pin numbers = %d, %d, want 1, 2", placed.Pins[0].Number, placed.Pins[1].Number)
	}
	if n.Power+n.Ground != 0 || n.Total() != 2 {
		t.Errorf("Counts = %+v, want one input and one output", n)
	}
}

func TestPlaceDoesNotMutateInput(t *testing.T) {
	c := buffer()
	Place(c)

	if c.Bounds != (cell.Bounds{}) {
		t.Errorf("Input bounds changed to %+v", c.Bounds)
	}
	for _, p := range c.Pins {
		if p.Placement != (cell.Placement{}) {
			t.Errorf("Input pin %s moved to %+v", p.Name, p.Placement)
		}
	}
	if value, _ := c.Property("Value"); value.Justify {
		t.Errorf("Input Value property was justified")
	}
}

func TestPlaceWithoutSupplyPins(t *testing.T) {
	c := buffer()
	c.Pins = c.Pins[:2]

	placed, n := Place(c)
	if n.Power+n.Ground != 0 {
		t.Errorf("Expected no supply pins, got %+v", n)
	}
	if _, hpad := Padding(placed.Pins); hpad != 0 {
		t.Errorf("hpad = %v, want 0", hpad)
	}
	if got := placed.Bounds.Width() - 2*1.27; !near(got, 2.54) {
		t.Errorf("Body width = %v, want 2.54", got)
	}
}

func TestPlaceIsDeterministic(t *testing.T) {
	c := mixed(3, 1, 4, 2, 2)
	first, n1 := Place(c)
	for i := 0; i < 10; i++ {
		again, n2 := Place(c)
		if n1 != n2 || again.Bounds != first.Bounds {
			t.Fatalf("Run %d: counts %+v bounds %+v, want %+v %+v", i, n2, again.Bounds, n1, first.Bounds)
		}
		for j := range first.Pins {
			if again.Pins[j] != first.Pins[j] {
				t.Fatalf("Run %d: pin %d = %+v, want %+v", i, j, again.Pins[j], first.Pins[j])
			}
		}
	}
}

func TestBoundsAreOriginCentered(t *testing.T) {
	for inp := 0; inp < 4; inp++ {
		for out := 0; out < 4; out++ {
			for iop := 0; iop < 4; iop++ {
				placed, _ := Place(mixed(inp, out, iop, 2, 1))
				b := placed.Bounds
				if b.X0 != -b.X1 || b.Y0 != -b.Y1 {
					t.Errorf("in=%d out=%d iop=%d: bounds %+v not centered", inp, out, iop, b)
				}
			}
		}
	}
}

func TestCountsCoverEveryPin(t *testing.T) {
	c := cell.Cell{Pins: []cell.Pin{
		pin("VDD", cell.DirectionInput, cell.RolePower),
		pin("VSS", cell.DirectionOutput, cell.RoleGround),
		pin("CLK", cell.DirectionInput, cell.RoleClock),
		pin("Q", cell.DirectionOutput, cell.RoleSignal),
		pin("Z", cell.DirectionTristate, cell.RoleSignal),
		pin("IO", cell.DirectionBidirectional, cell.RoleSignal),
		pin("P", cell.DirectionPassive, cell.RoleSignal),
		pin("U", cell.DirectionUnspecified, cell.RoleClock),
	}}
	_, n := Place(c)

	if n.Total() != len(c.Pins) {
		t.Errorf("Total = %d, want %d", n.Total(), len(c.Pins))
	}
	if want := (Counts{Power: 1, Ground: 1, Input: 1, Output: 2, IOP: 3, Fixup: 1, Left: 3, Right: 3}); n != want {
		t.Errorf("Counts = %+v, want %+v", n, want)
	}
}

func TestCountSplitsRemainder(t *testing.T) {
	tests := []struct {
		inp, out, iop int
		fixup         int
		left, right   int
	}{
		{0, 0, 1, 0, 0, 1},
		{0, 0, 3, 0, 1, 2},
		{2, 2, 5, 0, 4, 5},
		{3, 1, 1, 1, 3, 2},
		{3, 1, 4, 2, 4, 4},
		{1, 4, 6, 3, 5, 6},
	}
	for _, tt := range tests {
		n := Count(mixed(tt.inp, tt.out, tt.iop, 0, 0).Pins)
		if n.Fixup != tt.fixup || n.Left != tt.left || n.Right != tt.right {
			t.Errorf("in=%d out=%d iop=%d: fixup=%d left=%d right=%d, want %d %d %d",
				tt.inp, tt.out, tt.iop, n.Fixup, n.Left, n.Right, tt.fixup, tt.left, tt.right)
		}
	}
}

func TestIOPBalancing(t *testing.T) {
	for inp := 0; inp < 6; inp++ {
		for out := 0; out < 6; out++ {
			for iop := 0; iop < 8; iop++ {
				name := fmt.Sprintf("in%d_out%d_iop%d", inp, out, iop)
				placed, n := Place(mixed(inp, out, iop, 1, 1))

				left, right := columns(placed)
				if n.Left != left || n.Right != right {
					t.Errorf("%s: counted %d/%d, placed %d/%d", name, n.Left, n.Right, left, right)
				}
				if iop >= abs(inp-out) && abs(left-right) > 1 {
					t.Errorf("%s: columns %d and %d are unbalanced", name, left, right)
				}
			}
		}
	}
}

func TestFixupGoesToShortSide(t *testing.T) {
	placed, n := Place(mixed(1, 4, 5, 0, 0))
	if n.Fixup != 3 {
		t.Fatalf("Fixup = %d, want 3", n.Fixup)
	}

	// Three IOP pins even out the left column, the last two alternate
	// starting on the right.
	iops := placed.Pins[5:]
	want := []float64{RotationLeft, RotationLeft, RotationLeft, RotationRight, RotationLeft}
	for i, p := range iops {
		if p.Placement.Rotation != want[i] {
			t.Errorf("Pin %s rotation = %v, want %v", p.Name, p.Placement.Rotation, want[i])
		}
	}
	if n.Left != 5 || n.Right != 5 {
		t.Errorf("Columns = %d/%d, want 5/5", n.Left, n.Right)
	}
}

func TestInputsAndOutputsTakeTopSlots(t *testing.T) {
	c := cell.Cell{ID: "IOCELL", Pins: []cell.Pin{
		pin("IO1", cell.DirectionBidirectional, cell.RoleSignal),
		pin("IO2", cell.DirectionBidirectional, cell.RoleSignal),
		pin("IO3", cell.DirectionBidirectional, cell.RoleSignal),
		pin("IO4", cell.DirectionBidirectional, cell.RoleSignal),
		pin("A", cell.DirectionInput, cell.RoleSignal),
		pin("Y", cell.DirectionOutput, cell.RoleSignal),
	}}
	placed, _ := Place(c)
	b := placed.Bounds
	top := b.Y1 - Pitch

	a, y := placed.Pins[4].Placement, placed.Pins[5].Placement
	if !near(a.Y, top) || !near(a.X, b.X0-Pitch) {
		t.Errorf("Input A at %+v, want first left slot (%v, %v)", a, b.X0-Pitch, top)
	}
	if !near(y.Y, top) || !near(y.X, b.X1+Pitch) {
		t.Errorf("Output Y at %+v, want first right slot (%v, %v)", y, b.X1+Pitch, top)
	}
	for _, p := range placed.Pins[:4] {
		if p.Placement.Y >= top-eps {
			t.Errorf("IOP pin %s at y=%v took a slot above the inputs and outputs", p.Name, p.Placement.Y)
		}
	}
}

func TestDeclarationOrderAcrossCategories(t *testing.T) {
	grouped := cell.Cell{Pins: []cell.Pin{
		pin("A", cell.DirectionInput, cell.RoleSignal),
		pin("B", cell.DirectionInput, cell.RoleSignal),
		pin("X", cell.DirectionOutput, cell.RoleSignal),
		pin("IO", cell.DirectionBidirectional, cell.RoleSignal),
		pin("P", cell.DirectionPassive, cell.RoleSignal),
		pin("VPWR", cell.DirectionBidirectional, cell.RolePower),
		pin("VGND", cell.DirectionBidirectional, cell.RoleGround),
	}}
	interleaved := cell.Cell{Pins: []cell.Pin{
		grouped.Pins[3], grouped.Pins[6], grouped.Pins[0], grouped.Pins[4],
		grouped.Pins[2], grouped.Pins[5], grouped.Pins[1],
	}}

	want := map[string]cell.Placement{}
	g, _ := Place(grouped)
	for _, p := range g.Pins {
		want[p.Name] = p.Placement
	}
	got, _ := Place(interleaved)
	for _, p := range got.Pins {
		if p.Placement != want[p.Name] {
			t.Errorf("Pin %s at %+v, want %+v", p.Name, p.Placement, want[p.Name])
		}
	}
}

func TestSlotsDoNotOverlap(t *testing.T) {
	placed, _ := Place(mixed(3, 1, 5, 3, 2))
	seen := map[cell.Placement]string{}
	for _, p := range placed.Pins {
		key := p.Placement
		key.Rotation = 0
		if other, dup := seen[key]; dup {
			t.Errorf("pins %s and %s share position (%v, %v)", other, p.Name, key.X, key.Y)
		}
		seen[key] = p.Name
	}

	b := placed.Bounds
	_, hpad := Padding(placed.Pins)
	for _, p := range placed.Pins {
		if cat := Categorize(p); cat == CategoryPower || cat == CategoryGround {
			if p.Placement.X <= b.X0 || p.Placement.X >= b.X1 {
				t.Errorf("Supply pin %s at x=%v outside the body", p.Name, p.Placement.X)
			}
			continue
		}
		if p.Placement.Y <= b.Y0+hpad || p.Placement.Y >= b.Y1-hpad {
			t.Errorf("Pin %s at y=%v outside the body", p.Name, p.Placement.Y)
		}
	}
}

func mixed(inp, out, iop, pwr, gnd int) cell.Cell {
	var pins []cell.Pin
	for i := 0; i < inp; i++ {
		pins = append(pins, pin(fmt.Sprintf("I%d", i), cell.DirectionInput, cell.RoleSignal))
	}
	for i := 0; i < out; i++ {
		pins = append(pins, pin(fmt.Sprintf("O%d", i), cell.DirectionOutput, cell.RoleSignal))
	}
	for i := 0; i < iop; i++ {
		pins = append(pins, pin(fmt.Sprintf("B%d", i), cell.DirectionBidirectional, cell.RoleSignal))
	}
	for i := 0; i < pwr; i++ {
		pins = append(pins, pin(fmt.Sprintf("VPWR%d", i), cell.DirectionBidirectional, cell.RolePower))
	}
	for i := 0; i < gnd; i++ {
		pins = append(pins, pin(fmt.Sprintf("VGND%d", i), cell.DirectionBidirectional, cell.RoleGround))
	}
	return cell.Cell{ID: "MIX", Pins: pins}
}

func columns(c cell.Cell) (left, right int) {
	for _, p := range c.Pins {
		switch Categorize(p) {
		case CategoryInput:
			left++
		case CategoryOutput:
			right++
		case CategoryIOP:
			if p.Placement.Rotation == RotationLeft {
				left++
			} else {
				right++
			}
		}
	}
	return left, right
}
