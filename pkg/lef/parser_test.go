package lef

import (
	"strings"
	"sync"
	"testing"

	"github.com/OpenTraceLab/pdk2kicad/internal/errors"
)

func TestParseCellLibrary(t *testing.T) {
	parser, err := NewParser()
	if err != nil {
		t.Fatalf("Failed to create parser: %v", err)
	}

	lib, err := parser.ParseFile("testdata/cells.lef")
	if err != nil {
		t.Fatalf("Failed to parse: %v", err)
	}

	if lib.Version() != "5.7" {
		t.Errorf("Expected version '5.7', got '%s'", lib.Version())
	}
	if lib.DividerChar() != "/" {
		t.Errorf("Expected divider '/', got '%s'", lib.DividerChar())
	}
	if lib.BusBitChars() != "[]" {
		t.Errorf("Expected bus bit chars '[]', got '%s'", lib.BusBitChars())
	}
	if lib.DatabaseUnits() != 1000 {
		t.Errorf("Expected 1000 database units, got %v", lib.DatabaseUnits())
	}

	macros := lib.Macros()
	if len(macros) != 3 {
		t.Fatalf("Expected 3 macros, got %d", len(macros))
	}

	expected := []struct {
		name string
		pins []string
	}{
		{"cells__buf_1", []string{"A", "X", "VGND", "VPWR"}},
		{"cells__dfxtp_1", []string{"CLK", "D", "Q", "VGND", "VPWR"}},
		{"cells__ebufn_2", []string{"A", "TE_B", "Z", "IO"}},
	}
	for i, exp := range expected {
		m := macros[i]
		if m.Name != exp.name {
			t.Errorf("Macro %d: expected name '%s', got '%s'", i, exp.name, m.Name)
		}
		if m.EndName != exp.name {
			t.Errorf("Macro %d: expected end name '%s', got '%s'", i, exp.name, m.EndName)
		}
		pins := m.Pins()
		if len(pins) != len(exp.pins) {
			t.Fatalf("Macro %s: expected %d pins, got %d", exp.name, len(exp.pins), len(pins))
		}
		for j, name := range exp.pins {
			if pins[j].Name != name {
				t.Errorf("Macro %s pin %d: expected '%s', got '%s'", exp.name, j, name, pins[j].Name)
			}
		}
	}
}

func TestParseMacroStatements(t *testing.T) {
	parser, err := NewParser()
	if err != nil {
		t.Fatalf("Failed to create parser: %v", err)
	}

	lib, err := parser.ParseFile("testdata/cells.lef")
	if err != nil {
		t.Fatalf("Failed to parse: %v", err)
	}

	m := lib.Macros()[1]
	var (
		class    *Class
		foreign  *Foreign
		size     *Size
		symmetry *Symmetry
		site     *SiteRef
	)
	for _, stmt := range m.Statements {
		switch {
		case stmt.Class != nil:
			class = stmt.Class
		case stmt.Foreign != nil:
			foreign = stmt.Foreign
		case stmt.Size != nil:
			size = stmt.Size
		case stmt.Symmetry != nil:
			symmetry = stmt.Symmetry
		case stmt.Site != nil:
			site = stmt.Site
		}
	}

	if class == nil || class.Type != "CORE" || class.Subtype != "" {
		t.Errorf("Expected CLASS CORE, got %+v", class)
	}
	if foreign == nil || foreign.Name != "cells__dfxtp_1" {
		t.Fatalf("Expected FOREIGN cells__dfxtp_1, got %+v", foreign)
	}
	if foreign.Origin == nil || foreign.Origin.X != 0 || foreign.Origin.Y != 0 {
		t.Errorf("Expected foreign origin (0, 0), got %+v", foreign.Origin)
	}
	if foreign.Orientation != "N" {
		t.Errorf("Expected foreign orientation 'N', got '%s'", foreign.Orientation)
	}
	if size == nil || size.Width != 7.36 || size.Height != 2.72 {
		t.Errorf("Expected SIZE 7.36 BY 2.72, got %+v", size)
	}
	if symmetry.String() != "X Y R90" {
		t.Errorf("Expected symmetry 'X Y R90', got '%s'", symmetry.String())
	}
	if site == nil || site.Name != "unithd" || site.Origin != nil {
		t.Errorf("Expected SITE unithd without origin, got %+v", site)
	}
}

func TestParsePinStatements(t *testing.T) {
	parser, err := NewParser()
	if err != nil {
		t.Fatalf("Failed to create parser: %v", err)
	}

	lib, err := parser.ParseFile("testdata/cells.lef")
	if err != nil {
		t.Fatalf("Failed to parse: %v", err)
	}

	tests := []struct {
		macro     int
		pin       int
		direction string
		tristate  bool
		use       string
	}{
		{0, 0, "INPUT", false, "SIGNAL"},
		{0, 2, "INOUT", false, "GROUND"},
		{1, 0, "INPUT", false, "CLOCK"},
		{1, 3, "INOUT", false, ""},
		{2, 2, "OUTPUT", true, "SIGNAL"},
	}

	for _, tt := range tests {
		pin := lib.Macros()[tt.macro].Pins()[tt.pin]
		t.Run(pin.Name, func(t *testing.T) {
			var dir *Direction
			use := ""
			for _, stmt := range pin.Statements {
				if stmt.Direction != nil {
					dir = stmt.Direction
				}
				if stmt.Use != nil {
					use = stmt.Use.Kind
				}
			}
			if dir == nil {
				t.Fatal("Direction is nil")
			}
			if dir.Kind != tt.direction {
				t.Errorf("Expected direction '%s', got '%s'", tt.direction, dir.Kind)
			}
			if dir.Tristate != tt.tristate {
				t.Errorf("Expected tristate %v, got %v", tt.tristate, dir.Tristate)
			}
			if use != tt.use {
				t.Errorf("Expected use '%s', got '%s'", tt.use, use)
			}
		})
	}
}

func TestParseGeometry(t *testing.T) {
	input := `
VERSION 5.8 ;
MACRO GEO
  PIN A
    DIRECTION INPUT ;
    PORT CLASS CORE ;
      LAYER met1 SPACING 0.14 ;
        WIDTH 0.2 ;
        PATH 0 0 1 0 1 1 ;
        RECT 0 0 1 1 0.5 ;
      LAYER met2 DESIGNRULEWIDTH 0.3 ;
        POLYGON 0 0 2 0 2 2 0 2 ;
        VIA 0.5 0.5 M1M2_PR ;
    END
  END A
  DENSITY
    LAYER met1 ;
      RECT 0 0 10 10 45.5 ;
  END
END GEO
END LIBRARY
`
	parser, err := NewParser()
	if err != nil {
		t.Fatalf("Failed to create parser: %v", err)
	}

	lib, err := parser.ParseString("geo.lef", input)
	if err != nil {
		t.Fatalf("Failed to parse: %v", err)
	}

	pin := lib.Macros()[0].Pins()[0]
	var port *Port
	for _, stmt := range pin.Statements {
		if stmt.Port != nil {
			port = stmt.Port
		}
	}
	if port == nil {
		t.Fatal("Port is nil")
	}
	if port.Class != "CORE" {
		t.Errorf("Expected port class 'CORE', got '%s'", port.Class)
	}
	if len(port.Layers) != 2 {
		t.Fatalf("Expected 2 layers, got %d", len(port.Layers))
	}

	met1 := port.Layers[0]
	if met1.Layer.Name != "met1" || met1.Layer.Spacing == nil || *met1.Layer.Spacing != 0.14 {
		t.Errorf("Expected met1 with spacing 0.14, got %+v", met1.Layer)
	}
	if len(met1.Shapes) != 3 {
		t.Fatalf("Expected 3 shapes on met1, got %d", len(met1.Shapes))
	}
	if met1.Shapes[0].Width == nil || *met1.Shapes[0].Width != 0.2 {
		t.Errorf("Expected WIDTH 0.2")
	}
	if met1.Shapes[1].Path == nil || len(met1.Shapes[1].Path.Points) != 3 {
		t.Errorf("Expected PATH with 3 points")
	}
	rect := met1.Shapes[2].Rect
	if rect == nil || rect.X1 != 1 || rect.Value == nil || *rect.Value != 0.5 {
		t.Errorf("Expected RECT with diffusion value 0.5, got %+v", rect)
	}

	met2 := port.Layers[1]
	if met2.Layer.DesignRuleWidth == nil || *met2.Layer.DesignRuleWidth != 0.3 {
		t.Errorf("Expected met2 design rule width 0.3")
	}
	if met2.Shapes[0].Polygon == nil || len(met2.Shapes[0].Polygon.Points) != 4 {
		t.Errorf("Expected POLYGON with 4 points")
	}
	if met2.Shapes[1].Via == nil || met2.Shapes[1].Via.Name != "M1M2_PR" {
		t.Errorf("Expected VIA M1M2_PR")
	}
}

func TestParseSyntaxErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"missing semicolon", "VERSION 5.7 ;\nMACRO INV\n  SIZE 1.0 BY 2.0\n  PIN A\n  END A\nEND INV\nEND LIBRARY\n"},
		{"missing end library", "VERSION 5.7 ;\nMACRO INV\nEND INV\n"},
		{"polygon with two points", "MACRO INV\n  OBS\n    LAYER li1 ;\n      POLYGON 0 0 1 1 ;\n  END\nEND INV\nEND LIBRARY\n"},
		{"malformed size", "MACRO INV\n  SIZE 1.0 1.0 ;\nEND INV\nEND LIBRARY\n"},
		{"bad direction", "MACRO INV\n  PIN A\n    DIRECTION SIDEWAYS ;\n  END A\nEND INV\nEND LIBRARY\n"},
	}

	parser, err := NewParser()
	if err != nil {
		t.Fatalf("Failed to create parser: %v", err)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lib, err := parser.ParseString("bad.lef", tt.input)
			if err == nil {
				t.Fatal("Expected syntax error, got nil")
			}
			if lib != nil {
				t.Errorf("Expected no partial result")
			}
			var serr *SyntaxError
			if !errors.As(err, &serr) {
				t.Fatalf("Expected *SyntaxError, got %T: %v", err, err)
			}
			if serr.File != "bad.lef" {
				t.Errorf("Expected file 'bad.lef', got '%s'", serr.File)
			}
			if serr.Line == 0 {
				t.Errorf("Expected a line number in %v", serr)
			}
			if !errors.Is(err, errors.ErrSyntax) {
				t.Errorf("Expected error class ErrSyntax")
			}
		})
	}
}

func TestSyntaxErrorLocation(t *testing.T) {
	parser, err := NewParser()
	if err != nil {
		t.Fatalf("Failed to create parser: %v", err)
	}

	input := "VERSION 5.7 ;\nMACRO INV\n  SIZE 1.0 BY 2.0\n  PIN A\n  END A\nEND INV\nEND LIBRARY\n"
	_, err = parser.ParseString("inv.lef", input)

	var serr *SyntaxError
	if !errors.As(err, &serr) {
		t.Fatalf("Expected *SyntaxError, got %v", err)
	}
	if serr.Line != 4 {
		t.Errorf("Expected error on line 4, got %d (%v)", serr.Line, serr)
	}
	if !strings.HasPrefix(serr.Error(), "inv.lef:4:") {
		t.Errorf("Expected message to start with location, got '%s'", serr.Error())
	}
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"divider is a word char", `DIVIDERCHAR "a" ;` + "\nEND LIBRARY\n", "DIVIDERCHAR"},
		{"divider too long", `DIVIDERCHAR "//" ;` + "\nEND LIBRARY\n", "DIVIDERCHAR"},
		{"bus bit single char", `BUSBITCHARS "[" ;` + "\nEND LIBRARY\n", "BUSBITCHARS"},
		{"unit pair", "UNITS\n  DATABASE OHMS 1000 ;\nEND UNITS\nEND LIBRARY\n", "DATABASE unit must be MICRONS"},
		{"class subtype", "MACRO T\n  CLASS CORE BUMP ;\nEND T\nEND LIBRARY\n", "does not take subtype"},
	}

	parser, err := NewParser()
	if err != nil {
		t.Fatalf("Failed to create parser: %v", err)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parser.ParseString("v.lef", tt.input)
			if err == nil {
				t.Fatal("Expected validation error, got nil")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Expected error containing '%s', got '%v'", tt.want, err)
			}
			if !errors.Is(err, errors.ErrSyntax) {
				t.Errorf("Expected error class ErrSyntax")
			}
		})
	}
}

func TestUnknownStatementPolicy(t *testing.T) {
	input := `
VERSION 5.8 ;
CLEARANCEMEASURE EUCLIDEAN ;
MACRO T
  CLASS CORE TIELOW ;
  SOURCE USER ;
  PIN A
    DIRECTION INPUT ;
    NEWFANGLED 1 2 $x ;
  END A
END T
END LIBRARY
`
	skip, err := NewParser()
	if err != nil {
		t.Fatalf("Failed to create parser: %v", err)
	}
	lib, err := skip.ParseString("u.lef", input)
	if err != nil {
		t.Fatalf("Failed to parse with skip policy: %v", err)
	}
	if lib.UnknownCount() != 3 {
		t.Errorf("Expected 3 unknown statements, got %d", lib.UnknownCount())
	}

	reject, err := NewParser(WithUnknownPolicy(RejectUnknown))
	if err != nil {
		t.Fatalf("Failed to create parser: %v", err)
	}
	_, err = reject.ParseString("u.lef", input)
	var serr *SyntaxError
	if !errors.As(err, &serr) {
		t.Fatalf("Expected *SyntaxError with reject policy, got %v", err)
	}
	if serr.Line != 3 || !strings.Contains(serr.Msg, "CLEARANCEMEASURE") {
		t.Errorf("Expected CLEARANCEMEASURE rejected on line 3, got %v", serr)
	}
}

func TestParseUnknownPolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    UnknownPolicy
		wantErr bool
	}{
		{"", SkipUnknown, false},
		{"skip", SkipUnknown, false},
		{"REJECT", RejectUnknown, false},
		{"ignore", SkipUnknown, true},
	}
	for _, tt := range tests {
		got, err := ParseUnknownPolicy(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseUnknownPolicy(%q): unexpected error state %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseUnknownPolicy(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParserConcurrentUse(t *testing.T) {
	parser, err := NewParser()
	if err != nil {
		t.Fatalf("Failed to create parser: %v", err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			lib, err := parser.ParseFile("testdata/cells.lef")
			if err != nil {
				errs <- err
				return
			}
			if len(lib.Macros()) != 3 {
				errs <- errors.Newf("expected 3 macros, got %d", len(lib.Macros()))
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("Concurrent parse failed: %v", err)
	}
}
