package symlib

import (
	"io"
	"os"
	"strconv"

	"github.com/OpenTraceLab/pdk2kicad/internal/errors"
	"github.com/OpenTraceLab/pdk2kicad/pkg/kicad/sexp"
	"github.com/OpenTraceLab/pdk2kicad/pkg/kicad/sexp/kicadsexp"
)

// Library is a symbol library read back from disk.
type Library struct {
	Version   int
	Generator string
	Symbols   []Symbol
}

// Symbol is one top-level symbol with the graphics and pins of all its
// units collected.
type Symbol struct {
	Name       string
	InBOM      bool
	OnBoard    bool
	Properties []sexp.Property
	Rectangles []sexp.Rectangle
	Pins       []sexp.Pin
	Units      []string
}

// Property returns the property with the given key.
func (s *Symbol) Property(key string) (sexp.Property, bool) {
	for _, p := range s.Properties {
		if p.Key == key {
			return p, true
		}
	}
	return sexp.Property{}, false
}

// Symbol returns the symbol with the given name.
func (l *Library) Symbol(name string) (*Symbol, bool) {
	for i := range l.Symbols {
		if l.Symbols[i].Name == name {
			return &l.Symbols[i], true
		}
	}
	return nil, false
}

// ReadFile reads and parses a symbol library file
func ReadFile(path string) (*Library, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open file")
	}
	defer f.Close()

	lib, err := Read(f)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", path)
	}
	return lib, nil
}

// Read parses a symbol library from r.
func Read(r io.Reader) (*Library, error) {
	sexps, err := kicadsexp.Parse(r)
	if err != nil {
		var serr *kicadsexp.SyntaxError
		if errors.As(err, &serr) {
			return nil, errors.Mark(err, errors.ErrSyntax)
		}
		return nil, errors.Wrap(err, "failed to parse s-expression")
	}
	if len(sexps) == 0 {
		return nil, errors.Mark(errors.New("empty file or no valid s-expressions found"), errors.ErrSyntax)
	}

	root := sexps[0]
	rootName, err := sexp.GetNodeName(root)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get root node name")
	}
	if rootName != "kicad_symbol_lib" {
		return nil, errors.Newf("not a KiCad symbol library: expected 'kicad_symbol_lib', got '%s'", rootName)
	}

	lib := &Library{}
	if versionNode, ok := sexp.FindNode(root, "version"); ok {
		if lib.Version, err = sexp.GetInt(versionNode, 1); err != nil {
			return nil, errors.Wrap(err, "version")
		}
	}
	if generatorNode, ok := sexp.FindNode(root, "generator"); ok {
		lib.Generator, _ = sexp.GetString(generatorNode, 1)
	}

	for _, node := range sexp.FindAllNodes(root, "symbol") {
		sym, err := parseSymbol(node)
		if err != nil {
			return nil, err
		}
		lib.Symbols = append(lib.Symbols, sym)
	}
	return lib, nil
}

func parseSymbol(node kicadsexp.Sexp) (Symbol, error) {
	sym := Symbol{
		InBOM:   sexp.GetFlag(node, "in_bom", true),
		OnBoard: sexp.GetFlag(node, "on_board", true),
	}
	name, err := sexp.GetQuotedString(node, 1)
	if err != nil {
		return sym, errors.Wrap(err, "symbol name")
	}
	sym.Name = name

	for _, pn := range sexp.FindAllNodes(node, "property") {
		prop, err := sexp.GetProperty(pn)
		if err != nil {
			return sym, errors.Wrapf(err, "symbol %s", name)
		}
		sym.Properties = append(sym.Properties, prop)
	}

	// Nested units carry the graphics and pins.
	for _, unitNode := range sexp.FindAllNodes(node, "symbol") {
		unitName, _ := sexp.GetQuotedString(unitNode, 1)
		sym.Units = append(sym.Units, unitName)

		for _, rn := range sexp.FindAllNodes(unitNode, "rectangle") {
			rect, err := sexp.GetRectangle(rn)
			if err != nil {
				return sym, errors.Wrapf(err, "symbol %s unit %s", name, unitName)
			}
			sym.Rectangles = append(sym.Rectangles, rect)
		}
		for _, pn := range sexp.FindAllNodes(unitNode, "pin") {
			pin, err := sexp.GetPin(pn)
			if err != nil {
				return sym, errors.Wrapf(err, "symbol %s unit %s", name, unitName)
			}
			sym.Pins = append(sym.Pins, pin)
		}
	}
	return sym, nil
}

// PinNumbers returns the pin numbers of s as integers, in file order.
// Non-numeric pin numbers are an error.
func (s *Symbol) PinNumbers() ([]int, error) {
	nums := make([]int, 0, len(s.Pins))
	for _, p := range s.Pins {
		n, err := strconv.Atoi(p.Number)
		if err != nil {
			return nil, errors.Newf("symbol %s: pin %s has non-numeric number %q", s.Name, p.Name, p.Number)
		}
		nums = append(nums, n)
	}
	return nums, nil
}
