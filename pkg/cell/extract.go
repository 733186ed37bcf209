package cell

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/OpenTraceLab/pdk2kicad/pkg/lef"
)

// Identity property ids.
const (
	IDReference = 0
	IDValue     = 1
	IDFootprint = 2
	IDDatasheet = 3
)

// Cell metadata property ids.
const (
	IDCellClass     = 10
	IDForeignCell   = 11
	IDCellOrigin    = 12
	IDCellSize      = 13
	IDCellSymmetry  = 14
	IDCellPDK       = 15
	IDCellLibrary   = 16
	IDForeignOrigin = 17
)

// Model metadata ids are allocated from this range by the model associator.
const (
	ModelIDFirst = 90
	ModelIDLast  = 99
)

// ReferencePrefix is the schematic reference designator of every cell symbol.
const ReferencePrefix = "X"

// Diagnostic is a non-fatal finding made while extracting a library.
type Diagnostic struct {
	Line  int    `json:"line" yaml:"line"`
	Macro string `json:"macro" yaml:"macro"`
	Msg   string `json:"msg" yaml:"msg"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("line %d: macro %s: %s", d.Line, d.Macro, d.Msg)
}

// Extraction is the result of turning one parsed library into cells.
type Extraction struct {
	Library     string       // file stem, used for prefix stripping and model lookup
	Source      string       // path of the library file
	Cells       []Cell       // one per macro, pins unplaced
	Diagnostics []Diagnostic // repeated statements and recovered mismatches
	IgnoredPins int          // supply pins dropped by IgnorePowerPins
	Skipped     int          // opaque statements ignored by the parser
}

// LibraryStem returns the library name of a LEF path: the base name without extension.
func LibraryStem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Extract builds one Cell per macro of lib. path identifies the library
// file; its stem is the library name.
func Extract(lib *lef.Library, path string, opts Options) (*Extraction, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	ex := &Extraction{
		Library: LibraryStem(path),
		Source:  path,
		Skipped: lib.UnknownCount(),
	}

	for _, macro := range lib.Macros() {
		c, err := ex.extractMacro(macro, opts)
		if err != nil {
			return nil, err
		}
		ex.Cells = append(ex.Cells, c)
	}
	return ex, nil
}

func (ex *Extraction) note(line int, macro, format string, args ...any) {
	ex.Diagnostics = append(ex.Diagnostics, Diagnostic{Line: line, Macro: macro, Msg: fmt.Sprintf(format, args...)})
}

func (ex *Extraction) mismatch(line int, macro, format string, args ...any) error {
	return &StructuralMismatchError{
		File:   ex.Source,
		Line:   line,
		Macro:  macro,
		Detail: fmt.Sprintf(format, args...),
	}
}

// macroFacts collects the last occurrence of each single-valued macro statement.
type macroFacts struct {
	class         *lef.Class
	foreign       *lef.Foreign
	origin        *lef.Point
	size          *lef.Size
	symmetry      *lef.Symmetry
	classRepeated int
}

func (ex *Extraction) extractMacro(m *lef.Macro, opts Options) (Cell, error) {
	if m.EndName != m.Name {
		if opts.Strict {
			return Cell{}, ex.mismatch(m.Pos.Line, m.Name, "closed as END %s", m.EndName)
		}
		ex.note(m.Pos.Line, m.Name, "closed as END %s, keeping %s", m.EndName, m.Name)
	}

	var facts macroFacts
	var pins []Pin
	for _, stmt := range m.Statements {
		switch {
		case stmt.Class != nil:
			if facts.class != nil {
				facts.classRepeated++
			}
			facts.class = stmt.Class
		case stmt.Foreign != nil:
			facts.foreign = stmt.Foreign
		case stmt.Origin != nil:
			facts.origin = stmt.Origin
		case stmt.Size != nil:
			facts.size = stmt.Size
		case stmt.Symmetry != nil:
			facts.symmetry = stmt.Symmetry
		case stmt.Pin != nil:
			pin, keep, err := ex.extractPin(m, stmt.Pin, opts)
			if err != nil {
				return Cell{}, err
			}
			if !keep {
				ex.IgnoredPins++
				continue
			}
			pins, err = ex.addPin(m, pins, pin, stmt.Pin.Pos.Line, opts)
			if err != nil {
				return Cell{}, err
			}
		case stmt.EEQ != nil, stmt.Site != nil, stmt.Obstruction != nil,
			stmt.Density != nil, stmt.Property != nil, stmt.Unknown != nil:
			// Not carried onto the symbol.
		}
	}
	if facts.classRepeated > 0 {
		ex.note(m.Pos.Line, m.Name, "CLASS repeated %d times, last one wins", facts.classRepeated+1)
	}

	for i := range pins {
		pins[i].Number = i + 1
	}

	c := Cell{
		ID:      opts.CellName(m.Name, ex.Library),
		Library: ex.Library,
		Source:  filepath.Base(ex.Source),
		Pins:    pins,
	}
	for _, p := range cellProperties(c, facts, opts) {
		if err := c.AddProperty(p); err != nil {
			return Cell{}, err
		}
	}
	return c, nil
}

// extractPin resolves direction and role of a pin. keep is false when the
// pin is a supply pin and supply pins are ignored.
func (ex *Extraction) extractPin(m *lef.Macro, p *lef.Pin, opts Options) (Pin, bool, error) {
	if p.EndName != p.Name {
		if opts.Strict {
			return Pin{}, false, ex.mismatch(p.Pos.Line, m.Name, "pin %s closed as END %s", p.Name, p.EndName)
		}
		ex.note(p.Pos.Line, m.Name, "pin %s closed as END %s", p.Name, p.EndName)
	}

	var (
		dir      *lef.Direction
		use      *lef.Use
		dirCount int
		useCount int
	)
	for _, stmt := range p.Statements {
		switch {
		case stmt.Direction != nil:
			dir = stmt.Direction
			dirCount++
		case stmt.Use != nil:
			use = stmt.Use
			useCount++
		}
	}
	if dirCount > 1 {
		ex.note(p.Pos.Line, m.Name, "pin %s: DIRECTION repeated %d times, last one wins", p.Name, dirCount)
	}
	if useCount > 1 {
		ex.note(p.Pos.Line, m.Name, "pin %s: USE repeated %d times, last one wins", p.Name, useCount)
	}

	pin := Pin{Name: p.Name, Direction: DirectionBidirectional, Role: RoleSignal}
	if dir != nil {
		pin.Direction = ParseDirection(dir.Kind, dir.Tristate)
	}
	switch {
	case use != nil:
		pin.Role = ParseRole(use.Kind)
	case opts.InferPowerFromName:
		pin.Role = InferRole(p.Name)
	}

	if opts.IgnorePowerPins && pin.IsSupply() {
		return pin, false, nil
	}
	return pin, true, nil
}

// addPin appends pin, enforcing unique names within the macro.
func (ex *Extraction) addPin(m *lef.Macro, pins []Pin, pin Pin, line int, opts Options) ([]Pin, error) {
	for i, existing := range pins {
		if existing.Name != pin.Name {
			continue
		}
		if opts.Strict {
			return nil, ex.mismatch(line, m.Name, "pin %s declared twice", pin.Name)
		}
		ex.note(line, m.Name, "pin %s declared twice, last one wins", pin.Name)
		pins = append(pins[:i], pins[i+1:]...)
		break
	}
	return append(pins, pin), nil
}

func cellProperties(c Cell, facts macroFacts, opts Options) []Property {
	size := [2]float64{}
	if facts.size != nil {
		size = [2]float64{facts.size.Width, facts.size.Height}
	}
	origin := [2]float64{}
	if facts.origin != nil {
		origin = [2]float64{facts.origin.X, facts.origin.Y}
	}
	class := ""
	if facts.class != nil {
		class = strings.TrimSpace(facts.class.Type + " " + facts.class.Subtype)
	}
	foreign := ""
	foreignOrigin := [2]float64{}
	if facts.foreign != nil {
		foreign = facts.foreign.Name
		if facts.foreign.Origin != nil {
			foreignOrigin = [2]float64{facts.foreign.Origin.X, facts.foreign.Origin.Y}
		}
	}

	return []Property{
		{ID: IDReference, Name: "Reference", Value: ReferencePrefix, Hidden: true},
		{ID: IDValue, Name: "Value", Value: c.ID},
		{ID: IDFootprint, Name: "Footprint", Value: tuple(size), Hidden: true},
		{ID: IDDatasheet, Name: "Datasheet", Value: c.Source, Hidden: true},
		{ID: IDCellClass, Name: "Cell Class", Value: class, Hidden: true},
		{ID: IDForeignCell, Name: "Foreign Cell", Value: foreign, Hidden: true},
		{ID: IDCellOrigin, Name: "Cell Origin", Value: tuple(origin), Hidden: true},
		{ID: IDCellSize, Name: "Cell Size", Value: tuple(size), Hidden: true},
		{ID: IDCellSymmetry, Name: "Cell Symmetry", Value: facts.symmetry.String(), Hidden: true},
		{ID: IDCellPDK, Name: "Cell PDK", Value: opts.PDK, Hidden: true},
		{ID: IDCellLibrary, Name: "Cell Library", Value: c.Library, Hidden: true},
		{ID: IDForeignOrigin, Name: "Foreign Origin", Value: tuple(foreignOrigin), Hidden: true},
	}
}

// tuple renders a coordinate pair as "(x, y)".
func tuple(v [2]float64) string {
	return "(" + strconv.FormatFloat(v[0], 'f', -1, 64) + ", " + strconv.FormatFloat(v[1], 'f', -1, 64) + ")"
}
