package spice

import (
	"fmt"
	"strings"

	"github.com/OpenTraceLab/pdk2kicad/internal/errors"
	"github.com/OpenTraceLab/pdk2kicad/pkg/cell"
)

// Mode selects how a matched model is attached to a cell.
type Mode int

const (
	// ModeNone disables association.
	ModeNone Mode = iota
	// ModeLink references the model file and sub-circuit by name.
	ModeLink
	// ModeInline embeds the escaped sub-circuit text.
	ModeInline
)

var modeNames = map[Mode]string{
	ModeNone:   "none",
	ModeLink:   "link",
	ModeInline: "inline",
}

func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode parses "none", "link" or "inline". The empty string is none.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "", "none":
		return ModeNone, nil
	case "link":
		return ModeLink, nil
	case "inline":
		return ModeInline, nil
	}
	return ModeNone, errors.Newf("unknown model mode %q (want none, link or inline)", s)
}

// Preferred ids of the simulation properties. A taken id falls back to the
// next free one in the model range.
const (
	IDSimDevice  = 90
	IDSimLibrary = 91
	IDSimName    = 92
	IDSimParams  = 93
)

// UnresolvedModelReference reports a cell without a matching sub-circuit.
// It is informational: the cell is kept without simulation metadata.
type UnresolvedModelReference struct {
	Library string
	Cell    string
	Lookup  string
}

func (e *UnresolvedModelReference) Error() string {
	return fmt.Sprintf("library %s: no model %s for cell %s", e.Library, e.Lookup, e.Cell)
}

// Is makes an UnresolvedModelReference match errors.ErrUnresolvedModel.
func (e *UnresolvedModelReference) Is(target error) bool {
	return target == errors.ErrUnresolvedModel
}

// Result counts the outcome of associating a set of cells.
type Result struct {
	Hits       int
	Misses     int
	Unresolved []*UnresolvedModelReference
}

// Add folds o into r.
func (r *Result) Add(o Result) {
	r.Hits += o.Hits
	r.Misses += o.Misses
	r.Unresolved = append(r.Unresolved, o.Unresolved...)
}

// Associator attaches models from a Repository to cells.
type Associator struct {
	Mode   Mode
	Models Repository
}

// NewAssociator returns an Associator reading from models.
func NewAssociator(mode Mode, models Repository) *Associator {
	return &Associator{Mode: mode, Models: models}
}

// LookupName returns the sub-circuit name a cell is matched by:
// "<library>__<id>", or the id itself when it still carries the prefix.
func LookupName(c *cell.Cell) string {
	prefix := c.Library + "__"
	if c.Library == "" || strings.HasPrefix(c.ID, prefix) {
		return c.ID
	}
	return prefix + c.ID
}

// Attach appends simulation properties to c if its model is known. A
// missing model is reported as *UnresolvedModelReference and leaves c
// untouched. Attach never changes existing properties or geometry.
func (a *Associator) Attach(c *cell.Cell) error {
	if a.Mode == ModeNone || a.Models == nil {
		return nil
	}
	lookup := LookupName(c)
	model, ok := a.Models.Lookup(c.Library, lookup)
	if !ok {
		return &UnresolvedModelReference{Library: c.Library, Cell: c.ID, Lookup: lookup}
	}

	var props []cell.Property
	switch a.Mode {
	case ModeLink:
		props = []cell.Property{
			{ID: IDSimDevice, Name: "Sim.Device", Value: "SUBCKT", Hidden: true},
			{ID: IDSimLibrary, Name: "Sim.Library", Value: model.Source, Hidden: true},
			{ID: IDSimName, Name: "Sim.Name", Value: model.Name, Hidden: true},
		}
	case ModeInline:
		props = []cell.Property{
			{ID: IDSimDevice, Name: "Sim.Device", Value: "SPICE", Hidden: true},
			{ID: IDSimParams, Name: "Sim.Params", Value: `model="` + Escape(model.Text) + `"`, Hidden: true},
		}
	}

	// Allocate on a copy so a failure leaves c as it was.
	staged := *c
	staged.Properties = append([]cell.Property(nil), c.Properties...)
	for _, p := range props {
		id, ok := allocate(&staged, p.ID)
		if !ok {
			return &cell.StructuralMismatchError{
				File:   c.Source,
				Macro:  c.ID,
				Detail: fmt.Sprintf("no free property id in %d..%d for %s", cell.ModelIDFirst, cell.ModelIDLast, p.Name),
			}
		}
		p.ID = id
		if err := staged.AddProperty(p); err != nil {
			return err
		}
	}
	c.Properties = staged.Properties
	return nil
}

// AttachAll runs Attach over cells in place and counts hits and misses.
// Only structural failures are returned as errors.
func (a *Associator) AttachAll(cells []cell.Cell) (Result, error) {
	var res Result
	if a.Mode == ModeNone || a.Models == nil {
		return res, nil
	}
	for i := range cells {
		err := a.Attach(&cells[i])
		var unresolved *UnresolvedModelReference
		switch {
		case err == nil:
			res.Hits++
		case errors.As(err, &unresolved):
			res.Misses++
			res.Unresolved = append(res.Unresolved, unresolved)
		default:
			return res, err
		}
	}
	return res, nil
}

func allocate(c *cell.Cell, preferred int) (int, bool) {
	if preferred >= cell.ModelIDFirst && preferred <= cell.ModelIDLast && !c.HasPropertyID(preferred) {
		return preferred, true
	}
	return c.FreePropertyID(cell.ModelIDFirst, cell.ModelIDLast)
}

var escaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\r\n", `\n`, "\n", `\n`)

// Escape makes model text safe to embed in a quoted parameter value.
func Escape(text string) string {
	return escaper.Replace(text)
}
