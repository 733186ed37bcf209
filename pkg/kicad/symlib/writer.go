// Package symlib writes placed cells as a KiCad 6 symbol library and reads
// such libraries back.
package symlib

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/OpenTraceLab/pdk2kicad/internal/errors"
	"github.com/OpenTraceLab/pdk2kicad/pkg/cell"
	"github.com/OpenTraceLab/pdk2kicad/pkg/kicad/sexp/kicadsexp"
)

// Format constants of the emitted library.
const (
	Version   = 20211014
	Generator = "pdk2kicad"

	PinLength   = 2.54
	FontSize    = 1.0
	StrokeWidth = 0.1
)

// Write renders cells as one symbol library. Cells are written in the given
// order, properties by id.
func Write(w io.Writer, cells []cell.Cell) error {
	bw := bufio.NewWriter(w)
	e := &emitter{w: bw}

	e.line(0, "(kicad_symbol_lib (version %d) (generator %s)", Version, Generator)
	for i := range cells {
		e.symbol(&cells[i])
	}
	e.line(0, ")")

	if e.err != nil {
		return errors.Wrap(e.err, "write symbol library")
	}
	return errors.Wrap(bw.Flush(), "write symbol library")
}

// Render returns the library text for cells.
func Render(cells []cell.Cell) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, cells); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteFile writes the library to path, creating parent directories. The
// file is written under a temporary name and renamed into place, so a
// failed run never leaves a truncated library behind.
func WriteFile(path string, cells []cell.Cell) error {
	data, err := Render(cells)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "create output directory")
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return errors.Wrap(err, "create output file")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "write %s", path)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "write %s", path)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return errors.Wrapf(err, "write %s", path)
	}
	return errors.Wrapf(os.Rename(tmp.Name(), path), "write %s", path)
}

type emitter struct {
	w   *bufio.Writer
	err error
}

func (e *emitter) line(indent int, format string, args ...any) {
	if e.err != nil {
		return
	}
	for i := 0; i < indent; i++ {
		if _, e.err = e.w.WriteString("  "); e.err != nil {
			return
		}
	}
	_, e.err = fmt.Fprintf(e.w, format+"\n", args...)
}

func (e *emitter) symbol(c *cell.Cell) {
	q := kicadsexp.Quote
	e.line(1, "(symbol %s (in_bom no) (on_board yes)", q(c.ID))
	for _, p := range c.SortedProperties() {
		e.line(2, "(property %s %s (id %d) (at %s %s %s)", q(p.Name), q(p.Value), p.ID,
			Num(p.Placement.X), Num(p.Placement.Y), Num(p.Placement.Rotation))
		e.line(3, "(effects %s%s%s)", font(), justify(p.Justify), hide(p.Hidden))
		e.line(2, ")")
	}

	b := c.Bounds
	e.line(2, "(symbol %s", q(c.ID+"_0_1"))
	e.line(3, "(rectangle (start %s %s) (end %s %s)", Num(b.X0), Num(b.Y0), Num(b.X1), Num(b.Y1))
	e.line(4, "(stroke (width %s) (type solid) (color 0 0 0 0))", Num(StrokeWidth))
	e.line(4, "(fill (type background))")
	e.line(3, ")")
	e.line(2, ")")

	e.line(2, "(symbol %s", q(c.ID+"_1_1"))
	for _, p := range c.Pins {
		e.line(3, "(pin %s %s (at %s %s %s) (length %s)", p.ElectricalType(), p.GraphicalStyle(),
			Num(p.Placement.X), Num(p.Placement.Y), Num(p.Placement.Rotation), Num(PinLength))
		e.line(4, "(name %s (effects %s hide))", q(p.Name), font())
		e.line(4, "(number %s (effects %s hide))", q(strconv.Itoa(p.Number)), font())
		e.line(3, ")")
	}
	e.line(2, ")")
	e.line(1, ")")
}

func font() string {
	return "(font (size " + Num(FontSize) + " " + Num(FontSize) + "))"
}

func justify(on bool) string {
	if on {
		return " (justify left top)"
	}
	return ""
}

func hide(on bool) string {
	if on {
		return " hide"
	}
	return ""
}

// Num formats a coordinate in its shortest form, rounded to 1e-4.
func Num(v float64) string {
	r := math.Round(v*1e4) / 1e4
	if r == 0 {
		r = 0 // drop the sign of -0
	}
	return strconv.FormatFloat(r, 'f', -1, 64)
}
