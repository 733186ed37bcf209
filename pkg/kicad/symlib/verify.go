package symlib

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	chewxy "github.com/chewxy/sexp"

	"github.com/OpenTraceLab/pdk2kicad/internal/errors"
)

// Report is the outcome of Verify.
type Report struct {
	Symbols  int      `json:"symbols" yaml:"symbols"`
	Pins     int      `json:"pins" yaml:"pins"`
	Problems []string `json:"problems,omitempty" yaml:"problems,omitempty"`
}

// OK reports whether no problem was found.
func (r *Report) OK() bool {
	return len(r.Problems) == 0
}

func (r *Report) problemf(format string, args ...any) {
	r.Problems = append(r.Problems, fmt.Sprintf(format, args...))
}

// Verify checks a symbol library twice: its bracket structure with an
// independent general-purpose S-expression parser, then the content read
// back through Read. Malformed text is an error; content problems are
// listed in the report.
func Verify(data []byte) (*Report, error) {
	skeleton, err := blankStrings(data)
	if err != nil {
		return nil, err
	}
	exprs, err := chewxy.ParseString(skeleton)
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "s-expression structure"), errors.ErrSyntax)
	}

	report := &Report{}
	if len(exprs) != 1 || exprs[0].IsLeaf() {
		report.problemf("expected a single top-level list, found %d expressions", len(exprs))
	}

	lib, err := Read(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if lib.Version < Version {
		report.problemf("version %d predates %d", lib.Version, Version)
	}

	names := make(map[string]bool, len(lib.Symbols))
	for i := range lib.Symbols {
		sym := &lib.Symbols[i]
		report.Symbols++
		report.Pins += len(sym.Pins)
		if names[sym.Name] {
			report.problemf("symbol %s defined twice", sym.Name)
		}
		names[sym.Name] = true
		checkSymbol(report, sym)
	}
	return report, nil
}

// VerifyFile runs Verify on the file at path.
func VerifyFile(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read file")
	}
	report, err := Verify(data)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", path)
	}
	return report, nil
}

func checkSymbol(r *Report, sym *Symbol) {
	for _, key := range []string{"Reference", "Value"} {
		if _, ok := sym.Property(key); !ok {
			r.problemf("symbol %s: missing %s property", sym.Name, key)
		}
	}

	ids := make(map[int]string, len(sym.Properties))
	for _, p := range sym.Properties {
		if other, dup := ids[p.ID]; dup {
			r.problemf("symbol %s: properties %s and %s share id %d", sym.Name, other, p.Key, p.ID)
		}
		ids[p.ID] = p.Key
	}

	if len(sym.Rectangles) == 0 {
		r.problemf("symbol %s: no body rectangle", sym.Name)
	}
	for _, rect := range sym.Rectangles {
		if rect.Start.X > rect.End.X || rect.Start.Y > rect.End.Y {
			r.problemf("symbol %s: inverted rectangle", sym.Name)
		}
	}

	numbers := make(map[string]string, len(sym.Pins))
	for _, p := range sym.Pins {
		if p.Name == "" {
			r.problemf("symbol %s: pin %s has no name", sym.Name, p.Number)
		}
		if other, dup := numbers[p.Number]; dup {
			r.problemf("symbol %s: pins %s and %s share number %s", sym.Name, other, p.Name, p.Number)
		}
		numbers[p.Number] = p.Name
		if p.Length <= 0 {
			r.problemf("symbol %s: pin %s has no length", sym.Name, p.Name)
		}
	}
}

// blankStrings replaces every quoted string with a bare placeholder so the
// structural check only sees brackets and atoms.
func blankStrings(data []byte) (string, error) {
	var b strings.Builder
	b.Grow(len(data))
	line := 1
	for i := 0; i < len(data); i++ {
		c := data[i]
		if c == '\n' {
			line++
		}
		if c != '"' {
			b.WriteByte(c)
			continue
		}
		start := line
		for i++; i < len(data) && data[i] != '"'; i++ {
			switch data[i] {
			case '\\':
				i++
			case '\n':
				line++
			}
		}
		if i >= len(data) {
			return "", errors.Mark(errors.Newf("line %d: unterminated string", start), errors.ErrSyntax)
		}
		b.WriteString(" _ ")
	}
	return b.String(), nil
}
