// Package spice reads sub-circuit definitions from SPICE netlists and
// attaches them to cells as simulation metadata.
package spice

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/OpenTraceLab/pdk2kicad/internal/errors"
)

// Model is one .subckt block, kept verbatim.
type Model struct {
	Name   string // as written in the header
	Text   string // from the .subckt line through the matching .ends, inclusive
	Source string // path of the model file
	Line   int    // line of the .subckt header
}

// ScanError reports a malformed model file.
type ScanError struct {
	File string
	Line int
	Msg  string
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Msg)
}

// Is makes a ScanError match errors.ErrSyntax.
func (e *ScanError) Is(target error) bool {
	return target == errors.ErrSyntax
}

// maxLine bounds a single netlist line. Extracted PDK netlists carry very
// long continuation-free device lines.
const maxLine = 4 * 1024 * 1024

type openBlock struct {
	index   int // position in the result
	lines   []string
	pending bool // header had no name yet, expect it on a continuation line
}

// Scan extracts every .subckt block from r in order of appearance. Nested
// blocks are returned separately and also stay inside the text of their
// parent. Keywords are matched without regard to case.
func Scan(filename string, r io.Reader) ([]Model, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLine)

	var (
		models []Model
		stack  []*openBlock
		lineNo int
	)
	for scanner.Scan() {
		lineNo++
		raw := strings.TrimRight(scanner.Text(), "\r")
		trimmed := strings.TrimSpace(raw)
		fields := strings.Fields(trimmed)

		keyword := ""
		if len(fields) > 0 {
			keyword = strings.ToLower(fields[0])
		}

		switch {
		case keyword == ".subckt":
			for _, b := range stack {
				b.lines = append(b.lines, raw)
			}
			m := Model{Source: filename, Line: lineNo}
			if len(fields) > 1 {
				m.Name = fields[1]
			}
			models = append(models, m)
			stack = append(stack, &openBlock{index: len(models) - 1, lines: []string{raw}, pending: m.Name == ""})

		case keyword == ".ends":
			if len(stack) == 0 {
				return nil, &ScanError{File: filename, Line: lineNo, Msg: ".ends without .subckt"}
			}
			for _, b := range stack {
				b.lines = append(b.lines, raw)
			}
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if top.pending {
				return nil, &ScanError{File: filename, Line: models[top.index].Line, Msg: ".subckt without a name"}
			}
			models[top.index].Text = strings.Join(top.lines, "\n")

		case len(stack) > 0:
			for _, b := range stack {
				b.lines = append(b.lines, raw)
			}
			top := stack[len(stack)-1]
			if top.pending && strings.HasPrefix(trimmed, "+") {
				if rest := strings.Fields(strings.TrimPrefix(trimmed, "+")); len(rest) > 0 {
					models[top.index].Name = rest[0]
					top.pending = false
				}
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "read %s", filename)
	}
	if len(stack) > 0 {
		open := models[stack[len(stack)-1].index]
		return nil, &ScanError{File: filename, Line: open.Line, Msg: fmt.Sprintf("unterminated .subckt %s", open.Name)}
	}
	return models, nil
}

// ScanString is Scan over an in-memory netlist.
func ScanString(filename, input string) ([]Model, error) {
	return Scan(filename, strings.NewReader(input))
}

// ScanFile opens and scans path.
func ScanFile(path string) ([]Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open model file")
	}
	defer f.Close()
	return Scan(path, f)
}
