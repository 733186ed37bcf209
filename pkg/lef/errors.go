package lef

import (
	"fmt"

	"github.com/alecthomas/participle/v2"

	"github.com/OpenTraceLab/pdk2kicad/internal/errors"
)

// SyntaxError is a grammar mismatch at a location in a library file.
// The whole file is rejected; no partial result is produced.
type SyntaxError struct {
	File   string
	Line   int
	Column int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s", e.File, e.Line, e.Column, e.Msg)
}

// Is reports the error class.
func (e *SyntaxError) Is(target error) bool {
	return target == errors.ErrSyntax
}

// asSyntaxError converts participle and lexer failures into a SyntaxError,
// keeping the reported position.
func asSyntaxError(filename string, err error) error {
	var perr participle.Error
	if errors.As(err, &perr) {
		pos := perr.Position()
		file := pos.Filename
		if file == "" {
			file = filename
		}
		return &SyntaxError{File: file, Line: pos.Line, Column: pos.Column, Msg: perr.Message()}
	}
	return &SyntaxError{File: filename, Msg: err.Error()}
}
