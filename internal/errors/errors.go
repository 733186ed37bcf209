// Package errors is the error toolkit for pdk2kicad.
//
// It re-exports github.com/cockroachdb/errors (stack traces, wrapping,
// hints and details) and declares the sentinel classes every typed error
// in the converter reports through Is:
//
//	var serr *lef.SyntaxError
//	if errors.As(err, &serr) {
//	    // file, line and column of the grammar mismatch
//	}
//	if errors.Is(err, errors.ErrMissingInput) {
//	    // the whole run must stop
//	}
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
	Join         = crdb.Join
	Mark         = crdb.Mark
)

// User-facing hints and details
var (
	WithHint    = crdb.WithHint
	WithHintf   = crdb.WithHintf
	WithDetail  = crdb.WithDetail
	WithDetailf = crdb.WithDetailf
)

// Inspection
var (
	Is             = crdb.Is
	IsAny          = crdb.IsAny
	As             = crdb.As
	Unwrap         = crdb.Unwrap
	UnwrapAll      = crdb.UnwrapAll
	GetAllHints    = crdb.GetAllHints
	GetAllDetails  = crdb.GetAllDetails
	FlattenHints   = crdb.FlattenHints
	FlattenDetails = crdb.FlattenDetails
)

// Error classes of the conversion pipeline. Typed errors report their
// class through an Is method, so errors.Is works across wrapping.
var (
	// ErrSyntax marks a grammar mismatch in a library file. Fatal for that file.
	ErrSyntax = New("syntax error")

	// ErrStructuralMismatch marks well-formed input with inconsistent
	// structure (close name mismatch, duplicate pin or property id).
	ErrStructuralMismatch = New("structural mismatch")

	// ErrUnresolvedModel marks a cell without a matching circuit model.
	// Never fatal; counted in the run summary.
	ErrUnresolvedModel = New("unresolved model reference")

	// ErrMissingInput marks an absent library root or input path. Fatal for the run.
	ErrMissingInput = New("missing input")
)

// IsFatalForRun reports whether err must stop the whole run rather than a single file.
func IsFatalForRun(err error) bool {
	return err != nil && Is(err, ErrMissingInput)
}

// IsFileScoped reports whether err belongs to a single library file.
func IsFileScoped(err error) bool {
	return err != nil && IsAny(err, ErrSyntax, ErrStructuralMismatch)
}
