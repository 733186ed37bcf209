package pipeline

import (
	"time"

	"github.com/OpenTraceLab/pdk2kicad/internal/errors"
	"github.com/OpenTraceLab/pdk2kicad/pkg/cell"
	"github.com/OpenTraceLab/pdk2kicad/pkg/lef"
	"github.com/OpenTraceLab/pdk2kicad/pkg/spice"
)

// Stages of a library file, used to locate failures.
const (
	StageParse     = "parse"
	StageExtract   = "extract"
	StageAssociate = "associate"
	StageEmit      = "emit"
	StageModels    = "models"
)

// Failure is a per-file error with its location, when known.
type Failure struct {
	File   string `json:"file" yaml:"file"`
	Line   int    `json:"line,omitempty" yaml:"line,omitempty"`
	Column int    `json:"column,omitempty" yaml:"column,omitempty"`
	Stage  string `json:"stage" yaml:"stage"`
	Error  string `json:"error" yaml:"error"`

	err error
}

// Err returns the underlying error.
func (f Failure) Err() error {
	return f.err
}

func newFailure(file, stage string, err error) Failure {
	f := Failure{File: file, Stage: stage, Error: err.Error(), err: err}

	var serr *lef.SyntaxError
	var merr *cell.StructuralMismatchError
	var scerr *spice.ScanError
	switch {
	case errors.As(err, &serr):
		f.Line, f.Column = serr.Line, serr.Column
	case errors.As(err, &merr):
		f.Line = merr.Line
	case errors.As(err, &scerr):
		f.Line = scerr.Line
	}
	return f
}

// Summary is the aggregate report of a run.
type Summary struct {
	Files     int `json:"files" yaml:"files"`
	Processed int `json:"processed" yaml:"processed"`
	Skipped   int `json:"skipped" yaml:"skipped"`
	Failed    int `json:"failed" yaml:"failed"`
	Cancelled int `json:"cancelled,omitempty" yaml:"cancelled,omitempty"`

	Cells       int            `json:"cells" yaml:"cells"`
	Pins        map[string]int `json:"pins" yaml:"pins"` // by role
	IgnoredPins int            `json:"ignored_pins" yaml:"ignored_pins"`
	Unknown     int            `json:"unknown_statements" yaml:"unknown_statements"`
	Diagnostics int            `json:"diagnostics" yaml:"diagnostics"`

	ModelFiles  int `json:"model_files" yaml:"model_files"`
	Models      int `json:"models" yaml:"models"`
	ModelHits   int `json:"model_hits" yaml:"model_hits"`
	ModelMisses int `json:"model_misses" yaml:"model_misses"`

	Outputs  []string  `json:"outputs,omitempty" yaml:"outputs,omitempty"`
	Failures []Failure `json:"failures,omitempty" yaml:"failures,omitempty"`
	Warnings []Failure `json:"warnings,omitempty" yaml:"warnings,omitempty"`

	Duration time.Duration `json:"duration" yaml:"duration"`
}

func newSummary(files int) *Summary {
	s := &Summary{Files: files, Pins: make(map[string]int)}
	for _, role := range cell.Roles {
		s.Pins[role.String()] = 0
	}
	return s
}

// OK reports whether every library file was converted or skipped.
func (s *Summary) OK() bool {
	return s.Failed == 0 && s.Cancelled == 0
}

// TotalPins sums the pins of all roles.
func (s *Summary) TotalPins() int {
	n := 0
	for _, v := range s.Pins {
		n += v
	}
	return n
}

func (s *Summary) fail(f Failure) {
	s.Failed++
	s.Failures = append(s.Failures, f)
}

func (s *Summary) collect(libs []*Library) {
	for _, lib := range libs {
		switch {
		case lib.Cancelled:
			s.Cancelled++
			continue
		case lib.Skipped:
			s.Skipped++
			continue
		case lib.Failure != nil:
			s.fail(*lib.Failure)
			continue
		}

		s.Processed++
		s.Cells += len(lib.Cells)
		s.IgnoredPins += lib.IgnoredPins
		s.Unknown += lib.Unknown
		s.Diagnostics += len(lib.Diagnostics)
		s.ModelHits += lib.Models.Hits
		s.ModelMisses += lib.Models.Misses
		for i := range lib.Cells {
			for role, n := range lib.Cells[i].RoleCounts() {
				s.Pins[role.String()] += n
			}
		}
		if lib.Output != "" {
			s.Outputs = append(s.Outputs, lib.Output)
		}
	}
}

// Err combines all failures into one error, or returns nil.
func (s *Summary) Err() error {
	errs := make([]error, 0, len(s.Failures))
	for _, f := range s.Failures {
		errs = append(errs, f.err)
	}
	return errors.Join(errs...)
}
