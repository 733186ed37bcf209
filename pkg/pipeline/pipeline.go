// Package pipeline converts LEF libraries into symbol libraries on a
// bounded pool of workers.
//
// A run has two phases separated by a barrier. The first parses, extracts
// and lays out every library file on its own; workers share nothing but
// the read-only grammar. The second loads the model files, attaches
// models to the finished cells and writes one symbol library per input.
package pipeline

import (
	"context"
	"runtime"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/OpenTraceLab/pdk2kicad/internal/errors"
	"github.com/OpenTraceLab/pdk2kicad/pkg/cell"
	"github.com/OpenTraceLab/pdk2kicad/pkg/kicad/symlib"
	"github.com/OpenTraceLab/pdk2kicad/pkg/layout"
	"github.com/OpenTraceLab/pdk2kicad/pkg/lef"
	"github.com/OpenTraceLab/pdk2kicad/pkg/pdk"
	"github.com/OpenTraceLab/pdk2kicad/pkg/spice"
)

// Options controls a run.
type Options struct {
	Jobs     int  // Worker count; 1 processes files in order (default: number of CPUs)
	FailFast bool // Cancel remaining work on the first failing file (default: false)

	Cell   cell.Options
	Models spice.Mode // How models are attached (default: none)

	// Output. An empty OutDir converts without writing anything.
	OutDir       string
	PDK          string
	Flatten      bool
	SkipExisting bool
}

// DefaultOptions returns Options with the converter defaults.
func DefaultOptions() Options {
	return Options{
		Jobs:   runtime.NumCPU(),
		Cell:   cell.DefaultOptions(),
		Models: spice.ModeNone,
	}
}

// Validate checks the options for errors.
func (o Options) Validate() error {
	if o.Jobs < 1 {
		return errors.Newf("jobs must be at least 1, got %d", o.Jobs)
	}
	return o.Cell.Validate()
}

// Input lists the files of a run.
type Input struct {
	LEFs  []string
	SPICE []string
}

// Library is the outcome of converting one library file.
type Library struct {
	Path   string
	Name   string
	Output string

	Cells       []cell.Cell // placed
	Counts      []layout.Counts
	Diagnostics []cell.Diagnostic
	IgnoredPins int
	Unknown     int
	Models      spice.Result

	Skipped   bool // output already present
	Cancelled bool // not started because the run was cancelled
	Failure   *Failure
}

func (l *Library) done() bool {
	return l.Skipped || l.Cancelled || l.Failure != nil
}

func (l *Library) fail(stage string, err error) {
	f := newFailure(l.Path, stage, errors.Wrapf(err, "library %s", l.Path))
	l.Failure = &f
}

// Converter runs the pipeline. It is safe to reuse across runs.
type Converter struct {
	parser *lef.Parser
	opts   Options
	log    *zap.SugaredLogger
}

// New returns a Converter using parser for every file. A nil log discards
// all output.
func New(parser *lef.Parser, opts Options, log *zap.SugaredLogger) (*Converter, error) {
	if parser == nil {
		return nil, errors.New("pipeline: parser is required")
	}
	if err := opts.Validate(); err != nil {
		return nil, errors.Wrap(err, "pipeline: invalid options")
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Converter{parser: parser, opts: opts, log: log}, nil
}

// Options returns the options of the converter.
func (c *Converter) Options() Options {
	return c.opts
}

// Run converts in.LEFs, attaching models from in.SPICE. Missing input files
// stop the run before any work starts and are returned as the error.
// Per-file failures are reported in the Summary; check Summary.OK.
func (c *Converter) Run(ctx context.Context, in Input) (*Summary, error) {
	start := time.Now()
	if err := pdk.CheckFiles("LEF file", in.LEFs...); err != nil {
		return nil, err
	}
	if err := pdk.CheckFiles("SPICE file", in.SPICE...); err != nil {
		return nil, err
	}

	sum := newSummary(len(in.LEFs))
	libs, err := c.Convert(ctx, in.LEFs)

	// Barrier: association needs every model, emission every cell.
	if err != nil {
		for _, lib := range libs {
			if !lib.done() {
				lib.Cancelled = true
			}
		}
	} else {
		var models spice.Repository
		if c.opts.Models != spice.ModeNone {
			repo, stats := c.LoadModels(ctx, in.SPICE)
			sum.ModelFiles, sum.Models, sum.Warnings = stats.Files, stats.Models, stats.Warnings
			models = repo
		}
		if err := c.Emit(ctx, libs, models); err != nil {
			c.log.Debugw("emission stopped", "error", err)
		}
	}
	sum.collect(libs)
	sum.Duration = time.Since(start)

	if ctxErr := ctx.Err(); ctxErr != nil {
		return sum, ctxErr
	}
	c.log.Infow("run finished",
		"files", sum.Files, "processed", sum.Processed, "skipped", sum.Skipped,
		"failed", sum.Failed, "cells", sum.Cells, "duration", sum.Duration)
	return sum, nil
}

// Convert is the first phase: parse, extract and lay out each file. The
// result holds one Library per path, in input order. With FailFast the
// first failure cancels files not yet started and is returned.
func (c *Converter) Convert(ctx context.Context, paths []string) ([]*Library, error) {
	libs := make([]*Library, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.Jobs)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			lib := c.convertFile(gctx, path)
			libs[i] = lib
			if lib.Failure != nil && c.opts.FailFast {
				return lib.Failure.Err()
			}
			return nil
		})
	}
	return libs, g.Wait()
}

func (c *Converter) convertFile(ctx context.Context, path string) *Library {
	lib := &Library{Path: path, Name: cell.LibraryStem(path)}
	if c.opts.OutDir != "" {
		lib.Output = pdk.OutputPath(c.opts.OutDir, c.opts.PDK, lib.Name, c.opts.Flatten)
	}
	if ctx.Err() != nil {
		lib.Cancelled = true
		return lib
	}
	if c.opts.SkipExisting && lib.Output != "" && pdk.Exists(lib.Output) {
		c.log.Infow("output exists, skipping", "file", path, "output", lib.Output)
		lib.Skipped = true
		return lib
	}

	start := time.Now()
	parsed, err := c.parser.ParseFile(path)
	if err != nil {
		lib.fail(StageParse, err)
		c.log.Warnw("parse failed", "file", path, "error", err)
		return lib
	}

	ex, err := cell.Extract(parsed, path, c.opts.Cell)
	if err != nil {
		lib.fail(StageExtract, err)
		c.log.Warnw("extraction failed", "file", path, "error", err)
		return lib
	}
	for _, d := range ex.Diagnostics {
		c.log.Debugw(d.Msg, "file", path, "line", d.Line, "cell", d.Macro)
	}
	if ex.Skipped > 0 {
		c.log.Debugw("unknown statements skipped", "file", path, "count", ex.Skipped)
	}

	lib.Diagnostics = ex.Diagnostics
	lib.IgnoredPins = ex.IgnoredPins
	lib.Unknown = ex.Skipped
	lib.Cells = make([]cell.Cell, 0, len(ex.Cells))
	lib.Counts = make([]layout.Counts, 0, len(ex.Cells))
	for _, unplaced := range ex.Cells {
		placed, counts := layout.Place(unplaced)
		lib.Cells = append(lib.Cells, placed)
		lib.Counts = append(lib.Counts, counts)
	}

	c.log.Infow("library converted",
		"file", path, "library", lib.Name, "cells", len(lib.Cells), "duration", time.Since(start))
	return lib
}

// ModelStats describes the model files loaded for a run.
type ModelStats struct {
	Files    int
	Models   int
	Warnings []Failure
}

// LoadModels scans the model files concurrently into one repository. A
// malformed file contributes nothing and is reported as a warning; the
// libraries it would have served proceed without models.
func (c *Converter) LoadModels(ctx context.Context, paths []string) (*spice.MemoryRepository, ModelStats) {
	repo := spice.NewMemoryRepository()
	counts := make([]int, len(paths))
	errs := make([]error, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.Jobs)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				errs[i] = err
				return nil
			}
			counts[i], errs[i] = repo.AddFile(path)
			return nil
		})
	}
	_ = g.Wait()

	var stats ModelStats
	for i, path := range paths {
		if errs[i] != nil {
			c.log.Warnw("model file ignored", "file", path, "error", errs[i])
			stats.Warnings = append(stats.Warnings, newFailure(path, StageModels, errs[i]))
			continue
		}
		stats.Files++
		stats.Models += counts[i]
		c.log.Debugw("models loaded", "file", path, "models", counts[i])
	}
	if n := repo.Replaced(); n > 0 {
		c.log.Debugw("duplicate model names, last definition kept", "count", n)
	}
	return repo, stats
}

// Emit is the second phase: attach models from models, which may be nil,
// and write the symbol libraries of every converted file.
func (c *Converter) Emit(ctx context.Context, libs []*Library, models spice.Repository) error {
	assoc := spice.NewAssociator(c.opts.Models, models)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.Jobs)
	for _, lib := range libs {
		if lib.done() {
			continue
		}
		lib := lib
		g.Go(func() error {
			if gctx.Err() != nil {
				lib.Cancelled = true
				return nil
			}
			c.emitLibrary(lib, assoc)
			if lib.Failure != nil && c.opts.FailFast {
				return lib.Failure.Err()
			}
			return nil
		})
	}
	return g.Wait()
}

func (c *Converter) emitLibrary(lib *Library, assoc *spice.Associator) {
	res, err := assoc.AttachAll(lib.Cells)
	lib.Models = res
	if err != nil {
		lib.fail(StageAssociate, err)
		c.log.Warnw("model association failed", "file", lib.Path, "error", err)
		return
	}
	for _, miss := range res.Unresolved {
		c.log.Debugw("no model", "library", miss.Library, "cell", miss.Cell, "lookup", miss.Lookup)
	}
	if assoc.Mode != spice.ModeNone {
		c.log.Debugw("models attached", "library", lib.Name, "models", res.Hits, "misses", res.Misses)
	}

	if lib.Output == "" {
		return
	}
	if err := symlib.WriteFile(lib.Output, lib.Cells); err != nil {
		lib.fail(StageEmit, err)
		c.log.Warnw("write failed", "file", lib.Path, "output", lib.Output, "error", err)
		return
	}
	c.log.Infow("symbol library written", "library", lib.Name, "output", lib.Output, "cells", len(lib.Cells))
}
