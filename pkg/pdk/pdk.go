// Package pdk locates cell libraries inside an open_pdks installation and
// names the symbol libraries generated from them.
//
// A PDK is laid out as
//
//	<root>/<pdk>/libs.ref/<library>/lef/*.lef
//	<root>/<pdk>/libs.ref/<library>/spice/*.spice
package pdk

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/OpenTraceLab/pdk2kicad/internal/errors"
)

// KnownPDKs lists the PDK variants the converter is routinely run against.
var KnownPDKs = []string{"sky130A", "sky130B", "gf180mcuA", "gf180mcuB", "gf180mcuC", "gf180mcuD"}

// IsKnown reports whether name is one of KnownPDKs.
func IsKnown(name string) bool {
	return slices.Contains(KnownPDKs, name)
}

// LibsRef is the directory holding the reference cell libraries.
const LibsRef = "libs.ref"

// Library is one cell library of a PDK.
type Library struct {
	Name  string
	Dir   string
	LEFs  []string
	SPICE []string
}

// Tree is the result of scanning a PDK.
type Tree struct {
	Root        string
	PDK         string
	Libraries   []Library
	SkippedSRAM []string // libraries left out by the SRAM filter
	NoLEF       []string // libraries without a lef directory
}

// MissingInputError reports an input path that does not exist. It is fatal
// for the whole run.
type MissingInputError struct {
	Path string
	What string
}

func (e *MissingInputError) Error() string {
	return fmt.Sprintf("%s %s does not exist", e.What, e.Path)
}

// Is makes a MissingInputError match errors.ErrMissingInput.
func (e *MissingInputError) Is(target error) bool {
	return target == errors.ErrMissingInput
}

func missing(path, what, hint string) error {
	return errors.WithHint(&MissingInputError{Path: path, What: what}, hint)
}

// Discover scans <root>/<pdk>/libs.ref. Libraries are returned sorted by
// name. Libraries whose name contains "sram" are skipped when skipSRAM is
// set.
func Discover(root, pdk string, skipSRAM bool) (*Tree, error) {
	if root == "" {
		return nil, missing(root, "PDK root", "set --pdk-root or the PDK_ROOT environment variable")
	}
	if !isDir(root) {
		return nil, missing(root, "PDK root", "set --pdk-root or the PDK_ROOT environment variable")
	}
	pdkDir := filepath.Join(root, pdk)
	if !isDir(pdkDir) {
		return nil, missing(pdkDir, "PDK", fmt.Sprintf("install %s under %s or pick another --pdk", pdk, root))
	}
	refDir := filepath.Join(pdkDir, LibsRef)
	if !isDir(refDir) {
		return nil, missing(refDir, "reference library directory", "the PDK installation looks incomplete")
	}

	entries, err := os.ReadDir(refDir)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", refDir)
	}

	tree := &Tree{Root: root, PDK: pdk}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		name := entry.Name()
		if skipSRAM && strings.Contains(strings.ToLower(name), "sram") {
			tree.SkippedSRAM = append(tree.SkippedSRAM, name)
			continue
		}

		lib := Library{Name: name, Dir: filepath.Join(refDir, name)}
		lefs, err := listFiles(filepath.Join(lib.Dir, "lef"), ".lef")
		if err != nil {
			return nil, err
		}
		if lefs == nil {
			tree.NoLEF = append(tree.NoLEF, name)
			continue
		}
		lib.LEFs = lefs
		if lib.SPICE, err = listFiles(filepath.Join(lib.Dir, "spice"), ".spice"); err != nil {
			return nil, err
		}
		tree.Libraries = append(tree.Libraries, lib)
	}
	return tree, nil
}

// LEFs returns every LEF file of the tree in library order.
func (t *Tree) LEFs() []string {
	var paths []string
	for _, lib := range t.Libraries {
		paths = append(paths, lib.LEFs...)
	}
	return paths
}

// SPICEFiles returns every model file of the tree in library order.
func (t *Tree) SPICEFiles() []string {
	var paths []string
	for _, lib := range t.Libraries {
		paths = append(paths, lib.SPICE...)
	}
	return paths
}

// CheckFiles verifies that explicitly given input files exist.
func CheckFiles(what string, paths ...string) error {
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			return missing(path, what, "check the path passed on the command line")
		}
	}
	return nil
}

// OutputPath names the symbol library generated from the LEF file with the
// given stem: <outdir>/<pdk>/<stem>.kicad_sym, or <outdir>/<pdk>_<stem>.kicad_sym
// when flatten is set. An empty pdk drops the PDK component.
func OutputPath(outdir, pdk, stem string, flatten bool) string {
	switch {
	case pdk == "":
		return filepath.Join(outdir, stem+".kicad_sym")
	case flatten:
		return filepath.Join(outdir, pdk+"_"+stem+".kicad_sym")
	default:
		return filepath.Join(outdir, pdk, stem+".kicad_sym")
	}
}

// Exists reports whether path exists; used for skip-existing runs.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// listFiles returns the files in dir with extension ext (any case), sorted.
// A missing directory yields nil.
func listFiles(dir, ext string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", dir)
	}
	files := []string{}
	for _, entry := range entries {
		if !entry.IsDir() && strings.EqualFold(filepath.Ext(entry.Name()), ext) {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	return files, nil
}
