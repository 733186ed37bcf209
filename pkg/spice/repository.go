package spice

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/OpenTraceLab/pdk2kicad/internal/errors"
)

// Repository knows how to look up the model of a sub-circuit within a
// library.
type Repository interface {
	Lookup(library, name string) (Model, bool)
}

// MemoryRepository holds one Registry per library. It is safe for
// concurrent use, so model files can be loaded from several workers.
type MemoryRepository struct {
	mu         sync.RWMutex
	registries map[string]*Registry
	replaced   int
}

// NewMemoryRepository creates an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{registries: make(map[string]*Registry)}
}

// Add registers m under library.
func (r *MemoryRepository) Add(library string, m Model) {
	r.mu.Lock()
	defer r.mu.Unlock()
	reg, ok := r.registries[library]
	if !ok {
		reg = NewRegistry(library)
		r.registries[library] = reg
	}
	if reg.Add(m) {
		r.replaced++
	}
}

// AddFile scans a model file and registers its blocks under the file's
// stem, which names the library. It returns the number of blocks found.
// A malformed file registers nothing.
func (r *MemoryRepository) AddFile(path string) (int, error) {
	models, err := ScanFile(path)
	if err != nil {
		return 0, err
	}
	library := LibraryStem(path)
	for _, m := range models {
		r.Add(library, m)
	}
	return len(models), nil
}

// Lookup implements the Repository interface.
func (r *MemoryRepository) Lookup(library, name string) (Model, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.registries[library]
	if !ok {
		return Model{}, false
	}
	return reg.Lookup(name)
}

// Registry returns the registry of library, or nil if no model file for it
// was loaded.
func (r *MemoryRepository) Registry(library string) *Registry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.registries[library]
}

// Libraries returns the names of all libraries with models, sorted.
func (r *MemoryRepository) Libraries() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.registries))
	for name := range r.registries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Replaced returns how many models were shadowed by a later block of the
// same name.
func (r *MemoryRepository) Replaced() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.replaced
}

// LoadFiles adds every listed model file. A malformed file does not stop
// the others from loading; all failures are returned together.
func (r *MemoryRepository) LoadFiles(paths ...string) error {
	var errs []error
	for _, path := range paths {
		if _, err := r.AddFile(path); err != nil {
			errs = append(errs, errors.Wrapf(err, "spice: load %s", path))
		}
	}
	return errors.Join(errs...)
}

// LoadDir recursively loads all model files below root.
func (r *MemoryRepository) LoadDir(root string) error {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if !d.IsDir() && IsModelFile(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return err
	}
	return r.LoadFiles(paths...)
}

// IsModelFile reports whether path has a netlist extension.
func IsModelFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".spice", ".sp", ".cir":
		return true
	default:
		return false
	}
}

// LibraryStem returns the library a model file belongs to: its base name
// without extension.
func LibraryStem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
