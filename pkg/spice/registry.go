package spice

import (
	"sort"
	"strings"
)

// Registry maps sub-circuit names of one library to their models. Names are
// matched case-insensitively, as SPICE does.
type Registry struct {
	Library string
	models  map[string]Model
}

// NewRegistry creates an empty registry for library.
func NewRegistry(library string) *Registry {
	return &Registry{Library: library, models: make(map[string]Model)}
}

// Add registers m. A later model with the same name replaces the earlier
// one; replaced reports whether that happened.
func (r *Registry) Add(m Model) (replaced bool) {
	key := strings.ToLower(m.Name)
	_, replaced = r.models[key]
	r.models[key] = m
	return replaced
}

// Lookup returns the model registered under name.
func (r *Registry) Lookup(name string) (Model, bool) {
	m, ok := r.models[strings.ToLower(name)]
	return m, ok
}

// Len returns the number of registered models.
func (r *Registry) Len() int {
	return len(r.models)
}

// Names returns the registered model names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.models))
	for _, m := range r.models {
		names = append(names, m.Name)
	}
	sort.Strings(names)
	return names
}
