// internal/modules/registry.go
package modules

import (
	"fmt"
	"sort"
	"sync"
)

// Registry is the in-memory catalog of module definitions. It keeps the
// dependency graph as two adjacency maps (forward "requires" and reverse
// "required-by") built at registration time, so resolution and reverse
// dependent lookups are plain map walks.
type Registry struct {
	mu         sync.RWMutex
	defs       map[string]ModuleDefinition
	requires   map[string][]string
	requiredBy map[string][]string
}

type RegistryStats struct {
	TotalModules int            `json:"total_modules"`
	Modules      []string       `json:"modules"`
	EdgeCounts   map[string]int `json:"edge_counts"`
}

func NewRegistry() *Registry {
	return &Registry{
		defs:       make(map[string]ModuleDefinition),
		requires:   make(map[string][]string),
		requiredBy: make(map[string][]string),
	}
}

// Register adds a module definition to the catalog. Duplicate names are
// rejected, and the updated graph is checked for cycles before committing;
// on any failure the registry is left unchanged.
func (r *Registry) Register(def ModuleDefinition) error {
	if def.Name == "" {
		return fmt.Errorf("%w: module name is required", ErrMissingRequiredFields)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.defs[def.Name]; exists {
		return fmt.Errorf("module %q is already registered", def.Name)
	}

	// Build the candidate forward adjacency including the new module, then
	// cycle-check before any state is mutated.
	candidate := make(map[string][]string, len(r.requires)+1)
	for name, deps := range r.requires {
		candidate[name] = deps
	}
	candidate[def.Name] = def.Requires

	if cycle := findCycle(def.Name, candidate); len(cycle) > 0 {
		return fmt.Errorf("%w: %v", ErrCircularDependency, cycle)
	}

	r.defs[def.Name] = def
	r.requires[def.Name] = append([]string(nil), def.Requires...)
	for _, dep := range def.Requires {
		r.requiredBy[dep] = append(r.requiredBy[dep], def.Name)
	}
	for _, consumer := range def.ProvidesTo {
		if !contains(r.requiredBy[def.Name], consumer) {
			r.requiredBy[def.Name] = append(r.requiredBy[def.Name], consumer)
		}
	}

	return nil
}

func (r *Registry) GetModule(name string) (ModuleDefinition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, exists := r.defs[name]
	if !exists {
		return ModuleDefinition{}, fmt.Errorf("%w: %s", ErrModuleNotFound, name)
	}
	return def, nil
}

func (r *Registry) GetAllModules() []ModuleDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]ModuleDefinition, 0, len(r.defs))
	for _, def := range r.defs {
		all = append(all, def)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	return all
}

func (r *Registry) GetStats() RegistryStats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := RegistryStats{
		TotalModules: len(r.defs),
		Modules:      make([]string, 0, len(r.defs)),
		EdgeCounts:   make(map[string]int, len(r.defs)),
	}
	for name := range r.defs {
		stats.Modules = append(stats.Modules, name)
		stats.EdgeCounts[name] = len(r.requires[name])
	}
	sort.Strings(stats.Modules)
	return stats
}

// Clear wipes the catalog. Test isolation only; nothing on a request path
// calls it.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.defs = make(map[string]ModuleDefinition)
	r.requires = make(map[string][]string)
	r.requiredBy = make(map[string][]string)
}

// snapshot returns copies of both adjacency maps for lock-free traversal.
func (r *Registry) snapshot() (map[string][]string, map[string][]string) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	fwd := make(map[string][]string, len(r.requires))
	for k, v := range r.requires {
		fwd[k] = v
	}
	rev := make(map[string][]string, len(r.requiredBy))
	for k, v := range r.requiredBy {
		rev[k] = v
	}
	return fwd, rev
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
