// internal/modules/resolver.go
package modules

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrModuleNotFound        = errors.New("module not found")
	ErrCircularDependency    = errors.New("circular dependency detected")
	ErrMissingDependency     = errors.New("missing required dependency")
	ErrCannotDeactivateCore  = errors.New("core module cannot be deactivated")
	ErrActiveDependents      = errors.New("module is required by enabled modules")
	ErrMissingRequiredFields = errors.New("missing required fields")
)

// Resolver validates module enable/disable operations against the static
// dependency graph held by the Registry.
type Resolver struct {
	registry *Registry
}

type Resolution struct {
	CanEnable bool     `json:"can_enable"`
	Missing   []string `json:"missing,omitempty"`
	Optional  []string `json:"optional_unmet,omitempty"`
	Message   string   `json:"message"`
}

type CycleReport struct {
	HasCircular bool     `json:"has_circular"`
	Cycle       []string `json:"cycle,omitempty"`
}

func NewResolver(registry *Registry) *Resolver {
	return &Resolver{registry: registry}
}

// ResolveDependencies reports whether targetModule can be enabled given the
// proposed enabled set. Required dependencies must be in the set (or enabled
// concurrently as part of it); optional dependencies never block and are
// reported informationally.
func (r *Resolver) ResolveDependencies(targetModule string, proposedEnabled []string) (Resolution, error) {
	def, err := r.registry.GetModule(targetModule)
	if err != nil {
		return Resolution{}, err
	}

	enabled := make(map[string]bool, len(proposedEnabled))
	for _, key := range proposedEnabled {
		enabled[key] = true
	}

	var missing []string
	for _, dep := range def.Requires {
		if !enabled[dep] {
			missing = append(missing, dep)
		}
	}

	var optionalUnmet []string
	for _, dep := range def.Optional {
		if !enabled[dep] {
			optionalUnmet = append(optionalUnmet, dep)
		}
	}

	if len(missing) > 0 {
		return Resolution{
			CanEnable: false,
			Missing:   missing,
			Optional:  optionalUnmet,
			Message:   fmt.Sprintf("module %q requires: %s", targetModule, strings.Join(missing, ", ")),
		}, nil
	}

	return Resolution{
		CanEnable: true,
		Optional:  optionalUnmet,
		Message:   fmt.Sprintf("module %q can be enabled", targetModule),
	}, nil
}

// DetectCircularDependencies walks required edges from startModule and reports
// the first cycle found, including the full path.
func (r *Resolver) DetectCircularDependencies(startModule string) CycleReport {
	fwd, _ := r.registry.snapshot()
	cycle := findCycle(startModule, fwd)
	return CycleReport{
		HasCircular: len(cycle) > 0,
		Cycle:       cycle,
	}
}

// BlockingDependents returns the enabled modules that still require
// targetModule, i.e. the modules that would break if it were disabled.
func (r *Resolver) BlockingDependents(targetModule string, enabledSet []string) []string {
	_, rev := r.registry.snapshot()

	enabled := make(map[string]bool, len(enabledSet))
	for _, key := range enabledSet {
		enabled[key] = true
	}

	var blocking []string
	for _, dependent := range rev[targetModule] {
		if enabled[dependent] && dependent != targetModule {
			blocking = append(blocking, dependent)
		}
	}
	return blocking
}

// findCycle performs a depth-first traversal following required edges,
// tracking the recursion stack. Hitting a node already on the stack returns
// the full cycle path; nil means acyclic from start.
func findCycle(start string, requires map[string][]string) []string {
	visited := make(map[string]bool)
	onStack := make(map[string]bool)
	var stack []string

	var walk func(node string) []string
	walk = func(node string) []string {
		visited[node] = true
		onStack[node] = true
		stack = append(stack, node)

		for _, dep := range requires[node] {
			if onStack[dep] {
				// Slice the stack from the first occurrence of dep to close
				// the loop.
				for i, n := range stack {
					if n == dep {
						return append(append([]string(nil), stack[i:]...), dep)
					}
				}
			}
			if !visited[dep] {
				if cycle := walk(dep); cycle != nil {
					return cycle
				}
			}
		}

		onStack[node] = false
		stack = stack[:len(stack)-1]
		return nil
	}

	return walk(start)
}
