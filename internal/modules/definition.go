// internal/modules/definition.go
package modules

// CoreModuleKey is the always-on platform module. Every tenant decision
// includes it and it can never be deactivated.
const CoreModuleKey = "core"

// ModuleDefinition describes one licensable unit of functionality and its
// position in the static dependency graph. Definitions are registered once at
// process start and are immutable afterwards.
type ModuleDefinition struct {
	Name        string   `json:"name"`
	DisplayName string   `json:"display_name"`
	Version     string   `json:"version"`
	Requires    []string `json:"requires,omitempty"`
	Optional    []string `json:"optional,omitempty"`
	ProvidesTo  []string `json:"provides_to,omitempty"`
}
