// internal/modules/catalog.go
package modules

// DefaultCatalog is the static module set for the platform. It is registered
// once at startup; registration order matters only for readability since the
// registry cycle-checks each definition independently.
func DefaultCatalog() []ModuleDefinition {
	return []ModuleDefinition{
		{
			Name:        CoreModuleKey,
			DisplayName: "Core Platform",
			Version:     "1.0.0",
			ProvidesTo:  []string{"attendance", "documents", "payroll", "performance", "reports"},
		},
		{
			Name:        "attendance",
			DisplayName: "Attendance Tracking",
			Version:     "1.2.0",
			Requires:    []string{CoreModuleKey},
		},
		{
			Name:        "leave",
			DisplayName: "Leave Management",
			Version:     "1.1.0",
			Requires:    []string{CoreModuleKey, "attendance"},
		},
		{
			Name:        "payroll",
			DisplayName: "Payroll",
			Version:     "2.0.1",
			Requires:    []string{CoreModuleKey, "attendance"},
			Optional:    []string{"leave"},
		},
		{
			Name:        "documents",
			DisplayName: "Document Vault",
			Version:     "1.0.3",
			Requires:    []string{CoreModuleKey},
		},
		{
			Name:        "performance",
			DisplayName: "Performance Reviews",
			Version:     "0.9.0",
			Requires:    []string{CoreModuleKey},
			Optional:    []string{"attendance"},
		},
		{
			Name:        "reports",
			DisplayName: "Reports & Analytics",
			Version:     "1.4.0",
			Requires:    []string{CoreModuleKey},
			Optional:    []string{"payroll", "attendance"},
		},
	}
}

// SeedRegistry registers the default catalog into the given registry.
func SeedRegistry(registry *Registry) error {
	for _, def := range DefaultCatalog() {
		if err := registry.Register(def); err != nil {
			return err
		}
	}
	return nil
}
