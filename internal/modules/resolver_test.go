// internal/modules/resolver_test.go
package modules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seededResolver(t *testing.T) *Resolver {
	t.Helper()
	registry := NewRegistry()
	require.NoError(t, SeedRegistry(registry))
	return NewResolver(registry)
}

func TestResolveDependenciesAllMet(t *testing.T) {
	resolver := seededResolver(t)

	res, err := resolver.ResolveDependencies("leave", []string{CoreModuleKey, "attendance"})
	require.NoError(t, err)
	assert.True(t, res.CanEnable)
	assert.Empty(t, res.Missing)
}

func TestResolveDependenciesMissing(t *testing.T) {
	resolver := seededResolver(t)

	res, err := resolver.ResolveDependencies("leave", []string{CoreModuleKey})
	require.NoError(t, err)
	assert.False(t, res.CanEnable)
	assert.Equal(t, []string{"attendance"}, res.Missing)
	assert.Contains(t, res.Message, "attendance")
}

func TestResolveDependenciesOptionalNeverBlocks(t *testing.T) {
	resolver := seededResolver(t)

	// payroll requires core+attendance, optionally leave.
	res, err := resolver.ResolveDependencies("payroll", []string{CoreModuleKey, "attendance"})
	require.NoError(t, err)
	assert.True(t, res.CanEnable)
	assert.Equal(t, []string{"leave"}, res.Optional)
}

func TestResolveDependenciesUnknownModule(t *testing.T) {
	resolver := seededResolver(t)

	_, err := resolver.ResolveDependencies("ghost", nil)
	assert.ErrorIs(t, err, ErrModuleNotFound)
}

func TestResolveDependenciesSelfInBatch(t *testing.T) {
	resolver := seededResolver(t)

	// A batch enabling attendance and leave together: each resolves against
	// the union, so leave sees attendance even though neither is enabled yet.
	res, err := resolver.ResolveDependencies("leave", []string{CoreModuleKey, "attendance", "leave"})
	require.NoError(t, err)
	assert.True(t, res.CanEnable)
}

func TestDetectCircularDependenciesCleanCatalog(t *testing.T) {
	resolver := seededResolver(t)

	for _, def := range DefaultCatalog() {
		report := resolver.DetectCircularDependencies(def.Name)
		assert.False(t, report.HasCircular, "unexpected cycle from %s", def.Name)
	}
}

func TestFindCycleReturnsFullPath(t *testing.T) {
	requires := map[string][]string{
		"a": {"b"},
		"b": {"c"},
		"c": {"a"},
	}

	cycle := findCycle("a", requires)
	require.NotNil(t, cycle)
	assert.Equal(t, []string{"a", "b", "c", "a"}, cycle)
}

func TestFindCycleAcyclic(t *testing.T) {
	requires := map[string][]string{
		"a": {"b", "c"},
		"b": {"c"},
	}

	assert.Nil(t, findCycle("a", requires))
}

func TestBlockingDependents(t *testing.T) {
	resolver := seededResolver(t)

	enabled := []string{CoreModuleKey, "attendance", "leave", "payroll"}

	blocking := resolver.BlockingDependents("attendance", enabled)
	assert.ElementsMatch(t, []string{"leave", "payroll"}, blocking)

	// leave is a leaf here, nothing enabled requires it.
	assert.Empty(t, resolver.BlockingDependents("leave", enabled))
}

func TestBlockingDependentsIgnoresDisabled(t *testing.T) {
	resolver := seededResolver(t)

	// leave requires attendance but is not enabled, so it cannot block.
	blocking := resolver.BlockingDependents("attendance", []string{CoreModuleKey, "attendance"})
	assert.Empty(t, blocking)
}
