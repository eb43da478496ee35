package restore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveCapacityMatchesParameterLimitScenario(t *testing.T) {
	cfg := DefaultCapacityConfig()
	// spec scenario: 10-column table, ~25000/10 = 2500.
	got := DeriveCapacity(cfg, 0, 10, 1)
	assert.Equal(t, 2500, got)
}

func TestDeriveCapacityHonorsMemoryBudget(t *testing.T) {
	cfg := CapacityConfig{MemoryBudgetBytes: 1000, ParameterLimit: 25_000}
	got := DeriveCapacity(cfg, 0, 2, 100)
	assert.Equal(t, 10, got)
}

func TestDeriveCapacityHonorsCallerProvided(t *testing.T) {
	cfg := DefaultCapacityConfig()
	got := DeriveCapacity(cfg, 50, 10, 1)
	assert.Equal(t, 50, got)
}

func TestDeriveCapacityNeverBelowOne(t *testing.T) {
	cfg := CapacityConfig{MemoryBudgetBytes: 1, ParameterLimit: 1}
	got := DeriveCapacity(cfg, 0, 10, 10000)
	assert.Equal(t, 1, got)
}
