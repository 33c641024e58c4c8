package category

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/partsflow/demandcast/internal/contracts"
	"github.com/partsflow/demandcast/pkg/config"
	"github.com/partsflow/demandcast/pkg/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	return logger.New(&config.Config{Env: "development", LogLevel: "error", LogFormat: "json"})
}

func internalWithCategories(cats map[string]string) *contracts.InternalData {
	products := make(map[string]contracts.ProductRecord, len(cats))
	for code, cat := range cats {
		products[code] = contracts.ProductRecord{ProductCode: code, Category: cat}
	}
	return &contracts.InternalData{Products: products}
}

func TestSplitGroupsByCategory(t *testing.T) {
	internal := internalWithCategories(map[string]string{
		"SKU-C": "ignition",
		"SKU-A": "ignition",
		"SKU-B": "braking",
	})

	s := NewSplitter(NewCatalogResolver(), testLogger(t))
	batches, degraded := s.Split([]string{"SKU-C", "SKU-A", "SKU-B"}, internal)

	require.Len(t, batches, 2)
	assert.Empty(t, degraded)

	// Deterministic: batches by category ID, members sorted.
	assert.Equal(t, "braking", batches[0].CategoryID)
	assert.Equal(t, []string{"SKU-B"}, batches[0].Members)
	assert.Equal(t, "ignition", batches[1].CategoryID)
	assert.Equal(t, []string{"SKU-A", "SKU-C"}, batches[1].Members)
}

func TestSplitDegradesUnresolvableSKUs(t *testing.T) {
	internal := internalWithCategories(map[string]string{
		"SKU-A": "ignition",
		"SKU-B": "", // catalog entry without category
	})

	s := NewSplitter(NewCatalogResolver(), testLogger(t))
	batches, degraded := s.Split([]string{"SKU-A", "SKU-B", "SKU-MISSING"}, internal)

	require.Len(t, batches, 1)
	assert.Equal(t, []string{"SKU-A"}, batches[0].Members)

	require.Len(t, degraded, 2)
	for _, d := range degraded {
		assert.Equal(t, contracts.ReasonUnresolvedCategory, d.Reason)
	}
}

func TestSplitWithNilInternalDegradesEverything(t *testing.T) {
	s := NewSplitter(NewCatalogResolver(), testLogger(t))
	batches, degraded := s.Split([]string{"SKU-A", "SKU-B"}, nil)

	assert.Empty(t, batches)
	assert.Len(t, degraded, 2)
}

func TestStaticResolver(t *testing.T) {
	r := NewStaticResolver(map[string]contracts.CategoryInfo{
		"SKU-A": {ID: "filters", DisplayName: "Filters"},
	})

	info, err := r.Resolve("SKU-A", nil)
	require.NoError(t, err)
	assert.Equal(t, "filters", info.ID)

	_, err = r.Resolve("SKU-X", nil)
	assert.Error(t, err)
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Ignition Parts", displayName("ignition_parts"))
	assert.Equal(t, "Braking", displayName("braking"))
	assert.Equal(t, "Engine Oil Filters", displayName("engine-oil-filters"))
}
