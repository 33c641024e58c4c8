package category

import (
	"fmt"
	"strings"

	"github.com/partsflow/demandcast/internal/contracts"
)

// CatalogResolver places a SKU into the category recorded on its catalog
// entry in the internal data. A SKU without a catalog entry or without a
// category is unresolvable; it is never guessed into a default.
type CatalogResolver struct{}

// NewCatalogResolver creates the catalog-backed resolver.
func NewCatalogResolver() *CatalogResolver {
	return &CatalogResolver{}
}

// Resolve looks up the SKU's category in the internal catalog.
func (r *CatalogResolver) Resolve(productCode string, internal *contracts.InternalData) (contracts.CategoryInfo, error) {
	if internal == nil {
		return contracts.CategoryInfo{}, fmt.Errorf("no internal data available for %s", productCode)
	}

	record, ok := internal.Product(productCode)
	if !ok {
		return contracts.CategoryInfo{}, fmt.Errorf("product %s not found in catalog", productCode)
	}
	if record.Category == "" {
		return contracts.CategoryInfo{}, fmt.Errorf("product %s has no category assigned", productCode)
	}

	return contracts.CategoryInfo{
		ID:          record.Category,
		DisplayName: displayName(record.Category),
	}, nil
}

// StaticResolver resolves from a fixed mapping. Used for configured overrides
// and in tests.
type StaticResolver struct {
	mapping map[string]contracts.CategoryInfo
}

// NewStaticResolver creates a resolver over an explicit SKU-to-category map.
func NewStaticResolver(mapping map[string]contracts.CategoryInfo) *StaticResolver {
	return &StaticResolver{mapping: mapping}
}

// Resolve returns the mapped category for the SKU.
func (r *StaticResolver) Resolve(productCode string, _ *contracts.InternalData) (contracts.CategoryInfo, error) {
	info, ok := r.mapping[productCode]
	if !ok {
		return contracts.CategoryInfo{}, fmt.Errorf("product %s not in category mapping", productCode)
	}
	return info, nil
}

// displayName renders a category ID like "ignition_parts" as "Ignition Parts".
func displayName(categoryID string) string {
	words := strings.Split(strings.ReplaceAll(categoryID, "-", "_"), "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
