package category

import (
	"sort"

	"github.com/partsflow/demandcast/internal/contracts"
	"github.com/partsflow/demandcast/pkg/logger"
)

// Splitter groups product codes into category batches for the SPLIT stage.
// Output ordering is deterministic: batches sorted by category ID, members
// sorted within each batch.
type Splitter struct {
	resolver contracts.CategoryResolver
	logger   *logger.Logger
}

// NewSplitter creates a splitter over the given resolver.
func NewSplitter(resolver contracts.CategoryResolver, log *logger.Logger) *Splitter {
	return &Splitter{
		resolver: resolver,
		logger:   log.WithField("component", "splitter"),
	}
}

// Split partitions the product codes into disjoint category batches.
// Unresolvable SKUs come back degraded with reason unresolved_category.
func (s *Splitter) Split(productCodes []string, internal *contracts.InternalData) ([]contracts.CategoryBatch, []contracts.DegradedSKU) {
	byCategory := make(map[string]*contracts.CategoryBatch)
	var degraded []contracts.DegradedSKU

	for _, code := range productCodes {
		info, err := s.resolver.Resolve(code, internal)
		if err != nil {
			s.logger.WithError(err).WithField("product_code", code).Warn("Could not resolve category")
			degraded = append(degraded, contracts.DegradedSKU{
				ProductCode: code,
				Reason:      contracts.ReasonUnresolvedCategory,
				Detail:      err.Error(),
			})
			continue
		}

		batch, ok := byCategory[info.ID]
		if !ok {
			batch = &contracts.CategoryBatch{
				CategoryID:  info.ID,
				DisplayName: info.DisplayName,
				Description: info.Description,
			}
			byCategory[info.ID] = batch
		}
		batch.Members = append(batch.Members, code)
	}

	batches := make([]contracts.CategoryBatch, 0, len(byCategory))
	for _, batch := range byCategory {
		sort.Strings(batch.Members)
		batches = append(batches, *batch)
	}
	sort.Slice(batches, func(i, j int) bool {
		return batches[i].CategoryID < batches[j].CategoryID
	})

	s.logger.WithFields(map[string]interface{}{
		"products":   len(productCodes),
		"categories": len(batches),
		"unresolved": len(degraded),
	}).Info("Split products into category batches")

	return batches, degraded
}
