package product

import (
	"fmt"

	"github.com/partsflow/demandcast/internal/contracts"
	"github.com/partsflow/demandcast/pkg/logger"
)

// Fuser assembles the per-SKU forecast input: the SKU's internal data merged
// with its category's shared insight. SKUs with too little history are
// degraded here, before the forecast engine ever sees them.
type Fuser struct {
	minHistory int
	logger     *logger.Logger
}

// NewFuser creates a fuser with the minimum history gate, in monthly periods.
func NewFuser(minHistory int, log *logger.Logger) *Fuser {
	return &Fuser{
		minHistory: minHistory,
		logger:     log.WithField("component", "fuser"),
	}
}

// Fuse builds SkuContexts for every member of the batch. The insight is
// attached by value to each context; it is never recomputed per SKU.
func (f *Fuser) Fuse(batch contracts.CategoryBatch, internal *contracts.InternalData, insight contracts.CategoryInsight) ([]contracts.SkuContext, []contracts.DegradedSKU) {
	contexts := make([]contracts.SkuContext, 0, len(batch.Members))
	var degraded []contracts.DegradedSKU

	for _, code := range batch.Members {
		var record contracts.ProductRecord
		ok := false
		if internal != nil {
			record, ok = internal.Product(code)
		}
		if !ok {
			degraded = append(degraded, contracts.DegradedSKU{
				ProductCode: code,
				Category:    batch.CategoryID,
				Reason:      contracts.ReasonInsufficientHistory,
				Detail:      "no internal record",
			})
			continue
		}

		if len(record.HistoricalSales) < f.minHistory {
			f.logger.WithFields(map[string]interface{}{
				"product_code": code,
				"periods":      len(record.HistoricalSales),
				"required":     f.minHistory,
			}).Warn("Insufficient history for forecasting")
			degraded = append(degraded, contracts.DegradedSKU{
				ProductCode: code,
				Category:    batch.CategoryID,
				Reason:      contracts.ReasonInsufficientHistory,
				Detail:      fmt.Sprintf("%d periods, need %d", len(record.HistoricalSales), f.minHistory),
			})
			continue
		}

		contexts = append(contexts, contracts.SkuContext{
			ProductCode:        code,
			ProductName:        record.ProductName,
			CategoryID:         batch.CategoryID,
			HistoricalSeries:   record.HistoricalSales,
			CurrentInventory:   record.Inventory.CurrentStock,
			SafetyStock:        record.Inventory.SafetyStock,
			ProductionCapacity: record.MonthlyCapacity,
			Insight:            insight,
		})
	}

	return contexts, degraded
}
