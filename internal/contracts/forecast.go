package contracts

import "time"

// SeriesPoint is one historical demand observation. Period uses the
// "2006-01" monthly format; series are chronological with no gaps.
type SeriesPoint struct {
	Period   string  `json:"period"`
	Quantity float64 `json:"quantity"`
}

// SkuContext is the fused per-SKU input to forecasting: the SKU's own
// internal data plus its category's shared insight. The insight is shared by
// value across every SKU in the category; it is never recomputed per SKU.
type SkuContext struct {
	ProductCode        string          `json:"product_code"`
	ProductName        string          `json:"product_name,omitempty"`
	CategoryID         string          `json:"category_id"`
	HistoricalSeries   []SeriesPoint   `json:"historical_series"`
	CurrentInventory   float64         `json:"current_inventory"`
	SafetyStock        float64         `json:"safety_stock"`
	ProductionCapacity float64         `json:"production_capacity"`
	Insight            CategoryInsight `json:"category_insight"`
}

// HorizonPoint is the forecast for one future period.
// Invariant: Lower <= Point <= Upper and Lower >= 0.
type HorizonPoint struct {
	Period string  `json:"period"`
	Point  float64 `json:"point_estimate"`
	Lower  float64 `json:"lower_bound"`
	Upper  float64 `json:"upper_bound"`
}

// ProductForecast is the adjusted forecast for one SKU. Write-once per run.
type ProductForecast struct {
	ProductCode       string         `json:"product_code"`
	ProductName       string         `json:"product_name,omitempty"`
	CategoryID        string         `json:"category_id"`
	Horizon           []HorizonPoint `json:"horizon_periods"`
	TotalEstimate     float64        `json:"total_estimate"`
	AdjustmentApplied float64        `json:"adjustment_applied"`
	ModelConfidence   float64        `json:"model_confidence"`
	Method            string         `json:"method"`
	CreatedAt         time.Time      `json:"created_at"`
}

// ForecastTotals is the run-level aggregation of all completed forecasts.
// Missing SKUs are recorded as degraded, never interpolated.
type ForecastTotals struct {
	TotalUnits     float64 `json:"total_units"`
	LowerUnits     float64 `json:"lower_units"`
	UpperUnits     float64 `json:"upper_units"`
	ProductCount   int     `json:"product_count"`
	CategoryCount  int     `json:"category_count"`
	DegradedCount  int     `json:"degraded_count"`
	HorizonPeriods int     `json:"horizon_periods"`
	AvgConfidence  float64 `json:"avg_confidence"`
}
