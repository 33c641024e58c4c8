package alerting

import (
	"fmt"
	"sort"

	"github.com/partsflow/demandcast/internal/contracts"
)

// Utilization thresholds for capacity suggestions.
const (
	utilizationHigh   = 0.90
	utilizationMedium = 0.85
)

// topProductSuggestions bounds the per-product inventory suggestions to the
// largest forecasts.
const topProductSuggestions = 3

// GenerateSuggestions derives production-planning recommendations from the
// capacity analysis and the forecasts. Deterministic and pure.
func GenerateSuggestions(capacity *contracts.CapacityAnalysis, forecasts map[string]contracts.ProductForecast) []contracts.Suggestion {
	var suggestions []contracts.Suggestion

	utilization := 0.0
	if capacity != nil {
		utilization = capacity.UtilizationRate
	}

	switch {
	case utilization > utilizationHigh:
		suggestions = append(suggestions, contracts.Suggestion{
			Priority:   "high",
			Category:   "capacity",
			Suggestion: "Consider adding overtime shifts or contracting with third-party manufacturers",
			Impact:     "Critical for meeting forecast demand",
		})
	case utilization > utilizationMedium:
		suggestions = append(suggestions, contracts.Suggestion{
			Priority:   "medium",
			Category:   "capacity",
			Suggestion: "Plan for potential capacity constraints, prepare contingency production plans",
			Impact:     "Moderate risk to on-time delivery",
		})
	default:
		suggestions = append(suggestions, contracts.Suggestion{
			Priority:   "low",
			Category:   "capacity",
			Suggestion: "Current capacity is sufficient, consider optimizing production scheduling",
			Impact:     "Opportunity for efficiency improvements",
		})
	}

	for _, fc := range topForecasts(forecasts, topProductSuggestions) {
		suggestions = append(suggestions, contracts.Suggestion{
			Priority:   "medium",
			Category:   "inventory",
			Suggestion: fmt.Sprintf("Ensure %s inventory covers %.0f units forecast over the horizon", fc.ProductCode, fc.TotalEstimate),
			Impact:     "Maintain service level",
		})
	}

	return suggestions
}

// topForecasts returns the n largest forecasts by total estimate, ties broken
// by product code for determinism.
func topForecasts(forecasts map[string]contracts.ProductForecast, n int) []contracts.ProductForecast {
	all := make([]contracts.ProductForecast, 0, len(forecasts))
	for _, fc := range forecasts {
		all = append(all, fc)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].TotalEstimate != all[j].TotalEstimate {
			return all[i].TotalEstimate > all[j].TotalEstimate
		}
		return all[i].ProductCode < all[j].ProductCode
	})
	if n < len(all) {
		all = all[:n]
	}
	return all
}
