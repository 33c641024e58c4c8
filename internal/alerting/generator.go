package alerting

import (
	"fmt"
	"sort"
	"time"

	"github.com/partsflow/demandcast/internal/contracts"
	"github.com/partsflow/demandcast/pkg/logger"
)

// Rule thresholds.
const (
	// supplyRiskThreshold is the overall risk score above which a
	// supplier_risk alert fires; above supplyRiskHigh it fires as high.
	supplyRiskThreshold = 0.3
	supplyRiskHigh      = 0.5

	// spikeThreshold is the relative demand increase over the trailing
	// baseline that counts as a spike.
	spikeThreshold = 0.3

	// stockoutUrgentDays bounds the medium/low split for inventory alerts.
	stockoutUrgentDays = 30.0
)

// Severity weights for priority scoring.
var severityWeight = map[contracts.Severity]int{
	contracts.SeverityHigh:   50,
	contracts.SeverityMedium: 30,
	contracts.SeverityLow:    10,
}

// Generator derives prioritized alerts from the run's outputs with a fixed
// deterministic rule set. No I/O; runs once during OUTPUT_BUILDING.
type Generator struct {
	horizonPeriods int
	logger         *logger.Logger
}

// NewGenerator creates an alert generator. horizonPeriods is needed to scale
// the trailing demand baseline for spike detection.
func NewGenerator(horizonPeriods int, log *logger.Logger) *Generator {
	return &Generator{
		horizonPeriods: horizonPeriods,
		logger:         log.WithField("component", "alert_generator"),
	}
}

// Generate runs every rule and returns the alerts sorted by priority score
// descending, ties broken by severity then alert type.
func (g *Generator) Generate(capacity *contracts.CapacityAnalysis, risk *contracts.SupplyChainRisk, forecasts map[string]contracts.ProductForecast, internal *contracts.InternalData) []contracts.Alert {
	now := time.Now()
	var alerts []contracts.Alert

	if a := g.capacityRule(capacity, forecasts, internal, now); a != nil {
		alerts = append(alerts, *a)
	}
	if a := g.spikeRule(forecasts, internal, now); a != nil {
		alerts = append(alerts, *a)
	}
	alerts = append(alerts, g.supplierRules(risk, forecasts, internal, now)...)
	alerts = append(alerts, g.inventoryRules(forecasts, internal, now)...)

	sort.SliceStable(alerts, func(i, j int) bool {
		if alerts[i].PriorityScore != alerts[j].PriorityScore {
			return alerts[i].PriorityScore > alerts[j].PriorityScore
		}
		if alerts[i].Severity.Rank() != alerts[j].Severity.Rank() {
			return alerts[i].Severity.Rank() > alerts[j].Severity.Rank()
		}
		return alerts[i].Type < alerts[j].Type
	})

	g.logger.WithFields(map[string]interface{}{
		"alerts": len(alerts),
	}).Info("Alert generation completed")

	return alerts
}

// capacityRule emits a single high-severity capacity_warning covering every
// over-capacity SKU.
func (g *Generator) capacityRule(capacity *contracts.CapacityAnalysis, forecasts map[string]contracts.ProductForecast, internal *contracts.InternalData, now time.Time) *contracts.Alert {
	if capacity == nil {
		return nil
	}

	var over []string
	var excess float64
	for _, sku := range capacity.PerSKU {
		if sku.OverCapacity {
			over = append(over, sku.ProductCode)
			excess += sku.Demand - sku.Capacity
		}
	}
	if len(over) == 0 {
		return nil
	}

	alert := &contracts.Alert{
		Type:             contracts.AlertCapacityWarning,
		Severity:         contracts.SeverityHigh,
		Message:          fmt.Sprintf("Forecast demand exceeds production capacity for %d SKU(s) by %.0f units over the horizon", len(over), excess),
		AffectedProducts: over,
		ActionRequired:   "Arrange additional production capacity or adjust delivery commitments",
		Metadata: map[string]interface{}{
			"excess_units":     excess,
			"utilization_rate": capacity.UtilizationRate,
		},
		CreatedAt: now,
	}
	alert.AffectedCategories = categoriesOf(over, forecasts)
	alert.PriorityScore = g.score(alert.Severity, len(over), financialImpact(over, forecasts, internal))
	return alert
}

// spikeRule emits one medium demand_spike when forecasts run well above the
// trailing historical baseline.
func (g *Generator) spikeRule(forecasts map[string]contracts.ProductForecast, internal *contracts.InternalData, now time.Time) *contracts.Alert {
	if internal == nil {
		return nil
	}

	var spiking []string
	for _, code := range sortedCodes(forecasts) {
		fc := forecasts[code]
		record, ok := internal.Product(code)
		if !ok {
			continue
		}

		baseline := trailingDemand(record.HistoricalSales, g.horizonPeriods)
		if baseline <= 0 {
			continue
		}
		if (fc.TotalEstimate-baseline)/baseline > spikeThreshold {
			spiking = append(spiking, code)
		}
	}
	if len(spiking) == 0 {
		return nil
	}

	alert := &contracts.Alert{
		Type:             contracts.AlertDemandSpike,
		Severity:         contracts.SeverityMedium,
		Message:          fmt.Sprintf("Forecast demand for %d SKU(s) exceeds the trailing baseline by more than %.0f%%", len(spiking), spikeThreshold*100),
		AffectedProducts: spiking,
		ActionRequired:   "Validate demand drivers and secure upstream supply",
		CreatedAt:        now,
	}
	alert.AffectedCategories = categoriesOf(spiking, forecasts)
	alert.PriorityScore = g.score(alert.Severity, len(spiking), financialImpact(spiking, forecasts, internal))
	return alert
}

// supplierRules emits an overall-risk alert plus one alert per high-risk
// supplier, scoped to SKUs that are forecast to grow.
func (g *Generator) supplierRules(risk *contracts.SupplyChainRisk, forecasts map[string]contracts.ProductForecast, internal *contracts.InternalData, now time.Time) []contracts.Alert {
	if risk == nil {
		return nil
	}

	var alerts []contracts.Alert

	if risk.OverallRiskScore > supplyRiskThreshold {
		severity := contracts.SeverityMedium
		if risk.OverallRiskScore > supplyRiskHigh {
			severity = contracts.SeverityHigh
		}

		growing := growingSKUs(forecasts)
		alert := contracts.Alert{
			Type:             contracts.AlertSupplierRisk,
			Severity:         severity,
			Message:          fmt.Sprintf("Supply chain risk score is %.2f. Monitor supplier performance closely.", risk.OverallRiskScore),
			AffectedProducts: growing,
			ActionRequired:   "Review supplier contracts and backup plans",
			Metadata: map[string]interface{}{
				"overall_risk_score": risk.OverallRiskScore,
			},
			CreatedAt: now,
		}
		alert.AffectedCategories = categoriesOf(growing, forecasts)
		alert.PriorityScore = g.score(severity, len(growing), financialImpact(growing, forecasts, internal))
		alerts = append(alerts, alert)
	}

	for _, supplier := range risk.SupplierStatus {
		if supplier.RiskLevel != "high" {
			continue
		}
		alert := contracts.Alert{
			Type:             contracts.AlertSupplierRisk,
			Severity:         contracts.SeverityHigh,
			Message:          fmt.Sprintf("Supplier %s has high risk level", supplier.Name),
			AffectedProducts: supplier.ProductCodes,
			ActionRequired:   "Contact supplier and assess impact",
			Metadata: map[string]interface{}{
				"supplier_id":      supplier.SupplierID,
				"on_time_delivery": supplier.OnTimeDelivery,
			},
			CreatedAt: now,
		}
		alert.AffectedCategories = categoriesOf(supplier.ProductCodes, forecasts)
		alert.PriorityScore = g.score(contracts.SeverityHigh, len(supplier.ProductCodes), financialImpact(supplier.ProductCodes, forecasts, internal))
		alerts = append(alerts, alert)
	}

	return alerts
}

// inventoryRules emits one alert per SKU whose stock sits below safety stock,
// medium when the projected stockout is near.
func (g *Generator) inventoryRules(forecasts map[string]contracts.ProductForecast, internal *contracts.InternalData, now time.Time) []contracts.Alert {
	if internal == nil {
		return nil
	}

	var alerts []contracts.Alert
	for _, code := range sortedCodes(forecasts) {
		fc := forecasts[code]
		record, ok := internal.Product(code)
		if !ok {
			continue
		}

		inv := record.Inventory
		if inv.SafetyStock <= 0 || inv.CurrentStock >= inv.SafetyStock {
			continue
		}

		days := daysToStockout(inv.CurrentStock, fc)
		severity := contracts.SeverityLow
		if days < stockoutUrgentDays {
			severity = contracts.SeverityMedium
		}

		alert := contracts.Alert{
			Type:               contracts.AlertInventory,
			Severity:           severity,
			Message:            fmt.Sprintf("Inventory for %s (%.0f units) is below safety stock (%.0f units)", code, inv.CurrentStock, inv.SafetyStock),
			AffectedProducts:   []string{code},
			AffectedCategories: []string{fc.CategoryID},
			ActionRequired:     "Schedule replenishment production",
			Metadata: map[string]interface{}{
				"current_stock":    inv.CurrentStock,
				"safety_stock":     inv.SafetyStock,
				"days_to_stockout": days,
			},
			CreatedAt: now,
		}
		alert.PriorityScore = g.score(severity, 1, financialImpact([]string{code}, forecasts, internal))
		alerts = append(alerts, alert)
	}

	return alerts
}

// score computes the 0-100 priority: severity carries half the range, the
// affected-SKU count and financial impact a quarter each.
func (g *Generator) score(severity contracts.Severity, affected int, impact float64) int {
	score := severityWeight[severity]

	skuPart := affected * 5
	if skuPart > 25 {
		skuPart = 25
	}
	score += skuPart

	impactPart := int(impact / 20000)
	if impactPart > 25 {
		impactPart = 25
	}
	score += impactPart

	if score > 100 {
		score = 100
	}
	return score
}

// financialImpact estimates revenue at stake: forecast units times unit price
// where the catalog has one.
func financialImpact(codes []string, forecasts map[string]contracts.ProductForecast, internal *contracts.InternalData) float64 {
	if internal == nil {
		return 0
	}
	total := 0.0
	for _, code := range codes {
		fc, ok := forecasts[code]
		if !ok {
			continue
		}
		if record, ok := internal.Product(code); ok && record.UnitPrice > 0 {
			total += fc.TotalEstimate * record.UnitPrice
		}
	}
	return total
}

// trailingDemand sums the most recent n periods of history.
func trailingDemand(series []contracts.SeriesPoint, n int) float64 {
	if len(series) == 0 || n <= 0 {
		return 0
	}
	start := len(series) - n
	if start < 0 {
		start = 0
	}
	total := 0.0
	for _, p := range series[start:] {
		total += p.Quantity
	}
	return total
}

// growingSKUs returns codes whose market adjustment scales demand up.
func growingSKUs(forecasts map[string]contracts.ProductForecast) []string {
	var codes []string
	for _, code := range sortedCodes(forecasts) {
		if forecasts[code].AdjustmentApplied > 1.0 {
			codes = append(codes, code)
		}
	}
	return codes
}

// daysToStockout projects how long current stock covers forecast demand.
func daysToStockout(currentStock float64, fc contracts.ProductForecast) float64 {
	if len(fc.Horizon) == 0 || fc.Horizon[0].Point <= 0 {
		return stockoutUrgentDays * 12 // effectively "far away"
	}
	dailyDemand := fc.Horizon[0].Point / 30.0
	return currentStock / dailyDemand
}

// categoriesOf collects the distinct categories of the given SKUs, sorted.
func categoriesOf(codes []string, forecasts map[string]contracts.ProductForecast) []string {
	seen := make(map[string]bool)
	for _, code := range codes {
		if fc, ok := forecasts[code]; ok && fc.CategoryID != "" {
			seen[fc.CategoryID] = true
		}
	}
	categories := make([]string, 0, len(seen))
	for c := range seen {
		categories = append(categories, c)
	}
	sort.Strings(categories)
	return categories
}

func sortedCodes(forecasts map[string]contracts.ProductForecast) []string {
	codes := make([]string, 0, len(forecasts))
	for code := range forecasts {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
