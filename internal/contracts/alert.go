package contracts

import "time"

// AlertType classifies an alert for routing and persistence.
type AlertType string

const (
	AlertLogisticsDelay  AlertType = "logistics_delay"
	AlertCapacityWarning AlertType = "capacity_warning"
	AlertSupplierRisk    AlertType = "supplier_risk"
	AlertDemandSpike     AlertType = "demand_spike"
	AlertInventory       AlertType = "inventory_alert"
	AlertQualityIssue    AlertType = "quality_issue"
	AlertOther           AlertType = "other"
)

// Severity is the alert severity level.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// Rank orders severities for priority scoring (high > medium > low).
func (s Severity) Rank() int {
	switch s {
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// Alert is a prioritized recommendation or warning emitted by the pipeline.
// Never mutated after creation; consumed by the storage and notification
// collaborators.
type Alert struct {
	ID                 string                 `json:"id,omitempty"`
	Type               AlertType              `json:"alert_type"`
	Severity           Severity               `json:"severity"`
	Message            string                 `json:"message"`
	AffectedProducts   []string               `json:"affected_products"`
	AffectedCategories []string               `json:"affected_categories"`
	ActionRequired     string                 `json:"action_required,omitempty"`
	PriorityScore      int                    `json:"priority_score"` // 0-100
	Metadata           map[string]interface{} `json:"metadata,omitempty"`
	Source             string                 `json:"source,omitempty"`
	CreatedAt          time.Time              `json:"created_at"`
}

// SkuCapacity is the demand-vs-capacity comparison for one SKU over the
// forecast horizon.
type SkuCapacity struct {
	ProductCode   string  `json:"product_code"`
	Demand        float64 `json:"demand"`
	Capacity      float64 `json:"capacity"`
	Utilization   float64 `json:"utilization"`
	OverCapacity  bool    `json:"over_capacity"`
	UnderUtilized bool    `json:"under_utilized"`
}

// Capacity status values.
const (
	CapacitySufficient  = "sufficient"
	CapacityConstrained = "constrained"
)

// CapacityAnalysis compares aggregated forecasts against production
// capacity. Pure data; produced once in OUTPUT_BUILDING.
type CapacityAnalysis struct {
	PerSKU          []SkuCapacity `json:"per_sku"`
	TotalForecast   float64       `json:"total_forecast"`
	TotalCapacity   float64       `json:"total_capacity"`
	UtilizationRate float64       `json:"utilization_rate"`
	Status          string        `json:"capacity_status"`
	SurplusCapacity float64       `json:"surplus_capacity"`
	Shortfall       float64       `json:"shortfall"`
	// MissingCapacity lists SKUs excluded because no capacity was known.
	MissingCapacity []string `json:"missing_capacity,omitempty"`
}

// Suggestion is an actionable production-planning recommendation.
type Suggestion struct {
	Priority   string `json:"priority"` // high, medium, low
	Category   string `json:"category"` // capacity, inventory, scheduling
	Suggestion string `json:"suggestion"`
	Impact     string `json:"impact"`
}

// NotificationSection is one block of the stakeholder notification.
type NotificationSection struct {
	Title   string   `json:"title"`
	Content []string `json:"content"`
}

// Notification is the assembled stakeholder payload. Populating it makes the
// run terminal.
type Notification struct {
	Subject    string                `json:"subject"`
	Summary    string                `json:"summary"`
	Sections   []NotificationSection `json:"sections"`
	Priority   string                `json:"priority"` // high, normal
	Recipients []string              `json:"recipients,omitempty"`
	CreatedAt  time.Time             `json:"created_at"`
}
