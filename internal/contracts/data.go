package contracts

import "time"

// Order is an open customer order from the ERP.
type Order struct {
	OrderID      string  `json:"order_id"`
	ProductCode  string  `json:"product_code"`
	Quantity     float64 `json:"quantity"`
	DeliveryDate string  `json:"delivery_date"`
}

// Inventory is the current stock position for one SKU.
type Inventory struct {
	CurrentStock float64 `json:"current_stock"`
	SafetyStock  float64 `json:"safety_stock"`
	ReorderPoint float64 `json:"reorder_point"`
	Warehouse    string  `json:"warehouse,omitempty"`
	LeadTimeDays int     `json:"lead_time_days,omitempty"`
}

// ProductRecord is everything the internal systems know about one SKU.
type ProductRecord struct {
	ProductCode     string        `json:"product_code"`
	ProductName     string        `json:"product_name"`
	Category        string        `json:"category,omitempty"`
	UnitPrice       float64       `json:"unit_price,omitempty"`
	HistoricalSales []SeriesPoint `json:"historical_sales"`
	Inventory       Inventory     `json:"inventory"`
	// MonthlyCapacity is the production capacity allocated to this SKU,
	// in units per month. Zero means capacity is unknown for the SKU.
	MonthlyCapacity float64 `json:"monthly_capacity"`
}

// InternalData is the COLLECTING-stage payload from the ERP: orders,
// inventory, historical series, and production capacity. Write-once per run.
type InternalData struct {
	Orders    []Order                  `json:"orders"`
	Products  map[string]ProductRecord `json:"products"`
	FetchedAt time.Time                `json:"fetched_at"`
}

// Product returns the record for a SKU, reporting whether it exists.
func (d *InternalData) Product(code string) (ProductRecord, bool) {
	p, ok := d.Products[code]
	return p, ok
}

// SupplierStatus is the risk posture of one supplier.
type SupplierStatus struct {
	SupplierID     string   `json:"supplier_id"`
	Name           string   `json:"name"`
	RiskLevel      string   `json:"risk_level"` // low, medium, high
	OnTimeDelivery float64  `json:"on_time_delivery"`
	ProductCodes   []string `json:"product_codes,omitempty"`
}

// LogisticsDelay summarizes delays on one transport mode.
type LogisticsDelay struct {
	Mode         string  `json:"mode"`
	AvgDelayDays float64 `json:"avg_delay_days"`
	RiskLevel    string  `json:"risk_level"`
}

// SupplyChainRisk is the COLLECTING-stage payload from the supply-chain
// monitoring feed. Write-once per run.
type SupplyChainRisk struct {
	SupplierStatus   []SupplierStatus `json:"supplier_status"`
	LogisticsDelays  []LogisticsDelay `json:"logistics_delays"`
	OverallRiskScore float64          `json:"overall_risk_score"` // 0-1, lower is better
	FetchedAt        time.Time        `json:"fetched_at"`
}
