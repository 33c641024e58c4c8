package collect

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/partsflow/demandcast/internal/contracts"
	"github.com/partsflow/demandcast/pkg/config"
	"github.com/partsflow/demandcast/pkg/httputil"
	"github.com/partsflow/demandcast/pkg/logger"
)

// ERPClient fetches orders, inventory, historical series, and production
// capacity from the internal ERP gateway.
type ERPClient struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
	apiKey     string
}

// NewERPClient creates an ERP client from config.
func NewERPClient(cfg *config.Config, log *logger.Logger) *ERPClient {
	return &ERPClient{
		httpClient: httputil.NewWithTimeout(cfg, log, cfg.ERP.Timeout),
		logger:     log.WithField("component", "erp_client"),
		baseURL:    strings.TrimRight(cfg.ERP.BaseURL, "/"),
		apiKey:     cfg.ERP.APIKey,
	}
}

// erpProductResponse mirrors the ERP gateway's product payload.
type erpProductResponse struct {
	Products []struct {
		ProductCode     string  `json:"product_code"`
		ProductName     string  `json:"product_name"`
		Category        string  `json:"category"`
		UnitPrice       float64 `json:"unit_price"`
		MonthlyCapacity float64 `json:"monthly_capacity"`
		HistoricalSales []struct {
			Period   string  `json:"period"`
			Quantity float64 `json:"quantity"`
		} `json:"historical_sales"`
		Inventory struct {
			CurrentStock float64 `json:"current_stock"`
			SafetyStock  float64 `json:"safety_stock"`
			ReorderPoint float64 `json:"reorder_point"`
			Warehouse    string  `json:"warehouse"`
			LeadTimeDays int     `json:"lead_time_days"`
		} `json:"inventory"`
	} `json:"products"`
	Orders []contracts.Order `json:"orders"`
}

// FetchInternal pulls the full internal payload for the requested SKUs.
func (c *ERPClient) FetchInternal(ctx context.Context, productCodes []string) (*contracts.InternalData, error) {
	params := url.Values{}
	params.Set("product_codes", strings.Join(productCodes, ","))
	if c.apiKey != "" {
		params.Set("api_key", c.apiKey)
	}

	reqURL := fmt.Sprintf("%s/api/v1/products?%s", c.baseURL, params.Encode())

	resp, err := c.httpClient.Get(ctx, reqURL)
	if err != nil {
		return nil, fmt.Errorf("erp request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("erp returned status %d", resp.StatusCode)
	}

	var payload erpProductResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode erp response: %w", err)
	}

	data := &contracts.InternalData{
		Orders:    payload.Orders,
		Products:  make(map[string]contracts.ProductRecord, len(payload.Products)),
		FetchedAt: time.Now(),
	}

	for _, p := range payload.Products {
		rec := contracts.ProductRecord{
			ProductCode:     p.ProductCode,
			ProductName:     p.ProductName,
			Category:        p.Category,
			UnitPrice:       p.UnitPrice,
			MonthlyCapacity: p.MonthlyCapacity,
			Inventory: contracts.Inventory{
				CurrentStock: p.Inventory.CurrentStock,
				SafetyStock:  p.Inventory.SafetyStock,
				ReorderPoint: p.Inventory.ReorderPoint,
				Warehouse:    p.Inventory.Warehouse,
				LeadTimeDays: p.Inventory.LeadTimeDays,
			},
		}
		for _, s := range p.HistoricalSales {
			rec.HistoricalSales = append(rec.HistoricalSales, contracts.SeriesPoint{
				Period:   s.Period,
				Quantity: s.Quantity,
			})
		}
		data.Products[p.ProductCode] = rec
	}

	c.logger.WithFields(map[string]interface{}{
		"requested": len(productCodes),
		"products":  len(data.Products),
		"orders":    len(data.Orders),
	}).Debug("Fetched internal data")

	return data, nil
}
