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

// RiskClient fetches supplier status and logistics delays from the
// supply-chain monitoring feed.
type RiskClient struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
	apiKey     string
}

// NewRiskClient creates a supply-chain risk client from config.
func NewRiskClient(cfg *config.Config, log *logger.Logger) *RiskClient {
	return &RiskClient{
		httpClient: httputil.NewWithTimeout(cfg, log, cfg.SupplyChain.Timeout),
		logger:     log.WithField("component", "risk_client"),
		baseURL:    strings.TrimRight(cfg.SupplyChain.BaseURL, "/"),
		apiKey:     cfg.SupplyChain.APIKey,
	}
}

type riskResponse struct {
	SupplierStatus   []contracts.SupplierStatus `json:"supplier_status"`
	LogisticsDelays  []contracts.LogisticsDelay `json:"logistics_delays"`
	OverallRiskScore float64                    `json:"overall_risk_score"`
}

// FetchSupplyChainRisk pulls the current risk snapshot for the requested SKUs.
func (c *RiskClient) FetchSupplyChainRisk(ctx context.Context, productCodes []string) (*contracts.SupplyChainRisk, error) {
	params := url.Values{}
	params.Set("product_codes", strings.Join(productCodes, ","))
	if c.apiKey != "" {
		params.Set("api_key", c.apiKey)
	}

	reqURL := fmt.Sprintf("%s/api/v1/risk?%s", c.baseURL, params.Encode())

	resp, err := c.httpClient.Get(ctx, reqURL)
	if err != nil {
		return nil, fmt.Errorf("supply chain request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("supply chain feed returned status %d", resp.StatusCode)
	}

	var payload riskResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode risk response: %w", err)
	}

	risk := &contracts.SupplyChainRisk{
		SupplierStatus:   payload.SupplierStatus,
		LogisticsDelays:  payload.LogisticsDelays,
		OverallRiskScore: payload.OverallRiskScore,
		FetchedAt:        time.Now(),
	}

	c.logger.WithFields(map[string]interface{}{
		"suppliers": len(risk.SupplierStatus),
		"delays":    len(risk.LogisticsDelays),
		"risk":      risk.OverallRiskScore,
	}).Debug("Fetched supply chain risk")

	return risk, nil
}
