package product

import (
	"fmt"
	"math"
	"time"

	"github.com/partsflow/demandcast/internal/contracts"
	"github.com/partsflow/demandcast/pkg/logger"
)

// MethodHoltWinters identifies the forecast model on every output.
const MethodHoltWinters = "holt_winters_additive"

const (
	seasonLength = 12 // monthly data, yearly seasonality

	// Smoothing parameters for level, trend, and seasonality.
	alpha = 0.3
	beta  = 0.1
	gamma = 0.2

	// 90% prediction interval half-width in residual standard deviations.
	intervalZ = 1.645
)

// Engine produces per-SKU demand forecasts with a Holt-Winters additive
// model, then applies the category's market adjustment factor.
type Engine struct {
	logger *logger.Logger
}

// NewEngine creates a forecast engine.
func NewEngine(log *logger.Logger) *Engine {
	return &Engine{logger: log.WithField("component", "forecast_engine")}
}

// Forecast fits the SKU's history and projects horizonPeriods months ahead.
// The caller guarantees at least two full seasons of history.
func (e *Engine) Forecast(sc contracts.SkuContext, horizonPeriods int) (contracts.ProductForecast, error) {
	series := sc.HistoricalSeries
	if len(series) < 2*seasonLength {
		return contracts.ProductForecast{}, fmt.Errorf("series too short: %d periods", len(series))
	}
	if horizonPeriods < 1 {
		return contracts.ProductForecast{}, fmt.Errorf("invalid horizon: %d", horizonPeriods)
	}

	values := make([]float64, len(series))
	for i, p := range series {
		values[i] = p.Quantity
	}

	model := fitHoltWinters(values)

	lastPeriod, err := time.Parse("2006-01", series[len(series)-1].Period)
	if err != nil {
		return contracts.ProductForecast{}, fmt.Errorf("bad period %q: %w", series[len(series)-1].Period, err)
	}

	factor := sc.Insight.AdjustmentFactor
	halfWidth := intervalZ * model.residualStd

	horizon := make([]contracts.HorizonPoint, 0, horizonPeriods)
	total := 0.0
	for m := 1; m <= horizonPeriods; m++ {
		raw := model.predict(m)

		point := raw * factor
		lower := (raw - halfWidth) * factor
		upper := (raw + halfWidth) * factor

		// Demand cannot be negative.
		if point < 0 {
			point = 0
		}
		if lower < 0 {
			lower = 0
		}
		if lower > point {
			lower = point
		}
		if upper < point {
			upper = point
		}

		horizon = append(horizon, contracts.HorizonPoint{
			Period: lastPeriod.AddDate(0, m, 0).Format("2006-01"),
			Point:  round2(point),
			Lower:  round2(lower),
			Upper:  round2(upper),
		})
		total += point
	}

	confidence := model.fitQuality * (0.5 + 0.5*sc.Insight.Confidence)

	return contracts.ProductForecast{
		ProductCode:       sc.ProductCode,
		ProductName:       sc.ProductName,
		CategoryID:        sc.CategoryID,
		Horizon:           horizon,
		TotalEstimate:     round2(total),
		AdjustmentApplied: factor,
		ModelConfidence:   round4(confidence),
		Method:            MethodHoltWinters,
		CreatedAt:         time.Now(),
	}, nil
}

// holtWintersModel is a fitted additive model ready to project forward.
type holtWintersModel struct {
	level       float64
	trend       float64
	seasonal    []float64
	n           int
	residualStd float64
	fitQuality  float64
}

// predict returns the m-step-ahead point estimate.
func (m *holtWintersModel) predict(steps int) float64 {
	idx := (m.n + steps - 1) % seasonLength
	return m.level + float64(steps)*m.trend + m.seasonal[idx]
}

// fitHoltWinters runs additive Holt-Winters smoothing over the series and
// collects one-step-ahead residuals for interval and fit-quality estimation.
func fitHoltWinters(values []float64) *holtWintersModel {
	firstSeason := mean(values[:seasonLength])
	secondSeason := mean(values[seasonLength : 2*seasonLength])

	level := firstSeason
	trend := (secondSeason - firstSeason) / seasonLength

	seasonal := make([]float64, seasonLength)
	for i := 0; i < seasonLength; i++ {
		seasonal[i] = values[i] - firstSeason
	}

	var residuals []float64
	for t := seasonLength; t < len(values); t++ {
		idx := t % seasonLength

		predicted := level + trend + seasonal[idx]
		residuals = append(residuals, values[t]-predicted)

		prevLevel := level
		level = alpha*(values[t]-seasonal[idx]) + (1-alpha)*(level+trend)
		trend = beta*(level-prevLevel) + (1-beta)*trend
		seasonal[idx] = gamma*(values[t]-level) + (1-gamma)*seasonal[idx]
	}

	std := stddev(residuals)

	// Normalized in-sample error: 1 is a perfect fit, 0 means the error is
	// as large as the demand itself.
	avg := mean(values)
	quality := 0.0
	if avg > 0 {
		quality = 1 - meanAbs(residuals)/avg
		if quality < 0 {
			quality = 0
		}
	}

	return &holtWintersModel{
		level:       level,
		trend:       trend,
		seasonal:    seasonal,
		n:           len(values),
		residualStd: std,
		fitQuality:  quality,
	}
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func meanAbs(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += math.Abs(v)
	}
	return sum / float64(len(values))
}

func stddev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := mean(values)
	sum := 0.0
	for _, v := range values {
		d := v - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)-1))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
