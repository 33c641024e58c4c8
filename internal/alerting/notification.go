package alerting

import (
	"context"
	"fmt"
	"time"

	"github.com/partsflow/demandcast/internal/contracts"
	"github.com/partsflow/demandcast/pkg/logger"
)

// BuildNotification assembles the stakeholder payload from the run outputs.
// Populating the notification makes the run terminal; this always succeeds.
func BuildNotification(totals *contracts.ForecastTotals, suggestions []contracts.Suggestion, alerts []contracts.Alert, recipients []string) contracts.Notification {
	totalUnits := 0.0
	productCount := 0
	horizonPeriods := 0
	if totals != nil {
		totalUnits = totals.TotalUnits
		productCount = totals.ProductCount
		horizonPeriods = totals.HorizonPeriods
	}

	sections := []contracts.NotificationSection{
		{
			Title: "Forecast Summary",
			Content: []string{fmt.Sprintf("Total forecasted demand over the next %d months: %.0f units across %d products.",
				horizonPeriods, totalUnits, productCount)},
		},
	}

	if len(suggestions) > 0 {
		top := suggestions
		if len(top) > 3 {
			top = top[:3]
		}
		content := make([]string, 0, len(top))
		for _, s := range top {
			content = append(content, s.Suggestion)
		}
		sections = append(sections, contracts.NotificationSection{
			Title:   "Key Recommendations",
			Content: content,
		})
	}

	var highAlerts []string
	for _, a := range alerts {
		if a.Severity == contracts.SeverityHigh {
			highAlerts = append(highAlerts, a.Message)
		}
	}
	if len(highAlerts) > 0 {
		sections = append(sections, contracts.NotificationSection{
			Title:   "Alerts Requiring Attention",
			Content: highAlerts,
		})
	}

	priority := "normal"
	if len(highAlerts) > 0 {
		priority = "high"
	}

	return contracts.Notification{
		Subject:    "Demand Forecast - Action Required",
		Summary:    fmt.Sprintf("Forecast complete for %d products. Total demand: %.0f units.", productCount, totalUnits),
		Sections:   sections,
		Priority:   priority,
		Recipients: recipients,
		CreatedAt:  time.Now(),
	}
}

// LogNotifier delivers notifications to the structured log. Stands in until a
// real email or chat channel is wired up.
type LogNotifier struct {
	logger *logger.Logger
}

// NewLogNotifier creates a log-backed notifier.
func NewLogNotifier(log *logger.Logger) *LogNotifier {
	return &LogNotifier{logger: log.WithField("component", "notifier")}
}

// Send writes the notification to the log.
func (n *LogNotifier) Send(_ context.Context, msg contracts.Notification) error {
	n.logger.WithFields(map[string]interface{}{
		"subject":    msg.Subject,
		"priority":   msg.Priority,
		"recipients": msg.Recipients,
		"sections":   len(msg.Sections),
	}).Info(msg.Summary)
	return nil
}
