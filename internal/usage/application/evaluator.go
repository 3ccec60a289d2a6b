package application

import (
	"fmt"
	"strconv"
	"time"

	usage "energymeter-cloud/internal/usage/domain"
)

// Period labels used in notification messages and metrics.
const (
	PeriodDaily   = "Daily"
	PeriodMonthly = "Monthly"
)

// Breach describes one exceeded limit.
type Breach struct {
	Period string
	Limit  float64
	Total  float64
}

// EvaluateThresholds compares windowed totals against configured
// limits. A period breaches only when its total strictly exceeds the
// limit; unconfigured periods are skipped. Totals equal to the limit
// never breach.
func EvaluateThresholds(limits usage.Limits, dailyTotal, monthlyTotal float64) []Breach {
	var breaches []Breach
	if limits.Daily != nil && dailyTotal > *limits.Daily {
		breaches = append(breaches, Breach{Period: PeriodDaily, Limit: *limits.Daily, Total: dailyTotal})
	}
	if limits.Monthly != nil && monthlyTotal > *limits.Monthly {
		breaches = append(breaches, Breach{Period: PeriodMonthly, Limit: *limits.Monthly, Total: monthlyTotal})
	}
	return breaches
}

// Message renders the breach notification text. Limits print in their
// shortest decimal form, totals always with two decimals.
func (b Breach) Message() string {
	limit := strconv.FormatFloat(b.Limit, 'f', -1, 64)
	return fmt.Sprintf("%s energy limit of %sW exceeded. Current total usage: %.2fW", b.Period, limit, b.Total)
}

// Notification converts the breach into an unread ledger record.
func (b Breach) Notification(userID string, now time.Time) usage.Notification {
	return usage.Notification{
		UserID:    userID,
		Message:   b.Message(),
		Timestamp: now.UTC(),
		Read:      false,
	}
}
