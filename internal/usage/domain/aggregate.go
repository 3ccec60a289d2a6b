package usage

import "time"

// Limits holds per-period power limits in watts. A nil period means no
// limit is configured for that period and it is never evaluated.
type Limits struct {
	Daily   *float64 `json:"daily"`
	Monthly *float64 `json:"monthly"`
}

// Configured returns true when at least one period has a limit.
func (l Limits) Configured() bool {
	return l.Daily != nil || l.Monthly != nil
}

// ReadingSnapshot is the payload of a device's most recent reading.
type ReadingSnapshot struct {
	Voltage   float64   `json:"voltage"`
	Current   float64   `json:"current"`
	Power     float64   `json:"power"`
	Timestamp time.Time `json:"timestamp"`
}

// AggregateRecord summarizes all readings of one device. Devices
// without readings never produce a record.
type AggregateRecord struct {
	DeviceID       string          `json:"deviceId"`
	DeviceName     string          `json:"deviceName"`
	DeviceLocation string          `json:"deviceLocation"`
	TotalPower     float64         `json:"totalPower"`
	AvgVoltage     float64         `json:"avgVoltage"`
	AvgCurrent     float64         `json:"avgCurrent"`
	ReadingCount   int             `json:"readingCount"`
	LastReading    ReadingSnapshot `json:"lastReading"`
}

// UsageReport is the all-time usage summary for one user.
type UsageReport struct {
	TotalDevices    int               `json:"totalDevices"`
	TotalPowerUsage float64           `json:"totalPowerUsage"`
	TotalReadings   int               `json:"totalReadings"`
	Devices         []AggregateRecord `json:"devices"`
}

// WindowResult is the outcome of a limit check: windowed usage totals,
// the configured limits, and any notifications recorded by this check.
type WindowResult struct {
	DailyUsage    float64        `json:"dailyUsage"`
	MonthlyUsage  float64        `json:"monthlyUsage"`
	Limits        Limits         `json:"limits"`
	Notifications []Notification `json:"notifications"`
}
