package telemetry

import (
	"context"
	"errors"
	"time"
)

// Reading is one timestamped electrical sample from a device.
// Readings are immutable once recorded.
type Reading struct {
	ID        int64     `json:"-"`
	DeviceID  string    `json:"deviceId"`
	Voltage   float64   `json:"voltage"`
	Current   float64   `json:"current"`
	Power     float64   `json:"power"`
	Timestamp time.Time `json:"timestamp"`
}

// Validate checks reading invariants.
func (r Reading) Validate() error {
	if r.DeviceID == "" {
		return errors.New("reading: empty device id")
	}
	return nil
}

// ReadingRepository appends readings to storage.
type ReadingRepository interface {
	Insert(ctx context.Context, reading *Reading) error
}

// ReadingQuery loads readings for aggregation and display.
// Zero start or end leaves the corresponding bound open; a set end is
// exclusive, so a window is the half-open range [start, end).
type ReadingQuery interface {
	ReadingsFor(ctx context.Context, deviceIDs []string, start, end time.Time) ([]Reading, error)
	RecentByDevice(ctx context.Context, deviceID string, limit int) ([]Reading, error)
	LatestByDevice(ctx context.Context, deviceID string) (*Reading, error)
}
