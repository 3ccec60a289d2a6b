package application

import (
	"context"
	"math"
	"time"

	registry "energymeter-cloud/internal/registry/domain"
	telemetry "energymeter-cloud/internal/telemetry/domain"
	usage "energymeter-cloud/internal/usage/domain"
)

// ReadingSource fetches readings for a set of devices within
// [start, end). A zero bound leaves that side open.
type ReadingSource interface {
	ReadingsFor(ctx context.Context, deviceIDs []string, start, end time.Time) ([]telemetry.Reading, error)
}

// AggregateByDevice folds readings into one record per device, in the
// order the devices are given. Readings must arrive in store order
// (timestamp ascending, insertion order breaking ties) so that the
// last matching reading wins the LastReading slot. Devices without
// readings are omitted.
func AggregateByDevice(devices []registry.Device, readings []telemetry.Reading) []usage.AggregateRecord {
	type accumulator struct {
		totalPower  float64
		sumVoltage  float64
		sumCurrent  float64
		count       int
		lastReading usage.ReadingSnapshot
	}

	byDevice := make(map[string]*accumulator, len(devices))
	for _, reading := range readings {
		acc := byDevice[reading.DeviceID]
		if acc == nil {
			acc = &accumulator{}
			byDevice[reading.DeviceID] = acc
		}
		acc.totalPower += reading.Power
		acc.sumVoltage += reading.Voltage
		acc.sumCurrent += reading.Current
		acc.count++
		acc.lastReading = usage.ReadingSnapshot{
			Voltage:   reading.Voltage,
			Current:   reading.Current,
			Power:     reading.Power,
			Timestamp: reading.Timestamp,
		}
	}

	var records []usage.AggregateRecord
	for _, device := range devices {
		acc := byDevice[device.DeviceID]
		if acc == nil || acc.count == 0 {
			continue
		}
		records = append(records, usage.AggregateRecord{
			DeviceID:       device.DeviceID,
			DeviceName:     device.Name,
			DeviceLocation: device.Location,
			TotalPower:     round2(acc.totalPower),
			AvgVoltage:     round2(acc.sumVoltage / float64(acc.count)),
			AvgCurrent:     round2(acc.sumCurrent / float64(acc.count)),
			ReadingCount:   acc.count,
			LastReading:    acc.lastReading,
		})
	}
	return records
}

// SumPower returns the power total over a reading slice. Empty input
// yields zero.
func SumPower(readings []telemetry.Reading) float64 {
	var total float64
	for _, reading := range readings {
		total += reading.Power
	}
	return total
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
