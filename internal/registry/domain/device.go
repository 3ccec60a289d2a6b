package registry

import (
	"context"
	"errors"
	"time"
)

// Device represents a metering device bound to an owning user.
type Device struct {
	DeviceID  string    `json:"deviceId"`
	OwnerID   string    `json:"userId"`
	Name      string    `json:"name"`
	Location  string    `json:"location,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"-"`
}

// Validate checks device invariants.
func (d Device) Validate() error {
	if d.DeviceID == "" {
		return errors.New("device: empty device id")
	}
	if d.OwnerID == "" {
		return errors.New("device: empty owner id")
	}
	if d.Name == "" {
		return errors.New("device: empty name")
	}
	return nil
}

// ErrNotFound indicates a device that is absent or not owned by the caller.
// The two cases are deliberately indistinguishable so device existence is
// not leaked across users.
var ErrNotFound = errors.New("device: not found")

// DeviceRepository manages device persistence.
type DeviceRepository interface {
	Save(ctx context.Context, device *Device) error
	GetByDeviceID(ctx context.Context, deviceID string) (*Device, error)
	ListByOwner(ctx context.Context, ownerID string) ([]Device, error)
	Update(ctx context.Context, ownerID, deviceID, name, location string) (*Device, error)
	Delete(ctx context.Context, ownerID, deviceID string) error
}
