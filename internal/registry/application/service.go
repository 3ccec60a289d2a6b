package application

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	registry "energymeter-cloud/internal/registry/domain"
)

// Service handles device registration scoped to the owning user.
type Service struct {
	devices registry.DeviceRepository
}

// NewService constructs a registry service.
func NewService(devices registry.DeviceRepository) (*Service, error) {
	if devices == nil {
		return nil, errors.New("registry: nil repository")
	}
	return &Service{devices: devices}, nil
}

// AddDevice registers a new device with a generated id.
func (s *Service) AddDevice(ctx context.Context, ownerID, name, location string) (*registry.Device, error) {
	if s == nil {
		return nil, errors.New("registry: nil service")
	}
	if ownerID == "" {
		return nil, errors.New("registry: empty owner id")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("registry: empty device name")
	}
	device := &registry.Device{
		DeviceID: uuid.NewString(),
		OwnerID:  ownerID,
		Name:     name,
		Location: strings.TrimSpace(location),
	}
	if err := s.devices.Save(ctx, device); err != nil {
		return nil, err
	}
	return device, nil
}

// ListDevices returns all devices owned by the caller.
func (s *Service) ListDevices(ctx context.Context, ownerID string) ([]registry.Device, error) {
	if s == nil {
		return nil, errors.New("registry: nil service")
	}
	if ownerID == "" {
		return nil, errors.New("registry: empty owner id")
	}
	return s.devices.ListByOwner(ctx, ownerID)
}

// UpdateDevice modifies a device owned by the caller.
func (s *Service) UpdateDevice(ctx context.Context, ownerID, deviceID, name, location string) (*registry.Device, error) {
	if s == nil {
		return nil, errors.New("registry: nil service")
	}
	if ownerID == "" || deviceID == "" {
		return nil, errors.New("registry: empty owner or device id")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("registry: empty device name")
	}
	return s.devices.Update(ctx, ownerID, deviceID, name, strings.TrimSpace(location))
}

// DeleteDevice removes a device owned by the caller.
func (s *Service) DeleteDevice(ctx context.Context, ownerID, deviceID string) error {
	if s == nil {
		return errors.New("registry: nil service")
	}
	if ownerID == "" || deviceID == "" {
		return errors.New("registry: empty owner or device id")
	}
	return s.devices.Delete(ctx, ownerID, deviceID)
}
