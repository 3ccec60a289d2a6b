package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	registry "energymeter-cloud/internal/registry/domain"
)

const defaultDevicesTable = "devices"

// DeviceRepository is a Postgres implementation for devices.
type DeviceRepository struct {
	db    *sql.DB
	table string
}

// NewDeviceRepository constructs a repository with default table name.
func NewDeviceRepository(db *sql.DB, opts ...DeviceOption) *DeviceRepository {
	repo := &DeviceRepository{db: db, table: defaultDevicesTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// DeviceOption configures the repository.
type DeviceOption func(*DeviceRepository)

// WithDevicesTable overrides the default table name.
func WithDevicesTable(table string) DeviceOption {
	return func(repo *DeviceRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// Save inserts a device.
func (r *DeviceRepository) Save(ctx context.Context, device *registry.Device) error {
	if r == nil || r.db == nil {
		return errors.New("device repo: nil db")
	}
	if device == nil {
		return errors.New("device repo: nil device")
	}
	if err := device.Validate(); err != nil {
		return err
	}

	query := fmt.Sprintf(`
INSERT INTO %s (
	device_id,
	owner_user_id,
	name,
	location
) VALUES (
	$1, $2, $3, $4
)`, r.table)

	if _, err := r.db.ExecContext(ctx, query, device.DeviceID, device.OwnerID, device.Name, device.Location); err != nil {
		return err
	}
	now := time.Now().UTC()
	if device.CreatedAt.IsZero() {
		device.CreatedAt = now
	}
	device.UpdatedAt = now
	return nil
}

// GetByDeviceID loads a device regardless of owner. Callers that act on
// behalf of a user must check ownership themselves.
func (r *DeviceRepository) GetByDeviceID(ctx context.Context, deviceID string) (*registry.Device, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("device repo: nil db")
	}
	if deviceID == "" {
		return nil, errors.New("device repo: empty device id")
	}

	query := fmt.Sprintf(`
SELECT device_id, owner_user_id, name, location, created_at, updated_at
FROM %s
WHERE device_id = $1
LIMIT 1`, r.table)

	var device registry.Device
	if err := r.db.QueryRowContext(ctx, query, deviceID).Scan(
		&device.DeviceID,
		&device.OwnerID,
		&device.Name,
		&device.Location,
		&device.CreatedAt,
		&device.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	device.CreatedAt = device.CreatedAt.UTC()
	device.UpdatedAt = device.UpdatedAt.UTC()
	return &device, nil
}

// ListByOwner loads all devices owned by a user.
func (r *DeviceRepository) ListByOwner(ctx context.Context, ownerID string) ([]registry.Device, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("device repo: nil db")
	}
	if ownerID == "" {
		return nil, errors.New("device repo: empty owner id")
	}

	query := fmt.Sprintf(`
SELECT device_id, owner_user_id, name, location, created_at, updated_at
FROM %s
WHERE owner_user_id = $1
ORDER BY created_at ASC, device_id ASC`, r.table)

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []registry.Device
	for rows.Next() {
		var device registry.Device
		if err := rows.Scan(
			&device.DeviceID,
			&device.OwnerID,
			&device.Name,
			&device.Location,
			&device.CreatedAt,
			&device.UpdatedAt,
		); err != nil {
			return nil, err
		}
		device.CreatedAt = device.CreatedAt.UTC()
		device.UpdatedAt = device.UpdatedAt.UTC()
		result = append(result, device)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Update modifies name/location of a device owned by the caller.
func (r *DeviceRepository) Update(ctx context.Context, ownerID, deviceID, name, location string) (*registry.Device, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("device repo: nil db")
	}
	if ownerID == "" || deviceID == "" {
		return nil, errors.New("device repo: empty owner or device id")
	}

	query := fmt.Sprintf(`
UPDATE %s
SET name = $3, location = $4, updated_at = NOW()
WHERE device_id = $1 AND owner_user_id = $2
RETURNING device_id, owner_user_id, name, location, created_at, updated_at`, r.table)

	var device registry.Device
	if err := r.db.QueryRowContext(ctx, query, deviceID, ownerID, name, location).Scan(
		&device.DeviceID,
		&device.OwnerID,
		&device.Name,
		&device.Location,
		&device.CreatedAt,
		&device.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, registry.ErrNotFound
		}
		return nil, err
	}
	device.CreatedAt = device.CreatedAt.UTC()
	device.UpdatedAt = device.UpdatedAt.UTC()
	return &device, nil
}

// Delete removes a device owned by the caller.
func (r *DeviceRepository) Delete(ctx context.Context, ownerID, deviceID string) error {
	if r == nil || r.db == nil {
		return errors.New("device repo: nil db")
	}
	if ownerID == "" || deviceID == "" {
		return errors.New("device repo: empty owner or device id")
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE device_id = $1 AND owner_user_id = $2`, r.table)
	result, err := r.db.ExecContext(ctx, query, deviceID, ownerID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return registry.ErrNotFound
	}
	return nil
}
