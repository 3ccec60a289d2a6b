package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	telemetry "energymeter-cloud/internal/telemetry/domain"
)

const defaultReadingsTable = "energy_readings"

// ReadingRepository is a Postgres implementation for readings.
type ReadingRepository struct {
	db    *sql.DB
	table string
}

// NewReadingRepository constructs a repository with default table name.
func NewReadingRepository(db *sql.DB, opts ...RepositoryOption) *ReadingRepository {
	repo := &ReadingRepository{db: db, table: defaultReadingsTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// RepositoryOption configures the repository.
type RepositoryOption func(*ReadingRepository)

// WithTable overrides the default table name.
func WithTable(table string) RepositoryOption {
	return func(repo *ReadingRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// Insert appends one reading. The timestamp defaults to now when unset.
func (r *ReadingRepository) Insert(ctx context.Context, reading *telemetry.Reading) error {
	if r == nil || r.db == nil {
		return errors.New("reading repo: nil db")
	}
	if reading == nil {
		return errors.New("reading repo: nil reading")
	}
	if err := reading.Validate(); err != nil {
		return err
	}
	if reading.Timestamp.IsZero() {
		reading.Timestamp = time.Now().UTC()
	}

	query := fmt.Sprintf(`
INSERT INTO %s (
	device_id,
	voltage,
	current,
	power,
	ts
) VALUES (
	$1, $2, $3, $4, $5
)
RETURNING id`, r.table)

	return r.db.QueryRowContext(
		ctx,
		query,
		reading.DeviceID,
		reading.Voltage,
		reading.Current,
		reading.Power,
		reading.Timestamp,
	).Scan(&reading.ID)
}
