package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	telemetry "energymeter-cloud/internal/telemetry/domain"
)

// ReadingQuery is a Postgres query implementation for readings.
type ReadingQuery struct {
	db    *sql.DB
	table string
}

// NewReadingQuery constructs a query with default table name.
func NewReadingQuery(db *sql.DB, opts ...QueryOption) *ReadingQuery {
	query := &ReadingQuery{db: db, table: defaultReadingsTable}
	for _, opt := range opts {
		opt(query)
	}
	return query
}

// QueryOption configures the reading query.
type QueryOption func(*ReadingQuery)

// WithQueryTable overrides the default table name for queries.
func WithQueryTable(table string) QueryOption {
	return func(query *ReadingQuery) {
		if query != nil && table != "" {
			query.table = table
		}
	}
}

// ReadingsFor returns readings for the device set within [start, end),
// ordered by timestamp then insertion order. A zero start or end leaves
// that bound open.
func (q *ReadingQuery) ReadingsFor(ctx context.Context, deviceIDs []string, start, end time.Time) ([]telemetry.Reading, error) {
	if q == nil || q.db == nil {
		return nil, errors.New("reading query: nil db")
	}
	if len(deviceIDs) == 0 {
		return nil, nil
	}

	args := make([]any, 0, len(deviceIDs)+2)
	placeholders := make([]string, 0, len(deviceIDs))
	for _, id := range deviceIDs {
		args = append(args, id)
		placeholders = append(placeholders, fmt.Sprintf("$%d", len(args)))
	}
	var clauses []string
	clauses = append(clauses, fmt.Sprintf("device_id IN (%s)", strings.Join(placeholders, ", ")))
	if !start.IsZero() {
		args = append(args, start)
		clauses = append(clauses, fmt.Sprintf("ts >= $%d", len(args)))
	}
	if !end.IsZero() {
		args = append(args, end)
		clauses = append(clauses, fmt.Sprintf("ts < $%d", len(args)))
	}

	query := fmt.Sprintf(`
SELECT id, device_id, voltage, current, power, ts
FROM %s
WHERE %s
ORDER BY ts ASC, id ASC`, q.table, strings.Join(clauses, "\n\tAND "))

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanReadings(rows)
}

// RecentByDevice returns the newest readings for one device, newest first.
func (q *ReadingQuery) RecentByDevice(ctx context.Context, deviceID string, limit int) ([]telemetry.Reading, error) {
	if q == nil || q.db == nil {
		return nil, errors.New("reading query: nil db")
	}
	if deviceID == "" {
		return nil, errors.New("reading query: empty device id")
	}
	if limit <= 0 {
		limit = 100
	}

	query := fmt.Sprintf(`
SELECT id, device_id, voltage, current, power, ts
FROM %s
WHERE device_id = $1
ORDER BY ts DESC, id DESC
LIMIT $2`, q.table)

	rows, err := q.db.QueryContext(ctx, query, deviceID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanReadings(rows)
}

// LatestByDevice returns the newest reading for a device, or nil when the
// device has no readings.
func (q *ReadingQuery) LatestByDevice(ctx context.Context, deviceID string) (*telemetry.Reading, error) {
	if q == nil || q.db == nil {
		return nil, errors.New("reading query: nil db")
	}
	if deviceID == "" {
		return nil, errors.New("reading query: empty device id")
	}

	query := fmt.Sprintf(`
SELECT id, device_id, voltage, current, power, ts
FROM %s
WHERE device_id = $1
ORDER BY ts DESC, id DESC
LIMIT 1`, q.table)

	var reading telemetry.Reading
	if err := q.db.QueryRowContext(ctx, query, deviceID).Scan(
		&reading.ID,
		&reading.DeviceID,
		&reading.Voltage,
		&reading.Current,
		&reading.Power,
		&reading.Timestamp,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	reading.Timestamp = reading.Timestamp.UTC()
	return &reading, nil
}

func scanReadings(rows *sql.Rows) ([]telemetry.Reading, error) {
	var result []telemetry.Reading
	for rows.Next() {
		var reading telemetry.Reading
		if err := rows.Scan(
			&reading.ID,
			&reading.DeviceID,
			&reading.Voltage,
			&reading.Current,
			&reading.Power,
			&reading.Timestamp,
		); err != nil {
			return nil, err
		}
		reading.Timestamp = reading.Timestamp.UTC()
		result = append(result, reading)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
