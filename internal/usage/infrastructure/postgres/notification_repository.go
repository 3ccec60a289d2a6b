package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	usage "energymeter-cloud/internal/usage/domain"
)

const defaultNotificationsTable = "notifications"

// NotificationRepository is a Postgres notification ledger.
type NotificationRepository struct {
	db    *sql.DB
	table string
}

// Option configures the repository.
type Option func(*NotificationRepository)

// WithTable overrides the default table name.
func WithTable(table string) Option {
	return func(repo *NotificationRepository) {
		if repo != nil && table != "" {
			repo.table = table
		}
	}
}

// NewNotificationRepository constructs a repository.
func NewNotificationRepository(db *sql.DB, opts ...Option) *NotificationRepository {
	repo := &NotificationRepository{db: db, table: defaultNotificationsTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// Append inserts all notifications inside one transaction so a failed
// insert leaves the ledger untouched.
func (r *NotificationRepository) Append(ctx context.Context, userID string, notifications []usage.Notification) error {
	if r == nil || r.db == nil {
		return errors.New("notification repository: nil db")
	}
	if userID == "" {
		return errors.New("notification repository: empty user id")
	}
	if len(notifications) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	query := fmt.Sprintf(`
INSERT INTO %s (user_id, message, ts, read)
VALUES ($1, $2, $3, $4)`, r.table)

	for _, notification := range notifications {
		if _, err := tx.ExecContext(ctx, query,
			userID,
			notification.Message,
			notification.Timestamp.UTC(),
			notification.Read,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ListAll returns the user's notifications, oldest first with
// insertion order breaking timestamp ties.
func (r *NotificationRepository) ListAll(ctx context.Context, userID string) ([]usage.Notification, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("notification repository: nil db")
	}
	if userID == "" {
		return nil, errors.New("notification repository: empty user id")
	}

	query := fmt.Sprintf(`
SELECT id, user_id, message, ts, read
FROM %s
WHERE user_id = $1
ORDER BY ts ASC, id ASC`, r.table)

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifications []usage.Notification
	for rows.Next() {
		var notification usage.Notification
		if err := rows.Scan(
			&notification.ID,
			&notification.UserID,
			&notification.Message,
			&notification.Timestamp,
			&notification.Read,
		); err != nil {
			return nil, err
		}
		notification.Timestamp = notification.Timestamp.UTC()
		notifications = append(notifications, notification)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return notifications, nil
}

// ClearAll removes every notification of the user. Clearing an empty
// ledger succeeds.
func (r *NotificationRepository) ClearAll(ctx context.Context, userID string) error {
	if r == nil || r.db == nil {
		return errors.New("notification repository: nil db")
	}
	if userID == "" {
		return errors.New("notification repository: empty user id")
	}
	query := fmt.Sprintf("DELETE FROM %s WHERE user_id = $1", r.table)
	_, err := r.db.ExecContext(ctx, query, userID)
	return err
}
