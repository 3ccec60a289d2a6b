package usage

import (
	"context"
	"time"
)

// Notification is one recorded limit breach. Records are append-only
// until the owner clears the ledger.
type Notification struct {
	ID        int64     `json:"-"`
	UserID    string    `json:"-"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Read      bool      `json:"read"`
}

// NotificationLedger persists breach notifications per user.
type NotificationLedger interface {
	// Append stores all notifications or none of them.
	Append(ctx context.Context, userID string, notifications []Notification) error
	// ListAll returns the user's notifications, oldest first.
	ListAll(ctx context.Context, userID string) ([]Notification, error)
	// ClearAll removes every notification of the user.
	ClearAll(ctx context.Context, userID string) error
}
