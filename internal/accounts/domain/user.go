package accounts

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"
)

var emailPattern = regexp.MustCompile(`^\w+([.-]?\w+)*@\w+([.-]?\w+)*(\.\w{2,3})+$`)

// EnergyLimit holds per-user consumption limits in watts.
// A nil period means no limit is configured for that period.
type EnergyLimit struct {
	Daily   *float64 `json:"daily"`
	Monthly *float64 `json:"monthly"`
}

// Configured returns true when at least one period has a limit.
func (l EnergyLimit) Configured() bool {
	return l.Daily != nil || l.Monthly != nil
}

// User represents an account owning metering devices.
type User struct {
	ID           string
	Email        string
	Username     string
	PasswordHash string
	EnergyLimit  EnergyLimit
	CreatedAt    time.Time
}

// Validate checks user invariants.
func (u User) Validate() error {
	if u.ID == "" {
		return errors.New("user: empty id")
	}
	if u.Email == "" {
		return errors.New("user: empty email")
	}
	if !ValidEmail(u.Email) {
		return errors.New("user: invalid email")
	}
	if u.Username == "" {
		return errors.New("user: empty username")
	}
	if u.PasswordHash == "" {
		return errors.New("user: empty password hash")
	}
	return nil
}

// ValidEmail reports whether the address has an acceptable shape.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(strings.ToLower(email))
}

// UserRepository manages user persistence.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	UsernameTaken(ctx context.Context, username string) (bool, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	GetLimit(ctx context.Context, id string) (*EnergyLimit, error)
	SetLimit(ctx context.Context, id string, limit EnergyLimit) error
}
