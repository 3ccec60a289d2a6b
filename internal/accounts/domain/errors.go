package accounts

import "errors"

var (
	// ErrNotFound indicates a missing user record.
	ErrNotFound = errors.New("accounts: user not found")
	// ErrEmailTaken indicates the email is already registered.
	ErrEmailTaken = errors.New("accounts: email already registered")
	// ErrUsernameTaken indicates the username is already registered.
	ErrUsernameTaken = errors.New("accounts: username already taken")
	// ErrInvalidCredentials indicates a failed email/password check.
	ErrInvalidCredentials = errors.New("accounts: invalid credentials")
)
