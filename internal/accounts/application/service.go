package application

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	accounts "energymeter-cloud/internal/accounts/domain"
	"energymeter-cloud/internal/auth"
)

const bcryptCost = 10

// Service handles signup, login and password changes.
type Service struct {
	users    accounts.UserRepository
	secret   []byte
	tokenTTL time.Duration
}

// ServiceOption customizes the accounts service.
type ServiceOption func(*Service)

// WithTokenTTL overrides the default token lifetime.
func WithTokenTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		if ttl > 0 {
			s.tokenTTL = ttl
		}
	}
}

// NewService constructs an accounts service.
func NewService(users accounts.UserRepository, secret []byte, opts ...ServiceOption) (*Service, error) {
	if users == nil {
		return nil, errors.New("accounts: nil repository")
	}
	if len(secret) == 0 {
		return nil, errors.New("accounts: empty signing secret")
	}
	service := &Service{users: users, secret: secret, tokenTTL: time.Hour}
	for _, opt := range opts {
		opt(service)
	}
	return service, nil
}

// Signup registers a new user.
func (s *Service) Signup(ctx context.Context, email, username, password string) (*accounts.User, error) {
	if s == nil {
		return nil, errors.New("accounts: nil service")
	}
	email = strings.ToLower(strings.TrimSpace(email))
	username = strings.TrimSpace(username)
	if !accounts.ValidEmail(email) {
		return nil, errors.New("accounts: invalid email address")
	}
	if username == "" {
		return nil, errors.New("accounts: empty username")
	}
	if password == "" {
		return nil, errors.New("accounts: empty password")
	}

	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, accounts.ErrEmailTaken
	}
	taken, err := s.users.UsernameTaken(ctx, username)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, accounts.ErrUsernameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, err
	}
	user := &accounts.User{
		ID:           uuid.NewString(),
		Email:        email,
		Username:     username,
		PasswordHash: string(hash),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// LoginResult carries a signed token and display fields.
type LoginResult struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Login verifies credentials and issues a token.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if s == nil {
		return nil, errors.New("accounts: nil service")
	}
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, accounts.ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, accounts.ErrInvalidCredentials
	}
	token, err := auth.IssueJWT(user.ID, s.secret, s.tokenTTL)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: token, Username: user.Username, Email: user.Email}, nil
}

// ChangePassword verifies the current password and stores a new hash.
func (s *Service) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	if s == nil {
		return errors.New("accounts: nil service")
	}
	if userID == "" {
		return errors.New("accounts: empty user id")
	}
	if newPassword == "" {
		return errors.New("accounts: empty new password")
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return accounts.ErrNotFound
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)) != nil {
		return accounts.ErrInvalidCredentials
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcryptCost)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(ctx, userID, string(hash))
}
