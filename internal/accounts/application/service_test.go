package application

import (
	"context"
	"testing"

	"golang.org/x/crypto/bcrypt"

	accounts "energymeter-cloud/internal/accounts/domain"
	"energymeter-cloud/internal/auth"
)

type stubUserRepo struct {
	byEmail map[string]*accounts.User
	byID    map[string]*accounts.User
	taken   map[string]bool
	created []*accounts.User
	updated map[string]string
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{
		byEmail: map[string]*accounts.User{},
		byID:    map[string]*accounts.User{},
		taken:   map[string]bool{},
		updated: map[string]string{},
	}
}

func (s *stubUserRepo) Create(_ context.Context, user *accounts.User) error {
	s.created = append(s.created, user)
	s.byEmail[user.Email] = user
	s.byID[user.ID] = user
	return nil
}

func (s *stubUserRepo) GetByID(_ context.Context, id string) (*accounts.User, error) {
	return s.byID[id], nil
}

func (s *stubUserRepo) GetByEmail(_ context.Context, email string) (*accounts.User, error) {
	return s.byEmail[email], nil
}

func (s *stubUserRepo) UsernameTaken(_ context.Context, username string) (bool, error) {
	return s.taken[username], nil
}

func (s *stubUserRepo) UpdatePassword(_ context.Context, id, hash string) error {
	s.updated[id] = hash
	return nil
}

func (s *stubUserRepo) GetLimit(_ context.Context, id string) (*accounts.EnergyLimit, error) {
	user := s.byID[id]
	if user == nil {
		return nil, nil
	}
	limit := user.EnergyLimit
	return &limit, nil
}

func (s *stubUserRepo) SetLimit(_ context.Context, id string, limit accounts.EnergyLimit) error {
	user := s.byID[id]
	if user == nil {
		return accounts.ErrNotFound
	}
	user.EnergyLimit = limit
	return nil
}

func TestSignup_LowercasesEmailAndHashesPassword(t *testing.T) {
	repo := newStubUserRepo()
	service, err := NewService(repo, []byte("secret"))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	user, err := service.Signup(context.Background(), "Alice@Example.COM", "alice", "hunter22")
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	if user.Email != "alice@example.com" {
		t.Fatalf("expected lowercased email, got %q", user.Email)
	}
	if user.ID == "" {
		t.Fatal("expected generated user id")
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("hunter22")) != nil {
		t.Fatal("stored hash does not match password")
	}
}

func TestSignup_DuplicateEmail(t *testing.T) {
	repo := newStubUserRepo()
	repo.byEmail["alice@example.com"] = &accounts.User{ID: "user-1", Email: "alice@example.com"}
	service, err := NewService(repo, []byte("secret"))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	if _, err := service.Signup(context.Background(), "alice@example.com", "alice2", "pw"); err != accounts.ErrEmailTaken {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestSignup_DuplicateUsername(t *testing.T) {
	repo := newStubUserRepo()
	repo.taken["alice"] = true
	service, err := NewService(repo, []byte("secret"))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	if _, err := service.Signup(context.Background(), "alice@example.com", "alice", "pw"); err != accounts.ErrUsernameTaken {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
}

func TestSignup_InvalidEmail(t *testing.T) {
	service, err := NewService(newStubUserRepo(), []byte("secret"))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	if _, err := service.Signup(context.Background(), "not-an-email", "alice", "pw"); err == nil {
		t.Fatal("expected error for invalid email")
	}
}

func TestLogin_IssuesParsableToken(t *testing.T) {
	repo := newStubUserRepo()
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter22"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	repo.byEmail["alice@example.com"] = &accounts.User{
		ID:           "user-1",
		Email:        "alice@example.com",
		Username:     "alice",
		PasswordHash: string(hash),
	}
	secret := []byte("secret")
	service, err := NewService(repo, secret)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	result, err := service.Login(context.Background(), "Alice@example.com", "hunter22")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if result.Username != "alice" || result.Email != "alice@example.com" {
		t.Fatalf("unexpected login result: %+v", result)
	}
	claims, err := auth.ParseJWT(result.Token, secret)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.UserID != "user-1" {
		t.Fatalf("expected userId user-1, got %q", claims.UserID)
	}
}

func TestLogin_BadPassword(t *testing.T) {
	repo := newStubUserRepo()
	hash, _ := bcrypt.GenerateFromPassword([]byte("hunter22"), bcrypt.MinCost)
	repo.byEmail["alice@example.com"] = &accounts.User{ID: "user-1", Email: "alice@example.com", PasswordHash: string(hash)}
	service, err := NewService(repo, []byte("secret"))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	if _, err := service.Login(context.Background(), "alice@example.com", "wrong"); err != accounts.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := service.Login(context.Background(), "nobody@example.com", "wrong"); err != accounts.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials for unknown user, got %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	repo := newStubUserRepo()
	hash, _ := bcrypt.GenerateFromPassword([]byte("old"), bcrypt.MinCost)
	repo.byID["user-1"] = &accounts.User{ID: "user-1", PasswordHash: string(hash)}
	service, err := NewService(repo, []byte("secret"))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	if err := service.ChangePassword(context.Background(), "user-1", "wrong", "new"); err != accounts.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if err := service.ChangePassword(context.Background(), "user-1", "old", "new"); err != nil {
		t.Fatalf("change password: %v", err)
	}
	stored := repo.updated["user-1"]
	if stored == "" {
		t.Fatal("expected password update")
	}
	if bcrypt.CompareHashAndPassword([]byte(stored), []byte("new")) != nil {
		t.Fatal("stored hash does not match new password")
	}
}
