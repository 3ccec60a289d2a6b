package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	accounts "energymeter-cloud/internal/accounts/domain"
)

const defaultUsersTable = "users"

// UserRepository is a Postgres implementation for users.
type UserRepository struct {
	db    *sql.DB
	table string
}

// NewUserRepository constructs a repository with default table name.
func NewUserRepository(db *sql.DB, opts ...UserOption) *UserRepository {
	repo := &UserRepository{db: db, table: defaultUsersTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// UserOption configures the repository.
type UserOption func(*UserRepository)

// WithUsersTable overrides the default table name.
func WithUsersTable(table string) UserOption {
	return func(repo *UserRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// Create inserts a new user.
func (r *UserRepository) Create(ctx context.Context, user *accounts.User) error {
	if r == nil || r.db == nil {
		return errors.New("user repo: nil db")
	}
	if user == nil {
		return errors.New("user repo: nil user")
	}
	if err := user.Validate(); err != nil {
		return err
	}

	query := fmt.Sprintf(`
INSERT INTO %s (
	id,
	email,
	username,
	password_hash,
	daily_limit,
	monthly_limit
) VALUES (
	$1, $2, $3, $4, $5, $6
)`, r.table)

	_, err := r.db.ExecContext(
		ctx,
		query,
		user.ID,
		user.Email,
		user.Username,
		user.PasswordHash,
		nullFloat(user.EnergyLimit.Daily),
		nullFloat(user.EnergyLimit.Monthly),
	)
	return err
}

// GetByID loads a user by id.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*accounts.User, error) {
	if id == "" {
		return nil, errors.New("user repo: empty id")
	}
	return r.get(ctx, "id", id)
}

// GetByEmail loads a user by lowercased email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*accounts.User, error) {
	if email == "" {
		return nil, errors.New("user repo: empty email")
	}
	return r.get(ctx, "email", email)
}

// UsernameTaken reports whether a username is already registered.
func (r *UserRepository) UsernameTaken(ctx context.Context, username string) (bool, error) {
	if r == nil || r.db == nil {
		return false, errors.New("user repo: nil db")
	}
	if username == "" {
		return false, errors.New("user repo: empty username")
	}

	query := fmt.Sprintf(`SELECT 1 FROM %s WHERE username = $1 LIMIT 1`, r.table)
	var one int
	if err := r.db.QueryRowContext(ctx, query, username).Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// UpdatePassword replaces the stored password hash.
func (r *UserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	if r == nil || r.db == nil {
		return errors.New("user repo: nil db")
	}
	if id == "" || passwordHash == "" {
		return errors.New("user repo: empty id or hash")
	}

	query := fmt.Sprintf(`UPDATE %s SET password_hash = $2 WHERE id = $1`, r.table)
	result, err := r.db.ExecContext(ctx, query, id, passwordHash)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return accounts.ErrNotFound
	}
	return nil
}

// GetLimit loads the configured energy limit, or nil when the user is absent.
func (r *UserRepository) GetLimit(ctx context.Context, id string) (*accounts.EnergyLimit, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("user repo: nil db")
	}
	if id == "" {
		return nil, errors.New("user repo: empty id")
	}

	query := fmt.Sprintf(`SELECT daily_limit, monthly_limit FROM %s WHERE id = $1 LIMIT 1`, r.table)
	var daily, monthly sql.NullFloat64
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&daily, &monthly); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	limit := accounts.EnergyLimit{}
	if daily.Valid {
		value := daily.Float64
		limit.Daily = &value
	}
	if monthly.Valid {
		value := monthly.Float64
		limit.Monthly = &value
	}
	return &limit, nil
}

// SetLimit replaces the configured energy limit.
func (r *UserRepository) SetLimit(ctx context.Context, id string, limit accounts.EnergyLimit) error {
	if r == nil || r.db == nil {
		return errors.New("user repo: nil db")
	}
	if id == "" {
		return errors.New("user repo: empty id")
	}

	query := fmt.Sprintf(`UPDATE %s SET daily_limit = $2, monthly_limit = $3 WHERE id = $1`, r.table)
	result, err := r.db.ExecContext(ctx, query, id, nullFloat(limit.Daily), nullFloat(limit.Monthly))
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return accounts.ErrNotFound
	}
	return nil
}

func (r *UserRepository) get(ctx context.Context, column, value string) (*accounts.User, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("user repo: nil db")
	}

	query := fmt.Sprintf(`
SELECT id, email, username, password_hash, daily_limit, monthly_limit, created_at
FROM %s
WHERE %s = $1
LIMIT 1`, r.table, column)

	var user accounts.User
	var daily, monthly sql.NullFloat64
	if err := r.db.QueryRowContext(ctx, query, value).Scan(
		&user.ID,
		&user.Email,
		&user.Username,
		&user.PasswordHash,
		&daily,
		&monthly,
		&user.CreatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if daily.Valid {
		value := daily.Float64
		user.EnergyLimit.Daily = &value
	}
	if monthly.Valid {
		value := monthly.Float64
		user.EnergyLimit.Monthly = &value
	}
	user.CreatedAt = user.CreatedAt.UTC()
	return &user, nil
}

func nullFloat(value *float64) sql.NullFloat64 {
	if value == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *value, Valid: true}
}
