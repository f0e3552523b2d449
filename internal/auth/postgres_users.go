package auth

import (
	"context"
	"database/sql"
	"errors"
)

// PostgresUserRepository persists users in Postgres.
type PostgresUserRepository struct {
	db *sql.DB
}

// NewPostgresUserRepository constructs a repository.
func NewPostgresUserRepository(db *sql.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

const userColumns = `id, email, password_hash, name, role, created_at, updated_at`

// GetByID fetches a user.
func (r *PostgresUserRepository) GetByID(ctx context.Context, id string) (*User, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("user repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT `+userColumns+`
FROM users
WHERE id = $1
LIMIT 1`, id)
	return scanUser(row)
}

// GetByEmail fetches a user by email.
func (r *PostgresUserRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("user repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT `+userColumns+`
FROM users
WHERE email = $1
LIMIT 1`, email)
	return scanUser(row)
}

// Create inserts a user.
func (r *PostgresUserRepository) Create(ctx context.Context, user *User) error {
	if r == nil || r.db == nil {
		return errors.New("user repo: nil db")
	}
	if user == nil {
		return ErrNilUser
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO users (`+userColumns+`)
VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		user.ID, user.Email, user.PasswordHash, user.Name, user.Role, user.CreatedAt, user.UpdatedAt)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*User, error) {
	var user User
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.Name,
		&user.Role,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	user.CreatedAt = user.CreatedAt.UTC()
	user.UpdatedAt = user.UpdatedAt.UTC()
	return &user, nil
}
