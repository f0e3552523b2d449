package postgres

import (
	"context"
	"database/sql"
	"errors"

	ledger "gridmarket/internal/ledger/domain"

	"github.com/shopspring/decimal"
)

// AccountRepository persists credit accounts in Postgres.
type AccountRepository struct {
	db *sql.DB
}

// NewAccountRepository constructs a repository.
func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// Get loads an account by user id.
func (r *AccountRepository) Get(ctx context.Context, userID string) (*ledger.Account, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("account repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT user_id, balance, created_at, updated_at
FROM credit_accounts
WHERE user_id = $1
LIMIT 1`, userID)

	var account ledger.Account
	err := row.Scan(&account.UserID, &account.Balance, &account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	account.CreatedAt = account.CreatedAt.UTC()
	account.UpdatedAt = account.UpdatedAt.UTC()
	return &account, nil
}

// Create inserts a new account.
func (r *AccountRepository) Create(ctx context.Context, account *ledger.Account) error {
	if r == nil || r.db == nil {
		return errors.New("account repo: nil db")
	}
	if account == nil {
		return ledger.ErrNilAccount
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO credit_accounts (user_id, balance, created_at, updated_at)
VALUES ($1, $2, $3, $4)`,
		account.UserID, account.Balance, account.CreatedAt, account.UpdatedAt)
	return err
}

// SetBalance overwrites the balance for a user.
func (r *AccountRepository) SetBalance(ctx context.Context, userID string, balance decimal.Decimal) error {
	if r == nil || r.db == nil {
		return errors.New("account repo: nil db")
	}
	result, err := r.db.ExecContext(ctx, `
UPDATE credit_accounts
SET balance = $1, updated_at = now()
WHERE user_id = $2`, balance, userID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ledger.ErrAccountNotFound
	}
	return nil
}
