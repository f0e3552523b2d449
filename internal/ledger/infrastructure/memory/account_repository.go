package memory

import (
	"context"
	"sync"
	"time"

	ledger "gridmarket/internal/ledger/domain"

	"github.com/shopspring/decimal"
)

// AccountRepository is an in-memory credit account store.
type AccountRepository struct {
	mu   sync.RWMutex
	data map[string]*ledger.Account
}

// NewAccountRepository constructs a repository.
func NewAccountRepository() *AccountRepository {
	return &AccountRepository{data: make(map[string]*ledger.Account)}
}

// Get loads an account by user id.
func (r *AccountRepository) Get(ctx context.Context, userID string) (*ledger.Account, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	account := r.data[userID]
	if account == nil {
		return nil, nil
	}
	clone := *account
	return &clone, nil
}

// Create inserts a new account.
func (r *AccountRepository) Create(ctx context.Context, account *ledger.Account) error {
	_ = ctx
	if account == nil {
		return ledger.ErrNilAccount
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *account
	r.data[account.UserID] = &clone
	return nil
}

// SetBalance overwrites the balance for a user.
func (r *AccountRepository) SetBalance(ctx context.Context, userID string, balance decimal.Decimal) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.setBalanceLocked(userID, balance)
}

func (r *AccountRepository) setBalanceLocked(userID string, balance decimal.Decimal) error {
	account := r.data[userID]
	if account == nil {
		return ledger.ErrAccountNotFound
	}
	account.Balance = balance
	account.UpdatedAt = time.Now().UTC()
	return nil
}
