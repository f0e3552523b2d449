package ledger

import "errors"

var (
	// ErrAccountNotFound is returned when no account exists for a user.
	ErrAccountNotFound = errors.New("ledger: account not found")
	// ErrInsufficientCredit is returned when a debit exceeds the balance.
	ErrInsufficientCredit = errors.New("ledger: insufficient credit")
	// ErrNilAccount is returned when saving a nil account.
	ErrNilAccount = errors.New("ledger: nil account")
)
