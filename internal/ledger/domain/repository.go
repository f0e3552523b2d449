package ledger

import (
	"context"

	"github.com/shopspring/decimal"
)

// AccountRepository persists credit accounts.
//
// SetBalance is only a standalone write for flows that touch the ledger
// alone; reservation writes go through the booking repository so the
// balance and the reservation land in one atomic unit.
type AccountRepository interface {
	Get(ctx context.Context, userID string) (*Account, error)
	Create(ctx context.Context, account *Account) error
	SetBalance(ctx context.Context, userID string, balance decimal.Decimal) error
}
