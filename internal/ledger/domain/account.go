package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// BalanceScale is the number of fractional digits a balance carries.
// Every mutation re-rounds at this scale so repeated small adjustments
// cannot drift by more than one rounding unit per operation.
const BalanceScale = 4

// Account is a consumer's prepaid credit balance, the sole unit of
// payment in the marketplace.
type Account struct {
	UserID    string
	Balance   decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RoundBalance rounds at the balance scale, half away from zero.
func RoundBalance(value decimal.Decimal) decimal.Decimal {
	return value.Round(BalanceScale)
}

// Debited returns the balance after subtracting amount, rounded.
func (a *Account) Debited(amount decimal.Decimal) decimal.Decimal {
	return RoundBalance(a.Balance.Sub(amount))
}

// Credited returns the balance after adding amount, rounded.
func (a *Account) Credited(amount decimal.Decimal) decimal.Decimal {
	return RoundBalance(a.Balance.Add(amount))
}

// CanPay reports whether the balance covers cost.
func (a *Account) CanPay(cost decimal.Decimal) bool {
	return a.Balance.GreaterThanOrEqual(cost)
}
