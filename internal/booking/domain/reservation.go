package booking

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status is a reservation lifecycle state.
type Status string

const (
	StatusReserved  Status = "reserved"
	StatusCancelled Status = "cancelled"
)

// KwhScale is the number of fractional digits a quantity carries.
const KwhScale = 3

// CutoffLeadTime is the minimum lead before slot start for creating a
// reservation, and for a cancellation to remain refundable. The check is
// strictly greater-than: a slot starting exactly 24h from now is no
// longer bookable.
const CutoffLeadTime = 24 * time.Hour

// MinKwh is the minimum active reservation quantity. Zero is only valid
// as the post-cancellation marker.
var MinKwh = decimal.RequireFromString("0.1")

// Reservation is one consumer's claim on a slot. UnitPrice is snapshot
// at creation and reused for every later delta and refund, even when the
// published slot price moves afterwards.
type Reservation struct {
	ID         string
	ConsumerID string
	ProducerID string
	Date       string
	Hour       int
	Kwh        decimal.Decimal
	UnitPrice  decimal.Decimal
	Status     Status
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Active reports whether the reservation still holds capacity.
func (r *Reservation) Active() bool {
	return r != nil && r.Status == StatusReserved
}

// Cost returns the credit value of the current quantity at the snapshot
// price, rounded at the balance scale.
func (r *Reservation) Cost() decimal.Decimal {
	return r.UnitPrice.Mul(r.Kwh).Round(4)
}

// Bookable reports whether a slot starting at slotStart may still be
// reserved at now.
func Bookable(slotStart, now time.Time) bool {
	return slotStart.Sub(now) > CutoffLeadTime
}

// RefundEligible reports whether cancelling at now grants a full refund.
// Same lead-time rule as booking.
func RefundEligible(slotStart, now time.Time) bool {
	return slotStart.Sub(now) > CutoffLeadTime
}

// RoundKwh rounds a quantity at the kWh scale, half away from zero.
func RoundKwh(value decimal.Decimal) decimal.Decimal {
	return value.Round(KwhScale)
}

// SumActiveKwh folds the reserved quantities of a reservation list,
// optionally excluding one reservation id.
func SumActiveKwh(reservations []Reservation, excludeID string) decimal.Decimal {
	sum := decimal.Zero
	for _, r := range reservations {
		if r.Status != StatusReserved {
			continue
		}
		if excludeID != "" && r.ID == excludeID {
			continue
		}
		sum = sum.Add(r.Kwh)
	}
	return sum
}
