package application

import (
	"context"
	"errors"

	booking "gridmarket/internal/booking/domain"
	ledger "gridmarket/internal/ledger/domain"
	"gridmarket/internal/locking"
	market "gridmarket/internal/market/domain"

	"github.com/shopspring/decimal"
)

// RationResult reports the outcome of a rationing pass.
type RationResult struct {
	Adjusted bool
	Ratio    decimal.Decimal
}

// RationingService restores the capacity invariant after a producer has
// retroactively lowered a slot ceiling below accepted demand: every
// active reservation shrinks by the same ratio and the shrink delta is
// refunded at the reservation's snapshot price.
type RationingService struct {
	slots        market.SlotRepository
	reservations booking.ReservationRepository
	accounts     ledger.AccountRepository
	locks        *locking.Manager
}

// NewRationingService constructs the service.
func NewRationingService(
	slots market.SlotRepository,
	reservations booking.ReservationRepository,
	accounts ledger.AccountRepository,
	locks *locking.Manager,
) (*RationingService, error) {
	if slots == nil {
		return nil, errors.New("rationing service: nil slot repository")
	}
	if reservations == nil {
		return nil, errors.New("rationing service: nil reservation repository")
	}
	if accounts == nil {
		return nil, errors.New("rationing service: nil account repository")
	}
	if locks == nil {
		return nil, errors.New("rationing service: nil lock manager")
	}
	return &RationingService{
		slots:        slots,
		reservations: reservations,
		accounts:     accounts,
		locks:        locks,
	}, nil
}

// RationSlot proportionally shrinks the slot's active reservations down
// to its capacity. Each reservation's credit-and-update pair is atomic;
// the loop as a whole is not, and partial progress is a valid resumable
// state. Reservations whose rationed quantity would fall under the
// minimum are skipped untouched, quantity and ledger both, which can
// leave a residual overshoot on the slot.
func (s *RationingService) RationSlot(ctx context.Context, producerID, date string, hour int) (RationResult, error) {
	date, err := market.ParseDate(date)
	if err != nil {
		return RationResult{}, err
	}
	if !market.ValidHour(hour) {
		return RationResult{}, market.ErrInvalidHour
	}

	release := s.locks.Lock(locking.SlotKey(producerID, date, hour))
	defer release()

	slot, err := s.slots.Get(ctx, producerID, date, hour)
	if err != nil {
		return RationResult{}, err
	}
	if slot == nil {
		return RationResult{}, market.ErrNoCapacityConfigured
	}

	reservations, err := s.reservations.ListActiveForSlot(ctx, producerID, date, hour)
	if err != nil {
		return RationResult{}, err
	}
	total := booking.SumActiveKwh(reservations, "")
	if total.LessThanOrEqual(slot.MaxCapacityKwh) {
		return RationResult{Adjusted: false}, nil
	}

	ratio := slot.MaxCapacityKwh.Div(total)
	for _, r := range reservations {
		newKwh := booking.RoundKwh(r.Kwh.Mul(ratio))
		if newKwh.LessThan(booking.MinKwh) {
			continue
		}
		diff := r.Kwh.Sub(newKwh)
		if !diff.IsPositive() {
			continue
		}
		if err := s.shrink(ctx, r, newKwh, diff); err != nil {
			return RationResult{}, err
		}
	}
	return RationResult{Adjusted: true, Ratio: ratio.Round(3)}, nil
}

// shrink applies one reservation's adjustment under that consumer's
// ledger lock. The slot lock is already held; ledger locks are taken one
// at a time, never all at once.
func (s *RationingService) shrink(ctx context.Context, r booking.Reservation, newKwh, diff decimal.Decimal) error {
	release := s.locks.Lock(locking.LedgerKey(r.ConsumerID))
	defer release()

	account, err := s.accounts.Get(ctx, r.ConsumerID)
	if err != nil {
		return err
	}
	if account == nil {
		return ledger.ErrAccountNotFound
	}
	refund := diff.Mul(r.UnitPrice)
	return s.reservations.UpdateWithBalance(ctx, r.ID, newKwh, booking.StatusReserved, &booking.BalanceChange{
		ConsumerID: r.ConsumerID,
		NewBalance: account.Credited(refund),
	})
}
