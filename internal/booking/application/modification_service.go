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

// ModifyResult reports the outcome of a modification.
type ModifyResult struct {
	ReservationID string
	Cancelled     bool
	Refunded      bool
	Kwh           decimal.Decimal
}

// ModificationService cancels reservations and changes their quantity.
type ModificationService struct {
	slots        market.SlotRepository
	reservations booking.ReservationRepository
	accounts     ledger.AccountRepository
	locks        *locking.Manager
	clock        Clock
}

// NewModificationService constructs the service.
func NewModificationService(
	slots market.SlotRepository,
	reservations booking.ReservationRepository,
	accounts ledger.AccountRepository,
	locks *locking.Manager,
	clock Clock,
) (*ModificationService, error) {
	if slots == nil {
		return nil, errors.New("modification service: nil slot repository")
	}
	if reservations == nil {
		return nil, errors.New("modification service: nil reservation repository")
	}
	if accounts == nil {
		return nil, errors.New("modification service: nil account repository")
	}
	if locks == nil {
		return nil, errors.New("modification service: nil lock manager")
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &ModificationService{
		slots:        slots,
		reservations: reservations,
		accounts:     accounts,
		locks:        locks,
		clock:        clock,
	}, nil
}

// Modify changes a reservation quantity, or cancels it when newKwh is
// zero. Cancellation refunds the paid credit only while the slot start
// is still more than the cutoff lead away; the status flip and the
// quantity reset happen regardless. Quantity changes recheck capacity
// excluding the reservation itself and settle the signed delta at the
// snapshot unit price. Only reserved reservations can be modified.
func (s *ModificationService) Modify(ctx context.Context, consumerID, reservationID string, newKwh decimal.Decimal) (ModifyResult, error) {
	reservation, err := s.reservations.GetByID(ctx, reservationID)
	if err != nil {
		return ModifyResult{}, err
	}
	if reservation == nil || reservation.ConsumerID != consumerID {
		return ModifyResult{}, booking.ErrReservationNotFound
	}

	release := s.locks.LockAll(
		locking.SlotKey(reservation.ProducerID, reservation.Date, reservation.Hour),
		locking.LedgerKey(consumerID),
	)
	defer release()

	// Reread under the lock; a concurrent modify may have landed first.
	reservation, err = s.reservations.GetByID(ctx, reservationID)
	if err != nil {
		return ModifyResult{}, err
	}
	if reservation == nil || reservation.ConsumerID != consumerID {
		return ModifyResult{}, booking.ErrReservationNotFound
	}
	// A cancelled reservation stays cancelled; resizing it would mint a
	// fresh booking without the cutoff and one-producer-per-hour checks.
	if reservation.Status != booking.StatusReserved {
		return ModifyResult{}, booking.ErrReservationNotFound
	}

	account, err := s.accounts.Get(ctx, consumerID)
	if err != nil {
		return ModifyResult{}, err
	}
	if account == nil {
		return ModifyResult{}, ledger.ErrAccountNotFound
	}

	if newKwh.IsZero() {
		return s.cancel(ctx, reservation, account)
	}
	if newKwh.LessThan(booking.MinKwh) {
		return ModifyResult{}, booking.ErrBelowMinimumQuantity
	}
	return s.resize(ctx, reservation, account, newKwh)
}

func (s *ModificationService) cancel(ctx context.Context, reservation *booking.Reservation, account *ledger.Account) (ModifyResult, error) {
	slotStart, err := market.SlotStart(reservation.Date, reservation.Hour)
	if err != nil {
		return ModifyResult{}, err
	}
	refunded := booking.RefundEligible(slotStart, s.clock.Now())

	var change *booking.BalanceChange
	if refunded {
		change = &booking.BalanceChange{
			ConsumerID: reservation.ConsumerID,
			NewBalance: account.Credited(reservation.Cost()),
		}
	}
	err = s.reservations.UpdateWithBalance(ctx, reservation.ID, decimal.Zero, booking.StatusCancelled, change)
	if err != nil {
		return ModifyResult{}, err
	}
	return ModifyResult{ReservationID: reservation.ID, Cancelled: true, Refunded: refunded}, nil
}

func (s *ModificationService) resize(ctx context.Context, reservation *booking.Reservation, account *ledger.Account, newKwh decimal.Decimal) (ModifyResult, error) {
	slot, err := s.slots.Get(ctx, reservation.ProducerID, reservation.Date, reservation.Hour)
	if err != nil {
		return ModifyResult{}, err
	}
	if slot == nil {
		return ModifyResult{}, market.ErrNoCapacityConfigured
	}

	others, err := s.reservations.ListActiveForSlot(ctx, reservation.ProducerID, reservation.Date, reservation.Hour)
	if err != nil {
		return ModifyResult{}, err
	}
	if booking.SumActiveKwh(others, reservation.ID).Add(newKwh).GreaterThan(slot.MaxCapacityKwh) {
		return ModifyResult{}, booking.ErrCapacityExceeded
	}

	// Delta priced at the creation-time snapshot, never the current
	// slot price.
	deltaCost := newKwh.Sub(reservation.Kwh).Mul(reservation.UnitPrice)
	if deltaCost.IsPositive() && !account.CanPay(deltaCost) {
		return ModifyResult{}, ledger.ErrInsufficientCredit
	}

	change := &booking.BalanceChange{
		ConsumerID: reservation.ConsumerID,
		NewBalance: account.Debited(deltaCost),
	}
	err = s.reservations.UpdateWithBalance(ctx, reservation.ID, newKwh, booking.StatusReserved, change)
	if err != nil {
		return ModifyResult{}, err
	}
	return ModifyResult{ReservationID: reservation.ID, Kwh: newKwh}, nil
}
