package application

import (
	"context"
	"errors"

	booking "gridmarket/internal/booking/domain"
	ledger "gridmarket/internal/ledger/domain"
	"gridmarket/internal/locking"
	market "gridmarket/internal/market/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BookingService creates reservations against published capacity.
type BookingService struct {
	producers    market.ProducerRepository
	slots        market.SlotRepository
	reservations booking.ReservationRepository
	accounts     ledger.AccountRepository
	locks        *locking.Manager
	clock        Clock
}

// NewBookingService constructs the service.
func NewBookingService(
	producers market.ProducerRepository,
	slots market.SlotRepository,
	reservations booking.ReservationRepository,
	accounts ledger.AccountRepository,
	locks *locking.Manager,
	clock Clock,
) (*BookingService, error) {
	if producers == nil {
		return nil, errors.New("booking service: nil producer repository")
	}
	if slots == nil {
		return nil, errors.New("booking service: nil slot repository")
	}
	if reservations == nil {
		return nil, errors.New("booking service: nil reservation repository")
	}
	if accounts == nil {
		return nil, errors.New("booking service: nil account repository")
	}
	if locks == nil {
		return nil, errors.New("booking service: nil lock manager")
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &BookingService{
		producers:    producers,
		slots:        slots,
		reservations: reservations,
		accounts:     accounts,
		locks:        locks,
		clock:        clock,
	}, nil
}

// Reserve books kwh against one producer hour, debiting the consumer's
// credit. The capacity check, the debit and the insert run under the
// slot and ledger locks so concurrent bookings cannot jointly exceed the
// ceiling or interleave balance read-modify-write halves.
func (s *BookingService) Reserve(ctx context.Context, consumerID, producerID, date string, hour int, kwh decimal.Decimal) (string, error) {
	date, err := market.ParseDate(date)
	if err != nil {
		return "", err
	}
	slotStart, err := market.SlotStart(date, hour)
	if err != nil {
		return "", err
	}
	if kwh.LessThan(booking.MinKwh) {
		return "", booking.ErrBelowMinimumQuantity
	}

	now := s.clock.Now()
	if !booking.Bookable(slotStart, now) {
		return "", booking.ErrCutoffViolation
	}

	release := s.locks.LockAll(
		locking.SlotKey(producerID, date, hour),
		locking.LedgerKey(consumerID),
	)
	defer release()

	producer, err := s.producers.GetByID(ctx, producerID)
	if err != nil {
		return "", err
	}
	if producer == nil {
		return "", market.ErrProducerNotFound
	}
	slot, err := s.slots.Get(ctx, producerID, date, hour)
	if err != nil {
		return "", err
	}
	if slot == nil {
		return "", market.ErrNoCapacityConfigured
	}

	existing, err := s.reservations.ListActiveForSlot(ctx, producerID, date, hour)
	if err != nil {
		return "", err
	}
	if booking.SumActiveKwh(existing, "").Add(kwh).GreaterThan(slot.MaxCapacityKwh) {
		return "", booking.ErrCapacityExceeded
	}

	sameHour, err := s.reservations.ListActiveByConsumerHour(ctx, consumerID, date, hour)
	if err != nil {
		return "", err
	}
	for _, r := range sameHour {
		if r.ProducerID != producerID {
			return "", booking.ErrMultipleProducersPerHour
		}
	}

	unitPrice := slot.EffectivePrice(producer)
	cost := unitPrice.Mul(kwh)

	account, err := s.accounts.Get(ctx, consumerID)
	if err != nil {
		return "", err
	}
	if account == nil {
		return "", ledger.ErrAccountNotFound
	}
	if !account.CanPay(cost) {
		return "", ledger.ErrInsufficientCredit
	}

	reservation := &booking.Reservation{
		ID:         uuid.NewString(),
		ConsumerID: consumerID,
		ProducerID: producerID,
		Date:       date,
		Hour:       hour,
		Kwh:        kwh,
		UnitPrice:  unitPrice,
		Status:     booking.StatusReserved,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	err = s.reservations.CreateWithBalance(ctx, reservation, booking.BalanceChange{
		ConsumerID: consumerID,
		NewBalance: account.Debited(cost),
	})
	if err != nil {
		return "", err
	}
	return reservation.ID, nil
}
