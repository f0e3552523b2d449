package memory

import (
	"context"
	"sync"
	"time"

	booking "gridmarket/internal/booking/domain"
	ledgermemory "gridmarket/internal/ledger/infrastructure/memory"

	"github.com/shopspring/decimal"
)

// ReservationRepository is an in-memory reservation store. Paired
// balance writes go through the shared account repository under this
// repository's lock, mirroring the transactional postgres repository
// closely enough for the engine tests.
type ReservationRepository struct {
	mu       sync.RWMutex
	data     map[string]*booking.Reservation
	accounts *ledgermemory.AccountRepository
}

// NewReservationRepository constructs a repository sharing the given
// account store.
func NewReservationRepository(accounts *ledgermemory.AccountRepository) *ReservationRepository {
	return &ReservationRepository{
		data:     make(map[string]*booking.Reservation),
		accounts: accounts,
	}
}

// GetByID fetches a reservation.
func (r *ReservationRepository) GetByID(ctx context.Context, id string) (*booking.Reservation, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	reservation := r.data[id]
	if reservation == nil {
		return nil, nil
	}
	clone := *reservation
	return &clone, nil
}

// ListActiveForSlot lists reserved rows for one producer hour.
func (r *ReservationRepository) ListActiveForSlot(ctx context.Context, producerID, date string, hour int) ([]booking.Reservation, error) {
	_ = ctx
	return r.filter(func(res *booking.Reservation) bool {
		return res.ProducerID == producerID && res.Date == date && res.Hour == hour
	}), nil
}

// ListActiveByConsumerHour lists a consumer's reserved rows for an hour.
func (r *ReservationRepository) ListActiveByConsumerHour(ctx context.Context, consumerID, date string, hour int) ([]booking.Reservation, error) {
	_ = ctx
	return r.filter(func(res *booking.Reservation) bool {
		return res.ConsumerID == consumerID && res.Date == date && res.Hour == hour
	}), nil
}

// ListActiveByConsumerRange lists a consumer's reserved rows in an
// inclusive date range.
func (r *ReservationRepository) ListActiveByConsumerRange(ctx context.Context, consumerID, startDate, endDate string) ([]booking.Reservation, error) {
	_ = ctx
	return r.filter(func(res *booking.Reservation) bool {
		return res.ConsumerID == consumerID && res.Date >= startDate && res.Date <= endDate
	}), nil
}

// ListActiveByProducerRange lists a producer's reserved rows in an
// inclusive date range.
func (r *ReservationRepository) ListActiveByProducerRange(ctx context.Context, producerID, startDate, endDate string) ([]booking.Reservation, error) {
	_ = ctx
	return r.filter(func(res *booking.Reservation) bool {
		return res.ProducerID == producerID && res.Date >= startDate && res.Date <= endDate
	}), nil
}

// CreateWithBalance inserts the reservation and applies the balance
// write as one unit.
func (r *ReservationRepository) CreateWithBalance(ctx context.Context, reservation *booking.Reservation, change booking.BalanceChange) error {
	if reservation == nil {
		return booking.ErrNilReservation
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.accounts.SetBalance(ctx, change.ConsumerID, change.NewBalance); err != nil {
		return err
	}
	clone := *reservation
	r.data[reservation.ID] = &clone
	return nil
}

// UpdateWithBalance sets quantity/status and applies the balance write,
// if any, as one unit.
func (r *ReservationRepository) UpdateWithBalance(ctx context.Context, id string, kwh decimal.Decimal, status booking.Status, change *booking.BalanceChange) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	reservation := r.data[id]
	if reservation == nil {
		return booking.ErrReservationNotFound
	}
	if change != nil {
		if err := r.accounts.SetBalance(ctx, change.ConsumerID, change.NewBalance); err != nil {
			return err
		}
	}
	reservation.Kwh = kwh
	reservation.Status = status
	reservation.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *ReservationRepository) filter(match func(*booking.Reservation) bool) []booking.Reservation {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []booking.Reservation
	for _, reservation := range r.data {
		if reservation.Status != booking.StatusReserved {
			continue
		}
		if match(reservation) {
			result = append(result, *reservation)
		}
	}
	return result
}
