package booking

import (
	"context"

	"github.com/shopspring/decimal"
)

// BalanceChange carries the consumer balance value that must land
// together with a reservation write.
type BalanceChange struct {
	ConsumerID string
	NewBalance decimal.Decimal
}

// ReservationRepository persists reservations. CreateWithBalance and
// UpdateWithBalance apply the reservation write and the paired ledger
// write as one atomic unit; a failure must leave neither half applied.
type ReservationRepository interface {
	GetByID(ctx context.Context, id string) (*Reservation, error)
	ListActiveForSlot(ctx context.Context, producerID, date string, hour int) ([]Reservation, error)
	ListActiveByConsumerHour(ctx context.Context, consumerID, date string, hour int) ([]Reservation, error)
	ListActiveByConsumerRange(ctx context.Context, consumerID, startDate, endDate string) ([]Reservation, error)
	ListActiveByProducerRange(ctx context.Context, producerID, startDate, endDate string) ([]Reservation, error)
	CreateWithBalance(ctx context.Context, reservation *Reservation, change BalanceChange) error
	UpdateWithBalance(ctx context.Context, id string, kwh decimal.Decimal, status Status, change *BalanceChange) error
}
