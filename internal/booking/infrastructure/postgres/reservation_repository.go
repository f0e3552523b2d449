package postgres

import (
	"context"
	"database/sql"
	"errors"

	booking "gridmarket/internal/booking/domain"
	ledger "gridmarket/internal/ledger/domain"

	"github.com/shopspring/decimal"
)

// ReservationRepository persists reservations in Postgres. Writes that
// pair a reservation mutation with a balance mutation run in one
// transaction so neither half is ever observable without the other.
type ReservationRepository struct {
	db *sql.DB
}

// NewReservationRepository constructs a repository.
func NewReservationRepository(db *sql.DB) *ReservationRepository {
	return &ReservationRepository{db: db}
}

const reservationColumns = `id, consumer_id, producer_id, slot_date, slot_hour, kwh, unit_price, status, created_at, updated_at`

// GetByID fetches a reservation.
func (r *ReservationRepository) GetByID(ctx context.Context, id string) (*booking.Reservation, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("reservation repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT `+reservationColumns+`
FROM reservations
WHERE id = $1
LIMIT 1`, id)
	return scanReservation(row)
}

// ListActiveForSlot lists reserved rows for one producer hour.
func (r *ReservationRepository) ListActiveForSlot(ctx context.Context, producerID, date string, hour int) ([]booking.Reservation, error) {
	return r.list(ctx, `
SELECT `+reservationColumns+`
FROM reservations
WHERE producer_id = $1 AND slot_date = $2 AND slot_hour = $3 AND status = $4
ORDER BY created_at ASC`, producerID, date, hour, booking.StatusReserved)
}

// ListActiveByConsumerHour lists a consumer's reserved rows for an hour.
func (r *ReservationRepository) ListActiveByConsumerHour(ctx context.Context, consumerID, date string, hour int) ([]booking.Reservation, error) {
	return r.list(ctx, `
SELECT `+reservationColumns+`
FROM reservations
WHERE consumer_id = $1 AND slot_date = $2 AND slot_hour = $3 AND status = $4
ORDER BY created_at ASC`, consumerID, date, hour, booking.StatusReserved)
}

// ListActiveByConsumerRange lists a consumer's reserved rows in an
// inclusive date range.
func (r *ReservationRepository) ListActiveByConsumerRange(ctx context.Context, consumerID, startDate, endDate string) ([]booking.Reservation, error) {
	return r.list(ctx, `
SELECT `+reservationColumns+`
FROM reservations
WHERE consumer_id = $1 AND slot_date >= $2 AND slot_date <= $3 AND status = $4
ORDER BY slot_date ASC, slot_hour ASC`, consumerID, startDate, endDate, booking.StatusReserved)
}

// ListActiveByProducerRange lists a producer's reserved rows in an
// inclusive date range.
func (r *ReservationRepository) ListActiveByProducerRange(ctx context.Context, producerID, startDate, endDate string) ([]booking.Reservation, error) {
	return r.list(ctx, `
SELECT `+reservationColumns+`
FROM reservations
WHERE producer_id = $1 AND slot_date >= $2 AND slot_date <= $3 AND status = $4
ORDER BY slot_date ASC, slot_hour ASC`, producerID, startDate, endDate, booking.StatusReserved)
}

// CreateWithBalance inserts the reservation and writes the consumer's
// new balance in one transaction.
func (r *ReservationRepository) CreateWithBalance(ctx context.Context, reservation *booking.Reservation, change booking.BalanceChange) error {
	if r == nil || r.db == nil {
		return errors.New("reservation repo: nil db")
	}
	if reservation == nil {
		return booking.ErrNilReservation
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
INSERT INTO reservations (`+reservationColumns+`)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		reservation.ID, reservation.ConsumerID, reservation.ProducerID,
		reservation.Date, reservation.Hour, reservation.Kwh, reservation.UnitPrice,
		reservation.Status, reservation.CreatedAt, reservation.UpdatedAt)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := setBalanceTx(ctx, tx, change.ConsumerID, change.NewBalance); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// UpdateWithBalance sets the reservation quantity and status and, when a
// balance change is given, writes the new balance in the same
// transaction.
func (r *ReservationRepository) UpdateWithBalance(ctx context.Context, id string, kwh decimal.Decimal, status booking.Status, change *booking.BalanceChange) error {
	if r == nil || r.db == nil {
		return errors.New("reservation repo: nil db")
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	result, err := tx.ExecContext(ctx, `
UPDATE reservations
SET kwh = $1, status = $2, updated_at = now()
WHERE id = $3`, kwh, status, id)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	if affected == 0 {
		_ = tx.Rollback()
		return booking.ErrReservationNotFound
	}
	if change != nil {
		if err := setBalanceTx(ctx, tx, change.ConsumerID, change.NewBalance); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func setBalanceTx(ctx context.Context, tx *sql.Tx, consumerID string, balance decimal.Decimal) error {
	result, err := tx.ExecContext(ctx, `
UPDATE credit_accounts
SET balance = $1, updated_at = now()
WHERE user_id = $2`, balance, consumerID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ledger.ErrAccountNotFound
	}
	return nil
}

func (r *ReservationRepository) list(ctx context.Context, query string, args ...any) ([]booking.Reservation, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("reservation repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []booking.Reservation
	for rows.Next() {
		reservation, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		if reservation != nil {
			result = append(result, *reservation)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReservation(row rowScanner) (*booking.Reservation, error) {
	var reservation booking.Reservation
	err := row.Scan(
		&reservation.ID,
		&reservation.ConsumerID,
		&reservation.ProducerID,
		&reservation.Date,
		&reservation.Hour,
		&reservation.Kwh,
		&reservation.UnitPrice,
		&reservation.Status,
		&reservation.CreatedAt,
		&reservation.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	reservation.CreatedAt = reservation.CreatedAt.UTC()
	reservation.UpdatedAt = reservation.UpdatedAt.UTC()
	return &reservation, nil
}
