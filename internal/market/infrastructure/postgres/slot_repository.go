package postgres

import (
	"context"
	"database/sql"
	"errors"

	market "gridmarket/internal/market/domain"
)

// SlotRepository persists capacity slots in Postgres.
type SlotRepository struct {
	db *sql.DB
}

// NewSlotRepository constructs a repository.
func NewSlotRepository(db *sql.DB) *SlotRepository {
	return &SlotRepository{db: db}
}

const slotColumns = `id, producer_id, slot_date, slot_hour, max_capacity_kwh, price_per_kwh, created_at, updated_at`

// Get fetches one slot by key.
func (r *SlotRepository) Get(ctx context.Context, producerID, date string, hour int) (*market.CapacitySlot, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("slot repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT `+slotColumns+`
FROM capacity_slots
WHERE producer_id = $1 AND slot_date = $2 AND slot_hour = $3
LIMIT 1`, producerID, date, hour)
	return scanSlot(row)
}

// ListByProducerDate lists all slots a producer published for a date.
func (r *SlotRepository) ListByProducerDate(ctx context.Context, producerID, date string) ([]market.CapacitySlot, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("slot repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT `+slotColumns+`
FROM capacity_slots
WHERE producer_id = $1 AND slot_date = $2
ORDER BY slot_hour ASC`, producerID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []market.CapacitySlot
	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		if slot != nil {
			result = append(result, *slot)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Save upserts a slot by (producer, date, hour).
func (r *SlotRepository) Save(ctx context.Context, slot *market.CapacitySlot) error {
	if r == nil || r.db == nil {
		return errors.New("slot repo: nil db")
	}
	if slot == nil {
		return market.ErrNilSlot
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO capacity_slots (`+slotColumns+`)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
ON CONFLICT (producer_id, slot_date, slot_hour) DO UPDATE SET
	max_capacity_kwh = EXCLUDED.max_capacity_kwh,
	price_per_kwh = EXCLUDED.price_per_kwh,
	updated_at = EXCLUDED.updated_at`,
		slot.ID, slot.ProducerID, slot.Date, slot.Hour,
		slot.MaxCapacityKwh, slot.PricePerKwh, slot.CreatedAt, slot.UpdatedAt)
	return err
}

func scanSlot(row rowScanner) (*market.CapacitySlot, error) {
	var slot market.CapacitySlot
	err := row.Scan(
		&slot.ID,
		&slot.ProducerID,
		&slot.Date,
		&slot.Hour,
		&slot.MaxCapacityKwh,
		&slot.PricePerKwh,
		&slot.CreatedAt,
		&slot.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	slot.CreatedAt = slot.CreatedAt.UTC()
	slot.UpdatedAt = slot.UpdatedAt.UTC()
	return &slot, nil
}
