package postgres

import (
	"context"
	"database/sql"
	"errors"

	market "gridmarket/internal/market/domain"
)

// ProducerRepository persists producer profiles in Postgres.
type ProducerRepository struct {
	db *sql.DB
}

// NewProducerRepository constructs a repository.
func NewProducerRepository(db *sql.DB) *ProducerRepository {
	return &ProducerRepository{db: db}
}

const producerColumns = `id, user_id, energy_type, co2_per_kwh, price_per_kwh, default_max_per_hour_kwh, created_at, updated_at`

// GetByID fetches a producer.
func (r *ProducerRepository) GetByID(ctx context.Context, id string) (*market.Producer, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("producer repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT `+producerColumns+`
FROM producers
WHERE id = $1
LIMIT 1`, id)
	return scanProducer(row)
}

// GetByUserID fetches the profile owned by a user.
func (r *ProducerRepository) GetByUserID(ctx context.Context, userID string) (*market.Producer, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("producer repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT `+producerColumns+`
FROM producers
WHERE user_id = $1
LIMIT 1`, userID)
	return scanProducer(row)
}

// Save upserts a producer profile by user id.
func (r *ProducerRepository) Save(ctx context.Context, producer *market.Producer) error {
	if r == nil || r.db == nil {
		return errors.New("producer repo: nil db")
	}
	if producer == nil {
		return market.ErrNilProducer
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO producers (`+producerColumns+`)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
ON CONFLICT (user_id) DO UPDATE SET
	energy_type = EXCLUDED.energy_type,
	co2_per_kwh = EXCLUDED.co2_per_kwh,
	price_per_kwh = EXCLUDED.price_per_kwh,
	default_max_per_hour_kwh = EXCLUDED.default_max_per_hour_kwh,
	updated_at = EXCLUDED.updated_at`,
		producer.ID, producer.UserID, producer.EnergyType, producer.CO2PerKwh,
		producer.PricePerKwh, producer.DefaultMaxPerHourKwh, producer.CreatedAt, producer.UpdatedAt)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProducer(row rowScanner) (*market.Producer, error) {
	var producer market.Producer
	err := row.Scan(
		&producer.ID,
		&producer.UserID,
		&producer.EnergyType,
		&producer.CO2PerKwh,
		&producer.PricePerKwh,
		&producer.DefaultMaxPerHourKwh,
		&producer.CreatedAt,
		&producer.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	producer.CreatedAt = producer.CreatedAt.UTC()
	producer.UpdatedAt = producer.UpdatedAt.UTC()
	return &producer, nil
}
