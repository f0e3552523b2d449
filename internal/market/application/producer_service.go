package application

import (
	"context"
	"errors"
	"time"

	market "gridmarket/internal/market/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Clock returns the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock uses time.Now in UTC.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// ProfileInput carries producer profile fields. A nil PricePerKwh keeps
// the stored default (zero on first creation).
type ProfileInput struct {
	EnergyType           string
	CO2PerKwh            decimal.Decimal
	PricePerKwh          *decimal.Decimal
	DefaultMaxPerHourKwh decimal.Decimal
}

// SlotInput is one hour's capacity publication. A nil PricePerKwh keeps
// the stored slot price, falling back to the producer default for new
// slots.
type SlotInput struct {
	Hour           int
	MaxCapacityKwh decimal.Decimal
	PricePerKwh    *decimal.Decimal
}

// PriceInput is one hour's price update.
type PriceInput struct {
	Hour        int
	PricePerKwh decimal.Decimal
}

// ProducerService manages producer profiles and their published slots.
type ProducerService struct {
	producers market.ProducerRepository
	slots     market.SlotRepository
	clock     Clock
}

// NewProducerService constructs the service.
func NewProducerService(producers market.ProducerRepository, slots market.SlotRepository, clock Clock) (*ProducerService, error) {
	if producers == nil {
		return nil, errors.New("producer service: nil producer repository")
	}
	if slots == nil {
		return nil, errors.New("producer service: nil slot repository")
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &ProducerService{producers: producers, slots: slots, clock: clock}, nil
}

// UpsertProfile creates the user's producer profile on first call and
// updates it afterwards. Returns the producer id.
func (s *ProducerService) UpsertProfile(ctx context.Context, userID string, input ProfileInput) (string, error) {
	energyType, ok := market.NormalizeEnergyType(input.EnergyType)
	if !ok {
		return "", market.ErrInvalidEnergyType
	}

	now := s.clock.Now()
	producer, err := s.producers.GetByUserID(ctx, userID)
	if err != nil {
		return "", err
	}
	if producer == nil {
		producer = &market.Producer{
			ID:          uuid.NewString(),
			UserID:      userID,
			PricePerKwh: decimal.Zero,
			CreatedAt:   now,
		}
	}
	producer.EnergyType = energyType
	producer.CO2PerKwh = input.CO2PerKwh
	producer.DefaultMaxPerHourKwh = input.DefaultMaxPerHourKwh
	if input.PricePerKwh != nil {
		producer.PricePerKwh = *input.PricePerKwh
	}
	producer.UpdatedAt = now

	if err := producer.Validate(); err != nil {
		return "", err
	}
	if err := s.producers.Save(ctx, producer); err != nil {
		return "", err
	}
	return producer.ID, nil
}

// PublishCapacities upserts capacity slots for one date. Every slot must
// stay within the producer's per-hour ceiling; the whole batch is
// rejected when any slot exceeds it.
func (s *ProducerService) PublishCapacities(ctx context.Context, userID, date string, inputs []SlotInput) ([]string, error) {
	producer, date, err := s.resolve(ctx, userID, date)
	if err != nil {
		return nil, err
	}
	for _, input := range inputs {
		if !market.ValidHour(input.Hour) {
			return nil, market.ErrInvalidHour
		}
		if input.MaxCapacityKwh.IsNegative() {
			return nil, market.ErrNegativeValue
		}
		if input.MaxCapacityKwh.GreaterThan(producer.DefaultMaxPerHourKwh) {
			return nil, market.ErrCapacityAboveCeiling
		}
	}

	now := s.clock.Now()
	ids := make([]string, 0, len(inputs))
	for _, input := range inputs {
		slot, err := s.slots.Get(ctx, producer.ID, date, input.Hour)
		if err != nil {
			return nil, err
		}
		if slot == nil {
			slot = &market.CapacitySlot{
				ID:          uuid.NewString(),
				ProducerID:  producer.ID,
				Date:        date,
				Hour:        input.Hour,
				PricePerKwh: producer.PricePerKwh,
				CreatedAt:   now,
			}
		}
		slot.MaxCapacityKwh = input.MaxCapacityKwh
		if input.PricePerKwh != nil {
			slot.PricePerKwh = *input.PricePerKwh
		}
		slot.UpdatedAt = now
		if err := s.slots.Save(ctx, slot); err != nil {
			return nil, err
		}
		ids = append(ids, slot.ID)
	}
	return ids, nil
}

// UpdatePrices upserts slot prices for one date. Missing slots are
// created with zero capacity: a published price waiting for capacity.
func (s *ProducerService) UpdatePrices(ctx context.Context, userID, date string, inputs []PriceInput) ([]string, error) {
	producer, date, err := s.resolve(ctx, userID, date)
	if err != nil {
		return nil, err
	}
	for _, input := range inputs {
		if !market.ValidHour(input.Hour) {
			return nil, market.ErrInvalidHour
		}
		if input.PricePerKwh.IsNegative() {
			return nil, market.ErrNegativeValue
		}
	}

	now := s.clock.Now()
	ids := make([]string, 0, len(inputs))
	for _, input := range inputs {
		slot, err := s.slots.Get(ctx, producer.ID, date, input.Hour)
		if err != nil {
			return nil, err
		}
		if slot == nil {
			slot = &market.CapacitySlot{
				ID:             uuid.NewString(),
				ProducerID:     producer.ID,
				Date:           date,
				Hour:           input.Hour,
				MaxCapacityKwh: decimal.Zero,
				CreatedAt:      now,
			}
		}
		slot.PricePerKwh = input.PricePerKwh
		slot.UpdatedAt = now
		if err := s.slots.Save(ctx, slot); err != nil {
			return nil, err
		}
		ids = append(ids, slot.ID)
	}
	return ids, nil
}

// ProducerIDFor resolves the producer owned by a user.
func (s *ProducerService) ProducerIDFor(ctx context.Context, userID string) (string, error) {
	producer, err := s.producers.GetByUserID(ctx, userID)
	if err != nil {
		return "", err
	}
	if producer == nil {
		return "", market.ErrProducerNotFound
	}
	return producer.ID, nil
}

func (s *ProducerService) resolve(ctx context.Context, userID, date string) (*market.Producer, string, error) {
	producer, err := s.producers.GetByUserID(ctx, userID)
	if err != nil {
		return nil, "", err
	}
	if producer == nil {
		return nil, "", market.ErrProducerNotFound
	}
	date, err = market.ParseDate(date)
	if err != nil {
		return nil, "", err
	}
	return producer, date, nil
}
