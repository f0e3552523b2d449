package market

import "context"

// ProducerRepository persists producer profiles.
type ProducerRepository interface {
	GetByID(ctx context.Context, id string) (*Producer, error)
	GetByUserID(ctx context.Context, userID string) (*Producer, error)
	Save(ctx context.Context, producer *Producer) error
}

// SlotRepository persists capacity slots, unique per
// (producer, date, hour).
type SlotRepository interface {
	Get(ctx context.Context, producerID, date string, hour int) (*CapacitySlot, error)
	ListByProducerDate(ctx context.Context, producerID, date string) ([]CapacitySlot, error)
	Save(ctx context.Context, slot *CapacitySlot) error
}
