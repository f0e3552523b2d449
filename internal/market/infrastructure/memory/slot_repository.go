package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	market "gridmarket/internal/market/domain"
)

// SlotRepository is an in-memory capacity slot store.
type SlotRepository struct {
	mu   sync.RWMutex
	data map[string]*market.CapacitySlot
}

// NewSlotRepository constructs a repository.
func NewSlotRepository() *SlotRepository {
	return &SlotRepository{data: make(map[string]*market.CapacitySlot)}
}

// Get fetches one slot by key.
func (r *SlotRepository) Get(ctx context.Context, producerID, date string, hour int) (*market.CapacitySlot, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	slot := r.data[slotKey(producerID, date, hour)]
	if slot == nil {
		return nil, nil
	}
	clone := *slot
	return &clone, nil
}

// ListByProducerDate lists all slots a producer published for a date.
func (r *SlotRepository) ListByProducerDate(ctx context.Context, producerID, date string) ([]market.CapacitySlot, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []market.CapacitySlot
	for _, slot := range r.data {
		if slot.ProducerID == producerID && slot.Date == date {
			result = append(result, *slot)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Hour < result[j].Hour })
	return result, nil
}

// Save upserts a slot by key.
func (r *SlotRepository) Save(ctx context.Context, slot *market.CapacitySlot) error {
	_ = ctx
	if slot == nil {
		return market.ErrNilSlot
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *slot
	r.data[slotKey(slot.ProducerID, slot.Date, slot.Hour)] = &clone
	return nil
}

func slotKey(producerID, date string, hour int) string {
	return fmt.Sprintf("%s|%s|%d", producerID, date, hour)
}
