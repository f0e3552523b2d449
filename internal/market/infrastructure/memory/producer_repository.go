package memory

import (
	"context"
	"sync"

	market "gridmarket/internal/market/domain"
)

// ProducerRepository is an in-memory producer store.
type ProducerRepository struct {
	mu   sync.RWMutex
	data map[string]*market.Producer
}

// NewProducerRepository constructs a repository.
func NewProducerRepository() *ProducerRepository {
	return &ProducerRepository{data: make(map[string]*market.Producer)}
}

// GetByID fetches a producer.
func (r *ProducerRepository) GetByID(ctx context.Context, id string) (*market.Producer, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	producer := r.data[id]
	if producer == nil {
		return nil, nil
	}
	clone := *producer
	return &clone, nil
}

// GetByUserID fetches the profile owned by a user.
func (r *ProducerRepository) GetByUserID(ctx context.Context, userID string) (*market.Producer, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, producer := range r.data {
		if producer.UserID == userID {
			clone := *producer
			return &clone, nil
		}
	}
	return nil, nil
}

// Save upserts a producer profile.
func (r *ProducerRepository) Save(ctx context.Context, producer *market.Producer) error {
	_ = ctx
	if producer == nil {
		return market.ErrNilProducer
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *producer
	r.data[producer.ID] = &clone
	return nil
}
