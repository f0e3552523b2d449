package market

import "errors"

var (
	// ErrProducerNotFound is returned when a producer profile is absent.
	ErrProducerNotFound = errors.New("market: producer not found")
	// ErrNoCapacityConfigured is returned when no slot was published for
	// a producer hour.
	ErrNoCapacityConfigured = errors.New("market: no capacity configured for slot")
	// ErrCapacityAboveCeiling is returned when a slot capacity exceeds
	// the producer's per-hour ceiling.
	ErrCapacityAboveCeiling = errors.New("market: capacity exceeds producer per-hour ceiling")
	// ErrInvalidEnergyType is returned for an unknown energy category.
	ErrInvalidEnergyType = errors.New("market: invalid energy type")
	// ErrInvalidDate is returned for a malformed calendar date.
	ErrInvalidDate = errors.New("market: invalid date")
	// ErrInvalidHour is returned for an hour outside 0-23.
	ErrInvalidHour = errors.New("market: invalid hour")
	// ErrNegativeValue is returned when a non-negative field is negative.
	ErrNegativeValue = errors.New("market: negative value")
	// ErrNilProducer is returned when saving a nil producer.
	ErrNilProducer = errors.New("market: nil producer")
	// ErrNilSlot is returned when saving a nil slot.
	ErrNilSlot = errors.New("market: nil slot")
)
