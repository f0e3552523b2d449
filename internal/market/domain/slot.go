package market

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the calendar-date wire format.
const DateLayout = "2006-01-02"

// CapacitySlot is the bookable unit: the maximum offerable kWh and the
// unit price for one producer hour. A slot with zero capacity is valid,
// a published price still waiting for capacity, which is distinct from
// the slot not existing at all.
type CapacitySlot struct {
	ID             string
	ProducerID     string
	Date           string
	Hour           int
	MaxCapacityKwh decimal.Decimal
	PricePerKwh    decimal.Decimal
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// EffectivePrice resolves the unit price a booking pays: the slot price
// when one is set, the producer default otherwise.
func (s *CapacitySlot) EffectivePrice(producer *Producer) decimal.Decimal {
	if s != nil && s.PricePerKwh.IsPositive() {
		return s.PricePerKwh
	}
	if producer != nil {
		return producer.PricePerKwh
	}
	return decimal.Zero
}

// ParseDate validates a calendar date and returns its canonical form.
func ParseDate(value string) (string, error) {
	parsed, err := time.ParseInLocation(DateLayout, value, time.UTC)
	if err != nil {
		return "", ErrInvalidDate
	}
	return parsed.Format(DateLayout), nil
}

// ValidHour reports whether hour is an hour of day.
func ValidHour(hour int) bool {
	return hour >= 0 && hour <= 23
}

// SlotStart combines a calendar date and an hour into the slot start
// instant in UTC.
func SlotStart(date string, hour int) (time.Time, error) {
	if !ValidHour(hour) {
		return time.Time{}, ErrInvalidHour
	}
	parsed, err := time.ParseInLocation(DateLayout, date, time.UTC)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return parsed.Add(time.Duration(hour) * time.Hour), nil
}
