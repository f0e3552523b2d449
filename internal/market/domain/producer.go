package market

import (
	"time"

	"github.com/shopspring/decimal"
)

// EnergyType classifies a producer's energy source.
type EnergyType string

const (
	EnergyFossil       EnergyType = "fossil"
	EnergyWind         EnergyType = "wind"
	EnergyPhotovoltaic EnergyType = "photovoltaic"
)

// NormalizeEnergyType validates an energy type string.
func NormalizeEnergyType(value string) (EnergyType, bool) {
	switch EnergyType(value) {
	case EnergyFossil, EnergyWind, EnergyPhotovoltaic:
		return EnergyType(value), true
	default:
		return "", false
	}
}

// Producer is the selling side of the marketplace: one profile per user,
// created lazily on the first upsert.
type Producer struct {
	ID                   string
	UserID               string
	EnergyType           EnergyType
	CO2PerKwh            decimal.Decimal
	PricePerKwh          decimal.Decimal
	DefaultMaxPerHourKwh decimal.Decimal
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// Validate checks profile field invariants.
func (p *Producer) Validate() error {
	if p == nil {
		return ErrNilProducer
	}
	if _, ok := NormalizeEnergyType(string(p.EnergyType)); !ok {
		return ErrInvalidEnergyType
	}
	if p.CO2PerKwh.IsNegative() {
		return ErrNegativeValue
	}
	if p.PricePerKwh.IsNegative() {
		return ErrNegativeValue
	}
	if p.DefaultMaxPerHourKwh.IsNegative() {
		return ErrNegativeValue
	}
	return nil
}
