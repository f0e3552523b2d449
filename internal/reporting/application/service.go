package application

import (
	"context"
	"errors"
	"sort"

	booking "gridmarket/internal/booking/domain"
	market "gridmarket/internal/market/domain"

	"github.com/shopspring/decimal"
)

// HourOccupancy is one hour's occupancy figure for a producer date.
type HourOccupancy struct {
	Hour         int
	CapacityKwh  decimal.Decimal
	ReservedKwh  decimal.Decimal
	OccupancyPct decimal.Decimal
}

// DayEarnings is one day's earnings bucket.
type DayEarnings struct {
	Date      string
	EnergyKwh decimal.Decimal
	Amount    decimal.Decimal
}

// EarningsStatement is the export-ready earnings breakdown for a range.
type EarningsStatement struct {
	ProducerID string
	StartDate  string
	EndDate    string
	Days       []DayEarnings
	TotalKwh   decimal.Decimal
	Total      decimal.Decimal
}

// Purchase is one active reservation in a consumer's purchase listing.
type Purchase struct {
	ReservationID string
	ProducerID    string
	EnergyType    market.EnergyType
	Date          string
	Hour          int
	Kwh           decimal.Decimal
	UnitPrice     decimal.Decimal
}

// PurchaseFilter narrows a purchase listing. Zero values mean no filter.
type PurchaseFilter struct {
	ProducerID string
	StartDate  string
	EndDate    string
	EnergyType string
}

var hundred = decimal.NewFromInt(100)

// Service computes the read models: pure folds over the producer, slot
// and reservation stores, no invariant enforcement.
type Service struct {
	producers    market.ProducerRepository
	slots        market.SlotRepository
	reservations booking.ReservationRepository
}

// NewService constructs the service.
func NewService(producers market.ProducerRepository, slots market.SlotRepository, reservations booking.ReservationRepository) (*Service, error) {
	if producers == nil {
		return nil, errors.New("reporting service: nil producer repository")
	}
	if slots == nil {
		return nil, errors.New("reporting service: nil slot repository")
	}
	if reservations == nil {
		return nil, errors.New("reporting service: nil reservation repository")
	}
	return &Service{producers: producers, slots: slots, reservations: reservations}, nil
}

// Occupancy reports per-hour reserved demand against capacity for the
// producer owned by userID. Hours without a slot report zero capacity
// and zero percent.
func (s *Service) Occupancy(ctx context.Context, userID, date string, fromHour, toHour int) ([]HourOccupancy, error) {
	producer, err := s.producerFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	date, err = market.ParseDate(date)
	if err != nil {
		return nil, err
	}
	if !market.ValidHour(fromHour) || !market.ValidHour(toHour) {
		return nil, market.ErrInvalidHour
	}

	slots, err := s.slots.ListByProducerDate(ctx, producer.ID, date)
	if err != nil {
		return nil, err
	}
	capacityByHour := make(map[int]decimal.Decimal, len(slots))
	for _, slot := range slots {
		capacityByHour[slot.Hour] = slot.MaxCapacityKwh
	}
	reservations, err := s.reservations.ListActiveByProducerRange(ctx, producer.ID, date, date)
	if err != nil {
		return nil, err
	}
	reservedByHour := make(map[int]decimal.Decimal)
	for _, r := range reservations {
		reservedByHour[r.Hour] = reservedByHour[r.Hour].Add(r.Kwh)
	}

	var result []HourOccupancy
	for hour := fromHour; hour <= toHour; hour++ {
		capacity := capacityByHour[hour]
		reserved := reservedByHour[hour]
		pct := decimal.Zero
		if capacity.IsPositive() {
			pct = reserved.Div(capacity).Mul(hundred)
			if pct.GreaterThan(hundred) {
				pct = hundred
			}
			pct = pct.Round(2)
		}
		result = append(result, HourOccupancy{
			Hour:         hour,
			CapacityKwh:  capacity,
			ReservedKwh:  reserved,
			OccupancyPct: pct,
		})
	}
	return result, nil
}

// Earnings sums kwh * snapshot unit price over the producer's active
// reservations in an inclusive date range, rounded to 4 decimals.
func (s *Service) Earnings(ctx context.Context, userID, startDate, endDate string) (decimal.Decimal, error) {
	statement, err := s.EarningsStatement(ctx, userID, startDate, endDate)
	if err != nil {
		return decimal.Zero, err
	}
	return statement.Total, nil
}

// EarningsStatement groups the producer's earnings per day for export.
func (s *Service) EarningsStatement(ctx context.Context, userID, startDate, endDate string) (*EarningsStatement, error) {
	producer, err := s.producerFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	startDate, endDate, err = parseRange(startDate, endDate)
	if err != nil {
		return nil, err
	}

	reservations, err := s.reservations.ListActiveByProducerRange(ctx, producer.ID, startDate, endDate)
	if err != nil {
		return nil, err
	}

	kwhByDate := make(map[string]decimal.Decimal)
	amountByDate := make(map[string]decimal.Decimal)
	total := decimal.Zero
	totalKwh := decimal.Zero
	for _, r := range reservations {
		amount := r.Kwh.Mul(r.UnitPrice)
		kwhByDate[r.Date] = kwhByDate[r.Date].Add(r.Kwh)
		amountByDate[r.Date] = amountByDate[r.Date].Add(amount)
		total = total.Add(amount)
		totalKwh = totalKwh.Add(r.Kwh)
	}

	dates := make([]string, 0, len(amountByDate))
	for date := range amountByDate {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	days := make([]DayEarnings, 0, len(dates))
	for _, date := range dates {
		days = append(days, DayEarnings{
			Date:      date,
			EnergyKwh: kwhByDate[date],
			Amount:    amountByDate[date].Round(4),
		})
	}
	return &EarningsStatement{
		ProducerID: producer.ID,
		StartDate:  startDate,
		EndDate:    endDate,
		Days:       days,
		TotalKwh:   totalKwh,
		Total:      total.Round(4),
	}, nil
}

// Carbon sums kwh * producer emission factor over the consumer's active
// reservations in an inclusive date range, in grams CO2 rounded to 3
// decimals.
func (s *Service) Carbon(ctx context.Context, consumerID, startDate, endDate string) (decimal.Decimal, error) {
	startDate, endDate, err := parseRange(startDate, endDate)
	if err != nil {
		return decimal.Zero, err
	}
	reservations, err := s.reservations.ListActiveByConsumerRange(ctx, consumerID, startDate, endDate)
	if err != nil {
		return decimal.Zero, err
	}

	factors := make(map[string]decimal.Decimal)
	total := decimal.Zero
	for _, r := range reservations {
		factor, ok := factors[r.ProducerID]
		if !ok {
			producer, err := s.producers.GetByID(ctx, r.ProducerID)
			if err != nil {
				return decimal.Zero, err
			}
			if producer != nil {
				factor = producer.CO2PerKwh
			}
			factors[r.ProducerID] = factor
		}
		total = total.Add(r.Kwh.Mul(factor))
	}
	return total.Round(3), nil
}

// Purchases lists a consumer's active reservations with optional
// producer, range and energy type filters.
func (s *Service) Purchases(ctx context.Context, consumerID string, filter PurchaseFilter) ([]Purchase, error) {
	startDate := filter.StartDate
	endDate := filter.EndDate
	if startDate == "" && endDate == "" {
		startDate, endDate = "0000-01-01", "9999-12-31"
	} else {
		var err error
		startDate, endDate, err = parseRange(startDate, endDate)
		if err != nil {
			return nil, err
		}
	}

	reservations, err := s.reservations.ListActiveByConsumerRange(ctx, consumerID, startDate, endDate)
	if err != nil {
		return nil, err
	}

	types := make(map[string]market.EnergyType)
	var result []Purchase
	for _, r := range reservations {
		if filter.ProducerID != "" && r.ProducerID != filter.ProducerID {
			continue
		}
		energyType, ok := types[r.ProducerID]
		if !ok {
			producer, err := s.producers.GetByID(ctx, r.ProducerID)
			if err != nil {
				return nil, err
			}
			if producer != nil {
				energyType = producer.EnergyType
			}
			types[r.ProducerID] = energyType
		}
		if filter.EnergyType != "" && string(energyType) != filter.EnergyType {
			continue
		}
		result = append(result, Purchase{
			ReservationID: r.ID,
			ProducerID:    r.ProducerID,
			EnergyType:    energyType,
			Date:          r.Date,
			Hour:          r.Hour,
			Kwh:           r.Kwh,
			UnitPrice:     r.UnitPrice,
		})
	}
	return result, nil
}

func (s *Service) producerFor(ctx context.Context, userID string) (*market.Producer, error) {
	producer, err := s.producers.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if producer == nil {
		return nil, market.ErrProducerNotFound
	}
	return producer, nil
}

func parseRange(startDate, endDate string) (string, string, error) {
	start, err := market.ParseDate(startDate)
	if err != nil {
		return "", "", err
	}
	end, err := market.ParseDate(endDate)
	if err != nil {
		return "", "", err
	}
	if end < start {
		return "", "", market.ErrInvalidDate
	}
	return start, end, nil
}
