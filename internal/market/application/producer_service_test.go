package application_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"gridmarket/internal/market/application"
	market "gridmarket/internal/market/domain"
	"gridmarket/internal/market/infrastructure/memory"

	"github.com/shopspring/decimal"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

func newService(t *testing.T) (*application.ProducerService, *memory.ProducerRepository, *memory.SlotRepository) {
	t.Helper()
	producers := memory.NewProducerRepository()
	slots := memory.NewSlotRepository()
	clock := fixedClock{now: time.Date(2026, time.September, 1, 10, 0, 0, 0, time.UTC)}
	service, err := application.NewProducerService(producers, slots, clock)
	if err != nil {
		t.Fatalf("new producer service: %v", err)
	}
	return service, producers, slots
}

func dec(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func TestUpsertProfile_CreatesThenUpdates(t *testing.T) {
	ctx := context.Background()
	service, producers, _ := newService(t)

	price := dec("2.5")
	id, err := service.UpsertProfile(ctx, "user-1", application.ProfileInput{
		EnergyType:           "wind",
		CO2PerKwh:            dec("12"),
		PricePerKwh:          &price,
		DefaultMaxPerHourKwh: dec("50"),
	})
	if err != nil {
		t.Fatalf("create profile: %v", err)
	}

	// Nil price keeps the stored one.
	id2, err := service.UpsertProfile(ctx, "user-1", application.ProfileInput{
		EnergyType:           "photovoltaic",
		CO2PerKwh:            dec("0"),
		DefaultMaxPerHourKwh: dec("80"),
	})
	if err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if id != id2 {
		t.Fatalf("upsert must keep the producer id: %s vs %s", id, id2)
	}

	producer, err := producers.GetByUserID(ctx, "user-1")
	if err != nil {
		t.Fatalf("get producer: %v", err)
	}
	if producer.EnergyType != market.EnergyPhotovoltaic {
		t.Fatalf("energy type: got %s", producer.EnergyType)
	}
	if !producer.PricePerKwh.Equal(dec("2.5")) {
		t.Fatalf("price must survive a nil update, got %s", producer.PricePerKwh)
	}
	if !producer.DefaultMaxPerHourKwh.Equal(dec("80")) {
		t.Fatalf("ceiling: got %s", producer.DefaultMaxPerHourKwh)
	}
}

func TestUpsertProfile_RejectsUnknownEnergyType(t *testing.T) {
	ctx := context.Background()
	service, _, _ := newService(t)

	_, err := service.UpsertProfile(ctx, "user-1", application.ProfileInput{
		EnergyType:           "nuclear",
		DefaultMaxPerHourKwh: dec("50"),
	})
	if !errors.Is(err, market.ErrInvalidEnergyType) {
		t.Fatalf("expected invalid energy type, got %v", err)
	}
}

func TestPublishCapacities_EnforcesCeilingOnWholeBatch(t *testing.T) {
	ctx := context.Background()
	service, _, slots := newService(t)

	if _, err := service.UpsertProfile(ctx, "user-1", application.ProfileInput{
		EnergyType:           "wind",
		DefaultMaxPerHourKwh: dec("50"),
	}); err != nil {
		t.Fatalf("create profile: %v", err)
	}

	_, err := service.PublishCapacities(ctx, "user-1", "2026-09-10", []application.SlotInput{
		{Hour: 8, MaxCapacityKwh: dec("40")},
		{Hour: 9, MaxCapacityKwh: dec("51")},
	})
	if !errors.Is(err, market.ErrCapacityAboveCeiling) {
		t.Fatalf("expected ceiling rejection, got %v", err)
	}

	producer, err := service.ProducerIDFor(ctx, "user-1")
	if err != nil {
		t.Fatalf("resolve producer: %v", err)
	}
	published, err := slots.ListByProducerDate(ctx, producer, "2026-09-10")
	if err != nil {
		t.Fatalf("list slots: %v", err)
	}
	if len(published) != 0 {
		t.Fatalf("a rejected batch must publish nothing, got %d slots", len(published))
	}

	ids, err := service.PublishCapacities(ctx, "user-1", "2026-09-10", []application.SlotInput{
		{Hour: 8, MaxCapacityKwh: dec("40")},
		{Hour: 9, MaxCapacityKwh: dec("50")},
	})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("expected 2 slot ids, got %d", len(ids))
	}
}

func TestUpdatePrices_CreatesZeroCapacitySlots(t *testing.T) {
	ctx := context.Background()
	service, _, slots := newService(t)

	if _, err := service.UpsertProfile(ctx, "user-1", application.ProfileInput{
		EnergyType:           "fossil",
		DefaultMaxPerHourKwh: dec("50"),
	}); err != nil {
		t.Fatalf("create profile: %v", err)
	}

	if _, err := service.UpdatePrices(ctx, "user-1", "2026-09-10", []application.PriceInput{
		{Hour: 8, PricePerKwh: dec("3")},
	}); err != nil {
		t.Fatalf("update prices: %v", err)
	}

	producer, err := service.ProducerIDFor(ctx, "user-1")
	if err != nil {
		t.Fatalf("resolve producer: %v", err)
	}
	slot, err := slots.Get(ctx, producer, "2026-09-10", 8)
	if err != nil {
		t.Fatalf("get slot: %v", err)
	}
	if slot == nil {
		t.Fatal("expected a created slot")
	}
	if !slot.MaxCapacityKwh.IsZero() {
		t.Fatalf("created slot must carry zero capacity, got %s", slot.MaxCapacityKwh)
	}
	if !slot.PricePerKwh.Equal(dec("3")) {
		t.Fatalf("slot price: got %s want 3", slot.PricePerKwh)
	}

	_, err = service.UpdatePrices(ctx, "user-1", "2026-09-10", []application.PriceInput{
		{Hour: 8, PricePerKwh: dec("-1")},
	})
	if !errors.Is(err, market.ErrNegativeValue) {
		t.Fatalf("expected negative value rejection, got %v", err)
	}
}
