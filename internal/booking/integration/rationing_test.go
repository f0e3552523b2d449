package integration_test

import (
	"context"
	"errors"
	"testing"
	"time"

	booking "gridmarket/internal/booking/domain"
	market "gridmarket/internal/market/domain"
)

func lowerCapacity(t *testing.T, h *harness, producerID, date string, hour int, capacity string) {
	t.Helper()
	ctx := context.Background()
	slot, err := h.slots.Get(ctx, producerID, date, hour)
	if err != nil {
		t.Fatalf("get slot: %v", err)
	}
	slot.MaxCapacityKwh = dec(capacity)
	if err := h.slots.Save(ctx, slot); err != nil {
		t.Fatalf("save slot: %v", err)
	}
}

func TestRation_ProportionalShrinkAndRefund(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, time.September, 1, 10, 0, 0, 0, time.UTC)
	h := newHarness(t, now)

	h.addProducer(t, "prod-1", "2")
	h.addSlot(t, "prod-1", "2026-09-10", 12, "14")
	h.addAccount(t, "alice", "1000")
	h.addAccount(t, "bob", "1000")

	aliceID, err := h.booking.Reserve(ctx, "alice", "prod-1", "2026-09-10", 12, dec("7"))
	if err != nil {
		t.Fatalf("reserve alice: %v", err)
	}
	bobID, err := h.booking.Reserve(ctx, "bob", "prod-1", "2026-09-10", 12, dec("7"))
	if err != nil {
		t.Fatalf("reserve bob: %v", err)
	}

	lowerCapacity(t, h, "prod-1", "2026-09-10", 12, "10")

	result, err := h.ration.RationSlot(ctx, "prod-1", "2026-09-10", 12)
	if err != nil {
		t.Fatalf("ration: %v", err)
	}
	if !result.Adjusted {
		t.Fatal("expected an adjustment")
	}
	if !result.Ratio.Equal(dec("0.714")) {
		t.Fatalf("ratio: got %s want 0.714", result.Ratio)
	}

	for _, id := range []string{aliceID, bobID} {
		reservation, err := h.reservations.GetByID(ctx, id)
		if err != nil {
			t.Fatalf("get reservation: %v", err)
		}
		if !reservation.Kwh.Equal(dec("5")) {
			t.Fatalf("reservation %s kwh: got %s want 5", id, reservation.Kwh)
		}
	}

	// Each shrank by 2 kwh at the snapshot price of 2.
	if got := h.balance(t, "alice"); !got.Equal(dec("990")) {
		t.Fatalf("alice balance: got %s want 990", got)
	}
	if got := h.balance(t, "bob"); !got.Equal(dec("990")) {
		t.Fatalf("bob balance: got %s want 990", got)
	}

	active, err := h.reservations.ListActiveForSlot(ctx, "prod-1", "2026-09-10", 12)
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if got := booking.SumActiveKwh(active, ""); got.GreaterThan(dec("10")) {
		t.Fatalf("demand must fit the lowered ceiling, got %s", got)
	}
}

func TestRation_NoopWithinCapacity(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, time.September, 1, 10, 0, 0, 0, time.UTC)
	h := newHarness(t, now)

	h.addProducer(t, "prod-1", "2")
	h.addSlot(t, "prod-1", "2026-09-10", 12, "10")
	h.addAccount(t, "alice", "1000")

	if _, err := h.booking.Reserve(ctx, "alice", "prod-1", "2026-09-10", 12, dec("4")); err != nil {
		t.Fatalf("reserve: %v", err)
	}

	result, err := h.ration.RationSlot(ctx, "prod-1", "2026-09-10", 12)
	if err != nil {
		t.Fatalf("ration: %v", err)
	}
	if result.Adjusted {
		t.Fatal("no adjustment expected while demand fits")
	}
	if got := h.balance(t, "alice"); !got.Equal(dec("992")) {
		t.Fatalf("balance must be untouched, got %s", got)
	}
}

func TestRation_SkipsReservationsShrunkBelowMinimum(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, time.September, 1, 10, 0, 0, 0, time.UTC)
	h := newHarness(t, now)

	h.addProducer(t, "prod-1", "2")
	h.addSlot(t, "prod-1", "2026-09-10", 12, "20")
	h.addAccount(t, "alice", "1000")
	h.addAccount(t, "bob", "1000")

	smallID, err := h.booking.Reserve(ctx, "alice", "prod-1", "2026-09-10", 12, dec("0.15"))
	if err != nil {
		t.Fatalf("reserve small: %v", err)
	}
	largeID, err := h.booking.Reserve(ctx, "bob", "prod-1", "2026-09-10", 12, dec("15"))
	if err != nil {
		t.Fatalf("reserve large: %v", err)
	}

	lowerCapacity(t, h, "prod-1", "2026-09-10", 12, "5")

	result, err := h.ration.RationSlot(ctx, "prod-1", "2026-09-10", 12)
	if err != nil {
		t.Fatalf("ration: %v", err)
	}
	if !result.Adjusted {
		t.Fatal("expected an adjustment")
	}

	small, err := h.reservations.GetByID(ctx, smallID)
	if err != nil {
		t.Fatalf("get small: %v", err)
	}
	// Rationed quantity would land under the minimum, so it stays as-is.
	if !small.Kwh.Equal(dec("0.15")) {
		t.Fatalf("small kwh: got %s want 0.15", small.Kwh)
	}
	if got := h.balance(t, "alice"); !got.Equal(dec("999.7")) {
		t.Fatalf("skipped reservation must not be refunded, got %s", got)
	}

	large, err := h.reservations.GetByID(ctx, largeID)
	if err != nil {
		t.Fatalf("get large: %v", err)
	}
	if !large.Kwh.LessThan(dec("15")) {
		t.Fatalf("large reservation must shrink, got %s", large.Kwh)
	}
}

func TestRation_ValidatesSlot(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, time.September, 1, 10, 0, 0, 0, time.UTC)
	h := newHarness(t, now)

	h.addProducer(t, "prod-1", "2")

	_, err := h.ration.RationSlot(ctx, "prod-1", "2026-09-10", 12)
	if !errors.Is(err, market.ErrNoCapacityConfigured) {
		t.Fatalf("expected no capacity configured, got %v", err)
	}

	_, err = h.ration.RationSlot(ctx, "prod-1", "2026-09-10", 24)
	if !errors.Is(err, market.ErrInvalidHour) {
		t.Fatalf("expected invalid hour, got %v", err)
	}
}
