package integration_test

import (
	"context"
	"errors"
	"testing"
	"time"

	booking "gridmarket/internal/booking/domain"
	ledger "gridmarket/internal/ledger/domain"
)

func TestModify_CancelBeforeCutoffRefunds(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, time.September, 1, 10, 0, 0, 0, time.UTC)
	h := newHarness(t, now)

	h.addProducer(t, "prod-1", "2")
	h.addSlot(t, "prod-1", "2026-09-10", 12, "10")
	h.addAccount(t, "alice", "1000")

	id, err := h.booking.Reserve(ctx, "alice", "prod-1", "2026-09-10", 12, dec("5"))
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if got := h.balance(t, "alice"); !got.Equal(dec("990")) {
		t.Fatalf("balance after reserve: got %s want 990", got)
	}

	result, err := h.modify.Modify(ctx, "alice", id, dec("0"))
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if !result.Cancelled || !result.Refunded {
		t.Fatalf("expected refunded cancellation, got %+v", result)
	}
	if got := h.balance(t, "alice"); !got.Equal(dec("1000")) {
		t.Fatalf("balance after refund: got %s want 1000", got)
	}

	reservation, err := h.reservations.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("get reservation: %v", err)
	}
	if reservation.Status != booking.StatusCancelled || !reservation.Kwh.IsZero() {
		t.Fatalf("expected cancelled zero-quantity reservation, got %+v", reservation)
	}

	active, err := h.reservations.ListActiveForSlot(ctx, "prod-1", "2026-09-10", 12)
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(active) != 0 {
		t.Fatalf("cancelled reservation must free capacity, got %d active", len(active))
	}
}

func TestModify_CancelInsideCutoffKeepsCharge(t *testing.T) {
	ctx := context.Background()
	slotStart := time.Date(2026, time.September, 10, 12, 0, 0, 0, time.UTC)
	h := newHarness(t, slotStart.Add(-48*time.Hour))

	h.addProducer(t, "prod-1", "2")
	h.addSlot(t, "prod-1", "2026-09-10", 12, "10")
	h.addAccount(t, "alice", "1000")

	id, err := h.booking.Reserve(ctx, "alice", "prod-1", "2026-09-10", 12, dec("5"))
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}

	// Exactly 24h of lead no longer qualifies for a refund.
	h.clock.now = slotStart.Add(-24 * time.Hour)
	result, err := h.modify.Modify(ctx, "alice", id, dec("0"))
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if !result.Cancelled || result.Refunded {
		t.Fatalf("expected unrefunded cancellation, got %+v", result)
	}
	if got := h.balance(t, "alice"); !got.Equal(dec("990")) {
		t.Fatalf("charge must stick, got %s", got)
	}
}

func TestModify_ResizeSettlesDeltaAtSnapshotPrice(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, time.September, 1, 10, 0, 0, 0, time.UTC)
	h := newHarness(t, now)

	h.addProducer(t, "prod-1", "2")
	h.addSlot(t, "prod-1", "2026-09-10", 12, "10")
	h.addAccount(t, "alice", "1000")

	id, err := h.booking.Reserve(ctx, "alice", "prod-1", "2026-09-10", 12, dec("5"))
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}

	// Published price moves; deltas still settle at the snapshot.
	slot, err := h.slots.Get(ctx, "prod-1", "2026-09-10", 12)
	if err != nil {
		t.Fatalf("get slot: %v", err)
	}
	slot.PricePerKwh = dec("9")
	if err := h.slots.Save(ctx, slot); err != nil {
		t.Fatalf("save slot: %v", err)
	}

	result, err := h.modify.Modify(ctx, "alice", id, dec("8"))
	if err != nil {
		t.Fatalf("increase: %v", err)
	}
	if !result.Kwh.Equal(dec("8")) {
		t.Fatalf("kwh after increase: got %s want 8", result.Kwh)
	}
	if got := h.balance(t, "alice"); !got.Equal(dec("984")) {
		t.Fatalf("balance after increase: got %s want 984", got)
	}

	if _, err := h.modify.Modify(ctx, "alice", id, dec("2")); err != nil {
		t.Fatalf("decrease: %v", err)
	}
	if got := h.balance(t, "alice"); !got.Equal(dec("996")) {
		t.Fatalf("balance after decrease: got %s want 996", got)
	}
}

func TestModify_ResizeMinimumBoundary(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, time.September, 1, 10, 0, 0, 0, time.UTC)
	h := newHarness(t, now)

	h.addProducer(t, "prod-1", "2")
	h.addSlot(t, "prod-1", "2026-09-10", 12, "10")
	h.addAccount(t, "alice", "1000")

	id, err := h.booking.Reserve(ctx, "alice", "prod-1", "2026-09-10", 12, dec("5"))
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}

	_, err = h.modify.Modify(ctx, "alice", id, dec("0.099"))
	if !errors.Is(err, booking.ErrBelowMinimumQuantity) {
		t.Fatalf("expected minimum quantity rejection, got %v", err)
	}

	result, err := h.modify.Modify(ctx, "alice", id, dec("0.1"))
	if err != nil {
		t.Fatalf("resize to minimum: %v", err)
	}
	if !result.Kwh.Equal(dec("0.1")) {
		t.Fatalf("kwh: got %s want 0.1", result.Kwh)
	}
}

func TestModify_IncreaseRechecksCapacityExcludingSelf(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, time.September, 1, 10, 0, 0, 0, time.UTC)
	h := newHarness(t, now)

	h.addProducer(t, "prod-1", "2")
	h.addSlot(t, "prod-1", "2026-09-10", 12, "10")
	h.addAccount(t, "alice", "1000")
	h.addAccount(t, "bob", "1000")

	id, err := h.booking.Reserve(ctx, "alice", "prod-1", "2026-09-10", 12, dec("6"))
	if err != nil {
		t.Fatalf("reserve alice: %v", err)
	}
	if _, err := h.booking.Reserve(ctx, "bob", "prod-1", "2026-09-10", 12, dec("3")); err != nil {
		t.Fatalf("reserve bob: %v", err)
	}

	// 7 + bob's 3 fits exactly; 8 does not.
	if _, err := h.modify.Modify(ctx, "alice", id, dec("7")); err != nil {
		t.Fatalf("increase to fit: %v", err)
	}
	_, err = h.modify.Modify(ctx, "alice", id, dec("8"))
	if !errors.Is(err, booking.ErrCapacityExceeded) {
		t.Fatalf("expected capacity exceeded, got %v", err)
	}
}

func TestModify_IncreaseRequiresCredit(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, time.September, 1, 10, 0, 0, 0, time.UTC)
	h := newHarness(t, now)

	h.addProducer(t, "prod-1", "2")
	h.addSlot(t, "prod-1", "2026-09-10", 12, "10")
	h.addAccount(t, "alice", "12")

	id, err := h.booking.Reserve(ctx, "alice", "prod-1", "2026-09-10", 12, dec("5"))
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}

	// Balance 2 left, the extra 3 kwh would cost 6.
	_, err = h.modify.Modify(ctx, "alice", id, dec("8"))
	if !errors.Is(err, ledger.ErrInsufficientCredit) {
		t.Fatalf("expected insufficient credit, got %v", err)
	}
	if got := h.balance(t, "alice"); !got.Equal(dec("2")) {
		t.Fatalf("balance must be untouched, got %s", got)
	}
}

func TestModify_CancelledReservationStaysCancelled(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, time.September, 1, 10, 0, 0, 0, time.UTC)
	h := newHarness(t, now)

	h.addProducer(t, "prod-1", "2")
	h.addProducer(t, "prod-2", "3")
	h.addSlot(t, "prod-1", "2026-09-10", 12, "10")
	h.addSlot(t, "prod-2", "2026-09-10", 12, "10")
	h.addAccount(t, "alice", "1000")

	id, err := h.booking.Reserve(ctx, "alice", "prod-1", "2026-09-10", 12, dec("5"))
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if _, err := h.modify.Modify(ctx, "alice", id, dec("0")); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	// The hour is free again; alice moves to another producer.
	if _, err := h.booking.Reserve(ctx, "alice", "prod-2", "2026-09-10", 12, dec("4")); err != nil {
		t.Fatalf("reserve second producer: %v", err)
	}

	// Resizing the cancelled reservation would be a fresh booking in
	// disguise and must read as missing.
	_, err = h.modify.Modify(ctx, "alice", id, dec("5"))
	if !errors.Is(err, booking.ErrReservationNotFound) {
		t.Fatalf("expected not found for cancelled reservation, got %v", err)
	}

	reservation, err := h.reservations.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("get reservation: %v", err)
	}
	if reservation.Status != booking.StatusCancelled || !reservation.Kwh.IsZero() {
		t.Fatalf("cancelled reservation must stay cancelled, got %+v", reservation)
	}
	active, err := h.reservations.ListActiveForSlot(ctx, "prod-1", "2026-09-10", 12)
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(active) != 0 {
		t.Fatalf("slot must hold no active reservations, got %d", len(active))
	}
	if got := h.balance(t, "alice"); !got.Equal(dec("988")) {
		t.Fatalf("balance: got %s want 988", got)
	}
}

func TestModify_HidesForeignReservations(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, time.September, 1, 10, 0, 0, 0, time.UTC)
	h := newHarness(t, now)

	h.addProducer(t, "prod-1", "2")
	h.addSlot(t, "prod-1", "2026-09-10", 12, "10")
	h.addAccount(t, "alice", "1000")
	h.addAccount(t, "mallory", "1000")

	id, err := h.booking.Reserve(ctx, "alice", "prod-1", "2026-09-10", 12, dec("5"))
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}

	_, err = h.modify.Modify(ctx, "mallory", id, dec("0"))
	if !errors.Is(err, booking.ErrReservationNotFound) {
		t.Fatalf("foreign reservation must read as missing, got %v", err)
	}

	_, err = h.modify.Modify(ctx, "alice", "no-such-id", dec("0"))
	if !errors.Is(err, booking.ErrReservationNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
