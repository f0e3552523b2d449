package integration_test

import (
	"context"
	"testing"
	"time"

	bookingapp "gridmarket/internal/booking/application"
	bookingmemory "gridmarket/internal/booking/infrastructure/memory"
	ledger "gridmarket/internal/ledger/domain"
	ledgermemory "gridmarket/internal/ledger/infrastructure/memory"
	"gridmarket/internal/locking"
	market "gridmarket/internal/market/domain"
	marketmemory "gridmarket/internal/market/infrastructure/memory"

	"github.com/shopspring/decimal"
)

type fixedClock struct {
	now time.Time
}

func (c *fixedClock) Now() time.Time { return c.now }

type harness struct {
	accounts     *ledgermemory.AccountRepository
	producers    *marketmemory.ProducerRepository
	slots        *marketmemory.SlotRepository
	reservations *bookingmemory.ReservationRepository
	clock        *fixedClock

	booking *bookingapp.BookingService
	modify  *bookingapp.ModificationService
	ration  *bookingapp.RationingService
}

func newHarness(t *testing.T, now time.Time) *harness {
	t.Helper()

	accounts := ledgermemory.NewAccountRepository()
	producers := marketmemory.NewProducerRepository()
	slots := marketmemory.NewSlotRepository()
	reservations := bookingmemory.NewReservationRepository(accounts)
	locks := locking.NewManager()
	clock := &fixedClock{now: now}

	bookingService, err := bookingapp.NewBookingService(producers, slots, reservations, accounts, locks, clock)
	if err != nil {
		t.Fatalf("new booking service: %v", err)
	}
	modificationService, err := bookingapp.NewModificationService(slots, reservations, accounts, locks, clock)
	if err != nil {
		t.Fatalf("new modification service: %v", err)
	}
	rationingService, err := bookingapp.NewRationingService(slots, reservations, accounts, locks)
	if err != nil {
		t.Fatalf("new rationing service: %v", err)
	}

	return &harness{
		accounts:     accounts,
		producers:    producers,
		slots:        slots,
		reservations: reservations,
		clock:        clock,
		booking:      bookingService,
		modify:       modificationService,
		ration:       rationingService,
	}
}

func (h *harness) addProducer(t *testing.T, id, price string) {
	t.Helper()
	err := h.producers.Save(context.Background(), &market.Producer{
		ID:          id,
		UserID:      "user-" + id,
		EnergyType:  market.EnergyWind,
		CO2PerKwh:   decimal.Zero,
		PricePerKwh: dec(price),
	})
	if err != nil {
		t.Fatalf("save producer: %v", err)
	}
}

func (h *harness) addSlot(t *testing.T, producerID, date string, hour int, capacity string) {
	t.Helper()
	err := h.slots.Save(context.Background(), &market.CapacitySlot{
		ID:             producerID + "-slot",
		ProducerID:     producerID,
		Date:           date,
		Hour:           hour,
		MaxCapacityKwh: dec(capacity),
	})
	if err != nil {
		t.Fatalf("save slot: %v", err)
	}
}

func (h *harness) addAccount(t *testing.T, userID, balance string) {
	t.Helper()
	err := h.accounts.Create(context.Background(), &ledger.Account{
		UserID:  userID,
		Balance: dec(balance),
	})
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
}

func (h *harness) balance(t *testing.T, userID string) decimal.Decimal {
	t.Helper()
	account, err := h.accounts.Get(context.Background(), userID)
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if account == nil {
		t.Fatalf("account %s missing", userID)
	}
	return account.Balance
}

func dec(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}
