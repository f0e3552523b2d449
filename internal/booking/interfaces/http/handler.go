package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"gridmarket/internal/auth"
	bookingapp "gridmarket/internal/booking/application"
	booking "gridmarket/internal/booking/domain"
	ledger "gridmarket/internal/ledger/domain"
	market "gridmarket/internal/market/domain"
	"gridmarket/internal/observability/metrics"
)

// Handler serves consumer reservation endpoints.
type Handler struct {
	bookings      *bookingapp.BookingService
	modifications *bookingapp.ModificationService
}

// NewHandler constructs a Handler.
func NewHandler(bookings *bookingapp.BookingService, modifications *bookingapp.ModificationService) (*Handler, error) {
	if bookings == nil {
		return nil, errors.New("booking handler: nil booking service")
	}
	if modifications == nil {
		return nil, errors.New("booking handler: nil modification service")
	}
	return &Handler{bookings: bookings, modifications: modifications}, nil
}

// ServeHTTP routes reservation requests.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	consumerID := auth.SubjectFromContext(r.Context())
	if consumerID == "" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	switch {
	case r.URL.Path == "/api/v1/reservations" && r.Method == http.MethodPost:
		h.handleReserve(w, r, consumerID)
	case r.URL.Path == "/api/v1/reservations" && r.Method == http.MethodPatch:
		h.handleModify(w, r, consumerID)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *Handler) handleReserve(w http.ResponseWriter, r *http.Request, consumerID string) {
	var req struct {
		ProducerID string          `json:"producerId"`
		Date       string          `json:"date"`
		Hour       int             `json:"hour"`
		Kwh        decimal.Decimal `json:"kwh"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if req.ProducerID == "" {
		http.Error(w, "producerId is required", http.StatusBadRequest)
		return
	}
	started := time.Now()
	reservationID, err := h.bookings.Reserve(r.Context(), consumerID, req.ProducerID, req.Date, req.Hour, req.Kwh)
	if err != nil {
		metrics.ObserveReserve(metrics.ResultError, time.Since(started))
		respondBookingError(w, err)
		return
	}
	metrics.ObserveReserve(metrics.ResultSuccess, time.Since(started))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]string{"reservationId": reservationID})
}

func (h *Handler) handleModify(w http.ResponseWriter, r *http.Request, consumerID string) {
	var req struct {
		ReservationID string          `json:"reservationId"`
		Kwh           decimal.Decimal `json:"kwh"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if req.ReservationID == "" {
		http.Error(w, "reservationId is required", http.StatusBadRequest)
		return
	}
	started := time.Now()
	result, err := h.modifications.Modify(r.Context(), consumerID, req.ReservationID, req.Kwh)
	if err != nil {
		metrics.ObserveModify(metrics.ResultError, time.Since(started))
		respondBookingError(w, err)
		return
	}
	metrics.ObserveModify(metrics.ResultSuccess, time.Since(started))
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"reservationId": result.ReservationID,
		"cancelled":     result.Cancelled,
		"refunded":      result.Refunded,
		"kwh":           result.Kwh,
	})
}

func respondBookingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, booking.ErrReservationNotFound),
		errors.Is(err, market.ErrProducerNotFound),
		errors.Is(err, ledger.ErrAccountNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, booking.ErrCutoffViolation),
		errors.Is(err, booking.ErrCapacityExceeded),
		errors.Is(err, booking.ErrMultipleProducersPerHour),
		errors.Is(err, ledger.ErrInsufficientCredit),
		errors.Is(err, market.ErrNoCapacityConfigured),
		errors.Is(err, booking.ErrBelowMinimumQuantity),
		errors.Is(err, market.ErrInvalidDate),
		errors.Is(err, market.ErrInvalidHour):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
