package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"gridmarket/internal/auth"
	bookingapp "gridmarket/internal/booking/application"
	marketapp "gridmarket/internal/market/application"
	market "gridmarket/internal/market/domain"
	"gridmarket/internal/observability/metrics"
)

// Handler serves producer market endpoints.
type Handler struct {
	producers *marketapp.ProducerService
	rationing *bookingapp.RationingService
}

// NewHandler constructs a Handler.
func NewHandler(producers *marketapp.ProducerService, rationing *bookingapp.RationingService) (*Handler, error) {
	if producers == nil {
		return nil, errors.New("market handler: nil producer service")
	}
	if rationing == nil {
		return nil, errors.New("market handler: nil rationing service")
	}
	return &Handler{producers: producers, rationing: rationing}, nil
}

// ServeHTTP routes producer market requests.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID := auth.SubjectFromContext(r.Context())
	if userID == "" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	switch {
	case r.URL.Path == "/api/v1/producer/profile" && r.Method == http.MethodPut:
		h.handleProfile(w, r, userID)
	case r.URL.Path == "/api/v1/producer/capacities" && r.Method == http.MethodPut:
		h.handleCapacities(w, r, userID)
	case r.URL.Path == "/api/v1/producer/prices" && r.Method == http.MethodPut:
		h.handlePrices(w, r, userID)
	case r.URL.Path == "/api/v1/producer/ration" && r.Method == http.MethodPost:
		h.handleRation(w, r, userID)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *Handler) handleProfile(w http.ResponseWriter, r *http.Request, userID string) {
	var req struct {
		EnergyType           string           `json:"energyType"`
		CO2PerKwh            decimal.Decimal  `json:"co2PerKwh"`
		PricePerKwh          *decimal.Decimal `json:"pricePerKwh"`
		DefaultMaxPerHourKwh decimal.Decimal  `json:"defaultMaxPerHourKwh"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	producerID, err := h.producers.UpsertProfile(r.Context(), userID, marketapp.ProfileInput{
		EnergyType:           req.EnergyType,
		CO2PerKwh:            req.CO2PerKwh,
		PricePerKwh:          req.PricePerKwh,
		DefaultMaxPerHourKwh: req.DefaultMaxPerHourKwh,
	})
	if err != nil {
		respondMarketError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"producerId": producerID})
}

func (h *Handler) handleCapacities(w http.ResponseWriter, r *http.Request, userID string) {
	var req struct {
		Date  string `json:"date"`
		Slots []struct {
			Hour           int              `json:"hour"`
			MaxCapacityKwh decimal.Decimal  `json:"maxCapacityKwh"`
			PricePerKwh    *decimal.Decimal `json:"pricePerKwh"`
		} `json:"slots"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if len(req.Slots) == 0 {
		http.Error(w, "slots are required", http.StatusBadRequest)
		return
	}
	inputs := make([]marketapp.SlotInput, 0, len(req.Slots))
	for _, slot := range req.Slots {
		inputs = append(inputs, marketapp.SlotInput{
			Hour:           slot.Hour,
			MaxCapacityKwh: slot.MaxCapacityKwh,
			PricePerKwh:    slot.PricePerKwh,
		})
	}
	ids, err := h.producers.PublishCapacities(r.Context(), userID, req.Date, inputs)
	if err != nil {
		respondMarketError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"slotIds": ids})
}

func (h *Handler) handlePrices(w http.ResponseWriter, r *http.Request, userID string) {
	var req struct {
		Date  string `json:"date"`
		Slots []struct {
			Hour        int             `json:"hour"`
			PricePerKwh decimal.Decimal `json:"pricePerKwh"`
		} `json:"slots"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if len(req.Slots) == 0 {
		http.Error(w, "slots are required", http.StatusBadRequest)
		return
	}
	inputs := make([]marketapp.PriceInput, 0, len(req.Slots))
	for _, slot := range req.Slots {
		inputs = append(inputs, marketapp.PriceInput{Hour: slot.Hour, PricePerKwh: slot.PricePerKwh})
	}
	ids, err := h.producers.UpdatePrices(r.Context(), userID, req.Date, inputs)
	if err != nil {
		respondMarketError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"slotIds": ids})
}

func (h *Handler) handleRation(w http.ResponseWriter, r *http.Request, userID string) {
	var req struct {
		Date string `json:"date"`
		Hour int    `json:"hour"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	producerID, err := h.producers.ProducerIDFor(r.Context(), userID)
	if err != nil {
		respondMarketError(w, err)
		return
	}
	started := time.Now()
	result, err := h.rationing.RationSlot(r.Context(), producerID, req.Date, req.Hour)
	if err != nil {
		metrics.ObserveRation(metrics.ResultError, time.Since(started))
		respondMarketError(w, err)
		return
	}
	metrics.ObserveRation(metrics.ResultSuccess, time.Since(started))
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"adjusted": result.Adjusted,
		"ratio":    result.Ratio,
	})
}

func respondMarketError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, market.ErrProducerNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, market.ErrNoCapacityConfigured),
		errors.Is(err, market.ErrInvalidEnergyType),
		errors.Is(err, market.ErrInvalidDate),
		errors.Is(err, market.ErrInvalidHour),
		errors.Is(err, market.ErrNegativeValue),
		errors.Is(err, market.ErrCapacityAboveCeiling):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
