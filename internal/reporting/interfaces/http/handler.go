package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"gridmarket/internal/auth"
	market "gridmarket/internal/market/domain"
	"gridmarket/internal/observability/metrics"
	"gridmarket/internal/reporting/application"
	"gridmarket/internal/reporting/interfaces"
)

// Handler serves the report read models.
type Handler struct {
	reports *application.Service
	export  application.ExportConfig
}

// NewHandler constructs a Handler.
func NewHandler(reports *application.Service, export application.ExportConfig) (*Handler, error) {
	if reports == nil {
		return nil, errors.New("reporting handler: nil report service")
	}
	return &Handler{reports: reports, export: export}, nil
}

// ServeHTTP routes report requests.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID := auth.SubjectFromContext(r.Context())
	if userID == "" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	switch r.URL.Path {
	case "/api/v1/producer/occupancy":
		h.handleOccupancy(w, r, userID)
	case "/api/v1/producer/earnings":
		h.handleEarnings(w, r, userID)
	case "/api/v1/producer/earnings/export":
		h.handleEarningsExport(w, r, userID)
	case "/api/v1/purchases":
		h.handlePurchases(w, r, userID)
	case "/api/v1/carbon":
		h.handleCarbon(w, r, userID)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *Handler) handleOccupancy(w http.ResponseWriter, r *http.Request, userID string) {
	date := r.URL.Query().Get("date")
	if date == "" {
		http.Error(w, "date is required", http.StatusBadRequest)
		return
	}
	fromHour, err := parseHourQuery(r, "fromHour", 0)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	toHour, err := parseHourQuery(r, "toHour", 23)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if toHour < fromHour {
		http.Error(w, "toHour must not precede fromHour", http.StatusBadRequest)
		return
	}
	hours, err := h.reports.Occupancy(r.Context(), userID, date, fromHour, toHour)
	if err != nil {
		respondReportError(w, err)
		return
	}
	type hourDTO struct {
		Hour         int    `json:"hour"`
		CapacityKwh  string `json:"capacityKwh"`
		ReservedKwh  string `json:"reservedKwh"`
		OccupancyPct string `json:"occupancyPct"`
	}
	out := make([]hourDTO, 0, len(hours))
	for _, hour := range hours {
		out = append(out, hourDTO{
			Hour:         hour.Hour,
			CapacityKwh:  hour.CapacityKwh.StringFixed(3),
			ReservedKwh:  hour.ReservedKwh.StringFixed(3),
			OccupancyPct: hour.OccupancyPct.StringFixed(2),
		})
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"date": date, "hours": out})
}

func (h *Handler) handleEarnings(w http.ResponseWriter, r *http.Request, userID string) {
	start, end, ok := rangeQuery(w, r)
	if !ok {
		return
	}
	total, err := h.reports.Earnings(r.Context(), userID, start, end)
	if err != nil {
		respondReportError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"startDate": start,
		"endDate":   end,
		"total":     total.StringFixed(4),
	})
}

func (h *Handler) handleEarningsExport(w http.ResponseWriter, r *http.Request, userID string) {
	start, end, ok := rangeQuery(w, r)
	if !ok {
		return
	}
	format := r.URL.Query().Get("format")
	if format == "" {
		format = h.export.DefaultFormat
	}
	statement, err := h.reports.EarningsStatement(r.Context(), userID, start, end)
	if err != nil {
		respondReportError(w, err)
		return
	}

	var payload []byte
	var contentType, extension string
	started := time.Now()
	switch format {
	case "csv":
		payload, err = interfaces.BuildStatementCSV(h.export, statement)
		contentType, extension = "text/csv", "csv"
	case "xlsx":
		payload, err = interfaces.BuildStatementXLSX(h.export, statement)
		contentType, extension = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "xlsx"
	case "pdf":
		payload, err = interfaces.BuildStatementPDF(h.export, statement)
		contentType, extension = "application/pdf", "pdf"
	default:
		http.Error(w, "format must be csv, xlsx or pdf", http.StatusBadRequest)
		return
	}
	if err != nil {
		metrics.ObserveStatementExport(format, metrics.ResultError, time.Since(started))
		http.Error(w, "export failed", http.StatusInternalServerError)
		return
	}
	metrics.ObserveStatementExport(format, metrics.ResultSuccess, time.Since(started))
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", "attachment; filename=earnings-"+start+"-"+end+"."+extension)
	_, _ = w.Write(payload)
}

func (h *Handler) handlePurchases(w http.ResponseWriter, r *http.Request, consumerID string) {
	query := r.URL.Query()
	purchases, err := h.reports.Purchases(r.Context(), consumerID, application.PurchaseFilter{
		ProducerID: query.Get("producerId"),
		StartDate:  query.Get("startDate"),
		EndDate:    query.Get("endDate"),
		EnergyType: query.Get("energyType"),
	})
	if err != nil {
		respondReportError(w, err)
		return
	}
	type purchaseDTO struct {
		ReservationID string `json:"reservationId"`
		ProducerID    string `json:"producerId"`
		EnergyType    string `json:"energyType"`
		Date          string `json:"date"`
		Hour          int    `json:"hour"`
		Kwh           string `json:"kwh"`
		UnitPrice     string `json:"unitPrice"`
	}
	out := make([]purchaseDTO, 0, len(purchases))
	for _, p := range purchases {
		out = append(out, purchaseDTO{
			ReservationID: p.ReservationID,
			ProducerID:    p.ProducerID,
			EnergyType:    string(p.EnergyType),
			Date:          p.Date,
			Hour:          p.Hour,
			Kwh:           p.Kwh.StringFixed(3),
			UnitPrice:     p.UnitPrice.String(),
		})
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"purchases": out})
}

func (h *Handler) handleCarbon(w http.ResponseWriter, r *http.Request, consumerID string) {
	start, end, ok := rangeQuery(w, r)
	if !ok {
		return
	}
	total, err := h.reports.Carbon(r.Context(), consumerID, start, end)
	if err != nil {
		respondReportError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"startDate":     start,
		"endDate":       end,
		"totalCo2Grams": total.StringFixed(3),
	})
}

func rangeQuery(w http.ResponseWriter, r *http.Request) (string, string, bool) {
	start := r.URL.Query().Get("startDate")
	end := r.URL.Query().Get("endDate")
	if start == "" || end == "" {
		http.Error(w, "startDate and endDate are required", http.StatusBadRequest)
		return "", "", false
	}
	return start, end, true
}

func parseHourQuery(r *http.Request, key string, fallback int) (int, error) {
	value := r.URL.Query().Get(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, errors.New(key + " must be an integer hour")
	}
	return parsed, nil
}

func respondReportError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, market.ErrProducerNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, market.ErrInvalidDate), errors.Is(err, market.ErrInvalidHour):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
